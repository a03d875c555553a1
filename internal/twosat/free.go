package twosat

import (
	"sort"

	"github.com/rhartert/resat/cnf"
	"github.com/rhartert/yagh"
)

// Group is a set of component pairs whose truth values must be flipped
// together to move from one model to another. Flipping a group toggles the
// value of every variable in Vars.
type Group struct {
	// Pairs holds the smaller component identifier of each flipped
	// variable/negation component pair.
	Pairs []int

	// Vars holds the identifiers of the variables toggled by the group, in
	// ascending order.
	Vars []int
}

// FreeChoiceSet is the set of independent groups that can be flipped from the
// canonical model, in any combination, without violating a clause on their
// own. It defines the space of alternative models reachable by the filter
// search.
//
// The set is a sound under-approximation: a group's flip is valid in
// isolation, but two groups connected by a cross edge in the condensation may
// still conflict when flipped together. Candidate models must therefore be
// re-checked against the formula, which the filter search does.
type FreeChoiceSet struct {
	Groups []Group
}

// AnalyzeFreeChoices determines which variable/negation component pairs of a
// satisfiable condensation can deviate from the canonical model, and groups
// mutually dependent pairs together.
//
// A pair deviates by making its canonically false component true. That is
// only consistent if every successor of that component ends up true as well:
// canonically false successors force their own pairs to flip (closure), and
// canonically true successors must not flip. Pairs whose closure contradicts
// itself are forced; the rest are free. Only groups on which every member
// agrees (each member's closure is the same set) are kept, so that groups are
// disjoint and individually flippable.
func AnalyzeFreeChoices(cond *Condensation, canonical cnf.Assignment) *FreeChoiceSet {
	numComp := cond.NumComponents()

	value := make([]bool, numComp)
	for id := 0; id < numComp; id++ {
		value[id] = canonical.Value(cond.Members(id)[0])
	}

	// Register each unordered component pair once, on its smaller member.
	pairIndex := make([]int, numComp)
	var trueComp, falseComp []int
	for id := 0; id < numComp; id++ {
		p := cond.Paired(id)
		if p < id {
			pairIndex[id] = pairIndex[p]
			continue
		}
		pairIndex[id] = len(trueComp)
		if value[id] {
			trueComp = append(trueComp, id)
			falseComp = append(falseComp, p)
		} else {
			trueComp = append(trueComp, p)
			falseComp = append(falseComp, id)
		}
	}
	numPairs := len(trueComp)

	succs := make([][]int, numComp)
	for id := 0; id < numComp; id++ {
		succs[id] = cond.Successors(id)
	}

	// closureOf[p] is the sorted set of pairs that must flip together with
	// p, or nil if flipping p cannot be made consistent.
	closureOf := make([][]int, numPairs)
	seen := newResetSet(numPairs)
	worklist := newQueue[int](64)

	for p := 0; p < numPairs; p++ {
		seen.Clear()
		worklist.Clear()
		seen.Add(p)
		worklist.Push(p)

		var set []int
		for worklist.Size() > 0 {
			q := worklist.Pop()
			set = append(set, q)
			for _, d := range succs[falseComp[q]] {
				if value[d] {
					continue // must keep its value, checked below
				}
				if dp := pairIndex[d]; !seen.Contains(dp) {
					seen.Add(dp)
					worklist.Push(dp)
				}
			}
		}

		// The flip set is consistent only if every successor of a component
		// that becomes true is itself true in the flipped model.
		ok := true
		for _, q := range set {
			for _, d := range succs[falseComp[q]] {
				if seen.Contains(pairIndex[d]) == value[d] {
					ok = false
					break
				}
			}
			if !ok {
				break
			}
		}
		if ok {
			sort.Ints(set)
			closureOf[p] = set
		}
	}

	var groups []Group
	for p, set := range closureOf {
		if set == nil || set[0] != p {
			continue // forced, or already considered from its smallest member
		}
		mutual := true
		for _, q := range set[1:] {
			if !equalInts(closureOf[q], set) {
				mutual = false
				break
			}
		}
		if !mutual {
			continue
		}
		groups = append(groups, buildGroup(cond, set, trueComp, falseComp))
	}

	return &FreeChoiceSet{Groups: orderGroups(cond, groups)}
}

func buildGroup(cond *Condensation, set []int, trueComp, falseComp []int) Group {
	g := Group{Pairs: make([]int, 0, len(set))}
	for _, q := range set {
		t, f := trueComp[q], falseComp[q]
		if f < t {
			t, f = f, t
		}
		g.Pairs = append(g.Pairs, t)
		// Each of the pair's variables has exactly one literal in the true
		// component, so this collects every variable exactly once.
		for _, l := range cond.Members(trueComp[q]) {
			g.Vars = append(g.Vars, l.VarID())
		}
	}
	sort.Ints(g.Vars)
	return g
}

// orderGroups sorts groups by increasing size, breaking ties on the smallest
// variable, so that the search flips small perturbations first.
func orderGroups(cond *Condensation, groups []Group) []Group {
	if len(groups) == 0 {
		return nil
	}
	heap := yagh.New[float64](len(groups))
	for i, g := range groups {
		cost := float64(len(g.Vars))*float64(cond.NumVariables()) + float64(g.Vars[0])
		heap.Put(i, cost)
	}

	ordered := make([]Group, 0, len(groups))
	for {
		next, ok := heap.Pop()
		if !ok {
			return ordered
		}
		ordered = append(ordered, groups[next.Elem])
	}
}

func equalInts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
