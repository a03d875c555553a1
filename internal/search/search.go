// Package search looks for a model of the transformed formula that avoids
// the gadget's spurious pattern for every original clause.
//
// Candidates are reached from the canonical model by flipping subsets of the
// free-choice groups, smallest subsets first. The number of candidates is
// bounded by 2^k where k is the number of groups; k can grow with the
// formula, so this search is NOT polynomial in general. Its cost is reported
// in Stats so that callers can study it.
package search

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rhartert/resat/cnf"
	"github.com/rhartert/resat/internal/twosat"
	"github.com/rhartert/resat/transform"
	"golang.org/x/sync/errgroup"
)

// Options configures the filter search.
type Options struct {
	// MaxSubsets bounds the number of candidate subsets explored. Negative
	// means no bound.
	MaxSubsets int64

	// MaxDuration bounds the wall-clock time of the search. Negative means
	// no bound.
	MaxDuration time.Duration

	// Workers is the number of goroutines evaluating candidates. Zero or
	// negative means GOMAXPROCS.
	Workers int
}

// DefaultOptions runs an unbounded search with one worker per CPU.
var DefaultOptions = Options{
	MaxSubsets:  -1,
	MaxDuration: -1,
	Workers:     0,
}

// Status is the outcome of a search.
type Status int8

const (
	// Found means a model satisfying every exclusion was found.
	Found Status = iota

	// Exhausted means the whole reachable space was explored and no model
	// survived the exclusions. This is a proof relative to the free-choice
	// set, not a resource limit.
	Exhausted

	// BudgetExceeded means the search gave up before exploring the whole
	// space. It must never be conflated with Exhausted.
	BudgetExceeded
)

func (s Status) String() string {
	switch s {
	case Found:
		return "found"
	case Exhausted:
		return "exhausted"
	case BudgetExceeded:
		return "budget exceeded"
	default:
		return "unknown"
	}
}

// Stats reports the observed cost of a search.
type Stats struct {
	// Explored is the number of candidate subsets evaluated. It never
	// exceeds 2^k for k free groups.
	Explored int64

	// Elapsed is the wall-clock duration of the search.
	Elapsed time.Duration
}

// Result is the outcome of a search together with its witness (when Status
// is Found) and cost.
type Result struct {
	Status Status
	Model  cnf.Assignment
	Stats  Stats
}

// Search explores the models of psi reachable from canonical by flipping
// subsets of free groups, in order of increasing subset size, and returns the
// first one that satisfies psi and matches no exclusion. Workers evaluate
// candidates concurrently; they share nothing but the found slot and stop
// cooperatively once a witness is found, the budget runs out, or ctx is
// cancelled.
func Search(
	ctx context.Context,
	psi *cnf.Formula,
	canonical cnf.Assignment,
	free *twosat.FreeChoiceSet,
	exclusions []transform.Exclusion,
	opts Options,
) Result {
	start := time.Now()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	if opts.MaxDuration >= 0 {
		var cancelTimeout context.CancelFunc
		ctx, cancelTimeout = context.WithTimeout(ctx, opts.MaxDuration)
		defer cancelTimeout()
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	var (
		explored  atomic.Int64
		truncated atomic.Bool

		mu    sync.Mutex
		found cnf.Assignment
	)

	candidates := make(chan []int, workers)
	grp, gctx := errgroup.WithContext(ctx)

	grp.Go(func() error {
		defer close(candidates)
		issued := int64(0)
		return enumerateSubsets(len(free.Groups), func(subset []int) bool {
			if opts.MaxSubsets >= 0 && issued >= opts.MaxSubsets {
				truncated.Store(true)
				return false
			}
			issued++
			select {
			case candidates <- subset:
				return true
			case <-gctx.Done():
				return false
			}
		})
	})

	for i := 0; i < workers; i++ {
		grp.Go(func() error {
			for subset := range candidates {
				if gctx.Err() != nil {
					return nil
				}
				explored.Add(1)
				model := flip(canonical, free.Groups, subset)
				if !accept(psi, exclusions, model) {
					continue
				}
				mu.Lock()
				if found == nil {
					found = model
				}
				mu.Unlock()
				cancel()
				return nil
			}
			return nil
		})
	}

	// Note: gctx is cancelled as soon as Wait returns; only ctx tells
	// whether the search was cut short.
	grp.Wait()

	result := Result{
		Model: found,
		Stats: Stats{
			Explored: explored.Load(),
			Elapsed:  time.Since(start),
		},
	}
	switch {
	case found != nil:
		result.Status = Found
	case truncated.Load() || ctx.Err() != nil:
		result.Status = BudgetExceeded
	default:
		result.Status = Exhausted
	}
	return result
}

// enumerateSubsets calls emit for every subset of {0, ..., k-1} in order of
// increasing size (lexicographic within a size), starting with the empty
// subset. Each emitted slice is freshly allocated. Enumeration stops when
// emit returns false.
func enumerateSubsets(k int, emit func(subset []int) bool) error {
	if !emit(nil) {
		return nil
	}
	for size := 1; size <= k; size++ {
		comb := make([]int, size)
		for i := range comb {
			comb[i] = i
		}
		for {
			if !emit(append([]int(nil), comb...)) {
				return nil
			}
			if !nextCombination(comb, k) {
				break
			}
		}
	}
	return nil
}

// nextCombination advances comb to the next size-preserving combination of
// {0, ..., k-1} in lexicographic order. It returns false when comb was the
// last one.
func nextCombination(comb []int, k int) bool {
	i := len(comb) - 1
	for i >= 0 && comb[i] == k-len(comb)+i {
		i--
	}
	if i < 0 {
		return false
	}
	comb[i]++
	for j := i + 1; j < len(comb); j++ {
		comb[j] = comb[j-1] + 1
	}
	return true
}

// flip returns a copy of the canonical model with the variables of the
// selected groups toggled.
func flip(canonical cnf.Assignment, groups []twosat.Group, subset []int) cnf.Assignment {
	model := canonical.Clone()
	for _, g := range subset {
		for _, v := range groups[g].Vars {
			model[v] = !model[v]
		}
	}
	return model
}

// accept returns true if the model satisfies the formula and realizes none of
// the forbidden patterns. Checking the formula guards against group
// combinations that conflict through cross edges of the condensation.
func accept(psi *cnf.Formula, exclusions []transform.Exclusion, model cnf.Assignment) bool {
	if !psi.Satisfied(model) {
		return false
	}
	for _, e := range exclusions {
		if e.Matches(model) {
			return false
		}
	}
	return true
}
