package twosat

import (
	"sort"

	"github.com/rhartert/resat/cnf"
	"gonum.org/v1/gonum/graph/simple"
)

// Condensation is the result of contracting each strongly connected component
// of an implication graph to a single node. Component identifiers are
// assigned in reverse topological order: if the condensation has an edge
// C -> D, then D's identifier is smaller than C's. Sink components therefore
// come first, which is exactly the order in which components must be assigned
// true when extracting a canonical model.
type Condensation struct {
	graph   *Graph
	comp    []int
	members [][]cnf.Literal
	paired  []int
	dag     *simple.DirectedGraph
}

// Condense computes the strongly connected components of g with an iterative
// Tarjan traversal and returns the condensation. Nodes are visited in
// ascending identifier order and edges in insertion order, so the result is
// deterministic for a given formula. Runs in O(V+E).
func Condense(g *Graph) *Condensation {
	n := g.NumNodes()
	const unvisited = -1

	index := make([]int, n)
	lowlink := make([]int, n)
	onStack := make([]bool, n)
	comp := make([]int, n)
	for i := range index {
		index[i] = unvisited
		comp[i] = unvisited
	}

	var members [][]cnf.Literal
	var stack []cnf.Literal
	nextIndex := 0

	type frame struct {
		node cnf.Literal
		edge int
	}
	var frames []frame

	visit := func(l cnf.Literal) {
		index[l] = nextIndex
		lowlink[l] = nextIndex
		nextIndex++
		stack = append(stack, l)
		onStack[l] = true
		frames = append(frames, frame{node: l})
	}

	for root := 0; root < n; root++ {
		if index[root] != unvisited {
			continue
		}
		visit(cnf.Literal(root))

		for len(frames) > 0 {
			f := &frames[len(frames)-1]
			if succ := g.Successors(f.node); f.edge < len(succ) {
				w := succ[f.edge]
				f.edge++
				if index[w] == unvisited {
					visit(w)
				} else if onStack[w] && index[w] < lowlink[f.node] {
					lowlink[f.node] = index[w]
				}
				continue
			}

			// All successors of f.node have been explored.
			v := f.node
			frames = frames[:len(frames)-1]
			if len(frames) > 0 {
				p := &frames[len(frames)-1]
				if lowlink[v] < lowlink[p.node] {
					lowlink[p.node] = lowlink[v]
				}
			}
			if lowlink[v] != index[v] {
				continue
			}

			// v is the root of a component: pop its members.
			id := len(members)
			var ms []cnf.Literal
			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack[w] = false
				comp[w] = id
				ms = append(ms, w)
				if w == v {
					break
				}
			}
			sort.Slice(ms, func(i, j int) bool { return ms[i] < ms[j] })
			members = append(members, ms)
		}
	}

	paired := make([]int, len(members))
	for id, ms := range members {
		paired[id] = comp[ms[0].Opposite()]
	}

	dag := simple.NewDirectedGraph()
	for id := range members {
		dag.AddNode(simple.Node(int64(id)))
	}
	for v := 0; v < n; v++ {
		for _, w := range g.Successors(cnf.Literal(v)) {
			cv, cw := comp[v], comp[w]
			if cv != cw {
				dag.SetEdge(simple.Edge{F: simple.Node(int64(cv)), T: simple.Node(int64(cw))})
			}
		}
	}

	return &Condensation{
		graph:   g,
		comp:    comp,
		members: members,
		paired:  paired,
		dag:     dag,
	}
}

// NumVariables returns the number of variables of the underlying formula.
func (c *Condensation) NumVariables() int {
	return c.graph.NumVariables()
}

// NumComponents returns the number of strongly connected components.
func (c *Condensation) NumComponents() int {
	return len(c.members)
}

// Component returns the identifier of the component containing literal l.
func (c *Condensation) Component(l cnf.Literal) int {
	return c.comp[l]
}

// Members returns the literals of the given component, in ascending order.
func (c *Condensation) Members(id int) []cnf.Literal {
	return c.members[id]
}

// Paired returns the component containing the negations of the given
// component's literals.
func (c *Condensation) Paired(id int) int {
	return c.paired[id]
}

// Successors returns the identifiers of the components directly reachable
// from the given component in the condensation, in ascending order.
func (c *Condensation) Successors(id int) []int {
	it := c.dag.From(int64(id))
	out := make([]int, 0, it.Len())
	for it.Next() {
		out = append(out, int(it.Node().ID()))
	}
	sort.Ints(out)
	return out
}

// DAG returns the condensation as a directed graph.
func (c *Condensation) DAG() *simple.DirectedGraph {
	return c.dag
}
