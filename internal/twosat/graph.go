// Package twosat implements the polynomial-time decision machinery for 2-CNF
// formulas: implication graph construction, strongly connected component
// condensation, canonical model extraction, and free-choice analysis of the
// solution space.
package twosat

import (
	"fmt"

	"github.com/rhartert/resat/cnf"
)

// Graph is the implication graph of a 2-CNF formula: one node per literal,
// and, for each clause (x v y), the two contrapositive edges !x -> y and
// !y -> x.
type Graph struct {
	variables int
	adj       [][]cnf.Literal
	numEdges  int
}

// BuildGraph returns the implication graph of the given 2-CNF formula. The
// graph has exactly 2*f.Variables nodes and 2*len(f.Clauses) edges, and is
// built in O(len(f.Clauses)).
func BuildGraph(f *cnf.Formula) (*Graph, error) {
	if f.Arity != 2 {
		return nil, fmt.Errorf("implication graph requires a 2-CNF formula, got arity %d", f.Arity)
	}

	g := &Graph{
		variables: f.Variables,
		adj:       make([][]cnf.Literal, 2*f.Variables),
	}
	for _, c := range f.Clauses {
		x, y := c[0], c[1]
		g.addEdge(x.Opposite(), y)
		g.addEdge(y.Opposite(), x)
	}
	return g, nil
}

func (g *Graph) addEdge(from cnf.Literal, to cnf.Literal) {
	g.adj[from] = append(g.adj[from], to)
	g.numEdges++
}

// NumVariables returns the number of variables of the underlying formula.
func (g *Graph) NumVariables() int {
	return g.variables
}

// NumNodes returns the number of literal nodes.
func (g *Graph) NumNodes() int {
	return len(g.adj)
}

// NumEdges returns the number of implication edges.
func (g *Graph) NumEdges() int {
	return g.numEdges
}

// Successors returns the literals directly implied by l.
func (g *Graph) Successors(l cnf.Literal) []cnf.Literal {
	return g.adj[l]
}
