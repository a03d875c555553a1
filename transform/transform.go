// Package transform rewrites 3-CNF formulas into 2-CNF formulas by replacing
// each clause with a three-clause gadget over a fresh auxiliary variable.
//
// The gadget for clause (l1 v l2 v l3) with auxiliary a is:
//
//	(!l1 v a) (!l2 v a) (a v l3)
//
// The gadget admits one spurious pattern per clause: l1 false, l2 false, and
// a true. Transform records that pattern as an Exclusion so that later stages
// can rule it out.
package transform

import (
	"fmt"

	"github.com/rhartert/resat/cnf"
)

// Generator allocates fresh variable identifiers. It is explicit state to be
// threaded through transformations, never a package-level counter.
type Generator struct {
	next int
}

// NewGenerator returns a generator whose first fresh identifier is first.
func NewGenerator(first int) *Generator {
	return &Generator{next: first}
}

// Fresh returns a not-yet-used variable identifier.
func (g *Generator) Fresh() int {
	id := g.next
	g.next++
	return id
}

// AuxMap records which auxiliary variable was introduced for each original
// clause. It is built once by Transform and read-only afterwards.
type AuxMap struct {
	numOriginal int
	auxOf       []int
}

// AuxVar returns the auxiliary variable introduced for the original clause
// with the given index.
func (m *AuxMap) AuxVar(clauseIndex int) int {
	return m.auxOf[clauseIndex]
}

// NumOriginal returns the number of variables of the original formula.
func (m *AuxMap) NumOriginal() int {
	return m.numOriginal
}

// NumAux returns the number of auxiliary variables introduced.
func (m *AuxMap) NumAux() int {
	return len(m.auxOf)
}

// Exclusion is a forbidden pattern of three literals: an assignment is
// spurious for the originating clause if all three literals are true.
type Exclusion [3]cnf.Literal

// Matches returns true if the assignment realizes the forbidden pattern.
func (e Exclusion) Matches(model cnf.Assignment) bool {
	return model.Value(e[0]) && model.Value(e[1]) && model.Value(e[2])
}

// Transform rewrites the 3-CNF formula phi into an equisatisfiable-modulo-
// exclusions 2-CNF formula with one fresh auxiliary variable per clause. It
// returns the rewritten formula, the clause-to-auxiliary map, and one
// Exclusion per original clause.
//
// The resulting formula has phi.Variables+len(phi.Clauses) variables and
// 3*len(phi.Clauses) clauses.
func Transform(phi *cnf.Formula) (*cnf.Formula, *AuxMap, []Exclusion, error) {
	if phi.Arity != 3 {
		return nil, nil, nil, fmt.Errorf("cannot transform formula of arity %d, want 3", phi.Arity)
	}

	m := len(phi.Clauses)
	psi := cnf.NewFormula(2, phi.Variables+m)
	auxMap := &AuxMap{
		numOriginal: phi.Variables,
		auxOf:       make([]int, 0, m),
	}
	exclusions := make([]Exclusion, 0, m)

	gen := NewGenerator(phi.Variables)
	for _, c := range phi.Clauses {
		a := cnf.PositiveLiteral(gen.Fresh())
		auxMap.auxOf = append(auxMap.auxOf, a.VarID())

		if err := psi.AddClause(c[0].Opposite(), a); err != nil {
			return nil, nil, nil, err
		}
		if err := psi.AddClause(c[1].Opposite(), a); err != nil {
			return nil, nil, nil, err
		}
		if err := psi.AddClause(a, c[2]); err != nil {
			return nil, nil, nil, err
		}

		exclusions = append(exclusions, Exclusion{c[0].Opposite(), c[1].Opposite(), a})
	}

	return psi, auxMap, exclusions, nil
}

// Project returns the restriction of the given assignment to the original
// variables, dropping all auxiliary entries.
func Project(model cnf.Assignment, auxMap *AuxMap) cnf.Assignment {
	return model[:auxMap.NumOriginal()].Clone()
}
