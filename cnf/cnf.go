// Package cnf provides the data model shared by all stages of the pipeline:
// literals, fixed-arity clauses, formulas, and assignments.
package cnf

import (
	"fmt"
	"strings"
)

// Literal represents a literal, which either represent a boolean variable or
// its negation. Variable v's positive literal is encoded as 2*v and its
// negation as 2*v+1.
type Literal int

// PositiveLiteral returns the positive literal of the given variable.
func PositiveLiteral(varID int) Literal {
	return Literal(varID * 2)
}

// NegativeLiteral returns the negated literal of the given variable.
func NegativeLiteral(varID int) Literal {
	return PositiveLiteral(varID).Opposite()
}

// VarID returns the ID of the literal's variable.
func (l Literal) VarID() int {
	return int(l) / 2
}

// IsPositive returns true if and only if the literal represent the value of
// its boolean variable (i.e. not its negation).
func (l Literal) IsPositive() bool {
	return l&1 == 0
}

// Opposite returns the opposite literal.
func (l Literal) Opposite() Literal {
	return l ^ 1
}

// FromDIMACS converts a non-zero DIMACS literal (1-based, sign for negation)
// to a Literal.
func FromDIMACS(l int) Literal {
	if l < 0 {
		return NegativeLiteral(-l - 1)
	}
	return PositiveLiteral(l - 1)
}

// DIMACS returns the literal in DIMACS convention (1-based, sign for
// negation).
func (l Literal) DIMACS() int {
	if l.IsPositive() {
		return l.VarID() + 1
	}
	return -(l.VarID() + 1)
}

func (l Literal) String() string {
	if l.IsPositive() {
		return fmt.Sprintf("%d", l.VarID())
	} else {
		return fmt.Sprintf("!%d", l.VarID())
	}
}

// Clause is an ordered sequence of literals. The clause's arity is fixed by
// the formula that owns it.
type Clause []Literal

// Satisfied returns true if at least one of the clause's literals is true
// under the given assignment.
func (c Clause) Satisfied(model Assignment) bool {
	for _, l := range c {
		if model.Value(l) {
			return true
		}
	}
	return false
}

func (c Clause) String() string {
	parts := make([]string, len(c))
	for i, l := range c {
		parts[i] = l.String()
	}
	return "(" + strings.Join(parts, " ") + ")"
}

// Assignment maps each variable ID to a boolean value. An assignment is total
// over the variables of the formula it was built for.
type Assignment []bool

// Value returns the value of the given literal under the assignment.
func (a Assignment) Value(l Literal) bool {
	return a[l.VarID()] == l.IsPositive()
}

// Clone returns an independent copy of the assignment.
func (a Assignment) Clone() Assignment {
	c := make(Assignment, len(a))
	copy(c, a)
	return c
}

// MalformedClauseError is returned when a clause does not respect its
// formula's declared arity or refers to an undeclared variable.
type MalformedClauseError struct {
	Clause Clause
	Reason string
}

func (e *MalformedClauseError) Error() string {
	return fmt.Sprintf("malformed clause %s: %s", e.Clause, e.Reason)
}

// Formula is a conjunction of fixed-arity clauses over a declared number of
// variables.
type Formula struct {
	Arity     int
	Variables int
	Clauses   []Clause
}

// NewFormula returns an empty formula with the given clause arity and number
// of declared variables.
func NewFormula(arity int, variables int) *Formula {
	return &Formula{
		Arity:     arity,
		Variables: variables,
	}
}

// AddClause appends the clause formed by the given literals. It returns a
// MalformedClauseError if the number of literals differs from the formula's
// arity or if a literal refers to a variable outside [0, Variables).
func (f *Formula) AddClause(lits ...Literal) error {
	c := Clause(lits)
	if len(lits) != f.Arity {
		return &MalformedClauseError{
			Clause: c,
			Reason: fmt.Sprintf("got %d literals, want %d", len(lits), f.Arity),
		}
	}
	for _, l := range lits {
		if v := l.VarID(); v < 0 || v >= f.Variables {
			return &MalformedClauseError{
				Clause: c,
				Reason: fmt.Sprintf("variable %d outside [0, %d)", v, f.Variables),
			}
		}
	}
	f.Clauses = append(f.Clauses, c)
	return nil
}

// Satisfied returns true if every clause of the formula is satisfied by the
// given assignment.
func (f *Formula) Satisfied(model Assignment) bool {
	for _, c := range f.Clauses {
		if !c.Satisfied(model) {
			return false
		}
	}
	return true
}
