package twosat

import "github.com/rhartert/resat/cnf"

// Decide decides satisfiability of the condensed formula. It returns
// (nil, false) if some variable's literal and negation share a component,
// which happens if and only if the formula is unsatisfiable. Otherwise it
// returns the canonical model obtained by scanning components in reverse
// topological order (sinks first) and fixing each variable the first time one
// of its literals is encountered.
//
// The canonical model satisfies every clause: a component fixed to true only
// has edges to components already fixed to true, by construction of the
// component order.
func Decide(c *Condensation) (cnf.Assignment, bool) {
	for v := 0; v < c.NumVariables(); v++ {
		if c.comp[cnf.PositiveLiteral(v)] == c.comp[cnf.NegativeLiteral(v)] {
			return nil, false
		}
	}

	model := make(cnf.Assignment, c.NumVariables())
	resolved := make([]bool, c.NumVariables())
	for id := 0; id < c.NumComponents(); id++ {
		for _, l := range c.Members(id) {
			v := l.VarID()
			if resolved[v] {
				continue
			}
			resolved[v] = true
			model[v] = l.IsPositive()
		}
	}
	return model, true
}
