package parsers

import (
	"compress/gzip"
	"fmt"
	"io"
	"os"

	"github.com/rhartert/dimacs"
	"github.com/rhartert/resat/cnf"
)

func reader(filename string, gzipped bool) (io.ReadCloser, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	rc := io.ReadCloser(file)
	if gzipped {
		rc, err = gzip.NewReader(rc)
		if err != nil {
			return nil, err
		}
	}
	return rc, nil
}

// LoadDIMACS parses the DIMACS CNF file into a formula of the given arity.
// Clauses with a different number of literals are rejected.
func LoadDIMACS(filename string, gzipped bool, arity int) (*cnf.Formula, error) {
	r, err := reader(filename, gzipped)
	if err != nil {
		return nil, fmt.Errorf("error reading file %q: %w", filename, err)
	}
	defer r.Close()
	return ReadDIMACS(r, arity)
}

// ReadDIMACS parses a DIMACS CNF formula of the given arity from r.
func ReadDIMACS(r io.Reader, arity int) (*cnf.Formula, error) {
	b := &builder{arity: arity}
	if err := dimacs.ReadBuilder(r, b); err != nil {
		return nil, err
	}
	if b.formula == nil {
		return nil, fmt.Errorf("no problem line found")
	}
	return b.formula, nil
}

// builder accumulates clauses to implement dimacs.Builder.
type builder struct {
	arity   int
	formula *cnf.Formula
}

func (b *builder) Problem(problem string, nVars int, nClauses int) error {
	if problem != "cnf" {
		return fmt.Errorf("not a CNF problem")
	}
	b.formula = cnf.NewFormula(b.arity, nVars)
	b.formula.Clauses = make([]cnf.Clause, 0, nClauses)
	return nil
}

func (b *builder) Clause(tmpClause []int) error {
	if b.formula == nil {
		return fmt.Errorf("found clause before the problem line")
	}
	clause := make([]cnf.Literal, len(tmpClause))
	for i, l := range tmpClause {
		clause[i] = cnf.FromDIMACS(l)
	}
	return b.formula.AddClause(clause...)
}

func (b *builder) Comment(_ string) error {
	return nil // ignore comments
}
