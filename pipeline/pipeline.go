// Package pipeline composes the full decision pipeline: rewrite a 3-CNF
// formula into a 2-CNF one, decide the rewritten formula in polynomial time,
// search its model space for a model avoiding the gadget's spurious patterns,
// and project any witness back onto the original variables.
package pipeline

import (
	"context"
	"fmt"

	"github.com/rhartert/resat/cnf"
	"github.com/rhartert/resat/internal/search"
	"github.com/rhartert/resat/internal/twosat"
	"github.com/rhartert/resat/transform"
)

// State identifies the stage a pipeline has reached.
type State int8

const (
	Built State = iota
	Transformed
	Decided
	Filtered
	Done

	// UnsatEarly is reached directly from Decided when the rewritten formula
	// is unsatisfiable. Filtering and projection are skipped entirely.
	UnsatEarly
)

func (s State) String() string {
	switch s {
	case Built:
		return "built"
	case Transformed:
		return "transformed"
	case Decided:
		return "decided"
	case Filtered:
		return "filtered"
	case Done:
		return "done"
	case UnsatEarly:
		return "unsat early"
	default:
		return "invalid"
	}
}

// Status is the terminal outcome of a pipeline run.
type Status int8

const (
	// Satisfiable means a model of the rewritten formula survived filtering;
	// its projection onto the original variables is in Result.Model.
	Satisfiable Status = iota

	// Unsatisfiable means the rewritten formula has no model at all.
	Unsatisfiable

	// Exhausted means the rewritten formula is satisfiable but no reachable
	// model avoids the spurious patterns.
	Exhausted

	// BudgetExceeded means the search gave up within its budget before
	// reaching a conclusion.
	BudgetExceeded
)

func (s Status) String() string {
	switch s {
	case Satisfiable:
		return "satisfiable"
	case Unsatisfiable:
		return "unsatisfiable"
	case Exhausted:
		return "exhausted"
	case BudgetExceeded:
		return "budget exceeded"
	default:
		return "unknown"
	}
}

// Options re-exports the search budget configuration.
type Options = search.Options

// DefaultOptions runs an unbounded search with one worker per CPU.
var DefaultOptions = search.DefaultOptions

// Result is the outcome of a pipeline run.
type Result struct {
	Status Status

	// Model is the witness projected onto the original variables. It is nil
	// unless Status is Satisfiable.
	Model cnf.Assignment

	// FreeGroups is the number of independent free-choice groups found in
	// the rewritten formula's solution space.
	FreeGroups int

	// Search reports the filter search cost. It is zero-valued when the run
	// ended in UnsatEarly.
	Search search.Stats
}

// Pipeline runs the stages of the decision pipeline in order, keeping the
// intermediate artifacts available for inspection.
type Pipeline struct {
	state State

	phi        *cnf.Formula
	psi        *cnf.Formula
	auxMap     *transform.AuxMap
	exclusions []transform.Exclusion
	cond       *twosat.Condensation
	canonical  cnf.Assignment
	free       *twosat.FreeChoiceSet
}

// New returns a pipeline for the given 3-CNF formula.
func New(phi *cnf.Formula) *Pipeline {
	return &Pipeline{state: Built, phi: phi}
}

// State returns the stage the pipeline has reached.
func (p *Pipeline) State() State {
	return p.state
}

// Psi returns the rewritten 2-CNF formula. It is nil before the pipeline has
// reached Transformed.
func (p *Pipeline) Psi() *cnf.Formula {
	return p.psi
}

// AuxMap returns the clause-to-auxiliary map. It is nil before the pipeline
// has reached Transformed.
func (p *Pipeline) AuxMap() *transform.AuxMap {
	return p.auxMap
}

// Canonical returns the canonical model of the rewritten formula. It is nil
// before the pipeline has reached Decided, or when the run ended in
// UnsatEarly.
func (p *Pipeline) Canonical() cnf.Assignment {
	return p.canonical
}

// Run executes the remaining stages of the pipeline and returns the terminal
// result. A pipeline can only be run once.
func (p *Pipeline) Run(ctx context.Context, opts Options) (Result, error) {
	if p.state != Built {
		return Result{}, fmt.Errorf("pipeline already ran (state %s)", p.state)
	}

	var err error
	p.psi, p.auxMap, p.exclusions, err = transform.Transform(p.phi)
	if err != nil {
		return Result{}, err
	}
	p.state = Transformed

	g, err := twosat.BuildGraph(p.psi)
	if err != nil {
		return Result{}, err
	}
	p.cond = twosat.Condense(g)

	canonical, sat := twosat.Decide(p.cond)
	if !sat {
		p.state = UnsatEarly
		return Result{Status: Unsatisfiable}, nil
	}
	p.canonical = canonical
	p.state = Decided

	p.free = twosat.AnalyzeFreeChoices(p.cond, p.canonical)
	res := search.Search(ctx, p.psi, p.canonical, p.free, p.exclusions, opts)
	p.state = Filtered

	result := Result{
		FreeGroups: len(p.free.Groups),
		Search:     res.Stats,
	}
	switch res.Status {
	case search.Found:
		result.Status = Satisfiable
		result.Model = transform.Project(res.Model, p.auxMap)
	case search.Exhausted:
		result.Status = Exhausted
	case search.BudgetExceeded:
		result.Status = BudgetExceeded
	}
	p.state = Done
	return result, nil
}

// Transform rewrites the 3-CNF formula phi into a 2-CNF formula with one
// auxiliary variable per clause. See the transform package for the gadget.
func Transform(phi *cnf.Formula) (*cnf.Formula, *transform.AuxMap, error) {
	psi, auxMap, _, err := transform.Transform(phi)
	return psi, auxMap, err
}

// Decide decides satisfiability of the 2-CNF formula psi. It returns the
// canonical model and true when satisfiable, and (nil, false) otherwise.
func Decide(psi *cnf.Formula) (cnf.Assignment, bool, error) {
	g, err := twosat.BuildGraph(psi)
	if err != nil {
		return nil, false, err
	}
	model, sat := twosat.Decide(twosat.Condense(g))
	return model, sat, nil
}

// FreeChoices computes the free-choice groups of psi's solution space
// relative to the given canonical model.
func FreeChoices(psi *cnf.Formula, canonical cnf.Assignment) (*twosat.FreeChoiceSet, error) {
	g, err := twosat.BuildGraph(psi)
	if err != nil {
		return nil, err
	}
	return twosat.AnalyzeFreeChoices(twosat.Condense(g), canonical), nil
}

// FilterSearch searches the models of psi reachable from canonical for one
// that realizes no exclusion pattern. See the search package for the
// enumeration order and budget semantics.
func FilterSearch(
	ctx context.Context,
	psi *cnf.Formula,
	canonical cnf.Assignment,
	free *twosat.FreeChoiceSet,
	exclusions []transform.Exclusion,
	opts Options,
) search.Result {
	return search.Search(ctx, psi, canonical, free, exclusions, opts)
}

// Project restricts a model of the rewritten formula to the original
// variables.
func Project(model cnf.Assignment, auxMap *transform.AuxMap) cnf.Assignment {
	return transform.Project(model, auxMap)
}
