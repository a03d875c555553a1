package pipeline

import (
	"context"
	"math/rand"
	"testing"

	"github.com/rhartert/resat/cnf"
	"github.com/rhartert/resat/transform"
)

func mustAdd(t *testing.T, f *cnf.Formula, lits ...cnf.Literal) {
	t.Helper()
	if err := f.AddClause(lits...); err != nil {
		t.Fatalf("AddClause(%v): %s", lits, err)
	}
}

func lit(l int) cnf.Literal {
	return cnf.FromDIMACS(l)
}

// formula3 builds a 3-CNF formula from DIMACS-style literals.
func formula3(t *testing.T, variables int, clauses ...[3]int) *cnf.Formula {
	t.Helper()
	f := cnf.NewFormula(3, variables)
	for _, c := range clauses {
		mustAdd(t, f, lit(c[0]), lit(c[1]), lit(c[2]))
	}
	return f
}

// randFormula3 returns a random 3-CNF formula over three distinct variables
// per clause.
func randFormula3(r *rand.Rand, variables int, clauses int) *cnf.Formula {
	f := cnf.NewFormula(3, variables)
	for i := 0; i < clauses; i++ {
		vars := r.Perm(variables)[:3]
		lits := make([]cnf.Literal, 3)
		for j, v := range vars {
			lits[j] = cnf.PositiveLiteral(v)
			if r.Intn(2) == 0 {
				lits[j] = lits[j].Opposite()
			}
		}
		f.AddClause(lits...)
	}
	return f
}

// bruteForceSat searches all assignments of f. Only usable on small formulas.
func bruteForceSat(f *cnf.Formula) (cnf.Assignment, bool) {
	n := f.Variables
	for bits := 0; bits < 1<<n; bits++ {
		model := make(cnf.Assignment, n)
		for v := 0; v < n; v++ {
			model[v] = bits&(1<<v) != 0
		}
		if f.Satisfied(model) {
			return model, true
		}
	}
	return nil, false
}

func sequentialOptions() Options {
	opts := DefaultOptions
	opts.Workers = 1
	return opts
}

func TestDecide_singleClauseGadget(t *testing.T) {
	phi := formula3(t, 3, [3]int{1, 2, 3})

	psi, _, err := Transform(phi)
	if err != nil {
		t.Fatalf("Transform(): want no error, got %s", err)
	}
	if _, sat, err := Decide(psi); err != nil || !sat {
		t.Errorf("Decide(): got sat=%t err=%v, want sat", sat, err)
	}
}

// TestDecide_gadgetAlwaysSat: setting every auxiliary variable to true
// satisfies all three gadget clauses of every original clause, so the
// rewritten formula is satisfiable no matter the input. The real decision
// happens in the filter search.
func TestDecide_gadgetAlwaysSat(t *testing.T) {
	r := rand.New(rand.NewSource(43))
	for i := 0; i < 50; i++ {
		phi := randFormula3(r, 4+r.Intn(5), 3+r.Intn(15))
		psi, _, err := Transform(phi)
		if err != nil {
			t.Fatalf("Transform(): want no error, got %s", err)
		}
		if _, sat, _ := Decide(psi); !sat {
			t.Fatalf("Decide(): got unsat for rewritten formula of %v", phi.Clauses)
		}
	}
}

func TestDecide_unsat2CNF(t *testing.T) {
	f := cnf.NewFormula(2, 1)
	mustAdd(t, f, lit(1), lit(1))
	mustAdd(t, f, lit(-1), lit(-1))

	if _, sat, err := Decide(f); err != nil || sat {
		t.Errorf("Decide(): got sat=%t err=%v, want unsat", sat, err)
	}
}

func TestRun_satisfiable(t *testing.T) {
	// (x1 v x2 v x3) and (!x1 v !x2 v !x3).
	phi := formula3(t, 3,
		[3]int{1, 2, 3},
		[3]int{-1, -2, -3},
	)

	p := New(phi)
	res, err := p.Run(context.Background(), sequentialOptions())
	if err != nil {
		t.Fatalf("Run(): want no error, got %s", err)
	}

	if res.Status != Satisfiable {
		t.Fatalf("Run(): got status %s, want %s", res.Status, Satisfiable)
	}
	if got := len(res.Model); got != 3 {
		t.Fatalf("len(Model): got %d, want 3 (original variables only)", got)
	}
	if !phi.Satisfied(res.Model) {
		t.Errorf("projected model %v does not satisfy the original formula", res.Model)
	}
	if p.State() != Done {
		t.Errorf("State(): got %s, want %s", p.State(), Done)
	}
	if res.Search.Explored < 1 {
		t.Errorf("Search.Explored: got %d, want at least 1", res.Search.Explored)
	}
}

func TestRun_unsatisfiableFormula(t *testing.T) {
	// All 8 sign combinations over 3 variables: unsatisfiable. The rewritten
	// formula stays satisfiable (see TestDecide_gadgetAlwaysSat), so the
	// pipeline must conclude by exhausting the filter search.
	phi := formula3(t, 3,
		[3]int{1, 2, 3},
		[3]int{1, 2, -3},
		[3]int{1, -2, 3},
		[3]int{1, -2, -3},
		[3]int{-1, 2, 3},
		[3]int{-1, 2, -3},
		[3]int{-1, -2, 3},
		[3]int{-1, -2, -3},
	)

	p := New(phi)
	res, err := p.Run(context.Background(), sequentialOptions())
	if err != nil {
		t.Fatalf("Run(): want no error, got %s", err)
	}

	if res.Status != Exhausted {
		t.Fatalf("Run(): got status %s, want %s", res.Status, Exhausted)
	}
	if res.Model != nil {
		t.Errorf("Run(): got model %v, want none", res.Model)
	}
	if bound := int64(1) << res.FreeGroups; res.Search.Explored > bound {
		t.Errorf("Search.Explored: got %d, want at most 2^%d", res.Search.Explored, res.FreeGroups)
	}
}

func TestRun_budget(t *testing.T) {
	phi := formula3(t, 3, [3]int{1, 2, 3})

	opts := sequentialOptions()
	opts.MaxSubsets = 0
	p := New(phi)
	res, err := p.Run(context.Background(), opts)
	if err != nil {
		t.Fatalf("Run(): want no error, got %s", err)
	}

	if res.Status != BudgetExceeded {
		t.Fatalf("Run(): got status %s, want %s", res.Status, BudgetExceeded)
	}
	if res.Model != nil {
		t.Errorf("Run(): got model %v, want none", res.Model)
	}
}

func TestRun_twice(t *testing.T) {
	phi := formula3(t, 3, [3]int{1, 2, 3})
	p := New(phi)

	if _, err := p.Run(context.Background(), sequentialOptions()); err != nil {
		t.Fatalf("Run(): want no error, got %s", err)
	}
	if _, err := p.Run(context.Background(), sequentialOptions()); err == nil {
		t.Errorf("second Run(): want error, got none")
	}
}

func TestRun_states(t *testing.T) {
	phi := formula3(t, 3, [3]int{1, 2, 3})
	p := New(phi)

	if p.State() != Built {
		t.Errorf("State(): got %s, want %s", p.State(), Built)
	}
	if _, err := p.Run(context.Background(), sequentialOptions()); err != nil {
		t.Fatalf("Run(): want no error, got %s", err)
	}
	if p.State() != Done {
		t.Errorf("State(): got %s, want %s", p.State(), Done)
	}
	if p.Psi() == nil || p.AuxMap() == nil || p.Canonical() == nil {
		t.Errorf("intermediate artifacts not retained after Run()")
	}
}

// TestRun_soundness verifies on random instances that a Satisfiable outcome
// always comes with a model of the original formula, and that unsatisfiable
// formulas are never declared satisfiable.
func TestRun_soundness(t *testing.T) {
	r := rand.New(rand.NewSource(47))
	for i := 0; i < 60; i++ {
		// Kept small: an unsatisfiable instance makes the search visit the
		// whole reachable space before reporting Exhausted.
		phi := randFormula3(r, 4, 3+r.Intn(8))
		_, satPhi := bruteForceSat(phi)

		p := New(phi)
		res, err := p.Run(context.Background(), sequentialOptions())
		if err != nil {
			t.Fatalf("Run(): want no error, got %s", err)
		}

		switch res.Status {
		case Satisfiable:
			if !phi.Satisfied(res.Model) {
				t.Fatalf("model %v does not satisfy formula %v", res.Model, phi.Clauses)
			}
			if !satPhi {
				t.Fatalf("got satisfiable for unsatisfiable formula %v", phi.Clauses)
			}
		case Exhausted:
			// The reachable space may miss surviving models of satisfiable
			// formulas; that incompleteness is what the exploration stats
			// are there to study. Nothing more to assert.
		default:
			t.Fatalf("unexpected status %s for unbounded run", res.Status)
		}
	}
}

// TestFilterSearch_roundTrip checks that any witness satisfies every
// rewritten clause and no exclusion pattern.
func TestFilterSearch_roundTrip(t *testing.T) {
	r := rand.New(rand.NewSource(53))
	for i := 0; i < 60; i++ {
		phi := randFormula3(r, 4, 3+r.Intn(8))

		psi, auxMap, exclusions, err := transform.Transform(phi)
		if err != nil {
			t.Fatalf("Transform(): want no error, got %s", err)
		}
		canonical, sat, err := Decide(psi)
		if err != nil || !sat {
			t.Fatalf("Decide(): got sat=%t err=%v, want sat", sat, err)
		}
		free, err := FreeChoices(psi, canonical)
		if err != nil {
			t.Fatalf("FreeChoices(): want no error, got %s", err)
		}

		res := FilterSearch(context.Background(), psi, canonical, free, exclusions, sequentialOptions())
		if res.Model == nil {
			continue
		}
		if !psi.Satisfied(res.Model) {
			t.Fatalf("witness %v does not satisfy the rewritten formula", res.Model)
		}
		for j, e := range exclusions {
			if e.Matches(res.Model) {
				t.Fatalf("witness %v realizes the spurious pattern of clause %d", res.Model, j)
			}
		}
		projected := Project(res.Model, auxMap)
		if !phi.Satisfied(projected) {
			t.Fatalf("projection %v does not satisfy the original formula %v", projected, phi.Clauses)
		}
	}
}
