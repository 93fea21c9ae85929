package variants

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/crillab/gophersat/solver"
)

// ErrInfeasible is returned by a Solver when the model has no solution.
var ErrInfeasible = errors.New("model is infeasible")

// ErrSolverInconsistent is returned when the solver produces an assignment
// that violates the model or contradicts an earlier answer. It never wraps
// ErrInfeasible, so enumeration fails instead of ending the combo.
var ErrSolverInconsistent = errors.New("solver returned an inconsistent assignment")

// Solution is an optimal assignment split by variable kind. Every slice holds
// the ids of the true variables in ascending order.
type Solution struct {
	Cards     []int
	Templates []int
	Features  []int
	Combos    []int
}

// Size returns the number of cards and templates in the solution.
func (s *Solution) Size() int {
	return len(s.Cards) + len(s.Templates)
}

// Solver finds an optimal assignment of a model.
type Solver interface {
	// Solve returns an assignment that minimises the number of true card and
	// template variables, then maximises true features, then true combos.
	// It returns ErrInfeasible when no assignment satisfies the model.
	Solve(ctx context.Context, m *Model) (*Solution, error)
}

// PBSolver solves models with the gophersat pseudo-boolean solver. Each
// objective tier is optimised by linear descent: the cost of the last
// assignment is tightened by one and the problem solved again on a fresh
// solver until it becomes unsatisfiable. The optimum is then frozen as a
// constraint before the next tier.
type PBSolver struct{}

var _ Solver = PBSolver{}

type tier struct {
	handles []Handle
	// maximise selects Σx (false) or Σ¬x (true) as the cost to minimise.
	maximise bool
}

// Solve implements Solver.
func (PBSolver) Solve(ctx context.Context, m *Model) (*Solution, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	constrs, ok := encode(m)
	if !ok {
		return nil, ErrInfeasible
	}

	assignment, err := satisfy(m, constrs)
	if err != nil {
		return nil, err
	}

	tiers := []tier{
		{handles: m.HandlesOf(KindCard, KindTemplate)},
		{handles: m.HandlesOf(KindFeature), maximise: true},
		{handles: m.HandlesOf(KindCombo), maximise: true},
	}
	for i, t := range tiers {
		if len(t.handles) == 0 {
			continue
		}

		best := t.cost(assignment)
		for best > 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			next, err := satisfy(m, append(slices.Clip(constrs), costBound(t.handles, t.maximise, best-1)))
			if errors.Is(err, ErrInfeasible) {
				break
			}
			if err != nil {
				return nil, fmt.Errorf("tier %d: %w", i+1, err)
			}
			cost := t.cost(next)
			if cost >= best {
				return nil, fmt.Errorf("%w: tier %d cost %d does not improve on %d", ErrSolverInconsistent, i+1, cost, best)
			}
			assignment, best = next, cost
		}

		// Later tiers may not give back what this one gained.
		constrs = append(slices.Clip(constrs), costBound(t.handles, t.maximise, best))
	}

	return extract(m, assignment), nil
}

// cost counts the true cost literals of assignment.
func (t tier) cost(assignment []bool) int {
	n := 0
	for _, h := range t.handles {
		if value(assignment, h) != t.maximise {
			n++
		}
	}
	return n
}

// satisfy solves constrs once and returns a model checked against both the
// gophersat constraints and the constraints of m.
func satisfy(m *Model, constrs []solver.PBConstr) ([]bool, error) {
	s := solver.New(solver.ParsePBConstrs(clonePBConstrs(constrs)))
	switch status := s.Solve(); status {
	case solver.Sat:
	case solver.Unsat:
		return nil, ErrInfeasible
	default:
		return nil, fmt.Errorf("solver returned status %v", status)
	}

	assignment := s.Model()
	for i, c := range constrs {
		if !satisfiesPB(c, assignment) {
			return nil, fmt.Errorf("%w: solver constraint %d violated", ErrSolverInconsistent, i)
		}
	}
	if err := Check(m, assignment); err != nil {
		return nil, err
	}
	return assignment, nil
}

// Check reports the first constraint of m violated by assignment, where
// assignment[i] is the value of handle i+1 and missing handles are false.
func Check(m *Model, assignment []bool) error {
	for i, c := range m.Constraints() {
		sum := 0
		for _, t := range c.Terms {
			if value(assignment, t.Var) {
				sum += t.Coef
			}
		}
		var ok bool
		switch c.Op {
		case OpGtEq:
			ok = sum >= c.RHS
		case OpLtEq:
			ok = sum <= c.RHS
		case OpEq:
			ok = sum == c.RHS
		}
		if !ok {
			return fmt.Errorf("%w: constraint %d (%s %s %d) evaluates to %d",
				ErrSolverInconsistent, i, describeTerms(m, c.Terms), c.Op, c.RHS, sum)
		}
	}
	return nil
}

func describeTerms(m *Model, terms []Term) string {
	parts := make([]string, len(terms))
	for i, t := range terms {
		parts[i] = fmt.Sprintf("%+d*%s", t.Coef, m.Variable(t.Var))
	}
	return strings.Join(parts, " ")
}

func value(assignment []bool, h Handle) bool {
	i := int(h) - 1
	return i >= 0 && i < len(assignment) && assignment[i]
}

func satisfiesPB(c solver.PBConstr, assignment []bool) bool {
	sum := 0
	for i, lit := range c.Lits {
		v := lit
		if v < 0 {
			v = -v
		}
		if value(assignment, Handle(v)) == (lit > 0) {
			sum += c.Weights[i]
		}
	}
	return sum >= c.AtLeast
}

// clonePBConstrs copies constrs so that parsing never aliases the slices
// kept for later tiers.
func clonePBConstrs(constrs []solver.PBConstr) []solver.PBConstr {
	out := make([]solver.PBConstr, len(constrs))
	for i, c := range constrs {
		out[i] = solver.PBConstr{
			Lits:    slices.Clone(c.Lits),
			Weights: slices.Clone(c.Weights),
			AtLeast: c.AtLeast,
		}
	}
	return out
}

// encode converts the model constraints into normalised gophersat
// constraints. It returns false when a constraint can never be satisfied.
func encode(m *Model) ([]solver.PBConstr, bool) {
	n := m.NumVariables()
	constrs := make([]solver.PBConstr, 0, len(m.Constraints())+1)

	// A trivially true constraint over every variable so that the problem
	// knows about variables that only appear in the objective.
	all := make([]int, n)
	for i := range all {
		all[i] = i + 1
	}
	constrs = append(constrs, solver.PBConstr{Lits: all, Weights: ones(n), AtLeast: 0})

	for _, c := range m.Constraints() {
		var parts []solver.PBConstr
		switch c.Op {
		case OpGtEq:
			parts = []solver.PBConstr{atLeast(c.Terms, c.RHS)}
		case OpLtEq:
			parts = []solver.PBConstr{atLeast(negate(c.Terms), -c.RHS)}
		case OpEq:
			parts = []solver.PBConstr{
				atLeast(c.Terms, c.RHS),
				atLeast(negate(c.Terms), -c.RHS),
			}
		}
		for _, p := range parts {
			if p.AtLeast <= 0 {
				continue
			}
			if weightSum(p) < p.AtLeast {
				return nil, false
			}
			constrs = append(constrs, p)
		}
	}

	return constrs, true
}

// atLeast normalises Σ a·x >= rhs into positive weights: a negative term
// a·x is rewritten as |a|·¬x - |a|.
func atLeast(terms []Term, rhs int) solver.PBConstr {
	merged := mergeTerms(terms)
	c := solver.PBConstr{
		Lits:    make([]int, 0, len(merged)),
		Weights: make([]int, 0, len(merged)),
		AtLeast: rhs,
	}
	for _, t := range merged {
		if t.Coef > 0 {
			c.Lits = append(c.Lits, int(t.Var))
			c.Weights = append(c.Weights, t.Coef)
			continue
		}
		c.Lits = append(c.Lits, -int(t.Var))
		c.Weights = append(c.Weights, -t.Coef)
		c.AtLeast -= t.Coef
	}
	return c
}

// mergeTerms sums the coefficients of repeated variables, drops zero terms
// and orders the result by handle.
func mergeTerms(terms []Term) []Term {
	coefs := make(map[Handle]int, len(terms))
	for _, t := range terms {
		coefs[t.Var] += t.Coef
	}
	out := make([]Term, 0, len(coefs))
	for h, coef := range coefs {
		if coef != 0 {
			out = append(out, Term{Coef: coef, Var: h})
		}
	}
	slices.SortFunc(out, func(a, b Term) int { return int(a.Var) - int(b.Var) })
	return out
}

func negate(terms []Term) []Term {
	out := make([]Term, len(terms))
	for i, t := range terms {
		out[i] = Term{Coef: -t.Coef, Var: t.Var}
	}
	return out
}

func weightSum(c solver.PBConstr) int {
	sum := 0
	for _, w := range c.Weights {
		sum += w
	}
	return sum
}

func ones(n int) []int {
	w := make([]int, n)
	for i := range w {
		w[i] = 1
	}
	return w
}

func costLits(hs []Handle, maximise bool) []solver.Lit {
	lits := make([]solver.Lit, len(hs))
	for i, h := range hs {
		v := int32(h)
		if maximise {
			v = -v
		}
		lits[i] = solver.IntToLit(v)
	}
	return lits
}

// costBound returns the constraint cost <= bound for the cost built by costLits.
func costBound(hs []Handle, maximise bool, bound int) solver.PBConstr {
	// Σ l <= bound  is  Σ ¬l >= |hs| - bound.
	lits := make([]int, len(hs))
	for i, h := range hs {
		if maximise {
			lits[i] = int(h)
		} else {
			lits[i] = -int(h)
		}
	}
	return solver.PBConstr{Lits: lits, Weights: ones(len(hs)), AtLeast: len(hs) - bound}
}

func extract(m *Model, assignment []bool) *Solution {
	s := &Solution{}
	for i, value := range assignment {
		if !value || i >= m.NumVariables() {
			continue
		}
		v := m.Variable(Handle(i + 1))
		switch v.Kind {
		case KindCard:
			s.Cards = append(s.Cards, v.ID)
		case KindTemplate:
			s.Templates = append(s.Templates, v.ID)
		case KindFeature:
			s.Features = append(s.Features, v.ID)
		case KindCombo:
			s.Combos = append(s.Combos, v.ID)
		}
	}
	slices.Sort(s.Cards)
	slices.Sort(s.Templates)
	slices.Sort(s.Features)
	slices.Sort(s.Combos)
	return s
}
