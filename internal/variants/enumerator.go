package variants

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/phrazzld/spellbook-variants/internal/domain"
	"github.com/phrazzld/spellbook-variants/internal/platform/logger"
	"golang.org/x/sync/errgroup"
)

// Candidate is a deduplicated variant computed by the enumerator.
type Candidate struct {
	ID        string
	Cards     []int
	Templates []int
	// Combos holds the combos true in any solution with this card set.
	Combos []int
	// Features holds the features true in any solution with this card set.
	Features []int
}

// comboState is the position of a combo in its solve/exclude loop.
type comboState uint8

const (
	stateInit comboState = iota
	stateSolving
	stateFound
	stateExcluded
	stateExhausted
)

func (s comboState) String() string {
	switch s {
	case stateInit:
		return "init"
	case stateSolving:
		return "solving"
	case stateFound:
		return "found"
	case stateExcluded:
		return "excluded"
	case stateExhausted:
		return "exhausted"
	default:
		return fmt.Sprintf("state(%d)", uint8(s))
	}
}

// comboEnumeration owns a private model copy and collects the minimal
// solutions of one combo.
type comboEnumeration struct {
	comboID      int
	model        *Model
	solver       Solver
	maxSolutions int

	state     comboState
	current   *Solution
	solutions []*Solution
	capped    bool
}

func newComboEnumeration(comboID int, base *Model, s Solver, maxSolutions int) *comboEnumeration {
	return &comboEnumeration{
		comboID:      comboID,
		model:        base.Copy(),
		solver:       s,
		maxSolutions: maxSolutions,
		state:        stateInit,
	}
}

func (e *comboEnumeration) run(ctx context.Context) error {
	for e.state != stateExhausted {
		if err := e.step(ctx); err != nil {
			return fmt.Errorf("combo %d in state %s: %w", e.comboID, e.state, err)
		}
	}
	return nil
}

func (e *comboEnumeration) step(ctx context.Context) error {
	switch e.state {
	case stateInit:
		b, ok := e.model.Lookup(Variable{Kind: KindCombo, ID: e.comboID})
		if !ok {
			e.state = stateExhausted
			return nil
		}
		e.model.Add(Constraint{Terms: []Term{{Coef: 1, Var: b}}, Op: OpEq, RHS: 1})
		e.state = stateSolving

	case stateSolving:
		start := time.Now()
		sol, err := e.solver.Solve(ctx, e.model)
		solveDuration.Observe(time.Since(start).Seconds())
		if errors.Is(err, ErrInfeasible) {
			e.state = stateExhausted
			return nil
		}
		if err != nil {
			return err
		}
		e.current = sol
		e.state = stateFound

	case stateFound:
		active := e.activeHandles(e.current)
		if len(active) == 0 {
			// Nothing to exclude: every further solution would be this one.
			e.state = stateExhausted
			return nil
		}
		e.solutions = append(e.solutions, e.current)
		solutionsTotal.Inc()
		if e.maxSolutions > 0 && len(e.solutions) >= e.maxSolutions {
			e.capped = true
			e.state = stateExhausted
			return nil
		}
		e.model.Add(Constraint{
			Terms: Sum(1, active...),
			Op:    OpLtEq,
			RHS:   len(active) - 1,
		})
		e.state = stateExcluded

	case stateExcluded:
		e.current = nil
		e.state = stateSolving

	case stateExhausted:
	}
	return nil
}

func (e *comboEnumeration) activeHandles(s *Solution) []Handle {
	hs := make([]Handle, 0, s.Size())
	for _, id := range s.Cards {
		if h, ok := e.model.Lookup(Variable{Kind: KindCard, ID: id}); ok {
			hs = append(hs, h)
		}
	}
	for _, id := range s.Templates {
		if h, ok := e.model.Lookup(Variable{Kind: KindTemplate, ID: id}); ok {
			hs = append(hs, h)
		}
	}
	return hs
}

// Enumerator finds the minimal solutions of every enumerable combo.
type Enumerator struct {
	solver       Solver
	workers      int
	maxSolutions int
	logger       *slog.Logger
}

// NewEnumerator creates an Enumerator running at most workers combos at a
// time. maxSolutions caps the solutions per combo; 0 means no cap.
func NewEnumerator(s Solver, workers, maxSolutions int, logger *slog.Logger) *Enumerator {
	if workers < 1 {
		workers = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Enumerator{
		solver:       s,
		workers:      workers,
		maxSolutions: maxSolutions,
		logger:       logger.With(slog.String("component", "variant_enumerator")),
	}
}

// Enumerate solves every combo with at least two requirements against copies
// of base and returns the merged candidates ordered by id.
func (e *Enumerator) Enumerate(ctx context.Context, g *domain.Graph, base *Model) ([]*Candidate, error) {
	log := logger.FromContextOrDefault(ctx, e.logger)

	var comboIDs []int
	for _, id := range g.ComboIDs() {
		if g.Combos[id].IsEnumerable() {
			comboIDs = append(comboIDs, id)
		}
	}
	log.Info("enumerating combos",
		slog.Int("combos", len(comboIDs)),
		slog.Int("workers", e.workers))

	results := make([][]*Solution, len(comboIDs))
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(e.workers)

	for i, comboID := range comboIDs {
		eg.Go(func() error {
			run := newComboEnumeration(comboID, base, e.solver, e.maxSolutions)
			if err := run.run(egCtx); err != nil {
				return err
			}
			if run.capped {
				log.Warn("solution cap reached, enumeration stopped early",
					slog.Int("combo_id", comboID),
					slog.Int("max_solutions", e.maxSolutions))
			}
			log.Debug("combo enumerated",
				slog.Int("combo_id", comboID),
				slog.Int("solutions", len(run.solutions)))
			results[i] = run.solutions
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	return mergeSolutions(results), nil
}

// mergeSolutions groups solutions by canonical id, taking the union of their
// combos and features.
func mergeSolutions(results [][]*Solution) []*Candidate {
	byID := map[string]*Candidate{}
	for _, solutions := range results {
		for _, s := range solutions {
			id := UniqueID(s.Cards, s.Templates)
			c, ok := byID[id]
			if !ok {
				byID[id] = &Candidate{
					ID:        id,
					Cards:     slices.Clone(s.Cards),
					Templates: slices.Clone(s.Templates),
					Combos:    slices.Clone(s.Combos),
					Features:  slices.Clone(s.Features),
				}
				continue
			}
			c.Combos = union(c.Combos, s.Combos)
			c.Features = union(c.Features, s.Features)
		}
	}

	out := make([]*Candidate, 0, len(byID))
	for _, c := range byID {
		out = append(out, c)
	}
	slices.SortFunc(out, func(a, b *Candidate) int {
		return strings.Compare(a.ID, b.ID)
	})
	return out
}

// union merges two ascending id slices.
func union(a, b []int) []int {
	out := slices.Concat(a, b)
	slices.Sort(out)
	return slices.Compact(out)
}
