package variants

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/spellbook-variants/internal/config"
	"github.com/phrazzld/spellbook-variants/internal/platform/logger"
	"github.com/phrazzld/spellbook-variants/internal/store"
)

// Generator runs the full pipeline: load graph, depth guard, build model,
// enumerate, synchronize.
type Generator struct {
	graphs         store.GraphStore
	enumerator     *Enumerator
	synchronizer   *Synchronizer
	recursionLimit int
	logger         *slog.Logger
}

// NewGenerator creates a Generator. A nil solver selects PBSolver.
func NewGenerator(
	cfg config.GeneratorConfig,
	graphs store.GraphStore,
	tx store.TxManager,
	solver Solver,
	logger *slog.Logger,
) *Generator {
	if graphs == nil {
		panic("graph store cannot be nil")
	}
	if solver == nil {
		solver = PBSolver{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Generator{
		graphs:         graphs,
		enumerator:     NewEnumerator(solver, cfg.Workers, cfg.MaxSolutionsPerCombo, logger),
		synchronizer:   NewSynchronizer(tx, logger),
		recursionLimit: cfg.RecursionLimit,
		logger:         logger.With(slog.String("component", "variant_generator")),
	}
}

// GenerateVariants computes every variant of the catalog and reconciles the
// persisted variants with it. It returns the number of added, updated and
// removed variants.
func (g *Generator) GenerateVariants(ctx context.Context) (res Result, err error) {
	start := time.Now()
	log := logger.FromContextOrDefault(ctx, g.logger).With(slog.String("run_id", uuid.NewString()))
	ctx = logger.WithLogger(ctx, log)

	defer func() {
		runDuration.Observe(time.Since(start).Seconds())
		if err != nil {
			runsTotal.WithLabelValues("failure").Inc()
			return
		}
		runsTotal.WithLabelValues("success").Inc()
		variantsAdded.Add(float64(res.Added))
		variantsUpdated.Add(float64(res.Updated))
		variantsRemoved.Add(float64(res.Removed))
	}()

	log.Info("loading combo graph")
	graph, err := g.graphs.LoadGraph(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("failed to load combo graph: %w", err)
	}
	if err := graph.Validate(); err != nil {
		return Result{}, fmt.Errorf("invalid combo graph: %w", err)
	}
	log.Info("combo graph loaded",
		slog.Int("cards", len(graph.Cards)),
		slog.Int("templates", len(graph.Templates)),
		slog.Int("features", len(graph.Features)),
		slog.Int("combos", len(graph.Combos)))

	recursive := FindRecursiveCombos(graph, g.recursionLimit)
	recursiveCombos.Set(float64(len(recursive)))
	for _, rerr := range recursive {
		log.Warn("combo exceeds recursion limit",
			slog.Int("combo_id", rerr.ComboID),
			slog.Bool("cycle", rerr.Cycle),
			slog.String("error", rerr.Error()))
	}

	log.Info("building constraint model")
	model := BuildModel(graph)
	log.Debug("constraint model built",
		slog.Int("variables", model.NumVariables()),
		slog.Int("constraints", len(model.Constraints())))

	candidates, err := g.enumerator.Enumerate(ctx, graph, model)
	if err != nil {
		return Result{}, fmt.Errorf("failed to enumerate variants: %w", err)
	}
	log.Info("variants computed", slog.Int("variants", len(candidates)))

	res, err = g.synchronizer.Sync(ctx, graph, candidates)
	if err != nil {
		return Result{}, fmt.Errorf("failed to synchronize variants: %w", err)
	}

	log.Info("variant generation finished",
		slog.String("message", res.Message()),
		slog.Duration("duration", time.Since(start)))
	return res, nil
}
