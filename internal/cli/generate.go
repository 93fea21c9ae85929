package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/spellbook-variants/internal/config"
	"github.com/phrazzld/spellbook-variants/internal/domain"
	"github.com/phrazzld/spellbook-variants/internal/job"
	"github.com/phrazzld/spellbook-variants/internal/platform/postgres"
	"github.com/phrazzld/spellbook-variants/internal/store"
	"github.com/phrazzld/spellbook-variants/internal/store/memstore"
	"github.com/phrazzld/spellbook-variants/internal/variants"
	"github.com/spf13/cobra"
)

// GenerateOptions holds the flags of the generate command.
type GenerateOptions struct {
	JobID  string
	DryRun bool
}

// NewGenerateCommand creates the generate command.
func NewGenerateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &GenerateOptions{}

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate variants for all combos once",
		Long: `Generate computes the variants of every combo and synchronizes the variants
table in a single transaction. With --job-id the outcome is recorded on that
pending job. With --dry-run the current variants are copied into memory and
the database is left untouched.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerateCommand(cmd, rootOpts, opts)
		},
	}

	cmd.Flags().StringVar(&opts.JobID, "job-id", "", "id of the pending job to record the run on")
	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "compute changes without writing to the database")
	cmd.MarkFlagsMutuallyExclusive("job-id", "dry-run")

	return cmd
}

// generateDeps are the stores a generation run reads and writes.
type generateDeps struct {
	graphs store.GraphStore
	tx     store.TxManager
	jobs   store.JobStore
}

func runGenerateCommand(cmd *cobra.Command, rootOpts *RootOptions, opts *GenerateOptions) error {
	jobID, err := parseJobID(opts.JobID)
	if err != nil {
		return err
	}

	env, err := loadEnvironment(cmd, rootOpts)
	if err != nil {
		return err
	}
	ctx := env.context(cmd.Context())

	db, err := env.openDatabase(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	deps := generateDeps{
		graphs: postgres.NewPostgresGraphStore(db, env.logger),
		tx:     postgres.NewPostgresTxManager(db, env.logger),
		jobs:   postgres.NewPostgresJobStore(db, env.logger),
	}
	if opts.DryRun {
		deps, err = dryRunDeps(ctx, deps.graphs, postgres.NewPostgresVariantStore(db, env.logger))
		if err != nil {
			return err
		}
	}

	return runGenerate(ctx, env.cfg.Generator, deps, jobID, cmd.OutOrStdout(), env.logger)
}

func runGenerate(
	ctx context.Context,
	cfg config.GeneratorConfig,
	deps generateDeps,
	jobID *uuid.UUID,
	out io.Writer,
	logger *slog.Logger,
) error {
	gen := variants.NewGenerator(cfg, deps.graphs, deps.tx, nil, logger)
	svc := job.NewService(deps.jobs, gen, logger)

	res, err := svc.Run(ctx, jobID)
	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(out, res.Message())
	return err
}

// dryRunDeps copies the catalog and the persisted variants into an
// in-memory store so a run can be computed without writing anything.
func dryRunDeps(ctx context.Context, graphs store.GraphStore, persisted store.VariantStore) (generateDeps, error) {
	g, err := graphs.LoadGraph(ctx)
	if err != nil {
		return generateDeps{}, fmt.Errorf("failed to load combo graph: %w", err)
	}

	ids, err := persisted.ListIDs(ctx)
	if err != nil {
		return generateDeps{}, err
	}
	existing := make([]domain.Variant, 0, len(ids))
	for _, id := range ids {
		v, err := persisted.GetByID(ctx, id)
		if err != nil {
			return generateDeps{}, fmt.Errorf("failed to copy variant %s: %w", id, err)
		}
		existing = append(existing, *v)
	}

	mem := memstore.New()
	mem.SetCatalogFromGraph(g)
	mem.SeedVariants(existing...)
	return generateDeps{graphs: mem, tx: mem, jobs: mem}, nil
}

func parseJobID(raw string) (*uuid.UUID, error) {
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid --job-id %q: %w", raw, err)
	}
	return &id, nil
}
