package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/phrazzld/spellbook-variants/internal/api"
	"github.com/phrazzld/spellbook-variants/internal/job"
	"github.com/phrazzld/spellbook-variants/internal/platform/postgres"
	"github.com/phrazzld/spellbook-variants/internal/variants"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the job runner and the HTTP API",
		Long: `Serve runs pending generation jobs in the background, optionally enqueues
one every scheduler.generate_every, and exposes /healthz, /metrics and the
/jobs API on server.port until interrupted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, rootOpts)
		},
	}
}

func runServe(cmd *cobra.Command, rootOpts *RootOptions) error {
	env, err := loadEnvironment(cmd, rootOpts)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(env.context(cmd.Context()), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := env.openDatabase(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	jobs := postgres.NewPostgresJobStore(db, env.logger)
	gen := variants.NewGenerator(
		env.cfg.Generator,
		postgres.NewPostgresGraphStore(db, env.logger),
		postgres.NewPostgresTxManager(db, env.logger),
		nil,
		env.logger,
	)
	svc := job.NewService(jobs, gen, env.logger)

	runner := job.NewRunner(svc, jobs, env.cfg.Scheduler, env.logger)
	if err := runner.Start(ctx); err != nil {
		return err
	}
	defer runner.Stop()

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", env.cfg.Server.Port),
		Handler:           api.NewRouter(api.NewJobHandler(svc, jobs), db, env.logger),
		ReadHeaderTimeout: 5 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		env.logger.Info("starting server", slog.Int("port", env.cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case <-ctx.Done():
		env.logger.Info("shutting down server")
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	env.logger.Info("server shutdown completed")
	return nil
}
