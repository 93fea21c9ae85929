// Package cli implements the variantgen command line.
package cli

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/phrazzld/spellbook-variants/internal/config"
	"github.com/phrazzld/spellbook-variants/internal/platform/logger"
	"github.com/phrazzld/spellbook-variants/internal/platform/postgres"
	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ConfigPath string
	LogLevel   string
}

// NewRootCommand creates the root command of the variantgen CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "variantgen",
		Short: "Generate combo variants",
		Long: `variantgen computes every minimal set of cards and templates that realizes
each combo of the catalog and keeps the variants table in sync with it.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "", "path to a YAML config file (default ./config.yaml)")
	cmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", "", "override server.log_level (debug|info|warn|error)")

	cmd.AddCommand(NewGenerateCommand(opts))
	cmd.AddCommand(NewMigrateCommand(opts))
	cmd.AddCommand(NewServeCommand(opts))

	return cmd
}

// environment is what every command needs before doing real work.
type environment struct {
	cfg    *config.Config
	logger *slog.Logger
}

func loadEnvironment(cmd *cobra.Command, opts *RootOptions) (*environment, error) {
	cfg, err := config.LoadFrom(opts.ConfigPath)
	if err != nil {
		return nil, err
	}
	if opts.LogLevel != "" {
		if _, ok := logger.ParseLevel(opts.LogLevel); !ok {
			return nil, fmt.Errorf("invalid log level %q", opts.LogLevel)
		}
		cfg.Server.LogLevel = opts.LogLevel
	}

	log, err := logger.SetupWithWriter(cfg.Server, cmd.ErrOrStderr())
	if err != nil {
		return nil, fmt.Errorf("failed to set up logger: %w", err)
	}
	return &environment{cfg: cfg, logger: log}, nil
}

func (e *environment) context(ctx context.Context) context.Context {
	return logger.WithLogger(ctx, e.logger)
}

func (e *environment) openDatabase(ctx context.Context) (*sql.DB, error) {
	return postgres.Open(e.context(ctx), e.cfg.Database)
}
