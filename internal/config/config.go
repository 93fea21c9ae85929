package config

import "time"

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server    ServerConfig    `mapstructure:"server" validate:"required"`
	Database  DatabaseConfig  `mapstructure:"database" validate:"required"`
	Generator GeneratorConfig `mapstructure:"generator" validate:"required"`
	Scheduler SchedulerConfig `mapstructure:"scheduler" validate:"required"`
}

// ServerConfig contains the settings of the long-running process.
type ServerConfig struct {
	Port     int    `mapstructure:"port" validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
}

// DatabaseConfig contains all database-related configuration settings.
type DatabaseConfig struct {
	URL             string        `mapstructure:"url" validate:"required,url"`
	MaxOpenConns    int           `mapstructure:"max_open_conns" validate:"gte=1"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns" validate:"gte=0"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime" validate:"gte=0"`
}

// GeneratorConfig tunes variant generation.
type GeneratorConfig struct {
	// Workers is the number of combos enumerated concurrently.
	Workers int `mapstructure:"workers" validate:"gte=1,lte=256"`

	// RecursionLimit bounds the depth of combo -> feature -> combo walks.
	RecursionLimit int `mapstructure:"recursion_limit" validate:"gte=1"`

	// MaxSolutionsPerCombo stops enumerating a combo after this many solutions.
	// Zero means unlimited.
	MaxSolutionsPerCombo int `mapstructure:"max_solutions_per_combo" validate:"gte=0"`
}

// SchedulerConfig controls the job runner used by the serve command.
type SchedulerConfig struct {
	// PollInterval is how often pending jobs are looked up.
	PollInterval time.Duration `mapstructure:"poll_interval" validate:"gt=0"`

	// GenerateEvery enqueues a generation job periodically. Zero disables it.
	GenerateEvery time.Duration `mapstructure:"generate_every" validate:"gte=0"`

	// StuckJobAge is how long a job may stay RUNNING before it is considered
	// interrupted and failed on startup.
	StuckJobAge time.Duration `mapstructure:"stuck_job_age" validate:"gt=0"`
}
