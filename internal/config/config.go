// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Keep fields unexported where possible and use functional options.
// - Provide New(...Option) initializer to build a Config with defaults.
// - External errors must be wrapped via this package's error helpers.
package config

import (
	"runtime"
)

// Config contains process configuration for both the read-surface server
// and the scheduled verification run. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// ProviderBaseURL is the base URL of the external result provider.
	ProviderBaseURL string `koanf:"provider_base_url"`

	// ProviderTimeoutMS bounds a single provider request.
	ProviderTimeoutMS int `koanf:"provider_timeout_ms"`

	// ProviderRPS budgets provider calls per second across a run.
	ProviderRPS float64 `koanf:"provider_rps"`

	// LookbackDays selects candidate matches scheduled within the window.
	LookbackDays int `koanf:"lookback_days"`

	// WorkerCount bounds concurrent per-match processing within a run.
	WorkerCount int `koanf:"worker_count"`

	// RunSoftDeadlineMS stops dispatching new matches once exceeded.
	RunSoftDeadlineMS int `koanf:"run_soft_deadline_ms"`

	// RunIntervalS drives the server's embedded verification cadence.
	// Zero disables it; deployments then trigger runs via the verify CLI.
	RunIntervalS int `koanf:"run_interval_s"`

	// RankingTTLGlobalS and RankingTTLPoolS bound cached ranking views.
	RankingTTLGlobalS int `koanf:"ranking_ttl_global_s"`
	RankingTTLPoolS   int `koanf:"ranking_ttl_pool_s"`

	// MaxRankingLimit caps GET /rankings/global?limit.
	MaxRankingLimit int `koanf:"max_ranking_limit"`

	// PostgresDSN selects the Postgres store and ledger when set;
	// empty means in-memory store and ledger.
	PostgresDSN string `koanf:"postgres_dsn"`

	// RedisAddr selects the Redis ranking cache when set; empty means in-memory.
	RedisAddr string `koanf:"redis_addr"`

	// LedgerMaxRecords bounds the in-memory run record log.
	LedgerMaxRecords int `koanf:"ledger_max_records"`
}

// New creates a Config with defaults. Overrides come from Load.
func New() *Config {
	c := &Config{
		LogLevel:          "info",
		Addr:              ":9080",
		ProviderBaseURL:   "http://localhost:9090",
		ProviderTimeoutMS: 4_000,
		ProviderRPS:       5,
		LookbackDays:      1,
		WorkerCount:       runtime.NumCPU() * 2,
		RunSoftDeadlineMS: 600_000,
		RunIntervalS:      300,
		RankingTTLGlobalS: 600,
		RankingTTLPoolS:   300,
		MaxRankingLimit:   100,
		LedgerMaxRecords:  100_000,
	}
	return c
}
