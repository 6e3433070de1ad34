package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/okian/golazo/internal/adapters/http/api"
	"github.com/okian/golazo/internal/adapters/provider"
	"github.com/okian/golazo/internal/adapters/ranking"
	"github.com/okian/golazo/internal/adapters/repository"
	service "github.com/okian/golazo/internal/app"
	"github.com/okian/golazo/internal/app/verify"
	"github.com/okian/golazo/internal/config"
	"github.com/okian/golazo/internal/domain/ledger"
	"github.com/okian/golazo/pkg/logger"
)

// HTTP server timeout constants.
const (
	readTimeout       = 10 * time.Second
	writeTimeout      = 10 * time.Second
	idleTimeout       = 60 * time.Second
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 30 * time.Second
)

func main() {
	// Initialize logging
	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return
	}
	defer func() {
		if err := logger.Sync(); err != nil {
			logger.Error(err)
		}
	}()

	log := logger.Get()

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		return
	}

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info",
			logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	// Storage: Postgres when a DSN is configured, in-memory otherwise.
	var (
		store repository.Store
		led   ledger.Ledger
	)
	if cfg.PostgresDSN != "" {
		db, err := repository.OpenPostgres(ctx, cfg.PostgresDSN)
		if err != nil {
			os.Stderr.WriteString("failed to connect to postgres: " + err.Error() + "\n")
			return
		}
		defer func() { _ = db.Close() }()
		store = repository.NewPostgresStore(db)
		led = repository.NewPostgresLedger(db)
	} else {
		log.Warn(ctx, "no postgres_dsn configured; using in-memory storage")
		store = repository.NewMemStore()
		led = ledger.NewInMemoryLedger(ledger.WithMaxRecords(cfg.LedgerMaxRecords))
	}

	// Ranking cache: Redis when configured, in-process otherwise.
	var cache ranking.Cache
	if cfg.RedisAddr != "" {
		cache = ranking.NewRedisCache(redis.NewClient(&redis.Options{Addr: cfg.RedisAddr}))
	} else {
		cache = ranking.NewMemoryCache()
	}

	rankings := ranking.NewAggregator(store, cache,
		ranking.WithGlobalTTL(time.Duration(cfg.RankingTTLGlobalS)*time.Second),
		ranking.WithPoolTTL(time.Duration(cfg.RankingTTLPoolS)*time.Second),
		ranking.WithLogger(log),
	)

	// Embedded verification cadence; disabled when run_interval_s is zero.
	if cfg.RunIntervalS > 0 {
		prov := provider.NewHTTPClient(cfg.ProviderBaseURL,
			provider.WithTimeout(time.Duration(cfg.ProviderTimeoutMS)*time.Millisecond),
			provider.WithRequestsPerSecond(cfg.ProviderRPS),
		)
		verifier := verify.NewVerifier(store, led, prov,
			verify.WithWorkerCount(cfg.WorkerCount),
			verify.WithLookback(time.Duration(cfg.LookbackDays)*24*time.Hour),
			verify.WithSoftDeadline(time.Duration(cfg.RunSoftDeadlineMS)*time.Millisecond),
			verify.WithInvalidator(rankings),
			verify.WithLogger(log),
		)
		go runVerificationLoop(ctx, verifier, time.Duration(cfg.RunIntervalS)*time.Second, log)
	}

	svc := service.New(store, led, rankings)
	apiServer := api.NewServer(svc, cfg.MaxRankingLimit)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           apiServer.Router(),
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	// Start the HTTP server
	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			os.Stderr.WriteString("HTTP server failed: " + err.Error() + "\n")
			return
		}
	}()

	// Wait for shutdown signal
	<-ctx.Done()
	log.Info(ctx, "shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
	}

	log.Info(ctx, "server stopped")
}

// runVerificationLoop triggers a run immediately, then on every tick until
// the context is canceled.
func runVerificationLoop(ctx context.Context, verifier *verify.Verifier, interval time.Duration, log logger.Logger) {
	run := func() {
		report, err := verifier.Run(ctx)
		if err != nil {
			log.Error(ctx, "verification run failed", logger.Error(err))
			return
		}
		if report.Systemic() {
			log.Error(ctx, "verification run failed systemically",
				logger.String("summary", report.Summary()))
		}
	}

	run()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			run()
		}
	}
}
