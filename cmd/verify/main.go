// Command verify executes one verification run and exits. Designed for cron
// or any external scheduler; overlapping invocations are safe because the
// run ledger arbitrates scoring.
//
// Exit codes: 0 on success (individual match failures included; they retry
// on the next cadence), 1 when the run itself fails or fails systemically.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/okian/golazo/internal/adapters/provider"
	"github.com/okian/golazo/internal/adapters/repository"
	"github.com/okian/golazo/internal/app/verify"
	"github.com/okian/golazo/internal/config"
	"github.com/okian/golazo/internal/domain/ledger"
	"github.com/okian/golazo/pkg/logger"
)

const hoursPerDay = 24

func main() {
	os.Exit(run())
}

func run() int {
	lookbackDays := flag.Int("lookback", 0, "candidate window in days back (0 = use configuration)")
	dryRun := flag.Bool("dry-run", false, "report what would happen without persisting anything")
	verbose := flag.Bool("verbose", false, "log every per-match disposition")
	flag.Parse()

	if err := logger.Init(); err != nil {
		fmt.Fprintln(os.Stderr, "failed to initialize logging:", err)
		return 1
	}
	defer func() { _ = logger.Sync() }()
	log := logger.Get()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to load config:", err)
		return 1
	}
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		_ = logger.SetLevelString("info")
	}
	if *lookbackDays <= 0 {
		*lookbackDays = cfg.LookbackDays
	}

	if cfg.PostgresDSN == "" {
		// One-shot runs only make sense against shared storage.
		fmt.Fprintln(os.Stderr, "postgres_dsn must be configured for standalone runs")
		return 1
	}

	db, err := repository.OpenPostgres(ctx, cfg.PostgresDSN)
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to connect to postgres:", err)
		return 1
	}
	defer func() { _ = db.Close() }()

	var led ledger.Ledger = repository.NewPostgresLedger(db)
	prov := provider.NewHTTPClient(cfg.ProviderBaseURL,
		provider.WithTimeout(time.Duration(cfg.ProviderTimeoutMS)*time.Millisecond),
		provider.WithRequestsPerSecond(cfg.ProviderRPS),
	)

	verifier := verify.NewVerifier(repository.NewPostgresStore(db), led, prov,
		verify.WithWorkerCount(cfg.WorkerCount),
		verify.WithLookback(time.Duration(*lookbackDays)*hoursPerDay*time.Hour),
		verify.WithSoftDeadline(time.Duration(cfg.RunSoftDeadlineMS)*time.Millisecond),
		verify.WithDryRun(*dryRun),
		verify.WithVerbose(*verbose),
		verify.WithLogger(log),
	)

	report, err := verifier.Run(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, "run failed:", err)
		return 1
	}

	fmt.Println(report.Summary())
	if report.Systemic() {
		fmt.Fprintln(os.Stderr, "run failed systemically: every attempted match failed")
		return 1
	}
	return 0
}
