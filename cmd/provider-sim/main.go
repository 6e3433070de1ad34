// Command provider-sim runs a fake result provider for local development:
// it generates a fixture list and serves match lifecycles over the provider
// HTTP contract, including suspensions and post-final corrections.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/okian/golazo/internal/sim"
	"github.com/okian/golazo/pkg/logger"
)

func main() {
	addr := flag.String("addr", ":9090", "listen address")
	count := flag.Int("matches", 20, "number of fixtures to simulate")
	suspendedPct := flag.Int("suspended-pct", 5, "percentage of fixtures that get suspended")
	correctedPct := flag.Int("corrected-pct", 10, "percentage of fixtures corrected after full time")
	errorEveryN := flag.Int("error-every", 0, "inject a server error on every Nth result request (0 = off)")
	flag.Parse()

	if err := logger.Init(); err != nil {
		fmt.Fprintln(os.Stderr, "failed to initialize logging:", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()
	log := logger.Get()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	fixtures := sim.Generate(*count, time.Now(), *suspendedPct, *correctedPct)
	for _, f := range fixtures {
		log.Info(ctx, "fixture", logger.String("match", f.String()),
			logger.Time("kickoff", f.KickoffAt))
	}

	server := sim.NewServer(fixtures,
		sim.WithErrorEveryN(*errorEveryN),
		sim.WithLogger(log),
	)
	if err := server.Serve(ctx, *addr); err != nil {
		fmt.Fprintln(os.Stderr, "simulator failed:", err)
		os.Exit(1)
	}
}
