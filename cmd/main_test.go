package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/okian/golazo/internal/adapters/http/api"
	"github.com/okian/golazo/internal/adapters/provider"
	"github.com/okian/golazo/internal/adapters/ranking"
	"github.com/okian/golazo/internal/adapters/repository"
	service "github.com/okian/golazo/internal/app"
	"github.com/okian/golazo/internal/app/verify"
	"github.com/okian/golazo/internal/config"
	"github.com/okian/golazo/internal/domain/ledger"
	"github.com/okian/golazo/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

func init() {
	// Initialize logging for tests
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

func TestMainWiring(t *testing.T) {
	convey.Convey("Given the main application", t, func() {
		convey.Convey("When testing configuration loading", func() {
			_ = os.Setenv("GOLAZO_ADDR", ":8080")
			_ = os.Setenv("GOLAZO_WORKER_COUNT", "4")
			_ = os.Setenv("GOLAZO_RUN_INTERVAL_S", "60")
			defer func() {
				_ = os.Unsetenv("GOLAZO_ADDR")
				_ = os.Unsetenv("GOLAZO_WORKER_COUNT")
				_ = os.Unsetenv("GOLAZO_RUN_INTERVAL_S")
			}()

			convey.Convey("Then configuration should be loadable", func() {
				cfg, err := config.Load(context.Background())
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.WorkerCount, convey.ShouldEqual, 4)
				convey.So(cfg.RunIntervalS, convey.ShouldEqual, 60)
			})
		})

		convey.Convey("When wiring the in-memory stack", func() {
			store := repository.NewMemStore()
			led := ledger.NewInMemoryLedger()
			rankings := ranking.NewAggregator(store, ranking.NewMemoryCache())

			convey.Convey("Then the verifier should be creatable", func() {
				v := verify.NewVerifier(store, led, provider.NewScripted(),
					verify.WithWorkerCount(8),
					verify.WithInvalidator(rankings),
				)
				convey.So(v, convey.ShouldNotBeNil)
			})

			convey.Convey("Then the API router should serve the health probe", func() {
				svc := service.New(store, led, rankings)
				router := api.NewServer(svc, 100).Router()

				rec := httptest.NewRecorder()
				router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
				convey.So(rec.Code, convey.ShouldEqual, http.StatusOK)
			})
		})
	})
}
