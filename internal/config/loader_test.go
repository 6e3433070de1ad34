package config_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/okian/golazo/internal/config"
	. "github.com/smartystreets/goconvey/convey"
)

func TestLoad(t *testing.T) {
	Convey("Given a clean environment", t, func() {
		for _, key := range []string{
			"GOLAZO_CONFIG", "GOLAZO_ADDR", "GOLAZO_LOG_LEVEL",
			"GOLAZO_LOOKBACK_DAYS", "GOLAZO_PROVIDER_BASE_URL", "GOLAZO_WORKER_COUNT",
		} {
			So(os.Unsetenv(key), ShouldBeNil)
		}

		Convey("When loading with no overrides", func() {
			cfg, err := config.Load(context.Background())

			Convey("Then defaults should be returned", func() {
				So(err, ShouldBeNil)
				So(cfg.Addr, ShouldEqual, ":9080")
				So(cfg.LookbackDays, ShouldEqual, 1)
			})
		})

		Convey("When environment variables override defaults", func() {
			t.Setenv("GOLAZO_ADDR", ":7070")
			t.Setenv("GOLAZO_LOOKBACK_DAYS", "7")
			t.Setenv("GOLAZO_PROVIDER_BASE_URL", "http://results.internal:8000")

			cfg, err := config.Load(context.Background())

			Convey("Then the overrides should win", func() {
				So(err, ShouldBeNil)
				So(cfg.Addr, ShouldEqual, ":7070")
				So(cfg.LookbackDays, ShouldEqual, 7)
				So(cfg.ProviderBaseURL, ShouldEqual, "http://results.internal:8000")
			})
		})

		Convey("When a YAML file is provided", func() {
			dir := t.TempDir()
			path := filepath.Join(dir, "golazo.yaml")
			content := []byte("addr: \":6060\"\nlookback_days: 3\nranking_ttl_pool_s: 120\n")
			So(os.WriteFile(path, content, 0o600), ShouldBeNil)
			t.Setenv("GOLAZO_CONFIG", path)

			cfg, err := config.Load(context.Background())

			Convey("Then file values should override defaults", func() {
				So(err, ShouldBeNil)
				So(cfg.Addr, ShouldEqual, ":6060")
				So(cfg.LookbackDays, ShouldEqual, 3)
				So(cfg.RankingTTLPoolS, ShouldEqual, 120)
			})

			Convey("And env should override the file", func() {
				t.Setenv("GOLAZO_ADDR", ":5050")
				cfg2, err2 := config.Load(context.Background())
				So(err2, ShouldBeNil)
				So(cfg2.Addr, ShouldEqual, ":5050")
				So(cfg2.LookbackDays, ShouldEqual, 3)
			})
		})

		Convey("When a value is invalid", func() {
			t.Setenv("GOLAZO_WORKER_COUNT", "0")

			_, err := config.Load(context.Background())

			Convey("Then loading should fail with ErrInvalidConfig", func() {
				So(err, ShouldNotBeNil)
				So(err.Error(), ShouldContainSubstring, "worker_count")
			})
		})

		Convey("When the config file does not exist", func() {
			t.Setenv("GOLAZO_CONFIG", filepath.Join(t.TempDir(), "missing.yaml"))

			_, err := config.Load(context.Background())

			Convey("Then loading should fail", func() {
				So(err, ShouldNotBeNil)
			})
		})
	})
}
