package config_test

import (
	"runtime"
	"testing"

	"github.com/okian/golazo/internal/config"
	. "github.com/smartystreets/goconvey/convey"
)

func TestNewDefaults(t *testing.T) {
	Convey("Given a fresh config", t, func() {
		c := config.New()

		Convey("Then server and provider defaults should be set", func() {
			So(c.Addr, ShouldEqual, ":9080")
			So(c.LogLevel, ShouldEqual, "info")
			So(c.ProviderBaseURL, ShouldEqual, "http://localhost:9090")
			So(c.ProviderTimeoutMS, ShouldEqual, 4_000)
			So(c.ProviderRPS, ShouldEqual, 5)
		})

		Convey("Then run defaults should be set", func() {
			So(c.LookbackDays, ShouldEqual, 1)
			So(c.WorkerCount, ShouldEqual, runtime.NumCPU()*2)
			So(c.RunSoftDeadlineMS, ShouldEqual, 600_000)
		})

		Convey("Then ranking cache defaults should be set", func() {
			So(c.RankingTTLGlobalS, ShouldEqual, 600)
			So(c.RankingTTLPoolS, ShouldEqual, 300)
			So(c.MaxRankingLimit, ShouldEqual, 100)
		})

		Convey("Then external backends should default to in-memory", func() {
			So(c.PostgresDSN, ShouldBeEmpty)
			So(c.RedisAddr, ShouldBeEmpty)
		})
	})
}
