package main

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/smartystreets/goconvey/convey"

	"github.com/okian/linemate/internal/config"
	"github.com/okian/linemate/pkg/logger"
)

func init() {
	if err := logger.Init(logger.WithWriter(io.Discard)); err != nil {
		panic(err)
	}
}

func TestBuildService(t *testing.T) {
	convey.Convey("Given configuration from the environment", t, func() {
		_ = os.Setenv("LINEMATE_ADDR", ":8080")
		_ = os.Setenv("LINEMATE_QUEUE_SIZE", "64")
		_ = os.Setenv("LINEMATE_WORKER_COUNT", "2")
		_ = os.Setenv("LINEMATE_SEED", "99")
		defer func() {
			_ = os.Unsetenv("LINEMATE_ADDR")
			_ = os.Unsetenv("LINEMATE_QUEUE_SIZE")
			_ = os.Unsetenv("LINEMATE_WORKER_COUNT")
			_ = os.Unsetenv("LINEMATE_SEED")
		}()

		ctx := context.Background()
		cfg, err := config.Load(ctx)
		convey.So(err, convey.ShouldBeNil)

		convey.Convey("When the service is built", func() {
			svc, err := buildService(ctx, cfg, logger.Get())
			convey.So(err, convey.ShouldBeNil)

			convey.Convey("Then it carries the configured options", func() {
				stats := svc.GetStats()
				convey.So(stats["workerCount"], convey.ShouldEqual, 2)
				convey.So(stats["queueSize"], convey.ShouldEqual, 64)
			})
		})

		convey.Convey("When the leftover policy is unknown", func() {
			cfg.LeftoverPolicy = "shuffle"
			_, err := buildService(ctx, cfg, logger.Get())

			convey.Convey("Then building fails", func() {
				convey.So(err, convey.ShouldNotBeNil)
			})
		})
	})
}

func TestBuildServiceWithRedis(t *testing.T) {
	convey.Convey("Given a reachable Redis", t, func() {
		mr := miniredis.RunT(t)
		cfg := config.New()
		cfg.RedisAddr = mr.Addr()
		cfg.RedisNamespace = "test"
		ctx := context.Background()

		convey.Convey("When the service is built and a split finalized", func() {
			svc, err := buildService(ctx, cfg, logger.Get())
			convey.So(err, convey.ShouldBeNil)
			convey.So(svc.Start(ctx), convey.ShouldBeNil)
			defer svc.Stop()

			pairs, err := svc.Pairings(ctx, 0)

			convey.Convey("Then the ledger reads from Redis", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(pairs, convey.ShouldBeEmpty)
			})
		})
	})

	convey.Convey("Given an unreachable Redis", t, func() {
		mr := miniredis.RunT(t)
		cfg := config.New()
		cfg.RedisAddr = mr.Addr()
		mr.Close()

		convey.Convey("Then building the service fails", func() {
			_, err := buildService(context.Background(), cfg, logger.Get())
			convey.So(err, convey.ShouldNotBeNil)
			convey.So(err.Error(), convey.ShouldContainSubstring, "redis ledger")
		})
	})
}

func TestNewMux(t *testing.T) {
	convey.Convey("Given the server mux", t, func() {
		ctx := context.Background()
		svc, err := buildService(ctx, config.New(), logger.Get())
		convey.So(err, convey.ShouldBeNil)
		mux := newMux(ctx, svc)

		for _, path := range []string{"/openapi.yaml", "/healthz", "/stats", "/players", "/history", "/pairings"} {
			req := httptest.NewRequest(http.MethodGet, path, http.NoBody)
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)
			convey.So(w.Code, convey.ShouldEqual, http.StatusOK)
		}
	})
}

func TestMetricsUpdaters(t *testing.T) {
	convey.Convey("Given the metric updaters", t, func() {
		svc, err := buildService(context.Background(), config.New(), logger.Get())
		convey.So(err, convey.ShouldBeNil)

		convey.So(updateSystemMetrics, convey.ShouldNotPanic)
		convey.So(func() { updateServiceMetrics(svc) }, convey.ShouldNotPanic)

		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()
		convey.So(func() {
			startSystemMetricsUpdater(ctx)
			startServiceMetricsUpdater(ctx, svc)
		}, convey.ShouldNotPanic)
	})
}
