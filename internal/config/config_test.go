package config_test

import (
	"errors"
	"testing"
	"time"

	"github.com/okian/busmaybe/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with defaults", t, func() {
		cfg := config.New()

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":5000")
			convey.So(cfg.LogFormat, convey.ShouldEqual, "text")
			convey.So(cfg.Timezone, convey.ShouldEqual, "Local")
			convey.So(cfg.GTFSPath, convey.ShouldBeEmpty)
			convey.So(cfg.AuditQueueSize, convey.ShouldEqual, 1024)
			convey.So(cfg.AuditWorkerCount, convey.ShouldEqual, 2)
			convey.So(cfg.HistorySize, convey.ShouldEqual, 500)
			convey.So(cfg.IdempotencyTTL, convey.ShouldEqual, 10*time.Minute)
		})

		convey.Convey("And the defaults validate", func() {
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})

		convey.Convey("And the default zone resolves to the host zone", func() {
			loc, err := cfg.Location()
			convey.So(err, convey.ShouldBeNil)
			convey.So(loc, convey.ShouldEqual, time.Local)
		})
	})
}

func TestConfig_Validate(t *testing.T) {
	convey.Convey("Given configs with one bad field", t, func() {
		cases := map[string]func(*config.Config){
			"empty addr":                 func(c *config.Config) { c.Addr = "" },
			"unknown log format":         func(c *config.Config) { c.LogFormat = "xml" },
			"zero headway":               func(c *config.Config) { c.DefaultHeadwayMin = 0 },
			"zero queue":                 func(c *config.Config) { c.AuditQueueSize = 0 },
			"negative workers":           func(c *config.Config) { c.AuditWorkerCount = -1 },
			"zero audit log":             func(c *config.Config) { c.AuditLogSize = 0 },
			"zero limit":                 func(c *config.Config) { c.MaxPredictionsLimit = 0 },
			"zero history":               func(c *config.Config) { c.HistorySize = 0 },
			"history below the read cap": func(c *config.Config) { c.HistorySize = 49 },
			"limit above the audit log":  func(c *config.Config) { c.AuditLogSize = 50 },
			"zero idempotency":           func(c *config.Config) { c.IdempotencyCacheSize = 0 },
			"zero idempotency ttl":       func(c *config.Config) { c.IdempotencyTTL = 0 },
			"unknown timezone":           func(c *config.Config) { c.Timezone = "Mars/Olympus_Mons" },
		}

		for name, mutate := range cases {
			convey.Convey("When the config has "+name, func() {
				cfg := config.New()
				mutate(cfg)

				convey.Convey("Then validation fails as invalid config", func() {
					err := cfg.Validate()
					convey.So(err, convey.ShouldNotBeNil)
					convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				})
			})
		}
	})
}
