package config_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/okian/arcadepoints/internal/config"
	"github.com/okian/arcadepoints/internal/domain/catalog"
	"github.com/okian/arcadepoints/internal/domain/model"
	"github.com/okian/arcadepoints/internal/domain/policy"
	"github.com/okian/arcadepoints/internal/engine"
	"github.com/okian/arcadepoints/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New()

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
			convey.So(cfg.LogLevel, convey.ShouldEqual, "info")
			convey.So(cfg.LogFormat, convey.ShouldEqual, "text")
			convey.So(cfg.BatchConcurrency, convey.ShouldEqual, 8)
			convey.So(cfg.MaxBatchSize, convey.ShouldEqual, 500)
			convey.So(cfg.MaxLeaderboardLimit, convey.ShouldEqual, 100)
			convey.So(cfg.ShutdownTimeout, convey.ShouldEqual, 10*time.Second)
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})

		convey.Convey("Then the program section should match the default policy", func() {
			p, err := cfg.Policy()
			convey.So(err, convey.ShouldBeNil)
			convey.So(p, convey.ShouldResemble, policy.Default())
		})

		convey.Convey("Then the embedded catalog should be used", func() {
			cat, err := cfg.Catalog()
			convey.So(err, convey.ShouldBeNil)
			convey.So(cat, convey.ShouldResemble, catalog.Default())
		})
	})
}

func TestConfig_Policy(t *testing.T) {
	convey.Convey("Given a config with a date-only window end", t, func() {
		cfg := config.New()
		cfg.Program.FacilitatorWindow.End = "2025-09-30"

		convey.Convey("Then the window should cover the whole last day", func() {
			p, err := cfg.Policy()
			convey.So(err, convey.ShouldBeNil)
			convey.So(p.FacilitatorWindow.End, convey.ShouldEqual, time.Date(2025, 9, 30, 23, 59, 59, 999999999, time.UTC))
		})
	})

	convey.Convey("Given the default window and a badge in the last second of its final day", t, func() {
		p, err := config.New().Policy()
		convey.So(err, convey.ShouldBeNil)
		eng, err := engine.New(p, catalog.Default())
		convey.So(err, convey.ShouldBeNil)
		badges := []model.Badge{{Name: "Level 1", EarnedDate: "2025-10-06T23:59:59.500Z"}}

		convey.Convey("Then the badge should count toward the milestone", func() {
			res := eng.Compute(context.Background(), badges, true, nil)
			convey.So(res.Milestone, convey.ShouldNotBeNil)
			convey.So(res.Milestone.Counts.Game, convey.ShouldEqual, 1)
		})

		convey.Convey("And a badge on the next day should not", func() {
			next := []model.Badge{{Name: "Level 1", EarnedDate: "2025-10-07T00:00:00Z"}}
			res := eng.Compute(context.Background(), next, true, nil)
			convey.So(res.Milestone.Counts.Game, convey.ShouldEqual, 0)
		})
	})

	convey.Convey("Given a config with an unparsable start date", t, func() {
		cfg := config.New()
		cfg.Program.StartDate = "mid-July"

		convey.Convey("Then Policy and Validate should fail", func() {
			_, err := cfg.Policy()
			convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			convey.So(errors.Is(cfg.Validate(), config.ErrInvalidConfig), convey.ShouldBeTrue)
		})
	})
}

func TestConfig_Validate(t *testing.T) {
	convey.Convey("Given configs with a single defect", t, func() {
		cases := []struct {
			name   string
			mutate func(*config.Config)
			policy bool
		}{
			{"empty addr", func(c *config.Config) { c.Addr = " " }, false},
			{"unknown log format", func(c *config.Config) { c.LogFormat = "xml" }, false},
			{"zero batch concurrency", func(c *config.Config) { c.BatchConcurrency = 0 }, false},
			{"zero max batch size", func(c *config.Config) { c.MaxBatchSize = 0 }, false},
			{"zero leaderboard limit", func(c *config.Config) { c.MaxLeaderboardLimit = 0 }, false},
			{"negative rate", func(c *config.Config) { c.RateLimitRPS = -1 }, false},
			{"zero burst", func(c *config.Config) { c.RateLimitBurst = 0 }, false},
			{"zero shutdown timeout", func(c *config.Config) { c.ShutdownTimeout = 0 }, false},
			{"zero metrics refresh", func(c *config.Config) { c.Metrics.RefreshInterval = 0 }, false},
			{"hostname as trusted proxy", func(c *config.Config) { c.TrustedProxies = []string{"proxy.local"} }, false},
			{"three tiers", func(c *config.Config) { c.Program.Milestones = c.Program.Milestones[:3] }, true},
			{"window reversed", func(c *config.Config) { c.Program.FacilitatorWindow.End = "2025-08-01" }, true},
			{"negative skill rate", func(c *config.Config) { c.Program.Points.Skill = -0.5 }, true},
		}

		for _, tc := range cases {
			cfg := config.New()
			tc.mutate(cfg)
			err := cfg.Validate()

			convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			convey.So(errors.Is(err, policy.ErrInvalidPolicy), convey.ShouldEqual, tc.policy)
		}
	})

	convey.Convey("Given trusted proxies as addresses and CIDRs", t, func() {
		cfg := config.New()
		cfg.TrustedProxies = []string{"10.0.0.0/8", "192.168.1.7", "::1"}

		convey.Convey("Then the config should be valid", func() {
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})
	})

	convey.Convey("Given rate limiting is disabled", t, func() {
		cfg := config.New()
		cfg.RateLimitRPS = 0
		cfg.RateLimitBurst = 0

		convey.Convey("Then the burst should not matter", func() {
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})
	})
}

func TestConfig_Metrics(t *testing.T) {
	convey.Convey("Given the default metrics section", t, func() {
		cfg := config.New()

		convey.Convey("Then it should keep recording on with the built-in names", func() {
			convey.So(cfg.Metrics.Enabled, convey.ShouldBeTrue)
			convey.So(cfg.Metrics.RefreshInterval, convey.ShouldEqual, 10*time.Second)
			m := metrics.NewManager(append(cfg.Metrics.Options(), metrics.WithPrometheusRegistry(prometheus.NewRegistry()))...)
			convey.So(m.Enabled(), convey.ShouldBeTrue)
			convey.So(m.RefreshInterval(), convey.ShouldEqual, 10*time.Second)
		})

		convey.Convey("When the section is customised", func() {
			cfg.Metrics.Enabled = false
			cfg.Metrics.Namespace = "season"
			cfg.Metrics.RefreshInterval = time.Minute
			cfg.Metrics.ConstLabels = map[string]string{"env": "prod"}
			reg := prometheus.NewRegistry()
			m := metrics.NewManager(append(cfg.Metrics.Options(), metrics.WithPrometheusRegistry(reg))...)

			convey.Convey("Then the manager should follow it", func() {
				convey.So(m.Enabled(), convey.ShouldBeFalse)
				convey.So(m.RefreshInterval(), convey.ShouldEqual, time.Minute)
				families, err := reg.Gather()
				convey.So(err, convey.ShouldBeNil)
				names := map[string]bool{}
				for _, f := range families {
					names[f.GetName()] = true
				}
				convey.So(names["season_points_http_rate_limited_total"], convey.ShouldBeTrue)
			})
		})
	})
}

func TestConfig_CatalogFile(t *testing.T) {
	convey.Convey("Given a config pointing at a missing catalog file", t, func() {
		cfg := config.New()
		cfg.Program.CatalogFile = "/nonexistent/catalog.yaml"

		convey.Convey("Then Catalog should fail with a load error", func() {
			_, err := cfg.Catalog()
			convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
		})
	})
}
