package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMetricsManagerCreation(t *testing.T) {
	Convey("Given metrics manager creation", t, func() {
		Convey("When creating with default options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(WithPrometheusRegistry(registry))

			Convey("Then it should be created with defaults", func() {
				So(manager, ShouldNotBeNil)
				So(manager.Enabled(), ShouldBeTrue)
				So(manager.RefreshInterval(), ShouldEqual, defaultRefreshInterval)
			})
		})

		Convey("When creating with custom options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace("test_namespace"),
				WithSubsystem("test_subsystem"),
				WithMetricPrefix("pfx"),
				WithLatencyBuckets([]float64{1.0, 0.1, 0.5}),
				WithRefreshInterval(5*time.Second),
				WithConstLabels(map[string]string{"env": "test", "": "skipped"}),
				WithPrometheusRegistry(registry),
			)
			manager.RecordBatchSize(3)

			Convey("Then metric names should carry the namespace and prefix", func() {
				families, err := registry.Gather()
				So(err, ShouldBeNil)
				names := map[string]bool{}
				for _, f := range families {
					names[f.GetName()] = true
				}
				So(names["test_namespace_test_subsystem_pfx_batch_size"], ShouldBeTrue)
				So(manager.RefreshInterval(), ShouldEqual, 5*time.Second)
			})

			Convey("And the const labels and sorted buckets should apply", func() {
				So(manager.constLabels, ShouldResemble, map[string]string{"env": "test"})
				So(manager.latencyBuckets, ShouldResemble, []float64{0.1, 0.5, 1.0})
			})
		})

		Convey("When empty or nil options are given", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace(""),
				WithSubsystem(""),
				WithLatencyBuckets(nil),
				WithRefreshInterval(0),
				WithConstLabels(nil),
				WithPrometheusRegistry(registry),
			)

			Convey("Then the defaults should be kept", func() {
				So(manager.namespace, ShouldEqual, "arcade")
				So(manager.subsystem, ShouldEqual, "points")
				So(manager.latencyBuckets, ShouldResemble, defaultLatencyBuckets)
				So(manager.constLabels, ShouldBeEmpty)
				So(manager.refreshInterval, ShouldEqual, defaultRefreshInterval)
			})
		})
	})
}

func TestLatencyBuckets(t *testing.T) {
	Convey("Given invalid latency buckets", t, func() {
		cases := [][]float64{
			{0, 1, 2},
			{-1, 5},
			{1, 2, 2},
		}

		Convey("Then each list should be ignored", func() {
			for _, b := range cases {
				m := NewManager(WithPrometheusRegistry(prometheus.NewRegistry()), WithLatencyBuckets(b))
				So(m.latencyBuckets, ShouldResemble, defaultLatencyBuckets)
			}
		})
	})
}

func TestConfigure(t *testing.T) {
	Convey("Given the global manager is reconfigured", t, func() {
		Configure(
			WithNamespace("cfg"),
			WithConstLabels(map[string]string{"env": "staging"}),
			WithRefreshInterval(time.Minute),
		)
		defer Configure()

		Convey("When a metric is recorded", func() {
			RecordRateLimited()
			families, err := GetRegistry().Gather()
			So(err, ShouldBeNil)

			Convey("Then the fresh registry should expose it with the new settings", func() {
				var found bool
				for _, f := range families {
					if f.GetName() != "cfg_points_http_rate_limited_total" {
						continue
					}
					found = true
					So(f.GetMetric()[0].GetCounter().GetValue(), ShouldEqual, 1)
					So(f.GetMetric()[0].GetLabel()[0].GetName(), ShouldEqual, "env")
					So(f.GetMetric()[0].GetLabel()[0].GetValue(), ShouldEqual, "staging")
				}
				So(found, ShouldBeTrue)
				So(SystemRefreshInterval(), ShouldEqual, time.Minute)
			})
		})

		Convey("When recording is disabled", func() {
			Configure(WithMetricsEnabled(false))
			RecordRateLimited()
			UpdateSystemGoroutineCount(12)

			Convey("Then nothing should be recorded", func() {
				So(testutil.ToFloat64(globalManager.rateLimited), ShouldEqual, 0)
				So(testutil.ToFloat64(globalManager.systemGoroutineCount), ShouldEqual, 0)
			})
		})
	})
}

func TestManagerRecording(t *testing.T) {
	Convey("Given a manager on an isolated registry", t, func() {
		manager := NewManager(WithPrometheusRegistry(prometheus.NewRegistry()))

		Convey("When engine metrics are recorded", func() {
			manager.RecordBadgeClassified("game")
			manager.RecordBadgeClassified("game")
			manager.RecordBadgesDropped(DropDuplicate, 3)
			manager.RecordBadgesDropped(DropMalformedDate, 0)
			manager.RecordComputation(true, 1.5)
			manager.RecordComputation(false, 0.5)
			manager.RecordMilestoneTier(4)

			Convey("Then the counters should reflect them", func() {
				So(testutil.ToFloat64(manager.badgesClassified.WithLabelValues("game")), ShouldEqual, 2)
				So(testutil.ToFloat64(manager.badgesDropped.WithLabelValues(DropDuplicate)), ShouldEqual, 3)
				So(testutil.ToFloat64(manager.badgesDropped.WithLabelValues(DropMalformedDate)), ShouldEqual, 0)
				So(testutil.ToFloat64(manager.computations.WithLabelValues("facilitator")), ShouldEqual, 1)
				So(testutil.ToFloat64(manager.computations.WithLabelValues("standard")), ShouldEqual, 1)
				So(testutil.ToFloat64(manager.milestoneTiers.WithLabelValues("4")), ShouldEqual, 1)
			})
		})

		Convey("When the manager is disabled", func() {
			off := NewManager(WithPrometheusRegistry(prometheus.NewRegistry()), WithMetricsEnabled(false))
			off.RecordBadgeClassified("skill")
			off.RecordComputation(false, 1)

			Convey("Then nothing should be recorded", func() {
				So(testutil.ToFloat64(off.badgesClassified.WithLabelValues("skill")), ShouldEqual, 0)
				So(testutil.ToFloat64(off.computations.WithLabelValues("standard")), ShouldEqual, 0)
			})
		})
	})
}

func TestGlobalRecording(t *testing.T) {
	Convey("Given the global metrics manager", t, func() {
		Convey("Then the package-level functions should not panic", func() {
			So(func() {
				RecordBadgeClassified("trivia")
				RecordBadgesDropped(DropBeforeStart, 1)
				RecordComputation(false, 0.2)
				RecordMilestoneTier(0)
				RecordBatchSize(10)
				RecordLeaderboardUpdate()
				UpdateLeaderboardParticipants(5)
				RecordLeaderboardQueryLatency(0.1)
				RecordHTTPRequest("/v1/score", "POST", "200")
				RecordHTTPRequestDuration("/v1/score", "POST", "200", 0.01)
				RecordRateLimited()
				RecordErrorByComponent("api", "bad_request")
				RecordErrorByEndpoint("/v1/score", "POST", "bad_request")
				UpdateSystemMemoryUsage(1024)
				UpdateSystemGoroutineCount(8)
				RecordSystemGCPauseTime(0.3)
			}, ShouldNotPanic)
		})

		Convey("And the custom registry should expose them", func() {
			UpdateLeaderboardParticipants(7)
			So(testutil.ToFloat64(globalManager.leaderboardParticipants), ShouldEqual, 7)
			So(GetRegistry(), ShouldNotBeNil)
			So(SystemRefreshInterval(), ShouldEqual, defaultRefreshInterval)
		})
	})
}
