package metrics

import (
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMetricsManagerCreation(t *testing.T) {
	Convey("Given metrics manager creation", t, func() {
		Convey("When creating with a private registry", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(WithPrometheusRegistry(registry))

			Convey("Then it should be created successfully", func() {
				So(manager, ShouldNotBeNil)
				So(manager.namespace, ShouldEqual, "vendormatch")
			})
		})

		Convey("When creating with custom options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace("test_ns"),
				WithSubsystem("test_sub"),
				WithHistogramBuckets([]float64{0.1, 0.5, 1.0}),
				WithConstLabels(map[string]string{"env": "test"}),
				WithPrometheusRegistry(registry),
			)
			manager.matchesCreated.Inc()

			Convey("Then metric names carry the namespace and labels", func() {
				families, err := registry.Gather()
				So(err, ShouldBeNil)
				found := false
				for _, f := range families {
					if f.GetName() == "test_ns_test_sub_matches_created_total" {
						found = true
						So(f.GetMetric()[0].GetLabel()[0].GetValue(), ShouldEqual, "test")
					}
				}
				So(found, ShouldBeTrue)
			})
		})
	})
}

func TestMetricsRecording(t *testing.T) {
	Convey("Given the global metrics", t, func() {
		Convey("When recording rebuilds", func() {
			before := testutil.ToFloat64(globalManager.matchRebuilds.WithLabelValues("ok"))
			RecordRebuild("ok", 12)
			RecordMatchCreated(14.3)
			RecordEligibleVendors(3)

			Convey("Then the counters advance", func() {
				So(testutil.ToFloat64(globalManager.matchRebuilds.WithLabelValues("ok")), ShouldEqual, before+1)
			})
		})

		Convey("When recording job runs", func() {
			RecordJobRun("daily_refresh", "ok", 250*time.Millisecond)
			RecordJobItemFailure("daily_refresh")

			Convey("Then the last-success gauge is set", func() {
				So(testutil.ToFloat64(globalManager.jobLastSuccess.WithLabelValues("daily_refresh")), ShouldBeGreaterThan, 0)
			})
		})

		Convey("When recording SLA warnings", func() {
			before := testutil.ToFloat64(globalManager.slaExpiredMatches)
			RecordSLAWarning(3)

			Convey("Then expired matches are summed", func() {
				So(testutil.ToFloat64(globalManager.slaExpiredMatches), ShouldEqual, before+3)
			})
		})

		Convey("When recording notification, queue and http metrics", func() {
			So(func() {
				RecordNotificationEnqueued("match")
				RecordNotificationSent("match", 4)
				RecordNotificationFailed("sla_warning", "send_error")
				UpdateQueueSize(10)
				UpdateQueueCapacity(100)
				UpdateQueueUtilization(0.1)
				RecordQueueEnqueueError("queue_full")
				UpdateWorkerActiveCount(4)
				RecordRepositoryQuery("find_eligible", 1.5)
				RecordRepositoryError("create_match")
				RecordHTTPRequest("rebuild", "POST", "201")
				RecordHTTPRequestDuration("rebuild", "POST", "201", 8)
				RecordErrorByEndpoint("rebuild", "POST", "not_found")
				RecordErrorByComponent("notify", "send_error")
				UpdateSystemMemoryUsage(1024)
				UpdateSystemGoroutineCount(12)
				RecordSystemGCPauseTime(0.4)
			}, ShouldNotPanic)
		})
	})
}

func TestGetRegistry(t *testing.T) {
	Convey("Given the custom registry", t, func() {
		RecordMatchCreated(10)
		families, err := GetRegistry().Gather()
		So(err, ShouldBeNil)

		Convey("Then it exposes vendormatch metrics only", func() {
			So(len(families), ShouldBeGreaterThan, 0)
			for _, f := range families {
				So(strings.HasPrefix(f.GetName(), "vendormatch_"), ShouldBeTrue)
			}
		})
	})
}
