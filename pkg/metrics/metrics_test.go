package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMetricsManagerCreation(t *testing.T) {
	Convey("Given a private registry", t, func() {
		registry := prometheus.NewRegistry()

		Convey("When a manager is created with custom options", func() {
			m := NewManager(
				WithNamespace("test"),
				WithSubsystem("unit"),
				WithHistogramBuckets([]float64{1, 10, 100}),
				WithConstLabels(map[string]string{"env": "test"}),
				WithPrometheusRegistry(registry),
			)
			m.assessments.WithLabelValues("3").Inc()

			Convey("Then its collectors are registered under the custom names", func() {
				families, err := registry.Gather()
				So(err, ShouldBeNil)
				names := map[string]bool{}
				for _, f := range families {
					names[f.GetName()] = true
				}
				So(names["test_unit_assessments_total"], ShouldBeTrue)
				So(testutil.ToFloat64(m.assessments.WithLabelValues("3")), ShouldEqual, 1)
			})
		})

		Convey("When two managers share one registry", func() {
			NewManager(WithPrometheusRegistry(registry))

			Convey("Then the second registration panics", func() {
				So(func() { NewManager(WithPrometheusRegistry(registry)) }, ShouldPanic)
			})
		})
	})
}

func TestGlobalHelpers(t *testing.T) {
	Convey("Given the global manager", t, func() {
		Convey("Counters move by one per call", func() {
			before := testutil.ToFloat64(globalManager.assessments.WithLabelValues("5"))
			RecordAssessment(5, 12)
			So(testutil.ToFloat64(globalManager.assessments.WithLabelValues("5")), ShouldEqual, before+1)

			before = testutil.ToFloat64(globalManager.notifications.WithLabelValues(NotificationTier, ResultFailed))
			RecordNotification(NotificationTier, ResultFailed)
			So(testutil.ToFloat64(globalManager.notifications.WithLabelValues(NotificationTier, ResultFailed)), ShouldEqual, before+1)

			before = testutil.ToFloat64(globalManager.registrations)
			RecordRegistration()
			So(testutil.ToFloat64(globalManager.registrations), ShouldEqual, before+1)
		})

		Convey("Gauges hold the last value", func() {
			UpdateTotalCandidates(42)
			So(testutil.ToFloat64(globalManager.totalCandidates), ShouldEqual, 42)
			UpdateQueueSize(3)
			UpdateQueueCapacity(10)
			UpdateQueueUtilization(0.3)
			So(testutil.ToFloat64(globalManager.queueUtilization), ShouldEqual, 0.3)
			UpdateWorkerCount(4)
			UpdateWorkerActiveCount(2)
			So(testutil.ToFloat64(globalManager.workerActiveCount), ShouldEqual, 2)
		})

		Convey("The remaining helpers do not panic", func() {
			So(func() {
				RecordAssessmentError()
				RecordExport("csv")
				RecordQueueEnqueue()
				RecordQueueDequeue()
				RecordQueueEnqueueError()
				RecordWorkerProcessingLatency(1.5)
				RecordWorkerError()
				RecordHTTPRequest("/api/v1/candidates", "GET", "200")
				RecordHTTPRequestDuration("/api/v1/candidates", "GET", "200", 2.5)
				RecordErrorByComponent("queue", "full")
				UpdateSystemMemoryUsage(1 << 20)
				UpdateSystemGoroutineCount(12)
			}, ShouldNotPanic)
		})

		Convey("The custom registry is exposed", func() {
			So(GetRegistry(), ShouldNotBeNil)
			families, err := GetRegistry().Gather()
			So(err, ShouldBeNil)
			So(len(families), ShouldBeGreaterThan, 0)
		})
	})
}
