package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMetricsManagerCreation(t *testing.T) {
	Convey("Given metrics manager creation", t, func() {
		Convey("When creating with default options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(WithPrometheusRegistry(registry))

			Convey("Then it should be created successfully", func() {
				So(manager, ShouldNotBeNil)
			})
		})

		Convey("When creating with custom options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace("test-namespace"),
				WithSubsystem("test-subsystem"),
				WithHistogramBuckets([]float64{0.1, 0.5, 1.0}),
				WithPrometheusRegistry(registry),
			)

			Convey("Then it should be created successfully", func() {
				So(manager, ShouldNotBeNil)
			})
		})
	})
}

func TestMetricsRecording(t *testing.T) {
	Convey("Given the global metrics manager", t, func() {
		Convey("When recording reconciliation metrics", func() {
			So(func() {
				RecordSessionStarted()
				RecordSessionCommitted()
				RecordSessionFailed()
				RecordSessionCancelled()
				RecordRemovalCleared()
				RecordRemovalFailed()
			}, ShouldNotPanic)
		})

		Convey("When recording card metrics", func() {
			So(func() {
				RecordCardSaved()
				RecordCardSaveError()
			}, ShouldNotPanic)
		})

		Convey("When recording query metrics", func() {
			So(func() {
				RecordAggregationLatency(12.5)
				RecordListingLatency(0.7)
				RecordRowsRanked(40)
			}, ShouldNotPanic)
		})

		Convey("When recording roster call metrics", func() {
			So(func() {
				RecordRosterCall("list_members")
				RecordRosterCallError("clear_group")
			}, ShouldNotPanic)
		})

		Convey("Then the custom registry is reachable", func() {
			So(GetRegistry(), ShouldNotBeNil)
		})
	})
}
