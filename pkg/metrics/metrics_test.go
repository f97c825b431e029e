package metrics

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMetricsManagerCreation(t *testing.T) {
	Convey("Given metrics manager creation", t, func() {
		Convey("When creating with default options on a fresh registry", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(WithPrometheusRegistry(registry))

			Convey("Then it should register the acquisition metrics", func() {
				So(manager, ShouldNotBeNil)
				count, err := testutil.GatherAndCount(registry, "bria_acquisition_current_phase")
				So(err, ShouldBeNil)
				So(count, ShouldEqual, 1)
			})
		})

		Convey("When creating with custom options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace("test"),
				WithSubsystem("rig"),
				WithHistogramBuckets([]float64{0.1, 0.5, 1.0}),
				WithConstLabels(map[string]string{"device": "emulator"}),
				WithPrometheusRegistry(registry),
			)
			manager.polls.Inc()

			Convey("Then names and labels should follow the options", func() {
				So(testutil.ToFloat64(manager.polls), ShouldEqual, 1)
				families, err := registry.Gather()
				So(err, ShouldBeNil)
				found := false
				for _, mf := range families {
					if mf.GetName() == "test_rig_polls_total" {
						found = true
						So(mf.GetMetric()[0].GetLabel()[0].GetValue(), ShouldEqual, "emulator")
					}
				}
				So(found, ShouldBeTrue)
			})
		})
	})
}

func TestMetricsRecording(t *testing.T) {
	Convey("Given the global metrics manager", t, func() {
		Convey("When recording polling metrics", func() {
			polls := testutil.ToFloat64(globalManager.polls)
			samples := testutil.ToFloat64(globalManager.samplesPulled)
			RecordPoll(500)
			RecordChunk(250)
			RecordCounterReset()

			Convey("Then the counters should advance", func() {
				So(testutil.ToFloat64(globalManager.polls), ShouldEqual, polls+1)
				So(testutil.ToFloat64(globalManager.samplesPulled), ShouldEqual, samples+250)
				So(testutil.ToFloat64(globalManager.bufferedSample), ShouldEqual, 500)
			})
		})

		Convey("When recording phase and epoch metrics", func() {
			So(func() {
				UpdateCurrentPhase(1)
				RecordPhaseCompleted("rest", 5.0)
				RecordPhaseCompleted("epoch", 20.0)
				RecordEpochRetained(10_000)
				RecordShortEpoch()
				RecordDegenerateChannels(2)
				UpdateCurrentPhase(-1)
			}, ShouldNotPanic)
			So(testutil.ToFloat64(globalManager.currentPhase), ShouldEqual, -1)
		})

		Convey("When recording dataset and HTTP metrics", func() {
			So(func() {
				RecordDatasetWrite(true, 12.5)
				RecordDatasetWrite(false, 3.0)
				RecordHTTPRequest("status", "GET", "200")
				RecordHTTPRequestDuration("status", "GET", "200", 1.0)
				RecordErrorByComponent("phase", "empty_phase")
			}, ShouldNotPanic)
			So(testutil.ToFloat64(globalManager.datasetWrites.WithLabelValues("failed")), ShouldBeGreaterThanOrEqualTo, 1)
		})

		Convey("When recording process metrics", func() {
			UpdateSystemMemoryUsage(4096)
			UpdateSystemGoroutineCount(7)
			RecordSystemGCPauseTime(0.2)

			So(testutil.ToFloat64(globalManager.systemMemory), ShouldEqual, 4096)
			So(testutil.ToFloat64(globalManager.systemGoroutines), ShouldEqual, 7)
		})

		Convey("When exposing the registry", func() {
			problems, err := testutil.GatherAndLint(GetRegistry())
			So(err, ShouldBeNil)
			for _, p := range problems {
				So(strings.HasPrefix(p.Metric, "bria_"), ShouldBeTrue)
			}
		})
	})
}
