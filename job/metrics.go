package job

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Run outcomes
const (
	OutcomeSuccess       = "success"
	OutcomeFetchFailed   = "fetch_failed"
	OutcomeDecodeFailed  = "decode_failed"
	OutcomeSegmentFailed = "segment_failed"
	OutcomeNoPanel       = "no_panel"
	OutcomeProcessFailed = "process_failed"
	OutcomeSignalFailed  = "signal_failed"
)

// Metrics contains Prometheus metrics for the daily job
type Metrics struct {
	runsTotal          *prometheus.CounterVec
	plantsCorrected    prometheus.Counter
	plantsSkipped      prometheus.Counter
	classifyErrors     prometheus.Counter
	runDuration        prometheus.Histogram
	lastSignal         *prometheus.GaugeVec
	lastSuccessSeconds prometheus.Gauge
}

// NewMetrics creates and registers the job metrics
func NewMetrics(registry prometheus.Registerer) (*Metrics, error) {

	m := &Metrics{
		runsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "trayseg_runs_total",
				Help: "Total number of tray runs by outcome",
			},
			[]string{"outcome"},
		),
		plantsCorrected: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "trayseg_plants_corrected_total",
			Help: "Total number of plant images extracted and corrected",
		}),
		plantsSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "trayseg_plants_skipped_total",
			Help: "Total number of plant detections skipped",
		}),
		classifyErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "trayseg_classify_errors_total",
			Help: "Total number of failed plant classifications",
		}),
		runDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name: "trayseg_run_duration_seconds",
			Help: "Time taken by a tray run",
			// 1s to ~17min, the hosted models dominate
			Buckets: prometheus.ExponentialBuckets(1, 2, 11),
		}),
		lastSignal: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "trayseg_last_signal",
				Help: "Spray signal last sent per station",
			},
			[]string{"station"},
		),
		lastSuccessSeconds: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "trayseg_last_success_timestamp_seconds",
			Help: "Unix time of the last successful run",
		}),
	}

	if err := registry.Register(m); err != nil {
		return nil, err
	}

	return m, nil
}

// Describe implements prometheus.Collector
func (m *Metrics) Describe(ch chan<- *prometheus.Desc) {
	m.runsTotal.Describe(ch)
	m.plantsCorrected.Describe(ch)
	m.plantsSkipped.Describe(ch)
	m.classifyErrors.Describe(ch)
	m.runDuration.Describe(ch)
	m.lastSignal.Describe(ch)
	m.lastSuccessSeconds.Describe(ch)
}

// Collect implements prometheus.Collector
func (m *Metrics) Collect(ch chan<- prometheus.Metric) {
	m.runsTotal.Collect(ch)
	m.plantsCorrected.Collect(ch)
	m.plantsSkipped.Collect(ch)
	m.classifyErrors.Collect(ch)
	m.runDuration.Collect(ch)
	m.lastSignal.Collect(ch)
	m.lastSuccessSeconds.Collect(ch)
}

// observeRun records a finished run.  Methods are safe on a nil Metrics
func (m *Metrics) observeRun(outcome string, took time.Duration, at time.Time) {
	if m == nil {
		return
	}

	m.runsTotal.WithLabelValues(outcome).Inc()
	m.runDuration.Observe(took.Seconds())

	if outcome == OutcomeSuccess {
		m.lastSuccessSeconds.Set(float64(at.Unix()))
	}
}

func (m *Metrics) observePlants(corrected, skipped int) {
	if m == nil {
		return
	}

	m.plantsCorrected.Add(float64(corrected))
	m.plantsSkipped.Add(float64(skipped))
}

func (m *Metrics) observeClassifyError() {
	if m == nil {
		return
	}

	m.classifyErrors.Inc()
}

func (m *Metrics) observeSignal(signal []int) {
	if m == nil {
		return
	}

	for i, v := range signal {
		m.lastSignal.WithLabelValues(strconv.Itoa(i + 1)).Set(float64(v))
	}
}
