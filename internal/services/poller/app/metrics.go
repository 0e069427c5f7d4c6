package app

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Cycle outcomes recorded in dbpoll_poller_cycles_total.
const (
	OutcomeEmpty           = "empty"
	OutcomeProcessed       = "processed"
	OutcomePollFailed      = "poll_failed"
	OutcomeProcessFailed   = "process_failed"
	OutcomeWriteBackFailed = "write_back_failed"
	OutcomeSkipped         = "skipped"
)

const (
	metricsNamespace    = "dbpoll"
	metricsSubsystem    = "poller"
	cycleOutcomeLabel   = "outcome"
	defaultCycleBuckets = 12
)

// Metrics holds the poll loop collectors.
type Metrics struct {
	cycles         *prometheus.CounterVec
	recordsPolled  prometheus.Counter
	recordsMarked  prometheus.Counter
	cycleDuration  prometheus.Histogram
	lastBatchSize  prometheus.Gauge
	inFlightCycles prometheus.Gauge
}

// NewMetrics creates poll loop collectors and registers them with reg when
// reg is non-nil.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		cycles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "cycles_total",
			Help:      "Poll cycles by outcome.",
		}, []string{cycleOutcomeLabel}),
		recordsPolled: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "records_polled_total",
			Help:      "Customers returned by polls.",
		}),
		recordsMarked: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "records_marked_total",
			Help:      "Customers marked processed.",
		}),
		cycleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "cycle_duration_seconds",
			Help:      "Duration of poll cycles.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, defaultCycleBuckets),
		}),
		lastBatchSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "last_batch_size",
			Help:      "Customers returned by the most recent successful poll.",
		}),
		inFlightCycles: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "cycles_in_flight",
			Help:      "Poll cycles currently running (0 or 1).",
		}),
	}
	if reg == nil {
		return m, nil
	}
	for _, collector := range []prometheus.Collector{
		m.cycles,
		m.recordsPolled,
		m.recordsMarked,
		m.cycleDuration,
		m.lastBatchSize,
		m.inFlightCycles,
	} {
		if err := reg.Register(collector); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) cycleStarted() {
	if m == nil {
		return
	}
	m.inFlightCycles.Inc()
}

func (m *Metrics) cycleFinished(result CycleResult, outcome string) {
	if m == nil {
		return
	}
	m.inFlightCycles.Dec()
	m.cycles.WithLabelValues(outcome).Inc()
	m.cycleDuration.Observe(result.Duration.Seconds())
	if outcome != OutcomePollFailed {
		m.lastBatchSize.Set(float64(result.Polled))
	}
	m.recordsPolled.Add(float64(result.Polled))
	m.recordsMarked.Add(float64(result.Marked))
}

func (m *Metrics) cycleSkipped() {
	if m == nil {
		return
	}
	m.cycles.WithLabelValues(OutcomeSkipped).Inc()
}
