package translate

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/OpenDaL/ingestion-and-transformation/record"
)

// Metrics holds the Prometheus metrics of one engine.
type Metrics struct {
	recordsTotal prometheus.Counter
	fieldsFilled *prometheus.CounterVec // Canonical fields produced, by field
	rejections   *prometheus.CounterVec // Rejections and truncations, by field and reason
	panics       *prometheus.CounterVec // Recovered translator panics, by field
	duration     prometheus.Histogram   // Whole-record translation duration
}

// NewMetrics creates and registers the engine metrics. A nil registerer
// disables metrics.
func NewMetrics(registerer prometheus.Registerer) (*Metrics, error) {
	if registerer == nil {
		return nil, nil
	}

	m := &Metrics{
		recordsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "opendal",
			Subsystem: "translate",
			Name:      "records_total",
			Help:      "Total records translated",
		}),
		fieldsFilled: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "opendal",
			Subsystem: "translate",
			Name:      "fields_filled_total",
			Help:      "Canonical fields produced, by field",
		}, []string{"field"}),
		rejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "opendal",
			Subsystem: "translate",
			Name:      "rejections_total",
			Help:      "Field rejections and truncations, by field and reason",
		}, []string{"field", "reason"}),
		panics: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "opendal",
			Subsystem: "translate",
			Name:      "translator_panics_total",
			Help:      "Recovered translator panics, by field",
		}, []string{"field"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "opendal",
			Subsystem: "translate",
			Name:      "record_duration_seconds",
			Help:      "Whole-record translation duration",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 10),
		}),
	}

	for _, collector := range []prometheus.Collector{
		m.recordsTotal, m.fieldsFilled, m.rejections, m.panics, m.duration,
	} {
		if err := registerer.Register(collector); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) observeRecord(seconds float64, out record.Canonical, log *record.Log) {
	if m == nil {
		return
	}
	m.recordsTotal.Inc()
	m.duration.Observe(seconds)
	for field := range out {
		m.fieldsFilled.WithLabelValues(field).Inc()
	}
	for _, entry := range log.Entries {
		m.rejections.WithLabelValues(entry.Field, string(entry.Reason)).Inc()
	}
}

func (m *Metrics) observePanic(field string) {
	if m == nil {
		return
	}
	m.panics.WithLabelValues(field).Inc()
}
