// ABOUTME: Prometheus metrics for engine sends
// ABOUTME: Counts buffers, samples and failures per engine label
package output

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

// Metrics holds engine counters. A nil *Metrics records nothing.
type Metrics struct {
	BuffersSent  *prometheus.CounterVec
	SamplesSent  *prometheus.CounterVec
	SendErrors   *prometheus.CounterVec
	SendDuration *prometheus.HistogramVec
}

// Totals is a snapshot of one engine label's counters
type Totals struct {
	Buffers float64
	Samples float64
	Errors  float64
}

// NewMetrics creates the engine metrics and registers them with reg
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	labels := []string{"engine"}
	m := &Metrics{
		BuffersSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "audioenv_buffers_sent_total",
			Help: "Buffers accepted by an output engine.",
		}, labels),
		SamplesSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "audioenv_samples_sent_total",
			Help: "Interleaved samples accepted by an output engine.",
		}, labels),
		SendErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "audioenv_send_errors_total",
			Help: "Sends that returned an error.",
		}, labels),
		SendDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "audioenv_send_duration_seconds",
			Help:    "Time a Send call blocked.",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 12),
		}, labels),
	}

	for _, c := range []prometheus.Collector{m.BuffersSent, m.SamplesSent, m.SendErrors, m.SendDuration} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) observe(engine string, samples int, start time.Time, err error) {
	if m == nil {
		return
	}
	m.SendDuration.WithLabelValues(engine).Observe(time.Since(start).Seconds())
	if err != nil {
		m.SendErrors.WithLabelValues(engine).Inc()
		return
	}
	m.BuffersSent.WithLabelValues(engine).Inc()
	m.SamplesSent.WithLabelValues(engine).Add(float64(samples))
}

// Totals reads the counters for engine
func (m *Metrics) Totals(engine string) (Totals, error) {
	if m == nil {
		return Totals{}, nil
	}

	var t Totals
	for _, c := range []struct {
		vec *prometheus.CounterVec
		dst *float64
	}{
		{m.BuffersSent, &t.Buffers},
		{m.SamplesSent, &t.Samples},
		{m.SendErrors, &t.Errors},
	} {
		var metric dto.Metric
		if err := c.vec.WithLabelValues(engine).Write(&metric); err != nil {
			return Totals{}, err
		}
		*c.dst = metric.GetCounter().GetValue()
	}
	return t, nil
}
