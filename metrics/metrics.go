// Package metrics exports what happens to the messages of a producer
// as Prometheus metrics.
package metrics

import (
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/heetch/courier/delivery"
	"github.com/heetch/courier/producer"
)

// Results of a message, the result label of the messages counter.
const (
	Delivered = "delivered"
	Rejected  = "rejected"
	Exhausted = "exhausted"
	Aborted   = "aborted"
	Failed    = "failed"
)

// Prometheus is a producer.MetricsReporter.
type Prometheus struct {
	mode     string
	messages *prometheus.CounterVec
	retries  *prometheus.CounterVec
	attempts *prometheus.HistogramVec
}

var _ producer.MetricsReporter = (*Prometheus)(nil)

// NewPrometheus registers the metrics of a producer of the given mode
// with reg. Producers of different modes can share the same registry.
func NewPrometheus(reg prometheus.Registerer, namespace string, mode delivery.Mode) (*Prometheus, error) {
	p := Prometheus{
		mode: mode.String(),
		messages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "producer",
			Name:      "messages_total",
			Help:      "Total number of messages that reached a terminal state, by result",
		}, []string{"mode", "topic", "result"}),
		retries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "producer",
			Name:      "retries_total",
			Help:      "Total number of times a message was sent again",
		}, []string{"mode", "topic"}),
		attempts: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "producer",
			Name:      "attempts",
			Help:      "Number of attempts made per message",
			Buckets:   []float64{0, 1, 2, 3, 4, 5},
		}, []string{"mode"}),
	}

	var err error
	if p.messages, err = register(reg, p.messages); err != nil {
		return nil, err
	}
	if p.retries, err = register(reg, p.retries); err != nil {
		return nil, err
	}
	if p.attempts, err = register(reg, p.attempts); err != nil {
		return nil, err
	}
	return &p, nil
}

// register registers c, or returns the collector already registered
// under the same name.
func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	err := reg.Register(c)
	if err == nil {
		return c, nil
	}
	var are prometheus.AlreadyRegisteredError
	if errors.As(err, &are) {
		if existing, ok := are.ExistingCollector.(C); ok {
			return existing, nil
		}
	}
	return c, errors.Wrap(err, "cannot register producer metrics")
}

// Report implements producer.MetricsReporter.
func (p *Prometheus) Report(msg *producer.Message, o producer.Outcome) {
	p.messages.WithLabelValues(p.mode, msg.Topic, Result(o)).Inc()
	p.attempts.WithLabelValues(p.mode).Observe(float64(o.Attempts))
}

// Retry implements producer.MetricsReporter.
func (p *Prometheus) Retry(msg *producer.Message, attempt int, err error) {
	p.retries.WithLabelValues(p.mode, msg.Topic).Inc()
}

// Result names the result of o. Messages rejected before reaching the
// broker client are never sent and fail with a permanent error.
func Result(o producer.Outcome) string {
	switch {
	case o.Err == nil:
		return Delivered
	case o.Attempts == 0 && o.Kind() == delivery.Permanent:
		return Rejected
	case errors.Is(o.Err, delivery.ErrExhausted):
		return Exhausted
	case o.Txn != nil && o.Txn.State == producer.TxnAborted:
		return Aborted
	}
	return Failed
}
