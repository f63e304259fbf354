// Package metrics counts what each digest run collected, dropped and delivered.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "eventsdigest"

// Drop stages reported by the pipeline.
const (
	StageNotPhysical = "not_physical"
	StageAttendees   = "attendees"
	StageRelevance   = "relevance"
	StageUndated     = "undated"
	StageWindow      = "window"
	StageDuplicate   = "duplicate"
)

// Classification outcomes.
const (
	ResultOK      = "ok"
	ResultInvalid = "invalid"
	ResultError   = "error"
)

// Recorder owns a private registry. A nil *Recorder is a valid no-op.
type Recorder struct {
	registry          *prometheus.Registry
	collected         *prometheus.CounterVec
	dropped           *prometheus.CounterVec
	classifications   *prometheus.CounterVec
	messages          *prometheus.CounterVec
	collectorFailures *prometheus.CounterVec
}

// New registers all digest counters on a fresh registry.
func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		collected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_collected_total",
			Help:      "Raw events returned by collectors.",
		}, []string{"source"}),
		dropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_dropped_total",
			Help:      "Events removed from the digest, by pipeline stage.",
		}, []string{"stage"}),
		classifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "classifications_total",
			Help:      "Classifier calls by outcome.",
		}, []string{"result"}),
		messages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_sent_total",
			Help:      "Messages delivered, by channel.",
		}, []string{"channel"}),
		collectorFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "collector_failures_total",
			Help:      "Collector runs that failed and were treated as empty.",
		}, []string{"source"}),
	}

	r.registry.MustRegister(r.collected, r.dropped, r.classifications, r.messages, r.collectorFailures)
	return r
}

// Collected adds n raw events for source.
func (r *Recorder) Collected(source string, n int) {
	if r == nil || n <= 0 {
		return
	}
	r.collected.WithLabelValues(source).Add(float64(n))
}

// Dropped adds n events removed at stage.
func (r *Recorder) Dropped(stage string, n int) {
	if r == nil || n <= 0 {
		return
	}
	r.dropped.WithLabelValues(stage).Add(float64(n))
}

// Classified counts one classifier outcome.
func (r *Recorder) Classified(result string) {
	if r == nil {
		return
	}
	r.classifications.WithLabelValues(result).Inc()
}

// MessageSent counts one delivered message.
func (r *Recorder) MessageSent(channel string) {
	if r == nil {
		return
	}
	r.messages.WithLabelValues(channel).Inc()
}

// CollectorFailed counts one failed collector run.
func (r *Recorder) CollectorFailed(source string) {
	if r == nil {
		return
	}
	r.collectorFailures.WithLabelValues(source).Inc()
}

// Registry exposes the underlying registry for tests and custom exporters.
func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

// Handler serves the registry in the Prometheus text format.
func (r *Recorder) Handler() http.Handler {
	if r == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}
