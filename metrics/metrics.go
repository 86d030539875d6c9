// Package metrics provides Prometheus metrics for the server
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus collectors
type Metrics struct {
	registry *prometheus.Registry

	// HTTP request metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// LLM collaborator metrics
	LLMRequestsTotal   *prometheus.CounterVec
	LLMRequestDuration *prometheus.HistogramVec

	// Pipeline metrics
	MessagesPersistedTotal prometheus.Counter
	ApologyRepliesTotal    prometheus.Counter
	PartialWritesTotal     prometheus.Counter
	ExtractionFailures     *prometheus.CounterVec
}

// New creates all metrics on a fresh registry
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "repcoach_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "repcoach_http_request_duration_seconds",
				Help:    "Duration of HTTP requests in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),

		LLMRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "repcoach_llm_requests_total",
				Help: "Total number of LLM calls",
			},
			[]string{"op", "status"},
		),
		LLMRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "repcoach_llm_request_duration_seconds",
				Help:    "Duration of LLM calls in seconds",
				Buckets: []float64{0.5, 1, 2, 5, 10, 20, 40, 80, 120},
			},
			[]string{"op"},
		),

		MessagesPersistedTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "repcoach_messages_persisted_total",
			Help: "Total number of conversation messages written",
		}),
		ApologyRepliesTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "repcoach_apology_replies_total",
			Help: "Conversation starts that fell back to the canned apology",
		}),
		PartialWritesTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "repcoach_partial_message_writes_total",
			Help: "Message pair writes where only some rows were stored",
		}),
		ExtractionFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "repcoach_extraction_failures_total",
				Help: "Structured extraction failures by contract and reason",
			},
			[]string{"contract", "reason"},
		),
	}
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
