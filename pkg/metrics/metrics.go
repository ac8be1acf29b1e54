// Package metrics exposes Prometheus instrumentation for the orchestrator and the HTTP API.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const DefaultNamespace = "pipeflow"

const (
	StatusSuccess = "success"
	StatusFailure = "failure"
)

// Collector owns its own registry so tests and embedded hosts never collide on
// the global default registerer. A nil *Collector is valid and records nothing.
type Collector struct {
	registry *prometheus.Registry

	StepExecutions      *prometheus.CounterVec
	StepDuration        *prometheus.HistogramVec
	RunResults          *prometheus.CounterVec
	ConvertPassFailures *prometheus.CounterVec
	StatesPurged        prometheus.Counter
	EventsConsumed      *prometheus.CounterVec
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
}

func NewCollector(namespace string) *Collector {
	if namespace == "" {
		namespace = DefaultNamespace
	}

	reg := prometheus.NewRegistry()

	c := &Collector{
		registry: reg,
		StepExecutions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "step_executions_total",
			Help:      "Total number of step executions and input submissions",
		}, []string{"pipeline", "step", "status"}),
		StepDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "step_duration_seconds",
			Help:      "Duration of step executions in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"pipeline", "step"}),
		RunResults: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "run_results_total",
			Help:      "Run and submit outcomes by result status",
		}, []string{"pipeline", "status"}),
		ConvertPassFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "convert_pass_failures_total",
			Help:      "Total number of convert pass failures",
		}, []string{"pass"}),
		StatesPurged: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "states_purged_total",
			Help:      "Execution states removed by the janitor",
		}),
		EventsConsumed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_consumed_total",
			Help:      "Pipeline lifecycle events consumed from the event bus",
		}, []string{"type"}),
		HTTPRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"method", "route", "status_code"}),
		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}

	reg.MustRegister(
		c.StepExecutions,
		c.StepDuration,
		c.RunResults,
		c.ConvertPassFailures,
		c.StatesPurged,
		c.EventsConsumed,
		c.HTTPRequestsTotal,
		c.HTTPRequestDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return c
}

func (c *Collector) Registry() *prometheus.Registry {
	if c == nil {
		return nil
	}

	return c.registry
}

func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

func (c *Collector) ObserveStep(pipelineID, stepID string, duration time.Duration, err error) {
	if c == nil {
		return
	}

	status := StatusSuccess
	if err != nil {
		status = StatusFailure
	}

	c.StepExecutions.WithLabelValues(pipelineID, stepID, status).Inc()
	c.StepDuration.WithLabelValues(pipelineID, stepID).Observe(duration.Seconds())
}

func (c *Collector) RecordRunResult(pipelineID, status string) {
	if c == nil {
		return
	}

	c.RunResults.WithLabelValues(pipelineID, status).Inc()
}

func (c *Collector) RecordConvertPassFailure(passID string) {
	if c == nil {
		return
	}

	c.ConvertPassFailures.WithLabelValues(passID).Inc()
}

func (c *Collector) RecordPurged(count int) {
	if c == nil || count <= 0 {
		return
	}

	c.StatesPurged.Add(float64(count))
}

func (c *Collector) RecordEvent(eventType string) {
	if c == nil {
		return
	}

	c.EventsConsumed.WithLabelValues(eventType).Inc()
}

func (c *Collector) RecordHTTPRequest(method, route string, statusCode int, duration time.Duration) {
	if c == nil {
		return
	}

	c.HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(statusCode)).Inc()
	c.HTTPRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}
