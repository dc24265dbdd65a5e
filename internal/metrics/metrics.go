// Package metrics exposes Prometheus counters for the planner on a private registry.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"

	"github.com/fastygo/planner/usecase"
)

const namespace = "planner"

// Registry owns every collector the service exports.
type Registry struct {
	reg            *prometheus.Registry
	taskOperations *prometheus.CounterVec
	authAttempts   *prometheus.CounterVec
	httpRequests   *prometheus.CounterVec
	httpDuration   *prometheus.HistogramVec
}

func New() *Registry {
	r := &Registry{
		reg: prometheus.NewRegistry(),
		taskOperations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "task_operations_total",
			Help:      "Task operations by kind and outcome.",
		}, []string{"operation", "result"}),
		authAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "auth_attempts_total",
			Help:      "Sign-in attempts by provider and outcome.",
		}, []string{"provider", "result"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method and status code.",
		}, []string{"method", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
	}

	r.reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		r.taskOperations,
		r.authAttempts,
		r.httpRequests,
		r.httpDuration,
	)
	return r
}

func (r *Registry) TaskOperation(operation, result string) {
	r.taskOperations.WithLabelValues(operation, result).Inc()
}

func (r *Registry) AuthAttempt(provider, result string) {
	r.authAttempts.WithLabelValues(provider, result).Inc()
}

// TrackGauge exports a value sampled at scrape time, such as the outbox size.
func (r *Registry) TrackGauge(name, help string, sample func() float64) {
	r.reg.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      name,
		Help:      help,
	}, sample))
}

// Handler serves the registry in the Prometheus text format.
func (r *Registry) Handler() fasthttp.RequestHandler {
	return fasthttpadaptor.NewFastHTTPHandler(promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{}))
}

// Middleware counts and times every request passing through next.
func (r *Registry) Middleware(next fasthttp.RequestHandler) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		start := time.Now()
		next(ctx)
		method := string(ctx.Method())
		r.httpRequests.WithLabelValues(method, strconv.Itoa(ctx.Response.StatusCode())).Inc()
		r.httpDuration.WithLabelValues(method).Observe(time.Since(start).Seconds())
	}
}

var _ usecase.Recorder = (*Registry)(nil)
