// Package metrics exposes Prometheus instruments for HTTP traffic, compliance
// assessments and rules dictionary reloads.
package metrics

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder owns a private registry so several recorders can coexist in one
// process (tests, embedded servers).
type Recorder struct {
	registry *prometheus.Registry

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
	assessments  *prometheus.CounterVec
	scores       prometheus.Histogram
	criticalGaps *prometheus.CounterVec
	rulesReloads *prometheus.CounterVec
}

func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		httpRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "route", "status_code"},
		),
		httpDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Duration of HTTP requests in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		assessments: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lcd_assessments_total",
				Help: "Medicare LCD compliance assessments by overall status",
			},
			[]string{"status", "traffic_light"},
		),
		scores: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "lcd_assessment_score",
				Help:    "Distribution of compliance scores (0-100)",
				Buckets: []float64{10, 25, 40, 50, 60, 70, 80, 90, 100},
			},
		),
		criticalGaps: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lcd_critical_gaps_total",
				Help: "Critical gaps reported by assessments, by gap kind",
			},
			[]string{"gap"},
		),
		rulesReloads: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lcd_rules_reloads_total",
				Help: "Rules dictionary reload attempts by result",
			},
			[]string{"result"},
		),
	}

	r.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		r.httpRequests,
		r.httpDuration,
		r.assessments,
		r.scores,
		r.criticalGaps,
		r.rulesReloads,
	)
	return r
}

func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// ObserveAssessment records one completed assessment.
func (r *Recorder) ObserveAssessment(status, trafficLight string, score int, gapKinds []string) {
	r.assessments.WithLabelValues(status, trafficLight).Inc()
	r.scores.Observe(float64(score))
	for _, g := range gapKinds {
		r.criticalGaps.WithLabelValues(g).Inc()
	}
}

// ObserveRulesReload satisfies rules.ReloadObserver.
func (r *Recorder) ObserveRulesReload(result string) {
	r.rulesReloads.WithLabelValues(result).Inc()
}

// Middleware records request counts and latency keyed by the matched route
// template, never the raw path.
func (r *Recorder) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			status := c.Response().Status
			if he, ok := err.(*echo.HTTPError); ok {
				status = he.Code
			}
			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			method := c.Request().Method

			r.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
			r.httpDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
			return err
		}
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() echo.HandlerFunc {
	return echo.WrapHandler(promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{}))
}
