package metrics

import (
	"regexp"
	"strconv"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// RequestDuration tracks HTTP request duration in seconds by method, path, status.
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	// RequestTotal counts HTTP requests by method, path, status.
	RequestTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// ExecutionsTriggered counts executions created through the API by trigger source.
	ExecutionsTriggered = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mlregistry_executions_triggered_total",
			Help: "Total number of executions queued, by trigger source",
		},
		[]string{"triggered_by"},
	)

	// ExecutionsFinished counts executions moved to a final status through the API.
	ExecutionsFinished = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mlregistry_executions_finished_total",
			Help: "Total number of executions finished, by final status",
		},
		[]string{"status"},
	)

	// DeploymentTransitions counts deployment start/stop actions by resulting status.
	DeploymentTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mlregistry_deployment_transitions_total",
			Help: "Total number of deployment status changes, by new status",
		},
		[]string{"status"},
	)
)

var (
	numericPathSegment = regexp.MustCompile(`/[0-9]+(/|$)`)
	initOnce           sync.Once
)

func init() {
	initOnce.Do(func() {
		prometheus.MustRegister(RequestDuration, RequestTotal, ExecutionsTriggered, ExecutionsFinished, DeploymentTransitions)
	})
}

// NormalizePath reduces cardinality by replacing numeric path segments with {id}.
// E.g. /models/123 -> /models/{id}, /executions/45/logs -> /executions/{id}/logs.
func NormalizePath(path string) string {
	for {
		next := numericPathSegment.ReplaceAllString(path, "/{id}$1")
		if next == path {
			return path
		}
		path = next
	}
}

// RecordRequest records duration and count for an HTTP request.
func RecordRequest(method, path string, statusCode int, durationSeconds float64) {
	path = NormalizePath(path)
	status := strconv.Itoa(statusCode)
	RequestDuration.WithLabelValues(method, path, status).Observe(durationSeconds)
	RequestTotal.WithLabelValues(method, path, status).Inc()
}

// IncExecutionsTriggered increments the queued executions counter.
func IncExecutionsTriggered(triggeredBy string) {
	ExecutionsTriggered.WithLabelValues(triggeredBy).Inc()
}

// IncExecutionsFinished increments the finished executions counter for status.
func IncExecutionsFinished(status string) {
	ExecutionsFinished.WithLabelValues(status).Inc()
}

// IncDeploymentTransitions increments the deployment transitions counter for status.
func IncDeploymentTransitions(status string) {
	DeploymentTransitions.WithLabelValues(status).Inc()
}
