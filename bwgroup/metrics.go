/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package bwgroup

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/acronis/go-bwlimit/internal/libinfo"
)

const directionLabel = "direction"

// MetricsCollector represents a collector of metrics of bandwidth groups.
// One collector may be shared by many groups.
type MetricsCollector interface {
	// IncSuspensions increments the number of group-wide suspend broadcasts.
	IncSuspensions(dir Direction)

	// IncResumes increments the number of group-wide resume broadcasts.
	IncResumes(dir Direction)

	// AddBytes adds the number of reported bytes.
	AddBytes(dir Direction, n int)

	// IncMembers increments the number of connections in groups.
	IncMembers()

	// DecMembers decrements the number of connections in groups.
	DecMembers()
}

type disabledMetrics struct{}

func (disabledMetrics) IncSuspensions(Direction) {}
func (disabledMetrics) IncResumes(Direction) {}
func (disabledMetrics) AddBytes(Direction, int) {}
func (disabledMetrics) IncMembers() {}
func (disabledMetrics) DecMembers() {}

// PrometheusMetricsOpts represents options for PrometheusMetrics.
type PrometheusMetricsOpts struct {
	// Namespace is a namespace for metrics. It will be prepended to all metric names.
	Namespace string

	// ConstLabels is a set of labels that will be applied to all metrics.
	ConstLabels prometheus.Labels
}

// PrometheusMetrics represents a Prometheus metrics for bandwidth groups.
type PrometheusMetrics struct {
	SuspensionsTotal *prometheus.CounterVec
	ResumesTotal     *prometheus.CounterVec
	BytesTotal       *prometheus.CounterVec
	Members          prometheus.Gauge
}

var _ MetricsCollector = (*PrometheusMetrics)(nil)

// NewPrometheusMetrics creates a new instance of PrometheusMetrics with default options.
func NewPrometheusMetrics() *PrometheusMetrics {
	return NewPrometheusMetricsWithOpts(PrometheusMetricsOpts{})
}

// NewPrometheusMetricsWithOpts creates a new instance of PrometheusMetrics with the provided options.
func NewPrometheusMetricsWithOpts(opts PrometheusMetricsOpts) *PrometheusMetrics {
	constLabels := libinfo.AddPrometheusLibVersionLabel(opts.ConstLabels)

	suspensionsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   opts.Namespace,
			Name:        "bwgroup_suspensions_total",
			Help:        "Number of times a direction was suspended on all members of a group.",
			ConstLabels: constLabels,
		},
		[]string{directionLabel},
	)

	resumesTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   opts.Namespace,
			Name:        "bwgroup_resumes_total",
			Help:        "Number of times a direction was resumed on all members of a group.",
			ConstLabels: constLabels,
		},
		[]string{directionLabel},
	)

	bytesTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   opts.Namespace,
			Name:        "bwgroup_bytes_total",
			Help:        "Number of bytes reported by members of groups.",
			ConstLabels: constLabels,
		},
		[]string{directionLabel},
	)

	members := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace:   opts.Namespace,
		Name:        "bwgroup_members",
		Help:        "Current number of connections in groups.",
		ConstLabels: constLabels,
	})

	return &PrometheusMetrics{
		SuspensionsTotal: suspensionsTotal,
		ResumesTotal:     resumesTotal,
		BytesTotal:       bytesTotal,
		Members:          members,
	}
}

// MustRegister does registration of metrics collector in Prometheus and panics if any error occurs.
func (pm *PrometheusMetrics) MustRegister() {
	prometheus.MustRegister(
		pm.SuspensionsTotal,
		pm.ResumesTotal,
		pm.BytesTotal,
		pm.Members,
	)
}

// Unregister cancels registration of metrics collector in Prometheus.
func (pm *PrometheusMetrics) Unregister() {
	prometheus.Unregister(pm.SuspensionsTotal)
	prometheus.Unregister(pm.ResumesTotal)
	prometheus.Unregister(pm.BytesTotal)
	prometheus.Unregister(pm.Members)
}

// MustRegisterMetrics is an alias of MustRegister that lets service.Service register the metrics.
func (pm *PrometheusMetrics) MustRegisterMetrics() {
	pm.MustRegister()
}

// UnregisterMetrics is an alias of Unregister that lets service.Service unregister the metrics.
func (pm *PrometheusMetrics) UnregisterMetrics() {
	pm.Unregister()
}

// IncSuspensions increments the number of group-wide suspend broadcasts.
func (pm *PrometheusMetrics) IncSuspensions(dir Direction) {
	pm.SuspensionsTotal.WithLabelValues(dir.String()).Inc()
}

// IncResumes increments the number of group-wide resume broadcasts.
func (pm *PrometheusMetrics) IncResumes(dir Direction) {
	pm.ResumesTotal.WithLabelValues(dir.String()).Inc()
}

// AddBytes adds the number of reported bytes.
func (pm *PrometheusMetrics) AddBytes(dir Direction, n int) {
	pm.BytesTotal.WithLabelValues(dir.String()).Add(float64(n))
}

// IncMembers increments the number of connections in groups.
func (pm *PrometheusMetrics) IncMembers() {
	pm.Members.Inc()
}

// DecMembers decrements the number of connections in groups.
func (pm *PrometheusMetrics) DecMembers() {
	pm.Members.Dec()
}
