// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 StoryForge Contributors

package plugin

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Status constants for plugin call metrics.
const (
	StatusSuccess = "success"
	StatusError   = "error"
	StatusTimeout = "timeout"
)

// ActionInvocations is the counter for plugin action invocations.
// Use RegisterMetrics to register this with a Prometheus registry.
var ActionInvocations = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "storyforge_plugin_action_invocations_total",
		Help: "Total number of plugin action invocations",
	},
	[]string{"plugin", "action", "status"},
)

// ActionDuration is the histogram for plugin action round-trip latency.
// Use RegisterMetrics to register this with a Prometheus registry.
var ActionDuration = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "storyforge_plugin_action_duration_seconds",
		Help:    "Plugin action round-trip latency in seconds",
		Buckets: prometheus.DefBuckets,
	},
	[]string{"plugin", "action"},
)

// RegistryRequests is the counter for backend registry requests.
// Use RegisterMetrics to register this with a Prometheus registry.
var RegistryRequests = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "storyforge_plugin_registry_requests_total",
		Help: "Total number of backend plugin registry requests",
	},
	[]string{"operation", "status"},
)

// InstructionsApplied is the counter for executed instructions by kind.
// Use RegisterMetrics to register this with a Prometheus registry.
var InstructionsApplied = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "storyforge_plugin_instructions_total",
		Help: "Total number of plugin instructions processed",
	},
	[]string{"kind", "status"},
)

// RegisterMetrics registers plugin package metrics with the given
// Prometheus registry. Panics if registration fails (following prometheus
// convention).
func RegisterMetrics(reg prometheus.Registerer) {
	reg.MustRegister(ActionInvocations)
	reg.MustRegister(ActionDuration)
	reg.MustRegister(RegistryRequests)
	reg.MustRegister(InstructionsApplied)
}

// RecordActionInvocation increments the invocation counter.
func RecordActionInvocation(plugin, action, status string) {
	ActionInvocations.WithLabelValues(plugin, action, status).Inc()
}

// RecordActionDuration records the round-trip latency of an invocation.
func RecordActionDuration(plugin, action string, duration time.Duration) {
	ActionDuration.WithLabelValues(plugin, action).Observe(duration.Seconds())
}

// RecordRegistryRequest increments the registry request counter.
func RecordRegistryRequest(operation, status string) {
	RegistryRequests.WithLabelValues(operation, status).Inc()
}

// RecordInstruction increments the instruction counter.
func RecordInstruction(kind, status string) {
	InstructionsApplied.WithLabelValues(kind, status).Inc()
}
