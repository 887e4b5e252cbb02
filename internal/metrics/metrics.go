package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry           *prometheus.Registry
	syncRuns           *prometheus.CounterVec // total syncs
	syncDuration       prometheus.Histogram   // time to sync
	connectionOps      *prometheus.CounterVec // planned connection operations
	settingChanges     *prometheus.CounterVec // differing settings per family
	managedConnections prometheus.Gauge       // connections in the last sync
	nmcliCommands      *prometheus.CounterVec // nmcli invocations
	lookupRequests     *prometheus.CounterVec // key-value lookups
	failoverRequests   *prometheus.CounterVec // failover api requests
}

// Public interface for metrics operations
func (m *Metrics) IncSyncRun(success bool) {
	status := boolToResult(success)
	m.syncRuns.WithLabelValues(status).Inc()
}

func (m *Metrics) SetSyncDuration(duration time.Duration) {
	m.syncDuration.Observe(duration.Seconds())
}

func (m *Metrics) IncConnectionOperation(operation, connType string) {
	if !isValidOperation(operation) {
		return
	}
	if connType == "" {
		connType = "unknown"
	}
	m.connectionOps.WithLabelValues(operation, connType).Inc()
}

func (m *Metrics) AddSettingChanges(family string, count int) {
	if count <= 0 {
		return
	}
	if family == "" {
		family = "bond-options"
	}
	m.settingChanges.WithLabelValues(family).Add(float64(count))
}

func (m *Metrics) SetManagedConnections(count int) {
	m.managedConnections.Set(float64(count))
}

func (m *Metrics) IncNmcliCommand(command string, success bool) {
	if !isValidCommand(command) {
		return
	}
	status := boolToResult(success)
	m.nmcliCommands.WithLabelValues(command, status).Inc()
}

func (m *Metrics) IncLookupRequest(backend, operation string, success bool) {
	if backend == "" || !isValidOperation(operation) {
		return
	}
	status := boolToResult(success)
	m.lookupRequests.WithLabelValues(backend, operation, status).Inc()
}

func (m *Metrics) IncFailoverRequest(operation string, success bool) {
	if !isValidOperation(operation) {
		return
	}
	status := boolToResult(success)
	m.failoverRequests.WithLabelValues(operation, status).Inc()
}

// Validation helpers
func boolToResult(b bool) string {
	if b {
		return "success"
	}
	return "failure"
}

func isValidOperation(op string) bool {
	switch op {
	case "create", "read", "update", "delete", "skip", "unchanged":
		return true
	}
	return false
}

func isValidCommand(cmd string) bool {
	switch cmd {
	case "list", "show", "add", "modify", "delete":
		return true
	}
	return false
}

func New(register bool) *Metrics {
	registry := prometheus.NewRegistry()
	namespace := "nmcli_sync"

	m := &Metrics{
		registry: registry,

		syncRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sync_runs_total",
			Help:      "Total number of synchronization runs",
		}, []string{"status"}),

		syncDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "sync_duration_seconds",
			Help:      "Duration of synchronization runs in seconds",
			Buckets:   prometheus.DefBuckets,
		}),

		connectionOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "connection_operations_total",
			Help:      "Total connection operations planned by app",
		}, []string{"operation", "type"}),

		settingChanges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "setting_changes_total",
			Help:      "Total settings found out of sync, by family",
		}, []string{"family"}),

		managedConnections: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "managed_connections_current",
			Help:      "Connections declared in the last sync",
		}),

		nmcliCommands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "nmcli_commands_total",
			Help:      "Total nmcli invocations",
		}, []string{"command", "status"}),

		lookupRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lookup_requests_total",
			Help:      "Total key-value store requests",
		}, []string{"backend", "operation", "status"}),

		failoverRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "failover_requests_total",
			Help:      "Total failover api requests",
		}, []string{"operation", "status"}),
	}

	if register {
		registry.MustRegister(
			m.syncRuns,
			m.syncDuration,
			m.connectionOps,
			m.settingChanges,
			m.managedConnections,
			m.nmcliCommands,
			m.lookupRequests,
			m.failoverRequests,
		)
	}
	return m
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
