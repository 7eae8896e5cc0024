// Package diagnostics provides the daemon's own health and metrics
// endpoints, separate from the control socket. The shape follows the
// teacher's HealthChecker/MetricsCollector pair, with providers and sinks
// swapped for thermod's thermometer, actuators and timetable.
package diagnostics

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/benvon/thermod/internal/actuator"
	"github.com/benvon/thermod/internal/thermometer"
	"github.com/benvon/thermod/internal/timetable"
)

// HealthStatus represents the overall health status.
type HealthStatus struct {
	Status    string                 `json:"status"` // "healthy", "degraded", "unhealthy"
	Timestamp time.Time              `json:"timestamp"`
	Checks    map[string]CheckResult `json:"checks"`
}

// CheckResult represents the result of a single health check.
type CheckResult struct {
	Status      string `json:"status"` // "pass", "fail", "warn"
	Message     string `json:"message,omitempty"`
	DurationMS  int64  `json:"duration_ms"`
	LastChecked string `json:"last_checked"`
}

func newCheckResult(status, message string, duration time.Duration) CheckResult {
	return CheckResult{
		Status:      status,
		Message:     message,
		DurationMS:  duration.Milliseconds(),
		LastChecked: time.Now().Format(time.RFC3339),
	}
}

// HealthChecker reports the liveness of the thermometer, the actuators and
// the current timetable document.
type HealthChecker struct {
	thermo  thermometer.Thermometer
	heating actuator.Actuator
	cooling actuator.Actuator
	tt      *timetable.TimeTable

	mu     sync.RWMutex
	status HealthStatus
}

// NewHealthChecker builds a HealthChecker. heating and cooling may be the
// same Actuator value when a single relay serves both roles.
func NewHealthChecker(thermo thermometer.Thermometer, heating, cooling actuator.Actuator, tt *timetable.TimeTable) *HealthChecker {
	return &HealthChecker{
		thermo:  thermo,
		heating: heating,
		cooling: cooling,
		tt:      tt,
		status: HealthStatus{
			Checks: make(map[string]CheckResult),
		},
	}
}

// CheckHealth performs all health checks and stores the result.
func (h *HealthChecker) CheckHealth(ctx context.Context) HealthStatus {
	h.mu.Lock()
	defer h.mu.Unlock()

	checks := map[string]CheckResult{
		"thermometer": h.checkThermometer(ctx),
		"heating":     h.checkActuator(h.heating),
		"timetable":   h.checkTimetable(),
	}
	if h.cooling != h.heating {
		checks["cooling"] = h.checkActuator(h.cooling)
	}

	overall := "healthy"
	for _, check := range checks {
		switch check.Status {
		case "fail":
			overall = "unhealthy"
		case "warn":
			if overall != "unhealthy" {
				overall = "degraded"
			}
		}
	}

	h.status = HealthStatus{
		Status:    overall,
		Timestamp: time.Now(),
		Checks:    checks,
	}
	return h.status
}

// GetStatus returns the most recently computed health status without
// running new checks.
func (h *HealthChecker) GetStatus() HealthStatus {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.status
}

func (h *HealthChecker) checkThermometer(ctx context.Context) CheckResult {
	start := time.Now()
	checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if _, err := h.thermo.Read(checkCtx); err != nil {
		return newCheckResult("fail", "thermometer read failed: "+err.Error(), time.Since(start))
	}
	return newCheckResult("pass", "thermometer is reachable", time.Since(start))
}

// checkActuator cannot safely probe the relay without toggling it, so it
// reports the actuator's last known state rather than exercising it.
func (h *HealthChecker) checkActuator(act actuator.Actuator) CheckResult {
	start := time.Now()
	state := "off"
	if act.IsOn() {
		state = "on"
	}
	return newCheckResult("pass", "actuator not probed, last known state "+state, time.Since(start))
}

func (h *HealthChecker) checkTimetable() CheckResult {
	start := time.Now()
	if !h.tt.Matrix().Complete() {
		return newCheckResult("fail", "current timetable document is incomplete", time.Since(start))
	}
	return newCheckResult("pass", "timetable document is complete", time.Since(start))
}

// ServeHealth returns an HTTP handler exposing the health check.
func (h *HealthChecker) ServeHealth() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		status := h.CheckHealth(r.Context())

		w.Header().Set("Content-Type", "application/json")
		switch status.Status {
		case "healthy", "degraded":
			w.WriteHeader(http.StatusOK)
		case "unhealthy":
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		_ = json.NewEncoder(w).Encode(status)
	})
}

// MetricsCollector accumulates control-cycle counters: evaluations,
// actuator switches and the errors that interrupted them. It satisfies
// cycle.Recorder structurally, without either package importing the other.
type MetricsCollector struct {
	mu sync.RWMutex

	evaluations int64

	actuatorSwitches map[string]int64
	actuatorErrors   map[string]int64
	thermometerErrors int64

	startTime time.Time
}

// Metrics is the JSON-serializable snapshot returned by GetMetrics.
type Metrics struct {
	UptimeSeconds     float64          `json:"uptime_seconds"`
	Evaluations       int64            `json:"evaluations_total"`
	ThermometerErrors int64            `json:"thermometer_errors_total"`
	ActuatorSwitches  map[string]int64 `json:"actuator_switches_total"`
	ActuatorErrors    map[string]int64 `json:"actuator_errors_total"`
}

// NewMetricsCollector builds an empty MetricsCollector.
func NewMetricsCollector() *MetricsCollector {
	return &MetricsCollector{
		actuatorSwitches: make(map[string]int64),
		actuatorErrors:   make(map[string]int64),
		startTime:        time.Now(),
	}
}

// RecordEvaluation records one control-cycle evaluation, counted when the
// evaluation starts, so evaluations that later fail are included.
func (m *MetricsCollector) RecordEvaluation() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.evaluations++
}

// RecordActuatorSwitch records a successful actuator state change.
func (m *MetricsCollector) RecordActuatorSwitch(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.actuatorSwitches[name]++
}

// RecordActuatorError records a failed actuator switch attempt.
func (m *MetricsCollector) RecordActuatorError(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.actuatorErrors[name]++
}

// RecordThermometerError records a failed thermometer read.
func (m *MetricsCollector) RecordThermometerError() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.thermometerErrors++
}

// GetMetrics returns a snapshot of the current counters.
func (m *MetricsCollector) GetMetrics() Metrics {
	m.mu.RLock()
	defer m.mu.RUnlock()

	switches := make(map[string]int64, len(m.actuatorSwitches))
	for k, v := range m.actuatorSwitches {
		switches[k] = v
	}
	errs := make(map[string]int64, len(m.actuatorErrors))
	for k, v := range m.actuatorErrors {
		errs[k] = v
	}

	return Metrics{
		UptimeSeconds:     time.Since(m.startTime).Seconds(),
		Evaluations:       m.evaluations,
		ThermometerErrors: m.thermometerErrors,
		ActuatorSwitches:  switches,
		ActuatorErrors:    errs,
	}
}

// ServeMetrics returns an HTTP handler exposing the metrics snapshot.
func (m *MetricsCollector) ServeMetrics() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(m.GetMetrics())
	})
}
