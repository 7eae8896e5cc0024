// Package cycle implements the periodic control-cycle task: read the
// thermometer, consult the TimeTable for a decision, drive the actuator,
// publish status, and sleep on the master lock until the next tick or an
// early wake-up from the control socket.
package cycle

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/benvon/thermod/internal/actuator"
	"github.com/benvon/thermod/internal/clock"
	"github.com/benvon/thermod/internal/masterlock"
	"github.com/benvon/thermod/internal/status"
	"github.com/benvon/thermod/internal/thermometer"
	"github.com/benvon/thermod/internal/timetable"
	"github.com/benvon/thermod/pkg/model"
)

// Config holds the cycle's timing parameters.
type Config struct {
	// Interval is the normal wait between evaluations.
	Interval time.Duration
	// SleepOnError is the (shorter, or configurably longer) wait used
	// after a thermometer or actuator failure.
	SleepOnError time.Duration
}

// Recorder receives control-cycle counters. internal/diagnostics'
// MetricsCollector satisfies this structurally; Cycle depends only on the
// interface so the two packages don't import each other.
type Recorder interface {
	RecordEvaluation()
	RecordActuatorSwitch(name string)
	RecordActuatorError(name string)
	RecordThermometerError()
}

// Cycle is the control-cycle goroutine. It does not own the TimeTable or
// the master lock exclusively — the control socket shares both, which is
// how a settings change becomes visible to the very next evaluation.
type Cycle struct {
	cfg Config

	lock    *masterlock.Lock
	tt      *timetable.TimeTable
	clk     clock.Clock
	thermo  thermometer.Thermometer
	heating actuator.Actuator
	cooling actuator.Actuator

	publisher *status.Publisher
	metrics   Recorder
	logger    *slog.Logger

	lastStatus model.ThermodStatus
}

var errShuttingDown = errors.New("thermod is shutting down")

// New wires a Cycle over the given collaborators. heating and cooling may
// be the same Actuator value when a single relay serves both roles.
// metrics may be nil, in which case no counters are recorded.
func New(cfg Config, lock *masterlock.Lock, tt *timetable.TimeTable, clk clock.Clock, thermo thermometer.Thermometer, heating, cooling actuator.Actuator, publisher *status.Publisher, metrics Recorder, logger *slog.Logger) *Cycle {
	return &Cycle{
		cfg:       cfg,
		lock:      lock,
		tt:        tt,
		clk:       clk,
		thermo:    thermo,
		heating:   heating,
		cooling:   cooling,
		publisher: publisher,
		metrics:   metrics,
		logger:    logger,
	}
}

// Run loops until the master lock is shut down or ctx is cancelled,
// evaluating once immediately and then waiting on the master lock with a
// timeout equal to the cycle's current sleep duration.
func (c *Cycle) Run(ctx context.Context) {
	wokenByNotify := false
	for {
		// Enabled takes the lock itself, so it is checked before Lock.
		if !c.lock.Enabled() {
			return
		}
		c.lock.Lock()
		sleep := c.evaluate(ctx, wokenByNotify)
		c.lock.Unlock()

		select {
		case <-ctx.Done():
			return
		default:
		}

		var shuttingDown bool
		wokenByNotify, shuttingDown = c.lock.Wait(sleep)
		if shuttingDown {
			return
		}
	}
}

// evaluate runs one iteration of the state machine described in the
// control cycle's responsibility: select the active actuator, read the
// thermometer, decide, actuate, publish. The caller must hold the master
// lock. It returns how long the cycle should sleep before its next
// evaluation.
func (c *Cycle) evaluate(ctx context.Context, wokenByNotify bool) time.Duration {
	actName := "heating"
	act := c.heating
	if c.tt.Cooling() {
		actName = "cooling"
		act = c.cooling
	}

	if c.metrics != nil {
		c.metrics.RecordEvaluation()
	}

	now := c.clk.Now()

	temp, err := c.thermo.Read(ctx)
	if err != nil {
		c.logger.Error("thermometer read failed", "error", err)
		if c.metrics != nil {
			c.metrics.RecordThermometerError()
		}
		c.publish(model.ErrorStatus(now, c.tt.Mode(), boolToHeatingStatus(act.IsOn()), err))
		return c.cfg.SleepOnError
	}

	decision := c.tt.Decide(now, temp, act.IsOn())

	if decision.On == act.IsOn() {
		if wokenByNotify {
			c.logger.Info("control cycle re-evaluated after notify, no actuator change", "mode", c.tt.Mode(), "current_temperature", temp)
		} else {
			c.logger.Debug("control cycle evaluated, no actuator change", "mode", c.tt.Mode(), "current_temperature", temp)
		}
		decision.Status.HeatingStatus = boolToHeatingStatus(act.IsOn())
		c.publish(decision.Status)
		return c.cfg.Interval
	}

	var switchErr error
	if decision.On {
		switchErr = act.SwitchOn()
	} else {
		switchErr = act.SwitchOff()
	}
	if switchErr != nil {
		c.logger.Error("actuator switch failed", "error", switchErr, "requested_on", decision.On)
		if c.metrics != nil {
			c.metrics.RecordActuatorError(actName)
		}
		c.publish(model.ErrorStatus(now, c.tt.Mode(), boolToHeatingStatus(act.IsOn()), switchErr))
		return c.cfg.SleepOnError
	}
	if c.metrics != nil {
		c.metrics.RecordActuatorSwitch(actName)
	}

	c.logger.Info("actuator switched", "on", decision.On, "mode", c.tt.Mode(), "current_temperature", temp)
	decision.Status.HeatingStatus = boolToHeatingStatus(act.IsOn())
	c.publish(decision.Status)
	return c.cfg.Interval
}

// publish records the snapshot as the last known status and fans it out
// to monitors. The caller must hold the master lock, so invariant I3
// (actuator state and published status updated together) holds.
func (c *Cycle) publish(s model.ThermodStatus) {
	c.lastStatus = s
	c.publisher.Publish(s)
}

// LastStatus returns the most recently published status. The caller must
// hold the master lock to get a coherent read.
func (c *Cycle) LastStatus() model.ThermodStatus {
	return c.lastStatus
}

// Notify wakes the cycle early, used by the control socket after a
// successful settings mutation.
func (c *Cycle) Notify() {
	c.lock.Notify()
}

// Shutdown switches both actuators off, publishes a terminal status, and
// disables the master lock so Run returns on its next wait.
func (c *Cycle) Shutdown() {
	c.lock.Lock()
	if err := c.heating.SwitchOff(); err != nil {
		c.logger.Error("failed to switch off heating actuator during shutdown", "error", err)
	}
	if c.cooling != c.heating {
		if err := c.cooling.SwitchOff(); err != nil {
			c.logger.Error("failed to switch off cooling actuator during shutdown", "error", err)
		}
	}
	c.publish(model.ErrorStatus(c.clk.Now(), c.tt.Mode(), 0, errShuttingDown))
	c.lock.Unlock()
	c.lock.Shutdown()
}

func boolToHeatingStatus(on bool) int {
	if on {
		return 1
	}
	return 0
}
