package timetable

import (
	"time"

	"github.com/benvon/thermod/internal/clock"
	"github.com/benvon/thermod/pkg/model"
)

// Decision is the outcome of one should_the_heating_be_on evaluation: the
// boolean the control cycle acts on, plus the status snapshot it publishes.
type Decision struct {
	On     bool
	Status model.ThermodStatus
}

// Decide is the decision function: given the current temperature, whether
// the actuator is presently on, and the wall time, it derives the target
// for the active mode and applies hysteresis (and, for auto/alias modes,
// grace-time) to choose the next actuator state. Its result depends only
// on those inputs and the TimeTable state, but it is not side-effect free:
// an on->off decision records now as the start of the grace period.
func (tt *TimeTable) Decide(now time.Time, currentTemp float64, actuatorIsOn bool) Decision {
	switch tt.doc.Mode {
	case model.ModeOff:
		return tt.status(now, false, currentTemp, nil)
	case model.ModeOn:
		return tt.status(now, true, currentTemp, nil)
	}

	target := tt.resolveTarget(now)
	on := tt.thresholdDecision(target, currentTemp, actuatorIsOn)

	if actuatorIsOn && !on {
		offAt := now
		tt.lastOffTime = &offAt
	}

	if on && !actuatorIsOn && tt.inGracePeriod(now) {
		on = false
	}

	return tt.status(now, on, currentTemp, &target)
}

// resolveTarget picks the alias for the active mode and resolves it
// against the current settings. auto consults the weekly matrix slot for
// now; tmax/tmin/t0 force that alias for every slot.
func (tt *TimeTable) resolveTarget(now time.Time) float64 {
	var alias model.Alias
	switch tt.doc.Mode {
	case model.ModeTmax:
		alias = model.AliasTmax
	case model.ModeTmin:
		alias = model.AliasTmin
	case model.ModeT0:
		alias = model.AliasT0
	default:
		slot := clock.SlotAt(now)
		alias = tt.doc.Timetable.Get(slot.Day, slot.Hour, slot.Quarter)
	}

	target, err := alias.Resolve(tt.settings())
	if err != nil {
		// A validated TimeTable only ever holds resolvable aliases; fall
		// back to the frost-protection setpoint rather than panic.
		return tt.doc.Temperatures.T0
	}
	return target
}

func (tt *TimeTable) thresholdDecision(target, currentTemp float64, actuatorIsOn bool) bool {
	half := tt.doc.Differential / 2

	if tt.doc.Cooling {
		onThreshold := target + half
		offThreshold := target - half
		switch {
		case currentTemp >= onThreshold:
			return true
		case currentTemp <= offThreshold:
			return false
		default:
			return actuatorIsOn
		}
	}

	onThreshold := target - half
	offThreshold := target + half
	switch {
	case currentTemp <= onThreshold:
		return true
	case currentTemp >= offThreshold:
		return false
	default:
		return actuatorIsOn
	}
}

func (tt *TimeTable) inGracePeriod(now time.Time) bool {
	if tt.lastOffTime == nil || tt.doc.GraceTime == nil {
		return false
	}
	elapsed := now.Sub(*tt.lastOffTime)
	return elapsed < time.Duration(*tt.doc.GraceTime)*time.Second
}

func (tt *TimeTable) status(now time.Time, on bool, currentTemp float64, target *float64) Decision {
	heatingStatus := 0
	if on {
		heatingStatus = 1
	}
	return Decision{
		On: on,
		Status: model.ThermodStatus{
			Timestamp:          now,
			Mode:               tt.doc.Mode,
			CurrentTemperature: currentTemp,
			TargetTemperature:  target,
			HeatingStatus:      heatingStatus,
		},
	}
}
