// Package model holds the canonical wire and domain types shared across
// thermod's packages: the schedule's settings, the weekly matrix, and the
// status snapshot published to clients and monitors.
package model

import (
	"fmt"
	"strconv"
	"time"
)

// Mode selects how the decision engine picks a target temperature.
type Mode string

const (
	ModeAuto Mode = "auto"
	ModeOn   Mode = "on"
	ModeOff  Mode = "off"
	ModeTmax Mode = "tmax"
	ModeTmin Mode = "tmin"
	ModeT0   Mode = "t0"
)

// Valid reports whether m is one of the modes thermod understands.
func (m Mode) Valid() bool {
	switch m {
	case ModeAuto, ModeOn, ModeOff, ModeTmax, ModeTmin, ModeT0:
		return true
	default:
		return false
	}
}

// Alias is a symbolic setpoint name (tmax, tmin, t0) or a literal number
// string, resolved against a Settings block.
type Alias string

const (
	AliasTmax Alias = "tmax"
	AliasTmin Alias = "tmin"
	AliasT0   Alias = "t0"
)

// Resolve returns the absolute temperature an alias refers to.
func (a Alias) Resolve(s Settings) (float64, error) {
	switch a {
	case AliasTmax:
		return s.Tmax, nil
	case AliasTmin:
		return s.Tmin, nil
	case AliasT0:
		return s.T0, nil
	default:
		v, err := strconv.ParseFloat(string(a), 64)
		if err != nil {
			return 0, fmt.Errorf("alias %q is neither a known setpoint nor a number: %w", string(a), err)
		}
		return v, nil
	}
}

// Valid reports whether a is syntactically a setpoint name or a parseable
// literal temperature. It does not check resolvability against Settings
// bounds beyond parseability.
func (a Alias) Valid() bool {
	switch a {
	case AliasTmax, AliasTmin, AliasT0:
		return true
	default:
		_, err := strconv.ParseFloat(string(a), 64)
		return err == nil
	}
}

// Scale is the temperature unit thermod exchanges values in.
type Scale string

const (
	ScaleCelsius    Scale = "celsius"
	ScaleFahrenheit Scale = "fahrenheit"
)

// Valid reports whether s is a supported scale.
func (s Scale) Valid() bool {
	return s == ScaleCelsius || s == ScaleFahrenheit
}

// Settings holds the absolute setpoints and operating parameters of a
// TimeTable, independent of the weekly matrix.
type Settings struct {
	Tmax         float64
	Tmin         float64
	T0           float64
	Differential float64
	// GraceTime is the minimum off-duration, in seconds, enforced after an
	// on->off transition. nil means grace-time is disabled.
	GraceTime *int
	Mode      Mode
	Cooling   bool
	Scale     Scale
}

// Day identifies a day of the week in the weekly schedule matrix.
type Day int

const (
	Monday Day = iota
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
	Sunday
)

var dayNames = [7]string{"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday"}

// String returns the lower-case day name used on the wire.
func (d Day) String() string {
	if d < Monday || d > Sunday {
		return "invalid"
	}
	return dayNames[d]
}

// ParseDay converts a lower-case day name to a Day.
func ParseDay(name string) (Day, error) {
	for i, n := range dayNames {
		if n == name {
			return Day(i), nil
		}
	}
	return 0, fmt.Errorf("unknown day %q", name)
}

// DayFromTime maps a time.Weekday (Sunday == 0) onto thermod's
// Monday-first Day enumeration.
func DayFromTime(t time.Time) Day {
	return Day((int(t.Weekday()) + 6) % 7)
}

// ThermodStatus is the publishable snapshot describing mode, temperatures,
// heating state and optional error string.
type ThermodStatus struct {
	Timestamp          time.Time `json:"timestamp"`
	Mode               Mode      `json:"mode"`
	CurrentTemperature float64   `json:"current_temperature"`
	TargetTemperature  *float64  `json:"target_temperature"`
	HeatingStatus      int       `json:"heating_status"`
	Error              *string   `json:"error"`
}

// ErrorStatus builds a ThermodStatus describing a runtime fault. The
// heating status reflects whatever the actuator's last known state was;
// callers that do not know it should pass the previous status's value.
func ErrorStatus(now time.Time, mode Mode, heatingStatus int, err error) ThermodStatus {
	msg := err.Error()
	return ThermodStatus{
		Timestamp:     now,
		Mode:          mode,
		HeatingStatus: heatingStatus,
		Error:         &msg,
	}
}
