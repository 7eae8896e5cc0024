// Package clock provides the time source the rest of thermod reads through,
// so tests can drive the decision engine and control cycle without sleeping.
package clock

import (
	"time"

	"github.com/benvon/thermod/pkg/model"
)

// Clock abstracts the wall clock. Production code uses System; tests use a
// Fake they advance explicitly.
type Clock interface {
	Now() time.Time
}

// Slot is the (day, hour, quarter) coordinate a moment in time falls into
// within the weekly schedule matrix.
type Slot struct {
	Day     model.Day
	Hour    int
	Quarter int
}

// SlotAt derives the schedule slot a given moment falls into.
func SlotAt(t time.Time) Slot {
	return Slot{
		Day:     model.DayFromTime(t),
		Hour:    t.Hour(),
		Quarter: t.Minute() / 15,
	}
}

// System is the real Clock, backed by time.Now.
type System struct{}

// Now returns the current wall-clock time.
func (System) Now() time.Time { return time.Now() }

// Fake is a Clock a test can set and advance directly.
type Fake struct {
	now time.Time
}

// NewFake returns a Fake initialized to t.
func NewFake(t time.Time) *Fake {
	return &Fake{now: t}
}

// Now returns the fake's current time.
func (f *Fake) Now() time.Time { return f.now }

// Set pins the fake clock to t.
func (f *Fake) Set(t time.Time) { f.now = t }

// Advance moves the fake clock forward by d.
func (f *Fake) Advance(d time.Duration) { f.now = f.now.Add(d) }
