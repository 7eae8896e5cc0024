// Package timetable implements the schedule data model: its validation,
// its transactional mutation protocol, and the hysteresis decision
// function the control cycle consults every iteration.
//
// TimeTable carries no lock of its own. Per the concurrency contract, all
// mutating operations and the decision function assume the caller already
// holds the daemon's master lock (internal/masterlock); adding a second
// lock here would only hide bugs in that discipline.
package timetable

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/benvon/thermod/pkg/model"
)

// TimeTable holds the current settings/matrix document, the backing file
// path it persists to, and the grace-time bookkeeping the decision
// function needs across calls.
type TimeTable struct {
	doc         Document
	path        string
	lastOffTime *time.Time
}

// New validates doc and wraps it in a TimeTable that persists to path.
func New(doc Document, path string) (*TimeTable, error) {
	if err := validateDocument(doc); err != nil {
		return nil, err
	}
	return &TimeTable{doc: doc, path: path}, nil
}

// Load reads and validates the document at path.
func Load(path string) (*TimeTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, newIOError(err)
	}
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, newSyntaxError(err)
	}
	if err := validateDocument(doc); err != nil {
		return nil, err
	}
	return &TimeTable{doc: doc, path: path}, nil
}

// Reload re-reads the backing file. On any failure the TimeTable keeps its
// prior in-memory state and returns the error.
func (tt *TimeTable) Reload() error {
	data, err := os.ReadFile(tt.path)
	if err != nil {
		return newIOError(err)
	}
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return newSyntaxError(err)
	}
	if err := validateDocument(doc); err != nil {
		return err
	}
	tt.doc = doc
	return nil
}

// Save writes the current document atomically: temp file in the same
// directory, then rename over the destination.
func (tt *TimeTable) Save() error {
	data, err := json.MarshalIndent(tt.doc, "", "  ")
	if err != nil {
		return newIOError(err)
	}

	dir := filepath.Dir(tt.path)
	tmp, err := os.CreateTemp(dir, ".timetable-*.tmp")
	if err != nil {
		return newIOError(err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return newIOError(err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return newIOError(err)
	}
	if err := os.Rename(tmpPath, tt.path); err != nil {
		os.Remove(tmpPath)
		return newIOError(err)
	}
	return nil
}

// Update applies patch as a single transaction: the candidate document is
// validated in full before anything is committed or persisted, so a
// multi-field patch either applies completely or not at all.
func (tt *TimeTable) Update(patch Patch) error {
	candidate := tt.doc // array-valued Matrix field copies by value

	modeChanged := false
	if patch.Mode != nil {
		if candidate.Mode != *patch.Mode {
			modeChanged = true
		}
		candidate.Mode = *patch.Mode
	}
	if patch.Temperatures != nil {
		candidate.Temperatures = *patch.Temperatures
	}
	if patch.Differential != nil {
		candidate.Differential = *patch.Differential
	}
	if patch.GraceTimeSet {
		candidate.GraceTime = patch.GraceTime
	}
	if patch.TimetableSet {
		if err := candidate.Timetable.MergeJSON(patch.Timetable); err != nil {
			return newContentError(err.Error())
		}
	}

	if err := validateDocument(candidate); err != nil {
		return err
	}

	prev := tt.doc
	tt.doc = candidate
	if err := tt.Save(); err != nil {
		tt.doc = prev
		return err
	}

	if modeChanged {
		tt.lastOffTime = nil
	}
	return nil
}

// SetMode is a convenience setter equivalent to Update with only Mode set.
func (tt *TimeTable) SetMode(m model.Mode) error {
	return tt.Update(Patch{Mode: &m})
}

// SetDifferential is a convenience setter equivalent to Update with only
// Differential set.
func (tt *TimeTable) SetDifferential(d float64) error {
	return tt.Update(Patch{Differential: &d})
}

// SetGraceTime is a convenience setter; pass nil to disable grace-time.
func (tt *TimeTable) SetGraceTime(g *int) error {
	return tt.Update(Patch{GraceTime: g, GraceTimeSet: true})
}

// SetTemperatures is a convenience setter equivalent to Update with only
// Temperatures set.
func (tt *TimeTable) SetTemperatures(t Temperatures) error {
	return tt.Update(Patch{Temperatures: &t})
}

// SetHour replaces the four quarter-hour aliases for a single day/hour
// slot, the same granularity the control-socket patch format supports.
func (tt *TimeTable) SetHour(day model.Day, hour int, quarters [4]model.Alias) error {
	var slots [4]string
	for i, a := range quarters {
		slots[i] = string(a)
	}
	raw, err := json.Marshal(map[string]map[string][4]string{
		day.String(): {hourKey(hour): slots},
	})
	if err != nil {
		return newContentError(err.Error())
	}
	return tt.Update(Patch{Timetable: raw, TimetableSet: true})
}

func hourKey(h int) string {
	return fmt.Sprintf("h%02d", h)
}

// Document returns a copy of the full current document.
func (tt *TimeTable) Document() Document { return tt.doc }

// Mode returns the current operating mode.
func (tt *TimeTable) Mode() model.Mode { return tt.doc.Mode }

// Cooling reports whether the timetable is driving a cooling actuator.
func (tt *TimeTable) Cooling() bool { return tt.doc.Cooling }

// Scale returns the configured temperature scale.
func (tt *TimeTable) Scale() model.Scale { return tt.doc.Scale }

// Differential returns the hysteresis band width.
func (tt *TimeTable) Differential() float64 { return tt.doc.Differential }

// GraceTime returns the configured grace-time in seconds, or nil if disabled.
func (tt *TimeTable) GraceTime() *int { return tt.doc.GraceTime }

// Temperatures returns the configured absolute setpoints.
func (tt *TimeTable) Temperatures() Temperatures { return tt.doc.Temperatures }

// Matrix returns a copy of the weekly schedule matrix.
func (tt *TimeTable) Matrix() model.Matrix { return tt.doc.Timetable.Clone() }

func (tt *TimeTable) settings() model.Settings {
	return model.Settings{
		Tmax:         tt.doc.Temperatures.Tmax,
		Tmin:         tt.doc.Temperatures.Tmin,
		T0:           tt.doc.Temperatures.T0,
		Differential: tt.doc.Differential,
		GraceTime:    tt.doc.GraceTime,
		Mode:         tt.doc.Mode,
		Cooling:      tt.doc.Cooling,
		Scale:        tt.doc.Scale,
	}
}
