package timetable

import (
	"encoding/json"
	"fmt"

	"github.com/benvon/thermod/pkg/model"
)

// Temperatures holds the three absolute setpoints a Document exchanges on
// the wire, nested under a "temperatures" key in both GET /settings
// responses and POST /settings patches.
type Temperatures struct {
	Tmax float64 `json:"tmax"`
	Tmin float64 `json:"tmin"`
	T0   float64 `json:"t0"`
}

// Document is the full wire/persisted shape of a TimeTable: the shape
// GET /settings returns and timetable.json stores on disk.
type Document struct {
	Mode         model.Mode   `json:"status"`
	Temperatures Temperatures `json:"temperatures"`
	Differential float64      `json:"differential"`
	GraceTime    *int         `json:"grace_time"`
	Scale        model.Scale  `json:"scale"`
	Cooling      bool         `json:"cooling"`
	Timetable    model.Matrix `json:"timetable"`
}

var patchFields = map[string]bool{
	"status":       true,
	"temperatures": true,
	"differential": true,
	"grace_time":   true,
	"timetable":    true,
}

// Patch is a partial POST /settings body. Every field is optional;
// GraceTimeSet/TimetableSet distinguish "absent" from "present but null or
// empty", which Update needs to implement grace_time:null correctly.
type Patch struct {
	Mode         *model.Mode
	Temperatures *Temperatures
	Differential *float64
	GraceTime    *int
	GraceTimeSet bool
	Timetable    json.RawMessage
	TimetableSet bool
}

// UnmarshalJSON rejects unknown top-level keys (per the 400-on-unknown-key
// rule) and records field presence so grace_time:null can be told apart
// from an absent grace_time key.
func (p *Patch) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	for key := range raw {
		if !patchFields[key] {
			return fmt.Errorf("unknown field %q", key)
		}
	}

	if v, ok := raw["status"]; ok {
		var s string
		if err := json.Unmarshal(v, &s); err != nil {
			return fmt.Errorf("status: %w", err)
		}
		m := normalizeMode(s)
		p.Mode = &m
	}

	if v, ok := raw["temperatures"]; ok {
		var t Temperatures
		if err := json.Unmarshal(v, &t); err != nil {
			return fmt.Errorf("temperatures: %w", err)
		}
		p.Temperatures = &t
	}

	if v, ok := raw["differential"]; ok {
		var d float64
		if err := json.Unmarshal(v, &d); err != nil {
			return fmt.Errorf("differential: %w", err)
		}
		p.Differential = &d
	}

	if v, ok := raw["grace_time"]; ok {
		p.GraceTimeSet = true
		if string(v) != "null" {
			var g int
			if err := json.Unmarshal(v, &g); err != nil {
				return fmt.Errorf("grace_time: %w", err)
			}
			p.GraceTime = &g
		}
	}

	if v, ok := raw["timetable"]; ok {
		p.TimetableSet = true
		p.Timetable = v
	}

	return nil
}
