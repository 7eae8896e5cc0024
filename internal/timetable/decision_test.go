package timetable

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/benvon/thermod/pkg/model"
)

func fullMatrix(t *testing.T, alias model.Alias) model.Matrix {
	t.Helper()
	day := map[string][4]string{}
	for h := 0; h < 24; h++ {
		day[hourKey(h)] = [4]string{string(alias), string(alias), string(alias), string(alias)}
	}
	doc := map[string]map[string][4]string{}
	for _, name := range []string{"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday"} {
		doc[name] = day
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		t.Fatalf("marshal fixture matrix: %v", err)
	}
	var m model.Matrix
	if err := m.UnmarshalJSON(raw); err != nil {
		t.Fatalf("building fixture matrix: %v", err)
	}
	return m
}

func baseDoc(t *testing.T, mode model.Mode) Document {
	return Document{
		Mode:         mode,
		Temperatures: Temperatures{Tmax: 22, Tmin: 17, T0: 7},
		Differential: 0.5,
		Scale:        model.ScaleCelsius,
		Cooling:      false,
		Timetable:    fullMatrix(t, model.AliasTmax),
	}
}

func TestDecideScenario1HysteresisAroundTmax(t *testing.T) {
	doc := baseDoc(t, model.ModeAuto)
	tt, err := New(doc, t.TempDir()+"/timetable.json")
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	now := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC) // Monday

	d := tt.Decide(now, 21.7, false)
	if !d.On {
		t.Fatalf("expected on at 21.7C (threshold 21.75), got off")
	}

	d2 := tt.Decide(now.Add(15*time.Minute), 22.3, true)
	if d2.On {
		t.Fatalf("expected off at 22.3C (threshold 22.25), got on")
	}
}

func TestDecideScenario2GraceTime(t *testing.T) {
	doc := baseDoc(t, model.ModeAuto)
	grace := 600
	doc.GraceTime = &grace
	tt, err := New(doc, t.TempDir()+"/timetable.json")
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	t0 := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)

	off := tt.Decide(t0, 22.4, true)
	if off.On {
		t.Fatalf("expected switch-off at T=22.4C")
	}

	stillOff := tt.Decide(t0.Add(300*time.Second), 21.6, false)
	if stillOff.On {
		t.Fatalf("expected grace-time to suppress re-activation at t0+300s")
	}

	backOn := tt.Decide(t0.Add(601*time.Second), 21.6, false)
	if !backOn.On {
		t.Fatalf("expected actuator back on at t0+601s once grace-time elapses")
	}
}

func TestDecideScenario3ModeOffThenOn(t *testing.T) {
	doc := baseDoc(t, model.ModeOff)
	tt, err := New(doc, t.TempDir()+"/timetable.json")
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	now := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	d := tt.Decide(now, 5, false)
	if d.On {
		t.Fatalf("mode off must force actuator off regardless of temperature")
	}
	if d.Status.TargetTemperature != nil {
		t.Fatalf("mode off must report a nil target, got %v", *d.Status.TargetTemperature)
	}

	if err := tt.SetMode(model.ModeOn); err != nil {
		t.Fatalf("SetMode failed: %v", err)
	}
	d2 := tt.Decide(now.Add(time.Minute), 5, false)
	if !d2.On {
		t.Fatalf("mode on must force actuator on regardless of temperature")
	}
}

func TestDecideScenario6Cooling(t *testing.T) {
	doc := baseDoc(t, model.ModeAuto)
	doc.Cooling = true
	doc.Differential = 0.4
	doc.Timetable = fullMatrix(t, model.Alias("24"))
	tt, err := New(doc, t.TempDir()+"/timetable.json")
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	now := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)

	on := tt.Decide(now, 24.3, false)
	if !on.On {
		t.Fatalf("expected cooling on at 24.3C (threshold 24.2)")
	}

	off := tt.Decide(now.Add(time.Minute), 23.7, true)
	if off.On {
		t.Fatalf("expected cooling off at 23.7C (threshold 23.8)")
	}
}

func TestDecideHysteresisBandPreservesState(t *testing.T) {
	doc := baseDoc(t, model.ModeAuto)
	tt, err := New(doc, t.TempDir()+"/timetable.json")
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	now := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)

	// Inside the band (21.75, 22.25): both states must be preserved.
	dOn := tt.Decide(now, 22.0, true)
	if !dOn.On {
		t.Error("expected on-state preserved inside hysteresis band")
	}
	dOff := tt.Decide(now, 22.0, false)
	if dOff.On {
		t.Error("expected off-state preserved inside hysteresis band")
	}
}

func TestDecideModeChangeBypassesGraceTime(t *testing.T) {
	doc := baseDoc(t, model.ModeAuto)
	grace := 600
	doc.GraceTime = &grace
	tt, err := New(doc, t.TempDir()+"/timetable.json")
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	t0 := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	off := tt.Decide(t0, 22.4, true)
	if off.On {
		t.Fatalf("expected switch-off")
	}

	// Within the grace window, an explicit mode change must bypass it.
	if err := tt.SetMode(model.ModeOn); err != nil {
		t.Fatalf("SetMode failed: %v", err)
	}
	if err := tt.SetMode(model.ModeAuto); err != nil {
		t.Fatalf("SetMode back to auto failed: %v", err)
	}

	d := tt.Decide(t0.Add(30*time.Second), 10.0, false)
	if !d.On {
		t.Fatalf("expected grace-time to be bypassed after an explicit mode transition")
	}
}

func TestDecideDeterministic(t *testing.T) {
	doc := baseDoc(t, model.ModeAuto)
	tt, err := New(doc, t.TempDir()+"/timetable.json")
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	now := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)

	a := tt.Decide(now, 20.0, true)
	b := tt.Decide(now, 20.0, true)
	if a.On != b.On {
		t.Error("Decide must be deterministic for identical inputs")
	}
}
