package cycle

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/benvon/thermod/internal/actuator"
	"github.com/benvon/thermod/internal/clock"
	"github.com/benvon/thermod/internal/masterlock"
	"github.com/benvon/thermod/internal/status"
	"github.com/benvon/thermod/internal/thermometer"
	"github.com/benvon/thermod/internal/timetable"
	"github.com/benvon/thermod/pkg/model"
)

func fixtureTimetable(t *testing.T, mode model.Mode) *timetable.TimeTable {
	t.Helper()
	day := map[string][4]string{}
	for h := 0; h < 24; h++ {
		day[hourKeyFor(h)] = [4]string{"tmax", "tmax", "tmax", "tmax"}
	}
	raw := map[string]map[string][4]string{}
	for _, name := range []string{"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday"} {
		raw[name] = day
	}
	b, err := json.Marshal(raw)
	if err != nil {
		t.Fatalf("marshal fixture: %v", err)
	}
	var matrix model.Matrix
	if err := matrix.UnmarshalJSON(b); err != nil {
		t.Fatalf("building fixture matrix: %v", err)
	}

	doc := timetable.Document{
		Mode:         mode,
		Temperatures: timetable.Temperatures{Tmax: 22, Tmin: 17, T0: 7},
		Differential: 0.5,
		Scale:        model.ScaleCelsius,
		Timetable:    matrix,
	}
	tt, err := timetable.New(doc, filepath.Join(t.TempDir(), "timetable.json"))
	if err != nil {
		t.Fatalf("New TimeTable failed: %v", err)
	}
	return tt
}

func hourKeyFor(h int) string {
	return fmt.Sprintf("h%02d", h)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError + 100}))
}

func TestEvaluateSwitchesActuatorOn(t *testing.T) {
	tt := fixtureTimetable(t, model.ModeAuto)
	thermo := thermometer.NewMemory(21.0) // below on-threshold 21.75
	heating := actuator.NewMemory()
	lock := masterlock.New()
	pub := status.NewPublisher()
	clk := clock.NewFake(time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC))

	c := New(Config{Interval: time.Minute, SleepOnError: time.Second}, lock, tt, clk, thermo, heating, heating, pub, nil, discardLogger())

	lock.Lock()
	sleep := c.evaluate(context.Background(), false)
	lock.Unlock()

	if !heating.IsOn() {
		t.Fatal("expected heating actuator to switch on")
	}
	if sleep != time.Minute {
		t.Errorf("expected normal interval sleep, got %v", sleep)
	}
	if c.LastStatus().HeatingStatus != 1 {
		t.Errorf("expected published heating_status=1, got %d", c.LastStatus().HeatingStatus)
	}
}

func TestEvaluateThermometerErrorUsesSleepOnError(t *testing.T) {
	tt := fixtureTimetable(t, model.ModeAuto)
	thermo := thermometer.NewMemory(0)
	thermo.SetError(errors.New("sensor offline"))
	heating := actuator.NewMemory()
	lock := masterlock.New()
	pub := status.NewPublisher()
	clk := clock.NewFake(time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC))

	c := New(Config{Interval: time.Minute, SleepOnError: 5 * time.Second}, lock, tt, clk, thermo, heating, heating, pub, nil, discardLogger())

	lock.Lock()
	sleep := c.evaluate(context.Background(), false)
	lock.Unlock()

	if sleep != 5*time.Second {
		t.Errorf("expected sleep_on_error, got %v", sleep)
	}
	if c.LastStatus().Error == nil {
		t.Error("expected error status to be published")
	}
	if heating.IsOn() {
		t.Error("actuator must not be touched on thermometer error")
	}
}

func TestEvaluateActuatorErrorUsesSleepOnError(t *testing.T) {
	tt := fixtureTimetable(t, model.ModeAuto)
	thermo := thermometer.NewMemory(21.0)
	heating := actuator.NewMemory()
	heating.SetError(errors.New("relay stuck"))
	lock := masterlock.New()
	pub := status.NewPublisher()
	clk := clock.NewFake(time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC))

	c := New(Config{Interval: time.Minute, SleepOnError: 5 * time.Second}, lock, tt, clk, thermo, heating, heating, pub, nil, discardLogger())

	lock.Lock()
	sleep := c.evaluate(context.Background(), false)
	lock.Unlock()

	if sleep != 5*time.Second {
		t.Errorf("expected sleep_on_error, got %v", sleep)
	}
	if c.LastStatus().Error == nil {
		t.Error("expected error status to be published on actuator failure")
	}
}

func TestRunStopsOnShutdown(t *testing.T) {
	tt := fixtureTimetable(t, model.ModeOff)
	thermo := thermometer.NewMemory(20.0)
	heating := actuator.NewMemory()
	lock := masterlock.New()
	pub := status.NewPublisher()
	clk := clock.NewFake(time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC))

	c := New(Config{Interval: 10 * time.Millisecond, SleepOnError: 10 * time.Millisecond}, lock, tt, clk, thermo, heating, heating, pub, nil, discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})
	go func() {
		c.Run(ctx)
		close(done)
	}()

	time.Sleep(20 * time.Millisecond)
	c.Shutdown()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after Shutdown")
	}
	if heating.IsOn() {
		t.Error("expected heating actuator switched off by Shutdown")
	}
}

func TestNotifyWakesCycleEarly(t *testing.T) {
	tt := fixtureTimetable(t, model.ModeOff)
	thermo := thermometer.NewMemory(20.0)
	heating := actuator.NewMemory()
	lock := masterlock.New()
	pub := status.NewPublisher()
	clk := clock.NewFake(time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC))

	c := New(Config{Interval: time.Hour, SleepOnError: time.Hour}, lock, tt, clk, thermo, heating, heating, pub, nil, discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sub := pub.Subscribe()
	defer pub.Unsubscribe(sub.ID)

	go c.Run(ctx)

	// drain the first, startup publication
	select {
	case <-sub.C:
	case <-time.After(time.Second):
		t.Fatal("did not observe startup publication")
	}

	lock.Lock()
	err := tt.SetMode(model.ModeOn)
	lock.Unlock()
	if err != nil {
		t.Fatalf("SetMode failed: %v", err)
	}
	c.Notify()

	select {
	case s := <-sub.C:
		if s.Mode != model.ModeOn {
			t.Errorf("expected status reflecting new mode, got %+v", s)
		}
	case <-time.After(time.Second):
		t.Fatal("Notify did not cause a prompt re-evaluation")
	}

	c.Shutdown()
}
