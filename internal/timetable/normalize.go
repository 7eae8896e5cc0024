package timetable

import (
	"log/slog"
	"strings"

	"github.com/benvon/thermod/pkg/model"
)

var modeAliases = map[string]model.Mode{
	"auto": model.ModeAuto,
	"on":   model.ModeOn,
	"off":  model.ModeOff,
	"tmax": model.ModeTmax,
	"tmin": model.ModeTmin,
	"t0":   model.ModeT0,
}

// normalizeMode trims and lower-cases a client-supplied mode string before
// it reaches validation. Anything that still doesn't map to a known mode
// is passed through unchanged so the schema/semantic validators can reject
// it with a precise error; normalizeMode only logs that the value did not
// map to a known mode, it never rejects.
func normalizeMode(raw string) model.Mode {
	key := strings.ToLower(strings.TrimSpace(raw))
	if m, ok := modeAliases[key]; ok {
		return m
	}
	slog.Warn("unmapped mode value encountered", "value", raw)
	return model.Mode(raw)
}
