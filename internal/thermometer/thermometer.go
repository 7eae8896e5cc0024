// Package thermometer defines the single-operation sensor capability the
// control cycle consumes, and a set of decorators that compose over a
// concrete hardware-backed implementation the way pkg/temperature.Converter
// composes a source and target Format.
package thermometer

import "context"

// Thermometer reports the current room temperature in the scale the
// caller expects. Concrete drivers (script, 1-Wire, analog-to-digital) and
// the network-attached Remote implementation satisfy it directly;
// ScaleAdapter, OutlierFilter and MovingAverage each wrap another
// Thermometer to add a single concern.
type Thermometer interface {
	Read(ctx context.Context) (float64, error)
}
