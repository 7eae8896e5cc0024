package thermometer

import (
	"context"
	"fmt"
	"math"
)

// OutlierFilter rejects a reading that jumps by more than MaxDelta from
// the last accepted value, the kind of spike a loose sensor wire or a
// flaky ADC conversion produces.
type OutlierFilter struct {
	source   Thermometer
	maxDelta float64

	have bool
	last float64
}

// NewOutlierFilter wraps source, rejecting any reading more than maxDelta
// away from the previous accepted one.
func NewOutlierFilter(source Thermometer, maxDelta float64) *OutlierFilter {
	return &OutlierFilter{source: source, maxDelta: maxDelta}
}

// Read implements Thermometer.
func (o *OutlierFilter) Read(ctx context.Context) (float64, error) {
	v, err := o.source.Read(ctx)
	if err != nil {
		return 0, err
	}
	if o.have && math.Abs(v-o.last) > o.maxDelta {
		return 0, fmt.Errorf("thermometer outlier rejected: %.2f deviates from last accepted %.2f by more than %.2f", v, o.last, o.maxDelta)
	}
	o.have = true
	o.last = v
	return v, nil
}
