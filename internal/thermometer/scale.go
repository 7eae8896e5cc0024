package thermometer

import (
	"context"
	"fmt"

	"github.com/benvon/thermod/pkg/temperature"
)

// ScaleAdapter wraps a Thermometer that reports in one temperature.Format
// and converts its readings to the Format the rest of thermod operates in.
type ScaleAdapter struct {
	source    Thermometer
	converter *temperature.Converter
}

// NewScaleAdapter returns a ScaleAdapter converting source's readings from
// sourceFormat to targetFormat.
func NewScaleAdapter(source Thermometer, sourceFormat, targetFormat temperature.Format) *ScaleAdapter {
	return &ScaleAdapter{
		source:    source,
		converter: temperature.NewConverter(sourceFormat, targetFormat),
	}
}

// Read implements Thermometer.
func (s *ScaleAdapter) Read(ctx context.Context) (float64, error) {
	raw, err := s.source.Read(ctx)
	if err != nil {
		return 0, err
	}
	converted, err := s.converter.Convert(&raw)
	if err != nil {
		return 0, fmt.Errorf("converting thermometer reading: %w", err)
	}
	return *converted, nil
}
