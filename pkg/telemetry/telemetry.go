// Package telemetry converts ADC samples into telemetry points.
package telemetry

import (
	"fmt"
	"math"

	"github.com/robotalks/meshnode/pkg/mesh"
)

// ADC and on-chip sensor constants.
const (
	VRef        = 3.3
	ADCLevels   = 4096
	SensorV25   = 1.43
	SensorSlope = 0.0043
)

// PointSize is the encoded size of a Point.
const PointSize = 4

// MinSamplingPeriod is the shortest sampling period in milliseconds.
const MinSamplingPeriod = 1000

// DefaultSamplingPeriod is the sampling period at startup in milliseconds.
const DefaultSamplingPeriod = 1500

// Voltage converts a raw 12-bit sample to volts.
func Voltage(raw uint16) float64 {
	return float64(raw) * VRef / ADCLevels
}

// Temperature converts a raw sample of the internal sensor to Celsius.
func Temperature(raw uint16) float64 {
	return (SensorV25-Voltage(raw))/SensorSlope + 25
}

// PeriodFromCode converts a period code to milliseconds, never below
// MinSamplingPeriod.
func PeriodFromCode(code byte) int {
	if ms := int(code) * 100; ms > MinSamplingPeriod {
		return ms
	}
	return MinSamplingPeriod
}

// Point is one telemetry sample as sent over the mesh.
type Point struct {
	Value      int8
	PeriodCode byte
	Source     mesh.NodeAddress
}

// NewPoint builds a point from a raw sample. The temperature is truncated
// toward zero and saturates at the int8 range.
func NewPoint(raw uint16, periodMs int, src mesh.NodeAddress) Point {
	return Point{
		Value:      saturate(math.Trunc(Temperature(raw))),
		PeriodCode: byte(periodMs / 100),
		Source:     src,
	}
}

func saturate(v float64) int8 {
	switch {
	case v > math.MaxInt8:
		return math.MaxInt8
	case v < math.MinInt8:
		return math.MinInt8
	}
	return int8(v)
}

// Period returns the sampling period of the source in milliseconds.
func (p Point) Period() int {
	return int(p.PeriodCode) * 100
}

// Bytes encodes [value][periodCode][sourceHigh][sourceLow].
func (p Point) Bytes() []byte {
	return []byte{byte(p.Value), p.PeriodCode, p.Source.High(), p.Source.Low()}
}

func (p Point) String() string {
	return fmt.Sprintf("%s: %d°C every %dms", p.Source, p.Value, p.Period())
}

// ParsePoint decodes a DATA payload carrying a point.
func ParsePoint(b []byte) (p Point, err error) {
	if len(b) < PointSize {
		return p, fmt.Errorf("telemetry point of %d bytes: %w", len(b), mesh.ErrMalformed)
	}
	p.Value, p.PeriodCode = int8(b[0]), b[1]
	p.Source = mesh.AddressFromBytes(b[2], b[3])
	return
}
