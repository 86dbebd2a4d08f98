package telemetry

import (
	"context"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/golang/glog"
)

// SampleBuffer holds the latest ADC conversion. The converter side calls
// Push; the scheduler reads and clears it.
type SampleBuffer struct {
	// bit 16 marks a valid sample
	word atomic.Uint32
}

const sampleValid = 1 << 16

// Push stores a sample, replacing an unread one.
func (b *SampleBuffer) Push(raw uint16) {
	b.word.Store(sampleValid | uint32(raw))
}

// ReadSample returns the buffered sample if there is one.
func (b *SampleBuffer) ReadSample() (uint16, bool) {
	w := b.word.Load()
	return uint16(w), w&sampleValid != 0
}

// Clear discards the buffered sample.
func (b *SampleBuffer) Clear() {
	b.word.Store(0)
}

// RawFromTemperature is the inverse of Temperature, clamped to the ADC
// range.
func RawFromTemperature(c float64) uint16 {
	v := SensorV25 - (c-25)*SensorSlope
	raw := math.Round(v * ADCLevels / VRef)
	return uint16(math.Max(0, math.Min(ADCLevels-1, raw)))
}

// DefaultThermalZone is the Linux sysfs temperature of the first zone.
const DefaultThermalZone = "/sys/class/thermal/thermal_zone0/temp"

// ThermalSensor stands in for the ADC on a Linux host, converting the
// millidegree reading of a sysfs thermal zone into raw samples.
type ThermalSensor struct {
	Path     string
	Interval time.Duration
	Buffer   *SampleBuffer
}

// Read takes one reading.
func (s *ThermalSensor) Read() (uint16, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return 0, err
	}
	milli, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, fmt.Errorf("thermal zone %s: %w", s.Path, err)
	}
	return RawFromTemperature(float64(milli) / 1000), nil
}

// Name implements Named.
func (s *ThermalSensor) Name() string {
	return "sensor:" + s.Path
}

// Run implements Runnable.
func (s *ThermalSensor) Run(ctx context.Context) error {
	interval := s.Interval
	if interval == 0 {
		interval = 100 * time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			raw, err := s.Read()
			if err != nil {
				glog.Warningf("%s: %v", s.Name(), err)
				continue
			}
			s.Buffer.Push(raw)
		}
	}
}
