package telemetry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robotalks/meshnode/pkg/mesh"
)

func TestTemperatureRegression(t *testing.T) {
	assert.InDelta(t, 1.65, Voltage(2048), 1e-9)
	assert.InDelta(t, -26.2, Temperature(2048), 0.05)

	p := NewPoint(2048, 1500, 0x0203)
	assert.Equal(t, int8(-26), p.Value)
	assert.Equal(t, []byte{0xe6, 15, 0x02, 0x03}, p.Bytes())
}

func TestTemperatureRange(t *testing.T) {
	// about 25 degrees at the sensor's reference voltage
	v25 := SensorV25 * ADCLevels / VRef
	raw := uint16(v25)
	assert.InDelta(t, 25, Temperature(raw), 1)
	assert.Greater(t, Temperature(0), Temperature(4095))
}

func TestPointSaturates(t *testing.T) {
	require.Greater(t, Temperature(0), 127.0)
	require.Less(t, Temperature(4095), -128.0)
	assert.Equal(t, int8(127), NewPoint(0, 1500, 0x0002).Value)
	assert.Equal(t, int8(-128), NewPoint(4095, 1500, 0x0002).Value)

	// in-range readings are only truncated
	for raw := uint16(0); raw < ADCLevels; raw++ {
		if v := Temperature(raw); v < 127 && v > -128 {
			assert.Equal(t, int8(v), NewPoint(raw, 1500, 0x0002).Value, "raw %d", raw)
		}
	}
}

func TestParsePoint(t *testing.T) {
	p := NewPoint(1700, 2000, 0x0a0b)
	parsed, err := ParsePoint(append(p.Bytes(), make([]byte, 57)...))
	require.NoError(t, err)
	assert.Equal(t, p, parsed)
	assert.Equal(t, 2000, parsed.Period())

	_, err = ParsePoint([]byte{1, 2})
	require.ErrorIs(t, err, mesh.ErrMalformed)
}

func TestPeriodFromCode(t *testing.T) {
	assert.Equal(t, MinSamplingPeriod, PeriodFromCode(0))
	assert.Equal(t, MinSamplingPeriod, PeriodFromCode(10))
	assert.Equal(t, 1500, PeriodFromCode(15))
	assert.Equal(t, 25500, PeriodFromCode(255))
}
