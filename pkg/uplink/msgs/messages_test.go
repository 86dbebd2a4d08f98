package msgs

import (
	"testing"

	"github.com/golang/protobuf/proto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTelemetryWire(t *testing.T) {
	m := &Telemetry{Source: 0x0203, Value: -26, PeriodMs: 1500, ReceivedAt: 1700000000000}
	b, err := proto.Marshal(m)
	require.NoError(t, err)
	// field 2 is zigzag encoded: -26 -> 51
	assert.Contains(t, string(b), string([]byte{0x10, 51}))

	var got Telemetry
	require.NoError(t, proto.Unmarshal(b, &got))
	assert.Equal(t, *m, got)
}

func TestCommandDecode(t *testing.T) {
	b, err := proto.Marshal(&Command{Target: 7, Op: 1, Arg: 20})
	require.NoError(t, err)
	var cmd Command
	require.NoError(t, proto.Unmarshal(b, &cmd))
	assert.Equal(t, uint32(7), cmd.Target)
	assert.Equal(t, uint32(20), cmd.Arg)
}
