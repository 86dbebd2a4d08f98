package protocol

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWindowGeometry(t *testing.T) {
	assert.Equal(t, 66, EnvelopeSize)
	assert.Equal(t, 1, LayoutLegacy.Offset())
	assert.Equal(t, PayloadMax+4, LayoutLegacy.Size())
	assert.Equal(t, 0, LayoutFull.Offset())
	assert.Equal(t, EnvelopeSize, LayoutFull.Size())
}

func TestEnvelopeBytes(t *testing.T) {
	f, err := Encode(TypeData, []byte{0xaa, 0xbb})
	require.NoError(t, err)
	env := NewEnvelope(0x1234, 7, f)
	b := env.Bytes()
	require.Len(t, b, EnvelopeSize)
	assert.Equal(t, []byte{0x12, 0x34, 7, byte(TypeData), 0xaa, 0xbb}, b[:6])
	assert.Equal(t, make([]byte, PayloadMax-2), b[6:EnvelopeSize-1])
	assert.Equal(t, f.Checksum, b[EnvelopeSize-1])

	legacy := env.Window(LayoutLegacy)
	require.Len(t, legacy, 65)
	assert.Equal(t, b[1:], legacy)
	assert.Equal(t, b, env.Window(LayoutFull))
}

func TestParseWindow(t *testing.T) {
	f, err := Encode(TypeRoute, []byte{1, 2, 3})
	require.NoError(t, err)
	env := NewEnvelope(0x1234, RouteChannel, f)

	full, err := ParseWindow(LayoutFull, env.Window(LayoutFull))
	require.NoError(t, err)
	assert.Equal(t, uint16(0x1234), full.Dest())
	assert.Equal(t, TypeRoute, full.Frame.Type)
	assert.Len(t, full.Frame.Payload, PayloadMax)
	assert.Equal(t, []byte{1, 2, 3}, full.Frame.Payload[:3])

	legacy, err := ParseWindow(LayoutLegacy, env.Window(LayoutLegacy))
	require.NoError(t, err)
	assert.Equal(t, byte(0), legacy.DestHigh)
	assert.Equal(t, byte(0x34), legacy.DestLow)
	assert.True(t, legacy.AddressedTo(0x1234))
	assert.True(t, legacy.AddressedTo(0x0034))
	assert.False(t, legacy.AddressedTo(0x1235))
	assert.False(t, full.AddressedTo(0x0034))

	_, err = ParseWindow(LayoutLegacy, env.Window(LayoutFull))
	var sizeErr *WindowSizeError
	require.ErrorAs(t, err, &sizeErr)
	assert.Equal(t, EnvelopeSize, sizeErr.Size)
}

func TestParseWindowCorrupted(t *testing.T) {
	f, err := Encode(TypeData, []byte{9, 9})
	require.NoError(t, err)
	w := NewEnvelope(0x0102, 0, f).Window(LayoutLegacy)
	w[5] ^= 0x40
	env, err := ParseWindow(LayoutLegacy, w)
	require.ErrorIs(t, err, ErrChecksumMismatch)
	require.NotNil(t, env)
}

func TestBroadcast(t *testing.T) {
	f, err := Encode(TypeRoute, nil)
	require.NoError(t, err)
	env := NewEnvelope(Broadcast, RouteChannel, f)
	for _, l := range []Layout{LayoutLegacy, LayoutFull} {
		got, err := ParseWindow(l, env.Window(l))
		require.NoError(t, err)
		assert.True(t, got.IsBroadcast(), l.String())
		assert.True(t, got.AddressedTo(0x0042), l.String())
	}

	// legacy windows drop the high byte, so only the low byte matters
	legacy := &Envelope{Layout: LayoutLegacy, DestHigh: 0x12, DestLow: 0xFF, Frame: f}
	assert.True(t, legacy.IsBroadcast())
	assert.True(t, legacy.AddressedTo(0x0305))
	full := &Envelope{Layout: LayoutFull, DestHigh: 0x12, DestLow: 0xFF, Frame: f}
	assert.False(t, full.IsBroadcast())
	assert.False(t, full.AddressedTo(0x0305))
}

func TestParseLayout(t *testing.T) {
	l, err := ParseLayout("full")
	require.NoError(t, err)
	assert.Equal(t, LayoutFull, l)
	l, err = ParseLayout("")
	require.NoError(t, err)
	assert.Equal(t, LayoutLegacy, l)
	_, err = ParseLayout("short")
	require.Error(t, err)
}
