package id

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBroadcastSentinelsAreDistinguishable(t *testing.T) {
	local := LocalBroadcastID(3, 1)
	global := GlobalBroadcastID(3)
	concrete := New(3, 42, 1, 0)

	require.True(t, local.IsLocalBroadcast())
	require.False(t, local.IsGlobalBroadcast())

	require.True(t, global.IsGlobalBroadcast())
	require.False(t, global.IsLocalBroadcast())

	require.False(t, concrete.IsBroadcast())
}

func TestWireRoundTrip(t *testing.T) {
	in := New(1234, 0xABCD1234, 7, 200)
	buf := make([]byte, WireSize)
	in.Encode(buf)
	out := Decode(buf)
	require.Equal(t, in, out)
}

func TestWireIsLittleEndian(t *testing.T) {
	in := New(0x0102, 0x01020304, 5, 9)
	buf := make([]byte, WireSize)
	in.Encode(buf)
	require.Equal(t, byte(0x02), buf[0])
	require.Equal(t, byte(0x01), buf[1])
	require.Equal(t, byte(0x04), buf[2])
	require.Equal(t, byte(0x01), buf[5])
}
