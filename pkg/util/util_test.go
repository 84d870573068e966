package util

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseHexUint64(t *testing.T) {
	for in, want := range map[string]uint64{
		"0x0":       0,
		"0x1":       1,
		"0x1b4":     436,
		"0x121eac0": 19000000,
	} {
		got, err := ParseHexUint64(in)
		require.NoError(t, err, in)
		require.Equal(t, want, got, in)
	}

	for _, in := range []string{"", "0x", "12", "0xzz"} {
		_, err := ParseHexUint64(in)
		require.Error(t, err, in)
	}
}

func TestIsHexData(t *testing.T) {
	require.True(t, IsHexData("0xf86b"))
	require.False(t, IsHexData("0x"))
	require.False(t, IsHexData("0xf86"))
	require.False(t, IsHexData("f86b"))
	require.False(t, IsHexData("0xzz"))
}
