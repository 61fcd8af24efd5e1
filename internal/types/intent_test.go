package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSide(t *testing.T) {
	tests := []struct {
		raw  string
		want Side
	}{
		{"BUY", SideLong},
		{"buy", SideLong},
		{" long ", SideLong},
		{"SELL", SideShort},
		{"short", SideShort},
		{"EXIT", SideExit},
		{"flat", SideExit},
	}
	for _, tt := range tests {
		got, err := ParseSide(tt.raw)
		require.NoError(t, err, tt.raw)
		assert.Equal(t, tt.want, got, tt.raw)
	}

	_, err := ParseSide("HODL")
	assert.Error(t, err)
	_, err = ParseSide("")
	assert.Error(t, err)
}

func TestSideOpposite(t *testing.T) {
	assert.Equal(t, SideShort, SideLong.Opposite())
	assert.Equal(t, SideLong, SideShort.Opposite())
	assert.Equal(t, SideExit, SideExit.Opposite())
}
