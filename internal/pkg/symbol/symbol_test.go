package symbol

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParse(t *testing.T) {
	cases := []struct {
		in    string
		base  string
		quote string
	}{
		{"BTCUSDT", "BTC", "USDT"},
		{"ethusdt", "ETH", "USDT"},
		{"SOL/USDC", "SOL", "USDC"},
		{"ETH/USDT:USDT", "ETH", "USDT"},
		{"ETHBTC", "ETH", "BTC"},
		{"USDT", "", ""},
		{"", "", ""},
	}
	for _, tc := range cases {
		sym := Parse(tc.in)
		assert.Equal(t, tc.base, sym.Base, "base of %q", tc.in)
		assert.Equal(t, tc.quote, sym.Quote, "quote of %q", tc.in)
	}
}

func TestPair(t *testing.T) {
	assert.Equal(t, "BTCUSDT", Parse("BTC/USDT").Pair())
	assert.Equal(t, "", Symbol{}.Pair())
}

func TestIsValid(t *testing.T) {
	assert.True(t, IsValid("BTCUSDT"))
	assert.False(t, IsValid("FOO"))
}
