package binance

import (
	"testing"

	"github.com/adshao/go-binance/v2/futures"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEndpointSelection(t *testing.T) {
	t.Cleanup(func() { futures.UseTestnet = false })

	t.Run("production default", func(t *testing.T) {
		futures.UseTestnet = false
		c, err := New(Config{APIKey: "k", APISecret: "s"})
		require.NoError(t, err)
		assert.Equal(t, "https://fapi.binance.com", c.client.BaseURL)
	})

	t.Run("testnet keeps sdk endpoint", func(t *testing.T) {
		c, err := New(Config{APIKey: "k", APISecret: "s", UseTestnet: true})
		require.NoError(t, err)
		assert.True(t, futures.UseTestnet)
		assert.Equal(t, "https://testnet.binancefuture.com", c.client.BaseURL)
	})

	t.Run("explicit url wins", func(t *testing.T) {
		c, err := New(Config{
			APIKey:      "k",
			APISecret:   "s",
			UseTestnet:  true,
			RESTBaseURL: "https://mock.exchange.local",
		})
		require.NoError(t, err)
		assert.Equal(t, "https://mock.exchange.local", c.client.BaseURL)
	})

	t.Run("missing credentials", func(t *testing.T) {
		_, err := New(Config{})
		require.Error(t, err)
	})
}
