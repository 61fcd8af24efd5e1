package config

import (
	"fmt"
	"strings"
)

func validate(c *Config) error {
	if err := c.Binance.validate(); err != nil {
		return err
	}
	if err := c.Trading.validate(); err != nil {
		return err
	}
	if err := c.Webhook.validate(); err != nil {
		return err
	}
	return nil
}

func (b *BinanceConfig) validate() error {
	if strings.TrimSpace(b.APIKey) == "" {
		return fmt.Errorf("binance.api_key is required (or set %s)", EnvAPIKey)
	}
	if strings.TrimSpace(b.APISecret) == "" {
		return fmt.Errorf("binance.api_secret is required (or set %s)", EnvAPISecret)
	}
	if b.RESTBaseURL == "" {
		if !b.Testnet {
			return fmt.Errorf("binance.rest_base_url is required when testnet is off")
		}
	} else if !strings.HasPrefix(b.RESTBaseURL, "http://") && !strings.HasPrefix(b.RESTBaseURL, "https://") {
		return fmt.Errorf("binance.rest_base_url must be an http(s) URL, got %q", b.RESTBaseURL)
	}
	return nil
}

func (t *TradingConfig) validate() error {
	if t.EntryWaitBudgetSeconds < t.EntryPollSeconds {
		return fmt.Errorf("trading.entry_wait_budget_seconds (%d) must be >= entry_poll_seconds (%d)",
			t.EntryWaitBudgetSeconds, t.EntryPollSeconds)
	}
	if t.MinCallbackRatePct > 5 {
		return fmt.Errorf("trading.min_callback_rate_pct must be <= 5, got %g", t.MinCallbackRatePct)
	}
	return nil
}

func (w *WebhookConfig) validate() error {
	if strings.TrimSpace(w.Passphrase) == "" {
		return fmt.Errorf("webhook.passphrase is required (or set %s)", EnvPassphrase)
	}
	return nil
}
