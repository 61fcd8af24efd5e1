package config

import (
	"gopkg.in/yaml.v3"
)

const redacted = "***"

// Dump renders the effective configuration as YAML with secrets masked,
// for the startup log.
func (c *Config) Dump() string {
	masked := *c
	if masked.Binance.APIKey != "" {
		masked.Binance.APIKey = redacted
	}
	if masked.Binance.APISecret != "" {
		masked.Binance.APISecret = redacted
	}
	if masked.Webhook.Passphrase != "" {
		masked.Webhook.Passphrase = redacted
	}
	out, err := yaml.Marshal(dumpView(&masked))
	if err != nil {
		return ""
	}
	return string(out)
}

// dumpView rebuilds the config as ordered YAML nodes; struct tags stay on
// the toml name the loader uses, so the dump maps them by hand.
func dumpView(c *Config) map[string]any {
	return map[string]any{
		"app": map[string]any{
			"env":       c.App.Env,
			"log_level": c.App.LogLevel,
			"log_path":  c.App.LogPath,
		},
		"binance": map[string]any{
			"api_key":         c.Binance.APIKey,
			"api_secret":      c.Binance.APISecret,
			"rest_base_url":   c.Binance.RESTBaseURL,
			"timeout_seconds": c.Binance.TimeoutSeconds,
			"testnet":         c.Binance.Testnet,
		},
		"trading": map[string]any{
			"min_notional_usd":          c.Trading.MinNotionalUSD,
			"min_callback_rate_pct":     c.Trading.MinCallbackRatePct,
			"entry_poll_seconds":        c.Trading.EntryPollSeconds,
			"entry_wait_budget_seconds": c.Trading.EntryWaitBudgetSeconds,
			"exit_poll_seconds":         c.Trading.ExitPollSeconds,
			"settle_wait_seconds":       c.Trading.SettleWaitSeconds,
			"queue_size":                c.Trading.QueueSize,
		},
		"audit": map[string]any{
			"csv_path":     c.Audit.CSVPath,
			"sqlite_path":  c.Audit.SQLitePath,
			"journal_path": c.Audit.JournalPath,
		},
		"webhook": map[string]any{
			"addr":       c.Webhook.Addr,
			"passphrase": c.Webhook.Passphrase,
		},
	}
}
