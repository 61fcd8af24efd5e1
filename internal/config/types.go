package config

import "strings"

// Config is the full runtime configuration.
type Config struct {
	App     AppConfig     `toml:"app"`
	Binance BinanceConfig `toml:"binance"`
	Trading TradingConfig `toml:"trading"`
	Audit   AuditConfig   `toml:"audit"`
	Webhook WebhookConfig `toml:"webhook"`
}

type AppConfig struct {
	Env      string `toml:"env"`
	LogLevel string `toml:"log_level"`
	LogPath  string `toml:"log_path"`
}

// BinanceConfig describes venue access. Key and secret are normally
// injected from the environment rather than written into the file.
type BinanceConfig struct {
	APIKey         string `toml:"api_key"`
	APISecret      string `toml:"api_secret"`
	RESTBaseURL    string `toml:"rest_base_url"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
	Testnet        bool   `toml:"testnet"`
}

// TradingConfig carries the engine's timing budgets and venue floors.
type TradingConfig struct {
	MinNotionalUSD         float64 `toml:"min_notional_usd"`
	MinCallbackRatePct     float64 `toml:"min_callback_rate_pct"`
	EntryPollSeconds       int     `toml:"entry_poll_seconds"`
	EntryWaitBudgetSeconds int     `toml:"entry_wait_budget_seconds"`
	ExitPollSeconds        int     `toml:"exit_poll_seconds"`
	SettleWaitSeconds      int     `toml:"settle_wait_seconds"`
	QueueSize              int     `toml:"queue_size"`
}

// AuditConfig selects where transaction records land. An empty sqlite_path
// keeps the CSV-only setup.
type AuditConfig struct {
	CSVPath     string `toml:"csv_path"`
	SQLitePath  string `toml:"sqlite_path"`
	JournalPath string `toml:"journal_path"`
}

type WebhookConfig struct {
	Addr       string `toml:"addr"`
	Passphrase string `toml:"passphrase"`
}

// keySet tracks the field paths explicitly present in the config file, so
// defaults never clobber deliberate zero values.
type keySet map[string]struct{}

func (k keySet) mark(path string) {
	path = strings.ToLower(strings.TrimSpace(path))
	if path == "" {
		return
	}
	k[path] = struct{}{}
}

func (k keySet) isSet(path string) bool {
	if len(k) == 0 {
		return false
	}
	path = strings.ToLower(strings.TrimSpace(path))
	_, ok := k[path]
	return ok
}
