package config

import "strings"

const (
	defaultAppEnv      = "dev"
	defaultAppLogLevel = "info"
	defaultAppLogPath  = "data/logs/tradewire.log"

	defaultBinanceREST    = "https://fapi.binance.com"
	defaultBinanceTimeout = 15

	defaultMinNotionalUSD     = 5
	defaultMinCallbackRatePct = 0.1
	defaultEntryPollSeconds   = 15
	defaultEntryWaitSeconds   = 300
	defaultExitPollSeconds    = 5
	defaultSettleWaitSeconds  = 30
	defaultQueueSize          = 8

	defaultAuditCSVPath = "data/audit/transactions.csv"
	defaultJournalPath  = "data/db/orders.db"
	defaultWebhookAddr  = ":8080"
)

func (c *Config) applyDefaults(keys keySet) {
	c.App.applyDefaults(keys)
	c.Binance.applyDefaults(keys)
	c.Trading.applyDefaults(keys)
	c.Audit.applyDefaults(keys)
	c.Webhook.applyDefaults(keys)
}

func (a *AppConfig) applyDefaults(keys keySet) {
	if a == nil {
		return
	}
	applyFieldDefaults(keys,
		stringFieldDefault("app.env", &a.Env, defaultAppEnv),
		stringFieldDefault("app.log_level", &a.LogLevel, defaultAppLogLevel),
		stringFieldDefault("app.log_path", &a.LogPath, defaultAppLogPath),
	)
}

func (b *BinanceConfig) applyDefaults(keys keySet) {
	if b == nil {
		return
	}
	applyFieldDefaults(keys,
		fieldDefault{
			key: "binance.rest_base_url",
			// Testnet leaves the URL empty so the SDK's testnet endpoint
			// applies instead of the production default.
			need:  func() bool { return strings.TrimSpace(b.RESTBaseURL) == "" && !b.Testnet },
			apply: func() { b.RESTBaseURL = defaultBinanceREST },
		},
		fieldDefault{
			key:   "binance.timeout_seconds",
			need:  func() bool { return b.TimeoutSeconds <= 0 },
			apply: func() { b.TimeoutSeconds = defaultBinanceTimeout },
		},
	)
}

func (t *TradingConfig) applyDefaults(keys keySet) {
	if t == nil {
		return
	}
	applyFieldDefaults(keys,
		fieldDefault{
			key:   "trading.min_notional_usd",
			need:  func() bool { return t.MinNotionalUSD <= 0 },
			apply: func() { t.MinNotionalUSD = defaultMinNotionalUSD },
		},
		fieldDefault{
			key:   "trading.min_callback_rate_pct",
			need:  func() bool { return t.MinCallbackRatePct <= 0 },
			apply: func() { t.MinCallbackRatePct = defaultMinCallbackRatePct },
		},
		fieldDefault{
			key:   "trading.entry_poll_seconds",
			need:  func() bool { return t.EntryPollSeconds <= 0 },
			apply: func() { t.EntryPollSeconds = defaultEntryPollSeconds },
		},
		fieldDefault{
			key:   "trading.entry_wait_budget_seconds",
			need:  func() bool { return t.EntryWaitBudgetSeconds <= 0 },
			apply: func() { t.EntryWaitBudgetSeconds = defaultEntryWaitSeconds },
		},
		fieldDefault{
			key:   "trading.exit_poll_seconds",
			need:  func() bool { return t.ExitPollSeconds <= 0 },
			apply: func() { t.ExitPollSeconds = defaultExitPollSeconds },
		},
		fieldDefault{
			key:   "trading.settle_wait_seconds",
			need:  func() bool { return t.SettleWaitSeconds <= 0 },
			apply: func() { t.SettleWaitSeconds = defaultSettleWaitSeconds },
		},
		fieldDefault{
			key:   "trading.queue_size",
			need:  func() bool { return t.QueueSize <= 0 },
			apply: func() { t.QueueSize = defaultQueueSize },
		},
	)
}

func (a *AuditConfig) applyDefaults(keys keySet) {
	if a == nil {
		return
	}
	applyFieldDefaults(keys,
		stringFieldDefault("audit.csv_path", &a.CSVPath, defaultAuditCSVPath),
		stringFieldDefault("audit.journal_path", &a.JournalPath, defaultJournalPath),
	)
}

func (w *WebhookConfig) applyDefaults(keys keySet) {
	if w == nil {
		return
	}
	applyFieldDefaults(keys,
		stringFieldDefault("webhook.addr", &w.Addr, defaultWebhookAddr),
	)
}

type fieldDefault struct {
	key   string
	need  func() bool
	apply func()
}

func applyFieldDefaults(keys keySet, defs ...fieldDefault) {
	for _, def := range defs {
		if def.apply == nil {
			continue
		}
		if def.key != "" && keys.isSet(def.key) {
			continue
		}
		if def.need != nil && !def.need() {
			continue
		}
		def.apply()
	}
}

func stringFieldDefault(key string, target *string, def string) fieldDefault {
	return fieldDefault{
		key: key,
		need: func() bool {
			return target != nil && strings.TrimSpace(*target) == ""
		},
		apply: func() {
			if target != nil {
				*target = def
			}
		},
	}
}
