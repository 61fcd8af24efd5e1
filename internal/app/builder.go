package app

import (
	"fmt"
	"time"

	"tradewire/internal/audit"
	"tradewire/internal/config"
	"tradewire/internal/dispatch"
	"tradewire/internal/engine"
	"tradewire/internal/gateway/binance"
	"tradewire/internal/logger"
	"tradewire/internal/store/journal"
	webhookhttp "tradewire/internal/transport/http"

	"github.com/shopspring/decimal"
)

// AppBuilder assembles the application piece by piece so construction
// failures name the component that broke.
type AppBuilder struct {
	cfg *config.Config

	recorder   audit.Recorder
	sqliteRec  *audit.SQLiteRecorder
	journal    *journal.Store
	gateway    *binance.Client
	engine     *engine.Engine
	dispatcher *dispatch.Dispatcher
	server     *webhookhttp.Server
}

func NewAppBuilder(cfg *config.Config) *AppBuilder {
	return &AppBuilder{cfg: cfg}
}

func (b *AppBuilder) Build() (*App, error) {
	steps := []func() error{
		b.buildGateway,
		b.buildAudit,
		b.buildJournal,
		b.buildEngine,
		b.buildDispatcher,
		b.buildServer,
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return nil, err
		}
	}
	return &App{
		cfg:        b.cfg,
		server:     b.server,
		dispatcher: b.dispatcher,
		journal:    b.journal,
		sqliteRec:  b.sqliteRec,
	}, nil
}

func (b *AppBuilder) buildGateway() error {
	gw, err := binance.New(binance.Config{
		APIKey:      b.cfg.Binance.APIKey,
		APISecret:   b.cfg.Binance.APISecret,
		RESTBaseURL: b.cfg.Binance.RESTBaseURL,
		HTTPTimeout: time.Duration(b.cfg.Binance.TimeoutSeconds) * time.Second,
		UseTestnet:  b.cfg.Binance.Testnet,
	})
	if err != nil {
		return fmt.Errorf("binance gateway: %w", err)
	}
	b.gateway = gw
	if b.cfg.Binance.Testnet {
		logger.Warnf("binance gateway in testnet mode")
	}
	return nil
}

func (b *AppBuilder) buildAudit() error {
	csvRec, err := audit.NewCSVRecorder(b.cfg.Audit.CSVPath)
	if err != nil {
		return fmt.Errorf("csv recorder: %w", err)
	}
	if b.cfg.Audit.SQLitePath == "" {
		b.recorder = csvRec
		return nil
	}
	dbRec, err := audit.NewSQLiteRecorder(b.cfg.Audit.SQLitePath)
	if err != nil {
		return fmt.Errorf("sqlite recorder: %w", err)
	}
	b.sqliteRec = dbRec
	b.recorder = audit.Multi(csvRec, dbRec)
	return nil
}

func (b *AppBuilder) buildJournal() error {
	store, err := journal.Open(b.cfg.Audit.JournalPath)
	if err != nil {
		return fmt.Errorf("order journal: %w", err)
	}
	b.journal = store
	return nil
}

func (b *AppBuilder) buildEngine() error {
	t := b.cfg.Trading
	b.engine = engine.New(b.gateway, b.recorder, b.journal, engine.WallClock(), engine.Options{
		MinNotional:       decimal.NewFromFloat(t.MinNotionalUSD),
		MinCallbackRate:   decimal.NewFromFloat(t.MinCallbackRatePct),
		EntryPollInterval: time.Duration(t.EntryPollSeconds) * time.Second,
		EntryWaitBudget:   time.Duration(t.EntryWaitBudgetSeconds) * time.Second,
		ExitPollInterval:  time.Duration(t.ExitPollSeconds) * time.Second,
		SettleWaitBudget:  time.Duration(t.SettleWaitSeconds) * time.Second,
	})
	return nil
}

func (b *AppBuilder) buildDispatcher() error {
	b.dispatcher = dispatch.New(b.engine, b.cfg.Trading.QueueSize)
	return nil
}

func (b *AppBuilder) buildServer() error {
	srv, err := webhookhttp.NewServer(webhookhttp.ServerConfig{
		Addr:       b.cfg.Webhook.Addr,
		Passphrase: b.cfg.Webhook.Passphrase,
		Submitter:  b.dispatcher,
		Events:     b.journal,
	})
	if err != nil {
		return fmt.Errorf("webhook server: %w", err)
	}
	b.server = srv
	return nil
}
