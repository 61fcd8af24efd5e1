// Package app wires configuration, gateway, engine, dispatcher and the
// webhook server into one runnable unit.
package app

import (
	"context"
	"fmt"

	"tradewire/internal/audit"
	"tradewire/internal/config"
	"tradewire/internal/dispatch"
	"tradewire/internal/logger"
	"tradewire/internal/store/journal"
	webhookhttp "tradewire/internal/transport/http"

	"golang.org/x/sync/errgroup"
)

type App struct {
	cfg        *config.Config
	server     *webhookhttp.Server
	dispatcher *dispatch.Dispatcher
	journal    *journal.Store
	sqliteRec  *audit.SQLiteRecorder
}

// NewApp builds the application from config without starting anything.
func NewApp(cfg *config.Config) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	logger.SetLevel(cfg.App.LogLevel)
	return buildAppWithWire(cfg)
}

// Run serves the webhook until ctx is canceled, then drains in-flight
// trades before returning.
func (a *App) Run(ctx context.Context) error {
	if a == nil || a.cfg == nil {
		return fmt.Errorf("app not initialized")
	}
	logger.Infof("effective configuration:\n%s", a.cfg.Dump())

	group, ctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		if err := a.server.Start(ctx); err != nil {
			return fmt.Errorf("webhook server error: %w", err)
		}
		return nil
	})
	group.Go(func() error {
		<-ctx.Done()
		return a.dispatcher.Close()
	})

	err := group.Wait()
	a.close()
	return err
}

func (a *App) close() {
	if a.journal != nil {
		if err := a.journal.Close(); err != nil {
			logger.Warnf("closing order journal: %v", err)
		}
	}
	if a.sqliteRec != nil {
		if err := a.sqliteRec.Close(); err != nil {
			logger.Warnf("closing audit store: %v", err)
		}
	}
}
