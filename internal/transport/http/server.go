// Package webhookhttp exposes the signal intake over HTTP: one webhook
// endpoint guarded by a shared passphrase, plus a health probe.
package webhookhttp

import (
	"context"
	"errors"
	"net/http"
	"time"

	"tradewire/internal/logger"
	"tradewire/internal/store/journal"
	"tradewire/internal/types"

	"github.com/gin-gonic/gin"
)

// Submitter accepts validated intents for asynchronous execution.
type Submitter interface {
	Submit(intent types.TradeIntent) error
}

// EventReader serves the recent order lifecycle history of one instrument.
type EventReader interface {
	Recent(ctx context.Context, symbol string, limit int) ([]journal.OrderEvent, error)
}

// ServerConfig describes the webhook server dependencies. Events is
// optional; without it the journal endpoint is not registered.
type ServerConfig struct {
	Addr       string
	Passphrase string
	Submitter  Submitter
	Events     EventReader
}

// Server hosts the webhook endpoint until its context is canceled.
type Server struct {
	addr   string
	router *gin.Engine
}

func NewServer(cfg ServerConfig) (*Server, error) {
	if cfg.Submitter == nil {
		return nil, errors.New("webhook server requires a submitter")
	}
	if cfg.Passphrase == "" {
		return nil, errors.New("webhook passphrase cannot be empty")
	}
	if cfg.Addr == "" {
		cfg.Addr = ":8080"
	}
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger())

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	h := &webhookHandler{passphrase: cfg.Passphrase, submitter: cfg.Submitter}
	router.POST("/webhook", h.handle)
	if cfg.Events != nil {
		j := &journalHandler{passphrase: cfg.Passphrase, events: cfg.Events}
		router.GET("/journal/:symbol", j.recent)
	}

	return &Server{addr: cfg.Addr, router: router}, nil
}

// Addr returns the listen address.
func (s *Server) Addr() string {
	if s == nil {
		return ""
	}
	return s.addr
}

// Handler exposes the router for in-process testing.
func (s *Server) Handler() http.Handler { return s.router }

// Start serves until ctx is canceled or the listener fails.
func (s *Server) Start(ctx context.Context) error {
	if s == nil {
		return nil
	}
	srv := &http.Server{Addr: s.addr, Handler: s.router}
	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()
	logger.Infof("webhook server listening on %s", s.addr)

	select {
	case <-ctx.Done():
		shCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shCtx)
		return nil
	case err := <-errCh:
		return err
	}
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		method := c.Request.Method
		path := c.Request.URL.Path
		client := c.ClientIP()
		c.Next()
		logger.Debugf("HTTP %s %s status=%d ip=%s dur=%s",
			method, path, c.Writer.Status(), client, time.Since(start))
	}
}
