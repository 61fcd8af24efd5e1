// Package journal keeps an append-only record of order lifecycle events in
// a local SQLite file, so operators can reconstruct what the engine did to
// an instrument after the fact.
package journal

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// Event names written by the engine.
const (
	EventSubmitted = "submitted"
	EventFilled    = "filled"
	EventCanceled  = "canceled"
	EventAborted   = "aborted"
	EventFallback  = "fallback"
	EventClamped   = "callback_clamped"
)

// OrderEvent is one lifecycle transition of a managed order.
type OrderEvent struct {
	Time     time.Time
	Symbol   string
	OrderID  int64
	ClientID string
	Role     string
	Event    string
	Detail   map[string]any
}

// Store owns the journal database. Append is safe for concurrent callers.
type Store struct {
	mu sync.Mutex
	db *sql.DB
}

func Open(path string) (*Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("journal path cannot be empty")
	}
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(2)
	db.SetMaxIdleConns(2)
	if err := ensureSchema(db); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

func ensureSchema(db *sql.DB) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS order_events (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    ts INTEGER NOT NULL,
    symbol TEXT NOT NULL,
    order_id INTEGER NOT NULL,
    client_id TEXT,
    role TEXT NOT NULL,
    event TEXT NOT NULL,
    detail TEXT
);
CREATE INDEX IF NOT EXISTS idx_order_events_symbol_ts ON order_events(symbol, ts);`
	_, err := db.Exec(ddl)
	return err
}

// Append writes one event. Events are never updated or deleted.
func (s *Store) Append(ctx context.Context, evt OrderEvent) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("journal store not initialized")
	}
	ts := evt.Time
	if ts.IsZero() {
		ts = time.Now()
	}
	var detail string
	if len(evt.Detail) > 0 {
		raw, err := json.Marshal(evt.Detail)
		if err != nil {
			return fmt.Errorf("encode event detail: %w", err)
		}
		detail = string(raw)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO order_events (ts, symbol, order_id, client_id, role, event, detail)
         VALUES (?, ?, ?, ?, ?, ?, ?)`,
		ts.UnixMilli(), evt.Symbol, evt.OrderID, evt.ClientID, evt.Role, evt.Event, detail)
	if err != nil {
		return fmt.Errorf("append order event: %w", err)
	}
	return nil
}

// Recent returns up to limit events for symbol, newest first. Used by
// operators inspecting an instrument after an aborted lifecycle.
func (s *Store) Recent(ctx context.Context, symbol string, limit int) ([]OrderEvent, error) {
	if limit <= 0 {
		limit = 50
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	rows, err := s.db.QueryContext(ctx,
		`SELECT ts, symbol, order_id, client_id, role, event, detail
         FROM order_events WHERE symbol = ? ORDER BY ts DESC, id DESC LIMIT ?`,
		symbol, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []OrderEvent
	for rows.Next() {
		var (
			evt    OrderEvent
			ts     int64
			detail sql.NullString
		)
		if err := rows.Scan(&ts, &evt.Symbol, &evt.OrderID, &evt.ClientID, &evt.Role, &evt.Event, &detail); err != nil {
			return nil, err
		}
		evt.Time = time.UnixMilli(ts)
		if detail.Valid && detail.String != "" {
			_ = json.Unmarshal([]byte(detail.String), &evt.Detail)
		}
		out = append(out, evt)
	}
	return out, rows.Err()
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
