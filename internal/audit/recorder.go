// Package audit records settled economic events to durable, append-only
// sinks. One TransactionRecord is written per entry, exit or settled P&L.
package audit

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// RecordType classifies the economic event.
type RecordType string

const (
	RecordEnter  RecordType = "enter"
	RecordExit   RecordType = "exit"
	RecordProfit RecordType = "profit"
	RecordLoss   RecordType = "loss"
)

// TransactionRecord is one outbound audit fact.
type TransactionRecord struct {
	Timestamp time.Time
	Type      RecordType
	QtyIn     decimal.Decimal
	AssetIn   string
	QtyOut    decimal.Decimal
	AssetOut  string
	Fee       decimal.Decimal
	FeeAsset  string
	Market    string
	Note      string

	// Detail carries structured context (order ids, clamp flags). CSV
	// output folds it into the note; the SQLite store keeps it as JSON.
	Detail map[string]any
}

// Recorder persists transaction records. Implementations must be safe for
// concurrent use; records for different instruments arrive from different
// goroutines.
type Recorder interface {
	Record(ctx context.Context, rec TransactionRecord) error
}

type multiRecorder []Recorder

// Multi fans every record out to all given recorders, returning the first
// error encountered after attempting each sink.
func Multi(rs ...Recorder) Recorder {
	out := make(multiRecorder, 0, len(rs))
	for _, r := range rs {
		if r != nil {
			out = append(out, r)
		}
	}
	return out
}

func (m multiRecorder) Record(ctx context.Context, rec TransactionRecord) error {
	var firstErr error
	for _, r := range m {
		if err := r.Record(ctx, rec); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
