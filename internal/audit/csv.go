package audit

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

var csvHeader = []string{
	"Timestamp", "Type", "In", "In Asset", "Out", "Out Asset",
	"Fee", "Fee Asset", "Market", "Note",
}

// CSVRecorder appends transaction rows to a single CSV file, writing the
// header on first use.
type CSVRecorder struct {
	mu   sync.Mutex
	path string
}

func NewCSVRecorder(path string) (*CSVRecorder, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("csv recorder requires a path")
	}
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	return &CSVRecorder{path: path}, nil
}

func (r *CSVRecorder) Record(_ context.Context, rec TransactionRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	writeHeader := false
	if _, err := os.Stat(r.path); os.IsNotExist(err) {
		writeHeader = true
	}
	f, err := os.OpenFile(r.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open transaction log: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if writeHeader {
		if err := w.Write(csvHeader); err != nil {
			return err
		}
	}
	note := rec.Note
	if len(rec.Detail) > 0 {
		if raw, err := json.Marshal(rec.Detail); err == nil {
			note = strings.TrimSpace(note + " " + string(raw))
		}
	}
	row := []string{
		rec.Timestamp.UTC().Format("2006-01-02 15:04:05"),
		string(rec.Type),
		rec.QtyIn.String(),
		rec.AssetIn,
		rec.QtyOut.String(),
		rec.AssetOut,
		rec.Fee.String(),
		rec.FeeAsset,
		rec.Market,
		note,
	}
	if err := w.Write(row); err != nil {
		return err
	}
	w.Flush()
	return w.Error()
}
