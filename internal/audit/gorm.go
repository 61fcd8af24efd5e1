package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	_ "modernc.org/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type transactionModel struct {
	ID        uint           `gorm:"primaryKey;autoIncrement"`
	CreatedAt time.Time      `gorm:"index"`
	Type      string         `gorm:"size:16;index"`
	QtyIn     string         `gorm:"size:64"`
	AssetIn   string         `gorm:"size:16"`
	QtyOut    string         `gorm:"size:64"`
	AssetOut  string         `gorm:"size:16"`
	Fee       string         `gorm:"size:64"`
	FeeAsset  string         `gorm:"size:16"`
	Market    string         `gorm:"size:32;index"`
	Note      string         `gorm:"size:256"`
	Detail    datatypes.JSON `gorm:"type:json"`
}

func (transactionModel) TableName() string { return "transactions" }

// SQLiteRecorder persists transaction records to a SQLite database through
// Gorm. Rows are only ever inserted, never updated.
type SQLiteRecorder struct {
	db *gorm.DB
}

func NewSQLiteRecorder(path string) (*SQLiteRecorder, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("sqlite recorder requires a path")
	}
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", path)
	db, err := gorm.Open(sqlite.Dialector{DriverName: "sqlite", DSN: dsn}, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&transactionModel{}); err != nil {
		return nil, err
	}
	return &SQLiteRecorder{db: db}, nil
}

func (r *SQLiteRecorder) Record(ctx context.Context, rec TransactionRecord) error {
	model := transactionModel{
		CreatedAt: rec.Timestamp.UTC(),
		Type:      string(rec.Type),
		QtyIn:     rec.QtyIn.String(),
		AssetIn:   rec.AssetIn,
		QtyOut:    rec.QtyOut.String(),
		AssetOut:  rec.AssetOut,
		Fee:       rec.Fee.String(),
		FeeAsset:  rec.FeeAsset,
		Market:    rec.Market,
		Note:      rec.Note,
	}
	if len(rec.Detail) > 0 {
		raw, err := json.Marshal(rec.Detail)
		if err != nil {
			return fmt.Errorf("encode detail: %w", err)
		}
		model.Detail = datatypes.JSON(raw)
	}
	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}
	return nil
}

func (r *SQLiteRecorder) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
