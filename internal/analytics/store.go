package analytics

import (
	"context"

	"gorm.io/gorm"
)

// Store is the batch-insert destination for flushed AnalyticsRecords.
// Analytics warehouse internals are out of scope for this repo, so it
// defines the interface plus a GORM-backed default and a NopStore for
// tests.
type Store interface {
	BatchInsert(ctx context.Context, records []Record) error
}

// GormStore persists AnalyticsRecords through GORM as the runnable
// default store.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore { return &GormStore{db: db} }

// Migrate creates the analytics_records table if absent.
func (s *GormStore) Migrate() error {
	return s.db.AutoMigrate(&Record{})
}

func (s *GormStore) BatchInsert(ctx context.Context, records []Record) error {
	if len(records) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).Create(&records).Error
}

// NopStore discards every batch; used in tests that exercise the pipeline
// without a database.
type NopStore struct{}

func (NopStore) BatchInsert(context.Context, []Record) error { return nil }
