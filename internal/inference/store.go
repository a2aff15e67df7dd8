package inference

import (
	"context"

	"gorm.io/gorm"
)

// Store is the batch-insert destination for flushed InferenceRecords.
type Store interface {
	BatchInsert(ctx context.Context, records []Record) error
}

// GormStore mirrors analytics.GormStore for inference records.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore { return &GormStore{db: db} }

func (s *GormStore) Migrate() error {
	return s.db.AutoMigrate(&Record{})
}

func (s *GormStore) BatchInsert(ctx context.Context, records []Record) error {
	if len(records) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).Create(&records).Error
}

// NopStore discards every batch; used in tests.
type NopStore struct{}

func (NopStore) BatchInsert(context.Context, []Record) error { return nil }
