// Package postgres stores kv entries in a single jsonb table.
package postgres

import (
	"context"
	"errors"
	"time"

	"policy-records-go/internal/kv"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type entry struct {
	Key       string         `gorm:"column:key;primaryKey"`
	Value     datatypes.JSON `gorm:"column:value;type:jsonb"`
	UpdatedAt time.Time      `gorm:"column:updated_at"`
}

func (entry) TableName() string {
	return "kv_entries"
}

type Store struct {
	db            *gorm.DB
	maxValueBytes int
}

func NewStore(db *gorm.DB, maxValueBytes int) *Store {
	return &Store{db: db, maxValueBytes: maxValueBytes}
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	var row entry
	err := s.db.WithContext(ctx).Where("key = ?", key).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, kv.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return []byte(row.Value), nil
}

// Put upserts the value. Values must be valid JSON.
func (s *Store) Put(ctx context.Context, key string, value []byte) error {
	if s.maxValueBytes > 0 && len(value) > s.maxValueBytes {
		return kv.ErrQuotaExceeded
	}
	row := entry{
		Key:       key,
		Value:     datatypes.JSON(value),
		UpdatedAt: time.Now().UTC(),
	}
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).
		Create(&row).Error
}

func (s *Store) Delete(ctx context.Context, key string) error {
	return s.db.WithContext(ctx).Where("key = ?", key).Delete(&entry{}).Error
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
