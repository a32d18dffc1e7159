package drafts

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"fitResume/internal/database"
)

// GormStore 把草稿写入 drafts 表，同一个键只保留最新一份。
type GormStore struct {
	db  *gorm.DB
	ttl time.Duration
	now func() time.Time
}

// NewGormStore 返回 GormStore。ttl 为 0 表示不过期。
func NewGormStore(db *gorm.DB, ttl time.Duration) *GormStore {
	return &GormStore{db: db, ttl: ttl, now: time.Now}
}

func (s *GormStore) Save(ctx context.Context, key string, data []byte) error {
	if err := CheckKey(key); err != nil {
		return err
	}
	row := database.Draft{Key: key, Data: data, UpdatedAt: s.now()}
	if s.ttl > 0 {
		exp := row.UpdatedAt.Add(s.ttl)
		row.ExpiresAt = &exp
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"data", "expires_at", "updated_at"}),
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("save draft %s: %w", key, err)
	}
	return nil
}

func (s *GormStore) Load(ctx context.Context, key string) ([]byte, bool, error) {
	if err := CheckKey(key); err != nil {
		return nil, false, err
	}
	var row database.Draft
	err := s.db.WithContext(ctx).Where("key = ?", key).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("load draft %s: %w", key, err)
	}
	if row.ExpiresAt != nil && !s.now().Before(*row.ExpiresAt) {
		_ = s.db.WithContext(ctx).Delete(&database.Draft{}, "key = ?", key).Error
		return nil, false, nil
	}
	return row.Data, true, nil
}

func (s *GormStore) Remove(ctx context.Context, key string) error {
	if err := CheckKey(key); err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Delete(&database.Draft{}, "key = ?", key).Error; err != nil {
		return fmt.Errorf("remove draft %s: %w", key, err)
	}
	return nil
}

// Purge 删除已过期的草稿，返回删除条数。
func (s *GormStore) Purge(ctx context.Context) (int64, error) {
	res := s.db.WithContext(ctx).Where("expires_at IS NOT NULL AND expires_at <= ?", s.now()).Delete(&database.Draft{})
	if res.Error != nil {
		return 0, fmt.Errorf("purge drafts: %w", res.Error)
	}
	return res.RowsAffected, nil
}
