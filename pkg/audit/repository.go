package audit

import (
	"context"

	"gorm.io/gorm"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) AutoMigrate() error {
	return r.db.AutoMigrate(&Log{})
}

func (r *Repository) Append(ctx context.Context, entry *Log) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *Repository) List(ctx context.Context, userID string, action ActionType, limit int) ([]Log, error) {
	if limit <= 0 {
		limit = 100
	}
	query := r.db.WithContext(ctx)
	if userID != "" {
		query = query.Where("user_id = ?", userID)
	}
	if action != "" {
		query = query.Where("action = ?", action)
	}

	var logs []Log
	result := query.Order("created_at DESC").Limit(limit).Find(&logs)
	return logs, result.Error
}
