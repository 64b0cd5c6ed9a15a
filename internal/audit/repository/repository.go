package repository

import (
	"context"

	"github.com/paycalhq/paycal/internal/audit/domain"
	"gorm.io/gorm"
)

type repository struct{}

// Provide constructs the audit log repository.
func Provide() domain.Repository {
	return &repository{}
}

func (repository) Insert(ctx context.Context, db *gorm.DB, entry *domain.AuditLog) error {
	return db.WithContext(ctx).Create(entry).Error
}

func (repository) List(ctx context.Context, db *gorm.DB, filter domain.ListFilter) ([]*domain.AuditLog, error) {
	query := db.WithContext(ctx).
		Where("org_id = ?", filter.OrgID).
		Order("id DESC")
	if filter.Action != "" {
		query = query.Where("action = ?", filter.Action)
	}
	if filter.TargetType != "" {
		query = query.Where("target_type = ?", filter.TargetType)
	}
	if filter.TargetID != "" {
		query = query.Where("target_id = ?", filter.TargetID)
	}
	if filter.StartAt != nil {
		query = query.Where("created_at >= ?", *filter.StartAt)
	}
	if filter.EndAt != nil {
		query = query.Where("created_at < ?", *filter.EndAt)
	}
	limit := filter.Limit
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	var entries []*domain.AuditLog
	if err := query.Limit(limit).Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}
