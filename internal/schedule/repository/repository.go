package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/paycalhq/paycal/internal/schedule/domain"
	"gorm.io/gorm"
)

type repository struct{}

// Provide constructs the payment rule repository.
func Provide() domain.Repository {
	return &repository{}
}

func (repository) Insert(ctx context.Context, db *gorm.DB, rule *domain.PaymentRule) error {
	return db.WithContext(ctx).Create(rule).Error
}

func (repository) Update(ctx context.Context, db *gorm.DB, rule *domain.PaymentRule) error {
	return db.WithContext(ctx).Save(rule).Error
}

func (repository) FindByID(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) (*domain.PaymentRule, error) {
	var rule domain.PaymentRule
	err := db.WithContext(ctx).
		Where("org_id = ? AND id = ?", orgID, id).
		First(&rule).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &rule, nil
}

func (repository) List(ctx context.Context, db *gorm.DB, orgID snowflake.ID, filter domain.ListFilter) ([]domain.PaymentRule, error) {
	query := db.WithContext(ctx).
		Where("org_id = ?", orgID).
		Order("id ASC")
	if filter.ClientName != "" {
		query = query.Where("client_name LIKE ?", filter.ClientName+"%")
	}
	if filter.ActiveOnly {
		query = query.Where("is_active = ?", true)
	}
	if filter.AfterID > 0 {
		query = query.Where("id > ?", filter.AfterID)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}

	var rules []domain.PaymentRule
	if err := query.Find(&rules).Error; err != nil {
		return nil, err
	}
	return rules, nil
}

func (repository) ListAll(ctx context.Context, db *gorm.DB, orgID snowflake.ID) ([]domain.PaymentRule, error) {
	var rules []domain.PaymentRule
	err := db.WithContext(ctx).
		Where("org_id = ?", orgID).
		Order("id ASC").
		Find(&rules).Error
	if err != nil {
		return nil, err
	}
	return rules, nil
}

func (repository) Delete(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) error {
	return db.WithContext(ctx).
		Where("org_id = ? AND id = ?", orgID, id).
		Delete(&domain.PaymentRule{}).Error
}
