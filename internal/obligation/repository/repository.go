package repository

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/paycalhq/paycal/internal/obligation/domain"
	"gorm.io/gorm"
)

type repository struct{}

// Provide constructs the obligation repository.
func Provide() domain.Repository {
	return &repository{}
}

var unresolvedStatuses = []domain.Status{
	domain.StatusPending,
	domain.StatusGrace,
	domain.StatusRetrying,
	domain.StatusDelinquent,
	domain.StatusFailed,
}

func (repository) Insert(ctx context.Context, db *gorm.DB, obligation *domain.Obligation) error {
	return db.WithContext(ctx).Create(obligation).Error
}

func (repository) Update(ctx context.Context, db *gorm.DB, obligation *domain.Obligation) error {
	return db.WithContext(ctx).Save(obligation).Error
}

func (repository) FindByID(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) (*domain.Obligation, error) {
	var obligation domain.Obligation
	err := db.WithContext(ctx).
		Where("org_id = ? AND id = ?", orgID, id).
		First(&obligation).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &obligation, nil
}

func (repository) FindUnresolvedForOccurrence(ctx context.Context, db *gorm.DB, orgID, ruleID snowflake.ID, dueDateKey string) (*domain.Obligation, error) {
	var obligation domain.Obligation
	err := db.WithContext(ctx).
		Where("org_id = ? AND rule_id = ? AND due_date_key = ? AND status IN ?", orgID, ruleID, dueDateKey, unresolvedStatuses).
		First(&obligation).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &obligation, nil
}

func (repository) List(ctx context.Context, db *gorm.DB, orgID snowflake.ID, filter domain.ListFilter) ([]domain.Obligation, error) {
	query := db.WithContext(ctx).
		Where("org_id = ?", orgID).
		Order("due_date ASC, id ASC")
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Unresolved {
		query = query.Where("status IN ?", unresolvedStatuses)
	}
	if filter.Origin != "" {
		query = query.Where("origin = ?", filter.Origin)
	}
	if filter.RuleID != 0 {
		query = query.Where("rule_id = ?", filter.RuleID)
	}
	if filter.From != nil {
		query = query.Where("due_date >= ?", *filter.From)
	}
	if filter.To != nil {
		query = query.Where("due_date <= ?", *filter.To)
	}

	var obligations []domain.Obligation
	if err := query.Find(&obligations).Error; err != nil {
		return nil, err
	}
	return obligations, nil
}

func (repository) ListForCalendar(ctx context.Context, db *gorm.DB, orgID snowflake.ID, from, to time.Time) ([]domain.Obligation, error) {
	var obligations []domain.Obligation
	err := db.WithContext(ctx).
		Where("org_id = ? AND (status IN ? OR (due_date >= ? AND due_date <= ?))", orgID, unresolvedStatuses, from, to).
		Order("due_date ASC, id ASC").
		Find(&obligations).Error
	if err != nil {
		return nil, err
	}
	return obligations, nil
}
