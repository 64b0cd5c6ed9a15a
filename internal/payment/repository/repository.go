package repository

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/paycalhq/paycal/internal/payment/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repository struct{}

// Provide constructs the payment repository.
func Provide() domain.Repository {
	return &repository{}
}

func (repository) InsertEvent(ctx context.Context, db *gorm.DB, rec *domain.EventRecord) (bool, error) {
	res := db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "provider"}, {Name: "provider_event_id"}},
			DoNothing: true,
		}).
		Create(rec)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (repository) MarkEventProcessed(ctx context.Context, db *gorm.DB, id snowflake.ID, at time.Time) error {
	return db.WithContext(ctx).
		Model(&domain.EventRecord{}).
		Where("id = ?", id).
		Update("processed_at", at).Error
}

func (repository) InsertPayment(ctx context.Context, db *gorm.DB, p *domain.Payment) error {
	return db.WithContext(ctx).Create(p).Error
}

func (repository) UpdatePayment(ctx context.Context, db *gorm.DB, p *domain.Payment) error {
	return db.WithContext(ctx).Save(p).Error
}

func (repository) FindByProviderInvoice(ctx context.Context, db *gorm.DB, orgID snowflake.ID, provider, invoiceID string) (*domain.Payment, error) {
	var payment domain.Payment
	err := db.WithContext(ctx).
		Where("org_id = ? AND provider = ? AND provider_invoice_id = ?", orgID, provider, invoiceID).
		Order("occurred_at DESC, id DESC").
		First(&payment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &payment, nil
}

// List returns payments in [from, to] where to is inclusive of the whole
// calendar day.
func (repository) List(ctx context.Context, db *gorm.DB, orgID snowflake.ID, from, to time.Time) ([]domain.Payment, error) {
	end := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, 1)
	var payments []domain.Payment
	err := db.WithContext(ctx).
		Where("org_id = ? AND occurred_at >= ? AND occurred_at < ?", orgID, from, end).
		Order("occurred_at ASC, id ASC").
		Find(&payments).Error
	if err != nil {
		return nil, err
	}
	return payments, nil
}
