package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// Repository persists payments and webhook event records.
type Repository interface {
	// InsertEvent records a webhook delivery. It returns false when an
	// event with the same (provider, provider_event_id) already exists.
	InsertEvent(ctx context.Context, db *gorm.DB, rec *EventRecord) (bool, error)

	// MarkEventProcessed stamps processed_at on an event record.
	MarkEventProcessed(ctx context.Context, db *gorm.DB, id snowflake.ID, at time.Time) error

	InsertPayment(ctx context.Context, db *gorm.DB, p *Payment) error
	UpdatePayment(ctx context.Context, db *gorm.DB, p *Payment) error

	// FindByProviderInvoice returns the most recent payment for a
	// provider invoice, or nil when none exists.
	FindByProviderInvoice(ctx context.Context, db *gorm.DB, orgID snowflake.ID, provider, invoiceID string) (*Payment, error)

	List(ctx context.Context, db *gorm.DB, orgID snowflake.ID, from, to time.Time) ([]Payment, error)
}
