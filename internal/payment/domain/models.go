package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// Status is the provider-reported state of a payment.
type Status string

const (
	StatusPaid       Status = "paid"
	StatusProcessing Status = "processing"
	StatusFailed     Status = "failed"
)

// Payment is a provider-derived payment history entry consumed by the
// calendar reconciler.
type Payment struct {
	ID                snowflake.ID `gorm:"primaryKey" json:"id"`
	OrgID             snowflake.ID `gorm:"not null;index" json:"org_id"`
	Provider          string       `gorm:"type:text;not null" json:"provider"`
	ProviderInvoiceID string       `gorm:"type:text;not null;index" json:"provider_invoice_id"`
	ClientName        string       `gorm:"type:text;not null" json:"client_name"`
	Amount            int64        `gorm:"not null" json:"amount"`
	Currency          string       `gorm:"type:text;not null" json:"currency"`
	Status            Status       `gorm:"type:text;not null" json:"status"`
	OccurredAt        time.Time    `gorm:"not null;index" json:"occurred_at"`
	DateKey           string       `gorm:"type:text;not null" json:"date_key"`
	InvoiceURL        string       `gorm:"type:text" json:"invoice_url,omitempty"`
	CreatedAt         time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt         time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Payment) TableName() string { return "payments" }

// EventRecord stores a received webhook event for idempotent processing.
type EventRecord struct {
	ID              snowflake.ID   `gorm:"primaryKey"`
	OrgID           snowflake.ID   `gorm:"not null;index"`
	Provider        string         `gorm:"type:text;not null;uniqueIndex:ux_payment_events_provider_event,priority:1"`
	ProviderEventID string         `gorm:"type:text;not null;uniqueIndex:ux_payment_events_provider_event,priority:2"`
	EventType       string         `gorm:"type:text;not null"`
	Payload         datatypes.JSON `gorm:"type:jsonb;not null"`
	ReceivedAt      time.Time      `gorm:"not null"`
	ProcessedAt     *time.Time     `gorm:"column:processed_at"`
}

// TableName sets the database table name.
func (EventRecord) TableName() string { return "payment_events" }
