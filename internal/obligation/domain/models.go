package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Status is the lifecycle state of a payment obligation.
type Status string

const (
	StatusPending    Status = "pending"
	StatusGrace      Status = "grace"
	StatusRetrying   Status = "retrying"
	StatusDelinquent Status = "delinquent"
	StatusFailed     Status = "failed"
	StatusSettled    Status = "settled"
	StatusWrittenOff Status = "written_off"
)

// Origin marks where an obligation came from.
type Origin string

const (
	OriginStripe Origin = "stripe"
	OriginCustom Origin = "custom"
)

// Unresolved reports whether the obligation still represents open debt.
func (s Status) Unresolved() bool {
	switch s {
	case StatusPending, StatusGrace, StatusRetrying, StatusDelinquent, StatusFailed:
		return true
	}
	return false
}

// Terminal reports whether the obligation reached a resolved end state.
// Settled obligations can still be reopened; written-off ones cannot.
func (s Status) Terminal() bool {
	return s == StatusSettled || s == StatusWrittenOff
}

// Escalated reports whether collection already failed at least once.
func (s Status) Escalated() bool {
	return s == StatusRetrying || s == StatusDelinquent || s == StatusFailed
}

// Valid reports whether the status belongs to the closed set.
func (s Status) Valid() bool {
	return s.Unresolved() || s.Terminal()
}

// Obligation is a tracked debt record: one unresolved obligation may exist per
// (rule, due date) pair at a time.
type Obligation struct {
	ID         snowflake.ID  `gorm:"primaryKey" json:"id"`
	OrgID      snowflake.ID  `gorm:"not null;index" json:"org_id"`
	RuleID     *snowflake.ID `gorm:"index" json:"rule_id,omitempty"`
	PaymentID  *snowflake.ID `gorm:"index" json:"payment_id,omitempty"`
	Origin     Origin        `gorm:"type:text;not null" json:"origin"`
	ClientName string        `gorm:"type:text;not null" json:"client_name"`
	Amount     int64         `gorm:"not null" json:"amount"`
	Currency   string        `gorm:"type:text;not null" json:"currency"`
	DueDate    time.Time     `gorm:"not null;index" json:"due_date"`
	DueDateKey string        `gorm:"type:text;not null" json:"due_date_key"`
	Status     Status        `gorm:"type:text;not null;default:'pending'" json:"status"`

	NextRetryAt  *time.Time `gorm:"column:next_retry_at" json:"next_retry_at,omitempty"`
	AttemptCount int        `gorm:"not null;default:0" json:"attempt_count"`

	AmountPaid       *int64     `gorm:"column:amount_paid" json:"amount_paid,omitempty"`
	PaymentMethod    *string    `gorm:"type:text" json:"payment_method,omitempty"`
	PaymentReference *string    `gorm:"type:text" json:"payment_reference,omitempty"`
	WriteOffNote     *string    `gorm:"type:text" json:"write_off_note,omitempty"`
	SettledAt        *time.Time `gorm:"column:settled_at" json:"settled_at,omitempty"`
	WrittenOffAt     *time.Time `gorm:"column:written_off_at" json:"written_off_at,omitempty"`
	ReopenedAt       *time.Time `gorm:"column:reopened_at" json:"reopened_at,omitempty"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Obligation) TableName() string { return "obligations" }
