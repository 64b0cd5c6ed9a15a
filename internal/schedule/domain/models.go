package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// Frequency is the recurrence period of a payment rule.
type Frequency string

const (
	FrequencyWeekly  Frequency = "weekly"
	FrequencyMonthly Frequency = "monthly"
	FrequencyYearly  Frequency = "yearly"
)

// Valid reports whether the frequency is one of the supported periods.
func (f Frequency) Valid() bool {
	switch f {
	case FrequencyWeekly, FrequencyMonthly, FrequencyYearly:
		return true
	}
	return false
}

// PaymentRule defines a recurring payment owed by a client. The rule is
// read-only input to projection; stopping a rule freezes future generation
// but keeps its history.
type PaymentRule struct {
	ID            snowflake.ID                `gorm:"primaryKey" json:"id"`
	OrgID         snowflake.ID                `gorm:"not null;index" json:"org_id"`
	ClientName    string                      `gorm:"type:text;not null" json:"client_name"`
	Amount        int64                       `gorm:"not null" json:"amount"`
	Currency      string                      `gorm:"type:text;not null" json:"currency"`
	Frequency     Frequency                   `gorm:"type:text;not null" json:"frequency"`
	StartDate     time.Time                   `gorm:"not null" json:"start_date"`
	IsActive      bool                        `gorm:"not null;default:true" json:"is_active"`
	StoppedAt     *time.Time                  `gorm:"column:stopped_at" json:"stopped_at,omitempty"`
	ExcludedDates datatypes.JSONSlice[string] `gorm:"type:jsonb;not null;default:'[]'" json:"excluded_dates"`
	CreatedAt     time.Time                   `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt     time.Time                   `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (PaymentRule) TableName() string { return "payment_rules" }

// ExcludedKeys returns the exclusion set keyed by normalized calendar date.
// Entries that do not parse as a date are dropped rather than matched loosely.
func (r PaymentRule) ExcludedKeys() map[string]struct{} {
	keys := make(map[string]struct{}, len(r.ExcludedDates))
	for _, raw := range r.ExcludedDates {
		if key, ok := NormalizeDateKey(raw); ok {
			keys[key] = struct{}{}
		}
	}
	return keys
}

// Occurrence is a derived, non-persisted projection of a rule onto a concrete
// date. Its identity is (RuleID, DateKey).
type Occurrence struct {
	RuleID     snowflake.ID `json:"rule_id"`
	ClientName string       `json:"client_name"`
	Amount     int64        `json:"amount"`
	Currency   string       `json:"currency"`
	Date       time.Time    `json:"date"`
	DateKey    string       `json:"date_key"`
	IsPast     bool         `json:"is_past"`
}

// Window is an inclusive calendar-date query range.
type Window struct {
	Start time.Time
	End   time.Time
}

// DefaultWindow spans two years back and two years forward from the first day
// of the current month, so history and near-future occurrences are both
// visible without re-querying.
func DefaultWindow(now time.Time) Window {
	anchor := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	return Window{
		Start: anchor.AddDate(-2, 0, 0),
		End:   anchor.AddDate(2, 1, -1),
	}
}
