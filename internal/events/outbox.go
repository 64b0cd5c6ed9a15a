package events

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Event pairs a billing event type with its typed payload. DedupeKey makes
// redelivered mutations insert at most one row.
type Event struct {
	OrgID     snowflake.ID
	Type      string
	Payload   Payload
	DedupeKey string
}

var (
	ErrMissingTransaction = errors.New("missing_transaction")
	ErrInvalidEvent       = errors.New("invalid_event")
)

// Outbox stores billing events in the billing_events table inside the same
// transaction as the mutation that caused them.
type Outbox struct {
	db    *gorm.DB
	genID *snowflake.Node
}

func NewOutbox(db *gorm.DB, genID *snowflake.Node) *Outbox {
	return &Outbox{db: db, genID: genID}
}

// Publish stores an event using the default database connection.
func (o *Outbox) Publish(ctx context.Context, event Event) error {
	return o.publish(ctx, o.db, event)
}

// PublishTx stores an event using an existing transaction.
func (o *Outbox) PublishTx(ctx context.Context, tx *gorm.DB, event Event) error {
	if tx == nil {
		return ErrMissingTransaction
	}
	return o.publish(ctx, tx, event)
}

func (o *Outbox) publish(ctx context.Context, db *gorm.DB, event Event) error {
	if o == nil || db == nil || o.genID == nil {
		return ErrInvalidEvent
	}
	if event.OrgID == 0 || strings.TrimSpace(event.Type) == "" {
		return ErrInvalidEvent
	}

	body := datatypes.JSONMap{}
	if event.Payload != nil {
		for key, value := range event.Payload.EventFields() {
			if strings.TrimSpace(key) == "" {
				continue
			}
			body[key] = value
		}
	}

	dedupe := strings.TrimSpace(event.DedupeKey)
	var dedupeValue any
	if dedupe != "" {
		dedupeValue = dedupe
	}

	return db.WithContext(ctx).Exec(
		`INSERT INTO billing_events (id, org_id, event_type, payload, dedupe_key, published, created_at)
		 VALUES (?, ?, ?, ?, ?, false, ?)
		 ON CONFLICT (org_id, dedupe_key) DO NOTHING`,
		o.genID.Generate(),
		event.OrgID,
		strings.TrimSpace(event.Type),
		body,
		dedupeValue,
		time.Now().UTC(),
	).Error
}
