package events

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/bwmarrin/snowflake"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestOutbox(t *testing.T) (*Outbox, *gorm.DB) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	ddl := `CREATE TABLE billing_events (
		id INTEGER PRIMARY KEY,
		org_id INTEGER NOT NULL,
		event_type TEXT NOT NULL,
		payload TEXT,
		dedupe_key TEXT,
		published BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMP,
		UNIQUE (org_id, dedupe_key)
	)`
	if err := db.Exec(ddl).Error; err != nil {
		t.Fatalf("ddl: %v", err)
	}
	node, err := snowflake.NewNode(7)
	if err != nil {
		t.Fatalf("snowflake node: %v", err)
	}
	return NewOutbox(db, node), db
}

func TestPublishStoresTypedPayloadFields(t *testing.T) {
	outbox, db := newTestOutbox(t)

	err := outbox.Publish(context.Background(), Event{
		OrgID: 42,
		Type:  EventObligationSettled,
		Payload: ObligationPayload{
			ObligationID: "9001",
			RuleID:       "7",
			Status:       "settled",
			DueDate:      "2024-03-15",
		},
		DedupeKey: EventObligationSettled + ":9001",
	})
	if err != nil {
		t.Fatalf("publish: %v", err)
	}

	var row struct {
		EventType string
		Payload   string
	}
	if err := db.Raw("SELECT event_type, payload FROM billing_events").Scan(&row).Error; err != nil {
		t.Fatalf("read row: %v", err)
	}
	if row.EventType != EventObligationSettled {
		t.Fatalf("unexpected event type %q", row.EventType)
	}
	for _, want := range []string{`"obligation_id":"9001"`, `"rule_id":"7"`, `"status":"settled"`, `"due_date":"2024-03-15"`} {
		if !strings.Contains(row.Payload, want) {
			t.Fatalf("payload %s missing %s", row.Payload, want)
		}
	}
}

func TestPublishDeduplicatesByKey(t *testing.T) {
	outbox, db := newTestOutbox(t)
	event := Event{
		OrgID:     42,
		Type:      EventRuleStopped,
		Payload:   RulePayload{RuleID: "7"},
		DedupeKey: EventRuleStopped + ":7",
	}

	if err := outbox.Publish(context.Background(), event); err != nil {
		t.Fatalf("first publish: %v", err)
	}
	if err := outbox.Publish(context.Background(), event); err != nil {
		t.Fatalf("redelivery: %v", err)
	}

	var count int64
	if err := db.Raw("SELECT COUNT(*) FROM billing_events").Scan(&count).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected one row after redelivery, got %d", count)
	}
}

func TestPublishRejectsIncompleteEvents(t *testing.T) {
	outbox, _ := newTestOutbox(t)

	if err := outbox.Publish(context.Background(), Event{Type: EventRuleCreated}); !errors.Is(err, ErrInvalidEvent) {
		t.Fatalf("missing org: expected invalid event, got %v", err)
	}
	if err := outbox.Publish(context.Background(), Event{OrgID: 42}); !errors.Is(err, ErrInvalidEvent) {
		t.Fatalf("missing type: expected invalid event, got %v", err)
	}
	if err := outbox.PublishTx(context.Background(), nil, Event{OrgID: 42, Type: EventRuleCreated}); !errors.Is(err, ErrMissingTransaction) {
		t.Fatalf("nil tx: expected missing transaction, got %v", err)
	}
}
