package domain

import (
	"errors"
	"testing"
	"time"
)

func unresolvedObligation(status Status) *Obligation {
	return &Obligation{
		ID:         1,
		OrgID:      1,
		Origin:     OriginCustom,
		ClientName: "Acme Web",
		Amount:     10000,
		Currency:   "USD",
		DueDate:    time.Date(2024, time.February, 15, 0, 0, 0, 0, time.UTC),
		DueDateKey: "2024-02-15",
		Status:     status,
	}
}

func TestSettleFromEveryUnresolvedStatus(t *testing.T) {
	now := time.Now().UTC()
	for _, status := range []Status{StatusPending, StatusGrace, StatusRetrying, StatusDelinquent, StatusFailed} {
		o := unresolvedObligation(status)
		if err := o.Settle(SettleRequest{AmountPaid: 10000, Method: "bank_transfer"}, now); err != nil {
			t.Fatalf("settle from %s: %v", status, err)
		}
		if o.Status != StatusSettled {
			t.Fatalf("expected settled, got %s", o.Status)
		}
		if o.AmountPaid == nil || *o.AmountPaid != 10000 {
			t.Fatalf("expected amount paid recorded")
		}
		if o.SettledAt == nil {
			t.Fatalf("expected settled_at recorded")
		}
	}
}

func TestSettleRejectsResolved(t *testing.T) {
	now := time.Now().UTC()
	for _, status := range []Status{StatusSettled, StatusWrittenOff} {
		o := unresolvedObligation(status)
		if err := o.Settle(SettleRequest{AmountPaid: 10000}, now); !errors.Is(err, ErrNotUnresolved) {
			t.Fatalf("settle from %s: expected ErrNotUnresolved, got %v", status, err)
		}
	}
}

func TestSettleRequiresAmountPaid(t *testing.T) {
	o := unresolvedObligation(StatusPending)
	if err := o.Settle(SettleRequest{}, time.Now().UTC()); !errors.Is(err, ErrInvalidAmountPaid) {
		t.Fatalf("expected ErrInvalidAmountPaid, got %v", err)
	}
}

func TestWriteOffRequiresNote(t *testing.T) {
	o := unresolvedObligation(StatusDelinquent)
	if err := o.WriteOff("  ", time.Now().UTC()); !errors.Is(err, ErrMissingWriteOffNote) {
		t.Fatalf("expected ErrMissingWriteOffNote, got %v", err)
	}
	if err := o.WriteOff("client churned", time.Now().UTC()); err != nil {
		t.Fatalf("write off: %v", err)
	}
	if o.Status != StatusWrittenOff || o.WriteOffNote == nil {
		t.Fatalf("expected written_off with note")
	}
}

func TestWriteOffRejectsTerminal(t *testing.T) {
	o := unresolvedObligation(StatusWrittenOff)
	if err := o.WriteOff("again", time.Now().UTC()); !errors.Is(err, ErrAlreadyResolved) {
		t.Fatalf("expected ErrAlreadyResolved, got %v", err)
	}
}

func TestUnsettleReopensSettled(t *testing.T) {
	now := time.Now().UTC()
	o := unresolvedObligation(StatusPending)
	if err := o.Settle(SettleRequest{AmountPaid: 10000, Reference: "inv-1"}, now); err != nil {
		t.Fatalf("settle: %v", err)
	}
	if err := o.Unsettle(now.Add(time.Hour)); err != nil {
		t.Fatalf("unsettle: %v", err)
	}
	if o.Status != StatusPending {
		t.Fatalf("expected pending after unsettle, got %s", o.Status)
	}
	if o.AmountPaid != nil || o.SettledAt != nil || o.PaymentReference != nil {
		t.Fatalf("expected settlement metadata cleared")
	}
	if o.ReopenedAt == nil {
		t.Fatalf("expected reopened_at recorded")
	}
}

func TestUnsettleRejectsUnresolved(t *testing.T) {
	o := unresolvedObligation(StatusRetrying)
	if err := o.Unsettle(time.Now().UTC()); !errors.Is(err, ErrNotSettled) {
		t.Fatalf("expected ErrNotSettled, got %v", err)
	}
}

func TestStatusSets(t *testing.T) {
	unresolved := []Status{StatusPending, StatusGrace, StatusRetrying, StatusDelinquent, StatusFailed}
	for _, s := range unresolved {
		if !s.Unresolved() || s.Terminal() {
			t.Fatalf("%s should be unresolved and non-terminal", s)
		}
	}
	for _, s := range []Status{StatusSettled, StatusWrittenOff} {
		if s.Unresolved() || !s.Terminal() {
			t.Fatalf("%s should be terminal", s)
		}
	}
	if !StatusRetrying.Escalated() || StatusPending.Escalated() {
		t.Fatalf("escalated set mismatch")
	}
	if Status("bogus").Valid() {
		t.Fatalf("unknown status must be invalid")
	}
}
