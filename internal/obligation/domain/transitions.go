package domain

import (
	"strings"
	"time"
)

// SettleRequest resolves an obligation as paid.
type SettleRequest struct {
	AmountPaid int64
	Method     string
	Reference  string
}

// Settle moves any unresolved obligation to settled.
func (o *Obligation) Settle(req SettleRequest, now time.Time) error {
	if !o.Status.Unresolved() {
		return ErrNotUnresolved
	}
	if req.AmountPaid <= 0 {
		return ErrInvalidAmountPaid
	}

	o.Status = StatusSettled
	o.AmountPaid = &req.AmountPaid
	if method := strings.TrimSpace(req.Method); method != "" {
		o.PaymentMethod = &method
	}
	if reference := strings.TrimSpace(req.Reference); reference != "" {
		o.PaymentReference = &reference
	}
	o.SettledAt = &now
	o.NextRetryAt = nil
	o.UpdatedAt = now
	return nil
}

// WriteOff forgives any non-terminal obligation. A note is required.
func (o *Obligation) WriteOff(note string, now time.Time) error {
	if o.Status.Terminal() {
		return ErrAlreadyResolved
	}
	note = strings.TrimSpace(note)
	if note == "" {
		return ErrMissingWriteOffNote
	}

	o.Status = StatusWrittenOff
	o.WriteOffNote = &note
	o.WrittenOffAt = &now
	o.NextRetryAt = nil
	o.UpdatedAt = now
	return nil
}

// Unsettle reopens a settled obligation as unresolved debt. The transition is
// reversible on the same record, not modeled as a new one.
func (o *Obligation) Unsettle(now time.Time) error {
	if o.Status != StatusSettled {
		return ErrNotSettled
	}

	o.Status = StatusPending
	o.AmountPaid = nil
	o.PaymentMethod = nil
	o.PaymentReference = nil
	o.SettledAt = nil
	o.ReopenedAt = &now
	o.UpdatedAt = now
	return nil
}
