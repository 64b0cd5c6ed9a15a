package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
)

// MarkUnpaidRequest opens an obligation for an occurrence the operator knows
// was not actually paid.
type MarkUnpaidRequest struct {
	RuleID  snowflake.ID
	DueDate string
}

type ListRequest struct {
	Status     Status
	Origin     Origin
	RuleID     snowflake.ID
	From       *time.Time
	To         *time.Time
	Unresolved bool
}

type ListResponse struct {
	Obligations []Obligation `json:"obligations"`
}

type Service interface {
	MarkUnpaid(ctx context.Context, req MarkUnpaidRequest) (Obligation, error)
	List(ctx context.Context, req ListRequest) (ListResponse, error)
	Settle(ctx context.Context, id snowflake.ID, req SettleRequest) (Obligation, error)
	WriteOff(ctx context.Context, id snowflake.ID, note string) (Obligation, error)
	Unsettle(ctx context.Context, id snowflake.ID) (Obligation, error)
}

var (
	ErrInvalidOrganization = errors.New("invalid_organization")
	ErrInvalidObligationID = errors.New("invalid_obligation_id")
	ErrObligationNotFound  = errors.New("obligation_not_found")
	ErrInvalidRuleID       = errors.New("invalid_rule_id")
	ErrRuleNotFound        = errors.New("rule_not_found")
	ErrInvalidDueDate      = errors.New("invalid_due_date")
	ErrObligationExists    = errors.New("obligation_exists")
	ErrNotUnresolved       = errors.New("obligation_not_unresolved")
	ErrAlreadyResolved     = errors.New("obligation_already_resolved")
	ErrNotSettled          = errors.New("obligation_not_settled")
	ErrInvalidAmountPaid   = errors.New("invalid_amount_paid")
	ErrMissingWriteOffNote = errors.New("missing_write_off_note")
	ErrInvalidStatus       = errors.New("invalid_status")
)
