package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/paycalhq/paycal/pkg/db/pagination"
)

type CreateRuleRequest struct {
	ClientName string
	Amount     int64
	Currency   string
	Frequency  Frequency
	StartDate  time.Time
}

type ListRuleRequest struct {
	PageToken  string
	PageSize   int32
	ClientName string
	ActiveOnly bool
}

type ListRuleResponse struct {
	pagination.PageInfo
	Rules []PaymentRule `json:"rules"`
}

// Service manages payment rules. Rules feed the projector; they are never
// mutated by projection itself.
type Service interface {
	Create(ctx context.Context, req CreateRuleRequest) (PaymentRule, error)
	List(ctx context.Context, req ListRuleRequest) (ListRuleResponse, error)
	GetByID(ctx context.Context, id snowflake.ID) (PaymentRule, error)
	// Stop freezes future generation for a rule but preserves history.
	Stop(ctx context.Context, id snowflake.ID) (PaymentRule, error)
	// ExcludeDate removes a single occurrence date from the rule's series.
	ExcludeDate(ctx context.Context, id snowflake.ID, date string) (PaymentRule, error)
	// Delete removes the rule and the obligations derived from it.
	Delete(ctx context.Context, id snowflake.ID) error
}

var (
	ErrInvalidOrganization = errors.New("invalid_organization")
	ErrInvalidClientName   = errors.New("invalid_client_name")
	ErrInvalidAmount       = errors.New("invalid_amount")
	ErrInvalidCurrency     = errors.New("invalid_currency")
	ErrInvalidFrequency    = errors.New("invalid_frequency")
	ErrInvalidStartDate    = errors.New("invalid_start_date")
	ErrInvalidExcludedDate = errors.New("invalid_excluded_date")
	ErrInvalidRuleID       = errors.New("invalid_rule_id")
	ErrRuleNotFound        = errors.New("rule_not_found")
	ErrRuleAlreadyStopped  = errors.New("rule_already_stopped")
)
