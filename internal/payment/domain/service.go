package domain

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/bwmarrin/snowflake"
)

var (
	ErrProviderUnknown = errors.New("provider_unknown")
	ErrPayloadInvalid  = errors.New("payload_invalid")
)

// ListRequest bounds a payment history query.
type ListRequest struct {
	OrgID snowflake.ID
	From  time.Time
	To    time.Time
}

// IngestResult reports what a webhook delivery did.
type IngestResult struct {
	EventID   string `json:"event_id"`
	Duplicate bool   `json:"duplicate"`
	Ignored   bool   `json:"ignored"`
}

// Service ingests provider webhooks and serves payment history.
type Service interface {
	// IngestWebhook verifies, deduplicates and applies a provider
	// webhook delivery.
	IngestWebhook(ctx context.Context, provider string, payload []byte, header http.Header) (*IngestResult, error)

	// List returns payments whose occurrence date falls inside the
	// request window, ordered by occurrence date.
	List(ctx context.Context, req ListRequest) ([]Payment, error)
}
