package domain

import (
	"errors"
	"net/http"
	"time"
)

var (
	// ErrSignatureInvalid is returned when a webhook payload fails
	// signature verification.
	ErrSignatureInvalid = errors.New("signature_invalid")

	// ErrSignatureExpired is returned when a webhook signature timestamp
	// falls outside the accepted tolerance window.
	ErrSignatureExpired = errors.New("signature_expired")

	// ErrEventIgnored is returned by Parse for event types the system
	// does not act on. Ingestion acknowledges and drops them.
	ErrEventIgnored = errors.New("event_ignored")
)

// EventType identifies the normalized webhook event kinds the system
// reacts to.
type EventType string

const (
	EventPaymentSucceeded EventType = "payment_succeeded"
	EventPaymentFailed    EventType = "payment_failed"
)

// WebhookEvent is a provider webhook normalized into internal shape.
type WebhookEvent struct {
	ProviderEventID   string
	Type              EventType
	ProviderInvoiceID string
	ClientName        string
	Amount            int64
	Currency          string
	OccurredAt        time.Time
	InvoiceURL        string
}

// Adapter verifies and normalizes webhook payloads for one provider.
type Adapter interface {
	// Provider returns the provider identifier, e.g. "stripe".
	Provider() string

	// Verify authenticates the raw payload against request headers.
	Verify(payload []byte, header http.Header, now time.Time) error

	// Parse converts a verified payload into a WebhookEvent. It returns
	// ErrEventIgnored for event types that carry no billing meaning.
	Parse(payload []byte) (*WebhookEvent, error)
}
