package stripe

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/paycalhq/paycal/internal/payment/domain"
)

const (
	// SignatureHeader carries the Stripe webhook signature.
	SignatureHeader = "Stripe-Signature"

	// signatureTolerance bounds how stale a signed timestamp may be.
	signatureTolerance = 5 * time.Minute
)

// Adapter verifies and parses Stripe webhook deliveries.
type Adapter struct {
	secret []byte
}

// New returns a Stripe webhook adapter using the given signing secret.
func New(secret string) *Adapter {
	return &Adapter{secret: []byte(secret)}
}

// Provider implements domain.Adapter.
func (a *Adapter) Provider() string { return "stripe" }

// Verify checks the Stripe-Signature header against the payload using
// the v1 HMAC-SHA256 scheme over "<timestamp>.<payload>".
func (a *Adapter) Verify(payload []byte, header http.Header, now time.Time) error {
	sig := header.Get(SignatureHeader)
	if sig == "" {
		return domain.ErrSignatureInvalid
	}

	var timestamp int64
	var signatures [][]byte
	for _, part := range strings.Split(sig, ",") {
		k, v, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			continue
		}
		switch k {
		case "t":
			ts, err := strconv.ParseInt(v, 10, 64)
			if err != nil {
				return domain.ErrSignatureInvalid
			}
			timestamp = ts
		case "v1":
			decoded, err := hex.DecodeString(v)
			if err != nil {
				continue
			}
			signatures = append(signatures, decoded)
		}
	}
	if timestamp == 0 || len(signatures) == 0 {
		return domain.ErrSignatureInvalid
	}

	signedAt := time.Unix(timestamp, 0)
	if now.Sub(signedAt) > signatureTolerance || signedAt.Sub(now) > signatureTolerance {
		return domain.ErrSignatureExpired
	}

	mac := hmac.New(sha256.New, a.secret)
	fmt.Fprintf(mac, "%d.", timestamp)
	mac.Write(payload)
	expected := mac.Sum(nil)

	for _, candidate := range signatures {
		if subtle.ConstantTimeCompare(expected, candidate) == 1 {
			return nil
		}
	}
	return domain.ErrSignatureInvalid
}

type stripeEvent struct {
	ID      string `json:"id"`
	Type    string `json:"type"`
	Created int64  `json:"created"`
	Data    struct {
		Object stripeInvoice `json:"object"`
	} `json:"data"`
}

type stripeInvoice struct {
	ID               string `json:"id"`
	CustomerName     string `json:"customer_name"`
	AmountDue        int64  `json:"amount_due"`
	Currency         string `json:"currency"`
	HostedInvoiceURL string `json:"hosted_invoice_url"`
}

// Parse normalizes invoice.payment_succeeded and invoice.payment_failed
// events. Every other event type returns ErrEventIgnored.
func (a *Adapter) Parse(payload []byte) (*domain.WebhookEvent, error) {
	var ev stripeEvent
	if err := json.Unmarshal(payload, &ev); err != nil {
		return nil, domain.ErrPayloadInvalid
	}
	if ev.ID == "" || ev.Data.Object.ID == "" {
		return nil, domain.ErrPayloadInvalid
	}

	var eventType domain.EventType
	switch ev.Type {
	case "invoice.payment_succeeded":
		eventType = domain.EventPaymentSucceeded
	case "invoice.payment_failed":
		eventType = domain.EventPaymentFailed
	default:
		return nil, domain.ErrEventIgnored
	}

	occurred := time.Unix(ev.Created, 0).UTC()
	return &domain.WebhookEvent{
		ProviderEventID:   ev.ID,
		Type:              eventType,
		ProviderInvoiceID: ev.Data.Object.ID,
		ClientName:        ev.Data.Object.CustomerName,
		Amount:            ev.Data.Object.AmountDue,
		Currency:          strings.ToUpper(ev.Data.Object.Currency),
		OccurredAt:        occurred,
		InvoiceURL:        ev.Data.Object.HostedInvoiceURL,
	}, nil
}

// Sign produces a Stripe-Signature header value for a payload. It exists
// for tests and local tooling.
func Sign(secret string, payload []byte, at time.Time) string {
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.", at.Unix())
	mac.Write(payload)
	return fmt.Sprintf("t=%d,v1=%s", at.Unix(), hex.EncodeToString(mac.Sum(nil)))
}
