package stripe

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/paycalhq/paycal/internal/payment/domain"
)

const testSecret = "whsec_test"

func header(value string) http.Header {
	h := http.Header{}
	h.Set(SignatureHeader, value)
	return h
}

func TestVerifyAcceptsValidSignature(t *testing.T) {
	a := New(testSecret)
	payload := []byte(`{"id":"evt_1"}`)
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	if err := a.Verify(payload, header(Sign(testSecret, payload, now)), now); err != nil {
		t.Fatalf("expected valid signature, got %v", err)
	}
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	a := New(testSecret)
	payload := []byte(`{"id":"evt_1"}`)
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	err := a.Verify(payload, header(Sign("whsec_other", payload, now)), now)
	if !errors.Is(err, domain.ErrSignatureInvalid) {
		t.Fatalf("expected signature_invalid, got %v", err)
	}
}

func TestVerifyRejectsTamperedPayload(t *testing.T) {
	a := New(testSecret)
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	sig := Sign(testSecret, []byte(`{"amount":100}`), now)

	err := a.Verify([]byte(`{"amount":999}`), header(sig), now)
	if !errors.Is(err, domain.ErrSignatureInvalid) {
		t.Fatalf("expected signature_invalid, got %v", err)
	}
}

func TestVerifyRejectsStaleTimestamp(t *testing.T) {
	a := New(testSecret)
	payload := []byte(`{}`)
	signedAt := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	now := signedAt.Add(6 * time.Minute)

	err := a.Verify(payload, header(Sign(testSecret, payload, signedAt)), now)
	if !errors.Is(err, domain.ErrSignatureExpired) {
		t.Fatalf("expected signature_expired, got %v", err)
	}
}

func TestVerifyRejectsMissingHeader(t *testing.T) {
	a := New(testSecret)
	err := a.Verify([]byte(`{}`), http.Header{}, time.Now())
	if !errors.Is(err, domain.ErrSignatureInvalid) {
		t.Fatalf("expected signature_invalid, got %v", err)
	}
}

func invoicePayload(eventType string) []byte {
	return []byte(fmt.Sprintf(`{
		"id": "evt_123",
		"type": %q,
		"created": 1709294400,
		"data": {"object": {
			"id": "in_456",
			"customer_name": "Acme Web",
			"amount_due": 25000,
			"currency": "usd",
			"hosted_invoice_url": "https://pay.example.com/in_456"
		}}
	}`, eventType))
}

func TestParsePaymentSucceeded(t *testing.T) {
	a := New(testSecret)
	ev, err := a.Parse(invoicePayload("invoice.payment_succeeded"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if ev.Type != domain.EventPaymentSucceeded {
		t.Fatalf("expected payment_succeeded, got %s", ev.Type)
	}
	if ev.ProviderEventID != "evt_123" || ev.ProviderInvoiceID != "in_456" {
		t.Fatalf("unexpected identifiers: %+v", ev)
	}
	if ev.Amount != 25000 || ev.Currency != "USD" {
		t.Fatalf("unexpected amount/currency: %+v", ev)
	}
	if ev.OccurredAt != time.Unix(1709294400, 0).UTC() {
		t.Fatalf("unexpected occurred_at: %s", ev.OccurredAt)
	}
}

func TestParsePaymentFailed(t *testing.T) {
	a := New(testSecret)
	ev, err := a.Parse(invoicePayload("invoice.payment_failed"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if ev.Type != domain.EventPaymentFailed {
		t.Fatalf("expected payment_failed, got %s", ev.Type)
	}
}

func TestParseIgnoresUnrelatedEvents(t *testing.T) {
	a := New(testSecret)
	_, err := a.Parse(invoicePayload("customer.subscription.updated"))
	if !errors.Is(err, domain.ErrEventIgnored) {
		t.Fatalf("expected event_ignored, got %v", err)
	}
}

func TestParseRejectsMalformedPayload(t *testing.T) {
	a := New(testSecret)
	if _, err := a.Parse([]byte(`not json`)); !errors.Is(err, domain.ErrPayloadInvalid) {
		t.Fatalf("expected payload_invalid, got %v", err)
	}
	if _, err := a.Parse([]byte(`{"type":"invoice.payment_succeeded"}`)); !errors.Is(err, domain.ErrPayloadInvalid) {
		t.Fatalf("expected payload_invalid for missing ids, got %v", err)
	}
}
