package events

// Billing event types published to the outbox.
const (
	EventRuleCreated      = "payment_rule.created"
	EventRuleStopped      = "payment_rule.stopped"
	EventRuleDeleted      = "payment_rule.deleted"
	EventRuleDateExcluded = "payment_rule.date_excluded"

	EventObligationCreated    = "obligation.created"
	EventObligationSettled    = "obligation.settled"
	EventObligationWrittenOff = "obligation.written_off"
	EventObligationReopened   = "obligation.reopened"
	EventObligationEscalated  = "obligation.escalated"

	EventPaymentRecorded = "payment.recorded"
)

// Payload is the typed body of a billing event. EventFields returns the
// key/value pairs stored in the outbox row.
type Payload interface {
	EventFields() map[string]any
}

// RulePayload carries the identifying data of a payment rule event.
type RulePayload struct {
	RuleID     string
	ClientName string
	Date       string
}

func (p RulePayload) EventFields() map[string]any {
	fields := map[string]any{"rule_id": p.RuleID}
	if p.ClientName != "" {
		fields["client_name"] = p.ClientName
	}
	if p.Date != "" {
		fields["date"] = p.Date
	}
	return fields
}

// ObligationPayload carries the minimal data needed to consume an obligation event.
type ObligationPayload struct {
	ObligationID string
	RuleID       string
	Status       string
	DueDate      string
}

func (p ObligationPayload) EventFields() map[string]any {
	fields := map[string]any{
		"obligation_id": p.ObligationID,
		"status":        p.Status,
		"due_date":      p.DueDate,
	}
	if p.RuleID != "" {
		fields["rule_id"] = p.RuleID
	}
	return fields
}

// PaymentPayload carries the identifying data of a provider payment event.
type PaymentPayload struct {
	PaymentID string
	Provider  string
	InvoiceID string
	Status    string
	Date      string
}

func (p PaymentPayload) EventFields() map[string]any {
	return map[string]any{
		"payment_id": p.PaymentID,
		"provider":   p.Provider,
		"invoice_id": p.InvoiceID,
		"status":     p.Status,
		"date":       p.Date,
	}
}
