package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// EntryStatus classifies a calendar entry for display.
type EntryStatus string

const (
	EntryPaid        EntryStatus = "paid"
	EntryUpcoming    EntryStatus = "upcoming"
	EntryOutstanding EntryStatus = "outstanding"
	EntryFailed      EntryStatus = "failed"
)

// EntrySource marks where a calendar entry originated.
type EntrySource string

const (
	SourceRule    EntrySource = "rule"
	SourcePayment EntrySource = "payment"
)

// Entry is one dated line on the payment calendar.
type Entry struct {
	Source       EntrySource   `json:"source"`
	RuleID       *snowflake.ID `json:"rule_id,omitempty"`
	PaymentID    *snowflake.ID `json:"payment_id,omitempty"`
	ObligationID *snowflake.ID `json:"obligation_id,omitempty"`
	ClientName   string        `json:"client_name"`
	Amount       int64         `json:"amount"`
	Currency     string        `json:"currency"`
	Date         time.Time     `json:"date"`
	DateKey      string        `json:"date_key"`
	Status       EntryStatus   `json:"status"`
	InvoiceURL   string        `json:"invoice_url,omitempty"`
}

// Aggregate is a count plus a minor-unit amount sum.
type Aggregate struct {
	Count  int   `json:"count"`
	Amount int64 `json:"amount"`
}

// Totals summarizes the calendar window. Outstanding sums open debt from the
// obligation ledger directly, so debt outside the window still counts.
type Totals struct {
	Upcoming    Aggregate `json:"upcoming"`
	Paid        Aggregate `json:"paid"`
	Outstanding Aggregate `json:"outstanding"`
	Failed      Aggregate `json:"failed"`
}

// View is the reconciled calendar for a window.
type View struct {
	From    string  `json:"from"`
	To      string  `json:"to"`
	Today   string  `json:"today"`
	Entries []Entry `json:"entries"`
	Totals  Totals  `json:"totals"`
}
