package domain

import (
	"sort"
	"time"

	"github.com/bwmarrin/snowflake"
	obligationdomain "github.com/paycalhq/paycal/internal/obligation/domain"
	paymentdomain "github.com/paycalhq/paycal/internal/payment/domain"
	scheduledomain "github.com/paycalhq/paycal/internal/schedule/domain"
)

// Input bundles the three sources the calendar merges: projected
// occurrences, provider payment history, and the obligation ledger.
type Input struct {
	From        time.Time
	To          time.Time
	Today       time.Time
	Occurrences []scheduledomain.Occurrence
	Payments    []paymentdomain.Payment
	Obligations []obligationdomain.Obligation
}

// Reconcile merges occurrences, payments and obligations into a single
// classified calendar view. It is a pure function of its input: calling it
// twice with the same input yields the same view.
//
// Per-entry classification, first match wins:
//
//  1. an escalated stripe-origin obligation marks its entry failed
//  2. any other unresolved obligation marks its entry outstanding
//  3. a resolved obligation marks its entry paid
//  4. dates before today are paid
//  5. today is paid only when the entry's own client has a paid payment
//     for the date
//  6. everything else is upcoming
//
// Open obligations are always visible: an obligation matching no occurrence
// or payment in the window still produces its own entry.
func Reconcile(in Input) View {
	today := scheduledomain.DateOnly(in.Today)
	todayKey := scheduledomain.DateKey(in.Today)

	byRuleDate := make(map[ruleDateKey]*obligationdomain.Obligation)
	byPayment := make(map[snowflake.ID]*obligationdomain.Obligation)
	for i := range in.Obligations {
		o := &in.Obligations[i]
		if o.RuleID != nil {
			byRuleDate[ruleDateKey{*o.RuleID, o.DueDateKey}] = o
		}
		if o.PaymentID != nil {
			byPayment[*o.PaymentID] = o
		}
	}

	// Confirmation is per client per day: a paid charge for one client must
	// not mark another client's same-day entry paid.
	paidClientDates := make(map[clientDateKey]bool)
	for _, p := range in.Payments {
		if p.Status == paymentdomain.StatusPaid {
			paidClientDates[clientDateKey{p.ClientName, p.DateKey}] = true
		}
	}

	consumed := make(map[snowflake.ID]bool)
	entries := make([]Entry, 0, len(in.Occurrences)+len(in.Payments))

	for _, occ := range in.Occurrences {
		entry := Entry{
			Source:     SourceRule,
			ClientName: occ.ClientName,
			Amount:     occ.Amount,
			Currency:   occ.Currency,
			Date:       occ.Date,
			DateKey:    occ.DateKey,
		}
		ruleID := occ.RuleID
		entry.RuleID = &ruleID

		if o, ok := byRuleDate[ruleDateKey{occ.RuleID, occ.DateKey}]; ok {
			consumed[o.ID] = true
			id := o.ID
			entry.ObligationID = &id
			entry.Status = classifyObligation(o)
		} else {
			confirmed := paidClientDates[clientDateKey{occ.ClientName, occ.DateKey}]
			entry.Status = classifyByDate(occ.Date, today, confirmed)
		}
		entries = append(entries, entry)
	}

	for i := range in.Payments {
		p := &in.Payments[i]
		entry := Entry{
			Source:     SourcePayment,
			ClientName: p.ClientName,
			Amount:     p.Amount,
			Currency:   p.Currency,
			Date:       p.OccurredAt,
			DateKey:    p.DateKey,
			InvoiceURL: p.InvoiceURL,
		}
		id := p.ID
		entry.PaymentID = &id

		switch o, ok := byPayment[p.ID]; {
		case ok:
			consumed[o.ID] = true
			oid := o.ID
			entry.ObligationID = &oid
			entry.Status = classifyObligation(o)
		case p.Status == paymentdomain.StatusFailed:
			entry.Status = EntryFailed
		default:
			entry.Status = classifyByDate(p.OccurredAt, today, p.Status == paymentdomain.StatusPaid)
		}
		entries = append(entries, entry)
	}

	// Debt with no occurrence or payment in the window still shows up.
	for i := range in.Obligations {
		o := &in.Obligations[i]
		if consumed[o.ID] || !o.Status.Unresolved() {
			continue
		}
		id := o.ID
		entry := Entry{
			Source:       SourceRule,
			RuleID:       o.RuleID,
			PaymentID:    o.PaymentID,
			ObligationID: &id,
			ClientName:   o.ClientName,
			Amount:       o.Amount,
			Currency:     o.Currency,
			Date:         o.DueDate,
			DateKey:      o.DueDateKey,
			Status:       classifyObligation(o),
		}
		if o.PaymentID != nil {
			entry.Source = SourcePayment
		}
		entries = append(entries, entry)
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].DateKey != entries[j].DateKey {
			return entries[i].DateKey < entries[j].DateKey
		}
		return entries[i].ClientName < entries[j].ClientName
	})

	totals := Totals{}
	for _, e := range entries {
		switch e.Status {
		case EntryUpcoming:
			totals.Upcoming.Count++
			totals.Upcoming.Amount += e.Amount
		case EntryPaid:
			totals.Paid.Count++
			totals.Paid.Amount += e.Amount
		case EntryFailed:
			totals.Failed.Count++
			totals.Failed.Amount += e.Amount
		}
	}
	// Outstanding comes straight from the ledger, not from the entries, so
	// open debt is never understated by window or matching effects.
	for i := range in.Obligations {
		if in.Obligations[i].Status.Unresolved() {
			totals.Outstanding.Count++
			totals.Outstanding.Amount += in.Obligations[i].Amount
		}
	}

	return View{
		From:    scheduledomain.DateKey(in.From),
		To:      scheduledomain.DateKey(in.To),
		Today:   todayKey,
		Entries: entries,
		Totals:  totals,
	}
}

type ruleDateKey struct {
	ruleID  snowflake.ID
	dateKey string
}

type clientDateKey struct {
	clientName string
	dateKey    string
}

func classifyObligation(o *obligationdomain.Obligation) EntryStatus {
	switch {
	case o.Origin == obligationdomain.OriginStripe && o.Status.Escalated():
		return EntryFailed
	case o.Status.Unresolved():
		return EntryOutstanding
	default:
		return EntryPaid
	}
}

// classifyByDate resolves entries with no obligation attached. Past dates
// read as paid; today flips to paid only once the entry's own payment
// confirms, so an in-flight charge never flickers between paid and upcoming.
func classifyByDate(date time.Time, today time.Time, confirmed bool) EntryStatus {
	day := scheduledomain.DateOnly(date)
	switch {
	case day.Before(today):
		return EntryPaid
	case day.Equal(today) && confirmed:
		return EntryPaid
	default:
		return EntryUpcoming
	}
}
