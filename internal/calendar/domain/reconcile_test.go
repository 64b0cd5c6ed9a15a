package domain

import (
	"reflect"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	obligationdomain "github.com/paycalhq/paycal/internal/obligation/domain"
	paymentdomain "github.com/paycalhq/paycal/internal/payment/domain"
	scheduledomain "github.com/paycalhq/paycal/internal/schedule/domain"
)

var (
	today   = time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	winFrom = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	winTo   = time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC)
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func occurrence(ruleID snowflake.ID, date time.Time, amount int64) scheduledomain.Occurrence {
	return scheduledomain.Occurrence{
		RuleID:     ruleID,
		ClientName: "Acme Web",
		Amount:     amount,
		Currency:   "USD",
		Date:       date,
		DateKey:    scheduledomain.DateKey(date),
		IsPast:     date.Before(today),
	}
}

func reconcileInput(occs []scheduledomain.Occurrence, pays []paymentdomain.Payment, obls []obligationdomain.Obligation) Input {
	return Input{
		From:        winFrom,
		To:          winTo,
		Today:       today,
		Occurrences: occs,
		Payments:    pays,
		Obligations: obls,
	}
}

func entryFor(t *testing.T, view View, dateKey string) Entry {
	t.Helper()
	for _, e := range view.Entries {
		if e.DateKey == dateKey {
			return e
		}
	}
	t.Fatalf("no entry for %s in %+v", dateKey, view.Entries)
	return Entry{}
}

func TestReconcilePastOccurrencesReadAsPaid(t *testing.T) {
	view := Reconcile(reconcileInput(
		[]scheduledomain.Occurrence{
			occurrence(1, day(2024, 2, 15), 5000),
			occurrence(1, day(2024, 3, 15), 5000),
			occurrence(1, day(2024, 4, 15), 5000),
		},
		nil, nil,
	))

	if got := entryFor(t, view, "2024-02-15").Status; got != EntryPaid {
		t.Fatalf("past occurrence: expected paid, got %s", got)
	}
	if got := entryFor(t, view, "2024-04-15").Status; got != EntryUpcoming {
		t.Fatalf("future occurrence: expected upcoming, got %s", got)
	}
	if view.Totals.Paid.Amount != 5000 || view.Totals.Upcoming.Amount != 10000 {
		t.Fatalf("unexpected totals: %+v", view.Totals)
	}
}

func TestReconcileTodayStaysUpcomingUntilPaymentConfirms(t *testing.T) {
	// An occurrence due today must not read as paid while the charge is
	// still processing.
	processing := paymentdomain.Payment{
		ID:         1001,
		ClientName: "Acme Web",
		Amount:     5000,
		Currency:   "USD",
		Status:     paymentdomain.StatusProcessing,
		OccurredAt: today,
		DateKey:    "2024-03-15",
	}
	view := Reconcile(reconcileInput(
		[]scheduledomain.Occurrence{occurrence(1, today, 5000)},
		[]paymentdomain.Payment{processing},
		nil,
	))

	for _, e := range view.Entries {
		if e.Status == EntryPaid {
			t.Fatalf("entry read as paid before confirmation: %+v", e)
		}
	}
}

func TestReconcileTodayConfirmationIsPerClient(t *testing.T) {
	// One client's paid charge must not mark another client's same-day
	// entries paid.
	paid := paymentdomain.Payment{
		ID:         1003,
		ClientName: "Acme Web",
		Amount:     5000,
		Currency:   "USD",
		Status:     paymentdomain.StatusPaid,
		OccurredAt: today,
		DateKey:    "2024-03-15",
	}
	processing := paymentdomain.Payment{
		ID:         1004,
		ClientName: "Globex",
		Amount:     7000,
		Currency:   "USD",
		Status:     paymentdomain.StatusProcessing,
		OccurredAt: today,
		DateKey:    "2024-03-15",
	}
	unpaidOccurrence := scheduledomain.Occurrence{
		RuleID:     2,
		ClientName: "Initech",
		Amount:     9000,
		Currency:   "USD",
		Date:       today,
		DateKey:    "2024-03-15",
	}
	view := Reconcile(reconcileInput(
		[]scheduledomain.Occurrence{unpaidOccurrence},
		[]paymentdomain.Payment{paid, processing},
		nil,
	))

	byClient := make(map[string]EntryStatus)
	for _, e := range view.Entries {
		byClient[e.ClientName] = e.Status
	}
	if byClient["Acme Web"] != EntryPaid {
		t.Fatalf("paid payment: expected paid, got %s", byClient["Acme Web"])
	}
	if byClient["Globex"] != EntryUpcoming {
		t.Fatalf("processing payment on its due date: expected upcoming, got %s", byClient["Globex"])
	}
	if byClient["Initech"] != EntryUpcoming {
		t.Fatalf("occurrence with no payment: expected upcoming, got %s", byClient["Initech"])
	}
}

func TestReconcileTodayPaidOncePaymentConfirms(t *testing.T) {
	paid := paymentdomain.Payment{
		ID:         1002,
		ClientName: "Acme Web",
		Amount:     5000,
		Currency:   "USD",
		Status:     paymentdomain.StatusPaid,
		OccurredAt: today,
		DateKey:    "2024-03-15",
	}
	view := Reconcile(reconcileInput(
		[]scheduledomain.Occurrence{occurrence(1, today, 5000)},
		[]paymentdomain.Payment{paid},
		nil,
	))

	for _, e := range view.Entries {
		if e.Status != EntryPaid {
			t.Fatalf("expected paid once payment confirms, got %+v", e)
		}
	}
}

func TestReconcileUnresolvedObligationMarksOutstanding(t *testing.T) {
	ruleID := snowflake.ID(7)
	due := day(2024, 2, 15)
	obligation := obligationdomain.Obligation{
		ID:         501,
		RuleID:     &ruleID,
		Origin:     obligationdomain.OriginCustom,
		ClientName: "Acme Web",
		Amount:     5000,
		Currency:   "USD",
		DueDate:    due,
		DueDateKey: "2024-02-15",
		Status:     obligationdomain.StatusPending,
	}
	view := Reconcile(reconcileInput(
		[]scheduledomain.Occurrence{occurrence(ruleID, due, 5000)},
		nil,
		[]obligationdomain.Obligation{obligation},
	))

	e := entryFor(t, view, "2024-02-15")
	if e.Status != EntryOutstanding {
		t.Fatalf("expected outstanding, got %s", e.Status)
	}
	if e.ObligationID == nil || *e.ObligationID != 501 {
		t.Fatalf("expected obligation link, got %+v", e)
	}
	if view.Totals.Outstanding.Count != 1 || view.Totals.Outstanding.Amount != 5000 {
		t.Fatalf("unexpected outstanding totals: %+v", view.Totals)
	}
}

func TestReconcileSettledObligationReadsAsPaid(t *testing.T) {
	ruleID := snowflake.ID(7)
	due := day(2024, 2, 15)
	settledAt := day(2024, 2, 20)
	obligation := obligationdomain.Obligation{
		ID:         502,
		RuleID:     &ruleID,
		Origin:     obligationdomain.OriginCustom,
		ClientName: "Acme Web",
		Amount:     5000,
		Currency:   "USD",
		DueDate:    due,
		DueDateKey: "2024-02-15",
		Status:     obligationdomain.StatusSettled,
		SettledAt:  &settledAt,
	}
	view := Reconcile(reconcileInput(
		[]scheduledomain.Occurrence{occurrence(ruleID, due, 5000)},
		nil,
		[]obligationdomain.Obligation{obligation},
	))

	if got := entryFor(t, view, "2024-02-15").Status; got != EntryPaid {
		t.Fatalf("expected paid after settlement, got %s", got)
	}
	if view.Totals.Outstanding.Count != 0 {
		t.Fatalf("settled debt must not count as outstanding: %+v", view.Totals)
	}
}

func TestReconcileEscalatedStripeObligationReadsAsFailed(t *testing.T) {
	paymentID := snowflake.ID(1003)
	failed := paymentdomain.Payment{
		ID:                paymentID,
		Provider:          "stripe",
		ProviderInvoiceID: "in_900",
		ClientName:        "Acme Web",
		Amount:            5000,
		Currency:          "USD",
		Status:            paymentdomain.StatusFailed,
		OccurredAt:        day(2024, 3, 1),
		DateKey:           "2024-03-01",
	}
	obligation := obligationdomain.Obligation{
		ID:         503,
		PaymentID:  &paymentID,
		Origin:     obligationdomain.OriginStripe,
		ClientName: "Acme Web",
		Amount:     5000,
		Currency:   "USD",
		DueDate:    day(2024, 3, 1),
		DueDateKey: "2024-03-01",
		Status:     obligationdomain.StatusRetrying,
	}
	view := Reconcile(reconcileInput(
		nil,
		[]paymentdomain.Payment{failed},
		[]obligationdomain.Obligation{obligation},
	))

	e := entryFor(t, view, "2024-03-01")
	if e.Status != EntryFailed {
		t.Fatalf("expected failed, got %s", e.Status)
	}
	if view.Totals.Failed.Count != 1 || view.Totals.Failed.Amount != 5000 {
		t.Fatalf("unexpected failed totals: %+v", view.Totals)
	}
	// Escalated debt is still open debt.
	if view.Totals.Outstanding.Count != 1 {
		t.Fatalf("escalated obligation must stay in outstanding: %+v", view.Totals)
	}
}

func TestReconcileOrphanObligationStaysVisible(t *testing.T) {
	// Debt whose rule was stopped, or whose due date fell outside the
	// window, still appears on the calendar.
	ruleID := snowflake.ID(9)
	obligation := obligationdomain.Obligation{
		ID:         504,
		RuleID:     &ruleID,
		Origin:     obligationdomain.OriginCustom,
		ClientName: "Old Client",
		Amount:     7500,
		Currency:   "USD",
		DueDate:    day(2023, 11, 15),
		DueDateKey: "2023-11-15",
		Status:     obligationdomain.StatusDelinquent,
	}
	view := Reconcile(reconcileInput(nil, nil, []obligationdomain.Obligation{obligation}))

	e := entryFor(t, view, "2023-11-15")
	if e.Status != EntryOutstanding {
		t.Fatalf("expected outstanding for custom delinquent debt, got %s", e.Status)
	}
	if view.Totals.Outstanding.Amount != 7500 {
		t.Fatalf("unexpected totals: %+v", view.Totals)
	}
}

func TestReconcileEntriesSortedByDate(t *testing.T) {
	view := Reconcile(reconcileInput(
		[]scheduledomain.Occurrence{
			occurrence(1, day(2024, 4, 15), 5000),
			occurrence(1, day(2024, 2, 15), 5000),
			occurrence(1, day(2024, 3, 15), 5000),
		},
		nil, nil,
	))

	var keys []string
	for _, e := range view.Entries {
		keys = append(keys, e.DateKey)
	}
	want := []string{"2024-02-15", "2024-03-15", "2024-04-15"}
	if !reflect.DeepEqual(keys, want) {
		t.Fatalf("expected %v, got %v", want, keys)
	}
}

func TestReconcileIsDeterministic(t *testing.T) {
	ruleID := snowflake.ID(7)
	in := reconcileInput(
		[]scheduledomain.Occurrence{
			occurrence(ruleID, day(2024, 2, 15), 5000),
			occurrence(ruleID, day(2024, 3, 15), 5000),
		},
		[]paymentdomain.Payment{{
			ID:         1004,
			ClientName: "Acme Web",
			Amount:     5000,
			Currency:   "USD",
			Status:     paymentdomain.StatusPaid,
			OccurredAt: day(2024, 1, 15),
			DateKey:    "2024-01-15",
		}},
		[]obligationdomain.Obligation{{
			ID:         505,
			RuleID:     &ruleID,
			Origin:     obligationdomain.OriginCustom,
			ClientName: "Acme Web",
			Amount:     5000,
			Currency:   "USD",
			DueDate:    day(2024, 2, 15),
			DueDateKey: "2024-02-15",
			Status:     obligationdomain.StatusGrace,
		}},
	)

	first := Reconcile(in)
	second := Reconcile(in)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("reconcile is not deterministic:\n%+v\n%+v", first, second)
	}
}
