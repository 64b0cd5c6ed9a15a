package domain

import (
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func monthlyRule(start time.Time) PaymentRule {
	return PaymentRule{
		ID:         7,
		ClientName: "Acme Web",
		Amount:     10000,
		Currency:   "USD",
		Frequency:  FrequencyMonthly,
		StartDate:  start,
		IsActive:   true,
	}
}

func TestProjectMonthlySkipsExcludedDate(t *testing.T) {
	rule := monthlyRule(date(2024, time.January, 15))
	rule.ExcludedDates = []string{"2024-03-15"}

	window := Window{Start: date(2024, time.January, 1), End: date(2024, time.April, 30)}
	got := Project(rule, window, date(2024, time.June, 1))

	want := []string{"2024-01-15", "2024-02-15", "2024-04-15"}
	if len(got) != len(want) {
		t.Fatalf("expected %d occurrences, got %d", len(want), len(got))
	}
	for i, key := range want {
		if got[i].DateKey != key {
			t.Fatalf("occurrence %d: expected %s, got %s", i, key, got[i].DateKey)
		}
	}
}

func TestProjectTwelveMonthWindow(t *testing.T) {
	rule := monthlyRule(date(2024, time.January, 15))
	window := Window{Start: date(2024, time.January, 1), End: date(2024, time.December, 31)}

	got := Project(rule, window, date(2024, time.January, 1))
	if len(got) != 12 {
		t.Fatalf("expected 12 occurrences, got %d", len(got))
	}
	for _, occ := range got {
		if occ.Date.Day() != 15 {
			t.Fatalf("expected day-of-month 15, got %s", occ.DateKey)
		}
	}
}

func TestProjectMonthEndClamps(t *testing.T) {
	rule := monthlyRule(date(2024, time.January, 31))
	window := Window{Start: date(2024, time.January, 1), End: date(2024, time.April, 30)}

	got := Project(rule, window, date(2025, time.January, 1))
	want := []string{"2024-01-31", "2024-02-29", "2024-03-31", "2024-04-30"}
	if len(got) != len(want) {
		t.Fatalf("expected %d occurrences, got %d", len(want), len(got))
	}
	for i, key := range want {
		if got[i].DateKey != key {
			t.Fatalf("occurrence %d: expected %s, got %s", i, key, got[i].DateKey)
		}
	}
}

func TestProjectExclusionNormalizesTimestamps(t *testing.T) {
	window := Window{Start: date(2024, time.January, 1), End: date(2024, time.April, 30)}
	today := date(2024, time.June, 1)

	plain := monthlyRule(date(2024, time.January, 15))
	plain.ExcludedDates = []string{"2024-03-15"}

	timestamped := monthlyRule(date(2024, time.January, 15))
	timestamped.ExcludedDates = []string{"2024-03-15T00:00:00Z"}

	a := Project(plain, window, today)
	b := Project(timestamped, window, today)
	if len(a) != len(b) {
		t.Fatalf("expected identical projections, got %d vs %d", len(a), len(b))
	}
	for _, occ := range a {
		if occ.DateKey == "2024-03-15" {
			t.Fatalf("excluded date was generated")
		}
	}
}

func TestProjectStoppedRuleKeepsHistoryOnly(t *testing.T) {
	rule := monthlyRule(date(2024, time.January, 15))
	rule.IsActive = false

	window := Window{Start: date(2024, time.January, 1), End: date(2024, time.December, 31)}
	today := date(2024, time.March, 15)

	got := Project(rule, window, today)
	want := []string{"2024-01-15", "2024-02-15"}
	if len(got) != len(want) {
		t.Fatalf("expected %d occurrences, got %d", len(want), len(got))
	}
	for i, key := range want {
		if got[i].DateKey != key {
			t.Fatalf("occurrence %d: expected %s, got %s", i, key, got[i].DateKey)
		}
		if !got[i].IsPast {
			t.Fatalf("occurrence %s should be past", key)
		}
	}
}

func TestProjectStartAfterWindowEnd(t *testing.T) {
	rule := monthlyRule(date(2025, time.June, 1))
	window := Window{Start: date(2024, time.January, 1), End: date(2024, time.December, 31)}

	if got := Project(rule, window, date(2024, time.June, 1)); len(got) != 0 {
		t.Fatalf("expected empty projection, got %d occurrences", len(got))
	}
}

func TestProjectWeekly(t *testing.T) {
	rule := monthlyRule(date(2024, time.March, 4))
	rule.Frequency = FrequencyWeekly

	window := Window{Start: date(2024, time.March, 1), End: date(2024, time.March, 31)}
	got := Project(rule, window, date(2024, time.June, 1))

	want := []string{"2024-03-04", "2024-03-11", "2024-03-18", "2024-03-25"}
	if len(got) != len(want) {
		t.Fatalf("expected %d occurrences, got %d", len(want), len(got))
	}
	for i, key := range want {
		if got[i].DateKey != key {
			t.Fatalf("occurrence %d: expected %s, got %s", i, key, got[i].DateKey)
		}
	}
}

func TestProjectYearlyLeapDayClamps(t *testing.T) {
	rule := monthlyRule(date(2024, time.February, 29))
	rule.Frequency = FrequencyYearly

	window := Window{Start: date(2024, time.January, 1), End: date(2026, time.December, 31)}
	got := Project(rule, window, date(2027, time.January, 1))

	want := []string{"2024-02-29", "2025-02-28", "2026-02-28"}
	if len(got) != len(want) {
		t.Fatalf("expected %d occurrences, got %d", len(want), len(got))
	}
	for i, key := range want {
		if got[i].DateKey != key {
			t.Fatalf("occurrence %d: expected %s, got %s", i, key, got[i].DateKey)
		}
	}
}

func TestProjectMalformedInputs(t *testing.T) {
	rule := monthlyRule(time.Time{})
	window := Window{Start: date(2024, time.January, 1), End: date(2024, time.December, 31)}
	if got := Project(rule, window, date(2024, time.June, 1)); len(got) != 0 {
		t.Fatalf("expected no occurrences for zero start date")
	}

	bad := monthlyRule(date(2024, time.January, 15))
	bad.Frequency = Frequency("fortnightly")
	if got := Project(bad, window, date(2024, time.June, 1)); len(got) != 0 {
		t.Fatalf("expected no occurrences for unknown frequency")
	}
}

func TestNormalizeDateKey(t *testing.T) {
	cases := []struct {
		in   string
		want string
		ok   bool
	}{
		{"2024-03-05", "2024-03-05", true},
		{"2024-03-05T00:00:00Z", "2024-03-05", true},
		{" 2024-03-05T10:30:00+07:00 ", "2024-03-05", true},
		{"not-a-date", "", false},
		{"2024-13-40", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, ok := NormalizeDateKey(tc.in)
		if ok != tc.ok || got != tc.want {
			t.Fatalf("NormalizeDateKey(%q) = %q,%v; want %q,%v", tc.in, got, ok, tc.want, tc.ok)
		}
	}
}

func TestDefaultWindowSpansFourYears(t *testing.T) {
	w := DefaultWindow(date(2025, time.September, 10))
	if w.Start != date(2023, time.September, 1) {
		t.Fatalf("unexpected window start %s", w.Start)
	}
	if w.End != date(2027, time.September, 30) {
		t.Fatalf("unexpected window end %s", w.End)
	}
}
