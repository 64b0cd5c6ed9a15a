package domain

import (
	"strings"
	"time"
)

const dateKeyLayout = "2006-01-02"

// DateKey renders a calendar-date key for a time value.
func DateKey(t time.Time) string {
	return t.Format(dateKeyLayout)
}

// NormalizeDateKey reduces a date string to its YYYY-MM-DD calendar-date key.
// Plain dates and ISO timestamps normalize to the same key: the date portion
// is taken as written, never shifted across timezones, so "2024-03-05" and
// "2024-03-05T00:00:00Z" compare equal.
func NormalizeDateKey(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if len(raw) < len(dateKeyLayout) {
		return "", false
	}
	candidate := raw[:len(dateKeyLayout)]
	if _, err := time.Parse(dateKeyLayout, candidate); err != nil {
		return "", false
	}
	return candidate, true
}

// DateOnly truncates a time value to UTC midnight of its calendar date.
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Project generates the concrete occurrences of a rule inside the window.
//
// Dates advance from the rule's start date one period at a time. Monthly and
// yearly steps preserve the start date's day-of-month, clamping to the last
// day of shorter months (Jan 31 -> Feb 28/29). Generation stops at the first
// date past the window end. Occurrences whose calendar-date key is in the
// exclusion set are skipped. Inactive rules keep their history but generate
// nothing from today onward. Malformed input yields no occurrences; calendar
// math never fails a read path.
func Project(rule PaymentRule, window Window, today time.Time) []Occurrence {
	occurrences := []Occurrence{}
	if rule.StartDate.IsZero() || !rule.Frequency.Valid() {
		return occurrences
	}

	start := DateOnly(rule.StartDate)
	windowStart := DateOnly(window.Start)
	windowEnd := DateOnly(window.End)
	todayDate := DateOnly(today)
	excluded := rule.ExcludedKeys()

	for i := 0; ; i++ {
		date := advance(start, rule.Frequency, i)
		if date.IsZero() || date.After(windowEnd) {
			break
		}
		if date.Before(windowStart) {
			continue
		}
		isPast := date.Before(todayDate)
		if !rule.IsActive && !isPast {
			continue
		}
		key := DateKey(date)
		if _, skip := excluded[key]; skip {
			continue
		}
		occurrences = append(occurrences, Occurrence{
			RuleID:     rule.ID,
			ClientName: rule.ClientName,
			Amount:     rule.Amount,
			Currency:   rule.Currency,
			Date:       date,
			DateKey:    key,
			IsPast:     isPast,
		})
	}
	return occurrences
}

func advance(start time.Time, frequency Frequency, periods int) time.Time {
	switch frequency {
	case FrequencyWeekly:
		return start.AddDate(0, 0, 7*periods)
	case FrequencyMonthly:
		return addMonthsClamped(start, periods)
	case FrequencyYearly:
		return addMonthsClamped(start, 12*periods)
	}
	return time.Time{}
}

// addMonthsClamped adds calendar months while preserving the anchor
// day-of-month, clamping into shorter months instead of rolling over.
func addMonthsClamped(start time.Time, months int) time.Time {
	year, month, day := start.Date()
	total := int(month) - 1 + months
	targetYear := year + total/12
	targetMonth := time.Month(total%12 + 1)

	if last := daysInMonth(targetYear, targetMonth); day > last {
		day = last
	}
	return time.Date(targetYear, targetMonth, day, 0, 0, 0, 0, time.UTC)
}

func daysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
