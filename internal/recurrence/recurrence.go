// Package recurrence does the calendar arithmetic for recurring rules.
package recurrence

import "github.com/sheikh-saqib/personal-finance-ledger/internal/models"

// Advance returns d moved forward by exactly one interval.
// Monthly, quarterly and yearly steps keep the day of month where the target month has it
// and clamp to the month's last day otherwise (Jan 31 + 1 month = Feb 28 or 29).
func Advance(d models.Date, iv models.Interval) models.Date {
	switch iv {
	case models.Weekly:
		return d.AddDays(7)
	case models.BiWeekly:
		return d.AddDays(14)
	case models.Monthly:
		return d.AddMonths(1)
	case models.Quarterly:
		return d.AddMonths(3)
	case models.Yearly:
		return d.AddMonths(12)
	}
	// unreachable for valid intervals; the caller's forward-progress check catches it
	return d
}

// FirstDue returns the first occurrence of rule that has not been materialized yet:
// the start date when nothing has been materialized, otherwise one interval after the marker.
func FirstDue(rule models.RecurringRule) models.Date {
	if !rule.HasProgress() {
		return rule.StartDate
	}
	return Advance(rule.LastMaterialized, rule.Interval)
}

// Occurrences lists the dates of rule that are due strictly before today
// and have not been materialized yet. It does not touch any store.
func Occurrences(rule models.RecurringRule, today models.Date) []models.Date {
	var dates []models.Date
	for cursor := FirstDue(rule); cursor.Before(today); {
		dates = append(dates, cursor)
		next := Advance(cursor, rule.Interval)
		if !next.After(cursor) {
			break
		}
		cursor = next
	}
	return dates
}
