package recurrence

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/sheikh-saqib/personal-finance-ledger/internal/models"
)

func date(y int, m time.Month, d int) models.Date { return models.NewDate(y, m, d) }

func TestAdvance(t *testing.T) {
	tests := []struct {
		name string
		from models.Date
		iv   models.Interval
		want models.Date
	}{
		{"weekly", date(2024, time.January, 1), models.Weekly, date(2024, time.January, 8)},
		{"weekly across month", date(2024, time.January, 29), models.Weekly, date(2024, time.February, 5)},
		{"bi-weekly", date(2024, time.January, 1), models.BiWeekly, date(2024, time.January, 15)},
		{"bi-weekly across year", date(2024, time.December, 25), models.BiWeekly, date(2025, time.January, 8)},
		{"monthly", date(2024, time.January, 15), models.Monthly, date(2024, time.February, 15)},
		{"monthly clamps to leap february", date(2024, time.January, 31), models.Monthly, date(2024, time.February, 29)},
		{"monthly clamps to february", date(2023, time.January, 31), models.Monthly, date(2023, time.February, 28)},
		{"monthly clamps to 30-day month", date(2024, time.March, 31), models.Monthly, date(2024, time.April, 30)},
		{"monthly across year", date(2024, time.December, 10), models.Monthly, date(2025, time.January, 10)},
		{"quarterly", date(2024, time.January, 1), models.Quarterly, date(2024, time.April, 1)},
		{"quarterly clamps", date(2024, time.November, 30), models.Quarterly, date(2025, time.February, 28)},
		{"yearly", date(2023, time.June, 15), models.Yearly, date(2024, time.June, 15)},
		{"yearly from leap day", date(2024, time.February, 29), models.Yearly, date(2025, time.February, 28)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Advance(tt.from, tt.iv); got != tt.want {
				t.Errorf("Advance(%s, %s) = %s, want %s", tt.from, tt.iv, got, tt.want)
			}
		})
	}
}

func TestAdvanceAlwaysMovesForward(t *testing.T) {
	intervals := []models.Interval{models.Weekly, models.BiWeekly, models.Monthly, models.Quarterly, models.Yearly}
	starts := []models.Date{
		date(2024, time.January, 31),
		date(2024, time.February, 29),
		date(2023, time.December, 31),
		date(2000, time.August, 31),
	}

	for _, iv := range intervals {
		for _, start := range starts {
			d := start
			for i := 0; i < 60; i++ {
				next := Advance(d, iv)
				if !next.After(d) {
					t.Fatalf("%s: Advance(%s) = %s did not move forward", iv, d, next)
				}
				d = next
			}
		}
	}
}

func TestMonthlyDriftIsIterative(t *testing.T) {
	// each step is applied to the previous occurrence, not to the start date
	rule := models.RecurringRule{StartDate: date(2024, time.January, 31), Interval: models.Monthly}
	got := Occurrences(rule, date(2024, time.April, 30))
	want := []models.Date{
		date(2024, time.January, 31),
		date(2024, time.February, 29),
		date(2024, time.March, 29),
		date(2024, time.April, 29),
	}
	if diff := cmp.Diff(want, got, cmp.AllowUnexported(models.Date{})); diff != "" {
		t.Errorf("Occurrences mismatch (-want +got):\n%s", diff)
	}
}

func TestFirstDue(t *testing.T) {
	rule := models.RecurringRule{StartDate: date(2024, time.January, 1), Interval: models.Monthly}
	if got := FirstDue(rule); got != rule.StartDate {
		t.Errorf("without marker: FirstDue = %s, want start %s", got, rule.StartDate)
	}

	rule.LastMaterialized = date(2024, time.March, 1)
	if got, want := FirstDue(rule), date(2024, time.April, 1); got != want {
		t.Errorf("with marker: FirstDue = %s, want %s", got, want)
	}
}

func TestOccurrencesBounds(t *testing.T) {
	start := date(2024, time.January, 1)
	tests := []struct {
		name  string
		rule  models.RecurringRule
		today models.Date
		want  []models.Date
	}{
		{
			name:  "start is today",
			rule:  models.RecurringRule{StartDate: start, Interval: models.Monthly},
			today: start,
			want:  nil,
		},
		{
			name:  "start is yesterday",
			rule:  models.RecurringRule{StartDate: start, Interval: models.Monthly},
			today: start.AddDays(1),
			want:  []models.Date{start},
		},
		{
			name:  "start in the future",
			rule:  models.RecurringRule{StartDate: date(2025, time.January, 1), Interval: models.Weekly},
			today: start,
			want:  nil,
		},
		{
			name:  "occurrence on today is not due",
			rule:  models.RecurringRule{StartDate: start, Interval: models.Monthly},
			today: date(2024, time.April, 1),
			want:  []models.Date{start, date(2024, time.February, 1), date(2024, time.March, 1)},
		},
		{
			name:  "bi-weekly strict bound",
			rule:  models.RecurringRule{StartDate: start, Interval: models.BiWeekly},
			today: date(2024, time.February, 1),
			want:  []models.Date{start, date(2024, time.January, 15), date(2024, time.January, 29)},
		},
		{
			name: "resumes after marker",
			rule: models.RecurringRule{StartDate: start, Interval: models.Monthly,
				LastMaterialized: date(2024, time.February, 1)},
			today: date(2024, time.April, 2),
			want:  []models.Date{date(2024, time.March, 1), date(2024, time.April, 1)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Occurrences(tt.rule, tt.today)
			if diff := cmp.Diff(tt.want, got, cmp.AllowUnexported(models.Date{})); diff != "" {
				t.Errorf("Occurrences mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
