package models

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestParseDirection(t *testing.T) {
	tests := []struct {
		in      string
		want    Direction
		wantErr bool
	}{
		{in: "deposit", want: Deposit},
		{in: "withdraw", want: Withdraw},
		{in: "Deposit", wantErr: true},
		{in: "", wantErr: true},
	}
	for _, tt := range tests {
		got, err := ParseDirection(tt.in)
		if tt.wantErr {
			var de *InvalidDirectionError
			if !errors.As(err, &de) {
				t.Errorf("ParseDirection(%q): expected *InvalidDirectionError, got %v", tt.in, err)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("ParseDirection(%q) = %v, %v; want %v", tt.in, got, err, tt.want)
		}
		if got.String() != tt.in {
			t.Errorf("String() = %q, want %q", got.String(), tt.in)
		}
	}
}

func TestParseInterval(t *testing.T) {
	for _, tag := range []string{"weekly", "bi-weekly", "monthly", "quarterly", "yearly"} {
		iv, err := ParseInterval(tag)
		if err != nil {
			t.Fatalf("ParseInterval(%q) failed: %v", tag, err)
		}
		if iv.String() != tag {
			t.Errorf("round trip %q -> %q", tag, iv.String())
		}
	}

	_, err := ParseInterval("daily")
	var ie *InvalidIntervalError
	if !errors.As(err, &ie) || ie.Tag != "daily" {
		t.Errorf("expected *InvalidIntervalError for daily, got %v", err)
	}
}

func TestDirectionSigned(t *testing.T) {
	amount := decimal.RequireFromString("50.00")
	if got := Deposit.Signed(amount); !got.Equal(amount) {
		t.Errorf("Deposit.Signed = %s", got)
	}
	if got := Withdraw.Signed(amount); !got.Equal(amount.Neg()) {
		t.Errorf("Withdraw.Signed = %s", got)
	}
	if Deposit.Opposite() != Withdraw || Withdraw.Opposite() != Deposit {
		t.Error("Opposite is not an involution")
	}
}

func TestDateUnix(t *testing.T) {
	d := NewDate(2024, time.January, 1)
	if d.Unix() != 1704067200 {
		t.Errorf("Unix() = %d", d.Unix())
	}
	if DateFromUnix(d.Unix()) != d {
		t.Errorf("DateFromUnix(%d) = %s", d.Unix(), DateFromUnix(d.Unix()))
	}
	// a timestamp later in the day still maps to the same calendar date
	if DateFromUnix(d.Unix()+23*3600) != d {
		t.Error("expected same day for 23:00 UTC")
	}
}

func TestNewDateNormalizes(t *testing.T) {
	if got, want := NewDate(2024, time.January, 32), NewDate(2024, time.February, 1); got != want {
		t.Errorf("NewDate(2024-01-32) = %s, want %s", got, want)
	}
}

func TestAddMonthsClamps(t *testing.T) {
	tests := []struct {
		from Date
		n    int
		want Date
	}{
		{NewDate(2024, time.January, 31), 1, NewDate(2024, time.February, 29)},
		{NewDate(2024, time.October, 31), 3, NewDate(2025, time.January, 31)},
		{NewDate(2024, time.August, 31), 1, NewDate(2024, time.September, 30)},
		{NewDate(2024, time.March, 31), -1, NewDate(2024, time.February, 29)},
	}
	for _, tt := range tests {
		if got := tt.from.AddMonths(tt.n); got != tt.want {
			t.Errorf("%s.AddMonths(%d) = %s, want %s", tt.from, tt.n, got, tt.want)
		}
	}
}

func TestRuleJSON(t *testing.T) {
	rule := RecurringRule{
		ID:          "r1",
		AccountID:   "a1",
		StartDate:   NewDate(2024, time.January, 1),
		Description: "Salary",
		Direction:   Deposit,
		Interval:    BiWeekly,
		Amount:      decimal.RequireFromString("100.00"),
	}
	data, err := json.Marshal(rule)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	var got RecurringRule
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if got.StartDate != rule.StartDate || got.Interval != BiWeekly || got.Direction != Deposit {
		t.Errorf("unexpected decode: %+v from %s", got, data)
	}
	if got.HasProgress() {
		t.Error("null marker should decode as unset")
	}
}

func TestIntervalUnmarshalRejectsUnknown(t *testing.T) {
	var rule RecurringRule
	err := json.Unmarshal([]byte(`{"interval":"hourly"}`), &rule)
	var ie *InvalidIntervalError
	if !errors.As(err, &ie) {
		t.Errorf("expected *InvalidIntervalError, got %v", err)
	}
}
