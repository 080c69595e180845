package models

import "fmt"

// Interval is the period between two occurrences of a recurring rule.
type Interval int

const (
	Weekly Interval = iota
	BiWeekly
	Monthly
	Quarterly
	Yearly
)

var intervalNames = [...]string{
	Weekly:    "weekly",
	BiWeekly:  "bi-weekly",
	Monthly:   "monthly",
	Quarterly: "quarterly",
	Yearly:    "yearly",
}

// InvalidIntervalError is returned for an unrecognized interval tag. Reading one back
// from the store means the row is corrupt.
type InvalidIntervalError struct {
	Tag string
}

func (e *InvalidIntervalError) Error() string {
	return fmt.Sprintf("invalid recurring interval %q", e.Tag)
}

// ParseInterval maps a serialized tag such as "bi-weekly" to an Interval.
func ParseInterval(s string) (Interval, error) {
	for iv, name := range intervalNames {
		if name == s {
			return Interval(iv), nil
		}
	}
	return 0, &InvalidIntervalError{Tag: s}
}

func (iv Interval) String() string {
	if !iv.Valid() {
		return fmt.Sprintf("Interval(%d)", int(iv))
	}
	return intervalNames[iv]
}

// Valid reports whether iv is one of the defined intervals.
func (iv Interval) Valid() bool { return iv >= Weekly && iv <= Yearly }

func (iv Interval) MarshalText() ([]byte, error) {
	if !iv.Valid() {
		return nil, &InvalidIntervalError{Tag: iv.String()}
	}
	return []byte(iv.String()), nil
}

func (iv *Interval) UnmarshalText(text []byte) error {
	parsed, err := ParseInterval(string(text))
	if err != nil {
		return err
	}
	*iv = parsed
	return nil
}
