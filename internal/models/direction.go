package models

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Direction tells whether a transaction adds to or takes from a balance.
type Direction int

const (
	Deposit Direction = iota
	Withdraw
)

var directionNames = [...]string{
	Deposit:  "deposit",
	Withdraw: "withdraw",
}

// InvalidDirectionError is returned when a stored or submitted type tag is not a known direction.
type InvalidDirectionError struct {
	Tag string
}

func (e *InvalidDirectionError) Error() string {
	return fmt.Sprintf("invalid transaction type %q", e.Tag)
}

// ParseDirection maps "deposit" / "withdraw" to a Direction.
func ParseDirection(s string) (Direction, error) {
	for d, name := range directionNames {
		if name == s {
			return Direction(d), nil
		}
	}
	return 0, &InvalidDirectionError{Tag: s}
}

func (d Direction) String() string {
	if d < 0 || int(d) >= len(directionNames) {
		return fmt.Sprintf("Direction(%d)", int(d))
	}
	return directionNames[d]
}

// Valid reports whether d is Deposit or Withdraw.
func (d Direction) Valid() bool { return d == Deposit || d == Withdraw }

// Opposite returns the direction that reverses d.
func (d Direction) Opposite() Direction {
	if d == Deposit {
		return Withdraw
	}
	return Deposit
}

// Signed returns amount as a balance delta: positive for deposits, negative for withdrawals.
func (d Direction) Signed(amount decimal.Decimal) decimal.Decimal {
	if d == Withdraw {
		return amount.Neg()
	}
	return amount
}

func (d Direction) MarshalText() ([]byte, error) {
	if !d.Valid() {
		return nil, &InvalidDirectionError{Tag: d.String()}
	}
	return []byte(d.String()), nil
}

func (d *Direction) UnmarshalText(text []byte) error {
	parsed, err := ParseDirection(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
