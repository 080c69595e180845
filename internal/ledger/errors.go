package ledger

import (
	"errors"
	"fmt"
)

// ErrInvalidInput is wrapped by every validation error the ledger returns.
var ErrInvalidInput = errors.New("invalid input")

var (
	ErrInvalidAmount = fmt.Errorf("%w: amount must not be negative", ErrInvalidInput)
	ErrMissingDate   = fmt.Errorf("%w: date is required", ErrInvalidInput)
	ErrMissingName   = fmt.Errorf("%w: name is required", ErrInvalidInput)
)
