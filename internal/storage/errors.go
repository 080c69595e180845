// Package storage holds the error types shared by the ledger store implementations.
package storage

import (
	"errors"
	"fmt"
)

// ErrNotFound matches any *NotFoundError via errors.Is.
var ErrNotFound = errors.New("not found")

// NotFoundError reports a missing account, transaction or recurring rule.
type NotFoundError struct {
	Kind string // "account", "transaction" or "recurring rule"
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Kind, e.ID)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// StoreError reports a failed persistence operation.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store: %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// Wrap returns err as a *StoreError for op, or nil if err is nil.
// Errors that already are store or not-found errors pass through unchanged.
func Wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	var se *StoreError
	var nf *NotFoundError
	if errors.As(err, &se) || errors.As(err, &nf) {
		return err
	}
	return &StoreError{Op: op, Err: err}
}
