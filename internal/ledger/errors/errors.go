package errors

import (
	"errors"
	"fmt"
)

var (
	ErrCustomerNotFound = errors.New("customer not found")

	ErrInvalidID = errors.New("invalid ledger ID format")

	ErrNotFound = errors.New("ledger record not found")

	ErrInsufficientBalance = errors.New("insufficient balance")

	ErrAlreadyVerified = errors.New("deposit signature already verified")
)

// InsufficientBalanceError carries the balance observed when a conditional
// debit did not match.
type InsufficientBalanceError struct {
	Current  int64
	Required int64
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("insufficient balance: current %d, required %d", e.Current, e.Required)
}

func (e *InsufficientBalanceError) Is(target error) bool {
	return target == ErrInsufficientBalance
}
