package tx

import (
	"errors"
	"fmt"
)

// ErrValidation matches every *ValidationError.
var ErrValidation = errors.New("invalid transfer")

// ValidationError rejects a transfer before anything leaves the process.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%s: %s", ErrValidation, e.Reason)
	}
	return fmt.Sprintf("%s: %s %s", ErrValidation, e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// Invalid builds a ValidationError for callers outside this package.
func Invalid(field, reason string) error {
	return invalid(field, reason)
}

// AddressValidator is the subset of signer.Crypto used for validation.
type AddressValidator interface {
	ValidateAddress(address string) error
}

// ValidateParties checks both addresses are well formed and distinct.
func ValidateParties(v AddressValidator, from, to string) error {
	if from == "" {
		return invalid("sender", "is required")
	}
	if to == "" {
		return invalid("receiver", "is required")
	}
	if err := v.ValidateAddress(from); err != nil {
		return invalid("sender", fmt.Sprintf("is not a valid address: %v", err))
	}
	if err := v.ValidateAddress(to); err != nil {
		return invalid("receiver", fmt.Sprintf("is not a valid address: %v", err))
	}
	if from == to {
		return invalid("receiver", "must differ from the sender")
	}
	return nil
}
