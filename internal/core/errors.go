package core

import (
	"errors"
	"fmt"
)

// Payload field names carried by ValidationError.
const (
	FieldDescription = "description"
	FieldAmount      = "amount"
	FieldCategory    = "category"
	FieldDate        = "date"
)

var (
	ErrEmptyDescription   = errors.New("empty description")
	ErrDescriptionTooLong = fmt.Errorf("description too long (max %d characters)", MaxDescriptionLength)
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrAmountOverflow     = fmt.Errorf("%w: ledger total would overflow", ErrInvalidAmount)
	ErrUnknownCategory    = errors.New("unknown category")
	ErrInvalidDate        = errors.New("invalid date")

	// ErrIntegrity marks a record that reached the ledger without passing Add.
	ErrIntegrity = errors.New("ledger integrity violation")
)

// ValidationError reports which payload field was rejected.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %v", e.Field, e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// FieldOf returns the rejected field name if err wraps a ValidationError.
func FieldOf(err error) (string, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Field, true
	}
	return "", false
}
