package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// DateLayout is the canonical calendar date format used at every boundary.
const DateLayout = "2006-01-02"

// MaxDescriptionLength bounds the description length accepted by Validate.
const MaxDescriptionLength = 200

type (
	// Date is a calendar date without time of day, normalised to UTC midnight.
	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	// Expense is an immutable ledger record. Only the ledger assigns ID.
	Expense struct {
		ID          int64  `json:"id"`
		Description string `json:"description"`
		Amount      Money  `json:"amount"`
		Category    string `json:"category"`
		Date        Date   `json:"date"`
	}
)

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf returns the calendar date of t in t's own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, int(m), d)
}

// ParseDate parses a YYYY-MM-DD string. Out-of-range days such as 2025-02-30 are rejected.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Date{}, ErrInvalidDate
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return Date{Time: t}, nil
}

func (d Date) Validate() error {
	if d.IsZero() {
		return errors.New("date cannot be zero")
	}
	return nil
}

// Day returns the day of the month
func (d Date) Day() int {
	return d.Time.Day()
}

// Month returns the month
func (d Date) Month() int {
	return int(d.Time.Month())
}

// Year returns the year
func (d Date) Year() int {
	return d.Time.Year()
}

// AddDays returns the date n calendar days away from d.
func (d Date) AddDays(n int) Date {
	return NewDate(d.Year(), d.Month(), d.Day()+n)
}

// SameMonth reports whether both dates share calendar month and year.
func (d Date) SameMonth(o Date) bool {
	return d.Year() == o.Year() && d.Month() == o.Month()
}

// Equal compares calendar dates.
func (d Date) Equal(o Date) bool {
	return d.Year() == o.Year() && d.Month() == o.Month() && d.Day() == o.Day()
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func (m Money) Validate() error {
	if m.Cents < 0 {
		return ErrInvalidAmount
	}
	return nil
}

// Validate checks the record against the configured categories.
func (e Expense) Validate(categories Categories) error {
	if len(strings.TrimSpace(e.Description)) == 0 {
		return &ValidationError{Field: FieldDescription, Err: ErrEmptyDescription}
	}
	if len(e.Description) > MaxDescriptionLength {
		return &ValidationError{Field: FieldDescription, Err: ErrDescriptionTooLong}
	}
	if err := e.Amount.Validate(); err != nil {
		return &ValidationError{Field: FieldAmount, Err: err}
	}
	if !categories.Has(e.Category) {
		return &ValidationError{Field: FieldCategory, Err: fmt.Errorf("%w: %q", ErrUnknownCategory, e.Category)}
	}
	if err := e.Date.Validate(); err != nil {
		return &ValidationError{Field: FieldDate, Err: ErrInvalidDate}
	}
	return nil
}
