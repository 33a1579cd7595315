package core

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	Income  Type = "income"
	Expense Type = "expense"
	Bill    Type = "bill"
	Saving  Type = "saving"
	Debt    Type = "debt"
)

// DateLayout is the wire and storage form of a Date.
const DateLayout = "2006-01-02"

type (
	// Type is the closed set of money movement kinds.
	Type string

	// Date is a calendar date without a time component, always at UTC midnight.
	Date struct {
		time.Time
	}

	// Money is a non-negative amount kept in cents so sums stay exact.
	Money struct {
		Cents int64
	}

	// Transaction is a single dated, typed, categorized money movement.
	// It is never mutated in place; edits replace it wholesale by ID.
	Transaction struct {
		ID          string `json:"id"`
		Date        Date   `json:"date"`
		Amount      Money  `json:"amount"`
		Type        Type   `json:"type"`
		Category    string `json:"category"`
		Description string `json:"description"`
	}
)

var (
	ErrInvalidAmount       = errors.New("invalid amount")
	ErrInvalidDate         = errors.New("invalid date")
	ErrInvalidType         = errors.New("invalid transaction type")
	ErrEmptyDescription    = errors.New("empty description")
	ErrDescriptionTooShort = errors.New("description too short")
	ErrDescriptionTooLong  = errors.New("description too long (max 200 characters)")
	ErrEmptyCategory       = errors.New("empty category")
	ErrEmptyID             = errors.New("empty transaction id")
)

// AllTypes returns every Type in display order.
func AllTypes() []Type {
	return []Type{Income, Expense, Bill, Saving, Debt}
}

// Valid reports whether t belongs to the closed set.
func (t Type) Valid() bool {
	switch t {
	case Income, Expense, Bill, Saving, Debt:
		return true
	default:
		return false
	}
}

// ParseType normalizes s and returns the matching Type.
func ParseType(s string) (Type, error) {
	t := Type(strings.ToLower(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidType, s)
	}
	return t, nil
}

// NewDate creates a new Date from year, month (1-12) and day.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("%w: %v", ErrInvalidDate, err)
	}
	return Date{Time: t}, nil
}

// MonthIndex returns the zero-based month of the year (January is 0).
func (d Date) MonthIndex() int {
	return int(d.Time.Month()) - 1
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

func (d Date) Validate() error {
	if d.IsZero() {
		return fmt.Errorf("%w: date cannot be zero", ErrInvalidDate)
	}
	return nil
}

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	s := string(bytes.Trim(b, `"`))
	if s == "" || s == "null" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

// Validate checks a fully built record. Input coming from a form goes
// through TransactionInput instead, which reports every field at once.
func (t Transaction) Validate() error {
	if strings.TrimSpace(t.ID) == "" {
		return ErrEmptyID
	}
	if err := t.Date.Validate(); err != nil {
		return err
	}
	if err := t.Amount.Validate(); err != nil {
		return err
	}
	if !t.Type.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidType, t.Type)
	}
	if strings.TrimSpace(t.Category) == "" {
		return ErrEmptyCategory
	}
	if strings.TrimSpace(t.Description) == "" {
		return ErrEmptyDescription
	}
	return nil
}

// IsIncome reports whether the transaction adds to the balance.
func (t Transaction) IsIncome() bool {
	return t.Type == Income
}
