package core

import (
	"sort"
	"strings"
	"unicode/utf8"
)

// TransactionInput is the raw, unvalidated shape of a new or edited entry.
type TransactionInput struct {
	Date        string `json:"date"`
	Amount      string `json:"amount"`
	Type        string `json:"type"`
	Category    string `json:"category"`
	Description string `json:"description"`
}

// ValidationErrors maps a field name to a human readable message.
type ValidationErrors map[string]string

func (v ValidationErrors) Error() string {
	fields := make([]string, 0, len(v))
	for f := range v {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, f+": "+v[f])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Validate checks every field and returns all problems at once, or nil.
func (in TransactionInput) Validate() error {
	errs := ValidationErrors{}

	if strings.TrimSpace(in.Amount) == "" {
		errs["amount"] = "Please enter a valid amount"
	} else if _, err := ParseDecimalToCents(in.Amount); err != nil {
		if isNonPositive(in.Amount) {
			errs["amount"] = "Amount must be greater than zero"
		} else {
			errs["amount"] = "Please enter a valid amount"
		}
	}

	desc := strings.TrimSpace(in.Description)
	runes := utf8.RuneCountInString(desc)
	switch {
	case desc == "":
		errs["description"] = "Description is required"
	case runes < 2:
		errs["description"] = "Description is too short"
	case runes > 200:
		errs["description"] = ErrDescriptionTooLong.Error()
	}

	if strings.TrimSpace(in.Date) == "" {
		errs["date"] = "Date is required"
	} else if _, err := ParseDate(in.Date); err != nil {
		errs["date"] = "Invalid date format"
	}

	if strings.TrimSpace(in.Category) == "" {
		errs["category"] = "Please select a category"
	}

	if _, err := ParseType(in.Type); err != nil {
		errs["type"] = "Please select a valid type"
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// ToTransaction validates the input and builds a record with the given id.
func (in TransactionInput) ToTransaction(id string) (Transaction, error) {
	if err := in.Validate(); err != nil {
		return Transaction{}, err
	}
	cents, _ := ParseDecimalToCents(in.Amount)
	date, _ := ParseDate(in.Date)
	typ, _ := ParseType(in.Type)
	return Transaction{
		ID:          id,
		Date:        date,
		Amount:      Money{Cents: cents},
		Type:        typ,
		Category:    strings.TrimSpace(in.Category),
		Description: strings.TrimSpace(in.Description),
	}, nil
}

// isNonPositive reports whether s looks like a number that is zero or negative.
func isNonPositive(s string) bool {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", "."))
	if strings.HasPrefix(s, "-") {
		return true
	}
	s = strings.TrimPrefix(s, "+")
	if s == "" {
		return false
	}
	for _, r := range s {
		if r != '0' && r != '.' {
			return false
		}
	}
	return true
}
