package core

import (
	"errors"
	"fmt"
	"strings"
)

// Taxonomy maps each Type to its ordered list of category names. Order is
// display order only. Stored transactions are never checked against it.
type Taxonomy map[Type][]string

var (
	ErrCategoryExists    = errors.New("category already exists")
	ErrCategoryNotFound  = errors.New("category not found")
	ErrEmptyCategoryName = errors.New("category name cannot be empty")
)

// Clone returns a deep copy.
func (tx Taxonomy) Clone() Taxonomy {
	out := make(Taxonomy, len(tx))
	for t, names := range tx {
		out[t] = append([]string(nil), names...)
	}
	return out
}

// Categories returns a copy of the names for t.
func (tx Taxonomy) Categories(t Type) []string {
	return append([]string(nil), tx[t]...)
}

// Has reports whether name is listed under t.
func (tx Taxonomy) Has(t Type, name string) bool {
	for _, n := range tx[t] {
		if n == name {
			return true
		}
	}
	return false
}

// KeySet returns the distinct names listed under the given types, in
// first-seen order.
func (tx Taxonomy) KeySet(types ...Type) []string {
	seen := map[string]struct{}{}
	out := make([]string, 0)
	for _, t := range types {
		for _, n := range tx[t] {
			if _, ok := seen[n]; ok {
				continue
			}
			seen[n] = struct{}{}
			out = append(out, n)
		}
	}
	return out
}

// Add appends a trimmed name under t.
func (tx Taxonomy) Add(t Type, name string) error {
	if !t.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidType, t)
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrEmptyCategoryName
	}
	if tx.Has(t, name) {
		return fmt.Errorf("%w: %s/%s", ErrCategoryExists, t, name)
	}
	tx[t] = append(tx[t], name)
	return nil
}

// Rename replaces the name at index under t.
func (tx Taxonomy) Rename(t Type, index int, name string) error {
	if !t.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidType, t)
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrEmptyCategoryName
	}
	names := tx[t]
	if index < 0 || index >= len(names) {
		return fmt.Errorf("%w: %s[%d]", ErrCategoryNotFound, t, index)
	}
	for i, n := range names {
		if i != index && n == name {
			return fmt.Errorf("%w: %s/%s", ErrCategoryExists, t, name)
		}
	}
	updated := append([]string(nil), names...)
	updated[index] = name
	tx[t] = updated
	return nil
}

// Remove deletes the name at index under t.
func (tx Taxonomy) Remove(t Type, index int) error {
	if !t.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidType, t)
	}
	names := tx[t]
	if index < 0 || index >= len(names) {
		return fmt.Errorf("%w: %s[%d]", ErrCategoryNotFound, t, index)
	}
	updated := make([]string, 0, len(names)-1)
	updated = append(updated, names[:index]...)
	updated = append(updated, names[index+1:]...)
	tx[t] = updated
	return nil
}
