package users

import (
	"errors"
	"fmt"
	"sort"
)

var (
	// ErrDuplicateUsername is returned by Add when the storage layer rejects
	// the insert because the username is already taken.
	ErrDuplicateUsername = errors.New("duplicate username")

	ErrUnknownFilterField = errors.New("unknown filter field")
)

// Filter selects users whose columns equal the given values. Zero values are
// matched literally, so Filter{"username": ""} only matches an empty username.
type Filter map[string]any

var filterColumns = map[string]bool{
	"id":       true,
	"username": true,
}

// ByUsername is the filter used by the credential checks.
func ByUsername(username string) Filter {
	return Filter{"username": username}
}

// Validate rejects columns that are not queryable.
func (f Filter) Validate() error {
	for field := range f {
		if !filterColumns[field] {
			return fmt.Errorf("%w: %q", ErrUnknownFilterField, field)
		}
	}
	return nil
}

// Fields returns the filter columns in a stable order.
func (f Filter) Fields() []string {
	fields := make([]string, 0, len(f))
	for field := range f {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	return fields
}
