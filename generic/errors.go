/*
errors.go - Centralized error types for the carbon engine

PURPOSE:
  All error types in one place for consistency and discoverability.
  Domain packages return these (or wrap them) so the API layer can map
  them to status codes without knowing which engine produced them.

ERROR CATEGORIES:
  1. Validation errors - Malformed or out-of-range input (400)
  2. Not-found errors  - Missing company, department, region (404)
  3. Partial import    - Bulk import finished with rejected rows (not fatal)

USAGE:
  if errors.Is(err, generic.ErrValidation) {
      var verr *generic.ValidationError
      errors.As(err, &verr)
      fmt.Println("bad field:", verr.Field)
  }

SEE ALSO:
  - energy/ledger.go: Produces PartialImportError
  - api/handlers.go: Maps these errors to HTTP responses
*/
package generic

import (
	"errors"
	"fmt"

	"go.uber.org/multierr"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrValidation is the root of every input validation failure.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound is returned when a referenced entity doesn't exist.
	ErrNotFound = errors.New("not found")

	// ErrPartialImport is returned when a bulk import completed but
	// rejected some rows. The import itself is NOT rolled back.
	ErrPartialImport = errors.New("import completed with rejected rows")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// ValidationError names the offending field. Values are never coerced:
// the caller receives this instead.
type ValidationError struct {
	Field  string
	Value  any
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Value == nil {
		return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("invalid %s (%v): %s", e.Field, e.Value, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// Invalid is shorthand for constructing a ValidationError.
func Invalid(field string, value any, reason string) error {
	return &ValidationError{Field: field, Value: value, Reason: reason}
}

// NotFoundError identifies what kind of entity is missing.
type NotFoundError struct {
	Kind string // "company", "department", "region", ...
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Kind, e.ID)
}

func (e *NotFoundError) Unwrap() error {
	return ErrNotFound
}

// NotFound is shorthand for constructing a NotFoundError.
func NotFound(kind, id string) error {
	return &NotFoundError{Kind: kind, ID: id}
}

// RowRejection explains why a single import row was skipped.
// Row is 1-based and counts the header, matching what a spreadsheet shows.
type RowRejection struct {
	Row    int    `json:"row"`
	Reason string `json:"reason"`
}

func (r RowRejection) Error() string {
	return fmt.Sprintf("row %d: %s", r.Row, r.Reason)
}

// PartialImportError reports rows rejected by a bulk import. Rows that were
// accepted remain persisted.
type PartialImportError struct {
	Imported   int
	Rejections []RowRejection
}

func (e *PartialImportError) Error() string {
	return fmt.Sprintf("imported %d rows, rejected %d: %v",
		e.Imported, len(e.Rejections), e.Errors())
}

func (e *PartialImportError) Unwrap() error {
	return ErrPartialImport
}

// Errors combines every row rejection into a single error value.
func (e *PartialImportError) Errors() error {
	var combined error
	for _, r := range e.Rejections {
		combined = multierr.Append(combined, r)
	}
	return combined
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrValidation)
}

// IsNotFound returns true if the error indicates a missing resource.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsPartialImport returns true if a bulk import rejected some rows.
func IsPartialImport(err error) bool {
	return errors.Is(err, ErrPartialImport)
}
