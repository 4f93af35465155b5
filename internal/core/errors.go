package core

import (
	"errors"
	"fmt"
)

// ValidationKind classifies user-correctable input problems. These are always
// surfaced to the caller and never fatal to the editing session.
type ValidationKind string

const (
	ValidationNoItems          ValidationKind = "no_items"
	ValidationMissingSupplier  ValidationKind = "missing_supplier"
	ValidationMissingCurrency  ValidationKind = "missing_currency"
	ValidationNoQuantities     ValidationKind = "no_quantities_allocated"
	ValidationBadPattern       ValidationKind = "invalid_pattern"
	ValidationSeriesTooLarge   ValidationKind = "series_too_large"
	ValidationEmptyPasteList   ValidationKind = "empty_paste_list"
	ValidationUnknownField     ValidationKind = "unknown_field"
	ValidationNegativeQuantity ValidationKind = "negative_quantity"
	ValidationMissingItemField ValidationKind = "missing_item_field"
)

// ValidationError is a user-correctable input problem.
type ValidationError struct {
	Kind ValidationKind
	Msg  string
}

func (e *ValidationError) Error() string { return e.Msg }

func validationErrorf(kind ValidationKind, format string, args ...any) error {
	return &ValidationError{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err is a ValidationError of the given kind.
func IsValidation(err error, kind ValidationKind) bool {
	var ve *ValidationError
	return errors.As(err, &ve) && ve.Kind == kind
}

// FetchError wraps a failure talking to an external collaborator (rate
// provider, catalog). Callers degrade gracefully: keep prior state, surface a
// non-blocking notice where the flow calls for one.
type FetchError struct {
	Op  string
	Err error
}

func (e *FetchError) Error() string { return fmt.Sprintf("%s: %v", e.Op, e.Err) }
func (e *FetchError) Unwrap() error { return e.Err }

// ErrStaleSelection is returned when an async result arrives for a product
// selection that is no longer current. Callers discard the result.
var ErrStaleSelection = errors.New("stale product selection")
