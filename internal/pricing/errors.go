package pricing

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind identifies the category of a resolution error.
type Kind string

const (
	// KindCatalogUnavailable indicates a missing or unreadable catalog table.
	KindCatalogUnavailable Kind = "CATALOG_UNAVAILABLE"

	// KindMalformedCatalog indicates a table that lacks the required structure or numeric data.
	KindMalformedCatalog Kind = "MALFORMED_CATALOG"

	// KindSizeNotFound indicates a dimension larger than every tabulated size.
	KindSizeNotFound Kind = "SIZE_NOT_FOUND"

	// KindPriceNotAvailable indicates matched coordinates without a price cell.
	KindPriceNotAvailable Kind = "PRICE_NOT_AVAILABLE"

	// KindMaterialNotFound indicates an unknown material identifier.
	KindMaterialNotFound Kind = "MATERIAL_NOT_FOUND"

	// KindInvalidInput indicates a request that cannot be priced as given.
	KindInvalidInput Kind = "INVALID_INPUT"
)

// Error is a resolution error carrying its kind and the catalog key it concerns.
type Error struct {
	Kind    Kind   `json:"kind"`
	Message string `json:"message"`
	Key     string `json:"key,omitempty"`
	Cause   error  `json:"-"`
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("[%s] %s", e.Kind, e.Message)
	if e.Key != "" {
		msg += " (" + e.Key + ")"
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// HTTPStatus maps the error kind onto a transport status code.
func (e *Error) HTTPStatus() int {
	switch e.Kind {
	case KindInvalidInput:
		return http.StatusBadRequest
	case KindMalformedCatalog:
		return http.StatusInternalServerError
	default:
		return http.StatusNotFound
	}
}

// Newf creates an error of the given kind with a formatted message.
func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// InvalidInput creates an input validation error.
func InvalidInput(format string, args ...any) *Error {
	return Newf(KindInvalidInput, format, args...)
}

// CatalogUnavailable creates an error for a catalog table that cannot be read.
func CatalogUnavailable(key, message string, cause error) *Error {
	return &Error{Kind: KindCatalogUnavailable, Message: message, Key: key, Cause: cause}
}

// MalformedCatalog creates an error for a catalog table with unusable content.
func MalformedCatalog(key, message string, cause error) *Error {
	return &Error{Kind: KindMalformedCatalog, Message: message, Key: key, Cause: cause}
}

// KindOf returns the kind of a resolution error, or "" for any other error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsKind reports whether err is a resolution error of kind k.
func IsKind(err error, k Kind) bool {
	return err != nil && KindOf(err) == k
}
