package order

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	ErrValidation          = errors.New("validation failed")
	ErrCatalogViolation    = errors.New("catalog violation")
	ErrPriceMismatch       = errors.New("price mismatch")
	ErrDuplicateSubmission = errors.New("duplicate submission, retry later")
	ErrUnauthenticated     = errors.New("authentication required")
	ErrForbidden           = errors.New("forbidden")
	ErrOrderNotFound       = errors.New("order not found")
	ErrTableNotFound       = errors.New("table not found")
	ErrAlreadyApproved     = errors.New("order already approved")
	ErrPersistence         = errors.New("failed to save order")
)

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError lists every malformed or missing request field.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Add(field, message string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: message})
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// orNil returns e only when at least one field failed.
func (e *ValidationError) orNil() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}

// CatalogViolation reports a missing or unavailable catalog entry, or an
// incomplete option-group selection.
type CatalogViolation struct {
	Message string
}

func catalogViolation(format string, args ...any) *CatalogViolation {
	return &CatalogViolation{Message: fmt.Sprintf(format, args...)}
}

func (e *CatalogViolation) Error() string { return e.Message }

func (e *CatalogViolation) Is(target error) bool { return target == ErrCatalogViolation }

type PriceMismatch struct {
	Expected decimal.Decimal
	Provided decimal.Decimal
	Message  string
}

func (e *PriceMismatch) Error() string {
	return fmt.Sprintf("%s: Expected %s, got %s", e.Message, e.Expected.StringFixed(2), e.Provided.StringFixed(2))
}

func (e *PriceMismatch) Is(target error) bool { return target == ErrPriceMismatch }

// HTTPStatus maps a service error onto its response status.
func HTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrValidation),
		errors.Is(err, ErrCatalogViolation),
		errors.Is(err, ErrPriceMismatch),
		errors.Is(err, ErrAlreadyApproved):
		return http.StatusBadRequest
	case errors.Is(err, ErrDuplicateSubmission):
		return http.StatusTooManyRequests
	case errors.Is(err, ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrOrderNotFound), errors.Is(err, ErrTableNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// PublicMessage is the error text safe to show callers. Internal failures
// collapse to a generic message.
func PublicMessage(err error) string {
	if HTTPStatus(err) == http.StatusInternalServerError {
		if errors.Is(err, ErrPersistence) {
			return ErrPersistence.Error()
		}
		return "internal server error"
	}
	return err.Error()
}
