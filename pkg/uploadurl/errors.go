package uploadurl

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrMissingFields is returned when fileName or fileType is empty.
var ErrMissingFields = errors.New("fileName and fileType are required")

// Kind classifies an issuing failure for status-code mapping.
type Kind int

const (
	// KindUnhandled covers key derivation and signing failures.
	KindUnhandled Kind = iota
	// KindValidation means the request was rejected before any external call.
	KindValidation
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	default:
		return "unhandled"
	}
}

// Error is the error type returned by Issuer.Issue.
// Its message is the message of the wrapped error, unchanged, because that
// text is what clients see in the response body.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	return e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

func validationError(err error) error {
	return &Error{Kind: KindValidation, Op: "validate", Err: err}
}

func unhandledError(op string, err error) error {
	return &Error{Kind: KindUnhandled, Op: op, Err: err}
}

// KindOf reports the kind of err. Errors that did not come from the issuer
// are treated as unhandled.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnhandled
}

// IsValidationError returns true if err was caused by invalid input.
func IsValidationError(err error) bool {
	return err != nil && KindOf(err) == KindValidation
}

// StatusCode maps an Issue result to its HTTP status.
func StatusCode(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case IsValidationError(err):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// recoveredError turns a recovered panic value into an error.
func recoveredError(v any) error {
	if err, ok := v.(error); ok {
		return err
	}
	return fmt.Errorf("%v", v)
}
