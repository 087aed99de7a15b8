// Package apperr defines the workflow error taxonomy shared by the storefront
// packages and the mapping from error kinds to HTTP status codes.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind int

const (
	KindInternal Kind = iota
	KindInsufficientStock
	KindEmptyCart
	KindMissingCustomer
	KindCustomerNotFound
	KindServiceNotFound
	KindNoAvailability
	KindOrderCommitFailure
	KindSessionNotInitialized
	KindStoreUnavailable
	KindInvalidArgument
	KindProductNotFound
	KindBookingNotFound
	KindAlreadyReviewed
)

func (k Kind) String() string {
	switch k {
	case KindInsufficientStock:
		return "INSUFFICIENT_STOCK"
	case KindEmptyCart:
		return "EMPTY_CART"
	case KindMissingCustomer:
		return "MISSING_CUSTOMER"
	case KindCustomerNotFound:
		return "CUSTOMER_NOT_FOUND"
	case KindServiceNotFound:
		return "SERVICE_NOT_FOUND"
	case KindNoAvailability:
		return "NO_AVAILABILITY"
	case KindOrderCommitFailure:
		return "ORDER_COMMIT_FAILURE"
	case KindSessionNotInitialized:
		return "SESSION_NOT_INITIALIZED"
	case KindStoreUnavailable:
		return "STORE_UNAVAILABLE"
	case KindInvalidArgument:
		return "INVALID_ARGUMENT"
	case KindProductNotFound:
		return "PRODUCT_NOT_FOUND"
	case KindBookingNotFound:
		return "BOOKING_NOT_FOUND"
	case KindAlreadyReviewed:
		return "ALREADY_REVIEWED"
	default:
		return "INTERNAL"
	}
}

// Error is a classified workflow failure. Msg is safe to show to callers;
// Err holds the underlying cause and is only ever logged.
type Error struct {
	Kind Kind
	Op   string
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	msg := e.Msg
	if msg == "" {
		msg = e.Kind.String()
	}
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports a match on kind so that errors.Is(err, ErrNoAvailability) works
// for any error of that kind regardless of op or cause.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

var (
	ErrInsufficientStock     = &Error{Kind: KindInsufficientStock, Msg: "insufficient stock"}
	ErrEmptyCart             = &Error{Kind: KindEmptyCart, Msg: "cart is empty"}
	ErrMissingCustomer       = &Error{Kind: KindMissingCustomer, Msg: "no customer bound to session"}
	ErrCustomerNotFound      = &Error{Kind: KindCustomerNotFound, Msg: "customer not found"}
	ErrServiceNotFound       = &Error{Kind: KindServiceNotFound, Msg: "service not found"}
	ErrNoAvailability        = &Error{Kind: KindNoAvailability, Msg: "no availability for mechanic on day"}
	ErrOrderCommitFailure    = &Error{Kind: KindOrderCommitFailure, Msg: "order commit failed"}
	ErrSessionNotInitialized = &Error{Kind: KindSessionNotInitialized, Msg: "session not initialized"}
	ErrStoreUnavailable      = &Error{Kind: KindStoreUnavailable, Msg: "store unavailable"}
	ErrInvalidArgument       = &Error{Kind: KindInvalidArgument, Msg: "invalid argument"}
	ErrProductNotFound       = &Error{Kind: KindProductNotFound, Msg: "product not found"}
	ErrBookingNotFound       = &Error{Kind: KindBookingNotFound, Msg: "booking not found"}
	ErrAlreadyReviewed       = &Error{Kind: KindAlreadyReviewed, Msg: "booking already reviewed"}
)

// E builds a classified error.
func E(kind Kind, op, msg string, err error) *Error {
	return &Error{Kind: kind, Op: op, Msg: msg, Err: err}
}

func Invalid(op, format string, args ...any) *Error {
	return &Error{Kind: KindInvalidArgument, Op: op, Msg: fmt.Sprintf(format, args...)}
}

// Store classifies a raw store failure. Errors that already carry a kind pass
// through untouched.
func Store(op string, err error) error {
	if err == nil {
		return nil
	}
	var ae *Error
	if errors.As(err, &ae) {
		return err
	}
	return &Error{Kind: KindStoreUnavailable, Op: op, Msg: "store unavailable", Err: err}
}

// KindOf returns the kind of the first *Error in err's chain, or KindInternal.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindInternal
}

// Recoverable reports whether err is a validation failure the caller can act on.
func Recoverable(err error) bool {
	switch KindOf(err) {
	case KindInternal, KindStoreUnavailable, KindOrderCommitFailure:
		return false
	default:
		return true
	}
}

// HTTPStatus maps an error to the status the request surface responds with.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindEmptyCart, KindSessionNotInitialized, KindInvalidArgument:
		return http.StatusBadRequest
	case KindMissingCustomer:
		return http.StatusUnauthorized
	case KindCustomerNotFound, KindServiceNotFound, KindProductNotFound, KindBookingNotFound:
		return http.StatusNotFound
	case KindInsufficientStock, KindNoAvailability, KindAlreadyReviewed:
		return http.StatusConflict
	case KindStoreUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// PublicMessage returns the text written to the response body. Unexpected
// failures collapse to a generic message so internal detail never leaks.
func PublicMessage(err error) string {
	var ae *Error
	if !errors.As(err, &ae) {
		return "internal error"
	}
	switch ae.Kind {
	case KindInternal:
		return "internal error"
	case KindStoreUnavailable:
		return "service unavailable"
	}
	if ae.Msg != "" {
		return ae.Msg
	}
	return ae.Kind.String()
}
