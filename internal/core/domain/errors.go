package domain

import (
	"errors"
	"strings"
)

// ErrorKind classifies an operational error so the HTTP boundary can pick a
// status code without knowing about individual errors.
type ErrorKind string

const (
	KindValidation   ErrorKind = "validation"
	KindUnauthorized ErrorKind = "unauthorized"
	KindForbidden    ErrorKind = "forbidden"
	KindNotFound     ErrorKind = "not_found"
	KindConflict     ErrorKind = "conflict"
	KindBusinessRule ErrorKind = "business_rule"
	KindInternal     ErrorKind = "internal"
)

// Error is an expected, client-facing failure. Message is safe to render;
// Err is the optional underlying cause and is never shown to clients.
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error with the same kind and message, so a sentinel still
// matches after Wrap attached a cause.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind && e.Message == t.Message
}

// Wrap returns a copy of e carrying cause.
func (e *Error) Wrap(cause error) *Error {
	return &Error{Kind: e.Kind, Message: e.Message, Err: cause}
}

// NewError builds an operational error of the given kind.
func NewError(kind ErrorKind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Validation is shorthand for a KindValidation error carrying msg.
func Validation(msg string) *Error {
	return NewError(KindValidation, msg)
}

// AsError unwraps err to the first *Error in its chain.
func AsError(err error) (*Error, bool) {
	var de *Error
	if errors.As(err, &de) {
		return de, true
	}
	return nil, false
}

// KindOf reports the kind of err, or KindInternal for anything that is not
// an operational error.
func KindOf(err error) ErrorKind {
	if de, ok := AsError(err); ok {
		return de.Kind
	}
	return KindInternal
}

// Identity
var (
	ErrUserNotFound        = NewError(KindNotFound, "user not found")
	ErrUserExists          = NewError(KindConflict, "a user with this email already exists")
	ErrInvalidCredentials  = NewError(KindUnauthorized, "incorrect email or password")
	ErrPasswordMismatch    = NewError(KindValidation, "passwords do not match")
	ErrForbidden           = NewError(KindForbidden, "you do not have permission to perform this action")
	ErrPasswordNotEditable = NewError(KindValidation, "password can only be changed through the update-password route")
	ErrIncorrectPassword   = NewError(KindValidation, "incorrect current password")
	ErrResetTokenInvalid   = NewError(KindValidation, "user not found or reset token expired")
	ErrResetMailFailed     = NewError(KindInternal, "could not mail the reset token")
	ErrSessionExpired      = NewError(KindUnauthorized, "password changed recently, please log in again")
	ErrSessionUserGone     = NewError(KindUnauthorized, "the user belonging to this token no longer exists")
	ErrInvalidField        = NewError(KindValidation, "field must be one of: "+strings.Join(Fields, ", "))
)

// Orders
var (
	ErrOrderNotFound        = NewError(KindNotFound, "order not found")
	ErrSelfOrder            = NewError(KindValidation, "you cannot order an hour from yourself")
	ErrInsufficientCredit   = NewError(KindBusinessRule, "you do not have enough credit to order an hour")
	ErrNotOrderRecipient    = NewError(KindUnauthorized, "only the recipient of this order can respond to it")
	ErrNotOrderSender       = NewError(KindUnauthorized, "only the sender of this order can complete the transaction")
	ErrInvalidTransition    = NewError(KindBusinessRule, "this order is not in a state that allows this action")
	ErrApprovalExpired      = NewError(KindBusinessRule, "the approval for this order has expired, please send a new order")
	ErrCounterpartyNotFound = NewError(KindValidation, "the other party of this order no longer exists")
	ErrTransferFailed       = NewError(KindInternal, "the transaction could not be completed, please try again later")
	ErrNotificationFailed   = NewError(KindInternal, "could not notify the recipient, please try again later")
)

// Reviews
var (
	ErrReviewNotFound     = NewError(KindNotFound, "review not found")
	ErrCannotReview       = NewError(KindValidation, "cannot submit a review")
	ErrCompleteOrderFirst = NewError(KindBusinessRule, "complete an order with this user before reviewing them")
	ErrAlreadyReviewed    = NewError(KindBusinessRule, "you have already reviewed this user")
	ErrNotReviewAuthor    = NewError(KindUnauthorized, "only the author can edit this review")
	ErrInvalidRating      = NewError(KindValidation, "rating must be between 1 and 5")
)
