package domain

import (
	"fmt"
)

// ErrorKind is the machine readable category of a domain error. The boundary
// layer maps kinds to transport status codes.
type ErrorKind string

const (
	KindCustomerNotFound    ErrorKind = "customer-not-found"
	KindInsufficientBalance ErrorKind = "insufficient-balance"
	KindInsufficientShares  ErrorKind = "insufficient-shares"
	KindInvalidQuantity     ErrorKind = "invalid-quantity"
	KindInvalidPrice        ErrorKind = "invalid-price"
	KindUnknownTicker       ErrorKind = "unknown-ticker"
	KindUnknownAction       ErrorKind = "unknown-action"
)

// Error is a business rule violation. It is never an infrastructure failure.
type Error struct {
	Kind       ErrorKind
	CustomerID int64
	Detail     string
}

func (e *Error) Error() string {
	return e.Detail
}

// Is matches any *Error of the same kind, so errors.Is(err, ErrCustomerNotFound)
// holds regardless of the customer id.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// Sentinels for errors.Is.
var (
	ErrCustomerNotFound    = &Error{Kind: KindCustomerNotFound}
	ErrInsufficientBalance = &Error{Kind: KindInsufficientBalance}
	ErrInsufficientShares  = &Error{Kind: KindInsufficientShares}
	ErrInvalidQuantity     = &Error{Kind: KindInvalidQuantity}
	ErrInvalidPrice        = &Error{Kind: KindInvalidPrice}
	ErrUnknownTicker       = &Error{Kind: KindUnknownTicker}
	ErrUnknownAction       = &Error{Kind: KindUnknownAction}
)

func CustomerNotFound(customerID int64) *Error {
	return &Error{
		Kind:       KindCustomerNotFound,
		CustomerID: customerID,
		Detail:     fmt.Sprintf("Customer [id=%d] is not found", customerID),
	}
}

func InsufficientBalance(customerID int64) *Error {
	return &Error{
		Kind:       KindInsufficientBalance,
		CustomerID: customerID,
		Detail:     fmt.Sprintf("Customer [id=%d] does not have enough funds to carry this transaction", customerID),
	}
}

func InsufficientShares(customerID int64) *Error {
	return &Error{
		Kind:       KindInsufficientShares,
		CustomerID: customerID,
		Detail:     fmt.Sprintf("Customer [id=%d] does not have enough shares to complete this transaction", customerID),
	}
}

func InvalidQuantity(customerID, quantity int64) *Error {
	return &Error{
		Kind:       KindInvalidQuantity,
		CustomerID: customerID,
		Detail:     fmt.Sprintf("Trade quantity must be positive, got %d", quantity),
	}
}

func InvalidPrice(customerID int64, reason string) *Error {
	return &Error{
		Kind:       KindInvalidPrice,
		CustomerID: customerID,
		Detail:     fmt.Sprintf("Invalid trade price: %s", reason),
	}
}

func UnknownTicker(customerID int64, ticker string) *Error {
	return &Error{
		Kind:       KindUnknownTicker,
		CustomerID: customerID,
		Detail:     fmt.Sprintf("Ticker %q is not tradable", ticker),
	}
}

func UnknownAction(customerID int64, action string) *Error {
	return &Error{
		Kind:       KindUnknownAction,
		CustomerID: customerID,
		Detail:     fmt.Sprintf("Trade action %q is not supported, use BUY or SELL", action),
	}
}
