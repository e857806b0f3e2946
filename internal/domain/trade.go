package domain

import (
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

type Action string

const (
	Buy  Action = "BUY"
	Sell Action = "SELL"
)

func ParseAction(s string) (Action, bool) {
	a := Action(strings.ToUpper(strings.TrimSpace(s)))
	switch a {
	case Buy, Sell:
		return a, true
	}
	return a, false
}

// TradeRequest asks to buy or sell Quantity shares of Ticker at Price per
// share. Price is trusted; it is not checked against any market.
type TradeRequest struct {
	Ticker   Ticker
	Price    int64
	Quantity int64
	Action   Action
}

var maxInt64 = decimal.NewFromInt(math.MaxInt64)

// TotalPrice returns Price × Quantity, failing when the product does not fit
// in an int64.
func (r TradeRequest) TotalPrice(customerID int64) (int64, error) {
	total := decimal.NewFromInt(r.Price).Mul(decimal.NewFromInt(r.Quantity))
	if total.Abs().GreaterThan(maxInt64) {
		return 0, InvalidPrice(customerID, "trade total exceeds the supported range")
	}
	return total.IntPart(), nil
}

// Validate checks the request on its own, before any customer or holding is
// looked at.
func (r TradeRequest) Validate(customerID int64) error {
	if !r.Ticker.Valid() {
		return UnknownTicker(customerID, string(r.Ticker))
	}
	if r.Action != Buy && r.Action != Sell {
		return UnknownAction(customerID, string(r.Action))
	}
	if r.Quantity <= 0 {
		return InvalidQuantity(customerID, r.Quantity)
	}
	if r.Price < 0 {
		return InvalidPrice(customerID, "price must not be negative")
	}
	_, err := r.TotalPrice(customerID)
	return err
}

// TradeResult echoes the request together with the computed total and the
// customer's balance after the trade was committed.
type TradeResult struct {
	CustomerID int64
	Ticker     Ticker
	Price      int64
	Quantity   int64
	Action     Action
	TotalPrice int64
	Balance    int64
}

func NewTradeResult(customerID int64, r TradeRequest, total, balance int64) *TradeResult {
	return &TradeResult{
		CustomerID: customerID,
		Ticker:     r.Ticker,
		Price:      r.Price,
		Quantity:   r.Quantity,
		Action:     r.Action,
		TotalPrice: total,
		Balance:    balance,
	}
}
