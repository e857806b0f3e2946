package domain

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorMessages(t *testing.T) {
	assert.Equal(t, "Customer [id=10] is not found", CustomerNotFound(10).Error())
	assert.Equal(t, "Customer [id=1] does not have enough funds to carry this transaction", InsufficientBalance(1).Error())
	assert.Equal(t, "Customer [id=3] does not have enough shares to complete this transaction", InsufficientShares(3).Error())
}

func TestErrorIsMatchesKind(t *testing.T) {
	err := error(CustomerNotFound(42))
	assert.True(t, errors.Is(err, ErrCustomerNotFound))
	assert.False(t, errors.Is(err, ErrInsufficientBalance))

	var de *Error
	require.True(t, errors.As(err, &de))
	assert.Equal(t, int64(42), de.CustomerID)
	assert.Equal(t, KindCustomerNotFound, de.Kind)
}

func TestParseTicker(t *testing.T) {
	tk, ok := ParseTicker(" google ")
	assert.True(t, ok)
	assert.Equal(t, Google, tk)

	_, ok = ParseTicker("DOGE")
	assert.False(t, ok)

	assert.Equal(t, []Ticker{Amazon, Apple, Babatata, Google, Microsoft}, Tickers())
}

func TestParseAction(t *testing.T) {
	a, ok := ParseAction("sell")
	assert.True(t, ok)
	assert.Equal(t, Sell, a)

	_, ok = ParseAction("HOLD")
	assert.False(t, ok)
}

func TestTradeRequestValidate(t *testing.T) {
	valid := TradeRequest{Ticker: Babatata, Price: 100, Quantity: 5, Action: Buy}
	require.NoError(t, valid.Validate(1))

	cases := []struct {
		name string
		req  TradeRequest
		want error
	}{
		{"unknown ticker", TradeRequest{Ticker: "DOGE", Price: 1, Quantity: 1, Action: Buy}, ErrUnknownTicker},
		{"unknown action", TradeRequest{Ticker: Google, Price: 1, Quantity: 1, Action: "HOLD"}, ErrUnknownAction},
		{"zero quantity", TradeRequest{Ticker: Google, Price: 1, Quantity: 0, Action: Buy}, ErrInvalidQuantity},
		{"negative quantity", TradeRequest{Ticker: Google, Price: 1, Quantity: -3, Action: Sell}, ErrInvalidQuantity},
		{"negative price", TradeRequest{Ticker: Google, Price: -1, Quantity: 1, Action: Sell}, ErrInvalidPrice},
		{"overflowing total", TradeRequest{Ticker: Google, Price: math.MaxInt64, Quantity: 2, Action: Buy}, ErrInvalidPrice},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.req.Validate(7)
			require.Error(t, err)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestZeroPriceIsAccepted(t *testing.T) {
	req := TradeRequest{Ticker: Apple, Price: 0, Quantity: 3, Action: Buy}
	require.NoError(t, req.Validate(1))
	total, err := req.TotalPrice(1)
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestNewCustomerInformationKeepsOrderAndZeroHoldings(t *testing.T) {
	c := &Customer{ID: 2, Name: "Mike", Balance: 7150}
	info := NewCustomerInformation(c, []*Holding{
		{CustomerID: 2, Ticker: Babatata, Quantity: 0},
		{CustomerID: 2, Ticker: Google, Quantity: 3},
	})
	assert.Equal(t, []HoldingView{{Babatata, 0}, {Google, 3}}, info.Holdings)

	cp := info.Clone()
	cp.Holdings[0].Quantity = 99
	assert.Equal(t, int64(0), info.Holdings[0].Quantity)
}

func TestNewCustomerInformationWithoutHoldings(t *testing.T) {
	info := NewCustomerInformation(&Customer{ID: 1, Name: "Sam", Balance: 10000}, nil)
	assert.NotNil(t, info.Holdings)
	assert.Empty(t, info.Holdings)
}
