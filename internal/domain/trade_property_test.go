package domain

import (
	"testing"

	"pgregory.net/rapid"
)

func TestProperty_TotalPriceIsPriceTimesQuantity(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		price := rapid.Int64Range(0, 1_000_000_000).Draw(t, "price")
		qty := rapid.Int64Range(1, 1_000_000_000).Draw(t, "qty")
		req := TradeRequest{Ticker: Google, Price: price, Quantity: qty, Action: Buy}

		total, err := req.TotalPrice(1)
		if err != nil {
			t.Fatalf("TotalPrice(%d × %d) returned %v", price, qty, err)
		}
		if total != price*qty {
			t.Fatalf("TotalPrice(%d × %d) = %d, want %d", price, qty, total, price*qty)
		}
	})
}
