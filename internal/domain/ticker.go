package domain

import (
	"sort"
	"strings"
)

type Ticker string

const (
	Amazon    Ticker = "AMAZON"
	Apple     Ticker = "APPLE"
	Babatata  Ticker = "BABATATA"
	Google    Ticker = "GOOGLE"
	Microsoft Ticker = "MICROSOFT"
)

var tickers = map[Ticker]struct{}{
	Amazon:    {},
	Apple:     {},
	Babatata:  {},
	Google:    {},
	Microsoft: {},
}

// ParseTicker is case-insensitive and reports false for symbols that are not
// tradable.
func ParseTicker(s string) (Ticker, bool) {
	t := Ticker(strings.ToUpper(strings.TrimSpace(s)))
	_, ok := tickers[t]
	return t, ok
}

func (t Ticker) Valid() bool {
	_, ok := tickers[t]
	return ok
}

// Tickers lists every tradable symbol in alphabetical order.
func Tickers() []Ticker {
	out := make([]Ticker, 0, len(tickers))
	for t := range tickers {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
