package dto

import (
	"github.com/olyamironova/customer-trade-service/internal/domain"
)

type TradeRequest struct {
	Ticker     string `json:"ticker"`
	Instrument string `json:"instrument,omitempty"` // older clients send the symbol here
	Price      int64  `json:"price"`
	Quantity   int64  `json:"quantity"`
	Action     string `json:"action"`
}

// ToDomain normalizes the symbol and action. Unknown values are passed on
// as-is so that the engine reports them with the proper kind.
func (r TradeRequest) ToDomain() domain.TradeRequest {
	symbol := r.Ticker
	if symbol == "" {
		symbol = r.Instrument
	}
	ticker, _ := domain.ParseTicker(symbol)
	action, _ := domain.ParseAction(r.Action)
	return domain.TradeRequest{
		Ticker:   ticker,
		Price:    r.Price,
		Quantity: r.Quantity,
		Action:   action,
	}
}

type TradeResponse struct {
	Customer   int64  `json:"customer"`
	Ticker     string `json:"ticker"`
	Price      int64  `json:"price"`
	Quantity   int64  `json:"quantity"`
	Action     string `json:"action"`
	TotalPrice int64  `json:"totalPrice"`
	Balance    int64  `json:"balance"`
}

func FromTradeResult(r *domain.TradeResult) TradeResponse {
	return TradeResponse{
		Customer:   r.CustomerID,
		Ticker:     string(r.Ticker),
		Price:      r.Price,
		Quantity:   r.Quantity,
		Action:     string(r.Action),
		TotalPrice: r.TotalPrice,
		Balance:    r.Balance,
	}
}

type Holding struct {
	Ticker   string `json:"ticker"`
	Quantity int64  `json:"quantity"`
}

type CustomerInformation struct {
	ID       int64     `json:"id"`
	Name     string    `json:"name"`
	Balance  int64     `json:"balance"`
	Holdings []Holding `json:"holdings"`
}

func FromCustomerInformation(info *domain.CustomerInformation) CustomerInformation {
	holdings := make([]Holding, len(info.Holdings))
	for i, h := range info.Holdings {
		holdings[i] = Holding{Ticker: string(h.Ticker), Quantity: h.Quantity}
	}
	return CustomerInformation{
		ID:       info.ID,
		Name:     info.Name,
		Balance:  info.Balance,
		Holdings: holdings,
	}
}

// Problem is an RFC 7807 error body.
type Problem struct {
	Type     string `json:"type"`
	Title    string `json:"title"`
	Status   int    `json:"status"`
	Detail   string `json:"detail,omitempty"`
	Instance string `json:"instance,omitempty"`
}

func (p *Problem) Error() string {
	if p.Detail != "" {
		return p.Detail
	}
	return p.Title
}

type Health struct {
	Status string `json:"status"`
}
