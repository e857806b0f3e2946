package grpc

import (
	"fmt"
	"math"
	"strconv"

	"google.golang.org/protobuf/types/known/structpb"

	"github.com/olyamironova/customer-trade-service/internal/domain"
)

// Integers travel as decimal strings: a Struct number is a double and would
// lose precision above 2^53. Numbers are still accepted on input.

func int64Value(n int64) *structpb.Value {
	return structpb.NewStringValue(strconv.FormatInt(n, 10))
}

func int64Field(s *structpb.Struct, name string) (int64, error) {
	v, ok := s.GetFields()[name]
	if !ok {
		return 0, fmt.Errorf("field %q is required", name)
	}
	switch k := v.GetKind().(type) {
	case *structpb.Value_StringValue:
		n, err := strconv.ParseInt(k.StringValue, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("field %q: %q is not an integer", name, k.StringValue)
		}
		return n, nil
	case *structpb.Value_NumberValue:
		f := k.NumberValue
		if f != math.Trunc(f) || f < math.MinInt64 || f >= math.MaxInt64 {
			return 0, fmt.Errorf("field %q: %v is not an integer", name, f)
		}
		return int64(f), nil
	}
	return 0, fmt.Errorf("field %q must be an integer", name)
}

func stringField(s *structpb.Struct, name string) string {
	return s.GetFields()[name].GetStringValue()
}

func encodeCustomerInformation(info *domain.CustomerInformation) *structpb.Struct {
	holdings := make([]*structpb.Value, len(info.Holdings))
	for i, h := range info.Holdings {
		holdings[i] = structpb.NewStructValue(&structpb.Struct{Fields: map[string]*structpb.Value{
			"ticker":   structpb.NewStringValue(string(h.Ticker)),
			"quantity": int64Value(h.Quantity),
		}})
	}
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"id":       int64Value(info.ID),
		"name":     structpb.NewStringValue(info.Name),
		"balance":  int64Value(info.Balance),
		"holdings": structpb.NewListValue(&structpb.ListValue{Values: holdings}),
	}}
}

func decodeCustomerInformation(s *structpb.Struct) (*domain.CustomerInformation, error) {
	info := &domain.CustomerInformation{Name: stringField(s, "name")}
	var err error
	if info.ID, err = int64Field(s, "id"); err != nil {
		return nil, err
	}
	if info.Balance, err = int64Field(s, "balance"); err != nil {
		return nil, err
	}
	values := s.GetFields()["holdings"].GetListValue().GetValues()
	info.Holdings = make([]domain.HoldingView, 0, len(values))
	for _, v := range values {
		h := v.GetStructValue()
		qty, err := int64Field(h, "quantity")
		if err != nil {
			return nil, err
		}
		info.Holdings = append(info.Holdings, domain.HoldingView{
			Ticker:   domain.Ticker(stringField(h, "ticker")),
			Quantity: qty,
		})
	}
	return info, nil
}

func encodeTradeRequest(customerID int64, req domain.TradeRequest) *structpb.Struct {
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"customerId": int64Value(customerID),
		"ticker":     structpb.NewStringValue(string(req.Ticker)),
		"price":      int64Value(req.Price),
		"quantity":   int64Value(req.Quantity),
		"action":     structpb.NewStringValue(string(req.Action)),
	}}
}

func decodeTradeRequest(s *structpb.Struct) (int64, domain.TradeRequest, error) {
	var req domain.TradeRequest
	customerID, err := int64Field(s, "customerId")
	if err != nil {
		return 0, req, err
	}
	if req.Price, err = int64Field(s, "price"); err != nil {
		return 0, req, err
	}
	if req.Quantity, err = int64Field(s, "quantity"); err != nil {
		return 0, req, err
	}
	symbol := stringField(s, "ticker")
	if symbol == "" {
		symbol = stringField(s, "instrument")
	}
	req.Ticker, _ = domain.ParseTicker(symbol)
	req.Action, _ = domain.ParseAction(stringField(s, "action"))
	return customerID, req, nil
}

func encodeTradeResult(r *domain.TradeResult) *structpb.Struct {
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"customer":   int64Value(r.CustomerID),
		"ticker":     structpb.NewStringValue(string(r.Ticker)),
		"price":      int64Value(r.Price),
		"quantity":   int64Value(r.Quantity),
		"action":     structpb.NewStringValue(string(r.Action)),
		"totalPrice": int64Value(r.TotalPrice),
		"balance":    int64Value(r.Balance),
	}}
}

func decodeTradeResult(s *structpb.Struct) (*domain.TradeResult, error) {
	r := &domain.TradeResult{
		Ticker: domain.Ticker(stringField(s, "ticker")),
		Action: domain.Action(stringField(s, "action")),
	}
	for name, dst := range map[string]*int64{
		"customer":   &r.CustomerID,
		"price":      &r.Price,
		"quantity":   &r.Quantity,
		"totalPrice": &r.TotalPrice,
		"balance":    &r.Balance,
	} {
		n, err := int64Field(s, name)
		if err != nil {
			return nil, err
		}
		*dst = n
	}
	return r, nil
}
