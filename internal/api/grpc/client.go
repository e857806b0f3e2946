package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/olyamironova/customer-trade-service/internal/domain"
)

// Client calls CustomerService over an established connection. Domain
// failures come back as *domain.Error so errors.Is works as it does
// in-process.
type Client struct {
	cc grpc.ClientConnInterface
}

func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

func (c *Client) GetCustomerInformation(ctx context.Context, customerID int64, opts ...grpc.CallOption) (*domain.CustomerInformation, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, getCustomerInformationMethod, wrapperspb.Int64(customerID), out, opts...); err != nil {
		return nil, fromStatus(err, customerID)
	}
	return decodeCustomerInformation(out)
}

func (c *Client) Trade(ctx context.Context, customerID int64, req domain.TradeRequest, opts ...grpc.CallOption) (*domain.TradeResult, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, tradeMethod, encodeTradeRequest(customerID, req), out, opts...); err != nil {
		return nil, fromStatus(err, customerID)
	}
	return decodeTradeResult(out)
}

func fromStatus(err error, customerID int64) error {
	st, ok := status.FromError(err)
	if !ok {
		return err
	}
	for _, d := range st.Details() {
		s, ok := d.(*structpb.Struct)
		if !ok {
			continue
		}
		if kind := stringField(s, "kind"); kind != "" && kind != kindInvalidRequest {
			return &domain.Error{Kind: domain.ErrorKind(kind), CustomerID: customerID, Detail: st.Message()}
		}
	}
	return err
}
