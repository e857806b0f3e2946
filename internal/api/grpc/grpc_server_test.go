package grpc

import (
	"context"
	"net"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/olyamironova/customer-trade-service/internal/adapter/in_memory"
	"github.com/olyamironova/customer-trade-service/internal/core"
	"github.com/olyamironova/customer-trade-service/internal/domain"
	"github.com/olyamironova/customer-trade-service/internal/seed"
)

func startServer(t *testing.T) (*Client, *grpc.ClientConn) {
	t.Helper()
	log, _ := test.NewNullLogger()
	repo := in_memory.NewMemoryRepo()
	require.NoError(t, seed.Apply(context.Background(), repo, seed.Default()))

	lis := bufconn.Listen(1 << 20)
	srv := NewGRPCServer(core.NewEngine(repo, nil, core.WithLogger(log)), log).Server()
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return NewClient(conn), conn
}

func TestGRPCCustomerInformation(t *testing.T) {
	client, _ := startServer(t)

	info, err := client.GetCustomerInformation(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, &domain.CustomerInformation{ID: 1, Name: "Sam", Balance: 10000, Holdings: []domain.HoldingView{}}, info)
}

func TestGRPCTradeScenario(t *testing.T) {
	ctx := context.Background()
	client, _ := startServer(t)

	res, err := client.Trade(ctx, 3, domain.TradeRequest{Ticker: domain.Babatata, Price: 100, Quantity: 5, Action: domain.Buy})
	require.NoError(t, err)
	assert.Equal(t, &domain.TradeResult{
		CustomerID: 3, Ticker: domain.Babatata, Price: 100, Quantity: 5,
		Action: domain.Buy, TotalPrice: 500, Balance: 9500,
	}, res)

	res, err = client.Trade(ctx, 3, domain.TradeRequest{Ticker: domain.Babatata, Price: 110, Quantity: 5, Action: domain.Sell})
	require.NoError(t, err)
	assert.Equal(t, int64(10050), res.Balance)

	_, err = client.Trade(ctx, 3, domain.TradeRequest{Ticker: domain.Babatata, Price: 110, Quantity: 1, Action: domain.Sell})
	require.ErrorIs(t, err, domain.ErrInsufficientShares)
	assert.EqualError(t, err, "Customer [id=3] does not have enough shares to complete this transaction")

	info, err := client.GetCustomerInformation(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, []domain.HoldingView{{Ticker: domain.Babatata, Quantity: 0}}, info.Holdings)
}

func TestGRPCErrorCodes(t *testing.T) {
	ctx := context.Background()
	_, conn := startServer(t)
	client := NewClient(conn)

	_, err := client.GetCustomerInformation(ctx, 10)
	require.ErrorIs(t, err, domain.ErrCustomerNotFound)
	assert.EqualError(t, err, "Customer [id=10] is not found")

	// raw calls expose the status codes
	out := new(structpb.Struct)
	in, _ := structpb.NewStruct(map[string]any{"customerId": 10, "ticker": "GOOGLE", "price": 1, "quantity": 1, "action": "BUY"})
	err = conn.Invoke(ctx, tradeMethod, in, out)
	assert.Equal(t, codes.NotFound, status.Code(err))

	in, _ = structpb.NewStruct(map[string]any{"customerId": "1", "ticker": "GOOGLE", "price": "1000", "quantity": "12", "action": "BUY"})
	err = conn.Invoke(ctx, tradeMethod, in, out)
	assert.Equal(t, codes.FailedPrecondition, status.Code(err))

	in, _ = structpb.NewStruct(map[string]any{"customerId": "1", "ticker": "GOOGLE", "price": "1", "quantity": "0", "action": "BUY"})
	err = conn.Invoke(ctx, tradeMethod, in, out)
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	in, _ = structpb.NewStruct(map[string]any{"customerId": "1", "ticker": "GOOGLE", "action": "BUY"})
	err = conn.Invoke(ctx, tradeMethod, in, out)
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
	assert.Contains(t, status.Convert(err).Message(), "price")
}

func TestInt64Field(t *testing.T) {
	s, err := structpb.NewStruct(map[string]any{"a": "42", "b": 7, "c": 1.5, "d": "x", "e": true})
	require.NoError(t, err)

	n, err := int64Field(s, "a")
	require.NoError(t, err)
	assert.Equal(t, int64(42), n)

	n, err = int64Field(s, "b")
	require.NoError(t, err)
	assert.Equal(t, int64(7), n)

	for _, name := range []string{"c", "d", "e", "missing"} {
		_, err := int64Field(s, name)
		assert.Error(t, err, name)
	}
}
