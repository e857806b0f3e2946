package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/google/subcommands"

	"github.com/olyamironova/customer-trade-service/internal/api/dto"
	"github.com/olyamironova/customer-trade-service/internal/client"
)

func commands(out io.Writer) []subcommands.Command {
	return []subcommands.Command{
		&customerCmd{out: out},
		&tradeCmd{out: out},
	}
}

// clientArg returns nil when Execute was not handed a *client.Client.
func clientArg(args []interface{}) *client.Client {
	if len(args) == 0 {
		return nil
	}
	c, _ := args[0].(*client.Client)
	return c
}

func parseID(f *flag.FlagSet) (int64, error) {
	if f.NArg() != 1 {
		return 0, fmt.Errorf("expected exactly one customer id")
	}
	return strconv.ParseInt(f.Arg(0), 10, 64)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// --- customerCmd ---

type customerCmd struct {
	out io.Writer
}

func (*customerCmd) Name() string     { return "customer" }
func (*customerCmd) Synopsis() string { return "shows a customer's balance and holdings" }
func (*customerCmd) Usage() string {
	return `customer <id>

Prints the customer's name, cash balance and every holding, including those at zero.
`
}
func (*customerCmd) SetFlags(*flag.FlagSet) {}

func (c *customerCmd) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	id, err := parseID(f)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}
	cl := clientArg(args)
	if cl == nil {
		fmt.Fprintln(os.Stderr, "Error: no client configured.")
		return subcommands.ExitFailure
	}
	info, err := cl.GetCustomer(ctx, id)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	if err := printJSON(c.out, info); err != nil {
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

// --- tradeCmd ---

type tradeCmd struct {
	out      io.Writer
	ticker   string
	price    int64
	quantity int64
	action   string
}

func (*tradeCmd) Name() string     { return "trade" }
func (*tradeCmd) Synopsis() string { return "buys or sells shares for a customer" }
func (*tradeCmd) Usage() string {
	return `trade -action BUY|SELL -ticker <symbol> -price <price> -qty <quantity> <id>

Places a trade at the given price per share and prints the resulting balance.
`
}
func (c *tradeCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.action, "action", "BUY", "BUY or SELL")
	f.StringVar(&c.ticker, "ticker", "", "symbol to trade")
	f.Int64Var(&c.price, "price", 0, "price per share")
	f.Int64Var(&c.quantity, "qty", 0, "number of shares")
}

func (c *tradeCmd) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	id, err := parseID(f)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}
	if c.ticker == "" {
		fmt.Fprintln(os.Stderr, "Error: -ticker is required.")
		return subcommands.ExitUsageError
	}
	cl := clientArg(args)
	if cl == nil {
		fmt.Fprintln(os.Stderr, "Error: no client configured.")
		return subcommands.ExitFailure
	}
	res, err := cl.Trade(ctx, id, dto.TradeRequest{
		Ticker:   c.ticker,
		Price:    c.price,
		Quantity: c.quantity,
		Action:   c.action,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	if err := printJSON(c.out, res); err != nil {
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
