// Command tradectl queries customers and places trades against a running
// trade service.
package main

import (
	"context"
	"flag"
	"os"
	"path"
	"time"

	"github.com/google/subcommands"

	"github.com/olyamironova/customer-trade-service/internal/client"
)

func main() {
	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	addr := flag.String("addr", "http://localhost:8080", "base URL of the trade service")
	timeout := flag.Duration("timeout", 10*time.Second, "request timeout")
	clientID := flag.String("client-id", "tradectl", "value sent as X-Client-ID")

	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")
	for _, c := range commands(os.Stdout) {
		commander.Register(c, "")
	}

	flag.Parse()
	cl := client.New(*addr, *timeout).SetClientID(*clientID)
	os.Exit(int(commander.Execute(context.Background(), cl)))
}
