package main

import (
	"context"
	"os"

	"github.com/urfave/cli/v3"

	"crossipc/localsock/cmd/connect"
	"crossipc/localsock/cmd/listen"
	"crossipc/localsock/cmd/version"
	"crossipc/localsock/pkg/log"
)

func main() {
	app := &cli.Command{
		Name:  "lsockcat",
		Usage: "netcat for local sockets: Unix domain sockets and named pipes",
		Commands: []*cli.Command{
			listen.GetCommand(),
			connect.GetCommand(),
			version.GetCommand(),
		},
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		log.ErrorMsg("%s\n", err)
		os.Exit(1)
	}
}
