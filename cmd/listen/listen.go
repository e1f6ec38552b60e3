// Package listen implements the listen command: bind a local socket, accept
// one peer, relay the connection to stdio.
package listen

import (
	"context"
	"fmt"
	"io"

	"github.com/urfave/cli/v3"

	"crossipc/localsock/cmd/shared"
	"crossipc/localsock/pkg/localsock"
	"crossipc/localsock/pkg/log"
	"crossipc/localsock/pkg/terminal"
)

// GetCommand returns the listen command.
func GetCommand() *cli.Command {
	return &cli.Command{
		Name:  "listen",
		Usage: "Listen on a local socket and relay the first connection to stdio",
		Flags: shared.GetFlags(),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg := shared.GetConfig(cmd)

			if errs := cfg.Validate(); len(errs) > 0 {
				log.ErrorMsg("Argument validation errors:\n")
				for _, err := range errs {
					log.ErrorMsg(" - %s\n", err)
				}
				return fmt.Errorf("exiting")
			}

			n, err := cfg.Resolve()
			if err != nil {
				return fmt.Errorf("resolving name: %s", err)
			}

			l, err := localsock.Listen(n)
			if err != nil {
				return fmt.Errorf("localsock.Listen(%s): %s", n, err)
			}
			defer l.Close()

			log.InfoMsg("Listening on %s\n", n)

			conn, err := l.Accept()
			if err != nil {
				return fmt.Errorf("Accept(): %s", err)
			}
			defer conn.Close()

			log.InfoMsg("Peer connected\n")

			var rwc io.ReadWriteCloser = conn
			if cfg.LogFile != "" {
				rwc, err = log.NewLoggedStream(conn, cfg.LogFile)
				if err != nil {
					return fmt.Errorf("log.NewLoggedStream(%s): %s", cfg.LogFile, err)
				}
			}

			if cmd.Bool(shared.RawFlag) {
				return terminal.PipeRaw(ctx, rwc, cfg.Logger)
			}
			terminal.Pipe(ctx, rwc, cfg.Logger)
			return nil
		},
	}
}
