// Package connect implements the connect command: dial a local socket and
// relay the connection to stdio.
package connect

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/urfave/cli/v3"

	"crossipc/localsock/cmd/shared"
	"crossipc/localsock/pkg/localsock"
	"crossipc/localsock/pkg/log"
	"crossipc/localsock/pkg/terminal"
)

const timeoutFlag = "timeout"

// GetCommand returns the connect command.
func GetCommand() *cli.Command {
	return &cli.Command{
		Name:  "connect",
		Usage: "Connect to a local socket and relay the connection to stdio",
		Flags: append(shared.GetFlags(),
			&cli.DurationFlag{
				Name:    timeoutFlag,
				Aliases: []string{"t"},
				Usage:   "How long to wait for a listener to appear (0 = single attempt)",
				Value:   10 * time.Second,
			},
		),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg := shared.GetConfig(cmd)
			cfg.Timeout = cmd.Duration(timeoutFlag)

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

			log.InfoMsg("Connecting to %s\n", n)

			conn, err := localsock.Dial(n, cfg.Timeout)
			if err != nil {
				return fmt.Errorf("localsock.Dial(%s): %s", n, err)
			}
			defer conn.Close()

			log.InfoMsg("Connected\n")

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
