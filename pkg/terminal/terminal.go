// Package terminal splices a stream onto the local stdio, optionally with
// the terminal in raw mode for interactive sessions.
package terminal

import (
	"context"
	"fmt"
	"io"
	"os"

	"golang.org/x/term"

	"crossipc/localsock/pkg/log"
	"crossipc/localsock/pkg/pipeio"
)

// Pipe relays between stdio and rwc until either side ends or ctx is
// cancelled.
func Pipe(ctx context.Context, rwc io.ReadWriteCloser, logger *log.Logger) {
	pipeio.Pipe(ctx, pipeio.NewStdio(), rwc, func(err error) {
		logger.VerboseMsg("Pipe(stdio, conn): %s\n", err)
	})
}

// PipeRaw is Pipe with the local terminal switched to raw mode for the
// duration of the relay, so control characters travel through the stream
// instead of being interpreted locally.
func PipeRaw(ctx context.Context, rwc io.ReadWriteCloser, logger *log.Logger) error {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return fmt.Errorf("stdin is not a terminal")
	}

	logger.InfoMsg("Enabling raw mode\n")
	oldState, err := term.MakeRaw(int(os.Stdin.Fd()))
	if err != nil {
		return fmt.Errorf("setting terminal to raw mode: %s", err)
	}

	defer func() {
		logger.InfoMsg("Disabling raw mode\n")
		term.Restore(int(os.Stdin.Fd()), oldState)
		fmt.Printf("\033[2K\r") // clear line
	}()

	Pipe(ctx, rwc, logger)
	return nil
}
