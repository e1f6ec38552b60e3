// Package shared holds the flags and config plumbing common to the listen
// and connect commands.
package shared

import (
	"github.com/urfave/cli/v3"

	"crossipc/localsock/pkg/config"
	"crossipc/localsock/pkg/log"
)

const NameFlag = "name"
const NamespacedFlag = "namespaced"
const RawFlag = "raw"
const LogFileFlag = "log-file"
const VerboseFlag = "verbose"

// GetFlags returns the flags shared by listen and connect.
func GetFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:     NameFlag,
			Aliases:  []string{"n"},
			Usage:    "Local socket name: a filesystem path, or an identifier with --namespaced",
			Required: true,
		},
		&cli.BoolFlag{
			Name:    NamespacedFlag,
			Aliases: []string{"N"},
			Usage:   "Use the OS-private namespace instead of a filesystem path",
		},
		&cli.BoolFlag{
			Name:  RawFlag,
			Usage: "Switch the local terminal to raw mode while relaying",
		},
		&cli.StringFlag{
			Name:    LogFileFlag,
			Aliases: []string{"l"},
			Usage:   "Copy all relayed traffic to this file",
		},
		&cli.BoolFlag{
			Name:    VerboseFlag,
			Aliases: []string{"v"},
			Usage:   "Enable verbose output",
		},
	}
}

// GetConfig builds the shared config from parsed flags.
func GetConfig(cmd *cli.Command) *config.Shared {
	cfg := &config.Shared{
		Name:       cmd.String(NameFlag),
		Namespaced: cmd.Bool(NamespacedFlag),
		LogFile:    cmd.String(LogFileFlag),
		Verbose:    cmd.Bool(VerboseFlag),
	}
	cfg.Logger = log.NewLogger(cfg.Verbose)
	return cfg
}
