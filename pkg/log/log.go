// Package log provides colored console logging for the toolkit and its CLI.
// Messages go to stderr so that relayed stream data on stdout stays clean.
package log

import (
	"os"

	"github.com/fatih/color"
)

var red = color.New(color.FgRed).FprintfFunc()
var blue = color.New(color.FgBlue).FprintfFunc()
var yellow = color.New(color.FgYellow).FprintfFunc()

// ErrorMsg prints an error message to stderr in red color.
func ErrorMsg(format string, a ...interface{}) {
	red(os.Stderr, "[!] Error: "+format, a...)
}

// InfoMsg prints an informational message to stderr in blue color.
func InfoMsg(format string, a ...interface{}) {
	blue(os.Stderr, "[+] "+format, a...)
}

// Logger carries a verbosity flag so that chatty diagnostics can be
// enabled per invocation instead of globally.
type Logger struct {
	verbose bool
}

// NewLogger creates a Logger. Verbose messages are suppressed unless
// verbose is true.
func NewLogger(verbose bool) *Logger {
	return &Logger{verbose: verbose}
}

// ErrorMsg prints an error message to stderr in red color.
func (l *Logger) ErrorMsg(format string, a ...interface{}) {
	ErrorMsg(format, a...)
}

// InfoMsg prints an informational message to stderr in blue color.
func (l *Logger) InfoMsg(format string, a ...interface{}) {
	InfoMsg(format, a...)
}

// VerboseMsg prints a diagnostic message to stderr in yellow color.
// It is a no-op unless the Logger was created with verbose enabled.
func (l *Logger) VerboseMsg(format string, a ...interface{}) {
	if l == nil || !l.verbose {
		return
	}
	yellow(os.Stderr, "[*] "+format, a...)
}
