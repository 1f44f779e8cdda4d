// Package output prints roost's user-facing messages.
//
// Messages are styled with lipgloss in the Firebird Suite manner. Diagnostics
// belong in package log; this package is for results the user asked for.
package output

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

var (
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("green")).Bold(true)
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("red")).Bold(true)
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("yellow"))
	infoStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("cyan"))
	stepStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))

	mu          sync.Mutex
	out         io.Writer = os.Stdout
	verboseMode bool
)

// SetVerbose enables or disables verbose output.
func SetVerbose(v bool) {
	mu.Lock()
	defer mu.Unlock()
	verboseMode = v
}

// SetWriter redirects all output and returns the previous writer.
func SetWriter(w io.Writer) io.Writer {
	mu.Lock()
	defer mu.Unlock()
	prev := out
	out = w
	return prev
}

// Writer returns the current destination.
func Writer() io.Writer {
	mu.Lock()
	defer mu.Unlock()
	return out
}

func writeLine(s string) {
	mu.Lock()
	defer mu.Unlock()
	fmt.Fprintln(out, s)
}

// Success prints a completed operation.
//
// Example:
//
//	output.Success("Generated app_config_gen.go")
func Success(msg string) {
	writeLine(successStyle.Render("✔ " + msg))
}

// Error prints a failure that needs user attention.
func Error(msg string) {
	writeLine(errorStyle.Render("✘ " + msg))
}

// Warn prints something the user should know about but that did not fail.
func Warn(msg string) {
	writeLine(warnStyle.Render("! " + msg))
}

// Info prints a status update.
func Info(msg string) {
	writeLine(infoStyle.Render("ℹ️  " + msg))
}

// Step prints an indented sub-item in gray.
//
// Example:
//
//	output.Step("app_config_gen.go (unchanged)")
func Step(msg string) {
	writeLine(stepStyle.Render("   " + msg))
}

// Verbose prints msg only in verbose mode.
func Verbose(msg string) {
	mu.Lock()
	v := verboseMode
	mu.Unlock()
	if v {
		writeLine(stepStyle.Render("🔍 " + msg))
	}
}

// Raw prints s without styling or a trailing newline. Used for --stdout.
func Raw(s string) {
	mu.Lock()
	defer mu.Unlock()
	fmt.Fprint(out, s)
}
