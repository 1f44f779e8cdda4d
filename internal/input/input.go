// Package input provides interactive terminal prompts.
package input

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

var (
	promptStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("cyan")).Bold(true)
	hintStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))

	mu     sync.Mutex
	reader *bufio.Reader = bufio.NewReader(os.Stdin)
	writer io.Writer     = os.Stdout
)

// SetIO redirects prompts (tests, piped input). It returns a func restoring
// the previous reader and writer.
func SetIO(r io.Reader, w io.Writer) (restore func()) {
	mu.Lock()
	defer mu.Unlock()
	prevR, prevW := reader, writer
	reader, writer = bufio.NewReader(r), w
	return func() {
		mu.Lock()
		defer mu.Unlock()
		reader, writer = prevR, prevW
	}
}

// IsInteractive reports whether stdin and stdout are both terminals.
func IsInteractive() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
}

// Prompt asks for text input. Pressing Enter returns defaultValue.
//
// Example:
//
//	global := input.Prompt("Global accessor name", "Config")
//	// Displays: Global accessor name (Config): _
func Prompt(message, defaultValue string) string {
	mu.Lock()
	defer mu.Unlock()

	if defaultValue != "" {
		fmt.Fprint(writer, promptStyle.Render(message)+" "+
			hintStyle.Render(fmt.Sprintf("(%s)", defaultValue))+": ")
	} else {
		fmt.Fprint(writer, promptStyle.Render(message)+": ")
	}

	line, err := reader.ReadString('\n')
	if err != nil && line == "" {
		return defaultValue
	}

	line = strings.TrimSpace(line)
	if line == "" {
		return defaultValue
	}
	return line
}

// Confirm asks a yes/no question. Enter returns defaultYes.
func Confirm(message string, defaultYes bool) bool {
	mu.Lock()
	defer mu.Unlock()

	hint := "[y/N]"
	if defaultYes {
		hint = "[Y/n]"
	}
	fmt.Fprint(writer, promptStyle.Render(message)+" "+hintStyle.Render(hint)+": ")

	line, err := reader.ReadString('\n')
	if err != nil && line == "" {
		return defaultYes
	}

	line = strings.TrimSpace(strings.ToLower(line))
	if line == "" {
		return defaultYes
	}
	return line == "y" || line == "yes"
}
