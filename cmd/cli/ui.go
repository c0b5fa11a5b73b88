package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

var (
	noticeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	promptStyle = lipgloss.NewStyle().Bold(true)
)

// console is the terminal side of the session. Notifications may arrive
// from subscription goroutines, so writes are serialized.
type console struct {
	in     *bufio.Scanner
	mu     sync.Mutex
	out    io.Writer
	errOut io.Writer
}

func newConsole(in io.Reader, out, errOut io.Writer) *console {
	return &console{in: bufio.NewScanner(in), out: out, errOut: errOut}
}

// readLine returns the next input line; ok is false at end of input.
func (c *console) readLine() (string, bool) {
	if !c.in.Scan() {
		return "", false
	}
	return c.in.Text(), true
}

func (c *console) Notify(msg string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintln(c.errOut, noticeStyle.Render(msg))
}

func (c *console) printf(format string, args ...any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.out, format, args...)
}

func (c *console) errorf(format string, args ...any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintln(c.errOut, errorStyle.Render(fmt.Sprintf(format, args...)))
}

func (c *console) prompt(s string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprint(c.out, promptStyle.Render(s))
}

// Confirm asks a yes/no question on the next input line. End of input is "no".
func (c *console) Confirm(question string) bool {
	c.prompt(question + " [y/N] ")
	line, ok := c.readLine()
	if !ok {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	}
	return false
}

// clipboard receives copied outputs: written to a file when one is
// configured, printed otherwise.
type clipboard struct {
	path string
	out  io.Writer
}

func newClipboard(path string, out io.Writer) *clipboard {
	return &clipboard{path: path, out: out}
}

func (c *clipboard) Copy(text string) error {
	if c.path == "" {
		_, err := fmt.Fprintln(c.out, text)
		return err
	}
	f, err := os.OpenFile(c.path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return err
	}
	if _, err := io.WriteString(f, text+"\n"); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
