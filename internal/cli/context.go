// Package cli carries the shared dependencies of the command tree. The
// context is assembled once in main and handed to every subcommand
// constructor; commands never reach for globals.
package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/slopewatch/slopewatch-go/internal/api"
	"github.com/slopewatch/slopewatch-go/internal/browser"
	"github.com/slopewatch/slopewatch-go/internal/conf"
	"github.com/slopewatch/slopewatch-go/internal/console"
	"github.com/slopewatch/slopewatch-go/internal/notify"
	"github.com/slopewatch/slopewatch-go/internal/session"
)

// Context bundles everything a subcommand needs.
type Context struct {
	Settings *conf.Settings
	API      *api.Client
	Session  *session.Store
	Console  *console.Controller
	Browser  *browser.Browser
	Notifier notify.Notifier

	// Out is where command output (tables, records) goes. Defaults to
	// stdout; tests substitute a buffer.
	Out io.Writer

	// AssumeYes skips interactive confirmation prompts.
	AssumeYes bool
}

// Output returns the command output writer.
func (c *Context) Output() io.Writer {
	if c.Out == nil {
		return os.Stdout
	}
	return c.Out
}

// Confirm asks the operator a yes/no question on the terminal. With
// AssumeYes set every prompt is answered yes without asking.
func (c *Context) Confirm(prompt string) bool {
	if c.AssumeYes {
		return true
	}
	fmt.Fprintf(os.Stderr, "%s [y/N]: ", prompt)
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}

// RequireSession fails fast when no token is stored.
func (c *Context) RequireSession() error {
	return c.Session.Require()
}
