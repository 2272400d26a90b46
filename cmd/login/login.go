// Package login implements the session commands: login, logout, whoami
// and backend status.
package login

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/slopewatch/slopewatch-go/internal/cli"
)

// Command creates the login command. The password is read from the
// terminal without echo; it is never accepted as a flag so it cannot
// leak into shell history.
func Command(ctx *cli.Context) *cobra.Command {
	var username string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Authenticate against the backend",
		RunE: func(cmd *cobra.Command, args []string) error {
			if username == "" {
				fmt.Fprint(os.Stderr, "Username: ")
				reader := bufio.NewReader(os.Stdin)
				line, err := reader.ReadString('\n')
				if err != nil {
					return err
				}
				username = strings.TrimSpace(line)
			}

			fmt.Fprint(os.Stderr, "Password: ")
			pw, err := term.ReadPassword(int(syscall.Stdin))
			fmt.Fprintln(os.Stderr)
			if err != nil {
				return err
			}

			resp, err := ctx.API.Login(cmd.Context(), username, string(pw))
			if err != nil {
				ctx.Notifier.Error("login failed, check username and password")
				return err
			}
			if err := ctx.Session.Save(resp.AccessToken); err != nil {
				return err
			}

			ctx.Notifier.Success(fmt.Sprintf("logged in as %s", username))
			return nil
		},
	}

	cmd.Flags().StringVarP(&username, "username", "u", "", "Username to log in with")
	return cmd
}

// LogoutCommand creates the logout command.
func LogoutCommand(ctx *cli.Context) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Discard the stored session token",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx.Session.Clear()
			ctx.Notifier.Success("logged out")
			return nil
		},
	}
}

// WhoamiCommand creates the whoami command.
func WhoamiCommand(ctx *cli.Context) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the authenticated account",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := ctx.RequireSession(); err != nil {
				return err
			}
			user, err := ctx.API.Me(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(ctx.Output(), "%s (%s)\n", user.Username, user.Role)
			if user.FullName != "" {
				fmt.Fprintln(ctx.Output(), user.FullName)
			}
			return nil
		},
	}
}

// StatusCommand creates the status command reporting backend health.
// Health needs no session, so status works while logged out.
func StatusCommand(ctx *cli.Context) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Check backend health",
		RunE: func(cmd *cobra.Command, args []string) error {
			health, err := ctx.API.Health(cmd.Context())
			if err != nil {
				ctx.Notifier.Error("backend is unreachable at " + ctx.API.BaseURL())
				return err
			}
			fmt.Fprintf(ctx.Output(), "backend: %s\ndatabase: %s\n", health.Status, health.DBStatus)
			return nil
		},
	}
}
