// Package users implements console account management commands.
package users

import (
	"fmt"
	"os"
	"strconv"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/slopewatch/slopewatch-go/internal/cli"
)

// Command creates the users command group.
func Command(ctx *cli.Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Manage console accounts",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return ctx.RequireSession()
		},
	}

	cmd.AddCommand(listCommand(ctx), createCommand(ctx), deleteCommand(ctx))
	return cmd
}

func listCommand(ctx *cli.Context) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List accounts",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := ctx.Console.LoadUsers(cmd.Context()); err != nil {
				return err
			}

			w := tabwriter.NewWriter(ctx.Output(), 0, 8, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tUSERNAME\tROLE\tACTIVE\tFULL NAME")
			for _, u := range ctx.Console.Users() {
				fmt.Fprintf(w, "%d\t%s\t%s\t%t\t%s\n", u.ID, u.Username, u.Role, u.IsActive, u.FullName)
			}
			return w.Flush()
		},
	}
}

func createCommand(ctx *cli.Context) *cobra.Command {
	var username, fullName, role string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an account",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprint(os.Stderr, "Password: ")
			pw, err := term.ReadPassword(int(syscall.Stdin))
			fmt.Fprintln(os.Stderr)
			if err != nil {
				return err
			}
			return ctx.Console.CreateUser(cmd.Context(), username, string(pw), fullName, role)
		},
	}

	cmd.Flags().StringVarP(&username, "username", "u", "", "Login name")
	cmd.Flags().StringVar(&fullName, "full-name", "", "Display name")
	cmd.Flags().StringVar(&role, "role", "", "Account role (admin or viewer)")
	return cmd
}

func deleteCommand(ctx *cli.Context) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <user-id>",
		Short: "Delete an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid user id %q: %w", args[0], err)
			}
			return ctx.Console.DeleteUser(cmd.Context(), id)
		},
	}
}
