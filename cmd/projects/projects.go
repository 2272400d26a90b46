// Package projects implements project management commands.
package projects

import (
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/slopewatch/slopewatch-go/internal/cli"
)

// Command creates the projects command group.
func Command(ctx *cli.Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "projects",
		Short: "Manage monitoring projects",
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
		Short: "List projects",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := ctx.Console.LoadProjects(cmd.Context()); err != nil {
				return err
			}

			w := tabwriter.NewWriter(ctx.Output(), 0, 8, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tCODE\tNAME\tSTATIONS\tLOCATION")
			for _, p := range ctx.Console.Projects() {
				fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%s\n",
					p.ID, p.ProjectCode, p.Name, p.StationCount, p.Location)
			}
			return w.Flush()
		},
	}
}

func createCommand(ctx *cli.Context) *cobra.Command {
	var code, name, description, location string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a project",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.Console.CreateProject(cmd.Context(), code, name, description, location)
		},
	}

	cmd.Flags().StringVar(&code, "code", "", "Unique project code")
	cmd.Flags().StringVar(&name, "name", "", "Project display name")
	cmd.Flags().StringVar(&description, "description", "", "Free-form description")
	cmd.Flags().StringVar(&location, "location", "", "Site location")
	return cmd
}

func deleteCommand(ctx *cli.Context) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <project-id>",
		Short: "Delete a project and all its stations",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid project id %q: %w", args[0], err)
			}
			// Resolve the name for the confirmation prompt.
			_ = ctx.Console.LoadProjects(cmd.Context())
			return ctx.Console.DeleteProject(cmd.Context(), id)
		},
	}
}
