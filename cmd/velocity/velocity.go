// Package velocity shows the Cruden & Varnes landslide velocity scale.
package velocity

import (
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/slopewatch/slopewatch-go/internal/cli"
	"github.com/slopewatch/slopewatch-go/internal/console"
)

// Command creates the velocity command group. The scale is reference
// material and needs no session.
func Command(ctx *cli.Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "velocity",
		Short: "Landslide velocity reference scale",
	}

	cmd.AddCommand(scaleCommand(ctx), applyCommand(ctx))
	return cmd
}

func scaleCommand(ctx *cli.Context) *cobra.Command {
	return &cobra.Command{
		Use:   "scale",
		Short: "Show the Cruden & Varnes velocity classes",
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(ctx.Output(), 0, 8, 2, ' ', 0)
			fmt.Fprintln(w, "CLASS\tDESCRIPTION\tVELOCITY\tSIGNIFICANCE")
			for _, v := range console.VelocityScale() {
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", v.Class, v.Description, v.Velocity, v.TypicalRate)
			}
			return w.Flush()
		},
	}
}

func applyCommand(ctx *cli.Context) *cobra.Command {
	return &cobra.Command{
		Use:   "apply <class>",
		Short: "Note a velocity class for the current assessment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			class, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid class %q: %w", args[0], err)
			}
			return ctx.Console.ApplyVelocityClass(class)
		},
	}
}
