// Package cmd assembles the slopewatch command tree. RootCommand is the
// single binding table from subcommands to controllers; main constructs
// the cli.Context and hands it here.
package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/slopewatch/slopewatch-go/cmd/db"
	"github.com/slopewatch/slopewatch-go/cmd/login"
	"github.com/slopewatch/slopewatch-go/cmd/projects"
	"github.com/slopewatch/slopewatch-go/cmd/stations"
	"github.com/slopewatch/slopewatch-go/cmd/users"
	"github.com/slopewatch/slopewatch-go/cmd/velocity"
	"github.com/slopewatch/slopewatch-go/internal/cli"
)

// RootCommand creates and returns the root command.
func RootCommand(ctx *cli.Context) *cobra.Command {
	// Run the root's PersistentPreRun in addition to the subcommands' own
	// session checks.
	cobra.EnableTraverseRunHooks = true

	rootCmd := &cobra.Command{
		Use:           "slopewatch",
		Short:         "SlopeWatch admin console",
		Long:          "Administer a SlopeWatch landslide monitoring backend: projects, stations, sensor bindings, alert thresholds, users and the raw database.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	setupFlags(rootCmd, ctx)

	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		// A --server override must reach the already-constructed client.
		if rootCmd.PersistentFlags().Changed("server") {
			ctx.API.SetBaseURL(ctx.Settings.Server.URL)
		}
	}

	subcommands := []*cobra.Command{
		login.Command(ctx),
		login.LogoutCommand(ctx),
		login.WhoamiCommand(ctx),
		login.StatusCommand(ctx),
		projects.Command(ctx),
		stations.Command(ctx),
		users.Command(ctx),
		db.Command(ctx),
		velocity.Command(ctx),
	}
	rootCmd.AddCommand(subcommands...)

	return rootCmd
}

// setupFlags defines the global flags shared by every subcommand.
func setupFlags(rootCmd *cobra.Command, ctx *cli.Context) {
	rootCmd.PersistentFlags().StringVar(&ctx.Settings.Server.URL, "server", viper.GetString("server.url"), "Backend base URL")
	rootCmd.PersistentFlags().BoolVarP(&ctx.Settings.Debug, "debug", "d", viper.GetBool("debug"), "Enable debug output")
	rootCmd.PersistentFlags().BoolVarP(&ctx.AssumeYes, "yes", "y", false, "Answer yes to confirmation prompts")
}
