// Package db implements the raw database browser commands: browse, show,
// edit, delete, stats and export.
package db

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/slopewatch/slopewatch-go/internal/browser"
	"github.com/slopewatch/slopewatch-go/internal/cli"
)

// Command creates the db command group.
func Command(ctx *cli.Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "db",
		Short: "Browse the raw database",
		Long:  "Inspect, filter, edit, delete and export raw records from the stations, devices, sensor_data and alerts collections.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return ctx.RequireSession()
		},
	}

	cmd.AddCommand(
		browseCommand(ctx),
		showCommand(ctx),
		editCommand(ctx),
		deleteCommand(ctx),
		statsCommand(ctx),
		exportCommand(ctx),
	)
	return cmd
}

func browseCommand(ctx *cli.Context) *cobra.Command {
	var table, search string
	var limit int

	cmd := &cobra.Command{
		Use:   "browse",
		Short: "List records across all collections",
		RunE: func(cmd *cobra.Command, args []string) error {
			if table != "" && !validTable(table) {
				return fmt.Errorf("unknown table %q, valid tables: %s", table, strings.Join(browser.Tables(), ", "))
			}
			if err := ctx.Browser.LoadAll(cmd.Context()); err != nil {
				return err
			}

			records := browser.Filter(ctx.Browser.Records(), table, search, limit)

			w := tabwriter.NewWriter(ctx.Output(), 0, 8, 2, ' ', 0)
			fmt.Fprintln(w, "TABLE\tID\tRECORD")
			for _, r := range records {
				fmt.Fprintf(w, "%v\t%v\t%s\n", r[browser.TableKey], r["id"], summarize(r))
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVarP(&table, "table", "t", "", "Restrict to one table")
	cmd.Flags().StringVarP(&search, "search", "s", "", "Case-insensitive text filter over whole records")
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Maximum records to show, 0 for the configured default")

	// Default the limit from configuration only when the flag is unset.
	cmd.PreRun = func(cmd *cobra.Command, args []string) {
		if !cmd.Flags().Changed("limit") {
			limit = ctx.Settings.Browser.Limit
		}
	}
	return cmd
}

func showCommand(ctx *cli.Context) *cobra.Command {
	return &cobra.Command{
		Use:   "show <table> <record-id>",
		Short: "Print one record as JSON",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			table, id, err := parseRecordRef(args)
			if err != nil {
				return err
			}
			if err := ctx.Browser.LoadAll(cmd.Context()); err != nil {
				return err
			}

			record, ok := ctx.Browser.FindRecord(table, id)
			if !ok {
				return fmt.Errorf("no %s record with id %d", table, id)
			}
			data, err := json.MarshalIndent(record, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(ctx.Output(), string(data))
			return nil
		},
	}
}

func editCommand(ctx *cli.Context) *cobra.Command {
	var fromFile string

	cmd := &cobra.Command{
		Use:   "edit <table> <record-id>",
		Short: "Replace one record with edited JSON",
		Long:  "Replace a record with the JSON document read from --file or stdin. The document is validated locally before anything is sent.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			table, id, err := parseRecordRef(args)
			if err != nil {
				return err
			}

			var text []byte
			if fromFile != "" {
				text, err = os.ReadFile(fromFile)
			} else {
				text, err = readAll(cmd)
			}
			if err != nil {
				return err
			}

			return ctx.Browser.SaveRecord(cmd.Context(), table, id, string(text))
		},
	}

	cmd.Flags().StringVarP(&fromFile, "file", "f", "", "Read the replacement JSON from a file instead of stdin")
	return cmd
}

func deleteCommand(ctx *cli.Context) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <table> <record-id>",
		Short: "Delete one record",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			table, id, err := parseRecordRef(args)
			if err != nil {
				return err
			}
			return ctx.Browser.DeleteRecord(cmd.Context(), table, id)
		},
	}
}

func statsCommand(ctx *cli.Context) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Summarize record counts per collection",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := ctx.Browser.LoadAll(cmd.Context()); err != nil {
				return err
			}
			s := ctx.Browser.Stats()

			w := tabwriter.NewWriter(ctx.Output(), 0, 8, 2, ' ', 0)
			fmt.Fprintf(w, "stations\t%d\n", s.Stations)
			fmt.Fprintf(w, "devices\t%d\n", s.Devices)
			fmt.Fprintf(w, "sensor readings\t%d\n", s.SensorReadings)
			fmt.Fprintf(w, "unresolved alerts\t%d\n", s.UnresolvedAlerts)
			fmt.Fprintf(w, "total records\t%d\n", s.Total)
			return w.Flush()
		},
	}
}

func exportCommand(ctx *cli.Context) *cobra.Command {
	var format, outPath string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export every record to JSON or YAML",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := ctx.Browser.LoadAll(cmd.Context()); err != nil {
				return err
			}
			data, err := ctx.Browser.Export(browser.ExportFormat(format))
			if err != nil {
				return err
			}

			if outPath == "" {
				fmt.Fprintln(ctx.Output(), string(data))
				return nil
			}
			if err := os.WriteFile(outPath, data, 0o644); err != nil {
				return err
			}
			ctx.Notifier.Success("exported to " + outPath)
			return nil
		},
	}

	cmd.Flags().StringVar(&format, "format", "json", "Export format: json or yaml")
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "Write to a file instead of stdout")
	return cmd
}

func parseRecordRef(args []string) (table string, id int64, err error) {
	table = args[0]
	if !validTable(table) {
		return "", 0, fmt.Errorf("unknown table %q, valid tables: %s", table, strings.Join(browser.Tables(), ", "))
	}
	id, err = strconv.ParseInt(args[1], 10, 64)
	if err != nil {
		return "", 0, fmt.Errorf("invalid record id %q: %w", args[1], err)
	}
	return table, id, nil
}

func validTable(table string) bool {
	for _, t := range browser.Tables() {
		if t == table {
			return true
		}
	}
	return false
}

func readAll(cmd *cobra.Command) ([]byte, error) {
	return io.ReadAll(cmd.InOrStdin())
}

// summarize renders a record on one line, truncated for table display.
func summarize(r map[string]any) string {
	clean := make(map[string]any, len(r))
	for k, v := range r {
		if k == browser.TableKey || k == "id" {
			continue
		}
		clean[k] = v
	}
	data, err := json.Marshal(clean)
	if err != nil {
		return fmt.Sprintf("%v", clean)
	}
	const maxLen = 120
	s := string(data)
	if len(s) > maxLen {
		s = s[:maxLen-3] + "..."
	}
	return s
}
