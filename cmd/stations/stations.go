// Package stations implements station management commands, including the
// three-step station wizard driven by flags, the live GNSS origin fetch
// and the broker-side topic probe.
package stations

import (
	"fmt"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/slopewatch/slopewatch-go/internal/api"
	"github.com/slopewatch/slopewatch-go/internal/cli"
	"github.com/slopewatch/slopewatch-go/internal/console"
	"github.com/slopewatch/slopewatch-go/internal/mqttprobe"
)

// Command creates the stations command group.
func Command(ctx *cli.Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stations",
		Short: "Manage monitoring stations",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return ctx.RequireSession()
		},
	}

	cmd.AddCommand(
		listCommand(ctx),
		showCommand(ctx),
		createCommand(ctx),
		editCommand(ctx),
		deleteCommand(ctx),
		addDeviceCommand(ctx),
		removeDeviceCommand(ctx),
		probeTopicCommand(ctx),
	)
	return cmd
}

func listCommand(ctx *cli.Context) *cobra.Command {
	return &cobra.Command{
		Use:   "list <project-id>",
		Short: "List the stations of a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			projectID, err := parseID(args[0], "project")
			if err != nil {
				return err
			}
			if err := ctx.Console.LoadStations(cmd.Context(), projectID); err != nil {
				return err
			}

			w := tabwriter.NewWriter(ctx.Output(), 0, 8, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tCODE\tNAME\tSTATUS\tLOCATION")
			for _, s := range ctx.Console.Stations() {
				loc := ""
				if s.Location != nil {
					loc = fmt.Sprintf("%.7f, %.7f", float64(s.Location.Lat), float64(s.Location.Lon))
				}
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", s.ID, s.StationCode, s.Name, s.Status, loc)
			}
			return w.Flush()
		},
	}
}

func showCommand(ctx *cli.Context) *cobra.Command {
	return &cobra.Command{
		Use:   "show <station-id>",
		Short: "Show a station's sensors and thresholds",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			stationID, err := parseID(args[0], "station")
			if err != nil {
				return err
			}
			if err := ctx.Console.EditStation(cmd.Context(), stationID); err != nil {
				return err
			}
			form := ctx.Console.WizardForm()
			ctx.Console.CloseWizard()

			out := ctx.Output()
			fmt.Fprintf(out, "Station %s (%s)\n\n", form.Name, form.StationCode)

			w := tabwriter.NewWriter(out, 0, 8, 2, ' ', 0)
			fmt.Fprintln(w, "SENSOR\tENABLED\tTOPIC")
			for _, t := range console.SensorTypes {
				b := form.Sensors[t]
				fmt.Fprintf(w, "%s\t%t\t%s\n", t, b.Enabled, b.Topic)
			}
			if err := w.Flush(); err != nil {
				return err
			}

			th := form.Thresholds
			fmt.Fprintf(out, "\nWater: warning %.2f m, critical %.2f m\n", th.WaterWarning, th.WaterCritical)
			fmt.Fprintf(out, "Rain: watch %.1f, warning %.1f, critical %.1f mm/h\n", th.RainWatch, th.RainWarning, th.RainCritical)
			fmt.Fprintf(out, "GNSS: max HDOP %.1f, confirm %d, safe streak %d, degraded timeout %d s\n",
				th.GnssMaxHDOP, th.GnssConfirmSteps, th.GnssSafeStreak, th.GnssDegradedTimeout)
			fmt.Fprintf(out, "IMU: shock %.1f m/s2\n", th.ImuShock)

			if form.Origin.Set {
				fmt.Fprintf(out, "Origin: %.7f, %.7f (h %.2f m)\n", form.Origin.Lat, form.Origin.Lon, form.Origin.H)
			} else {
				fmt.Fprintln(out, "Origin: not set")
			}
			return nil
		},
	}
}

func createCommand(ctx *cli.Context) *cobra.Command {
	flags := newStationFlags()

	cmd := &cobra.Command{
		Use:   "create <project-id>",
		Short: "Create a station in a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			projectID, err := parseID(args[0], "project")
			if err != nil {
				return err
			}
			if err := ctx.Console.LoadStations(cmd.Context(), projectID); err != nil {
				return err
			}

			ctx.Console.OpenStationWizard()
			return runWizard(cmd, ctx, flags)
		},
	}

	flags.register(cmd)
	return cmd
}

func editCommand(ctx *cli.Context) *cobra.Command {
	flags := newStationFlags()

	cmd := &cobra.Command{
		Use:   "edit <station-id>",
		Short: "Edit a station",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			stationID, err := parseID(args[0], "station")
			if err != nil {
				return err
			}
			if err := ctx.Console.EditStation(cmd.Context(), stationID); err != nil {
				return err
			}
			return runWizard(cmd, ctx, flags)
		},
	}

	flags.register(cmd)
	return cmd
}

// runWizard walks an open wizard through its three steps, applying only
// the flags the operator actually set, then saves. The wizard stays open
// on save failure, but a CLI invocation ends here either way, so it is
// closed before returning.
func runWizard(cmd *cobra.Command, ctx *cli.Context, flags *stationFlags) error {
	if err := flags.apply(cmd, ctx.Console); err != nil {
		ctx.Console.CloseWizard()
		return err
	}

	if flags.fetchOrigin {
		if err := ctx.Console.FetchLatestOrigin(cmd.Context()); err != nil {
			ctx.Console.CloseWizard()
			return err
		}
	}

	ctx.Console.WizardNext()
	ctx.Console.WizardNext()

	if err := ctx.Console.SaveStation(cmd.Context()); err != nil {
		ctx.Console.CloseWizard()
		return err
	}
	return nil
}

func deleteCommand(ctx *cli.Context) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <station-id>",
		Short: "Delete a station",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			stationID, err := parseID(args[0], "station")
			if err != nil {
				return err
			}
			return ctx.Console.DeleteStation(cmd.Context(), stationID)
		},
	}
}

func addDeviceCommand(ctx *cli.Context) *cobra.Command {
	var deviceType, topic, name string

	cmd := &cobra.Command{
		Use:   "add-device <station-id>",
		Short: "Bind a single sensor to a station without the wizard",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			stationID, err := parseID(args[0], "station")
			if err != nil {
				return err
			}
			device, err := ctx.API.CreateDevice(cmd.Context(), stationID, &api.DeviceCreate{
				DeviceType: deviceType,
				MQTTTopic:  topic,
				Name:       name,
			})
			if err != nil {
				return err
			}
			ctx.Notifier.Success(fmt.Sprintf("device %d bound to station %d", device.ID, stationID))
			return nil
		},
	}

	cmd.Flags().StringVar(&deviceType, "type", "", "Sensor type: gnss, rain, water or imu")
	cmd.Flags().StringVar(&topic, "topic", "", "MQTT topic the sensor publishes on")
	cmd.Flags().StringVar(&name, "name", "", "Optional device name")
	_ = cmd.MarkFlagRequired("type")
	_ = cmd.MarkFlagRequired("topic")
	return cmd
}

func removeDeviceCommand(ctx *cli.Context) *cobra.Command {
	return &cobra.Command{
		Use:   "remove-device <device-id>",
		Short: "Remove a single sensor binding",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			deviceID, err := parseID(args[0], "device")
			if err != nil {
				return err
			}
			if !ctx.Confirm(fmt.Sprintf("Remove device %d?", deviceID)) {
				ctx.Notifier.Info("remove cancelled")
				return nil
			}
			if err := ctx.API.DeleteDevice(cmd.Context(), deviceID); err != nil {
				return err
			}
			ctx.Notifier.Success("device removed")
			return nil
		},
	}
}

func probeTopicCommand(ctx *cli.Context) *cobra.Command {
	var wait time.Duration

	cmd := &cobra.Command{
		Use:   "probe-topic <topic>",
		Short: "Wait for one message on a sensor topic directly at the broker",
		Long:  "Subscribe to the MQTT broker and wait for one message on the given topic. Distinguishes a silent device from an ingest problem on the backend.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			topic := args[0]

			prober, err := mqttprobe.New(mqttprobe.Config{
				Broker:         ctx.Settings.MQTT.Broker,
				ClientID:       ctx.Settings.Main.Name + "-probe",
				Username:       ctx.Settings.MQTT.Username,
				Password:       ctx.Settings.MQTT.Password,
				ConnectTimeout: ctx.Settings.MQTT.ConnectTimeout,
			})
			if err != nil {
				return err
			}
			defer prober.Disconnect()

			waitCtx, cancel := cmd.Context(), func() {}
			if wait > 0 {
				waitCtx, cancel = contextWithTimeout(cmd, wait)
			}
			defer cancel()

			msg, err := prober.WaitForMessage(waitCtx, topic)
			if err != nil {
				ctx.Notifier.Error("no message received on " + topic)
				return err
			}

			ctx.Notifier.Success(fmt.Sprintf("message received on %s at %s", msg.Topic, msg.Received.Format(time.RFC3339)))
			fmt.Fprintln(ctx.Output(), string(msg.Payload))
			return nil
		},
	}

	cmd.Flags().DurationVar(&wait, "wait", 60*time.Second, "How long to wait for a message")
	return cmd
}

func parseID(arg, kind string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s id %q: %w", kind, arg, err)
	}
	return id, nil
}
