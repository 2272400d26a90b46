package stations

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/slopewatch/slopewatch-go/internal/console"
)

// stationFlags holds every wizard field the create and edit commands
// expose. Only flags the operator actually set are applied to the form,
// so editing leaves untouched fields exactly as loaded.
type stationFlags struct {
	code string
	name string

	gnssTopic  string
	rainTopic  string
	waterTopic string
	imuTopic   string

	waterWarning  float64
	waterCritical float64

	rainWatch    float64
	rainWarning  float64
	rainCritical float64

	gnssMaxHDOP         float64
	gnssConfirmSteps    int
	gnssSafeStreak      int
	gnssDegradedTimeout int

	imuShock float64

	originLat   float64
	originLon   float64
	originH     float64
	fetchOrigin bool
}

func newStationFlags() *stationFlags {
	return &stationFlags{}
}

func (f *stationFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.code, "code", "", "Unique station code")
	cmd.Flags().StringVar(&f.name, "name", "", "Station display name")

	cmd.Flags().StringVar(&f.gnssTopic, "gnss-topic", "", "MQTT topic of the GNSS sensor, empty disables it")
	cmd.Flags().StringVar(&f.rainTopic, "rain-topic", "", "MQTT topic of the rain gauge, empty disables it")
	cmd.Flags().StringVar(&f.waterTopic, "water-topic", "", "MQTT topic of the water level sensor, empty disables it")
	cmd.Flags().StringVar(&f.imuTopic, "imu-topic", "", "MQTT topic of the IMU, empty disables it")

	cmd.Flags().Float64Var(&f.waterWarning, "water-warning", console.DefaultWaterWarning, "Water level warning threshold in meters")
	cmd.Flags().Float64Var(&f.waterCritical, "water-critical", console.DefaultWaterCritical, "Water level critical threshold in meters")

	cmd.Flags().Float64Var(&f.rainWatch, "rain-watch", console.DefaultRainWatch, "Rain intensity watch threshold in mm/h")
	cmd.Flags().Float64Var(&f.rainWarning, "rain-warning", console.DefaultRainWarning, "Rain intensity warning threshold in mm/h")
	cmd.Flags().Float64Var(&f.rainCritical, "rain-critical", console.DefaultRainCritical, "Rain intensity critical threshold in mm/h")

	cmd.Flags().Float64Var(&f.gnssMaxHDOP, "gnss-max-hdop", console.DefaultGnssMaxHDOP, "Maximum usable HDOP")
	cmd.Flags().IntVar(&f.gnssConfirmSteps, "gnss-confirm-steps", console.DefaultGnssConfirmSteps, "Consecutive steps to confirm displacement")
	cmd.Flags().IntVar(&f.gnssSafeStreak, "gnss-safe-streak", console.DefaultGnssSafeStreak, "Consecutive safe readings to clear an alert")
	cmd.Flags().IntVar(&f.gnssDegradedTimeout, "gnss-degraded-timeout", console.DefaultGnssDegradedTimeout, "Seconds before a degraded solution raises an alert")

	cmd.Flags().Float64Var(&f.imuShock, "imu-shock", console.DefaultImuShock, "IMU shock threshold in m/s2")

	cmd.Flags().Float64Var(&f.originLat, "origin-lat", 0, "GNSS origin latitude")
	cmd.Flags().Float64Var(&f.originLon, "origin-lon", 0, "GNSS origin longitude")
	cmd.Flags().Float64Var(&f.originH, "origin-h", 0, "GNSS origin ellipsoidal height in meters")
	cmd.Flags().BoolVar(&f.fetchOrigin, "fetch-origin", false, "Fetch the origin from a live fix on the GNSS topic")
}

// apply copies changed flags onto the open wizard form.
func (f *stationFlags) apply(cmd *cobra.Command, ctrl *console.Controller) error {
	changed := cmd.Flags().Changed

	return ctrl.UpdateWizardForm(func(form *console.StationForm) {
		if changed("code") {
			form.StationCode = f.code
		}
		if changed("name") {
			form.Name = f.name
		}

		applyTopic := func(t console.SensorType, flag, topic string) {
			if !changed(flag) {
				return
			}
			form.Sensors[t] = console.SensorBinding{Enabled: topic != "", Topic: topic}
		}
		applyTopic(console.SensorGNSS, "gnss-topic", f.gnssTopic)
		applyTopic(console.SensorRain, "rain-topic", f.rainTopic)
		applyTopic(console.SensorWater, "water-topic", f.waterTopic)
		applyTopic(console.SensorIMU, "imu-topic", f.imuTopic)

		if changed("water-warning") {
			form.Thresholds.WaterWarning = f.waterWarning
		}
		if changed("water-critical") {
			form.Thresholds.WaterCritical = f.waterCritical
		}
		if changed("rain-watch") {
			form.Thresholds.RainWatch = f.rainWatch
		}
		if changed("rain-warning") {
			form.Thresholds.RainWarning = f.rainWarning
		}
		if changed("rain-critical") {
			form.Thresholds.RainCritical = f.rainCritical
		}
		if changed("gnss-max-hdop") {
			form.Thresholds.GnssMaxHDOP = f.gnssMaxHDOP
		}
		if changed("gnss-confirm-steps") {
			form.Thresholds.GnssConfirmSteps = f.gnssConfirmSteps
		}
		if changed("gnss-safe-streak") {
			form.Thresholds.GnssSafeStreak = f.gnssSafeStreak
		}
		if changed("gnss-degraded-timeout") {
			form.Thresholds.GnssDegradedTimeout = f.gnssDegradedTimeout
		}
		if changed("imu-shock") {
			form.Thresholds.ImuShock = f.imuShock
		}

		if changed("origin-lat") || changed("origin-lon") || changed("origin-h") {
			form.Origin.Set = true
			if changed("origin-lat") {
				form.Origin.Lat = f.originLat
			}
			if changed("origin-lon") {
				form.Origin.Lon = f.originLon
			}
			if changed("origin-h") {
				form.Origin.H = f.originH
			}
		}
	})
}

func contextWithTimeout(cmd *cobra.Command, d time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(cmd.Context(), d)
}
