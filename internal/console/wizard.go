package console

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/slopewatch/slopewatch-go/internal/api"
	"github.com/slopewatch/slopewatch-go/internal/errors"
)

// SensorType identifies one of the four supported sensor bindings.
type SensorType string

const (
	SensorGNSS  SensorType = "gnss"
	SensorRain  SensorType = "rain"
	SensorWater SensorType = "water"
	SensorIMU   SensorType = "imu"
)

// SensorTypes lists the bindings in wizard display order.
var SensorTypes = []SensorType{SensorGNSS, SensorRain, SensorWater, SensorIMU}

// Threshold defaults substituted for fields absent from a stored config.
const (
	DefaultWaterWarning  = 0.15
	DefaultWaterCritical = 0.30

	DefaultRainWatch    = 10.0
	DefaultRainWarning  = 25.0
	DefaultRainCritical = 50.0

	DefaultGnssMaxHDOP         = 4.0
	DefaultGnssConfirmSteps    = 3
	DefaultGnssSafeStreak      = 10
	DefaultGnssDegradedTimeout = 300

	DefaultImuShock = 5.0
)

// SensorBinding is one sensor slot in the wizard form.
type SensorBinding struct {
	Enabled bool
	Topic   string
}

// ThresholdForm carries every alert threshold as a concrete value. The
// form never holds "absent": defaults are substituted at load time, so a
// round-trip save writes back exactly what the form shows.
type ThresholdForm struct {
	WaterWarning  float64
	WaterCritical float64

	RainWatch    float64
	RainWarning  float64
	RainCritical float64

	GnssMaxHDOP         float64
	GnssConfirmSteps    int
	GnssSafeStreak      int
	GnssDegradedTimeout int

	ImuShock float64
}

// OriginForm is the GNSS origin section of step 2. Set distinguishes a
// real coordinate from the zero value; fix metadata is display-only and
// filled by the live fetch.
type OriginForm struct {
	Set bool
	Lat float64
	Lon float64
	H   float64

	NumSats    int
	FixQuality int
}

// StationForm is the wizard's working copy of a station.
type StationForm struct {
	StationCode string
	Name        string
	Sensors     map[SensorType]SensorBinding
	Thresholds  ThresholdForm
	Origin      OriginForm
}

type wizardMode int

const (
	wizardClosed wizardMode = iota
	wizardCreate
	wizardEdit
)

type wizardState struct {
	mode      wizardMode
	step      int
	stationID int64
	form      StationForm
}

// WizardButtons reports which wizard controls are visible for a step.
type WizardButtons struct {
	Prev bool
	Next bool
	Save bool
}

// ButtonsForStep derives button visibility from the step alone.
func ButtonsForStep(step int) WizardButtons {
	return WizardButtons{
		Prev: step > 1,
		Next: step < 3,
		Save: step == 3,
	}
}

func defaultThresholds() ThresholdForm {
	return ThresholdForm{
		WaterWarning:        DefaultWaterWarning,
		WaterCritical:       DefaultWaterCritical,
		RainWatch:           DefaultRainWatch,
		RainWarning:         DefaultRainWarning,
		RainCritical:        DefaultRainCritical,
		GnssMaxHDOP:         DefaultGnssMaxHDOP,
		GnssConfirmSteps:    DefaultGnssConfirmSteps,
		GnssSafeStreak:      DefaultGnssSafeStreak,
		GnssDegradedTimeout: DefaultGnssDegradedTimeout,
		ImuShock:            DefaultImuShock,
	}
}

func emptySensors() map[SensorType]SensorBinding {
	sensors := make(map[SensorType]SensorBinding, len(SensorTypes))
	for _, t := range SensorTypes {
		sensors[t] = SensorBinding{}
	}
	return sensors
}

// OpenStationWizard opens the wizard in create mode with a blank form and
// all thresholds at their defaults.
func (c *Controller) OpenStationWizard() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.wizard = wizardState{
		mode: wizardCreate,
		step: 1,
		form: StationForm{
			Sensors:    emptySensors(),
			Thresholds: defaultThresholds(),
		},
	}
}

// EditStation opens the wizard in edit mode for an existing station. The
// config document and device list are fetched concurrently; both must
// succeed or the wizard does not open. Thresholds absent from the stored
// config are replaced with defaults field by field.
func (c *Controller) EditStation(ctx context.Context, stationID int64) error {
	var (
		cfg     *api.StationConfigResponse
		devices []api.Device
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		cfg, err = c.api.StationConfig(gctx, stationID)
		return err
	})
	g.Go(func() error {
		var err error
		devices, err = c.api.StationDevices(gctx, stationID)
		return err
	})
	if err := g.Wait(); err != nil {
		if errors.IsAuth(err) {
			return err
		}
		c.log.Error("failed to load station for editing", "station_id", stationID, "error", err)
		c.notifier.Error(userMessage(err, "could not load station details"))
		return err
	}

	form := StationForm{
		StationCode: cfg.StationCode,
		Name:        cfg.Name,
		Sensors:     emptySensors(),
		Thresholds:  defaultThresholds(),
	}
	for _, d := range devices {
		t := SensorType(strings.ToLower(d.DeviceType))
		if _, known := form.Sensors[t]; !known {
			c.log.Warn("ignoring device of unknown type", "device_id", d.ID, "device_type", d.DeviceType)
			continue
		}
		form.Sensors[t] = SensorBinding{Enabled: true, Topic: d.MQTTTopic}
	}
	if cfg.Config != nil {
		applyStoredConfig(&form, cfg.Config)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.wizard = wizardState{
		mode:      wizardEdit,
		step:      1,
		stationID: stationID,
		form:      form,
	}
	return nil
}

// applyStoredConfig overwrites form defaults with every value present in
// the stored config. Absent fields keep their defaults.
func applyStoredConfig(form *StationForm, cfg *api.StationConfig) {
	if w := cfg.Water; w != nil {
		if w.WarningThreshold != nil {
			form.Thresholds.WaterWarning = *w.WarningThreshold
		}
		if w.CriticalThreshold != nil {
			form.Thresholds.WaterCritical = *w.CriticalThreshold
		}
	}
	if r := cfg.RainAlerting; r != nil {
		if r.WatchThreshold != nil {
			form.Thresholds.RainWatch = *r.WatchThreshold
		}
		if r.WarningThreshold != nil {
			form.Thresholds.RainWarning = *r.WarningThreshold
		}
		if r.CriticalThreshold != nil {
			form.Thresholds.RainCritical = *r.CriticalThreshold
		}
	}
	if g := cfg.GnssAlerting; g != nil {
		if g.MaxHDOP != nil {
			form.Thresholds.GnssMaxHDOP = *g.MaxHDOP
		}
		if g.ConfirmSteps != nil {
			form.Thresholds.GnssConfirmSteps = *g.ConfirmSteps
		}
		if g.SafeStreak != nil {
			form.Thresholds.GnssSafeStreak = *g.SafeStreak
		}
		if g.DegradedTimeout != nil {
			form.Thresholds.GnssDegradedTimeout = *g.DegradedTimeout
		}
	}
	if i := cfg.ImuAlerting; i != nil {
		if i.ShockThresholdMS2 != nil {
			form.Thresholds.ImuShock = *i.ShockThresholdMS2
		}
	}
	if o := cfg.GnssOrigin; o != nil {
		form.Origin = OriginForm{
			Set: true,
			Lat: float64(o.Lat),
			Lon: float64(o.Lon),
			H:   float64(o.H),
		}
	}
}

// CloseWizard discards the wizard state without saving.
func (c *Controller) CloseWizard() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.wizard = wizardState{}
}

// WizardOpen reports whether the wizard is showing.
func (c *Controller) WizardOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.wizard.mode != wizardClosed
}

// WizardEditing reports whether the wizard is in edit mode.
func (c *Controller) WizardEditing() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.wizard.mode == wizardEdit
}

// WizardStep returns the current step, 0 when closed.
func (c *Controller) WizardStep() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.wizard.mode == wizardClosed {
		return 0
	}
	return c.wizard.step
}

// WizardForm returns a copy of the working form.
func (c *Controller) WizardForm() StationForm {
	c.mu.Lock()
	defer c.mu.Unlock()
	return copyForm(c.wizard.form)
}

func copyForm(f StationForm) StationForm {
	out := f
	out.Sensors = make(map[SensorType]SensorBinding, len(f.Sensors))
	for t, b := range f.Sensors {
		out.Sensors[t] = b
	}
	return out
}

// WizardNext advances one step. Step transitions never validate: an
// operator may walk to step 3 and back freely, nothing is lost.
func (c *Controller) WizardNext() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.wizard.mode == wizardClosed {
		return
	}
	if c.wizard.step < 3 {
		c.wizard.step++
	}
}

// WizardPrev goes back one step.
func (c *Controller) WizardPrev() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.wizard.mode == wizardClosed {
		return
	}
	if c.wizard.step > 1 {
		c.wizard.step--
	}
}

// UpdateWizardForm applies fn to the working form under the lock. All
// field edits from the command layer go through here.
func (c *Controller) UpdateWizardForm(fn func(*StationForm)) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.wizard.mode == wizardClosed {
		return stateError("no station wizard is open")
	}
	fn(&c.wizard.form)
	return nil
}

// buildStationPayload assembles the whole-record save payload from a
// form. Only enabled sensors with a non-empty topic are included; the
// GNSS binding carries the origin coordinate when one is set. Location
// is always null, the backend derives it.
func buildStationPayload(form StationForm) *api.StationPayload {
	sensors := make(map[string]api.SensorPayload)
	for t, b := range form.Sensors {
		topic := strings.TrimSpace(b.Topic)
		if !b.Enabled || topic == "" {
			continue
		}
		p := api.SensorPayload{Topic: topic}
		if t == SensorGNSS && form.Origin.Set {
			lat := api.FlexFloat(form.Origin.Lat)
			lon := api.FlexFloat(form.Origin.Lon)
			h := api.FlexFloat(form.Origin.H)
			p.Lat, p.Lon, p.H = &lat, &lon, &h
		}
		sensors[string(t)] = p
	}

	return &api.StationPayload{
		StationCode: strings.TrimSpace(form.StationCode),
		Name:        strings.TrimSpace(form.Name),
		Sensors:     sensors,
		Config: api.StationConfigPayload{
			Water: api.WaterPayload{
				WarningThreshold:  form.Thresholds.WaterWarning,
				CriticalThreshold: form.Thresholds.WaterCritical,
			},
			RainAlerting: api.RainPayload{
				WatchThreshold:    form.Thresholds.RainWatch,
				WarningThreshold:  form.Thresholds.RainWarning,
				CriticalThreshold: form.Thresholds.RainCritical,
			},
			GnssAlerting: api.GnssPayload{
				MaxHDOP:         form.Thresholds.GnssMaxHDOP,
				ConfirmSteps:    form.Thresholds.GnssConfirmSteps,
				SafeStreak:      form.Thresholds.GnssSafeStreak,
				DegradedTimeout: form.Thresholds.GnssDegradedTimeout,
			},
			ImuAlerting: api.ImuPayload{
				ShockThresholdMS2: form.Thresholds.ImuShock,
			},
			GnssOrigin: api.OriginCoordinate{
				Lat: api.FlexFloat(form.Origin.Lat),
				Lon: api.FlexFloat(form.Origin.Lon),
				H:   api.FlexFloat(form.Origin.H),
			},
		},
		Location: nil,
	}
}

// SaveStation submits the wizard form. Create mode posts a new station
// under the current project; edit mode replaces the whole record. On
// success the wizard closes and the station list reloads; on failure the
// wizard stays open with the form intact so the operator can retry.
func (c *Controller) SaveStation(ctx context.Context) error {
	c.mu.Lock()
	mode := c.wizard.mode
	stationID := c.wizard.stationID
	form := copyForm(c.wizard.form)
	projectID := c.nav.ProjectID()
	c.mu.Unlock()

	if mode == wizardClosed {
		return stateError("no station wizard is open")
	}
	if strings.TrimSpace(form.StationCode) == "" || strings.TrimSpace(form.Name) == "" {
		c.notifier.Warning("station code and name are required")
		return errors.ValidationError("station code and name are required")
	}

	payload := buildStationPayload(form)

	var err error
	if mode == wizardCreate {
		_, err = c.api.CreateStation(ctx, projectID, payload)
	} else {
		err = c.api.UpdateStation(ctx, stationID, payload)
	}
	if err != nil {
		if errors.IsAuth(err) {
			return err
		}
		c.log.Error("failed to save station", "station_code", payload.StationCode, "error", err)
		c.notifier.Error(userMessage(err, "could not save station"))
		return err
	}

	c.CloseWizard()
	c.notifier.Success(fmt.Sprintf("station %q saved", payload.Name))
	return c.LoadStations(ctx, projectID)
}

// DeleteStation removes a station after explicit confirmation and
// reloads the list. A wizard open on the deleted station is closed.
func (c *Controller) DeleteStation(ctx context.Context, stationID int64) error {
	if !c.confirm(fmt.Sprintf("Delete station %d? Its devices and configuration will be removed.", stationID)) {
		c.notifier.Info("delete cancelled")
		return nil
	}

	if err := c.api.DeleteStation(ctx, stationID); err != nil {
		if errors.IsAuth(err) {
			return err
		}
		c.notifier.Error(userMessage(err, "could not delete station"))
		return err
	}

	c.mu.Lock()
	if c.wizard.mode == wizardEdit && c.wizard.stationID == stationID {
		c.wizard = wizardState{}
	}
	projectID := c.nav.ProjectID()
	c.mu.Unlock()

	c.log.Info("station deleted", "station_id", stationID)
	c.notifier.Success("station deleted")
	return c.LoadStations(ctx, projectID)
}
