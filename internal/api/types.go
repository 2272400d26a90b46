package api

import (
	"bytes"
	"strconv"

	"github.com/slopewatch/slopewatch-go/internal/errors"
)

// FlexFloat is a float64 that tolerates JSON string encoding. Station
// configs written by older console builds stored coordinates as strings,
// so decoded origin values may arrive either way.
type FlexFloat float64

// UnmarshalJSON accepts both `1.5` and `"1.5"`.
func (f *FlexFloat) UnmarshalJSON(data []byte) error {
	data = bytes.Trim(data, `"`)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*f = 0
		return nil
	}
	v, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		return errors.Newf("invalid numeric value %q: %w", string(data), err).
			Category(errors.CategoryJSONParse).
			Build()
	}
	*f = FlexFloat(v)
	return nil
}

// Project is a named grouping of monitoring stations.
type Project struct {
	ID           int64  `json:"id"`
	ProjectCode  string `json:"project_code"`
	Name         string `json:"name"`
	Description  string `json:"description,omitempty"`
	Location     string `json:"location,omitempty"`
	IsActive     bool   `json:"is_active,omitempty"`
	CreatedAt    int64  `json:"created_at,omitempty"`
	StationCount int    `json:"station_count"`
}

// ProjectCreate is the payload for creating a project.
type ProjectCreate struct {
	ProjectCode string `json:"project_code"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Location    string `json:"location"`
}

// StationLocation is the backend-computed station position.
type StationLocation struct {
	Lat    FlexFloat `json:"lat"`
	Lon    FlexFloat `json:"lon"`
	H      FlexFloat `json:"h"`
	Source string    `json:"source,omitempty"`
}

// Station is a physical monitoring installation belonging to a project.
type Station struct {
	ID          int64            `json:"id"`
	StationCode string           `json:"station_code"`
	Name        string           `json:"name"`
	Status      string           `json:"status"`
	ProjectID   int64            `json:"project_id"`
	Location    *StationLocation `json:"location,omitempty"`
	CreatedAt   int64            `json:"created_at,omitempty"`
	UpdatedAt   int64            `json:"updated_at,omitempty"`
}

// Device is one sensor bound to a station via an MQTT topic.
type Device struct {
	ID         int64  `json:"id"`
	DeviceCode string `json:"device_code"`
	Name       string `json:"name"`
	StationID  int64  `json:"station_id"`
	DeviceType string `json:"device_type"`
	MQTTTopic  string `json:"mqtt_topic"`
	IsActive   bool   `json:"is_active"`
}

// DeviceCreate is the payload for binding a single sensor to a station.
type DeviceCreate struct {
	DeviceType string `json:"device_type"`
	MQTTTopic  string `json:"mqtt_topic"`
	Name       string `json:"name,omitempty"`
}

// OriginCoordinate is the geodetic reference position of a station's GNSS
// displacement measurements.
type OriginCoordinate struct {
	Lat FlexFloat `json:"lat"`
	Lon FlexFloat `json:"lon"`
	H   FlexFloat `json:"h"`
}

// Threshold sub-configs as stored in a station's config document. Fields
// are pointers so that absent values can be told apart from zeros and
// replaced with the documented defaults.

// WaterConfig holds water-level alert thresholds in meters.
type WaterConfig struct {
	WarningThreshold  *float64 `json:"warning_threshold,omitempty"`
	CriticalThreshold *float64 `json:"critical_threshold,omitempty"`
}

// RainConfig holds rain-intensity alert thresholds in mm/h.
type RainConfig struct {
	WatchThreshold    *float64 `json:"rain_intensity_watch_threshold,omitempty"`
	WarningThreshold  *float64 `json:"rain_intensity_warning_threshold,omitempty"`
	CriticalThreshold *float64 `json:"rain_intensity_critical_threshold,omitempty"`
}

// GnssConfig holds GNSS solution quality thresholds.
type GnssConfig struct {
	MaxHDOP         *float64 `json:"gnss_max_hdop,omitempty"`
	ConfirmSteps    *int     `json:"gnss_confirm_steps,omitempty"`
	SafeStreak      *int     `json:"gnss_safe_streak,omitempty"`
	DegradedTimeout *int     `json:"gnss_degraded_timeout,omitempty"`
}

// ImuConfig holds the IMU shock threshold in m/s².
type ImuConfig struct {
	ShockThresholdMS2 *float64 `json:"shock_threshold_ms2,omitempty"`
}

// StationConfig is the config document attached to a station. Sub-configs
// may be absent entirely; the wizard substitutes defaults per field.
type StationConfig struct {
	Water        *WaterConfig      `json:"Water,omitempty"`
	RainAlerting *RainConfig       `json:"RainAlerting,omitempty"`
	GnssAlerting *GnssConfig       `json:"GnssAlerting,omitempty"`
	ImuAlerting  *ImuConfig        `json:"ImuAlerting,omitempty"`
	GnssOrigin   *OriginCoordinate `json:"gnss_origin,omitempty"`
}

// StationConfigResponse is the whole-station view returned by
// GET /api/admin/stations/{id}/config.
type StationConfigResponse struct {
	ID          int64            `json:"id"`
	StationCode string           `json:"station_code"`
	Name        string           `json:"name"`
	Location    *StationLocation `json:"location"`
	Config      *StationConfig   `json:"config"`
}

// SensorPayload is one sensor binding inside a station save payload. The
// GNSS binding additionally carries the origin coordinate so the backend
// can derive the station position.
type SensorPayload struct {
	Topic string     `json:"topic"`
	Lat   *FlexFloat `json:"lat,omitempty"`
	Lon   *FlexFloat `json:"lon,omitempty"`
	H     *FlexFloat `json:"h,omitempty"`
}

// WaterPayload, RainPayload, GnssPayload and ImuPayload mirror the config
// sub-structs with every field present: station save is whole-record
// replacement and always carries all thresholds.

type WaterPayload struct {
	WarningThreshold  float64 `json:"warning_threshold"`
	CriticalThreshold float64 `json:"critical_threshold"`
}

type RainPayload struct {
	WatchThreshold    float64 `json:"rain_intensity_watch_threshold"`
	WarningThreshold  float64 `json:"rain_intensity_warning_threshold"`
	CriticalThreshold float64 `json:"rain_intensity_critical_threshold"`
}

type GnssPayload struct {
	MaxHDOP         float64 `json:"gnss_max_hdop"`
	ConfirmSteps    int     `json:"gnss_confirm_steps"`
	SafeStreak      int     `json:"gnss_safe_streak"`
	DegradedTimeout int     `json:"gnss_degraded_timeout"`
}

type ImuPayload struct {
	ShockThresholdMS2 float64 `json:"shock_threshold_ms2"`
}

// StationConfigPayload is the complete config document sent on save.
type StationConfigPayload struct {
	Water        WaterPayload     `json:"Water"`
	RainAlerting RainPayload      `json:"RainAlerting"`
	GnssAlerting GnssPayload      `json:"GnssAlerting"`
	ImuAlerting  ImuPayload       `json:"ImuAlerting"`
	GnssOrigin   OriginCoordinate `json:"gnss_origin"`
}

// StationPayload is the whole-record save payload for both create (POST)
// and update (PUT). Location is always null: the backend derives it from
// the sensors' coordinates.
type StationPayload struct {
	StationCode string                   `json:"station_code"`
	Name        string                   `json:"name"`
	Sensors     map[string]SensorPayload `json:"sensors"`
	Config      StationConfigPayload     `json:"config"`
	Location    *StationLocation         `json:"location"`
}

// OriginFix is a live decoded GNSS fix returned by the backend after
// listening on a device topic.
type OriginFix struct {
	Status     string    `json:"status,omitempty"`
	Lat        FlexFloat `json:"lat"`
	Lon        FlexFloat `json:"lon"`
	H          FlexFloat `json:"h"`
	NumSats    int       `json:"num_sats"`
	FixQuality int       `json:"fix_quality"`
}

// User is a console account.
type User struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	FullName string `json:"full_name,omitempty"`
	Role     string `json:"role"`
	IsActive bool   `json:"is_active"`
}

// UserCreate is the payload for creating a user.
type UserCreate struct {
	Username string `json:"username"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
	Role     string `json:"role"`
}

// LoginResponse carries the bearer token issued by the backend.
type LoginResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// HealthResponse is the backend liveness report.
type HealthResponse struct {
	Status   string  `json:"status"`
	Time     float64 `json:"time"`
	DBStatus string  `json:"db_status"`
}

// Record is one raw database row from any browsable collection.
type Record map[string]any
