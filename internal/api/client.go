// Package api is the typed client for the monitoring backend's admin REST
// surface. It owns bearer-token injection, request correlation IDs, and
// the global 401-to-logout escalation; callers get typed results or
// categorized errors and never touch HTTP directly.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"

	"github.com/slopewatch/slopewatch-go/internal/errors"
	"github.com/slopewatch/slopewatch-go/internal/httpclient"
	"github.com/slopewatch/slopewatch-go/internal/logging"
)

var apiLogger *slog.Logger

func init() {
	apiLogger = logging.ForService("api-client")
}

// ErrSessionExpired is returned for any 401 on an authenticated call.
// The unauthorized hook has already fired by the time callers see it.
var ErrSessionExpired = errors.NewStd("session expired")

// APIError is a non-2xx backend response with its detail message, when
// the backend provided one.
type APIError struct {
	StatusCode int
	Detail     string
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("backend returned %d: %s", e.StatusCode, e.Detail)
	}
	return fmt.Sprintf("backend returned %d", e.StatusCode)
}

// Client talks to one backend origin. Thread-safe: token provider and
// unauthorized hook are set once during wiring, before first use.
type Client struct {
	http           *httpclient.Client
	baseURL        string
	tokenProvider  func() string
	onUnauthorized func()
}

// NewClient creates a client for the given backend origin. A nil hc gets
// a default pooled client.
func NewClient(baseURL string, hc *httpclient.Client) *Client {
	if hc == nil {
		hc = httpclient.New(nil)
	}
	return &Client{
		http:    hc,
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// SetTokenProvider installs the session token source. An empty string
// means no token; requests are then sent unauthenticated and the backend
// answers 401.
func (c *Client) SetTokenProvider(fn func() string) {
	c.tokenProvider = fn
}

// SetUnauthorizedHook installs the global logout trigger, invoked on any
// 401 from an authenticated call.
func (c *Client) SetUnauthorizedHook(fn func()) {
	c.onUnauthorized = fn
}

// BaseURL returns the configured backend origin.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// SetBaseURL repoints the client at another backend origin. Called during
// command setup when the --server flag overrides the configured URL.
func (c *Client) SetBaseURL(baseURL string) {
	c.baseURL = strings.TrimRight(baseURL, "/")
}

func categoryForStatus(status int) errors.ErrorCategory {
	switch status {
	case http.StatusUnauthorized:
		return errors.CategoryAuth
	case http.StatusNotFound:
		return errors.CategoryNotFound
	case http.StatusRequestTimeout:
		return errors.CategoryTimeout
	case http.StatusConflict:
		return errors.CategoryConflict
	default:
		return errors.CategoryHTTP
	}
}

// decodeDetail extracts the backend's `detail` field from an error body.
// FastAPI-style backends may send a string or a structured list.
func decodeDetail(body []byte) string {
	var payload struct {
		Detail any `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err != nil || payload.Detail == nil {
		return ""
	}
	if s, ok := payload.Detail.(string); ok {
		return s
	}
	raw, err := json.Marshal(payload.Detail)
	if err != nil {
		return ""
	}
	return string(raw)
}

// do executes one request and decodes the JSON response into out when out
// is non-nil. authed controls bearer injection and the 401 hook; the login
// call is the only unauthenticated one.
func (c *Client) do(ctx context.Context, method, path string, body io.Reader, contentType string, out any, authed bool) error {
	reqURL := c.baseURL + path

	req, err := http.NewRequestWithContext(ctx, method, reqURL, body)
	if err != nil {
		return errors.New(err).
			Category(errors.CategoryNetwork).
			Context("method", method).
			Context("path", path).
			Build()
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if authed && c.tokenProvider != nil {
		if token := c.tokenProvider(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.http.Do(ctx, req)
	if err != nil {
		apiLogger.Error("request failed", "method", method, "path", path, "error", err)
		return errors.New(err).
			Category(errors.CategoryNetwork).
			NetworkContext(reqURL, 0).
			Context("method", method).
			Build()
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.New(err).
			Category(errors.CategoryNetwork).
			Context("method", method).
			Context("path", path).
			Build()
	}

	if resp.StatusCode == http.StatusUnauthorized && authed {
		apiLogger.Warn("session rejected by backend, forcing logout", "path", path)
		if c.onUnauthorized != nil {
			c.onUnauthorized()
		}
		return errors.New(ErrSessionExpired).
			Category(errors.CategoryAuth).
			Context("path", path).
			Build()
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{
			StatusCode: resp.StatusCode,
			Detail:     decodeDetail(respBody),
		}
		return errors.New(apiErr).
			Category(categoryForStatus(resp.StatusCode)).
			Context("method", method).
			Context("path", path).
			Context("status", resp.StatusCode).
			Build()
	}

	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return errors.New(err).
				Category(errors.CategoryJSONParse).
				Context("path", path).
				Build()
		}
	}

	return nil
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	return c.do(ctx, http.MethodGet, path, http.NoBody, "", out, true)
}

func (c *Client) sendJSON(ctx context.Context, method, path string, body, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return errors.New(err).
			Category(errors.CategoryJSONParse).
			Context("path", path).
			Build()
	}
	return c.do(ctx, method, path, bytes.NewReader(data), "application/json", out, true)
}

func (c *Client) deleteJSON(ctx context.Context, path string) error {
	return c.do(ctx, http.MethodDelete, path, http.NoBody, "", nil, true)
}

// --- Authentication ---

// Login exchanges credentials for a bearer token. Sent as an OAuth2
// password form, per the backend's token endpoint.
func (c *Client) Login(ctx context.Context, username, password string) (*LoginResponse, error) {
	form := url.Values{}
	form.Set("username", username)
	form.Set("password", password)

	var out LoginResponse
	err := c.do(ctx, http.MethodPost, "/api/auth/login",
		strings.NewReader(form.Encode()), "application/x-www-form-urlencoded", &out, false)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Me returns the account behind the current session token.
func (c *Client) Me(ctx context.Context) (*User, error) {
	var out User
	if err := c.getJSON(ctx, "/api/auth/me", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Health probes backend liveness. Unauthenticated.
func (c *Client) Health(ctx context.Context) (*HealthResponse, error) {
	var out HealthResponse
	if err := c.do(ctx, http.MethodGet, "/api/health", http.NoBody, "", &out, false); err != nil {
		return nil, err
	}
	return &out, nil
}

// --- Projects ---

// ListProjects returns all projects with their station counts.
func (c *Client) ListProjects(ctx context.Context) ([]Project, error) {
	var out []Project
	if err := c.getJSON(ctx, "/api/admin/projects", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateProject creates a project and returns the created record.
func (c *Client) CreateProject(ctx context.Context, req *ProjectCreate) (*Project, error) {
	var out Project
	if err := c.sendJSON(ctx, http.MethodPost, "/api/admin/projects", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteProject deletes a project. The backend cascades to its stations.
func (c *Client) DeleteProject(ctx context.Context, id int64) error {
	return c.deleteJSON(ctx, fmt.Sprintf("/api/admin/projects/%d", id))
}

// --- Stations ---

// ListStations returns the stations belonging to a project.
func (c *Client) ListStations(ctx context.Context, projectID int64) ([]Station, error) {
	var out []Station
	if err := c.getJSON(ctx, fmt.Sprintf("/api/admin/projects/%d/stations", projectID), &out); err != nil {
		return nil, err
	}
	return out, nil
}

// StationConfig returns a station's identity and config document.
func (c *Client) StationConfig(ctx context.Context, stationID int64) (*StationConfigResponse, error) {
	var out StationConfigResponse
	if err := c.getJSON(ctx, fmt.Sprintf("/api/admin/stations/%d/config", stationID), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// StationDevices returns the sensor devices bound to a station.
func (c *Client) StationDevices(ctx context.Context, stationID int64) ([]Device, error) {
	var out []Device
	if err := c.getJSON(ctx, fmt.Sprintf("/api/admin/stations/%d/devices", stationID), &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateStation creates a station under a project from a whole-record payload.
func (c *Client) CreateStation(ctx context.Context, projectID int64, payload *StationPayload) (*Station, error) {
	var out Station
	if err := c.sendJSON(ctx, http.MethodPost, fmt.Sprintf("/api/admin/projects/%d/stations", projectID), payload, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateStation replaces a station's config and sensor bindings.
func (c *Client) UpdateStation(ctx context.Context, stationID int64, payload *StationPayload) error {
	return c.sendJSON(ctx, http.MethodPut, fmt.Sprintf("/api/admin/stations/%d/config", stationID), payload, nil)
}

// DeleteStation removes a station and its devices.
func (c *Client) DeleteStation(ctx context.Context, stationID int64) error {
	return c.deleteJSON(ctx, fmt.Sprintf("/api/admin/stations/%d", stationID))
}

// FetchLiveOrigin asks the backend to listen on the given GNSS topic and
// return one decoded fix. The backend holds the request open until a fix
// arrives or it times out, so callers should allow a generous deadline.
func (c *Client) FetchLiveOrigin(ctx context.Context, topic string) (*OriginFix, error) {
	req := map[string]string{"topic": topic}
	var out OriginFix
	if err := c.sendJSON(ctx, http.MethodPost, "/api/admin/gnss/fetch-live-origin", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// --- Devices ---

// CreateDevice binds a single sensor to a station outside the wizard flow.
func (c *Client) CreateDevice(ctx context.Context, stationID int64, req *DeviceCreate) (*Device, error) {
	var out Device
	if err := c.sendJSON(ctx, http.MethodPost, fmt.Sprintf("/api/admin/stations/%d/devices", stationID), req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteDevice removes one sensor binding.
func (c *Client) DeleteDevice(ctx context.Context, deviceID int64) error {
	return c.deleteJSON(ctx, fmt.Sprintf("/api/admin/devices/%d", deviceID))
}

// --- Users ---

// ListUsers returns all console accounts.
func (c *Client) ListUsers(ctx context.Context) ([]User, error) {
	var out []User
	if err := c.getJSON(ctx, "/api/admin/users", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateUser creates a console account.
func (c *Client) CreateUser(ctx context.Context, req *UserCreate) (*User, error) {
	var out User
	if err := c.sendJSON(ctx, http.MethodPost, "/api/admin/users", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteUser removes a console account.
func (c *Client) DeleteUser(ctx context.Context, id int64) error {
	return c.deleteJSON(ctx, fmt.Sprintf("/api/admin/users/%d", id))
}

// --- Raw database access ---

// DBRecords fetches every record of one browsable collection. The
// endpoint parameter is the URL segment (e.g. "sensor-data").
func (c *Client) DBRecords(ctx context.Context, endpoint string) ([]Record, error) {
	var out []Record
	if err := c.getJSON(ctx, "/api/admin/db/"+endpoint, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateDBRecord replaces one record wholesale.
func (c *Client) UpdateDBRecord(ctx context.Context, table string, id int64, record Record) error {
	return c.sendJSON(ctx, http.MethodPut, fmt.Sprintf("/api/admin/db/%s/%d", table, id), record, nil)
}

// DeleteDBRecord removes one record.
func (c *Client) DeleteDBRecord(ctx context.Context, table string, id int64) error {
	return c.deleteJSON(ctx, fmt.Sprintf("/api/admin/db/%s/%d", table, id))
}
