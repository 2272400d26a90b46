// Package browser implements the raw database browser: a merged,
// filterable view over the backend's stations, devices, sensor data and
// alert collections with record-level edit, delete and export.
package browser

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/slopewatch/slopewatch-go/internal/api"
	"github.com/slopewatch/slopewatch-go/internal/errors"
	"github.com/slopewatch/slopewatch-go/internal/logging"
	"github.com/slopewatch/slopewatch-go/internal/notify"
)

// TableKey tags every cached record with its collection of origin.
const TableKey = "_table"

// collection maps a logical table name to its admin GET endpoint. The
// sensor data table is served under a hyphenated path but keyed by its
// underscored name everywhere else, including mutations.
type collection struct {
	Table    string
	Endpoint string
}

var collections = []collection{
	{Table: "stations", Endpoint: "stations"},
	{Table: "devices", Endpoint: "devices"},
	{Table: "sensor_data", Endpoint: "sensor-data"},
	{Table: "alerts", Endpoint: "alerts"},
}

// Tables lists the browsable table names in display order.
func Tables() []string {
	names := make([]string, len(collections))
	for i, col := range collections {
		names[i] = col.Table
	}
	return names
}

// Confirmer gates record deletion.
type Confirmer func(prompt string) bool

// Config wires a Browser's collaborators.
type Config struct {
	API      *api.Client
	Notifier notify.Notifier
	Confirm  Confirmer
	Logger   *slog.Logger
}

// Browser holds the merged record cache. Records are tagged with their
// source table under TableKey at load time and the tag never leaves the
// cache: it is stripped before anything is sent back to the backend.
type Browser struct {
	api      *api.Client
	notifier notify.Notifier
	confirm  Confirmer
	log      *slog.Logger

	mu      sync.Mutex
	records []api.Record

	loadGen atomic.Uint64
}

// New builds a Browser with safe defaults for nil collaborators.
func New(cfg Config) *Browser {
	notifier := cfg.Notifier
	if notifier == nil {
		notifier = notify.NewConsole(nil)
	}
	confirm := cfg.Confirm
	if confirm == nil {
		confirm = func(string) bool { return false }
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.ForService("db-browser")
	}
	return &Browser{
		api:      cfg.API,
		notifier: notifier,
		confirm:  confirm,
		log:      logger,
	}
}

// LoadAll fetches all four collections concurrently and rebuilds the
// merged cache. A collection that fails to load degrades to empty with a
// warning instead of failing the whole view; only an auth failure aborts
// everything. Merge order follows the fixed table order, so cache
// positions are stable across reloads.
func (b *Browser) LoadAll(ctx context.Context) error {
	gen := b.loadGen.Add(1)

	results := make([][]api.Record, len(collections))
	var authErr error
	var authOnce sync.Once

	g, gctx := errgroup.WithContext(ctx)
	for i, col := range collections {
		i, col := i, col
		g.Go(func() error {
			recs, err := b.api.DBRecords(gctx, col.Endpoint)
			if err != nil {
				if errors.IsAuth(err) {
					authOnce.Do(func() { authErr = err })
					return err
				}
				b.log.Warn("collection failed to load, showing it empty",
					"table", col.Table, "error", err)
				b.notifier.Warning("could not load " + col.Table + ", showing it empty")
				results[i] = nil
				return nil
			}
			tagged := make([]api.Record, 0, len(recs))
			for _, r := range recs {
				// A literal null element decodes to a nil map.
				if r == nil {
					continue
				}
				r[TableKey] = col.Table
				tagged = append(tagged, r)
			}
			results[i] = tagged
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		if authErr != nil {
			return authErr
		}
		return err
	}

	merged := make([]api.Record, 0)
	for _, recs := range results {
		merged = append(merged, recs...)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if gen != b.loadGen.Load() {
		b.log.Debug("dropping superseded browser load", "generation", gen)
		return nil
	}
	b.records = merged
	return nil
}

// Records returns a copy of the merged cache.
func (b *Browser) Records() []api.Record {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]api.Record, len(b.records))
	copy(out, b.records)
	return out
}

// Stats summarizes the cache per table. Alerts count only unresolved
// rows: resolved alerts are history, not workload.
type Stats struct {
	Stations         int
	Devices          int
	SensorReadings   int
	UnresolvedAlerts int
	Total            int
}

// Stats computes summary counts over the current cache.
func (b *Browser) Stats() Stats {
	b.mu.Lock()
	defer b.mu.Unlock()

	var s Stats
	s.Total = len(b.records)
	for _, r := range b.records {
		switch r[TableKey] {
		case "stations":
			s.Stations++
		case "devices":
			s.Devices++
		case "sensor_data":
			s.SensorReadings++
		case "alerts":
			if resolved, ok := r["resolved"].(bool); !ok || !resolved {
				s.UnresolvedAlerts++
			}
		}
	}
	return s
}
