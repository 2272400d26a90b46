package console

import (
	"context"

	"github.com/slopewatch/slopewatch-go/internal/errors"
)

// LoadStations fetches the station list of a project and switches the
// console into the station view. The navigation push happens only on
// success so a failed drill-down leaves the operator where they were.
func (c *Controller) LoadStations(ctx context.Context, projectID int64) error {
	gen := c.stationsGen.Add(1)

	stations, err := c.api.ListStations(ctx, projectID)
	if err != nil {
		if errors.IsAuth(err) {
			return err
		}
		c.log.Error("failed to load stations", "project_id", projectID, "error", err)
		c.notifier.Error(userMessage(err, "could not load station list"))
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.stationsGen.Load() {
		c.log.Debug("dropping superseded station list response", "generation", gen)
		return nil
	}
	c.stations = stations
	if c.nav.Current() != ViewStations || c.nav.ProjectID() != projectID {
		c.nav.EnterStations(projectID)
	}
	return nil
}

// ReloadStations refreshes the station list of the currently scoped
// project without touching navigation.
func (c *Controller) ReloadStations(ctx context.Context) error {
	c.mu.Lock()
	view := c.nav.Current()
	projectID := c.nav.ProjectID()
	c.mu.Unlock()

	if view != ViewStations {
		return stateError("not viewing a station list")
	}
	return c.LoadStations(ctx, projectID)
}
