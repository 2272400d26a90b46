// Package console implements the admin controllers behind the command
// tree: project/station management, the three-step station wizard, user
// accounts, and the velocity reference view.
package console

import (
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/slopewatch/slopewatch-go/internal/api"
	"github.com/slopewatch/slopewatch-go/internal/errors"
	"github.com/slopewatch/slopewatch-go/internal/logging"
	"github.com/slopewatch/slopewatch-go/internal/notify"
)

// Confirmer gates destructive actions. It is asked once per action with a
// human-readable prompt; returning false aborts before any request is sent.
type Confirmer func(prompt string) bool

// Config wires a Controller's collaborators. Controllers are constructed
// once at startup and handed to the command bindings by reference; there
// is no ambient global instance.
type Config struct {
	API      *api.Client
	Notifier notify.Notifier
	Confirm  Confirmer
	Logger   *slog.Logger
}

// Controller owns the in-memory caches and UI state of the admin console.
// One logical writer (the operator); the mutex protects the caches against
// a superseded in-flight load landing after a newer one.
type Controller struct {
	api      *api.Client
	notifier notify.Notifier
	confirm  Confirmer
	log      *slog.Logger

	mu       sync.Mutex
	nav      *Navigation
	projects []api.Project
	stations []api.Station
	users    []api.User
	wizard   wizardState

	// Request generations: a load bumps its slot's generation before the
	// request goes out and only applies the response if still current.
	projectsGen atomic.Uint64
	stationsGen atomic.Uint64
	usersGen    atomic.Uint64

	// Single-flight guard for the live origin fetch.
	originBusy atomic.Bool
}

// New builds a Controller. Nil collaborators get safe defaults: a console
// notifier and a deny-all confirmer.
func New(cfg Config) *Controller {
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
		logger = logging.ForService("console")
	}
	return &Controller{
		api:      cfg.API,
		notifier: notifier,
		confirm:  confirm,
		log:      logger,
		nav:      NewNavigation(),
	}
}

// Navigation state accessors. The Navigation value itself is not handed
// out: all mutation goes through controller methods holding the lock.

// CurrentView returns the active view.
func (c *Controller) CurrentView() View {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.nav.Current()
}

// CurrentProjectID returns the project scoping the station view.
func (c *Controller) CurrentProjectID() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.nav.ProjectID()
}

// CanGoBack reports whether back navigation is possible.
func (c *Controller) CanGoBack() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.nav.CanGoBack()
}

// Breadcrumb returns the current navigation trail.
func (c *Controller) Breadcrumb() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.nav.Breadcrumb(c.projectNameLocked(c.nav.ProjectID()))
}

// Projects returns a copy of the cached project list.
func (c *Controller) Projects() []api.Project {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]api.Project, len(c.projects))
	copy(out, c.projects)
	return out
}

// Stations returns a copy of the cached station list.
func (c *Controller) Stations() []api.Station {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]api.Station, len(c.stations))
	copy(out, c.stations)
	return out
}

// Users returns a copy of the cached user list.
func (c *Controller) Users() []api.User {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]api.User, len(c.users))
	copy(out, c.users)
	return out
}

// ProjectName resolves a project id against the cache.
func (c *Controller) ProjectName(id int64) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.projectNameLocked(id)
}

func (c *Controller) projectNameLocked(id int64) string {
	for i := range c.projects {
		if c.projects[i].ID == id {
			return c.projects[i].Name
		}
	}
	return ""
}

// userMessage extracts the backend-supplied detail for user display,
// falling back to a generic message for network or parse failures.
func userMessage(err error, fallback string) string {
	var apiErr *api.APIError
	if errors.As(err, &apiErr) && apiErr.Detail != "" {
		return apiErr.Detail
	}
	return fallback
}

// stateError builds a CategoryState error for operations invoked in the
// wrong controller state.
func stateError(msg string) error {
	return errors.Newf("%s", msg).
		Component("console").
		Category(errors.CategoryState).
		Build()
}
