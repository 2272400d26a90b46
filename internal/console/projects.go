package console

import (
	"context"
	"fmt"
	"strings"

	"github.com/slopewatch/slopewatch-go/internal/api"
	"github.com/slopewatch/slopewatch-go/internal/errors"
)

// LoadProjects refreshes the project cache from the backend. On auth
// failure the global logout has already fired and the error propagates;
// any other failure is surfaced to the operator and the previous cache is
// left untouched (stale but available). No automatic retry.
func (c *Controller) LoadProjects(ctx context.Context) error {
	gen := c.projectsGen.Add(1)

	projects, err := c.api.ListProjects(ctx)
	if err != nil {
		if errors.IsAuth(err) {
			return err
		}
		c.log.Error("failed to load projects", "error", err)
		c.notifier.Error(userMessage(err, "could not load project list"))
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.projectsGen.Load() {
		// A newer load was issued while this one was in flight.
		c.log.Debug("dropping superseded project list response", "generation", gen)
		return nil
	}
	c.projects = projects
	return nil
}

// CreateProject validates input locally, creates the project, and
// refreshes the list. Code and name are required; nothing is sent when
// they are missing.
func (c *Controller) CreateProject(ctx context.Context, code, name, description, location string) error {
	code = strings.TrimSpace(code)
	name = strings.TrimSpace(name)
	if code == "" || name == "" {
		c.notifier.Warning("project code and name are required")
		return errors.ValidationError("project code and name are required")
	}

	created, err := c.api.CreateProject(ctx, &api.ProjectCreate{
		ProjectCode: code,
		Name:        name,
		Description: strings.TrimSpace(description),
		Location:    strings.TrimSpace(location),
	})
	if err != nil {
		if errors.IsAuth(err) {
			return err
		}
		c.notifier.Error(userMessage(err, "could not create project"))
		return err
	}

	c.log.Info("project created", "project_id", created.ID, "project_code", created.ProjectCode)
	c.notifier.Success(fmt.Sprintf("project %q created", created.Name))
	return c.LoadProjects(ctx)
}

// DeleteProject removes a project after explicit confirmation. Deletion
// cascades to the project's stations on the backend; there is no undo.
func (c *Controller) DeleteProject(ctx context.Context, id int64) error {
	prompt := fmt.Sprintf("Delete project %d? All stations inside will be deleted.", id)
	if name := c.ProjectName(id); name != "" {
		prompt = fmt.Sprintf("Delete project %q? All stations inside will be deleted.", name)
	}
	if !c.confirm(prompt) {
		c.notifier.Info("delete cancelled")
		return nil
	}

	if err := c.api.DeleteProject(ctx, id); err != nil {
		if errors.IsAuth(err) {
			return err
		}
		c.notifier.Error(userMessage(err, "could not delete project"))
		return err
	}

	c.log.Info("project deleted", "project_id", id)
	c.notifier.Success("project deleted")
	return c.LoadProjects(ctx)
}

// GoBack pops the navigation stack. Returning to the project list always
// triggers a fresh fetch so concurrent external changes become visible.
func (c *Controller) GoBack(ctx context.Context) error {
	c.mu.Lock()
	toProjects := c.nav.GoBack()
	c.mu.Unlock()

	if toProjects {
		return c.LoadProjects(ctx)
	}
	return nil
}

// ResetNavigation returns to the project list view.
func (c *Controller) ResetNavigation() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nav.Reset()
}
