package console

import (
	"context"
	"fmt"
	"strings"

	"github.com/slopewatch/slopewatch-go/internal/api"
	"github.com/slopewatch/slopewatch-go/internal/errors"
)

// LoadUsers refreshes the user account cache.
func (c *Controller) LoadUsers(ctx context.Context) error {
	gen := c.usersGen.Add(1)

	users, err := c.api.ListUsers(ctx)
	if err != nil {
		if errors.IsAuth(err) {
			return err
		}
		c.log.Error("failed to load users", "error", err)
		c.notifier.Error(userMessage(err, "could not load user list"))
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.usersGen.Load() {
		c.log.Debug("dropping superseded user list response", "generation", gen)
		return nil
	}
	c.users = users
	return nil
}

// CreateUser creates a console account and refreshes the list. Username
// and password are required; role defaults to viewer on the backend when
// empty.
func (c *Controller) CreateUser(ctx context.Context, username, password, fullName, role string) error {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		c.notifier.Warning("username and password are required")
		return errors.ValidationError("username and password are required")
	}

	created, err := c.api.CreateUser(ctx, &api.UserCreate{
		Username: username,
		Password: password,
		FullName: strings.TrimSpace(fullName),
		Role:     strings.TrimSpace(role),
	})
	if err != nil {
		if errors.IsAuth(err) {
			return err
		}
		c.notifier.Error(userMessage(err, "could not create user"))
		return err
	}

	c.log.Info("user created", "user_id", created.ID, "username", created.Username)
	c.notifier.Success(fmt.Sprintf("user %q created", created.Username))
	return c.LoadUsers(ctx)
}

// DeleteUser removes a console account after explicit confirmation.
func (c *Controller) DeleteUser(ctx context.Context, id int64) error {
	if !c.confirm(fmt.Sprintf("Delete user %d?", id)) {
		c.notifier.Info("delete cancelled")
		return nil
	}

	if err := c.api.DeleteUser(ctx, id); err != nil {
		if errors.IsAuth(err) {
			return err
		}
		c.notifier.Error(userMessage(err, "could not delete user"))
		return err
	}

	c.log.Info("user deleted", "user_id", id)
	c.notifier.Success("user deleted")
	return c.LoadUsers(ctx)
}
