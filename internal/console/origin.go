package console

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/slopewatch/slopewatch-go/internal/errors"
)

// originFetchTimeout bounds the backend's live listen on the device
// topic. The backend itself gives up after 30 seconds and answers 408;
// this leaves headroom for transport.
const originFetchTimeout = 45 * time.Second

// FetchLatestOrigin asks the backend to listen on the station's GNSS
// topic for one live fix and fills the wizard's origin section with it.
// Only one fetch runs at a time; a second request while one is in flight
// is refused. The fix metadata (satellites, quality) is kept for display.
func (c *Controller) FetchLatestOrigin(ctx context.Context) error {
	c.mu.Lock()
	open := c.wizard.mode != wizardClosed
	topic := strings.TrimSpace(c.wizard.form.Sensors[SensorGNSS].Topic)
	c.mu.Unlock()

	if !open {
		return stateError("no station wizard is open")
	}
	if topic == "" {
		c.notifier.Warning("set the GNSS topic before fetching the origin")
		return errors.ValidationError("gnss topic is required to fetch an origin")
	}

	if !c.originBusy.CompareAndSwap(false, true) {
		c.notifier.Info("an origin fetch is already running")
		return stateError("origin fetch already in progress")
	}
	defer c.originBusy.Store(false)

	fetchCtx, cancel := context.WithTimeout(ctx, originFetchTimeout)
	defer cancel()

	c.notifier.Info(fmt.Sprintf("listening on %s for a live fix", topic))
	fix, err := c.api.FetchLiveOrigin(fetchCtx, topic)
	if err != nil {
		if errors.IsAuth(err) {
			return err
		}
		if errors.IsCategory(err, errors.CategoryTimeout) {
			c.notifier.Error("no fix received before the timeout, is the device publishing?")
		} else {
			c.notifier.Error(userMessage(err, "could not fetch a live origin"))
		}
		c.log.Error("live origin fetch failed", "topic", topic, "error", err)
		return err
	}

	c.mu.Lock()
	if c.wizard.mode != wizardClosed {
		c.wizard.form.Origin = OriginForm{
			Set:        true,
			Lat:        float64(fix.Lat),
			Lon:        float64(fix.Lon),
			H:          float64(fix.H),
			NumSats:    fix.NumSats,
			FixQuality: fix.FixQuality,
		}
	}
	c.mu.Unlock()

	c.notifier.Success(fmt.Sprintf("origin set to %.7f, %.7f (h %.2f m, %d sats, quality %d)",
		float64(fix.Lat), float64(fix.Lon), float64(fix.H), fix.NumSats, fix.FixQuality))
	return nil
}

// OriginFetchInProgress reports whether a live origin fetch is running.
// Drives the fetch control's disabled state.
func (c *Controller) OriginFetchInProgress() bool {
	return c.originBusy.Load()
}
