package controller

import (
	"context"
	"fmt"

	"github.com/micro-nova/piconfig-go/internal/gateway"
	"github.com/micro-nova/piconfig-go/internal/models"
)

// The two values of an interface have different authorities: Configured is
// request-authoritative (set from the operator's successful request), Enabled
// is refresh-authoritative (only a refresh from the backend changes it).
// SetConfigured therefore never re-reads Enabled; enabling usually needs a
// reboot, and the divergence is what the advisory reports.

// RefreshInterface reloads both values of one interface from the backend.
func (c *Controller) RefreshInterface(ctx context.Context, id models.InterfaceID) (models.State, *models.AppError) {
	var status gateway.InterfaceStatus
	return c.guarded(ctx,
		beginInterface(id),
		func(ctx context.Context) error {
			var err error
			status, err = c.gw.GetInterfaceState(ctx, id)
			return err
		},
		func(s *models.State, err error) {
			is := s.Interfaces[id]
			is.Loading = false
			if err == nil {
				is.Configured = status.Configured
				is.Enabled = models.BoolPtr(status.Enabled)
			}
			s.Interfaces[id] = is
		},
	)
}

// SetConfigured asks the backend to turn an interface on or off in config.txt.
// A second call for the same interface while one is in flight is rejected
// with BUSY; the caller must wait.
func (c *Controller) SetConfigured(ctx context.Context, id models.InterfaceID, desired bool) (models.State, *models.AppError) {
	return c.guarded(ctx,
		beginInterface(id),
		func(ctx context.Context) error {
			return c.gw.SetInterfaceState(ctx, id, desired)
		},
		func(s *models.State, err error) {
			is := s.Interfaces[id]
			is.Loading = false
			if err == nil {
				is.Configured = desired
				c.notifyLocked(s, models.SeveritySuccess, configuredMessage(id, desired))
			}
			s.Interfaces[id] = is
		},
	)
}

func beginInterface(id models.InterfaceID) func(*models.State) error {
	return func(s *models.State) error {
		if err := requireMounted(s); err != nil {
			return err
		}
		is, ok := s.Interfaces[id]
		if !ok {
			return models.ErrBadRequest(fmt.Sprintf("unknown interface %q", id))
		}
		if is.Loading {
			return models.ErrBusy(string(id))
		}
		is.Loading = true
		s.Interfaces[id] = is
		return nil
	}
}

func configuredMessage(id models.InterfaceID, enabled bool) string {
	verb := "disabled"
	if enabled {
		verb = "enabled"
	}
	msg := fmt.Sprintf("%s interface %s. Reboot to take effect", id.Label(), verb)
	if id == models.I2C && enabled {
		msg += ". Enabling I2C for the first time needs two reboots"
	}
	return msg
}
