package controller

import (
	"context"
	"log/slog"

	"github.com/micro-nova/piconfig-go/internal/models"
)

// RefreshMountState asks the backend whether the boot partition is mounted.
// When it is, the cascade reloads config.txt and every interface before the
// session is marked initialized.
func (c *Controller) RefreshMountState(ctx context.Context) (models.State, *models.AppError) {
	mounted, appErr := c.refreshMount(ctx)
	if appErr != nil {
		return models.State{}, appErr
	}
	if !mounted {
		return c.State(), nil
	}
	return c.cascade(ctx), nil
}

// Mount mounts the boot partition and runs the cascade. There is no unmount.
// A PERMISSION_DENIED failure (host protection mode on) yields the
// remediation message instead of the generic error.
func (c *Controller) Mount(ctx context.Context) (models.State, *models.AppError) {
	_, appErr := c.guarded(ctx,
		func(s *models.State) error {
			if s.Mount.Mounted {
				return models.ErrAlreadyMounted
			}
			if s.Mount.Loading {
				return models.ErrBusy("mount")
			}
			s.Mount.Loading = true
			return nil
		},
		func(ctx context.Context) error {
			return c.gw.Mount(ctx)
		},
		func(s *models.State, err error) {
			s.Mount.Loading = false
			if err != nil {
				return
			}
			s.Mount.Mounted = true
			c.notifyLocked(s, models.SeveritySuccess, "Boot partition mounted")
		},
	)
	if appErr != nil {
		return models.State{}, appErr
	}
	slog.Info("controller: boot partition mounted")
	return c.cascade(ctx), nil
}

// Resync re-reads the backend after a reconnect. Interfaces are refreshed;
// config.txt is reloaded only when it has no unsaved edits, so reconnecting
// never discards the operator's work. If the partition has gone away the
// session falls back to its unmounted state.
func (c *Controller) Resync(ctx context.Context) (models.State, *models.AppError) {
	mounted, appErr := c.refreshMount(ctx)
	if appErr != nil {
		return models.State{}, appErr
	}
	if !mounted {
		return c.State(), nil
	}

	if !c.State().ConfigText.Dirty {
		if _, err := c.LoadConfigText(ctx); err != nil {
			slog.Warn("controller: resync: config.txt load failed", "err", err)
		}
	}
	for _, id := range models.KnownInterfaces() {
		if _, err := c.RefreshInterface(ctx, id); err != nil {
			slog.Warn("controller: resync: interface refresh failed", "interface", id, "err", err)
		}
	}
	state, _ := c.apply(func(s *models.State) error {
		s.Initialized = true
		return nil
	})
	return state, nil
}

func (c *Controller) refreshMount(ctx context.Context) (bool, *models.AppError) {
	var mounted bool
	_, appErr := c.guarded(ctx,
		func(s *models.State) error {
			if s.Mount.Loading {
				return models.ErrBusy("mount")
			}
			s.Mount.Loading = true
			return nil
		},
		func(ctx context.Context) error {
			var err error
			mounted, err = c.gw.GetMountState(ctx)
			return err
		},
		func(s *models.State, err error) {
			s.Mount.Loading = false
			if err != nil {
				return
			}
			if s.Mount.Mounted && !mounted {
				forgetMounted(s)
			}
			s.Mount.Mounted = mounted
		},
	)
	if appErr != nil {
		return false, appErr
	}
	return mounted, nil
}

// forgetMounted drops everything read from the boot partition once it is no
// longer mounted. In-flight Loading flags are kept; their calls still finish.
func forgetMounted(s *models.State) {
	for id, is := range s.Interfaces {
		s.Interfaces[id] = models.InterfaceState{Loading: is.Loading}
	}
	s.ConfigText = models.ConfigText{Loading: s.ConfigText.Loading}
	s.Initialized = false
	s.Page = models.PageMenu
	slog.Info("controller: boot partition no longer mounted, cleared session")
}

// cascade loads config.txt, then each interface in order, then marks the
// session initialized. A step that fails has already notified the operator;
// the remaining steps still run.
func (c *Controller) cascade(ctx context.Context) models.State {
	if _, err := c.LoadConfigText(ctx); err != nil {
		slog.Warn("controller: cascade: config.txt load failed", "err", err)
	}
	for _, id := range models.KnownInterfaces() {
		if _, err := c.RefreshInterface(ctx, id); err != nil {
			slog.Warn("controller: cascade: interface refresh failed", "interface", id, "err", err)
		}
	}
	state, _ := c.apply(func(s *models.State) error {
		s.Initialized = true
		return nil
	})
	slog.Debug("controller: cascade complete")
	return state
}
