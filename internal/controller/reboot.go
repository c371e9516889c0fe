package controller

import (
	"context"
	"log/slog"

	"github.com/micro-nova/piconfig-go/internal/models"
)

// RebootPrompt is the question put to the operator before rebooting.
const RebootPrompt = "Are you sure you want to reboot the Raspberry Pi?"

// Confirmer asks the operator a yes/no question.
type Confirmer interface {
	Confirm(ctx context.Context, prompt string) bool
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(ctx context.Context, prompt string) bool

func (f ConfirmFunc) Confirm(ctx context.Context, prompt string) bool { return f(ctx, prompt) }

// Confirmed is a Confirmer for callers that already asked (e.g. an API
// request carrying confirm=true).
var Confirmed = ConfirmFunc(func(context.Context, string) bool { return true })

// RequestReboot reboots the device once the operator confirms. The reboot
// call runs detached and its result is discarded: the device usually goes
// down before it can reply, so there is no completion signal and it cannot
// be cancelled. "Rebooting..." is reported immediately. Returns false if the
// operator declined.
func (c *Controller) RequestReboot(ctx context.Context, confirm Confirmer) bool {
	if confirm == nil || !confirm.Confirm(ctx, RebootPrompt) {
		return false
	}

	go func(ctx context.Context) {
		err := c.gw.Reboot(ctx)
		slog.Debug("controller: reboot call returned", "err", err)
	}(context.WithoutCancel(ctx))

	_, _ = c.apply(func(s *models.State) error {
		c.notifyLocked(s, models.SeveritySuccess, "Rebooting...")
		return nil
	})
	slog.Info("controller: reboot requested")
	return true
}
