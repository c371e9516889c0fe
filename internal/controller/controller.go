// Package controller implements the configurator's session state machine:
// the boot-mount gate, the interface reconciliation engine, the config.txt
// tracker and the reboot action, all over one state aggregate.
//
// Every remote call is bracketed by its entity's Loading flag, which is
// checked and set under the lock before the call and cleared after it, so at
// most one call per entity is in flight while distinct entities proceed
// concurrently.
package controller

import (
	"context"
	"sync"
	"time"

	"github.com/micro-nova/piconfig-go/internal/advisory"
	"github.com/micro-nova/piconfig-go/internal/events"
	"github.com/micro-nova/piconfig-go/internal/gateway"
	"github.com/micro-nova/piconfig-go/internal/models"
	"github.com/micro-nova/piconfig-go/internal/notify"
)

// Controller owns the panel's session state. All mutations go through apply.
type Controller struct {
	mu       sync.RWMutex
	state    models.State
	gw       gateway.Gateway
	bus      *events.Bus
	notifier notify.Notifier

	callTimeout time.Duration
	seq         uint64
	pending     []models.Notification // delivered after the lock is released
	now         func() time.Time
}

// Option configures a Controller.
type Option func(*Controller)

// WithNotifier forwards every notification to n in addition to storing it in
// the state.
func WithNotifier(n notify.Notifier) Option {
	return func(c *Controller) { c.notifier = n }
}

// WithCallTimeout bounds each gateway call. Zero (the default) means no
// timeout: a hung call keeps its entity loading until it returns.
func WithCallTimeout(d time.Duration) Option {
	return func(c *Controller) { c.callTimeout = d }
}

// New creates a Controller in the start-of-session state. bus may be nil.
func New(gw gateway.Gateway, bus *events.Bus, opts ...Option) *Controller {
	c := &Controller{
		state: models.DefaultState(),
		gw:    gw,
		bus:   bus,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// State returns a deep copy of the current session state.
func (c *Controller) State() models.State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state.DeepCopy()
}

// View returns the current state with a freshly computed advisory.
func (c *Controller) View() advisory.View {
	return advisory.NewView(c.State())
}

// apply is the core mutation primitive. It:
//  1. Acquires the write lock
//  2. Makes a deep copy of current state
//  3. Calls fn to modify the copy (fn may return an error to abort)
//  4. If fn succeeds: updates state and publishes a snapshot
//
// Notifications raised by fn are delivered to the notifier after unlocking.
func (c *Controller) apply(fn func(*models.State) error) (models.State, error) {
	c.mu.Lock()
	next := c.state.DeepCopy()
	if err := fn(&next); err != nil {
		c.pending = nil
		c.mu.Unlock()
		return models.State{}, err
	}
	c.state = next
	out := c.state.DeepCopy()
	if c.bus != nil {
		c.bus.Publish(out)
	}
	pending := c.pending
	c.pending = nil
	c.mu.Unlock()

	if c.notifier != nil {
		for _, n := range pending {
			c.notifier.Notify(n)
		}
	}
	return out, nil
}

// guarded performs one gateway call bracketed by an entity's Loading flag.
// begin checks preconditions and sets the flag; finish always runs after the
// call, must clear the flag, and applies the result only when err is nil.
// A failure leaves everything else untouched and raises one error notification.
func (c *Controller) guarded(
	ctx context.Context,
	begin func(*models.State) error,
	call func(context.Context) error,
	finish func(*models.State, error),
) (models.State, *models.AppError) {
	if _, err := c.apply(begin); err != nil {
		return models.State{}, asAppError(err)
	}

	callCtx, cancel := c.callContext(ctx)
	err := call(callCtx)
	cancel()

	state, _ := c.apply(func(s *models.State) error {
		finish(s, err)
		if err != nil {
			c.notifyLocked(s, models.SeverityError, gateway.ToAppError(err).Message)
		}
		return nil
	})
	if err != nil {
		return models.State{}, gateway.ToAppError(err)
	}
	return state, nil
}

// callContext detaches a gateway call from the caller's cancellation (an HTTP
// client going away must not strand an entity mid-update) and applies the
// optional call timeout.
func (c *Controller) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	ctx = context.WithoutCancel(ctx)
	if c.callTimeout > 0 {
		return context.WithTimeout(ctx, c.callTimeout)
	}
	return ctx, func() {}
}

// notifyLocked replaces the current notification. Caller holds c.mu (i.e. is
// inside apply).
func (c *Controller) notifyLocked(s *models.State, sev models.Severity, msg string) {
	c.seq++
	n := models.Notification{
		Seq:      c.seq,
		Severity: sev,
		Message:  msg,
		Time:     c.now(),
	}
	s.Notification = &n
	c.pending = append(c.pending, n)
}

// Dismiss clears the current notification if it is still the one with seq.
func (c *Controller) Dismiss(seq uint64) models.State {
	state, _ := c.apply(func(s *models.State) error {
		if s.Notification != nil && s.Notification.Seq == seq {
			s.Notification = nil
		}
		return nil
	})
	return state
}

func requireMounted(s *models.State) error {
	if !s.Mount.Mounted {
		return models.ErrNotMounted
	}
	return nil
}

func asAppError(err error) *models.AppError {
	if appErr, ok := err.(*models.AppError); ok {
		return appErr
	}
	return models.ErrInternal(err.Error())
}
