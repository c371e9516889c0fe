// Package watchdog probes the device backend periodically and reports when it
// goes away and comes back, so the panel can resynchronise after a reboot or
// a network outage.
package watchdog

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// DefaultProbeTimeout bounds a single probe.
const DefaultProbeTimeout = 3 * time.Second

// ProbeFunc reports whether the backend answered.
type ProbeFunc func(ctx context.Context) error

// Watchdog tracks backend reachability.
type Watchdog struct {
	probe    ProbeFunc
	interval time.Duration
	timeout  time.Duration

	// onOnline runs when the backend answers for the first time
	// (reconnect=false) or again after being unreachable (reconnect=true).
	onOnline  func(ctx context.Context, reconnect bool)
	onOffline func()

	mu      sync.Mutex
	checked bool
	online  bool
	seen    bool // answered at least once
}

// New creates a Watchdog. Either callback may be nil.
func New(probe ProbeFunc, interval time.Duration, onOnline func(ctx context.Context, reconnect bool), onOffline func()) *Watchdog {
	return &Watchdog{
		probe:     probe,
		interval:  interval,
		timeout:   DefaultProbeTimeout,
		onOnline:  onOnline,
		onOffline: onOffline,
	}
}

// Run checks immediately, then every interval until ctx is cancelled.
func (w *Watchdog) Run(ctx context.Context) {
	w.Check(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.Check(ctx)
		}
	}
}

// Check probes once and fires the callbacks on a status change. It returns
// the probe's verdict.
func (w *Watchdog) Check(ctx context.Context) bool {
	probeCtx, cancel := context.WithTimeout(ctx, w.timeout)
	err := w.probe(probeCtx)
	cancel()
	online := err == nil

	w.mu.Lock()
	changed := !w.checked || online != w.online
	reconnect := online && w.seen
	w.checked = true
	w.online = online
	if online {
		w.seen = true
	}
	w.mu.Unlock()

	if !changed {
		return online
	}
	if online {
		slog.Info("watchdog: gateway reachable", "reconnect", reconnect)
		if w.onOnline != nil {
			w.onOnline(ctx, reconnect)
		}
	} else {
		slog.Warn("watchdog: gateway unreachable", "err", err)
		if w.onOffline != nil {
			w.onOffline()
		}
	}
	return online
}

// Online returns the last verdict and whether any check has completed.
func (w *Watchdog) Online() (online, known bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.online, w.checked
}
