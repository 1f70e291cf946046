// Package daemon runs the long-lived pieces of the arrangement service: the
// catalog watcher that tracks hotplug and outside configuration changes.
package daemon

import (
	"context"
	"log/slog"
	"time"

	"github.com/xarrange/xarrange/internal/session"
)

// WatcherConfig holds configuration for the catalog watcher.
type WatcherConfig struct {
	Interval time.Duration
	Logger   *slog.Logger
}

// Watcher periodically re-enumerates the display server and refreshes the
// catalog snapshot when outputs appear, disappear or change behind our back.
type Watcher struct {
	interval time.Duration
	ctrl     *session.Controller
	logger   *slog.Logger
}

// NewWatcher creates a new catalog watcher.
func NewWatcher(cfg WatcherConfig, ctrl *session.Controller) *Watcher {
	interval := cfg.Interval
	if interval <= 0 {
		interval = 5 * time.Second
	}

	return &Watcher{
		interval: interval,
		ctrl:     ctrl,
		logger:   cfg.Logger,
	}
}

// Run starts the watch loop. Blocks until context is cancelled.
func (w *Watcher) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.logger.Info("catalog watcher started", "interval", w.interval)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("catalog watcher stopped")
			return
		case <-ticker.C:
			w.sync()
		}
	}
}

// sync performs a single catalog refresh pass.
func (w *Watcher) sync() {
	// Recover from panics to prevent crashing the daemon
	defer func() {
		if err := recover(); err != nil {
			w.logger.Error("watcher panic recovered", "error", err)
		}
	}()

	if err := w.ctrl.SyncFromServer(); err != nil {
		w.logger.Error("watcher: failed to refresh catalog", "error", err)
	}
}

// SyncNow triggers an immediate catalog refresh pass.
func (w *Watcher) SyncNow() {
	w.sync()
}
