package artifact

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/cropyield/yield-service/internal/domain/model"
)

// Reload outcomes reported to the ReloadObserver.
const (
	ReloadSuccess  = "success"
	ReloadFailure  = "failure"
	ReloadRejected = "rejected"
)

// ReloadObserver is told the outcome of every reload attempt.
type ReloadObserver interface {
	ObserveReload(ctx context.Context, outcome string)
}

// BundleSource produces a freshly loaded bundle.
type BundleSource interface {
	Load() (*model.ArtifactBundle, error)
}

// Watcher reloads the artifact directory when its files change and swaps
// the new bundle into the Holder only if the whole triple loads cleanly.
type Watcher struct {
	mu          sync.Mutex
	watcher     *fsnotify.Watcher
	dir         string
	source      BundleSource
	holder      *Holder
	observer    ReloadObserver
	logger      *slog.Logger
	pinned      string
	debounceDur time.Duration
	lastEvent   time.Time
	pending     bool
	stopCh      chan struct{}
	doneCh      chan struct{}
	running     bool
}

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher)

// WithDebounce sets how long the directory must be quiet before reloading.
func WithDebounce(d time.Duration) WatcherOption {
	return func(w *Watcher) { w.debounceDur = d }
}

// WithPinnedFingerprint rejects reloaded bundles with any other fingerprint.
func WithPinnedFingerprint(fp string) WatcherOption {
	return func(w *Watcher) { w.pinned = fp }
}

// WithObserver reports reload outcomes, e.g. to metrics.
func WithObserver(o ReloadObserver) WatcherOption {
	return func(w *Watcher) { w.observer = o }
}

// NewWatcher creates a Watcher for dir.
func NewWatcher(dir string, source BundleSource, holder *Holder, logger *slog.Logger, opts ...WatcherOption) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}
	w := &Watcher{
		watcher:     fw,
		dir:         dir,
		source:      source,
		holder:      holder,
		logger:      logger,
		debounceDur: 500 * time.Millisecond,
		stopCh:      make(chan struct{}),
		doneCh:      make(chan struct{}),
	}
	for _, o := range opts {
		o(w)
	}
	return w, nil
}

// Start begins watching. It is non-blocking.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.mu.Unlock()

	if err := w.watcher.Add(w.dir); err != nil {
		w.mu.Lock()
		w.running = false
		w.mu.Unlock()
		return fmt.Errorf("failed to watch %s: %w", w.dir, err)
	}
	w.logger.Info("watching artifact directory", "dir", w.dir)

	go w.run(ctx)
	return nil
}

// Stop stops the watcher and waits for its goroutine to exit.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		_ = w.watcher.Close()
		return
	}
	w.running = false
	w.mu.Unlock()

	close(w.stopCh)
	<-w.doneCh

	if err := w.watcher.Close(); err != nil {
		w.logger.Error("failed to close artifact watcher", "error", err)
	}
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.doneCh)

	ticker := time.NewTicker(w.tick())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(ev)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("artifact watcher error", "error", err)
		case <-ticker.C:
			w.processDebounced(ctx)
		}
	}
}

func (w *Watcher) tick() time.Duration {
	t := w.debounceDur / 5
	if t < 10*time.Millisecond {
		t = 10 * time.Millisecond
	}
	return t
}

func (w *Watcher) handleEvent(ev fsnotify.Event) {
	if !IsArtifactFile(ev.Name) {
		return
	}
	if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Rename) && !ev.Has(fsnotify.Remove) {
		return
	}
	w.logger.Debug("artifact file changed", "path", ev.Name, "op", ev.Op.String())

	w.mu.Lock()
	w.pending = true
	w.lastEvent = time.Now()
	w.mu.Unlock()
}

func (w *Watcher) processDebounced(ctx context.Context) {
	w.mu.Lock()
	ready := w.pending && time.Since(w.lastEvent) >= w.debounceDur
	if ready {
		w.pending = false
	}
	w.mu.Unlock()

	if ready {
		w.Reload(ctx)
	}
}

// Reload loads the directory now and swaps on success. It returns the outcome.
func (w *Watcher) Reload(ctx context.Context) string {
	outcome := w.reload()
	if w.observer != nil {
		w.observer.ObserveReload(ctx, outcome)
	}
	return outcome
}

func (w *Watcher) reload() string {
	next, err := w.source.Load()
	if err != nil {
		w.logger.Error("artifact reload failed, keeping current bundle", "error", err)
		return ReloadFailure
	}
	if w.pinned != "" && next.Fingerprint() != w.pinned {
		w.logger.Error("artifact reload rejected, fingerprint is pinned",
			"pinned", w.pinned, "loaded", next.Fingerprint())
		if err := next.Close(); err != nil {
			w.logger.Error("failed to release rejected bundle", "error", err)
		}
		return ReloadRejected
	}

	prev := w.holder.Swap(next)
	attrs := []any{"fingerprint", next.Fingerprint(), "model_kind", next.Predictor().Kind()}
	if prev != nil {
		attrs = append(attrs, "previous_fingerprint", prev.Fingerprint())
	}
	w.logger.Info("artifact bundle swapped", attrs...)
	return ReloadSuccess
}
