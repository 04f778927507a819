package artifact

import (
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cropyield/yield-service/internal/domain/model"
)

// DefaultRetireGrace is how long a replaced bundle stays usable. It must
// outlive the longest request that could have captured it.
const DefaultRetireGrace = 30 * time.Second

// Holder publishes the active bundle. Readers capture the pointer once per
// request, so an in-flight request keeps the bundle it started with.
// Replaced bundles are closed once the retire grace period has passed.
type Holder struct {
	current atomic.Pointer[model.ArtifactBundle]
	grace   time.Duration
	logger  *slog.Logger

	mu      sync.Mutex
	retired map[*model.ArtifactBundle]*time.Timer
	closed  bool
}

// HolderOption configures a Holder.
type HolderOption func(*Holder)

// WithRetireGrace sets how long a replaced bundle stays open.
func WithRetireGrace(d time.Duration) HolderOption {
	return func(h *Holder) { h.grace = d }
}

// WithHolderLogger sets the logger used for release failures.
func WithHolderLogger(l *slog.Logger) HolderOption {
	return func(h *Holder) { h.logger = l }
}

// NewHolder returns a Holder, optionally pre-loaded.
func NewHolder(initial *model.ArtifactBundle, opts ...HolderOption) *Holder {
	h := &Holder{
		grace:   DefaultRetireGrace,
		logger:  slog.Default(),
		retired: make(map[*model.ArtifactBundle]*time.Timer),
	}
	for _, o := range opts {
		o(h)
	}
	if initial != nil {
		h.current.Store(initial)
	}
	return h
}

// Current returns the active bundle, or nil if none is loaded.
func (h *Holder) Current() *model.ArtifactBundle {
	return h.current.Load()
}

// Swap installs next and returns the previous bundle, which is closed after
// the retire grace period. Callers must not keep using it past that point.
func (h *Holder) Swap(next *model.ArtifactBundle) *model.ArtifactBundle {
	prev := h.current.Swap(next)
	if prev != nil && prev != next {
		h.retire(prev)
	}
	return prev
}

func (h *Holder) retire(b *model.ArtifactBundle) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		h.release(b)
		return
	}
	if _, ok := h.retired[b]; ok {
		return
	}
	h.retired[b] = time.AfterFunc(h.grace, func() {
		h.mu.Lock()
		_, pending := h.retired[b]
		delete(h.retired, b)
		h.mu.Unlock()
		if pending {
			h.release(b)
		}
	})
}

func (h *Holder) release(b *model.ArtifactBundle) {
	if err := b.Close(); err != nil {
		h.logger.Error("failed to release artifact bundle",
			"fingerprint", b.Fingerprint(), "error", err)
	}
}

// Close releases the active bundle and every bundle still waiting out its
// grace period. Bundles swapped out afterwards are released immediately.
func (h *Holder) Close() error {
	h.mu.Lock()
	h.closed = true
	pending := make([]*model.ArtifactBundle, 0, len(h.retired)+1)
	for b, t := range h.retired {
		t.Stop()
		pending = append(pending, b)
	}
	clear(h.retired)
	h.mu.Unlock()

	if cur := h.current.Swap(nil); cur != nil {
		pending = append(pending, cur)
	}

	var errs []error
	for _, b := range pending {
		if err := b.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
