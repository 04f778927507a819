package audit

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cropyield/yield-service/internal/domain/model"
	"github.com/cropyield/yield-service/internal/domain/port"
)

const defaultWriteTimeout = 5 * time.Second

// Recorder persists and publishes served predictions on a background
// goroutine. Record never blocks: when the buffer is full the record is
// dropped and counted.
type Recorder struct {
	repo      port.PredictionRepository
	publisher port.EventPublisher
	logger    *slog.Logger

	queue   chan *model.PredictionRecord
	done    chan struct{}
	mu      sync.RWMutex
	closed  bool
	dropped atomic.Int64
	timeout time.Duration
}

// NewRecorder starts the background writer. Either repo or publisher may
// be nil to skip that side.
func NewRecorder(repo port.PredictionRepository, publisher port.EventPublisher, bufferSize int, logger *slog.Logger) *Recorder {
	if bufferSize <= 0 {
		bufferSize = 1
	}
	r := &Recorder{
		repo:      repo,
		publisher: publisher,
		logger:    logger,
		queue:     make(chan *model.PredictionRecord, bufferSize),
		done:      make(chan struct{}),
		timeout:   defaultWriteTimeout,
	}
	go r.run()
	return r
}

// Record enqueues a prediction for auditing.
func (r *Recorder) Record(record *model.PredictionRecord) {
	if record == nil {
		return
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		r.dropped.Add(1)
		return
	}

	select {
	case r.queue <- record:
	default:
		if n := r.dropped.Add(1); n == 1 || n%100 == 0 {
			r.logger.Warn("audit buffer full, dropping prediction",
				slog.String("prediction_id", record.ID().String()),
				slog.Int64("dropped_total", n),
			)
		}
	}
}

// Dropped returns how many records were discarded.
func (r *Recorder) Dropped() int64 {
	return r.dropped.Load()
}

// Close stops accepting records and waits for the queue to drain or ctx to end.
func (r *Recorder) Close(ctx context.Context) error {
	r.mu.Lock()
	if !r.closed {
		r.closed = true
		close(r.queue)
	}
	r.mu.Unlock()

	select {
	case <-r.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *Recorder) run() {
	defer close(r.done)
	for record := range r.queue {
		r.write(record)
	}
}

func (r *Recorder) write(record *model.PredictionRecord) {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	if r.repo != nil {
		if err := r.repo.Save(ctx, record); err != nil {
			r.logger.Error("failed to save prediction",
				slog.String("prediction_id", record.ID().String()),
				slog.String("error", err.Error()),
			)
		}
	}

	evts := record.DomainEvents()
	if r.publisher == nil || len(evts) == 0 {
		return
	}
	if err := r.publisher.Publish(ctx, evts...); err != nil {
		r.logger.Error("failed to publish prediction events",
			slog.String("prediction_id", record.ID().String()),
			slog.Int("events", len(evts)),
			slog.String("error", err.Error()),
		)
	}
}
