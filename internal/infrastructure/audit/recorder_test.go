package audit

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/cropyield/yield-service/internal/domain/model"
	"github.com/cropyield/yield-service/internal/domain/valueobject"
	"github.com/cropyield/yield-service/pkg/events"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type memoryRepo struct {
	mu      sync.Mutex
	saved   []*model.PredictionRecord
	events  int
	err     error
	block   chan struct{}
	started chan struct{}
}

func (r *memoryRepo) Save(_ context.Context, record *model.PredictionRecord) error {
	if r.started != nil {
		r.started <- struct{}{}
	}
	if r.block != nil {
		<-r.block
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.saved = append(r.saved, record)
	r.events += len(record.Events())
	return r.err
}

func (r *memoryRepo) FindByID(context.Context, uuid.UUID) (*model.PredictionRecord, error) {
	return nil, model.ErrPredictionNotFound
}

func (r *memoryRepo) FindByFingerprint(context.Context, string, int, int) ([]*model.PredictionRecord, error) {
	return nil, nil
}

func (r *memoryRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.saved)
}

type memoryPublisher struct {
	mu    sync.Mutex
	types []string
}

func (p *memoryPublisher) Publish(_ context.Context, evts ...events.DomainEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, e := range evts {
		p.types = append(p.types, e.EventType())
	}
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func record(t *testing.T, tier valueobject.ConfidenceTier) *model.PredictionRecord {
	t.Helper()
	rec, err := model.NewPredictionRecord(model.PredictionResult{
		Value:       4.2,
		RawValue:    4.2,
		Tier:        tier,
		Fingerprint: "fp",
		ModelKind:   "linear",
	}, nil)
	require.NoError(t, err)
	return rec
}

func TestRecorder_SavesAndPublishes(t *testing.T) {
	repo := &memoryRepo{}
	pub := &memoryPublisher{}
	r := NewRecorder(repo, pub, 8, discardLogger())

	r.Record(record(t, valueobject.ConfidenceHigh))
	r.Record(record(t, valueobject.ConfidenceMedium))
	r.Record(nil)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, r.Close(ctx))

	assert.Equal(t, 2, repo.count())
	assert.Equal(t, 3, repo.events, "events are visible to the repository before publishing")
	assert.Equal(t, []string{
		"yield.prediction.served",
		"yield.prediction.served",
		"yield.outlier.detected",
	}, pub.types)
	assert.Zero(t, r.Dropped())
}

func TestRecorder_PublishesEvenWhenSaveFails(t *testing.T) {
	repo := &memoryRepo{err: errors.New("db down")}
	pub := &memoryPublisher{}
	r := NewRecorder(repo, pub, 1, discardLogger())

	r.Record(record(t, valueobject.ConfidenceHigh))
	require.NoError(t, r.Close(context.Background()))

	assert.Len(t, pub.types, 1)
}

func TestRecorder_DropsWhenFull(t *testing.T) {
	repo := &memoryRepo{block: make(chan struct{}), started: make(chan struct{}, 1)}
	r := NewRecorder(repo, nil, 1, discardLogger())

	r.Record(record(t, valueobject.ConfidenceHigh))
	<-repo.started // writer is now blocked inside Save

	r.Record(record(t, valueobject.ConfidenceHigh)) // fills the buffer
	r.Record(record(t, valueobject.ConfidenceHigh)) // dropped
	r.Record(record(t, valueobject.ConfidenceHigh)) // dropped

	assert.Equal(t, int64(2), r.Dropped())

	repo.started = nil
	close(repo.block)
	require.NoError(t, r.Close(context.Background()))
	assert.Equal(t, 2, repo.count())
}

func TestRecorder_RecordAfterClose(t *testing.T) {
	r := NewRecorder(nil, nil, 4, discardLogger())
	require.NoError(t, r.Close(context.Background()))
	require.NoError(t, r.Close(context.Background()), "close is idempotent")

	r.Record(record(t, valueobject.ConfidenceHigh))
	assert.Equal(t, int64(1), r.Dropped())
}
