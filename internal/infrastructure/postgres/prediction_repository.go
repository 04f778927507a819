package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/cropyield/yield-service/internal/domain/model"
	"github.com/cropyield/yield-service/internal/domain/valueobject"
	"github.com/cropyield/yield-service/pkg/events"
	pgutil "github.com/cropyield/yield-service/pkg/postgres"
)

const selectPrediction = `
	SELECT id, fingerprint, model_kind,
		predicted_yield, raw_value, confidence_tier,
		inputs, created_at
	FROM predictions
`

// PredictionRepository implements port.PredictionRepository using PostgreSQL.
type PredictionRepository struct {
	db pgutil.DB
}

// NewPredictionRepository creates a new PostgreSQL-backed prediction repository.
// db is normally a *pgxpool.Pool.
func NewPredictionRepository(db pgutil.DB) *PredictionRepository {
	return &PredictionRepository{db: db}
}

// Save persists a served prediction together with the domain events it has
// recorded so far. Events are read without being cleared.
func (r *PredictionRepository) Save(ctx context.Context, record *model.PredictionRecord) error {
	inputs := record.Inputs()
	if inputs == nil {
		inputs = map[string]any{}
	}

	return pgutil.WithTransaction(ctx, r.db, func(tx pgutil.Querier) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO predictions (
				id, fingerprint, model_kind,
				predicted_yield, raw_value, confidence_tier,
				inputs, created_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			ON CONFLICT (id) DO NOTHING
		`,
			record.ID(),
			record.Fingerprint(),
			record.ModelKind(),
			record.Value(),
			record.RawValue(),
			record.Tier().String(),
			inputs,
			record.CreatedAt(),
		)
		if err != nil {
			return fmt.Errorf("failed to save prediction: %w", err)
		}

		for _, evt := range record.Events() {
			env, err := events.NewEnvelope(evt)
			if err != nil {
				return err
			}
			_, err = tx.Exec(ctx, `
				INSERT INTO prediction_events (id, prediction_id, event_type, payload, created_at)
				VALUES ($1, $2, $3, $4, $5)
				ON CONFLICT (id) DO NOTHING
			`, env.ID, record.ID(), env.EventType, []byte(env.Payload), env.CreatedAt)
			if err != nil {
				return fmt.Errorf("failed to save %s event: %w", env.EventType, err)
			}
		}
		return nil
	})
}

// FindByID retrieves a prediction by its unique identifier.
func (r *PredictionRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.PredictionRecord, error) {
	if r.db == nil {
		return nil, errors.New("postgres: no database configured")
	}
	record, err := scanPrediction(r.db.QueryRow(ctx, selectPrediction+` WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", model.ErrPredictionNotFound, id)
		}
		return nil, err
	}
	return record, nil
}

// FindByFingerprint lists predictions served by one schema version, newest first.
func (r *PredictionRepository) FindByFingerprint(ctx context.Context, fingerprint string, limit, offset int) ([]*model.PredictionRecord, error) {
	if r.db == nil {
		return nil, errors.New("postgres: no database configured")
	}
	rows, err := r.db.Query(ctx,
		selectPrediction+` WHERE fingerprint = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
		fingerprint, limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query predictions: %w", err)
	}
	defer rows.Close()

	records := make([]*model.PredictionRecord, 0)
	for rows.Next() {
		record, err := scanPrediction(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate predictions: %w", err)
	}

	return records, nil
}

func scanPrediction(row pgx.Row) (*model.PredictionRecord, error) {
	var (
		id          uuid.UUID
		fingerprint string
		modelKind   string
		value       float64
		rawValue    float64
		tierStr     string
		inputs      map[string]any
		createdAt   time.Time
	)

	err := row.Scan(
		&id, &fingerprint, &modelKind,
		&value, &rawValue, &tierStr,
		&inputs, &createdAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan prediction: %w", err)
	}

	tier, err := valueobject.ConfidenceTierFromString(tierStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse confidence tier: %w", err)
	}

	return model.ReconstructPredictionRecord(
		id, fingerprint, modelKind,
		value, rawValue, tier,
		inputs, createdAt.UTC(),
	), nil
}
