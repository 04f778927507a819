package training

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/cropyield/yield-service/internal/domain/model"
	"github.com/cropyield/yield-service/internal/domain/valueobject"
	"github.com/cropyield/yield-service/internal/infrastructure/predictor"
)

// ModelAuto selects the candidate with the best held-out R².
const ModelAuto = "auto"

// Options control a training run.
type Options struct {
	// Encoding overrides the manifest's policy when set.
	Encoding valueobject.EncodingPolicy
	// Model is ModelAuto or one of the predictor kinds linear, tree, forest.
	Model    string
	Seed     uint64
	TestSize float64
	Tree     TreeOptions
	Trees    int
}

// DefaultOptions match the original model selection run.
func DefaultOptions() Options {
	return Options{
		Model:    ModelAuto,
		Seed:     42,
		TestSize: 0.2,
		Tree:     DefaultTreeOptions(),
		Trees:    100,
	}
}

// CandidateScore is the held-out performance of one fitted model.
type CandidateScore struct {
	Kind     string
	MSE      float64
	R2       float64
	Duration time.Duration
}

// Result is a packaged bundle plus the evidence it was chosen on.
type Result struct {
	Bundle     *model.ArtifactBundle
	Metrics    map[string]float64
	Candidates []CandidateScore
	TrainRows  int
	TestRows   int
}

// Trainer turns a CSV frame into an artifact bundle.
type Trainer struct {
	opts   Options
	logger *slog.Logger
}

// NewTrainer creates a Trainer.
func NewTrainer(opts Options, logger *slog.Logger) *Trainer {
	return &Trainer{opts: opts, logger: logger}
}

type candidate struct {
	score     CandidateScore
	predictor model.Predictor
}

// Train encodes the frame, fits the scaler on the training split, fits the
// requested candidates concurrently on scaled rows and packages the best one.
func (t *Trainer) Train(ctx context.Context, frame *Frame, m *Manifest) (*Result, error) {
	kinds, err := t.kinds()
	if err != nil {
		return nil, err
	}
	policy := t.opts.Encoding
	if policy.IsZero() {
		policy = m.Policy()
	}

	ds, err := Encode(frame, m, policy)
	if err != nil {
		return nil, err
	}
	schema := ds.Schema
	t.logger.Info("training frame encoded",
		"rows", ds.Len(),
		"features", schema.Len(),
		"encoding", policy.String(),
		"fingerprint", schema.Fingerprint(),
	)

	trainIdx, testIdx, err := TrainTestSplit(ds.Len(), t.opts.TestSize, t.opts.Seed)
	if err != nil {
		return nil, err
	}
	trainRaw := make([]model.FeatureVector, len(trainIdx))
	for i, j := range trainIdx {
		trainRaw[i] = ds.X[j]
	}
	scaler, err := FitScaler(schema, trainRaw)
	if err != nil {
		return nil, fmt.Errorf("fit scaler: %w", err)
	}
	scaled, err := ScaleRows(ds.X, scaler, schema)
	if err != nil {
		return nil, err
	}

	Xtr, ytr := gather(scaled, ds.Y, trainIdx)
	Xte, yte := gather(scaled, ds.Y, testIdx)
	if len(Xte) == 0 {
		Xte, yte = Xtr, ytr
	}

	names := schema.Names()
	var (
		mu         sync.Mutex
		candidates []candidate
	)
	g, gctx := errgroup.WithContext(ctx)
	for _, kind := range kinds {
		g.Go(func() error {
			start := time.Now()
			p, err := t.fit(gctx, kind, Xtr, ytr, names)
			if err != nil {
				return fmt.Errorf("fit %s: %w", kind, err)
			}
			pred, err := predictAll(gctx, p, Xte)
			if err != nil {
				return fmt.Errorf("evaluate %s: %w", kind, err)
			}
			score := CandidateScore{
				Kind:     kind,
				MSE:      MSE(yte, pred),
				R2:       R2(yte, pred),
				Duration: time.Since(start),
			}
			t.logger.Info("candidate fitted",
				"kind", kind,
				"mse", score.MSE,
				"r2", score.R2,
				"duration", score.Duration,
			)
			mu.Lock()
			candidates = append(candidates, candidate{score: score, predictor: p})
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	order := make(map[string]int, len(kinds))
	for i, k := range kinds {
		order[k] = i
	}
	sort.Slice(candidates, func(a, b int) bool {
		if candidates[a].score.R2 != candidates[b].score.R2 {
			return candidates[a].score.R2 > candidates[b].score.R2
		}
		return order[candidates[a].score.Kind] < order[candidates[b].score.Kind]
	})
	best := candidates[0]

	bundle, err := model.PackageArtifact(schema, scaler, best.predictor)
	if err != nil {
		return nil, fmt.Errorf("package artifact: %w", err)
	}

	scores := make([]CandidateScore, len(candidates))
	for i, c := range candidates {
		scores[i] = c.score
	}
	t.logger.Info("best model selected", "kind", best.score.Kind, "r2", best.score.R2)

	return &Result{
		Bundle: bundle,
		Metrics: map[string]float64{
			"mse":        best.score.MSE,
			"r2":         best.score.R2,
			"train_rows": float64(len(trainIdx)),
			"test_rows":  float64(len(testIdx)),
		},
		Candidates: scores,
		TrainRows:  len(trainIdx),
		TestRows:   len(testIdx),
	}, nil
}

func (t *Trainer) kinds() ([]string, error) {
	switch t.opts.Model {
	case "", ModelAuto:
		return []string{predictor.KindLinear, predictor.KindTree, predictor.KindForest}, nil
	case predictor.KindLinear, predictor.KindTree, predictor.KindForest:
		return []string{t.opts.Model}, nil
	default:
		return nil, fmt.Errorf("unsupported model %q (want auto, linear, tree or forest)", t.opts.Model)
	}
}

func (t *Trainer) fit(ctx context.Context, kind string, X [][]float64, y []float64, names []string) (model.Predictor, error) {
	width := len(names)
	switch kind {
	case predictor.KindLinear:
		params, err := FitLinear(X, y)
		if err != nil {
			return nil, err
		}
		return predictor.NewLinear(params, names)
	case predictor.KindTree:
		rng := rand.New(rand.NewPCG(t.opts.Seed, 0))
		params, err := FitTree(X, y, nil, t.opts.Tree, rng)
		if err != nil {
			return nil, err
		}
		return predictor.NewTree(params, width, names)
	case predictor.KindForest:
		params, err := FitForest(ctx, X, y, ForestOptions{Trees: t.opts.Trees, Tree: t.opts.Tree, Seed: t.opts.Seed})
		if err != nil {
			return nil, err
		}
		return predictor.NewForest(params, width, names)
	default:
		return nil, fmt.Errorf("unsupported model kind %q", kind)
	}
}

func predictAll(ctx context.Context, p model.Predictor, X [][]float64) ([]float64, error) {
	out := make([]float64, len(X))
	for i, x := range X {
		v, err := p.Predict(ctx, x)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}
