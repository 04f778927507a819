package artifact

import (
	"fmt"
	"log/slog"

	"github.com/cropyield/yield-service/internal/domain/model"
	"github.com/cropyield/yield-service/internal/infrastructure/predictor"
)

// Loader turns an artifact directory into a bundle.
type Loader struct {
	store    *Store
	registry *predictor.Registry
	opts     predictor.Options
	logger   *slog.Logger
}

// NewLoader creates a Loader for the store's directory.
func NewLoader(store *Store, registry *predictor.Registry, onnxLibPath string, logger *slog.Logger) *Loader {
	return &Loader{
		store:    store,
		registry: registry,
		opts:     predictor.Options{Dir: store.Dir(), ONNXLibraryPath: onnxLibPath},
		logger:   logger,
	}
}

// Load reads and verifies the matched triple.
func (l *Loader) Load() (*model.ArtifactBundle, error) {
	blobs, err := l.store.Read()
	if err != nil {
		return nil, err
	}
	bundle, metrics, err := Decode(blobs, l.registry, l.opts)
	if err != nil {
		return nil, fmt.Errorf("failed to load artifacts from %s: %w", l.store.Dir(), err)
	}

	l.logger.Info("artifact bundle loaded",
		"dir", l.store.Dir(),
		"fingerprint", bundle.Fingerprint(),
		"model_kind", bundle.Predictor().Kind(),
		"features", bundle.Schema().Len(),
		"encoding", bundle.Schema().Policy().String(),
		"r2", metrics["r2"],
	)
	return bundle, nil
}
