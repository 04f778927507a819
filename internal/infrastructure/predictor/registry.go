package predictor

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"sort"

	"github.com/cropyield/yield-service/internal/domain/model"
)

// Options carry environment needed by some predictor kinds.
type Options struct {
	// Dir is the artifact directory; relative model files resolve against it.
	Dir string
	// ONNXLibraryPath overrides the onnxruntime shared library location.
	ONNXLibraryPath string
}

// Factory builds a predictor from its serialised form.
type Factory func(spec Spec, opts Options) (model.Predictor, error)

// Registry maps model kinds to factories.
type Registry struct {
	factories map[string]Factory
}

// NewRegistry returns a registry with every built-in kind registered.
func NewRegistry() *Registry {
	r := &Registry{factories: make(map[string]Factory)}
	r.Register(KindLinear, buildLinear)
	r.Register(KindTree, buildTree)
	r.Register(KindForest, buildForest)
	r.Register(KindONNX, buildONNX)
	return r
}

// Register adds or replaces the factory for kind.
func (r *Registry) Register(kind string, f Factory) {
	r.factories[kind] = f
}

// Kinds lists the registered kinds.
func (r *Registry) Kinds() []string {
	kinds := make([]string, 0, len(r.factories))
	for k := range r.factories {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}

// Build decodes spec into a predictor.
func (r *Registry) Build(spec Spec, opts Options) (model.Predictor, error) {
	f, ok := r.factories[spec.Kind]
	if !ok {
		return nil, fmt.Errorf("unknown predictor kind %q", spec.Kind)
	}
	if spec.InputWidth <= 0 {
		return nil, fmt.Errorf("predictor input width must be positive, got %d", spec.InputWidth)
	}
	p, err := f(spec, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to build %s predictor: %w", spec.Kind, err)
	}
	return p, nil
}

// Describe serialises p, which must implement Describer.
func Describe(p model.Predictor) (Spec, error) {
	d, ok := p.(Describer)
	if !ok {
		return Spec{}, fmt.Errorf("predictor kind %q cannot be serialised", p.Kind())
	}
	return d.Spec()
}

func buildLinear(spec Spec, _ Options) (model.Predictor, error) {
	var params LinearParams
	if err := json.Unmarshal(spec.Params, &params); err != nil {
		return nil, fmt.Errorf("failed to decode params: %w", err)
	}
	l, err := NewLinear(params, spec.FeatureNames)
	if err != nil {
		return nil, err
	}
	if l.InputWidth() != spec.InputWidth {
		return nil, fmt.Errorf("%w: %d coefficients, declared width %d",
			model.ErrArtifactWidthMismatch, l.InputWidth(), spec.InputWidth)
	}
	return l, nil
}

func buildTree(spec Spec, _ Options) (model.Predictor, error) {
	var params TreeParams
	if err := json.Unmarshal(spec.Params, &params); err != nil {
		return nil, fmt.Errorf("failed to decode params: %w", err)
	}
	return NewTree(params, spec.InputWidth, spec.FeatureNames)
}

func buildForest(spec Spec, _ Options) (model.Predictor, error) {
	var params ForestParams
	if err := json.Unmarshal(spec.Params, &params); err != nil {
		return nil, fmt.Errorf("failed to decode params: %w", err)
	}
	return NewForest(params, spec.InputWidth, spec.FeatureNames)
}

func buildONNX(spec Spec, opts Options) (model.Predictor, error) {
	var params ONNXParams
	if err := json.Unmarshal(spec.Params, &params); err != nil {
		return nil, fmt.Errorf("failed to decode params: %w", err)
	}
	if params.ModelFile == "" {
		return nil, fmt.Errorf("model_file is required")
	}
	path := params.ModelFile
	if !filepath.IsAbs(path) {
		path = filepath.Join(opts.Dir, path)
	}
	return NewONNX(path, opts.ONNXLibraryPath, params, spec.InputWidth, spec.FeatureNames)
}
