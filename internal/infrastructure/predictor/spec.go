package predictor

import "encoding/json"

// Model kinds.
const (
	KindLinear = "linear"
	KindTree   = "tree"
	KindForest = "forest"
	KindONNX   = "onnx"
)

// Spec is the serialised form of a trained predictor. Params holds the
// kind-specific parameters.
type Spec struct {
	Kind         string          `json:"kind"`
	InputWidth   int             `json:"input_width"`
	FeatureNames []string        `json:"feature_names"`
	Params       json.RawMessage `json:"params"`
}

// LinearParams are the fitted weights of a linear model.
type LinearParams struct {
	Intercept    float64   `json:"intercept"`
	Coefficients []float64 `json:"coefficients"`
}

// Node is one node of a flattened regression tree. Leaves have Feature -1.
// Internal nodes send x[Feature] <= Threshold to Left, everything else to Right.
type Node struct {
	Feature   int     `json:"f"`
	Threshold float64 `json:"t,omitempty"`
	Left      int     `json:"l,omitempty"`
	Right     int     `json:"r,omitempty"`
	Value     float64 `json:"v,omitempty"`
}

// TreeParams is a flattened regression tree; node 0 is the root.
type TreeParams struct {
	Nodes []Node `json:"nodes"`
}

// ForestParams is an averaging ensemble of trees.
type ForestParams struct {
	Trees []TreeParams `json:"trees"`
}

// ONNXParams locate an externally trained model next to the predictor blob.
type ONNXParams struct {
	ModelFile  string `json:"model_file"`
	InputName  string `json:"input_name,omitempty"`
	OutputName string `json:"output_name,omitempty"`
}

// Describer is implemented by predictors that can serialise themselves.
type Describer interface {
	Spec() (Spec, error)
}

func newSpec(kind string, width int, names []string, params any) (Spec, error) {
	raw, err := json.Marshal(params)
	if err != nil {
		return Spec{}, err
	}
	return Spec{
		Kind:         kind,
		InputWidth:   width,
		FeatureNames: names,
		Params:       raw,
	}, nil
}
