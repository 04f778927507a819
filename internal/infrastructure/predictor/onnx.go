package predictor

import (
	"context"
	"fmt"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
)

// ortEnv guards the process-wide ONNX Runtime initialisation.
var ortEnv struct {
	once sync.Once
	err  error
}

func initORT(libPath string) error {
	ortEnv.once.Do(func() {
		if libPath != "" {
			ort.SetSharedLibraryPath(libPath)
		}
		ortEnv.err = ort.InitializeEnvironment()
	})
	return ortEnv.err
}

// ONNX evaluates an externally trained model exported to ONNX. The model
// must take one float32 tensor of shape [1, width] and produce one float32
// output whose first element is the prediction.
type ONNX struct {
	session    *ort.DynamicAdvancedSession
	closeOnce  sync.Once
	closeErr   error
	params     ONNXParams
	inputName  string
	outputName string
	width      int
	names      []string
}

// NewONNX loads the model at modelPath and checks its declared input width.
func NewONNX(modelPath, libPath string, params ONNXParams, width int, names []string) (*ONNX, error) {
	if err := initORT(libPath); err != nil {
		return nil, fmt.Errorf("onnx: failed to initialize runtime: %w", err)
	}

	inputs, outputs, err := ort.GetInputOutputInfo(modelPath)
	if err != nil {
		return nil, fmt.Errorf("onnx: failed to read model info: %w", err)
	}
	if len(inputs) == 0 || len(outputs) == 0 {
		return nil, fmt.Errorf("onnx: model must have at least one input and one output")
	}

	inputName := params.InputName
	if inputName == "" {
		inputName = inputs[0].Name
	}
	outputName := params.OutputName
	if outputName == "" {
		outputName = outputs[0].Name
	}

	for _, in := range inputs {
		if in.Name != inputName {
			continue
		}
		dims := in.Dimensions
		if len(dims) == 2 && dims[1] > 0 && int(dims[1]) != width {
			return nil, fmt.Errorf("onnx: model input %q has width %d, schema has %d", inputName, dims[1], width)
		}
	}

	opts, err := ort.NewSessionOptions()
	if err != nil {
		return nil, fmt.Errorf("onnx: failed to create session options: %w", err)
	}
	defer opts.Destroy()
	_ = opts.SetIntraOpNumThreads(1)
	_ = opts.SetInterOpNumThreads(1)

	session, err := ort.NewDynamicAdvancedSession(modelPath, []string{inputName}, []string{outputName}, opts)
	if err != nil {
		return nil, fmt.Errorf("onnx: failed to create session: %w", err)
	}

	return &ONNX{
		session:    session,
		params:     params,
		inputName:  inputName,
		outputName: outputName,
		width:      width,
		names:      names,
	}, nil
}

func (o *ONNX) Kind() string           { return KindONNX }
func (o *ONNX) InputWidth() int        { return o.width }
func (o *ONNX) FeatureNames() []string { return o.names }

// Predict runs one forward pass.
func (o *ONNX) Predict(_ context.Context, x []float64) (float64, error) {
	if len(x) != o.width {
		return 0, fmt.Errorf("onnx: got %d features, want %d", len(x), o.width)
	}
	data := make([]float32, len(x))
	for i, v := range x {
		data[i] = float32(v)
	}

	in, err := ort.NewTensor(ort.NewShape(1, int64(o.width)), data)
	if err != nil {
		return 0, fmt.Errorf("onnx: failed to create input tensor: %w", err)
	}
	defer in.Destroy()

	out, err := ort.NewEmptyTensor[float32](ort.NewShape(1, 1))
	if err != nil {
		return 0, fmt.Errorf("onnx: failed to create output tensor: %w", err)
	}
	defer out.Destroy()

	if err := o.session.Run([]ort.Value{in}, []ort.Value{out}); err != nil {
		return 0, fmt.Errorf("onnx: inference failed: %w", err)
	}
	result := out.GetData()
	if len(result) == 0 {
		return 0, fmt.Errorf("onnx: empty output")
	}
	return float64(result[0]), nil
}

// Close releases the session. Calls after the first are no-ops.
func (o *ONNX) Close() error {
	o.closeOnce.Do(func() { o.closeErr = o.session.Destroy() })
	return o.closeErr
}

// Spec serialises the reference to the model file.
func (o *ONNX) Spec() (Spec, error) {
	return newSpec(KindONNX, o.width, o.names, o.params)
}
