package model

import (
	"fmt"

	"github.com/rs/zerolog/log"
	ort "github.com/yalue/onnxruntime_go"
)

// ONNXRunner executes a model through onnxruntime. Both tensors wrap caller
// visible buffers so a run writes straight into the output sink.
type ONNXRunner struct {
	session      *ort.AdvancedSession
	inputTensor  *ort.Tensor[float32]
	outputTensor *ort.Tensor[float32]
}

func NewONNXRunner(opts Options, output []float32, useCUDA bool) (*ONNXRunner, error) {
	if opts.SharedLibraryPath != "" {
		ort.SetSharedLibraryPath(opts.SharedLibraryPath)
	}
	if err := ort.InitializeEnvironment(); err != nil {
		return nil, fmt.Errorf("failed to initialize ONNX environment: %w", err)
	}

	inputTensor, err := ort.NewTensor(ort.NewShape(1, int64(opts.InputLen)), make([]float32, opts.InputLen))
	if err != nil {
		ort.DestroyEnvironment()
		return nil, fmt.Errorf("failed to create input tensor: %w", err)
	}

	outputTensor, err := ort.NewTensor(ort.NewShape(1, int64(len(output))), output)
	if err != nil {
		inputTensor.Destroy()
		ort.DestroyEnvironment()
		return nil, fmt.Errorf("failed to create output tensor: %w", err)
	}

	sessionOpts, err := newSessionOptions(useCUDA)
	if err != nil {
		inputTensor.Destroy()
		outputTensor.Destroy()
		ort.DestroyEnvironment()
		return nil, err
	}
	defer sessionOpts.Destroy()

	session, err := ort.NewAdvancedSession(opts.ModelPath,
		[]string{opts.InputName}, []string{opts.OutputName},
		[]ort.ArbitraryTensor{inputTensor}, []ort.ArbitraryTensor{outputTensor},
		sessionOpts)
	if err != nil {
		inputTensor.Destroy()
		outputTensor.Destroy()
		ort.DestroyEnvironment()
		return nil, fmt.Errorf("failed to create ONNX session: %w", err)
	}

	log.Info().Str("model", opts.ModelPath).Bool("cuda", useCUDA).
		Int("input_len", opts.InputLen).Int("output_len", len(output)).
		Msg("ONNX model loaded")

	return &ONNXRunner{
		session:      session,
		inputTensor:  inputTensor,
		outputTensor: outputTensor,
	}, nil
}

func newSessionOptions(useCUDA bool) (*ort.SessionOptions, error) {
	opts, err := ort.NewSessionOptions()
	if err != nil {
		return nil, fmt.Errorf("failed to create session options: %w", err)
	}
	if !useCUDA {
		return opts, nil
	}

	cudaOpts, err := ort.NewCUDAProviderOptions()
	if err != nil {
		opts.Destroy()
		return nil, fmt.Errorf("CUDA provider unavailable: %w", err)
	}
	defer cudaOpts.Destroy()
	if err := opts.AppendExecutionProviderCUDA(cudaOpts); err != nil {
		opts.Destroy()
		return nil, fmt.Errorf("failed to enable CUDA provider: %w", err)
	}
	return opts, nil
}

func (r *ONNXRunner) AddInput(input []float32) error {
	data := r.inputTensor.GetData()
	if len(input) != len(data) {
		return fmt.Errorf("%w: got %d, model takes %d", ErrInputSize, len(input), len(data))
	}
	copy(data, input)
	return nil
}

func (r *ONNXRunner) Execute() error {
	if err := r.session.Run(); err != nil {
		return fmt.Errorf("inference failed: %w", err)
	}
	return nil
}

func (r *ONNXRunner) Close() error {
	if r.inputTensor != nil {
		r.inputTensor.Destroy()
	}
	if r.outputTensor != nil {
		r.outputTensor.Destroy()
	}
	if r.session != nil {
		r.session.Destroy()
	}
	return ort.DestroyEnvironment()
}
