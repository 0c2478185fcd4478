package model

import (
	"errors"
	"fmt"
)

var ErrInputSize = errors.New("input buffer size mismatch")

// Runner is the network execution backend. The output sink is bound when the
// runner is constructed; Execute writes exactly len(output) scalars into it and
// blocks until done.
type Runner interface {
	AddInput(input []float32) error
	Execute() error
	Close() error
}

// Backend names accepted by NewRunner.
const (
	BackendONNX     = "onnx"
	BackendONNXCUDA = "onnx-cuda"
	BackendReplay   = "replay"
)

type Options struct {
	Backend           string
	ModelPath         string
	SharedLibraryPath string
	InputName         string
	OutputName        string
	InputLen          int
}

// NewRunner builds the backend named in opts writing into output.
func NewRunner(opts Options, output []float32) (Runner, error) {
	if opts.InputLen <= 0 || len(output) == 0 {
		return nil, fmt.Errorf("%w: input %d, output %d", ErrInputSize, opts.InputLen, len(output))
	}
	switch opts.Backend {
	case BackendONNX:
		return NewONNXRunner(opts, output, false)
	case BackendONNXCUDA:
		return NewONNXRunner(opts, output, true)
	case BackendReplay:
		return NewReplayRunner(opts, output)
	default:
		return nil, fmt.Errorf("unknown model backend %q", opts.Backend)
	}
}

// Factory builds a runner for a model with inputLen inputs writing into
// output. Models call it once their output buffer exists.
type Factory func(inputLen int, output []float32) (Runner, error)

func NewFactory(opts Options) Factory {
	return func(inputLen int, output []float32) (Runner, error) {
		opts.InputLen = inputLen
		return NewRunner(opts, output)
	}
}
