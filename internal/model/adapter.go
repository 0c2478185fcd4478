package model

import (
	"fmt"
	"time"
	"unsafe"
)

// Adapter owns the fixed input buffer of one model and times backend calls.
// It is used from a single goroutine.
type Adapter struct {
	runner Runner
	input  []float32
}

func NewAdapter(runner Runner, inputLen int) *Adapter {
	return &Adapter{runner: runner, input: make([]float32, inputLen)}
}

// Input is the buffer handed to the backend on Execute.
func (a *Adapter) Input() []float32 {
	return a.input
}

// LoadFloats copies src into the input buffer.
func (a *Adapter) LoadFloats(src []float32) error {
	if len(src) < len(a.input) {
		return fmt.Errorf("%w: source has %d floats, need %d", ErrInputSize, len(src), len(a.input))
	}
	copy(a.input, src)
	return nil
}

// LoadBytes copies the first 4*len(input) bytes of src into the input buffer
// verbatim, so the backend sees the bytes reinterpreted as native floats.
func (a *Adapter) LoadBytes(src []byte) error {
	dst := unsafe.Slice((*byte)(unsafe.Pointer(unsafe.SliceData(a.input))), len(a.input)*4)
	if len(src) < len(dst) {
		return fmt.Errorf("%w: source has %d bytes, need %d", ErrInputSize, len(src), len(dst))
	}
	copy(dst, src)
	return nil
}

// Execute runs the backend on the input buffer. The returned latency covers
// the backend call only. There is no timeout; a hung backend blocks the caller.
func (a *Adapter) Execute() (time.Duration, error) {
	start := time.Now()
	if err := a.runner.AddInput(a.input); err != nil {
		return 0, err
	}
	if err := a.runner.Execute(); err != nil {
		return 0, err
	}
	return time.Since(start), nil
}

func (a *Adapter) Close() error {
	return a.runner.Close()
}
