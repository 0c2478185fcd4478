// Package bodymodel runs the body control network: six kinematic inputs in,
// left and right wheel torques out.
package bodymodel

import (
	"fmt"
	"time"
	"unsafe"

	"github.com/Brownie44l1/modeld/internal/frames"
	"github.com/Brownie44l1/modeld/internal/layout"
	"github.com/Brownie44l1/modeld/internal/messaging"
	"github.com/Brownie44l1/modeld/internal/metrics"
	"github.com/Brownie44l1/modeld/internal/model"
)

const (
	InputSize  = 6
	OutputSize = 2
)

// Result is the network output. Torques are sent as the network produced
// them; the body model has no denormalization table.
type Result struct {
	TorqueLeft  float32
	TorqueRight float32
}

func _() {
	var x [1]struct{}
	_ = x[unsafe.Sizeof(Result{})-OutputSize*unsafe.Sizeof(float32(0))]
}

var Layout = layout.NewBuilder().
	Add("torque", OutputSize, layout.Passthrough).
	MustBuild(OutputSize)

// Decode maps a raw output vector onto a Result.
func Decode(raw []float32) (Result, error) {
	r := Layout.NewReader(raw)
	torque := make([]float32, OutputSize)
	r.Floats("torque", torque)
	if err := r.Close(); err != nil {
		return Result{}, err
	}
	return Result{TorqueLeft: torque[0], TorqueRight: torque[1]}, nil
}

// Model owns the backend, its buffers and the sampled input state. It is not
// safe for concurrent use.
type Model struct {
	adapter    *model.Adapter
	output     []float32
	state      InputState
	carState   messaging.Subscriber[messaging.CarState]
	carControl messaging.Subscriber[messaging.CarControl]
}

func New(newRunner model.Factory, carState messaging.Subscriber[messaging.CarState], carControl messaging.Subscriber[messaging.CarControl]) (*Model, error) {
	output := make([]float32, OutputSize)
	runner, err := newRunner(InputSize, output)
	if err != nil {
		return nil, fmt.Errorf("failed to load body model: %w", err)
	}
	return &Model{
		adapter:    model.NewAdapter(runner, InputSize),
		output:     output,
		carState:   carState,
		carControl: carControl,
	}, nil
}

func (m *Model) Name() string {
	return "bodyModel"
}

// State returns a copy of the current input state.
func (m *Model) State() InputState {
	return m.state
}

// Sample merges whichever state sources updated since the last cycle.
func (m *Model) Sample() {
	if cs, ok := m.carState.Poll(); ok {
		m.state.MergeCarState(cs)
		metrics.Count(metrics.StateUpdates, 1, []string{"source:carState"})
	}
	if cc, ok := m.carControl.Poll(); ok {
		m.state.MergeCarControl(cc)
		metrics.Count(metrics.StateUpdates, 1, []string{"source:carControl"})
	}
}

// Eval runs one inference on the sampled state. The frame only paces the
// model; its pixels are not used.
func (m *Model) Eval(frame *frames.Frame) (*messaging.Event, error) {
	res, latency, err := m.eval()
	if err != nil {
		return nil, err
	}
	metrics.Timing(metrics.BackendTime, latency, []string{"model:body"})

	event := messaging.NewEvent()
	event.BodyModel = &messaging.BodyModelData{
		FrameID:            frame.ID,
		ModelExecutionTime: float32(latency.Seconds()),
		TorqueLeft:         res.TorqueLeft,
		TorqueRight:        res.TorqueRight,
	}
	return event, nil
}

func (m *Model) eval() (Result, time.Duration, error) {
	m.state.Fill(m.adapter.Input())
	latency, err := m.adapter.Execute()
	if err != nil {
		return Result{}, 0, err
	}
	res, err := Decode(m.output)
	return res, latency, err
}

func (m *Model) Close() error {
	return m.adapter.Close()
}
