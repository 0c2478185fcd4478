package navmodel

import (
	"fmt"
	"time"

	"github.com/Brownie44l1/modeld/internal/denorm"
	"github.com/Brownie44l1/modeld/internal/frames"
	"github.com/Brownie44l1/modeld/internal/messaging"
	"github.com/Brownie44l1/modeld/internal/metrics"
	"github.com/Brownie44l1/modeld/internal/model"
)

// Model owns the backend, the raw and denormalized output buffers and the
// loaded table. It is not safe for concurrent use.
type Model struct {
	adapter *model.Adapter
	table   *denorm.Table
	raw     []float32
	values  []float32
}

// New loads the backend with the first NetOutputSize scalars of the raw
// vector as its output sink; the last scalar holds the measured latency.
func New(newRunner model.Factory, table *denorm.Table) (*Model, error) {
	if table.Len() != Layout.Scaled() {
		return nil, fmt.Errorf("denorm table covers %d scalars, nav model scales %d", table.Len(), Layout.Scaled())
	}
	raw := make([]float32, OutputSize)
	runner, err := newRunner(InputSize, raw[:NetOutputSize])
	if err != nil {
		return nil, fmt.Errorf("failed to load nav model: %w", err)
	}
	return &Model{
		adapter: model.NewAdapter(runner, InputSize),
		table:   table,
		raw:     raw,
		values:  make([]float32, OutputSize),
	}, nil
}

func (m *Model) Name() string {
	return "navModel"
}

// Sample is a no-op: the map frame is the only nav input.
func (m *Model) Sample() {}

// Eval runs the network on one frame. dsp_execution_time covers the backend
// call; model_execution_time the whole evaluation including input copy and
// denormalization.
func (m *Model) Eval(frame *frames.Frame) (*messaging.Event, error) {
	start := time.Now()
	res, err := m.eval(frame.Data)
	if err != nil {
		return nil, err
	}
	total := time.Since(start)
	metrics.Timing(metrics.ExecutionTime, total, []string{"model:nav"})

	event := messaging.NewEvent()
	event.NavModel = NewMessage(frame.ID, float32(total.Seconds()), &res)
	return event, nil
}

func (m *Model) eval(data []byte) (Result, error) {
	if err := m.adapter.LoadBytes(data); err != nil {
		return Result{}, err
	}
	latency, err := m.adapter.Execute()
	if err != nil {
		return Result{}, err
	}
	metrics.Timing(metrics.BackendTime, latency, []string{"model:nav"})
	m.raw[NetOutputSize] = float32(latency.Seconds())

	if err := denorm.Apply(m.values, m.raw, m.table, Layout); err != nil {
		return Result{}, err
	}
	return Decode(m.values)
}

func (m *Model) Close() error {
	return m.adapter.Close()
}

// NewMessage lays a Result out in the navModel wire format.
func NewMessage(frameID uint32, executionTime float32, res *Result) *messaging.NavModelData {
	pos := messaging.NavPosition{
		X:    make([]float32, TrajectorySize),
		Y:    make([]float32, TrajectorySize),
		XStd: make([]float32, TrajectorySize),
		YStd: make([]float32, TrajectorySize),
	}
	for i := 0; i < TrajectorySize; i++ {
		pos.X[i] = res.Plan.Mean[i].X
		pos.Y[i] = res.Plan.Mean[i].Y
		pos.XStd[i] = res.Plan.Std[i].X
		pos.YStd[i] = res.Plan.Std[i].Y
	}
	return &messaging.NavModelData{
		FrameID:            frameID,
		ModelExecutionTime: executionTime,
		DSPExecutionTime:   res.DSPExecutionTime,
		Features:           append([]float32(nil), res.Features.Values[:]...),
		Position:           pos,
		DesirePrediction:   append([]float32(nil), res.DesirePrediction.Values[:]...),
	}
}
