package bodymodel

import (
	"errors"
	"testing"

	"github.com/Brownie44l1/modeld/internal/frames"
	"github.com/Brownie44l1/modeld/internal/layout"
	"github.com/Brownie44l1/modeld/internal/messaging"
	"github.com/Brownie44l1/modeld/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubRunner writes a fixed raw vector and records its last input.
type stubRunner struct {
	raw    []float32
	output []float32
	input  []float32
	err    error
}

func (s *stubRunner) AddInput(input []float32) error {
	s.input = append(s.input[:0], input...)
	return nil
}

func (s *stubRunner) Execute() error {
	if s.err != nil {
		return s.err
	}
	copy(s.output, s.raw)
	return nil
}

func (s *stubRunner) Close() error { return nil }

func (s *stubRunner) factory() model.Factory {
	return func(inputLen int, output []float32) (model.Runner, error) {
		s.output = output
		return s, nil
	}
}

// scripted yields one queued value per Poll, then reports no update.
type scripted[T any] struct {
	queue  []T
	latest T
}

func (s *scripted[T]) Poll() (T, bool) {
	if len(s.queue) == 0 {
		return s.latest, false
	}
	s.latest, s.queue = s.queue[0], s.queue[1:]
	return s.latest, true
}

func TestLayoutCoversOutput(t *testing.T) {
	assert.Equal(t, OutputSize, Layout.Size())
	assert.Equal(t, 0, Layout.Scaled())

	res, err := Decode([]float32{0.5, 0.7})
	require.NoError(t, err)
	assert.Equal(t, Result{TorqueLeft: 0.5, TorqueRight: 0.7}, res)

	_, err = Decode([]float32{0.5})
	assert.ErrorIs(t, err, layout.ErrSizeMismatch)
}

func TestEval_EndToEnd(t *testing.T) {
	runner := &stubRunner{raw: []float32{0.5, 0.7}}
	carState := &scripted[messaging.CarState]{queue: []messaging.CarState{{
		WheelSpeeds: messaging.WheelSpeeds{FL: 1.0, FR: 1.2}, VEgo: 5.0, AEgo: 0.1,
	}}}
	carControl := &scripted[messaging.CarControl]{queue: []messaging.CarControl{{
		OrientationNED: []float32{0, 0.2}, AngularVelocity: []float32{0, 0.05},
	}}}

	m, err := New(runner.factory(), carState, carControl)
	require.NoError(t, err)
	defer m.Close()

	m.Sample()
	event, err := m.Eval(&frames.Frame{ID: 17})
	require.NoError(t, err)

	assert.Equal(t, []float32{1.0, 1.2, 5.0, 0.1, 0.2, 0.05}, runner.input)
	require.NotNil(t, event.BodyModel)
	assert.Equal(t, uint32(17), event.BodyModel.FrameID)
	assert.Equal(t, float32(0.5), event.BodyModel.TorqueLeft)
	assert.Equal(t, float32(0.7), event.BodyModel.TorqueRight)
	assert.GreaterOrEqual(t, event.BodyModel.ModelExecutionTime, float32(0))
	assert.True(t, event.Valid)
}

func TestSample_PartialUpdateKeepsOtherSource(t *testing.T) {
	carState := &scripted[messaging.CarState]{queue: []messaging.CarState{
		{WheelSpeeds: messaging.WheelSpeeds{FL: 1, FR: 1}, VEgo: 1},
		{WheelSpeeds: messaging.WheelSpeeds{FL: 2, FR: 2}, VEgo: 2},
	}}
	carControl := &scripted[messaging.CarControl]{queue: []messaging.CarControl{{
		OrientationNED: []float32{0.1, 0.3, 0.9}, AngularVelocity: []float32{0, -0.4},
	}}}
	m, err := New((&stubRunner{raw: []float32{0, 0}}).factory(), carState, carControl)
	require.NoError(t, err)

	m.Sample()
	m.Sample()

	state := m.State()
	assert.Equal(t, float32(2), state.WheelSpeedFL)
	assert.Equal(t, float32(2), state.VEgo)
	assert.Equal(t, float32(0.3), state.Pitch)
	assert.Equal(t, float32(-0.4), state.PitchRate)
}

func TestMergeCarControl_ShortVectorsKeepValue(t *testing.T) {
	s := InputState{Pitch: 0.2, PitchRate: 0.05}

	s.MergeCarControl(messaging.CarControl{OrientationNED: []float32{9}, AngularVelocity: nil})
	assert.Equal(t, float32(0.2), s.Pitch)
	assert.Equal(t, float32(0.05), s.PitchRate)

	s.MergeCarControl(messaging.CarControl{OrientationNED: []float32{}, AngularVelocity: []float32{1, 0.7}})
	assert.Equal(t, float32(0.2), s.Pitch)
	assert.Equal(t, float32(0.7), s.PitchRate)
}

func TestEval_BackendError(t *testing.T) {
	runner := &stubRunner{raw: []float32{0, 0}, err: errors.New("backend crashed")}
	m, err := New(runner.factory(), &scripted[messaging.CarState]{}, &scripted[messaging.CarControl]{})
	require.NoError(t, err)

	_, err = m.Eval(&frames.Frame{ID: 1})
	assert.ErrorContains(t, err, "backend crashed")
}

func TestNew_FactoryError(t *testing.T) {
	failing := func(int, []float32) (model.Runner, error) { return nil, errors.New("no dlc") }
	_, err := New(failing, &scripted[messaging.CarState]{}, &scripted[messaging.CarControl]{})
	assert.ErrorContains(t, err, "failed to load body model")
}
