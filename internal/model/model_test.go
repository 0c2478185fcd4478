package model

import (
	"encoding/binary"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockRunner struct {
	mock.Mock
}

func (m *MockRunner) AddInput(input []float32) error {
	return m.Called(input).Error(0)
}

func (m *MockRunner) Execute() error {
	return m.Called().Error(0)
}

func (m *MockRunner) Close() error {
	return m.Called().Error(0)
}

func writeReplay(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "outputs.txt")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestNewRunner_Validation(t *testing.T) {
	_, err := NewRunner(Options{Backend: BackendReplay, InputLen: 0}, make([]float32, 2))
	assert.ErrorIs(t, err, ErrInputSize)

	_, err = NewRunner(Options{Backend: "snpe", InputLen: 6}, make([]float32, 2))
	assert.ErrorContains(t, err, "unknown model backend")
}

func TestReplayRunner_Cycles(t *testing.T) {
	path := writeReplay(t, "# torque_left torque_right\n0.5 0.7\n\n-1 2e-1\n")
	out := make([]float32, 2)

	r, err := NewRunner(Options{Backend: BackendReplay, ModelPath: path, InputLen: 6}, out)
	require.NoError(t, err)
	defer r.Close()

	require.NoError(t, r.AddInput(make([]float32, 6)))
	require.NoError(t, r.Execute())
	assert.Equal(t, []float32{0.5, 0.7}, out)

	require.NoError(t, r.Execute())
	assert.Equal(t, []float32{-1, 0.2}, out)

	require.NoError(t, r.Execute())
	assert.Equal(t, []float32{0.5, 0.7}, out)

	assert.ErrorIs(t, r.AddInput(make([]float32, 5)), ErrInputSize)
}

func TestReplayRunner_RejectsBadFiles(t *testing.T) {
	out := make([]float32, 2)

	_, err := NewReplayRunner(Options{ModelPath: writeReplay(t, "1 2 3\n"), InputLen: 1}, out)
	assert.ErrorContains(t, err, "model outputs 2")

	_, err = NewReplayRunner(Options{ModelPath: writeReplay(t, "1 x\n"), InputLen: 1}, out)
	assert.Error(t, err)

	_, err = NewReplayRunner(Options{ModelPath: writeReplay(t, "# empty\n"), InputLen: 1}, out)
	assert.ErrorContains(t, err, "no vectors")

	_, err = NewReplayRunner(Options{ModelPath: filepath.Join(t.TempDir(), "nope"), InputLen: 1}, out)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestAdapter_LoadFloats(t *testing.T) {
	a := NewAdapter(&MockRunner{}, 3)

	require.NoError(t, a.LoadFloats([]float32{1, 2, 3, 4}))
	assert.Equal(t, []float32{1, 2, 3}, a.Input())

	assert.ErrorIs(t, a.LoadFloats([]float32{1, 2}), ErrInputSize)
}

func TestAdapter_LoadBytesReinterprets(t *testing.T) {
	a := NewAdapter(&MockRunner{}, 2)
	src := make([]byte, 8)
	binary.NativeEndian.PutUint32(src[0:], math.Float32bits(1.5))
	binary.NativeEndian.PutUint32(src[4:], math.Float32bits(-2))

	require.NoError(t, a.LoadBytes(src))
	assert.Equal(t, []float32{1.5, -2}, a.Input())

	assert.ErrorIs(t, a.LoadBytes(make([]byte, 7)), ErrInputSize)
}

func TestAdapter_Execute(t *testing.T) {
	runner := &MockRunner{}
	a := NewAdapter(runner, 2)
	runner.On("AddInput", a.Input()).Return(nil)
	runner.On("Execute").Return(nil).Once()

	latency, err := a.Execute()
	require.NoError(t, err)
	assert.GreaterOrEqual(t, latency.Nanoseconds(), int64(0))
	runner.AssertExpectations(t)
}

func TestAdapter_ExecuteError(t *testing.T) {
	runner := &MockRunner{}
	a := NewAdapter(runner, 2)
	runner.On("AddInput", mock.Anything).Return(nil)
	runner.On("Execute").Return(errors.New("dsp fault"))
	runner.On("Close").Return(nil)

	_, err := a.Execute()
	assert.ErrorContains(t, err, "dsp fault")
	assert.NoError(t, a.Close())
}
