// Package navmodel runs the navigation vision network on 256×256 map frames
// and publishes a trajectory distribution, a desire prediction and a feature
// embedding.
package navmodel

import (
	"fmt"
	"unsafe"

	"github.com/Brownie44l1/modeld/internal/denorm"
	"github.com/Brownie44l1/modeld/internal/layout"
)

const (
	TrajectorySize = 33
	DesireLen      = 32
	FeatureLen     = 64

	// InputBytes is one 256×256 8-bit frame; the backend reads it as floats.
	InputBytes = 256 * 256
	InputSize  = InputBytes / 4
)

type Plan struct {
	Mean [TrajectorySize]layout.XY
	Std  [TrajectorySize]layout.XY
}

type DesirePrediction struct {
	Values [DesireLen]float32
}

type Features struct {
	Values [FeatureLen]float32
}

// Result is the decoded network output in declaration order. The trailing
// DSPExecutionTime is filled in from the backend timing, not by the network.
type Result struct {
	Plan             Plan
	DesirePrediction DesirePrediction
	Features         Features
	DSPExecutionTime float32
}

const (
	OutputSize    = TrajectorySize*2*2 + DesireLen + FeatureLen + 1
	NetOutputSize = OutputSize - 1
)

func _() {
	const f = unsafe.Sizeof(float32(0))
	var x [1]struct{}
	_ = x[unsafe.Sizeof(layout.XY{})-2*f]
	_ = x[unsafe.Sizeof(Plan{})-unsafe.Sizeof(layout.XY{})*TrajectorySize*2]
	_ = x[unsafe.Sizeof(DesirePrediction{})-DesireLen*f]
	_ = x[unsafe.Sizeof(Features{})-FeatureLen*f]
	_ = x[unsafe.Sizeof(Result{})-OutputSize*f]
}

// Layout is the flat order of the output vector. Every network output is
// scaled; the timing tail is not.
var Layout = layout.NewBuilder().
	Add("plan.mean", TrajectorySize*2, layout.Linear).
	Add("plan.std", TrajectorySize*2, layout.Exp).
	Add("desire_prediction", DesireLen, layout.Linear).
	Add("features", FeatureLen, layout.Linear).
	Add("dsp_execution_time", 1, layout.Passthrough).
	MustBuild(OutputSize)

// DenormSize is the number of values in a nav denorm table file.
var DenormSize = denorm.Count(Layout)

// Decode maps a denormalized output vector onto a Result.
func Decode(values []float32) (Result, error) {
	var res Result
	r := Layout.NewReader(values)
	r.XY("plan.mean", res.Plan.Mean[:])
	r.XY("plan.std", res.Plan.Std[:])
	r.Floats("desire_prediction", res.DesirePrediction.Values[:])
	r.Floats("features", res.Features.Values[:])
	res.DSPExecutionTime = r.Scalar("dsp_execution_time")
	if err := r.Close(); err != nil {
		return Result{}, fmt.Errorf("failed to decode nav output: %w", err)
	}
	return res, nil
}
