// Package messaging defines the structured messages exchanged with the rest
// of the vehicle stack and the pub/sub transport that carries them.
package messaging

import "time"

// Event is the envelope of every message on the bus. Exactly one payload is
// set.
type Event struct {
	LogMonoTime int64 `json:"log_mono_time"`
	Valid       bool  `json:"valid"`

	BodyModel  *BodyModelData `json:"bodyModel,omitempty"`
	NavModel   *NavModelData  `json:"navModel,omitempty"`
	CarState   *CarState      `json:"carState,omitempty"`
	CarControl *CarControl    `json:"carControl,omitempty"`
}

type BodyModelData struct {
	FrameID            uint32  `json:"frame_id"`
	ModelExecutionTime float32 `json:"model_execution_time"`
	TorqueLeft         float32 `json:"torque_left"`
	TorqueRight        float32 `json:"torque_right"`
}

type NavModelData struct {
	FrameID            uint32      `json:"frame_id"`
	ModelExecutionTime float32     `json:"model_execution_time"`
	DSPExecutionTime   float32     `json:"dsp_execution_time"`
	Features           []float32   `json:"features"`
	Position           NavPosition `json:"position"`
	DesirePrediction   []float32   `json:"desire_prediction"`
}

type NavPosition struct {
	X    []float32 `json:"x"`
	Y    []float32 `json:"y"`
	XStd []float32 `json:"x_std"`
	YStd []float32 `json:"y_std"`
}

type WheelSpeeds struct {
	FL float32 `json:"fl"`
	FR float32 `json:"fr"`
	RL float32 `json:"rl"`
	RR float32 `json:"rr"`
}

type CarState struct {
	WheelSpeeds WheelSpeeds `json:"wheelSpeeds"`
	VEgo        float32     `json:"vEgo"`
	AEgo        float32     `json:"aEgo"`
}

type CarControl struct {
	Enabled         bool      `json:"enabled"`
	OrientationNED  []float32 `json:"orientationNED"`
	AngularVelocity []float32 `json:"angularVelocity"`
}

var boot = time.Now()

// NewEvent stamps an envelope with the monotonic time since process start.
func NewEvent() *Event {
	return &Event{LogMonoTime: time.Since(boot).Nanoseconds(), Valid: true}
}
