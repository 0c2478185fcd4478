package bodymodel

import "github.com/Brownie44l1/modeld/internal/messaging"

// InputState is the last known value of every network input. A field only
// changes when its source reports an update; otherwise it stays stale.
type InputState struct {
	WheelSpeedFL float32
	WheelSpeedFR float32
	VEgo         float32
	AEgo         float32
	Pitch        float32
	PitchRate    float32
}

func (s *InputState) MergeCarState(cs messaging.CarState) {
	s.WheelSpeedFL = cs.WheelSpeeds.FL
	s.WheelSpeedFR = cs.WheelSpeeds.FR
	s.VEgo = cs.VEgo
	s.AEgo = cs.AEgo
}

// MergeCarControl takes the pitch component of orientation and angular
// velocity. Vectors shorter than two elements leave the field untouched.
func (s *InputState) MergeCarControl(cc messaging.CarControl) {
	if len(cc.OrientationNED) >= 2 {
		s.Pitch = cc.OrientationNED[1]
	}
	if len(cc.AngularVelocity) >= 2 {
		s.PitchRate = cc.AngularVelocity[1]
	}
}

// Fill writes the network input order into dst, which holds InputSize floats.
func (s *InputState) Fill(dst []float32) {
	_ = dst[InputSize-1]
	dst[0] = s.WheelSpeedFL
	dst[1] = s.WheelSpeedFR
	dst[2] = s.VEgo
	dst[3] = s.AEgo
	dst[4] = s.Pitch
	dst[5] = s.PitchRate
}
