package calculator

import (
	"math"

	"airflow/model"
)

// Params are the tunable constants of the decay model. None of them is a
// calibrated physical value: the defaults keep typical fan ratings in a 0-5
// velocity band.
type Params struct {
	StrengthDivisor      float64 // strength = CFM / StrengthDivisor
	DecayFactor          float64 // decay length = radius * DecayFactor
	HeightAttenuation    float64 // per metre of ceiling height
	MaxHeightAttenuation float64
	VectorMode           bool
	Workers              int
}

func DefaultParams() Params {
	return Params{
		StrengthDivisor:      10000,
		DecayFactor:          1.5,
		HeightAttenuation:    0.1,
		MaxHeightAttenuation: 0.5,
		Workers:              1,
	}
}

func (p Params) Validate() error {
	if p.StrengthDivisor <= 0 {
		return model.InvalidConfiguration("strength divisor must be positive, got %g", p.StrengthDivisor)
	}
	if p.DecayFactor <= 0 {
		return model.InvalidConfiguration("decay factor must be positive, got %g", p.DecayFactor)
	}
	if p.HeightAttenuation < 0 || p.MaxHeightAttenuation < 0 || p.MaxHeightAttenuation >= 1 {
		return model.InvalidConfiguration("height attenuation must be in [0, 1)")
	}
	return nil
}

// 单台风扇强度
func (p Params) strength(fan model.FanModel) float64 {
	return fan.CFM / p.StrengthDivisor
}

func (p Params) decayLength(fan model.FanModel) float64 {
	return fan.Radius * p.DecayFactor
}

// 层高衰减系数: 1 - min(h * att, max)
func (p Params) heightFactor(height float64) float64 {
	return 1 - math.Min(height*p.HeightAttenuation, p.MaxHeightAttenuation)
}
