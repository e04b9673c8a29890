package envelope

import (
	"fmt"
	"math"
)

const (
	DefaultOmega     = 3.2
	DefaultMaxDelta  = 1.1
	DefaultDt        = 0.05
	DefaultWheelbase = 0.325
	DefaultFriction  = 1.0
)

// Vehicle holds the constants of the bicycle model and its controller.
type Vehicle struct {
	Omega     float64 `json:"omega"`     // max steering rate, rad/s
	MaxDelta  float64 `json:"max_delta"` // max steering angle, rad
	Dt        float64 `json:"dt"`        // control period, s
	Wheelbase float64 `json:"wheelbase"` // L, m
	Friction  float64 `json:"friction"`  // c = sqrt(L*mu*g)
}

func DefaultVehicle() Vehicle {
	return Vehicle{
		Omega:     DefaultOmega,
		MaxDelta:  DefaultMaxDelta,
		Dt:        DefaultDt,
		Wheelbase: DefaultWheelbase,
		Friction:  DefaultFriction,
	}
}

// Validate reports the first field that is not a finite positive number.
func (v Vehicle) Validate() error {
	fields := []struct {
		name string
		val  float64
	}{
		{"omega", v.Omega},
		{"max_delta", v.MaxDelta},
		{"dt", v.Dt},
		{"wheelbase", v.Wheelbase},
		{"friction", v.Friction},
	}
	for _, f := range fields {
		if !(f.val > 0) || math.IsInf(f.val, 0) {
			return fmt.Errorf("%w: %s=%v", ErrInvalidVehicle, f.name, f.val)
		}
	}
	return nil
}

// FrictionAccel is mu*g, the acceleration budget of the friction circle.
func (v Vehicle) FrictionAccel() float64 {
	return v.Friction * v.Friction / v.Wheelbase
}

// SteeringStep is the largest steering change within one control period.
func (v Vehicle) SteeringStep() float64 {
	return v.Dt * v.Omega
}

// ParamNames lists the names accepted by WithParam, matching the JSON and
// YAML keys.
var ParamNames = []string{"omega", "max_delta", "dt", "wheelbase", "friction"}

// Params returns the vehicle constants keyed by their ParamNames.
func (v Vehicle) Params() map[string]float64 {
	return map[string]float64{
		"omega":     v.Omega,
		"max_delta": v.MaxDelta,
		"dt":        v.Dt,
		"wheelbase": v.Wheelbase,
		"friction":  v.Friction,
	}
}

// WithParam returns a copy of v with one constant replaced. The result is
// not validated.
func (v Vehicle) WithParam(name string, val float64) (Vehicle, error) {
	switch name {
	case "omega":
		v.Omega = val
	case "max_delta":
		v.MaxDelta = val
	case "dt":
		v.Dt = val
	case "wheelbase":
		v.Wheelbase = val
	case "friction":
		v.Friction = val
	default:
		return v, fmt.Errorf("%w: unknown parameter %q", ErrInvalidVehicle, name)
	}
	return v, nil
}
