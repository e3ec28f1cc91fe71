// Package atmosphere models wind and the ISA air column, and runs
// the periodic worker that pushes both out to every live UAV and
// tracked object.
//
// Grounded on original_source/src/atmosphere.rs (wind field + ISA
// model + worker loop) and src/wind.rs (the older standalone wind
// pusher, superseded by atmosphere.rs's affine field but kept here
// as the grounding for the per-position wind calculation shape).
package atmosphere

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"
)

const (
	// RAirConstant is the specific gas constant for dry air, J/(kg*K).
	RAirConstant = 287.052874
	// TempAltitudeRate is the ISA tropospheric lapse rate, K/m.
	TempAltitudeRate = 6.5e-3
	// GravityAcceleration is standard gravity, m/s^2.
	GravityAcceleration = 9.8067
)

// AirInfo is the atmospheric state at one point: temperature,
// pressure and density, plus the local wind vector.
type AirInfo struct {
	Wind        r3.Vec
	Temperature float64 // K
	Pressure    float64 // Pa
	Density     float64 // kg/m3
}

// Temperature returns the ISA temperature at height h (meters, up
// positive) above the reference level where the temperature is t0.
func Temperature(h, t0 float64) float64 {
	return t0 - h*TempAltitudeRate
}

// Pressure returns the ISA pressure at height h given the reference
// pressure p0 and temperature t0 at h=0.
func Pressure(h, p0, t0 float64) float64 {
	return p0 * math.Pow(1.0-TempAltitudeRate*(h/t0), GravityAcceleration/(RAirConstant*TempAltitudeRate))
}

// Density returns air density from temperature and pressure via the
// ideal gas law.
func Density(temp, pressure float64) float64 {
	if temp == 0 {
		return 0
	}
	return pressure / (temp * RAirConstant)
}

// AirInfoAt computes temperature, pressure and density for a position
// whose Z coordinate is altitude-negative (Z grows downward, so
// height above the reference level is -pos.Z), against reference
// conditions t0/p0.
func AirInfoAt(pos r3.Vec, t0, p0 float64) (temp, pressure, density float64) {
	h := -pos.Z
	temp = Temperature(h, t0)
	pressure = Pressure(h, p0, t0)
	density = Density(temp, pressure)
	return temp, pressure, density
}

// Field is the affine part of the wind model: wind(pos) = bias +
// matrix*pos, configured once from the server config's wind_matrix
// and wind_bias strings.
type Field struct {
	matrix *mat.Dense // 3x3
	bias   r3.Vec
}

// NewField builds a wind Field from a 3x3 matrix and bias vector.
func NewField(matrix *mat.Dense, bias r3.Vec) *Field {
	return &Field{matrix: matrix, bias: bias}
}

// WindAt returns the affine wind vector at pos, without turbulence.
func (f *Field) WindAt(pos r3.Vec) r3.Vec {
	p := mat.NewVecDense(3, []float64{pos.X, pos.Y, pos.Z})
	var out mat.VecDense
	out.MulVec(f.matrix, p)
	return r3.Vec{
		X: f.bias.X + out.AtVec(0),
		Y: f.bias.Y + out.AtVec(1),
		Z: f.bias.Z + out.AtVec(2),
	}
}
