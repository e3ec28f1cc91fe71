package atmosphere

import (
	"math"
	"testing"
)

const eps = 1e-2

func TestTemperature(t *testing.T) {
	cases := []struct{ h, t0, want float64 }{
		{0, 288.15, 288.15},
		{1000, 288.15, 281.65},
		{2000, 288.15, 275.15},
	}
	for _, c := range cases {
		got := Temperature(c.h, c.t0)
		if math.Abs(got-c.want) > eps {
			t.Errorf("Temperature(%v, %v) = %v, want %v", c.h, c.t0, got, c.want)
		}
	}
}

func TestPressure(t *testing.T) {
	got := Pressure(1000, 101325, 288.15)
	want := 89874.52
	if math.Abs(got-want) > 1 {
		t.Errorf("Pressure(1000, 101325, 288.15) = %v, want ~%v", got, want)
	}
}

func TestDensity(t *testing.T) {
	cases := []struct{ temp, pressure, want float64 }{
		{293.15, 101325, 1.204},
		{288.15, 101325, 1.225},
	}
	for _, c := range cases {
		got := Density(c.temp, c.pressure)
		if math.Abs(got-c.want) > eps {
			t.Errorf("Density(%v, %v) = %v, want %v", c.temp, c.pressure, got, c.want)
		}
	}
}

func TestParseWindFunction(t *testing.T) {
	matrix, bias, err := ParseWindFunction("1,0,0;0,1,0;0,0,1", "1,2,3")
	if err != nil {
		t.Fatalf("ParseWindFunction: %v", err)
	}
	f := NewField(matrix, bias)
	got := f.WindAt(bias) // identity matrix: wind(p) = bias + p
	if math.Abs(got.X-2) > eps || math.Abs(got.Y-4) > eps || math.Abs(got.Z-6) > eps {
		t.Fatalf("WindAt(bias) = %+v, want (2,4,6)", got)
	}
}

func TestTurbulenceStaysWithinBounds(t *testing.T) {
	turb := NewTurbulence(0.5, 42)
	for i := 0; i < 1000; i++ {
		v := turb.Next()
		if math.Abs(v.X) > 1.5+1e-9 || math.Abs(v.Y) > 1.5+1e-9 || math.Abs(v.Z) > 1.5+1e-9 {
			t.Fatalf("turbulence exceeded 3*scale bound: %+v", v)
		}
	}
}

func TestTurbulenceDisabledAtZeroScale(t *testing.T) {
	turb := NewTurbulence(0, 1)
	if v := turb.Next(); v.X != 0 || v.Y != 0 || v.Z != 0 {
		t.Fatalf("expected zero turbulence when scale is 0, got %+v", v)
	}
}
