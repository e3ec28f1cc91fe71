package uav

import (
	"math"
	"testing"

	"github.com/nats-uav/aggregator/internal/quat"
)

func TestStateRoundTrip(t *testing.T) {
	st := State{
		Time:        12.5,
		Pos:         [3]float64{1, 2, 3},
		Orientation: quat.Quat{W: 1, X: 0, Y: 0, Z: 0},
		Vel:         [3]float64{0.1, 0.2, 0.3},
		Omega:       [3]float64{0.01, 0.02, 0.03},
		RotorSpeeds: []float64{100, 101, 102, 103},
	}

	parsed, err := ParseState(st.String())
	if err != nil {
		t.Fatalf("ParseState: %v", err)
	}

	if parsed.Time != st.Time {
		t.Errorf("Time = %v, want %v", parsed.Time, st.Time)
	}
	if parsed.Pos != st.Pos {
		t.Errorf("Pos = %v, want %v", parsed.Pos, st.Pos)
	}
	if len(parsed.RotorSpeeds) != len(st.RotorSpeeds) {
		t.Fatalf("RotorSpeeds len = %d, want %d", len(parsed.RotorSpeeds), len(st.RotorSpeeds))
	}
	for i := range st.RotorSpeeds {
		if parsed.RotorSpeeds[i] != st.RotorSpeeds[i] {
			t.Errorf("RotorSpeeds[%d] = %v, want %v", i, parsed.RotorSpeeds[i], st.RotorSpeeds[i])
		}
	}
}

func TestParseStateRejectsShortFrame(t *testing.T) {
	if _, err := ParseState("1,2,3"); err == nil {
		t.Fatalf("expected error for short frame")
	}
}

func TestAccelerationMagnitude(t *testing.T) {
	prev := State{Vel: [3]float64{0, 0, 0}}
	cur := State{Vel: [3]float64{1, 0, 0}}
	got := cur.AccelerationMagnitude(prev, 1.0)
	if math.Abs(got-1.0) > 1e-9 {
		t.Fatalf("AccelerationMagnitude = %v, want 1.0", got)
	}
}

func TestRegistryAddRemove(t *testing.T) {
	r := NewRegistry(2)
	s1, err := r.Add("alpha", nil, nil, nil, "")
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if s1.ID != 1 {
		t.Fatalf("first slot id = %d, want 1", s1.ID)
	}
	s2, err := r.Add("bravo", nil, nil, nil, "")
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if s2.ID != 2 {
		t.Fatalf("second slot id = %d, want 2", s2.ID)
	}
	if _, err := r.Add("charlie", nil, nil, nil, ""); err == nil {
		t.Fatalf("expected capacity error on third Add")
	}

	r.Remove(s1.ID)
	if r.Count() != 1 {
		t.Fatalf("Count after remove = %d, want 1", r.Count())
	}
	s3, err := r.Add("charlie", nil, nil, nil, "")
	if err != nil {
		t.Fatalf("Add after remove: %v", err)
	}
	if s3.ID != 3 {
		t.Fatalf("id reused after remove: got %d, want 3 (monotonic, never reused)", s3.ID)
	}
}
