package object

import (
	"testing"

	"github.com/sirupsen/logrus"
)

func TestParseState(t *testing.T) {
	st, err := ParseState("7,1,2,3,0.1,0.2,0.3")
	if err != nil {
		t.Fatalf("ParseState: %v", err)
	}
	if st.ID != 7 || st.Pos.X != 1 || st.Vel.Z != 0.3 {
		t.Fatalf("unexpected parsed state: %+v", st)
	}
}

func TestParseStateRejectsWrongFieldCount(t *testing.T) {
	if _, err := ParseState("1,2,3"); err == nil {
		t.Fatalf("expected error for short segment")
	}
}

func TestCapturerIngestReplacesRegistry(t *testing.T) {
	reg := NewRegistry("")
	cap := NewCapturer(reg, logrus.New())

	cap.Ingest("t12.5;1,0,0,0,0,0,0;2,1,1,1,0,0,0")
	if got := len(reg.Snapshot()); got != 2 {
		t.Fatalf("snapshot len = %d, want 2", got)
	}

	cap.Ingest("t12.6;3,5,5,5,0,0,0")
	snap := reg.Snapshot()
	if len(snap) != 1 || snap[0].ID != 3 {
		t.Fatalf("expected registry replaced with single id 3, got %+v", snap)
	}
}

func TestCapturerIgnoresMalformedFrame(t *testing.T) {
	reg := NewRegistry("")
	cap := NewCapturer(reg, logrus.New())
	cap.Ingest("garbage")
	if len(reg.Snapshot()) != 0 {
		t.Fatalf("expected no state ingested from malformed frame")
	}
}
