package session

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/nats-uav/aggregator/internal/cargo"
	"github.com/nats-uav/aggregator/internal/config"
	"github.com/nats-uav/aggregator/internal/object"
	"github.com/nats-uav/aggregator/internal/uav"
)

func testManager(t *testing.T) *Manager {
	t.Helper()
	dir := t.TempDir()
	cfg := config.Defaults()
	cfg.AssetsDir = filepath.Join(dir, "assets")
	cfg.DronesConfigDir = filepath.Join(dir, "drones")
	cfg.ConfigUploadDir = filepath.Join(dir, "uploaded")
	if err := os.MkdirAll(cfg.DronesConfigDir, 0o755); err != nil {
		t.Fatal(err)
	}

	uavs := uav.NewRegistry(4)
	objects := object.NewRegistry("")
	engine := cargo.NewEngine(uavs, objects, 10)
	logger := logrus.New()
	logger.SetOutput(discardWriter{})

	return NewManager(cfg, uavs, objects, engine, logger)
}

type discardWriter struct{}

func (discardWriter) Write(p []byte) (int, error) { return len(p), nil }

func TestReserveNameNoClash(t *testing.T) {
	m := testManager(t)
	if got := m.reserveName("alpha"); got != "alpha" {
		t.Fatalf("reserveName() = %q, want alpha", got)
	}
}

func TestReserveNameAppliesClashRule(t *testing.T) {
	m := testManager(t)
	first := m.reserveName("alpha")
	second := m.reserveName("alpha")
	if first == second {
		t.Fatalf("expected distinct names, got %q twice", first)
	}
	if !strings.HasPrefix(second, "alpha_") {
		t.Fatalf("reserveName() = %q, want alpha_<k> suffix", second)
	}
}

func TestHandleInfoListsConfigStems(t *testing.T) {
	m := testManager(t)
	if err := os.WriteFile(filepath.Join(m.cfg.DronesConfigDir, "quad.xml"), []byte("<drone/>"), 0o644); err != nil {
		t.Fatal(err)
	}

	reply := m.handleInfo()
	if !strings.Contains(reply, `"quad"`) {
		t.Fatalf("handleInfo() = %q, want it to list quad stem", reply)
	}
	if !strings.Contains(reply, `"checksum"`) || !strings.Contains(reply, `"map"`) {
		t.Fatalf("handleInfo() = %q, missing checksum/map keys", reply)
	}
}

func TestHandleUploadStripsCommentsAndBlankLines(t *testing.T) {
	m := testManager(t)
	payload := "<drone>\n<!-- comment -->\n\n<name>a</name>\n</drone>"
	reply := m.handleUpload(payload)
	if !strings.HasPrefix(reply, "ok;") {
		t.Fatalf("handleUpload() = %q, want ok;<hex>", reply)
	}
	sum := strings.TrimPrefix(reply, "ok;")
	if len(sum) != 8 {
		t.Fatalf("checksum stem len = %d, want 8", len(sum))
	}

	stored, err := os.ReadFile(filepath.Join(m.cfg.ConfigUploadDir, sum+".xml"))
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(stored), "comment") || strings.Contains(string(stored), "\n\n") {
		t.Fatalf("stored config %q still has stripped noise", stored)
	}
}

func TestHandleStartRejectsEmptyName(t *testing.T) {
	m := testManager(t)
	if got := m.handleStart(""); got != "-1" {
		t.Fatalf("handleStart(\"\") = %q, want -1", got)
	}
}

func TestHandleStartRejectsMissingConfig(t *testing.T) {
	m := testManager(t)
	if got := m.handleStart("alpha;missing"); got != "-2" {
		t.Fatalf("handleStart() = %q, want -2", got)
	}
}

// TestHandleStartRejectsAtClientLimit covers the -3 reply: once every
// slot in the table is occupied, a new session-start request must be
// rejected rather than growing the registry past client_limit.
func TestHandleStartRejectsAtClientLimit(t *testing.T) {
	m := testManager(t)
	if err := os.WriteFile(filepath.Join(m.cfg.DronesConfigDir, "default.xml"), []byte("<drone><name>x</name></drone>"), 0o644); err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 4; i++ {
		if _, err := m.uavs.Add(fmt.Sprintf("filler%d", i), &config.DroneConfig{}, nil, nil, ""); err != nil {
			t.Fatalf("pre-fill Add() error = %v", err)
		}
	}

	if got := m.handleStart("alpha"); got != "-3" {
		t.Fatalf("handleStart() at capacity = %q, want -3", got)
	}
}

func TestHandleControlUnknownCommand(t *testing.T) {
	m := testManager(t)
	if got := m.handleControl(context.Background(), 1, "bogus"); got != "error" {
		t.Fatalf("handleControl() = %q, want error", got)
	}
}

func TestHandleControlBeepOnMissingUAV(t *testing.T) {
	m := testManager(t)
	got := m.handleControl(context.Background(), 99, "beep")
	if got != "error;-1,-1" {
		t.Fatalf("handleControl(beep) on missing UAV = %q, want error;-1,-1", got)
	}
}
