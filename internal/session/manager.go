// Package session implements the client session manager: the process
// wide reply socket (session start / config upload / info), per-UAV
// slot allocation, the steer bridge and the heartbeat-driven control
// listener.
//
// Grounded on original_source/src/clients.rs's replyer thread (name
// reservation, steer proxy, slot reply), generalized from its bare
// "name -> (id, steer_port)" exchange to the full §4.5/§6 protocol
// (config_stem selection, -1/-2/-3 error codes, config upload,
// info request) and extended with the heartbeat-counted control
// listener that src/clients.rs does not implement at all (the
// original's control plane lived inside uav.rs's per-drone thread).
package session

import (
	"context"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/nats-uav/aggregator/internal/aggerr"
	"github.com/nats-uav/aggregator/internal/cargo"
	"github.com/nats-uav/aggregator/internal/checksum"
	"github.com/nats-uav/aggregator/internal/config"
	"github.com/nats-uav/aggregator/internal/ipc"
	"github.com/nats-uav/aggregator/internal/meshobj"
	"github.com/nats-uav/aggregator/internal/object"
	"github.com/nats-uav/aggregator/internal/uav"
)

// Manager owns the reply socket and every per-UAV steer/control
// bridge it spawns in response to a session-start request.
type Manager struct {
	cfg         config.ServerConfig
	uavs        *uav.Registry
	objects     *object.Registry
	cargoEngine *cargo.Engine
	logger      *logrus.Logger

	mu             sync.Mutex
	takenNames     map[string]struct{}
	assetsChecksum string

	bridges sync.Map // slot id -> *session (steer bridge + control listener)
}

// session is the per-UAV bridging state a successful start creates.
type session struct {
	cancel context.CancelFunc
}

// NewManager builds a Manager. The assets-directory checksum is
// computed once at construction, mirroring original_source/src/
// checksum.rs's calcChecksum() running once at startup.
func NewManager(cfg config.ServerConfig, uavs *uav.Registry, objects *object.Registry, cargoEngine *cargo.Engine, logger *logrus.Logger) *Manager {
	m := &Manager{
		cfg:         cfg,
		uavs:        uavs,
		objects:     objects,
		cargoEngine: cargoEngine,
		logger:      logger,
		takenNames:  make(map[string]struct{}),
	}
	m.assetsChecksum = m.calcAssetsChecksum()
	return m
}

// calcAssetsChecksum hashes every file under the assets directory in
// deterministic path order into one SHA-1 digest. The original built a
// Blake3 Merkle tree over the same directory; since internal/checksum
// only exposes a flat-payload SHA-1 (spec.md §6 never needs a Merkle
// proof, just a stable fingerprint for cache invalidation), a sorted
// concatenation of file contents gives the same "changed vs
// unchanged" signal without the extra dependency.
func (m *Manager) calcAssetsChecksum() string {
	var paths []string
	filepath.Walk(m.cfg.AssetsDir, func(path string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() {
			return nil
		}
		paths = append(paths, path)
		return nil
	})
	sort.Strings(paths)

	var buf strings.Builder
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			continue
		}
		buf.Write(data)
	}
	return checksum.Full([]byte(buf.String()))
}

// Serve runs the process-wide reply socket until ctx is cancelled.
func (m *Manager) Serve(ctx context.Context) error {
	srv := ipc.NewReqRepServer(fmt.Sprintf("127.0.0.1:%d", m.cfg.ReplyerPort), controlTimeout, m.logger, m.newReplyConn)
	m.logger.WithField("port", m.cfg.ReplyerPort).Info("session reply socket listening")
	return srv.Serve(ctx)
}

func (m *Manager) newReplyConn(_ net.Conn) ipc.ConnHandler {
	return ipc.ConnHandler{OnMessage: m.handleRequest}
}

// handleRequest dispatches one framed reply-socket request per §6:
// "s:" session start, "c:" config upload, "i" info.
func (m *Manager) handleRequest(line string) string {
	switch {
	case strings.HasPrefix(line, "s:"):
		return m.handleStart(line[2:])
	case strings.HasPrefix(line, "c:"):
		return m.handleUpload(line[2:])
	case line == "i":
		return m.handleInfo()
	default:
		return "-1"
	}
}

// handleStart parses "<name>[;<config_stem>]", reserves a unique name,
// spawns the UAV's child processes and bridges, and replies
// "id,steer_port,control_port" or one of the -1/-2/-3 error codes.
func (m *Manager) handleStart(payload string) string {
	parts := strings.SplitN(payload, ";", 2)
	name := strings.TrimSpace(parts[0])
	if name == "" {
		return codeString(aggerr.ErrNameEmpty)
	}
	configStem := ""
	if len(parts) == 2 {
		configStem = strings.TrimSpace(parts[1])
	}

	configPath, err := m.resolveConfigPath(configStem)
	if err != nil {
		m.logger.WithError(err).WithField("config", configStem).Warn("config file missing")
		return codeString(aggerr.ErrConfigNotFound)
	}
	droneCfg, err := config.ParseDroneConfig(configPath)
	if err != nil {
		m.logger.WithError(err).Warn("failed to parse drone config")
		return codeString(aggerr.ErrConfigNotFound)
	}
	var mesh *meshobj.Obj
	if droneCfg.MeshFile != "" {
		mesh, err = meshobj.Load(filepath.Join(m.cfg.AssetsDir, droneCfg.MeshFile))
		if err != nil {
			m.logger.WithError(err).Warn("failed to load UAV hull mesh")
			return codeString(aggerr.ErrConfigNotFound)
		}
	}

	resolvedName := m.reserveName(name)

	ctx, cancel := context.WithCancel(context.Background())
	slot, steerPort, controlPort, err := m.spawnUAV(ctx, resolvedName, configPath, droneCfg, mesh)
	if err != nil {
		cancel()
		m.logger.WithError(err).Warn("failed to allocate UAV slot")
		return codeString(aggerr.ErrNoFreeSlot)
	}

	m.bridges.Store(slot.ID, &session{cancel: cancel})
	return fmt.Sprintf("%d,%d,%d", slot.ID, steerPort, controlPort)
}

// reserveName applies the prefix name-clash rule: if name already
// appears as a prefix of any taken name, append "_<k>" where k is the
// count of prior matching names, and keep extending until unique.
func (m *Manager) reserveName(name string) string {
	m.mu.Lock()
	defer m.mu.Unlock()

	candidate := name
	for {
		matches := 0
		for taken := range m.takenNames {
			if strings.HasPrefix(taken, name) {
				matches++
			}
		}
		if matches == 0 {
			break
		}
		candidate = fmt.Sprintf("%s_%d", name, matches)
		if _, clash := m.takenNames[candidate]; !clash {
			break
		}
		name = candidate
	}
	m.takenNames[candidate] = struct{}{}
	return candidate
}

// codeString renders a sentinel error as the wire reply code §6
// assigns it ("-1", "-2" or "-3").
func codeString(err error) string {
	code, _ := aggerr.Code(err)
	return strconv.Itoa(code)
}

func (m *Manager) resolveConfigPath(stem string) (string, error) {
	if stem == "" {
		stem = "default"
	}
	path := filepath.Join(m.cfg.DronesConfigDir, stem+".xml")
	if _, err := os.Stat(path); err != nil {
		return "", err
	}
	return path, nil
}

// handleInfo answers "i" with the assets checksum, map name and every
// configuration stem available in the drones-config directory.
func (m *Manager) handleInfo() string {
	entries, err := os.ReadDir(m.cfg.DronesConfigDir)
	if err != nil {
		entries = nil
	}
	stems := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if ext := filepath.Ext(name); ext != "" {
			name = strings.TrimSuffix(name, ext)
		}
		stems = append(stems, name)
	}
	sort.Strings(stems)

	var b strings.Builder
	b.WriteString(`{"checksum":"`)
	b.WriteString(m.assetsChecksum)
	b.WriteString(`","map":"`)
	b.WriteString(m.cfg.Map)
	b.WriteString(`","configs":[`)
	for i, s := range stems {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteByte('"')
		b.WriteString(s)
		b.WriteByte('"')
	}
	b.WriteString("]}")
	return b.String()
}

// despawn tears down a slot's bridges (steer proxy, control listener)
// and frees the UAV slot. Safe to call more than once.
func (m *Manager) despawn(id int) {
	if v, ok := m.bridges.LoadAndDelete(id); ok {
		v.(*session).cancel()
	}
	m.uavs.Remove(id)
}
