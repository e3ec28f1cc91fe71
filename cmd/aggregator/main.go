// Command aggregator is the UAV flight simulator's world aggregator.
// It owns no flight-dynamics code itself: it spawns one physics/
// controller child process pair per UAV, one global free-body physics
// process for projectiles and dropped cargo, and stitches them into a
// single coherent world — shared atmosphere, collision environment,
// tethered-cargo coupling, and a fan-out of live state to
// visualization clients.
package main

import (
	"bufio"
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/nats-uav/aggregator/internal/atmosphere"
	"github.com/nats-uav/aggregator/internal/cargo"
	"github.com/nats-uav/aggregator/internal/collision"
	"github.com/nats-uav/aggregator/internal/config"
	"github.com/nats-uav/aggregator/internal/ipc"
	"github.com/nats-uav/aggregator/internal/notify"
	"github.com/nats-uav/aggregator/internal/object"
	"github.com/nats-uav/aggregator/internal/session"
	"github.com/nats-uav/aggregator/internal/uav"
	"github.com/nats-uav/aggregator/internal/worldmap"
	"github.com/nats-uav/aggregator/pkg/logging"
)

// defaultConfigPath is the one place this binary looks for its
// configuration; per spec.md §6 the CLI itself takes no flags.
const defaultConfigPath = "configs/config.yaml"

func main() {
	cfg, err := config.Load(defaultConfigPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "could not read %s (%v), running on defaults\n", defaultConfigPath, err)
		cfg = config.Defaults()
	}

	logger, sessionDir, err := logging.New("info", cfg.LogDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	logger.WithField("session_dir", sessionDir).Info("aggregator starting")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	worldMap, err := worldmap.Load(filepath.Join(cfg.AssetsDir, cfg.Map), worldmap.Params{
		CollisionPlusEps:  cfg.CollisionPlusEps,
		CollisionMinusEps: cfg.CollisionMinusEps,
		Grid:              cfg.Grid,
		SphereRadius:      0.1,
		ProjectileRadius:  0.05,
		COR:               cfg.COR,
		MiS:               cfg.MiS,
		MiD:               cfg.MiD,
		MinimalDist:       cfg.MinimalDist,
		MapOffset:         cfg.MapOffset,
	})
	if err != nil {
		logger.WithError(err).Fatal("failed to load map")
	}

	uavs := uav.NewRegistry(cfg.ClientLimit)

	// The global free-body physics process: one child shared by every
	// projectile and dropped cargo body, per spec.md §4.6.
	objectControlAddr := fmt.Sprintf("127.0.0.1:%d", cfg.ObjectPort+1)
	objectStateAddr := fmt.Sprintf("127.0.0.1:%d", cfg.ObjectPort+2)
	objects := object.NewRegistry(objectControlAddr)

	objectProc, err := ipc.SpawnChild(ctx, logger, -1, "obj", cfg.ObjectPhysicsExe,
		"--control-addr", objectControlAddr, "--state-addr", objectStateAddr)
	if err != nil {
		logger.WithError(err).Fatal("failed to spawn free-body physics process")
	}

	objectBroadcaster := ipc.NewBroadcaster(logger)
	capturer := object.NewCapturer(objects, logger)
	go object.StartCaptureListener(ctx, objectStateAddr, capturer, objectBroadcaster, logger)

	cargoEngine := cargo.NewEngine(uavs, objects, cfg.TimeoutLimit)
	collisionEngine := collision.NewEngine(worldMap, uavs, objects, cfg.MinimalDist, logger)

	windMatrix, windBias, err := atmosphere.ParseWindFunction(cfg.WindMatrix, cfg.WindBias)
	if err != nil {
		logger.WithError(err).Fatal("failed to parse wind_matrix/wind_bias")
	}
	field := atmosphere.NewField(windMatrix, windBias)
	turbulence := atmosphere.NewTurbulence(cfg.WindTurbulence, time.Now().UnixNano())
	atmosphereWorker := atmosphere.NewWorker(field, turbulence, cfg.Temperature, cfg.Pressure, uavs, uavs, objects, objects, logger)

	stateBroadcaster := ipc.NewBroadcaster(logger)
	notifyBroadcaster := ipc.NewBroadcaster(logger)
	statePublisher := notify.NewStatePublisher(uavs, stateBroadcaster)
	notifyPeriod := time.Duration(cfg.NotifyPeriodMs) * time.Millisecond
	notifier := notify.NewNotifier(uavs, cargoEngine, notifyBroadcaster, notifyPeriod)

	sessionMgr := session.NewManager(cfg, uavs, objects, cargoEngine, logger)

	mux := http.NewServeMux()
	mux.HandleFunc("/state", stateBroadcaster.HandleWebSocket)
	mux.HandleFunc("/notify", notifyBroadcaster.HandleWebSocket)
	mux.HandleFunc("/objects", objectBroadcaster.HandleWebSocket)
	httpServer := &http.Server{Addr: fmt.Sprintf(":%d", cfg.DronesPort), Handler: mux}

	var wg sync.WaitGroup
	runWorker := func(name string, fn func(context.Context) error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := fn(ctx); err != nil && ctx.Err() == nil {
				logger.WithError(err).WithField("worker", name).Warn("worker exited unexpectedly")
			}
		}()
	}

	// Deterministic startup order: the workers start in the reverse of
	// the shutdown sequence spec.md §5 defines (collision, cargo,
	// atmosphere, state publisher). The session manager is the
	// exception and starts last, so it never hands out a slot before
	// the workers that service it exist.
	runWorker("state_broadcaster", stateBroadcaster.Run)
	runWorker("notify_broadcaster", notifyBroadcaster.Run)
	runWorker("object_broadcaster", objectBroadcaster.Run)
	runWorker("collision", collisionEngine.Run)
	runWorker("cargo", cargoEngine.Run)
	runWorker("atmosphere", atmosphereWorker.Run)
	runWorker("state_publisher", statePublisher.Run)
	runWorker("notifier", notifier.Run)

	go func() {
		logger.WithField("port", cfg.DronesPort).Info("visualization feeds listening")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Warn("visualization http server error")
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := sessionMgr.Serve(ctx); err != nil && ctx.Err() == nil {
			logger.WithError(err).Error("session reply socket exited")
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	if cfg.QExit {
		go watchQuitKey(sigCh, logger)
	}

	<-sigCh
	logger.Info("shutdown signal received, stopping")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	httpServer.Shutdown(shutdownCtx)
	shutdownCancel()

	objectProc.Kill()
	objectProc.Wait()

	wg.Wait()
	logger.Info("aggregator shutdown complete")
}

// watchQuitKey implements q_exit: a 'Q'/'q' keypress on stdin
// triggers the same shutdown path as SIGINT.
func watchQuitKey(sigCh chan<- os.Signal, logger *logrus.Logger) {
	reader := bufio.NewReader(os.Stdin)
	for {
		r, _, err := reader.ReadRune()
		if err != nil {
			return
		}
		if r == 'q' || r == 'Q' {
			logger.Info("'Q' keypress received, shutting down")
			sigCh <- syscall.SIGTERM
			return
		}
	}
}
