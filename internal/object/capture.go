package object

import (
	"bufio"
	"context"
	"errors"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/nats-uav/aggregator/internal/ipc"
)

const defaultTimeout = time.Second

// Capturer parses the free-body child's proxied state broadcast —
// "t<time>;<id>,px,py,pz,vx,vy,vz;..." (spec.md §6's object state
// socket) — into the registry's cache, mirroring objects.rs's
// parseInfo capture thread.
type Capturer struct {
	registry *Registry
	logger   *logrus.Logger
}

// NewCapturer builds a Capturer writing into registry.
func NewCapturer(registry *Registry, logger *logrus.Logger) *Capturer {
	return &Capturer{registry: registry, logger: logger}
}

// Ingest parses one broadcast frame and replaces the registry's cache.
func (c *Capturer) Ingest(frame string) {
	if len(frame) < 2 {
		return
	}
	segments := strings.Split(frame, ";")
	if len(segments) < 1 || !strings.HasPrefix(segments[0], "t") {
		return
	}
	// segments[0] is "t<time>"; the remaining segments are per-object states.
	if _, ok := parseTimePrefix(segments[0]); !ok {
		return
	}
	var states []State
	for _, seg := range segments[1:] {
		seg = strings.TrimSpace(seg)
		if seg == "" {
			continue
		}
		st, err := ParseState(seg)
		if err != nil {
			c.logger.WithError(err).Debug("malformed object state segment")
			continue
		}
		states = append(states, st)
	}
	c.registry.ReplaceAll(states)
}

func parseTimePrefix(segment string) (float64, bool) {
	if !strings.HasPrefix(segment, "t") {
		return 0, false
	}
	v, err := strconv.ParseFloat(segment[1:], 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// StartCaptureListener dials the free-body child's state broadcast
// address and feeds every frame to both the capturer (the
// aggregator's own cache) and the public object-state broadcaster
// (spec.md §4.6's "bridges the child's publisher via a proxy to the
// public object-state TCP port"), reconnecting with backoff if the
// child hasn't started listening yet or the connection drops. Blocks
// until ctx is cancelled.
func StartCaptureListener(ctx context.Context, addr string, c *Capturer, broadcaster *ipc.Broadcaster, logger *logrus.Logger) {
	backoff := 100 * time.Millisecond
	for {
		if ctx.Err() != nil {
			return
		}
		conn, err := net.DialTimeout("tcp", addr, time.Second)
		if err != nil {
			select {
			case <-ctx.Done():
				return
			case <-time.After(backoff):
			}
			if backoff < 2*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = 100 * time.Millisecond
		readObjectFrames(ctx, conn, c, broadcaster, logger)
	}
}

func readObjectFrames(ctx context.Context, conn net.Conn, c *Capturer, broadcaster *ipc.Broadcaster, logger *logrus.Logger) {
	defer conn.Close()
	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	reader := bufio.NewReader(conn)
	for {
		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		line, err := reader.ReadString('\n')
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			var nerr net.Error
			if errors.As(err, &nerr) && nerr.Timeout() {
				continue
			}
			return
		}
		frame := strings.TrimRight(line, "\r\n")
		if frame == "" {
			continue
		}
		c.Ingest(frame)
		if broadcaster != nil {
			broadcaster.Publish("object", []byte(frame))
		}
	}
}
