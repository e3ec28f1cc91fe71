package uav

import (
	"bufio"
	"context"
	"errors"
	"net"
	"time"

	"github.com/sirupsen/logrus"
)

// StartStateListener dials the UAV's state socket and continuously
// parses incoming state frames into slot, reconnecting with backoff
// if the child hasn't opened its listener yet or the connection
// drops. Blocks until ctx is cancelled.
//
// Grounded on original_source/src/uav.rs's startListeners thread,
// generalized from four separate conflated SUB sockets (t/pos/vn/om)
// to the single combined state frame spec.md §6 defines.
func StartStateListener(ctx context.Context, slot *Slot, addr string, logger *logrus.Logger) {
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
		readStateFrames(ctx, conn, slot, logger)
	}
}

func readStateFrames(ctx context.Context, conn net.Conn, slot *Slot, logger *logrus.Logger) {
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
		st, err := ParseState(trimNL(line))
		if err != nil {
			logger.WithError(err).WithField("uav", slot.Name).Debug("malformed state frame")
			continue
		}
		slot.setState(st)
	}
}

func trimNL(s string) string {
	for len(s) > 0 && (s[len(s)-1] == '\n' || s[len(s)-1] == '\r') {
		s = s[:len(s)-1]
	}
	return s
}
