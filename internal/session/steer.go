package session

import (
	"context"
	"io"
	"net"
	"strconv"

	"github.com/sirupsen/logrus"
)

// startSteerBridge opens the public steer port and proxies every
// connection byte-for-byte to the UAV's internal steer endpoint until
// ctx is cancelled (by despawn or shutdown).
//
// Grounded on original_source/src/clients.rs's zmq::proxy(pair, xpub)
// between the public steer_pair_socket and the UAV's own xpub
// endpoint; re-expressed as a plain TCP splice since spec.md's steer
// channel carries an opaque byte stream rather than a zmq pub/sub
// topic.
func (m *Manager) startSteerBridge(ctx context.Context, slotID, publicPort int, childAddr string) {
	addr := net.JoinHostPort("127.0.0.1", strconv.Itoa(publicPort))

	lc := net.ListenConfig{}
	ln, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		m.logger.WithError(err).WithField("port", publicPort).Warn("steer bridge failed to bind")
		return
	}
	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go proxyToChild(ctx, conn, childAddr, m.logger)
		}
	}()
}

// proxyToChild splices one accepted public connection to a fresh
// connection against the UAV's internal steer endpoint.
func proxyToChild(ctx context.Context, public net.Conn, childAddr string, logger *logrus.Logger) {
	defer public.Close()

	var d net.Dialer
	child, err := d.DialContext(ctx, "tcp", childAddr)
	if err != nil {
		logger.WithError(err).WithField("addr", childAddr).Warn("steer bridge could not reach child")
		return
	}
	defer child.Close()

	done := make(chan struct{}, 2)
	go func() { io.Copy(child, public); done <- struct{}{} }()
	go func() { io.Copy(public, child); done <- struct{}{} }()
	<-done
}
