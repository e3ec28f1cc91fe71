package ipc

import (
	"bufio"
	"context"
	"errors"
	"net"
	"time"

	"github.com/sirupsen/logrus"
)

// ConnHandler reacts to traffic on one accepted request/reply
// connection. OnMessage is called with each newline-delimited frame
// received and returns the text to write back (the session reply
// socket's "s:"/"c:"/"i" protocol and the per-UAV control socket's
// "beep"/"shoot;i"/... commands both fit this shape). OnTimeout fires
// whenever a read deadline elapses with nothing received — the
// heartbeat miss the per-UAV control listener counts — and returns
// true if the connection should now be closed.
type ConnHandler struct {
	OnMessage func(line string) string
	OnTimeout func() (closeConn bool)
}

// ReqRepServer is a framed, line-delimited TCP request/reply server:
// the stand-in for the original's zmq REP sockets, since spec.md §6
// specifies a plain text protocol rather than zmq's own framing.
type ReqRepServer struct {
	addr     string
	timeout  time.Duration
	newConn  func(conn net.Conn) ConnHandler
	logger   *logrus.Logger
}

// NewReqRepServer builds a server. newConn is invoked once per
// accepted connection to build the handler for that connection's
// lifetime (so per-UAV state, like heartbeat miss counts, can be
// closed over per connection).
func NewReqRepServer(addr string, timeout time.Duration, logger *logrus.Logger, newConn func(conn net.Conn) ConnHandler) *ReqRepServer {
	return &ReqRepServer{addr: addr, timeout: timeout, newConn: newConn, logger: logger}
}

// Serve accepts connections until ctx is cancelled or the listener
// fails to bind.
func (s *ReqRepServer) Serve(ctx context.Context) error {
	lc := net.ListenConfig{}
	ln, err := lc.Listen(ctx, "tcp", s.addr)
	if err != nil {
		return err
	}
	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			s.logger.WithError(err).Warn("reqrep accept failed")
			continue
		}
		go s.handleConn(ctx, conn)
	}
}

func (s *ReqRepServer) handleConn(ctx context.Context, conn net.Conn) {
	defer conn.Close()
	h := s.newConn(conn)
	reader := bufio.NewReader(conn)

	for {
		if ctx.Err() != nil {
			return
		}
		conn.SetReadDeadline(time.Now().Add(s.timeout))
		line, err := reader.ReadString('\n')
		if err != nil {
			var nerr net.Error
			if errors.As(err, &nerr) && nerr.Timeout() {
				if h.OnTimeout != nil && h.OnTimeout() {
					return
				}
				continue
			}
			return // EOF or hard error: peer is gone
		}
		line = trimFrame(line)
		resp := ""
		if h.OnMessage != nil {
			resp = h.OnMessage(line)
		}
		conn.SetWriteDeadline(time.Now().Add(s.timeout))
		if _, err := conn.Write([]byte(resp + "\n")); err != nil {
			return
		}
	}
}

func trimFrame(s string) string {
	for len(s) > 0 && (s[len(s)-1] == '\n' || s[len(s)-1] == '\r') {
		s = s[:len(s)-1]
	}
	return s
}

// Request opens a short-lived connection, writes one frame, and
// returns the single-line reply. Used by the session manager's own
// bridging code when it needs to forward a command as a client rather
// than serve one.
func Request(ctx context.Context, addr, payload string, timeout time.Duration) (string, error) {
	d := net.Dialer{Timeout: timeout}
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return "", err
	}
	defer conn.Close()

	conn.SetWriteDeadline(time.Now().Add(timeout))
	if _, err := conn.Write([]byte(payload + "\n")); err != nil {
		return "", err
	}
	conn.SetReadDeadline(time.Now().Add(timeout))
	reply, err := bufio.NewReader(conn).ReadString('\n')
	if err != nil {
		return "", err
	}
	return trimFrame(reply), nil
}
