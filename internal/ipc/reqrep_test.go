package ipc

import (
	"context"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
)

func TestReqRepServerEchoesUppercase(t *testing.T) {
	logger := logrus.New()
	logger.SetOutput(discardWriter{})

	srv := NewReqRepServer("127.0.0.1:0", time.Second, logger, func(conn net.Conn) ConnHandler {
		return ConnHandler{
			OnMessage: func(line string) string {
				return strings.ToUpper(line)
			},
		}
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	addr := ln.Addr().String()
	ln.Close()
	srv.addr = addr

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ctx) }()
	time.Sleep(50 * time.Millisecond)

	reply, err := Request(context.Background(), addr, "hello", time.Second)
	if err != nil {
		t.Fatalf("Request: %v", err)
	}
	if reply != "HELLO" {
		t.Fatalf("reply = %q, want %q", reply, "HELLO")
	}
}

type discardWriter struct{}

func (discardWriter) Write(p []byte) (int, error) { return len(p), nil }
