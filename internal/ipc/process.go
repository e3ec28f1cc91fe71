package ipc

import (
	"bufio"
	"context"
	"io"
	"os/exec"

	"github.com/sirupsen/logrus"

	"github.com/nats-uav/aggregator/pkg/logging"
)

// ChildProcess wraps the opaque physics/controller binary the
// aggregator spawns per UAV or object: the original std::process::
// Command child whose stdout/stderr are forwarded into the server's
// own log stream, tagged with a per-slot color so a human scanning
// the console can tell instances apart.
type ChildProcess struct {
	cmd    *exec.Cmd
	logger *logrus.Entry
}

// SpawnChild starts name with args, forwarding its stdout/stderr to
// logger with a slot-colored tag. The returned ChildProcess's Wait
// must be called to reap the process and drain the forwarding
// goroutines.
func SpawnChild(ctx context.Context, logger *logrus.Logger, slot int, tag, name string, args ...string) (*ChildProcess, error) {
	cmd := exec.CommandContext(ctx, name, args...)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, err
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, err
	}

	entry := logger.WithField("proc", logging.SlotColor(slot)+tag+"\033[0m")
	if err := cmd.Start(); err != nil {
		return nil, err
	}

	go forwardLines(stdout, entry.Info)
	go forwardLines(stderr, entry.Warn)

	return &ChildProcess{cmd: cmd, logger: entry}, nil
}

func forwardLines(r io.Reader, log func(args ...interface{})) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		log(scanner.Text())
	}
}

// Wait blocks until the child exits.
func (c *ChildProcess) Wait() error {
	return c.cmd.Wait()
}

// Kill terminates the child immediately.
func (c *ChildProcess) Kill() error {
	if c.cmd.Process == nil {
		return nil
	}
	return c.cmd.Process.Kill()
}
