// Package logging builds the process-wide structured logger.
package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
)

// ANSI color palette cycled across UAV slots, mirroring the original
// server's COLOR_* tags for per-drone log forwarding.
var slotColors = []string{
	"\x1b[36m", // cyan
	"\x1b[35m", // magenta
	"\x1b[33m", // yellow
	"\x1b[32m", // green
	"\x1b[34m", // blue
	"\x1b[31m", // red
}

// SlotColor returns the ANSI color escape assigned to a slot index.
func SlotColor(slot int) string {
	return slotColors[slot%len(slotColors)]
}

// New creates the session logger, writing JSON lines to both stdout
// and a per-session log file under logDir/<session>/aggregator.log.
func New(level, logDir string) (*logrus.Logger, string, error) {
	logger := logrus.New()
	logger.SetLevel(parseLevel(level))
	logger.SetFormatter(&logrus.JSONFormatter{
		TimestampFormat: "2006-01-02T15:04:05.000Z07:00",
	})

	session := strconv.FormatInt(time.Now().Unix(), 10)
	sessionDir := filepath.Join(logDir, session)
	if err := os.MkdirAll(sessionDir, 0o755); err != nil {
		return nil, "", fmt.Errorf("create session log dir: %w", err)
	}

	logPath := filepath.Join(sessionDir, "aggregator.log")
	file, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, "", fmt.Errorf("open log file: %w", err)
	}
	logger.SetOutput(NewTeeWriter(os.Stdout, file))

	return logger, sessionDir, nil
}

func parseLevel(level string) logrus.Level {
	switch level {
	case "debug":
		return logrus.DebugLevel
	case "warn":
		return logrus.WarnLevel
	case "error":
		return logrus.ErrorLevel
	default:
		return logrus.InfoLevel
	}
}
