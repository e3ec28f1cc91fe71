package session

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/nats-uav/aggregator/internal/checksum"
)

var xmlCommentPattern = regexp.MustCompile(`(?s)<!--.*?-->`)

// handleUpload computes SHA-1 of the raw payload, strips XML comments
// and empty lines, and persists the cleaned payload under the first 8
// hex digits of the digest — the filename stem spec.md §4.5/§6 names.
func (m *Manager) handleUpload(payload string) string {
	sum := checksum.Short([]byte(payload))
	cleaned := stripXMLNoise(payload)

	if err := os.MkdirAll(m.cfg.ConfigUploadDir, 0o755); err != nil {
		m.logger.WithError(err).Warn("failed to create config upload directory")
		return "error;" + sum
	}
	path := filepath.Join(m.cfg.ConfigUploadDir, sum+".xml")
	if err := os.WriteFile(path, []byte(cleaned), 0o644); err != nil {
		m.logger.WithError(err).WithField("path", path).Warn("failed to persist uploaded config")
		return "error;" + sum
	}
	return "ok;" + sum
}

// stripXMLNoise removes comments and blank lines from an uploaded
// config payload before it is written to disk.
func stripXMLNoise(payload string) string {
	payload = xmlCommentPattern.ReplaceAllString(payload, "")
	lines := strings.Split(payload, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		out = append(out, line)
	}
	return strings.Join(out, "\n")
}
