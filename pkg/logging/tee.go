package logging

import "io"

// TeeWriter fans a single write out to multiple destinations, used to
// keep the session log file and stdout in sync without a second
// logger instance.
type TeeWriter struct {
	writers []io.Writer
}

// NewTeeWriter returns a writer that forwards every Write to all of w.
func NewTeeWriter(w ...io.Writer) *TeeWriter {
	return &TeeWriter{writers: w}
}

func (t *TeeWriter) Write(p []byte) (int, error) {
	for _, w := range t.writers {
		if _, err := w.Write(p); err != nil {
			return 0, err
		}
	}
	return len(p), nil
}
