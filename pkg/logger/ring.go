package logger

import (
	"strings"
	"sync"
)

// Ring is a fixed-size buffer of recent log lines, used to serve the
// operational log tail without touching disk.
type Ring struct {
	mu    sync.Mutex
	lines []string
	max   int
}

func NewRing(max int) *Ring {
	if max <= 0 {
		max = 200
	}
	return &Ring{max: max}
}

// Write implements io.Writer so the ring can sit behind a
// zerolog.MultiLevelWriter.
func (r *Ring) Write(p []byte) (int, error) {
	line := strings.TrimRight(string(p), "\n")
	if line == "" {
		return len(p), nil
	}
	r.mu.Lock()
	r.lines = append(r.lines, line)
	if n := len(r.lines) - r.max; n > 0 {
		r.lines = r.lines[n:]
	}
	r.mu.Unlock()
	return len(p), nil
}

// Lines returns a copy of the buffered lines, oldest first.
func (r *Ring) Lines() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.lines))
	copy(out, r.lines)
	return out
}
