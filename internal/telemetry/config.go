package telemetry

import (
	"path/filepath"
	"sync"
)

// DefaultDir is where events.jsonl lands when no directory is configured.
const DefaultDir = ".chat"

var (
	mu      sync.RWMutex
	enabled bool
	dir     = DefaultDir
)

// Configure switches JSONL emission on or off and sets the directory that
// holds events.jsonl. An empty eventsDir keeps DefaultDir.
func Configure(on bool, eventsDir string) {
	mu.Lock()
	defer mu.Unlock()
	enabled = on
	if eventsDir == "" {
		eventsDir = DefaultDir
	}
	dir = eventsDir
}

// Enabled reports whether events are being written.
func Enabled() bool {
	mu.RLock()
	defer mu.RUnlock()
	return enabled
}

// Path returns the events file location.
func Path() string {
	mu.RLock()
	defer mu.RUnlock()
	return filepath.Join(dir, "events.jsonl")
}
