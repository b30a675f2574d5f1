package telemetry

import (
	"encoding/json"
	"maps"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
)

// Emit appends one JSON line to the events file when telemetry is enabled.
// It augments fields with RFC3339Nano time and the event name. Failures are
// logged and otherwise ignored.
func Emit(name string, fields map[string]any) {
	if !Enabled() {
		return
	}

	m := make(map[string]any, len(fields)+2)
	maps.Copy(m, fields)
	m["time"] = time.Now().UTC().Format(time.RFC3339Nano)
	m["event"] = name

	b, err := json.Marshal(m)
	if err != nil {
		log.Warn("telemetry: marshal", "event", name, "err", err)
		return
	}

	path := Path()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		log.Warn("telemetry: mkdir", "path", path, "err", err)
		return
	}

	mu.Lock()
	defer mu.Unlock()
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		log.Warn("telemetry: open", "path", path, "err", err)
		return
	}
	defer f.Close()

	if _, err := f.Write(append(b, '\n')); err != nil {
		log.Warn("telemetry: write", "path", path, "err", err)
	}
}
