package telemetry_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/petasbytes/go-toolchat/internal/metrics"
	"github.com/petasbytes/go-toolchat/internal/telemetry"
)

func lastEvent(t *testing.T, dir string) map[string]any {
	t.Helper()
	lines := readLines(t, dir)
	var m map[string]any
	if err := json.Unmarshal([]byte(lines[len(lines)-1]), &m); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	return m
}

func TestEmitLocalFeatures_HappyPath(t *testing.T) {
	dir := enable(t)

	ctx := telemetry.WithTurnID(context.Background(), "turn-xyz")
	user := "What's the weather\nin Paris?"
	want := metrics.Measure(user)

	telemetry.EmitLocalFeatures(ctx, user)

	m := lastEvent(t, dir)
	if m["event"] != "local_features" {
		t.Fatalf("event mismatch: %v", m["event"])
	}
	if m["turn_id"] != "turn-xyz" {
		t.Fatalf("turn_id mismatch: %v", m["turn_id"])
	}
	if m["features_version"] != metrics.FeaturesVersion {
		t.Fatalf("features_version mismatch: %v", m["features_version"])
	}
	u, ok := m["user"].(map[string]any)
	if !ok {
		t.Fatalf("user field missing or wrong type: %T", m["user"])
	}
	if u["bytes"] != float64(want.Bytes) || u["words"] != float64(want.Words) || u["lines"] != float64(want.Lines) {
		t.Fatalf("user features mismatch: got %#v, want %+v", u, want)
	}
}

func TestEmitLocalFeatures_Disabled_NoEvent(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "events")
	telemetry.Configure(false, dir)
	t.Cleanup(func() { telemetry.Configure(false, "") })

	telemetry.EmitLocalFeatures(context.Background(), "some text")

	if _, err := os.Stat(filepath.Join(dir, "events.jsonl")); !os.IsNotExist(err) {
		t.Fatalf("expected no events.jsonl when disabled, got err=%v", err)
	}
}

func TestEmitLocalFeatures_NoRawTextLeakage(t *testing.T) {
	dir := enable(t)

	user := "secret plans for Rome"
	telemetry.EmitLocalFeatures(context.Background(), user)

	b, err := os.ReadFile(filepath.Join(dir, "events.jsonl"))
	if err != nil {
		t.Fatalf("read events: %v", err)
	}
	if strings.Contains(string(b), "secret") {
		t.Fatalf("raw input text found in events.jsonl")
	}
}
