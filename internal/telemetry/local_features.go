package telemetry

import (
	"context"

	"github.com/petasbytes/go-toolchat/internal/metrics"
)

// EmitLocalFeatures records size features of the user's text. The text itself
// never reaches the event.
func EmitLocalFeatures(ctx context.Context, user string) {
	if !Enabled() {
		return
	}
	turnID, _ := TurnIDFromContext(ctx)
	Emit("local_features", map[string]any{
		"turn_id":          turnID,
		"features_version": metrics.FeaturesVersion,
		"user":             metrics.Measure(user).Fields(),
	})
}
