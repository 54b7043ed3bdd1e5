package topic

import (
	"fmt"
	"strings"

	"github.com/autopeer-io/evfleet/internal/pkg/mqtt/paths"
)

// TopicBuilder encapsulates the logic for constructing MQTT topic strings.
// It ensures type safety and consistency across the entire project.
type TopicBuilder struct {
	// root is the base namespace for all topics (e.g., "evfleet/v1").
	root string
}

// NewTopicBuilder creates a new instance of TopicBuilder with the specified root namespace.
// Leading and trailing slashes are dropped.
func NewTopicBuilder(root string) *TopicBuilder {
	return &TopicBuilder{root: strings.Trim(root, "/")}
}

// Root returns the normalized namespace.
func (b *TopicBuilder) Root() string {
	return b.root
}

// -----------------------------------------------------------------------------
// Topic Generation Methods
// -----------------------------------------------------------------------------

// TelemetryFleet returns the topic carrying whole-fleet snapshots.
// Direction: Publisher -> Dashboard
func (b *TopicBuilder) TelemetryFleet() string {
	return b.build(paths.Telemetry, paths.Fleet)
}

// Alert returns the topic an accepted alert for vehicleID is published on.
// Direction: Dashboard -> Subscribers
func (b *TopicBuilder) Alert(vehicleID string) string {
	return b.build(paths.Alerts, vehicleID)
}

// AlertWildcard returns the filter matching alerts for every vehicle.
// Result: {root}/alerts/+
func (b *TopicBuilder) AlertWildcard() string {
	return b.build(paths.Alerts, Wildcard)
}

// All returns the filter matching every topic under the root.
// Result: {root}/#
func (b *TopicBuilder) All() string {
	return fmt.Sprintf("%s/%s", b.root, MultiWildcard)
}

// -----------------------------------------------------------------------------
// Helper Methods
// -----------------------------------------------------------------------------

// build is a private helper to construct the final topic string.
// Pattern: {root}/{suffix}/{identifier}
func (b *TopicBuilder) build(suffix, id string) string {
	if b.root == "" {
		return fmt.Sprintf("%s/%s", suffix, id)
	}
	return fmt.Sprintf("%s/%s/%s", b.root, suffix, id)
}
