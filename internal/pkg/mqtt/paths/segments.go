package paths

// Topic segments for the evfleet telemetry protocol.
// Changing these values breaks every publisher already deployed.

// Upstream: vehicles / gateways -> dashboard
const (
	// Telemetry is the topic segment for fleet snapshots.
	// Payload: JSON array of vehicles, one complete fleet per message.
	// Pattern: {root}/telemetry/fleet
	Telemetry = "telemetry"

	// Fleet names the whole-fleet snapshot stream under Telemetry.
	Fleet = "fleet"
)

// Downstream: dashboard -> subscribers
const (
	// Alerts is the topic segment for accepted alerts.
	// Payload: { "id": "...", "vehicleId": "...", "type": "...", "severity": "...", ... }
	// Pattern: {root}/alerts/{vehicleID}
	Alerts = "alerts"
)
