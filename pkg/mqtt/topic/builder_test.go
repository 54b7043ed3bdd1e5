package topic

import "testing"

func TestTopicBuilder(t *testing.T) {
	tests := []struct {
		name string
		got  string
		want string
	}{
		{"telemetry", NewTopicBuilder("evfleet/v1").TelemetryFleet(), "evfleet/v1/telemetry/fleet"},
		{"alert", NewTopicBuilder("evfleet/v1").Alert("EV-03"), "evfleet/v1/alerts/EV-03"},
		{"alert wildcard", NewTopicBuilder("evfleet/v1").AlertWildcard(), "evfleet/v1/alerts/+"},
		{"all", NewTopicBuilder("evfleet/v1").All(), "evfleet/v1/#"},
		{"trimmed root", NewTopicBuilder("/evfleet/v1/").TelemetryFleet(), "evfleet/v1/telemetry/fleet"},
		{"empty root", NewTopicBuilder("").Alert("EV-01"), "alerts/EV-01"},
	}

	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s: got %q, want %q", tt.name, tt.got, tt.want)
		}
	}
}
