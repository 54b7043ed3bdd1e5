package topic

import "testing"

func TestMatch(t *testing.T) {
	tests := []struct {
		filter string
		topic  string
		want   bool
	}{
		{"evfleet/v1/telemetry/fleet", "evfleet/v1/telemetry/fleet", true},
		{"evfleet/v1/telemetry/fleet", "evfleet/v1/telemetry/other", false},
		{"evfleet/v1/alerts/+", "evfleet/v1/alerts/EV-01", true},
		{"evfleet/v1/alerts/+", "evfleet/v1/alerts/EV-01/extra", false},
		{"evfleet/v1/alerts/+", "evfleet/v1/alerts", false},
		{"evfleet/#", "evfleet/v1/telemetry/fleet", true},
		{"evfleet/#", "evfleet", true},
		{"evfleet/v1/+/fleet", "evfleet/v1/telemetry/fleet", true},
		{"other/#", "evfleet/v1/telemetry/fleet", false},
		{"$share/dash/evfleet/v1/telemetry/fleet", "evfleet/v1/telemetry/fleet", true},
		{"$share/dash/evfleet/v1/alerts/+", "evfleet/v1/alerts/EV-02", true},
	}

	for _, tt := range tests {
		if got := Match(tt.filter, tt.topic); got != tt.want {
			t.Errorf("Match(%q, %q) = %v, want %v", tt.filter, tt.topic, got, tt.want)
		}
	}
}

func TestStripShare(t *testing.T) {
	tests := map[string]string{
		"$share/dash/evfleet/v1/telemetry/fleet": "evfleet/v1/telemetry/fleet",
		"evfleet/v1/telemetry/fleet":             "evfleet/v1/telemetry/fleet",
		"$share/broken":                          "$share/broken",
	}
	for in, want := range tests {
		if got := StripShare(in); got != want {
			t.Errorf("StripShare(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestHasWildcard(t *testing.T) {
	for s, want := range map[string]bool{
		"evfleet/v1":   false,
		"evfleet/+":    true,
		"evfleet/v1/#": true,
	} {
		if got := HasWildcard(s); got != want {
			t.Errorf("HasWildcard(%q) = %v, want %v", s, got, want)
		}
	}
}
