package topic

import "strings"

const (
	// Wildcard matches exactly one level: "evfleet/v1/alerts/+".
	Wildcard = "+"

	// MultiWildcard matches the remaining levels and must come last.
	MultiWildcard = "#"

	sharePrefix = "$share/"
)

// HasWildcard reports whether s contains a wildcard and can therefore only
// be used as a subscription filter.
func HasWildcard(s string) bool {
	return strings.ContainsAny(s, Wildcard+MultiWildcard)
}

// StripShare returns the filter inside a shared subscription
// ("$share/<group>/<filter>"). Other filters are returned unchanged.
func StripShare(filter string) string {
	if !strings.HasPrefix(filter, sharePrefix) {
		return filter
	}
	parts := strings.SplitN(filter, "/", 3)
	if len(parts) < 3 {
		return filter
	}
	return parts[2]
}

// Match reports whether a published topic matches a subscription filter.
// Shared subscriptions match on their inner filter.
func Match(filter, topic string) bool {
	filter = StripShare(filter)
	if filter == topic {
		return true
	}
	if !HasWildcard(filter) {
		return false
	}

	parts := strings.Split(filter, "/")
	levels := strings.Split(topic, "/")
	for i, part := range parts {
		switch {
		case part == MultiWildcard:
			return true
		case i >= len(levels):
			return false
		case part != Wildcard && part != levels[i]:
			return false
		}
	}
	return len(parts) == len(levels)
}
