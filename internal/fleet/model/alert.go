package model

// AlertKind classifies what triggered an alert.
type AlertKind string

const (
	AlertBatteryLow       AlertKind = "battery_low"
	AlertTempHigh         AlertKind = "temp_high"
	AlertTirePressure     AlertKind = "tire_pressure"
	AlertSpeeding         AlertKind = "speeding"
	AlertGeofence         AlertKind = "geofence"
	AlertHarshBraking     AlertKind = "harsh_braking"
	AlertChargingComplete AlertKind = "charging_complete"
	AlertOther            AlertKind = "other"
)

type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// Alert is an event derived from a telemetry snapshot.
type Alert struct {
	// ID is "<batchTimestamp>-<vehicleID>-<tag>" and is the only key used for dedup.
	ID string `json:"id"`

	// VehicleID references the vehicle the alert was raised for. The vehicle
	// may no longer be part of the fleet.
	VehicleID string `json:"vehicleId"`

	Kind     AlertKind `json:"type"`
	Severity Severity  `json:"severity"`
	Message  string    `json:"message"`

	// TS is the creation time in epoch milliseconds.
	TS int64 `json:"ts"`

	// Acknowledged is carried for wire compatibility only. Acknowledging an
	// alert removes it from the store instead of setting this flag.
	Acknowledged *bool `json:"acknowledged,omitempty"`
}

// CloneAlerts returns a copy of the list that shares no backing array with it.
func CloneAlerts(in []Alert) []Alert {
	out := make([]Alert, len(in))
	copy(out, in)
	return out
}
