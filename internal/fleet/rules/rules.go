package rules

import (
	"fmt"
	"math"
	"strconv"

	"github.com/autopeer-io/evfleet/internal/fleet/model"
)

// Thresholds used by DefaultRules.
const (
	BatteryLowPercent      = 20.0
	BatteryCriticalPercent = 10.0
	TempHighCelsius        = 60.0
	TireMinPSI             = 30.0
	TireMaxPSI             = 38.0
	SpeedLimitKmh          = 110.0
)

// CheckFunc inspects one vehicle. When the rule fires it returns the
// severity and message of the alert to raise.
type CheckFunc func(v *model.Vehicle) (sev model.Severity, msg string, fired bool)

// Rule is a stateless threshold predicate over a single vehicle.
type Rule struct {
	Kind model.AlertKind

	// Tag is the last component of the alert id; it keeps ids unique when
	// several rules fire for the same vehicle in one batch.
	Tag string

	Check CheckFunc
}

// DefaultRules are evaluated, in this order, against every vehicle of every batch.
var DefaultRules = []Rule{
	{
		Kind: model.AlertBatteryLow,
		Tag:  "battery",
		Check: func(v *model.Vehicle) (model.Severity, string, bool) {
			if v.Battery >= BatteryLowPercent {
				return "", "", false
			}
			sev := model.SeverityWarning
			if v.Battery < BatteryCriticalPercent {
				sev = model.SeverityCritical
			}
			return sev, fmt.Sprintf("%s: Battery low (%s%%)", v.Name, toFixed(v.Battery, 0)), true
		},
	},
	{
		Kind: model.AlertTempHigh,
		Tag:  "temp",
		Check: func(v *model.Vehicle) (model.Severity, string, bool) {
			if v.Temperature <= TempHighCelsius {
				return "", "", false
			}
			return model.SeverityCritical, fmt.Sprintf("%s: High temperature (%s°C)", v.Name, toFixed(v.Temperature, 1)), true
		},
	},
	{
		Kind: model.AlertTirePressure,
		Tag:  "tire",
		Check: func(v *model.Vehicle) (model.Severity, string, bool) {
			for _, p := range v.Tires() {
				if p < TireMinPSI || p > TireMaxPSI {
					return model.SeverityWarning, fmt.Sprintf("%s: Tire pressure out of range", v.Name), true
				}
			}
			return "", "", false
		},
	},
	{
		Kind: model.AlertSpeeding,
		Tag:  "speed",
		Check: func(v *model.Vehicle) (model.Severity, string, bool) {
			if v.Speed <= SpeedLimitKmh {
				return "", "", false
			}
			return model.SeverityWarning, fmt.Sprintf("%s: Speeding (%d km/h)", v.Name, int64(math.Round(v.Speed))), true
		},
	},
}

// AlertID builds the "<ts>-<vehicleID>-<tag>" identifier.
func AlertID(ts int64, vehicleID, tag string) string {
	return fmt.Sprintf("%d-%s-%s", ts, vehicleID, tag)
}

// toFixed formats v with the given number of decimals, rounding ties away
// from zero. fmt rounds ties to even, which would print 12.5 as "12".
func toFixed(v float64, decimals int) string {
	scale := math.Pow10(decimals)
	r := math.Floor(math.Abs(v)*scale+0.5) / scale
	return strconv.FormatFloat(math.Copysign(r, v), 'f', decimals, 64)
}
