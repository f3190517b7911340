package alert

// Default threshold values. Process-wide configuration, not per-request.
const (
	DefaultTemperatureThreshold = 30.0 // °C
	DefaultHumidityThreshold    = 20.0 // %
)

// Thresholds is the fixed policy deciding whether a reading triggers an
// alert: temperature strictly above Temperature, or humidity strictly
// below Humidity.
type Thresholds struct {
	Temperature float64
	Humidity    float64
}

// DefaultThresholds returns the standard policy (30.0 °C / 20.0 %).
func DefaultThresholds() Thresholds {
	return Thresholds{
		Temperature: DefaultTemperatureThreshold,
		Humidity:    DefaultHumidityThreshold,
	}
}

// Exceeded reports whether the alert condition holds for the given values.
// Pure predicate, no side effects.
//
// Comparisons are strict: a reading exactly at a threshold does not fire.
// A nil value satisfies neither comparison, so readings with absent fields
// can only fire on the field they do carry.
func (t Thresholds) Exceeded(temperature, humidity *float64) bool {
	if temperature != nil && *temperature > t.Temperature {
		return true
	}
	if humidity != nil && *humidity < t.Humidity {
		return true
	}
	return false
}
