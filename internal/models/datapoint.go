package models

// Valid ranges for a test datapoint. SessionStartValue marks the start of a
// measurement session instead of a real reading.
const (
	MinValue          = 0
	MaxValue          = 3300
	MinBattery        = 0
	MaxBattery        = 100
	SessionStartValue = -1
	DefaultBattery    = 100
)

// Datapoint is a single telemetry reading sent to the remote API.
type Datapoint struct {
	Value                  int    `json:"value"`
	Battery                int    `json:"battery"`
	DeviceHashedMACAddress string `json:"deviceHashedMACAddress"`
}

// IsSessionStart reports whether the datapoint is the session sentinel.
func (d Datapoint) IsSessionStart() bool {
	return d.Value == SessionStartValue
}

// LastDatapoint is what the testing page remembers per device.
type LastDatapoint struct {
	Value   int `json:"value"`
	Battery int `json:"battery"`
}
