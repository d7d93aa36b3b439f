package chime

import "time"

// Stream defaults for clients that do not advertise a format.
const (
	DefaultSampleRate = 44100
	DefaultBlockSize  = 1024
)

// Config carries the detection thresholds. Values are owned and parsed by
// the caller; the core only consumes them.
type Config struct {
	// NotificationThreshold is the minimum effective level for a short
	// burst to count as notification-strength activity.
	NotificationThreshold float64
	// CallThreshold is the minimum effective level for call-strength
	// activity. The lower of the two thresholds governs "any activity".
	CallThreshold float64
	// CallDuration is how long call-strength activity must be sustained
	// before an active run is promoted to a call.
	CallDuration time.Duration
	// MinConfidence is the floor below which a fingerprint match is
	// reported as unknown.
	MinConfidence float64
	// PeakHoldDuration is how long the maximum observed peak is retained
	// so that bursts shorter than one block are not missed.
	PeakHoldDuration time.Duration
}

// DefaultConfig returns the tuned defaults for short synthetic UI sounds
// over a single mono channel.
func DefaultConfig() Config {
	return Config{
		NotificationThreshold: 0.05,
		CallThreshold:         0.02,
		CallDuration:          3 * time.Second,
		MinConfidence:         0.6,
		PeakHoldDuration:      500 * time.Millisecond,
	}
}
