package chime

// Activity is the per-block activity signal handed to the event
// classifier. Call detection requires the stricter call-threshold
// crossing, so the reason for activity is exposed alongside the binary
// quiet/active state.
type Activity struct {
	Active       bool
	Notification bool
	Call         bool
	Level        float64
}

// ActivityTracker turns raw block levels into a two-state activity
// signal. It holds the maximum observed peak for a short window so that
// bursts shorter than one analysis block still register; the hold decays
// to zero once the window elapses. All time derives from block
// timestamps, which keeps the tracker deterministic under test.
type ActivityTracker struct {
	cfg            Config
	peakHold       float64
	peakHoldExpiry int64 // unix nanos; zero when nothing is held
}

func NewActivityTracker(cfg Config) *ActivityTracker {
	return &ActivityTracker{cfg: cfg}
}

// Observe analyses one block and returns the activity state derived from
// the effective level max(rms, held peak).
func (t *ActivityTracker) Observe(block AudioBlock) Activity {
	levels := AnalyzeBlock(block.Samples)
	now := block.Timestamp.UnixNano()

	if t.peakHoldExpiry != 0 && now >= t.peakHoldExpiry {
		t.peakHold = 0
		t.peakHoldExpiry = 0
	}
	if levels.Peak > t.peakHold {
		t.peakHold = levels.Peak
		t.peakHoldExpiry = block.Timestamp.Add(t.cfg.PeakHoldDuration).UnixNano()
	}

	effective := levels.RMS
	if t.peakHold > effective {
		effective = t.peakHold
	}

	anyThreshold := t.cfg.NotificationThreshold
	if t.cfg.CallThreshold < anyThreshold {
		anyThreshold = t.cfg.CallThreshold
	}

	return Activity{
		Active:       effective >= anyThreshold,
		Notification: effective >= t.cfg.NotificationThreshold,
		Call:         effective >= t.cfg.CallThreshold,
		Level:        effective,
	}
}

// Reset clears the peak hold.
func (t *ActivityTracker) Reset() {
	t.peakHold = 0
	t.peakHoldExpiry = 0
}
