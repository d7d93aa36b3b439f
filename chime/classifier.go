package chime

import (
	"time"
)

// EventKind distinguishes the three emitted event types.
type EventKind string

const (
	EventNotification EventKind = "notification"
	EventCallStart    EventKind = "call_start"
	EventCallEnd      EventKind = "call_end"
)

// Event is a discrete classified audio event. Immutable once emitted.
// Captured holds the raw samples observed during the active run; the
// matcher trims them before feature extraction.
type Event struct {
	Kind       EventKind
	StartedAt  time.Time
	Duration   float64 // seconds
	Captured   []float64
	SampleRate int
}

type classifierState int

const (
	stateIdle classifierState = iota
	stateTracking
	stateInCall
)

// EventClassifier is the state machine that decides when an active period
// has become a notification (short burst) or a call (sustained
// call-strength activity), and when a call ends.
//
// A run that never reaches call-strength level remains a notification
// regardless of length: call classification requires both the sustained
// duration and the call-threshold crossing.
type EventClassifier struct {
	cfg        Config
	state      classifierState
	startedAt  time.Time
	captured   []float64
	sampleRate int
}

func NewEventClassifier(cfg Config) *EventClassifier {
	return &EventClassifier{cfg: cfg}
}

// Feed advances the state machine with one block and its activity signal,
// returning any events emitted by the transition. Blocks must arrive in
// timestamp order; elapsed time is measured between block timestamps.
func (c *EventClassifier) Feed(block AudioBlock, act Activity) []Event {
	switch c.state {
	case stateIdle:
		if act.Active {
			c.state = stateTracking
			c.startedAt = block.Timestamp
			c.sampleRate = block.SampleRate
			c.captured = append(c.captured[:0:0], block.Samples...)
		}
		return nil

	case stateTracking:
		if !act.Active {
			// Short burst ended before reaching call territory.
			event := Event{
				Kind:       EventNotification,
				StartedAt:  c.startedAt,
				Duration:   block.Timestamp.Sub(c.startedAt).Seconds(),
				Captured:   c.captured,
				SampleRate: c.sampleRate,
			}
			c.reset()
			return []Event{event}
		}

		c.captured = append(c.captured, block.Samples...)
		elapsed := block.Timestamp.Sub(c.startedAt)
		if elapsed >= c.cfg.CallDuration && act.Call {
			c.state = stateInCall
			return []Event{{
				Kind:       EventCallStart,
				StartedAt:  c.startedAt,
				Duration:   elapsed.Seconds(),
				Captured:   append([]float64(nil), c.captured...),
				SampleRate: c.sampleRate,
			}}
		}
		return nil

	case stateInCall:
		if act.Active {
			c.captured = append(c.captured, block.Samples...)
			return nil
		}
		event := Event{
			Kind:       EventCallEnd,
			StartedAt:  c.startedAt,
			Duration:   block.Timestamp.Sub(c.startedAt).Seconds(),
			Captured:   c.captured,
			SampleRate: c.sampleRate,
		}
		c.reset()
		return []Event{event}
	}

	return nil
}

// Reset abandons any in-progress run without emitting an event. Used when
// a monitoring session stops mid-activity.
func (c *EventClassifier) Reset() {
	c.reset()
}

func (c *EventClassifier) reset() {
	c.state = stateIdle
	c.startedAt = time.Time{}
	c.captured = nil
	c.sampleRate = 0
}
