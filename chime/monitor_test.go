package chime

import (
	"sync"
	"testing"
	"time"

	"audio-sentry/models"
)

func TestMonitorIdentifiesLearnedSound(t *testing.T) {
	t.Parallel()

	sampleRate := 44100
	chimeSound := makeChime(880, 0.4, sampleRate)

	stored := &memStore{}
	learner := NewLearner(stored)
	if _, err := learner.Learn("ding", chimeSound, sampleRate); err != nil {
		t.Fatalf("Learn failed: %v", err)
	}

	var mu sync.Mutex
	var got []struct {
		event Event
		match models.MatchResult
	}
	monitor := NewMonitor(DefaultConfig(), stored, func(event Event, match models.MatchResult) {
		mu.Lock()
		defer mu.Unlock()
		got = append(got, struct {
			event Event
			match models.MatchResult
		}{event, match})
	})
	monitor.Start()

	// Stream: 0.5 s silence, the chime, then over a second of silence so
	// the peak hold decays and the burst closes.
	stream := append(make([]float64, sampleRate/2), chimeSound...)
	stream = append(stream, make([]float64, sampleRate*3/2)...)

	start := time.Unix(0, 0)
	for offset := 0; offset < len(stream); offset += DefaultBlockSize {
		end := offset + DefaultBlockSize
		if end > len(stream) {
			end = len(stream)
		}
		ts := start.Add(time.Duration(offset) * time.Second / time.Duration(sampleRate))
		monitor.Process(AudioBlock{Samples: stream[offset:end], SampleRate: sampleRate, Timestamp: ts})
	}
	monitor.Stop()

	mu.Lock()
	defer mu.Unlock()
	if len(got) != 1 {
		t.Fatalf("got %d events, want 1", len(got))
	}
	if got[0].event.Kind != EventNotification {
		t.Errorf("kind = %s, want %s", got[0].event.Kind, EventNotification)
	}
	if !got[0].match.Matched() || got[0].match.Name != "ding" {
		t.Errorf("match = %+v, want ding", got[0].match)
	}
}

func TestMonitorProcessAfterStopIsNoop(t *testing.T) {
	t.Parallel()

	var mu sync.Mutex
	events := 0
	monitor := NewMonitor(DefaultConfig(), nil, func(Event, models.MatchResult) {
		mu.Lock()
		events++
		mu.Unlock()
	})
	monitor.Start()
	monitor.Stop()

	// Late blocks are discarded; a full burst-then-quiet sequence after
	// Stop must neither panic nor emit.
	loud := makeSine(440, 0.5, 0.1, 44100)
	for i := 0; i < 5; i++ {
		monitor.Process(blockAt(float64(i)*0.1, loud, 44100))
	}
	monitor.Process(blockAt(1.5, make([]float64, 4410), 44100))

	mu.Lock()
	defer mu.Unlock()
	if events != 0 {
		t.Fatalf("blocks after stop emitted %d events, want 0", events)
	}
}

func TestMonitorStopWithoutDanglingEvent(t *testing.T) {
	t.Parallel()

	var mu sync.Mutex
	events := 0
	monitor := NewMonitor(DefaultConfig(), nil, func(Event, models.MatchResult) {
		mu.Lock()
		events++
		mu.Unlock()
	})
	monitor.Start()

	// Stop mid-activity: the in-progress run is abandoned, not emitted.
	loud := makeSine(440, 0.5, 0.1, 44100)
	for i := 0; i < 5; i++ {
		monitor.Process(blockAt(float64(i)*0.1, loud, 44100))
	}
	monitor.Stop()

	mu.Lock()
	defer mu.Unlock()
	if events != 0 {
		t.Fatalf("stop mid-activity emitted %d events, want 0", events)
	}
}
