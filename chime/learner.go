package chime

import (
	"errors"
	"fmt"
	"time"

	"audio-sentry/models"
)

// ErrInvalidSegment reports a capture with no audio above the silence
// floor; there is nothing to learn and the caller should re-capture.
var ErrInvalidSegment = errors.New("segment contains no audio above the silence floor")

// FingerprintStore is the collection of learned fingerprints the core
// reads and mutates. Implementations persist on every mutation.
type FingerprintStore interface {
	// List returns all fingerprints in insertion order.
	List() []models.Fingerprint
	// Put inserts or overwrites a fingerprint by name and persists.
	Put(fp models.Fingerprint) error
	// Remove deletes a fingerprint by name; absent names are a no-op.
	Remove(name string) error
}

// Learner captures one audio segment, extracts its fingerprint and
// writes it into the store, overwriting any entry of the same name.
type Learner struct {
	store FingerprintStore
	now   func() time.Time
}

func NewLearner(store FingerprintStore) *Learner {
	return &Learner{store: store, now: time.Now}
}

// Learn extracts and stores the fingerprint for a named sound. Fails
// with ErrInvalidSegment when the trimmed segment is empty.
func (l *Learner) Learn(name string, samples []float64, sampleRate int) (models.Fingerprint, error) {
	fp := ExtractFingerprint(samples, sampleRate)
	if fp.ActiveDuration == 0 {
		return models.Fingerprint{}, ErrInvalidSegment
	}

	fp.Name = name
	fp.SampleRate = sampleRate
	fp.LearnedAt = l.now()

	if err := l.store.Put(fp); err != nil {
		return models.Fingerprint{}, fmt.Errorf("store fingerprint %q: %w", name, err)
	}
	return fp, nil
}
