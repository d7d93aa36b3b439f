package models

import (
	"time"
)

// EnergyDistribution is the fraction of spectral energy in three fixed
// bands (low: 0-500 Hz, mid: 500-2000 Hz, high: >2000 Hz). The fractions
// are non-negative and sum to 1.0 when any energy is present.
type EnergyDistribution struct {
	Low  float64 `json:"low"`
	Mid  float64 `json:"mid"`
	High float64 `json:"high"`
}

// Fingerprint is a compact feature summary of a sound, used for
// similarity matching. The persisted store keys fingerprints by name, so
// Name is filled in by the store on load rather than serialised.
type Fingerprint struct {
	Name               string             `json:"-"`
	Duration           float64            `json:"duration"`
	ActiveDuration     float64            `json:"active_duration"`
	PeakLevel          float64            `json:"peak_level"`
	MeanLevel          float64            `json:"mean_level"`
	RMSProfile         []float64          `json:"rms_profile"`
	TopFrequencies     []float64          `json:"top_frequencies"`
	EnergyDistribution EnergyDistribution `json:"energy_distribution"`
	SampleRate         int                `json:"sample_rate,omitempty"`
	LearnedAt          time.Time          `json:"learned_at,omitempty"`
}

// MatchResult is the outcome of matching a captured segment against the
// fingerprint store. Name is empty when no fingerprint reached the
// confidence floor; Confidence then carries the best score seen.
type MatchResult struct {
	Name       string  `json:"name,omitempty"`
	Confidence float64 `json:"confidence"`
}

// Matched reports whether a fingerprint reached the confidence floor.
func (m MatchResult) Matched() bool {
	return m.Name != ""
}

// RecordData is the one-shot audio payload posted by clients for learning
// and identification: a base64-encoded WAV file plus its advertised format.
type RecordData struct {
	Audio      string  `json:"audio"`
	Duration   float64 `json:"duration"`
	Channels   int     `json:"channels"`
	SampleRate int     `json:"sampleRate"`
	SampleSize int     `json:"sampleSize"`
}

// BlockPayload is one streamed audio block from a live monitoring client:
// base64-encoded 16-bit little-endian mono PCM plus capture metadata.
type BlockPayload struct {
	PCM         string `json:"pcm"`
	SampleRate  int    `json:"sampleRate"`
	TimestampMs int64  `json:"timestampMs"`
}

// EventRecord is a classified audio event as persisted in the event log.
type EventRecord struct {
	ID          int64     `json:"id,omitempty" bson:"id,omitempty"`
	Timestamp   time.Time `json:"timestamp" bson:"timestamp"`
	Kind        string    `json:"kind" bson:"kind"`
	Duration    float64   `json:"duration" bson:"duration"`
	Sound       string    `json:"sound,omitempty" bson:"sound,omitempty"`
	Confidence  float64   `json:"confidence" bson:"confidence"`
	CapturePath string    `json:"capturePath,omitempty" bson:"capture_path,omitempty"`
}
