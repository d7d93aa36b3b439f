package chime

import (
	"math"
	"math/rand"
	"testing"

	"audio-sentry/models"
)

// makeChime synthesises a decaying two-tone chime, closer to a real
// notification sound than a bare sine.
func makeChime(base float64, duration float64, sampleRate int) []float64 {
	n := int(duration * float64(sampleRate))
	samples := make([]float64, n)
	for i := range samples {
		ts := float64(i) / float64(sampleRate)
		envelope := math.Exp(-3 * ts / duration)
		samples[i] = envelope * (0.5*math.Sin(2*math.Pi*base*ts) + 0.25*math.Sin(2*math.Pi*base*2*ts))
	}
	return samples
}

func TestMatchSelf(t *testing.T) {
	t.Parallel()

	samples := makeChime(880, 0.4, 44100)
	fp := ExtractFingerprint(samples, 44100)
	fp.Name = "ding"

	result := Match(samples, 44100, []models.Fingerprint{fp}, 0.6)
	if !result.Matched() {
		t.Fatalf("segment should match itself, got confidence %f", result.Confidence)
	}
	if result.Name != "ding" {
		t.Errorf("matched %q, want %q", result.Name, "ding")
	}
	if result.Confidence < 0.95 {
		t.Errorf("self-match confidence = %f, want >= 0.95", result.Confidence)
	}
}

func TestMatchPrefersCloserSound(t *testing.T) {
	t.Parallel()

	ding := ExtractFingerprint(makeChime(880, 0.4, 44100), 44100)
	ding.Name = "ding"
	ring := ExtractFingerprint(makeChime(440, 1.2, 44100), 44100)
	ring.Name = "ring"

	result := Match(makeChime(880, 0.4, 44100), 44100, []models.Fingerprint{ring, ding}, 0.6)
	if result.Name != "ding" {
		t.Errorf("matched %q (%.3f), want %q", result.Name, result.Confidence, "ding")
	}
}

func TestMatchEmptyStore(t *testing.T) {
	t.Parallel()

	result := Match(makeChime(880, 0.4, 44100), 44100, nil, 0.6)
	if result.Matched() {
		t.Errorf("empty store must never match, got %+v", result)
	}
	if result.Confidence != 0 {
		t.Errorf("confidence = %f, want 0", result.Confidence)
	}
}

func TestMatchRejectsWhiteNoise(t *testing.T) {
	t.Parallel()

	samples := makeChime(880, 0.4, 44100)
	fp := ExtractFingerprint(samples, 44100)
	fp.Name = "ding"
	prints := []models.Fingerprint{fp}

	// Noise of the same duration as the learned sound gets a perfect
	// duration score and a decent peak score; the flat envelope and the
	// spread-out spectrum must keep it below the confidence floor anyway.
	rng := rand.New(rand.NewSource(7))
	for draw := 0; draw < 20; draw++ {
		noise := make([]float64, len(samples))
		for i := range noise {
			noise[i] = rng.Float64() - 0.5
		}

		result := Match(noise, 44100, prints, 0.6)
		if result.Matched() {
			t.Fatalf("draw %d: white noise matched %q with confidence %f", draw, result.Name, result.Confidence)
		}
		if result.Confidence >= 0.6 {
			t.Fatalf("draw %d: white noise confidence %f, want < 0.6", draw, result.Confidence)
		}
	}
}

func TestMatchSilentSegment(t *testing.T) {
	t.Parallel()

	fp := ExtractFingerprint(makeChime(880, 0.4, 44100), 44100)
	fp.Name = "ding"

	result := Match(make([]float64, 8192), 44100, []models.Fingerprint{fp}, 0.6)
	if result.Matched() || result.Confidence != 0 {
		t.Errorf("silence must never match, got %+v", result)
	}
}

func TestMatchFirstLearnedWinsTies(t *testing.T) {
	t.Parallel()

	samples := makeChime(880, 0.4, 44100)
	first := ExtractFingerprint(samples, 44100)
	first.Name = "first"
	second := first
	second.Name = "second"

	result := Match(samples, 44100, []models.Fingerprint{first, second}, 0.6)
	if result.Name != "first" {
		t.Errorf("tie should go to the earlier entry, matched %q", result.Name)
	}
}

func TestCompareDissimilarFingerprints(t *testing.T) {
	t.Parallel()

	a := models.Fingerprint{
		ActiveDuration:     0.3,
		PeakLevel:          0.9,
		RMSProfile:         []float64{0.1, 0.3, 0.6, 1.0},
		EnergyDistribution: models.EnergyDistribution{Low: 0.8, Mid: 0.15, High: 0.05},
	}
	b := models.Fingerprint{
		ActiveDuration:     1.2,
		PeakLevel:          0.2,
		RMSProfile:         []float64{1.0, 0.6, 0.3, 0.1},
		EnergyDistribution: models.EnergyDistribution{Low: 0.1, Mid: 0.1, High: 0.8},
	}

	score := CompareFingerprints(a, b)
	if score >= 0.6 {
		t.Errorf("dissimilar fingerprints scored %f, want < 0.6", score)
	}
}

func TestDurationScore(t *testing.T) {
	t.Parallel()

	if score, ok := DurationScore(1.0, 1.0); !ok || score != 1.0 {
		t.Errorf("equal durations: score=%f ok=%v, want 1.0 true", score, ok)
	}
	// Doubled length halves the ratio; the 2x weighting zeroes the score.
	if score, ok := DurationScore(1.0, 2.0); !ok || score != 0 {
		t.Errorf("doubled duration: score=%f ok=%v, want 0 true", score, ok)
	}
	if _, ok := DurationScore(0, 1.0); ok {
		t.Error("zero duration should be incomparable")
	}
}

func TestPeakScore(t *testing.T) {
	t.Parallel()

	if score, ok := PeakScore(0.5, 0.5); !ok || score != 1.0 {
		t.Errorf("equal peaks: score=%f ok=%v, want 1.0 true", score, ok)
	}
	if score, ok := PeakScore(0.5, 0.25); !ok || math.Abs(score-0.5) > 1e-9 {
		t.Errorf("halved peak: score=%f ok=%v, want 0.5 true", score, ok)
	}
	if _, ok := PeakScore(0.5, 0); ok {
		t.Error("zero peak should be incomparable")
	}
}

func TestShapeScore(t *testing.T) {
	t.Parallel()

	rising := []float64{0.1, 0.3, 0.6, 1.0}
	falling := []float64{1.0, 0.6, 0.3, 0.1}

	if score, ok := ShapeScore(rising, rising); !ok || math.Abs(score-1.0) > 1e-9 {
		t.Errorf("identical envelopes: score=%f ok=%v, want 1.0 true", score, ok)
	}
	// Anti-correlated envelopes clamp to zero rather than going negative.
	if score, ok := ShapeScore(rising, falling); !ok || score != 0 {
		t.Errorf("mirrored envelopes: score=%f ok=%v, want 0 true", score, ok)
	}
	if _, ok := ShapeScore([]float64{1.0}, rising); ok {
		t.Error("single-bin envelope should be incomparable")
	}
}

func TestShapeScoreFlatEnvelope(t *testing.T) {
	t.Parallel()

	flat := []float64{0.95, 1.0, 0.97, 0.99}
	decay := []float64{1.0, 0.6, 0.3, 0.1}

	// Flat against modulated: structurally different sounds, scored zero
	// no matter what the correlation of the sampling noise says.
	if score, ok := ShapeScore(flat, decay); !ok || score != 0 {
		t.Errorf("flat vs modulated: score=%f ok=%v, want 0 true", score, ok)
	}
	if score, ok := ShapeScore(decay, flat); !ok || score != 0 {
		t.Errorf("modulated vs flat: score=%f ok=%v, want 0 true", score, ok)
	}
	// Two flat envelopes agree trivially.
	if score, ok := ShapeScore(flat, []float64{1.0, 0.98, 0.96, 0.99}); !ok || score != 1 {
		t.Errorf("flat vs flat: score=%f ok=%v, want 1 true", score, ok)
	}
}

func TestShapeScoreResamplesLengths(t *testing.T) {
	t.Parallel()

	short := []float64{0.0, 0.5, 1.0}
	long := []float64{0.0, 0.25, 0.5, 0.75, 1.0}

	score, ok := ShapeScore(short, long)
	if !ok {
		t.Fatal("different-length envelopes should still compare")
	}
	if score < 0.99 {
		t.Errorf("same linear ramp at different resolutions scored %f, want ~1.0", score)
	}
}

func TestEnergyScore(t *testing.T) {
	t.Parallel()

	same := models.EnergyDistribution{Low: 0.2, Mid: 0.5, High: 0.3}
	if score, ok := EnergyScore(same, same); !ok || score != 1.0 {
		t.Errorf("identical distributions: score=%f ok=%v, want 1.0 true", score, ok)
	}

	opposite := models.EnergyDistribution{Low: 1, Mid: 0, High: 0}
	other := models.EnergyDistribution{Low: 0, Mid: 0, High: 1}
	score, _ := EnergyScore(opposite, other)
	if math.Abs(score-(1-2.0/3.0)) > 1e-9 {
		t.Errorf("opposite bands scored %f, want %f", score, 1-2.0/3.0)
	}
}
