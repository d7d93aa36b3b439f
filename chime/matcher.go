package chime

// Fingerprint similarity scoring.
//
// Confidence is the mean of four equally weighted component scores:
// active duration, peak level, envelope shape and spectral energy split.
// Components that cannot be computed (a zero duration or peak on either
// side, or a degenerate envelope) are left out of the mean rather than
// scored as zero. Each component is an independent pure function.

import (
	"math"

	"github.com/montanaflynn/stats"

	"audio-sentry/models"
)

// Match extracts the segment's feature record and scores it against every
// stored fingerprint, returning the best match at or above minConfidence.
// An empty store or an empty segment yields an unmatched result with zero
// confidence. On exact score ties the first-learned fingerprint wins;
// prints must be in store (insertion) order for that to be deterministic.
func Match(samples []float64, sampleRate int, prints []models.Fingerprint, minConfidence float64) models.MatchResult {
	if len(samples) == 0 || len(prints) == 0 {
		return models.MatchResult{}
	}

	segment := ExtractFingerprint(samples, sampleRate)
	return MatchFingerprint(segment, prints, minConfidence)
}

// MatchFingerprint scores an already-extracted record against the store.
// A segment with no audible content never matches anything.
func MatchFingerprint(segment models.Fingerprint, prints []models.Fingerprint, minConfidence float64) models.MatchResult {
	if segment.ActiveDuration <= 0 {
		return models.MatchResult{}
	}

	var bestName string
	var bestScore float64

	for _, fp := range prints {
		score := CompareFingerprints(segment, fp)
		if score > bestScore {
			bestScore = score
			bestName = fp.Name
		}
	}

	if bestScore >= minConfidence {
		return models.MatchResult{Name: bestName, Confidence: bestScore}
	}
	return models.MatchResult{Confidence: bestScore}
}

// CompareFingerprints returns the similarity of two fingerprints in
// [0, 1]: 0 is completely different, 1 is identical.
func CompareFingerprints(a, b models.Fingerprint) float64 {
	var sum float64
	var count int

	if score, ok := DurationScore(a.ActiveDuration, b.ActiveDuration); ok {
		sum += score
		count++
	}
	if score, ok := PeakScore(a.PeakLevel, b.PeakLevel); ok {
		sum += score
		count++
	}
	if score, ok := ShapeScore(a.RMSProfile, b.RMSProfile); ok {
		sum += score
		count++
	}
	if score, ok := EnergyScore(a.EnergyDistribution, b.EnergyDistribution); ok {
		sum += score
		count++
	}

	if count == 0 {
		return 0
	}
	return clamp01(sum / float64(count))
}

// DurationScore compares active durations. Duration is weighted twice as
// strictly as the other components: a 50% length difference zeroes it.
func DurationScore(d1, d2 float64) (float64, bool) {
	if d1 <= 0 || d2 <= 0 {
		return 0, false
	}
	diff := math.Abs(d1-d2) / math.Max(d1, d2)
	return math.Max(0, 1-diff*2), true
}

// PeakScore compares peak levels.
func PeakScore(p1, p2 float64) (float64, bool) {
	if p1 <= 0 || p2 <= 0 {
		return 0, false
	}
	diff := math.Abs(p1-p2) / math.Max(p1, p2)
	return math.Max(0, 1-diff), true
}

// flatEnvelopeSpread is the level range below which a normalised
// envelope counts as flat. White noise and steady tones sit well under
// it; chimes and rings are modulated far above it.
const flatEnvelopeSpread = 0.25

// ShapeScore is the Pearson correlation between the two RMS envelopes,
// clamped to [0, 1]. Envelopes of different bin counts are resampled to
// the shorter length first. A flat envelope carries no temporal
// signature, and its correlation against anything is sampling noise: a
// flat envelope against a modulated one scores zero, and two flat
// envelopes agree trivially.
func ShapeScore(profile1, profile2 []float64) (float64, bool) {
	if len(profile1) < 2 || len(profile2) < 2 {
		return 0, false
	}

	flat1 := profileSpread(profile1) < flatEnvelopeSpread
	flat2 := profileSpread(profile2) < flatEnvelopeSpread
	switch {
	case flat1 && flat2:
		return 1, true
	case flat1 || flat2:
		return 0, true
	}

	bins := len(profile1)
	if len(profile2) < bins {
		bins = len(profile2)
	}
	a := resampleProfile(profile1, bins)
	b := resampleProfile(profile2, bins)

	correlation, err := stats.Pearson(a, b)
	if err != nil || math.IsNaN(correlation) {
		return 0, false
	}
	return clamp01(correlation), true
}

// EnergyScore compares the low/mid/high band fractions.
func EnergyScore(e1, e2 models.EnergyDistribution) (float64, bool) {
	meanDiff := (math.Abs(e1.Low-e2.Low) +
		math.Abs(e1.Mid-e2.Mid) +
		math.Abs(e1.High-e2.High)) / 3
	return math.Max(0, 1-meanDiff), true
}

// profileSpread is the range of an envelope's values. Profiles are
// max-normalised, so a small spread means the level barely moves across
// the segment.
func profileSpread(profile []float64) float64 {
	lo, hi := profile[0], profile[0]
	for _, v := range profile[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return hi - lo
}

// resampleProfile linearly resamples an envelope to the requested bin
// count.
func resampleProfile(profile []float64, bins int) []float64 {
	if len(profile) == bins {
		return profile
	}

	out := make([]float64, bins)
	if bins == 1 {
		out[0] = profile[0]
		return out
	}

	scale := float64(len(profile)-1) / float64(bins-1)
	for i := range out {
		pos := float64(i) * scale
		lo := int(pos)
		hi := lo + 1
		if hi >= len(profile) {
			out[i] = profile[len(profile)-1]
			continue
		}
		frac := pos - float64(lo)
		out[i] = profile[lo]*(1-frac) + profile[hi]*frac
	}
	return out
}

func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}
