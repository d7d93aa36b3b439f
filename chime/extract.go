package chime

// Fingerprint extraction shared by the learner and the matcher.
//
// A captured segment is trimmed of leading/trailing silence, then reduced
// to a compact descriptor: a time-binned RMS envelope, the dominant
// frequencies, the low/mid/high spectral energy split and the peak/mean
// levels. The same extraction runs at learn time and at match time so the
// two sides never drift.

import (
	"math"
	"sort"

	"audio-sentry/dsp"
	"audio-sentry/models"
)

const (
	// profileBins is the number of equal time-bins in the RMS envelope.
	profileBins = 20
	// maxTopFrequencies caps the dominant-frequency list.
	maxTopFrequencies = 5
	// silenceFloorRatio sets the trim floor relative to the segment peak.
	silenceFloorRatio = 0.01

	lowBandCeilingHz = 500.0
	midBandCeilingHz = 2000.0
)

// TrimSilence removes leading and trailing samples below 1% of the
// segment's peak. Returns nil when the segment holds no sample above the
// floor.
func TrimSilence(samples []float64) []float64 {
	var peak float64
	for _, s := range samples {
		if math.IsNaN(s) || math.IsInf(s, 0) {
			continue
		}
		if abs := math.Abs(s); abs > peak {
			peak = abs
		}
	}
	if peak == 0 {
		return nil
	}

	floor := peak * silenceFloorRatio
	start, end := -1, -1
	for i, s := range samples {
		if math.Abs(s) > floor {
			if start == -1 {
				start = i
			}
			end = i + 1
		}
	}
	if start == -1 {
		return nil
	}
	return samples[start:end]
}

// ExtractFingerprint derives the feature record for a segment. Name and
// LearnedAt are left unset; the learner stamps them. A silence-only
// segment yields a record with zero ActiveDuration.
func ExtractFingerprint(samples []float64, sampleRate int) models.Fingerprint {
	fp := models.Fingerprint{SampleRate: sampleRate}
	if sampleRate > 0 {
		fp.Duration = float64(len(samples)) / float64(sampleRate)
	}

	trimmed := TrimSilence(samples)
	if len(trimmed) == 0 || sampleRate <= 0 {
		return fp
	}
	fp.ActiveDuration = float64(len(trimmed)) / float64(sampleRate)

	var peak, meanAbs float64
	for _, s := range trimmed {
		abs := math.Abs(s)
		meanAbs += abs
		if abs > peak {
			peak = abs
		}
	}
	fp.PeakLevel = peak
	fp.MeanLevel = meanAbs / float64(len(trimmed))

	fp.RMSProfile = rmsProfile(trimmed, profileBins)

	magnitude, freqs := dsp.MagnitudeSpectrum(trimmed, sampleRate)
	fp.TopFrequencies = topFrequencies(magnitude, freqs, maxTopFrequencies)
	fp.EnergyDistribution = energyDistribution(magnitude, freqs)

	return fp
}

// rmsProfile splits the segment into equal time-bins and returns the RMS
// of each, normalised so the loudest bin is 1.0.
func rmsProfile(samples []float64, bins int) []float64 {
	if len(samples) == 0 || bins <= 0 {
		return nil
	}
	if bins > len(samples) {
		bins = len(samples)
	}

	profile := make([]float64, bins)
	binSize := float64(len(samples)) / float64(bins)
	var maxRMS float64

	for i := 0; i < bins; i++ {
		start := int(float64(i) * binSize)
		end := int(float64(i+1) * binSize)
		if end > len(samples) {
			end = len(samples)
		}
		if end <= start {
			continue
		}
		var sumSquares float64
		for _, s := range samples[start:end] {
			sumSquares += s * s
		}
		profile[i] = math.Sqrt(sumSquares / float64(end-start))
		if profile[i] > maxRMS {
			maxRMS = profile[i]
		}
	}

	if maxRMS > 0 {
		for i := range profile {
			profile[i] /= maxRMS
		}
	}
	return profile
}

// topFrequencies returns the centre frequencies of the highest-magnitude
// bins, strongest first.
func topFrequencies(magnitude, freqs []float64, limit int) []float64 {
	if len(magnitude) == 0 {
		return nil
	}

	indices := make([]int, len(magnitude))
	for i := range indices {
		indices[i] = i
	}
	sort.Slice(indices, func(a, b int) bool {
		return magnitude[indices[a]] > magnitude[indices[b]]
	})

	if limit > len(indices) {
		limit = len(indices)
	}
	top := make([]float64, 0, limit)
	for _, idx := range indices[:limit] {
		top = append(top, freqs[idx])
	}
	return top
}

// energyDistribution splits the total spectral energy into three fixed
// bands, normalised to sum to 1.0.
func energyDistribution(magnitude, freqs []float64) models.EnergyDistribution {
	var dist models.EnergyDistribution
	var total float64

	for i, mag := range magnitude {
		total += mag
		switch {
		case freqs[i] < lowBandCeilingHz:
			dist.Low += mag
		case freqs[i] < midBandCeilingHz:
			dist.Mid += mag
		default:
			dist.High += mag
		}
	}

	if total > 0 {
		dist.Low /= total
		dist.Mid /= total
		dist.High /= total
	}
	return dist
}
