package chime

import (
	"math"
	"testing"
)

func TestTrimSilence(t *testing.T) {
	t.Parallel()

	tone := makeSine(440, 0.5, 0.2, 44100)
	padding := make([]float64, 4410)

	padded := append(append(append([]float64(nil), padding...), tone...), padding...)
	trimmed := TrimSilence(padded)

	if len(trimmed) == 0 {
		t.Fatal("trim removed the whole signal")
	}
	// The sine's own zero crossings stay, only the flat padding goes.
	if math.Abs(float64(len(trimmed)-len(tone))) > float64(len(tone))/10 {
		t.Errorf("trimmed to %d samples, want ~%d", len(trimmed), len(tone))
	}
}

func TestTrimSilenceAllQuiet(t *testing.T) {
	t.Parallel()

	if got := TrimSilence(make([]float64, 4096)); got != nil {
		t.Errorf("silence should trim to nil, got %d samples", len(got))
	}
	if got := TrimSilence(nil); got != nil {
		t.Errorf("empty input should trim to nil, got %d samples", len(got))
	}
}

func TestExtractFingerprintSine(t *testing.T) {
	t.Parallel()

	samples := makeSine(1000, 0.5, 0.5, 44100)
	fp := ExtractFingerprint(samples, 44100)

	if math.Abs(fp.ActiveDuration-0.5) > 0.05 {
		t.Errorf("active duration = %f, want ~0.5", fp.ActiveDuration)
	}
	if math.Abs(fp.PeakLevel-0.5) > 0.01 {
		t.Errorf("peak level = %f, want ~0.5", fp.PeakLevel)
	}

	if len(fp.TopFrequencies) == 0 {
		t.Fatal("no dominant frequencies extracted")
	}
	if math.Abs(fp.TopFrequencies[0]-1000) > 10 {
		t.Errorf("dominant frequency = %f Hz, want ~1000", fp.TopFrequencies[0])
	}

	// A 1 kHz tone lives in the mid band.
	if fp.EnergyDistribution.Mid < fp.EnergyDistribution.Low ||
		fp.EnergyDistribution.Mid < fp.EnergyDistribution.High {
		t.Errorf("mid band should dominate for a 1 kHz tone, got %+v", fp.EnergyDistribution)
	}
}

func TestExtractFingerprintEnergySumsToOne(t *testing.T) {
	t.Parallel()

	samples := makeSine(300, 0.4, 0.3, 44100)
	for i := range samples {
		samples[i] += 0.2 * math.Sin(2*math.Pi*4000*float64(i)/44100)
	}
	fp := ExtractFingerprint(samples, 44100)

	sum := fp.EnergyDistribution.Low + fp.EnergyDistribution.Mid + fp.EnergyDistribution.High
	if math.Abs(sum-1.0) > 1e-9 {
		t.Errorf("energy fractions sum to %f, want 1.0", sum)
	}
}

func TestExtractFingerprintProfileNormalised(t *testing.T) {
	t.Parallel()

	samples := makeSine(800, 0.7, 0.6, 44100)
	fp := ExtractFingerprint(samples, 44100)

	if len(fp.RMSProfile) != profileBins {
		t.Fatalf("profile has %d bins, want %d", len(fp.RMSProfile), profileBins)
	}
	var max float64
	for _, v := range fp.RMSProfile {
		if v < 0 || v > 1 {
			t.Fatalf("profile value %f outside [0, 1]", v)
		}
		if v > max {
			max = v
		}
	}
	if math.Abs(max-1.0) > 1e-9 {
		t.Errorf("loudest bin = %f, want 1.0", max)
	}
}

func TestExtractFingerprintSilence(t *testing.T) {
	t.Parallel()

	fp := ExtractFingerprint(make([]float64, 8192), 44100)
	if fp.ActiveDuration != 0 {
		t.Errorf("silent segment should have zero active duration, got %f", fp.ActiveDuration)
	}
	if fp.PeakLevel != 0 {
		t.Errorf("silent segment should have zero peak, got %f", fp.PeakLevel)
	}
}
