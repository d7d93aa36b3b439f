package main

import (
	"flag"
	"fmt"
	"log"

	"audio-sentry/chime"
	"audio-sentry/store"
	"audio-sentry/wav"
)

// paddingSeconds of context kept on each side of the detected sound when
// trimming a raw recording.
const paddingSeconds = 0.1

func main() {
	name := flag.String("name", "", "Name to store the sound under")
	file := flag.String("file", "", "WAV file holding one clean play of the sound")
	storePath := flag.String("store", store.DefaultPath(), "Fingerprint store path")
	rawTrim := flag.Bool("trim", true, "Trim background noise around the sound before learning")
	flag.Parse()

	if *name == "" || *file == "" {
		log.Fatal("both -name and -file are required")
	}

	samples, sampleRate, err := wav.Read(*file)
	if err != nil {
		log.Fatalf("Failed to read %s: %v", *file, err)
	}
	fmt.Printf("Loaded %s: %.2fs at %d Hz\n", *file, float64(len(samples))/float64(sampleRate), sampleRate)

	if *rawTrim {
		trimmed := trimRecording(samples, sampleRate)
		if len(trimmed) > 0 {
			fmt.Printf("Trimmed to %.2fs\n", float64(len(trimmed))/float64(sampleRate))
			samples = trimmed
		}
	}

	fingerprints, err := store.Open(*storePath)
	if err != nil {
		log.Printf("WARNING: %v", err)
	}

	learner := chime.NewLearner(fingerprints)
	fp, err := learner.Learn(*name, samples, sampleRate)
	if err != nil {
		log.Fatalf("Failed to learn sound: %v", err)
	}

	fmt.Printf("\nLearned %q (%d sounds total)\n", fp.Name, fingerprints.Len())
	fmt.Printf("  active duration: %.2fs\n", fp.ActiveDuration)
	fmt.Printf("  peak level:      %.3f\n", fp.PeakLevel)
	fmt.Printf("  top frequencies: %v\n", fp.TopFrequencies)
	fmt.Printf("  energy split:    low=%.2f mid=%.2f high=%.2f\n",
		fp.EnergyDistribution.Low, fp.EnergyDistribution.Mid, fp.EnergyDistribution.High)
}

// trimRecording isolates the sound inside a longer raw recording: the
// noise floor is twice the median block RMS, and a little padding is kept
// on both sides. Returns nil when nothing rises above the floor.
func trimRecording(samples []float64, sampleRate int) []float64 {
	blockSize := sampleRate / 100 // 10 ms blocks
	if blockSize < 1 || len(samples) < blockSize {
		return nil
	}

	var rmsValues []float64
	for start := 0; start+blockSize <= len(samples); start += blockSize {
		levels := chime.AnalyzeBlock(samples[start : start+blockSize])
		rmsValues = append(rmsValues, levels.RMS)
	}

	floor := 2 * median(rmsValues)
	if floor == 0 {
		return nil
	}

	first, last := -1, -1
	for i, rms := range rmsValues {
		if rms > floor {
			if first == -1 {
				first = i
			}
			last = i
		}
	}
	if first == -1 {
		return nil
	}

	pad := int(paddingSeconds * float64(sampleRate))
	start := first*blockSize - pad
	end := (last+1)*blockSize + pad
	if start < 0 {
		start = 0
	}
	if end > len(samples) {
		end = len(samples)
	}
	return samples[start:end]
}

func median(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := append([]float64(nil), values...)
	for i := 1; i < len(sorted); i++ {
		for j := i; j > 0 && sorted[j] < sorted[j-1]; j-- {
			sorted[j], sorted[j-1] = sorted[j-1], sorted[j]
		}
	}
	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}
	return sorted[mid]
}
