package main

import (
	"flag"
	"fmt"
	"log"

	"audio-sentry/chime"
	"audio-sentry/store"
	"audio-sentry/wav"
)

// Identify a WAV file against the learned fingerprints and show the
// per-component scores for every candidate.
func main() {
	file := flag.String("file", "", "WAV file to identify")
	storePath := flag.String("store", store.DefaultPath(), "Fingerprint store path")
	minConfidence := flag.Float64("min", chime.DefaultConfig().MinConfidence, "Confidence floor for a match")
	flag.Parse()

	if *file == "" {
		log.Fatal("-file is required")
	}

	samples, sampleRate, err := wav.Read(*file)
	if err != nil {
		log.Fatalf("Failed to read %s: %v", *file, err)
	}

	fingerprints, err := store.Open(*storePath)
	if err != nil {
		log.Printf("WARNING: %v", err)
	}
	if fingerprints.Len() == 0 {
		log.Fatalf("No sounds learned yet in %s", *storePath)
	}

	segment := chime.ExtractFingerprint(samples, sampleRate)
	if segment.ActiveDuration == 0 {
		log.Fatal("Recording contains no audible sound")
	}
	fmt.Printf("Segment: %.2fs active, peak=%.3f, top frequencies %v\n\n",
		segment.ActiveDuration, segment.PeakLevel, segment.TopFrequencies)

	fmt.Println("=== Candidate Scores ===")
	for _, fp := range fingerprints.List() {
		total := chime.CompareFingerprints(segment, fp)

		marker := "  "
		if total >= *minConfidence {
			marker = "✅"
		}
		fmt.Printf("%s %-20s %.3f", marker, fp.Name, total)

		if score, ok := chime.DurationScore(segment.ActiveDuration, fp.ActiveDuration); ok {
			fmt.Printf("  dur=%.2f", score)
		}
		if score, ok := chime.PeakScore(segment.PeakLevel, fp.PeakLevel); ok {
			fmt.Printf(" peak=%.2f", score)
		}
		if score, ok := chime.ShapeScore(segment.RMSProfile, fp.RMSProfile); ok {
			fmt.Printf(" shape=%.2f", score)
		}
		if score, ok := chime.EnergyScore(segment.EnergyDistribution, fp.EnergyDistribution); ok {
			fmt.Printf(" energy=%.2f", score)
		}
		fmt.Println()
	}

	match := chime.MatchFingerprint(segment, fingerprints.List(), *minConfidence)
	fmt.Println()
	if match.Matched() {
		fmt.Printf("Best match: %s (%.1f%% confidence)\n", match.Name, match.Confidence*100)
	} else {
		fmt.Printf("No match above %.2f (best score %.3f)\n", *minConfidence, match.Confidence)
	}
}
