package main

import (
	"flag"
	"fmt"
	"log"
	"time"

	"audio-sentry/chime"
	"audio-sentry/models"
	"audio-sentry/store"
	"audio-sentry/wav"
)

// Replay a WAV file through the live monitoring pipeline as if it were a
// real-time stream, printing every event the classifier emits. Useful for
// tuning thresholds against a recorded session without a microphone.
func main() {
	file := flag.String("file", "", "WAV file to replay")
	storePath := flag.String("store", store.DefaultPath(), "Fingerprint store path")
	blockSize := flag.Int("block", chime.DefaultBlockSize, "Samples per block")
	flag.Parse()

	if *file == "" {
		log.Fatal("-file is required")
	}

	samples, sampleRate, err := wav.Read(*file)
	if err != nil {
		log.Fatalf("Failed to read %s: %v", *file, err)
	}
	fmt.Printf("Replaying %s: %.2fs at %d Hz, %d-sample blocks\n\n",
		*file, float64(len(samples))/float64(sampleRate), sampleRate, *blockSize)

	fingerprints, err := store.Open(*storePath)
	if err != nil {
		log.Printf("WARNING: %v", err)
	}

	cfg := chime.DefaultConfig()
	monitor := chime.NewMonitor(cfg, fingerprints, func(event chime.Event, match models.MatchResult) {
		label := "unknown"
		if match.Matched() {
			label = match.Name
		}
		fmt.Printf("%8.2fs  %-13s %.2fs  %s (%.3f)\n",
			event.StartedAt.Sub(time.Unix(0, 0)).Seconds(),
			event.Kind, event.Duration, label, match.Confidence)
	})
	monitor.Start()

	// Synthetic timestamps: the block timeline is the file timeline, so a
	// replay is byte-for-byte deterministic regardless of machine speed.
	start := time.Unix(0, 0)
	blockDuration := time.Duration(float64(*blockSize) / float64(sampleRate) * float64(time.Second))
	for offset := 0; offset < len(samples); offset += *blockSize {
		end := offset + *blockSize
		if end > len(samples) {
			end = len(samples)
		}
		monitor.Process(chime.AudioBlock{
			Samples:    samples[offset:end],
			SampleRate: sampleRate,
			Timestamp:  start.Add(time.Duration(offset/(*blockSize)) * blockDuration),
		})
	}
	monitor.Stop()

	fmt.Println("\nReplay complete.")
}
