package main

import (
	"flag"
	"fmt"
	"log"

	"audio-sentry/store"
)

func main() {
	storePath := flag.String("store", store.DefaultPath(), "Fingerprint store path")
	flag.Parse()

	fingerprints, err := store.Open(*storePath)
	if err != nil {
		log.Printf("WARNING: %v", err)
	}

	if fingerprints.Len() == 0 {
		fmt.Printf("No sounds learned yet (%s)\n", *storePath)
		return
	}

	fmt.Printf("%d learned sounds in %s:\n\n", fingerprints.Len(), *storePath)
	for _, fp := range fingerprints.List() {
		learned := ""
		if !fp.LearnedAt.IsZero() {
			learned = fp.LearnedAt.Format("2006-01-02 15:04")
		}
		fmt.Printf("  %-20s %.2fs  peak=%.3f  low/mid/high=%.2f/%.2f/%.2f  %s\n",
			fp.Name, fp.ActiveDuration, fp.PeakLevel,
			fp.EnergyDistribution.Low, fp.EnergyDistribution.Mid, fp.EnergyDistribution.High,
			learned)
	}
}
