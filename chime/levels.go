package chime

import (
	"math"
	"time"
)

// AudioBlock is the unit of streaming input: N mono samples normalised to
// [-1, 1] plus the capture timestamp. Blocks are produced continuously by
// the external audio source and consumed immediately.
type AudioBlock struct {
	Samples    []float64
	SampleRate int
	Timestamp  time.Time
}

// Duration returns the block length in seconds.
func (b AudioBlock) Duration() float64 {
	if b.SampleRate <= 0 {
		return 0
	}
	return float64(len(b.Samples)) / float64(b.SampleRate)
}

// Levels are the per-block scalar features driving activity detection.
type Levels struct {
	RMS  float64
	Peak float64
}

// AnalyzeBlock computes the RMS and peak level of a block. An empty block
// yields zero levels. NaN or infinite samples are treated as silence so a
// single bad block can never fault the pipeline.
func AnalyzeBlock(samples []float64) Levels {
	if len(samples) == 0 {
		return Levels{}
	}

	var sumSquares, peak float64
	for _, s := range samples {
		if math.IsNaN(s) || math.IsInf(s, 0) {
			continue
		}
		sumSquares += s * s
		if abs := math.Abs(s); abs > peak {
			peak = abs
		}
	}

	return Levels{
		RMS:  math.Sqrt(sumSquares / float64(len(samples))),
		Peak: peak,
	}
}
