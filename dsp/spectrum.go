package dsp

import (
	"math"
	"math/cmplx"
)

// MagnitudeSpectrum windows the samples, zero-pads to a power of two and
// returns the magnitude of each positive-frequency bin together with the
// bin centre frequencies in Hz.
func MagnitudeSpectrum(samples []float64, sampleRate int) (magnitude, freqs []float64) {
	if len(samples) == 0 || sampleRate <= 0 {
		return nil, nil
	}

	fftSize := NextPowerOfTwo(len(samples))
	buffer := make([]float64, fftSize)
	copy(buffer, samples)
	// Window the real samples only; tapering across the zero padding
	// would leave the data under half a window and smear the spectrum.
	ApplyHannWindow(buffer[:len(samples)])

	fft := FFT(buffer)
	binCount := fftSize / 2
	magnitude = make([]float64, binCount)
	freqs = make([]float64, binCount)

	for i := 0; i < binCount; i++ {
		magnitude[i] = cmplx.Abs(fft[i])
		freqs[i] = float64(i) * float64(sampleRate) / float64(fftSize)
	}

	return magnitude, freqs
}

// NextPowerOfTwo returns the smallest power of two >= n.
func NextPowerOfTwo(n int) int {
	if n <= 0 {
		return 1
	}
	power := 1
	for power < n {
		power <<= 1
	}
	return power
}

// ApplyHannWindow tapers the buffer in place to reduce spectral leakage.
func ApplyHannWindow(buffer []float64) {
	length := len(buffer)
	if length <= 1 {
		return
	}
	for i := range buffer {
		buffer[i] *= 0.5 * (1 - math.Cos((2*math.Pi*float64(i))/float64(length-1)))
	}
}
