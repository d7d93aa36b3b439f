package wav

// WAV decode/encode helpers used by the CLI tools and the capture
// archive. Samples cross the package boundary as float64 in [-1, 1],
// mixed down to mono; the engine never sees raw PCM bytes.

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"os"

	"github.com/go-audio/audio"
	goaudiowav "github.com/go-audio/wav"
)

// Read decodes a WAV file into mono float samples and its sample rate.
// Multi-channel files are averaged down to one channel.
func Read(path string) ([]float64, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("open wav file: %w", err)
	}
	defer f.Close()

	decoder := goaudiowav.NewDecoder(f)
	if !decoder.IsValidFile() {
		return nil, 0, fmt.Errorf("not a valid wav file: %s", path)
	}

	buf, err := decoder.FullPCMBuffer()
	if err != nil {
		return nil, 0, fmt.Errorf("decode wav file: %w", err)
	}
	return fromBuffer(buf, int(decoder.BitDepth))
}

// DecodeBytes decodes an in-memory WAV payload, as received over the
// recording endpoints.
func DecodeBytes(data []byte) ([]float64, int, error) {
	decoder := goaudiowav.NewDecoder(bytes.NewReader(data))
	if !decoder.IsValidFile() {
		return nil, 0, fmt.Errorf("not a valid wav payload")
	}

	buf, err := decoder.FullPCMBuffer()
	if err != nil {
		return nil, 0, fmt.Errorf("decode wav payload: %w", err)
	}
	return fromBuffer(buf, int(decoder.BitDepth))
}

// Write encodes mono float samples as a 16-bit PCM WAV file.
func Write(path string, samples []float64, sampleRate int) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create wav file: %w", err)
	}
	defer f.Close()

	encoder := goaudiowav.NewEncoder(f, sampleRate, 16, 1, 1)
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 1, SampleRate: sampleRate},
		SourceBitDepth: 16,
		Data:           make([]int, len(samples)),
	}
	for i, s := range samples {
		buf.Data[i] = int(clampSample(s) * 32767)
	}

	if err := encoder.Write(buf); err != nil {
		return fmt.Errorf("encode wav file: %w", err)
	}
	if err := encoder.Close(); err != nil {
		return fmt.Errorf("finalize wav file: %w", err)
	}
	return nil
}

// PCM16ToSamples converts raw little-endian signed 16-bit mono PCM to
// float samples. An odd trailing byte is dropped.
func PCM16ToSamples(pcm []byte) []float64 {
	samples := make([]float64, 0, len(pcm)/2)
	for i := 0; i+1 < len(pcm); i += 2 {
		v := int16(binary.LittleEndian.Uint16(pcm[i:]))
		samples = append(samples, float64(v)/32768)
	}
	return samples
}

// fromBuffer normalises a decoded PCM buffer to mono floats.
func fromBuffer(buf *audio.IntBuffer, bitDepth int) ([]float64, int, error) {
	if buf == nil || buf.Format == nil {
		return nil, 0, fmt.Errorf("empty wav buffer")
	}

	channels := buf.Format.NumChannels
	if channels < 1 {
		channels = 1
	}
	if bitDepth <= 0 {
		bitDepth = buf.SourceBitDepth
	}
	if bitDepth <= 0 {
		bitDepth = 16
	}
	scale := math.Pow(2, float64(bitDepth-1))

	frames := len(buf.Data) / channels
	samples := make([]float64, frames)
	for i := 0; i < frames; i++ {
		var sum float64
		for c := 0; c < channels; c++ {
			sum += float64(buf.Data[i*channels+c])
		}
		samples[i] = sum / float64(channels) / scale
	}
	return samples, buf.Format.SampleRate, nil
}

func clampSample(s float64) float64 {
	if s > 1 {
		return 1
	}
	if s < -1 {
		return -1
	}
	return s
}
