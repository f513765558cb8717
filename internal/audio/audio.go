// Package audio is the decode boundary: WAV/MP3/anything-ffmpeg-handles in,
// a canonical mono float64 waveform at the configured sample rate out. No
// sample ever reaches internal/dsp without passing through Load.
package audio

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/resonantlabs/cadence/internal/xerr"
)

// Waveform is the canonical decoded-audio representation: mono samples in
// [-1, 1] at SampleRate Hz.
type Waveform struct {
	Samples    []float64
	SampleRate int
}

// Load decodes path by its extension, downmixes to mono, and resamples to
// targetSR. Any decode failure is classified KindInputDecode, matching
// spec.md §7.
func Load(path string, targetSR int) (Waveform, error) {
	ext := strings.ToLower(filepath.Ext(path))

	var w Waveform
	var err error
	switch ext {
	case ".wav":
		w, err = decodeWAV(path)
	case ".mp3":
		w, err = decodeMP3(path)
	default:
		w, err = decodeViaFFmpeg(path)
	}
	if err != nil {
		return Waveform{}, xerr.New(xerr.KindInputDecode, err)
	}

	if w.SampleRate <= 0 {
		return Waveform{}, xerr.Newf(xerr.KindInputDecode, "audio: %s: invalid sample rate %d", path, w.SampleRate)
	}
	if w.SampleRate != targetSR {
		w.Samples = resample(w.Samples, w.SampleRate, targetSR)
		w.SampleRate = targetSR
	}
	return w, nil
}

// Loader adapts Load to the recognize.AudioLoader interface.
type Loader struct {
	SampleRate int
}

func NewLoader(sampleRate int) Loader {
	return Loader{SampleRate: sampleRate}
}

func (l Loader) Load(path string) ([]float64, int, error) {
	w, err := Load(path, l.SampleRate)
	if err != nil {
		return nil, 0, err
	}
	return w.Samples, w.SampleRate, nil
}

func downmix(channels [][]float64) []float64 {
	if len(channels) == 0 {
		return nil
	}
	if len(channels) == 1 {
		return channels[0]
	}
	n := len(channels[0])
	out := make([]float64, n)
	for _, ch := range channels {
		for i := 0; i < n && i < len(ch); i++ {
			out[i] += ch[i]
		}
	}
	inv := 1.0 / float64(len(channels))
	for i := range out {
		out[i] *= inv
	}
	return out
}

func decodeViaFFmpeg(path string) (Waveform, error) {
	wavPath, cleanup, err := convertToWAV(path, 1)
	if err != nil {
		return Waveform{}, fmt.Errorf("audio: ffmpeg fallback for %s: %w", path, err)
	}
	defer cleanup()
	return decodeWAV(wavPath)
}
