package audio

import (
	"fmt"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

func decodeWAV(path string) (Waveform, error) {
	f, err := os.Open(path)
	if err != nil {
		return Waveform{}, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return Waveform{}, fmt.Errorf("decoding wav %s: %w", path, err)
	}
	if !dec.WasValidASCII() && dec.SampleRate == 0 {
		return Waveform{}, fmt.Errorf("%s: not a valid wav file", path)
	}

	channels := splitChannels(buf)
	samples := downmix(channels)
	return Waveform{Samples: samples, SampleRate: int(buf.Format.SampleRate)}, nil
}

// splitChannels de-interleaves a go-audio PCM buffer into one slice of
// normalized [-1,1] float64 samples per channel.
func splitChannels(buf *audio.IntBuffer) [][]float64 {
	numCh := buf.Format.NumChannels
	if numCh <= 0 {
		numCh = 1
	}
	frames := len(buf.Data) / numCh
	channels := make([][]float64, numCh)
	for c := range channels {
		channels[c] = make([]float64, frames)
	}

	maxVal := float64(int(1) << uint(buf.SourceBitDepth-1))
	if buf.SourceBitDepth == 0 {
		maxVal = 1 << 15
	}

	for i, raw := range buf.Data {
		channels[i%numCh][i/numCh] = float64(raw) / maxVal
	}
	return channels
}
