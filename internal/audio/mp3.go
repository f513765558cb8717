package audio

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/hajimehoshi/go-mp3"
)

func decodeMP3(path string) (Waveform, error) {
	f, err := os.Open(path)
	if err != nil {
		return Waveform{}, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	dec, err := mp3.NewDecoder(f)
	if err != nil {
		return Waveform{}, fmt.Errorf("decoding mp3 %s: %w", path, err)
	}

	// go-mp3 always emits 16-bit little-endian stereo PCM.
	raw, err := io.ReadAll(dec)
	if err != nil {
		return Waveform{}, fmt.Errorf("reading mp3 pcm %s: %w", path, err)
	}

	numFrames := len(raw) / 4 // 2 channels * 2 bytes
	left := make([]float64, numFrames)
	right := make([]float64, numFrames)
	for i := 0; i < numFrames; i++ {
		l := int16(binary.LittleEndian.Uint16(raw[i*4 : i*4+2]))
		r := int16(binary.LittleEndian.Uint16(raw[i*4+2 : i*4+4]))
		left[i] = float64(l) / 32768.0
		right[i] = float64(r) / 32768.0
	}

	samples := downmix([][]float64{left, right})
	return Waveform{Samples: samples, SampleRate: dec.SampleRate()}, nil
}
