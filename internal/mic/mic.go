// Package mic captures a fixed-duration window from the default input
// device via PortAudio, producing the same canonical mono float64 samples
// the file-based decode boundary in internal/audio produces, so a captured
// clip exercises exactly the same recognition path as an uploaded file.
package mic

import (
	"fmt"
	"time"

	"github.com/gordonklaus/portaudio"
)

// Capture records duration of audio from the default input device at the
// device's native sample rate, downmixed to mono int16 frames of
// framesPerBuffer, and returns it as normalized [-1,1] float64 samples
// alongside the sample rate actually used.
func Capture(duration time.Duration, framesPerBuffer int) (samples []float64, sampleRate int, err error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, 0, fmt.Errorf("mic: initializing portaudio: %w", err)
	}
	defer portaudio.Terminate()

	device, err := portaudio.DefaultInputDevice()
	if err != nil {
		return nil, 0, fmt.Errorf("mic: no default input device: %w", err)
	}

	rate := device.DefaultSampleRate
	if rate < 22050 {
		rate = 44100
	}

	params := portaudio.HighLatencyParameters(device, nil)
	params.Input.Channels = 1
	params.SampleRate = rate
	params.FramesPerBuffer = framesPerBuffer

	buffer := make([]int16, framesPerBuffer)
	stream, err := portaudio.OpenStream(params, buffer)
	if err != nil {
		return nil, 0, fmt.Errorf("mic: opening stream: %w", err)
	}
	defer stream.Close()

	if err := stream.Start(); err != nil {
		return nil, 0, fmt.Errorf("mic: starting stream: %w", err)
	}
	defer stream.Stop()

	var frames []int16
	deadline := time.Now().Add(duration)
	for time.Now().Before(deadline) {
		if err := stream.Read(); err != nil {
			return nil, 0, fmt.Errorf("mic: reading stream: %w", err)
		}
		frames = append(frames, buffer...)
	}

	out := make([]float64, len(frames))
	for i, s := range frames {
		out[i] = float64(s) / 32768.0
	}
	return out, int(stream.Info().SampleRate), nil
}
