package audio

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
)

// convertToWAV shells out to ffmpeg to reformat any container/codec ffmpeg
// understands into PCM16 mono WAV, grounded on the teacher's
// fileformat/convert.go. The returned cleanup removes the temporary file.
func convertToWAV(inputPath string, channels int) (string, func(), error) {
	if _, err := os.Stat(inputPath); err != nil {
		return "", func() {}, fmt.Errorf("input file does not exist: %w", err)
	}
	if channels < 1 || channels > 2 {
		channels = 1
	}

	outPath := inputPath + ".cadence_convert.wav"
	cmd := exec.Command(
		"ffmpeg",
		"-y",
		"-i", inputPath,
		"-c", "pcm_s16le",
		"-ar", "44100",
		"-ac", fmt.Sprint(channels),
		outPath,
	)

	output, err := cmd.CombinedOutput()
	if err != nil {
		return "", func() {}, fmt.Errorf("ffmpeg conversion failed: %w, output: %s", err, string(output))
	}

	cleanup := func() { _ = os.Remove(outPath) }
	return filepath.Clean(outPath), cleanup, nil
}
