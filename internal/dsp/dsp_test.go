package dsp

import (
	"math"
	"testing"
)

func TestSpectrogramEmptyAudioYieldsNoFrames(t *testing.T) {
	S := Spectrogram(nil, 4096, 2048)
	if S != nil {
		t.Fatalf("expected nil spectrogram for empty audio, got %v", S)
	}
}

func TestSpectrogramShorterThanWindow(t *testing.T) {
	samples := make([]float64, 100)
	S := Spectrogram(samples, 4096, 2048)
	if S != nil {
		t.Fatalf("expected nil spectrogram for audio shorter than N_FFT, got %d frames", len(S))
	}
}

func TestFindPeaksEmptySpectrogram(t *testing.T) {
	peaks := FindPeaks(nil, 20, 0.01, 20)
	if len(peaks) != 0 {
		t.Fatalf("expected no peaks, got %d", len(peaks))
	}
}

func TestFindPeaksUniformSilenceYieldsNoPeaks(t *testing.T) {
	S := make([][]float64, 50)
	for i := range S {
		S[i] = make([]float64, 50)
	}
	peaks := FindPeaks(S, 20, 0.01, 20)
	if len(peaks) != 0 {
		t.Fatalf("expected no peaks for silent uniform spectrogram, got %d", len(peaks))
	}
}

func TestFindPeaksDeterministic(t *testing.T) {
	S := make([][]float64, 60)
	for i := range S {
		S[i] = make([]float64, 60)
	}
	S[10][15] = 1.0
	S[40][30] = 0.8

	a := FindPeaks(S, 20, 0.01, 1)
	b := FindPeaks(S, 20, 0.01, 1)

	if len(a) != len(b) {
		t.Fatalf("non-deterministic peak count: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("non-deterministic peak at %d: %v vs %v", i, a[i], b[i])
		}
	}
	if len(a) == 0 {
		t.Fatal("expected at least one peak")
	}
}

func TestFFTOfImpulse(t *testing.T) {
	input := make([]float64, 8)
	input[0] = 1
	out := FFT(input)
	if len(out) != 8 {
		t.Fatalf("expected 8 bins, got %d", len(out))
	}
	for _, c := range out {
		if math.Abs(real(c)-1) > 1e-9 || math.Abs(imag(c)) > 1e-9 {
			t.Fatalf("impulse FFT should be all-ones, got %v", c)
		}
	}
}
