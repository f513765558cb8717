package audio

import (
	"math"
	"testing"
)

func TestDownmixAveragesChannels(t *testing.T) {
	left := []float64{1, 1, 1}
	right := []float64{-1, -1, -1}
	got := downmix([][]float64{left, right})
	for _, v := range got {
		if v != 0 {
			t.Errorf("downmix(L,R) = %v, want all zero", got)
		}
	}
}

func TestDownmixMonoPassthrough(t *testing.T) {
	mono := []float64{0.5, 0.25}
	got := downmix([][]float64{mono})
	if len(got) != 2 || got[0] != 0.5 || got[1] != 0.25 {
		t.Errorf("downmix(mono) = %v, want passthrough", got)
	}
}

func TestResampleNoOpWhenRatesMatch(t *testing.T) {
	samples := []float64{1, 2, 3}
	got := resample(samples, 22050, 22050)
	if len(got) != 3 || got[0] != 1 || got[2] != 3 {
		t.Errorf("resample(same rate) = %v, want unchanged", got)
	}
}

func TestResampleDownsamplesToExpectedLength(t *testing.T) {
	samples := make([]float64, 44100)
	for i := range samples {
		samples[i] = math.Sin(float64(i))
	}
	got := resample(samples, 44100, 22050)
	wantLen := 22050
	if diff := len(got) - wantLen; diff < -1 || diff > 1 {
		t.Errorf("resample length = %d, want ~%d", len(got), wantLen)
	}
}
