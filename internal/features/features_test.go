package features

import (
	"math"
	"testing"
)

func sineWave(freq float64, sr, n int) []float64 {
	samples := make([]float64, n)
	for i := range samples {
		samples[i] = math.Sin(2 * math.Pi * freq * float64(i) / float64(sr))
	}
	return samples
}

func TestVectorLengthAndFinite(t *testing.T) {
	sr := 22050
	samples := sineWave(440, sr, sr*3)

	v := Vector(samples, sr, 4096, 2048)
	if len(v) != VectorLen {
		t.Fatalf("len = %d, want %d", len(v), VectorLen)
	}
	for i, x := range v {
		if math.IsNaN(float64(x)) || math.IsInf(float64(x), 0) {
			t.Fatalf("v[%d] is not finite: %v", i, x)
		}
	}
}

func TestVectorShortClipZeroesTempoSlots(t *testing.T) {
	sr := 22050
	samples := sineWave(440, sr, sr/2) // 0.5s, below the 2s tempo threshold

	v := Vector(samples, sr, 4096, 2048)
	if v[51] != 0 {
		t.Errorf("tempo slot = %v, want 0 for a sub-2s clip", v[51])
	}
	if v[52] != 0 {
		t.Errorf("rhythm slot = %v, want 0 for a sub-2s clip", v[52])
	}
}

func TestVectorSilenceIsDegenerate(t *testing.T) {
	sr := 22050
	samples := make([]float64, sr*3)

	v := Vector(samples, sr, 4096, 2048)
	if Norm(v) != 0 {
		t.Errorf("Norm(silence) = %v, want 0", Norm(v))
	}
}

func TestVectorEmptyInput(t *testing.T) {
	v := Vector(nil, 22050, 4096, 2048)
	if Norm(v) != 0 {
		t.Errorf("Norm(empty) = %v, want 0", Norm(v))
	}
}

func TestChromaMeanSumsToOne(t *testing.T) {
	sr := 22050
	frames := [][]float64{
		{0, 1, 2, 3, 2, 1, 0, 1, 2, 3},
	}
	c := chromaMean(frames, sr, 4096)
	var sum float64
	for _, x := range c {
		sum += x
	}
	if math.Abs(sum-1) > 1e-9 {
		t.Errorf("chroma sums to %v, want 1", sum)
	}
}
