package fingerprint

import (
	"testing"

	"github.com/resonantlabs/cadence/internal/dsp"
)

func TestHashPeaksFewerThanTwo(t *testing.T) {
	if got := HashPeaks(nil, 5, 100, 3); len(got) != 0 {
		t.Fatalf("expected empty, got %d", len(got))
	}
	if got := HashPeaks([]dsp.Peak{{T: 1, F: 2}}, 5, 100, 3); len(got) != 0 {
		t.Fatalf("expected empty for single peak, got %d", len(got))
	}
}

func TestHashPeaksIsPure(t *testing.T) {
	peaks := []dsp.Peak{{T: 1, F: 10}, {T: 10, F: 20}, {T: 50, F: 30}, {T: 200, F: 5}}
	a := HashPeaks(peaks, 5, 100, 3)
	b := HashPeaks(peaks, 5, 100, 3)
	if len(a) != len(b) {
		t.Fatalf("non-deterministic length: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("non-deterministic hash at %d", i)
		}
	}
}

func TestHashPeaksRespectsTargetZone(t *testing.T) {
	peaks := []dsp.Peak{{T: 0, F: 10}, {T: 2, F: 11}, {T: 50, F: 12}, {T: 200, F: 13}}
	got := HashPeaks(peaks, 5, 100, 3)
	anchorPairs := 0
	for _, h := range got {
		if h.TAnchor != 0 {
			continue
		}
		anchorPairs++
	}
	// Only the T=50 partner (Δt=50, within [5,105]) should pair with the T=0
	// anchor; T=2 (Δt=2 < 5) and T=200 (Δt=200 > 105) must not.
	if anchorPairs != 1 {
		t.Fatalf("expected exactly one qualifying pair for the T=0 anchor, got %d", anchorPairs)
	}
}

func TestHashPeaksMaxPairsCap(t *testing.T) {
	peaks := []dsp.Peak{{T: 0, F: 1}}
	for t := 10; t < 10+10; t++ {
		peaks = append(peaks, dsp.Peak{T: t, F: t})
	}
	got := HashPeaks(peaks, 5, 100, 3)
	anchorCount := 0
	for _, h := range got {
		if h.TAnchor == 0 {
			anchorCount++
		}
	}
	if anchorCount > 3 {
		t.Fatalf("expected at most MAX_PAIRS=3 pairs for the anchor, got %d", anchorCount)
	}
}

func TestHDeterministic(t *testing.T) {
	if H(10, 20, 30) != H(10, 20, 30) {
		t.Fatal("H must be deterministic")
	}
	if H(10, 20, 30) == H(10, 20, 31) {
		t.Fatal("H should differ for different delta")
	}
}
