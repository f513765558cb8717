package similarity

import (
	"context"
	"math"
	"testing"

	"github.com/resonantlabs/cadence/internal/features"
)

func vec(fill float32) [features.VectorLen]float32 {
	var v [features.VectorLen]float32
	for i := range v {
		v[i] = fill
	}
	return v
}

func TestCosineIdenticalVectorsIsOne(t *testing.T) {
	a := vec(0.5)
	got := Cosine(a, a)
	if math.Abs(got-1.0) > 1e-9 {
		t.Errorf("Cosine(a,a) = %v, want 1.0", got)
	}
}

func TestCosineZeroVectorIsZero(t *testing.T) {
	a := vec(0)
	b := vec(1)
	if got := Cosine(a, b); got != 0 {
		t.Errorf("Cosine(zero, b) = %v, want 0", got)
	}
}

type staticLoader map[uint64][features.VectorLen]float32

func (s staticLoader) LoadAll(ctx context.Context) (map[uint64][features.VectorLen]float32, error) {
	return map[uint64][features.VectorLen]float32(s), nil
}

func TestTopSimilarExcludesSeedAndRanks(t *testing.T) {
	e := New()
	// Cosine ignores scale, so the vectors differ in direction: track 2 is
	// close to the seed (≈0.9939), track 3 is orthogonal to it (0).
	var seed, near, orthogonal [features.VectorLen]float32
	seed[0] = 1
	near[0], near[1] = 0.9, 0.1
	orthogonal[1] = 1
	loader := staticLoader{
		1: seed,
		2: near,
		3: orthogonal,
	}
	if err := e.Reload(context.Background(), loader); err != nil {
		t.Fatalf("Reload: %v", err)
	}

	got := e.TopSimilar(1, 5)
	if len(got) != 2 {
		t.Fatalf("TopSimilar len = %d, want 2 (seed excluded)", len(got))
	}
	if got[0].TrackID != 2 || got[1].TrackID != 3 {
		t.Errorf("order = %+v, want [2,3]", got)
	}
}

func TestTopSimilarUnknownSeedReturnsNil(t *testing.T) {
	e := New()
	if got := e.TopSimilar(999, 5); got != nil {
		t.Errorf("TopSimilar(unknown) = %v, want nil", got)
	}
}

func TestTopSimilarTieBreaksByAscendingTrackID(t *testing.T) {
	e := New()
	loader := staticLoader{
		1: vec(1.0),
		5: vec(0.5),
		3: vec(0.5),
	}
	_ = e.Reload(context.Background(), loader)

	got := e.TopSimilar(1, 5)
	if len(got) != 2 || got[0].TrackID != 3 || got[1].TrackID != 5 {
		t.Errorf("tie order = %+v, want [3,5]", got)
	}
}

func TestPutInsertsWithoutFullReload(t *testing.T) {
	e := New()
	e.Put(1, vec(1.0))
	e.Put(2, vec(1.0))
	got := e.TopSimilar(1, 5)
	if len(got) != 1 || got[0].TrackID != 2 {
		t.Fatalf("TopSimilar after Put = %+v, want [track 2]", got)
	}
}

func TestSoftmaxSumsToOne(t *testing.T) {
	out := Softmax([]float64{0.9, 0.5, 0.3}, 0.05)
	var sum float64
	for _, p := range out {
		sum += p
	}
	if math.Abs(sum-1.0) > 1e-9 {
		t.Errorf("Softmax sums to %v, want 1.0", sum)
	}
	if out[0] <= out[1] || out[1] <= out[2] {
		t.Errorf("Softmax did not preserve order: %v", out)
	}
}

func TestSoftmaxEmptyInput(t *testing.T) {
	if out := Softmax(nil, 0.05); len(out) != 0 {
		t.Errorf("Softmax(nil) = %v, want empty", out)
	}
}

func TestRecommendForUserExcludesHeardAndWeightsByRecency(t *testing.T) {
	e := New()
	loader := staticLoader{
		10: vec(1.0), // seed, most recent
		20: vec(1.0), // seed, older
		30: vec(0.95),
		40: vec(0.2),
	}
	_ = e.Reload(context.Background(), loader)

	history := History{10, 20} // 10 newest
	got := e.RecommendForUser(history, 5, true)

	for _, r := range got {
		if r.TrackID == 10 || r.TrackID == 20 {
			t.Errorf("RecommendForUser returned a heard track: %+v", r)
		}
	}
	if len(got) == 0 || got[0].TrackID != 30 {
		t.Errorf("top recommendation = %+v, want track 30 first", got)
	}
}
