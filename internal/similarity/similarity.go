// Package similarity ranks tracks by weighted cosine distance over their
// 55-dimensional feature vectors, and folds per-user listening history into
// weighted recommendations.
package similarity

import (
	"context"
	"math"
	"sort"
	"sync/atomic"

	"github.com/resonantlabs/cadence/internal/features"
)

// Weight applies spec.md §4.G's per-slice weight table element-wise before
// the cosine dot product: chroma and spectral contrast dominate timbral
// similarity, rhythm and ZCR barely move it.
var Weight = buildWeights()

func buildWeights() [features.VectorLen]float64 {
	var w [features.VectorLen]float64
	fill := func(lo, hi int, v float64) {
		for i := lo; i <= hi; i++ {
			w[i] = v
		}
	}
	fill(0, 11, 3.0)  // chroma
	fill(12, 24, 1.5) // MFCC mean
	fill(25, 37, 0.8) // MFCC std
	fill(38, 43, 1.0) // spectral centroid/rolloff/bandwidth
	fill(44, 50, 2.0) // spectral contrast
	fill(51, 52, 0.3) // tempo, rhythm
	fill(53, 54, 0.2) // ZCR
	return w
}

// Ranked is one scored track produced by TopSimilar.
type Ranked struct {
	TrackID    uint64
	Similarity float64
}

// Engine holds a read-mostly snapshot of every track's feature vector. The
// snapshot is swapped atomically by Reload so concurrent readers never see
// a half-updated map, mirroring the copy-on-write pattern the source's
// process-global feature cache approximated with a boolean "loaded" flag.
type Engine struct {
	snapshot atomic.Pointer[map[uint64][features.VectorLen]float32]
}

// FeatureLoader is the subset of store.FeatureStore the Engine needs to
// (re)prime its snapshot.
type FeatureLoader interface {
	LoadAll(ctx context.Context) (map[uint64][features.VectorLen]float32, error)
}

// New builds an Engine with an empty snapshot; call Reload to prime it.
func New() *Engine {
	e := &Engine{}
	empty := make(map[uint64][features.VectorLen]float32)
	e.snapshot.Store(&empty)
	return e
}

// Reload replaces the snapshot wholesale by scanning loader, used once at
// process start and again only on an explicit admin invalidation.
func (e *Engine) Reload(ctx context.Context, loader FeatureLoader) error {
	m, err := loader.LoadAll(ctx)
	if err != nil {
		return err
	}
	e.snapshot.Store(&m)
	return nil
}

// Put installs or replaces a single track's vector in the live snapshot
// without a full Reload, used after ingesting one new track.
func (e *Engine) Put(trackID uint64, vector [features.VectorLen]float32) {
	old := *e.snapshot.Load()
	next := make(map[uint64][features.VectorLen]float32, len(old)+1)
	for k, v := range old {
		next[k] = v
	}
	next[trackID] = vector
	e.snapshot.Store(&next)
}

// TopSimilar ranks every track in the snapshot against seedID's vector by
// weighted cosine similarity, excluding the seed itself, and returns the
// top n. Ties break by ascending track_id for determinism.
func (e *Engine) TopSimilar(seedID uint64, n int) []Ranked {
	m := *e.snapshot.Load()
	seed, ok := m[seedID]
	if !ok {
		return nil
	}
	return rankAgainst(seed, m, map[uint64]struct{}{seedID: {}}, n)
}

// SimilarTo ranks every track in the snapshot against an arbitrary query
// vector (not necessarily a stored track), used by the Orchestrator's
// fallback recognition path.
func (e *Engine) SimilarTo(query [features.VectorLen]float32, n int) []Ranked {
	m := *e.snapshot.Load()
	return rankAgainst(query, m, nil, n)
}

func rankAgainst(seed [features.VectorLen]float32, pool map[uint64][features.VectorLen]float32, exclude map[uint64]struct{}, n int) []Ranked {
	out := make([]Ranked, 0, len(pool))
	for trackID, v := range pool {
		if _, skip := exclude[trackID]; skip {
			continue
		}
		out = append(out, Ranked{TrackID: trackID, Similarity: Cosine(seed, v)})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Similarity != out[j].Similarity {
			return out[i].Similarity > out[j].Similarity
		}
		return out[i].TrackID < out[j].TrackID
	})
	if n >= 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// Cosine computes the weighted cosine similarity between two feature
// vectors, per spec.md §4.G: sim(a,b) = ((W⊙a)·(W⊙b)) / (‖W⊙a‖·‖W⊙b‖),
// defined as 0 when either weighted norm is 0.
func Cosine(a, b [features.VectorLen]float32) float64 {
	var dot, normA, normB float64
	for i := 0; i < features.VectorLen; i++ {
		wa := Weight[i] * float64(a[i])
		wb := Weight[i] * float64(b[i])
		dot += wa * wb
		normA += wa * wa
		normB += wb * wb
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// Softmax applies temperature-scaled softmax to a slice of similarity
// scores, per spec.md §4.H step 4's calibrated-probability requirement.
func Softmax(scores []float64, temperature float64) []float64 {
	out := make([]float64, len(scores))
	if len(scores) == 0 {
		return out
	}
	max := scores[0]
	for _, s := range scores[1:] {
		if s > max {
			max = s
		}
	}
	var sum float64
	for i, s := range scores {
		e := math.Exp((s - max) / temperature)
		out[i] = e
		sum += e
	}
	if sum == 0 {
		return out
	}
	for i := range out {
		out[i] /= sum
	}
	return out
}
