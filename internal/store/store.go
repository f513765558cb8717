// Package store persists the two per-track collections the recognition core
// owns: constellation hash postings (FingerprintStore) and perceptual
// feature vectors (FeatureStore).
package store

import (
	"context"

	"github.com/resonantlabs/cadence/internal/features"
	"github.com/resonantlabs/cadence/internal/fingerprint"
)

// Posting is one stored occurrence of a hash: the track it came from and
// the frame offset its anchor peak sat at.
type Posting struct {
	TrackID uint64
	TOffset uint32
}

// FingerprintStore owns every track's constellation hash postings. Insert
// is atomic per track: old postings are fully gone before new ones are
// queryable (spec.md §3's Ownership invariant).
type FingerprintStore interface {
	Insert(ctx context.Context, trackID uint64, hashes []fingerprint.Hash) error
	GetByHashes(ctx context.Context, hashes []uint64) (map[uint64][]Posting, error)
	Delete(ctx context.Context, trackID uint64) (int, error)
	Count(ctx context.Context, trackID uint64) (int, error)
}

// FeatureStore owns exactly one feature vector per track, upsert semantics.
type FeatureStore interface {
	Upsert(ctx context.Context, trackID uint64, vector [features.VectorLen]float32) error
	Get(ctx context.Context, trackID uint64) ([features.VectorLen]float32, bool, error)
	LoadAll(ctx context.Context) (map[uint64][features.VectorLen]float32, error)
}
