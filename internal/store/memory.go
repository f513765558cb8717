package store

import (
	"context"
	"sync"

	"github.com/resonantlabs/cadence/internal/features"
	"github.com/resonantlabs/cadence/internal/fingerprint"
)

// MemoryFingerprintStore is an in-process FingerprintStore used by unit
// tests and the single-process CLI; it provides the same atomicity and
// indexing guarantees the pgx-backed store provides over a real Postgres
// transaction.
type MemoryFingerprintStore struct {
	mu          sync.RWMutex
	byHash      map[uint64][]Posting
	byTrack     map[uint64][]uint64 // trackID -> hashes it owns, for delete
}

func NewMemoryFingerprintStore() *MemoryFingerprintStore {
	return &MemoryFingerprintStore{
		byHash:  make(map[uint64][]Posting),
		byTrack: make(map[uint64][]uint64),
	}
}

func (s *MemoryFingerprintStore) Insert(ctx context.Context, trackID uint64, hashes []fingerprint.Hash) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.deleteLocked(trackID)

	owned := make([]uint64, 0, len(hashes))
	for _, h := range hashes {
		s.byHash[h.Value] = append(s.byHash[h.Value], Posting{TrackID: trackID, TOffset: h.TAnchor})
		owned = append(owned, h.Value)
	}
	if len(owned) > 0 {
		s.byTrack[trackID] = owned
	}
	return nil
}

func (s *MemoryFingerprintStore) GetByHashes(ctx context.Context, hashes []uint64) (map[uint64][]Posting, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[uint64][]Posting)
	for _, h := range hashes {
		if postings, ok := s.byHash[h]; ok {
			out[h] = append([]Posting(nil), postings...)
		}
	}
	return out, nil
}

func (s *MemoryFingerprintStore) Delete(ctx context.Context, trackID uint64) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deleteLocked(trackID), nil
}

func (s *MemoryFingerprintStore) deleteLocked(trackID uint64) int {
	owned, ok := s.byTrack[trackID]
	if !ok {
		return 0
	}
	removed := 0
	for _, h := range owned {
		postings := s.byHash[h][:0]
		for _, p := range s.byHash[h] {
			if p.TrackID == trackID {
				removed++
				continue
			}
			postings = append(postings, p)
		}
		if len(postings) == 0 {
			delete(s.byHash, h)
		} else {
			s.byHash[h] = postings
		}
	}
	delete(s.byTrack, trackID)
	return removed
}

func (s *MemoryFingerprintStore) Count(ctx context.Context, trackID uint64) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byTrack[trackID]), nil
}

// MemoryFeatureStore is an in-process FeatureStore for tests and the CLI.
type MemoryFeatureStore struct {
	mu      sync.RWMutex
	vectors map[uint64][features.VectorLen]float32
}

func NewMemoryFeatureStore() *MemoryFeatureStore {
	return &MemoryFeatureStore{vectors: make(map[uint64][features.VectorLen]float32)}
}

func (s *MemoryFeatureStore) Upsert(ctx context.Context, trackID uint64, vector [features.VectorLen]float32) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.vectors[trackID] = vector
	return nil
}

func (s *MemoryFeatureStore) Get(ctx context.Context, trackID uint64) ([features.VectorLen]float32, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.vectors[trackID]
	return v, ok, nil
}

func (s *MemoryFeatureStore) LoadAll(ctx context.Context) (map[uint64][features.VectorLen]float32, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[uint64][features.VectorLen]float32, len(s.vectors))
	for k, v := range s.vectors {
		out[k] = v
	}
	return out, nil
}
