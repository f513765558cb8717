package match

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/resonantlabs/cadence/internal/fingerprint"
	"github.com/resonantlabs/cadence/internal/store"
)

func TestMatchEmptyQueryReturnsNoMatch(t *testing.T) {
	m := New(store.NewMemoryFingerprintStore(), 5, 5)
	got, err := m.Match(context.Background(), nil)
	if err != nil || got != nil {
		t.Fatalf("Match(nil) = %v, %v, want nil, nil", got, err)
	}
}

func TestMatchSharpSpikeWins(t *testing.T) {
	s := store.NewMemoryFingerprintStore()
	ctx := context.Background()

	// track 1: anchors at 100, 110, 120 -> the query's 0, 10, 20 shifted by a constant delta of 100
	track1 := []fingerprint.Hash{{Value: 1, TAnchor: 100}, {Value: 2, TAnchor: 110}, {Value: 3, TAnchor: 120}}
	_ = s.Insert(ctx, 1, track1)

	// track 2: same hash values but scattered offsets, no consistent delta
	track2 := []fingerprint.Hash{{Value: 1, TAnchor: 5}, {Value: 2, TAnchor: 999}, {Value: 3, TAnchor: 42}}
	_ = s.Insert(ctx, 2, track2)

	query := []fingerprint.Hash{{Value: 1, TAnchor: 0}, {Value: 2, TAnchor: 10}, {Value: 3, TAnchor: 20}}

	m := New(s, 3, 5)
	got, err := m.Match(ctx, query)
	if err != nil {
		t.Fatalf("Match: %v", err)
	}
	if len(got) == 0 || got[0].TrackID != 1 {
		t.Fatalf("Match = %+v, want track 1 first", got)
	}
	if got[0].Score != 3 {
		t.Errorf("top score = %d, want 3", got[0].Score)
	}
}

func TestMatchRejectsBelowMinVotes(t *testing.T) {
	s := store.NewMemoryFingerprintStore()
	ctx := context.Background()
	_ = s.Insert(ctx, 1, []fingerprint.Hash{{Value: 1, TAnchor: 100}})

	m := New(s, 5, 5)
	got, err := m.Match(ctx, []fingerprint.Hash{{Value: 1, TAnchor: 0}})
	if err != nil || got != nil {
		t.Fatalf("Match below MIN_VOTES = %v, %v, want nil, nil", got, err)
	}
}

func TestMatchProbabilitiesSumToOneOverTopN(t *testing.T) {
	s := store.NewMemoryFingerprintStore()
	ctx := context.Background()
	_ = s.Insert(ctx, 1, []fingerprint.Hash{{Value: 1, TAnchor: 0}, {Value: 2, TAnchor: 1}, {Value: 3, TAnchor: 2}})
	_ = s.Insert(ctx, 2, []fingerprint.Hash{{Value: 1, TAnchor: 50}, {Value: 2, TAnchor: 51}})

	query := []fingerprint.Hash{{Value: 1, TAnchor: 0}, {Value: 2, TAnchor: 1}, {Value: 3, TAnchor: 2}}
	m := New(s, 2, 5)
	got, err := m.Match(ctx, query)
	if err != nil {
		t.Fatalf("Match: %v", err)
	}
	var total float64
	for _, c := range got {
		total += c.Probability
	}
	if total < 0.999 || total > 1.001 {
		t.Errorf("probabilities sum = %v, want ~1.0", total)
	}
}

func TestMatchRanksByScoreThenTrackID(t *testing.T) {
	s := store.NewMemoryFingerprintStore()
	ctx := context.Background()
	_ = s.Insert(ctx, 5, []fingerprint.Hash{{Value: 1, TAnchor: 0}, {Value: 2, TAnchor: 1}})
	_ = s.Insert(ctx, 3, []fingerprint.Hash{{Value: 1, TAnchor: 0}, {Value: 2, TAnchor: 1}})

	query := []fingerprint.Hash{{Value: 1, TAnchor: 0}, {Value: 2, TAnchor: 1}}
	m := New(s, 2, 5)
	got, err := m.Match(ctx, query)
	if err != nil {
		t.Fatalf("Match: %v", err)
	}
	if len(got) != 2 || got[0].TrackID != 3 || got[1].TrackID != 5 {
		t.Fatalf("tie-break order = %+v, want track 3 then 5", got)
	}
}

// failingStore always errors, to exercise the retry/backoff path.
type failingStore struct {
	calls atomic.Int32
}

func (f *failingStore) Insert(ctx context.Context, trackID uint64, hashes []fingerprint.Hash) error {
	return nil
}
func (f *failingStore) GetByHashes(ctx context.Context, hashes []uint64) (map[uint64][]store.Posting, error) {
	f.calls.Add(1)
	return nil, errors.New("connection refused")
}
func (f *failingStore) Delete(ctx context.Context, trackID uint64) (int, error) { return 0, nil }
func (f *failingStore) Count(ctx context.Context, trackID uint64) (int, error)  { return 0, nil }

func TestMatchRetriesThenClassifiesStoreUnavailable(t *testing.T) {
	fs := &failingStore{}
	m := New(fs, 5, 5)
	_, err := m.Match(context.Background(), []fingerprint.Hash{{Value: 1, TAnchor: 0}})
	if err == nil {
		t.Fatal("expected an error from a permanently failing store")
	}
	if fs.calls.Load() != 3 {
		t.Errorf("GetByHashes called %d times, want 3 attempts", fs.calls.Load())
	}
}
