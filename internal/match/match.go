// Package match answers exact-match recognition queries by voting query
// hashes against a FingerprintStore's postings — the time-offset histogram
// described in spec.md §4.F.
package match

import (
	"context"
	"math/rand"
	"sort"
	"time"

	"github.com/resonantlabs/cadence/internal/fingerprint"
	"github.com/resonantlabs/cadence/internal/store"
	"github.com/resonantlabs/cadence/internal/xerr"
)

// Candidate is one ranked track produced by a query.
type Candidate struct {
	TrackID     uint64
	Score       int
	Probability float64
}

// Matcher votes a set of query hashes against a FingerprintStore.
type Matcher struct {
	store    store.FingerprintStore
	minVotes int
	kMax     int
}

// New builds a Matcher. minVotes rejects weak candidates as no-match; kMax
// bounds how many ranked candidates are returned and normalized over.
func New(s store.FingerprintStore, minVotes, kMax int) *Matcher {
	return &Matcher{store: s, minVotes: minVotes, kMax: kMax}
}

// Match extracts the set of query hashes, looks up postings (retrying
// transient store failures), and for each (track_id, Δ) pair keeps the
// tallest vote. A true match produces a sharp spike at one Δ; spurious hash
// coincidences spread across many Δs, so the spike height is the score.
//
// Returns nil (no error) for an empty query, an empty store, or a query
// whose best score falls under minVotes — all three read as "no match",
// not a failure.
func (m *Matcher) Match(ctx context.Context, queryHashes []fingerprint.Hash) ([]Candidate, error) {
	if len(queryHashes) == 0 {
		return nil, nil
	}

	values := uniqueValues(queryHashes)
	postings, err := m.getByHashesWithRetry(ctx, values)
	if err != nil {
		return nil, err
	}
	if len(postings) == 0 {
		return nil, nil
	}

	type voteKey struct {
		trackID uint64
		delta   int64
	}
	votes := make(map[voteKey]int)
	for _, qh := range queryHashes {
		for _, p := range postings[qh.Value] {
			k := voteKey{trackID: p.TrackID, delta: int64(p.TOffset) - int64(qh.TAnchor)}
			votes[k]++
		}
	}

	best := make(map[uint64]int)
	for k, count := range votes {
		if count > best[k.trackID] {
			best[k.trackID] = count
		}
	}

	candidates := make([]Candidate, 0, len(best))
	for trackID, score := range best {
		candidates = append(candidates, Candidate{TrackID: trackID, Score: score})
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].Score != candidates[j].Score {
			return candidates[i].Score > candidates[j].Score
		}
		return candidates[i].TrackID < candidates[j].TrackID
	})

	if len(candidates) > m.kMax {
		candidates = candidates[:m.kMax]
	}
	if len(candidates) == 0 || candidates[0].Score < m.minVotes {
		return nil, nil
	}

	var total float64
	for _, c := range candidates {
		total += float64(c.Score)
	}
	for i := range candidates {
		candidates[i].Probability = float64(candidates[i].Score) / total
	}
	return candidates, nil
}

func uniqueValues(hashes []fingerprint.Hash) []uint64 {
	seen := make(map[uint64]struct{}, len(hashes))
	values := make([]uint64, 0, len(hashes))
	for _, h := range hashes {
		if _, ok := seen[h.Value]; !ok {
			seen[h.Value] = struct{}{}
			values = append(values, h.Value)
		}
	}
	return values
}

// getByHashesWithRetry implements spec.md §7's StoreUnavailable policy:
// up to 3 attempts, 100ms base backoff, doubling, ±25% jitter.
func (m *Matcher) getByHashesWithRetry(ctx context.Context, values []uint64) (map[uint64][]store.Posting, error) {
	const maxAttempts = 3
	const base = 100 * time.Millisecond

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		postings, err := m.store.GetByHashes(ctx, values)
		if err == nil {
			return postings, nil
		}
		lastErr = err
		if attempt == maxAttempts-1 {
			break
		}

		backoff := base * time.Duration(uint64(1)<<uint(attempt))
		jitter := time.Duration((rand.Float64()*0.5 - 0.25) * float64(backoff))
		select {
		case <-time.After(backoff + jitter):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return nil, xerr.New(xerr.KindStoreUnavailable, lastErr)
}
