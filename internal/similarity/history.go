package similarity

import "sort"

// History is a user's past recognized tracks, ordered newest-first, used by
// RecommendForUser to weight each seed's recommendations by recency.
type History []uint64

// RecommendForUser implements spec.md §4.G's recommend_for_user: each
// history position i contributes weight len(history)-i (or 1 if timeWeight
// is false) to every track its top-10 similar set surfaces; weights
// accumulate per candidate across all seeds, heard tracks are excluded, and
// the result is the top n candidates by summed weight (carried in
// Ranked.Similarity), ties broken by ascending track_id.
func (e *Engine) RecommendForUser(history History, n int, timeWeight bool) []Ranked {
	heard := make(map[uint64]struct{}, len(history))
	for _, id := range history {
		heard[id] = struct{}{}
	}

	const perSeedTopN = 10
	scores := make(map[uint64]float64)
	for i, seedID := range history {
		weight := 1.0
		if timeWeight {
			weight = float64(len(history) - i)
		}
		for _, r := range e.TopSimilar(seedID, perSeedTopN) {
			if _, isHeard := heard[r.TrackID]; isHeard {
				continue
			}
			scores[r.TrackID] += weight
		}
	}

	out := make([]Ranked, 0, len(scores))
	for trackID, score := range scores {
		out = append(out, Ranked{TrackID: trackID, Similarity: score})
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
