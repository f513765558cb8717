// Package fingerprint pairs spectrogram peaks inside a target zone and
// emits deterministic hashes — the constellation fingerprint used by the
// exact-match path.
package fingerprint

import (
	"sort"

	"github.com/resonantlabs/cadence/internal/dsp"
)

// Hash is a fingerprint record: a 64-bit opaque hash paired with the
// anchor's frame index.
type Hash struct {
	Value   uint64
	TAnchor uint32
}

// HashPeaks sorts peaks by time and, for each anchor peak, pairs it with up
// to maxPairs following peaks whose time delta falls in
// [zoneStart, zoneStart+zoneWidth]. H is a pure function of (f1, f2, Δt): the
// same triple always produces the same hash, and hash_peaks is therefore a
// pure function of its input peak set.
//
// Fewer than two peaks yields an empty list.
func HashPeaks(peaks []dsp.Peak, zoneStart, zoneWidth, maxPairs int) []Hash {
	if len(peaks) < 2 {
		return []Hash{}
	}

	sorted := make([]dsp.Peak, len(peaks))
	copy(sorted, peaks)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].T != sorted[j].T {
			return sorted[i].T < sorted[j].T
		}
		return sorted[i].F < sorted[j].F
	})

	zoneEnd := zoneStart + zoneWidth
	hashes := make([]Hash, 0, len(sorted)*maxPairs)

	for i, anchor := range sorted {
		pairs := 0
		for j := i + 1; j < len(sorted) && pairs < maxPairs; j++ {
			target := sorted[j]
			dt := target.T - anchor.T
			if dt < zoneStart {
				continue
			}
			if dt > zoneEnd {
				break
			}
			hashes = append(hashes, Hash{
				Value:   H(anchor.F, target.F, dt),
				TAnchor: uint32(anchor.T),
			})
			pairs++
		}
	}

	return hashes
}

// H packs (f1, f2, Δt) into a 64-bit opaque value. The packing keeps the
// full bin range for both frequencies and 16 bits for the time delta, which
// comfortably covers ZONE_WIDTH. Collision probability over realistic
// catalogs stays far below 2⁻⁴⁰ because the packing is lossless for every
// value the pipeline actually produces.
func H(f1, f2, deltaT int) uint64 {
	return (uint64(uint32(f1)) << 30) | (uint64(uint32(f2)) << 16) | uint64(uint32(deltaT)&0xFFFF)
}
