package fingerprint

import "github.com/resonantlabs/cadence/internal/dsp"

// HashWindows chunks a long recording's peaks into overlapping windows
// before hashing, so an entire track's worth of peaks doesn't all fall into
// a single unbounded target-zone scan. windowFrames and hopFrames are
// expressed in spectrogram frame counts. This supplements the single-pass
// HashPeaks used for short query clips; ingest.Pipeline uses this instead
// when its WindowFrames and HopFrames are both set, so early and late
// sections of a track both get a fair share of target-zone pairs.
func HashWindows(peaks []dsp.Peak, windowFrames, hopFrames, zoneStart, zoneWidth, maxPairs int) []Hash {
	if len(peaks) == 0 || windowFrames <= 0 {
		return []Hash{}
	}

	maxT := 0
	for _, p := range peaks {
		if p.T > maxT {
			maxT = p.T
		}
	}

	seen := make(map[uint64]struct{})
	var out []Hash

	for start := 0; start <= maxT; start += hopFrames {
		end := start + windowFrames
		var window []dsp.Peak
		for _, p := range peaks {
			if p.T >= start && p.T < end {
				window = append(window, p)
			}
		}
		for _, h := range HashPeaks(window, zoneStart, zoneWidth, maxPairs) {
			key := h.Value ^ uint64(h.TAnchor)<<1
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, h)
		}
		if hopFrames <= 0 {
			break
		}
	}

	if out == nil {
		out = []Hash{}
	}
	return out
}
