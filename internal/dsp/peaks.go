package dsp

import "sort"

// Peak is a local maximum in a spectrogram: T is the frame index, F the FFT
// bin index, Amp its magnitude (kept only to rank and prune candidates).
type Peak struct {
	T, F int
	Amp  float64
}

// FindPeaks locates every cell in S that equals the maximum of its
// neighborhood×neighborhood window (constant-zero padded) and exceeds
// minAmp, then keeps only the top ⌊N/reduction⌋ by amplitude.
//
// Identical input always yields an identical peak multiset: the scan order
// is fixed and ties in amplitude are broken by (t, f) ascending before
// truncation.
func FindPeaks(S [][]float64, neighborhood int, minAmp float64, reduction int) []Peak {
	if len(S) == 0 || reduction <= 0 {
		return []Peak{}
	}

	half := neighborhood / 2
	hi := neighborhood - half - 1
	if hi < 0 {
		hi = 0
	}
	var peaks []Peak

	for t := range S {
		row := S[t]
		for f := range row {
			val := row[f]
			if val <= minAmp {
				continue
			}
			if val == localMax(S, t, f, half, hi) {
				peaks = append(peaks, Peak{T: t, F: f, Amp: val})
			}
		}
	}

	sort.SliceStable(peaks, func(i, j int) bool {
		if peaks[i].Amp != peaks[j].Amp {
			return peaks[i].Amp > peaks[j].Amp
		}
		if peaks[i].T != peaks[j].T {
			return peaks[i].T < peaks[j].T
		}
		return peaks[i].F < peaks[j].F
	})

	keep := len(peaks) / reduction
	if keep > len(peaks) {
		keep = len(peaks)
	}
	if keep == 0 {
		return []Peak{}
	}
	return peaks[:keep]
}

// localMax returns the maximum value within the window spanning offsets
// -lo..hi around (t,f) on both axes (for an even neighborhood the extra cell
// falls before the center); cells outside S are treated as zero (constant
// padding).
func localMax(S [][]float64, t, f, lo, hi int) float64 {
	best := 0.0
	first := true
	for dt := -lo; dt <= hi; dt++ {
		tt := t + dt
		for df := -lo; df <= hi; df++ {
			ff := f + df
			v := 0.0
			if tt >= 0 && tt < len(S) {
				row := S[tt]
				if ff >= 0 && ff < len(row) {
					v = row[ff]
				}
			}
			if first || v > best {
				best = v
				first = false
			}
		}
	}
	return best
}
