package features

import (
	"math"
	"sort"
)

// spectralContrast splits each frame's bins into 6 logarithmically spaced
// bands (roughly octave-shaped, independent of sample rate) plus one
// overall summary, and for each reports log(peak/valley) energy averaged
// across frames — sharp peak-valley separation indicates a harmonic,
// tonal band; a flat one indicates noise.
func spectralContrast(frames [][]float64) []float64 {
	out := make([]float64, contrastBands)
	if len(frames) == 0 || len(frames[0]) < 2 {
		return out
	}

	bins := len(frames[0])
	numBands := contrastBands - 1
	edges := logBinEdges(bins, numBands)

	bandSums := make([]float64, numBands)
	for _, row := range frames {
		for band := 0; band < numBands; band++ {
			bandSums[band] += bandPeakValley(row, edges[band], edges[band+1])
		}
	}

	n := float64(len(frames))
	var overall float64
	for i := range bandSums {
		out[i] = bandSums[i] / n
		overall += out[i]
	}
	out[numBands] = overall / float64(numBands)
	return out
}

// logBinEdges divides [1, bins) into numBands log-spaced segments.
func logBinEdges(bins, numBands int) []int {
	edges := make([]int, numBands+1)
	edges[0] = 1
	logMin := math.Log(2)
	logMax := math.Log(float64(bins))
	for i := 1; i <= numBands; i++ {
		frac := float64(i) / float64(numBands)
		edges[i] = int(math.Exp(logMin + frac*(logMax-logMin)))
		if edges[i] <= edges[i-1] {
			edges[i] = edges[i-1] + 1
		}
		if edges[i] > bins {
			edges[i] = bins
		}
	}
	return edges
}

// bandPeakValley returns log(peak/valley) for the magnitudes in row[lo:hi),
// using the mean of the bottom/top 20% of sorted magnitudes as valley/peak
// so a single outlier bin can't dominate.
func bandPeakValley(row []float64, lo, hi int) float64 {
	if hi > len(row) {
		hi = len(row)
	}
	if hi <= lo || lo >= len(row) {
		return 0
	}

	band := make([]float64, 0, hi-lo)
	for _, logMag := range row[lo:hi] {
		band = append(band, math.Expm1(logMag))
	}
	sort.Float64s(band)

	k := int(0.2 * float64(len(band)))
	if k < 1 {
		k = 1
	}
	if k > len(band) {
		k = len(band)
	}

	var valley, peak float64
	for _, v := range band[:k] {
		valley += v
	}
	valley /= float64(k)
	for _, v := range band[len(band)-k:] {
		peak += v
	}
	peak /= float64(k)

	if valley <= 0 {
		valley = 1e-10
	}
	if peak <= 0 {
		peak = 1e-10
	}
	return math.Log(peak / valley)
}
