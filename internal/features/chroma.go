package features

import "math"

// referenceFreq anchors pitch-class 0 (C) near C0; only the fractional part
// of the pitch-class computation matters, so the exact octave is arbitrary.
const referenceFreq = 16.35160

// chromaMean folds spectral energy from every bin into one of 12 pitch
// classes (mod-12 semitone distance from referenceFreq) and averages across
// frames, returning a 12-bin distribution that sums to 1 (or is all-zero
// when the frame set carries no usable energy).
func chromaMean(frames [][]float64, sr, nFFT int) []float64 {
	chroma := make([]float64, numChroma)
	if len(frames) == 0 {
		return chroma
	}

	binHz := float64(sr) / float64(nFFT)
	for _, row := range frames {
		for bin, logMag := range row {
			freq := float64(bin) * binHz
			if freq < 20 {
				continue
			}
			mag := math.Expm1(logMag)
			if mag <= 0 {
				continue
			}
			pitchClass := int(math.Mod(12*math.Log2(freq/referenceFreq), 12))
			if pitchClass < 0 {
				pitchClass += 12
			}
			chroma[pitchClass] += mag
		}
	}

	normalizeSum(chroma)
	return chroma
}

// normalizeSum scales v so its entries sum to 1, leaving it untouched (all
// zero) when the total is non-positive.
func normalizeSum(v []float64) {
	var sum float64
	for _, x := range v {
		sum += x
	}
	if sum <= 0 {
		return
	}
	for i := range v {
		v[i] /= sum
	}
}
