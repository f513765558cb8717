package features

import "math"

// melFilterbank builds numFilters overlapping triangular filters spanning
// 20 Hz to Nyquist on the mel scale, grounded on the teacher-adjacent
// austinkregel analyzer's createMelFilterbank.
func melFilterbank(numFilters, nFFT, sr int) [][]float64 {
	hzToMel := func(hz float64) float64 { return 2595 * math.Log10(1+hz/700) }
	melToHz := func(mel float64) float64 { return 700 * (math.Pow(10, mel/2595) - 1) }

	bins := nFFT/2 + 1
	nyquist := float64(sr) / 2
	lowMel, highMel := hzToMel(20), hzToMel(nyquist)

	points := make([]int, numFilters+2)
	for i := range points {
		mel := lowMel + float64(i)*(highMel-lowMel)/float64(numFilters+1)
		points[i] = int(melToHz(mel) * float64(nFFT) / float64(sr))
	}

	filters := make([][]float64, numFilters)
	for i := range filters {
		filters[i] = make([]float64, bins)
		for b := points[i]; b < points[i+1] && b < bins; b++ {
			if points[i+1] != points[i] {
				filters[i][b] = float64(b-points[i]) / float64(points[i+1]-points[i])
			}
		}
		for b := points[i+1]; b < points[i+2] && b < bins; b++ {
			if points[i+2] != points[i+1] {
				filters[i][b] = float64(points[i+2]-b) / float64(points[i+2]-points[i+1])
			}
		}
	}
	return filters
}

// mfccStats applies a mel filterbank followed by a DCT-II to each frame,
// then returns the mean and standard deviation of each of the 13
// coefficients across all frames.
func mfccStats(frames [][]float64, sr, nFFT int) (mean, std []float64) {
	mean = make([]float64, numMFCC)
	std = make([]float64, numMFCC)
	if len(frames) == 0 {
		return mean, std
	}

	filters := melFilterbank(melFilterBanks, nFFT, sr)
	coeffs := make([][]float64, len(frames))

	for t, row := range frames {
		melEnergies := make([]float64, melFilterBanks)
		for i, filt := range filters {
			var e float64
			for b, w := range filt {
				if w == 0 || b >= len(row) {
					continue
				}
				mag := math.Expm1(row[b])
				e += mag * mag * w
			}
			if e < 1e-10 {
				e = 1e-10
			}
			melEnergies[i] = math.Log(e)
		}

		mfcc := make([]float64, numMFCC)
		for i := range mfcc {
			var sum float64
			for j, e := range melEnergies {
				sum += e * math.Cos(math.Pi*float64(i)*(float64(j)+0.5)/float64(melFilterBanks))
			}
			mfcc[i] = sum
		}
		coeffs[t] = mfcc
	}

	for i := 0; i < numMFCC; i++ {
		values := make([]float64, len(coeffs))
		for t, c := range coeffs {
			values[t] = c[i]
		}
		mean[i], std[i] = meanStd(values)
	}
	return mean, std
}
