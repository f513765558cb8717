package features

import "math"

// meanStd returns the mean and population standard deviation of values,
// both zero for an empty slice.
func meanStd(values []float64) (mean, std float64) {
	if len(values) == 0 {
		return 0, 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	mean = sum / float64(len(values))

	var sumSq float64
	for _, v := range values {
		d := v - mean
		sumSq += d * d
	}
	variance := sumSq / float64(len(values))
	if variance > 0 {
		std = math.Sqrt(variance)
	}
	return mean, std
}

// spectralShapeStats computes per-frame centroid, 85%-energy rolloff, and
// bandwidth (the energy-weighted spread around the centroid), then returns
// the mean and standard deviation of each across frames.
func spectralShapeStats(frames [][]float64, sr, nFFT int) (centroidMean, centroidStd, rolloffMean, rolloffStd, bandwidthMean, bandwidthStd float64) {
	if len(frames) == 0 {
		return
	}

	binHz := float64(sr) / float64(nFFT)
	centroids := make([]float64, len(frames))
	rolloffs := make([]float64, len(frames))
	bandwidths := make([]float64, len(frames))

	for t, row := range frames {
		var weightedSum, energySum float64
		for b, logMag := range row {
			mag := math.Expm1(logMag)
			energy := mag * mag
			freq := float64(b) * binHz
			weightedSum += freq * energy
			energySum += energy
		}

		centroid := 0.0
		if energySum > 0 {
			centroid = weightedSum / energySum
		}
		centroids[t] = centroid

		threshold := 0.85 * energySum
		roll := float64(len(row)-1) * binHz
		var cum float64
		for b, logMag := range row {
			mag := math.Expm1(logMag)
			cum += mag * mag
			if cum >= threshold {
				roll = float64(b) * binHz
				break
			}
		}
		rolloffs[t] = roll

		var spread float64
		if energySum > 0 {
			for b, logMag := range row {
				mag := math.Expm1(logMag)
				freq := float64(b) * binHz
				diff := freq - centroid
				spread += diff * diff * mag * mag
			}
			spread /= energySum
		}
		bandwidths[t] = math.Sqrt(spread)
	}

	centroidMean, centroidStd = meanStd(centroids)
	rolloffMean, rolloffStd = meanStd(rolloffs)
	bandwidthMean, bandwidthStd = meanStd(bandwidths)
	return
}
