package features

// zcrStats computes the zero-crossing rate per hop-sized frame of the raw
// waveform and returns its mean and standard deviation.
func zcrStats(samples []float64, sr, hop int) (mean, std float64) {
	if len(samples) < hop {
		return 0, 0
	}

	var rates []float64
	for start := 0; start+hop <= len(samples); start += hop {
		frame := samples[start : start+hop]
		var crossings int
		for i := 1; i < len(frame); i++ {
			if (frame[i] >= 0) != (frame[i-1] >= 0) {
				crossings++
			}
		}
		rates = append(rates, float64(crossings)/float64(len(frame)))
	}
	return meanStd(rates)
}
