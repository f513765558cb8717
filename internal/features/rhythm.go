package features

import "math"

const (
	onsetHop = 1024
	// rhythmEps keeps rhythm consistency finite when beat spacing is
	// perfectly regular (std == 0).
	rhythmEps = 1e-6
)

// tempoAndRhythm estimates BPM and a rhythm-consistency score from the
// audio's onset envelope via autocorrelation, grounded on the
// austinkregel analyzer's estimateTempo. Callers only invoke this once
// duration >= minDurationSec; shorter clips keep both slots at zero.
func tempoAndRhythm(samples []float64, sr int) (tempo, rhythm float64) {
	onsets := onsetEnvelope(samples)
	if len(onsets) < 10 {
		return 0, 0
	}

	hopDur := float64(onsetHop) / float64(sr)
	minLag := int(60.0 / 200.0 / hopDur) // 200 BPM ceiling
	maxLag := int(60.0 / 60.0 / hopDur)  // 60 BPM floor
	if maxLag >= len(onsets) {
		maxLag = len(onsets) - 1
	}
	if minLag < 1 {
		minLag = 1
	}
	if maxLag <= minLag {
		return 0, 0
	}

	bestLag, bestCorr := minLag, 0.0
	for lag := minLag; lag <= maxLag; lag++ {
		var corr float64
		for i := 0; i+lag < len(onsets); i++ {
			corr += onsets[i] * onsets[i+lag]
		}
		if corr > bestCorr {
			bestCorr, bestLag = corr, lag
		}
	}

	tempo = 60.0 / (float64(bestLag) * hopDur)
	if tempo < 60 {
		tempo = 60
	}
	if tempo > 200 {
		tempo = 200
	}

	intervals := beatIntervals(onsets, bestLag, hopDur)
	_, std := meanStd(intervals)
	rhythm = 1.0 / (std + rhythmEps)
	return tempo, rhythm
}

// onsetEnvelope is a cheap proxy for spectral-flux onset strength: the
// positive frame-to-frame change in short-time RMS energy.
func onsetEnvelope(samples []float64) []float64 {
	if len(samples) < onsetHop*2 {
		return nil
	}
	var prevEnergy float64
	onsets := make([]float64, 0, len(samples)/onsetHop)
	for start := 0; start+onsetHop <= len(samples); start += onsetHop {
		var energy float64
		for _, s := range samples[start : start+onsetHop] {
			energy += s * s
		}
		energy = math.Sqrt(energy)
		diff := energy - prevEnergy
		if diff < 0 {
			diff = 0
		}
		onsets = append(onsets, diff)
		prevEnergy = energy
	}
	return onsets
}

// beatIntervals assumes a constant beat period of `period` onset frames,
// finds the strongest onset within each period-sized window (the likely
// beat), and returns the gaps between consecutive beat timestamps — the
// signal rhythm consistency is derived from.
func beatIntervals(onsets []float64, period int, hopDur float64) []float64 {
	if period <= 0 {
		return nil
	}

	var beatTimes []float64
	for i := 0; i < len(onsets); i += period {
		end := i + period
		if end > len(onsets) {
			end = len(onsets)
		}
		best, bestVal := i, onsets[i]
		for j := i; j < end; j++ {
			if onsets[j] > bestVal {
				best, bestVal = j, onsets[j]
			}
		}
		beatTimes = append(beatTimes, float64(best)*hopDur)
	}

	if len(beatTimes) < 2 {
		return nil
	}
	intervals := make([]float64, 0, len(beatTimes)-1)
	for i := 1; i < len(beatTimes); i++ {
		intervals = append(intervals, beatTimes[i]-beatTimes[i-1])
	}
	return intervals
}
