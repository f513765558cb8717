// Package features computes the 55-dimensional perceptual feature vector
// used by the similarity path: chroma, MFCC statistics, spectral shape,
// spectral contrast, rhythm, and zero-crossing rate.
package features

import (
	"math"

	"github.com/resonantlabs/cadence/internal/dsp"
)

const (
	// VectorLen is the fixed length of every feature vector.
	VectorLen = 55

	numChroma       = 12
	numMFCC         = 13
	minDurationSec  = 2.0
	melFilterBanks  = 26
	contrastBands   = 7
	silenceEps      = 1e-9
)

// Vector computes the canonical 55-float32 feature vector for samples at sr.
// Degenerate input (empty, all-zero, or shorter than one FFT window) and a
// panic during extraction yield an all-zero vector rather than a panic or
// error, matching the "silent input" contract — callers detect the
// degenerate case via Norm(v) == 0. Individual NaN/Inf entries are scrubbed
// to zero.
func Vector(samples []float64, sr, nFFT, hop int) (v [VectorLen]float32) {
	defer func() {
		if recover() != nil {
			v = [VectorLen]float32{}
		}
	}()

	if len(samples) == 0 || allZero(samples) {
		return v
	}

	frames := dsp.Spectrogram(samples, nFFT, hop)
	if len(frames) == 0 {
		return v
	}

	durationSec := float64(len(samples)) / float64(sr)

	chromaMean := chromaMean(frames, sr, nFFT)
	mfccMean, mfccStd := mfccStats(frames, sr, nFFT)
	centroidMean, centroidStd, rolloffMean, rolloffStd, bandwidthMean, bandwidthStd := spectralShapeStats(frames, sr, nFFT)
	contrast := spectralContrast(frames)

	var tempo, rhythm float64
	if durationSec >= minDurationSec {
		tempo, rhythm = tempoAndRhythm(samples, sr)
	}

	zcrMean, zcrStd := zcrStats(samples, sr, hop)

	idx := 0
	idx = fill32(v[:], idx, chromaMean)
	idx = fill32(v[:], idx, mfccMean)
	idx = fill32(v[:], idx, mfccStd)
	idx = fill32(v[:], idx, []float64{centroidMean, centroidStd, rolloffMean, rolloffStd, bandwidthMean, bandwidthStd})
	idx = fill32(v[:], idx, contrast)
	idx = fill32(v[:], idx, []float64{tempo})
	idx = fill32(v[:], idx, []float64{rhythm})
	fill32(v[:], idx, []float64{zcrMean, zcrStd})

	scrub(v[:])
	return v
}

// Norm returns the L2 norm of a feature vector; zero means degenerate.
func Norm(v [VectorLen]float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}

func fill32(dst []float32, start int, values []float64) int {
	for i, x := range values {
		dst[start+i] = float32(x)
	}
	return start + len(values)
}

func scrub(v []float32) {
	for i, x := range v {
		if math.IsNaN(float64(x)) || math.IsInf(float64(x), 0) {
			v[i] = 0
		}
	}
}

func allZero(samples []float64) bool {
	for _, s := range samples {
		if s != 0 {
			return false
		}
	}
	return true
}
