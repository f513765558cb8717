package dsp

import "math/cmplx"

// Spectrogram computes log1p(|STFT|) of a mono waveform using a Hann window,
// returning S[t][f]: one row per frame, N_FFT/2+1 magnitude bins per row
// (the Nyquist-limited half of the transform carries all non-redundant
// frequency information for a real-valued input).
func Spectrogram(samples []float64, nFFT, hop int) [][]float64 {
	if len(samples) < nFFT {
		return nil
	}

	window := hannWindow(nFFT)
	bins := nFFT/2 + 1

	var frames [][]float64
	frame := make([]float64, nFFT)
	for start := 0; start+nFFT <= len(samples); start += hop {
		copy(frame, samples[start:start+nFFT])
		for i := range frame {
			frame[i] *= window[i]
		}

		spectrum := FFT(frame)
		row := make([]float64, bins)
		for f := 0; f < bins; f++ {
			row[f] = log1p(cmplx.Abs(spectrum[f]))
		}
		frames = append(frames, row)
	}

	return frames
}

func hannWindow(n int) []float64 {
	w := make([]float64, n)
	for i := range w {
		w[i] = 0.5 - 0.5*cos2pi(float64(i)/float64(n-1))
	}
	return w
}
