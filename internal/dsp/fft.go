// Package dsp turns a raw mono waveform into a spectrogram and extracts the
// local-maximum peaks used downstream by the constellation hasher.
//
// The FFT here is a recursive radix-2 Cooley-Tukey transform: it splits the
// input into even- and odd-indexed samples, recurses on each half, and
// recombines them with the butterfly step using twiddle factors
// e^(-2πik/N). Input length must be a power of two; N_FFT (4096) already is,
// so frames are never padded.
package dsp

import "math"

// FFT computes the discrete Fourier transform of a real-valued signal whose
// length is a power of two.
func FFT(input []float64) []complex128 {
	c := make([]complex128, len(input))
	for i, v := range input {
		c[i] = complex(v, 0)
	}
	return fft(c)
}

func fft(x []complex128) []complex128 {
	n := len(x)
	if n <= 1 {
		return x
	}

	even := make([]complex128, n/2)
	odd := make([]complex128, n/2)
	for i := 0; i < n/2; i++ {
		even[i] = x[2*i]
		odd[i] = x[2*i+1]
	}

	even = fft(even)
	odd = fft(odd)

	out := make([]complex128, n)
	for k := 0; k < n/2; k++ {
		angle := -2 * math.Pi * float64(k) / float64(n)
		twiddle := complex(math.Cos(angle), math.Sin(angle))
		term := twiddle * odd[k]
		out[k] = even[k] + term
		out[k+n/2] = even[k] - term
	}
	return out
}
