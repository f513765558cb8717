package audio

// resample performs linear-interpolation resampling from srcRate to
// dstRate. It is not a substitute for a proper polyphase resampler, but it
// is enough to bring arbitrary-rate decoded audio onto the engine's fixed
// SR before spectrogram analysis.
func resample(samples []float64, srcRate, dstRate int) []float64 {
	if srcRate == dstRate || len(samples) == 0 {
		return samples
	}

	ratio := float64(srcRate) / float64(dstRate)
	outLen := int(float64(len(samples)) / ratio)
	out := make([]float64, outLen)

	for i := range out {
		srcPos := float64(i) * ratio
		i0 := int(srcPos)
		if i0 >= len(samples)-1 {
			out[i] = samples[len(samples)-1]
			continue
		}
		frac := srcPos - float64(i0)
		out[i] = samples[i0]*(1-frac) + samples[i0+1]*frac
	}
	return out
}
