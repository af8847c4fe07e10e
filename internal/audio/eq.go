package audio

import "math"

// biquad is a single second-order section in transposed direct form
// II, applied in place over a channel's samples at load time.
type biquad struct {
	b0, b1, b2 float64
	a1, a2     float64
	z1, z2     float64
}

// newPeakingEQ designs a parametric peak (bell) filter from the
// standard Audio EQ Cookbook formulas: center frequency, Q, and gain in
// dB, normalized by a0 so a0 itself is implicitly 1.
func newPeakingEQ(centerHz, q, gainDb float64, sampleRate int) biquad {
	a := math.Pow(10, gainDb/40.0)
	w0 := 2 * math.Pi * centerHz / float64(sampleRate)
	sinW0 := math.Sin(w0)
	cosW0 := math.Cos(w0)
	alpha := sinW0 / (2 * q)

	b0 := 1 + alpha*a
	b1 := -2 * cosW0
	b2 := 1 - alpha*a
	a0 := 1 + alpha/a
	a1 := -2 * cosW0
	a2 := 1 - alpha/a

	return biquad{
		b0: b0 / a0,
		b1: b1 / a0,
		b2: b2 / a0,
		a1: a1 / a0,
		a2: a2 / a0,
	}
}

// process filters one sample through the section.
func (f *biquad) process(x float64) float64 {
	y := f.b0*x + f.z1
	f.z1 = f.b1*x - f.a1*y + f.z2
	f.z2 = f.b2*x - f.a2*y
	return y
}

// applyBassBoost filters every channel of a decoded WAV's samples in
// place, one section per channel so channels never cross-pollute
// filter state.
func applyBassBoost(frames [][]float32, channels int, centerHz, q, gainDb float64, sampleRate int) {
	filters := make([]biquad, channels)
	for ch := range filters {
		filters[ch] = newPeakingEQ(centerHz, q, gainDb, sampleRate)
	}
	for i := range frames {
		for ch := 0; ch < channels; ch++ {
			frames[i][ch] = float32(filters[ch].process(float64(frames[i][ch])))
		}
	}
}
