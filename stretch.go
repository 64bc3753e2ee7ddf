package transcode

// AudioStretcher realizes a timestamp-driven duration change by adjusting
// the number of samples: it maps len(in) input samples onto exactly
// len(out) output samples. Implementations are stateless and must keep
// whole frames together (a frame is `channels` interleaved samples).
type AudioStretcher interface {
	Stretch(in, out []int16, channels int)
}

// PassThroughStretcher copies samples unchanged. It requires equal input
// and output sizes and is only usable with a time interpolator that never
// stretches.
type PassThroughStretcher struct{}

func (PassThroughStretcher) Stretch(in, out []int16, channels int) {
	if len(in) != len(out) {
		panic("transcode: pass-through stretch with different input and output sizes")
	}
	copy(out, in)
}

// CutOrInsertStretcher shrinks by dropping evenly spaced frames and grows
// by duplicating evenly spaced frames. No resampling or interpolation is
// performed; for the small corrections a time interpolator produces this
// is inaudible.
type CutOrInsertStretcher struct{}

func (CutOrInsertStretcher) Stretch(in, out []int16, channels int) {
	inFrames := len(in) / channels
	outFrames := len(out) / channels
	if inFrames == 0 {
		for i := range out {
			out[i] = 0
		}
		return
	}
	for i := 0; i < outFrames; i++ {
		src := i * inFrames / outFrames
		copy(out[i*channels:(i+1)*channels], in[src*channels:(src+1)*channels])
	}
	// A trailing partial frame can appear when the stretch delta is not
	// frame aligned; keep it silent rather than stale.
	for i := outFrames * channels; i < len(out); i++ {
		out[i] = 0
	}
}
