package transcode

// AudioRemixer converts interleaved PCM between channel counts.
// Implementations are stateless.
type AudioRemixer interface {
	// Remix converts in into out and returns the number of samples
	// written. out must have room for RemixedSize(len(in)) samples.
	Remix(in, out []int16) int

	// RemixedSize returns the output sample count produced by inputSize
	// input samples.
	RemixedSize(inputSize int) int
}

// remixerFor picks the remix strategy for a decoder/encoder channel pair.
func remixerFor(inputChannels, outputChannels int) AudioRemixer {
	switch {
	case inputChannels > outputChannels:
		return DownMixRemixer{}
	case inputChannels < outputChannels:
		return UpMixRemixer{}
	default:
		return PassThroughRemixer{}
	}
}

// DownMixRemixer converts stereo to mono by averaging each sample pair,
// saturating at the s16 range.
type DownMixRemixer struct{}

func (DownMixRemixer) Remix(in, out []int16) int {
	n := len(in) / 2
	for i := 0; i < n; i++ {
		m := (int32(in[2*i]) + int32(in[2*i+1])) / 2
		out[i] = int16(m)
	}
	return n
}

func (DownMixRemixer) RemixedSize(inputSize int) int {
	return inputSize / 2
}

// UpMixRemixer converts mono to stereo by duplicating each sample.
type UpMixRemixer struct{}

func (UpMixRemixer) Remix(in, out []int16) int {
	for i, s := range in {
		out[2*i] = s
		out[2*i+1] = s
	}
	return len(in) * 2
}

func (UpMixRemixer) RemixedSize(inputSize int) int {
	return inputSize * 2
}

// PassThroughRemixer copies samples unchanged.
type PassThroughRemixer struct{}

func (PassThroughRemixer) Remix(in, out []int16) int {
	return copy(out, in)
}

func (PassThroughRemixer) RemixedSize(inputSize int) int {
	return inputSize
}
