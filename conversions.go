package transcode

const bytesPerSample = 2 // s16

// usToSamples converts a duration to an interleaved sample count.
// Both directions truncate, so splitting a buffer and converting the
// pieces never yields more time than converting the whole.
func usToSamples(durationUs int64, sampleRate, channels int) int {
	return int(durationUs * int64(sampleRate) * int64(channels) / 1_000_000)
}

// samplesToUs converts an interleaved sample count to a duration.
func samplesToUs(samples int, sampleRate, channels int) int64 {
	return int64(samples) * 1_000_000 / int64(sampleRate*channels)
}

// samplesToBytes converts an interleaved s16 sample count to bytes.
func samplesToBytes(samples int) int {
	return samples * bytesPerSample
}

// bytesToSamples converts an s16 byte count to interleaved samples.
func bytesToSamples(bytes int) int {
	return bytes / bytesPerSample
}

// pcmToBytes serializes interleaved s16 samples as little-endian bytes.
func pcmToBytes(samples []int16, out []byte) []byte {
	if out == nil || cap(out) < len(samples)*bytesPerSample {
		out = make([]byte, len(samples)*bytesPerSample)
	}
	out = out[:len(samples)*bytesPerSample]
	for i, s := range samples {
		out[2*i] = byte(s)
		out[2*i+1] = byte(uint16(s) >> 8)
	}
	return out
}

// bytesToPCM deserializes little-endian s16 bytes into samples.
func bytesToPCM(data []byte, out []int16) []int16 {
	n := len(data) / bytesPerSample
	if out == nil || cap(out) < n {
		out = make([]int16, n)
	}
	out = out[:n]
	for i := 0; i < n; i++ {
		out[i] = int16(uint16(data[2*i]) | uint16(data[2*i+1])<<8)
	}
	return out
}
