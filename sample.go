package transcode

// Sample is one encoded sample (a compressed frame or audio packet)
// travelling between a DataSource, a codec session, and a DataSink.
type Sample struct {
	Data     []byte
	TimeUs   int64 // presentation time in microseconds
	KeyFrame bool

	// EOS marks the end of a codec session's output. An EOS sample
	// carries no data and is never written to a sink.
	EOS bool
}

// RawFrame is one decoded video frame. The pixel layout is opaque to the
// engine; only the decoder and encoder of a step interpret Data.
type RawFrame struct {
	Data   []byte
	Width  int
	Height int
	TimeUs int64
	EOS    bool
}

// PCMChunk is a block of decoded audio owned by the decoder that produced
// it. Data is a view of the decoder's storage, not a copy; the consumer
// must hand the chunk back through AudioDecoder.ReleaseChunk exactly once.
type PCMChunk struct {
	Data   []int16 // interleaved samples
	TimeUs int64
	EOS    bool

	// Index identifies the decoder-side storage backing Data. Opaque to
	// everything but the owning decoder.
	Index int
}

// PCMSlot is a fixed-capacity encoder input buffer. Callers obtain a slot
// with AudioEncoder.DequeueInput, fill Data[:N], stamp TimeUs and hand it
// back with QueueInput. Capacity reports the slot size in samples.
type PCMSlot struct {
	Data   []int16 // len(Data) == slot capacity
	N      int     // filled samples
	TimeUs int64
	EOS    bool

	// Index identifies the encoder-side buffer. Opaque to callers.
	Index int
}

// Capacity returns the slot size in samples (interleaved).
func (s *PCMSlot) Capacity() int { return len(s.Data) }

// Remaining returns the free room left in the slot, in samples.
func (s *PCMSlot) Remaining() int { return len(s.Data) - s.N }
