package transcode

// DataSink receives the transcoded output: per-track formats and statuses,
// container-level metadata, then timed encoded samples. Stop marks a
// successful end of stream; Release frees resources and is called on every
// outcome, including failures.
type DataSink interface {
	SetOrientation(degrees int)
	SetLocation(lat, lon float64)

	// SetTrackStatus declares intent for a track before any format or
	// sample is written for it.
	SetTrackStatus(t TrackType, status TrackStatus)

	// SetTrackFormat sets the final output format of a track. For
	// compressed tracks this is the encoder's actual output format, which
	// may differ from the requested one.
	SetTrackFormat(t TrackType, format MediaFormat) error

	WriteSample(t TrackType, sample *Sample) error

	// Stop finalizes the output after all tracks reached end of stream.
	Stop() error

	Release()
}

// SinkSample is a written sample retained by BufferSink. Data is copied.
type SinkSample struct {
	Data     []byte
	TimeUs   int64
	KeyFrame bool
}

// BufferSink is an in-memory DataSink that retains everything written to
// it. It accepts zero tracks, which yields an empty (but valid) result.
type BufferSink struct {
	orientation int
	lat, lon    float64
	hasLocation bool

	statuses trackPair[TrackStatus]
	formats  trackPair[*MediaFormat]
	samples  trackPair[[]SinkSample]

	stopped  bool
	released bool
}

// NewBufferSink creates an empty in-memory sink.
func NewBufferSink() *BufferSink {
	return &BufferSink{}
}

func (b *BufferSink) SetOrientation(degrees int) { b.orientation = degrees }

func (b *BufferSink) SetLocation(lat, lon float64) {
	b.lat, b.lon = lat, lon
	b.hasLocation = true
}

func (b *BufferSink) SetTrackStatus(t TrackType, status TrackStatus) {
	b.statuses.set(t, status)
}

func (b *BufferSink) SetTrackFormat(t TrackType, format MediaFormat) error {
	f := format
	b.formats.set(t, &f)
	return nil
}

func (b *BufferSink) WriteSample(t TrackType, sample *Sample) error {
	data := make([]byte, len(sample.Data))
	copy(data, sample.Data)
	list := b.samples.get(t)
	b.samples.set(t, append(list, SinkSample{
		Data:     data,
		TimeUs:   sample.TimeUs,
		KeyFrame: sample.KeyFrame,
	}))
	return nil
}

func (b *BufferSink) Stop() error {
	b.stopped = true
	return nil
}

func (b *BufferSink) Release() { b.released = true }

// Samples returns the samples written for a track, in write order.
func (b *BufferSink) Samples(t TrackType) []SinkSample { return b.samples.get(t) }

// TrackFormat returns the format set for a track, or nil.
func (b *BufferSink) TrackFormat(t TrackType) *MediaFormat { return b.formats.get(t) }

// TrackStatus returns the status declared for a track.
func (b *BufferSink) TrackStatus(t TrackType) TrackStatus { return b.statuses.get(t) }

// Orientation returns the container orientation in degrees.
func (b *BufferSink) Orientation() int { return b.orientation }

// Location returns the container location, if one was set.
func (b *BufferSink) Location() (lat, lon float64, ok bool) {
	return b.lat, b.lon, b.hasLocation
}

// Stopped reports whether the sink was finalized.
func (b *BufferSink) Stopped() bool { return b.stopped }
