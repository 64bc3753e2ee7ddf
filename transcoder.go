package transcode

// TrackTranscoder drives one (source, step) pair of a track to completion.
type TrackTranscoder interface {
	// SetUp prepares the transcoder with the shared output format of its
	// track. It is called exactly once, before the first Transcode.
	SetUp(outputFormat MediaFormat) error

	// Transcode performs one bounded unit of work and reports whether
	// any data moved. It never blocks on codec sessions.
	Transcode() (bool, error)

	// Finished reports whether the step is complete. Once true it stays
	// true without further Transcode calls.
	Finished() bool

	// Release frees the transcoder's resources. The DataSource is
	// released by the engine, not here.
	Release()
}

// noOpTrackTranscoder is used for absent and removed tracks so the step
// machinery is uniform across all statuses. It is born finished.
type noOpTrackTranscoder struct{}

func (noOpTrackTranscoder) SetUp(MediaFormat) error    { return nil }
func (noOpTrackTranscoder) Transcode() (bool, error)   { return false, nil }
func (noOpTrackTranscoder) Finished() bool             { return true }
func (noOpTrackTranscoder) Release()                   {}

// passThroughTrackTranscoder copies samples unchanged from source to sink,
// remapping only timestamps through the step interpolator. No codec is
// ever involved.
type passThroughTrackTranscoder struct {
	source       DataSource
	sink         DataSink
	track        TrackType
	interpolator TimeInterpolator

	sample   Sample
	finished bool
}

func newPassThroughTrackTranscoder(source DataSource, sink DataSink,
	track TrackType, interpolator TimeInterpolator) *passThroughTrackTranscoder {
	return &passThroughTrackTranscoder{
		source:       source,
		sink:         sink,
		track:        track,
		interpolator: interpolator,
	}
}

func (t *passThroughTrackTranscoder) SetUp(outputFormat MediaFormat) error {
	return t.sink.SetTrackFormat(t.track, outputFormat)
}

func (t *passThroughTrackTranscoder) Transcode() (bool, error) {
	if t.finished {
		return false, nil
	}
	if t.source.Drained() {
		t.finished = true
		return false, nil
	}
	if !t.source.CanReadTrack(t.track) {
		return false, nil
	}
	if !t.source.ReadTrack(t.track, &t.sample) {
		return false, nil
	}
	t.sample.TimeUs = t.interpolator.Interpolate(t.track, t.sample.TimeUs)
	if err := t.sink.WriteSample(t.track, &t.sample); err != nil {
		return false, err
	}
	return true, nil
}

func (t *passThroughTrackTranscoder) Finished() bool { return t.finished }

func (t *passThroughTrackTranscoder) Release() {}
