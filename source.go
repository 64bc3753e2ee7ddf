package transcode

import "math"

// DataSource is an ordered, single-use, releasable source of timed encoded
// samples for zero or more track types. A track may be backed by a
// sequence of DataSources; each is read exactly once, then released.
// Calling any read method after Release is undefined.
type DataSource interface {
	// TrackFormat describes the given track, or nil when the source does
	// not carry it.
	TrackFormat(t TrackType) *MediaFormat

	// SelectTrack tells the source that the given track will be read.
	SelectTrack(t TrackType)

	// CanReadTrack reports whether the next available sample belongs to
	// the given track.
	CanReadTrack(t TrackType) bool

	// ReadTrack fills sample with the next sample of the given track and
	// reports whether one was available. The sample data is only valid
	// until the next ReadTrack call.
	ReadTrack(t TrackType, sample *Sample) bool

	// Drained reports whether all selected tracks are exhausted.
	Drained() bool

	DurationUs() int64

	// FirstTimestampUs and LastTimestampUs bound the span emitted so
	// far, in source-local time.
	FirstTimestampUs() int64
	LastTimestampUs() int64

	OrientationDegrees() int

	// Location returns the source's geolocation, if any.
	Location() (lat, lon float64, ok bool)

	Release()
}

// PCMSourceConfig configures a PCMDataSource.
type PCMSourceConfig struct {
	SampleRate int // default 48000
	Channels   int // default 2

	// ChunkFrames is the number of frames per emitted sample. Default
	// 1152. Real decoders emit irregular chunk sizes; tests can vary
	// this to exercise the pipeline's partial-buffer handling.
	ChunkFrames int

	// DurationUs is the generated duration when no PCM data is given.
	DurationUs int64

	// PCM is optional caller-provided interleaved s16 audio. When nil, a
	// 440Hz sine covering DurationUs is generated.
	PCM []int16

	Latitude    float64
	Longitude   float64
	HasLocation bool
}

// PCMDataSource is an in-memory audio DataSource carrying raw s16
// ("audio/pcm") samples. It is the audio counterpart of a synthetic test
// pattern: self-contained input for examples and tests.
type PCMDataSource struct {
	config PCMSourceConfig
	pcm    []int16
	pos    int // consumed interleaved samples

	firstUs  int64
	lastUs   int64
	haveSpan bool
	selected bool
	released bool

	scratch []byte
}

// NewPCMDataSource creates a PCM audio source from the given config.
func NewPCMDataSource(config PCMSourceConfig) *PCMDataSource {
	if config.SampleRate == 0 {
		config.SampleRate = 48000
	}
	if config.Channels == 0 {
		config.Channels = 2
	}
	if config.ChunkFrames == 0 {
		config.ChunkFrames = 1152
	}
	pcm := config.PCM
	if pcm == nil {
		frames := int(config.DurationUs * int64(config.SampleRate) / 1_000_000)
		pcm = make([]int16, frames*config.Channels)
		for i := 0; i < frames; i++ {
			v := int16(8000 * math.Sin(2*math.Pi*440*float64(i)/float64(config.SampleRate)))
			for c := 0; c < config.Channels; c++ {
				pcm[i*config.Channels+c] = v
			}
		}
	}
	return &PCMDataSource{config: config, pcm: pcm}
}

func (s *PCMDataSource) TrackFormat(t TrackType) *MediaFormat {
	if t != TrackAudio {
		return nil
	}
	return &MediaFormat{
		MimeType:   MimeTypeRawAudio,
		SampleRate: s.config.SampleRate,
		Channels:   s.config.Channels,
		DurationUs: s.DurationUs(),
	}
}

func (s *PCMDataSource) SelectTrack(t TrackType) {
	if t == TrackAudio {
		s.selected = true
	}
}

func (s *PCMDataSource) CanReadTrack(t TrackType) bool {
	return t == TrackAudio && s.pos < len(s.pcm)
}

func (s *PCMDataSource) ReadTrack(t TrackType, sample *Sample) bool {
	if !s.CanReadTrack(t) {
		return false
	}
	n := s.config.ChunkFrames * s.config.Channels
	if remaining := len(s.pcm) - s.pos; n > remaining {
		n = remaining
	}
	timeUs := samplesToUs(s.pos, s.config.SampleRate, s.config.Channels)
	s.scratch = pcmToBytes(s.pcm[s.pos:s.pos+n], s.scratch)
	s.pos += n

	sample.Data = s.scratch
	sample.TimeUs = timeUs
	sample.KeyFrame = true
	sample.EOS = false

	if !s.haveSpan {
		s.haveSpan = true
		s.firstUs = timeUs
	}
	s.lastUs = timeUs + samplesToUs(n, s.config.SampleRate, s.config.Channels)
	return true
}

func (s *PCMDataSource) Drained() bool {
	return s.pos >= len(s.pcm)
}

func (s *PCMDataSource) DurationUs() int64 {
	return samplesToUs(len(s.pcm), s.config.SampleRate, s.config.Channels)
}

func (s *PCMDataSource) FirstTimestampUs() int64 {
	if !s.haveSpan {
		return 0
	}
	return s.firstUs
}

func (s *PCMDataSource) LastTimestampUs() int64 {
	if !s.haveSpan {
		return 0
	}
	return s.lastUs
}

func (s *PCMDataSource) OrientationDegrees() int { return 0 }

func (s *PCMDataSource) Location() (float64, float64, bool) {
	return s.config.Latitude, s.config.Longitude, s.config.HasLocation
}

func (s *PCMDataSource) Release() {
	s.released = true
	s.pcm = nil
	s.scratch = nil
}
