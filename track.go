package transcode

// TrackType identifies one of the two tracks of a media stream.
type TrackType int

const (
	TrackAudio TrackType = iota
	TrackVideo
)

func (t TrackType) String() string {
	switch t {
	case TrackAudio:
		return "audio"
	case TrackVideo:
		return "video"
	default:
		return "unknown"
	}
}

// TrackStatus is the decision taken for a track before processing starts.
// It is computed exactly once per track and never changes afterwards.
type TrackStatus int

const (
	// TrackStatusAbsent means the track does not exist in the input.
	TrackStatusAbsent TrackStatus = iota

	// TrackStatusPassThrough means samples are copied to the output
	// without decoding or encoding.
	TrackStatusPassThrough

	// TrackStatusCompressing means the track is decoded and re-encoded.
	TrackStatusCompressing

	// TrackStatusRemoving means the track is dropped from the output.
	TrackStatusRemoving
)

func (s TrackStatus) String() string {
	switch s {
	case TrackStatusAbsent:
		return "absent"
	case TrackStatusPassThrough:
		return "pass-through"
	case TrackStatusCompressing:
		return "compressing"
	case TrackStatusRemoving:
		return "removing"
	default:
		return "unknown"
	}
}

// IsTranscoding reports whether this status performs a decode+encode pass.
func (s TrackStatus) IsTranscoding() bool {
	return s == TrackStatusCompressing
}

// reads reports whether this status consumes data from the source.
func (s TrackStatus) reads() bool {
	return s == TrackStatusCompressing || s == TrackStatusPassThrough
}

// trackPair holds one value per track type. The track set is closed (audio
// and video only), so two named fields beat a map keyed by TrackType.
type trackPair[T any] struct {
	audio T
	video T
}

func (p *trackPair[T]) get(t TrackType) T {
	if t == TrackAudio {
		return p.audio
	}
	return p.video
}

func (p *trackPair[T]) ref(t TrackType) *T {
	if t == TrackAudio {
		return &p.audio
	}
	return &p.video
}

func (p *trackPair[T]) set(t TrackType, v T) {
	*p.ref(t) = v
}
