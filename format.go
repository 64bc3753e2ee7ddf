package transcode

import "strings"

// Common MIME types understood by the built-in codecs and sinks.
const (
	MimeTypeRawAudio = "audio/pcm"
	MimeTypeOpus     = "audio/opus"
	MimeTypeVP8      = "video/VP8"
	MimeTypeVP9      = "video/VP9"
	MimeTypeRawVideo = "video/raw"
)

// MediaFormat describes one track of a source or of the output.
// Audio and video fields are mutually exclusive; unused fields are zero.
type MediaFormat struct {
	MimeType string

	// Audio
	SampleRate int // samples per second per channel
	Channels   int // 1 = mono, 2 = stereo

	// Video
	Width     int
	Height    int
	FrameRate int

	BitrateBps int
	DurationUs int64
}

// IsAudio reports whether the format describes an audio track.
func (f MediaFormat) IsAudio() bool {
	return strings.HasPrefix(f.MimeType, "audio/")
}

// IsVideo reports whether the format describes a video track.
func (f MediaFormat) IsVideo() bool {
	return strings.HasPrefix(f.MimeType, "video/")
}
