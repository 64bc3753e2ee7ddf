package transcode

import "fmt"

// TrackStrategy decides the output format and status of one track from the
// formats of its concatenated inputs. It is only consulted when at least
// one input carries the track.
type TrackStrategy interface {
	CreateOutputFormat(inputs []MediaFormat) (MediaFormat, TrackStatus, error)
}

// PassThroughTrackStrategy copies the track without re-encoding.
type PassThroughTrackStrategy struct{}

func (PassThroughTrackStrategy) CreateOutputFormat(inputs []MediaFormat) (MediaFormat, TrackStatus, error) {
	return inputs[0], TrackStatusPassThrough, nil
}

// RemoveTrackStrategy drops the track from the output.
type RemoveTrackStrategy struct{}

func (RemoveTrackStrategy) CreateOutputFormat(inputs []MediaFormat) (MediaFormat, TrackStatus, error) {
	return MediaFormat{}, TrackStatusRemoving, nil
}

// Values directing DefaultAudioStrategy to copy a parameter from the input.
const (
	SampleRateAsInput = -1
	ChannelsAsInput   = -1
	BitrateAsInput    = -1
)

// DefaultAudioStrategy re-encodes audio to the target mime type. Rate and
// channel count default to the minimum across inputs, which keeps
// concatenated sources representable in one output track.
type DefaultAudioStrategy struct {
	TargetMimeType string // default MimeTypeOpus
	SampleRate     int    // target rate, or SampleRateAsInput
	Channels       int    // target count, or ChannelsAsInput
	BitrateBps     int    // target bitrate, or BitrateAsInput
}

func (s DefaultAudioStrategy) CreateOutputFormat(inputs []MediaFormat) (MediaFormat, TrackStatus, error) {
	mime := s.TargetMimeType
	if mime == "" {
		mime = MimeTypeOpus
	}
	out := MediaFormat{
		MimeType:   mime,
		SampleRate: s.SampleRate,
		Channels:   s.Channels,
		BitrateBps: s.BitrateBps,
	}
	if out.SampleRate <= 0 {
		out.SampleRate = minAcross(inputs, func(f MediaFormat) int { return f.SampleRate })
	}
	if out.Channels <= 0 {
		out.Channels = minAcross(inputs, func(f MediaFormat) int { return f.Channels })
	}
	if out.BitrateBps < 0 {
		out.BitrateBps = 0 // encoder default
	}
	return out, TrackStatusCompressing, nil
}

// DefaultVideoStrategy re-encodes video to the target mime type, downscaling
// so that the longer side does not exceed LongerSide. It never upscales.
// When every input already satisfies the target, the track passes through.
type DefaultVideoStrategy struct {
	TargetMimeType string // default MimeTypeVP8
	LongerSide     int    // 0 keeps the input size
	FrameRate      int    // 0 keeps the input frame rate
	BitrateBps     int

	// ExactWidth and ExactHeight force the output size. The aspect ratio
	// must match the input's; a mismatch is an error since this library
	// does not crop.
	ExactWidth  int
	ExactHeight int
}

func (s DefaultVideoStrategy) CreateOutputFormat(inputs []MediaFormat) (MediaFormat, TrackStatus, error) {
	mime := s.TargetMimeType
	if mime == "" {
		mime = MimeTypeVP8
	}
	ref := inputs[0]
	width, height := ref.Width, ref.Height

	if s.ExactWidth > 0 && s.ExactHeight > 0 {
		// Cross-multiplication avoids float comparison of ratios.
		if int64(s.ExactWidth)*int64(height) != int64(width)*int64(s.ExactHeight) {
			return MediaFormat{}, TrackStatusAbsent, fmt.Errorf(
				"%w: exact size %dx%d does not match input aspect ratio %dx%d",
				ErrNotSupported, s.ExactWidth, s.ExactHeight, width, height)
		}
		width, height = s.ExactWidth, s.ExactHeight
	} else if s.LongerSide > 0 {
		longer := width
		if height > longer {
			longer = height
		}
		if longer > s.LongerSide {
			width = width * s.LongerSide / longer
			height = height * s.LongerSide / longer
			// Encoders want even dimensions.
			width &^= 1
			height &^= 1
		}
	}

	frameRate := s.FrameRate
	if frameRate <= 0 {
		frameRate = ref.FrameRate
	}

	out := MediaFormat{
		MimeType:   mime,
		Width:      width,
		Height:     height,
		FrameRate:  frameRate,
		BitrateBps: s.BitrateBps,
	}

	if s.allCompliant(inputs, out) {
		return inputs[0], TrackStatusPassThrough, nil
	}
	return out, TrackStatusCompressing, nil
}

// allCompliant reports whether every input already satisfies the target, so
// re-encoding would be wasted work.
func (s DefaultVideoStrategy) allCompliant(inputs []MediaFormat, target MediaFormat) bool {
	for _, in := range inputs {
		if in.MimeType != target.MimeType {
			return false
		}
		if in.Width != target.Width || in.Height != target.Height {
			return false
		}
		if target.FrameRate > 0 && in.FrameRate > target.FrameRate {
			return false
		}
		if s.BitrateBps > 0 && (in.BitrateBps == 0 || in.BitrateBps > s.BitrateBps) {
			return false
		}
	}
	return true
}

func minAcross(inputs []MediaFormat, field func(MediaFormat) int) int {
	min := field(inputs[0])
	for _, f := range inputs[1:] {
		if v := field(f); v < min {
			min = v
		}
	}
	return min
}
