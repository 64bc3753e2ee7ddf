package transcode

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPassThroughStrategyKeepsFirstFormat(t *testing.T) {
	in := []MediaFormat{{MimeType: MimeTypeOpus, SampleRate: 48000, Channels: 2}}
	format, status, err := PassThroughTrackStrategy{}.CreateOutputFormat(in)
	require.NoError(t, err)
	assert.Equal(t, TrackStatusPassThrough, status)
	assert.Equal(t, in[0], format)
}

func TestRemoveStrategy(t *testing.T) {
	_, status, err := RemoveTrackStrategy{}.CreateOutputFormat([]MediaFormat{{}})
	require.NoError(t, err)
	assert.Equal(t, TrackStatusRemoving, status)
}

func TestAudioStrategyDefaultsFromInputs(t *testing.T) {
	inputs := []MediaFormat{
		{MimeType: MimeTypeRawAudio, SampleRate: 48000, Channels: 2},
		{MimeType: MimeTypeRawAudio, SampleRate: 44100, Channels: 1},
	}
	format, status, err := DefaultAudioStrategy{}.CreateOutputFormat(inputs)
	require.NoError(t, err)
	assert.Equal(t, TrackStatusCompressing, status)
	assert.Equal(t, MimeTypeOpus, format.MimeType)
	// Minimums keep every concatenated source representable.
	assert.Equal(t, 44100, format.SampleRate)
	assert.Equal(t, 1, format.Channels)
}

func TestAudioStrategyExplicitTargets(t *testing.T) {
	inputs := []MediaFormat{{MimeType: MimeTypeRawAudio, SampleRate: 48000, Channels: 2}}
	format, _, err := DefaultAudioStrategy{
		TargetMimeType: MimeTypeRawAudio,
		SampleRate:     16000,
		Channels:       1,
		BitrateBps:     64000,
	}.CreateOutputFormat(inputs)
	require.NoError(t, err)
	assert.Equal(t, MimeTypeRawAudio, format.MimeType)
	assert.Equal(t, 16000, format.SampleRate)
	assert.Equal(t, 1, format.Channels)
	assert.Equal(t, 64000, format.BitrateBps)
}

func TestVideoStrategyDownscalesLongerSide(t *testing.T) {
	inputs := []MediaFormat{{MimeType: MimeTypeRawVideo, Width: 1920, Height: 1080, FrameRate: 30}}
	format, status, err := DefaultVideoStrategy{LongerSide: 1280}.CreateOutputFormat(inputs)
	require.NoError(t, err)
	assert.Equal(t, TrackStatusCompressing, status)
	assert.Equal(t, MimeTypeVP8, format.MimeType)
	assert.Equal(t, 1280, format.Width)
	assert.Equal(t, 720, format.Height)
	assert.Equal(t, 30, format.FrameRate)
}

func TestVideoStrategyNeverUpscales(t *testing.T) {
	inputs := []MediaFormat{{MimeType: MimeTypeRawVideo, Width: 640, Height: 360}}
	format, _, err := DefaultVideoStrategy{LongerSide: 1920}.CreateOutputFormat(inputs)
	require.NoError(t, err)
	assert.Equal(t, 640, format.Width)
	assert.Equal(t, 360, format.Height)
}

func TestVideoStrategyKeepsDimensionsEven(t *testing.T) {
	inputs := []MediaFormat{{MimeType: MimeTypeRawVideo, Width: 1917, Height: 1080}}
	format, _, err := DefaultVideoStrategy{LongerSide: 1001}.CreateOutputFormat(inputs)
	require.NoError(t, err)
	assert.Zero(t, format.Width%2)
	assert.Zero(t, format.Height%2)
}

func TestVideoStrategyExactSizeRejectsAspectMismatch(t *testing.T) {
	inputs := []MediaFormat{{MimeType: MimeTypeRawVideo, Width: 1920, Height: 1080}}
	_, _, err := DefaultVideoStrategy{ExactWidth: 100, ExactHeight: 100}.CreateOutputFormat(inputs)
	assert.ErrorIs(t, err, ErrNotSupported)
}

func TestVideoStrategyExactSizeAcceptsMatchingAspect(t *testing.T) {
	inputs := []MediaFormat{{MimeType: MimeTypeRawVideo, Width: 1920, Height: 1080}}
	format, status, err := DefaultVideoStrategy{ExactWidth: 640, ExactHeight: 360}.CreateOutputFormat(inputs)
	require.NoError(t, err)
	assert.Equal(t, TrackStatusCompressing, status)
	assert.Equal(t, 640, format.Width)
	assert.Equal(t, 360, format.Height)
}

func TestVideoStrategyPassThroughWhenCompliant(t *testing.T) {
	inputs := []MediaFormat{{MimeType: MimeTypeVP8, Width: 1280, Height: 720, FrameRate: 30}}
	format, status, err := DefaultVideoStrategy{
		TargetMimeType: MimeTypeVP8,
		LongerSide:     1920,
		FrameRate:      30,
	}.CreateOutputFormat(inputs)
	require.NoError(t, err)
	assert.Equal(t, TrackStatusPassThrough, status)
	assert.Equal(t, inputs[0], format)
}

func TestVideoStrategyCompressesOnMimeMismatch(t *testing.T) {
	inputs := []MediaFormat{{MimeType: MimeTypeVP9, Width: 1280, Height: 720}}
	_, status, err := DefaultVideoStrategy{TargetMimeType: MimeTypeVP8}.CreateOutputFormat(inputs)
	require.NoError(t, err)
	assert.Equal(t, TrackStatusCompressing, status)
}

func TestDefaultValidator(t *testing.T) {
	v := DefaultValidator{}
	assert.False(t, v.Validate(TrackStatusPassThrough, TrackStatusPassThrough))
	assert.False(t, v.Validate(TrackStatusAbsent, TrackStatusAbsent))
	assert.False(t, v.Validate(TrackStatusPassThrough, TrackStatusAbsent))
	assert.True(t, v.Validate(TrackStatusCompressing, TrackStatusPassThrough))
	assert.True(t, v.Validate(TrackStatusPassThrough, TrackStatusRemoving))
}

func TestWriteAlwaysValidator(t *testing.T) {
	assert.True(t, WriteAlwaysValidator{}.Validate(TrackStatusAbsent, TrackStatusAbsent))
}
