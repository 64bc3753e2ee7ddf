package transcode

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNoOpTranscoderIsBornFinished(t *testing.T) {
	var tr noOpTrackTranscoder
	require.NoError(t, tr.SetUp(MediaFormat{}))
	assert.True(t, tr.Finished())
	advanced, err := tr.Transcode()
	require.NoError(t, err)
	assert.False(t, advanced)
}

func TestPassThroughTranscoderRemapsTimestamps(t *testing.T) {
	source := newFakeVideoSource(3)
	source.SelectTrack(TrackVideo)
	sink := NewBufferSink()

	interp := newStepTimeInterpolator(nil, NewSpeedTimeInterpolator(2))
	tr := newPassThroughTrackTranscoder(source, sink, TrackVideo, interp)
	require.NoError(t, tr.SetUp(*source.TrackFormat(TrackVideo)))

	for !tr.Finished() {
		_, err := tr.Transcode()
		require.NoError(t, err)
	}

	samples := sink.Samples(TrackVideo)
	require.Len(t, samples, 3)
	assert.Equal(t, int64(0), samples[0].TimeUs)
	// Source frames are 33333us apart; at double speed they land 16666us
	// (rounded) apart on the output timeline.
	assert.InDelta(t, 16_667, samples[1].TimeUs, 1)
	assert.InDelta(t, 33_333, samples[2].TimeUs, 1)
}

func TestAudioTranscoderSurvivesDecoderBackpressure(t *testing.T) {
	// The PCM decoder holds four chunks; a tiny chunk size makes the
	// source outpace it so the staged-sample path gets exercised.
	pcm := make([]int16, 4096)
	for i := range pcm {
		pcm[i] = int16(i)
	}
	source := NewPCMDataSource(PCMSourceConfig{
		SampleRate: 48000, Channels: 1, ChunkFrames: 64, PCM: pcm,
	})
	source.SelectTrack(TrackAudio)
	sink := NewBufferSink()

	tr := newAudioTrackTranscoder(source, sink,
		newStepTimeInterpolator(nil, DefaultTimeInterpolator{}),
		CutOrInsertStretcher{}, defaultRegistry,
		logrus.New().WithField("test", t.Name()))
	require.NoError(t, tr.SetUp(MediaFormat{
		MimeType: MimeTypeRawAudio, SampleRate: 48000, Channels: 1,
	}))
	defer tr.Release()

	for i := 0; !tr.Finished(); i++ {
		require.Less(t, i, 10_000, "transcoder did not finish")
		_, err := tr.Transcode()
		require.NoError(t, err)
	}

	var got []int16
	for _, s := range sink.Samples(TrackAudio) {
		got = append(got, bytesToPCM(s.Data, nil)...)
	}
	assert.Equal(t, pcm, got, "no sample lost or duplicated under backpressure")

	// Finished is sticky: further calls do no work and change nothing.
	advanced, err := tr.Transcode()
	require.NoError(t, err)
	assert.False(t, advanced)
	assert.True(t, tr.Finished())
}

func TestAudioTranscoderSetUpFailsOnUnknownCodec(t *testing.T) {
	source := NewPCMDataSource(PCMSourceConfig{DurationUs: 1000})
	tr := newAudioTrackTranscoder(source, NewBufferSink(),
		newStepTimeInterpolator(nil, DefaultTimeInterpolator{}),
		CutOrInsertStretcher{}, defaultRegistry,
		logrus.New().WithField("test", t.Name()))
	err := tr.SetUp(MediaFormat{MimeType: "audio/nonsense", SampleRate: 48000, Channels: 1})
	assert.ErrorIs(t, err, ErrCodecNotSupported)
}

func TestVideoTranscoderSetUpFailsWithoutVideoTrack(t *testing.T) {
	source := NewPCMDataSource(PCMSourceConfig{DurationUs: 1000})
	tr := newVideoTrackTranscoder(source, NewBufferSink(),
		newStepTimeInterpolator(nil, DefaultTimeInterpolator{}),
		testVideoRegistry(), logrus.New().WithField("test", t.Name()))
	assert.Error(t, tr.SetUp(MediaFormat{MimeType: testVideoMime}))
}
