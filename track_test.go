package transcode

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTrackStatusSemantics(t *testing.T) {
	assert.True(t, TrackStatusCompressing.IsTranscoding())
	assert.False(t, TrackStatusPassThrough.IsTranscoding())
	assert.False(t, TrackStatusAbsent.IsTranscoding())
	assert.False(t, TrackStatusRemoving.IsTranscoding())

	assert.True(t, TrackStatusCompressing.reads())
	assert.True(t, TrackStatusPassThrough.reads())
	assert.False(t, TrackStatusAbsent.reads())
	assert.False(t, TrackStatusRemoving.reads())
}

func TestTrackPair(t *testing.T) {
	var p trackPair[int]
	p.set(TrackAudio, 1)
	p.set(TrackVideo, 2)
	assert.Equal(t, 1, p.get(TrackAudio))
	assert.Equal(t, 2, p.get(TrackVideo))
	*p.ref(TrackAudio) = 3
	assert.Equal(t, 3, p.get(TrackAudio))
}

func TestStringers(t *testing.T) {
	assert.Equal(t, "audio", TrackAudio.String())
	assert.Equal(t, "video", TrackVideo.String())
	assert.Equal(t, "pass-through", TrackStatusPassThrough.String())
	assert.Equal(t, "compressing", TrackStatusCompressing.String())
	assert.Equal(t, "completed", ResultCompleted.String())
	assert.Equal(t, "not needed", ResultNotNeeded.String())
}
