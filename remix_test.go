package transcode

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRemixerFor(t *testing.T) {
	assert.IsType(t, DownMixRemixer{}, remixerFor(2, 1))
	assert.IsType(t, UpMixRemixer{}, remixerFor(1, 2))
	assert.IsType(t, PassThroughRemixer{}, remixerFor(2, 2))
	assert.IsType(t, PassThroughRemixer{}, remixerFor(1, 1))
}

func TestDownMixAverages(t *testing.T) {
	in := []int16{100, 200, -100, 100, 32767, 32767}
	out := make([]int16, DownMixRemixer{}.RemixedSize(len(in)))
	n := DownMixRemixer{}.Remix(in, out)
	assert.Equal(t, 3, n)
	assert.Equal(t, []int16{150, 0, 32767}, out)
}

func TestUpMixDuplicates(t *testing.T) {
	in := []int16{1, -2, 3}
	out := make([]int16, UpMixRemixer{}.RemixedSize(len(in)))
	n := UpMixRemixer{}.Remix(in, out)
	assert.Equal(t, 6, n)
	assert.Equal(t, []int16{1, 1, -2, -2, 3, 3}, out)
}

func TestPassThroughRemix(t *testing.T) {
	in := []int16{5, 6, 7}
	out := make([]int16, 3)
	assert.Equal(t, 3, PassThroughRemixer{}.Remix(in, out))
	assert.Equal(t, in, out)
}
