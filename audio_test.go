package transcode

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeChunkDecoder only serves the engine side of the decoder contract:
// handing out chunks and taking their storage back.
type fakeChunkDecoder struct {
	format   MediaFormat
	released []int
}

func (d *fakeChunkDecoder) Feed(*Sample) (bool, error) { return false, nil }
func (d *fakeChunkDecoder) FeedEOS() bool              { return true }
func (d *fakeChunkDecoder) Drain() (*PCMChunk, error)  { return nil, nil }
func (d *fakeChunkDecoder) ReleaseChunk(c *PCMChunk)   { d.released = append(d.released, c.Index) }
func (d *fakeChunkDecoder) OutputFormat() MediaFormat  { return d.format }
func (d *fakeChunkDecoder) Release()                   {}

// fakeSlotEncoder hands out fixed-capacity slots and records what was
// queued into them.
type fakeSlotEncoder struct {
	capacity int
	free     int

	queued  [][]int16
	timesUs []int64
	eos     bool
}

func newFakeSlotEncoder(capacity, slots int) *fakeSlotEncoder {
	return &fakeSlotEncoder{capacity: capacity, free: slots}
}

func (e *fakeSlotEncoder) DequeueInput() *PCMSlot {
	if e.free == 0 {
		return nil
	}
	e.free--
	return &PCMSlot{Data: make([]int16, e.capacity)}
}

func (e *fakeSlotEncoder) QueueInput(slot *PCMSlot) error {
	e.free++
	if slot.EOS {
		e.eos = true
		return nil
	}
	data := make([]int16, slot.N)
	copy(data, slot.Data[:slot.N])
	e.queued = append(e.queued, data)
	e.timesUs = append(e.timesUs, slot.TimeUs)
	return nil
}

func (e *fakeSlotEncoder) Drain() (*Sample, error) { return nil, nil }
func (e *fakeSlotEncoder) Release()                {}

func testAudioEngine(t *testing.T, decoderChannels, encoderChannels, slotCapacity, slots int) (*audioEngine, *fakeChunkDecoder, *fakeSlotEncoder) {
	t.Helper()
	decoder := &fakeChunkDecoder{format: MediaFormat{
		MimeType: MimeTypeRawAudio, SampleRate: 48000, Channels: decoderChannels,
	}}
	encoder := newFakeSlotEncoder(slotCapacity, slots)
	engine, err := newAudioEngine(decoder, decoder.format,
		encoder, MediaFormat{MimeType: MimeTypeRawAudio, SampleRate: 48000, Channels: encoderChannels},
		DefaultTimeInterpolator{}, CutOrInsertStretcher{},
		logrus.New().WithField("test", t.Name()))
	require.NoError(t, err)
	return engine, decoder, encoder
}

func pump(t *testing.T, engine *audioEngine) {
	t.Helper()
	for i := 0; i < 1000; i++ {
		moved, err := engine.feed()
		require.NoError(t, err)
		if !moved && !engine.hasPending() {
			return
		}
	}
	t.Fatal("engine did not drain its pending buffers")
}

func TestAudioEngineRejectsRateConversion(t *testing.T) {
	decoder := &fakeChunkDecoder{}
	_, err := newAudioEngine(decoder, MediaFormat{SampleRate: 44100, Channels: 2},
		newFakeSlotEncoder(1024, 1), MediaFormat{SampleRate: 48000, Channels: 2},
		DefaultTimeInterpolator{}, CutOrInsertStretcher{}, logrus.New().WithField("test", t.Name()))
	assert.ErrorIs(t, err, ErrSampleRateConversion)
}

func TestAudioEngineRejectsExoticChannelCounts(t *testing.T) {
	decoder := &fakeChunkDecoder{}
	_, err := newAudioEngine(decoder, MediaFormat{SampleRate: 48000, Channels: 6},
		newFakeSlotEncoder(1024, 1), MediaFormat{SampleRate: 48000, Channels: 2},
		DefaultTimeInterpolator{}, CutOrInsertStretcher{}, logrus.New().WithField("test", t.Name()))
	assert.ErrorIs(t, err, ErrChannelCount)
}

func TestAudioEngineConservesSamples(t *testing.T) {
	engine, decoder, encoder := testAudioEngine(t, 1, 1, 500, 2)

	total := 0
	for i, size := range []int{100, 499, 500, 501, 1300} {
		data := make([]int16, size)
		for j := range data {
			data[j] = int16(total + j)
		}
		engine.drainDecoder(&PCMChunk{
			Data:   data,
			TimeUs: samplesToUs(total, 48000, 1),
			Index:  i,
		})
		total += size
		pump(t, engine)
	}

	out := 0
	for _, q := range encoder.queued {
		out += len(q)
	}
	assert.Equal(t, total, out, "identity pipeline must conserve samples")
	assert.Len(t, decoder.released, 5, "each chunk released exactly once")
}

func TestAudioEngineOverflowSplitsChunk(t *testing.T) {
	// Stereo input into mono slots of 1000 samples. A 2048-sample chunk
	// downmixes to 1024, which does not fit: the engine must consume the
	// 2000 input samples that fill the slot exactly and retry the rest.
	engine, decoder, encoder := testAudioEngine(t, 2, 1, 1000, 4)

	data := make([]int16, 2048)
	for i := 0; i < 1024; i++ {
		data[2*i] = int16(i)
		data[2*i+1] = int16(i)
	}
	engine.drainDecoder(&PCMChunk{Data: data, TimeUs: 0, Index: 7})
	pump(t, engine)

	require.Len(t, encoder.queued, 2)
	assert.Len(t, encoder.queued[0], 1000)
	assert.Len(t, encoder.queued[1], 24)

	// The second write's timestamp is the duration of the consumed span.
	assert.Equal(t, int64(0), encoder.timesUs[0])
	assert.Equal(t, samplesToUs(2000, 48000, 2), encoder.timesUs[1])

	// Downmix of equal channels is the identity on the frame values, so
	// the split must be seamless.
	assert.Equal(t, int16(999), encoder.queued[0][999])
	assert.Equal(t, int16(1000), encoder.queued[1][0])

	assert.Equal(t, []int{7}, decoder.released, "split chunk still released once")
}

func TestAudioEngineForwardsEOS(t *testing.T) {
	engine, decoder, encoder := testAudioEngine(t, 1, 1, 500, 1)
	engine.drainDecoder(&PCMChunk{Data: []int16{1, 2, 3}, TimeUs: 0, Index: 0})
	engine.drainDecoder(&PCMChunk{EOS: true, Index: -1})
	pump(t, engine)

	assert.True(t, encoder.eos)
	assert.False(t, engine.hasPending())
	assert.Equal(t, []int{0, -1}, decoder.released)
}

func TestAudioEngineDropsEmptyChunks(t *testing.T) {
	engine, decoder, encoder := testAudioEngine(t, 1, 1, 500, 1)
	engine.drainDecoder(&PCMChunk{Data: nil, TimeUs: 0, Index: 3})
	pump(t, engine)

	assert.Empty(t, encoder.queued)
	assert.Equal(t, []int{3}, decoder.released)
}

func TestAudioEngineSpeedStretchShortensOutput(t *testing.T) {
	decoder := &fakeChunkDecoder{format: MediaFormat{SampleRate: 48000, Channels: 1}}
	encoder := newFakeSlotEncoder(6000, 4)
	engine, err := newAudioEngine(decoder, decoder.format,
		encoder, MediaFormat{SampleRate: 48000, Channels: 1},
		NewSpeedTimeInterpolator(2), CutOrInsertStretcher{},
		logrus.New().WithField("test", t.Name()))
	require.NoError(t, err)

	// Two chunks of 4800 samples (100ms each). At double speed the second
	// chunk's 100ms delta becomes 50ms, so roughly half its samples are
	// dropped.
	engine.drainDecoder(&PCMChunk{Data: make([]int16, 4800), TimeUs: 0, Index: 0})
	pump(t, engine)
	engine.drainDecoder(&PCMChunk{Data: make([]int16, 4800), TimeUs: 100_000, Index: 1})
	pump(t, engine)

	require.Len(t, encoder.queued, 2)
	assert.Equal(t, 4800, len(encoder.queued[0]), "first chunk sets the anchor, no stretch yet")
	assert.Equal(t, 2400, len(encoder.queued[1]))
	assert.Equal(t, int64(50_000), encoder.timesUs[1])
}
