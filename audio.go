package transcode

import (
	"fmt"
	"math"

	"github.com/sirupsen/logrus"
)

// audioBuffer is one decoded PCM chunk in flight between decoder and
// encoder. data is the unconsumed view into the chunk's storage; timeUs
// tracks the presentation time of data[0] and advances on partial
// consumption.
type audioBuffer struct {
	chunk  *PCMChunk
	data   []int16
	timeUs int64
	eos    bool
}

// audioEngine bridges an audio decoder and encoder operating at different
// buffer granularities. It buffers decoded chunks, applies time stretching
// and channel remixing, and fills fixed-capacity encoder slots, carrying a
// partially consumed chunk over to the next cycle when a slot is too small
// (overflow).
type audioEngine struct {
	decoder AudioDecoder
	encoder AudioEncoder

	sampleRate      int
	decoderChannels int
	encoderChannels int

	remixer      AudioRemixer
	stretcher    AudioStretcher
	interpolator TimeInterpolator

	pending []*audioBuffer
	empty   []*audioBuffer
	scratch []int16

	lastDecoderUs int64
	lastEncoderUs int64
	haveLast      bool

	eosQueued bool
	log       *logrus.Entry
}

// newAudioEngine validates the decoder/encoder formats and selects the
// remix strategy. Sample rate conversion is unsupported and rejected here;
// channel counts other than mono and stereo likewise.
func newAudioEngine(decoder AudioDecoder, decoderFormat MediaFormat,
	encoder AudioEncoder, encoderFormat MediaFormat,
	interpolator TimeInterpolator, stretcher AudioStretcher,
	log *logrus.Entry) (*audioEngine, error) {

	if decoderFormat.SampleRate != encoderFormat.SampleRate {
		return nil, fmt.Errorf("%w: %d -> %d",
			ErrSampleRateConversion, decoderFormat.SampleRate, encoderFormat.SampleRate)
	}
	if decoderFormat.Channels != 1 && decoderFormat.Channels != 2 {
		return nil, fmt.Errorf("%w: input has %d", ErrChannelCount, decoderFormat.Channels)
	}
	if encoderFormat.Channels != 1 && encoderFormat.Channels != 2 {
		return nil, fmt.Errorf("%w: output has %d", ErrChannelCount, encoderFormat.Channels)
	}
	return &audioEngine{
		decoder:         decoder,
		encoder:         encoder,
		sampleRate:      decoderFormat.SampleRate,
		decoderChannels: decoderFormat.Channels,
		encoderChannels: encoderFormat.Channels,
		remixer:         remixerFor(decoderFormat.Channels, encoderFormat.Channels),
		stretcher:       stretcher,
		interpolator:    interpolator,
		log:             log,
	}, nil
}

// drainDecoder takes ownership of a decoded chunk and schedules it for
// processing. The chunk storage stays with the decoder until the chunk is
// fully consumed.
func (e *audioEngine) drainDecoder(chunk *PCMChunk) {
	var buffer *audioBuffer
	if n := len(e.empty); n > 0 {
		buffer = e.empty[n-1]
		e.empty = e.empty[:n-1]
	} else {
		buffer = &audioBuffer{}
	}
	buffer.chunk = chunk
	buffer.data = chunk.Data
	buffer.timeUs = chunk.TimeUs
	buffer.eos = chunk.EOS
	e.pending = append(e.pending, buffer)
}

func (e *audioEngine) hasPending() bool {
	return len(e.pending) > 0 && !e.eosQueued
}

// feed processes at most one pending buffer against one encoder slot.
// It reports whether any data moved.
func (e *audioEngine) feed() (bool, error) {
	if !e.hasPending() {
		return false, nil
	}
	buffer := e.pending[0]
	if !buffer.eos && len(buffer.data) == 0 {
		// Nothing to process in this chunk; drop it without spending an
		// encoder slot.
		e.pending = e.pending[1:]
		e.decoder.ReleaseChunk(buffer.chunk)
		buffer.chunk = nil
		e.empty = append(e.empty, buffer)
		return true, nil
	}

	slot := e.encoder.DequeueInput()
	if slot == nil {
		return false, nil
	}

	if buffer.eos {
		slot.N = 0
		slot.EOS = true
		if err := e.encoder.QueueInput(slot); err != nil {
			return false, err
		}
		e.eosQueued = true
		e.pending = e.pending[1:]
		e.decoder.ReleaseChunk(buffer.chunk)
		buffer.chunk = nil
		e.empty = append(e.empty, buffer)
		return true, nil
	}

	overflow, err := e.process(buffer, slot)
	if err != nil {
		return false, err
	}
	if !overflow {
		// Fully consumed: recycle the buffer and release the decoder
		// storage exactly once.
		e.pending = e.pending[1:]
		e.decoder.ReleaseChunk(buffer.chunk)
		buffer.chunk = nil
		buffer.data = nil
		e.empty = append(e.empty, buffer)
	}
	return true, nil
}

// process runs one buffer against one encoder slot and submits the slot.
// It reports overflow: true means the buffer was only partially consumed
// and must be retried with a fresh slot next cycle.
//
// The slot has a fixed capacity while the processed input can grow or
// shrink through stretching and remixing, so the computation starts from
// the output capacity and derives the input span that fills it.
func (e *audioEngine) process(buffer *audioBuffer, slot *PCMSlot) (bool, error) {
	outputCapacity := slot.Capacity()
	inputSize := len(buffer.data)

	// Time stretching: the difference between the interpolated output
	// delta and the raw decode delta since the previous buffer is the
	// duration the interpolator adds or removes.
	encoderUs := e.interpolator.Interpolate(TrackAudio, buffer.timeUs)
	if !e.haveLast {
		e.haveLast = true
		e.lastDecoderUs = buffer.timeUs
		e.lastEncoderUs = encoderUs
	}
	decoderDeltaUs := buffer.timeUs - e.lastDecoderUs
	encoderDeltaUs := encoderUs - e.lastEncoderUs
	e.lastDecoderUs = buffer.timeUs
	e.lastEncoderUs = encoderUs
	stretchUs := encoderDeltaUs - decoderDeltaUs
	stretchSamples := usToSamples(stretchUs, e.sampleRate, e.decoderChannels)

	processedInputSize := e.remixer.RemixedSize(inputSize + stretchSamples)

	overflow := processedInputSize > outputCapacity
	consumed := inputSize
	if overflow {
		// Compute the input span that yields exactly outputCapacity
		// output samples.
		ratio := float64(processedInputSize) / float64(inputSize)
		consumed = int(math.Floor(float64(outputCapacity) / ratio))
		e.log.WithFields(logrus.Fields{
			"input":    inputSize,
			"consumed": consumed,
			"capacity": outputCapacity,
		}).Debug("audio buffer overflows encoder slot, splitting")
	}

	stretched := consumed + stretchSamples
	if stretched < 0 {
		stretched = 0
	}
	if cap(e.scratch) < stretched {
		e.scratch = make([]int16, stretched)
	}
	e.scratch = e.scratch[:stretched]
	e.stretcher.Stretch(buffer.data[:consumed], e.scratch, e.decoderChannels)

	slot.N = e.remixer.Remix(e.scratch, slot.Data)
	slot.TimeUs = encoderUs
	if err := e.encoder.QueueInput(slot); err != nil {
		return false, err
	}

	if overflow {
		// Keep the remainder for the next cycle, with the timestamp
		// advanced past the samples just consumed.
		buffer.timeUs += samplesToUs(consumed, e.sampleRate, e.decoderChannels)
		buffer.data = buffer.data[consumed:]
	}
	return overflow, nil
}
