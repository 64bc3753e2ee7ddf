package transcode

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// audioTrackTranscoder owns a decoder/encoder pair for one audio step and
// pumps data through the audio engine. Each Transcode call performs one
// bounded round of: drain encoder -> drain decoder -> feed decoder -> feed
// encoder; every stage is a non-blocking poll.
type audioTrackTranscoder struct {
	source       DataSource
	sink         DataSink
	interpolator TimeInterpolator
	stretcher    AudioStretcher
	registry     *CodecRegistry
	log          *logrus.Entry

	decoder AudioDecoder
	encoder AudioEncoder
	engine  *audioEngine

	staged     *Sample
	stagedData []byte

	decoderEOSQueued bool
	decoderEOSSeen   bool
	finished         bool
	formatWritten    bool
	outputFormat     MediaFormat
}

func newAudioTrackTranscoder(source DataSource, sink DataSink,
	interpolator TimeInterpolator, stretcher AudioStretcher,
	registry *CodecRegistry, log *logrus.Entry) *audioTrackTranscoder {
	return &audioTrackTranscoder{
		source:       source,
		sink:         sink,
		interpolator: interpolator,
		stretcher:    stretcher,
		registry:     registry,
		log:          log,
	}
}

func (t *audioTrackTranscoder) SetUp(outputFormat MediaFormat) error {
	inputFormat := t.source.TrackFormat(TrackAudio)
	if inputFormat == nil {
		return fmt.Errorf("audio transcoder: source has no audio track")
	}
	decoder, err := t.registry.newAudioDecoder(*inputFormat)
	if err != nil {
		return err
	}
	encoder, err := t.registry.newAudioEncoder(outputFormat)
	if err != nil {
		decoder.Release()
		return err
	}
	engine, err := newAudioEngine(decoder, decoder.OutputFormat(),
		encoder, outputFormat, t.interpolator, t.stretcher, t.log)
	if err != nil {
		decoder.Release()
		encoder.Release()
		return err
	}
	t.decoder = decoder
	t.encoder = encoder
	t.engine = engine
	t.outputFormat = outputFormat
	return nil
}

func (t *audioTrackTranscoder) Transcode() (bool, error) {
	if t.finished {
		return false, nil
	}
	busy := false

	// 1. Drain encoder output into the sink.
	for {
		sample, err := t.encoder.Drain()
		if err != nil {
			return busy, err
		}
		if sample == nil {
			break
		}
		busy = true
		if sample.EOS {
			t.finished = true
			return true, nil
		}
		if err := t.writeSample(sample); err != nil {
			return busy, err
		}
	}

	// 2. Drain decoder output into the pipeline.
	if !t.decoderEOSSeen {
		for {
			chunk, err := t.decoder.Drain()
			if err != nil {
				return busy, err
			}
			if chunk == nil {
				break
			}
			busy = true
			eos := chunk.EOS
			t.engine.drainDecoder(chunk)
			if eos {
				t.decoderEOSSeen = true
				break
			}
		}
	}

	// 3. Feed the decoder from the source.
	for {
		fed, err := t.feedDecoder()
		if err != nil {
			return busy, err
		}
		if !fed {
			break
		}
		busy = true
	}

	// 4. Pump the pipeline into the encoder.
	for {
		moved, err := t.engine.feed()
		if err != nil {
			return busy, err
		}
		if !moved {
			break
		}
		busy = true
	}

	return busy, nil
}

// feedDecoder moves at most one sample from the source into the decoder.
func (t *audioTrackTranscoder) feedDecoder() (bool, error) {
	if t.decoderEOSQueued {
		return false, nil
	}
	if t.staged == nil {
		if t.source.Drained() {
			if t.decoder.FeedEOS() {
				t.decoderEOSQueued = true
			}
			return false, nil
		}
		if !t.source.CanReadTrack(TrackAudio) {
			return false, nil
		}
		var sample Sample
		if !t.source.ReadTrack(TrackAudio, &sample) {
			return false, nil
		}
		// The source may reuse its sample storage; keep our own copy
		// while the decoder applies backpressure.
		t.stagedData = append(t.stagedData[:0], sample.Data...)
		sample.Data = t.stagedData
		t.staged = &sample
	}
	ok, err := t.decoder.Feed(t.staged)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}
	t.staged = nil
	return true, nil
}

func (t *audioTrackTranscoder) writeSample(sample *Sample) error {
	if !t.formatWritten {
		if err := t.sink.SetTrackFormat(TrackAudio, t.outputFormat); err != nil {
			return err
		}
		t.formatWritten = true
	}
	return t.sink.WriteSample(TrackAudio, sample)
}

func (t *audioTrackTranscoder) Finished() bool { return t.finished }

func (t *audioTrackTranscoder) Release() {
	if t.decoder != nil {
		t.decoder.Release()
		t.decoder = nil
	}
	if t.encoder != nil {
		t.encoder.Release()
		t.encoder = nil
	}
	t.engine = nil
}
