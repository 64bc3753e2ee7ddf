package transcode

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// videoTrackTranscoder owns a decoder/encoder pair for one video step.
// Frames pass from decoder to encoder one at a time with their timestamps
// remapped through the step interpolator; the pixel data itself is opaque
// to the engine.
type videoTrackTranscoder struct {
	source       DataSource
	sink         DataSink
	interpolator TimeInterpolator
	registry     *CodecRegistry
	log          *logrus.Entry

	decoder VideoDecoder
	encoder VideoEncoder

	staged       *Sample
	stagedData   []byte
	stagedFrame  *RawFrame
	pendingEOS   bool
	decoderEOSIn bool

	finished      bool
	formatWritten bool
	outputFormat  MediaFormat
}

func newVideoTrackTranscoder(source DataSource, sink DataSink,
	interpolator TimeInterpolator, registry *CodecRegistry,
	log *logrus.Entry) *videoTrackTranscoder {
	return &videoTrackTranscoder{
		source:       source,
		sink:         sink,
		interpolator: interpolator,
		registry:     registry,
		log:          log,
	}
}

func (t *videoTrackTranscoder) SetUp(outputFormat MediaFormat) error {
	inputFormat := t.source.TrackFormat(TrackVideo)
	if inputFormat == nil {
		return fmt.Errorf("video transcoder: source has no video track")
	}
	decoder, err := t.registry.newVideoDecoder(*inputFormat)
	if err != nil {
		return err
	}
	encoder, err := t.registry.newVideoEncoder(outputFormat)
	if err != nil {
		decoder.Release()
		return err
	}
	t.decoder = decoder
	t.encoder = encoder
	t.outputFormat = outputFormat
	return nil
}

func (t *videoTrackTranscoder) Transcode() (bool, error) {
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

	// 2. Move decoded frames into the encoder.
	for {
		moved, err := t.feedEncoder()
		if err != nil {
			return busy, err
		}
		if !moved {
			break
		}
		busy = true
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

	return busy, nil
}

// feedEncoder moves at most one decoded frame (or the end-of-stream
// marker) from the decoder to the encoder.
func (t *videoTrackTranscoder) feedEncoder() (bool, error) {
	if t.stagedFrame == nil && !t.pendingEOS {
		frame, err := t.decoder.Drain()
		if err != nil {
			return false, err
		}
		if frame == nil {
			return false, nil
		}
		if frame.EOS {
			t.decoder.ReleaseFrame(frame)
			t.pendingEOS = true
		} else {
			frame.TimeUs = t.interpolator.Interpolate(TrackVideo, frame.TimeUs)
			t.stagedFrame = frame
		}
	}
	if t.pendingEOS {
		ok, err := t.encoder.Feed(&RawFrame{EOS: true})
		if err != nil {
			return false, err
		}
		if ok {
			t.pendingEOS = false
		}
		return ok, nil
	}
	ok, err := t.encoder.Feed(t.stagedFrame)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}
	t.decoder.ReleaseFrame(t.stagedFrame)
	t.stagedFrame = nil
	return true, nil
}

// feedDecoder moves at most one sample from the source into the decoder.
func (t *videoTrackTranscoder) feedDecoder() (bool, error) {
	if t.decoderEOSIn {
		return false, nil
	}
	if t.staged == nil {
		if t.source.Drained() {
			if t.decoder.FeedEOS() {
				t.decoderEOSIn = true
			}
			return false, nil
		}
		if !t.source.CanReadTrack(TrackVideo) {
			return false, nil
		}
		var sample Sample
		if !t.source.ReadTrack(TrackVideo, &sample) {
			return false, nil
		}
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

func (t *videoTrackTranscoder) writeSample(sample *Sample) error {
	if !t.formatWritten {
		if err := t.sink.SetTrackFormat(TrackVideo, t.outputFormat); err != nil {
			return err
		}
		t.formatWritten = true
	}
	return t.sink.WriteSample(TrackVideo, sample)
}

func (t *videoTrackTranscoder) Finished() bool { return t.finished }

func (t *videoTrackTranscoder) Release() {
	if t.stagedFrame != nil {
		t.decoder.ReleaseFrame(t.stagedFrame)
		t.stagedFrame = nil
	}
	if t.decoder != nil {
		t.decoder.Release()
		t.decoder = nil
	}
	if t.encoder != nil {
		t.encoder.Release()
		t.encoder = nil
	}
}
