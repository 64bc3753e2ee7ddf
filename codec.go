package transcode

import (
	"fmt"
	"sync"
)

// Codec sessions follow a poll model: Feed and Drain never block. A Feed
// returning false means the session has no input capacity right now; a
// Drain returning nil means no output is ready. Sessions may do their work
// asynchronously on their own goroutines, or synchronously inside Feed.

// AudioDecoder decodes compressed audio into raw PCM chunks.
type AudioDecoder interface {
	// Feed queues one encoded sample. It reports false, without
	// consuming the sample, when the decoder has no free input capacity.
	Feed(sample *Sample) (bool, error)

	// FeedEOS queues the end-of-stream marker, reporting false when the
	// decoder cannot accept it yet.
	FeedEOS() bool

	// Drain returns the next decoded chunk, or nil when none is ready.
	// After an EOS chunk, Drain always returns nil.
	Drain() (*PCMChunk, error)

	// ReleaseChunk returns the chunk's storage to the decoder. Each
	// drained chunk must be released exactly once.
	ReleaseChunk(*PCMChunk)

	// OutputFormat returns the actual decoded format (rate, channels).
	OutputFormat() MediaFormat

	Release()
}

// AudioEncoder consumes fixed-capacity PCM slots and produces encoded
// samples.
type AudioEncoder interface {
	// DequeueInput returns a free input slot, or nil when the encoder is
	// applying backpressure.
	DequeueInput() *PCMSlot

	// QueueInput submits a slot previously obtained from DequeueInput,
	// with Data[:N] filled and TimeUs stamped. A slot with EOS set ends
	// the stream.
	QueueInput(*PCMSlot) error

	// Drain returns the next encoded sample, nil when buffering. The
	// final sample has EOS set and carries no data.
	Drain() (*Sample, error)

	Release()
}

// VideoDecoder decodes compressed video into raw frames.
type VideoDecoder interface {
	Feed(sample *Sample) (bool, error)
	FeedEOS() bool
	Drain() (*RawFrame, error)

	// ReleaseFrame returns the frame's storage to the decoder.
	ReleaseFrame(*RawFrame)

	Release()
}

// VideoEncoder encodes raw frames into compressed samples.
type VideoEncoder interface {
	// Feed queues one raw frame, reporting false when the encoder has no
	// input capacity. A frame with EOS set ends the stream.
	Feed(frame *RawFrame) (bool, error)
	Drain() (*Sample, error)
	Release()
}

// Factories build codec sessions for a concrete format. Decoder factories
// receive the input (source) format, encoder factories the output format.
type (
	AudioDecoderFactory func(input MediaFormat) (AudioDecoder, error)
	AudioEncoderFactory func(output MediaFormat) (AudioEncoder, error)
	VideoDecoderFactory func(input MediaFormat) (VideoDecoder, error)
	VideoEncoderFactory func(output MediaFormat) (VideoEncoder, error)
)

// CodecRegistry maps MIME types to codec session factories.
type CodecRegistry struct {
	mu            sync.RWMutex
	audioDecoders map[string]AudioDecoderFactory
	audioEncoders map[string]AudioEncoderFactory
	videoDecoders map[string]VideoDecoderFactory
	videoEncoders map[string]VideoEncoderFactory
}

// NewCodecRegistry creates an empty registry. Most callers use the package
// default registry through the Register* functions instead.
func NewCodecRegistry() *CodecRegistry {
	return &CodecRegistry{
		audioDecoders: make(map[string]AudioDecoderFactory),
		audioEncoders: make(map[string]AudioEncoderFactory),
		videoDecoders: make(map[string]VideoDecoderFactory),
		videoEncoders: make(map[string]VideoEncoderFactory),
	}
}

var defaultRegistry = NewCodecRegistry()

// RegisterAudioCodec registers audio session factories for a MIME type in
// the default registry. Either factory may be nil for one-way codecs.
func RegisterAudioCodec(mimeType string, dec AudioDecoderFactory, enc AudioEncoderFactory) {
	defaultRegistry.RegisterAudio(mimeType, dec, enc)
}

// RegisterVideoCodec registers video session factories for a MIME type in
// the default registry.
func RegisterVideoCodec(mimeType string, dec VideoDecoderFactory, enc VideoEncoderFactory) {
	defaultRegistry.RegisterVideo(mimeType, dec, enc)
}

// RegisterAudio registers audio session factories for a MIME type.
func (r *CodecRegistry) RegisterAudio(mimeType string, dec AudioDecoderFactory, enc AudioEncoderFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if dec != nil {
		r.audioDecoders[mimeType] = dec
	}
	if enc != nil {
		r.audioEncoders[mimeType] = enc
	}
}

// RegisterVideo registers video session factories for a MIME type.
func (r *CodecRegistry) RegisterVideo(mimeType string, dec VideoDecoderFactory, enc VideoEncoderFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if dec != nil {
		r.videoDecoders[mimeType] = dec
	}
	if enc != nil {
		r.videoEncoders[mimeType] = enc
	}
}

func (r *CodecRegistry) newAudioDecoder(input MediaFormat) (AudioDecoder, error) {
	r.mu.RLock()
	factory := r.audioDecoders[input.MimeType]
	r.mu.RUnlock()
	if factory == nil {
		return nil, fmt.Errorf("%w: no audio decoder for %q", ErrCodecNotSupported, input.MimeType)
	}
	return factory(input)
}

func (r *CodecRegistry) newAudioEncoder(output MediaFormat) (AudioEncoder, error) {
	r.mu.RLock()
	factory := r.audioEncoders[output.MimeType]
	r.mu.RUnlock()
	if factory == nil {
		return nil, fmt.Errorf("%w: no audio encoder for %q", ErrCodecNotSupported, output.MimeType)
	}
	return factory(output)
}

func (r *CodecRegistry) newVideoDecoder(input MediaFormat) (VideoDecoder, error) {
	r.mu.RLock()
	factory := r.videoDecoders[input.MimeType]
	r.mu.RUnlock()
	if factory == nil {
		return nil, fmt.Errorf("%w: no video decoder for %q", ErrCodecNotSupported, input.MimeType)
	}
	return factory(input)
}

func (r *CodecRegistry) newVideoEncoder(output MediaFormat) (VideoEncoder, error) {
	r.mu.RLock()
	factory := r.videoEncoders[output.MimeType]
	r.mu.RUnlock()
	if factory == nil {
		return nil, fmt.Errorf("%w: no video encoder for %q", ErrCodecNotSupported, output.MimeType)
	}
	return factory(output)
}
