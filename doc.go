// Package transcode implements batch transcoding of timed media sources
// into a single muxed output.
//
// A transcode operation takes an ordered list of DataSources per track
// (audio and video), decides per track whether to compress, pass through,
// or drop it, and drives every track to completion on the calling
// goroutine while reporting aggregate progress:
//
//	opts := &transcode.Options{Sink: sink}
//	opts.AddSource(src)
//	result, err := transcode.Transcode(ctx, opts)
//
// Multiple sources per track are concatenated: each source is processed as
// one step, and a per-step time interpolator keeps output timestamps
// continuous and strictly increasing across step boundaries.
//
// # Architecture
//
//	Compressing: DataSource -> Decoder -> (audio: remix/stretch pipeline) -> Encoder -> DataSink
//	Pass-through: DataSource -> timestamp remap -> DataSink
//
// Codecs are pluggable. Decoders and encoders are registered by MIME type
// in a codec registry; the package ships an identity PCM codec and an Opus
// codec (libopus via cgo). Codec sessions may run asynchronously relative
// to the engine: the engine only polls them, it never blocks on a session.
//
// # Limitations
//
// Audio sample rate conversion is not supported and fails fast; audio
// channel counts are limited to mono and stereo. Live/streaming operation
// is out of scope: Transcode is a run-to-completion batch call.
package transcode
