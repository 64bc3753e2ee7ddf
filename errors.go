package transcode

import "errors"

// Common errors
var (
	// ErrInterrupted is returned by Transcode when cancellation was
	// requested. Resources are fully released before it is returned.
	ErrInterrupted = errors.New("transcode interrupted")

	// ErrSampleRateConversion is returned when decoder and encoder sample
	// rates differ. Sample rate conversion is not supported.
	ErrSampleRateConversion = errors.New("audio sample rate conversion not supported")

	// ErrChannelCount is returned for audio channel counts other than 1 or 2.
	ErrChannelCount = errors.New("audio channel count not supported")

	// ErrInconsistentSources is returned when several sources feed one
	// track but they disagree on the track's presence.
	ErrInconsistentSources = errors.New("sources disagree on track presence")

	// ErrCodecNotSupported is returned when no codec is registered for a
	// requested MIME type.
	ErrCodecNotSupported = errors.New("codec not supported")

	// ErrNotSupported is returned when an optional operation is not
	// supported by an implementation.
	ErrNotSupported = errors.New("operation not supported")
)
