package transcode

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
)

// Result reports how a finished transcode ended.
type Result int

const (
	// ResultCompleted means the output was fully written.
	ResultCompleted Result = iota

	// ResultNotNeeded means the validator decided the output would be a
	// bitwise copy of the input; nothing was written.
	ResultNotNeeded
)

func (r Result) String() string {
	switch r {
	case ResultCompleted:
		return "completed"
	case ResultNotNeeded:
		return "not needed"
	default:
		return fmt.Sprintf("Result(%d)", int(r))
	}
}

// ProgressUnknown is published when progress cannot be estimated, which
// happens when no track is being compressed.
const ProgressUnknown = -1.0

const (
	progressLoops = 10
	loopBackoff   = 10 * time.Millisecond
)

// Options configures a transcode run. Sink is required; everything else
// has a usable default.
type Options struct {
	// VideoSources and AudioSources are read in order and concatenated
	// into one output track each. Use AddSource for sources that carry
	// both tracks.
	VideoSources []DataSource
	AudioSources []DataSource

	Sink DataSink

	VideoStrategy TrackStrategy // default DefaultVideoStrategy{}
	AudioStrategy TrackStrategy // default DefaultAudioStrategy{}
	Validator     Validator     // default DefaultValidator{}

	// Rotation is applied on top of the sources' orientation. A non-zero
	// value forces the run even when the validator would skip it.
	Rotation int

	TimeInterpolator TimeInterpolator // default DefaultTimeInterpolator{}
	AudioStretcher   AudioStretcher   // default CutOrInsertStretcher{}

	Codecs *CodecRegistry // default: the package registry

	// OnProgress is called periodically with a value in [0, 1], or
	// ProgressUnknown. It runs on the transcoding goroutine.
	OnProgress func(progress float64)

	Logger *logrus.Logger
}

// AddSource appends a source to both track lists.
func (o *Options) AddSource(source DataSource) {
	o.VideoSources = append(o.VideoSources, source)
	o.AudioSources = append(o.AudioSources, source)
}

func (o *Options) strategy(t TrackType) TrackStrategy {
	if t == TrackVideo {
		return o.VideoStrategy
	}
	return o.AudioStrategy
}

// Engine orchestrates one transcode run: it resolves per-track statuses
// through the strategies, validates, then steps both tracks forward until
// every source is drained. An Engine is single-use.
type Engine struct {
	options *Options
	log     *logrus.Entry

	sources      trackPair[[]DataSource]
	status       trackPair[TrackStatus]
	outputFormat trackPair[MediaFormat]

	current    trackPair[TrackTranscoder]
	step       trackPair[int]
	lastInterp trackPair[*stepTimeInterpolator]

	progress atomic.Uint64
}

// NewEngine validates options, fills in defaults, and returns an engine
// ready to run.
func NewEngine(options *Options) (*Engine, error) {
	if options == nil || options.Sink == nil {
		return nil, errors.New("transcode: options require a Sink")
	}
	if options.VideoStrategy == nil {
		options.VideoStrategy = DefaultVideoStrategy{}
	}
	if options.AudioStrategy == nil {
		options.AudioStrategy = DefaultAudioStrategy{}
	}
	if options.Validator == nil {
		options.Validator = DefaultValidator{}
	}
	if options.TimeInterpolator == nil {
		options.TimeInterpolator = DefaultTimeInterpolator{}
	}
	if options.AudioStretcher == nil {
		options.AudioStretcher = CutOrInsertStretcher{}
	}
	if options.Codecs == nil {
		options.Codecs = defaultRegistry
	}
	logger := options.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	e := &Engine{
		options: options,
		log:     logger.WithField("component", "engine"),
	}
	e.sources.set(TrackVideo, options.VideoSources)
	e.sources.set(TrackAudio, options.AudioSources)
	e.setProgress(ProgressUnknown)
	return e, nil
}

// Transcode is a convenience wrapper running a whole transcode in one call.
func Transcode(ctx context.Context, options *Options) (Result, error) {
	e, err := NewEngine(options)
	if err != nil {
		return 0, err
	}
	return e.Transcode(ctx)
}

// Progress returns the last published progress, safe to call from any
// goroutine while Transcode runs.
func (e *Engine) Progress() float64 {
	return math.Float64frombits(e.progress.Load())
}

func (e *Engine) setProgress(p float64) {
	e.progress.Store(math.Float64bits(p))
}

// Transcode runs the engine to completion. Cancelling ctx stops the run
// and returns ErrInterrupted. The sink is always released; Stop is only
// called on success.
func (e *Engine) Transcode(ctx context.Context) (result Result, err error) {
	defer e.cleanup()

	for _, t := range []TrackType{TrackVideo, TrackAudio} {
		if err := e.resolveTrack(t); err != nil {
			return 0, err
		}
	}

	sink := e.options.Sink
	sink.SetTrackStatus(TrackVideo, e.status.get(TrackVideo))
	sink.SetTrackStatus(TrackAudio, e.status.get(TrackAudio))

	forced := e.options.Rotation%360 != 0
	if !e.options.Validator.Validate(e.status.get(TrackVideo), e.status.get(TrackAudio)) && !forced {
		e.log.Info("validator skipped transcoding")
		return ResultNotNeeded, nil
	}

	e.setUpMetadata()

	if d := e.totalDurationUs(); d > 0 {
		e.log.WithField("duration_us", d).Debug("starting transcode")
	}

	loops := 0
	for !e.completed() {
		if ctx.Err() != nil {
			return 0, ErrInterrupted
		}
		videoAdvanced, err := e.advance(TrackVideo)
		if err != nil {
			return 0, err
		}
		audioAdvanced, err := e.advance(TrackAudio)
		if err != nil {
			return 0, err
		}
		loops++
		if loops%progressLoops == 0 {
			e.publishProgress()
		}
		if !videoAdvanced && !audioAdvanced && !e.completed() {
			select {
			case <-ctx.Done():
				return 0, ErrInterrupted
			case <-time.After(loopBackoff):
			}
		}
	}

	if err := sink.Stop(); err != nil {
		return 0, fmt.Errorf("stop sink: %w", err)
	}
	e.setProgress(1)
	if e.options.OnProgress != nil {
		e.options.OnProgress(1)
	}
	return ResultCompleted, nil
}

// resolveTrack collects the track's formats across its sources and asks the
// strategy for an output format and status. A track that no source carries
// is absent; a track that only some sources carry is an error, since the
// concatenated output would have a gap.
func (e *Engine) resolveTrack(t TrackType) error {
	sources := e.sources.get(t)
	formats := make([]MediaFormat, 0, len(sources))
	for _, s := range sources {
		if f := s.TrackFormat(t); f != nil {
			formats = append(formats, *f)
		}
	}
	if len(formats) == 0 {
		e.status.set(t, TrackStatusAbsent)
		return nil
	}
	if len(formats) != len(sources) {
		return fmt.Errorf("%w: %d of %d %s sources carry the track",
			ErrInconsistentSources, len(formats), len(sources), t)
	}
	format, status, err := e.options.strategy(t).CreateOutputFormat(formats)
	if err != nil {
		return fmt.Errorf("%s strategy: %w", t, err)
	}
	e.status.set(t, status)
	e.outputFormat.set(t, format)
	e.log.WithFields(logrus.Fields{
		"track":  t.String(),
		"status": status.String(),
	}).Debug("track resolved")
	return nil
}

// setUpMetadata propagates orientation and location to the sink. The
// orientation comes from the first video source, plus the requested
// rotation; the location from the first source that has one, video sources
// first.
func (e *Engine) setUpMetadata() {
	orientation := e.options.Rotation
	if videoSources := e.sources.get(TrackVideo); len(videoSources) > 0 {
		orientation += videoSources[0].OrientationDegrees()
	}
	e.options.Sink.SetOrientation(((orientation % 360) + 360) % 360)

	seen := map[DataSource]bool{}
	for _, t := range []TrackType{TrackVideo, TrackAudio} {
		for _, s := range e.sources.get(t) {
			if seen[s] {
				continue
			}
			seen[s] = true
			if lat, lon, ok := s.Location(); ok {
				e.options.Sink.SetLocation(lat, lon)
				return
			}
		}
	}
}

// totalDurationUs is the smaller of the two track durations, matching what
// a player would report for the output. Informational only.
func (e *Engine) totalDurationUs() int64 {
	min := int64(math.MaxInt64)
	any := false
	for _, t := range []TrackType{TrackVideo, TrackAudio} {
		if !e.status.get(t).reads() {
			continue
		}
		any = true
		if d := e.trackDurationUs(t); d < min {
			min = d
		}
	}
	if !any {
		return 0
	}
	return min
}

func (e *Engine) trackDurationUs(t TrackType) int64 {
	var total int64
	for _, s := range e.sources.get(t) {
		total += s.DurationUs()
	}
	return total
}

func (e *Engine) completed() bool {
	for _, t := range []TrackType{TrackVideo, TrackAudio} {
		if !e.trackCompleted(t) {
			return false
		}
	}
	return true
}

func (e *Engine) trackCompleted(t TrackType) bool {
	if e.status.get(t) == TrackStatusAbsent {
		return true
	}
	return e.step.get(t) >= len(e.sources.get(t)) && e.current.get(t) == nil
}

// advance pushes the track's current step forward by at most one sample.
func (e *Engine) advance(t TrackType) (bool, error) {
	if e.trackCompleted(t) {
		return false, nil
	}
	transcoder, err := e.currentTranscoder(t)
	if err != nil {
		return false, err
	}
	if transcoder == nil {
		return false, nil
	}
	advanced, err := transcoder.Transcode()
	if err != nil {
		return false, fmt.Errorf("%s step %d: %w", t, e.step.get(t), err)
	}
	return advanced, nil
}

// currentTranscoder returns the transcoder for the track's current step,
// opening and closing steps as they start and finish. Returns nil when the
// track has no steps left.
func (e *Engine) currentTranscoder(t TrackType) (TrackTranscoder, error) {
	sources := e.sources.get(t)
	// Each pass either returns or closes one finished step, so the loop is
	// bounded by the number of remaining steps.
	for range sources {
		if e.step.get(t) >= len(sources) {
			return nil, nil
		}
		if e.current.get(t) == nil {
			if err := e.openCurrentStep(t); err != nil {
				return nil, err
			}
		}
		transcoder := e.current.get(t)
		if !transcoder.Finished() {
			return transcoder, nil
		}
		e.closeCurrentStep(t)
	}
	if e.step.get(t) < len(sources) {
		return nil, fmt.Errorf("%s: transcoder state did not converge at step %d", t, e.step.get(t))
	}
	return nil, nil
}

func (e *Engine) openCurrentStep(t TrackType) error {
	step := e.step.get(t)
	source := e.sources.get(t)[step]
	status := e.status.get(t)

	if status.reads() {
		source.SelectTrack(t)
	}

	interp := newStepTimeInterpolator(e.lastInterp.get(t), e.options.TimeInterpolator)
	e.lastInterp.set(t, interp)

	var transcoder TrackTranscoder
	switch status {
	case TrackStatusPassThrough:
		transcoder = newPassThroughTrackTranscoder(source, e.options.Sink, t, interp)
	case TrackStatusCompressing:
		log := e.log.Logger.WithFields(logrus.Fields{"track": t.String(), "step": step})
		if t == TrackAudio {
			transcoder = newAudioTrackTranscoder(source, e.options.Sink,
				interp, e.options.AudioStretcher, e.options.Codecs, log)
		} else {
			transcoder = newVideoTrackTranscoder(source, e.options.Sink,
				interp, e.options.Codecs, log)
		}
	default:
		transcoder = &noOpTrackTranscoder{}
	}

	if err := transcoder.SetUp(e.outputFormat.get(t)); err != nil {
		transcoder.Release()
		return fmt.Errorf("%s step %d setup: %w", t, step, err)
	}
	e.current.set(t, transcoder)
	e.log.WithFields(logrus.Fields{"track": t.String(), "step": step}).Debug("step opened")
	return nil
}

func (e *Engine) closeCurrentStep(t TrackType) {
	transcoder := e.current.get(t)
	if transcoder == nil {
		return
	}
	transcoder.Release()
	e.current.set(t, nil)
	e.step.set(t, e.step.get(t)+1)
	e.log.WithFields(logrus.Fields{
		"track": t.String(),
		"step":  e.step.get(t) - 1,
	}).Debug("step closed")
}

// publishProgress estimates overall progress from the source read positions.
// Without a compressing track there is no meaningful estimate, so
// ProgressUnknown is published instead.
func (e *Engine) publishProgress() {
	if !e.status.get(TrackVideo).IsTranscoding() && !e.status.get(TrackAudio).IsTranscoding() {
		e.setProgress(ProgressUnknown)
		if e.options.OnProgress != nil {
			e.options.OnProgress(ProgressUnknown)
		}
		return
	}
	var sum float64
	var tracks int
	for _, t := range []TrackType{TrackVideo, TrackAudio} {
		if !e.status.get(t).IsTranscoding() {
			continue
		}
		tracks++
		duration := e.trackDurationUs(t)
		if duration <= 0 {
			sum += 1
			continue
		}
		var readUs int64
		for i, s := range e.sources.get(t) {
			if i > e.step.get(t) {
				break
			}
			readUs += s.LastTimestampUs() - s.FirstTimestampUs()
		}
		p := float64(readUs) / float64(duration)
		if p > 1 {
			p = 1
		}
		sum += p
	}
	progress := sum / float64(tracks)
	e.setProgress(progress)
	if e.options.OnProgress != nil {
		e.options.OnProgress(progress)
	}
}

// cleanup releases open steps, every source exactly once, and the sink.
// Sources shared between tracks show up in both lists, so releases are
// deduplicated by identity.
func (e *Engine) cleanup() {
	for _, t := range []TrackType{TrackVideo, TrackAudio} {
		e.closeCurrentStep(t)
	}
	seen := map[DataSource]bool{}
	for _, t := range []TrackType{TrackVideo, TrackAudio} {
		for _, s := range e.sources.get(t) {
			if seen[s] {
				continue
			}
			seen[s] = true
			s.Release()
		}
	}
	e.options.Sink.Release()
}
