package transcode

import "math"

// TimeInterpolator maps source timestamps to output-timeline timestamps.
// Implementations must be monotonic: a larger input time never yields a
// smaller output time for the same track.
type TimeInterpolator interface {
	Interpolate(t TrackType, timeUs int64) int64
}

// DefaultTimeInterpolator returns timestamps unchanged.
type DefaultTimeInterpolator struct{}

func (DefaultTimeInterpolator) Interpolate(t TrackType, timeUs int64) int64 {
	return timeUs
}

// SpeedTimeInterpolator scales the output timeline by a constant factor.
// A factor of 2 makes the output twice as fast (half as long).
type SpeedTimeInterpolator struct {
	Factor float64

	first     trackPair[int64]
	haveFirst trackPair[bool]
}

// NewSpeedTimeInterpolator creates an interpolator that plays the input at
// the given speed factor. The factor must be positive.
func NewSpeedTimeInterpolator(factor float64) *SpeedTimeInterpolator {
	return &SpeedTimeInterpolator{Factor: factor}
}

func (s *SpeedTimeInterpolator) Interpolate(t TrackType, timeUs int64) int64 {
	if !s.haveFirst.get(t) {
		s.haveFirst.set(t, true)
		s.first.set(t, timeUs)
	}
	first := s.first.get(t)
	return first + int64(math.Round(float64(timeUs-first)/s.Factor))
}

// stepGapUs separates consecutive steps on the output timeline so the
// first sample of step k+1 lands strictly after the last of step k.
const stepGapUs = 10

// stepTimeInterpolator rebases one step's source timestamps onto the
// output timeline. The first timestamp it sees establishes an offset, so
// the step's output starts at timebase+stepGapUs regardless of where the
// source's local clock starts. It wraps the user interpolator, whose
// output feeds the sink.
type stepTimeInterpolator struct {
	timebase  int64
	wrapped   TimeInterpolator
	firstTime int64
	lastTime  int64
	haveFirst bool
}

func newStepTimeInterpolator(previous *stepTimeInterpolator, wrapped TimeInterpolator) *stepTimeInterpolator {
	var timebase int64
	if previous != nil {
		timebase = previous.last() + stepGapUs
	}
	return &stepTimeInterpolator{
		timebase: timebase,
		wrapped:  wrapped,
	}
}

func (s *stepTimeInterpolator) Interpolate(t TrackType, timeUs int64) int64 {
	if !s.haveFirst {
		s.haveFirst = true
		s.firstTime = timeUs
	}
	s.lastTime = s.timebase + (timeUs - s.firstTime)
	return s.wrapped.Interpolate(t, s.lastTime)
}

// last returns the most recent rebased timestamp, used as the next step's
// timebase. Before any sample was seen it returns the step's own base.
func (s *stepTimeInterpolator) last() int64 {
	if !s.haveFirst {
		return s.timebase
	}
	return s.lastTime
}
