package transcode

// Validator decides, after strategies resolved both track statuses, whether
// the transcode is worth running at all. Returning false ends the run
// immediately with ResultNotNeeded and nothing written.
type Validator interface {
	Validate(video, audio TrackStatus) bool
}

// DefaultValidator skips the run when no track is compressed or removed:
// the output would be a bitwise copy of the input.
type DefaultValidator struct{}

func (DefaultValidator) Validate(video, audio TrackStatus) bool {
	return transforms(video) || transforms(audio)
}

func transforms(s TrackStatus) bool {
	return s == TrackStatusCompressing || s == TrackStatusRemoving
}

// WriteAlwaysValidator runs the transcode regardless of track statuses.
type WriteAlwaysValidator struct{}

func (WriteAlwaysValidator) Validate(video, audio TrackStatus) bool { return true }
