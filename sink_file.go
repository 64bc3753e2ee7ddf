package transcode

import (
	"fmt"
	"math/rand"

	"github.com/pion/webrtc/v4/pkg/media/ivfwriter"
	"github.com/pion/webrtc/v4/pkg/media/oggwriter"
)

const videoClockRate = 90000

// FileSink writes transcoded tracks to disk: video to an IVF file (VP8 or
// VP9) and audio to an Ogg file (Opus). Both containers are RTP-fed, so
// samples pass through a Packetizer before hitting the writer. Tracks
// marked removing or absent are skipped.
type FileSink struct {
	videoPath string
	audioPath string

	statuses trackPair[TrackStatus]

	videoWriter *ivfwriter.IVFWriter
	audioWriter *oggwriter.OggWriter
	packetizers trackPair[*Packetizer]

	stopped bool
}

// NewFileSink creates a sink writing video to videoPath and audio to
// audioPath. Either path may be empty to drop that track.
func NewFileSink(videoPath, audioPath string) *FileSink {
	return &FileSink{videoPath: videoPath, audioPath: audioPath}
}

// SetOrientation is a no-op: neither IVF nor Ogg carries orientation.
func (s *FileSink) SetOrientation(degrees int) {}

// SetLocation is a no-op: neither IVF nor Ogg carries location.
func (s *FileSink) SetLocation(lat, lon float64) {}

func (s *FileSink) SetTrackStatus(t TrackType, status TrackStatus) {
	s.statuses.set(t, status)
}

func (s *FileSink) SetTrackFormat(t TrackType, format MediaFormat) error {
	if !s.statuses.get(t).reads() {
		return nil
	}
	if s.packetizers.get(t) != nil {
		return nil
	}
	switch t {
	case TrackVideo:
		if s.videoPath == "" {
			return nil
		}
		switch format.MimeType {
		case MimeTypeVP8, MimeTypeVP9:
		default:
			return fmt.Errorf("%w: cannot write %q to IVF", ErrNotSupported, format.MimeType)
		}
		w, err := ivfwriter.New(s.videoPath, ivfwriter.WithCodec(format.MimeType))
		if err != nil {
			return fmt.Errorf("open IVF writer: %w", err)
		}
		p, err := NewPacketizer(format.MimeType, rand.Uint32(), 96, DefaultMTU, videoClockRate)
		if err != nil {
			w.Close()
			return err
		}
		s.videoWriter = w
		s.packetizers.set(t, p)

	case TrackAudio:
		if s.audioPath == "" {
			return nil
		}
		if format.MimeType != MimeTypeOpus {
			return fmt.Errorf("%w: cannot write %q to Ogg", ErrNotSupported, format.MimeType)
		}
		w, err := oggwriter.New(s.audioPath, uint32(format.SampleRate), uint16(format.Channels))
		if err != nil {
			return fmt.Errorf("open Ogg writer: %w", err)
		}
		p, err := NewPacketizer(format.MimeType, rand.Uint32(), 111, DefaultMTU, format.SampleRate)
		if err != nil {
			w.Close()
			return err
		}
		s.audioWriter = w
		s.packetizers.set(t, p)
	}
	return nil
}

func (s *FileSink) WriteSample(t TrackType, sample *Sample) error {
	packetizer := s.packetizers.get(t)
	if packetizer == nil {
		return nil
	}
	packets, err := packetizer.Packetize(sample)
	if err != nil {
		return err
	}
	for _, pkt := range packets {
		switch t {
		case TrackVideo:
			err = s.videoWriter.WriteRTP(pkt)
		case TrackAudio:
			err = s.audioWriter.WriteRTP(pkt)
		}
		if err != nil {
			return fmt.Errorf("write %s sample: %w", t, err)
		}
	}
	return nil
}

func (s *FileSink) Stop() error {
	s.stopped = true
	return s.closeWriters()
}

func (s *FileSink) Release() {
	if !s.stopped {
		s.closeWriters()
	}
}

func (s *FileSink) closeWriters() error {
	var first error
	if s.videoWriter != nil {
		if err := s.videoWriter.Close(); err != nil && first == nil {
			first = err
		}
		s.videoWriter = nil
	}
	if s.audioWriter != nil {
		if err := s.audioWriter.Close(); err != nil && first == nil {
			first = err
		}
		s.audioWriter = nil
	}
	return first
}
