package transcode

import (
	"fmt"
	"sync"

	"github.com/pion/rtp"
	"github.com/pion/rtp/codecs"
)

// DefaultMTU is the packetizer MTU used when none is configured.
const DefaultMTU = 1200

const rtpHeaderSize = 12

// Packetizer converts transcoded samples of one track into RTP packets.
// Timestamps are converted from microseconds to ticks of the codec clock
// rate. Safe for concurrent use.
type Packetizer struct {
	ssrc        uint32
	payloadType uint8
	mtu         int
	clockRate   int
	sequencer   rtp.Sequencer
	payloader   rtp.Payloader
	audio       bool
	mu          sync.Mutex
}

// NewPacketizer creates an RTP packetizer for the given mime type. The
// clock rate follows RTP conventions: 90kHz for video, the sample rate
// for audio.
func NewPacketizer(mime string, ssrc uint32, pt uint8, mtu, clockRate int) (*Packetizer, error) {
	if mtu <= 0 {
		mtu = DefaultMTU
	}
	var payloader rtp.Payloader
	audio := false
	switch mime {
	case MimeTypeVP8:
		payloader = &codecs.VP8Payloader{}
	case MimeTypeVP9:
		payloader = &codecs.VP9Payloader{}
	case MimeTypeOpus:
		payloader = &codecs.OpusPayloader{}
		audio = true
	default:
		return nil, fmt.Errorf("%w: no RTP payloader for %q", ErrNotSupported, mime)
	}
	return &Packetizer{
		ssrc:        ssrc,
		payloadType: pt,
		mtu:         mtu,
		clockRate:   clockRate,
		sequencer:   rtp.NewRandomSequencer(),
		payloader:   payloader,
		audio:       audio,
	}, nil
}

// Packetize converts one sample to RTP packets. EOS samples and empty
// payloads produce no packets.
func (p *Packetizer) Packetize(sample *Sample) ([]*rtp.Packet, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if sample.EOS || len(sample.Data) == 0 {
		return nil, nil
	}

	payloads := p.payloader.Payload(uint16(p.mtu-rtpHeaderSize), sample.Data)
	if len(payloads) == 0 {
		return nil, nil
	}

	ts := uint32(sample.TimeUs * int64(p.clockRate) / 1_000_000)
	packets := make([]*rtp.Packet, len(payloads))
	for i, payload := range payloads {
		packets[i] = &rtp.Packet{
			Header: rtp.Header{
				Version:        2,
				Marker:         p.audio || i == len(payloads)-1,
				PayloadType:    p.payloadType,
				SequenceNumber: p.sequencer.NextSequenceNumber(),
				Timestamp:      ts,
				SSRC:           p.ssrc,
			},
			Payload: payload,
		}
	}
	return packets, nil
}

// PacketizeToBytes converts one sample to marshaled RTP packets.
func (p *Packetizer) PacketizeToBytes(sample *Sample) ([][]byte, error) {
	packets, err := p.Packetize(sample)
	if err != nil {
		return nil, err
	}
	result := make([][]byte, len(packets))
	for i, pkt := range packets {
		result[i], err = pkt.Marshal()
		if err != nil {
			return nil, err
		}
	}
	return result, nil
}

func (p *Packetizer) SSRC() uint32 { p.mu.Lock(); defer p.mu.Unlock(); return p.ssrc }

func (p *Packetizer) PayloadType() uint8 { p.mu.Lock(); defer p.mu.Unlock(); return p.payloadType }

func (p *Packetizer) MTU() int { p.mu.Lock(); defer p.mu.Unlock(); return p.mtu }
