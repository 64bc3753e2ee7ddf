package transcode

import (
	"fmt"

	"gopkg.in/hraban/opus.v2"
)

// Opus codec sessions backed by libopus. The encoder consumes fixed 20ms
// input slots: Opus only accepts exact frame sizes, which is what the
// audio pipeline's slot-filling is built around.

const (
	opusFrameMs     = 20
	opusMaxFrame    = 5760 // 120ms at 48kHz, per channel
	opusMaxPacket   = 4000
	opusDecoderBufs = 4
	opusEncoderBufs = 4
)

func init() {
	RegisterAudioCodec(MimeTypeOpus,
		func(input MediaFormat) (AudioDecoder, error) { return newOpusDecoder(input) },
		func(output MediaFormat) (AudioEncoder, error) { return newOpusEncoder(output) },
	)
}

func validOpusRate(rate int) bool {
	switch rate {
	case 8000, 12000, 16000, 24000, 48000:
		return true
	}
	return false
}

type opusDecoder struct {
	dec     *opus.Decoder
	format  MediaFormat
	free    []int
	storage [][]int16
	pending []*PCMChunk
	eos     bool
}

func newOpusDecoder(input MediaFormat) (*opusDecoder, error) {
	if !validOpusRate(input.SampleRate) {
		return nil, fmt.Errorf("opus decoder: unsupported sample rate %d", input.SampleRate)
	}
	if input.Channels != 1 && input.Channels != 2 {
		return nil, fmt.Errorf("opus decoder: %w: %d", ErrChannelCount, input.Channels)
	}
	dec, err := opus.NewDecoder(input.SampleRate, input.Channels)
	if err != nil {
		return nil, fmt.Errorf("opus decoder: %w", err)
	}
	d := &opusDecoder{dec: dec, format: input}
	for i := 0; i < opusDecoderBufs; i++ {
		d.storage = append(d.storage, make([]int16, opusMaxFrame*input.Channels))
		d.free = append(d.free, i)
	}
	return d, nil
}

func (d *opusDecoder) Feed(sample *Sample) (bool, error) {
	if d.eos || len(d.free) == 0 {
		return false, nil
	}
	idx := d.free[0]
	buf := d.storage[idx]
	n, err := d.dec.Decode(sample.Data, buf)
	if err != nil {
		return false, fmt.Errorf("opus decode: %w", err)
	}
	d.free = d.free[1:]
	d.pending = append(d.pending, &PCMChunk{
		Data:   buf[:n*d.format.Channels],
		TimeUs: sample.TimeUs,
		Index:  idx,
	})
	return true, nil
}

func (d *opusDecoder) FeedEOS() bool {
	if d.eos {
		return true
	}
	d.eos = true
	d.pending = append(d.pending, &PCMChunk{EOS: true, Index: -1})
	return true
}

func (d *opusDecoder) Drain() (*PCMChunk, error) {
	if len(d.pending) == 0 {
		return nil, nil
	}
	chunk := d.pending[0]
	d.pending = d.pending[1:]
	return chunk, nil
}

func (d *opusDecoder) ReleaseChunk(chunk *PCMChunk) {
	if chunk.Index >= 0 {
		d.free = append(d.free, chunk.Index)
	}
}

func (d *opusDecoder) OutputFormat() MediaFormat {
	return MediaFormat{
		MimeType:   MimeTypeRawAudio,
		SampleRate: d.format.SampleRate,
		Channels:   d.format.Channels,
	}
}

func (d *opusDecoder) Release() {
	d.storage = nil
	d.pending = nil
	d.free = nil
}

type opusEncoder struct {
	enc     *opus.Encoder
	format  MediaFormat
	free    []*PCMSlot
	pending []*Sample
	packet  []byte
	eos     bool
}

func newOpusEncoder(output MediaFormat) (*opusEncoder, error) {
	if !validOpusRate(output.SampleRate) {
		return nil, fmt.Errorf("opus encoder: unsupported sample rate %d", output.SampleRate)
	}
	if output.Channels != 1 && output.Channels != 2 {
		return nil, fmt.Errorf("opus encoder: %w: %d", ErrChannelCount, output.Channels)
	}
	enc, err := opus.NewEncoder(output.SampleRate, output.Channels, opus.AppAudio)
	if err != nil {
		return nil, fmt.Errorf("opus encoder: %w", err)
	}
	if output.BitrateBps > 0 {
		if err := enc.SetBitrate(output.BitrateBps); err != nil {
			return nil, fmt.Errorf("opus encoder: %w", err)
		}
	}
	e := &opusEncoder{
		enc:    enc,
		format: output,
		packet: make([]byte, opusMaxPacket),
	}
	frameSamples := output.SampleRate / 1000 * opusFrameMs * output.Channels
	for i := 0; i < opusEncoderBufs; i++ {
		e.free = append(e.free, &PCMSlot{
			Data:  make([]int16, frameSamples),
			Index: i,
		})
	}
	return e, nil
}

func (e *opusEncoder) DequeueInput() *PCMSlot {
	if e.eos || len(e.free) == 0 {
		return nil
	}
	slot := e.free[0]
	e.free = e.free[1:]
	slot.N = 0
	slot.TimeUs = 0
	slot.EOS = false
	return slot
}

func (e *opusEncoder) QueueInput(slot *PCMSlot) error {
	defer func() { e.free = append(e.free, slot) }()
	if slot.EOS {
		e.eos = true
		e.pending = append(e.pending, &Sample{EOS: true})
		return nil
	}
	// Opus wants complete frames: a final partial slot is padded with
	// silence.
	for i := slot.N; i < len(slot.Data); i++ {
		slot.Data[i] = 0
	}
	n, err := e.enc.Encode(slot.Data, e.packet)
	if err != nil {
		return fmt.Errorf("opus encode: %w", err)
	}
	data := make([]byte, n)
	copy(data, e.packet[:n])
	e.pending = append(e.pending, &Sample{
		Data:     data,
		TimeUs:   slot.TimeUs,
		KeyFrame: true,
	})
	return nil
}

func (e *opusEncoder) Drain() (*Sample, error) {
	if len(e.pending) == 0 {
		return nil, nil
	}
	sample := e.pending[0]
	e.pending = e.pending[1:]
	return sample, nil
}

func (e *opusEncoder) Release() {
	e.free = nil
	e.pending = nil
}
