package transcode

import "fmt"

// Identity PCM "codec": decodes audio/pcm samples (s16le) into PCM chunks
// and encodes PCM slots back into audio/pcm samples. It performs no
// compression but exercises the exact buffer contract real codecs have:
// pooled decoder storage, fixed-size encoder slots and backpressure on
// both sides.

const (
	pcmDecoderChunks = 4
	pcmEncoderSlots  = 4
	pcmSlotFrames    = 1024 // frames per encoder slot
)

func init() {
	RegisterAudioCodec(MimeTypeRawAudio,
		func(input MediaFormat) (AudioDecoder, error) { return newPCMDecoder(input) },
		func(output MediaFormat) (AudioEncoder, error) { return newPCMEncoder(output) },
	)
}

type pcmDecoder struct {
	format  MediaFormat
	free    []int
	storage [][]int16
	pending []*PCMChunk
	eos     bool
}

func newPCMDecoder(input MediaFormat) (*pcmDecoder, error) {
	if input.SampleRate <= 0 || input.Channels <= 0 {
		return nil, fmt.Errorf("pcm decoder: invalid format %+v", input)
	}
	d := &pcmDecoder{format: input}
	for i := 0; i < pcmDecoderChunks; i++ {
		d.storage = append(d.storage, nil)
		d.free = append(d.free, i)
	}
	return d, nil
}

func (d *pcmDecoder) Feed(sample *Sample) (bool, error) {
	if d.eos {
		return false, nil
	}
	if len(d.free) == 0 {
		return false, nil
	}
	idx := d.free[0]
	d.free = d.free[1:]
	d.storage[idx] = bytesToPCM(sample.Data, d.storage[idx])
	d.pending = append(d.pending, &PCMChunk{
		Data:   d.storage[idx],
		TimeUs: sample.TimeUs,
		Index:  idx,
	})
	return true, nil
}

func (d *pcmDecoder) FeedEOS() bool {
	if d.eos {
		return true
	}
	d.eos = true
	d.pending = append(d.pending, &PCMChunk{EOS: true, Index: -1})
	return true
}

func (d *pcmDecoder) Drain() (*PCMChunk, error) {
	if len(d.pending) == 0 {
		return nil, nil
	}
	chunk := d.pending[0]
	d.pending = d.pending[1:]
	return chunk, nil
}

func (d *pcmDecoder) ReleaseChunk(chunk *PCMChunk) {
	if chunk.Index >= 0 {
		d.free = append(d.free, chunk.Index)
	}
}

func (d *pcmDecoder) OutputFormat() MediaFormat { return d.format }

func (d *pcmDecoder) Release() {
	d.storage = nil
	d.pending = nil
	d.free = nil
}

type pcmEncoder struct {
	format  MediaFormat
	free    []*PCMSlot
	pending []*Sample
	eos     bool
}

func newPCMEncoder(output MediaFormat) (*pcmEncoder, error) {
	if output.SampleRate <= 0 || output.Channels <= 0 {
		return nil, fmt.Errorf("pcm encoder: invalid format %+v", output)
	}
	e := &pcmEncoder{format: output}
	for i := 0; i < pcmEncoderSlots; i++ {
		e.free = append(e.free, &PCMSlot{
			Data:  make([]int16, pcmSlotFrames*output.Channels),
			Index: i,
		})
	}
	return e, nil
}

func (e *pcmEncoder) DequeueInput() *PCMSlot {
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

func (e *pcmEncoder) QueueInput(slot *PCMSlot) error {
	if slot.EOS {
		e.eos = true
		e.pending = append(e.pending, &Sample{EOS: true})
		e.free = append(e.free, slot)
		return nil
	}
	e.pending = append(e.pending, &Sample{
		Data:     pcmToBytes(slot.Data[:slot.N], nil),
		TimeUs:   slot.TimeUs,
		KeyFrame: true,
	})
	e.free = append(e.free, slot)
	return nil
}

func (e *pcmEncoder) Drain() (*Sample, error) {
	if len(e.pending) == 0 {
		return nil, nil
	}
	sample := e.pending[0]
	e.pending = e.pending[1:]
	return sample, nil
}

func (e *pcmEncoder) Release() {
	e.free = nil
	e.pending = nil
}
