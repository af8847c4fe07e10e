package audio

import (
	"bytes"
	"errors"

	waveaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// decodedWav is a fully decoded PCM file: one float32 sample per
// channel per frame, in [-1, 1].
type decodedWav struct {
	sampleRate int
	channels   int
	frames     [][]float32 // frames[i] has len == channels
}

var errNotWav = errors.New("audio: not a valid WAV file")

// decodeWav hands RIFF/WAVE chunk parsing and bit-depth-aware PCM
// decoding off to go-audio/wav, then reshapes its interleaved int
// buffer into the per-frame float32 layout the rest of this package
// works with.
func decodeWav(wavBytes []byte) (decodedWav, error) {
	dec := wav.NewDecoder(bytes.NewReader(wavBytes))
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return decodedWav{}, errNotWav
	}
	if buf.Format == nil || buf.Format.NumChannels == 0 || buf.Format.SampleRate == 0 {
		return decodedWav{}, errNotWav
	}

	return decodedWav{
		sampleRate: buf.Format.SampleRate,
		channels:   buf.Format.NumChannels,
		frames:     framesFromIntBuffer(buf),
	}, nil
}

// framesFromIntBuffer de-interleaves an IntBuffer's samples into
// per-frame slices, normalizing each sample to [-1, 1] by the source
// bit depth go-audio reports.
func framesFromIntBuffer(buf *waveaudio.IntBuffer) [][]float32 {
	channels := buf.Format.NumChannels
	scale := sampleScale(buf.SourceBitDepth)

	numFrames := len(buf.Data) / channels
	frames := make([][]float32, numFrames)
	for i := 0; i < numFrames; i++ {
		frame := make([]float32, channels)
		base := i * channels
		for ch := 0; ch < channels; ch++ {
			frame[ch] = float32(buf.Data[base+ch]) / scale
		}
		frames[i] = frame
	}
	return frames
}

func sampleScale(bitDepth int) float32 {
	switch bitDepth {
	case 8:
		return 128.0
	case 24:
		return 8388608.0
	case 32:
		return 2147483648.0
	default:
		return 32768.0 // 16-bit is the common case and our fallback
	}
}

// encodeSampleClamp clamps a float32 sample to [-1, 1]; used when
// writing mixed output back out as PCM.
func encodeSampleClamp(v float32) float32 {
	if v > 1 {
		return 1
	}
	if v < -1 {
		return -1
	}
	return v
}
