package audio

import (
	"fmt"
	"io"
	"os"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/orcaman/writerseeker"
)

// WAVInfo describes the PCM layout of a WAV file.
type WAVInfo struct {
	SampleRate int
	Channels   int
	BitDepth   int
}

// ProbeWAV reports the layout of a PCM WAV file. It fails with ErrDecode for
// anything go-audio cannot read as PCM.
func ProbeWAV(path string) (WAVInfo, error) {
	f, err := os.Open(path)
	if err != nil {
		return WAVInfo{}, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() || dec.WavAudioFormat != wavFormatPCM {
		return WAVInfo{}, fmt.Errorf("%w: %s is not a PCM wav file", ErrDecode, path)
	}

	return WAVInfo{
		SampleRate: int(dec.SampleRate),
		Channels:   int(dec.NumChans),
		BitDepth:   int(dec.BitDepth),
	}, nil
}

// DecodeMonoFloat32 reads a PCM WAV file and returns its samples mixed down
// to one channel and scaled to [-1, 1], along with the sample rate.
func DecodeMonoFloat32(path string) ([]float32, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return nil, 0, fmt.Errorf("%w: %s is not a valid wav file", ErrDecode, path)
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %w", ErrDecode, err)
	}

	channels := buf.Format.NumChannels
	if channels < 1 {
		channels = 1
	}
	scale := float32(int64(1) << (dec.BitDepth - 1))

	frames := len(buf.Data) / channels
	samples := make([]float32, frames)
	for i := range frames {
		var sum float32
		for c := range channels {
			sum += float32(buf.Data[i*channels+c])
		}
		samples[i] = sum / float32(channels) / scale
	}

	return samples, buf.Format.SampleRate, nil
}

// EncodeWAV renders 16-bit mono samples as a complete WAV file in memory.
func EncodeWAV(samples []int, sampleRate int) ([]byte, error) {
	out := &writerseeker.WriterSeeker{}
	enc := wav.NewEncoder(out, sampleRate, 16, 1, wavFormatPCM)

	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: 1, SampleRate: sampleRate},
		SourceBitDepth: 16,
		Data:           samples,
	}
	if err := enc.Write(buf); err != nil {
		return nil, fmt.Errorf("encoding samples: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("finishing wav: %w", err)
	}

	data, err := io.ReadAll(out.Reader())
	if err != nil {
		return nil, fmt.Errorf("reading encoded wav: %w", err)
	}
	return data, nil
}
