package whispercpp

import (
	"context"
	"fmt"
	"os"

	"ephemerear/internal/infra/audio"
)

// SampleRate is the only rate whisper.cpp accepts.
const SampleRate = 16000

// SampleLoader turns a recording into the mono float32 samples whisper.cpp
// consumes. WAV files already at 16 kHz are decoded directly; everything
// else is converted with ffmpeg into cacheDir first.
type SampleLoader struct {
	ffmpeg   *audio.FFmpeg
	cacheDir string
}

func NewSampleLoader(ffmpeg *audio.FFmpeg, cacheDir string) *SampleLoader {
	return &SampleLoader{ffmpeg: ffmpeg, cacheDir: cacheDir}
}

func (l *SampleLoader) Load(ctx context.Context, path string) ([]float32, error) {
	if info, err := audio.ProbeWAV(path); err == nil && info.SampleRate == SampleRate {
		samples, _, err := audio.DecodeMonoFloat32(path)
		return samples, err
	}

	if err := os.MkdirAll(l.cacheDir, 0755); err != nil {
		return nil, fmt.Errorf("%w: %w", audio.ErrCacheDir, err)
	}

	converted, err := l.ffmpeg.ToWAV16k(ctx, path, l.cacheDir)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", audio.ErrDecode, err)
	}
	defer os.Remove(converted)

	samples, _, err := audio.DecodeMonoFloat32(converted)
	return samples, err
}
