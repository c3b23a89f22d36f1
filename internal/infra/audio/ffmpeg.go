package audio

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// FFmpeg shells out to the ffmpeg binary for formats go-audio cannot read.
type FFmpeg struct {
	path string
}

func NewFFmpeg(path string) *FFmpeg {
	if path == "" {
		path = "ffmpeg"
	}
	return &FFmpeg{path: path}
}

// SegmentMP3 splits in into mp3 chunks named {base}_chunk{i}.mp3 in outDir.
func (f *FFmpeg) SegmentMP3(ctx context.Context, in string, target time.Duration, outDir, base string) error {
	// the segment muxer treats the output name as a printf pattern
	pattern := filepath.Join(outDir, strings.ReplaceAll(base, "%", "%%")+"_chunk%d.mp3")

	return f.run(ctx,
		"-y", "-i", in,
		"-map", "0:a",
		"-f", "segment",
		"-segment_time", strconv.FormatFloat(target.Seconds(), 'f', -1, 64),
		"-reset_timestamps", "1",
		"-c:a", "libmp3lame",
		pattern,
	)
}

// ToWAV16k converts in to 16 kHz mono PCM WAV inside outDir and returns the
// new file's path.
func (f *FFmpeg) ToWAV16k(ctx context.Context, in, outDir string) (string, error) {
	base := strings.TrimSuffix(filepath.Base(in), filepath.Ext(in))
	out := filepath.Join(outDir, base+"_16k.wav")

	if err := f.run(ctx, "-y", "-i", in, "-ac", "1", "-ar", "16000", "-c:a", "pcm_s16le", "-f", "wav", out); err != nil {
		return "", err
	}
	return out, nil
}

func (f *FFmpeg) run(ctx context.Context, args ...string) error {
	cmd := exec.CommandContext(ctx, f.path, append([]string{"-hide_banner", "-loglevel", "error"}, args...)...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			return fmt.Errorf("ffmpeg: %w", err)
		}
		return fmt.Errorf("ffmpeg: %w: %s", err, msg)
	}
	return nil
}
