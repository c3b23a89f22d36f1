package audio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

var (
	// ErrDecode is returned when a recording cannot be decoded.
	ErrDecode = errors.New("cannot decode audio")
	// ErrCacheDir is returned when the chunk cache directory cannot be created.
	ErrCacheDir = errors.New("cannot create cache dir")
)

const (
	wavFormatPCM = 1
	// wavHeaderBytes leaves room for the RIFF, fmt and data headers of a chunk.
	wavHeaderBytes = 1024
)

// Segmenter splits recordings into consecutive fixed-duration chunks.
// PCM WAV files are split natively; anything else goes through ffmpeg.
type Segmenter struct {
	ffmpeg        *FFmpeg
	maxChunkBytes int64
	logger        *slog.Logger
}

// NewSegmenter returns a Segmenter whose WAV chunks never exceed
// maxChunkBytes. Zero or less disables the size cap.
func NewSegmenter(ffmpeg *FFmpeg, maxChunkBytes int64, logger *slog.Logger) *Segmenter {
	return &Segmenter{ffmpeg: ffmpeg, maxChunkBytes: maxChunkBytes, logger: logger}
}

// Segment writes chunks named {base}_chunk{i}.{ext} under cacheDir and
// returns their paths in playback order. The last chunk may be shorter.
// WAV chunks are shortened below target when a target-length chunk would
// exceed the size cap.
func (s *Segmenter) Segment(ctx context.Context, path string, target time.Duration, cacheDir string) ([]string, error) {
	if target <= 0 {
		return nil, fmt.Errorf("invalid chunk duration %s", target)
	}

	if err := os.MkdirAll(cacheDir, 0755); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCacheDir, err)
	}

	var (
		chunks []string
		err    error
	)
	if isPCMWav(path) {
		chunks, err = s.segmentWAV(path, target, cacheDir)
	} else {
		chunks, err = s.segmentFFmpeg(ctx, path, target, cacheDir)
	}
	if err != nil {
		return nil, err
	}

	s.logger.Info("split recording into chunks", "file", filepath.Base(path), "chunks", len(chunks))
	return chunks, nil
}

func chunkPath(cacheDir, base string, index int, ext string) string {
	return filepath.Join(cacheDir, fmt.Sprintf("%s_chunk%d.%s", base, index, ext))
}

// removeStaleChunks deletes chunks left by an earlier run so they are not
// mistaken for output of this one.
func removeStaleChunks(cacheDir, base, ext string) {
	for i := 0; ; i++ {
		if err := os.Remove(chunkPath(cacheDir, base, i, ext)); err != nil {
			return
		}
	}
}

func isPCMWav(path string) bool {
	if !strings.EqualFold(filepath.Ext(path), ".wav") {
		return false
	}

	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	return dec.IsValidFile() && dec.WavAudioFormat == wavFormatPCM
}

func (s *Segmenter) segmentWAV(path string, target time.Duration, cacheDir string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return nil, fmt.Errorf("%w: %s is not a valid wav file", ErrDecode, path)
	}
	if err := dec.FwdToPCM(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}

	format := dec.Format()
	bitDepth := int(dec.BitDepth)
	channels := format.NumChannels
	rate := format.SampleRate

	frames, err := s.framesPerChunk(target, rate, channels*bitDepth/8)
	if err != nil {
		return nil, err
	}
	perChunk := frames * channels

	base := filepath.Base(path)
	removeStaleChunks(cacheDir, base, "wav")

	block := &goaudio.IntBuffer{
		Format:         format,
		SourceBitDepth: bitDepth,
		Data:           make([]int, min(rate*channels, perChunk)),
	}

	var (
		chunks  []string
		out     *os.File
		enc     *wav.Encoder
		written int
	)

	closeChunk := func() error {
		if enc == nil {
			return nil
		}
		encErr := enc.Close()
		fileErr := out.Close()
		enc, out = nil, nil
		if encErr != nil {
			return fmt.Errorf("finishing chunk: %w", encErr)
		}
		return fileErr
	}
	fail := func(err error) ([]string, error) {
		closeChunk()
		return nil, err
	}

	for {
		n, err := dec.PCMBuffer(block)
		if err != nil && !errors.Is(err, io.EOF) {
			return fail(fmt.Errorf("%w: %w", ErrDecode, err))
		}
		if n == 0 {
			break
		}

		data := block.Data[:n]
		for len(data) > 0 {
			if enc == nil {
				name := chunkPath(cacheDir, base, len(chunks), "wav")
				out, err = os.Create(name)
				if err != nil {
					return fail(fmt.Errorf("creating chunk: %w", err))
				}
				enc = wav.NewEncoder(out, rate, bitDepth, channels, wavFormatPCM)
				chunks = append(chunks, name)
				written = 0
			}

			take := min(len(data), perChunk-written)
			if err := enc.Write(&goaudio.IntBuffer{Format: format, SourceBitDepth: bitDepth, Data: data[:take]}); err != nil {
				return fail(fmt.Errorf("writing chunk: %w", err))
			}
			written += take
			data = data[take:]

			if written == perChunk {
				if err := closeChunk(); err != nil {
					return nil, err
				}
			}
		}
	}

	if err := closeChunk(); err != nil {
		return nil, err
	}

	if len(chunks) == 0 {
		return nil, fmt.Errorf("%w: %s has no audio samples", ErrDecode, path)
	}

	return chunks, nil
}

// framesPerChunk is the target duration in frames, lowered so that a chunk
// of frameBytes-sized frames stays within maxChunkBytes.
func (s *Segmenter) framesPerChunk(target time.Duration, rate, frameBytes int) (int, error) {
	frames := int(target.Seconds() * float64(rate))
	if frames <= 0 {
		return 0, fmt.Errorf("chunk duration %s is shorter than one frame", target)
	}

	if s.maxChunkBytes > 0 && frameBytes > 0 {
		limit := int((s.maxChunkBytes - wavHeaderBytes) / int64(frameBytes))
		if limit <= 0 {
			return 0, fmt.Errorf("chunk size limit of %d bytes is smaller than one frame", s.maxChunkBytes)
		}
		if limit < frames {
			s.logger.Debug("shortening chunks to fit the size limit",
				"target_frames", frames,
				"frames", limit,
				"limit_bytes", s.maxChunkBytes,
			)
			frames = limit
		}
	}

	return frames, nil
}

func (s *Segmenter) segmentFFmpeg(ctx context.Context, path string, target time.Duration, cacheDir string) ([]string, error) {
	base := filepath.Base(path)
	removeStaleChunks(cacheDir, base, "mp3")

	if err := s.ffmpeg.SegmentMP3(ctx, path, target, cacheDir, base); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}

	var chunks []string
	for i := 0; ; i++ {
		name := chunkPath(cacheDir, base, i, "mp3")
		if _, err := os.Stat(name); err != nil {
			break
		}
		chunks = append(chunks, name)
	}

	if len(chunks) == 0 {
		return nil, fmt.Errorf("%w: ffmpeg produced no chunks for %s", ErrDecode, path)
	}

	return chunks, nil
}
