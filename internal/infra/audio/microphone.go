//go:build portaudio
// +build portaudio

package audio

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/gordonklaus/portaudio"
)

const (
	framesPerBuffer  = 1024
	silenceThreshold = 500
)

// MicrophoneSource records voice memos from the default input device. Each
// memo starts at the first non-silent buffer and ends after two seconds of
// silence or at the max duration, then lands in dir as a 16-bit mono WAV.
type MicrophoneSource struct {
	dir         string
	sampleRate  int
	maxDuration time.Duration
	logger      *slog.Logger

	stream *portaudio.Stream
	frames []int16
	now    func() time.Time
}

func NewMicrophoneSource(dir string, sampleRate int, maxDuration time.Duration, logger *slog.Logger) *MicrophoneSource {
	return &MicrophoneSource{
		dir:         dir,
		sampleRate:  sampleRate,
		maxDuration: maxDuration,
		logger:      logger,
		frames:      make([]int16, framesPerBuffer),
		now:         time.Now,
	}
}

func (m *MicrophoneSource) Name() string {
	return "microphone"
}

func (m *MicrophoneSource) Start(_ context.Context) error {
	if err := os.MkdirAll(m.dir, 0755); err != nil {
		return fmt.Errorf("creating watch dir: %w", err)
	}

	if err := portaudio.Initialize(); err != nil {
		return fmt.Errorf("initializing portaudio: %w", err)
	}

	// the stream fills m.frames on every Read
	stream, err := portaudio.OpenDefaultStream(1, 0, float64(m.sampleRate), len(m.frames), m.frames)
	if err != nil {
		portaudio.Terminate()
		return fmt.Errorf("opening stream: %w", err)
	}
	m.stream = stream

	if err := m.stream.Start(); err != nil {
		m.stream.Close()
		portaudio.Terminate()
		return fmt.Errorf("starting stream: %w", err)
	}

	m.logger.Info("microphone started", "sampleRate", m.sampleRate, "maxDuration", m.maxDuration)
	return nil
}

func (m *MicrophoneSource) Stop() error {
	if m.stream != nil {
		m.stream.Stop()
		m.stream.Close()
		m.stream = nil
	}
	return portaudio.Terminate()
}

func (m *MicrophoneSource) NextRecording(ctx context.Context) (string, error) {
	m.logger.Info("listening for a memo")

	maxSamples := int(m.maxDuration.Seconds() * float64(m.sampleRate))
	maxSilence := 2 * m.sampleRate

	var (
		samples []int
		silence int
		started bool
	)

	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		default:
		}

		if err := m.stream.Read(); err != nil && !errors.Is(err, portaudio.InputOverflowed) {
			return "", fmt.Errorf("reading from stream: %w", err)
		}

		silent := isSilent(m.frames)
		if !started {
			if silent {
				continue
			}
			started = true
			m.logger.Debug("speech detected, recording")
		}

		for _, s := range m.frames {
			samples = append(samples, int(s))
		}

		if silent {
			silence += len(m.frames)
		} else {
			silence = 0
		}

		if silence > maxSilence || (maxSamples > 0 && len(samples) >= maxSamples) {
			break
		}
	}

	return m.save(samples)
}

func (m *MicrophoneSource) save(samples []int) (string, error) {
	data, err := EncodeWAV(samples, m.sampleRate)
	if err != nil {
		return "", err
	}

	path := filepath.Join(m.dir, m.now().Format("2006-01-02_1504")+"-memo.wav")
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("writing memo: %w", err)
	}

	m.logger.Info("memo recorded", "path", path, "seconds", len(samples)/m.sampleRate)
	return path, nil
}

func isSilent(frames []int16) bool {
	for _, s := range frames {
		if s > silenceThreshold || s < -silenceThreshold {
			return false
		}
	}
	return true
}
