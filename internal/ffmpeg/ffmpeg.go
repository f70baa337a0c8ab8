// Package ffmpeg reads media metadata with ffprobe.
package ffmpeg

import (
	"context"
	"fmt"
	"os/exec"
	"time"

	"github.com/rs/zerolog"
	ffmpeggo "github.com/u2takey/ffmpeg-go"

	"github.com/keagan/showcase/pkg/util"
)

type probeFunc func(fileName string, timeout time.Duration, kwargs ffmpeggo.KwArgs) (string, error)

// Prober runs ffprobe against local files
type Prober struct {
	logger  zerolog.Logger
	timeout time.Duration
	probe   probeFunc
}

// NewProber creates a prober. A timeout <= 0 uses DefaultTimeout.
func NewProber(logger zerolog.Logger, timeout time.Duration) *Prober {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Prober{
		logger:  logger.With().Str("component", "ffprobe").Logger(),
		timeout: timeout,
		probe:   ffmpeggo.ProbeWithTimeout,
	}
}

// Available reports whether ffprobe is on PATH
func Available() error {
	if _, err := exec.LookPath("ffprobe"); err != nil {
		return fmt.Errorf("ffprobe not found in PATH: %w", err)
	}
	return nil
}

// Probe extracts metadata from a media file
func (p *Prober) Probe(ctx context.Context, filePath string) (*MediaInfo, error) {
	if filePath == "" {
		return nil, fmt.Errorf("file path is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	timeout := p.timeout
	if deadline, ok := ctx.Deadline(); ok {
		left := time.Until(deadline)
		if left <= 0 {
			return nil, context.DeadlineExceeded
		}
		if left < timeout {
			timeout = left
		}
	}

	p.logger.Debug().
		Str("file", filePath).
		Dur("timeout", timeout).
		Msg("probing media")

	start := time.Now()
	output, err := p.probe(filePath, timeout, ffmpeggo.KwArgs{"v": "quiet"})
	if err != nil {
		return nil, fmt.Errorf("ffprobe %s failed: %w", filePath, err)
	}

	info, err := ParseProbeOutput([]byte(output))
	if err != nil {
		return nil, fmt.Errorf("ffprobe %s: %w", filePath, err)
	}
	info.FilePath = filePath

	p.logger.Debug().
		Str("file", filePath).
		Str("duration", util.FormatDuration(info.Duration)).
		Bool("video", info.HasVideo).
		Bool("audio", info.HasAudio).
		Dur("took", time.Since(start)).
		Msg("media probed")

	return info, nil
}

// Duration returns the media length in seconds
func (p *Prober) Duration(ctx context.Context, filePath string) (float64, error) {
	info, err := p.Probe(ctx, filePath)
	if err != nil {
		return 0, err
	}
	if info.Duration <= 0 {
		return 0, fmt.Errorf("%s: %w", filePath, ErrNoDuration)
	}
	return info.Seconds(), nil
}
