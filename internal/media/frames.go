package media

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/vidscribe/api/internal/config"
)

// FFmpegExtractor captures still frames from a video with ffmpeg. Timestamps
// past the end of the video are rejected up front using ffprobe so a bad
// model-proposed timestamp fails the item, not the process.
type FFmpegExtractor struct {
	ffmpegBin  string
	ffprobeBin string
}

// NewFFmpegExtractor creates a frame extractor using the configured binaries.
func NewFFmpegExtractor(cfg *config.RenderConfig) *FFmpegExtractor {
	return &FFmpegExtractor{
		ffmpegBin:  cfg.FFmpegBin,
		ffprobeBin: cfg.FFprobeBin,
	}
}

// ExtractFrame writes the frame at timestamp (HH:MM:SS) to outPath.
func (e *FFmpegExtractor) ExtractFrame(ctx context.Context, videoPath, timestamp, outPath string) error {
	if _, err := os.Stat(videoPath); err != nil {
		return fmt.Errorf("video not found at %s: %w", videoPath, err)
	}

	seconds, err := ParseTimestamp(timestamp)
	if err != nil {
		return err
	}
	duration, err := e.probeDuration(ctx, videoPath)
	if err != nil {
		return err
	}
	if seconds > duration {
		return fmt.Errorf("timestamp %s is beyond video duration %.1fs", timestamp, duration)
	}

	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return fmt.Errorf("failed to create frame directory: %w", err)
	}

	_, err = e.execute(ctx, e.ffmpegBin,
		"-y",
		"-ss", timestamp,
		"-i", videoPath,
		"-frames:v", "1",
		"-q:v", "2",
		outPath,
	)
	return err
}

// probeDuration returns the video duration in seconds.
func (e *FFmpegExtractor) probeDuration(ctx context.Context, videoPath string) (float64, error) {
	out, err := e.execute(ctx, e.ffprobeBin,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		videoPath,
	)
	if err != nil {
		return 0, err
	}
	duration, err := strconv.ParseFloat(strings.TrimSpace(out), 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse video duration %q: %w", strings.TrimSpace(out), err)
	}
	return duration, nil
}

func (e *FFmpegExtractor) execute(ctx context.Context, name string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, name, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		stderrStr := strings.TrimSpace(stderr.String())
		if stderrStr != "" {
			return "", fmt.Errorf("command '%s' failed: %w\nstderr: %s", name, err, stderrStr)
		}
		return "", fmt.Errorf("command '%s' failed: %w", name, err)
	}

	return stdout.String(), nil
}

// ParseTimestamp converts an HH:MM:SS (or MM:SS) timestamp to seconds.
func ParseTimestamp(ts string) (float64, error) {
	parts := strings.Split(strings.TrimSpace(ts), ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, fmt.Errorf("invalid timestamp %q", ts)
	}
	var seconds float64
	for _, p := range parts {
		v, err := strconv.ParseFloat(p, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid timestamp %q: %w", ts, err)
		}
		seconds = seconds*60 + v
	}
	return seconds, nil
}
