// Package convert turns downloaded videos into GIF animations by
// shelling out to ffmpeg.
package convert

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

const stderrLimit = 200

var (
	// ErrFFmpegMissing means the ffmpeg binary could not be found.
	ErrFFmpegMissing = errors.New("ffmpeg binary not found")
	// ErrOutputMissing means ffmpeg exited cleanly but produced no file.
	ErrOutputMissing = errors.New("gif output not found after conversion")
)

// Error is the normalized conversion failure. Stderr holds a trimmed
// prefix of ffmpeg's diagnostic output when the subprocess failed.
type Error struct {
	Op     string
	Stderr string
	Cause  error
}

func (e *Error) Error() string {
	if e.Stderr != "" {
		return fmt.Sprintf("convert: %s: %v: %s", e.Op, e.Cause, e.Stderr)
	}
	return fmt.Sprintf("convert: %s: %v", e.Op, e.Cause)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Converter produces palette-optimized GIFs. The two-pass approach
// generates a per-video color palette first, which keeps file size
// down compared to ffmpeg's default dithering.
type Converter struct {
	logger     *slog.Logger
	ffmpegPath string
	width      int
	fps        int
}

func NewConverter(log *slog.Logger, ffmpegPath string, width, fps int) *Converter {
	return &Converter{
		logger:     log.With(slog.String("service", "convert")),
		ffmpegPath: ffmpegPath,
		width:      width,
		fps:        fps,
	}
}

// ToGIF converts the video at inputPath into a GIF next to it and
// returns the GIF path. The intermediate palette image is removed
// whether or not the conversion succeeds. The input file is left in
// place; removing it is the caller's job.
func (c *Converter) ToGIF(ctx context.Context, inputPath string) (string, error) {
	binary, err := exec.LookPath(c.ffmpegPath)
	if err != nil {
		return "", &Error{Op: "locate ffmpeg", Cause: ErrFFmpegMissing}
	}

	base := strings.TrimSuffix(inputPath, filepath.Ext(inputPath))
	palettePath := base + "_palette.png"
	outputPath := base + ".gif"
	filters := fmt.Sprintf("fps=%d,scale=%d:-1:flags=lanczos", c.fps, c.width)

	defer os.Remove(palettePath)

	c.logger.Info("generating palette", slog.String("input", inputPath))
	if err := c.run(ctx, binary, "generate palette",
		"-y", "-i", inputPath,
		"-vf", filters+",palettegen",
		palettePath,
	); err != nil {
		return "", err
	}

	c.logger.Info("rendering gif", slog.String("output", outputPath))
	if err := c.run(ctx, binary, "render gif",
		"-y", "-i", inputPath, "-i", palettePath,
		"-lavfi", filters+" [x]; [x][1:v] paletteuse",
		outputPath,
	); err != nil {
		return "", err
	}

	if _, err := os.Stat(outputPath); err != nil {
		return "", &Error{Op: "render gif", Cause: ErrOutputMissing}
	}

	return outputPath, nil
}

func (c *Converter) run(ctx context.Context, binary, op string, args ...string) error {
	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, binary, args...)
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return &Error{Op: op, Stderr: trimStderr(stderr.String()), Cause: err}
	}
	return nil
}

func trimStderr(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > stderrLimit {
		return s[:stderrLimit]
	}
	return s
}
