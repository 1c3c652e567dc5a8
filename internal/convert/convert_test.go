package convert

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// stubFFmpeg writes a shell script that creates its final argument,
// mimicking a successful ffmpeg invocation.
func stubFFmpeg(t *testing.T) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("stub ffmpeg script requires a POSIX shell")
	}
	path := filepath.Join(t.TempDir(), "ffmpeg")
	script := "#!/bin/sh\nfor out; do :; done\ntouch \"$out\"\n"
	require.NoError(t, os.WriteFile(path, []byte(script), 0o755))
	return path
}

func TestToGIF(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "clip.mp4")
	require.NoError(t, os.WriteFile(input, []byte("x"), 0o644))

	conv := NewConverter(testLogger(), stubFFmpeg(t), 480, 12)
	out, err := conv.ToGIF(context.Background(), input)
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, "clip.gif"), out)

	_, err = os.Stat(out)
	require.NoError(t, err)

	// The palette intermediate must not survive.
	_, err = os.Stat(filepath.Join(dir, "clip_palette.png"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestToGIFMissingBinary(t *testing.T) {
	conv := NewConverter(testLogger(), "ffmpeg-that-does-not-exist", 480, 12)
	_, err := conv.ToGIF(context.Background(), "/tmp/clip.mp4")
	require.ErrorIs(t, err, ErrFFmpegMissing)

	var convErr *Error
	require.ErrorAs(t, err, &convErr)
	require.Equal(t, "locate ffmpeg", convErr.Op)
}

func TestToGIFFailedSubprocess(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("stub ffmpeg script requires a POSIX shell")
	}
	path := filepath.Join(t.TempDir(), "ffmpeg")
	script := "#!/bin/sh\necho 'Invalid data found when processing input' >&2\nexit 1\n"
	require.NoError(t, os.WriteFile(path, []byte(script), 0o755))

	dir := t.TempDir()
	input := filepath.Join(dir, "clip.mp4")
	require.NoError(t, os.WriteFile(input, []byte("x"), 0o644))

	conv := NewConverter(testLogger(), path, 480, 12)
	_, err := conv.ToGIF(context.Background(), input)

	var convErr *Error
	require.ErrorAs(t, err, &convErr)
	require.Equal(t, "generate palette", convErr.Op)
	require.Contains(t, convErr.Stderr, "Invalid data")
}

func TestTrimStderr(t *testing.T) {
	require.Equal(t, "short", trimStderr("  short\n"))
	long := strings.Repeat("e", 500)
	require.Len(t, trimStderr(long), stderrLimit)
}
