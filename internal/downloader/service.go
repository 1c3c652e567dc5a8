package downloader

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/lrstanley/go-ytdlp"

	"github.com/foxyhq/foxyfetch/internal/quality"
)

const outputTemplate = "%(title)s [%(id)s].%(ext)s"

// Extensions probed when the extractor does not report a final path.
var (
	audioExtensions = []string{"m4a", "mp3", "aac", "ogg", "wav"}
	videoExtensions = []string{"mp4", "webm", "mkv", "avi", "mov", "flv"}
)

// Service wraps the yt-dlp binary for metadata extraction and media
// download. All methods shell out and block until the subprocess exits.
type Service struct {
	logger *slog.Logger
}

func NewService(log *slog.Logger) *Service {
	return &Service{
		logger: log.With(slog.String("service", "downloader")),
	}
}

// FormatChain returns the yt-dlp format selector chain for sel. Each
// chain degrades from the ideal stream pair down to whatever the source
// offers, so extraction never fails solely on format availability.
func FormatChain(sel quality.Selector) string {
	switch sel.Kind {
	case quality.KindAudio:
		return "bestaudio/best[acodec!=none]/best"
	case quality.KindGIF:
		return "best"
	case quality.KindHeight:
		h := sel.Height
		return fmt.Sprintf("bestvideo[height<=%d]+bestaudio/best[height<=%d]/bestvideo[height<=%d]/best", h, h, h)
	default:
		return "bestvideo+bestaudio/best"
	}
}

type rawInfo struct {
	Title    string      `json:"title"`
	Duration float64     `json:"duration"`
	Formats  []rawFormat `json:"formats"`
}

type rawFormat struct {
	FormatID   string   `json:"format_id"`
	Height     *int     `json:"height"`
	VCodec     string   `json:"vcodec"`
	ACodec     string   `json:"acodec"`
	Preference *float64 `json:"preference"`
}

// FetchMetadata extracts the info dict for url without downloading
// anything.
func (s *Service) FetchMetadata(ctx context.Context, url string) (Metadata, error) {
	s.logger.Debug("fetching metadata", slog.String("url", url))

	dl := ytdlp.New().
		DumpSingleJSON().
		SkipDownload().
		NoPlaylist().
		NoWarnings()

	result, err := dl.Run(ctx, url)
	if err != nil {
		return Metadata{}, classify("fetch metadata", err, result)
	}

	var info rawInfo
	if err := json.Unmarshal([]byte(result.Stdout), &info); err != nil {
		return Metadata{}, newError("fetch metadata", fmt.Errorf("decode info: %w", err))
	}
	if len(info.Formats) == 0 {
		return Metadata{}, newError("fetch metadata", ErrNoFormats)
	}

	meta := Metadata{
		Title:    info.Title,
		Duration: time.Duration(info.Duration * float64(time.Second)),
		Formats:  make([]Format, 0, len(info.Formats)),
	}
	for _, f := range info.Formats {
		format := Format{
			ID:     f.FormatID,
			VCodec: f.VCodec,
			ACodec: f.ACodec,
		}
		if f.Height != nil {
			format.Height = *f.Height
		}
		if f.Preference != nil {
			format.Preference = *f.Preference
		}
		meta.Formats = append(meta.Formats, format)
	}

	s.logger.Debug("metadata fetched",
		slog.String("title", meta.Title),
		slog.Int("formats", len(meta.Formats)))

	return meta, nil
}

// Download fetches url into dir at the requested quality and returns
// the absolute path of the produced file together with the media title.
// dir must exist and be exclusive to this download. hook, when non-nil,
// receives progress events from the extractor.
func (s *Service) Download(ctx context.Context, url string, sel quality.Selector, dir string, hook ProgressFunc) (string, string, error) {
	s.logger.Info("starting download",
		slog.String("url", url),
		slog.String("quality", sel.String()))

	dl := ytdlp.New().
		Format(FormatChain(sel)).
		Output(filepath.Join(dir, outputTemplate)).
		ForceOverwrites().
		NoPlaylist().
		NoWarnings()

	if sel.Kind == quality.KindAudio {
		dl = dl.ExtractAudio().AudioFormat("m4a").AudioQuality("192")
	} else {
		dl = dl.MergeOutputFormat("mp4")
	}

	if hook != nil {
		dl = dl.ProgressFunc(250*time.Millisecond, func(update ytdlp.ProgressUpdate) {
			hook(toEvent(update))
		})
	}

	result, err := dl.Run(ctx, url)
	if err != nil {
		return "", "", classify("download", err, result)
	}

	var title, reported, id string
	if infos, err := result.GetExtractedInfo(); err == nil && len(infos) > 0 {
		info := infos[0]
		id = info.ID
		if info.Title != nil {
			title = *info.Title
		}
		if info.Filename != nil {
			reported = *info.Filename
		}
	}

	path, err := s.resolvePath(dir, reported, title, id, sel)
	if err != nil {
		return "", "", err
	}

	s.logger.Info("download finished",
		slog.String("path", path),
		slog.String("title", title))

	return path, title, nil
}

func toEvent(update ytdlp.ProgressUpdate) ProgressEvent {
	ev := ProgressEvent{
		DownloadedBytes: int64(update.DownloadedBytes),
		TotalBytes:      int64(update.TotalBytes),
		ETA:             update.ETA(),
	}
	switch update.Status {
	case ytdlp.ProgressStatusFinished:
		ev.Phase = PhaseFinished
	case ytdlp.ProgressStatusError:
		ev.Phase = PhaseError
	default:
		ev.Phase = PhaseDownloading
	}
	if elapsed := time.Since(update.Started).Seconds(); elapsed > 0 && update.DownloadedBytes > 0 {
		ev.BytesPerSecond = float64(update.DownloadedBytes) / elapsed
	}
	return ev
}

// resolvePath locates the produced file. The extractor's reported
// filename wins when it exists; post-processing may have changed the
// extension, so the template reconstruction and a directory probe act
// as fallbacks.
func (s *Service) resolvePath(dir, reported, title, id string, sel quality.Selector) (string, error) {
	if reported != "" {
		if _, err := os.Stat(reported); err == nil {
			return reported, nil
		}
	}

	extensions := videoExtensions
	if sel.Kind == quality.KindAudio {
		extensions = audioExtensions
	}

	if title != "" && id != "" {
		base := filepath.Join(dir, fmt.Sprintf("%s [%s]", title, id))
		for _, ext := range extensions {
			candidate := base + "." + ext
			if _, err := os.Stat(candidate); err == nil {
				return candidate, nil
			}
		}
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", newError("resolve output", err)
	}
	for _, ext := range extensions {
		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			if strings.EqualFold(filepath.Ext(entry.Name()), "."+ext) {
				return filepath.Join(dir, entry.Name()), nil
			}
		}
	}

	return "", newError("resolve output", ErrOutputMissing)
}

// classify folds the raw subprocess failure into the error taxonomy.
// yt-dlp reports the reason only as text on stderr, so matching on
// message content is the only signal available.
func classify(op string, err error, result *ytdlp.Result) *Error {
	msg := err.Error()
	if result != nil && result.Stderr != "" {
		msg += " " + result.Stderr
	}
	lower := strings.ToLower(msg)

	switch {
	case strings.Contains(lower, "video unavailable"),
		strings.Contains(lower, "content isn't available"),
		strings.Contains(lower, "no longer available"):
		return newError(op, ErrUnavailable)
	case strings.Contains(lower, "private video"),
		strings.Contains(lower, "this video is private"):
		return newError(op, ErrPrivate)
	default:
		return newError(op, err)
	}
}
