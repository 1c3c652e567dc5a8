package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"

	"github.com/foxyhq/foxyfetch/internal/convert"
	"github.com/foxyhq/foxyfetch/internal/downloader"
	"github.com/foxyhq/foxyfetch/internal/progress"
	"github.com/foxyhq/foxyfetch/internal/quality"
	"github.com/foxyhq/foxyfetch/internal/request"
	"github.com/foxyhq/foxyfetch/internal/store"
)

// handleCallback routes one button press: stats views for admins,
// quality selections for everyone else.
func (s *Service) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	// Acknowledge immediately so the client stops its spinner.
	if _, err := s.api.Request(tgbotapi.NewCallback(cb.ID, "")); err != nil {
		s.logger.Warn("answer callback failed", slog.String("error", err.Error()))
	}
	if cb.Message == nil || cb.From == nil {
		return
	}
	s.rememberUser(ctx, cb.From)
	interactionID := s.logInteraction(ctx, cb.From.ID, cb.Message.Chat.ID, store.InteractionCallback, cb.Data)

	if strings.HasPrefix(cb.Data, "stats:") {
		s.handleStatsCallback(ctx, cb)
		return
	}

	editor := newStatusEditor(s.logger, s.api, cb.Message.Chat.ID, cb.Message.MessageID)

	sel, url, err := s.codec.Decode(ctx, cb.Data)
	if err != nil {
		s.logger.Warn("decode callback failed",
			slog.String("data", cb.Data),
			slog.String("error", err.Error()))
		editor.Edit("⚠️ This selection is invalid or has expired. Send the link again.")
		return
	}

	job := &request.Job{
		ID:      uuid.New(),
		URL:     url,
		Quality: sel,
		Status:  request.StatusRequested,
	}
	record := &store.Request{
		ID:       job.ID,
		UserID:   cb.From.ID,
		ChatID:   cb.Message.Chat.ID,
		URL:      url,
		Platform: s.resolver.ForURL(url).Name(),
		Quality:  sel.String(),
		Status:   request.StatusRequested.String(),
	}
	if interactionID != 0 {
		record.InteractionID = &interactionID
	}
	if err := s.requests.Create(ctx, record); err != nil {
		s.logger.Error("create request failed", slog.String("error", err.Error()))
		editor.Edit("⚠️ Something went wrong. Please try again.")
		return
	}

	log := s.logger.With(
		slog.String("request_id", job.ID.String()),
		slog.Int64("user_id", cb.From.ID),
		slog.String("quality", sel.String()))
	log.Info("request accepted", slog.String("url", url))

	editor.Edit(fmt.Sprintf("⏳ Starting download (%s)...", sel.Label()))

	bridge := progress.NewBridge(s.logger, func(text string) { editor.Edit(text) })
	result, err := s.orchestrator.Process(ctx, job, bridge.Handle)
	bridge.Close()
	if err != nil {
		log.Error("request failed", slog.String("error", err.Error()))
		editor.Edit(processingFailureText(err))
		return
	}

	if err := s.deliver(ctx, job, result, editor, log); err != nil {
		return
	}
	log.Info("request completed")
}

// deliver uploads the artifact and finishes the request lifecycle.
func (s *Service) deliver(ctx context.Context, job *request.Job, result request.Result, editor *statusEditor, log *slog.Logger) error {
	info, err := os.Stat(result.Path)
	if err != nil {
		s.orchestrator.Fail(ctx, job, fmt.Errorf("stat artifact: %w", err))
		editor.Edit("⚠️ Something went wrong. Please try again.")
		return err
	}
	job.FileSize = info.Size()
	if info.Size() > s.maxUploadBytes {
		err := fmt.Errorf("artifact is %d bytes, upload limit is %d", info.Size(), s.maxUploadBytes)
		log.Warn("artifact exceeds upload limit", slog.Int64("size", info.Size()))
		s.orchestrator.Fail(ctx, job, err)
		editor.Edit(fmt.Sprintf("⚠️ The file is too large to send (limit %d MB). Try a lower quality.",
			s.maxUploadBytes/(1024*1024)))
		return err
	}

	s.orchestrator.MarkUploading(ctx, job)
	editor.Edit("📤 Uploading...")

	if _, err := s.api.Send(attachmentFor(editor.chatID, job.Quality, result)); err != nil {
		log.Error("upload failed", slog.String("error", err.Error()))
		s.orchestrator.Fail(ctx, job, fmt.Errorf("upload: %w", err))
		editor.Edit("⚠️ Uploading to Telegram failed. Please try again.")
		return err
	}

	s.orchestrator.Complete(ctx, job)
	editor.Delete()
	return nil
}

// attachmentFor picks the send method matching the artifact: audio
// players for audio, inline animations for GIFs, the video player for
// everything else.
func attachmentFor(chatID int64, sel quality.Selector, result request.Result) tgbotapi.Chattable {
	file := tgbotapi.FilePath(result.Path)

	switch sel.Kind {
	case quality.KindAudio:
		audio := tgbotapi.NewAudio(chatID, file)
		audio.Title = result.Title
		return audio
	case quality.KindGIF:
		animation := tgbotapi.NewAnimation(chatID, file)
		animation.Caption = result.Title
		return animation
	default:
		video := tgbotapi.NewVideo(chatID, file)
		video.Caption = result.Title
		video.SupportsStreaming = true
		return video
	}
}

func processingFailureText(err error) string {
	var convErr *convert.Error
	switch {
	case errors.Is(err, downloader.ErrUnavailable):
		return "⚠️ This media is unavailable. It may have been removed or region-blocked."
	case errors.Is(err, downloader.ErrPrivate):
		return "⚠️ This media is private and cannot be downloaded."
	case errors.As(err, &convErr):
		return "⚠️ Converting to GIF failed. Try downloading the video instead."
	default:
		return "⚠️ Download failed. Please try again later."
	}
}

func (s *Service) handleStatsCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	if !s.isAdmin(cb.From.ID) {
		return
	}

	text, err := s.statsText(ctx, cb.Data)
	if err != nil {
		s.logger.Error("collect stats failed",
			slog.String("view", cb.Data),
			slog.String("error", err.Error()))
		text = "⚠️ Could not collect statistics."
	}

	edit := tgbotapi.NewEditMessageText(cb.Message.Chat.ID, cb.Message.MessageID, text)
	keyboard := statsKeyboard()
	edit.ReplyMarkup = &keyboard
	if _, err := s.api.Send(edit); err != nil && !isMessageNotModified(err) {
		s.logger.Error("send stats failed", slog.String("error", err.Error()))
	}
}

func (s *Service) statsText(ctx context.Context, view string) (string, error) {
	var b strings.Builder

	switch view {
	case statsRequests:
		counts, err := s.stats.CountsByStatus(ctx)
		if err != nil {
			return "", err
		}
		b.WriteString("📥 Requests by status:\n\n")
		var total int64
		for _, status := range []request.Status{
			request.StatusCompleted, request.StatusFailed,
			request.StatusDownloading, request.StatusRequested,
		} {
			if n := counts[status.String()]; n > 0 {
				fmt.Fprintf(&b, "%s: %d\n", status, n)
			}
		}
		for _, n := range counts {
			total += n
		}
		fmt.Fprintf(&b, "\nTotal: %d", total)

	case statsQuality:
		counts, err := s.stats.CompletedByQuality(ctx)
		if err != nil {
			return "", err
		}
		b.WriteString("🎚 Completed downloads by quality:\n\n")
		for _, wire := range []string{"best", "h1080", "h720", "h480", "h360", "h240", "audio", "gif"} {
			if n := counts[wire]; n > 0 {
				sel, err := quality.Parse(wire)
				if err != nil {
					continue
				}
				fmt.Fprintf(&b, "%s: %d\n", sel.Label(), n)
			}
		}

	case statsURLs:
		top, err := s.stats.TopURLs(ctx, 10)
		if err != nil {
			return "", err
		}
		b.WriteString("🔗 Most requested links:\n\n")
		for i, uc := range top {
			fmt.Fprintf(&b, "%d. %s — %d\n", i+1, uc.URL, uc.Count)
		}

	case statsUsers:
		total, err := s.stats.UserCount(ctx)
		if err != nil {
			return "", err
		}
		active, err := s.stats.ActiveUserCount(ctx, time.Now().AddDate(0, 0, -7))
		if err != nil {
			return "", err
		}
		fmt.Fprintf(&b, "👥 Users\n\nTotal: %d\nActive last 7 days: %d", total, active)

	default:
		return "", fmt.Errorf("unknown stats view: %s", view)
	}

	return b.String(), nil
}
