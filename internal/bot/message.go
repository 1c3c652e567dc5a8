package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/foxyhq/foxyfetch/internal/downloader"
	"github.com/foxyhq/foxyfetch/internal/store"
)

const welcomeText = `👋 Send me a video link and I'll download it for you.

I understand YouTube, TikTok, Twitter/X, Instagram, Vimeo, Reddit, Twitch and most other video sites.

After you send a link, pick a quality: full video, a size-capped resolution, audio only, or a GIF.`

const helpText = `Send a link to a video and choose what you want back:

🏆 Best Quality — highest available video
🎬 NNNp — video capped at that resolution
🎵 Audio Only — m4a audio track
✨ GIF — the whole clip as an animation

You can also reply to a message containing a link. Use /stats if you are an admin.`

// handleMessage routes one incoming message: commands first, then link
// detection.
func (s *Service) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.From == nil {
		return
	}
	s.rememberUser(ctx, msg.From)

	if msg.IsCommand() {
		s.handleCommand(ctx, msg)
		return
	}

	url := s.findURL(msg)
	if url == "" {
		return
	}
	s.logInteraction(ctx, msg.From.ID, msg.Chat.ID, store.InteractionMessage, url)

	s.logger.Info("link received",
		slog.Int64("user_id", msg.From.ID),
		slog.String("platform", s.resolver.ForURL(url).Name()),
		slog.String("url", url))

	status, err := s.api.Send(tgbotapi.NewMessage(msg.Chat.ID, "🔍 Fetching media information..."))
	if err != nil {
		s.logger.Error("send status message failed", slog.String("error", err.Error()))
		return
	}
	editor := newStatusEditor(s.logger, s.api, msg.Chat.ID, status.MessageID)

	meta, err := s.metadata.FetchMetadata(ctx, url)
	if err != nil {
		editor.Edit(metadataFailureText(err))
		return
	}

	if s.maxDuration > 0 && meta.Duration > time.Duration(s.maxDuration)*time.Second {
		editor.Edit(fmt.Sprintf("⚠️ Videos longer than %s are not supported.",
			formatDuration(time.Duration(s.maxDuration)*time.Second)))
		return
	}

	keyboard, err := s.qualityKeyboard(ctx, url, offeredHeights(meta.Formats))
	if err != nil {
		s.logger.Error("build quality keyboard failed", slog.String("error", err.Error()))
		editor.Edit("⚠️ Something went wrong. Please try again.")
		return
	}

	text := fmt.Sprintf("🎬 %s\n⏱ %s\n\nChoose a format:", meta.Title, formatDuration(meta.Duration))
	edit := tgbotapi.NewEditMessageText(msg.Chat.ID, status.MessageID, text)
	edit.ReplyMarkup = &keyboard
	if _, err := s.api.Send(edit); err != nil && !isMessageNotModified(err) {
		s.logger.Error("send quality keyboard failed", slog.String("error", err.Error()))
	}
}

func (s *Service) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	s.logInteraction(ctx, msg.From.ID, msg.Chat.ID, store.InteractionCommand, msg.Command())

	switch msg.Command() {
	case "start":
		s.reply(msg.Chat.ID, welcomeText)
	case "help":
		s.reply(msg.Chat.ID, helpText)
	case "stats":
		if !s.isAdmin(msg.From.ID) {
			s.reply(msg.Chat.ID, "This command is available to admins only.")
			return
		}
		out := tgbotapi.NewMessage(msg.Chat.ID, "📊 Bot statistics — pick a view:")
		keyboard := statsKeyboard()
		out.ReplyMarkup = keyboard
		if _, err := s.api.Send(out); err != nil {
			s.logger.Error("send stats menu failed", slog.String("error", err.Error()))
		}
	}
}

// findURL pulls the first http(s) link out of the message, falling back
// to the message it replies to.
func (s *Service) findURL(msg *tgbotapi.Message) string {
	if url := firstURL(msg.Text); url != "" {
		return url
	}
	if url := firstURL(msg.Caption); url != "" {
		return url
	}
	if msg.ReplyToMessage != nil {
		if url := firstURL(msg.ReplyToMessage.Text); url != "" {
			return url
		}
		return firstURL(msg.ReplyToMessage.Caption)
	}
	return ""
}

func firstURL(text string) string {
	for _, field := range strings.Fields(text) {
		if strings.HasPrefix(field, "http://") || strings.HasPrefix(field, "https://") {
			return field
		}
	}
	return ""
}

func metadataFailureText(err error) string {
	switch {
	case errors.Is(err, downloader.ErrUnavailable):
		return "⚠️ This media is unavailable. It may have been removed or region-blocked."
	case errors.Is(err, downloader.ErrPrivate):
		return "⚠️ This media is private and cannot be downloaded."
	case errors.Is(err, downloader.ErrNoFormats):
		return "⚠️ No downloadable media found at this link."
	default:
		return "⚠️ Could not fetch media information. Check the link and try again."
	}
}

func (s *Service) reply(chatID int64, text string) {
	if _, err := s.api.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		s.logger.Error("send message failed", slog.String("error", err.Error()))
	}
}
