package bot

import (
	"errors"
	"log/slog"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// statusEditor edits one chat message in place as a request moves
// through its lifecycle, instead of flooding the chat with one message
// per update.
type statusEditor struct {
	logger    *slog.Logger
	api       API
	chatID    int64
	messageID int
}

func newStatusEditor(log *slog.Logger, api API, chatID int64, messageID int) *statusEditor {
	return &statusEditor{
		logger:    log,
		api:       api,
		chatID:    chatID,
		messageID: messageID,
	}
}

// Edit replaces the message text, dropping any inline keyboard. The
// "message is not modified" error is expected when a throttled update
// repeats the previous text and is swallowed; on 429 the edit is
// retried once after the advertised delay.
func (e *statusEditor) Edit(text string) {
	edit := tgbotapi.NewEditMessageText(e.chatID, e.messageID, text)

	_, err := e.api.Send(edit)
	if err == nil || isMessageNotModified(err) {
		return
	}
	if wait := retryAfter(err); wait > 0 {
		time.Sleep(wait)
		if _, err = e.api.Send(edit); err == nil || isMessageNotModified(err) {
			return
		}
	}
	e.logger.Warn("edit status message failed",
		slog.Int64("chat_id", e.chatID),
		slog.Int("message_id", e.messageID),
		slog.String("error", err.Error()))
}

// Delete removes the status message once the artifact is delivered.
func (e *statusEditor) Delete() {
	if _, err := e.api.Request(tgbotapi.NewDeleteMessage(e.chatID, e.messageID)); err != nil {
		e.logger.Warn("delete status message failed",
			slog.Int64("chat_id", e.chatID),
			slog.Int("message_id", e.messageID),
			slog.String("error", err.Error()))
	}
}

func isMessageNotModified(err error) bool {
	var apiErr tgbotapi.Error
	if errors.As(err, &apiErr) {
		return apiErr.Code == 400 && strings.Contains(apiErr.Message, "message is not modified")
	}
	return false
}

func retryAfter(err error) time.Duration {
	var apiErr tgbotapi.Error
	if errors.As(err, &apiErr) && apiErr.Code == 429 && apiErr.RetryAfter > 0 {
		return time.Duration(apiErr.RetryAfter) * time.Second
	}
	return 0
}
