package bot

import (
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/require"

	"github.com/foxyhq/foxyfetch/internal/downloader"
)

func TestFirstURL(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"bare url", "https://youtu.be/dQw4w9WgXcQ", "https://youtu.be/dQw4w9WgXcQ"},
		{"url in sentence", "check this out https://vimeo.com/123 wild", "https://vimeo.com/123"},
		{"plain http", "http://example.com/v.mp4", "http://example.com/v.mp4"},
		{"no url", "hello there", ""},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, firstURL(tt.text))
		})
	}
}

func TestFindURLFromReply(t *testing.T) {
	s := &Service{}
	msg := &tgbotapi.Message{
		Text: "download this please",
		ReplyToMessage: &tgbotapi.Message{
			Text: "look: https://www.youtube.com/watch?v=dQw4w9WgXcQ",
		},
	}
	require.Equal(t, "https://www.youtube.com/watch?v=dQw4w9WgXcQ", s.findURL(msg))
}

func TestFindURLPrefersOwnText(t *testing.T) {
	s := &Service{}
	msg := &tgbotapi.Message{
		Text: "https://vimeo.com/123",
		ReplyToMessage: &tgbotapi.Message{
			Text: "https://vimeo.com/456",
		},
	}
	require.Equal(t, "https://vimeo.com/123", s.findURL(msg))
}

func TestMetadataFailureText(t *testing.T) {
	require.Contains(t, metadataFailureText(downloader.ErrUnavailable), "unavailable")
	require.Contains(t, metadataFailureText(downloader.ErrPrivate), "private")
	require.Contains(t, metadataFailureText(downloader.ErrNoFormats), "No downloadable media")

	wrapped := &downloader.Error{Op: "fetch metadata", Cause: downloader.ErrPrivate}
	require.Contains(t, metadataFailureText(wrapped), "private")
}
