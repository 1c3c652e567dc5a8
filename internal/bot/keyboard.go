package bot

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/foxyhq/foxyfetch/internal/downloader"
	"github.com/foxyhq/foxyfetch/internal/quality"
)

// Codecs Telegram clients can actually play. Formats outside this set
// (hevc, mpeg4, images) are not offered as quality options.
var playableVCodecPrefixes = []string{"avc", "h264", "vp9", "av01"}

// Heights below this are not worth a dedicated button; "Best" still
// covers them.
const minOfferedHeight = 240

// Stats menu callback payloads. They never collide with quality tokens,
// which always start with "q_".
const (
	statsRequests = "stats:requests"
	statsQuality  = "stats:quality"
	statsURLs     = "stats:urls"
	statsUsers    = "stats:users"
)

// offeredHeights returns the distinct playable heights, highest first.
func offeredHeights(formats []downloader.Format) []int {
	seen := make(map[int]bool)
	for _, f := range formats {
		if f.Height < minOfferedHeight || !playableVCodec(f.VCodec) {
			continue
		}
		seen[f.Height] = true
	}

	heights := make([]int, 0, len(seen))
	for h := range seen {
		heights = append(heights, h)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(heights)))
	return heights
}

func playableVCodec(vcodec string) bool {
	vcodec = strings.ToLower(vcodec)
	for _, prefix := range playableVCodecPrefixes {
		if strings.HasPrefix(vcodec, prefix) {
			return true
		}
	}
	return false
}

// qualityKeyboard builds the quality choice keyboard for url. Every
// button carries a codec token so the choice survives Telegram's
// callback payload limit.
func (s *Service) qualityKeyboard(ctx context.Context, url string, heights []int) (tgbotapi.InlineKeyboardMarkup, error) {
	var rows [][]tgbotapi.InlineKeyboardButton

	bestToken, err := s.codec.Encode(ctx, url, quality.Best)
	if err != nil {
		return tgbotapi.InlineKeyboardMarkup{}, fmt.Errorf("encode best token: %w", err)
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("🏆 Best Quality", bestToken),
	))

	var row []tgbotapi.InlineKeyboardButton
	for _, h := range heights {
		token, err := s.codec.Encode(ctx, url, quality.AtMost(h))
		if err != nil {
			return tgbotapi.InlineKeyboardMarkup{}, fmt.Errorf("encode height token: %w", err)
		}
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(fmt.Sprintf("🎬 %dp", h), token))
		if len(row) == 2 {
			rows = append(rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}

	audioToken, err := s.codec.Encode(ctx, url, quality.Audio)
	if err != nil {
		return tgbotapi.InlineKeyboardMarkup{}, fmt.Errorf("encode audio token: %w", err)
	}
	gifToken, err := s.codec.Encode(ctx, url, quality.GIF)
	if err != nil {
		return tgbotapi.InlineKeyboardMarkup{}, fmt.Errorf("encode gif token: %w", err)
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("🎵 Audio Only", audioToken),
		tgbotapi.NewInlineKeyboardButtonData("✨ GIF", gifToken),
	))

	return tgbotapi.NewInlineKeyboardMarkup(rows...), nil
}

func statsKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📥 Requests", statsRequests),
			tgbotapi.NewInlineKeyboardButtonData("🎚 Quality", statsQuality),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🔗 Top URLs", statsURLs),
			tgbotapi.NewInlineKeyboardButtonData("👥 Users", statsUsers),
		),
	)
}

func formatDuration(d time.Duration) string {
	total := int(d.Seconds())
	h := total / 3600
	m := total % 3600 / 60
	sec := total % 60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, sec)
	}
	return fmt.Sprintf("%d:%02d", m, sec)
}
