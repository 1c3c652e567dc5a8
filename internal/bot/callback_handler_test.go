package bot

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"

	"github.com/foxyhq/foxyfetch/internal/config"
	"github.com/foxyhq/foxyfetch/internal/downloader"
	"github.com/foxyhq/foxyfetch/internal/platform"
	"github.com/foxyhq/foxyfetch/internal/quality"
	"github.com/foxyhq/foxyfetch/internal/request"
	"github.com/foxyhq/foxyfetch/internal/store"
)

type fakeDB struct {
	execSQL  []string
	execArgs [][]any
}

func (f *fakeDB) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	f.execSQL = append(f.execSQL, sql)
	f.execArgs = append(f.execArgs, args)
	return pgconn.NewCommandTag("INSERT 0 1"), nil
}

func (f *fakeDB) Query(context.Context, string, ...any) (pgx.Rows, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeDB) QueryRow(context.Context, string, ...any) pgx.Row { return staticIDRow{id: 31} }

// staticIDRow answers every generated-id query with a fixed value.
type staticIDRow struct {
	id int64
}

func (r staticIDRow) Scan(dest ...any) error {
	for _, d := range dest {
		if p, ok := d.(*int64); ok {
			*p = r.id
		}
	}
	return nil
}

type decodingCodec struct {
	sel quality.Selector
	url string
	err error
}

func (c *decodingCodec) Encode(context.Context, string, quality.Selector) (string, error) {
	return "", errors.New("not implemented")
}

func (c *decodingCodec) Decode(context.Context, string) (quality.Selector, string, error) {
	return c.sel, c.url, c.err
}

type fakeOrchestrator struct {
	result    request.Result
	err       error
	uploading bool
	completed bool
	failed    bool
	// size of the job at its terminal transition.
	size int64
}

func (f *fakeOrchestrator) Process(_ context.Context, job *request.Job, _ downloader.ProgressFunc) (request.Result, error) {
	if f.err != nil {
		job.Status = request.StatusFailed
		return request.Result{}, f.err
	}
	return f.result, nil
}

func (f *fakeOrchestrator) MarkUploading(_ context.Context, job *request.Job) {
	f.uploading = true
	job.Status = request.StatusUploadStarted
}

func (f *fakeOrchestrator) Complete(_ context.Context, job *request.Job) {
	f.completed = true
	f.size = job.FileSize
	job.Status = request.StatusCompleted
}

func (f *fakeOrchestrator) Fail(_ context.Context, job *request.Job, _ error) {
	f.failed = true
	f.size = job.FileSize
	job.Status = request.StatusFailed
}

func (f *fakeOrchestrator) Cleanup(*request.Job) {}

func newCallbackService(api API, codec Codec, orch Orchestrator) (*Service, *fakeDB) {
	db := &fakeDB{}
	return NewService(
		testLogger(), api, platform.NewResolver(), codec, nil, orch,
		store.NewRequestRepository(db),
		store.NewUserRepository(db),
		store.NewStatsRepository(db),
		config.Config{},
	), db
}

func callbackUpdate(data string) *tgbotapi.CallbackQuery {
	return &tgbotapi.CallbackQuery{
		ID:   "cb1",
		From: &tgbotapi.User{ID: 9, UserName: "fox"},
		Data: data,
		Message: &tgbotapi.Message{
			MessageID: 5,
			Chat:      &tgbotapi.Chat{ID: 100},
		},
	}
}

func lastEditText(t *testing.T, api *fakeAPI) string {
	t.Helper()
	api.mu.Lock()
	defer api.mu.Unlock()
	for i := len(api.sent) - 1; i >= 0; i-- {
		if edit, ok := api.sent[i].(tgbotapi.EditMessageTextConfig); ok {
			return edit.Text
		}
	}
	return ""
}

func TestHandleCallbackInvalidToken(t *testing.T) {
	api := &fakeAPI{}
	s, _ := newCallbackService(api, &decodingCodec{err: errors.New("malformed callback token")}, &fakeOrchestrator{})

	s.handleCallback(context.Background(), callbackUpdate("garbage"))

	require.Contains(t, lastEditText(t, api), "invalid or has expired")
	// The callback was still answered.
	require.Len(t, api.requests, 1)
}

func TestHandleCallbackDeliversVideo(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "clip.mp4")
	require.NoError(t, os.WriteFile(path, []byte("video"), 0o644))

	api := &fakeAPI{}
	orch := &fakeOrchestrator{result: request.Result{Path: path, Title: "My Clip"}}
	codec := &decodingCodec{sel: quality.Best, url: "https://www.youtube.com/watch?v=dQw4w9WgXcQ"}
	s, db := newCallbackService(api, codec, orch)

	s.handleCallback(context.Background(), callbackUpdate("q_best:id:dQw4w9WgXcQ"))

	require.True(t, orch.uploading)
	require.True(t, orch.completed)
	require.False(t, orch.failed)
	// The artifact size was measured before the terminal transition.
	require.Equal(t, int64(5), orch.size)

	// The stored request references the logged button-press interaction.
	var created []any
	for i, sql := range db.execSQL {
		if strings.Contains(sql, "INSERT INTO requests") {
			created = db.execArgs[i]
		}
	}
	require.NotNil(t, created)
	interactionID, ok := created[3].(*int64)
	require.True(t, ok)
	require.Equal(t, int64(31), *interactionID)

	api.mu.Lock()
	defer api.mu.Unlock()
	var video *tgbotapi.VideoConfig
	for _, c := range api.sent {
		if v, ok := c.(tgbotapi.VideoConfig); ok {
			video = &v
		}
	}
	require.NotNil(t, video)
	require.Equal(t, "My Clip", video.Caption)
	require.Equal(t, int64(100), video.ChatID)
}

func TestHandleCallbackOversizedArtifact(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "clip.mp4")
	require.NoError(t, os.WriteFile(path, make([]byte, 2048), 0o644))

	api := &fakeAPI{}
	orch := &fakeOrchestrator{result: request.Result{Path: path, Title: "Big"}}
	codec := &decodingCodec{sel: quality.Best, url: "https://vimeo.com/123"}
	s, _ := newCallbackService(api, codec, orch)
	s.maxUploadBytes = 1024

	s.handleCallback(context.Background(), callbackUpdate("q_best:https://vimeo.com/123"))

	require.True(t, orch.failed)
	require.False(t, orch.completed)
	require.Equal(t, int64(2048), orch.size)
	require.Contains(t, lastEditText(t, api), "too large")
}

func TestHandleCallbackProcessingFailure(t *testing.T) {
	api := &fakeAPI{}
	orch := &fakeOrchestrator{err: &downloader.Error{
		Op:    "download",
		Cause: downloader.ErrPrivate,
	}}
	codec := &decodingCodec{sel: quality.Best, url: "https://vimeo.com/123"}
	s, _ := newCallbackService(api, codec, orch)

	s.handleCallback(context.Background(), callbackUpdate("q_best:https://vimeo.com/123"))

	require.Contains(t, lastEditText(t, api), "private")
}

func TestAttachmentFor(t *testing.T) {
	res := request.Result{Path: "/tmp/a.m4a", Title: "Song"}

	audio, ok := attachmentFor(1, quality.Audio, res).(tgbotapi.AudioConfig)
	require.True(t, ok)
	require.Equal(t, "Song", audio.Title)

	_, ok = attachmentFor(1, quality.GIF, request.Result{Path: "/tmp/a.gif"}).(tgbotapi.AnimationConfig)
	require.True(t, ok)

	video, ok := attachmentFor(1, quality.AtMost(720), request.Result{Path: "/tmp/a.mp4"}).(tgbotapi.VideoConfig)
	require.True(t, ok)
	require.True(t, video.SupportsStreaming)
}
