// Package bot is the Telegram front end: it receives links, offers
// quality choices, and drives accepted requests through download and
// upload.
package bot

import (
	"context"
	"fmt"
	"log/slog"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/foxyhq/foxyfetch/internal/config"
	"github.com/foxyhq/foxyfetch/internal/downloader"
	"github.com/foxyhq/foxyfetch/internal/platform"
	"github.com/foxyhq/foxyfetch/internal/quality"
	"github.com/foxyhq/foxyfetch/internal/request"
	"github.com/foxyhq/foxyfetch/internal/store"
)

// API is the slice of the Telegram client the service uses.
// *tgbotapi.BotAPI satisfies it.
type API interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// MetadataFetcher extracts media info for a URL without downloading.
type MetadataFetcher interface {
	FetchMetadata(ctx context.Context, url string) (downloader.Metadata, error)
}

// Codec translates between URLs and callback tokens.
type Codec interface {
	Encode(ctx context.Context, url string, sel quality.Selector) (string, error)
	Decode(ctx context.Context, token string) (quality.Selector, string, error)
}

// Orchestrator runs an accepted request to a deliverable artifact.
type Orchestrator interface {
	Process(ctx context.Context, job *request.Job, hook downloader.ProgressFunc) (request.Result, error)
	MarkUploading(ctx context.Context, job *request.Job)
	Complete(ctx context.Context, job *request.Job)
	Fail(ctx context.Context, job *request.Job, reason error)
	Cleanup(job *request.Job)
}

// Service wires Telegram updates to the download pipeline.
type Service struct {
	logger       *slog.Logger
	api          API
	resolver     *platform.Resolver
	codec        Codec
	metadata     MetadataFetcher
	orchestrator Orchestrator
	requests     *store.RequestRepository
	users        *store.UserRepository
	stats        *store.StatsRepository

	adminIDs       []int64
	maxUploadBytes int64
	maxDuration    int
}

func NewService(
	log *slog.Logger,
	api API,
	resolver *platform.Resolver,
	codec Codec,
	metadata MetadataFetcher,
	orchestrator Orchestrator,
	requests *store.RequestRepository,
	users *store.UserRepository,
	stats *store.StatsRepository,
	cfg config.Config,
) *Service {
	return &Service{
		logger:         log.With(slog.String("service", "bot")),
		api:            api,
		resolver:       resolver,
		codec:          codec,
		metadata:       metadata,
		orchestrator:   orchestrator,
		requests:       requests,
		users:          users,
		stats:          stats,
		adminIDs:       cfg.Telegram.AdminIDs,
		maxUploadBytes: cfg.MaxUploadBytes(),
		maxDuration:    cfg.Download.MaxDurationSecs,
	}
}

// NewBotAPI builds the Telegram client, pointing at a local Bot API
// server when one is configured.
func NewBotAPI(cfg config.TelegramConfig) (*tgbotapi.BotAPI, error) {
	if cfg.BotToken == "" {
		return nil, fmt.Errorf("telegram bot token is required")
	}
	if cfg.APIEndpoint != "" {
		return tgbotapi.NewBotAPIWithAPIEndpoint(cfg.BotToken, cfg.APIEndpoint+"/bot%s/%s")
	}
	return tgbotapi.NewBotAPI(cfg.BotToken)
}

// Run long-polls Telegram until ctx is cancelled. Each update is
// handled in its own goroutine so a slow download never stalls the
// update stream.
func (s *Service) Run(ctx context.Context) error {
	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 30
	updates := s.api.GetUpdatesChan(updateConfig)

	s.logger.Info("bot started")

	for {
		select {
		case <-ctx.Done():
			s.api.StopReceivingUpdates()
			// Drain so the library's polling goroutine can exit; an
			// in-flight long poll would otherwise conflict with the
			// next getUpdates session for this token.
			for range updates {
			}
			s.logger.Info("bot stopped")
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				s.logger.Info("updates channel closed")
				return nil
			}
			switch {
			case update.CallbackQuery != nil:
				go s.handleCallback(ctx, update.CallbackQuery)
			case update.Message != nil:
				go s.handleMessage(ctx, update.Message)
			}
		}
	}
}

func (s *Service) isAdmin(userID int64) bool {
	for _, id := range s.adminIDs {
		if id == userID {
			return true
		}
	}
	return false
}

func (s *Service) rememberUser(ctx context.Context, from *tgbotapi.User) {
	if from == nil {
		return
	}
	err := s.users.Upsert(ctx, &store.User{
		ID:        from.ID,
		Username:  from.UserName,
		FirstName: from.FirstName,
		LastName:  from.LastName,
	})
	if err != nil {
		s.logger.Warn("upsert user failed",
			slog.Int64("user_id", from.ID),
			slog.String("error", err.Error()))
	}
}

// logInteraction records the contact and returns the interaction id,
// or zero when logging failed.
func (s *Service) logInteraction(ctx context.Context, userID, chatID int64, kind, payload string) int64 {
	id, err := s.users.LogInteraction(ctx, store.Interaction{
		UserID:  userID,
		ChatID:  chatID,
		Kind:    kind,
		Payload: payload,
	})
	if err != nil {
		s.logger.Warn("log interaction failed",
			slog.Int64("user_id", userID),
			slog.String("error", err.Error()))
		return 0
	}
	return id
}
