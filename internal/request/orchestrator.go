package request

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/foxyhq/foxyfetch/internal/convert"
	"github.com/foxyhq/foxyfetch/internal/downloader"
	"github.com/foxyhq/foxyfetch/internal/quality"
)

// Downloader fetches media from a source URL into a directory.
type Downloader interface {
	Download(ctx context.Context, url string, sel quality.Selector, dir string, hook downloader.ProgressFunc) (path, title string, err error)
}

// Converter turns a downloaded video into a GIF.
type Converter interface {
	ToGIF(ctx context.Context, inputPath string) (string, error)
}

// Store persists request lifecycle transitions.
type Store interface {
	SetStatus(ctx context.Context, id uuid.UUID, status string) error
	SetCompleted(ctx context.Context, id uuid.UUID, size int64) error
	SetFailed(ctx context.Context, id uuid.UUID, status, reason string, size int64) error
	SetTitle(ctx context.Context, id uuid.UUID, title string) error
}

// Job is one accepted download request being processed. FileSize is
// set by the caller once the artifact is measured and is persisted
// with the terminal state.
type Job struct {
	ID       uuid.UUID
	URL      string
	Quality  quality.Selector
	Status   Status
	FileSize int64
}

// Result is the artifact Process hands back for upload. Path points
// inside the job's working directory; the caller must Cleanup the job
// once the artifact is no longer needed.
type Result struct {
	Path  string
	Title string
}

// Orchestrator runs accepted requests through download and conversion.
// Every request works in its own directory under baseDir, named by the
// request ID, so concurrent requests never collide.
type Orchestrator struct {
	logger     *slog.Logger
	downloader Downloader
	converter  Converter
	store      Store
	baseDir    string
}

func NewOrchestrator(log *slog.Logger, dl Downloader, conv Converter, st Store, baseDir string) *Orchestrator {
	return &Orchestrator{
		logger:     log.With(slog.String("service", "request")),
		downloader: dl,
		converter:  conv,
		store:      st,
		baseDir:    baseDir,
	}
}

// Process runs the job to the point where an artifact is ready for
// upload. hook receives download progress events. On any failure the
// job is marked failed and its working directory is removed; extractor
// and conversion errors come back unchanged, anything else as a
// *ServiceError. On success the working directory survives until
// Cleanup.
func (o *Orchestrator) Process(ctx context.Context, job *Job, hook downloader.ProgressFunc) (Result, error) {
	log := o.logger.With(slog.String("request_id", job.ID.String()))

	dir := o.workDir(job.ID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return o.fail(ctx, job, StatusDownloadStarted, fmt.Errorf("create working directory: %w", err))
	}

	o.advance(ctx, job, StatusDownloadStarted)
	o.advance(ctx, job, StatusDownloading)

	path, title, err := o.downloader.Download(ctx, job.URL, job.Quality, dir, hook)
	if err != nil {
		return o.fail(ctx, job, StatusDownloading, err)
	}

	if title != "" {
		if err := o.store.SetTitle(ctx, job.ID, title); err != nil {
			log.Warn("persisting title failed", slog.String("error", err.Error()))
		}
	}

	if job.Quality.Kind == quality.KindGIF {
		o.advance(ctx, job, StatusConversionStarted)
		o.advance(ctx, job, StatusConverting)

		gifPath, err := o.converter.ToGIF(ctx, path)
		if err != nil {
			return o.fail(ctx, job, StatusConverting, err)
		}
		// The source video is no longer needed once the GIF exists.
		if err := os.Remove(path); err != nil {
			log.Warn("removing source video failed", slog.String("error", err.Error()))
		}
		path = gifPath
	}

	if _, err := os.Stat(path); err != nil {
		return o.fail(ctx, job, job.Status, fmt.Errorf("final artifact missing: %w", err))
	}

	log.Info("request processed",
		slog.String("path", path),
		slog.String("quality", job.Quality.String()))

	return Result{Path: path, Title: title}, nil
}

// MarkUploading records the upload handoff.
func (o *Orchestrator) MarkUploading(ctx context.Context, job *Job) {
	o.advance(ctx, job, StatusUploadStarted)
}

// Complete records successful delivery, including the delivered
// artifact's size, and removes the job's working directory.
func (o *Orchestrator) Complete(ctx context.Context, job *Job) {
	if job.Status.CanAdvanceTo(StatusCompleted) {
		job.Status = StatusCompleted
		if err := o.store.SetCompleted(ctx, job.ID, job.FileSize); err != nil {
			o.logger.Warn("persisting completion failed",
				slog.String("request_id", job.ID.String()),
				slog.String("error", err.Error()))
		}
	}
	o.Cleanup(job)
}

// Fail records a failure that happened after Process returned, such as
// an oversized artifact or a dead upload, and removes the working
// directory.
func (o *Orchestrator) Fail(ctx context.Context, job *Job, reason error) {
	_, _ = o.fail(ctx, job, job.Status, reason)
}

// Cleanup removes the job's working directory and everything in it.
func (o *Orchestrator) Cleanup(job *Job) {
	dir := o.workDir(job.ID)
	if err := os.RemoveAll(dir); err != nil {
		o.logger.Warn("removing working directory failed",
			slog.String("request_id", job.ID.String()),
			slog.String("error", err.Error()))
	}
}

func (o *Orchestrator) workDir(id uuid.UUID) string {
	return filepath.Join(o.baseDir, id.String())
}

// advance moves the job forward one state. Persistence failures are
// logged but do not abort the download.
func (o *Orchestrator) advance(ctx context.Context, job *Job, next Status) {
	if !job.Status.CanAdvanceTo(next) {
		return
	}
	job.Status = next
	if err := o.store.SetStatus(ctx, job.ID, next.String()); err != nil {
		o.logger.Warn("persisting status failed",
			slog.String("request_id", job.ID.String()),
			slog.String("status", next.String()),
			slog.String("error", err.Error()))
	}
}

// fail records the terminal state and removes the working directory.
// Extractor and conversion errors pass through unchanged; anything
// else is an internal inconsistency and becomes a *ServiceError.
func (o *Orchestrator) fail(ctx context.Context, job *Job, stage Status, cause error) (Result, error) {
	if !job.Status.Terminal() {
		job.Status = StatusFailed
		if err := o.store.SetFailed(ctx, job.ID, StatusFailed.String(), cause.Error(), job.FileSize); err != nil {
			o.logger.Warn("persisting failure failed",
				slog.String("request_id", job.ID.String()),
				slog.String("error", err.Error()))
		}
	}
	o.Cleanup(job)

	var dlErr *downloader.Error
	var convErr *convert.Error
	if errors.As(cause, &dlErr) || errors.As(cause, &convErr) {
		return Result{}, cause
	}
	return Result{}, &ServiceError{RequestID: job.ID, Stage: stage, Err: cause}
}
