package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const requestColumns = `id, user_id, chat_id, interaction_id, url, platform, quality,
	status, title, error, file_size, created_at, updated_at`

// Request is one persisted download request. Status holds the wire
// form of the request lifecycle state. InteractionID links back to the
// logged button press that started the request; FileSize is filled in
// once the final artifact is measured.
type Request struct {
	ID            uuid.UUID
	UserID        int64
	ChatID        int64
	InteractionID *int64
	URL           string
	Platform      string
	Quality       string
	Status        string
	Title         string
	Error         string
	FileSize      int64
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// RequestRepository persists download requests.
type RequestRepository struct {
	db DBTX
}

func NewRequestRepository(db DBTX) *RequestRepository {
	return &RequestRepository{db: db}
}

// Create inserts the request with its initial status.
func (r *RequestRepository) Create(ctx context.Context, req *Request) error {
	query := `
		INSERT INTO requests (id, user_id, chat_id, interaction_id, url, platform, quality, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := r.db.Exec(ctx, query,
		req.ID, req.UserID, req.ChatID, req.InteractionID, req.URL, req.Platform, req.Quality, req.Status)
	if err != nil {
		return fmt.Errorf("insert request: %w", err)
	}
	return nil
}

// GetByID returns the request or ErrNotFound.
func (r *RequestRepository) GetByID(ctx context.Context, id uuid.UUID) (*Request, error) {
	query := fmt.Sprintf(`SELECT %s FROM requests WHERE id = $1`, requestColumns)

	req := &Request{}
	err := r.db.QueryRow(ctx, query, id).Scan(
		&req.ID, &req.UserID, &req.ChatID, &req.InteractionID, &req.URL, &req.Platform,
		&req.Quality, &req.Status, &req.Title, &req.Error, &req.FileSize,
		&req.CreatedAt, &req.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get request: %w", err)
	}
	return req, nil
}

// SetStatus records a lifecycle transition.
func (r *RequestRepository) SetStatus(ctx context.Context, id uuid.UUID, status string) error {
	query := `UPDATE requests SET status = $2, updated_at = now() WHERE id = $1`

	tag, err := r.db.Exec(ctx, query, id, status)
	if err != nil {
		return fmt.Errorf("update request status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SetCompleted marks the request delivered and records the size of
// the artifact that was uploaded.
func (r *RequestRepository) SetCompleted(ctx context.Context, id uuid.UUID, size int64) error {
	query := `UPDATE requests SET status = 'completed', file_size = $2, updated_at = now() WHERE id = $1`

	tag, err := r.db.Exec(ctx, query, id, size)
	if err != nil {
		return fmt.Errorf("update request completion: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SetFailed marks the request failed and keeps the reason. size is the
// artifact size when one was produced before the failure (an oversized
// file, for instance), zero otherwise.
func (r *RequestRepository) SetFailed(ctx context.Context, id uuid.UUID, status, reason string, size int64) error {
	query := `UPDATE requests SET status = $2, error = $3, file_size = $4, updated_at = now() WHERE id = $1`

	tag, err := r.db.Exec(ctx, query, id, status, reason, size)
	if err != nil {
		return fmt.Errorf("update request failure: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SetTitle stores the media title once metadata is known.
func (r *RequestRepository) SetTitle(ctx context.Context, id uuid.UUID, title string) error {
	query := `UPDATE requests SET title = $2, updated_at = now() WHERE id = $1`

	tag, err := r.db.Exec(ctx, query, id, title)
	if err != nil {
		return fmt.Errorf("update request title: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
