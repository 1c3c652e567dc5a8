package store

import (
	"context"
	"fmt"
	"time"
)

// User mirrors the chat identity of someone who talked to the bot.
type User struct {
	ID        int64
	Username  string
	FirstName string
	LastName  string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Interaction is one logged contact with the bot.
type Interaction struct {
	UserID  int64
	ChatID  int64
	Kind    string
	Payload string
}

// Interaction kinds.
const (
	InteractionMessage  = "message"
	InteractionCommand  = "command"
	InteractionCallback = "callback"
)

// UserRepository persists users and their interaction history.
type UserRepository struct {
	db DBTX
}

func NewUserRepository(db DBTX) *UserRepository {
	return &UserRepository{db: db}
}

// Upsert inserts the user or refreshes the profile fields on conflict.
func (r *UserRepository) Upsert(ctx context.Context, u *User) error {
	query := `
		INSERT INTO users (id, username, first_name, last_name)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE
		SET username = EXCLUDED.username,
			first_name = EXCLUDED.first_name,
			last_name = EXCLUDED.last_name,
			updated_at = now()`

	if _, err := r.db.Exec(ctx, query, u.ID, u.Username, u.FirstName, u.LastName); err != nil {
		return fmt.Errorf("upsert user: %w", err)
	}
	return nil
}

// LogInteraction appends one interaction record and returns its id so
// a request created from this interaction can reference it.
func (r *UserRepository) LogInteraction(ctx context.Context, in Interaction) (int64, error) {
	query := `
		INSERT INTO interactions (user_id, chat_id, kind, payload)
		VALUES ($1, $2, $3, $4)
		RETURNING id`

	var id int64
	if err := r.db.QueryRow(ctx, query, in.UserID, in.ChatID, in.Kind, in.Payload).Scan(&id); err != nil {
		return 0, fmt.Errorf("insert interaction: %w", err)
	}
	return id, nil
}
