package store

import (
	"context"
	"fmt"
	"time"
)

// URLCount is one entry in the most-requested ranking.
type URLCount struct {
	URL   string
	Count int64
}

// StatsRepository aggregates usage numbers for the admin stats view.
type StatsRepository struct {
	db DBTX
}

func NewStatsRepository(db DBTX) *StatsRepository {
	return &StatsRepository{db: db}
}

// CountsByStatus returns how many requests sit in each lifecycle state.
func (r *StatsRepository) CountsByStatus(ctx context.Context) (map[string]int64, error) {
	rows, err := r.db.Query(ctx, `SELECT status, COUNT(*) FROM requests GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("count requests by status: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int64)
	for rows.Next() {
		var status string
		var count int64
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("scan status count: %w", err)
		}
		counts[status] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate status counts: %w", err)
	}
	return counts, nil
}

// CompletedByQuality returns completed downloads broken down by the
// requested quality.
func (r *StatsRepository) CompletedByQuality(ctx context.Context) (map[string]int64, error) {
	query := `
		SELECT quality, COUNT(*) FROM requests
		WHERE status = 'completed'
		GROUP BY quality`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("count requests by quality: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int64)
	for rows.Next() {
		var quality string
		var count int64
		if err := rows.Scan(&quality, &count); err != nil {
			return nil, fmt.Errorf("scan quality count: %w", err)
		}
		counts[quality] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate quality counts: %w", err)
	}
	return counts, nil
}

// TopURLs returns the most requested URLs, busiest first.
func (r *StatsRepository) TopURLs(ctx context.Context, limit int) ([]URLCount, error) {
	query := `
		SELECT url, COUNT(*) AS requests FROM requests
		GROUP BY url
		ORDER BY requests DESC, url
		LIMIT $1`

	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("rank urls: %w", err)
	}
	defer rows.Close()

	var result []URLCount
	for rows.Next() {
		var uc URLCount
		if err := rows.Scan(&uc.URL, &uc.Count); err != nil {
			return nil, fmt.Errorf("scan url count: %w", err)
		}
		result = append(result, uc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate url counts: %w", err)
	}
	return result, nil
}

// UserCount returns the number of known users.
func (r *StatsRepository) UserCount(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return count, nil
}

// ActiveUserCount returns users with at least one interaction since the
// cutoff.
func (r *StatsRepository) ActiveUserCount(ctx context.Context, since time.Time) (int64, error) {
	query := `SELECT COUNT(DISTINCT user_id) FROM interactions WHERE created_at >= $1`

	var count int64
	if err := r.db.QueryRow(ctx, query, since).Scan(&count); err != nil {
		return 0, fmt.Errorf("count active users: %w", err)
	}
	return count, nil
}
