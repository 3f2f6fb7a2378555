package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"showcount/shared/go/models"
)

// InsertUserShows adds a batch of attendance records in one transaction.
// The legacy flat venue columns are always written as NULL; new records only
// carry resolved central-show references.
func (s *Store) InsertUserShows(ctx context.Context, shows []*models.UserShow) error {
	if len(shows) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if tx != nil {
			_ = tx.Rollback()
		}
	}()

	for _, us := range shows {
		if us.ID == "" {
			us.ID = uuid.NewString()
		}
		err := tx.QueryRowContext(ctx, `
			INSERT INTO user_shows (id, user_id, central_show_ids, notes, rating,
			                        venue, city, state, country)
			VALUES ($1, $2, $3, $4, $5, NULL, NULL, NULL, NULL)
			RETURNING created_at, updated_at
		`, us.ID, us.UserID, pq.Array(us.CentralShowIDs),
			nullString(us.Notes), nullString(us.Rating),
		).Scan(&us.CreatedAt, &us.UpdatedAt)
		if err != nil {
			return fmt.Errorf("insert user show: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	tx = nil

	return nil
}

// ListUserShowsByUser returns a user's attendance records, newest first.
func (s *Store) ListUserShowsByUser(ctx context.Context, userID string) ([]*models.UserShow, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, central_show_ids, notes, rating, created_at, updated_at
		FROM user_shows
		WHERE user_id = $1
		ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("list user shows: %w", err)
	}
	defer rows.Close()

	var shows []*models.UserShow
	for rows.Next() {
		var (
			us            models.UserShow
			ids           pq.StringArray
			notes, rating sql.NullString
		)
		if err := rows.Scan(&us.ID, &us.UserID, &ids, &notes, &rating, &us.CreatedAt, &us.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan user show: %w", err)
		}
		us.CentralShowIDs = []string(ids)
		us.Notes = stringPtr(notes)
		us.Rating = stringPtr(rating)
		shows = append(shows, &us)
	}

	return shows, rows.Err()
}
