package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"showcount/shared/go/models"
)

// FindCentralShow returns the canonical show matching the exact
// (date, artist, venue_id) key, or nil when none exists. Only the "no rows"
// case is translated; every other persistence error propagates.
func (s *Store) FindCentralShow(ctx context.Context, date, artist, venueID string) (*models.CentralShow, error) {
	query := `
		SELECT id, show_id, date, artist, venue_id, created_at, updated_at
		FROM central_shows
		WHERE date = $1 AND artist = $2 AND venue_id = $3
	`

	var c models.CentralShow
	err := s.db.QueryRowContext(ctx, query, date, artist, venueID).Scan(
		&c.ID, &c.ShowID, &c.Date, &c.Artist, &c.VenueID, &c.CreatedAt, &c.UpdatedAt,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find central show: %w", err)
	}

	return &c, nil
}

// CountCentralShowsByPrefix counts rows whose show_id starts with the given
// base slug. The count feeds sequence numbering for permitted duplicates.
func (s *Store) CountCentralShowsByPrefix(ctx context.Context, prefix string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM central_shows
		WHERE show_id LIKE $1 || '%'
	`, prefix).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count central shows: %w", err)
	}
	return count, nil
}

// InsertCentralShow adds a new canonical show and returns the stored row.
func (s *Store) InsertCentralShow(ctx context.Context, c *models.CentralShow) (*models.CentralShow, error) {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}

	query := `
		INSERT INTO central_shows (id, show_id, date, artist, venue_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at, updated_at
	`

	err := s.db.QueryRowContext(ctx, query,
		c.ID, c.ShowID, c.Date, c.Artist, c.VenueID,
	).Scan(&c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert central show: %w", err)
	}

	return c, nil
}

// ListCentralShowsByIDs returns the shows for the given row ids, each joined
// with its resolved venue. Callers chunk the id list; this runs one query.
func (s *Store) ListCentralShowsByIDs(ctx context.Context, ids []string) ([]*models.CentralShowWithVenue, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	query := `
		SELECT
			c.id, c.show_id, c.date, c.artist, c.venue_id, c.created_at, c.updated_at,
			v.id, v.name, v.city, v.state, v.country, v.latitude, v.longitude,
			v.place_id, v.formatted_address, v.created_at, v.updated_at
		FROM central_shows c
		INNER JOIN venues v ON c.venue_id = v.id
		WHERE c.id = ANY($1)
	`

	rows, err := s.db.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("list central shows: %w", err)
	}
	defer rows.Close()

	var shows []*models.CentralShowWithVenue
	for rows.Next() {
		var (
			c                models.CentralShowWithVenue
			v                models.Venue
			city, state      sql.NullString
			placeID, fmtAddr sql.NullString
			lat, lng         sql.NullFloat64
		)
		err := rows.Scan(
			&c.ID, &c.ShowID, &c.Date, &c.Artist, &c.VenueID, &c.CreatedAt, &c.UpdatedAt,
			&v.ID, &v.Name, &city, &state, &v.Country, &lat, &lng,
			&placeID, &fmtAddr, &v.CreatedAt, &v.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan central show: %w", err)
		}
		v.City = stringPtr(city)
		v.State = stringPtr(state)
		v.Latitude = floatPtr(lat)
		v.Longitude = floatPtr(lng)
		v.PlaceID = stringPtr(placeID)
		v.FormattedAddress = stringPtr(fmtAddr)
		c.Venue = &v
		shows = append(shows, &c)
	}

	return shows, rows.Err()
}

// ListCentralShowsByShowIDs returns the shows matching the given show_id
// slugs.
func (s *Store) ListCentralShowsByShowIDs(ctx context.Context, showIDs []string) ([]*models.CentralShow, error) {
	if len(showIDs) == 0 {
		return nil, nil
	}

	query := `
		SELECT id, show_id, date, artist, venue_id, created_at, updated_at
		FROM central_shows
		WHERE show_id = ANY($1)
	`

	rows, err := s.db.QueryContext(ctx, query, pq.Array(showIDs))
	if err != nil {
		return nil, fmt.Errorf("list central shows by show_id: %w", err)
	}
	defer rows.Close()

	var shows []*models.CentralShow
	for rows.Next() {
		var c models.CentralShow
		if err := rows.Scan(&c.ID, &c.ShowID, &c.Date, &c.Artist, &c.VenueID, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan central show: %w", err)
		}
		shows = append(shows, &c)
	}

	return shows, rows.Err()
}
