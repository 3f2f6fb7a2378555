package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"showcount/shared/go/models"
)

// FindVenue returns the venue matching the (name, city, state, country)
// tuple, or nil when no row matches. Locality fields are compared with
// IS NOT DISTINCT FROM so a NULL column only matches an unspecified
// parameter, never an empty string. Persistence errors are returned
// unchanged.
func (s *Store) FindVenue(ctx context.Context, params models.VenueParams) (*models.Venue, error) {
	query := `
		SELECT id, name, city, state, country, latitude, longitude,
		       place_id, formatted_address, created_at, updated_at
		FROM venues
		WHERE name = $1
		  AND city IS NOT DISTINCT FROM $2
		  AND state IS NOT DISTINCT FROM $3
		  AND country IS NOT DISTINCT FROM $4
	`

	var (
		v                models.Venue
		city, state      sql.NullString
		placeID, fmtAddr sql.NullString
		lat, lng         sql.NullFloat64
	)

	err := s.db.QueryRowContext(ctx, query,
		params.Name, nullString(params.City), nullString(params.State), nullString(params.Country),
	).Scan(
		&v.ID, &v.Name, &city, &state, &v.Country, &lat, &lng,
		&placeID, &fmtAddr, &v.CreatedAt, &v.UpdatedAt,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find venue: %w", err)
	}

	v.City = stringPtr(city)
	v.State = stringPtr(state)
	v.Latitude = floatPtr(lat)
	v.Longitude = floatPtr(lng)
	v.PlaceID = stringPtr(placeID)
	v.FormattedAddress = stringPtr(fmtAddr)
	return &v, nil
}

// GetVenue retrieves a single venue by id.
func (s *Store) GetVenue(ctx context.Context, id string) (*models.Venue, error) {
	query := `
		SELECT id, name, city, state, country, latitude, longitude,
		       place_id, formatted_address, created_at, updated_at
		FROM venues
		WHERE id = $1
	`

	var (
		v                models.Venue
		city, state      sql.NullString
		placeID, fmtAddr sql.NullString
		lat, lng         sql.NullFloat64
	)

	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&v.ID, &v.Name, &city, &state, &v.Country, &lat, &lng,
		&placeID, &fmtAddr, &v.CreatedAt, &v.UpdatedAt,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrVenueNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get venue: %w", err)
	}

	v.City = stringPtr(city)
	v.State = stringPtr(state)
	v.Latitude = floatPtr(lat)
	v.Longitude = floatPtr(lng)
	v.PlaceID = stringPtr(placeID)
	v.FormattedAddress = stringPtr(fmtAddr)
	return &v, nil
}

// InsertVenue adds a new venue and returns the stored row. The venues table
// carries no uniqueness constraint by default; when a deployment adds one on
// the identity tuple, a unique violation here resolves to the concurrently
// inserted row instead of failing.
func (s *Store) InsertVenue(ctx context.Context, v *models.Venue) (*models.Venue, error) {
	if v.ID == "" {
		v.ID = uuid.NewString()
	}

	query := `
		INSERT INTO venues (id, name, city, state, country, latitude, longitude,
		                    place_id, formatted_address)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at, updated_at
	`

	err := s.db.QueryRowContext(ctx, query,
		v.ID, v.Name, nullString(v.City), nullString(v.State), v.Country,
		nullFloat(v.Latitude), nullFloat(v.Longitude),
		nullString(v.PlaceID), nullString(v.FormattedAddress),
	).Scan(&v.CreatedAt, &v.UpdatedAt)

	if isUniqueViolation(err) {
		country := v.Country
		existing, findErr := s.FindVenue(ctx, models.VenueParams{
			Name:    v.Name,
			City:    v.City,
			State:   v.State,
			Country: &country,
		})
		if findErr == nil && existing != nil {
			return existing, nil
		}
		return nil, fmt.Errorf("insert venue: %w", err)
	}
	if err != nil {
		return nil, fmt.Errorf("insert venue: %w", err)
	}

	return v, nil
}

func nullFloat(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}
