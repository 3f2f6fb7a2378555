package shows

import (
	"context"
	"fmt"

	"showcount/shared/go/models"
)

// idChunkSize bounds id-list lookups so query parameter lists stay well
// under transport limits.
const idChunkSize = 100

// Store defines persistence operations for central shows
type Store interface {
	FindCentralShow(ctx context.Context, date, artist, venueID string) (*models.CentralShow, error)
	CountCentralShowsByPrefix(ctx context.Context, prefix string) (int, error)
	InsertCentralShow(ctx context.Context, c *models.CentralShow) (*models.CentralShow, error)
	ListCentralShowsByIDs(ctx context.Context, ids []string) ([]*models.CentralShowWithVenue, error)
	ListCentralShowsByShowIDs(ctx context.Context, showIDs []string) ([]*models.CentralShow, error)
}

// Key identifies a canonical show: one artist, one venue, one date.
type Key struct {
	Date    string `json:"date"`
	Artist  string `json:"artist"`
	VenueID string `json:"venue_id"`
}

// CreateParams carries a show key plus the duplicate policy.
type CreateParams struct {
	Key
	// AllowDuplicate permits creating a second record for a key that
	// already has one; the new record gets the next sequence suffix.
	AllowDuplicate bool
}

// Result reports a resolution outcome. IsDuplicate is not an error: it means
// the key already had a record, and the caller decides whether to reuse it,
// confirm with the user, or (with AllowDuplicate) keep the forced new row.
type Result struct {
	CentralShow *models.CentralShow `json:"central_show"`
	IsNew       bool                `json:"is_new"`
	IsDuplicate bool                `json:"is_duplicate"`
}

// Service resolves (date, artist, venue) triples into canonical central
// show records.
type Service struct {
	store Store
}

// New constructs a shows Service backed by the provided Store.
func New(store Store) *Service {
	return &Service{store: store}
}

// Find returns the central show exactly matching the key, or nil when none
// exists.
func (s *Service) Find(ctx context.Context, date, artist, venueID string) (*models.CentralShow, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.store.FindCentralShow(ctx, date, artist, venueID)
}

// GetOrCreate resolves a key to a central show. An existing match is
// returned as-is with IsDuplicate set unless the caller permits duplicates,
// in which case a new record is created with the next sequence suffix even
// though the key already exists.
func (s *Service) GetOrCreate(ctx context.Context, params CreateParams) (Result, error) {
	if params.Date == "" || params.Artist == "" || params.VenueID == "" {
		return Result{}, fmt.Errorf("date, artist and venue id are required")
	}

	existing, err := s.store.FindCentralShow(ctx, params.Date, params.Artist, params.VenueID)
	if err != nil {
		return Result{}, err
	}
	if existing != nil && !params.AllowDuplicate {
		return Result{CentralShow: existing, IsNew: false, IsDuplicate: true}, nil
	}

	// Count prior records sharing the base slug so each additional record
	// gets a strictly increasing suffix.
	base := GenerateShowID(params.Date, params.Artist, params.VenueID, 0)
	count, err := s.store.CountCentralShowsByPrefix(ctx, base)
	if err != nil {
		return Result{}, err
	}

	created, err := s.store.InsertCentralShow(ctx, &models.CentralShow{
		ShowID:  GenerateShowID(params.Date, params.Artist, params.VenueID, count),
		Date:    params.Date,
		Artist:  params.Artist,
		VenueID: params.VenueID,
	})
	if err != nil {
		return Result{}, err
	}

	return Result{CentralShow: created, IsNew: true, IsDuplicate: existing != nil}, nil
}

// CreateMany resolves a list of keys in order, permitting duplicates; bulk
// imports never block on conflicts.
func (s *Service) CreateMany(ctx context.Context, keys []Key) ([]*models.CentralShow, error) {
	shows := make([]*models.CentralShow, 0, len(keys))
	for _, key := range keys {
		result, err := s.GetOrCreate(ctx, CreateParams{Key: key, AllowDuplicate: true})
		if err != nil {
			return nil, err
		}
		shows = append(shows, result.CentralShow)
	}
	return shows, nil
}

// GetByIDs returns central shows for the given row ids, each joined with its
// resolved venue. Lookups are chunked to stay under URL-length limits.
func (s *Service) GetByIDs(ctx context.Context, ids []string) ([]*models.CentralShowWithVenue, error) {
	var shows []*models.CentralShowWithVenue
	for _, chunk := range chunkIDs(ids, idChunkSize) {
		batch, err := s.store.ListCentralShowsByIDs(ctx, chunk)
		if err != nil {
			return nil, err
		}
		shows = append(shows, batch...)
	}
	return shows, nil
}

// GetByShowIDs returns central shows for the given show_id slugs.
func (s *Service) GetByShowIDs(ctx context.Context, showIDs []string) ([]*models.CentralShow, error) {
	var shows []*models.CentralShow
	for _, chunk := range chunkIDs(showIDs, idChunkSize) {
		batch, err := s.store.ListCentralShowsByShowIDs(ctx, chunk)
		if err != nil {
			return nil, err
		}
		shows = append(shows, batch...)
	}
	return shows, nil
}

func chunkIDs(ids []string, size int) [][]string {
	var chunks [][]string
	for len(ids) > size {
		chunks = append(chunks, ids[:size])
		ids = ids[size:]
	}
	if len(ids) > 0 {
		chunks = append(chunks, ids)
	}
	return chunks
}
