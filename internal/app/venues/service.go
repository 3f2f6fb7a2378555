package venues

import (
	"context"

	"github.com/rs/zerolog/log"

	"showcount/internal/geocode"
	"showcount/shared/go/models"
)

// Store defines persistence operations for venues
type Store interface {
	FindVenue(ctx context.Context, params models.VenueParams) (*models.Venue, error)
	InsertVenue(ctx context.Context, v *models.Venue) (*models.Venue, error)
	GetVenue(ctx context.Context, id string) (*models.Venue, error)
}

// Status describes how a venue resolution concluded.
type Status string

const (
	// StatusExisting means the lookup matched a stored venue.
	StatusExisting Status = "existing"
	// StatusCreatedWithGeocode means a venue was created from a geocoder hit.
	StatusCreatedWithGeocode Status = "created_with_geocode"
	// StatusCreatedWithoutGeocode means geocoding was attempted and yielded
	// nothing, so the venue was created with no coordinates.
	StatusCreatedWithoutGeocode Status = "created_without_geocode"
	// StatusFailed means validation or every creation path failed.
	StatusFailed Status = "failed"
)

// Result reports the outcome of a venue resolution.
type Result struct {
	VenueID string        `json:"venue_id"`
	Status  Status        `json:"status"`
	Venue   *models.Venue `json:"venue,omitempty"`
}

// Policy configures which locality fields are mandatory for venues in the
// designated domestic country. Deployments differ on whether state is part
// of the requirement, so it is injected rather than hardcoded.
type Policy struct {
	DomesticCountry string
	RequireState    bool
}

// DefaultPolicy requires city and state for USA venues.
func DefaultPolicy() Policy {
	return Policy{DomesticCountry: "USA", RequireState: true}
}

// Service resolves free-text venue submissions into canonical venue records,
// creating them via external geocoding when no match exists.
type Service struct {
	store    Store
	geocoder geocode.Client
	policy   Policy
}

// New constructs a venues Service backed by the provided Store and geocoder.
func New(store Store, geocoder geocode.Client, policy Policy) *Service {
	return &Service{
		store:    store,
		geocoder: geocoder,
		policy:   policy,
	}
}

// Find returns the venue exactly matching the params tuple, or nil when no
// row matches. Persistence errors propagate unchanged.
func (s *Service) Find(ctx context.Context, params models.VenueParams) (*models.Venue, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.store.FindVenue(ctx, params)
}

// Get retrieves a venue by id.
func (s *Service) Get(ctx context.Context, id string) (*models.Venue, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.store.GetVenue(ctx, id)
}

// GetOrCreate resolves the params to a venue id, creating the venue when no
// match exists. An empty id means resolution failed; failures are logged,
// never raised, so the caller decides whether a show can be saved without a
// venue.
func (s *Service) GetOrCreate(ctx context.Context, params models.VenueParams) string {
	return s.GetOrCreateWithStatus(ctx, params).VenueID
}

// GetOrCreateWithStatus resolves the params to a venue and reports how the
// resolution concluded. The status feeds user-visible upload progress.
func (s *Service) GetOrCreateWithStatus(ctx context.Context, params models.VenueParams) Result {
	if !s.validate(params) {
		return Result{Status: StatusFailed}
	}

	existing, err := s.store.FindVenue(ctx, params)
	if err != nil {
		log.Error().Err(err).Str("venue", params.Name).Msg("venue lookup failed")
		return Result{Status: StatusFailed}
	}
	if existing != nil {
		return Result{VenueID: existing.ID, Status: StatusExisting, Venue: existing}
	}

	candidates, err := s.geocoder.Search(ctx, params)
	if err != nil {
		// Geocoder trouble degrades to "no results"; the venue is still
		// created, just without coordinates.
		log.Warn().Err(err).Str("venue", params.Name).Msg("geocoding failed, creating venue without coordinates")
		candidates = nil
	}

	if len(candidates) > 0 {
		return s.createFromCandidate(ctx, params, candidates[0])
	}
	return s.createWithoutGeocode(ctx, params)
}

// createFromCandidate builds a venue from the top-ranked geocoder result.
// Caller-supplied fields win over geocoded address components.
func (s *Service) createFromCandidate(ctx context.Context, params models.VenueParams, top geocode.Candidate) Result {
	if top.PartialMatch {
		log.Warn().
			Str("venue", params.Name).
			Str("matched", top.DisplayName).
			Msg("geocoder reported a partial match")
	}

	lat, lng := top.Latitude, top.Longitude
	placeID, displayName := top.PlaceID, top.DisplayName
	venue := &models.Venue{
		Name:             params.Name,
		City:             pick(params.City, top.City),
		State:            pick(params.State, top.State),
		Country:          pickCountry(params.Country, top.Country),
		Latitude:         &lat,
		Longitude:        &lng,
		PlaceID:          &placeID,
		FormattedAddress: &displayName,
	}

	// Re-check with the final resolved field values before inserting. This
	// narrows, but does not close, the race against a concurrent request
	// creating the same venue.
	if existing := s.recheck(ctx, venue); existing != nil {
		return Result{VenueID: existing.ID, Status: StatusExisting, Venue: existing}
	}

	created, err := s.store.InsertVenue(ctx, venue)
	if err != nil {
		log.Error().Err(err).Str("venue", params.Name).Msg("venue insert failed")
		return Result{Status: StatusFailed}
	}
	return Result{VenueID: created.ID, Status: StatusCreatedWithGeocode, Venue: created}
}

// createWithoutGeocode inserts a venue with no coordinates or provenance.
func (s *Service) createWithoutGeocode(ctx context.Context, params models.VenueParams) Result {
	venue := &models.Venue{
		Name:    params.Name,
		City:    pick(params.City, ""),
		State:   pick(params.State, ""),
		Country: pickCountry(params.Country, ""),
	}

	if existing := s.recheck(ctx, venue); existing != nil {
		return Result{VenueID: existing.ID, Status: StatusExisting, Venue: existing}
	}

	created, err := s.store.InsertVenue(ctx, venue)
	if err != nil {
		log.Error().Err(err).Str("venue", params.Name).Msg("venue insert failed")
		return Result{Status: StatusFailed}
	}
	return Result{VenueID: created.ID, Status: StatusCreatedWithoutGeocode, Venue: created}
}

func (s *Service) recheck(ctx context.Context, venue *models.Venue) *models.Venue {
	country := venue.Country
	existing, err := s.store.FindVenue(ctx, models.VenueParams{
		Name:    venue.Name,
		City:    venue.City,
		State:   venue.State,
		Country: &country,
	})
	if err != nil {
		log.Warn().Err(err).Str("venue", venue.Name).Msg("pre-insert venue re-check failed")
		return nil
	}
	return existing
}

func (s *Service) validate(params models.VenueParams) bool {
	if params.Name == "" {
		log.Error().Msg("venue name is required")
		return false
	}
	if params.Country != nil && *params.Country == s.policy.DomesticCountry {
		if isBlank(params.City) || (s.policy.RequireState && isBlank(params.State)) {
			log.Error().
				Str("venue", params.Name).
				Str("country", *params.Country).
				Msg("domestic venues require full locality fields")
			return false
		}
	}
	return true
}

func isBlank(s *string) bool {
	return s == nil || *s == ""
}

// pick returns the provided value when set, falling back to the geocoded
// component, or nil when neither is known.
func pick(provided *string, geocoded string) *string {
	if provided != nil && *provided != "" {
		return provided
	}
	if geocoded != "" {
		g := geocoded
		return &g
	}
	return nil
}

func pickCountry(provided *string, geocoded string) string {
	if provided != nil && *provided != "" {
		return *provided
	}
	if geocoded != "" {
		return geocoded
	}
	return "Unknown"
}
