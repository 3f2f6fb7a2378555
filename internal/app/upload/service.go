package upload

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"showcount/internal/app/shows"
	"showcount/internal/app/venues"
	"showcount/shared/go/models"
)

// flushSize bounds how many resolved rows are buffered before they are
// written in one batch insert.
const flushSize = 10

// maxNotesLength caps the free-text notes on a submission.
const maxNotesLength = 4096

// VenueResolver resolves free-text venue fields to a canonical venue.
type VenueResolver interface {
	GetOrCreateWithStatus(ctx context.Context, params models.VenueParams) venues.Result
}

// ShowResolver resolves (date, artist, venue) keys to central shows.
type ShowResolver interface {
	GetOrCreate(ctx context.Context, params shows.CreateParams) (shows.Result, error)
}

// Store persists the assembled attendance records.
type Store interface {
	InsertUserShows(ctx context.Context, shows []*models.UserShow) error
}

// Event is one message on the upload progress stream. The last event on any
// stream is always complete or error, never a silent close.
type Event struct {
	Type        string    `json:"type"` // progress, complete, error
	CurrentShow int       `json:"currentShow,omitempty"`
	TotalShows  int       `json:"totalShows,omitempty"`
	ShowInfo    *ShowInfo `json:"showInfo,omitempty"`
	VenueStatus string    `json:"venueStatus,omitempty"`
	Message     string    `json:"message,omitempty"`
	Error       string    `json:"error,omitempty"`
}

// Event types.
const (
	EventProgress = "progress"
	EventComplete = "complete"
	EventError    = "error"
)

// VenueStatusNone marks rows that carried no venue to resolve.
const VenueStatusNone = "none"

// ShowInfo summarizes the row a progress event refers to.
type ShowInfo struct {
	Date    string   `json:"date"`
	Artists []string `json:"artists"`
	Venue   string   `json:"venue,omitempty"`
}

// Service orchestrates multi-row show uploads: it validates every row up
// front, resolves venues and central shows row by row in input order, and
// streams one progress event per row.
type Service struct {
	venues VenueResolver
	shows  ShowResolver
	store  Store
	policy venues.Policy
}

// New constructs an upload Service.
func New(venueResolver VenueResolver, showResolver ShowResolver, store Store, policy venues.Policy) *Service {
	return &Service{
		venues: venueResolver,
		shows:  showResolver,
		store:  store,
		policy: policy,
	}
}

// cachedVenue is a per-batch memo of one venue resolution, so repeated rows
// at the same venue skip redundant geocoding.
type cachedVenue struct {
	id     string
	status venues.Status
}

// Run processes the submissions for one user, emitting events in row order.
// A validation failure rejects the whole batch before any resolution work; a
// flush failure stops the stream with an error event, leaving earlier
// flushes committed. The returned error mirrors the terminal error event.
func (s *Service) Run(ctx context.Context, userID string, subs []models.ShowSubmission, emit func(Event)) error {
	if err := s.validateAll(userID, subs); err != nil {
		emit(Event{Type: EventError, Error: err.Error()})
		return err
	}

	cache := make(map[string]cachedVenue)
	var pending []*models.UserShow
	inserted := 0

	flush := func() error {
		if len(pending) == 0 {
			return nil
		}
		if err := s.store.InsertUserShows(ctx, pending); err != nil {
			return err
		}
		inserted += len(pending)
		pending = nil
		return nil
	}

	for i, sub := range subs {
		if err := ctx.Err(); err != nil {
			emit(Event{Type: EventError, Error: err.Error()})
			return err
		}

		venueID, venueStatus := s.resolveVenue(ctx, sub, cache)

		if venueID != "" {
			if row := s.assembleRow(ctx, userID, sub, venueID); row != nil {
				pending = append(pending, row)
			}
		} else if sub.Venue != nil && *sub.Venue != "" {
			// Venue resolution failed for a row that names one; the row is
			// skipped, not fatal to the batch.
			log.Warn().
				Int("row", i+1).
				Str("venue", *sub.Venue).
				Msg("skipping row: venue resolution failed")
		}

		emit(Event{
			Type:        EventProgress,
			CurrentShow: i + 1,
			TotalShows:  len(subs),
			ShowInfo: &ShowInfo{
				Date:    sub.Date,
				Artists: sub.Artists,
				Venue:   venueName(sub),
			},
			VenueStatus: string(venueStatus),
			Message:     fmt.Sprintf("Processing show %d of %d", i+1, len(subs)),
		})

		if len(pending) >= flushSize {
			if err := flush(); err != nil {
				emit(Event{Type: EventError, Error: "failed to save shows"})
				return err
			}
		}
	}

	if err := flush(); err != nil {
		emit(Event{Type: EventError, Error: "failed to save shows"})
		return err
	}

	emit(Event{
		Type:    EventComplete,
		Message: fmt.Sprintf("Successfully uploaded %d shows", inserted),
	})
	return nil
}

// resolveVenue consults the per-batch cache before the resolver, keyed by
// the full venue identity so distinct localities never share an entry.
func (s *Service) resolveVenue(ctx context.Context, sub models.ShowSubmission, cache map[string]cachedVenue) (string, venues.Status) {
	if sub.Venue == nil || *sub.Venue == "" {
		return "", VenueStatusNone
	}

	key := fmt.Sprintf("%s|%s|%s|%s", *sub.Venue, deref(sub.City), deref(sub.State), deref(sub.Country))
	if cached, ok := cache[key]; ok {
		return cached.id, cached.status
	}

	result := s.venues.GetOrCreateWithStatus(ctx, models.VenueParams{
		Name:    *sub.Venue,
		City:    sub.City,
		State:   sub.State,
		Country: sub.Country,
	})
	cache[key] = cachedVenue{id: result.VenueID, status: result.Status}
	return result.VenueID, result.Status
}

// assembleRow resolves one central show per artist on the bill and builds
// the attendance record. Bulk imports never block on conflicts, so every
// resolution permits duplicates. A resolution failure drops the row.
func (s *Service) assembleRow(ctx context.Context, userID string, sub models.ShowSubmission, venueID string) *models.UserShow {
	showIDs := make([]string, 0, len(sub.Artists))
	for _, artist := range sub.Artists {
		result, err := s.shows.GetOrCreate(ctx, shows.CreateParams{
			Key:            shows.Key{Date: sub.Date, Artist: artist, VenueID: venueID},
			AllowDuplicate: true,
		})
		if err != nil {
			log.Error().Err(err).
				Str("date", sub.Date).
				Str("artist", artist).
				Msg("skipping row: central show resolution failed")
			return nil
		}
		showIDs = append(showIDs, result.CentralShow.ID)
	}

	return &models.UserShow{
		UserID:         userID,
		CentralShowIDs: showIDs,
		Notes:          sub.Notes,
		Rating:         sub.Rating,
	}
}

// validateAll checks every row before any resolution work; one invalid row
// rejects the whole batch with no partial writes.
func (s *Service) validateAll(userID string, subs []models.ShowSubmission) error {
	if len(subs) == 0 {
		return fmt.Errorf("shows array required")
	}

	for i, sub := range subs {
		row := i + 1
		if sub.UserID != userID {
			return fmt.Errorf("row %d: cannot insert shows for another user", row)
		}
		if sub.Date == "" || len(sub.Artists) == 0 {
			return fmt.Errorf("row %d: date and at least one artist are required", row)
		}
		if sub.Notes != nil && len(*sub.Notes) > maxNotesLength {
			return fmt.Errorf("row %d: notes must not exceed %d characters (found %d)", row, maxNotesLength, len(*sub.Notes))
		}
		if deref(sub.Country) == s.policy.DomesticCountry {
			missing := deref(sub.Venue) == "" || deref(sub.City) == ""
			if s.policy.RequireState {
				missing = missing || deref(sub.State) == ""
			}
			if missing {
				return fmt.Errorf("row %d: domestic venues require name, city and country", row)
			}
		}
	}
	return nil
}

func venueName(sub models.ShowSubmission) string {
	return deref(sub.Venue)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
