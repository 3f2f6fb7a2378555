package httpapi

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"showcount/internal/app/shows"
	"showcount/shared/go/models"
)

const maxNotesLength = 4096

type createShowRequest struct {
	Date           string   `json:"date"`
	Artists        []string `json:"artists"`
	Venue          *string  `json:"venue"`
	City           *string  `json:"city"`
	State          *string  `json:"state"`
	Country        *string  `json:"country"`
	Notes          *string  `json:"notes"`
	Rating         *string  `json:"rating"`
	AllowDuplicate bool     `json:"allowDuplicate"`
}

type createShowResponse struct {
	UserShow     *models.UserShow               `json:"userShow"`
	CentralShows []*models.CentralShowWithVenue `json:"centralShows"`
	VenueStatus  string                         `json:"venueStatus"`
}

type duplicateShowResponse struct {
	Error       string                       `json:"error"`
	CentralShow *models.CentralShowWithVenue `json:"centralShow"`
}

func (s *Server) handleCreateShow(w http.ResponseWriter, r *http.Request) {
	userID, err := s.userID(r)
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: err.Error()})
		return
	}

	var req createShowRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	if strings.TrimSpace(req.Date) == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "date is required"})
		return
	}
	artists := make([]string, 0, len(req.Artists))
	for _, a := range req.Artists {
		if strings.TrimSpace(a) != "" {
			artists = append(artists, a)
		}
	}
	if len(artists) == 0 {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "at least one artist is required"})
		return
	}
	if req.Notes != nil && len(*req.Notes) > maxNotesLength {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "notes exceed maximum length"})
		return
	}

	venueResult := s.venues.GetOrCreateWithStatus(r.Context(), models.VenueParams{
		Name:    deref(req.Venue),
		City:    req.City,
		State:   req.State,
		Country: req.Country,
	})
	if venueResult.VenueID == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "venue could not be resolved"})
		return
	}

	centralIDs := make([]string, 0, len(artists))
	for _, artist := range artists {
		result, err := s.shows.GetOrCreate(r.Context(), shows.CreateParams{
			Key: shows.Key{
				Date:    req.Date,
				Artist:  artist,
				VenueID: venueResult.VenueID,
			},
			AllowDuplicate: req.AllowDuplicate,
		})
		if err != nil {
			log.Error().Err(err).
				Str("date", req.Date).
				Str("artist", artist).
				Msg("central show resolution failed")
			writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "failed to resolve show"})
			return
		}
		if result.IsDuplicate && !req.AllowDuplicate {
			existing, err := s.shows.GetByIDs(r.Context(), []string{result.CentralShow.ID})
			if err != nil || len(existing) == 0 {
				writeJSON(w, http.StatusConflict, duplicateShowResponse{
					Error:       "show already exists",
					CentralShow: &models.CentralShowWithVenue{CentralShow: *result.CentralShow},
				})
				return
			}
			writeJSON(w, http.StatusConflict, duplicateShowResponse{
				Error:       "show already exists",
				CentralShow: existing[0],
			})
			return
		}
		centralIDs = append(centralIDs, result.CentralShow.ID)
	}

	userShow := &models.UserShow{
		UserID:         userID,
		CentralShowIDs: centralIDs,
		Notes:          req.Notes,
		Rating:         req.Rating,
	}
	if err := s.userShows.InsertUserShows(r.Context(), []*models.UserShow{userShow}); err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("user show insert failed")
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "failed to save show"})
		return
	}

	centralShows, err := s.shows.GetByIDs(r.Context(), centralIDs)
	if err != nil {
		centralShows = nil
	}
	writeJSON(w, http.StatusCreated, createShowResponse{
		UserShow:     userShow,
		CentralShows: centralShows,
		VenueStatus:  string(venueResult.Status),
	})
}

type checkDuplicateRequest struct {
	Date    string  `json:"date"`
	Artist  string  `json:"artist"`
	Venue   *string `json:"venue"`
	City    *string `json:"city"`
	State   *string `json:"state"`
	Country *string `json:"country"`
}

type checkDuplicateResponse struct {
	Exists      bool                         `json:"exists"`
	CentralShow *models.CentralShowWithVenue `json:"centralShow,omitempty"`
}

func (s *Server) handleCheckDuplicate(w http.ResponseWriter, r *http.Request) {
	if _, err := s.userID(r); err != nil {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: err.Error()})
		return
	}

	var req checkDuplicateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	if strings.TrimSpace(req.Date) == "" || strings.TrimSpace(req.Artist) == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "date and artist are required"})
		return
	}

	// An unknown venue cannot have an existing show against it.
	venue, err := s.venues.Find(r.Context(), models.VenueParams{
		Name:    deref(req.Venue),
		City:    req.City,
		State:   req.State,
		Country: req.Country,
	})
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "failed to check for duplicates"})
		return
	}
	if venue == nil {
		writeJSON(w, http.StatusOK, checkDuplicateResponse{Exists: false})
		return
	}

	existing, err := s.shows.Find(r.Context(), req.Date, req.Artist, venue.ID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "failed to check for duplicates"})
		return
	}
	if existing == nil {
		writeJSON(w, http.StatusOK, checkDuplicateResponse{Exists: false})
		return
	}

	withVenue, err := s.shows.GetByIDs(r.Context(), []string{existing.ID})
	if err != nil || len(withVenue) == 0 {
		writeJSON(w, http.StatusOK, checkDuplicateResponse{
			Exists:      true,
			CentralShow: &models.CentralShowWithVenue{CentralShow: *existing},
		})
		return
	}
	writeJSON(w, http.StatusOK, checkDuplicateResponse{
		Exists:      true,
		CentralShow: withVenue[0],
	})
}

type userShowResponse struct {
	UserShow     *models.UserShow               `json:"userShow"`
	CentralShows []*models.CentralShowWithVenue `json:"centralShows"`
}

func (s *Server) handleListShows(w http.ResponseWriter, r *http.Request) {
	userID, err := s.userID(r)
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: err.Error()})
		return
	}

	userShows, err := s.userShows.ListUserShowsByUser(r.Context(), userID)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("user show listing failed")
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "failed to list shows"})
		return
	}

	seen := make(map[string]bool)
	var ids []string
	for _, us := range userShows {
		for _, id := range us.CentralShowIDs {
			if !seen[id] {
				seen[id] = true
				ids = append(ids, id)
			}
		}
	}

	byID := make(map[string]*models.CentralShowWithVenue, len(ids))
	if len(ids) > 0 {
		centralShows, err := s.shows.GetByIDs(r.Context(), ids)
		if err != nil {
			log.Error().Err(err).Str("user_id", userID).Msg("central show lookup failed")
			writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "failed to list shows"})
			return
		}
		for _, cs := range centralShows {
			byID[cs.ID] = cs
		}
	}

	resp := make([]userShowResponse, 0, len(userShows))
	for _, us := range userShows {
		row := userShowResponse{UserShow: us}
		for _, id := range us.CentralShowIDs {
			if cs, ok := byID[id]; ok {
				row.CentralShows = append(row.CentralShows, cs)
			}
		}
		resp = append(resp, row)
	}
	writeJSON(w, http.StatusOK, resp)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
