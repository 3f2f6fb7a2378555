package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"showcount/internal/app/shows"
	"showcount/internal/app/upload"
	"showcount/internal/app/venues"
	"showcount/shared/go/models"
)

// VenueService captures the venue-resolution operations needed by the HTTP
// handlers.
type VenueService interface {
	Find(ctx context.Context, params models.VenueParams) (*models.Venue, error)
	GetOrCreateWithStatus(ctx context.Context, params models.VenueParams) venues.Result
}

// ShowService captures central-show resolution workflows.
type ShowService interface {
	Find(ctx context.Context, date, artist, venueID string) (*models.CentralShow, error)
	GetOrCreate(ctx context.Context, params shows.CreateParams) (shows.Result, error)
	GetByIDs(ctx context.Context, ids []string) ([]*models.CentralShowWithVenue, error)
}

// UploadService streams batch uploads with per-row progress.
type UploadService interface {
	Run(ctx context.Context, userID string, subs []models.ShowSubmission, emit func(upload.Event)) error
}

// UserShowStore persists and lists attendance records.
type UserShowStore interface {
	InsertUserShows(ctx context.Context, shows []*models.UserShow) error
	ListUserShowsByUser(ctx context.Context, userID string) ([]*models.UserShow, error)
}

// Server wires HTTP handlers to the underlying services. Identity is
// delegated to an external provider; requests carry its bearer tokens.
type Server struct {
	venues    VenueService
	shows     ShowService
	upload    UploadService
	userShows UserShowStore
	jwtSecret []byte
}

// New configures a Server with the given services.
func New(venueSvc VenueService, showSvc ShowService, uploadSvc UploadService, userShows UserShowStore, jwtSecret []byte) *Server {
	return &Server{
		venues:    venueSvc,
		shows:     showSvc,
		upload:    uploadSvc,
		userShows: userShows,
		jwtSecret: jwtSecret,
	}
}

// Routes exposes the HTTP handlers for show submission and upload.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()

	// Health check endpoint
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	mux.HandleFunc("POST /api/v1/shows", s.handleCreateShow)
	mux.HandleFunc("GET /api/v1/shows", s.handleListShows)
	mux.HandleFunc("POST /api/v1/shows/check-duplicate", s.handleCheckDuplicate)
	mux.HandleFunc("POST /api/v1/shows/upload", s.handleUpload)

	return mux
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// userID verifies the identity-provider bearer token and returns its
// subject.
func (s *Server) userID(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return "", errors.New("missing bearer token")
	}

	token, err := jwt.Parse(strings.TrimPrefix(header, prefix), func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil || !token.Valid {
		return "", errors.New("invalid token")
	}

	sub, err := token.Claims.GetSubject()
	if err != nil || sub == "" {
		return "", errors.New("token missing subject")
	}
	return sub, nil
}
