package upload

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"showcount/internal/app/shows"
	"showcount/internal/app/venues"
	"showcount/shared/go/models"
)

type stubVenueResolver struct {
	results map[string]venues.Result
	calls   []string
}

func (s *stubVenueResolver) GetOrCreateWithStatus(ctx context.Context, params models.VenueParams) venues.Result {
	s.calls = append(s.calls, params.Name)
	if r, ok := s.results[params.Name]; ok {
		return r
	}
	return venues.Result{VenueID: "venue-" + params.Name, Status: venues.StatusExisting}
}

type stubShowResolver struct {
	nextID int
	calls  []shows.CreateParams
	err    error
}

func (s *stubShowResolver) GetOrCreate(ctx context.Context, params shows.CreateParams) (shows.Result, error) {
	s.calls = append(s.calls, params)
	if s.err != nil {
		return shows.Result{}, s.err
	}
	s.nextID++
	return shows.Result{
		CentralShow: &models.CentralShow{ID: fmt.Sprintf("central-%d", s.nextID)},
		IsNew:       true,
	}, nil
}

type stubUserShowStore struct {
	batches  [][]*models.UserShow
	failFrom int // 1-based batch number that starts failing; 0 never fails
}

func (s *stubUserShowStore) InsertUserShows(ctx context.Context, userShows []*models.UserShow) error {
	if s.failFrom > 0 && len(s.batches)+1 >= s.failFrom {
		return errors.New("insert failed")
	}
	s.batches = append(s.batches, userShows)
	return nil
}

func (s *stubUserShowStore) inserted() int {
	total := 0
	for _, b := range s.batches {
		total += len(b)
	}
	return total
}

func strPtr(v string) *string { return &v }

func submission(userID, date, venue string, artists ...string) models.ShowSubmission {
	return models.ShowSubmission{
		UserID:  userID,
		Date:    date,
		Artists: artists,
		Venue:   strPtr(venue),
		City:    strPtr("San Francisco"),
		State:   strPtr("CA"),
		Country: strPtr("USA"),
	}
}

func newTestService() (*Service, *stubVenueResolver, *stubShowResolver, *stubUserShowStore) {
	venueResolver := &stubVenueResolver{}
	showResolver := &stubShowResolver{}
	store := &stubUserShowStore{}
	return New(venueResolver, showResolver, store, venues.DefaultPolicy()), venueResolver, showResolver, store
}

func collectEvents(t *testing.T, svc *Service, userID string, subs []models.ShowSubmission) ([]Event, error) {
	t.Helper()
	var events []Event
	err := svc.Run(context.Background(), userID, subs, func(ev Event) {
		events = append(events, ev)
	})
	return events, err
}

func TestRunEmitsOrderedProgress(t *testing.T) {
	svc, _, _, store := newTestService()

	subs := []models.ShowSubmission{
		submission("u1", "2026-02-13", "The Fillmore", "Phish"),
		submission("u1", "2026-02-14", "The Fillmore", "Phish"),
		submission("u1", "2026-02-15", "Great American Music Hall", "Mdou Moctar"),
	}

	events, err := collectEvents(t, svc, "u1", subs)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(events) != len(subs)+1 {
		t.Fatalf("expected %d events, got %d", len(subs)+1, len(events))
	}
	for i := 0; i < len(subs); i++ {
		ev := events[i]
		if ev.Type != EventProgress {
			t.Fatalf("event %d type = %q", i, ev.Type)
		}
		if ev.CurrentShow != i+1 || ev.TotalShows != len(subs) {
			t.Fatalf("event %d progress = %d/%d", i, ev.CurrentShow, ev.TotalShows)
		}
		if ev.ShowInfo == nil || ev.ShowInfo.Date != subs[i].Date {
			t.Fatalf("event %d show info = %+v", i, ev.ShowInfo)
		}
	}

	last := events[len(events)-1]
	if last.Type != EventComplete {
		t.Fatalf("last event type = %q, want %q", last.Type, EventComplete)
	}
	if !strings.Contains(last.Message, "3") {
		t.Fatalf("complete message = %q", last.Message)
	}
	if store.inserted() != 3 {
		t.Fatalf("inserted = %d, want 3", store.inserted())
	}
}

func TestRunRejectsWholeBatchBeforeAnyWork(t *testing.T) {
	svc, venueResolver, showResolver, store := newTestService()

	longNotes := strings.Repeat("x", maxNotesLength+1)
	bad := submission("u1", "2026-02-14", "The Fillmore", "Phish")
	bad.Notes = &longNotes

	subs := []models.ShowSubmission{
		submission("u1", "2026-02-13", "The Fillmore", "Phish"),
		bad,
		submission("u1", "2026-02-15", "The Fillmore", "Phish"),
	}

	events, err := collectEvents(t, svc, "u1", subs)
	if err == nil {
		t.Fatal("expected validation error")
	}
	if !strings.Contains(err.Error(), "row 2") {
		t.Fatalf("error should name the offending row: %v", err)
	}

	if len(events) != 1 || events[0].Type != EventError {
		t.Fatalf("expected a single error event, got %+v", events)
	}
	if len(venueResolver.calls) != 0 || len(showResolver.calls) != 0 {
		t.Fatal("no resolution work should happen for a rejected batch")
	}
	if store.inserted() != 0 {
		t.Fatalf("inserted = %d, want 0", store.inserted())
	}
}

func TestRunRejectsForeignUserRows(t *testing.T) {
	svc, _, _, store := newTestService()

	subs := []models.ShowSubmission{
		submission("u1", "2026-02-13", "The Fillmore", "Phish"),
		submission("u2", "2026-02-14", "The Fillmore", "Phish"),
	}

	_, err := collectEvents(t, svc, "u1", subs)
	if err == nil {
		t.Fatal("expected ownership error")
	}
	if store.inserted() != 0 {
		t.Fatalf("inserted = %d, want 0", store.inserted())
	}
}

func TestRunRejectsEmptyBatch(t *testing.T) {
	svc, _, _, _ := newTestService()

	events, err := collectEvents(t, svc, "u1", nil)
	if err == nil {
		t.Fatal("expected error for empty batch")
	}
	if len(events) != 1 || events[0].Type != EventError {
		t.Fatalf("expected a single error event, got %+v", events)
	}
}

func TestRunCachesVenueResolutions(t *testing.T) {
	svc, venueResolver, _, _ := newTestService()

	subs := []models.ShowSubmission{
		submission("u1", "2026-02-13", "The Fillmore", "Phish"),
		submission("u1", "2026-02-14", "The Fillmore", "Phish"),
		submission("u1", "2026-02-15", "The Fillmore", "Phish"),
	}

	if _, err := collectEvents(t, svc, "u1", subs); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(venueResolver.calls) != 1 {
		t.Fatalf("expected 1 venue resolution, got %d", len(venueResolver.calls))
	}
}

func TestRunDistinctLocalitiesNotShared(t *testing.T) {
	svc, venueResolver, _, _ := newTestService()

	first := submission("u1", "2026-02-13", "The Fillmore", "Phish")
	second := submission("u1", "2026-02-14", "The Fillmore", "Phish")
	second.City = strPtr("Philadelphia")
	second.State = strPtr("PA")

	if _, err := collectEvents(t, svc, "u1", []models.ShowSubmission{first, second}); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(venueResolver.calls) != 2 {
		t.Fatalf("expected 2 venue resolutions for distinct localities, got %d", len(venueResolver.calls))
	}
}

func TestRunResolvesOneShowPerArtist(t *testing.T) {
	svc, _, showResolver, store := newTestService()

	subs := []models.ShowSubmission{
		submission("u1", "2026-02-13", "The Fillmore", "Phish", "Goose", "Billy Strings"),
	}

	if _, err := collectEvents(t, svc, "u1", subs); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(showResolver.calls) != 3 {
		t.Fatalf("expected 3 central show resolutions, got %d", len(showResolver.calls))
	}
	for i, call := range showResolver.calls {
		if !call.AllowDuplicate {
			t.Fatalf("call %d: bulk imports must permit duplicates", i)
		}
	}
	if store.inserted() != 1 {
		t.Fatalf("inserted = %d, want 1", store.inserted())
	}
	if got := len(store.batches[0][0].CentralShowIDs); got != 3 {
		t.Fatalf("row carries %d central show ids, want 3", got)
	}
}

func TestRunFlushesInBatches(t *testing.T) {
	svc, _, _, store := newTestService()

	var subs []models.ShowSubmission
	for i := 0; i < 23; i++ {
		subs = append(subs, submission("u1", fmt.Sprintf("2026-01-%02d", i+1), "The Fillmore", "Phish"))
	}

	events, err := collectEvents(t, svc, "u1", subs)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(store.batches) != 3 {
		t.Fatalf("expected 3 flushes, got %d", len(store.batches))
	}
	if len(store.batches[0]) != flushSize || len(store.batches[1]) != flushSize || len(store.batches[2]) != 3 {
		t.Fatalf("batch sizes = %d/%d/%d", len(store.batches[0]), len(store.batches[1]), len(store.batches[2]))
	}
	if events[len(events)-1].Type != EventComplete {
		t.Fatal("expected terminal complete event")
	}
}

func TestRunFlushFailureKeepsEarlierBatches(t *testing.T) {
	venueResolver := &stubVenueResolver{}
	showResolver := &stubShowResolver{}
	store := &stubUserShowStore{failFrom: 2}
	svc := New(venueResolver, showResolver, store, venues.DefaultPolicy())

	var subs []models.ShowSubmission
	for i := 0; i < 15; i++ {
		subs = append(subs, submission("u1", fmt.Sprintf("2026-01-%02d", i+1), "The Fillmore", "Phish"))
	}

	events, err := collectEvents(t, svc, "u1", subs)
	if err == nil {
		t.Fatal("expected flush error")
	}
	if store.inserted() != flushSize {
		t.Fatalf("inserted = %d, want %d", store.inserted(), flushSize)
	}
	last := events[len(events)-1]
	if last.Type != EventError {
		t.Fatalf("last event type = %q, want %q", last.Type, EventError)
	}
}

func TestRunSkipsRowWhenVenueResolutionFails(t *testing.T) {
	venueResolver := &stubVenueResolver{results: map[string]venues.Result{
		"Bad Venue": {Status: venues.StatusFailed},
	}}
	showResolver := &stubShowResolver{}
	store := &stubUserShowStore{}
	svc := New(venueResolver, showResolver, store, venues.DefaultPolicy())

	subs := []models.ShowSubmission{
		submission("u1", "2026-02-13", "The Fillmore", "Phish"),
		submission("u1", "2026-02-14", "Bad Venue", "Phish"),
	}

	events, err := collectEvents(t, svc, "u1", subs)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if store.inserted() != 1 {
		t.Fatalf("inserted = %d, want 1", store.inserted())
	}
	// Progress is still reported for the skipped row.
	if events[1].Type != EventProgress || events[1].CurrentShow != 2 {
		t.Fatalf("event 1 = %+v", events[1])
	}
	if events[1].VenueStatus != string(venues.StatusFailed) {
		t.Fatalf("venue status = %q", events[1].VenueStatus)
	}
}

func TestRunCancelledContext(t *testing.T) {
	svc, _, _, store := newTestService()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var events []Event
	err := svc.Run(ctx, "u1", []models.ShowSubmission{
		submission("u1", "2026-02-13", "The Fillmore", "Phish"),
	}, func(ev Event) {
		events = append(events, ev)
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if len(events) != 1 || events[0].Type != EventError {
		t.Fatalf("expected a single error event, got %+v", events)
	}
	if store.inserted() != 0 {
		t.Fatalf("inserted = %d, want 0", store.inserted())
	}
}
