package models

import "time"

// CentralShow is a canonical event: one artist playing one venue on one date.
// The artist is stored exactly as submitted; only the show_id slug uses the
// normalized form.
type CentralShow struct {
	ID        string    `json:"id"`
	ShowID    string    `json:"show_id"` // Human-readable slug
	Date      string    `json:"date"`    // Calendar date, YYYY-MM-DD
	Artist    string    `json:"artist"`
	VenueID   string    `json:"venue_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CentralShowWithVenue includes the resolved venue.
type CentralShowWithVenue struct {
	CentralShow
	Venue *Venue `json:"venue"`
}

// UserShow is one user's attendance record. A single record can cover a
// multi-artist bill, referencing one central show per artist in billing
// order.
type UserShow struct {
	ID             string    `json:"id"`
	UserID         string    `json:"user_id"`
	CentralShowIDs []string  `json:"central_show_ids"`
	Notes          *string   `json:"notes,omitempty"`
	Rating         *string   `json:"rating,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// ShowSubmission is one row of a show upload: a date, the artists on the
// bill, and free-text venue fields awaiting resolution.
type ShowSubmission struct {
	UserID  string   `json:"user_id"`
	Date    string   `json:"date"`
	Artists []string `json:"artists"`
	Venue   *string  `json:"venue,omitempty"`
	City    *string  `json:"city,omitempty"`
	State   *string  `json:"state,omitempty"`
	Country *string  `json:"country,omitempty"`
	Notes   *string  `json:"notes,omitempty"`
	Rating  *string  `json:"rating,omitempty"`
}
