package models

import "time"

// Venue is a canonical physical location. The tuple (name, city, state,
// country) identifies a venue for lookup purposes, with NULL locality fields
// distinct from empty strings.
type Venue struct {
	ID               string    `json:"id"`
	Name             string    `json:"name"`
	City             *string   `json:"city"`
	State            *string   `json:"state"`
	Country          string    `json:"country"`
	Latitude         *float64  `json:"latitude"`
	Longitude        *float64  `json:"longitude"`
	PlaceID          *string   `json:"place_id"`          // Geocoder place identifier
	FormattedAddress *string   `json:"formatted_address"` // Geocoder display address
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// VenueParams are the caller-supplied fields used to find or create a venue.
// Nil locality fields mean "unspecified", which is not the same as empty.
type VenueParams struct {
	Name    string  `json:"name"`
	City    *string `json:"city,omitempty"`
	State   *string `json:"state,omitempty"`
	Country *string `json:"country,omitempty"`
}
