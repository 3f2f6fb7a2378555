package geocode

import (
	"context"
	"strings"

	"showcount/shared/go/models"
)

// Candidate is one ranked geocoding result for a venue search.
type Candidate struct {
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	PlaceID     string  `json:"place_id"`
	DisplayName string  `json:"display_name"` // Provider-formatted address

	// Address components extracted from the provider response; empty when
	// the provider did not resolve them.
	City    string `json:"city,omitempty"`
	State   string `json:"state,omitempty"`
	Country string `json:"country,omitempty"`

	// PartialMatch is set when the provider flagged the result as an
	// approximate match (commercial provider only).
	PartialMatch bool `json:"partial_match,omitempty"`
}

// Client resolves a venue name plus locality hints into ranked location
// candidates. A provider finding nothing is an empty slice, not an error;
// errors are reserved for transport failures, which callers treat the same
// as no results.
type Client interface {
	Search(ctx context.Context, params models.VenueParams) ([]Candidate, error)
}

// freeTextAddress concatenates the available venue fields into a single
// comma-separated query string.
func freeTextAddress(params models.VenueParams) string {
	parts := []string{params.Name}
	for _, f := range []*string{params.City, params.State, params.Country} {
		if f != nil && *f != "" {
			parts = append(parts, *f)
		}
	}
	return strings.Join(parts, ", ")
}
