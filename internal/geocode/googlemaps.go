package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog/log"

	"showcount/shared/go/models"
)

const (
	googleGeocodeURL = "https://maps.googleapis.com/maps/api/geocode/json"
	googleTimeout    = 10 * time.Second
)

// ErrMissingAPIKey indicates the commercial geocoder was selected without a
// provisioned key. This is a configuration error and is raised at
// construction, not per call.
var ErrMissingAPIKey = errors.New("google maps api key is not configured")

// GoogleClient looks up venues via the Google Maps Geocoding API, which
// tolerates misspellings and returns best-match candidates.
type GoogleClient struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// NewGoogle creates a Google Maps geocoding client.
func NewGoogle(apiKey string) (*GoogleClient, error) {
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}
	return &GoogleClient{
		apiKey:  apiKey,
		baseURL: googleGeocodeURL,
		httpClient: &http.Client{
			Timeout: googleTimeout,
		},
	}, nil
}

type googleGeocodeResponse struct {
	Status       string               `json:"status"`
	ErrorMessage string               `json:"error_message"`
	Results      []googleGeocodeEntry `json:"results"`
}

type googleGeocodeEntry struct {
	Geometry struct {
		Location struct {
			Lat float64 `json:"lat"`
			Lng float64 `json:"lng"`
		} `json:"location"`
	} `json:"geometry"`
	AddressComponents []googleAddressComponent `json:"address_components"`
	PlaceID           string                   `json:"place_id"`
	FormattedAddress  string                   `json:"formatted_address"`
	PartialMatch      bool                     `json:"partial_match"`
}

type googleAddressComponent struct {
	LongName  string   `json:"long_name"`
	ShortName string   `json:"short_name"`
	Types     []string `json:"types"`
}

// Search geocodes the venue as a single concatenated address string. A
// ZERO_RESULTS status is an empty list; any other non-OK status is logged
// and also treated as empty, matching how callers handle provider trouble.
func (c *GoogleClient) Search(ctx context.Context, params models.VenueParams) ([]Candidate, error) {
	query := url.Values{}
	query.Set("address", freeTextAddress(params))
	query.Set("key", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+query.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("geocoding api error: %s", resp.Status)
	}

	var decoded googleGeocodeResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	if decoded.Status != "OK" && decoded.Status != "ZERO_RESULTS" {
		log.Warn().
			Str("status", decoded.Status).
			Str("message", decoded.ErrorMessage).
			Msg("geocoding api returned non-success status")
		return nil, nil
	}

	candidates := make([]Candidate, 0, len(decoded.Results))
	for _, r := range decoded.Results {
		candidates = append(candidates, Candidate{
			Latitude:     r.Geometry.Location.Lat,
			Longitude:    r.Geometry.Location.Lng,
			PlaceID:      r.PlaceID,
			DisplayName:  r.FormattedAddress,
			City:         extractCity(r.AddressComponents),
			State:        extractState(r.AddressComponents),
			Country:      extractCountry(r.AddressComponents),
			PartialMatch: r.PartialMatch,
		})
	}

	return candidates, nil
}

func extractCity(components []googleAddressComponent) string {
	for _, c := range components {
		if hasType(c, "locality") || hasType(c, "sublocality") {
			return c.LongName
		}
	}
	return ""
}

func extractState(components []googleAddressComponent) string {
	for _, c := range components {
		if hasType(c, "administrative_area_level_1") {
			if c.ShortName != "" {
				return c.ShortName
			}
			return c.LongName
		}
	}
	return ""
}

func extractCountry(components []googleAddressComponent) string {
	for _, c := range components {
		if hasType(c, "country") {
			return c.LongName
		}
	}
	return ""
}

func hasType(c googleAddressComponent, t string) bool {
	for _, ct := range c.Types {
		if ct == t {
			return true
		}
	}
	return false
}
