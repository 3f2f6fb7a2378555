package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"showcount/shared/go/models"
)

const (
	nominatimBaseURL = "https://nominatim.openstreetmap.org/search"
	nominatimTimeout = 5 * time.Second
)

// nominatimLimiter enforces the Nominatim usage policy of at most one
// request per second. The limit is per process, not per venue or per
// request: every client created with the default limiter serializes through
// it, because exceeding the limit risks the whole process being blocked by
// the provider.
var nominatimLimiter = rate.NewLimiter(rate.Every(time.Second), 1)

// NominatimClient looks up venues via the OpenStreetMap Nominatim API.
type NominatimClient struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewNominatim creates a Nominatim client. The userAgent must describe the
// calling application; Nominatim rejects anonymous clients.
func NewNominatim(userAgent string) *NominatimClient {
	return &NominatimClient{
		baseURL:   nominatimBaseURL,
		userAgent: userAgent,
		httpClient: &http.Client{
			Timeout: nominatimTimeout,
		},
		limiter: nominatimLimiter,
	}
}

type nominatimResult struct {
	PlaceID     json.Number       `json:"place_id"`
	Lat         string            `json:"lat"`
	Lon         string            `json:"lon"`
	DisplayName string            `json:"display_name"`
	Address     *nominatimAddress `json:"address"`
}

type nominatimAddress struct {
	City    string `json:"city"`
	Town    string `json:"town"`
	Village string `json:"village"`
	State   string `json:"state"`
	Country string `json:"country"`
}

// Search queries Nominatim for the venue, waiting on the shared rate gate
// before the request goes out. An empty result list means the venue was not
// found; errors indicate transport or decoding failures.
func (c *NominatimClient) Search(ctx context.Context, params models.VenueParams) ([]Candidate, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	query := url.Values{}
	query.Set("q", freeTextAddress(params))
	query.Set("format", "json")
	query.Set("addressdetails", "1")
	query.Set("limit", "5")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+query.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("nominatim api error: %s", resp.Status)
	}

	var results []nominatimResult
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	candidates := make([]Candidate, 0, len(results))
	for _, r := range results {
		lat, latErr := strconv.ParseFloat(r.Lat, 64)
		lon, lonErr := strconv.ParseFloat(r.Lon, 64)
		if latErr != nil || lonErr != nil {
			continue
		}
		candidates = append(candidates, Candidate{
			Latitude:    lat,
			Longitude:   lon,
			PlaceID:     r.PlaceID.String(),
			DisplayName: r.DisplayName,
			City:        r.Address.city(),
			State:       r.Address.state(),
			Country:     r.Address.country(),
		})
	}

	return candidates, nil
}

// city prefers the most specific locality field Nominatim provides.
func (a *nominatimAddress) city() string {
	if a == nil {
		return ""
	}
	if a.City != "" {
		return a.City
	}
	if a.Town != "" {
		return a.Town
	}
	return a.Village
}

func (a *nominatimAddress) state() string {
	if a == nil {
		return ""
	}
	return a.State
}

func (a *nominatimAddress) country() string {
	if a == nil {
		return ""
	}
	return a.Country
}
