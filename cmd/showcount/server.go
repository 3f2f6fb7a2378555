package main

import (
	"net/http"
	"strings"

	"showcount/internal/app/shows"
	"showcount/internal/app/upload"
	"showcount/internal/app/venues"
	"showcount/internal/geocode"
	"showcount/internal/httpapi"
	"showcount/internal/store"
)

func newHTTPHandler(cfg Config, dataStore *store.Store) (http.Handler, error) {
	geocoder, err := newGeocoder(cfg)
	if err != nil {
		return nil, err
	}

	policy := venues.DefaultPolicy()

	venueSvc := venues.New(dataStore, geocoder, policy)
	showSvc := shows.New(dataStore)
	uploadSvc := upload.New(venueSvc, showSvc, dataStore, policy)

	api := httpapi.New(venueSvc, showSvc, uploadSvc, dataStore, []byte(cfg.JWTSecret))
	return withCORS(cfg.AllowedOrigins, api.Routes()), nil
}

func newGeocoder(cfg Config) (geocode.Client, error) {
	if cfg.Geocoder == "google" {
		return geocode.NewGoogle(cfg.GoogleMapsAPIKey)
	}
	return geocode.NewNominatim(cfg.NominatimUserAgent), nil
}

func withCORS(allowedOrigins []string, next http.Handler) http.Handler {
	originAllowed := func(origin string) bool {
		if len(allowedOrigins) == 0 || origin == "" {
			return false
		}
		for _, o := range allowedOrigins {
			if strings.EqualFold(o, origin) {
				return true
			}
		}
		return false
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if originAllowed(origin) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Vary", "Origin")
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Accept, Content-Type, Authorization")
			w.Header().Set("Access-Control-Max-Age", "3600")
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}
