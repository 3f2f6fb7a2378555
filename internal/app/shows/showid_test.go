package shows

import (
	"strings"
	"testing"
)

func TestNormalizeArtistName(t *testing.T) {
	tests := []struct {
		name   string
		artist string
		want   string
	}{
		{name: "simple", artist: "Phish", want: "phish"},
		{name: "spaces", artist: "The Rolling Stones", want: "the-rolling-stones"},
		{name: "punctuation collapses", artist: "AC/DC", want: "ac-dc"},
		{name: "ampersand and commas", artist: "Emerson, Lake & Palmer", want: "emerson-lake-palmer"},
		{name: "leading and trailing junk", artist: "  !!Sigur Rós!!  ", want: "sigur-r-s"},
		{name: "consecutive separators", artist: "Godspeed You! Black Emperor", want: "godspeed-you-black-emperor"},
		{name: "digits kept", artist: "Blink-182", want: "blink-182"},
		{name: "empty", artist: "", want: ""},
		{name: "only punctuation", artist: "!!!", want: ""},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			got := NormalizeArtistName(tc.artist)
			if got != tc.want {
				t.Fatalf("NormalizeArtistName(%q) = %q, want %q", tc.artist, got, tc.want)
			}
		})
	}
}

func TestNormalizeArtistNameIdempotent(t *testing.T) {
	inputs := []string{"Phish", "AC/DC", "Emerson, Lake & Palmer", "Blink-182", "mewithoutYou"}
	for _, in := range inputs {
		once := NormalizeArtistName(in)
		twice := NormalizeArtistName(once)
		if once != twice {
			t.Fatalf("normalization not idempotent for %q: %q != %q", in, once, twice)
		}
	}
}

func TestGenerateShowID(t *testing.T) {
	const venueID = "9f1c2a3b-4d5e-6f70-8192-a3b4c5d6e7f8"

	base := GenerateShowID("2026-02-13", "Phish", venueID, 0)
	want := "2026-02-13-phish-" + venueID
	if base != want {
		t.Fatalf("base id = %q, want %q", base, want)
	}

	suffixed := GenerateShowID("2026-02-13", "Phish", venueID, 2)
	if suffixed != want+"-2" {
		t.Fatalf("suffixed id = %q, want %q", suffixed, want+"-2")
	}

	if got := GenerateShowID("2026-02-13", "Phish", venueID, -1); got != want {
		t.Fatalf("negative sequence should not suffix, got %q", got)
	}
}

func TestGenerateShowIDDistinctSequences(t *testing.T) {
	const venueID = "9f1c2a3b-4d5e-6f70-8192-a3b4c5d6e7f8"

	seen := make(map[string]bool)
	for seq := 0; seq < 5; seq++ {
		id := GenerateShowID("2026-02-13", "Phish", venueID, seq)
		if seen[id] {
			t.Fatalf("duplicate id %q at sequence %d", id, seq)
		}
		seen[id] = true
		if !strings.HasPrefix(id, "2026-02-13-phish-"+venueID) {
			t.Fatalf("id %q lost the base prefix", id)
		}
	}
}

func TestParseShowID(t *testing.T) {
	const venueID = "9f1c2a3b-4d5e-6f70-8192-a3b4c5d6e7f8"

	tests := []struct {
		name    string
		showID  string
		want    ParsedShowID
		wantErr bool
	}{
		{
			name:   "base slug",
			showID: "2026-02-13-phish-" + venueID,
			want: ParsedShowID{
				Date:       "2026-02-13",
				ArtistSlug: "phish",
				VenueID:    venueID,
			},
		},
		{
			name:   "multi word artist",
			showID: "2026-02-13-the-rolling-stones-" + venueID,
			want: ParsedShowID{
				Date:       "2026-02-13",
				ArtistSlug: "the-rolling-stones",
				VenueID:    venueID,
			},
		},
		{
			name:   "sequence suffix",
			showID: "2026-02-13-phish-" + venueID + "-1",
			want: ParsedShowID{
				Date:       "2026-02-13",
				ArtistSlug: "phish",
				VenueID:    venueID,
				Sequence:   1,
			},
		},
		{
			name:    "too few parts",
			showID:  "2026-02",
			wantErr: true,
		},
		{
			name:    "no room for venue",
			showID:  "2026-02-13-phish",
			wantErr: true,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseShowID(tc.showID)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q", tc.showID)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseShowID(%q): %v", tc.showID, err)
			}
			if got != tc.want {
				t.Fatalf("ParseShowID(%q) = %+v, want %+v", tc.showID, got, tc.want)
			}
		})
	}
}

func TestParseShowIDRoundTrip(t *testing.T) {
	const venueID = "9f1c2a3b-4d5e-6f70-8192-a3b4c5d6e7f8"

	for seq := 0; seq < 3; seq++ {
		id := GenerateShowID("2025-11-01", "Godspeed You! Black Emperor", venueID, seq)
		parsed, err := ParseShowID(id)
		if err != nil {
			t.Fatalf("ParseShowID(%q): %v", id, err)
		}
		if parsed.Date != "2025-11-01" {
			t.Fatalf("date = %q", parsed.Date)
		}
		if parsed.ArtistSlug != "godspeed-you-black-emperor" {
			t.Fatalf("artist slug = %q", parsed.ArtistSlug)
		}
		if parsed.VenueID != venueID {
			t.Fatalf("venue id = %q", parsed.VenueID)
		}
		if parsed.Sequence != seq {
			t.Fatalf("sequence = %d, want %d", parsed.Sequence, seq)
		}
	}
}
