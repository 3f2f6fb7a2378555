package shows

import (
	"fmt"
	"strconv"
	"strings"
)

// Show ids are human-readable slugs of the form
// {YYYY-MM-DD}-{artist-slug}-{venue-uuid}[-{sequence}], e.g.
// 2026-02-13-phish-9f1c...-...-1 for the second same-day show.

// NormalizeArtistName converts an artist name to a kebab-case slug:
// lowercase, runs of non-alphanumeric characters collapsed to a single
// hyphen, no leading or trailing hyphen. Normalizing an already-normalized
// name returns it unchanged.
func NormalizeArtistName(artist string) string {
	lower := strings.ToLower(strings.TrimSpace(artist))

	var b strings.Builder
	pendingHyphen := false
	for _, r := range lower {
		alnum := (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')
		if !alnum {
			pendingHyphen = true
			continue
		}
		if pendingHyphen && b.Len() > 0 {
			b.WriteByte('-')
		}
		pendingHyphen = false
		b.WriteRune(r)
	}
	return b.String()
}

// GenerateShowID derives the show_id slug for a (date, artist, venue)
// triple. The date must already be in YYYY-MM-DD form so parsing can locate
// field boundaries positionally. A positive sequence is appended for the Nth
// record sharing the same base slug; zero or negative means no suffix.
func GenerateShowID(date, artist, venueID string, sequence int) string {
	base := fmt.Sprintf("%s-%s-%s", date, NormalizeArtistName(artist), venueID)
	if sequence > 0 {
		return fmt.Sprintf("%s-%d", base, sequence)
	}
	return base
}

// ParsedShowID holds the components recovered from a show_id slug. Sequence
// is zero when the slug carries no suffix.
type ParsedShowID struct {
	Date       string
	ArtistSlug string
	VenueID    string
	Sequence   int
}

// ParseShowID splits a show_id slug back into its components. It assumes the
// venue identifier is a UUID, i.e. exactly five hyphen-separated segments,
// and that a trailing all-digit segment is a sequence number. Those
// assumptions make it best-effort debugging tooling: an artist slug ending
// in digits can shift the field boundaries, so no correctness-critical path
// may depend on round-tripping through this.
func ParseShowID(showID string) (ParsedShowID, error) {
	parts := strings.Split(showID, "-")
	if len(parts) < 3 {
		return ParsedShowID{}, fmt.Errorf("invalid show_id format: %q", showID)
	}

	parsed := ParsedShowID{
		Date: strings.Join(parts[:3], "-"),
	}

	venueStart := len(parts) - 5
	if last := parts[len(parts)-1]; isAllDigits(last) {
		seq, err := strconv.Atoi(last)
		if err != nil {
			return ParsedShowID{}, fmt.Errorf("invalid sequence in show_id %q: %w", showID, err)
		}
		parsed.Sequence = seq
		venueStart = len(parts) - 6
	}

	if venueStart < 3 {
		return ParsedShowID{}, fmt.Errorf("show_id %q too short for a uuid venue segment", showID)
	}

	parsed.VenueID = strings.Join(parts[venueStart:venueStart+5], "-")
	parsed.ArtistSlug = strings.Join(parts[3:venueStart], "-")
	return parsed, nil
}

func isAllDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
