package catalog

import (
	"context"
	"fmt"
	"strconv"
	"strings"
)

// ContentID identifies a movie or an episode. Season and Episode are zero
// for movies.
type ContentID struct {
	ID      string
	Season  int
	Episode int
}

// ParseContentID splits a Stremio-style video id ("tt0111161" or
// "tt0944947:1:2") into its parts.
func ParseContentID(raw string) (ContentID, error) {
	parts := strings.Split(strings.TrimSpace(raw), ":")
	switch len(parts) {
	case 1:
		if parts[0] == "" {
			return ContentID{}, fmt.Errorf("empty content id")
		}
		return ContentID{ID: parts[0]}, nil
	case 3:
		season, err := strconv.Atoi(parts[1])
		if err != nil {
			return ContentID{}, fmt.Errorf("bad season in %q: %w", raw, err)
		}
		episode, err := strconv.Atoi(parts[2])
		if err != nil {
			return ContentID{}, fmt.Errorf("bad episode in %q: %w", raw, err)
		}
		return ContentID{ID: parts[0], Season: season, Episode: episode}, nil
	default:
		return ContentID{}, fmt.Errorf("unrecognized content id %q", raw)
	}
}

// IsEpisode reports whether the id addresses a series episode.
func (c ContentID) IsEpisode() bool {
	return c.Season > 0 || c.Episode > 0
}

// Key is the id flattened for artifact names and cache keys.
func (c ContentID) Key() string {
	if c.IsEpisode() {
		return fmt.Sprintf("%s_S%dE%d", c.ID, c.Season, c.Episode)
	}
	return c.ID
}

// Candidate is one downloadable subtitle offered by a catalog, in the
// catalog's own ranking order.
type Candidate struct {
	ID        string
	URL       string
	Lang      string // 3-letter code as the catalog reports it
	Downloads int
}

// Catalog lists subtitle candidates for a piece of content.
type Catalog interface {
	Search(ctx context.Context, content ContentID) ([]Candidate, error)
}
