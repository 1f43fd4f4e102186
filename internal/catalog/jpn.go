package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
)

// JapaneseCatalog queries the specialist Japanese upstream. It only ever
// returns Japanese entries, so its results are merged into the main
// listing by language field.
type JapaneseCatalog struct {
	baseURL string
	client  *http.Client
}

func NewJapaneseCatalog(baseURL string) *JapaneseCatalog {
	return &JapaneseCatalog{
		baseURL: baseURL,
		client:  &http.Client{Timeout: queryTimeout},
	}
}

type japaneseResponse struct {
	Entries []struct {
		ID  string `json:"id"`
		URL string `json:"url"`
	} `json:"entries"`
}

func (c *JapaneseCatalog) Search(ctx context.Context, content ContentID) ([]Candidate, error) {
	q := url.Values{}
	q.Set("id", content.ID)
	if content.IsEpisode() {
		q.Set("season", strconv.Itoa(content.Season))
		q.Set("episode", strconv.Itoa(content.Episode))
	}

	endpoint := fmt.Sprintf("%s/search?%s", c.baseURL, q.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("japanese catalog query: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("japanese catalog status %d", resp.StatusCode)
	}

	var body japaneseResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("japanese catalog response: %w", err)
	}

	out := make([]Candidate, 0, len(body.Entries))
	for _, e := range body.Entries {
		out = append(out, Candidate{ID: e.ID, URL: e.URL, Lang: "jpn"})
	}
	return out, nil
}
