package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

const queryTimeout = 10 * time.Second

// PrimaryCatalog speaks the primary upstream's JSON search API. Results
// arrive ordered by descending download count and are used as-is.
type PrimaryCatalog struct {
	baseURL string
	client  *http.Client
}

func NewPrimaryCatalog(baseURL string) *PrimaryCatalog {
	return &PrimaryCatalog{
		baseURL: baseURL,
		client:  &http.Client{Timeout: queryTimeout},
	}
}

type primaryResponse struct {
	Subtitles []struct {
		ID   string `json:"id"`
		URL  string `json:"url"`
		Lang string `json:"lang"`
	} `json:"subtitles"`
}

func (c *PrimaryCatalog) Search(ctx context.Context, content ContentID) ([]Candidate, error) {
	q := url.Values{}
	q.Set("id", content.ID)
	if content.IsEpisode() {
		q.Set("season", strconv.Itoa(content.Season))
		q.Set("episode", strconv.Itoa(content.Episode))
	}

	endpoint := fmt.Sprintf("%s/subtitles?%s", c.baseURL, q.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("primary catalog query: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("primary catalog status %d", resp.StatusCode)
	}

	var body primaryResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("primary catalog response: %w", err)
	}

	out := make([]Candidate, 0, len(body.Subtitles))
	for _, s := range body.Subtitles {
		out = append(out, Candidate{ID: s.ID, URL: s.URL, Lang: s.Lang})
	}
	return out, nil
}
