package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"sync"
	"time"
)

// SessionState is the per-process state the fallback upstream forces on us:
// a session cookie obtained from a landing page, plus a request counter for
// operator visibility. It belongs to the fallback adapter alone.
type SessionState struct {
	mu       sync.Mutex
	cookie   string
	obtained time.Time
	requests int
}

// FallbackCatalog speaks the legacy flat-array search API. Every search
// needs the landing cookie; a 403 or 404 means the cookie went stale and is
// refreshed once before giving up.
type FallbackCatalog struct {
	landingURL string
	searchURL  string
	client     *http.Client
	session    SessionState
}

func NewFallbackCatalog(landingURL, searchURL string) *FallbackCatalog {
	return &FallbackCatalog{
		landingURL: landingURL,
		searchURL:  searchURL,
		client:     &http.Client{Timeout: queryTimeout},
	}
}

type fallbackEntry struct {
	IDSubtitleFile  string `json:"IDSubtitleFile"`
	SubDownloadLink string `json:"SubDownloadLink"`
	SubFormat       string `json:"SubFormat"`
	SubLanguageID   string `json:"SubLanguageID"`
	SubDownloadsCnt string `json:"SubDownloadsCnt"`
}

func (c *FallbackCatalog) Search(ctx context.Context, content ContentID) ([]Candidate, error) {
	entries, err := c.query(ctx, content, false)
	if err != nil {
		return nil, err
	}

	out := make([]Candidate, 0, len(entries))
	for _, e := range entries {
		// Only SRT is a canonical input; other container formats are
		// filtered here rather than converted.
		if e.SubFormat != "srt" {
			continue
		}
		downloads, _ := strconv.Atoi(e.SubDownloadsCnt)
		out = append(out, Candidate{
			ID:        e.IDSubtitleFile,
			URL:       e.SubDownloadLink,
			Lang:      e.SubLanguageID,
			Downloads: downloads,
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Downloads > out[j].Downloads
	})
	return out, nil
}

// query performs the search GET, refreshing the session cookie once when
// the upstream rejects it.
func (c *FallbackCatalog) query(ctx context.Context, content ContentID, retried bool) ([]fallbackEntry, error) {
	cookie, err := c.ensureCookie(ctx, retried)
	if err != nil {
		return nil, err
	}

	endpoint := c.searchEndpoint(content)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	if cookie != "" {
		req.Header.Set("Cookie", cookie)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fallback catalog query: %w", err)
	}
	defer resp.Body.Close()

	c.session.mu.Lock()
	c.session.requests++
	c.session.mu.Unlock()

	if resp.StatusCode == http.StatusForbidden || resp.StatusCode == http.StatusNotFound {
		if retried {
			return nil, fmt.Errorf("fallback catalog status %d after cookie refresh", resp.StatusCode)
		}
		return c.query(ctx, content, true)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fallback catalog status %d", resp.StatusCode)
	}

	var entries []fallbackEntry
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		return nil, fmt.Errorf("fallback catalog response: %w", err)
	}
	return entries, nil
}

func (c *FallbackCatalog) searchEndpoint(content ContentID) string {
	endpoint := fmt.Sprintf("%s/imdbid-%s", c.searchURL, content.ID)
	if content.IsEpisode() {
		endpoint = fmt.Sprintf("%s/season-%d/episode-%d", endpoint, content.Season, content.Episode)
	}
	return endpoint
}

// ensureCookie returns the cached session cookie, fetching a fresh one from
// the landing page when absent or when force is set.
func (c *FallbackCatalog) ensureCookie(ctx context.Context, force bool) (string, error) {
	c.session.mu.Lock()
	defer c.session.mu.Unlock()

	if c.session.cookie != "" && !force {
		return c.session.cookie, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.landingURL, nil)
	if err != nil {
		return "", err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fallback landing page: %w", err)
	}
	defer resp.Body.Close()

	var cookie string
	for _, sc := range resp.Header.Values("Set-Cookie") {
		if cookie != "" {
			cookie += "; "
		}
		cookie += cookiePair(sc)
	}
	c.session.cookie = cookie
	c.session.obtained = time.Now()
	return cookie, nil
}

// RefreshSession drops the cached cookie so the next search fetches a new
// one. Wired to a periodic job.
func (c *FallbackCatalog) RefreshSession() {
	c.session.mu.Lock()
	c.session.cookie = ""
	c.session.mu.Unlock()
}

// Requests reports how many search calls hit the upstream so far.
func (c *FallbackCatalog) Requests() int {
	c.session.mu.Lock()
	defer c.session.mu.Unlock()
	return c.session.requests
}

// cookiePair keeps only the name=value part of a Set-Cookie header.
func cookiePair(setCookie string) string {
	for i := 0; i < len(setCookie); i++ {
		if setCookie[i] == ';' {
			return setCookie[:i]
		}
	}
	return setCookie
}
