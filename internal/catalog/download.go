package catalog

import (
	"bytes"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	downloadTimeout = 15 * time.Second
	maxSubtitleSize = 5 << 20
)

var gzipMagic = []byte{0x1F, 0x8B}

// Fetcher downloads subtitle bytes, transparently undoing gzip wrapping.
type Fetcher struct {
	client *http.Client
}

func NewFetcher() *Fetcher {
	return &Fetcher{client: &http.Client{Timeout: downloadTimeout}}
}

// Fetch GETs the subtitle at url. Payloads over the size cap are rejected;
// gzip is detected by the .gz suffix or the stream's magic bytes.
func (f *Fetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("subtitle download: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("subtitle download status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxSubtitleSize+1))
	if err != nil {
		return nil, fmt.Errorf("subtitle download body: %w", err)
	}
	if len(data) > maxSubtitleSize {
		return nil, fmt.Errorf("subtitle exceeds %d bytes", maxSubtitleSize)
	}

	if strings.HasSuffix(strings.ToLower(url), ".gz") || bytes.HasPrefix(data, gzipMagic) {
		return gunzip(data)
	}
	return data, nil
}

func gunzip(data []byte) ([]byte, error) {
	zr, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("gzip header: %w", err)
	}
	defer zr.Close()

	out, err := io.ReadAll(io.LimitReader(zr, maxSubtitleSize+1))
	if err != nil {
		return nil, fmt.Errorf("gunzip: %w", err)
	}
	if len(out) > maxSubtitleSize {
		return nil, fmt.Errorf("subtitle exceeds %d bytes after gunzip", maxSubtitleSize)
	}
	return out, nil
}
