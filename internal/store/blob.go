package store

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// BlobStore publishes artifacts to a remote blob endpoint with plain HTTP
// PUTs. The remote serves the files itself; nothing stays local.
type BlobStore struct {
	baseURL string
	client  *http.Client
}

func NewBlobStore(baseURL string) (*BlobStore, error) {
	if strings.TrimSpace(baseURL) == "" {
		return nil, fmt.Errorf("blob base URL is required")
	}
	return &BlobStore{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 30 * time.Second},
	}, nil
}

func (s *BlobStore) Put(ctx context.Context, name string, data []byte) (string, error) {
	target := s.baseURL + "/" + name
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, target, bytes.NewReader(data))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "text/srt; charset=utf-8")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("blob upload: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return "", fmt.Errorf("blob upload status %d", resp.StatusCode)
	}
	return target, nil
}

func (s *BlobStore) Get(context.Context, string) ([]byte, error) {
	return nil, ErrNoLocalCopy
}

func (s *BlobStore) Close() error { return nil }
