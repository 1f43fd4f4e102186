package store

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStorePutGet(t *testing.T) {
	dir := t.TempDir()
	s, err := NewLocalStore(dir, "http://addon.example/")
	require.NoError(t, err)
	defer s.Close()

	url, err := s.Put(context.Background(), "tt1_en_fr_v1.srt", []byte("1\n00:00:01,000 --> 00:00:02,000\nHi\n"))
	require.NoError(t, err)
	assert.Equal(t, "http://addon.example/files/tt1_en_fr_v1.srt", url)

	data, err := s.Get(context.Background(), "tt1_en_fr_v1.srt")
	require.NoError(t, err)
	assert.Contains(t, string(data), "00:00:01,000")

	// no stray temp files after publish
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "tt1_en_fr_v1.srt", entries[0].Name())

	_, err = s.Get(context.Background(), "missing.srt")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLocalStoreGetIgnoresPathTraversal(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "safe.srt"), []byte("x"), 0o644))
	s, err := NewLocalStore(dir, "http://addon.example")
	require.NoError(t, err)

	data, err := s.Get(context.Background(), "../safe.srt")
	require.NoError(t, err)
	assert.Equal(t, "x", string(data))
}

func TestBadgerStorePutGet(t *testing.T) {
	s, err := NewBadgerStore(t.TempDir(), "http://addon.example")
	require.NoError(t, err)
	defer s.Close()

	url, err := s.Put(context.Background(), "tt2_en_de_v1.srt", []byte("payload"))
	require.NoError(t, err)
	assert.Equal(t, "http://addon.example/files/tt2_en_de_v1.srt", url)

	data, err := s.Get(context.Background(), "tt2_en_de_v1.srt")
	require.NoError(t, err)
	assert.Equal(t, "payload", string(data))

	_, err = s.Get(context.Background(), "absent.srt")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestBlobStorePut(t *testing.T) {
	var gotPath, gotBody, gotType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPut, r.Method)
		gotPath = r.URL.Path
		gotType = r.Header.Get("Content-Type")
		body, _ := io.ReadAll(r.Body)
		gotBody = string(body)
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	s, err := NewBlobStore(srv.URL + "/subs")
	require.NoError(t, err)

	url, err := s.Put(context.Background(), "tt3_en_es_v1.srt", []byte("srt body"))
	require.NoError(t, err)
	assert.Equal(t, srv.URL+"/subs/tt3_en_es_v1.srt", url)
	assert.Equal(t, "/subs/tt3_en_es_v1.srt", gotPath)
	assert.Equal(t, "srt body", gotBody)
	assert.Equal(t, "text/srt; charset=utf-8", gotType)

	_, err = s.Get(context.Background(), "tt3_en_es_v1.srt")
	assert.ErrorIs(t, err, ErrNoLocalCopy)
}
