package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaults(t *testing.T) {
	t.Setenv("PRIMARY_CATALOG_URL", "http://catalog.example")

	cfg, err := New()
	require.NoError(t, err)
	assert.Equal(t, ":7070", cfg.Server.ListenAddr)
	assert.Equal(t, "local", cfg.Storage.Backend)
	assert.Equal(t, 500, cfg.Pipeline.MergeThresholdMs)
	assert.Equal(t, 4, cfg.Pipeline.MaxTranslationCandidates)
}

func TestNewOverrides(t *testing.T) {
	t.Setenv("PRIMARY_CATALOG_URL", "http://catalog.example")
	t.Setenv("MERGE_THRESHOLD_MS", "750")
	t.Setenv("MAX_TRANSLATION_CANDIDATES", "2")
	t.Setenv("STORAGE_BACKEND", "badger")

	cfg, err := New()
	require.NoError(t, err)
	assert.Equal(t, 750, cfg.Pipeline.MergeThresholdMs)
	assert.Equal(t, 2, cfg.Pipeline.MaxTranslationCandidates)
	assert.Equal(t, "badger", cfg.Storage.Backend)
}

func TestNewRequiresPrimaryURL(t *testing.T) {
	t.Setenv("PRIMARY_CATALOG_URL", "")

	_, err := New()
	assert.Error(t, err)
}

func TestNewRejectsUnknownBackend(t *testing.T) {
	t.Setenv("PRIMARY_CATALOG_URL", "http://catalog.example")
	t.Setenv("STORAGE_BACKEND", "s3")

	_, err := New()
	assert.Error(t, err)
}

func TestNewBlobBackendNeedsURL(t *testing.T) {
	t.Setenv("PRIMARY_CATALOG_URL", "http://catalog.example")
	t.Setenv("STORAGE_BACKEND", "blob")

	_, err := New()
	assert.Error(t, err)

	t.Setenv("BLOB_BASE_URL", "http://blobs.example/subs")
	cfg, err := New()
	require.NoError(t, err)
	assert.Equal(t, "blob", cfg.Storage.Backend)
}
