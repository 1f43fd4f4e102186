package service

import (
	"bytes"
	"compress/gzip"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dualsub/dualsub/internal/catalog"
	"github.com/dualsub/dualsub/internal/persistence"
	"github.com/dualsub/dualsub/internal/subtitle"
)

var englishCues = []string{
	"The evening train was late again, and nobody on the platform seemed surprised.",
	"She kept checking her watch as if time itself owed her an apology.",
	"When the doors finally opened, the crowd moved forward as one.",
	"He found a seat by the window and watched the city lights slide past.",
	"Subtitles by OpenSubtitles.org",
	"Tomorrow, he thought, everything would look different.",
}

var frenchCues = []string{
	"Le train du soir était encore en retard, et personne sur le quai ne semblait surpris.",
	"Elle regardait sa montre comme si le temps lui devait des excuses.",
	"Quand les portes se sont enfin ouvertes, la foule a avancé d'un seul mouvement.",
	"Il a trouvé une place près de la fenêtre et a regardé défiler les lumières de la ville.",
	"Demain, pensa-t-il, tout serait différent.",
}

// buildSRT lays the cues out at four-second intervals, offset to keep the
// two languages overlapping but not identical.
func buildSRT(cues []string, offsetMs int) string {
	var b strings.Builder
	for i, text := range cues {
		start := i*4000 + 1000 + offsetMs
		end := start + 3000
		fmt.Fprintf(&b, "%d\n%s --> %s\n%s\n\n", i+1, srtClock(start), srtClock(end), text)
	}
	return b.String()
}

func srtClock(ms int) string {
	return fmt.Sprintf("%02d:%02d:%02d,%03d", ms/3600000, ms/60000%60, ms/1000%60, ms%1000)
}

// memStore collects published artifacts in memory.
type memStore struct {
	mu    sync.Mutex
	files map[string][]byte
}

func newMemStore() *memStore {
	return &memStore{files: map[string][]byte{}}
}

func (m *memStore) Put(_ context.Context, name string, data []byte) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[name] = data
	return "http://store.local/files/" + name, nil
}

func (m *memStore) Get(_ context.Context, name string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.files[name]
	if !ok {
		return nil, fmt.Errorf("artifact not found")
	}
	return data, nil
}

func (m *memStore) Close() error { return nil }

// testUpstream serves subtitle files plus a primary catalog listing them.
type testUpstream struct {
	files   *httptest.Server
	catalog *httptest.Server
}

func newTestUpstream(t *testing.T, listing func(fileBase string) string, files map[string][]byte) *testUpstream {
	t.Helper()
	filesSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, ok := files[strings.TrimPrefix(r.URL.Path, "/")]
		if !ok {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write(data)
	}))
	t.Cleanup(filesSrv.Close)

	catalogSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(listing(filesSrv.URL)))
	}))
	t.Cleanup(catalogSrv.Close)

	return &testUpstream{files: filesSrv, catalog: catalogSrv}
}

func gzipped(t *testing.T, data []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	_, _ = zw.Write(data)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

var mergedCueShape = regexp.MustCompile(`^[^\n]+(\n<i>[^\n]+</i>)?$`)

func TestProcessProducesMergedArtifacts(t *testing.T) {
	files := map[string][]byte{
		"en1.srt":    []byte(buildSRT(englishCues, 0)),
		"fr1.srt":    []byte(buildSRT(frenchCues, 150)),
		"fr2.srt.gz": gzipped(t, []byte(buildSRT(frenchCues, 300))),
	}
	up := newTestUpstream(t, func(base string) string {
		return fmt.Sprintf(`{"subtitles":[
			{"id":"m1","url":"%s/en1.srt","lang":"eng"},
			{"id":"t1","url":"%s/fr1.srt","lang":"fre"},
			{"id":"t1-dup","url":"%s/fr1.srt","lang":"fra"},
			{"id":"t2","url":"%s/fr2.srt.gz","lang":"fre"}
		]}`, base, base, base, base)
	}, files)

	meta, err := persistence.NewSQLiteStore(filepath.Join(t.TempDir(), "meta.db"))
	require.NoError(t, err)
	defer meta.Close()

	artifacts := newMemStore()
	svc := New(catalog.NewPrimaryCatalog(up.catalog.URL), catalog.NewFetcher(), artifacts,
		WithMetadata(meta))

	result, err := svc.Process(context.Background(), Request{
		Content:   catalog.ContentID{ID: "tt1"},
		MainLang:  "en",
		TransLang: "fre",
	})
	require.NoError(t, err)

	// the duplicate URL collapses: two distinct translation artifacts
	require.Len(t, result.Artifacts, 2)
	assert.Equal(t, 6*60*60, result.CacheMaxAge)
	assert.Equal(t, 24*60*60, result.StaleRevalidate)
	for _, a := range result.Artifacts {
		assert.Equal(t, "en+fr", a.Lang)
	}
	assert.Contains(t, result.Artifacts[0].URL, "tt1_en_fr_v1.srt")
	assert.Contains(t, result.Artifacts[1].URL, "tt1_en_fr_v2.srt")

	data, err := artifacts.Get(context.Background(), "tt1_en_fr_v1.srt")
	require.NoError(t, err)
	merged, err := subtitle.Parse(string(data))
	require.NoError(t, err)

	// the ad cue is scrubbed before merging
	require.Len(t, merged, len(englishCues)-1)
	assert.NotContains(t, string(data), "OpenSubtitles.org")

	assert.Equal(t, englishCues[0]+"\n<i>"+frenchCues[0]+"</i>", merged[0].Text)
	for _, cue := range merged {
		assert.Regexp(t, mergedCueShape, cue.Text)
	}
}

func TestProcessSkipsBrokenMainCandidate(t *testing.T) {
	badMain := "The first candidate arrives as plain prose without any cue structure, " +
		"long enough to pass the language gate but never the parser."
	files := map[string][]byte{
		"bad.srt": []byte(badMain),
		"en1.srt": []byte(buildSRT(englishCues, 0)),
		"fr1.srt": []byte(buildSRT(frenchCues, 150)),
	}
	up := newTestUpstream(t, func(base string) string {
		return fmt.Sprintf(`{"subtitles":[
			{"id":"m-bad","url":"%s/bad.srt","lang":"eng"},
			{"id":"m-good","url":"%s/en1.srt","lang":"eng"},
			{"id":"t1","url":"%s/fr1.srt","lang":"fre"}
		]}`, base, base, base)
	}, files)

	artifacts := newMemStore()
	svc := New(catalog.NewPrimaryCatalog(up.catalog.URL), catalog.NewFetcher(), artifacts)

	result, err := svc.Process(context.Background(), Request{
		Content:   catalog.ContentID{ID: "tt2"},
		MainLang:  "eng",
		TransLang: "fra",
	})
	require.NoError(t, err)
	require.Len(t, result.Artifacts, 1)

	data, err := artifacts.Get(context.Background(), "tt2_en_fr_v1.srt")
	require.NoError(t, err)
	assert.Contains(t, string(data), englishCues[0])
}

func TestProcessSameLanguage(t *testing.T) {
	svc := New(catalog.NewPrimaryCatalog("http://unused.invalid"), catalog.NewFetcher(), newMemStore())

	result, err := svc.Process(context.Background(), Request{
		Content:   catalog.ContentID{ID: "tt3"},
		MainLang:  "fre",
		TransLang: "fra",
	})
	assert.True(t, IsKind(err, ErrSameLanguage))
	assert.Empty(t, result.Artifacts)
	assert.Equal(t, emptyCacheTTL, result.CacheMaxAge)
}

func TestProcessSkippedLanguage(t *testing.T) {
	svc := New(catalog.NewPrimaryCatalog("http://unused.invalid"), catalog.NewFetcher(), newMemStore())

	result, err := svc.Process(context.Background(), Request{
		Content:   catalog.ContentID{ID: "tt4"},
		MainLang:  "mul",
		TransLang: "en",
	})
	assert.True(t, IsKind(err, ErrSkippedLanguage))
	assert.Empty(t, result.Artifacts)
}

func TestProcessNoMainCandidate(t *testing.T) {
	files := map[string][]byte{
		"fr1.srt": []byte(buildSRT(frenchCues, 0)),
	}
	up := newTestUpstream(t, func(base string) string {
		return fmt.Sprintf(`{"subtitles":[{"id":"t1","url":"%s/fr1.srt","lang":"fre"}]}`, base)
	}, files)

	svc := New(catalog.NewPrimaryCatalog(up.catalog.URL), catalog.NewFetcher(), newMemStore())

	result, err := svc.Process(context.Background(), Request{
		Content:   catalog.ContentID{ID: "tt5"},
		MainLang:  "en",
		TransLang: "fr",
	})
	assert.True(t, IsKind(err, ErrNoMainCandidate))
	assert.Empty(t, result.Artifacts)
	assert.Equal(t, emptyCacheTTL, result.CacheMaxAge)
}

func TestProcessFallsBackWhenPrimaryHasNeitherLanguage(t *testing.T) {
	files := map[string][]byte{
		"en1.srt": []byte(buildSRT(englishCues, 0)),
		"fr1.srt": []byte(buildSRT(frenchCues, 150)),
	}
	filesSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, ok := files[strings.TrimPrefix(r.URL.Path, "/")]
		if !ok {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write(data)
	}))
	defer filesSrv.Close()

	primarySrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"subtitles":[]}`))
	}))
	defer primarySrv.Close()

	mux := http.NewServeMux()
	mux.HandleFunc("/landing", func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "session", Value: "ok"})
	})
	mux.HandleFunc("/search/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `[
			{"IDSubtitleFile":"1","SubDownloadLink":"%s/en1.srt","SubFormat":"srt","SubLanguageID":"eng","SubDownloadsCnt":"50"},
			{"IDSubtitleFile":"2","SubDownloadLink":"%s/fr1.srt","SubFormat":"srt","SubLanguageID":"fre","SubDownloadsCnt":"40"}
		]`, filesSrv.URL, filesSrv.URL)
	})
	fallbackSrv := httptest.NewServer(mux)
	defer fallbackSrv.Close()

	artifacts := newMemStore()
	svc := New(catalog.NewPrimaryCatalog(primarySrv.URL), catalog.NewFetcher(), artifacts,
		WithFallbackCatalog(catalog.NewFallbackCatalog(fallbackSrv.URL+"/landing", fallbackSrv.URL+"/search")))

	result, err := svc.Process(context.Background(), Request{
		Content:   catalog.ContentID{ID: "tt6"},
		MainLang:  "en",
		TransLang: "fr",
	})
	require.NoError(t, err)
	assert.Len(t, result.Artifacts, 1)
}
