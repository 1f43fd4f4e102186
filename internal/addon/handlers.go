package addon

import (
	"encoding/json"
	"fmt"
	"html/template"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/dualsub/dualsub/internal/catalog"
	"github.com/dualsub/dualsub/internal/service"
	"github.com/dualsub/dualsub/internal/store"
	"github.com/dualsub/dualsub/pkg/log"
)

// subtitleEntry is one row of the downstream subtitle list.
type subtitleEntry struct {
	ID   string `json:"id"`
	URL  string `json:"url"`
	Lang string `json:"lang"`
}

type subtitleResponse struct {
	Subtitles       []subtitleEntry `json:"subtitles"`
	CacheMaxAge     int             `json:"cacheMaxAge"`
	StaleRevalidate int             `json:"staleRevalidate"`
}

func (s *Server) handleManifest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	writeJSON(w, http.StatusOK, manifest)
}

// handleSubtitles answers /subtitles/{type}/{videoId}.json?main=xx&trans=yy.
// An optional trailing /{extra}.json segment is accepted and ignored.
func (s *Server) handleSubtitles(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	rest := strings.TrimPrefix(r.URL.Path, "/subtitles/")
	parts := strings.SplitN(rest, "/", 3)
	if len(parts) < 2 {
		writeError(w, http.StatusBadRequest, "expected /subtitles/{type}/{videoId}.json")
		return
	}
	videoID := strings.TrimSuffix(parts[1], ".json")

	mainTag := r.URL.Query().Get("main")
	transTag := r.URL.Query().Get("trans")
	if mainTag == "" || transTag == "" {
		writeError(w, http.StatusBadRequest, "main and trans query parameters are required")
		return
	}

	content, err := catalog.ParseContentID(videoID)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	cacheKey := fmt.Sprintf("subs|%s|%s|%s", content.Key(), mainTag, transTag)
	if s.cache != nil {
		if payload, ok := s.cache.Get(cacheKey); ok {
			writeJSONBytes(w, http.StatusOK, payload)
			return
		}
	}

	result, procErr := s.svc.Process(r.Context(), service.Request{
		Content:   content,
		MainLang:  mainTag,
		TransLang: transTag,
	})
	if procErr != nil {
		log.Info("request %s %s+%s surfaced empty: %v", content.Key(), mainTag, transTag, procErr)
	}

	resp := subtitleResponse{
		Subtitles:       make([]subtitleEntry, 0, len(result.Artifacts)),
		CacheMaxAge:     result.CacheMaxAge,
		StaleRevalidate: result.StaleRevalidate,
	}
	for _, a := range result.Artifacts {
		resp.Subtitles = append(resp.Subtitles, subtitleEntry{ID: a.ID, URL: a.URL, Lang: a.Lang})
	}

	payload, err := json.Marshal(resp)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if s.cache != nil && resp.CacheMaxAge > 0 {
		s.cache.Set(cacheKey, payload, time.Duration(resp.CacheMaxAge)*time.Second)
	}
	writeJSONBytes(w, http.StatusOK, payload)
}

// handleFiles serves published artifacts for backends that keep a local
// copy.
func (s *Server) handleFiles(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if s.files == nil {
		http.NotFound(w, r)
		return
	}

	name := path.Base(strings.TrimPrefix(r.URL.Path, "/files/"))
	data, err := s.files.Get(r.Context(), name)
	switch err {
	case nil:
	case store.ErrNotFound, store.ErrNoLocalCopy:
		http.NotFound(w, r)
		return
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	w.Header().Set("Content-Type", "text/srt; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

var configureTmpl = template.Must(template.New("configure").Parse(`<!doctype html>
<html>
<head><title>Dual Subtitles</title></head>
<body>
<h1>Dual Subtitles</h1>
<form method="get" action="/configure">
  <label>Main language <input name="main_language" value="{{.Main}}"></label>
  <label>Translation language <input name="translation_language" value="{{.Trans}}"></label>
  <button type="submit">Save</button>
</form>
{{if .Main}}<p>Subtitle endpoint: <code>/subtitles/{type}/{videoId}.json?main={{.Main}}&amp;trans={{.Trans}}</code></p>{{end}}
</body>
</html>
`))

func (s *Server) handleConfigure(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	data := struct {
		Main  string
		Trans string
	}{
		Main:  r.URL.Query().Get("main_language"),
		Trans: r.URL.Query().Get("translation_language"),
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := configureTmpl.Execute(w, data); err != nil {
		log.Error("render configure page: %v", err)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error("write json response: %v", err)
	}
}

func writeJSONBytes(w http.ResponseWriter, status int, payload []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
