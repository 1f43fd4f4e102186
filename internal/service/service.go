// Package service drives the per-request pipeline: fetch, decode, verify,
// parse, merge, serialize, publish.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/dualsub/dualsub/internal/catalog"
	"github.com/dualsub/dualsub/internal/codec"
	"github.com/dualsub/dualsub/internal/lang"
	"github.com/dualsub/dualsub/internal/merge"
	"github.com/dualsub/dualsub/internal/metrics"
	"github.com/dualsub/dualsub/internal/persistence"
	"github.com/dualsub/dualsub/internal/store"
	"github.com/dualsub/dualsub/internal/subtitle"
	"github.com/dualsub/dualsub/pkg/log"
)

const (
	// cache TTLs surfaced to the addon host, in seconds
	emptyCacheTTL   = 60
	fullCacheTTL    = 6 * 60 * 60
	staleRevalidate = 24 * 60 * 60
)

// Request asks for dual-language subtitles for one piece of content.
type Request struct {
	Content   catalog.ContentID
	MainLang  string
	TransLang string
}

// Artifact is one published merged subtitle.
type Artifact struct {
	ID   string
	URL  string
	Lang string // "{main}+{trans}"
}

// Result is what the addon surface renders. An empty artifact list still
// carries cache directives.
type Result struct {
	Artifacts       []Artifact
	CacheMaxAge     int
	StaleRevalidate int
}

// Service owns one instance of every pipeline stage plus the upstream
// adapters. All stages are stateless, so a single Service serves
// concurrent requests.
type Service struct {
	primary  catalog.Catalog
	fallback catalog.Catalog
	japanese catalog.Catalog
	fetcher  *catalog.Fetcher

	decoder  *codec.Decoder
	verifier *lang.Verifier

	artifacts store.Store
	meta      *persistence.SQLiteStore
	metrics   *metrics.Metrics

	threshold       time.Duration
	maxTranslations int
	skipVerify      bool

	sf singleflight.Group
}

type Option func(*Service)

// WithFallbackCatalog wires the legacy flat-array upstream.
func WithFallbackCatalog(c catalog.Catalog) Option {
	return func(s *Service) { s.fallback = c }
}

// WithJapaneseCatalog wires the specialist Japanese upstream.
func WithJapaneseCatalog(c catalog.Catalog) Option {
	return func(s *Service) { s.japanese = c }
}

// WithMetrics attaches pipeline instrumentation.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithMetadata attaches the sqlite bookkeeping store that drives artifact
// version numbers.
func WithMetadata(m *persistence.SQLiteStore) Option {
	return func(s *Service) { s.meta = m }
}

// WithoutVerification disables the language gate. Diagnostics only: raw
// decodes flow through unchecked.
func WithoutVerification() Option {
	return func(s *Service) { s.skipVerify = true }
}

// WithMergeThreshold overrides the cue-start proximity threshold.
func WithMergeThreshold(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.threshold = d
		}
	}
}

// WithMaxTranslations caps how many translation artifacts one request may
// produce.
func WithMaxTranslations(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxTranslations = n
		}
	}
}

func New(primary catalog.Catalog, fetcher *catalog.Fetcher, artifacts store.Store, opts ...Option) *Service {
	s := &Service{
		primary:         primary,
		fetcher:         fetcher,
		decoder:         codec.NewDecoder(),
		verifier:        lang.NewVerifier(),
		artifacts:       artifacts,
		threshold:       merge.DefaultThreshold,
		maxTranslations: 4,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Process runs the full pipeline for one request. The Result is always
// usable; a non-nil error explains why the artifact list is empty (or
// shorter than hoped) and carries a typed error kind.
//
// Identical concurrent requests are collapsed into one pipeline run.
func (s *Service) Process(ctx context.Context, req Request) (Result, error) {
	key := fmt.Sprintf("%s|%s|%s", req.Content.Key(), req.MainLang, req.TransLang)
	v, err, _ := s.sf.Do(key, func() (any, error) {
		return s.process(ctx, req)
	})
	res, ok := v.(Result)
	if !ok {
		res = emptyResult()
	}
	return res, err
}

func (s *Service) process(ctx context.Context, req Request) (Result, error) {
	started := time.Now()
	if s.metrics != nil {
		s.metrics.Requests.Inc()
		defer func() {
			s.metrics.RequestDuration.Observe(time.Since(started).Seconds())
		}()
	}

	mainTag := lang.Normalize(req.MainLang)
	transTag := lang.Normalize(req.TransLang)

	if mainTag == transTag {
		return emptyResult(), NewError(ErrSameLanguage, "main and translation language are the same").
			WithContext("lang", mainTag)
	}
	if lang.Skippable(req.MainLang) || lang.Skippable(req.TransLang) {
		return emptyResult(), NewError(ErrSkippedLanguage, "requested language is in the skip set")
	}

	candidates, err := s.listCandidates(ctx, req.Content, mainTag, transTag)
	if err != nil {
		return emptyResult(), err
	}

	mainCands := filterByLang(candidates, mainTag)
	transCands := filterByLang(candidates, transTag)
	log.Debug("candidates for %s: %d main (%s), %d translation (%s)",
		req.Content.Key(), len(mainCands), mainTag, len(transCands), transTag)

	// The two language legs run in parallel; each leg walks its own
	// candidates sequentially in catalog rank order.
	var (
		mainStream subtitle.Stream
		parsed     []parsedCandidate
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var legErr error
		mainStream, legErr = s.firstAccepted(gctx, mainCands, mainTag)
		return legErr
	})
	g.Go(func() error {
		parsed = s.acceptedTranslations(gctx, transCands, transTag)
		return nil
	})
	if err := g.Wait(); err != nil {
		return emptyResult(), err
	}

	artifacts := s.publishMerges(ctx, req, mainTag, transTag, mainStream, parsed)
	if len(artifacts) == 0 {
		return emptyResult(), nil
	}

	if s.metrics != nil {
		s.metrics.ArtifactsProduced.Add(float64(len(artifacts)))
	}
	return Result{
		Artifacts:       artifacts,
		CacheMaxAge:     fullCacheTTL,
		StaleRevalidate: staleRevalidate,
	}, nil
}

// listCandidates queries the primary catalog, falling back to the
// secondary when neither requested language is on offer, and mixing in the
// Japanese specialist when Japanese is requested.
func (s *Service) listCandidates(ctx context.Context, content catalog.ContentID, mainTag, transTag string) ([]catalog.Candidate, error) {
	candidates, primaryErr := s.primary.Search(ctx, content)
	if primaryErr != nil {
		log.Warn("primary catalog failed for %s: %v", content.Key(), primaryErr)
	}

	haveMain := len(filterByLang(candidates, mainTag)) > 0
	haveTrans := len(filterByLang(candidates, transTag)) > 0
	if (primaryErr != nil || (!haveMain && !haveTrans)) && s.fallback != nil {
		fb, err := s.fallback.Search(ctx, content)
		if err != nil {
			log.Warn("fallback catalog failed for %s: %v", content.Key(), err)
			if primaryErr != nil {
				return nil, WrapError(err, ErrUpstreamUnavailable, "both catalogs failed")
			}
		} else {
			candidates = append(candidates, fb...)
		}
	} else if primaryErr != nil && s.fallback == nil {
		return nil, WrapError(primaryErr, ErrUpstreamUnavailable, "primary catalog failed and no fallback is configured")
	}

	if s.japanese != nil && (mainTag == "ja" || transTag == "ja") {
		jp, err := s.japanese.Search(ctx, content)
		if err != nil {
			log.Warn("japanese catalog failed for %s: %v", content.Key(), err)
		} else {
			candidates = append(candidates, jp...)
		}
	}

	if len(candidates) == 0 {
		return nil, NewError(ErrUpstreamUnavailable, "no catalog returned candidates").
			WithContext("content", content.Key())
	}
	return candidates, nil
}

// parsedCandidate is a translation subtitle that survived the
// fetch/decode/verify/parse leg.
type parsedCandidate struct {
	id     string
	url    string
	stream subtitle.Stream
}

// firstAccepted walks candidates in rank order and returns the first one
// that decodes, verifies and parses.
func (s *Service) firstAccepted(ctx context.Context, cands []catalog.Candidate, expect string) (subtitle.Stream, error) {
	for _, cand := range cands {
		stream, err := s.processCandidate(ctx, cand, expect)
		if err != nil {
			s.skipCandidate(cand, err)
			continue
		}
		return stream, nil
	}
	return nil, NewError(ErrNoMainCandidate, "no main-language candidate passed the pipeline").
		WithContext("lang", expect).
		WithContext("candidates", len(cands))
}

// acceptedTranslations collects up to maxTranslations parsed candidates,
// distinct by URL, in catalog order. Failures skip silently.
func (s *Service) acceptedTranslations(ctx context.Context, cands []catalog.Candidate, expect string) []parsedCandidate {
	seen := make(map[string]struct{}, len(cands))
	var out []parsedCandidate
	for _, cand := range cands {
		if len(out) >= s.maxTranslations {
			break
		}
		if _, dup := seen[cand.URL]; dup {
			continue
		}
		seen[cand.URL] = struct{}{}

		stream, err := s.processCandidate(ctx, cand, expect)
		if err != nil {
			s.skipCandidate(cand, err)
			continue
		}
		out = append(out, parsedCandidate{id: cand.ID, url: cand.URL, stream: stream})
	}
	return out
}

// processCandidate runs the fetch, decode, verify, parse leg for one
// candidate.
func (s *Service) processCandidate(ctx context.Context, cand catalog.Candidate, expect string) (subtitle.Stream, error) {
	data, err := s.fetcher.Fetch(ctx, cand.URL)
	if err != nil {
		return nil, WrapError(err, ErrFetch, "candidate download failed")
	}

	text, branch, err := s.decoder.DecodeWithInfo(data, expect)
	if branch != codec.RepairNone && s.metrics != nil {
		s.metrics.DecodeRepairs.WithLabelValues(string(branch)).Inc()
	}
	if err != nil {
		return nil, WrapError(err, ErrDecodeReplacementChars, "candidate did not decode cleanly")
	}

	if !s.skipVerify {
		verdict := s.verifier.Verify(text, expect)
		if !verdict.Accepted() {
			return nil, NewError(ErrLangMismatch, "candidate text is not in the expected language").
				WithContext("expected", expect)
		}
		log.Debug("candidate %s verified as %s for %s", cand.ID, verdict, expect)
	}

	stream, err := subtitle.Parse(text)
	if err != nil {
		return nil, WrapError(err, ErrParseFailure, "candidate is not well-formed SRT")
	}
	return stream, nil
}

// publishMerges merges each accepted translation against the main stream
// and publishes the serialized artifacts.
func (s *Service) publishMerges(ctx context.Context, req Request, mainTag, transTag string, main subtitle.Stream, translations []parsedCandidate) []Artifact {
	var artifacts []Artifact
	for i, tc := range translations {
		merged := merge.Merge(main.Clone(), tc.stream, s.threshold)
		if len(merged) == 0 {
			s.skipCandidate(catalog.Candidate{ID: tc.id, URL: tc.url},
				NewError(ErrEmptyMerge, "merge produced no cues"))
			continue
		}

		srt := subtitle.Serialize(merged)
		name := s.artifactName(ctx, req.Content, mainTag, transTag, i+1)
		url, err := s.artifacts.Put(ctx, name, []byte(srt))
		if err != nil {
			log.Error("publish %s: %v", name, err)
			continue
		}

		if s.meta != nil {
			rec := persistence.ArtifactRecord{
				Name:      name,
				ContentID: req.Content.Key(),
				MainLang:  mainTag,
				TransLang: transTag,
				URL:       url,
				SizeBytes: len(srt),
				CreatedAt: time.Now().UTC(),
			}
			if err := s.meta.RecordArtifact(ctx, rec); err != nil {
				log.Warn("record artifact %s: %v", name, err)
			}
		}

		artifacts = append(artifacts, Artifact{
			ID:   tc.id,
			URL:  url,
			Lang: mainTag + "+" + transTag,
		})
	}
	return artifacts
}

// artifactName builds {content_id}[_S{s}E{e}]_{main}_{trans}_v{n}.srt. The
// version counter lives in sqlite; without a metadata store the version
// falls back to the candidate's ordinal within the request.
func (s *Service) artifactName(ctx context.Context, content catalog.ContentID, mainTag, transTag string, ordinal int) string {
	key := fmt.Sprintf("%s_%s_%s", content.Key(), mainTag, transTag)
	version := ordinal
	if s.meta != nil {
		if v, err := s.meta.NextVersion(ctx, key); err == nil {
			version = v
		} else {
			log.Warn("version counter for %s: %v", key, err)
		}
	}
	return fmt.Sprintf("%s_v%d.srt", key, version)
}

func (s *Service) skipCandidate(cand catalog.Candidate, err error) {
	log.Info("skipping candidate %s: %v", cand.ID, err)
	if s.metrics == nil {
		return
	}
	reason := "other"
	var pe *PipelineError
	if errors.As(err, &pe) {
		reason = pe.Kind.reason()
	}
	s.metrics.CandidatesRejected.WithLabelValues(reason).Inc()
}

func filterByLang(cands []catalog.Candidate, tag string) []catalog.Candidate {
	var out []catalog.Candidate
	for _, c := range cands {
		if lang.SameLanguage(c.Lang, tag) {
			out = append(out, c)
		}
	}
	return out
}

func emptyResult() Result {
	return Result{CacheMaxAge: emptyCacheTTL}
}
