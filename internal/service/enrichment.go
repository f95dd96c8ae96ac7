package service

import (
	"context"
	"time"

	"github.com/Lukita-it/buscador-semantico/internal/domain"
	"github.com/Lukita-it/buscador-semantico/internal/logger"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

// PosterLookup resolves a poster URL by title.
type PosterLookup interface {
	Poster(ctx context.Context, title string) LookupResult[string]
}

// TrailerLookup resolves a trailer video id by title.
type TrailerLookup interface {
	TrailerID(ctx context.Context, title string) LookupResult[string]
}

// StreamingLookup resolves streaming platforms by title.
type StreamingLookup interface {
	Platforms(ctx context.Context, title string) LookupResult[[]string]
}

// EnrichmentConfig holds configuration for the enrichment service.
type EnrichmentConfig struct {
	Posters     PosterLookup
	Trailers    TrailerLookup
	Streaming   StreamingLookup
	Cache       *TTLCache[any]
	Concurrency int
	// LookupTimeout bounds a shared lookup, which outlives the request
	// that started it.
	LookupTimeout time.Duration
}

// EnrichmentService attaches poster, trailer and streaming data to matches.
// Every lookup is best effort; failures degrade to the no-result values.
type EnrichmentService struct {
	posters     PosterLookup
	trailers    TrailerLookup
	streaming   StreamingLookup
	cache       *TTLCache[any]
	group       singleflight.Group
	concurrency int
	timeout     time.Duration
}

// NewEnrichmentService creates an enrichment service. Nil lookups are skipped.
func NewEnrichmentService(cfg *EnrichmentConfig) *EnrichmentService {
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 4
	}
	timeout := cfg.LookupTimeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &EnrichmentService{
		posters:     cfg.Posters,
		trailers:    cfg.Trailers,
		streaming:   cfg.Streaming,
		cache:       cfg.Cache,
		concurrency: concurrency,
		timeout:     timeout,
	}
}

// Enrich resolves display data for every match, concurrently, keeping order.
func (s *EnrichmentService) Enrich(ctx context.Context, matches []domain.Match) []domain.EnrichedMovie {
	out := make([]domain.EnrichedMovie, len(matches))

	var g errgroup.Group
	g.SetLimit(s.concurrency)
	for i, m := range matches {
		g.Go(func() error {
			out[i] = domain.EnrichedMovie{Match: m, Enrichment: s.enrichOne(ctx, m.Entry)}
			return nil
		})
	}
	g.Wait()

	return out
}

func (s *EnrichmentService) enrichOne(ctx context.Context, entry domain.CatalogEntry) domain.Enrichment {
	var e domain.Enrichment

	if s.posters != nil {
		res := ResolveByTitle(ctx, entry.TitleES, entry.Title, cachedLookup(s, "poster", s.posters.Poster))
		if res.IsFound() {
			e.Poster = &res.Value
		}
		logUnavailable(ctx, "poster", entry, res.Status, res.Err)
	}

	if s.trailers != nil {
		res := ResolveByTitle(ctx, entry.TitleES, entry.Title, cachedLookup(s, "trailer", s.trailers.TrailerID))
		if res.IsFound() {
			e.TrailerID = &res.Value
		}
		logUnavailable(ctx, "trailer", entry, res.Status, res.Err)
	}

	e.WatchOn = []string{domain.NotAvailable}
	if s.streaming != nil {
		// the streaming catalog is indexed by original titles
		res := ResolveByTitle(ctx, entry.Title, entry.TitleES, cachedLookup(s, "streaming", s.streaming.Platforms))
		e.WatchOn = res.ValueOr(e.WatchOn)
		logUnavailable(ctx, "streaming", entry, res.Status, res.Err)
	}

	return e
}

// cachedLookup wraps fn with the TTL cache and singleflight. Unavailable
// outcomes are not cached. The shared call is detached from the caller's
// cancellation so one aborted request does not fail the others waiting on it.
func cachedLookup[T any](s *EnrichmentService, kind string, fn TitleLookupFunc[T]) TitleLookupFunc[T] {
	return func(ctx context.Context, title string) LookupResult[T] {
		key := kind + ":" + title
		if s.cache != nil {
			if v, ok := s.cache.Get(key); ok {
				if res, ok := v.(LookupResult[T]); ok {
					return res
				}
			}
		}

		v, _, _ := s.group.Do(key, func() (interface{}, error) {
			lookupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
			defer cancel()
			res := fn(lookupCtx, title)
			if s.cache != nil && res.Status != LookupUnavailable {
				s.cache.Set(key, res)
			}
			return res, nil
		})
		return v.(LookupResult[T])
	}
}

func logUnavailable(ctx context.Context, kind string, entry domain.CatalogEntry, status LookupStatus, err error) {
	if status != LookupUnavailable {
		return
	}
	logger.With(logger.Fields{
		logger.FieldComponent: "enrichment",
		"kind":                kind,
		"title":               entry.Title,
	}).Warn(ctx, "Enrichment lookup unavailable: %v", err)
}
