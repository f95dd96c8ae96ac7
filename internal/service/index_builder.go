package service

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/Lukita-it/buscador-semantico/internal/config"
	"github.com/Lukita-it/buscador-semantico/internal/domain"
	"github.com/Lukita-it/buscador-semantico/internal/logger"
	"github.com/Lukita-it/buscador-semantico/internal/repository"
	"github.com/Lukita-it/buscador-semantico/internal/source"
	"github.com/google/uuid"
)

// Build stages reported to a BuildObserver.
const (
	StageProviders = "providers"
	StageEncode    = "encode"
)

// BuildObserver receives progress updates. Either func may be nil.
type BuildObserver struct {
	StageStarted func(stage string, total int)
	Advanced     func(stage string, n int)
}

func (o *BuildObserver) start(stage string, total int) {
	if o != nil && o.StageStarted != nil {
		o.StageStarted(stage, total)
	}
}

func (o *BuildObserver) advance(stage string, n int) {
	if o != nil && o.Advanced != nil {
		o.Advanced(stage, n)
	}
}

// IndexBuilderConfig holds configuration for the index builder.
type IndexBuilderConfig struct {
	Data         config.DataConfig
	BatchSize    int
	RequestDelay time.Duration
}

// IndexBuilder runs the offline pipeline that produces the metadata table,
// the embedding matrix and the vector index.
type IndexBuilder struct {
	providers    ProviderLookup
	embedding    EmbeddingProvider
	data         config.DataConfig
	batchSize    int
	requestDelay time.Duration
	sleep        func(ctx context.Context, d time.Duration) error
}

// NewIndexBuilder creates a new index builder.
// Parameters:
//   - providers: external provider lookup used for uncached titles.
//   - embedding: embedding provider for the composite texts.
//   - cfg: data paths, batch size and delay between provider lookups.
//
// Returns:
//   - *IndexBuilder: builder ready to run.
func NewIndexBuilder(providers ProviderLookup, embedding EmbeddingProvider, cfg *IndexBuilderConfig) *IndexBuilder {
	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = DefaultEmbeddingBatchSize
	}
	return &IndexBuilder{
		providers:    providers,
		embedding:    embedding,
		data:         cfg.Data,
		batchSize:    batchSize,
		requestDelay: cfg.RequestDelay,
		sleep:        sleepContext,
	}
}

// BuildStats holds statistics for a build run
type BuildStats struct {
	BuildID        string
	SourceID       string
	Entries        int
	CacheHits      int
	Lookups        int
	LookupFailures int
	Dimensions     int
	StartTime      time.Time
	EndTime        time.Time
}

// Build runs the full pipeline. Per-title provider failures are recorded as
// "No disponible" and never abort the build. The three artifacts are staged
// next to their final paths and only renamed into place once all of them
// were written.
func (b *IndexBuilder) Build(ctx context.Context, obs *BuildObserver) (*BuildStats, error) {
	stats := &BuildStats{BuildID: uuid.New().String(), StartTime: time.Now()}
	ctx = logger.SetBuildID(ctx, stats.BuildID)
	ctx = logger.SetComponent(ctx, "index_builder")

	src, err := source.Resolve(b.data.MetadataPath(), b.data.RawCatalogPath())
	if err != nil {
		return nil, err
	}
	stats.SourceID = src.GetSourceID()
	logger.CtxInfo(ctx, "Loading catalog from %s", src.GetDisplayName())

	table, err := src.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}
	stats.Entries = table.Len()

	cache, err := repository.LoadProviderCache(b.data.ProviderCachePath())
	if err != nil {
		return nil, err
	}

	providers, err := b.resolveProviders(ctx, table, cache, stats, obs)
	if err != nil {
		return nil, err
	}
	if err := table.SetColumn(domain.ColProviders, providers); err != nil {
		return nil, err
	}

	texts := make([]string, table.Len())
	for i := range texts {
		texts[i] = buildEmbeddingText(
			table.Get(i, domain.ColTitleES),
			table.Get(i, domain.ColGenreES),
			table.Get(i, domain.ColDescriptionES),
			providers[i],
		)
	}
	if err := table.SetColumn(domain.ColTextES, texts); err != nil {
		return nil, err
	}

	obs.start(StageEncode, len(texts))
	vectors, err := EmbedBatched(ctx, b.embedding, texts, b.batchSize, func(n int) {
		obs.advance(StageEncode, n)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode catalog: %w", err)
	}
	matrix, err := repository.NewMatrix(vectors)
	if err != nil {
		return nil, err
	}
	if matrix.Rows > 0 {
		stats.Dimensions = matrix.Dim
	} else {
		matrix.Dim = b.embedding.GetDimensions()
		stats.Dimensions = matrix.Dim
	}
	index := repository.NewFlatIndex(matrix)

	if err := b.persist(table, matrix, index); err != nil {
		return nil, err
	}

	stats.EndTime = time.Now()
	logger.With(logger.Fields{
		"source":          stats.SourceID,
		"cache_hits":      stats.CacheHits,
		"lookups":         stats.Lookups,
		"lookup_failures": stats.LookupFailures,
		"dimensions":      stats.Dimensions,
	}).WithCount(stats.Entries).
		WithDuration(stats.EndTime.Sub(stats.StartTime).Milliseconds()).
		Info(ctx, "Index build completed")

	return stats, nil
}

// resolveProviders returns the provider string of every row, querying the
// external lookup only for keys missing from the cache. Each new key is
// persisted before moving on, so an interrupted build resumes where it stopped.
func (b *IndexBuilder) resolveProviders(
	ctx context.Context,
	table *repository.CatalogTable,
	cache *repository.ProviderCache,
	stats *BuildStats,
	obs *BuildObserver,
) ([]string, error) {
	out := make([]string, table.Len())
	obs.start(StageProviders, table.Len())

	for i := range out {
		title := table.Get(i, domain.ColTitle)
		year := table.Get(i, domain.ColYear)
		key := repository.ProviderCacheKey(title, year)

		if v, ok := cache.Get(key); ok {
			out[i] = v
			stats.CacheHits++
			obs.advance(StageProviders, 1)
			continue
		}

		if stats.Lookups > 0 && b.requestDelay > 0 {
			if err := b.sleep(ctx, b.requestDelay); err != nil {
				return nil, err
			}
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		value, ok := b.lookupProviders(ctx, title, year)
		stats.Lookups++
		if !ok {
			stats.LookupFailures++
		}
		if err := cache.Put(key, value); err != nil {
			return nil, fmt.Errorf("failed to persist provider cache: %w", err)
		}
		out[i] = value
		obs.advance(StageProviders, 1)
	}
	return out, nil
}

// lookupProviders resolves one title. ok is false when the lookup failed
// rather than answering.
func (b *IndexBuilder) lookupProviders(ctx context.Context, title, year string) (value string, ok bool) {
	id := b.providers.SearchTitle(ctx, title, year)
	if !id.IsFound() {
		if id.Status == LookupUnavailable {
			logger.CtxWarn(ctx, "Provider search unavailable: title=%q, error=%v", title, id.Err)
		}
		return domain.NotAvailable, id.Status != LookupUnavailable
	}

	names := b.providers.GetProviders(ctx, id.Value)
	if names.Status == LookupUnavailable {
		logger.CtxWarn(ctx, "Provider list unavailable: title=%q, id=%d, error=%v", title, id.Value, names.Err)
		return domain.NotAvailable, false
	}
	return joinProviders(names.Value), true
}

func (b *IndexBuilder) persist(table *repository.CatalogTable, matrix *repository.Matrix, index *repository.FlatIndex) error {
	var staging repository.Staging
	defer staging.Discard()

	if err := staging.Stage(b.data.MetadataPath(), table.Encode); err != nil {
		return fmt.Errorf("failed to write metadata: %w", err)
	}
	if err := staging.Stage(b.data.EmbeddingsPath(), writerToFunc(matrix)); err != nil {
		return fmt.Errorf("failed to write embeddings: %w", err)
	}
	if err := staging.Stage(b.data.IndexPath(), writerToFunc(index)); err != nil {
		return fmt.Errorf("failed to write index: %w", err)
	}
	return staging.Commit()
}

// Reindex rebuilds the vector index from the persisted embedding matrix
// without encoding anything.
func (b *IndexBuilder) Reindex(ctx context.Context) (*BuildStats, error) {
	stats := &BuildStats{BuildID: uuid.New().String(), StartTime: time.Now(), SourceID: "embeddings"}
	ctx = logger.SetBuildID(ctx, stats.BuildID)

	matrix, err := repository.LoadMatrix(b.data.EmbeddingsPath())
	if err != nil {
		return nil, err
	}
	if catalog, err := repository.LoadCatalog(b.data.MetadataPath()); err == nil && catalog.Len() != matrix.Rows {
		return nil, fmt.Errorf("%d metadata rows vs %d embeddings: %w", catalog.Len(), matrix.Rows, domain.ErrArtifactsMisaligned)
	}

	if err := repository.SaveFlatIndex(b.data.IndexPath(), repository.NewFlatIndex(matrix)); err != nil {
		return nil, err
	}

	stats.Entries = matrix.Rows
	stats.Dimensions = matrix.Dim
	stats.EndTime = time.Now()
	logger.With(logger.Fields{"dimensions": stats.Dimensions}).
		WithCount(stats.Entries).
		Info(ctx, "Vector index rebuilt")
	return stats, nil
}

func writerToFunc(wt io.WriterTo) func(io.Writer) error {
	return func(w io.Writer) error {
		_, err := wt.WriteTo(w)
		return err
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
