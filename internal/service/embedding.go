package service

import (
	"context"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/Lukita-it/buscador-semantico/internal/config"
	"github.com/go-resty/resty/v2"
)

const (
	jinaEndpoint = "https://api.jina.ai/v1/embeddings"

	// DefaultEmbeddingBatchSize is the build-time encoding batch size.
	DefaultEmbeddingBatchSize = 64
)

// EmbeddingProvider turns text into L2-normalized dense vectors.
// Implementations never fail on empty input text.
type EmbeddingProvider interface {
	// EmbedBatch embeds texts in order, one unit vector per text.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	// EmbedQuery embeds a single search query.
	EmbedQuery(ctx context.Context, query string) ([]float32, error)
	GetModel() string
	GetDimensions() int
}

// NewEmbeddingProvider builds the provider named by cfg.Provider.
func NewEmbeddingProvider(cfg *config.EmbeddingConfig) (EmbeddingProvider, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	switch cfg.Provider {
	case config.ProviderHash:
		return NewHashEmbedding(cfg.Dimensions), nil
	case config.ProviderJina:
		return NewJinaEmbedding(cfg), nil
	case config.ProviderOpenAICompatible:
		return NewOpenAIEmbedding(cfg), nil
	}
	return nil, fmt.Errorf("unknown embedding provider %q", cfg.Provider)
}

// EmbedBatched embeds texts in chunks of batchSize. Chunking never changes
// the vectors produced for a text.
func EmbedBatched(ctx context.Context, p EmbeddingProvider, texts []string, batchSize int, onBatch func(done int)) ([][]float32, error) {
	if batchSize <= 0 {
		batchSize = DefaultEmbeddingBatchSize
	}
	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += batchSize {
		end := start + batchSize
		if end > len(texts) {
			end = len(texts)
		}
		vecs, err := p.EmbedBatch(ctx, texts[start:end])
		if err != nil {
			return nil, fmt.Errorf("embedding batch %d-%d: %w", start, end, err)
		}
		if len(vecs) != end-start {
			return nil, fmt.Errorf("embedding batch %d-%d: got %d vectors", start, end, len(vecs))
		}
		out = append(out, vecs...)
		if onBatch != nil {
			onBatch(end - start)
		}
	}
	return out, nil
}

// normalizeVector scales v to unit length in place. A zero vector becomes the
// first basis vector so every text maps to a valid unit vector.
func normalizeVector(v []float32) []float32 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 || math.IsNaN(sum) || math.IsInf(sum, 0) {
		for i := range v {
			v[i] = 0
		}
		if len(v) > 0 {
			v[0] = 1
		}
		return v
	}
	inv := 1 / math.Sqrt(sum)
	for i, x := range v {
		v[i] = float32(float64(x) * inv)
	}
	return v
}

// EmbeddingLoader constructs the provider once per process. Concurrent
// callers block on the same load and share its result or error.
type EmbeddingLoader struct {
	once     sync.Once
	factory  func() (EmbeddingProvider, error)
	provider EmbeddingProvider
	err      error
}

// NewEmbeddingLoader creates a loader for cfg.
func NewEmbeddingLoader(cfg *config.EmbeddingConfig) *EmbeddingLoader {
	return NewEmbeddingLoaderFunc(func() (EmbeddingProvider, error) {
		return NewEmbeddingProvider(cfg)
	})
}

// NewEmbeddingLoaderFunc creates a loader around an arbitrary factory.
func NewEmbeddingLoaderFunc(factory func() (EmbeddingProvider, error)) *EmbeddingLoader {
	return &EmbeddingLoader{factory: factory}
}

// Load returns the memoized provider.
func (l *EmbeddingLoader) Load() (EmbeddingProvider, error) {
	l.once.Do(func() {
		l.provider, l.err = l.factory()
	})
	return l.provider, l.err
}

// JinaEmbedding calls the Jina embeddings API.
//
// Queries are embedded with the retrieval.query task and catalog texts with
// retrieval.passage, so unlike the other providers EmbedQuery(x) is not
// EmbedBatch([x])[0]. Both sides of an index must come from this provider.
type JinaEmbedding struct {
	client     *resty.Client
	endpoint   string
	model      string
	dimensions int
}

// NewJinaEmbedding creates a Jina client.
func NewJinaEmbedding(cfg *config.EmbeddingConfig) *JinaEmbedding {
	client := resty.New()
	client.SetHeader("Authorization", "Bearer "+cfg.APIKey)
	client.SetHeader("Content-Type", "application/json")
	client.SetTimeout(60 * time.Second)

	endpoint := jinaEndpoint
	if cfg.BaseURL != "" {
		endpoint = strings.TrimRight(cfg.BaseURL, "/") + "/embeddings"
	}

	return &JinaEmbedding{
		client:     client,
		endpoint:   endpoint,
		model:      cfg.Model,
		dimensions: cfg.Dimensions,
	}
}

// GetModel returns the model name being used
func (s *JinaEmbedding) GetModel() string { return s.model }

// GetDimensions returns the vector dimension
func (s *JinaEmbedding) GetDimensions() int { return s.dimensions }

type jinaRequest struct {
	Model         string   `json:"model"`
	Task          string   `json:"task,omitempty"`
	Dimensions    int      `json:"dimensions,omitempty"`
	Input         []string `json:"input"`
	EmbeddingType string   `json:"embedding_type,omitempty"`
}

type embeddingResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
		Index     int       `json:"index"`
	} `json:"data"`
	Detail string `json:"detail,omitempty"`
	Error  *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func (r *embeddingResponse) errorMessage() string {
	if r.Detail != "" {
		return r.Detail
	}
	if r.Error != nil {
		return r.Error.Message
	}
	return ""
}

// EmbedBatch generates embeddings for catalog texts
func (s *JinaEmbedding) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	return s.embed(ctx, "retrieval.passage", texts)
}

// EmbedQuery generates an embedding optimized for query/search
func (s *JinaEmbedding) EmbedQuery(ctx context.Context, query string) ([]float32, error) {
	vecs, err := s.embed(ctx, "retrieval.query", []string{query})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

func (s *JinaEmbedding) embed(ctx context.Context, task string, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	req := jinaRequest{
		Model:         s.model,
		Task:          task,
		Dimensions:    s.dimensions,
		Input:         texts,
		EmbeddingType: "float",
	}
	return postEmbeddings(ctx, s.client, s.endpoint, "Jina", req, len(texts), s.dimensions)
}

// OpenAIEmbedding calls an OpenAI-compatible /embeddings endpoint, such as a
// text-embeddings-inference or Ollama gateway serving a sentence-transformers model.
type OpenAIEmbedding struct {
	client     *resty.Client
	endpoint   string
	model      string
	dimensions int
}

// NewOpenAIEmbedding creates an OpenAI-compatible client.
func NewOpenAIEmbedding(cfg *config.EmbeddingConfig) *OpenAIEmbedding {
	client := resty.New()
	if cfg.APIKey != "" {
		client.SetHeader("Authorization", "Bearer "+cfg.APIKey)
	}
	client.SetHeader("Content-Type", "application/json")
	client.SetTimeout(60 * time.Second)

	return &OpenAIEmbedding{
		client:     client,
		endpoint:   strings.TrimRight(cfg.BaseURL, "/") + "/embeddings",
		model:      cfg.Model,
		dimensions: cfg.Dimensions,
	}
}

// GetModel returns the model name being used
func (s *OpenAIEmbedding) GetModel() string { return s.model }

// GetDimensions returns the vector dimension
func (s *OpenAIEmbedding) GetDimensions() int { return s.dimensions }

type openAIEmbeddingRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

// EmbedBatch generates embeddings for multiple texts
func (s *OpenAIEmbedding) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}
	req := openAIEmbeddingRequest{Model: s.model, Input: texts}
	return postEmbeddings(ctx, s.client, s.endpoint, "embedding", req, len(texts), s.dimensions)
}

// EmbedQuery generates an embedding for a single query
func (s *OpenAIEmbedding) EmbedQuery(ctx context.Context, query string) ([]float32, error) {
	vecs, err := s.EmbedBatch(ctx, []string{query})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

// postEmbeddings sends an embeddings request and returns normalized vectors
// ordered by their response index.
func postEmbeddings(ctx context.Context, client *resty.Client, endpoint, name string, body interface{}, n, dim int) ([][]float32, error) {
	var resp embeddingResponse
	httpResp, err := client.R().
		SetContext(ctx).
		SetBody(body).
		SetResult(&resp).
		SetError(&resp).
		Post(endpoint)

	if err != nil {
		return nil, fmt.Errorf("failed to call %s API: %w", name, err)
	}

	if httpResp.StatusCode() != 200 {
		if msg := resp.errorMessage(); msg != "" {
			return nil, fmt.Errorf("%s API error: %s", name, msg)
		}
		return nil, fmt.Errorf("%s API error: status %d", name, httpResp.StatusCode())
	}

	if len(resp.Data) != n {
		return nil, fmt.Errorf("unexpected number of embeddings: got %d, expected %d", len(resp.Data), n)
	}

	embeddings := make([][]float32, n)
	for _, item := range resp.Data {
		if item.Index < 0 || item.Index >= n {
			return nil, fmt.Errorf("embedding index %d out of range", item.Index)
		}
		if dim > 0 && len(item.Embedding) != dim {
			return nil, fmt.Errorf("embedding has %d dimensions, expected %d", len(item.Embedding), dim)
		}
		embeddings[item.Index] = normalizeVector(item.Embedding)
	}
	for i, e := range embeddings {
		if e == nil {
			return nil, fmt.Errorf("missing embedding for input %d", i)
		}
	}

	return embeddings, nil
}
