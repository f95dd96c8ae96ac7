package service

import (
	"context"
	"hash/fnv"
	"strings"
	"unicode"
)

// HashEmbedding is a local feature-hashing encoder. Every token of the
// lower-cased text is hashed into one signed bucket; the result is
// L2-normalized. It needs no network and is fully deterministic.
type HashEmbedding struct {
	dimensions int
}

// NewHashEmbedding creates a hashing encoder with the given dimension.
func NewHashEmbedding(dimensions int) *HashEmbedding {
	if dimensions <= 0 {
		dimensions = 768
	}
	return &HashEmbedding{dimensions: dimensions}
}

func (h *HashEmbedding) GetModel() string   { return "feature-hash" }
func (h *HashEmbedding) GetDimensions() int { return h.dimensions }

// EmbedBatch embeds each text independently.
func (h *HashEmbedding) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out[i] = h.vector(t)
	}
	return out, nil
}

// EmbedQuery embeds one query.
func (h *HashEmbedding) EmbedQuery(ctx context.Context, query string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return h.vector(query), nil
}

func (h *HashEmbedding) vector(text string) []float32 {
	v := make([]float32, h.dimensions)
	for _, tok := range hashTokens(text) {
		f := fnv.New64a()
		f.Write([]byte(tok))
		sum := f.Sum64()
		bucket := int(sum % uint64(h.dimensions))
		if sum>>63 == 1 {
			v[bucket]--
		} else {
			v[bucket]++
		}
	}
	return normalizeVector(v)
}

// hashTokens lower-cases text and splits it on anything that is not a
// letter or digit.
func hashTokens(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
