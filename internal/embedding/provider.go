// Package embedding turns keyword text into fixed-dimension vectors for
// the similarity search engine. The default provider is a stable
// bag-of-hashed-features representation, not a trained semantic model; it
// exists so the whole Mongo -> Postgres -> Neo4j pipeline runs without any
// ML dependency. An OpenAI-backed provider can be selected by env.
package embedding

import (
	"context"

	"github.com/studyvault/studyvault-backend/internal/platform/envutil"
	"github.com/studyvault/studyvault-backend/internal/platform/logger"
)

const (
	DefaultDim = 256

	ProviderHash   = "hash"
	ProviderOpenAI = "openai"
)

// Provider is the text -> vector contract. Implementations must be
// deterministic for identical text, return a zero vector for empty text,
// and L2-normalize their output.
type Provider interface {
	Name() string
	Dim() int
	Embed(ctx context.Context, text string) ([]float32, error)
}

// NewFromEnv selects the provider via KEYWORD_EMBEDDING_PROVIDER and wraps
// it in the memoizing cache. Dimensionality comes from KEYWORD_EMBED_DIM.
func NewFromEnv(log *logger.Logger) (*Cache, error) {
	dim := envutil.Int("KEYWORD_EMBED_DIM", DefaultDim)

	var p Provider
	switch envutil.Str("KEYWORD_EMBEDDING_PROVIDER", ProviderHash) {
	case ProviderOpenAI:
		op, err := NewOpenAIProvider(log, dim)
		if err != nil {
			return nil, err
		}
		p = op
	default:
		p = NewHashProvider(dim)
	}
	return NewCache(p, defaultCacheSize), nil
}
