package embedder

import (
	"fmt"
	"strings"
	"time"

	"github.com/askdocs/askdocs/internal/config"
)

// NewFromConfig builds the embedding service described by cfg:
// an explicit provider when EMBEDDING_PROVIDER is set, otherwise the
// first provider with an API key available, otherwise the offline local
// provider.
func NewFromConfig(cfg *config.Config) (*Service, error) {
	cache := NewCache(cfg.EmbeddingCacheSize, time.Duration(cfg.EmbeddingCacheTTL)*time.Second)

	provider, err := newProvider(cfg)
	if err != nil {
		return nil, err
	}
	return NewService(provider, cache), nil
}

func newProvider(cfg *config.Config) (Provider, error) {
	switch strings.ToLower(cfg.EmbeddingProvider) {
	case ProviderOpenAI:
		return NewOpenAIProvider(cfg.OpenAIAPIKey, cfg.EmbeddingModel)
	case ProviderJina:
		return NewJinaProvider(cfg.JinaAPIKey, cfg.EmbeddingModel)
	case ProviderLocal:
		return NewLocalProvider(cfg.EmbeddingDim), nil
	case "":
		// Auto-detect based on available API keys.
		if cfg.OpenAIAPIKey != "" {
			return NewOpenAIProvider(cfg.OpenAIAPIKey, cfg.EmbeddingModel)
		}
		if cfg.JinaAPIKey != "" {
			return NewJinaProvider(cfg.JinaAPIKey, cfg.EmbeddingModel)
		}
		return NewLocalProvider(cfg.EmbeddingDim), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, cfg.EmbeddingProvider)
	}
}
