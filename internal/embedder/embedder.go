package embedder

import (
	"context"
	"encoding/base64"
	"errors"
	"math/rand/v2"

	"github.com/askdocs/askdocs/internal/logger"
)

// Common errors
var (
	ErrEmptyText         = errors.New("text cannot be empty")
	ErrProviderFailed    = errors.New("embedding provider failed")
	ErrNoProviderEnabled = errors.New("no embedding provider configured")
	ErrUnknownProvider   = errors.New("unknown embedding provider")
)

// fingerprintLen bounds the cache key length. Distinct long texts that
// share a prefix collide; this is an accepted tradeoff of the key
// scheme, not something the service guards against.
const fingerprintLen = 64

// Provider generates a fixed-length vector for a piece of text.
type Provider interface {
	// Embed returns the embedding vector for text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// Dimension returns the vector length this provider produces.
	Dimension() int

	// Name returns the provider name.
	Name() string

	// Close releases any resources held by the provider.
	Close() error
}

// Fingerprint derives the cache key for a text: a bounded prefix of its
// base64 encoding.
func Fingerprint(text string) string {
	enc := base64.StdEncoding.EncodeToString([]byte(text))
	if len(enc) > fingerprintLen {
		enc = enc[:fingerprintLen]
	}
	return enc
}

// Service wraps a Provider with the TTL cache and the query-time
// fallback policy.
type Service struct {
	provider Provider
	cache    *Cache
}

// NewService creates an embedding service. cache may be nil to disable
// caching.
func NewService(provider Provider, cache *Cache) *Service {
	return &Service{provider: provider, cache: cache}
}

// Embed returns the embedding for text, consulting the cache first and
// populating it on a successful provider call. Provider failures are
// returned to the caller; initialization uses this path so a document
// that cannot be embedded is skipped rather than stored with a
// fabricated vector.
func (s *Service) Embed(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, ErrEmptyText
	}

	key := Fingerprint(text)
	if s.cache != nil {
		if vec, ok := s.cache.Get(key); ok {
			return vec, nil
		}
	}

	vec, err := s.provider.Embed(ctx, text)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		s.cache.Set(key, vec)
	}
	return vec, nil
}

// EmbedWithFallback returns the embedding for text, masking provider
// failures with a pseudo-random vector of the expected dimensionality so
// downstream ranking stays numerically well-defined. The substitution is
// silent apart from a log line; queries degrade instead of failing.
func (s *Service) EmbedWithFallback(ctx context.Context, text string) []float32 {
	vec, err := s.Embed(ctx, text)
	if err != nil {
		logger.Warn("embedding failed, using fallback vector",
			"provider", s.provider.Name(), "error", err)
		return randomVector(s.provider.Dimension())
	}
	return vec
}

// Dimension returns the underlying provider's vector length.
func (s *Service) Dimension() int {
	return s.provider.Dimension()
}

// Provider exposes the wrapped provider.
func (s *Service) Provider() Provider {
	return s.provider
}

// Close releases provider resources.
func (s *Service) Close() error {
	return s.provider.Close()
}

// randomVector draws each component independently from [-1, 1).
func randomVector(dim int) []float32 {
	vec := make([]float32, dim)
	for i := range vec {
		vec[i] = rand.Float32()*2 - 1
	}
	return vec
}
