package embedder

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// failingProvider always returns an error, for exercising the fallback path
type failingProvider struct {
	dim   int
	calls int
}

func (f *failingProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	f.calls++
	return nil, errors.New("provider unavailable")
}

func (f *failingProvider) Dimension() int { return f.dim }
func (f *failingProvider) Name() string   { return "failing" }
func (f *failingProvider) Close() error   { return nil }

// countingProvider wraps LocalProvider and counts calls
type countingProvider struct {
	*LocalProvider
	calls int
}

func (c *countingProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	c.calls++
	return c.LocalProvider.Embed(ctx, text)
}

func TestFingerprint(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{name: "short text", text: "hello"},
		{name: "unicode", text: "héllo wörld"},
		{name: "long text", text: string(make([]byte, 4096))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fp := Fingerprint(tt.text)
			assert.NotEmpty(t, fp)
			assert.LessOrEqual(t, len(fp), fingerprintLen)
			assert.Equal(t, fp, Fingerprint(tt.text), "fingerprint must be deterministic")
		})
	}
}

func TestFingerprintPrefixCollision(t *testing.T) {
	// Long texts sharing a prefix collide. Documented behavior of the
	// key scheme, asserted here so a change is a conscious one.
	long := make([]byte, 256)
	for i := range long {
		long[i] = 'a'
	}
	a := string(long) + "-one"
	b := string(long) + "-two"
	assert.Equal(t, Fingerprint(a), Fingerprint(b))
}

func TestCacheGetSet(t *testing.T) {
	cache := NewCache(10, time.Minute)

	_, ok := cache.Get("missing")
	assert.False(t, ok)

	cache.Set("key", []float32{1, 2, 3})
	vec, ok := cache.Get("key")
	require.True(t, ok)
	assert.Equal(t, []float32{1, 2, 3}, vec)

	// Mutating the returned slice must not pollute the cache.
	vec[0] = 99
	vec2, ok := cache.Get("key")
	require.True(t, ok)
	assert.Equal(t, float32(1), vec2[0])
}

func TestCacheTTLExpiry(t *testing.T) {
	cache := NewCache(10, time.Minute)

	cache.SetWithTTL("fleeting", []float32{1}, time.Nanosecond)
	time.Sleep(5 * time.Millisecond)

	_, ok := cache.Get("fleeting")
	assert.False(t, ok, "expired entry must read as a miss")
	assert.Equal(t, 0, cache.Len(), "expired entry must be dropped on read")
}

func TestCacheLastWriterWins(t *testing.T) {
	cache := NewCache(10, time.Minute)
	cache.Set("key", []float32{1})
	cache.Set("key", []float32{2})

	vec, ok := cache.Get("key")
	require.True(t, ok)
	assert.Equal(t, []float32{2}, vec)
}

func TestServiceCacheHitSkipsProvider(t *testing.T) {
	provider := &countingProvider{LocalProvider: NewLocalProvider(8)}
	svc := NewService(provider, NewCache(10, time.Minute))
	ctx := context.Background()

	first, err := svc.Embed(ctx, "markdown tables")
	require.NoError(t, err)

	second, err := svc.Embed(ctx, "markdown tables")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, provider.calls, "second call must be served from cache")
}

func TestServiceEmbedPropagatesProviderError(t *testing.T) {
	svc := NewService(&failingProvider{dim: 8}, NewCache(10, time.Minute))

	_, err := svc.Embed(context.Background(), "anything")
	assert.Error(t, err)
}

func TestServiceEmbedWithFallback(t *testing.T) {
	provider := &failingProvider{dim: 16}
	svc := NewService(provider, nil)

	vec := svc.EmbedWithFallback(context.Background(), "anything")
	require.Len(t, vec, 16)

	nonZero := false
	for _, v := range vec {
		assert.GreaterOrEqual(t, v, float32(-1))
		assert.Less(t, v, float32(1))
		if v != 0 {
			nonZero = true
		}
	}
	assert.True(t, nonZero, "fallback vector should not be all zeros")
}

func TestServiceEmbedEmptyText(t *testing.T) {
	svc := NewService(NewLocalProvider(8), nil)
	_, err := svc.Embed(context.Background(), "")
	assert.ErrorIs(t, err, ErrEmptyText)
}

func TestLocalProviderDeterministic(t *testing.T) {
	provider := NewLocalProvider(1536)
	ctx := context.Background()

	a, err := provider.Embed(ctx, "markdown basics")
	require.NoError(t, err)
	b, err := provider.Embed(ctx, "markdown basics")
	require.NoError(t, err)
	c, err := provider.Embed(ctx, "something else entirely")
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Len(t, a, 1536)

	for _, v := range a {
		assert.GreaterOrEqual(t, v, float32(-1))
		assert.LessOrEqual(t, v, float32(1))
	}
}
