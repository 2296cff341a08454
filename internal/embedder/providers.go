package embedder

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Provider names and defaults
const (
	ProviderOpenAI = "openai"
	ProviderJina   = "jina"
	ProviderLocal  = "local"

	DefaultOpenAIModel = "text-embedding-3-small"
	DefaultJinaModel   = "jina-embeddings-v3"

	OpenAIDimension = 1536
	JinaDimension   = 1024
	LocalDimension  = 384

	openAIEmbeddingsURL = "https://api.openai.com/v1/embeddings"
	jinaEmbeddingsURL   = "https://api.jina.ai/v1/embeddings"
)

// httpProvider implements Provider against an OpenAI-compatible
// embeddings endpoint. Both OpenAI and Jina speak this shape.
type httpProvider struct {
	name       string
	url        string
	apiKey     string
	model      string
	dimension  int
	httpClient *http.Client
}

// NewOpenAIProvider creates an embedder backed by the OpenAI API.
func NewOpenAIProvider(apiKey, model string) (Provider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("%w: missing OpenAI API key", ErrNoProviderEnabled)
	}
	if model == "" {
		model = DefaultOpenAIModel
	}
	return &httpProvider{
		name:       ProviderOpenAI,
		url:        openAIEmbeddingsURL,
		apiKey:     apiKey,
		model:      model,
		dimension:  OpenAIDimension,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}, nil
}

// NewJinaProvider creates an embedder backed by the Jina AI API.
func NewJinaProvider(apiKey, model string) (Provider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("%w: missing Jina API key", ErrNoProviderEnabled)
	}
	if model == "" {
		model = DefaultJinaModel
	}
	return &httpProvider{
		name:       ProviderJina,
		url:        jinaEmbeddingsURL,
		apiKey:     apiKey,
		model:      model,
		dimension:  JinaDimension,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}, nil
}

func (p *httpProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, ErrEmptyText
	}

	vec, err := retryWithBackoff(ctx, func() ([]float32, error) {
		return p.callAPI(ctx, text)
	})
	if err != nil {
		return nil, fmt.Errorf("%w after %d retries: %v", ErrProviderFailed, maxRetries, err)
	}
	return vec, nil
}

func (p *httpProvider) callAPI(ctx context.Context, text string) ([]float32, error) {
	reqBody := map[string]interface{}{
		"input": []string{text},
		"model": p.model,
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("api call: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("api error %d: %s", resp.StatusCode, string(bodyBytes))
	}

	var apiResp struct {
		Data []struct {
			Embedding []float32 `json:"embedding"`
			Index     int       `json:"index"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if len(apiResp.Data) == 0 {
		return nil, fmt.Errorf("no embedding returned")
	}

	return apiResp.Data[0].Embedding, nil
}

func (p *httpProvider) Dimension() int {
	return p.dimension
}

func (p *httpProvider) Name() string {
	return p.name
}

func (p *httpProvider) Close() error {
	p.httpClient.CloseIdleConnections()
	return nil
}

// LocalProvider produces deterministic hash-derived vectors. It exists
// for offline operation and tests; the vectors carry no real semantics.
type LocalProvider struct {
	dimension int
}

// NewLocalProvider creates a local embedder with the given dimension.
func NewLocalProvider(dimension int) *LocalProvider {
	if dimension <= 0 {
		dimension = LocalDimension
	}
	return &LocalProvider{dimension: dimension}
}

func (l *LocalProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, ErrEmptyText
	}

	// Stretch the SHA-256 digest across the full dimension by re-hashing
	// with a counter, so vectors of any length stay deterministic.
	vec := make([]float32, l.dimension)
	var block [32]byte
	counter := byte(0)
	for i := 0; i < l.dimension; i++ {
		if i%32 == 0 {
			block = sha256.Sum256(append([]byte(text), counter))
			counter++
		}
		vec[i] = float32(block[i%32])/127.5 - 1
	}
	return vec, nil
}

func (l *LocalProvider) Dimension() int {
	return l.dimension
}

func (l *LocalProvider) Name() string {
	return ProviderLocal
}

func (l *LocalProvider) Close() error {
	return nil
}
