package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/askdocs/askdocs/internal/session"
	"github.com/askdocs/askdocs/pkg/types"
)

const (
	completionTimeout = 60 * time.Second

	// promptHistoryTurns bounds how many prior turns the prompt carries.
	promptHistoryTurns = 6
)

// Completer produces the assistant reply for a user message given the
// retrieved candidates and recent conversation history.
type Completer interface {
	Complete(ctx context.Context, query string, candidates []types.ScoredCandidate, history []session.Message) (string, error)

	// Name identifies the completer in logs.
	Name() string
}

// buildPrompt assembles the grounding prompt shared by the LLM-backed
// completers.
func buildPrompt(query string, candidates []types.ScoredCandidate, history []session.Message) string {
	var b strings.Builder
	b.WriteString("You are a documentation assistant. Answer using only the context below. " +
		"If the context does not cover the question, say so.\n\n")

	if len(candidates) > 0 {
		b.WriteString("Context:\n")
		for _, c := range candidates {
			fmt.Fprintf(&b, "[%s] %s\n", c.ID, c.Text)
		}
		b.WriteString("\n")
	}

	if n := len(history); n > 0 {
		start := n - promptHistoryTurns
		if start < 0 {
			start = 0
		}
		b.WriteString("Conversation so far:\n")
		for _, msg := range history[start:] {
			fmt.Fprintf(&b, "%s: %s\n", msg.Role, msg.Content)
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "Question: %s\nAnswer:", query)
	return b.String()
}

// openAICompleter calls an OpenAI-compatible chat completions endpoint.
type openAICompleter struct {
	apiURL string
	apiKey string
	model  string
	client *http.Client
}

// NewOpenAICompleter creates a Completer for api.openai.com or any
// compatible server. Defaults: the public endpoint and gpt-4o-mini.
func NewOpenAICompleter(apiURL, apiKey, model string) Completer {
	if apiURL == "" {
		apiURL = "https://api.openai.com/v1/chat/completions"
	}
	if model == "" {
		model = "gpt-4o-mini"
	}
	return &openAICompleter{
		apiURL: apiURL,
		apiKey: apiKey,
		model:  model,
		client: &http.Client{Timeout: completionTimeout},
	}
}

func (c *openAICompleter) Name() string { return "openai" }

func (c *openAICompleter) Complete(ctx context.Context, query string, candidates []types.ScoredCandidate, history []session.Message) (string, error) {
	payload, err := json.Marshal(map[string]any{
		"model": c.model,
		"messages": []map[string]string{
			{"role": "user", "content": buildPrompt(query, candidates, history)},
		},
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("completion request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("completion status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var parsed struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("decoding completion: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("completion returned no choices")
	}
	return strings.TrimSpace(parsed.Choices[0].Message.Content), nil
}

// ollamaCompleter calls a local Ollama server's generate endpoint.
type ollamaCompleter struct {
	baseURL string
	model   string
	client  *http.Client
}

// NewOllamaCompleter creates a Completer against an Ollama server.
// Defaults: http://localhost:11434 and llama3.
func NewOllamaCompleter(baseURL, model string) Completer {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	if model == "" {
		model = "llama3"
	}
	return &ollamaCompleter{
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
		client:  &http.Client{Timeout: completionTimeout},
	}
}

func (c *ollamaCompleter) Name() string { return "ollama" }

func (c *ollamaCompleter) Complete(ctx context.Context, query string, candidates []types.ScoredCandidate, history []session.Message) (string, error) {
	payload, err := json.Marshal(map[string]any{
		"model":  c.model,
		"prompt": buildPrompt(query, candidates, history),
		"stream": false,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/api/generate", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("completion request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("completion status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var parsed struct {
		Response string `json:"response"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("decoding completion: %w", err)
	}
	return strings.TrimSpace(parsed.Response), nil
}

// templateCompleter answers from the retrieved candidates alone, with no
// model behind it. It keeps the whole stack usable offline.
type templateCompleter struct{}

// NewTemplateCompleter creates the offline completer used when no LLM is
// configured.
func NewTemplateCompleter() Completer { return templateCompleter{} }

func (templateCompleter) Name() string { return "template" }

func (templateCompleter) Complete(_ context.Context, query string, candidates []types.ScoredCandidate, _ []session.Message) (string, error) {
	if len(candidates) == 0 {
		return fmt.Sprintf("I could not find anything relevant to %q in the knowledge base.", query), nil
	}

	var b strings.Builder
	b.WriteString(candidates[0].Text)
	if len(candidates) > 1 {
		b.WriteString("\n\nRelated entries: ")
		for i, c := range candidates[1:] {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(c.ID)
		}
	}
	return b.String(), nil
}
