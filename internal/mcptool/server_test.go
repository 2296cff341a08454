package mcptool

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/askdocs/askdocs/internal/chat"
	"github.com/askdocs/askdocs/internal/embedder"
	"github.com/askdocs/askdocs/internal/engine"
	"github.com/askdocs/askdocs/internal/plugin"
	"github.com/askdocs/askdocs/internal/session"
	"github.com/askdocs/askdocs/internal/store"
	"github.com/askdocs/askdocs/pkg/types"
)

type stubProvider struct {
	dim int
}

func (p *stubProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	vec := make([]float32, p.dim)
	for i, r := range text {
		vec[i%p.dim] += float32(r % 13)
	}
	return vec, nil
}

func (p *stubProvider) Dimension() int { return p.dim }
func (p *stubProvider) Name() string   { return "stub" }
func (p *stubProvider) Close() error   { return nil }

func newTestMCPServer(t *testing.T, initialized bool) *Server {
	t.Helper()

	svc := embedder.NewService(&stubProvider{dim: 8}, embedder.NewCache(100, time.Minute))
	st := store.New(svc, 2)

	if initialized {
		require.NoError(t, st.Initialize(context.Background(), []types.Document{
			{ID: "md-basics", Text: "Markdown basics with headers and emphasis", Metadata: types.Metadata{Category: "markdown"}},
			{ID: "git-intro", Text: "Version control with branches", Metadata: types.Metadata{Category: "git"}},
		}))
	} else {
		cancelled, cancel := context.WithCancel(context.Background())
		cancel()
		require.Error(t, st.Initialize(cancelled, []types.Document{{ID: "x", Text: "y"}}))
	}

	eng := engine.New(st, svc, 100)
	sessions, err := session.NewManager(100, time.Hour, 20)
	require.NoError(t, err)
	registry := plugin.NewRegistry(plugin.NewMathPlugin())
	chatSvc := chat.NewService(eng, sessions, registry, chat.NewTemplateCompleter())

	return NewServer(eng, st, chatSvc)
}

func callRequest(args map[string]interface{}) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Arguments: args,
		},
	}
}

func resultText(t *testing.T, result *mcp.CallToolResult) map[string]interface{} {
	t.Helper()
	require.NotNil(t, result)
	require.NotEmpty(t, result.Content)
	text, ok := mcp.AsTextContent(result.Content[0])
	require.True(t, ok)

	var parsed map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(text.Text), &parsed))
	return parsed
}

func TestSearchDocumentsTool(t *testing.T) {
	s := newTestMCPServer(t, true)

	result, err := s.handleSearchDocuments(context.Background(), callRequest(map[string]interface{}{
		"query": "markdown headers",
	}))
	require.NoError(t, err)

	parsed := resultText(t, result)
	assert.Greater(t, parsed["count"].(float64), 0.0)
	results := parsed["results"].([]interface{})
	first := results[0].(map[string]interface{})
	assert.NotEmpty(t, first["id"])
	assert.NotEmpty(t, first["context_type"])
}

func TestSearchDocumentsToolCategoryFilter(t *testing.T) {
	s := newTestMCPServer(t, true)

	result, err := s.handleSearchDocuments(context.Background(), callRequest(map[string]interface{}{
		"query":      "markdown",
		"categories": []interface{}{"markdown"},
	}))
	require.NoError(t, err)

	parsed := resultText(t, result)
	for _, raw := range parsed["results"].([]interface{}) {
		r := raw.(map[string]interface{})
		assert.Equal(t, "markdown", r["category"])
	}
}

func TestSearchDocumentsToolValidation(t *testing.T) {
	s := newTestMCPServer(t, true)
	ctx := context.Background()

	_, err := s.handleSearchDocuments(ctx, callRequest(map[string]interface{}{}))
	var mcpErr *MCPError
	require.ErrorAs(t, err, &mcpErr)
	assert.Equal(t, ErrorCodeEmptyQuery, mcpErr.Code)

	_, err = s.handleSearchDocuments(ctx, callRequest(map[string]interface{}{
		"query":       "x",
		"max_results": float64(500),
	}))
	require.ErrorAs(t, err, &mcpErr)
	assert.Equal(t, ErrorCodeInvalidParams, mcpErr.Code)

	_, err = s.handleSearchDocuments(ctx, callRequest(map[string]interface{}{
		"query":       "x",
		"search_type": "fuzzy",
	}))
	require.ErrorAs(t, err, &mcpErr)
	assert.Equal(t, ErrorCodeInvalidParams, mcpErr.Code)
}

func TestSearchDocumentsToolNotReady(t *testing.T) {
	s := newTestMCPServer(t, false)

	_, err := s.handleSearchDocuments(context.Background(), callRequest(map[string]interface{}{
		"query": "markdown",
	}))
	var mcpErr *MCPError
	require.ErrorAs(t, err, &mcpErr)
	assert.Equal(t, ErrorCodeNotReady, mcpErr.Code)
}

func TestAskTool(t *testing.T) {
	s := newTestMCPServer(t, true)

	result, err := s.handleAsk(context.Background(), callRequest(map[string]interface{}{
		"message": "calculate 3 * 9",
	}))
	require.NoError(t, err)

	parsed := resultText(t, result)
	assert.Equal(t, "plugin", parsed["source"])
	assert.Equal(t, "3 * 9 = 27", parsed["reply"])
	assert.NotEmpty(t, parsed["session_id"])
}

func TestAskToolFollowUpSession(t *testing.T) {
	s := newTestMCPServer(t, true)
	ctx := context.Background()

	first, err := s.handleAsk(ctx, callRequest(map[string]interface{}{
		"message": "how do markdown headers work",
	}))
	require.NoError(t, err)
	sessionID := resultText(t, first)["session_id"].(string)

	second, err := s.handleAsk(ctx, callRequest(map[string]interface{}{
		"message":    "what about emphasis",
		"session_id": sessionID,
	}))
	require.NoError(t, err)
	assert.Equal(t, sessionID, resultText(t, second)["session_id"])
}

func TestAskToolValidation(t *testing.T) {
	s := newTestMCPServer(t, true)

	_, err := s.handleAsk(context.Background(), callRequest(map[string]interface{}{}))
	var mcpErr *MCPError
	require.ErrorAs(t, err, &mcpErr)
	assert.Equal(t, ErrorCodeInvalidParams, mcpErr.Code)
}

func TestGetStatsTool(t *testing.T) {
	s := newTestMCPServer(t, true)

	result, err := s.handleGetStats(context.Background(), mcp.CallToolRequest{})
	require.NoError(t, err)

	parsed := resultText(t, result)
	assert.Equal(t, "ready", parsed["state"])
	stats := parsed["statistics"].(map[string]interface{})
	assert.Equal(t, float64(2), stats["document_count"])
	assert.Equal(t, float64(2), stats["category_count"])
}
