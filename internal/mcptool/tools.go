package mcptool

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/askdocs/askdocs/internal/engine"
	"github.com/askdocs/askdocs/pkg/types"
)

// MCP error codes
const (
	ErrorCodeInvalidParams = -32602 // Invalid method parameters
	ErrorCodeInternalError = -32603 // Internal JSON-RPC error
	ErrorCodeNotReady      = -32001 // Knowledge base still initializing
	ErrorCodeEmptyQuery    = -32004 // Query parameter is empty
)

// handleSearchDocuments handles the search_documents tool invocation
func (s *Server) handleSearchDocuments(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	query, ok := args["query"].(string)
	if !ok || query == "" {
		return nil, newMCPError(ErrorCodeEmptyQuery, "query parameter is required and cannot be empty", map[string]interface{}{
			"param":  "query",
			"reason": "missing or empty",
		})
	}

	maxResults := getIntDefault(args, "max_results", engine.DefaultMaxResults)
	if maxResults < 1 || maxResults > 50 {
		return nil, newMCPError(ErrorCodeInvalidParams, "max_results must be between 1 and 50", map[string]interface{}{
			"param": "max_results",
			"value": maxResults,
		})
	}

	req := engine.QueryRequest{
		Query:      query,
		Context:    getStringDefault(args, "context", ""),
		SearchType: engine.SearchType(getStringDefault(args, "search_type", string(engine.SearchHybrid))),
		MaxResults: maxResults,
	}

	categories := getStringSlice(args, "categories")
	difficulty := getStringDefault(args, "difficulty", "")
	if len(categories) > 0 || difficulty != "" {
		req.Filters = &engine.Filters{Categories: categories, Difficulty: difficulty}
	}

	results, err := s.engine.Query(ctx, req)
	if err != nil {
		return nil, translateError(err)
	}

	items := make([]map[string]interface{}, 0, len(results))
	for _, r := range results {
		items = append(items, map[string]interface{}{
			"id":           r.ID,
			"text":         r.Text,
			"category":     r.Metadata.Category,
			"context_type": string(r.ContextType),
			"final_score":  r.FinalScore,
			"relevance":    r.RelevanceScore,
		})
	}
	return mcp.NewToolResultText(formatJSON(map[string]interface{}{
		"results": items,
		"count":   len(items),
	})), nil
}

// handleAsk handles the ask tool invocation
func (s *Server) handleAsk(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	message, ok := args["message"].(string)
	if !ok || message == "" {
		return nil, newMCPError(ErrorCodeInvalidParams, "message parameter is required", map[string]interface{}{
			"param":  "message",
			"reason": "missing or empty",
		})
	}
	sessionID := getStringDefault(args, "session_id", "")

	resp, err := s.chat.Send(ctx, sessionID, message)
	if err != nil {
		return nil, translateError(err)
	}

	sourceIDs := make([]string, 0, len(resp.Sources))
	for _, src := range resp.Sources {
		sourceIDs = append(sourceIDs, src.ID)
	}
	return mcp.NewToolResultText(formatJSON(map[string]interface{}{
		"session_id": resp.SessionID,
		"reply":      resp.Reply,
		"source":     resp.Source,
		"source_ids": sourceIDs,
	})), nil
}

// handleGetStats handles the get_stats tool invocation
func (s *Server) handleGetStats(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	stats := s.engine.Stats()
	return mcp.NewToolResultText(formatJSON(map[string]interface{}{
		"state": s.store.State().String(),
		"statistics": map[string]interface{}{
			"document_count": stats.DocumentCount,
			"keyword_count":  stats.KeywordCount,
			"category_count": stats.CategoryCount,
			"categories":     stats.Categories,
		},
	})), nil
}

// Helper functions

// newMCPError creates a properly formatted MCP error
func newMCPError(code int, message string, data interface{}) error {
	return &MCPError{
		Code:    code,
		Message: message,
		Data:    data,
	}
}

// translateError maps domain errors onto MCP error codes.
func translateError(err error) error {
	switch {
	case errors.Is(err, types.ErrNotInitialized):
		return newMCPError(ErrorCodeNotReady, "knowledge base is still initializing", nil)
	case errors.Is(err, types.ErrEmptyQuery):
		return newMCPError(ErrorCodeEmptyQuery, err.Error(), nil)
	case errors.Is(err, types.ErrInvalidSearchType):
		return newMCPError(ErrorCodeInvalidParams, err.Error(), nil)
	default:
		return newMCPError(ErrorCodeInternalError, "request failed", map[string]interface{}{
			"error": err.Error(),
		})
	}
}

// MCPError represents an MCP protocol error
type MCPError struct {
	Code    int
	Message string
	Data    interface{}
}

func (e *MCPError) Error() string {
	return fmt.Sprintf("MCP error %d: %s", e.Code, e.Message)
}

// formatJSON formats a map as indented JSON
func formatJSON(data map[string]interface{}) string {
	bytes, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", data)
	}
	return string(bytes)
}

// getIntDefault extracts an integer parameter with a default value
func getIntDefault(args map[string]interface{}, key string, defaultValue int) int {
	if val, ok := args[key].(float64); ok {
		return int(val)
	}
	if val, ok := args[key].(int); ok {
		return val
	}
	return defaultValue
}

// getStringDefault extracts a string parameter with a default value
func getStringDefault(args map[string]interface{}, key string, defaultValue string) string {
	if val, ok := args[key].(string); ok {
		return val
	}
	return defaultValue
}

// getStringSlice extracts a string array parameter
func getStringSlice(args map[string]interface{}, key string) []string {
	raw, ok := args[key].([]interface{})
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
