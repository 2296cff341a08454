package mcptool

import (
	"github.com/mark3labs/mcp-go/mcp"
)

// searchDocumentsTool returns the tool definition for search_documents
func searchDocumentsTool() mcp.Tool {
	return mcp.Tool{
		Name:        "search_documents",
		Description: "Search the knowledge base with hybrid semantic and keyword retrieval",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"query": map[string]interface{}{
					"type":        "string",
					"description": "Search query (natural language or keywords)",
				},
				"context": map[string]interface{}{
					"type":        "string",
					"description": "Optional conversation context that biases ranking toward the current topic",
				},
				"search_type": map[string]interface{}{
					"type":        "string",
					"description": "Search strategy: hybrid (semantic + keyword), semantic, or keyword",
					"enum":        []string{"hybrid", "semantic", "keyword"},
					"default":     "hybrid",
				},
				"max_results": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum number of results to return (1-50)",
					"default":     5,
					"minimum":     1,
					"maximum":     50,
				},
				"categories": map[string]interface{}{
					"type":        "array",
					"description": "Restrict results to these categories",
					"items": map[string]interface{}{
						"type": "string",
					},
				},
				"difficulty": map[string]interface{}{
					"type":        "string",
					"description": "Restrict results to this difficulty level",
				},
			},
			Required: []string{"query"},
		},
	}
}

// askTool returns the tool definition for ask
func askTool() mcp.Tool {
	return mcp.Tool{
		Name:        "ask",
		Description: "Ask a question and get an answer grounded in the knowledge base",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"message": map[string]interface{}{
					"type":        "string",
					"description": "The question to answer",
				},
				"session_id": map[string]interface{}{
					"type":        "string",
					"description": "Session id from a previous ask call, for follow-up questions",
				},
			},
			Required: []string{"message"},
		},
	}
}

// getStatsTool returns the tool definition for get_stats
func getStatsTool() mcp.Tool {
	return mcp.Tool{
		Name:        "get_stats",
		Description: "Report knowledge base readiness and corpus statistics",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}
}
