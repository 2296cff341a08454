package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/askdocs/askdocs/internal/engine"
	"github.com/askdocs/askdocs/pkg/types"
)

// dateLayouts accepted for query date-range bounds.
var dateLayouts = []string{time.RFC3339, "2006-01-02"}

type chatRequest struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message" binding:"required"`
}

type dateRangeRequest struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

type filtersRequest struct {
	Categories []string          `json:"categories"`
	Difficulty string            `json:"difficulty"`
	DateRange  *dateRangeRequest `json:"date_range"`
}

type queryRequest struct {
	Query      string          `json:"query" binding:"required"`
	Context    string          `json:"context"`
	SearchType string          `json:"search_type"`
	MaxResults int             `json:"max_results"`
	Filters    *filtersRequest `json:"filters"`
	UseCache   bool            `json:"use_cache"`
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"state":     s.store.State().String(),
		"timestamp": time.Now().UTC(),
	})
}

func (s *Server) handleChat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error_code": "invalid_input",
			"message":    "Invalid request data",
			"details":    gin.H{"error": err.Error()},
		})
		return
	}

	resp, err := s.chat.Send(c.Request.Context(), req.SessionID, req.Message)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleQuery(c *gin.Context) {
	var req queryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error_code": "invalid_input",
			"message":    "Invalid request data",
			"details":    gin.H{"error": err.Error()},
		})
		return
	}

	engineReq := engine.QueryRequest{
		Query:      req.Query,
		Context:    req.Context,
		SearchType: engine.SearchType(req.SearchType),
		MaxResults: req.MaxResults,
		UseCache:   req.UseCache,
	}
	if req.Filters != nil {
		filters, err := buildFilters(req.Filters)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error_code": "invalid_input",
				"message":    err.Error(),
			})
			return
		}
		engineReq.Filters = filters
	}

	results, err := s.engine.Query(c.Request.Context(), engineReq)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"results": results,
		"count":   len(results),
	})
}

func (s *Server) handleStats(c *gin.Context) {
	stats := s.engine.Stats()
	c.JSON(http.StatusOK, gin.H{
		"state": s.store.State().String(),
		"stats": stats,
	})
}

func (s *Server) handlePlugins(c *gin.Context) {
	type pluginInfo struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	}

	var plugins []pluginInfo
	if reg := s.chat.Plugins(); reg != nil {
		for _, p := range reg.Plugins() {
			plugins = append(plugins, pluginInfo{Name: p.Name(), Description: p.Description()})
		}
	}
	c.JSON(http.StatusOK, gin.H{"plugins": plugins})
}

func (s *Server) handleAddDocument(c *gin.Context) {
	var doc types.Document
	if err := c.ShouldBindJSON(&doc); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error_code": "invalid_input",
			"message":    "Invalid request data",
			"details":    gin.H{"error": err.Error()},
		})
		return
	}

	if err := s.store.AddDocument(c.Request.Context(), doc); err != nil {
		respondError(c, err)
		return
	}
	s.engine.InvalidateCache()
	c.JSON(http.StatusCreated, gin.H{"id": doc.ID})
}

func (s *Server) handleRemoveDocument(c *gin.Context) {
	if err := s.store.RemoveDocument(c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	s.engine.InvalidateCache()
	c.JSON(http.StatusOK, gin.H{"id": c.Param("id")})
}

// buildFilters converts the wire filters into engine filters, parsing
// the date bounds. A bound may be a date or a full timestamp; an end
// date without a time covers the whole day.
func buildFilters(req *filtersRequest) (*engine.Filters, error) {
	filters := &engine.Filters{
		Categories: req.Categories,
		Difficulty: req.Difficulty,
	}
	if req.DateRange == nil {
		return filters, nil
	}

	start, err := parseDate(req.DateRange.Start)
	if err != nil {
		return nil, err
	}
	end, err := parseDate(req.DateRange.End)
	if err != nil {
		return nil, err
	}
	if len(req.DateRange.End) == len("2006-01-02") {
		end = end.Add(24*time.Hour - time.Nanosecond)
	}
	filters.DateRange = &engine.DateRange{Start: start, End: end}
	return filters, nil
}

func parseDate(value string) (time.Time, error) {
	var lastErr error
	for _, layout := range dateLayouts {
		ts, err := time.Parse(layout, value)
		if err == nil {
			return ts, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}
