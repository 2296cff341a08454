// Package httpapi exposes the retrieval engine and chat service over a
// gin HTTP server.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/askdocs/askdocs/internal/chat"
	"github.com/askdocs/askdocs/internal/config"
	"github.com/askdocs/askdocs/internal/engine"
	"github.com/askdocs/askdocs/internal/logger"
	"github.com/askdocs/askdocs/internal/store"
	"github.com/askdocs/askdocs/pkg/types"
)

const shutdownTimeout = 30 * time.Second

// Server hosts the HTTP API.
type Server struct {
	cfg    *config.Config
	engine *engine.Engine
	store  *store.Store
	chat   *chat.Service
	router *gin.Engine
}

// NewServer builds the router and returns a Server ready to Run.
func NewServer(cfg *config.Config, eng *engine.Engine, st *store.Store, chatSvc *chat.Service) *Server {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &Server{
		cfg:    cfg,
		engine: eng,
		store:  st,
		chat:   chatSvc,
		router: gin.New(),
	}

	s.router.Use(gin.Logger())
	s.router.Use(gin.Recovery())
	s.router.Use(RequestID())
	s.router.Use(RateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst))

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.CORSOrigins
	corsConfig.AllowMethods = []string{"GET", "POST", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", RequestIDHeader}
	s.router.Use(cors.New(corsConfig))

	s.router.GET("/health", s.handleHealth)

	api := s.router.Group("/api")
	api.POST("/chat", s.handleChat)
	api.POST("/query", s.handleQuery)
	api.GET("/stats", s.handleStats)
	api.GET("/plugins", s.handlePlugins)
	api.POST("/documents", s.handleAddDocument)
	api.DELETE("/documents/:id", s.handleRemoveDocument)

	return s
}

// Router exposes the underlying gin engine, mainly for tests.
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    ":" + s.cfg.Port,
		Handler: s.router,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server starting", "port", s.cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("http server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// respondError maps domain errors onto HTTP statuses: engine not ready
// is 503, unknown documents 404, duplicates 409, validation failures
// 400.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, types.ErrNotInitialized):
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error_code": "not_ready",
			"message":    "The knowledge base is still initializing.",
		})
	case errors.Is(err, types.ErrDocumentNotFound):
		c.JSON(http.StatusNotFound, gin.H{
			"error_code": "document_not_found",
			"message":    err.Error(),
		})
	case errors.Is(err, types.ErrDuplicateDocument):
		c.JSON(http.StatusConflict, gin.H{
			"error_code": "duplicate_document",
			"message":    err.Error(),
		})
	case errors.Is(err, types.ErrEmptyQuery),
		errors.Is(err, types.ErrInvalidSearchType),
		errors.Is(err, types.ErrEmptyDocumentID),
		errors.Is(err, types.ErrEmptyDocumentText),
		errors.Is(err, chat.ErrEmptyMessage):
		c.JSON(http.StatusBadRequest, gin.H{
			"error_code": "invalid_input",
			"message":    err.Error(),
		})
	default:
		logger.Error("request failed", "request_id", GetRequestID(c), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error_code": "internal_error",
			"message":    "Something went wrong handling the request.",
		})
	}
}
