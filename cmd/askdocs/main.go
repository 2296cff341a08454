package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/askdocs/askdocs/internal/chat"
	"github.com/askdocs/askdocs/internal/config"
	"github.com/askdocs/askdocs/internal/corpus"
	"github.com/askdocs/askdocs/internal/embedder"
	"github.com/askdocs/askdocs/internal/engine"
	"github.com/askdocs/askdocs/internal/httpapi"
	"github.com/askdocs/askdocs/internal/logger"
	"github.com/askdocs/askdocs/internal/plugin"
	"github.com/askdocs/askdocs/internal/session"
	"github.com/askdocs/askdocs/internal/store"
	"github.com/askdocs/askdocs/pkg/types"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	logger.Init(cfg)

	embedSvc, err := embedder.NewFromConfig(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize embedder: %v", err)
	}
	defer embedSvc.Close()

	st := store.New(embedSvc, cfg.InitWorkers)
	eng := engine.New(st, embedSvc, cfg.QueryCacheSize)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Queries arriving before this finishes wait on the readiness gate.
	go initializeStore(ctx, cfg, st)

	sessions, err := session.NewManager(cfg.SessionCacheSize,
		time.Duration(cfg.SessionTTL)*time.Second, cfg.SessionMaxHistory)
	if err != nil {
		log.Fatalf("Failed to create session manager: %v", err)
	}

	registry := plugin.NewRegistry(
		plugin.NewMathPlugin(),
		plugin.NewWeatherPlugin(cfg.WeatherAPIURL, ""),
		plugin.NewClockPlugin(),
	)
	chatSvc := chat.NewService(eng, sessions, registry, chat.NewCompleterFromConfig(cfg))

	srv := httpapi.NewServer(cfg, eng, st, chatSvc)

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		sig := <-quit
		logger.Info("shutdown signal received", "signal", sig.String())
		cancel()
	}()

	if err := srv.Run(ctx); err != nil {
		log.Fatalf("Server error: %v", err)
	}
	logger.Info("server exited")
}

// initializeStore loads the corpus from the configured sources and
// brings the store to the ready state. A failed source fails the whole
// initialization so requests answer 503 instead of querying an empty
// corpus.
func initializeStore(ctx context.Context, cfg *config.Config, st *store.Store) {
	loader := corpus.NewLoader(cfg.MaxChunkSize, cfg.ChunkOverlap)

	var docs []types.Document
	dirDocs, err := loader.LoadDir(cfg.CorpusDir)
	if err != nil {
		logger.Error("corpus directory load failed", "dir", cfg.CorpusDir, "error", err)
		st.FailInit(fmt.Errorf("load corpus dir %s: %w", cfg.CorpusDir, err))
		return
	}
	docs = append(docs, dirDocs...)

	if cfg.CorpusSQLite != "" {
		dbDocs, err := loader.LoadSQLite(ctx, cfg.CorpusSQLite)
		if err != nil {
			logger.Error("corpus database load failed", "path", cfg.CorpusSQLite, "error", err)
			st.FailInit(fmt.Errorf("load corpus database %s: %w", cfg.CorpusSQLite, err))
			return
		}
		docs = append(docs, dbDocs...)
	}

	if err := st.Initialize(ctx, docs); err != nil {
		logger.Error("store initialization failed", "error", err)
	}
}
