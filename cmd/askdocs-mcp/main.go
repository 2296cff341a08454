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
	"github.com/askdocs/askdocs/internal/logger"
	"github.com/askdocs/askdocs/internal/mcptool"
	"github.com/askdocs/askdocs/internal/plugin"
	"github.com/askdocs/askdocs/internal/session"
	"github.com/askdocs/askdocs/internal/store"
	"github.com/askdocs/askdocs/pkg/types"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

func main() {
	if len(os.Args) > 1 && os.Args[1] == "--version" {
		fmt.Printf("AskDocs MCP Server\n")
		fmt.Printf("Version: %s\n", version)
		fmt.Printf("Build Time: %s\n", buildTime)
		os.Exit(0)
	}

	// Log to stderr; stdout is reserved for the MCP protocol.
	log.SetOutput(os.Stderr)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	logger.InitStderr(cfg)

	embedSvc, err := embedder.NewFromConfig(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize embedder: %v", err)
	}
	defer embedSvc.Close()

	st := store.New(embedSvc, cfg.InitWorkers)
	eng := engine.New(st, embedSvc, cfg.QueryCacheSize)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go initializeStore(ctx, cfg, st)

	sessions, err := session.NewManager(cfg.SessionCacheSize,
		time.Duration(cfg.SessionTTL)*time.Second, cfg.SessionMaxHistory)
	if err != nil {
		log.Fatalf("Failed to create session manager: %v", err)
	}

	registry := plugin.NewRegistry(
		plugin.NewMathPlugin(),
		plugin.NewClockPlugin(),
	)
	chatSvc := chat.NewService(eng, sessions, registry, chat.NewCompleterFromConfig(cfg))

	server := mcptool.NewServer(eng, st, chatSvc)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	errChan := make(chan error, 1)
	go func() {
		log.Println("MCP server ready, listening on stdio...")
		errChan <- server.Serve(ctx)
	}()

	select {
	case sig := <-sigChan:
		log.Printf("Received signal %v, shutting down gracefully...", sig)
		cancel()
	case err := <-errChan:
		if err != nil {
			log.Fatalf("Server error: %v", err)
		}
	}

	log.Println("Server stopped")
}

// initializeStore loads the corpus and brings the store to ready. A
// failed source fails the whole initialization; tools then report
// not-ready instead of answering from an empty corpus.
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
