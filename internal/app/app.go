// Package app wires features, adapters, and middleware into a runnable
// service. Bootstrap owns external connections; New owns the object graph.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"edugen/features/generate"
	"edugen/features/ingestion"
	"edugen/features/stats"
	"edugen/internal/adapter/reranker"
	"edugen/internal/config"
	"edugen/internal/ingest"
	"edugen/internal/middleware"
	"edugen/internal/pdf"
	"edugen/internal/retrieval"
	"edugen/internal/worker"
)

// Dependency seams, kept as interfaces so tests can swap in fakes.

type VectorStore interface {
	ingest.ChunkStore
	retrieval.VectorQuerier
	DropCollection(ctx context.Context, ingestionID string) error
}

type Embedder interface {
	ingest.DocumentEmbedder
	retrieval.QueryEmbedder
}

type LLM interface {
	Generate(ctx context.Context, prompt string, temperature float32) (string, error)
}

type TaskPublisher interface {
	Publish(topic string, body []byte) error
}

type App struct {
	Handler          http.Handler
	IngestionService *ingestion.Service
	IngestConsumer   *worker.IngestConsumer

	port int
}

func New(
	cfg *config.Config,
	db *sql.DB,
	vecStore VectorStore,
	embedder Embedder,
	llm LLM,
	taskPub TaskPublisher,
) (*App, error) {
	// Feature: Ingestion
	ingestionRepo := ingestion.NewPostgresRepo(db)
	ingestionService := ingestion.NewService(ingestionRepo, taskPub, vecStore)
	ingestionHandler := ingestion.NewHandler(ingestionService, cfg.MaxUploadSizeMB, cfg.UploadDir)

	// Feature: Stats
	statsHandler := stats.NewHandler(ingestionRepo)

	// Retrieval funnel
	queryLogger, err := retrieval.NewFileQueryLogger(cfg.QueryLogPath)
	if err != nil {
		slog.Warn("failed to create query logger, falling back to stdout", "error", err)
		queryLogger = retrieval.NewQueryLogger(os.Stdout)
	}
	rerankerClient := reranker.NewClient(cfg.RerankProvider, cfg.RerankAPIKey)
	retrievalService := retrieval.NewService(embedder, vecStore, rerankerClient, retrieval.Options{
		CandidateMultiplier: cfg.CandidateMultiplier,
		TopicFilterMin:      cfg.TopicFilterMin,
	}, queryLogger)

	// Feature: Generate
	generateService := generate.NewService(llm, retrievalService, cfg.RetrievalTopK, cfg.GeminiLLMModel)
	generateHandler := generate.NewHandler(generateService)

	// Ingest worker
	pipeline := ingest.NewPipeline(pdf.NewFileExtractor(), embedder, vecStore, cfg.MaxChunkTokens, cfg.ChunkOverlapTokens)
	ingestConsumer := worker.NewIngestConsumer(pipeline, ingestionService)

	// Middleware: CORS
	enableCORS := func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS, PUT, DELETE")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

			if r.Method == "OPTIONS" {
				w.WriteHeader(http.StatusOK)
				return
			}
			next(w, r)
		}
	}

	// Routes
	mux := http.NewServeMux()

	mux.Handle("POST /ingestions", middleware.CorrelationID(enableCORS(ingestionHandler.Create)))
	mux.Handle("GET /ingestions", middleware.CorrelationID(enableCORS(ingestionHandler.List)))
	mux.Handle("GET /ingestions/{id}", middleware.CorrelationID(enableCORS(ingestionHandler.Get)))
	mux.Handle("DELETE /ingestions/{id}", middleware.CorrelationID(enableCORS(ingestionHandler.Delete)))

	mux.Handle("POST /generate", middleware.CorrelationID(enableCORS(generateHandler.Generate)))

	mux.Handle("GET /stats", middleware.CorrelationID(enableCORS(statsHandler.GetStats)))

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	return &App{
		Handler:          mux,
		IngestionService: ingestionService,
		IngestConsumer:   ingestConsumer,
		port:             cfg.ServerPort,
	}, nil
}

func (a *App) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", a.port),
		Handler: a.Handler,
	}

	go func() {
		<-ctx.Done()
		slog.Info("shutting down server...")
		if err := srv.Shutdown(context.Background()); err != nil {
			slog.Error("server shutdown failed", "error", err)
		}
	}()

	slog.Info("server starting", "port", a.port)
	if err := srv.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}
	return nil
}
