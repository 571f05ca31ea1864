package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/lib/pq"
	"github.com/nsqio/go-nsq"
	"github.com/weaviate/weaviate-go-client/v5/weaviate"

	"edugen/internal/adapter/gemini"
	wstore "edugen/internal/adapter/weaviate"
	"edugen/internal/config"
	"edugen/internal/vector"
)

type Dependencies struct {
	DB          *sql.DB
	VectorStore *wstore.Store
	Embedder    *gemini.Embedder
	LLM         *gemini.LLM
	NSQProducer *nsq.Producer
}

// Bootstrap opens every external connection the service needs: Postgres
// (with migrations), Weaviate (with schema), Gemini, and NSQ. Infra that
// may still be starting gets a retry loop.
func Bootstrap(ctx context.Context, cfg *config.Config) (*Dependencies, error) {
	// Database
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		cfg.DBHost, cfg.DBPort, cfg.DBUser, cfg.DBPass, cfg.DBName)

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}

	retryDelay := time.Duration(cfg.BootstrapRetryDelaySeconds) * time.Second
	for i := 0; i < cfg.BootstrapRetryAttempts; i++ {
		if err := db.Ping(); err == nil {
			break
		}
		slog.Warn("failed to ping db, retrying...", "attempt", i+1)
		time.Sleep(retryDelay)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping db: %w", err)
	}

	// Migrations
	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return nil, fmt.Errorf("migration driver error: %w", err)
	}
	m, err := migrate.NewWithDatabaseInstance(cfg.MigrationPath, "postgres", driver)
	if err != nil {
		return nil, fmt.Errorf("migration instance error: %w", err)
	}
	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return nil, fmt.Errorf("migration up error: %w", err)
	}

	// Weaviate
	wCfg := weaviate.Config{Host: cfg.WeaviateHost, Scheme: cfg.WeaviateScheme}
	wClient, err := weaviate.NewClient(wCfg)
	if err != nil {
		return nil, fmt.Errorf("weaviate client error: %w", err)
	}
	if err := ensureSchemaWithRetry(ctx, wClient, cfg.BootstrapRetryAttempts, retryDelay); err != nil {
		return nil, fmt.Errorf("weaviate schema error: %w", err)
	}

	// Gemini
	embedder, err := gemini.NewEmbedder(ctx, cfg.GeminiAPIKey)
	if err != nil {
		return nil, fmt.Errorf("gemini embedder error: %w", err)
	}
	llm, err := gemini.NewLLM(ctx, cfg.GeminiAPIKey, cfg.GeminiLLMModel)
	if err != nil {
		return nil, fmt.Errorf("gemini llm error: %w", err)
	}

	// NSQ Producer
	producer, err := nsq.NewProducer(cfg.NSQDHost, nsq.NewConfig())
	if err != nil {
		return nil, fmt.Errorf("nsq producer error: %w", err)
	}

	createTopics(cfg.NSQDHTTP)

	return &Dependencies{
		DB:          db,
		VectorStore: wstore.NewStore(wClient),
		Embedder:    embedder,
		LLM:         llm,
		NSQProducer: producer,
	}, nil
}

// createTopics pre-creates topics via the nsqd HTTP API. NSQ creates topics
// lazily on publish, but consumers querying lookupd 404 until then.
func createTopics(nsqdHTTP string) {
	go func() {
		time.Sleep(2 * time.Second)
		url := fmt.Sprintf("http://%s/topic/create?topic=%s", nsqdHTTP, config.TopicIngestRequest)
		resp, err := http.Post(url, "application/json", nil) // #nosec G107 -- URL is built from internal NSQ config, not user input
		if err != nil {
			slog.Warn("failed to create NSQ topic", "topic", config.TopicIngestRequest, "error", err)
			return
		}
		if closeErr := resp.Body.Close(); closeErr != nil {
			slog.Warn("failed to close NSQ topic creation response body", "error", closeErr)
		}
	}()
}

func ensureSchemaWithRetry(ctx context.Context, client *weaviate.Client, attempts int, delay time.Duration) error {
	adapter := vector.NewWeaviateClientAdapter(client)
	var err error
	for i := 0; i < attempts; i++ {
		if err = vector.EnsureSchema(ctx, adapter); err == nil {
			return nil
		}
		if i < attempts-1 {
			slog.Warn("failed to ensure weaviate schema, retrying...", "attempt", i+1, "error", err)
			time.Sleep(delay)
		}
	}
	return err
}
