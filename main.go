package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/nsqio/go-nsq"

	"edugen/internal/app"
	"edugen/internal/config"
	"edugen/internal/logger"
)

func main() {
	slog.SetDefault(slog.New(logger.NewContextHandler(slog.NewJSONHandler(os.Stdout, nil))))

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	deps, err := app.Bootstrap(ctx, cfg)
	if err != nil {
		slog.Error("bootstrap failed", "error", err)
		os.Exit(1)
	}
	defer deps.DB.Close()
	defer deps.Embedder.Close()
	defer deps.LLM.Close()

	application, err := app.New(cfg, deps.DB, deps.VectorStore, deps.Embedder, deps.LLM, deps.NSQProducer)
	if err != nil {
		slog.Error("failed to build app", "error", err)
		os.Exit(1)
	}

	if cfg.EnableIngestWorker {
		consumer, err := nsq.NewConsumer(config.TopicIngestRequest, "ingest-worker", nsq.NewConfig())
		if err != nil {
			slog.Error("failed to create NSQ consumer", "error", err)
			os.Exit(1)
		}
		consumer.AddHandler(application.IngestConsumer)
		if err := consumer.ConnectToNSQLookupd(cfg.NSQLookupd); err != nil {
			slog.Error("failed to connect to NSQLookupd", "error", err)
			os.Exit(1)
		}
		defer consumer.Stop()
		slog.Info("ingest worker connected", "topic", config.TopicIngestRequest)
	}

	if cfg.EnableAPI {
		if err := application.Run(ctx); err != nil {
			slog.Error("server failed", "error", err)
			os.Exit(1)
		}
	} else {
		<-ctx.Done()
	}

	slog.Info("shutdown complete")
}
