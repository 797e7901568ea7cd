package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/karan-callify/backend/internal/api"
	"github.com/karan-callify/backend/internal/callflow"
	"github.com/karan-callify/backend/internal/config"
	"github.com/karan-callify/backend/internal/docextract"
	"github.com/karan-callify/backend/internal/gemini"
	"github.com/karan-callify/backend/internal/hermes"
	"github.com/karan-callify/backend/internal/llm"
	"github.com/karan-callify/backend/internal/openai"
	"github.com/karan-callify/backend/internal/reqlog"
	"github.com/karan-callify/backend/internal/store"
	"github.com/karan-callify/backend/internal/uploads"
)

const shutdownTimeout = 30 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load .env", "error", err)
		os.Exit(1)
	}
	setupLogging(cfg.LogLevel)

	slog.Info("callify starting", "port", cfg.Port, "llm_provider", cfg.LLMProvider)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	completer, err := newCompleter(ctx, cfg)
	if err != nil {
		slog.Error("failed to configure llm provider", "error", err)
		os.Exit(1)
	}

	stager, err := newStager(ctx, cfg)
	if err != nil {
		slog.Error("failed to configure upload staging", "error", err)
		os.Exit(1)
	}

	svc := callflow.New(completer, newExtractor(cfg, stager), slog.Default())
	svc.SetStripMode(callflow.ParseStripMode(cfg.NormalizeMode))

	deps := api.Deps{
		Generator: svc,
		Stager:    stager,
		Logger:    slog.Default(),
	}

	// Database (optional; without it request logs only go to stdout)
	if cfg.DatabaseURL != "" {
		db, err := store.New(ctx, cfg.DatabaseURL)
		if err != nil {
			slog.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		if err := db.Migrate(ctx); err != nil {
			slog.Error("failed to migrate database", "error", err)
			os.Exit(1)
		}
		deps.LogSink = db
		deps.Logs = db
		slog.Info("database connected")
	} else {
		slog.Warn("DATABASE_URL not set, request logs will not be persisted")
	}

	// NATS/Hermes (optional)
	if cfg.NatsURL != "" {
		hermesClient, err := hermes.NewClient(ctx, cfg.NatsURL, cfg.NatsToken, slog.Default())
		if err != nil {
			slog.Error("failed to connect to NATS", "error", err)
			os.Exit(1)
		}
		defer hermesClient.Close()
		deps.Events = hermesClient
		slog.Info("NATS connected", "url", cfg.NatsURL)
	}

	srv := api.NewServer(cfg.Port, deps)
	go func() {
		if err := srv.Start(); err != nil {
			slog.Error("HTTP server error", "error", err)
			cancel()
		}
	}()

	slog.Info("callify ready", "port", cfg.Port)

	// Graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sigCh:
	case <-ctx.Done():
	}
	slog.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Warn("HTTP shutdown incomplete", "error", err)
	}
	slog.Info("callify stopped")
}

func newCompleter(ctx context.Context, cfg config.Config) (llm.Completer, error) {
	switch cfg.LLMProvider {
	case "openai":
		if cfg.OpenAIAPIKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY is required")
		}
		c := openai.NewClient(cfg.OpenAIAPIKey, cfg.OpenAIModel, cfg.OpenAITimeout)
		c.SetBaseURL(cfg.OpenAIBaseURL)
		slog.Info("openai client ready", "model", c.Model())
		return c, nil
	case "gemini":
		c, err := gemini.NewClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, "")
		if err != nil {
			return nil, err
		}
		slog.Info("gemini client ready", "model", c.Model())
		return c, nil
	default:
		return nil, fmt.Errorf("unknown LLM_PROVIDER %q", cfg.LLMProvider)
	}
}

func newStager(ctx context.Context, cfg config.Config) (uploads.Stager, error) {
	if cfg.UploadS3Bucket != "" {
		s, err := uploads.NewS3(ctx, uploads.S3Config{
			Bucket:    cfg.UploadS3Bucket,
			Region:    cfg.UploadS3Region,
			Endpoint:  cfg.UploadS3Endpoint,
			AccessKey: cfg.UploadS3AccessKey,
			SecretKey: cfg.UploadS3SecretKey,
		})
		if err != nil {
			return nil, err
		}
		slog.Info("staging uploads in bucket", "bucket", cfg.UploadS3Bucket)
		return s, nil
	}
	d, err := uploads.NewDisk(cfg.UploadDir)
	if err != nil {
		return nil, err
	}
	slog.Info("staging uploads on disk", "dir", d.Dir())
	return d, nil
}

// newExtractor prefers the remote extraction API. Without one, disk-staged
// uploads are read directly; bucket-staged uploads get no document text.
func newExtractor(cfg config.Config, stager uploads.Stager) docextract.Extractor {
	if cfg.DocExtractURL != "" {
		return docextract.NewClient(cfg.DocExtractURL, cfg.DocExtractTimeout, slog.Default())
	}
	if d, ok := stager.(*uploads.Disk); ok {
		slog.Info("DOC_EXTRACT_API_URL not set, extracting uploads locally")
		return docextract.NewLocal(d.Dir(), slog.Default())
	}
	slog.Warn("DOC_EXTRACT_API_URL not set, job descriptions will be ignored")
	return nil
}

func setupLogging(level string) {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	slog.SetDefault(slog.New(reqlog.NewHandler(handler)))
}
