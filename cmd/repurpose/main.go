// Command repurpose starts the content-repurposing HTTP service:
// transcript/document ingestion, the two-stage ideation/materialization
// pipeline, the Brain knowledge base, and the streaming progress
// protocol, wired over the repository layer's chosen database driver.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hsnsaboor/repurpose/pkg/brain"
	"github.com/hsnsaboor/repurpose/pkg/config"
	"github.com/hsnsaboor/repurpose/pkg/document"
	"github.com/hsnsaboor/repurpose/pkg/editor"
	"github.com/hsnsaboor/repurpose/pkg/ideation"
	"github.com/hsnsaboor/repurpose/pkg/llm"
	"github.com/hsnsaboor/repurpose/pkg/logger"
	"github.com/hsnsaboor/repurpose/pkg/materialize"
	"github.com/hsnsaboor/repurpose/pkg/progress"
	"github.com/hsnsaboor/repurpose/pkg/ratelimit"
	"github.com/hsnsaboor/repurpose/pkg/repository"
	"github.com/hsnsaboor/repurpose/pkg/server"
	"github.com/hsnsaboor/repurpose/pkg/task"
	"github.com/hsnsaboor/repurpose/pkg/transcript"
	"github.com/hsnsaboor/repurpose/pkg/vector"
)

func main() {
	logger.Init(slog.LevelInfo, os.Stderr, "simple")
	log := logger.GetLogger()

	settings, err := config.Load(config.LoadOptions{DotEnvPath: ".env", ConfigPath: os.Getenv("REPURPOSE_CONFIG")})
	if err != nil {
		log.Error("loading configuration", "error", err)
		os.Exit(1)
	}
	if err := settings.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	if err := run(settings, log); err != nil {
		log.Error("server exited with error", "error", err)
		os.Exit(1)
	}
}

func run(settings *config.Settings, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	repo, err := repository.Open(ctx, settings.DBDriver, settings.DBDSN)
	if err != nil {
		return err
	}
	defer func() { _ = repo.Close() }()

	limiter := ratelimit.New(
		ratelimit.WithRPM(settings.RateLimitRPM),
		ratelimit.WithDailyCap(settings.RateLimitDaily),
		ratelimit.WithLogger(log),
	)

	llmClient := llm.New(llm.Config{
		APIKey:  settings.LLMAPIKey,
		BaseURL: settings.LLMBaseURL,
		Model:   settings.LLMModel,
	}, limiter)

	acquirer := transcript.NewAcquirer(transcript.NewHTTPProvider(), transcript.NewCache(0))
	documents := document.NewRegistry()
	urls := document.NewURLExtractor()

	ideationEngine := ideation.New(llmClient)
	materializeEngine := materialize.New(llmClient, materialize.WithLogger(log))
	contentEditor := editor.New(llmClient)

	surrogate := vector.NewTFIDFSurrogate(vector.DefaultDimension)
	store := vector.NewMemoryStore()
	indexer := brain.NewIndexer(llmClient, surrogate, store, repo)
	retriever := brain.NewRetriever(surrogate, store, repo)
	composer := brain.NewComposer(retriever, repo, ideationEngine, materializeEngine, repo)

	progressStore := progress.NewStore()
	taskManager := task.New(progressStore)

	styles := config.NewStyleRegistry()
	limits := config.DefaultFieldLimits()

	srv := server.New(server.Deps{
		Acquirer:     acquirer,
		Documents:    documents,
		URLs:         urls,
		Ideation:     ideationEngine,
		Materializer: materializeEngine,
		Editor:       contentEditor,
		Indexer:      indexer,
		Retriever:    retriever,
		Composer:     composer,
		Repo:         repo,
		Tasks:        taskManager,
		Progress:     progressStore,
		Styles:       styles,
		Limits:       limits,
		Logger:       log,
	})

	httpServer := &http.Server{
		Addr:    settings.ListenAddr,
		Handler: srv.Routes(),
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", "addr", settings.ListenAddr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}
