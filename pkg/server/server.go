// Package server implements the HTTP surface: ingestion
// and generation endpoints, the Brain CRUD/search/generate endpoints,
// the Content Editor endpoint, and the style/field-limits inspection
// endpoints, all fanning out to the task-scoped Progress Store for the
// streaming variants.
//
// Grounded on pkg/transport (chi middleware, a
// Flusher-preserving responseWriter wrapper for SSE) rather than its
// pkg/server, which is built entirely around the A2A agent protocol and
// has no analogue here.
package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/hsnsaboor/repurpose/pkg/brain"
	"github.com/hsnsaboor/repurpose/pkg/config"
	"github.com/hsnsaboor/repurpose/pkg/content"
	"github.com/hsnsaboor/repurpose/pkg/document"
	"github.com/hsnsaboor/repurpose/pkg/editor"
	"github.com/hsnsaboor/repurpose/pkg/ideation"
	"github.com/hsnsaboor/repurpose/pkg/materialize"
	"github.com/hsnsaboor/repurpose/pkg/progress"
	"github.com/hsnsaboor/repurpose/pkg/registry"
	"github.com/hsnsaboor/repurpose/pkg/repository"
	"github.com/hsnsaboor/repurpose/pkg/task"
	"github.com/hsnsaboor/repurpose/pkg/transcript"
)

// taskCeiling is the per-generation-task hard ceiling: a
// task that runs past this transitions to error/TIMEOUT rather than
// hanging a worker slot forever.
const taskCeiling = 5 * time.Minute

// backgroundIndexTimeout bounds the best-effort Brain-index task
// enqueued after a generation pipeline's terminal complete event. It
// runs detached from the request/task context, so a slow or failing
// indexing call never blocks or fails the generation the caller is
// already waiting on.
const backgroundIndexTimeout = 2 * time.Minute

// Server wires every already-built component into request handlers. It
// holds no business logic of its own beyond request parsing, task
// orchestration, and response shaping.
type Server struct {
	acquirer     *transcript.Acquirer
	documents    *document.Registry
	urls         *document.URLExtractor
	ideation     *ideation.Engine
	materializer *materialize.Engine
	editor       *editor.Editor
	indexer      *brain.Indexer
	retriever    *brain.Retriever
	composer     *brain.Composer
	repo         *repository.Repository
	tasks        *task.Manager
	progress     *progress.Store
	styles       *registry.BaseRegistry[*config.Style]
	limits       *config.FieldLimits
	log          *slog.Logger
}

// Deps bundles every collaborator New requires, so wiring order in
// cmd/repurpose's main stays linear and explicit.
type Deps struct {
	Acquirer     *transcript.Acquirer
	Documents    *document.Registry
	URLs         *document.URLExtractor
	Ideation     *ideation.Engine
	Materializer *materialize.Engine
	Editor       *editor.Editor
	Indexer      *brain.Indexer
	Retriever    *brain.Retriever
	Composer     *brain.Composer
	Repo         *repository.Repository
	Tasks        *task.Manager
	Progress     *progress.Store
	Styles       *registry.BaseRegistry[*config.Style]
	Limits       *config.FieldLimits
	Logger       *slog.Logger
}

func New(d Deps) *Server {
	log := d.Logger
	if log == nil {
		log = slog.Default()
	}
	limits := d.Limits
	if limits == nil {
		limits = config.DefaultFieldLimits()
	}
	return &Server{
		acquirer:     d.Acquirer,
		documents:    d.Documents,
		urls:         d.URLs,
		ideation:     d.Ideation,
		materializer: d.Materializer,
		editor:       d.Editor,
		indexer:      d.Indexer,
		retriever:    d.Retriever,
		composer:     d.Composer,
		repo:         d.Repo,
		tasks:        d.Tasks,
		progress:     d.Progress,
		styles:       d.Styles,
		limits:       limits,
		log:          log,
	}
}

// indexBrainSourceAsync enqueues src for Brain indexing as a follow-up
// task after the primary pipeline has already emitted its complete
// event. Indexing failures are logged, never surfaced to the caller —
// indexing is a best-effort enrichment, not a precondition for
// generation having succeeded.
func (s *Server) indexBrainSourceAsync(src *content.Source) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), backgroundIndexTimeout)
		defer cancel()
		if _, err := s.indexer.Index(ctx, src); err != nil {
			s.log.Warn("background brain indexing failed", "source_id", src.ID, "error", err)
		}
	}()
}

// Routes builds the full chi router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)

	r.Post("/transcribe/", s.handleTranscribe)
	r.Post("/transcribe-enhanced/", s.handleTranscribeEnhanced)
	r.Get("/analyze-transcripts/{videoID}", s.handleAnalyzeTranscripts)

	r.Post("/process-video/", s.handleProcessVideo)
	r.Post("/process-video-stream/", s.handleProcessVideoStream)
	r.Post("/process-videos-bulk/", s.handleProcessVideosBulk)

	r.Post("/process-document/", s.handleProcessDocument)
	r.Post("/process-document-stream/", s.handleProcessDocumentStream)

	r.Route("/brain", func(r chi.Router) {
		r.Post("/sources/", s.handleCreateSource)
		r.Get("/sources/", s.handleListSources)
		r.Get("/sources/{id}", s.handleGetSource)
		r.Patch("/sources/{id}", s.handlePatchSource)
		r.Delete("/sources/{id}", s.handleDeleteSource)
		r.Post("/search", s.handleBrainSearch)
		r.Post("/generate/vision", s.handleBrainGenerateVision)
		r.Post("/generate/auto", s.handleBrainGenerateAuto)
		r.Post("/generate/hybrid", s.handleBrainGenerateHybrid)
	})

	r.Post("/edit-content/", s.handleEditContent)

	r.Get("/content-styles/presets/", s.handleListPresets)
	r.Get("/content-styles/presets/{name}", s.handleGetPreset)
	r.Get("/content-config/default", s.handleDefaultFieldLimits)
	r.Get("/content-config/current", s.handleCurrentFieldLimits)
	r.Get("/content-config/schema/{type}", s.handleContentSchema)

	r.Get("/tasks/{taskID}/stream", s.handleTaskStream)

	return r
}
