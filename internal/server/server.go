package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/voyagen/mediaorganizer/internal/config"
	"github.com/voyagen/mediaorganizer/internal/models"
	"github.com/voyagen/mediaorganizer/internal/store"
)

// Dispatcher is the trigger surface the API enqueues work through.
// Handlers never call upstream or AI services themselves.
type Dispatcher interface {
	EnqueueSync(ctx context.Context, kind models.Kind) error
	EnqueueAnalyze(ctx context.Context, id int64) error
	EnqueueAnalyzeAll(ctx context.Context, kind models.Kind) (int, error)
	EnqueueAnalyzeQuick(ctx context.Context, kind models.Kind) (int, error)
	EnqueueAnalyzeSelected(ctx context.Context, ids []int64) (int, error)
	QueueDepth(ctx context.Context) (int64, error)
	ClearQueue(ctx context.Context) (int64, error)
}

// Server holds dependencies for the HTTP API.
type Server struct {
	store  store.Store
	jobs   Dispatcher
	cfg    *config.Config
	logger logrus.FieldLogger
	mux    *http.ServeMux
}

// New creates a Server and registers routes.
func New(s store.Store, jobs Dispatcher, cfg *config.Config, logger logrus.FieldLogger) *Server {
	srv := &Server{store: s, jobs: jobs, cfg: cfg, logger: logger.WithField("component", "http"), mux: http.NewServeMux()}
	srv.routes()
	return srv
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /api/health", s.handleHealth)
	s.mux.HandleFunc("GET /api/dashboard", s.handleDashboard)

	// Settings
	s.mux.HandleFunc("GET /api/settings", s.handleGetSettings)
	s.mux.HandleFunc("PUT /api/settings", s.handleUpdateSettings)

	// Media
	s.mux.HandleFunc("GET /api/media/{kind}", s.handleListMedia)
	s.mux.HandleFunc("POST /api/media/{kind}/sync", s.handleSync)
	s.mux.HandleFunc("POST /api/media/{kind}/analyze-all", s.handleAnalyzeAll)
	s.mux.HandleFunc("POST /api/media/{kind}/analyze-quick", s.handleAnalyzeQuick)
	s.mux.HandleFunc("POST /api/analyze-selected", s.handleAnalyzeSelected)

	// Items
	s.mux.HandleFunc("POST /api/items/{id}/ignore", s.handleIgnoreItem)
	s.mux.HandleFunc("POST /api/items/{id}/rescan", s.handleRescanItem)

	// Queue
	s.mux.HandleFunc("GET /api/queue", s.handleQueueStatus)
	s.mux.HandleFunc("POST /api/queue/clear", s.handleClearQueue)

	// Docs
	s.mux.HandleFunc("GET /api/docs", handleSwaggerUI)
	s.mux.HandleFunc("GET /api/docs/openapi.yaml", handleOpenAPISpec)
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// Handler returns the API wrapped in CORS and access logging middleware.
func (s *Server) Handler() http.Handler {
	return withCORS(withLogging(s.logger, s))
}

// ListenAndServe starts the HTTP server on the configured port.
// It blocks until the server is shut down or ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	addr := ":" + s.cfg.ServerPort
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Graceful shutdown on context cancellation.
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			s.logger.WithError(err).Error("server shutdown")
		}
	}()

	s.logger.WithField("addr", addr).Info("listening")
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("ListenAndServe: %w", err)
	}
	return nil
}

// --- handlers ---

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type dashboardResponse struct {
	Total          int `json:"total"`
	Organized      int `json:"organized"`
	NeedsAttention int `json:"needs_attention"`
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	organized := true

	var resp dashboardResponse
	var err error
	if resp.Total, err = s.store.CountItems(ctx, store.ItemFilter{}); err != nil {
		s.writeErr(w, http.StatusInternalServerError, err)
		return
	}
	if resp.Organized, err = s.store.CountItems(ctx, store.ItemFilter{Organized: &organized}); err != nil {
		s.writeErr(w, http.StatusInternalServerError, err)
		return
	}
	if resp.NeedsAttention, err = s.store.CountItems(ctx, store.NeedsAttention(nil)); err != nil {
		s.writeErr(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// --- settings handlers ---

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	st, err := s.store.EnsureSettings(r.Context())
	if err != nil {
		s.writeErr(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

type updateSettingsRequest struct {
	RadarrURL    string `json:"radarr_url"`
	RadarrAPIKey string `json:"radarr_api_key"`
	SonarrURL    string `json:"sonarr_url"`
	SonarrAPIKey string `json:"sonarr_api_key"`
	AIAPIKey     string `json:"ai_api_key"`
	AIModel      string `json:"ai_model"`
	PromptRules  string `json:"prompt_rules"`
}

func (s *Server) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req updateSettingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeErr(w, http.StatusBadRequest, fmt.Errorf("invalid JSON: %w", err))
		return
	}
	st := &models.Settings{
		RadarrURL:    req.RadarrURL,
		RadarrAPIKey: req.RadarrAPIKey,
		SonarrURL:    req.SonarrURL,
		SonarrAPIKey: req.SonarrAPIKey,
		AIAPIKey:     req.AIAPIKey,
		AIModel:      req.AIModel,
		PromptRules:  req.PromptRules,
	}
	if st.AIModel == "" {
		st.AIModel = models.DefaultAIModel
	}
	if err := s.store.UpdateSettings(r.Context(), st); err != nil {
		s.writeErr(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// --- media handlers ---

func (s *Server) handleListMedia(w http.ResponseWriter, r *http.Request) {
	kind, err := parseKind(r)
	if err != nil {
		s.writeErr(w, http.StatusBadRequest, err)
		return
	}

	q := r.URL.Query()
	filter := store.NeedsAttention(&kind)
	filter.Sort = store.ParseSortField(q.Get("sort"))
	order := "asc"
	if q.Get("order") == "desc" {
		filter.Desc = true
		order = "desc"
	}

	items, err := s.store.ListItems(r.Context(), filter)
	if err != nil {
		s.writeErr(w, http.StatusInternalServerError, err)
		return
	}
	if items == nil {
		items = []models.MediaItem{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"kind":  kind,
		"items": items,
		"sort":  filter.Sort,
		"order": order,
	})
}

func (s *Server) handleSync(w http.ResponseWriter, r *http.Request) {
	kind, err := parseKind(r)
	if err != nil {
		s.writeErr(w, http.StatusBadRequest, err)
		return
	}
	if err := s.jobs.EnqueueSync(r.Context(), kind); err != nil {
		s.writeErr(w, http.StatusInternalServerError, err)
		return
	}
	writeAccepted(w, 1, fmt.Sprintf("%s sync started", kind.Service()))
}

func (s *Server) handleAnalyzeAll(w http.ResponseWriter, r *http.Request) {
	kind, err := parseKind(r)
	if err != nil {
		s.writeErr(w, http.StatusBadRequest, err)
		return
	}
	n, err := s.jobs.EnqueueAnalyzeAll(r.Context(), kind)
	if err != nil {
		s.writeErr(w, http.StatusInternalServerError, err)
		return
	}
	writeAccepted(w, n, fmt.Sprintf("queued analysis for %d items", n))
}

func (s *Server) handleAnalyzeQuick(w http.ResponseWriter, r *http.Request) {
	kind, err := parseKind(r)
	if err != nil {
		s.writeErr(w, http.StatusBadRequest, err)
		return
	}
	n, err := s.jobs.EnqueueAnalyzeQuick(r.Context(), kind)
	if err != nil {
		s.writeErr(w, http.StatusInternalServerError, err)
		return
	}
	writeAccepted(w, n, fmt.Sprintf("queued quick analysis for %d new items", n))
}

type analyzeSelectedRequest struct {
	ItemIDs []int64 `json:"item_ids"`
}

func (s *Server) handleAnalyzeSelected(w http.ResponseWriter, r *http.Request) {
	var req analyzeSelectedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeErr(w, http.StatusBadRequest, fmt.Errorf("invalid JSON: %w", err))
		return
	}
	if len(req.ItemIDs) == 0 {
		s.writeErr(w, http.StatusBadRequest, fmt.Errorf("no items selected"))
		return
	}
	n, err := s.jobs.EnqueueAnalyzeSelected(r.Context(), req.ItemIDs)
	if err != nil {
		s.writeErr(w, http.StatusInternalServerError, err)
		return
	}
	writeAccepted(w, n, fmt.Sprintf("queued analysis for %d selected items", n))
}

// --- item handlers ---

func (s *Server) handleIgnoreItem(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		s.writeErr(w, http.StatusBadRequest, err)
		return
	}
	if err := s.store.SetIgnored(r.Context(), id, true); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.writeErr(w, http.StatusNotFound, fmt.Errorf("item %d not found", id))
			return
		}
		s.writeErr(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"item_id": id,
		"ignored": true,
	})
}

func (s *Server) handleRescanItem(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		s.writeErr(w, http.StatusBadRequest, err)
		return
	}
	if err := s.jobs.EnqueueAnalyze(r.Context(), id); err != nil {
		s.writeErr(w, http.StatusInternalServerError, err)
		return
	}
	writeAccepted(w, 1, "queued")
}

// --- queue handlers ---

func (s *Server) handleQueueStatus(w http.ResponseWriter, r *http.Request) {
	n, err := s.jobs.QueueDepth(r.Context())
	if err != nil {
		s.writeErr(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"count": n})
}

func (s *Server) handleClearQueue(w http.ResponseWriter, r *http.Request) {
	n, err := s.jobs.ClearQueue(r.Context())
	if err != nil {
		s.writeErr(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"dropped": n,
		"message": "queue cleared",
	})
}
