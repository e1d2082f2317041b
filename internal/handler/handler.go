// Package handler serves the dashboard's JSON API and HTML pages.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/pavelanni/tutorlens/internal/aggregate"
	"github.com/pavelanni/tutorlens/internal/dataset"
	"github.com/pavelanni/tutorlens/internal/evaluate"
	"github.com/pavelanni/tutorlens/internal/llm"
	"github.com/pavelanni/tutorlens/internal/metrics"
	"github.com/pavelanni/tutorlens/internal/model"
	"github.com/pavelanni/tutorlens/internal/scoring"
	"github.com/pavelanni/tutorlens/internal/store"
)

// Handler holds shared dependencies for HTTP handlers.
type Handler struct {
	loader   *dataset.Loader
	feedback *store.Feedback
	judge    *llm.Judge // nil disables live evaluation
	metrics  *metrics.Metrics
	config   model.DashboardConfig
	opts     evaluate.Options
	norm     dataset.NormalizeOptions
}

// New creates a new Handler.
func New(l *dataset.Loader, fb *store.Feedback, j *llm.Judge, m *metrics.Metrics, cfg model.DashboardConfig) (*Handler, error) {
	mode, err := scoring.ParseTieMode(cfg.TieMode)
	if err != nil {
		return nil, err
	}
	if m == nil {
		m = metrics.New()
	}
	return &Handler{
		loader:   l,
		feedback: fb,
		judge:    j,
		metrics:  m,
		config:   cfg,
		opts:     evaluate.Options{TieMode: mode, JudgeAllowlist: cfg.JudgeAllowlist},
		norm:     dataset.NormalizeOptions{AutoFallbackToHuman: cfg.AutoFallbackToHuman},
	}, nil
}

// Routes registers all HTTP routes.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.handleIndex)
	r.Get("/compare", h.handleCompare)
	r.Get("/dataset", h.handleDatasetPage)
	r.Get("/healthz", h.handleHealth)
	r.Handle("/metrics", h.metrics.Handler())

	r.Route("/api", func(api chi.Router) {
		api.Get("/autoeval-data", h.handleCatalog(model.ModeAuto))
		api.Get("/llmeval-data", h.handleCatalog(model.ModeLLM))
		api.Post("/autoeval-context", h.handleContext)
		api.Post("/llmeval-context", h.handleContext)
		api.Post("/autoeval-results", h.handleResults(model.ModeAuto))
		api.Post("/llmeval-results", h.handleResults(model.ModeLLM))
		api.Get("/backend-dataset", h.handleSummary)
		api.Post("/save-feedback", h.handleSaveFeedback)
		api.Get("/save-feedback", h.handleQueryFeedback)
		api.Post("/autoeval", h.handleLiveEval(model.ModeAuto))
		api.Post("/llmeval", h.handleLiveEval(model.ModeLLM))
	})
}

// BasePathMiddleware injects the configured base path into the request context.
func (h *Handler) BasePathMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := model.ContextWithBasePath(r.Context(), h.config.BasePath)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Metrics returns the collectors the handler reports to.
func (h *Handler) Metrics() *metrics.Metrics { return h.metrics }

// conversations loads and normalizes a dataset. Every call rereads the source.
func (h *Handler) conversations(ctx context.Context, kind dataset.Kind) ([]model.Conversation, *dataset.Dataset, error) {
	ds, err := h.loader.Load(ctx, kind)
	switch {
	case errors.Is(err, dataset.ErrDatasetNotFound):
		h.metrics.DatasetLoad(string(kind), metrics.OutcomeNotFound)
		return nil, nil, err
	case err != nil:
		h.metrics.DatasetLoad(string(kind), metrics.OutcomeError)
		return nil, nil, err
	}
	h.metrics.DatasetLoad(string(kind), metrics.OutcomeOK)
	return ds.Conversations(h.norm), ds, nil
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "liveJudge": h.judge != nil})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response", "error", err)
	}
}

// statusFor maps an error onto an HTTP status and a client-facing message.
func statusFor(err error) (int, string) {
	var ve *evaluate.ValidationError
	switch {
	case errors.As(err, &ve):
		return http.StatusBadRequest, "Invalid request"
	case errors.Is(err, evaluate.ErrNotFound):
		return http.StatusNotFound, "Not found"
	case errors.Is(err, dataset.ErrDatasetNotFound):
		return http.StatusInternalServerError, "Dataset file not found"
	case errors.Is(err, dataset.ErrMalformedDataset), errors.Is(err, aggregate.ErrEmptyDataset):
		return http.StatusInternalServerError, "Dataset is empty or not in expected format"
	}
	return http.StatusInternalServerError, "Internal error"
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, msg := statusFor(err)
	if status >= http.StatusInternalServerError {
		slog.Error("request failed", "path", r.URL.Path, "error", err)
	} else {
		slog.Debug("request rejected", "path", r.URL.Path, "error", err)
	}
	writeJSON(w, status, model.ErrorResponse{Error: msg, Details: details(err)})
}

func details(err error) string {
	var ve *evaluate.ValidationError
	if errors.As(err, &ve) {
		return strings.Join(ve.Problems, "; ")
	}
	return err.Error()
}

func decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return &evaluate.ValidationError{Problems: []string{fmt.Sprintf("malformed JSON body: %v", err)}}
	}
	return nil
}
