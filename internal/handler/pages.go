package handler

import (
	"log/slog"
	"net/http"

	"github.com/a-h/templ"

	"github.com/pavelanni/tutorlens/internal/aggregate"
	"github.com/pavelanni/tutorlens/internal/dataset"
	"github.com/pavelanni/tutorlens/internal/evaluate"
	"github.com/pavelanni/tutorlens/internal/handler/views"
	"github.com/pavelanni/tutorlens/internal/model"
	"github.com/pavelanni/tutorlens/internal/scoring"
)

func render(w http.ResponseWriter, r *http.Request, status int, c templ.Component) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := c.Render(r.Context(), w); err != nil {
		slog.Error("render error", "error", err)
	}
}

func (h *Handler) handleIndex(w http.ResponseWriter, r *http.Request) {
	convs, _, err := h.conversations(r.Context(), dataset.Evaluation)
	if err != nil {
		slog.Error("load dataset", "error", err)
		status, msg := statusFor(err)
		http.Error(w, msg, status)
		return
	}
	auto := evaluate.Catalog(convs, model.ModeAuto, nil)
	llm := evaluate.Catalog(convs, model.ModeLLM, h.config.JudgeAllowlist)
	render(w, r, http.StatusOK, views.IndexPage(auto, llm))
}

// handleCompare renders the results page. Missing query parameters default
// to the first topic, tutor and judge of the catalog, and every dimension
// is shown.
func (h *Handler) handleCompare(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	mode := model.EvalMode(q.Get("mode"))
	if mode != model.ModeLLM {
		mode = model.ModeAuto
	}
	convs, _, err := h.conversations(r.Context(), dataset.Evaluation)
	if err != nil {
		slog.Error("load dataset", "error", err)
		status, msg := statusFor(err)
		http.Error(w, msg, status)
		return
	}
	cat := evaluate.Catalog(convs, mode, h.config.JudgeAllowlist)
	data := views.CompareData{Mode: mode, Models: cat.Models, Judges: cat.JudgeLLMs}

	req := model.ResultsRequest{
		ProblemTopic:       first(q.Get("topic"), cat.ProblemTopics),
		SelectedModel:      first(q.Get("model"), cat.Models),
		SelectedDimensions: cat.Dimensions,
	}
	if mode == model.ModeLLM {
		req.JudgeLLM = first(q.Get("judge"), cat.JudgeLLMs)
	}
	res, err := h.lookup(convs, req, mode)
	if err != nil {
		status, _ := statusFor(err)
		data.Message = details(err)
		render(w, r, status, views.ComparePage(data))
		return
	}
	data.Result = res
	data.Radar = views.RadarFor(res, scoring.NumericEquivalent)
	render(w, r, http.StatusOK, views.ComparePage(data))
}

func (h *Handler) handleDatasetPage(w http.ResponseWriter, r *http.Request) {
	convs, ds, err := h.conversations(r.Context(), dataset.Visualization)
	if err != nil {
		slog.Error("load dataset", "error", err)
		render(w, r, http.StatusInternalServerError, views.DatasetPage(nil))
		return
	}
	summary, err := aggregate.Aggregate(convs, aggregate.Options{Source: aggregate.SourceHuman})
	if err != nil {
		slog.Error("aggregate dataset", "error", err)
		render(w, r, http.StatusInternalServerError, views.DatasetPage(nil))
		return
	}
	summary.DatasetDigest = ds.Digest
	render(w, r, http.StatusOK, views.DatasetPage(summary))
}

func first(v string, options []string) string {
	if v != "" || len(options) == 0 {
		return v
	}
	return options[0]
}
