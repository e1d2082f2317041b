package handler

import (
	"net/http"
	"path/filepath"
	"time"

	"github.com/pavelanni/tutorlens/internal/aggregate"
	"github.com/pavelanni/tutorlens/internal/dataset"
	"github.com/pavelanni/tutorlens/internal/evaluate"
	"github.com/pavelanni/tutorlens/internal/model"
)

func (h *Handler) handleCatalog(mode model.EvalMode) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		convs, ds, err := h.conversations(r.Context(), dataset.Evaluation)
		if err != nil {
			writeError(w, r, err)
			return
		}
		cat := evaluate.Catalog(convs, mode, h.config.JudgeAllowlist)
		cat.DataSource = filepath.Base(ds.Name)
		writeJSON(w, http.StatusOK, cat)
	}
}

func (h *Handler) handleContext(w http.ResponseWriter, r *http.Request) {
	var req model.ContextRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if err := evaluate.Validate(req); err != nil {
		writeError(w, r, err)
		return
	}
	convs, _, err := h.conversations(r.Context(), dataset.Evaluation)
	if err != nil {
		writeError(w, r, err)
		return
	}
	resp, err := evaluate.Context(convs, req.ProblemTopic)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleResults(mode model.EvalMode) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req model.ResultsRequest
		if err := decode(r, &req); err != nil {
			writeError(w, r, err)
			return
		}
		if err := evaluate.ValidateResults(req, mode); err != nil {
			writeError(w, r, err)
			return
		}
		convs, _, err := h.conversations(r.Context(), dataset.Evaluation)
		if err != nil {
			writeError(w, r, err)
			return
		}
		resp, err := h.lookup(convs, req, mode)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func (h *Handler) lookup(convs []model.Conversation, req model.ResultsRequest, mode model.EvalMode) (*model.ResultsResponse, error) {
	if mode == model.ModeLLM {
		return evaluate.LLMResults(convs, req, h.opts)
	}
	return evaluate.AutoResults(convs, req)
}

// handleSummary aggregates the visualization dataset. The optional "source"
// query parameter selects human (default), auto or llm scores and "judge"
// narrows llm scores to one judge.
func (h *Handler) handleSummary(w http.ResponseWriter, r *http.Request) {
	src, ok := aggregate.ParseSource(r.URL.Query().Get("source"))
	if !ok {
		writeError(w, r, &evaluate.ValidationError{Problems: []string{"source must be one of: human, auto, llm"}})
		return
	}
	convs, ds, err := h.conversations(r.Context(), dataset.Visualization)
	if err != nil {
		writeError(w, r, err)
		return
	}
	summary, err := aggregate.Aggregate(convs, aggregate.Options{Source: src, Judge: r.URL.Query().Get("judge")})
	if err != nil {
		writeError(w, r, err)
		return
	}
	summary.DatasetDigest = ds.Digest
	writeJSON(w, http.StatusOK, model.SummaryResponse{Success: true, Data: summary})
}

func (h *Handler) handleSaveFeedback(w http.ResponseWriter, r *http.Request) {
	var req model.FeedbackRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if err := evaluate.Validate(req); err != nil {
		writeError(w, r, err)
		return
	}
	id, err := h.feedback.Append(r.Context(), req)
	h.metrics.FeedbackAppend(err)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, model.FeedbackSaved{
		Success:    true,
		Message:    "Feedback saved successfully!",
		FeedbackID: id,
	})
}

func (h *Handler) handleQueryFeedback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	log, err := h.feedback.Query(r.Context(), model.FeedbackFilter{
		Module: q.Get("module"),
		Topic:  q.Get("problemTopic"),
		Tutor:  q.Get("tutor"),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, log)
}

func (h *Handler) handleLiveEval(mode model.EvalMode) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if h.judge == nil {
			writeJSON(w, http.StatusServiceUnavailable, model.ErrorResponse{
				Error:   "Live evaluation is disabled",
				Details: "no LLM endpoint configured",
			})
			return
		}
		var req model.LiveEvalRequest
		if err := decode(r, &req); err != nil {
			writeError(w, r, err)
			return
		}
		if err := evaluate.Validate(req); err != nil {
			writeError(w, r, err)
			return
		}
		start := time.Now()
		res, err := h.judge.Evaluate(r.Context(), req, mode)
		h.metrics.JudgeCall(string(mode), time.Since(start), err)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}
