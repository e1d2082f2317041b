package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pavelanni/tutorlens/internal/dataset"
	"github.com/pavelanni/tutorlens/internal/i18n"
	"github.com/pavelanni/tutorlens/internal/llm"
	"github.com/pavelanni/tutorlens/internal/model"
	"github.com/pavelanni/tutorlens/internal/store"
)

const fixture = `[{
  "conversation_id": "c1",
  "Problem_topic": "Quadratic Functions",
  "conversation_history": "Student: how do I factor x^2+5x+6?",
  "Ground_Truth_Solution": "(x+2)(x+3)",
  "anno_llm_responses": {
    "GPT-4": {
      "response": "Find two numbers that multiply to 6.",
      "annotation": {"Mistake_Identification": "Yes", "Coherence": "Yes"},
      "auto_annotation": {"Mistake_Identification": 0.9, "Coherence": 0.8},
      "llm_annotation": {"Mistake_Identification/GPT5": "Yes", "Coherence/GPT5": "No"}
    },
    "Claude": {
      "response": "Use the quadratic formula.",
      "annotation": {"Mistake_Identification": "To some extent", "Coherence": "No"},
      "auto_annotation": {"Mistake_Identification": 0.9, "Coherence": 0.5},
      "llm_annotation": {"Mistake_Identification/GPT5": "Yes", "Coherence/GPT5": "Yes"}
    }
  }
}]`

type env struct {
	router   http.Handler
	feedback *store.Feedback
}

func setup(t *testing.T, datasetBody string, judge *llm.Judge) env {
	t.Helper()
	require.NoError(t, i18n.Init("en"))

	path := filepath.Join(t.TempDir(), "eval.json")
	require.NoError(t, os.WriteFile(path, []byte(datasetBody), 0o644))

	db, err := store.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	fb := store.NewFeedback(db, "")

	h, err := New(dataset.NewLoader(path, "", dataset.S3Options{}), fb, judge, nil, model.DashboardConfig{})
	require.NoError(t, err)

	r := chi.NewRouter()
	r.Use(h.Metrics().Middleware)
	r.Use(i18n.Middleware("en"))
	r.Use(h.BasePathMiddleware)
	h.Routes(r)
	return env{router: r, feedback: fb}
}

func (e env) do(t *testing.T, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestNewRejectsUnknownTieMode(t *testing.T) {
	_, err := New(dataset.NewLoader("x.json", "", dataset.S3Options{}), nil, nil, nil, model.DashboardConfig{TieMode: "fuzzy"})
	assert.Error(t, err)
}

func TestCatalog(t *testing.T) {
	e := setup(t, fixture, nil)

	rec := e.do(t, http.MethodGet, "/api/llmeval-data", "")
	require.Equal(t, http.StatusOK, rec.Code)
	cat := decodeBody[model.Catalog](t, rec)
	assert.True(t, cat.Success)
	assert.Equal(t, []string{"Quadratic Functions"}, cat.ProblemTopics)
	assert.Equal(t, []string{"Claude", "GPT-4"}, cat.Models)
	assert.Equal(t, []string{"Mistake_Identification", "Coherence"}, cat.Dimensions)
	assert.Equal(t, []string{"GPT5"}, cat.JudgeLLMs)
	assert.Equal(t, "eval.json", cat.DataSource)
}

func TestContext(t *testing.T) {
	e := setup(t, fixture, nil)

	rec := e.do(t, http.MethodPost, "/api/autoeval-context", `{"problemTopic":"Quadratic Functions"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	ctx := decodeBody[model.ContextResponse](t, rec)
	assert.Equal(t, "c1", ctx.ConversationID)

	rec = e.do(t, http.MethodPost, "/api/llmeval-context", `{"problemTopic":"Quadratic Function"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	errResp := decodeBody[model.ErrorResponse](t, rec)
	assert.False(t, errResp.Success)
	assert.Contains(t, errResp.Details, "Quadratic Functions")

	rec = e.do(t, http.MethodPost, "/api/llmeval-context", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAutoResults(t *testing.T) {
	e := setup(t, fixture, nil)

	rec := e.do(t, http.MethodPost, "/api/autoeval-results", `{
		"problemTopic": "Quadratic Functions",
		"selectedModel": "GPT-4",
		"selectedDimensions": ["Coherence", "Mistake_Identification", "Bogus"]
	}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp := decodeBody[model.ResultsResponse](t, rec)
	assert.Equal(t, []string{"Mistake_Identification", "Coherence"}, resp.Dimensions)
	assert.Equal(t, model.Numeric(0.8), resp.Results["Coherence"])
	assert.Equal(t, []string{"Claude", "GPT-4"}, resp.BestResults["Mistake_Identification"].Tutors)
	assert.Equal(t, []string{"GPT-4"}, resp.BestResults["Coherence"].Tutors)
}

func TestLLMResults(t *testing.T) {
	e := setup(t, fixture, nil)

	rec := e.do(t, http.MethodPost, "/api/llmeval-results", `{
		"problemTopic": "Quadratic Functions",
		"selectedModel": "GPT-4",
		"selectedDimensions": ["Coherence"],
		"judgeLLM": "GPT5",
		"comparisonMode": true,
		"secondModel": "Claude"
	}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp := decodeBody[model.ResultsResponse](t, rec)
	assert.Equal(t, model.Categorical("No"), resp.Results["Coherence"])
	assert.Equal(t, model.Categorical("Yes"), resp.SecondResults["Coherence"])
	assert.Equal(t, model.BestResult{Score: model.Categorical("Yes"), Tutors: []string{"Claude"}}, resp.BestResults["Coherence"])

	// judge is required in LLM mode
	rec = e.do(t, http.MethodPost, "/api/llmeval-results", `{
		"problemTopic": "Quadratic Functions",
		"selectedModel": "GPT-4",
		"selectedDimensions": ["Coherence"]
	}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decodeBody[model.ErrorResponse](t, rec).Details, "judgeLLM is required")

	rec = e.do(t, http.MethodPost, "/api/llmeval-results", `{not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSummary(t *testing.T) {
	e := setup(t, fixture, nil)

	rec := e.do(t, http.MethodGet, "/api/backend-dataset", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp := decodeBody[model.SummaryResponse](t, rec)
	require.NotNil(t, resp.Data)
	assert.Equal(t, 1, resp.Data.TotalConversations)
	assert.Equal(t, 2, resp.Data.TotalTutors)
	assert.Equal(t, model.CategoryCount{ToSomeExtent: 1, Total: 1}, resp.Data.CategoryDistribution["Claude::Mistake_Identification"])
	assert.Len(t, resp.Data.DatasetDigest, 64)

	rec = e.do(t, http.MethodGet, "/api/backend-dataset?source=bogus", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDatasetErrors(t *testing.T) {
	e := setup(t, `[{"foo": 1}]`, nil)
	rec := e.do(t, http.MethodGet, "/api/autoeval-data", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Dataset is empty or not in expected format", decodeBody[model.ErrorResponse](t, rec).Error)
}

func TestFeedbackRoundTrip(t *testing.T) {
	e := setup(t, fixture, nil)

	rec := e.do(t, http.MethodPost, "/api/save-feedback", `{
		"problemTopic": "Quadratic Functions",
		"firstTutor": "GPT-4",
		"secondTutor": "Claude",
		"preference": "second",
		"module": "llmeval"
	}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	saved := decodeBody[model.FeedbackSaved](t, rec)
	assert.True(t, saved.Success)
	assert.NotEmpty(t, saved.FeedbackID)

	rec = e.do(t, http.MethodPost, "/api/save-feedback", `{
		"problemTopic": "Linear Equations",
		"firstTutor": "GPT-4",
		"rating": "helpful",
		"module": "autoeval"
	}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = e.do(t, http.MethodGet, "/api/save-feedback?tutor=Claude", "")
	require.Equal(t, http.StatusOK, rec.Code)
	log := decodeBody[model.FeedbackLog](t, rec)
	require.Len(t, log.Feedbacks, 1)
	assert.Equal(t, "Claude", log.Feedbacks[0].Preference)
	assert.Equal(t, 1, log.Metadata.TotalFeedbacks)

	rec = e.do(t, http.MethodPost, "/api/save-feedback", `{"problemTopic":"x","firstTutor":"A","rating":"great"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLiveEvalDisabled(t *testing.T) {
	e := setup(t, fixture, nil)
	rec := e.do(t, http.MethodPost, "/api/autoeval", `{"conversation":"c","dimensions":["MI"]}`)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestLiveEval(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"cmpl-1","object":"text_completion","choices":[{"index":0,"text":" Yes"}]}`))
	}))
	defer upstream.Close()

	judge, err := llm.New(llm.Options{BaseURL: upstream.URL + "/v1", APIKey: "test", Model: "phi4"})
	require.NoError(t, err)
	e := setup(t, fixture, judge)

	rec := e.do(t, http.MethodPost, "/api/llmeval", `{"conversation":"Student: 2+2=5","dimensions":["MI","CO"]}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	res := decodeBody[model.LiveEvalResult](t, rec)
	assert.Equal(t, map[string]string{"MI": "Yes", "CO": "Yes"}, res.Responses)
	assert.Equal(t, 1.0, res.Summary.AverageScore)
	assert.Equal(t, "phi4", res.Summary.ModelUsed)
	require.NotNil(t, res.LLMAnalysis)

	rec = e.do(t, http.MethodPost, "/api/autoeval", `{"conversation":"c","dimensions":[]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPages(t *testing.T) {
	e := setup(t, fixture, nil)

	rec := e.do(t, http.MethodGet, "/", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Quadratic Functions")
	assert.Contains(t, rec.Body.String(), "1 topic available.")

	rec = e.do(t, http.MethodGet, "/compare?mode=llmeval&model=Claude", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Use the quadratic formula.")
	assert.Contains(t, body, "Judged by GPT5")
	assert.NotContains(t, body, "<polygon", "two dimensions draw no radar")

	rec = e.do(t, http.MethodGet, "/compare?topic=Nope", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = e.do(t, http.MethodGet, "/dataset", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Category distribution")
	assert.Contains(t, rec.Body.String(), `class="some"`)
}

func TestHealthAndMetrics(t *testing.T) {
	e := setup(t, fixture, nil)
	rec := e.do(t, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	e.do(t, http.MethodGet, "/api/autoeval-data", "")
	rec = e.do(t, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `tutorlens_dataset_loads_total{kind="evaluation",outcome="ok"} 1`)
	assert.Contains(t, rec.Body.String(), `route="/api/autoeval-data"`)
}
