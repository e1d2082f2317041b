package evaluate

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pavelanni/tutorlens/internal/model"
	"github.com/pavelanni/tutorlens/internal/scoring"
)

func quadratic() []model.Conversation {
	return []model.Conversation{{
		ID:                  "conv-1",
		ProblemTopic:        "Quadratic Functions",
		ConversationHistory: "Student: how do I factor x^2+5x+6?",
		GroundTruthSolution: model.NotAvailable,
		Tutors: map[string]model.TutorResponse{
			"GPT-4": {
				Response:        "Find two numbers that multiply to 6.",
				Annotation:      model.Annotations{"Coherence": model.Categorical("Yes")},
				AutoAnnotations: model.Annotations{"Coherence": model.Numeric(0.9)},
				LLMAnnotations: model.Annotations{
					"Coherence/GPT5":       model.Categorical("Yes"),
					"Coherence/Prometheus": model.Categorical("To some extent"),
				},
			},
			"Claude": {
				Response:        "Try the quadratic formula.",
				Annotation:      model.Annotations{"Actionability": model.Categorical("No")},
				AutoAnnotations: model.Annotations{"Coherence": model.Numeric(0.86)},
				LLMAnnotations: model.Annotations{
					"Coherence/GPT5":                 model.Categorical("yes"),
					"Coherence_meta-llama/Llama-3-8B": model.Numeric(2),
				},
			},
		},
	}}
}

func TestAutoResultsEndToEnd(t *testing.T) {
	resp, err := AutoResults(quadratic(), model.ResultsRequest{
		ProblemTopic:       "Quadratic Functions",
		SelectedModel:      "GPT-4",
		SelectedDimensions: []string{"Coherence"},
	})
	require.NoError(t, err)

	assert.True(t, resp.Success)
	assert.Equal(t, model.Numeric(0.9), resp.Results["Coherence"])
	assert.Equal(t, model.BestResult{Score: model.Numeric(0.9), Tutors: []string{"GPT-4"}}, resp.BestResults["Coherence"])
	assert.Equal(t, "conv-1", resp.ConversationID)
	assert.Equal(t, "Find two numbers that multiply to 6.", resp.ModelResponse)
	assert.Equal(t, 1, resp.TotalConversationsForTopic)
}

func TestAutoResultsComparisonAndFilter(t *testing.T) {
	resp, err := AutoResults(quadratic(), model.ResultsRequest{
		ProblemTopic:       "Quadratic Functions",
		SelectedModel:      "GPT-4",
		SelectedDimensions: []string{"Coherence", "Made_Up", "Mistake_Identification"},
		ComparisonMode:     true,
		SecondModel:        "Claude",
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"Mistake_Identification", "Coherence"}, resp.Dimensions)
	assert.True(t, resp.ComparisonMode)
	assert.Equal(t, model.Numeric(0.86), resp.SecondResults["Coherence"])
	assert.Equal(t, "Claude", resp.SecondModelName)
	assert.NotContains(t, resp.BestResults, "Mistake_Identification")
}

func TestAutoResultsResponseOnly(t *testing.T) {
	resp, err := AutoResults(quadratic(), model.ResultsRequest{
		ProblemTopic:  "Quadratic Functions",
		SelectedModel: "Claude",
		ResponseOnly:  true,
	})
	require.NoError(t, err)
	assert.Equal(t, "Try the quadratic formula.", resp.ModelResponse)
	assert.Nil(t, resp.Results)
	assert.Nil(t, resp.BestResults)
}

func TestAutoResultsNotFound(t *testing.T) {
	_, err := AutoResults(quadratic(), model.ResultsRequest{
		ProblemTopic:       "Quadratic Function",
		SelectedModel:      "GPT-4",
		SelectedDimensions: []string{"Coherence"},
	})
	require.ErrorIs(t, err, ErrNotFound)
	var nf *NotFoundError
	require.True(t, errors.As(err, &nf))
	assert.Equal(t, "topic", nf.What)
	assert.Equal(t, "Quadratic Functions", nf.Suggestion)

	_, err = AutoResults(quadratic(), model.ResultsRequest{
		ProblemTopic:       "Quadratic Functions",
		SelectedModel:      "Gemini",
		SelectedDimensions: []string{"Coherence"},
	})
	require.ErrorIs(t, err, ErrNotFound)
	assert.Contains(t, err.Error(), `"Gemini"`)
}

func TestLLMResults(t *testing.T) {
	req := model.ResultsRequest{
		ProblemTopic:       "Quadratic Functions",
		SelectedModel:      "GPT-4",
		SelectedDimensions: []string{"Coherence"},
		JudgeLLM:           "GPT5",
	}
	resp, err := LLMResults(quadratic(), req, Options{})
	require.NoError(t, err)
	assert.Equal(t, model.Categorical("Yes"), resp.Results["Coherence"])
	assert.Equal(t, []string{"Claude", "GPT-4"}, resp.BestResults["Coherence"].Tutors)
	assert.Equal(t, "GPT5", resp.JudgeLLM)
	assert.False(t, resp.ComparisonMode)
}

func TestLLMResultsJudgeComparison(t *testing.T) {
	resp, err := LLMResults(quadratic(), model.ResultsRequest{
		ProblemTopic:        "Quadratic Functions",
		SelectedModel:       "GPT-4",
		SelectedDimensions:  []string{"Coherence"},
		JudgeLLM:            "GPT5",
		JudgeComparisonMode: true,
		SecondJudgeLLM:      "Prometheus",
	}, Options{})
	require.NoError(t, err)
	assert.True(t, resp.JudgeComparisonMode)
	assert.Equal(t, model.Categorical("To some extent"), resp.SecondResults["Coherence"])
	assert.Equal(t, "GPT-4", resp.SecondModelName)
	assert.Equal(t, "Prometheus", resp.SecondJudgeLLM)
}

func TestLLMResultsLegacyJudge(t *testing.T) {
	resp, err := LLMResults(quadratic(), model.ResultsRequest{
		ProblemTopic:       "Quadratic Functions",
		SelectedModel:      "Claude",
		SelectedDimensions: []string{"Coherence"},
		JudgeLLM:           "meta-llama/Llama-3-8B",
	}, Options{TieMode: scoring.TieTolerance})
	require.NoError(t, err)
	assert.Equal(t, model.Numeric(0.5), resp.Results["Coherence"])
	assert.Equal(t, []string{"Claude"}, resp.BestResults["Coherence"].Tutors)
}

func TestLLMResultsContextOnly(t *testing.T) {
	resp, err := LLMResults(quadratic(), model.ResultsRequest{
		ProblemTopic: "Quadratic Functions",
		ContextOnly:  true,
	}, Options{})
	require.NoError(t, err)
	assert.Equal(t, "Student: how do I factor x^2+5x+6?", resp.ConversationHistory)
	assert.Empty(t, resp.ModelName)
}

func TestLLMResultsAllowlist(t *testing.T) {
	_, err := LLMResults(quadratic(), model.ResultsRequest{
		ProblemTopic:       "Quadratic Functions",
		SelectedModel:      "GPT-4",
		SelectedDimensions: []string{"Coherence"},
		JudgeLLM:           "Prometheus",
	}, Options{JudgeAllowlist: []string{"GPT5"}})
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
}

func TestValidateResults(t *testing.T) {
	tests := []struct {
		name    string
		req     model.ResultsRequest
		mode    model.EvalMode
		problem string
	}{
		{"missing topic", model.ResultsRequest{SelectedModel: "A", SelectedDimensions: []string{"Coherence"}}, model.ModeAuto, "problemTopic is required"},
		{"missing model", model.ResultsRequest{ProblemTopic: "T", SelectedDimensions: []string{"Coherence"}}, model.ModeAuto, "selectedModel is required"},
		{"no dimensions", model.ResultsRequest{ProblemTopic: "T", SelectedModel: "A"}, model.ModeAuto, "selectedDimensions needs at least 1 item(s)"},
		{"empty dimension", model.ResultsRequest{ProblemTopic: "T", SelectedModel: "A", SelectedDimensions: []string{""}}, model.ModeAuto, "selectedDimensions[0] is required"},
		{"comparison without second", model.ResultsRequest{ProblemTopic: "T", SelectedModel: "A", SelectedDimensions: []string{"C"}, ComparisonMode: true}, model.ModeAuto, "secondModel is required"},
		{"comparison same model", model.ResultsRequest{ProblemTopic: "T", SelectedModel: "A", SelectedDimensions: []string{"C"}, ComparisonMode: true, SecondModel: "A"}, model.ModeAuto, "secondModel must differ from selectedModel"},
		{"judge comparison same judge", model.ResultsRequest{ProblemTopic: "T", SelectedModel: "A", SelectedDimensions: []string{"C"}, JudgeLLM: "J", JudgeComparisonMode: true, SecondJudgeLLM: "J"}, model.ModeLLM, "secondJudgeLLM must differ from judgeLLM"},
		{"llm without judge", model.ResultsRequest{ProblemTopic: "T", SelectedModel: "A", SelectedDimensions: []string{"C"}}, model.ModeLLM, "judgeLLM is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateResults(tt.req, tt.mode)
			var ve *ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Contains(t, ve.Problems, tt.problem)
		})
	}

	ok := model.ResultsRequest{ProblemTopic: "T", ContextOnly: true}
	assert.NoError(t, ValidateResults(ok, model.ModeLLM))
	ok = model.ResultsRequest{ProblemTopic: "T", SelectedModel: "A", ResponseOnly: true}
	assert.NoError(t, ValidateResults(ok, model.ModeAuto))
}

func TestCatalog(t *testing.T) {
	convs := quadratic()
	convs = append(convs, model.Conversation{ID: "conv-2", ProblemTopic: "Fractions", Tutors: map[string]model.TutorResponse{
		"Llama": {Annotation: model.Annotations{"Mistake_Identification": model.Categorical("Yes")}},
	}})

	auto := Catalog(convs, model.ModeAuto, nil)
	assert.Equal(t, []string{"Quadratic Functions", "Fractions"}, auto.ProblemTopics)
	assert.Equal(t, []string{"Claude", "GPT-4", "Llama"}, auto.Models)
	assert.Equal(t, []string{"Mistake_Identification", "Actionability", "Coherence"}, auto.Dimensions)
	assert.Nil(t, auto.JudgeLLMs)
	assert.Equal(t, 2, auto.TotalConversations)

	llm := Catalog(convs, model.ModeLLM, nil)
	assert.Equal(t, []string{"GPT5", "Prometheus"}, llm.JudgeLLMs)

	restricted := Catalog(convs, model.ModeLLM, []string{"Prometheus"})
	assert.Equal(t, []string{"Prometheus"}, restricted.JudgeLLMs)
}

func TestContext(t *testing.T) {
	ctx, err := Context(quadratic(), "Quadratic Functions")
	require.NoError(t, err)
	assert.Equal(t, "conv-1", ctx.ConversationID)

	_, err = Context(quadratic(), "")
	var ve *ValidationError
	assert.ErrorAs(t, err, &ve)

	_, err = Context(quadratic(), "Geometry")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestClosest(t *testing.T) {
	cands := []string{"Quadratic Functions", "Fractions", "Linear Algebra"}
	assert.Equal(t, "Fractions", closest("fractoins", cands))
	assert.Equal(t, "", closest("Photosynthesis", cands))
	assert.Equal(t, "", closest("x", nil))
}
