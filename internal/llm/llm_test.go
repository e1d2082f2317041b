package llm

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pavelanni/tutorlens/internal/llm/prompts"
	"github.com/pavelanni/tutorlens/internal/model"
)

// fakeAPI answers by looking for a dimension display name in the prompt.
type fakeAPI struct {
	mu       sync.Mutex
	answers  map[string]string // display name -> raw answer
	fail     map[string]bool
	prompts  []string
	inflight atomic.Int32
	peak     atomic.Int32
}

func (f *fakeAPI) answer(prompt string) (string, error) {
	n := f.inflight.Add(1)
	defer f.inflight.Add(-1)
	for {
		p := f.peak.Load()
		if n <= p || f.peak.CompareAndSwap(p, n) {
			break
		}
	}
	f.mu.Lock()
	f.prompts = append(f.prompts, prompt)
	f.mu.Unlock()
	for name, bad := range f.fail {
		if bad && strings.Contains(prompt, name) {
			return "", errors.New("upstream 502")
		}
	}
	for name, a := range f.answers {
		if strings.Contains(prompt, name) {
			return a, nil
		}
	}
	return "unclear", nil
}

func (f *fakeAPI) CreateCompletion(_ context.Context, req openai.CompletionRequest) (openai.CompletionResponse, error) {
	text, err := f.answer(req.Prompt.(string))
	if err != nil {
		return openai.CompletionResponse{}, err
	}
	return openai.CompletionResponse{Choices: []openai.CompletionChoice{{Text: text}}}, nil
}

func (f *fakeAPI) CreateChatCompletion(_ context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	text, err := f.answer(req.Messages[0].Content)
	if err != nil {
		return openai.ChatCompletionResponse{}, err
	}
	return openai.ChatCompletionResponse{Choices: []openai.ChatCompletionChoice{
		{Message: openai.ChatCompletionMessage{Content: text}},
	}}, nil
}

func newTestJudge(t *testing.T, api *fakeAPI, opts Options) *Judge {
	t.Helper()
	require.NoError(t, prompts.Load(prompts.Templates))
	return newJudge(api, opts)
}

func TestParseResponse(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{" Yes.", "Yes"},
		{"YES, clearly", "Yes"},
		{"No", "No"},
		{"  nope ", "No"},
		{"maybe", "maybe"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, parseResponse(tt.raw), tt.raw)
	}
}

func TestEvaluateDimensions(t *testing.T) {
	for _, chat := range []bool{false, true} {
		api := &fakeAPI{
			answers: map[string]string{"Mistake Identification": " Yes", "Coherence": "No."},
			fail:    map[string]bool{"Tutor Tone": true},
		}
		j := newTestJudge(t, api, Options{Model: "phi4", Chat: chat, Concurrency: 2})

		got, err := j.EvaluateDimensions(context.Background(), "Student: 1+1=3", []string{"MI", "Coherence", "TT", "HL"})
		require.NoError(t, err)
		assert.Equal(t, map[string]string{
			"MI":        "Yes",
			"Coherence": "No",
			"TT":        ErrorResponse,
			"HL":        "unclear",
		}, got)
		assert.Len(t, api.prompts, 4)
		assert.LessOrEqual(t, api.peak.Load(), int32(2))
	}
}

func TestEvaluateDimensionsCancelled(t *testing.T) {
	j := newTestJudge(t, &fakeAPI{}, Options{RPS: 0.001})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := j.EvaluateDimensions(ctx, "x", []string{"MI", "ML"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestScore(t *testing.T) {
	scores, avg := Score(map[string]string{"MI": "Yes", "ML": "no", "PG": "Error"}, []string{"MI", "ML", "PG"})
	assert.Equal(t, map[string]float64{"MI": 1, "ML": 0, "PG": 0.5}, scores)
	assert.InDelta(t, 0.5, avg, 1e-9)

	_, avg = Score(nil, nil)
	assert.Equal(t, 0.0, avg)
}

func TestAnalyze(t *testing.T) {
	a := Analyze(map[string]string{"MI": "Yes", "ML": "No"}, []string{"MI", "ML"}, 0.5)
	assert.Equal(t, []string{"Strong mi capabilities"}, a.Strengths)
	assert.Equal(t, []string{"Needs improvement in ml"}, a.Improvements)
	assert.InDelta(t, 0.6, a.Confidence, 1e-9)

	all := Analyze(map[string]string{"MI": "Yes"}, []string{"MI"}, 1)
	assert.Equal(t, []string{"Continue current approach"}, all.Improvements)
	assert.InDelta(t, 0.9, all.Confidence, 1e-9)
}

func TestEvaluate(t *testing.T) {
	api := &fakeAPI{answers: map[string]string{"Mistake Identification": "Yes", "Mistake Location": "No"}}
	j := newTestJudge(t, api, Options{Model: "phi4"})
	req := model.LiveEvalRequest{Conversation: "c", Dimensions: []string{"MI", "ML"}, InputMethod: "paste"}

	auto, err := j.Evaluate(context.Background(), req, model.ModeAuto)
	require.NoError(t, err)
	assert.Equal(t, model.ModeAuto, auto.Type)
	assert.Nil(t, auto.LLMAnalysis)
	assert.Empty(t, auto.Model)
	assert.InDelta(t, 0.5, auto.Summary.AverageScore, 1e-9)
	assert.Equal(t, 2, auto.Summary.TotalDimensions)
	assert.True(t, strings.HasPrefix(auto.ID, "eval-"))

	llm, err := j.Evaluate(context.Background(), req, model.ModeLLM)
	require.NoError(t, err)
	assert.Equal(t, "phi4", llm.Summary.ModelUsed)
	require.NotNil(t, llm.LLMAnalysis)
	assert.Equal(t, []string{"Strong mi capabilities"}, llm.LLMAnalysis.Strengths)
}
