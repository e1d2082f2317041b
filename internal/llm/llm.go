// Package llm runs the live judge against an OpenAI-compatible endpoint.
package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	openai "github.com/sashabaranov/go-openai"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/pavelanni/tutorlens/internal/llm/prompts"
	"github.com/pavelanni/tutorlens/internal/model"
)

// ErrorResponse marks a dimension the judge could not evaluate.
const ErrorResponse = "Error"

const (
	defaultConcurrency = 4
	maxTokens          = 50
	temperature        = 0.1
)

type completer interface {
	CreateCompletion(ctx context.Context, req openai.CompletionRequest) (openai.CompletionResponse, error)
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Options configures the judge client.
type Options struct {
	BaseURL     string
	APIKey      string
	Model       string
	Chat        bool    // use chat completions instead of raw completions
	Concurrency int     // parallel dimension calls per evaluation
	RPS         float64 // request rate limit; 0 means unlimited
}

// Judge asks an LLM a yes/no question per dimension.
type Judge struct {
	api         completer
	model       string
	style       prompts.Style
	concurrency int
	limiter     *rate.Limiter
}

// New creates a judge client.
func New(opts Options) (*Judge, error) {
	if err := prompts.Load(prompts.Templates); err != nil {
		return nil, err
	}
	config := openai.DefaultConfig(opts.APIKey)
	if opts.BaseURL != "" {
		config.BaseURL = opts.BaseURL
	}
	return newJudge(openai.NewClientWithConfig(config), opts), nil
}

func newJudge(api completer, opts Options) *Judge {
	j := &Judge{
		api:         api,
		model:       opts.Model,
		style:       prompts.StyleCompletion,
		concurrency: opts.Concurrency,
		limiter:     rate.NewLimiter(rate.Inf, 1),
	}
	if opts.Chat {
		j.style = prompts.StyleChat
	}
	if j.concurrency <= 0 {
		j.concurrency = defaultConcurrency
	}
	if opts.RPS > 0 {
		burst := int(opts.RPS)
		if burst < 1 {
			burst = 1
		}
		j.limiter = rate.NewLimiter(rate.Limit(opts.RPS), burst)
	}
	return j
}

// Model returns the configured judge model.
func (j *Judge) Model() string { return j.model }

// EvaluateDimensions asks the judge about every dimension. A failed call
// yields ErrorResponse for that dimension; only cancellation of ctx fails
// the whole evaluation.
func (j *Judge) EvaluateDimensions(ctx context.Context, conversation string, dims []string) (map[string]string, error) {
	results := make(map[string]string, len(dims))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(j.concurrency)
	for _, dim := range dims {
		g.Go(func() error {
			answer, err := j.ask(gctx, dim, conversation)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				slog.Error("judge call failed", "dimension", dim, "error", err)
				answer = ErrorResponse
			}
			mu.Lock()
			results[dim] = answer
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (j *Judge) ask(ctx context.Context, dim, conversation string) (string, error) {
	if err := j.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limit: %w", err)
	}
	data := prompts.NewData(dim, conversation)
	prompt, err := prompts.Build(j.style, data)
	if err != nil {
		return "", fmt.Errorf("build prompt: %w", err)
	}

	var raw string
	if j.style == prompts.StyleChat {
		resp, err := j.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model: j.model,
			Messages: []openai.ChatCompletionMessage{
				{Role: openai.ChatMessageRoleSystem, Content: prompt},
				{Role: openai.ChatMessageRoleUser, Content: "<conversation>\n" + data.Conversation + "\n</conversation>"},
			},
			MaxTokens:   maxTokens,
			Temperature: temperature,
		})
		if err != nil {
			return "", fmt.Errorf("LLM API call: %w", err)
		}
		if len(resp.Choices) == 0 {
			return "", errors.New("LLM returned no choices")
		}
		raw = resp.Choices[0].Message.Content
	} else {
		resp, err := j.api.CreateCompletion(ctx, openai.CompletionRequest{
			Model:       j.model,
			Prompt:      prompt,
			MaxTokens:   maxTokens,
			Temperature: temperature,
		})
		if err != nil {
			return "", fmt.Errorf("LLM API call: %w", err)
		}
		if len(resp.Choices) == 0 {
			return "", errors.New("LLM returned no choices")
		}
		raw = resp.Choices[0].Text
	}
	slog.Debug("LLM response", "dimension", dim, "raw", raw)
	return parseResponse(raw), nil
}

// parseResponse reduces a free-text answer to "Yes" or "No" when either
// word appears, else returns the trimmed text.
func parseResponse(raw string) string {
	cleaned := strings.ToLower(strings.TrimSpace(raw))
	switch {
	case strings.Contains(cleaned, "yes"):
		return model.LabelYes
	case strings.Contains(cleaned, "no"):
		return model.LabelNo
	}
	return strings.TrimSpace(raw)
}

// Score maps answers onto 1 (yes), 0 (no) or 0.5 (anything else) and
// averages them over dims.
func Score(responses map[string]string, dims []string) (map[string]float64, float64) {
	scores := make(map[string]float64, len(responses))
	var total float64
	for dim, r := range responses {
		s := 0.5
		switch strings.ToLower(r) {
		case "yes":
			s = 1
		case "no":
			s = 0
		}
		scores[dim] = s
		total += s
	}
	if len(dims) == 0 {
		return scores, 0
	}
	return scores, total / float64(len(dims))
}

// Analyze lists strengths and improvements in dims order.
func Analyze(responses map[string]string, dims []string, average float64) model.LiveAnalysis {
	a := model.LiveAnalysis{Confidence: min(0.9, average+0.1)}
	for _, dim := range dims {
		switch strings.ToLower(responses[dim]) {
		case "yes":
			a.Strengths = append(a.Strengths, "Strong "+strings.ToLower(dim)+" capabilities")
		case "no":
			a.Improvements = append(a.Improvements, "Needs improvement in "+strings.ToLower(dim))
		}
	}
	if len(a.Strengths) == 0 {
		a.Strengths = []string{"Consistent evaluation approach"}
	}
	if len(a.Improvements) == 0 {
		a.Improvements = []string{"Continue current approach"}
	}
	return a
}

// Evaluate runs a live evaluation. ModeLLM adds the narrative analysis and
// reports the model used.
func (j *Judge) Evaluate(ctx context.Context, req model.LiveEvalRequest, mode model.EvalMode) (*model.LiveEvalResult, error) {
	responses, err := j.EvaluateDimensions(ctx, req.Conversation, req.Dimensions)
	if err != nil {
		return nil, err
	}
	scores, avg := Score(responses, req.Dimensions)

	res := &model.LiveEvalResult{
		ID:           "eval-" + uuid.NewString(),
		Type:         mode,
		Timestamp:    time.Now().UTC().Format(time.RFC3339),
		Conversation: req.Conversation,
		Responses:    responses,
		Dimensions:   req.Dimensions,
		Scores:       scores,
		InputMethod:  req.InputMethod,
		Summary:      model.LiveEvalSummary{AverageScore: avg, TotalDimensions: len(req.Dimensions)},
	}
	if mode == model.ModeLLM {
		used := req.Model
		if used == "" {
			used = j.model
		}
		res.Model = used
		res.Summary.ModelUsed = used
		analysis := Analyze(responses, req.Dimensions, avg)
		res.LLMAnalysis = &analysis
	}
	return res, nil
}
