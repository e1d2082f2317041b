package evaluate

import (
	"slices"

	"github.com/pavelanni/tutorlens/internal/dimension"
	"github.com/pavelanni/tutorlens/internal/model"
	"github.com/pavelanni/tutorlens/internal/scoring"
)

// Options carries the server-wide lookup settings.
type Options struct {
	TieMode        scoring.TieMode
	JudgeAllowlist []string
}

// AutoResults looks up rule-based scores for a topic and tutor. The first
// conversation of the topic is used; best results always use exact ties.
func AutoResults(convs []model.Conversation, req model.ResultsRequest) (*model.ResultsResponse, error) {
	if err := ValidateResults(req, model.ModeAuto); err != nil {
		return nil, err
	}
	matches, err := byTopic(convs, req.ProblemTopic)
	if err != nil {
		return nil, err
	}
	conv := matches[0]

	tutor, ok := conv.Tutors[req.SelectedModel]
	if !ok {
		return nil, notFound("model", req.SelectedModel, conv.TutorNames())
	}

	resp := &model.ResultsResponse{
		Success:                    true,
		ConversationID:             conv.ID,
		ModelResponse:              tutor.Response,
		ModelName:                  req.SelectedModel,
		ProblemTopic:               req.ProblemTopic,
		GroundTruthSolution:        conv.GroundTruthSolution,
		TotalConversationsForTopic: len(matches),
	}
	if req.ResponseOnly {
		return resp, nil
	}

	dims := dimension.Filter(req.SelectedDimensions)
	extract := scoring.AutoExtractor()
	resp.Dimensions = dims
	resp.ConversationHistory = conv.ConversationHistory
	resp.Results = scoring.Extract(tutor, dims, extract)
	resp.BestResults = scoring.BestByDimension(conv, dims, extract, scoring.TieExact)

	if req.ComparisonMode {
		second, ok := conv.Tutors[req.SecondModel]
		if !ok {
			return nil, notFound("second model", req.SecondModel, conv.TutorNames())
		}
		resp.ComparisonMode = true
		resp.SecondResults = scoring.Extract(second, dims, extract)
		resp.SecondModelResponse = second.Response
		resp.SecondModelName = req.SecondModel
	}
	return resp, nil
}

// LLMResults looks up judge scores for a topic, tutor and judge. Model
// comparison keeps the judge and swaps the tutor; judge comparison keeps
// the tutor and swaps the judge. Model comparison wins when both are set.
func LLMResults(convs []model.Conversation, req model.ResultsRequest, opts Options) (*model.ResultsResponse, error) {
	if err := ValidateResults(req, model.ModeLLM); err != nil {
		return nil, err
	}
	if err := checkAllowed(opts.JudgeAllowlist, req.JudgeLLM, req.SecondJudgeLLM); err != nil {
		return nil, err
	}
	matches, err := byTopic(convs, req.ProblemTopic)
	if err != nil {
		return nil, err
	}
	conv := matches[0]

	resp := &model.ResultsResponse{
		Success:                    true,
		ConversationID:             conv.ID,
		ConversationHistory:        conv.ConversationHistory,
		ProblemTopic:               req.ProblemTopic,
		TotalConversationsForTopic: len(matches),
	}
	if req.ContextOnly {
		return resp, nil
	}

	tutor, ok := conv.Tutors[req.SelectedModel]
	if !ok {
		return nil, notFound("model", req.SelectedModel, conv.TutorNames())
	}
	resp.ModelResponse = tutor.Response
	resp.ModelName = req.SelectedModel
	if req.ResponseOnly {
		resp.ConversationHistory = ""
		resp.GroundTruthSolution = conv.GroundTruthSolution
		return resp, nil
	}

	mode := opts.TieMode
	if mode == "" {
		mode = scoring.TieExact
	}
	dims := dimension.Order(req.SelectedDimensions)
	extract := scoring.JudgeExtractor(req.JudgeLLM)
	resp.Dimensions = dims
	resp.JudgeLLM = req.JudgeLLM
	resp.Results = scoring.Extract(tutor, dims, extract)
	resp.BestResults = scoring.BestByDimension(conv, dims, extract, mode)

	switch {
	case req.ComparisonMode:
		second, ok := conv.Tutors[req.SecondModel]
		if !ok {
			return nil, notFound("second model", req.SecondModel, conv.TutorNames())
		}
		resp.ComparisonMode = true
		resp.SecondResults = scoring.Extract(second, dims, extract)
		resp.SecondModelResponse = second.Response
		resp.SecondModelName = req.SecondModel
	case req.JudgeComparisonMode:
		resp.JudgeComparisonMode = true
		resp.SecondResults = scoring.Extract(tutor, dims, scoring.JudgeExtractor(req.SecondJudgeLLM))
		resp.SecondModelResponse = tutor.Response
		resp.SecondModelName = req.SelectedModel
		resp.SecondJudgeLLM = req.SecondJudgeLLM
	}
	return resp, nil
}

func checkAllowed(allowlist []string, judges ...string) error {
	if len(allowlist) == 0 {
		return nil
	}
	var ve *ValidationError
	for _, j := range judges {
		if j == "" || slices.Contains(allowlist, j) {
			continue
		}
		if ve == nil {
			ve = &ValidationError{}
		}
		ve.Problems = append(ve.Problems, "judge "+j+" is not enabled")
	}
	if ve != nil {
		return ve
	}
	return nil
}
