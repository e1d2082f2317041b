package model

// EvalMode selects which score set a lookup reads.
type EvalMode string

const (
	// ModeAuto reads rule-based autoAnnotations.
	ModeAuto EvalMode = "autoeval"
	// ModeLLM reads judge scores from llmAnnotations.
	ModeLLM EvalMode = "llmeval"
)

// ResultsRequest is the lookup-by-topic request.
type ResultsRequest struct {
	ProblemTopic        string   `json:"problemTopic" validate:"required"`
	SelectedModel       string   `json:"selectedModel"`
	SelectedDimensions  []string `json:"selectedDimensions" validate:"dive,required"`
	JudgeLLM            string   `json:"judgeLLM,omitempty"`
	ComparisonMode      bool     `json:"comparisonMode,omitempty"`
	SecondModel         string   `json:"secondModel,omitempty"`
	JudgeComparisonMode bool     `json:"judgeComparisonMode,omitempty"`
	SecondJudgeLLM      string   `json:"secondJudgeLLM,omitempty"`
	ResponseOnly        bool     `json:"responseOnly,omitempty"`
	ContextOnly         bool     `json:"contextOnly,omitempty"`
}

// ResultsResponse is returned by the lookup endpoints.
type ResultsResponse struct {
	Success                    bool                  `json:"success"`
	Results                    map[string]Score      `json:"results,omitempty"`
	SecondResults              map[string]Score      `json:"secondResults,omitempty"`
	BestResults                map[string]BestResult `json:"bestResults,omitempty"`
	Dimensions                 []string              `json:"dimensions,omitempty"`
	ConversationHistory        string                `json:"conversationHistory,omitempty"`
	ConversationID             string                `json:"conversationId"`
	ModelResponse              string                `json:"modelResponse,omitempty"`
	SecondModelResponse        string                `json:"secondModelResponse,omitempty"`
	ModelName                  string                `json:"modelName,omitempty"`
	SecondModelName            string                `json:"secondModelName,omitempty"`
	JudgeLLM                   string                `json:"judgeLLM,omitempty"`
	SecondJudgeLLM             string                `json:"secondJudgeLLM,omitempty"`
	ProblemTopic               string                `json:"problemTopic"`
	ComparisonMode             bool                  `json:"comparisonMode"`
	JudgeComparisonMode        bool                  `json:"judgeComparisonMode"`
	GroundTruthSolution        string                `json:"groundTruthSolution,omitempty"`
	TotalConversationsForTopic int                   `json:"totalConversationsForTopic,omitempty"`
}

// ContextRequest asks for the conversation history of a topic.
type ContextRequest struct {
	ProblemTopic string `json:"problemTopic" validate:"required"`
}

// ContextResponse carries the conversation history of a topic.
type ContextResponse struct {
	Success             bool   `json:"success"`
	ConversationHistory string `json:"conversationHistory"`
	ConversationID      string `json:"conversationId"`
	ProblemTopic        string `json:"problemTopic"`
}

// Catalog lists what can be selected in the dashboard.
type Catalog struct {
	Success            bool     `json:"success"`
	ProblemTopics      []string `json:"problemTopics"`
	Models             []string `json:"models"`
	Dimensions         []string `json:"dimensions"`
	JudgeLLMs          []string `json:"judgeLLMs,omitempty"`
	TotalConversations int      `json:"totalConversations"`
	DataSource         string   `json:"dataSource"`
}

// SummaryResponse wraps the dataset summary.
type SummaryResponse struct {
	Success bool            `json:"success"`
	Data    *DatasetSummary `json:"data"`
}

// LiveEvalRequest asks the live judge to score a pasted conversation.
type LiveEvalRequest struct {
	Conversation string   `json:"conversation" validate:"required"`
	Dimensions   []string `json:"dimensions" validate:"required,min=1,dive,required"`
	Model        string   `json:"model,omitempty"`
	InputMethod  string   `json:"inputMethod,omitempty"`
}

// LiveEvalSummary aggregates live judge scores.
type LiveEvalSummary struct {
	AverageScore    float64 `json:"averageScore"`
	TotalDimensions int     `json:"totalDimensions"`
	ModelUsed       string  `json:"modelUsed,omitempty"`
}

// LiveAnalysis is the narrative part of an LLM evaluation.
type LiveAnalysis struct {
	Strengths    []string `json:"strengths"`
	Improvements []string `json:"improvements"`
	Confidence   float64  `json:"confidence"`
}

// LiveEvalResult is the outcome of a live judge run.
type LiveEvalResult struct {
	ID           string             `json:"id"`
	Type         EvalMode           `json:"type"`
	Model        string             `json:"model,omitempty"`
	Timestamp    string             `json:"timestamp"`
	Conversation string             `json:"conversation"`
	Responses    map[string]string  `json:"responses"`
	Dimensions   []string           `json:"dimensions"`
	Scores       map[string]float64 `json:"scores"`
	InputMethod  string             `json:"inputMethod,omitempty"`
	Summary      LiveEvalSummary    `json:"summary"`
	LLMAnalysis  *LiveAnalysis      `json:"llmAnalysis,omitempty"`
}

// ErrorResponse is the body of every failed API call.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
