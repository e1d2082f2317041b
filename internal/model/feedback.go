package model

// Rating is a single-tutor verdict.
type Rating string

const (
	RatingHelpful      Rating = "helpful"
	RatingNotHelpful   Rating = "not-helpful"
	RatingToSomeExtent Rating = "to-some-extent"
)

// Preference is a comparison verdict as sent by the client.
type Preference string

const (
	PreferFirst   Preference = "first"
	PreferSecond  Preference = "second"
	PreferBoth    Preference = "both"
	PreferBothBad Preference = "both-bad"
)

// Stored preference literals for the two "both" choices.
const (
	PreferenceBothGood = "Both Good"
	PreferenceBothBad  = "Both Bad"
)

// FeedbackRequest is the body of a feedback append.
type FeedbackRequest struct {
	ProblemTopic   string     `json:"problemTopic" validate:"required"`
	ConversationID string     `json:"conversationId"`
	EvaluationType string     `json:"evaluationType"`
	FirstTutor     string     `json:"firstTutor" validate:"required"`
	SecondTutor    string     `json:"secondTutor" validate:"required_if=Preference second"`
	Rating         Rating     `json:"rating,omitempty" validate:"omitempty,oneof=helpful not-helpful to-some-extent"`
	Preference     Preference `json:"preference,omitempty" validate:"omitempty,oneof=first second both both-bad"`
	Module         string     `json:"module"`
	Timestamp      string     `json:"timestamp,omitempty"`
}

// FeedbackEntry is one stored feedback record. Preference holds the resolved
// tutor name or one of the "Both Good"/"Both Bad" literals.
type FeedbackEntry struct {
	ID             string `json:"id"`
	Timestamp      string `json:"timestamp"`
	ProblemTopic   string `json:"problemTopic,omitempty"`
	ConversationID string `json:"conversationId,omitempty"`
	EvaluationType string `json:"evaluationType,omitempty"`
	FirstTutor     string `json:"firstTutor,omitempty"`
	SecondTutor    string `json:"secondTutor,omitempty"`
	Rating         string `json:"rating,omitempty"`
	Preference     string `json:"preference,omitempty"`
	Module         string `json:"module,omitempty"`
}

// FeedbackMetadata describes the stored log.
type FeedbackMetadata struct {
	TotalFeedbacks int    `json:"totalFeedbacks"`
	LastUpdated    string `json:"lastUpdated"`
}

// FeedbackLog is the whole persisted feedback blob.
type FeedbackLog struct {
	Feedbacks []FeedbackEntry  `json:"feedbacks"`
	Metadata  FeedbackMetadata `json:"metadata"`
}

// FeedbackFilter narrows a feedback query. Empty fields match everything.
type FeedbackFilter struct {
	Module string
	Topic  string
	Tutor  string
}

// Matches reports whether an entry passes every non-empty filter.
func (f FeedbackFilter) Matches(e FeedbackEntry) bool {
	if f.Module != "" && e.Module != f.Module {
		return false
	}
	if f.Topic != "" && e.ProblemTopic != f.Topic {
		return false
	}
	if f.Tutor != "" && e.FirstTutor != f.Tutor && e.SecondTutor != f.Tutor {
		return false
	}
	return true
}

// FeedbackSaved is returned after a successful append.
type FeedbackSaved struct {
	Success    bool   `json:"success"`
	Message    string `json:"message"`
	FeedbackID string `json:"feedbackId"`
}
