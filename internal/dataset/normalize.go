package dataset

import (
	"strconv"

	"github.com/google/uuid"

	"github.com/pavelanni/tutorlens/internal/model"
)

// NormalizeOptions tunes how legacy records are converted.
type NormalizeOptions struct {
	// AutoFallbackToHuman fills autoAnnotations from the human annotation
	// when a legacy tutor entry has no auto_annotation.
	AutoFallbackToHuman bool
}

// Normalize converts a raw record in any supported shape into a
// Conversation. Missing or mistyped fields take their defaults.
func Normalize(raw map[string]any, opts NormalizeOptions) model.Conversation {
	conv := model.Conversation{
		ID:                  firstID(raw, "conversation_id", "id", "conversationId"),
		ProblemTopic:        firstString(raw, "Problem_topic", "problem_topic", "Topic", "problemTopic"),
		ConversationHistory: firstString(raw, "conversation_history", "conversationHistory"),
		GroundTruthSolution: firstString(raw, "Ground_Truth_Solution", "ground_truth_solution", "groundTruthSolution"),
	}
	if conv.ID == "" {
		conv.ID = uuid.NewString()
	}
	if conv.ProblemTopic == "" {
		conv.ProblemTopic = model.NotAvailable
	}
	if conv.GroundTruthSolution == "" {
		conv.GroundTruthSolution = model.NotAvailable
	}

	switch {
	case isObject(raw["tutors"]):
		conv.Tutors = canonicalTutors(raw["tutors"].(map[string]any))
	case isObject(raw["anno_llm_responses"]):
		conv.Tutors = legacyTutors(raw["anno_llm_responses"].(map[string]any), opts)
	case isObject(raw["tutor_responses"]):
		conv.Tutors = canonicalTutors(raw["tutor_responses"].(map[string]any))
	case isObject(raw["responses"]):
		conv.Tutors = canonicalTutors(raw["responses"].(map[string]any))
	default:
		conv.Tutors = map[string]model.TutorResponse{}
	}
	return conv
}

// NormalizeAll normalizes every record.
func NormalizeAll(records []map[string]any, opts NormalizeOptions) []model.Conversation {
	out := make([]model.Conversation, 0, len(records))
	for _, r := range records {
		out = append(out, Normalize(r, opts))
	}
	return out
}

func canonicalTutors(src map[string]any) map[string]model.TutorResponse {
	out := make(map[string]model.TutorResponse, len(src))
	for name, v := range src {
		t, _ := v.(map[string]any)
		out[name] = model.TutorResponse{
			Response:        firstString(t, "response"),
			Annotation:      annotations(t, "annotation"),
			AutoAnnotations: annotations(t, "autoAnnotations", "auto_annotations"),
			LLMAnnotations:  annotations(t, "llmAnnotations", "llm_annotations"),
		}
	}
	return out
}

func legacyTutors(src map[string]any, opts NormalizeOptions) map[string]model.TutorResponse {
	out := make(map[string]model.TutorResponse, len(src))
	for name, v := range src {
		t, _ := v.(map[string]any)
		tr := model.TutorResponse{
			Response:       firstString(t, "response"),
			Annotation:     annotations(t, "annotation"),
			LLMAnnotations: annotations(t, "llm_annotation"),
		}
		if opts.AutoFallbackToHuman && !isObject(t["auto_annotation"]) {
			tr.AutoAnnotations = annotations(t, "annotation")
		} else {
			tr.AutoAnnotations = annotations(t, "auto_annotation")
		}
		out[name] = tr
	}
	return out
}

// annotations reads the first object-valued key. Values that are neither
// numbers nor strings are dropped.
func annotations(m map[string]any, keys ...string) model.Annotations {
	out := model.Annotations{}
	for _, k := range keys {
		src, ok := m[k].(map[string]any)
		if !ok {
			continue
		}
		for dim, v := range src {
			if s, ok := model.ScoreFromAny(v); ok {
				out[dim] = s
			}
		}
		break
	}
	return out
}

// firstString returns the first non-empty string found under keys.
// Values of any other type count as absent.
func firstString(m map[string]any, keys ...string) string {
	for _, k := range keys {
		if v, ok := m[k].(string); ok && v != "" {
			return v
		}
	}
	return ""
}

// firstID is firstString that also accepts numeric IDs.
func firstID(m map[string]any, keys ...string) string {
	for _, k := range keys {
		switch v := m[k].(type) {
		case string:
			if v != "" {
				return v
			}
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64)
		}
	}
	return ""
}

func isObject(v any) bool {
	_, ok := v.(map[string]any)
	return ok
}
