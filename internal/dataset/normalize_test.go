package dataset

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pavelanni/tutorlens/internal/model"
)

func decode(t *testing.T, s string) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal([]byte(s), &m))
	return m
}

func TestNormalizeTopicPrecedence(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"Problem_topic first", `{"Problem_topic":"A","problem_topic":"B","Topic":"C"}`, "A"},
		{"problem_topic second", `{"problem_topic":"B","Topic":"C"}`, "B"},
		{"Topic third", `{"Topic":"C"}`, "C"},
		{"fallback", `{}`, model.NotAvailable},
		{"wrong type ignored", `{"Problem_topic":7,"Topic":"C"}`, "C"},
		{"canonical name last", `{"problemTopic":"D"}`, "D"},
		{"legacy beats canonical", `{"Topic":"C","problemTopic":"D"}`, "C"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conv := Normalize(decode(t, tt.raw), NormalizeOptions{})
			assert.Equal(t, tt.want, conv.ProblemTopic)
		})
	}
}

func TestNormalizeID(t *testing.T) {
	conv := Normalize(decode(t, `{"conversation_id":"c-1","id":"x"}`), NormalizeOptions{})
	assert.Equal(t, "c-1", conv.ID)

	conv = Normalize(decode(t, `{"id":42}`), NormalizeOptions{})
	assert.Equal(t, "42", conv.ID)

	conv = Normalize(decode(t, `{"conversationId":"c-2"}`), NormalizeOptions{})
	assert.Equal(t, "c-2", conv.ID)

	a := Normalize(decode(t, `{}`), NormalizeOptions{})
	b := Normalize(decode(t, `{}`), NormalizeOptions{})
	_, err := uuid.Parse(a.ID)
	require.NoError(t, err)
	assert.NotEqual(t, a.ID, b.ID)
}

func TestNormalizeDefaults(t *testing.T) {
	conv := Normalize(decode(t, `{"id":"1","tutors":"nope"}`), NormalizeOptions{})
	assert.Equal(t, "", conv.ConversationHistory)
	assert.Equal(t, model.NotAvailable, conv.GroundTruthSolution)
	assert.NotNil(t, conv.Tutors)
	assert.Empty(t, conv.Tutors)

	conv = Normalize(decode(t, `{"ground_truth_solution":"x=2"}`), NormalizeOptions{})
	assert.Equal(t, "x=2", conv.GroundTruthSolution)

	conv = Normalize(decode(t, `{"conversation_history":3,"Ground_Truth_Solution":false}`), NormalizeOptions{})
	assert.Equal(t, "", conv.ConversationHistory)
	assert.Equal(t, model.NotAvailable, conv.GroundTruthSolution)
}

func TestNormalizeLegacy(t *testing.T) {
	raw := decode(t, `{
		"conversation_id": "c1",
		"anno_llm_responses": {
			"GPT-4": {
				"response": "Check your sign.",
				"annotation": {"Mistake_Identification": "Yes"},
				"auto_annotation": {"Mistake_Identification": 0.8, "Coherence": null},
				"llm_annotation": {"Mistake_Identification_judge": 3}
			},
			"Claude": {"annotation": {"Coherence": "No"}}
		}
	}`)
	conv := Normalize(raw, NormalizeOptions{})
	require.Len(t, conv.Tutors, 2)

	gpt := conv.Tutors["GPT-4"]
	assert.Equal(t, "Check your sign.", gpt.Response)
	assert.Equal(t, model.Annotations{"Mistake_Identification": model.Categorical("Yes")}, gpt.Annotation)
	assert.Equal(t, model.Annotations{"Mistake_Identification": model.Numeric(0.8)}, gpt.AutoAnnotations)
	assert.Equal(t, model.Annotations{"Mistake_Identification_judge": model.Numeric(3)}, gpt.LLMAnnotations)

	claude := conv.Tutors["Claude"]
	assert.Equal(t, "", claude.Response)
	assert.Empty(t, claude.AutoAnnotations)
	assert.Empty(t, claude.LLMAnnotations)
}

func TestNormalizeAutoFallbackToHuman(t *testing.T) {
	raw := decode(t, `{"anno_llm_responses":{"T":{"annotation":{"Coherence":"Yes"}}}}`)

	off := Normalize(raw, NormalizeOptions{})
	assert.Empty(t, off.Tutors["T"].AutoAnnotations)

	on := Normalize(raw, NormalizeOptions{AutoFallbackToHuman: true})
	assert.Equal(t, model.Annotations{"Coherence": model.Categorical("Yes")}, on.Tutors["T"].AutoAnnotations)
}

func TestNormalizeCanonicalMatchesLegacy(t *testing.T) {
	legacy := Normalize(decode(t, `{
		"id": "c1", "Problem_topic": "Fractions", "conversation_history": "Student: hi",
		"Ground_Truth_Solution": "1/2",
		"anno_llm_responses": {"T": {"response": "r", "annotation": {"Coherence": "Yes"},
			"auto_annotation": {"Coherence": 0.9}, "llm_annotation": {"Coherence/j": "No"}}}
	}`), NormalizeOptions{})

	encoded, err := json.Marshal(legacy)
	require.NoError(t, err)
	again := Normalize(decode(t, string(encoded)), NormalizeOptions{})
	assert.Equal(t, legacy, again)
	assert.Equal(t, "c1", again.ID)
	assert.Equal(t, "Student: hi", again.ConversationHistory)

	// a record without an ID keeps the one it was given on the first pass
	fresh := Normalize(decode(t, `{"Topic":"Sets"}`), NormalizeOptions{})
	encoded, err = json.Marshal(fresh)
	require.NoError(t, err)
	assert.Equal(t, fresh, Normalize(decode(t, string(encoded)), NormalizeOptions{}))
}

func TestNormalizeCanonicalSnakeCaseKeys(t *testing.T) {
	conv := Normalize(decode(t, `{"tutors":{"T":{"auto_annotations":{"Coherence":1},"llm_annotations":{"Coherence_j":2}}}}`), NormalizeOptions{})
	assert.Equal(t, model.Annotations{"Coherence": model.Numeric(1)}, conv.Tutors["T"].AutoAnnotations)
	assert.Equal(t, model.Annotations{"Coherence_j": model.Numeric(2)}, conv.Tutors["T"].LLMAnnotations)
}

func TestNormalizeTutorResponsesAlias(t *testing.T) {
	conv := Normalize(decode(t, `{"tutor_responses":{"T":{"response":"hi","annotation":{"Coherence":"No"}}}}`), NormalizeOptions{})
	require.Contains(t, conv.Tutors, "T")
	assert.Equal(t, "hi", conv.Tutors["T"].Response)
}
