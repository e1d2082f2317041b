package aggregate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pavelanni/tutorlens/internal/model"
)

func conv(id string, tutors map[string]model.TutorResponse) model.Conversation {
	return model.Conversation{ID: id, ProblemTopic: "Fractions", Tutors: tutors}
}

func TestAggregateHuman(t *testing.T) {
	convs := []model.Conversation{
		conv("c1", map[string]model.TutorResponse{
			"GPT-4": {Annotation: model.Annotations{
				"Coherence":              model.Categorical("Yes"),
				"Mistake_Identification": model.Categorical("To some extent"),
			}},
			"Claude": {Annotation: model.Annotations{
				"Coherence": model.Categorical("no"),
			}},
		}),
		conv("c2", map[string]model.TutorResponse{
			"GPT-4": {Annotation: model.Annotations{
				"Coherence": model.Numeric(0.5),
			}},
		}),
	}

	sum, err := Aggregate(convs, Options{Source: SourceHuman})
	require.NoError(t, err)

	assert.Equal(t, 2, sum.TotalConversations)
	assert.Equal(t, []string{"Claude", "GPT-4"}, sum.Tutors)
	assert.Equal(t, []string{"Mistake_Identification", "Coherence"}, sum.Dimensions)
	assert.Equal(t, 2, sum.TotalDimensions)
	assert.Equal(t, map[string]int{"GPT-4": 2, "Claude": 1}, sum.ConversationsByTutor)

	assert.InDelta(t, 0.5, sum.AverageScoresByDimension["Coherence"], 1e-9)
	assert.InDelta(t, 0.5, sum.AverageScoresByDimension["Mistake_Identification"], 1e-9)
	assert.InDelta(t, (1+0.5+0.5)/3, sum.AverageScoresByTutor["GPT-4"], 1e-9)
	assert.InDelta(t, 0.0, sum.AverageScoresByTutor["Claude"], 1e-9)
	assert.InDelta(t, 0.75, sum.AverageScoresByTutorAndDimension["GPT-4::Coherence"], 1e-9)

	assert.Equal(t, model.CategoryCount{Yes: 1, ToSomeExtent: 1, Total: 2}, sum.CategoryDistribution["GPT-4::Coherence"])
	assert.Equal(t, model.CategoryCount{No: 1, Total: 1}, sum.CategoryDistribution["Claude::Coherence"])

	require.Len(t, sum.DistributionData, 4)
	assert.Equal(t, "Mistake_Identification", sum.DistributionData[0].Dimension)
	for _, s := range sum.DistributionData[1:] {
		assert.Equal(t, "Coherence", s.Dimension)
	}
}

func TestAggregateHumanFallsBack(t *testing.T) {
	convs := []model.Conversation{conv("c1", map[string]model.TutorResponse{
		"T": {AutoAnnotations: model.Annotations{"Coherence": model.Numeric(0.9)}},
	})}
	sum, err := Aggregate(convs, Options{})
	require.NoError(t, err)
	assert.Equal(t, model.CategoryCount{Yes: 1, Total: 1}, sum.CategoryDistribution["T::Coherence"])

	// an empty human annotation counts as missing
	convs[0].Tutors["T"] = model.TutorResponse{
		Annotation:      model.Annotations{},
		AutoAnnotations: model.Annotations{"Coherence": model.Numeric(0.9)},
	}
	sum, err = Aggregate(convs, Options{Source: SourceHuman})
	require.NoError(t, err)
	assert.Equal(t, model.CategoryCount{Yes: 1, Total: 1}, sum.CategoryDistribution["T::Coherence"])
}

func TestAggregateUnknownDimensionAppended(t *testing.T) {
	convs := []model.Conversation{conv("c1", map[string]model.TutorResponse{
		"T": {AutoAnnotations: model.Annotations{
			"Zeta":      model.Numeric(0.1),
			"Coherence": model.Numeric(0.2),
		}},
	})}
	sum, err := Aggregate(convs, Options{Source: SourceAuto})
	require.NoError(t, err)
	assert.Equal(t, []string{"Coherence", "Zeta"}, sum.Dimensions)
}

func TestAggregateLLM(t *testing.T) {
	convs := []model.Conversation{conv("c1", map[string]model.TutorResponse{
		"T": {LLMAnnotations: model.Annotations{
			"Coherence/judge-a":     model.Categorical("Yes"),
			"Coherence/judge-b":     model.Categorical("No"),
			"Actionability_judge-a": model.Numeric(2),
		}},
	})}

	all, err := Aggregate(convs, Options{Source: SourceLLM})
	require.NoError(t, err)
	assert.Equal(t, []string{"Actionability", "Coherence"}, all.Dimensions)
	assert.Equal(t, 2, all.CategoryDistribution["T::Coherence"].Total)
	assert.InDelta(t, 0.5, all.AverageScoresByDimension["Actionability"], 1e-9)

	one, err := Aggregate(convs, Options{Source: SourceLLM, Judge: "judge-a"})
	require.NoError(t, err)
	assert.Equal(t, model.CategoryCount{Yes: 1, Total: 1}, one.CategoryDistribution["T::Coherence"])
	assert.Equal(t, model.CategoryCount{ToSomeExtent: 1, Total: 1}, one.CategoryDistribution["T::Actionability"])
}

func TestAggregateLegacyJudgePath(t *testing.T) {
	convs := []model.Conversation{conv("c1", map[string]model.TutorResponse{
		"T": {LLMAnnotations: model.Annotations{
			"Coherence_meta-llama/Llama-3-8B": model.Numeric(3),
			"Coherence/GPT5":                  model.Categorical("No"),
		}},
	})}

	all, err := Aggregate(convs, Options{Source: SourceLLM})
	require.NoError(t, err)
	assert.Equal(t, []string{"Coherence"}, all.Dimensions)
	assert.Equal(t, model.CategoryCount{Yes: 1, No: 1, Total: 2}, all.CategoryDistribution["T::Coherence"])

	llama, err := Aggregate(convs, Options{Source: SourceLLM, Judge: "meta-llama/Llama-3-8B"})
	require.NoError(t, err)
	assert.InDelta(t, 1.0, llama.AverageScoresByDimension["Coherence"], 1e-9)
}

func TestAggregateLegacyStringRating(t *testing.T) {
	convs := []model.Conversation{conv("c1", map[string]model.TutorResponse{
		"T": {LLMAnnotations: model.Annotations{"Coherence_phi4": model.Categorical("2")}},
	})}

	got, err := Aggregate(convs, Options{Source: SourceLLM, Judge: "phi4"})
	require.NoError(t, err)
	assert.InDelta(t, 0.5, got.AverageScoresByDimension["Coherence"], 1e-9)
}

func TestAggregateEmpty(t *testing.T) {
	_, err := Aggregate(nil, Options{})
	assert.ErrorIs(t, err, ErrEmptyDataset)

	noDims := []model.Conversation{conv("c1", map[string]model.TutorResponse{"T": {}})}
	_, err = Aggregate(noDims, Options{})
	assert.ErrorIs(t, err, ErrEmptyDataset)
}

func TestAggregateDeterministic(t *testing.T) {
	convs := []model.Conversation{conv("c1", map[string]model.TutorResponse{
		"B": {Annotation: model.Annotations{"Coherence": model.Numeric(0.1), "Tutor_Tone": model.Numeric(0.3)}},
		"A": {Annotation: model.Annotations{"Coherence": model.Numeric(0.7), "Humanlikeness": model.Categorical("Yes")}},
	})}
	first, err := Aggregate(convs, Options{})
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := Aggregate(convs, Options{})
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestParseSource(t *testing.T) {
	s, ok := ParseSource("autoeval")
	assert.True(t, ok)
	assert.Equal(t, SourceAuto, s)
	_, ok = ParseSource("crowd")
	assert.False(t, ok)
}
