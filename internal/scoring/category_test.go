package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pavelanni/tutorlens/internal/model"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name  string
		score model.Score
		want  Category
	}{
		{"one", model.Numeric(1), CategoryYes},
		{"at yes threshold", model.Numeric(0.75), CategoryYes},
		{"just below yes", model.Numeric(0.7499), CategoryToSomeExtent},
		{"at some-extent threshold", model.Numeric(0.25), CategoryToSomeExtent},
		{"just below some-extent", model.Numeric(0.249999), CategoryNo},
		{"zero", model.Numeric(0), CategoryNo},
		{"label yes", model.Categorical("YES"), CategoryYes},
		{"label some extent", model.Categorical("to some extent"), CategoryToSomeExtent},
		{"label no", model.Categorical("No"), CategoryNo},
		{"unknown label", model.Categorical("Partially"), CategoryNo},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.score))
		})
	}
}

func TestNumericEquivalent(t *testing.T) {
	assert.Equal(t, 1.0, NumericEquivalent(model.Categorical("Yes")))
	assert.Equal(t, 0.5, NumericEquivalent(model.Categorical("To some extent")))
	assert.Equal(t, 0.0, NumericEquivalent(model.Categorical("no")))
	assert.Equal(t, 0.3, NumericEquivalent(model.Categorical("0.3")))
	assert.Equal(t, 0.0, NumericEquivalent(model.Categorical("maybe")))
	assert.Equal(t, 0.62, NumericEquivalent(model.Numeric(0.62)))
}

func TestAdd(t *testing.T) {
	var cc model.CategoryCount
	Add(&cc, CategoryYes)
	Add(&cc, CategoryNo)
	Add(&cc, CategoryNo)
	Add(&cc, CategoryToSomeExtent)
	assert.Equal(t, model.CategoryCount{Yes: 1, ToSomeExtent: 1, No: 2, Total: 4}, cc)
}
