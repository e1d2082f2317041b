package store

import (
	"context"
	"fmt"
	"sort"

	"github.com/pavelanni/tutorlens/internal/model"
)

// TutorTally counts the feedback one tutor received.
type TutorTally struct {
	Tutor        string `json:"tutor"`
	Helpful      int    `json:"helpful"`
	NotHelpful   int    `json:"notHelpful"`
	ToSomeExtent int    `json:"toSomeExtent"`
	Preferred    int    `json:"preferred"`
	Compared     int    `json:"compared"`
}

// Tally builds per-tutor counts from the filtered log. Ratings belong to
// the first tutor; a preference counts for the tutor it names.
func (f *Feedback) Tally(ctx context.Context, filter model.FeedbackFilter) ([]TutorTally, error) {
	log, err := f.Query(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("query feedback: %w", err)
	}

	byTutor := map[string]*TutorTally{}
	get := func(name string) *TutorTally {
		t, ok := byTutor[name]
		if !ok {
			t = &TutorTally{Tutor: name}
			byTutor[name] = t
		}
		return t
	}

	for _, e := range log.Feedbacks {
		if e.FirstTutor != "" {
			t := get(e.FirstTutor)
			switch model.Rating(e.Rating) {
			case model.RatingHelpful:
				t.Helpful++
			case model.RatingNotHelpful:
				t.NotHelpful++
			case model.RatingToSomeExtent:
				t.ToSomeExtent++
			}
		}
		if e.SecondTutor != "" && e.Preference != "" {
			get(e.FirstTutor).Compared++
			get(e.SecondTutor).Compared++
			switch e.Preference {
			case e.FirstTutor:
				get(e.FirstTutor).Preferred++
			case e.SecondTutor:
				get(e.SecondTutor).Preferred++
			case model.PreferenceBothGood:
				get(e.FirstTutor).Preferred++
				get(e.SecondTutor).Preferred++
			}
		}
	}

	out := make([]TutorTally, 0, len(byTutor))
	for _, t := range byTutor {
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Tutor < out[j].Tutor })
	return out, nil
}
