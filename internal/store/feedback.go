package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pavelanni/tutorlens/internal/model"
)

// DefaultFeedbackKey is the blob key used when none is configured.
const DefaultFeedbackKey = "tutorlens:feedback"

// Feedback appends to and queries the feedback log kept in one blob.
// Appends are serialized within the process only; two servers sharing a
// backend can lose each other's writes.
type Feedback struct {
	blob Blob
	key  string

	mu    sync.Mutex
	now   func() time.Time
	newID func() string
}

func NewFeedback(blob Blob, key string) *Feedback {
	if key == "" {
		key = DefaultFeedbackKey
	}
	return &Feedback{
		blob:  blob,
		key:   key,
		now:   time.Now,
		newID: func() string { return "feedback-" + uuid.NewString() },
	}
}

// ResolvePreference turns the client's preference choice into the value
// that is stored: a tutor name or one of the "both" literals.
func ResolvePreference(p model.Preference, first, second string) string {
	switch p {
	case model.PreferFirst:
		return first
	case model.PreferSecond:
		return second
	case model.PreferBoth:
		return model.PreferenceBothGood
	case model.PreferBothBad:
		return model.PreferenceBothBad
	}
	return string(p)
}

// Append stores a new entry and returns its id.
func (f *Feedback) Append(ctx context.Context, req model.FeedbackRequest) (string, error) {
	ts := req.Timestamp
	if ts == "" {
		ts = f.now().UTC().Format(time.RFC3339)
	}
	entry := model.FeedbackEntry{
		ID:             f.newID(),
		Timestamp:      ts,
		ProblemTopic:   req.ProblemTopic,
		ConversationID: req.ConversationID,
		EvaluationType: req.EvaluationType,
		FirstTutor:     req.FirstTutor,
		SecondTutor:    req.SecondTutor,
		Rating:         string(req.Rating),
		Module:         req.Module,
	}
	if req.Preference != "" {
		entry.Preference = ResolvePreference(req.Preference, req.FirstTutor, req.SecondTutor)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	log, err := f.load(ctx)
	if err != nil {
		return "", err
	}
	log.Feedbacks = append(log.Feedbacks, entry)
	log.Metadata.TotalFeedbacks = len(log.Feedbacks)
	log.Metadata.LastUpdated = ts

	data, err := json.Marshal(log)
	if err != nil {
		return "", fmt.Errorf("encode feedback log: %w", err)
	}
	if err := f.blob.Set(ctx, f.key, data); err != nil {
		return "", fmt.Errorf("write feedback log: %w", err)
	}
	return entry.ID, nil
}

// Query returns the entries passing filter. Metadata.TotalFeedbacks counts
// the filtered entries.
func (f *Feedback) Query(ctx context.Context, filter model.FeedbackFilter) (model.FeedbackLog, error) {
	log, err := f.load(ctx)
	if err != nil {
		return model.FeedbackLog{}, err
	}
	out := model.FeedbackLog{Feedbacks: []model.FeedbackEntry{}, Metadata: log.Metadata}
	for _, e := range log.Feedbacks {
		if filter.Matches(e) {
			out.Feedbacks = append(out.Feedbacks, e)
		}
	}
	out.Metadata.TotalFeedbacks = len(out.Feedbacks)
	return out, nil
}

func (f *Feedback) load(ctx context.Context) (model.FeedbackLog, error) {
	data, found, err := f.blob.Get(ctx, f.key)
	if err != nil {
		return model.FeedbackLog{}, fmt.Errorf("read feedback log: %w", err)
	}
	if !found {
		return model.FeedbackLog{
			Feedbacks: []model.FeedbackEntry{},
			Metadata:  model.FeedbackMetadata{LastUpdated: f.now().UTC().Format(time.RFC3339)},
		}, nil
	}
	var log model.FeedbackLog
	if err := json.Unmarshal(data, &log); err != nil {
		return model.FeedbackLog{}, fmt.Errorf("decode feedback log: %w", err)
	}
	return log, nil
}
