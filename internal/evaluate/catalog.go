// Package evaluate answers the dashboard's lookups against a normalized
// dataset: catalogs, conversation context and per-topic score results.
package evaluate

import (
	"slices"
	"strings"

	"github.com/pavelanni/tutorlens/internal/dimension"
	"github.com/pavelanni/tutorlens/internal/model"
)

// Catalog lists topics, tutors and dimensions found in the dataset. For
// ModeLLM it also lists the judges named in "Dimension/Judge" keys,
// restricted to allowlist when it is non-empty.
func Catalog(convs []model.Conversation, mode model.EvalMode, allowlist []string) model.Catalog {
	var topics, models, dims, judges uniq
	for _, c := range convs {
		if c.ProblemTopic != "" {
			topics.add(c.ProblemTopic)
		}
		for _, name := range c.TutorNames() {
			models.add(name)
			t := c.Tutors[name]
			for _, k := range sortedKeys(t.Annotation) {
				dims.add(k)
			}
			if mode != model.ModeLLM {
				continue
			}
			for _, k := range sortedKeys(t.LLMAnnotations) {
				if legacyKey(k) {
					continue
				}
				parts := strings.Split(k, "/")
				if len(parts) != 2 || parts[1] == "" {
					continue
				}
				if len(allowlist) > 0 && !slices.Contains(allowlist, parts[1]) {
					continue
				}
				judges.add(parts[1])
			}
		}
	}
	cat := model.Catalog{
		Success:            true,
		ProblemTopics:      topics.list(),
		Models:             models.list(),
		Dimensions:         dimension.Order(dims.list()),
		TotalConversations: len(convs),
		DataSource:         "evaluation",
	}
	if mode == model.ModeLLM {
		cat.JudgeLLMs = judges.list()
	}
	return cat
}

// Context returns the history of the first conversation for topic.
func Context(convs []model.Conversation, topic string) (model.ContextResponse, error) {
	if err := Validate(model.ContextRequest{ProblemTopic: topic}); err != nil {
		return model.ContextResponse{}, err
	}
	matches, err := byTopic(convs, topic)
	if err != nil {
		return model.ContextResponse{}, err
	}
	c := matches[0]
	return model.ContextResponse{
		Success:             true,
		ConversationHistory: c.ConversationHistory,
		ConversationID:      c.ID,
		ProblemTopic:        topic,
	}, nil
}

// Topics returns the distinct topics in dataset order.
func Topics(convs []model.Conversation) []string {
	var u uniq
	for _, c := range convs {
		u.add(c.ProblemTopic)
	}
	return u.list()
}

func byTopic(convs []model.Conversation, topic string) ([]model.Conversation, error) {
	var out []model.Conversation
	for _, c := range convs {
		if c.ProblemTopic == topic {
			out = append(out, c)
		}
	}
	if len(out) == 0 {
		return nil, notFound("topic", topic, Topics(convs))
	}
	return out, nil
}

// legacyKey reports whether k is a "Dimension_judge/path" numeric key.
func legacyKey(k string) bool {
	for _, name := range dimension.Names() {
		if strings.HasPrefix(k, name+"_") {
			return true
		}
	}
	return false
}

// uniq collects strings in first-seen order.
type uniq struct {
	seen  map[string]bool
	items []string
}

func (u *uniq) add(s string) {
	if u.seen == nil {
		u.seen = map[string]bool{}
	}
	if !u.seen[s] {
		u.seen[s] = true
		u.items = append(u.items, s)
	}
}

func (u *uniq) list() []string {
	if u.items == nil {
		return []string{}
	}
	return u.items
}

func sortedKeys(ann model.Annotations) []string {
	keys := make([]string, 0, len(ann))
	for k := range ann {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
