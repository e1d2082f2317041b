// Package prompts renders the judge prompts from embedded templates.
package prompts

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"regexp"
	"strings"
	"sync"
	"text/template"
	"unicode/utf8"

	"github.com/pavelanni/tutorlens/internal/dimension"
)

//go:embed templates/*.tmpl
var Templates embed.FS

var conversationTagRegex = regexp.MustCompile(`(?i)</?\s*conversation\b[^>]*>`)

// maxConversationRunes bounds the conversation text sent to the judge.
const maxConversationRunes = 10000

// Style picks the prompt shape for the endpoint in use.
type Style string

const (
	// StyleCompletion is a single prompt for /v1/completions (vLLM).
	StyleCompletion Style = "completion"
	// StyleChat is a system prompt for /v1/chat/completions.
	StyleChat Style = "chat"
)

var (
	loadOnce  sync.Once
	loadErr   error
	templates map[Style]*template.Template
)

// Data holds template data for one dimension.
type Data struct {
	Dimension    string
	DisplayName  string
	Description  string
	Question     string
	Conversation string
}

// Load parses the templates from fsys. Only the first call has an effect.
func Load(fsys fs.FS) error {
	loadOnce.Do(func() {
		templates = make(map[Style]*template.Template)
		for _, s := range []Style{StyleCompletion, StyleChat} {
			file := "templates/" + string(s) + ".tmpl"
			content, err := fs.ReadFile(fsys, file)
			if err != nil {
				loadErr = fmt.Errorf("read prompt file %s: %w", file, err)
				return
			}
			tmpl, err := template.New(string(s)).Parse(string(content))
			if err != nil {
				loadErr = fmt.Errorf("parse prompt template %s: %w", file, err)
				return
			}
			templates[s] = tmpl
		}
	})
	return loadErr
}

// NewData describes a dimension for the templates. dim may be a canonical
// name or an abbreviation; unknown dimensions get a generic question.
func NewData(dim, conversation string) Data {
	d := Data{
		Dimension:    dim,
		DisplayName:  strings.ReplaceAll(dim, "_", " "),
		Question:     "the tutor response is good with respect to " + strings.ReplaceAll(dim, "_", " "),
		Conversation: sanitizeConversation(conversation),
	}
	if def, ok := dimension.Lookup(dim); ok {
		d.Dimension = def.Name
		d.DisplayName = def.DisplayName
		d.Description = def.Description
		if def.JudgeQuestion != "" {
			d.Question = def.JudgeQuestion
		}
	}
	return d
}

// Build renders the prompt of the given style.
func Build(style Style, data Data) (string, error) {
	if templates == nil {
		return "", errors.New("templates not initialized: call Load first")
	}
	tmpl, ok := templates[style]
	if !ok {
		if loadErr != nil {
			return "", fmt.Errorf("templates load failed: %w", loadErr)
		}
		return "", errors.New("invalid prompt style: " + string(style))
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func sanitizeConversation(conv string) string {
	conv = conversationTagRegex.ReplaceAllString(conv, "")
	conv = strings.TrimSpace(conv)
	if conv == "" {
		return "[No conversation provided]"
	}
	if utf8.RuneCountInString(conv) > maxConversationRunes {
		runes := []rune(conv)
		conv = string(runes[:maxConversationRunes]) + "\n\n[Conversation truncated due to length]"
	}
	return conv
}
