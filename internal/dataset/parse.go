package dataset

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"strings"
)

var (
	// ErrDatasetNotFound means the dataset location does not exist.
	ErrDatasetNotFound = errors.New("dataset not found")
	// ErrMalformedDataset means the payload could not be parsed or failed validation.
	ErrMalformedDataset = errors.New("malformed dataset")
)

// recordKeys are the fields that mark a JSON object as a dataset record.
var recordKeys = []string{
	"id", "conversation_id",
	"Problem_topic", "problem_topic", "Topic",
	"tutors", "tutor_responses", "anno_llm_responses",
}

// Parse decodes a dataset payload. The format follows the name's
// extension: ".jsonl" holds one object per line, ".json" holds an array of
// objects or a single record object.
func Parse(data []byte, name string) ([]map[string]any, error) {
	switch strings.ToLower(path.Ext(name)) {
	case ".jsonl":
		return parseLines(data)
	case ".json":
		return parseDocument(data)
	}
	return nil, fmt.Errorf("%w: unsupported format %q (use .json or .jsonl)", ErrMalformedDataset, name)
}

func parseLines(data []byte) ([]map[string]any, error) {
	var out []map[string]any
	for i, line := range bytes.Split(data, []byte("\n")) {
		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}
		var rec map[string]any
		if err := json.Unmarshal(line, &rec); err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrMalformedDataset, i+1, err)
		}
		if rec == nil {
			return nil, fmt.Errorf("%w: line %d: not an object", ErrMalformedDataset, i+1)
		}
		out = append(out, rec)
	}
	return out, nil
}

func parseDocument(data []byte) ([]map[string]any, error) {
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedDataset, err)
	}
	switch v := doc.(type) {
	case []any:
		out := make([]map[string]any, 0, len(v))
		for i, item := range v {
			rec, ok := item.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("%w: item %d is %T, want object", ErrMalformedDataset, i, item)
			}
			out = append(out, rec)
		}
		return out, nil
	case map[string]any:
		if !looksLikeRecord(v) {
			return nil, fmt.Errorf("%w: top-level object is not a record", ErrMalformedDataset)
		}
		return []map[string]any{v}, nil
	}
	return nil, fmt.Errorf("%w: top-level value is %T, want array or object", ErrMalformedDataset, doc)
}

func looksLikeRecord(m map[string]any) bool {
	for _, k := range recordKeys {
		if _, ok := m[k]; ok {
			return true
		}
	}
	return false
}

// Validate checks the dataset is non-empty and that its first record has
// an id and a tutor map.
func Validate(records []map[string]any) error {
	if len(records) == 0 {
		return fmt.Errorf("%w: dataset cannot be empty", ErrMalformedDataset)
	}
	first := records[0]
	if !truthy(first["id"]) && !truthy(first["conversation_id"]) {
		return fmt.Errorf("%w: each item must have an 'id' or 'conversation_id' field", ErrMalformedDataset)
	}
	var tutors any
	for _, k := range []string{"tutor_responses", "tutors", "anno_llm_responses"} {
		if v, ok := first[k]; ok && v != nil {
			tutors = v
			break
		}
	}
	if tutors == nil {
		return fmt.Errorf("%w: each item must have a 'tutors', 'tutor_responses', or 'anno_llm_responses' field", ErrMalformedDataset)
	}
	if !isObject(tutors) {
		return fmt.Errorf("%w: tutors/responses field must be an object", ErrMalformedDataset)
	}
	return nil
}

func truthy(v any) bool {
	switch t := v.(type) {
	case string:
		return t != ""
	case float64:
		return t != 0
	case bool:
		return t
	case nil:
		return false
	}
	return true
}
