package dataset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		file    string
		want    int
		wantErr bool
	}{
		{"jsonl", "{\"id\":\"1\"}\n\n{\"id\":\"2\"}\n", "d.jsonl", 2, false},
		{"jsonl bad line", "{\"id\":\"1\"}\nnot json\n", "d.jsonl", 0, true},
		{"jsonl null line", "null\n", "d.jsonl", 0, true},
		{"json array", `[{"id":"1"},{"id":"2"},{"id":"3"}]`, "d.json", 3, false},
		{"json single record", `{"id":"1","tutors":{}}`, "D.JSON", 1, false},
		{"json empty object", `{}`, "d.json", 0, true},
		{"json scalar", `42`, "d.json", 0, true},
		{"json array of scalars", `[1,2]`, "d.json", 0, true},
		{"unsupported extension", `[]`, "d.csv", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse([]byte(tt.data), tt.file)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrMalformedDataset)
				return
			}
			require.NoError(t, err)
			assert.Len(t, got, tt.want)
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		records []map[string]any
		wantErr bool
	}{
		{"empty", nil, true},
		{"no id", []map[string]any{{"tutors": map[string]any{}}}, true},
		{"no tutors", []map[string]any{{"id": "1"}}, true},
		{"tutors not object", []map[string]any{{"id": "1", "tutors": "x"}}, true},
		{"ok tutors", []map[string]any{{"id": "1", "tutors": map[string]any{}}}, false},
		{"ok legacy", []map[string]any{{"conversation_id": "1", "anno_llm_responses": map[string]any{}}}, false},
		{"only first checked", []map[string]any{{"id": "1", "tutors": map[string]any{}}, {}}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.records)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrMalformedDataset)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestDigest(t *testing.T) {
	a := Digest([]byte("abc"))
	assert.Len(t, a, 64)
	assert.Equal(t, a, Digest([]byte("abc")))
	assert.NotEqual(t, a, Digest([]byte("abd")))
}
