package jsonrepair

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type verdict struct {
	NeedsBreakdown bool     `json:"needs_breakdown"`
	SubQuestions   []string `json:"sub_questions"`
}

func TestDecode(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    verdict
		wantErr bool
	}{
		{
			name:    "clean JSON",
			content: `{"needs_breakdown": true, "sub_questions": ["a", "b"]}`,
			want:    verdict{NeedsBreakdown: true, SubQuestions: []string{"a", "b"}},
		},
		{
			name:    "JSON wrapped in prose",
			content: "Sure, here is the result:\n{\"needs_breakdown\": false, \"sub_questions\": []}\nLet me know if you need more.",
			want:    verdict{NeedsBreakdown: false, SubQuestions: []string{}},
		},
		{
			name:    "markdown fenced",
			content: "```json\n{\"needs_breakdown\": true, \"sub_questions\": [\"x\"]}\n```",
			want:    verdict{NeedsBreakdown: true, SubQuestions: []string{"x"}},
		},
		{
			name:    "trailing comma",
			content: `{"needs_breakdown": true, "sub_questions": ["a", "b",],}`,
			want:    verdict{NeedsBreakdown: true, SubQuestions: []string{"a", "b"}},
		},
		{
			name:    "missing comma between array elements",
			content: "{\"needs_breakdown\": true, \"sub_questions\": [\"a\"\n\"b\"]}",
			want:    verdict{NeedsBreakdown: true, SubQuestions: []string{"a", "b"}},
		},
		{
			name:    "truncated mid string",
			content: `{"needs_breakdown": true, "sub_questions": ["a", "b`,
			want:    verdict{NeedsBreakdown: true, SubQuestions: []string{"a", "b"}},
		},
		{
			name:    "truncated after value",
			content: `{"needs_breakdown": true, "sub_questions": ["a", "b"],`,
			want:    verdict{NeedsBreakdown: true, SubQuestions: []string{"a", "b"}},
		},
		{
			name:    "no JSON at all",
			content: "I cannot answer that.",
			wantErr: true,
		},
		{
			name:    "empty content",
			content: "",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got verdict
			err := Decode(tt.content, &got)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want.NeedsBreakdown, got.NeedsBreakdown)
			assert.Equal(t, tt.want.SubQuestions, got.SubQuestions)
		})
	}
}

func TestRecoverTruncationClosesNestedStructures(t *testing.T) {
	type nested struct {
		Evaluations []struct {
			SubQuestion string `json:"sub_question"`
			IsValid     bool   `json:"is_valid"`
		} `json:"evaluations"`
	}

	content := `{"evaluations": [{"sub_question": "a", "is_valid": true}, {"sub_question": "b", "is_valid"`

	var got nested
	// The dangling key cannot be recovered; the repaired document must still
	// not parse into garbage silently.
	err := Decode(content, &got)
	if err == nil {
		// If repair succeeded, the intact first element must be preserved.
		assert.GreaterOrEqual(t, len(got.Evaluations), 1)
		assert.Equal(t, "a", got.Evaluations[0].SubQuestion)
	}
}
