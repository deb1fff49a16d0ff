package complexity

import (
	"context"
	"errors"
	"strings"
	"testing"

	"ai-research-be/pkg/llm"

	"github.com/stretchr/testify/assert"
)

type noopLogger struct{}

func (noopLogger) Debug(string, string, map[string]interface{}) {}
func (noopLogger) Info(string, string, map[string]interface{})  {}
func (noopLogger) Warn(string, string, map[string]interface{})  {}
func (noopLogger) Error(string, string, map[string]interface{}) {}
func (noopLogger) Sync() error                                  { return nil }

type stubLLM struct {
	response string
	err      error
	calls    int
}

func (s *stubLLM) Chat(context.Context, []llm.Message, ...llm.Option) (string, error) {
	s.calls++
	return s.response, s.err
}

func (s *stubLLM) Generate(ctx context.Context, prompt string, opts ...llm.Option) (string, error) {
	return s.Chat(ctx, nil, opts...)
}

func TestAssessParsesLevel(t *testing.T) {
	provider := &stubLLM{response: `{"level": 2, "reasoning": "one concept, a few facets"}`}
	assessor := NewAssessor(provider, noopLogger{}, 600)

	assert.Equal(t, LevelModerate, assessor.Assess(context.Background(), "How does TLS handshaking work?"))
}

func TestAssessFallsBackOnProviderError(t *testing.T) {
	provider := &stubLLM{err: errors.New("timeout")}
	assessor := NewAssessor(provider, noopLogger{}, 600)

	assert.Equal(t, DefaultLevel, assessor.Assess(context.Background(), "Anything"))
}

func TestAssessFallsBackOnMalformedResponse(t *testing.T) {
	provider := &stubLLM{response: "it depends"}
	assessor := NewAssessor(provider, noopLogger{}, 600)

	assert.Equal(t, DefaultLevel, assessor.Assess(context.Background(), "Anything"))
}

func TestAssessClampsOutOfRangeLevel(t *testing.T) {
	provider := &stubLLM{response: `{"level": 9}`}
	assessor := NewAssessor(provider, noopLogger{}, 600)

	assert.Equal(t, DefaultLevel, assessor.Assess(context.Background(), "Anything"))
}

func TestAssessMemoizesPerQuestion(t *testing.T) {
	provider := &stubLLM{response: `{"level": 4}`}
	assessor := NewAssessor(provider, noopLogger{}, 600)

	question := "How do climate, policy, and economics interact?"
	assessor.Assess(context.Background(), question)
	assessor.Assess(context.Background(), question)

	assert.Equal(t, 1, provider.calls)
}

func TestIsTooVague(t *testing.T) {
	tests := []struct {
		name     string
		response string
		err      error
		want     bool
	}{
		{name: "vague", response: `{"is_vague": true, "reasoning": "no parameters"}`, want: true},
		{name: "specific", response: `{"is_vague": false}`, want: false},
		{name: "provider error fails closed", err: errors.New("timeout"), want: false},
		{name: "malformed fails closed", response: "hard to say", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider := &stubLLM{response: tt.response, err: tt.err}
			assessor := NewAssessor(provider, noopLogger{}, 600)
			assert.Equal(t, tt.want, assessor.IsTooVague(context.Background(), "Question "+tt.name))
		})
	}
}

func TestTargetSubQuestions(t *testing.T) {
	tests := []struct {
		level int
		max   int
		want  int
	}{
		{level: LevelSimple, max: 5, want: 2},
		{level: LevelModerate, max: 5, want: 2},
		{level: LevelComplex, max: 5, want: 3},
		{level: LevelMultiFaceted, max: 5, want: 4},
		{level: LevelMultiFaceted, max: 3, want: 3},
		{level: LevelComplex, max: 1, want: 2}, // never below two
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, TargetSubQuestions(tt.level, tt.max))
	}
}

func TestShouldDecompose(t *testing.T) {
	// Threshold raises the bar one level at a time.
	assert.False(t, ShouldDecompose(LevelSimple, 0))
	assert.True(t, ShouldDecompose(LevelModerate, 0))
	assert.False(t, ShouldDecompose(LevelModerate, 1))
	assert.True(t, ShouldDecompose(LevelComplex, 1))
	assert.False(t, ShouldDecompose(LevelComplex, 2))
	assert.True(t, ShouldDecompose(LevelMultiFaceted, 2))
}

func TestMatchesSingleSubQuestionKeywords(t *testing.T) {
	keywords := []string{"impact", "trend", "comparison"}

	assert.True(t, MatchesSingleSubQuestionKeywords("What is the IMPACT of remote work?", keywords))
	assert.True(t, MatchesSingleSubQuestionKeywords("Recent trends in energy", keywords))
	assert.False(t, MatchesSingleSubQuestionKeywords("How does a CPU cache work?", keywords))
	assert.False(t, MatchesSingleSubQuestionKeywords(strings.Repeat("x", 10), nil))
}
