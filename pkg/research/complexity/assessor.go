package complexity

import (
	"context"
	"fmt"
	"strings"
	"time"

	"ai-research-be/internal/pkg/logger"
	"ai-research-be/pkg/llm"
	"ai-research-be/pkg/research/jsonrepair"

	gocache "github.com/patrickmn/go-cache"
)

// Complexity levels form an ordinal scale. LevelSimple questions are never
// decomposed; higher levels request more sub-questions.
const (
	LevelSimple       = 1
	LevelModerate     = 2
	LevelComplex      = 3
	LevelMultiFaceted = 4

	// DefaultLevel is the mid-range fallback used when classification fails.
	DefaultLevel = LevelComplex
)

// Assessor classifies question complexity and vagueness with single LLM
// calls. Results are memoized per question text, since the same question can
// be re-evaluated several times within one tree walk.
type Assessor struct {
	llm       llm.LLMProvider
	logger    logger.ILogger
	cache     *gocache.Cache
	maxTokens int
}

func NewAssessor(provider llm.LLMProvider, log logger.ILogger, evaluationMaxTokens int) *Assessor {
	return &Assessor{
		llm:       provider,
		logger:    log,
		cache:     gocache.New(15*time.Minute, 30*time.Minute),
		maxTokens: evaluationMaxTokens,
	}
}

type complexityVerdict struct {
	Level     int    `json:"level"`
	Reasoning string `json:"reasoning"`
}

type vaguenessVerdict struct {
	IsVague   bool   `json:"is_vague"`
	Reasoning string `json:"reasoning"`
}

// Assess returns the question's complexity level. Provider errors and
// malformed responses degrade to DefaultLevel; a tree walk must never abort
// because classification failed.
func (a *Assessor) Assess(ctx context.Context, question string) int {
	cacheKey := "complexity:" + question
	if cached, found := a.cache.Get(cacheKey); found {
		return cached.(int)
	}

	prompt := fmt.Sprintf(`You are a research assistant tasked with rating the complexity of research questions.

Rate the following question on a scale from 1 to 4:
1 = simple: a single factual question with one well-defined answer
2 = moderate: a focused question covering one concept with a few facets
3 = complex: a broad question spanning several distinct concepts or aspects
4 = multi-faceted: a sweeping question that combines multiple topics, each needing separate analysis

Consider the number of distinct concepts involved, the breadth of scope, and how many separate facets a thorough answer would require.

Question: %s

Your response should be in JSON format:
{
  "level": 1-4,
  "reasoning": "Brief explanation of the rating"
}`, question)

	history := []llm.Message{
		{Role: "system", Content: "You are a helpful research assistant that rates the complexity of questions. Always respond in valid JSON format."},
		{Role: "user", Content: prompt},
	}

	content, err := a.llm.Chat(ctx, history,
		llm.WithTemperature(0.1),
		llm.WithMaxTokens(a.maxTokens),
	)
	if err != nil {
		a.logger.Warn("ComplexityAssessor", "Complexity classification failed, using default level", map[string]interface{}{
			"question": question,
			"error":    err.Error(),
		})
		return DefaultLevel
	}

	var verdict complexityVerdict
	if err := jsonrepair.Decode(content, &verdict); err != nil {
		a.logger.Warn("ComplexityAssessor", "Could not parse complexity verdict, using default level", map[string]interface{}{
			"question": question,
			"error":    err.Error(),
		})
		return DefaultLevel
	}

	level := verdict.Level
	if level < LevelSimple || level > LevelMultiFaceted {
		level = DefaultLevel
	}

	a.logger.Debug("ComplexityAssessor", "Question complexity assessed", map[string]interface{}{
		"question":  question,
		"level":     level,
		"reasoning": verdict.Reasoning,
	})
	a.cache.Set(cacheKey, level, gocache.DefaultExpiration)
	return level
}

// IsTooVague reports whether the question lacks the specificity needed for a
// grounded answer. Fails closed to false: an unclassifiable question still
// gets the normal answer path.
func (a *Assessor) IsTooVague(ctx context.Context, question string) bool {
	cacheKey := "vagueness:" + question
	if cached, found := a.cache.Get(cacheKey); found {
		return cached.(bool)
	}

	prompt := fmt.Sprintf(`You are a research assistant tasked with evaluating questions.

Given the following question, determine if it is too vague to provide a detailed, specific answer:

Question: %s

A question is too vague if:
1. It lacks specific context or parameters
2. It could be interpreted in many different ways
3. It's overly broad without clear focus
4. It uses ambiguous terms without clarification

Your response should be in JSON format:
{
  "is_vague": true/false,
  "reasoning": "Brief explanation of why this question is or is not too vague"
}`, question)

	history := []llm.Message{
		{Role: "system", Content: "You are a helpful research assistant that evaluates the specificity of questions. Always respond in valid JSON format."},
		{Role: "user", Content: prompt},
	}

	content, err := a.llm.Chat(ctx, history,
		llm.WithTemperature(0.2),
		llm.WithMaxTokens(500),
	)
	if err != nil {
		a.logger.Warn("ComplexityAssessor", "Vagueness classification failed, treating as specific", map[string]interface{}{
			"question": question,
			"error":    err.Error(),
		})
		return false
	}

	var verdict vaguenessVerdict
	if err := jsonrepair.Decode(content, &verdict); err != nil {
		a.logger.Warn("ComplexityAssessor", "Could not parse vagueness verdict, treating as specific", map[string]interface{}{
			"question": question,
			"error":    err.Error(),
		})
		return false
	}

	a.logger.Debug("ComplexityAssessor", "Vagueness evaluated", map[string]interface{}{
		"question":  question,
		"is_vague":  verdict.IsVague,
		"reasoning": verdict.Reasoning,
	})
	a.cache.Set(cacheKey, verdict.IsVague, gocache.DefaultExpiration)
	return verdict.IsVague
}

// TargetSubQuestions maps a complexity level to how many sub-questions the
// decomposition prompt should request: non-decreasing in level, capped at the
// configured maximum, and never below two (a single sub-question is not a
// decomposition).
func TargetSubQuestions(level, maxSubQuestions int) int {
	target := level
	if target > maxSubQuestions {
		target = maxSubQuestions
	}
	if target < 2 {
		target = 2
	}
	return target
}

// ShouldDecompose is the deterministic decomposition gate: the recursion
// threshold raises the minimum complexity level a question must reach before
// it is broken down. At threshold 0 anything above simple qualifies.
func ShouldDecompose(level, recursionThreshold int) bool {
	return level >= LevelModerate+recursionThreshold
}

// MatchesSingleSubQuestionKeywords reports whether the question matches the
// lexical heuristic ("impact", "trend", comparison phrasing) under which a
// lone sub-question is still accepted.
func MatchesSingleSubQuestionKeywords(question string, keywords []string) bool {
	lowered := strings.ToLower(question)
	for _, keyword := range keywords {
		if keyword != "" && strings.Contains(lowered, strings.ToLower(keyword)) {
			return true
		}
	}
	return false
}
