package decompose

import (
	"context"
	"encoding/json"
	"fmt"

	"ai-research-be/internal/pkg/logger"
	"ai-research-be/pkg/llm"
	"ai-research-be/pkg/research/complexity"
	"ai-research-be/pkg/research/jsonrepair"
)

// Engine generates candidate sub-questions and filters them through two
// independent validation passes (simplicity against the parent, relevance
// against the original root question). Every stage fails closed: a malformed
// response or an emptied candidate list means no decomposition, never a wrong
// one.
type Engine struct {
	llm    llm.LLMProvider
	logger logger.ILogger

	maxSubQuestions     int
	evaluationMaxTokens int
	singleSubKeywords   []string
}

func NewEngine(
	provider llm.LLMProvider,
	log logger.ILogger,
	maxSubQuestions, evaluationMaxTokens int,
	singleSubQuestionKeywords []string,
) *Engine {
	return &Engine{
		llm:                 provider,
		logger:              log,
		maxSubQuestions:     maxSubQuestions,
		evaluationMaxTokens: evaluationMaxTokens,
		singleSubKeywords:   singleSubQuestionKeywords,
	}
}

type generationResult struct {
	NeedsBreakdown bool     `json:"needs_breakdown"`
	Reasoning      string   `json:"reasoning"`
	SubQuestions   []string `json:"sub_questions"`
}

type evaluationItem struct {
	SubQuestion string `json:"sub_question"`
	IsValid     bool   `json:"is_valid"`
	IsRelevant  bool   `json:"is_relevant"`
	Reasoning   string `json:"reasoning"`
}

type evaluationResult struct {
	Evaluations []evaluationItem `json:"evaluations"`
}

// Decompose returns validated sub-questions for the node, or an empty slice
// when the question should stay a leaf. Only transport-level LLM failures
// surface as errors; parse failures and validator rejections return empty.
func (e *Engine) Decompose(ctx context.Context, question, originalQuestion string, level, depth int) ([]string, error) {
	target := complexity.TargetSubQuestions(level, e.maxSubQuestions)

	candidates, err := e.generate(ctx, question, originalQuestion, target, depth)
	if err != nil {
		return nil, err
	}
	if len(candidates) > e.maxSubQuestions {
		candidates = candidates[:e.maxSubQuestions]
	}
	if !e.enoughCandidates(question, candidates) {
		e.logger.Debug("DecompositionEngine", "Not enough sub-questions generated, keeping node as leaf", map[string]interface{}{
			"question":   question,
			"candidates": len(candidates),
		})
		return nil, nil
	}

	// The simplicity check only matters below the root; a root question has
	// no parent to be simpler than.
	if depth > 0 {
		candidates, err = e.validateSimplicity(ctx, question, candidates, depth)
		if err != nil {
			return nil, err
		}
		if len(candidates) == 0 {
			e.logger.Debug("DecompositionEngine", "All candidates rejected by simplicity validation", map[string]interface{}{
				"question": question,
			})
			return nil, nil
		}
	}

	candidates, err = e.validateRelevance(ctx, originalQuestion, candidates)
	if err != nil {
		return nil, err
	}
	if !e.enoughCandidates(question, candidates) {
		e.logger.Debug("DecompositionEngine", "Candidates rejected by relevance validation", map[string]interface{}{
			"question": question,
			"survived": len(candidates),
		})
		return nil, nil
	}

	return candidates, nil
}

// enoughCandidates applies the minimum-batch rule: fewer than two
// sub-questions is not a decomposition, unless the parent matches the
// impact/trend/comparison keyword heuristic, in which case one suffices.
func (e *Engine) enoughCandidates(question string, candidates []string) bool {
	if len(candidates) >= 2 {
		return true
	}
	if len(candidates) == 1 && complexity.MatchesSingleSubQuestionKeywords(question, e.singleSubKeywords) {
		e.logger.Debug("DecompositionEngine", "Accepting single sub-question via keyword heuristic", map[string]interface{}{
			"question": question,
		})
		return true
	}
	return false
}

func (e *Engine) generate(ctx context.Context, question, originalQuestion string, target, depth int) ([]string, error) {
	depthGuidance := ""
	if depth > 0 {
		depthGuidance = fmt.Sprintf(`
CRITICAL: You are at recursion depth %d. At this depth, it is ESSENTIAL that any sub-questions you generate are SIGNIFICANTLY SIMPLER than the parent question.
Each sub-question MUST:
1. Be more specific and narrower in scope than the parent question
2. Focus on a single, well-defined aspect of the parent question
3. Be answerable with less complexity than the parent question
4. Avoid introducing new complexity or broadening the scope
`, depth)
	}

	prompt := fmt.Sprintf(`You are a research assistant tasked with breaking down complex questions into simpler sub-questions.

Break the following question into up to %d sub-questions for more thorough research.
%s
EXTREMELY IMPORTANT: All sub-questions MUST be directly related to the original research question and should not deviate from the main topic.
Each sub-question should:
1. Explore a specific aspect of the ORIGINAL question
2. Maintain clear relevance to the main topic
3. Not introduce tangential or only loosely related topics
4. Together with other sub-questions, comprehensively cover the original question

Original research question: %s

Question: %s

Your response should be in JSON format:
{
  "needs_breakdown": true/false,
  "reasoning": "Brief explanation of why this question should or should not be broken down",
  "sub_questions": ["sub-question 1", "sub-question 2", ...]
}

If needs_breakdown is false, sub_questions can be an empty array.`, target, depthGuidance, originalQuestion, question)

	system := "You are a research assistant that breaks down complex questions into simpler sub-questions when appropriate."
	if depth > 0 {
		system += fmt.Sprintf(" At depth %d, you MUST ensure that sub-questions are SIGNIFICANTLY SIMPLER than their parent question.", depth)
	}
	system += " Always respond in valid JSON format. Ensure all sub-questions remain directly focused on the original topic and don't introduce tangential subjects."

	content, err := e.llm.Chat(ctx, []llm.Message{
		{Role: "system", Content: system},
		{Role: "user", Content: prompt},
	},
		llm.WithTemperature(0.15),
		llm.WithMaxTokens(e.evaluationMaxTokens),
	)
	if err != nil {
		return nil, fmt.Errorf("sub-question generation failed: %w", err)
	}

	var result generationResult
	if err := jsonrepair.Decode(content, &result); err != nil {
		e.logger.Warn("DecompositionEngine", "Could not parse generation response, keeping node as leaf", map[string]interface{}{
			"question": question,
			"error":    err.Error(),
		})
		return nil, nil
	}
	if !result.NeedsBreakdown {
		e.logger.Debug("DecompositionEngine", "Model declined to break down question", map[string]interface{}{
			"question":  question,
			"reasoning": result.Reasoning,
		})
		return nil, nil
	}
	return nonEmpty(result.SubQuestions), nil
}

func (e *Engine) validateSimplicity(ctx context.Context, parentQuestion string, candidates []string, depth int) ([]string, error) {
	listJson, err := json.MarshalIndent(candidates, "", "  ")
	if err != nil {
		return nil, err
	}

	prompt := fmt.Sprintf(`You are a research assistant tasked with evaluating whether sub-questions are simpler than their parent question and stay on topic.

Parent question: %s

Sub-questions:
%s

For each sub-question, determine if it meets BOTH of these criteria:
1. It is GENUINELY SIMPLER than the parent question (more specific, narrower scope, less complex)
2. It STAYS ON TOPIC and is directly relevant to the parent question (not tangential or introducing unrelated topics)

A good sub-question:
- Is more specific and narrower in scope
- Focuses on a single, well-defined aspect of the parent question
- Is answerable with less complexity
- Does not introduce new complexity or broaden the scope
- Remains directly relevant to the parent question
- Does not deviate into tangential topics

Your response should be in JSON format:
{
  "evaluations": [
    {
      "sub_question": "sub-question 1",
      "is_valid": true/false,
      "reasoning": "Brief explanation focusing on simplicity and topic relevance"
    }
  ]
}`, parentQuestion, string(listJson))

	content, err := e.llm.Chat(ctx, []llm.Message{
		{Role: "system", Content: "You are a helpful research assistant that evaluates the quality of sub-questions. Always respond in valid JSON format. Be strict about ensuring sub-questions are both simpler AND stay on topic."},
		{Role: "user", Content: prompt},
	},
		llm.WithTemperature(0.1),
		llm.WithMaxTokens(e.evaluationMaxTokens),
	)
	if err != nil {
		return nil, fmt.Errorf("simplicity validation failed: %w", err)
	}

	var result evaluationResult
	if err := jsonrepair.Decode(content, &result); err != nil {
		e.logger.Warn("DecompositionEngine", "Could not parse simplicity evaluations", map[string]interface{}{
			"parent_question": parentQuestion,
			"depth":           depth,
			"error":           err.Error(),
		})
		return nil, nil
	}

	var survivors []string
	for _, item := range result.Evaluations {
		if item.IsValid && item.SubQuestion != "" {
			survivors = append(survivors, item.SubQuestion)
		} else if item.SubQuestion != "" {
			e.logger.Debug("DecompositionEngine", "Removing sub-question that failed simplicity check", map[string]interface{}{
				"sub_question": item.SubQuestion,
				"reasoning":    item.Reasoning,
			})
		}
	}
	return survivors, nil
}

func (e *Engine) validateRelevance(ctx context.Context, originalQuestion string, candidates []string) ([]string, error) {
	listJson, err := json.MarshalIndent(candidates, "", "  ")
	if err != nil {
		return nil, err
	}

	prompt := fmt.Sprintf(`You are a research assistant tasked with evaluating whether sub-questions are relevant to the original research question.

Original research question: %s

Sub-questions:
%s

For each sub-question, determine if it is DIRECTLY RELEVANT to the original research question. A relevant sub-question:
1. Addresses a specific aspect of the original question
2. Helps answer the original question when combined with other sub-questions
3. Does not introduce topics that are tangential or unrelated to the original question
4. Maintains the same general subject matter as the original question

Your response should be in JSON format:
{
  "evaluations": [
    {
      "sub_question": "sub-question 1",
      "is_relevant": true/false,
      "reasoning": "Brief explanation of why this sub-question is or is not relevant to the original question"
    }
  ]
}`, originalQuestion, string(listJson))

	content, err := e.llm.Chat(ctx, []llm.Message{
		{Role: "system", Content: "You are a helpful research assistant that evaluates the relevance of sub-questions to the original research question. Always respond in valid JSON format. Be strict about ensuring sub-questions are directly relevant to the original question."},
		{Role: "user", Content: prompt},
	},
		llm.WithTemperature(0.1),
		llm.WithMaxTokens(e.evaluationMaxTokens),
	)
	if err != nil {
		return nil, fmt.Errorf("relevance validation failed: %w", err)
	}

	var result evaluationResult
	if err := jsonrepair.Decode(content, &result); err != nil {
		e.logger.Warn("DecompositionEngine", "Could not parse relevance evaluations", map[string]interface{}{
			"original_question": originalQuestion,
			"error":             err.Error(),
		})
		return nil, nil
	}

	var survivors []string
	for _, item := range result.Evaluations {
		if item.IsRelevant && item.SubQuestion != "" {
			survivors = append(survivors, item.SubQuestion)
		} else if item.SubQuestion != "" {
			e.logger.Debug("DecompositionEngine", "Removing sub-question irrelevant to the original question", map[string]interface{}{
				"sub_question": item.SubQuestion,
				"reasoning":    item.Reasoning,
			})
		}
	}
	return survivors, nil
}

func nonEmpty(values []string) []string {
	var out []string
	for _, v := range values {
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}
