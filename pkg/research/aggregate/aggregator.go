package aggregate

import (
	"context"
	"fmt"
	"strings"

	"ai-research-be/internal/entity"
	"ai-research-be/internal/pkg/logger"
	"ai-research-be/pkg/llm"
	"ai-research-be/pkg/research/answer"
)

// IncompleteAnswer is returned when a subtree has unanswered leaves;
// synthesizing over holes would silently fabricate content.
const IncompleteAnswer = "Unable to provide a complete answer because some parts of the question could not be fully researched."

const (
	maxDepthDisclaimer = `<p><em>Note: some aspects of this question were too broad to explore in full depth, so parts of this answer are high-level summaries.</em></p>`
	vagueDisclaimer    = `<p><em>Note: some sub-questions were too broadly phrased for detailed research, so parts of this answer are general overviews.</em></p>`
)

// Aggregator synthesizes completed child answers into a parent-level answer.
type Aggregator struct {
	llm    llm.LLMProvider
	logger logger.ILogger

	synthesisMaxTokens int
}

func NewAggregator(provider llm.LLMProvider, log logger.ILogger, synthesisMaxTokens int) *Aggregator {
	return &Aggregator{
		llm:                provider,
		logger:             log,
		synthesisMaxTokens: synthesisMaxTokens,
	}
}

// Aggregate folds the node's answered subtree into a single coherent answer.
// Called only on decomposed nodes whose children have all terminated.
func (a *Aggregator) Aggregate(ctx context.Context, node *entity.QuestionNode, originalQuestion string) (string, error) {
	if !node.HasCompleteAnswers() {
		a.logger.Warn("Aggregator", "Subtree has unanswered leaves, returning incomplete answer", map[string]interface{}{
			"question": node.Question,
		})
		return IncompleteAnswer, nil
	}

	var transcript strings.Builder
	for _, child := range node.Children {
		writeTranscript(&transcript, child, 0)
	}

	prompt := fmt.Sprintf(`You are a research assistant synthesizing research findings into a final answer.

The question "%s" was broken down into sub-questions, each answered separately below.

Research findings:
%s

Using ONLY the findings above, synthesize a single coherent, comprehensive answer to the question: %s

Your answer should:
1. Integrate the findings into a unified narrative rather than listing them one by one
2. Resolve overlaps and connect related points across sub-questions
3. Directly address the question being asked

Format your response with semantic HTML tags: use <h2> for major sections, <p> for paragraphs, <ul> and <li> for lists, <strong> for emphasizing key terms.
Do not include a sources or references section.`, node.Question, transcript.String(), node.Question)

	system := "You are a helpful research assistant that synthesizes multiple research findings into coherent, well-structured answers. Format your response with HTML tags for readability."
	if originalQuestion != "" && originalQuestion != node.Question {
		system += fmt.Sprintf(" The synthesis contributes to answering the broader research question: %q.", originalQuestion)
	}

	content, err := a.llm.Chat(ctx, []llm.Message{
		{Role: "system", Content: system},
		{Role: "user", Content: prompt},
	},
		llm.WithTemperature(0.3),
		llm.WithMaxTokens(answer.TokenLimitForDepth(a.synthesisMaxTokens, node.Depth)),
	)
	if err != nil {
		return "", fmt.Errorf("answer synthesis failed: %w", err)
	}

	return answer.StripSourcesSection(content) + disclaimersFor(node), nil
}

// disclaimersFor appends human-readable notes when parts of the subtree were
// answered in degraded modes.
func disclaimersFor(node *entity.QuestionNode) string {
	var sb strings.Builder
	if node.HasMaxDepthDescendant() {
		sb.WriteString("\n" + maxDepthDisclaimer)
	}
	if node.HasVagueDescendant() {
		sb.WriteString("\n" + vagueDisclaimer)
	}
	return sb.String()
}

// writeTranscript renders the subtree as an indented question/answer
// transcript, two spaces per level.
func writeTranscript(sb *strings.Builder, node *entity.QuestionNode, indent int) {
	prefix := strings.Repeat("  ", indent)
	fmt.Fprintf(sb, "%sSub-question: %s\n", prefix, node.Question)
	if node.Answer != "" {
		fmt.Fprintf(sb, "%sAnswer: %s\n\n", prefix, node.Answer)
	}
	for _, child := range node.Children {
		writeTranscript(sb, child, indent+1)
	}
}
