package answer

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"ai-research-be/internal/entity"
	"ai-research-be/internal/pkg/logger"
	"ai-research-be/pkg/llm"
	"ai-research-be/pkg/rag"
)

// Generator produces grounded leaf answers. Retrieval runs first; an empty
// knowledge base triggers one web-search ingestion pass before the widened
// retry. Sources travel back as structured data on the node, never as inline
// citations in the answer text.
type Generator struct {
	llm       llm.LLMProvider
	store     *rag.RetrievalStore
	ingestion *rag.KnowledgeIngestion
	logger    logger.ILogger

	answerMaxTokens int
	topKResults     int
}

func NewGenerator(
	provider llm.LLMProvider,
	store *rag.RetrievalStore,
	ingestion *rag.KnowledgeIngestion,
	log logger.ILogger,
	answerMaxTokens, topKResults int,
) *Generator {
	return &Generator{
		llm:             provider,
		store:           store,
		ingestion:       ingestion,
		logger:          log,
		answerMaxTokens: answerMaxTokens,
		topKResults:     topKResults,
	}
}

// TokenLimitForDepth scales a base token budget down as depth grows so that
// deeper, narrower questions get proportionally shorter answers.
func TokenLimitForDepth(baseLimit, depth int) int {
	switch depth {
	case 0:
		return baseLimit
	case 1:
		return baseLimit * 75 / 100
	case 2:
		return baseLimit / 2
	default:
		return baseLimit / 4
	}
}

// Answer generates a grounded answer for a leaf question, returning the text
// and the sources that backed it.
func (g *Generator) Answer(ctx context.Context, question, parentQuestion, originalQuestion string, depth int) (string, []entity.Source, error) {
	documents, err := g.retrieveGrounding(ctx, question)
	if err != nil {
		return "", nil, err
	}

	contextText := buildContext(documents)
	sources := sourcesOf(documents)

	contextPrompt := ""
	if parentQuestion != "" {
		contextPrompt = fmt.Sprintf(`
This question is part of a larger research question: "%s"
Your answer should be relevant to this broader context while focusing specifically on the sub-question.
`, parentQuestion)
	}
	if originalQuestion != "" && originalQuestion != parentQuestion {
		contextPrompt += fmt.Sprintf(`
This is part of research on the original question: "%s"
Ensure your answer contributes to understanding this original research question.
`, originalQuestion)
	}

	brevityGuidance := ""
	switch {
	case depth >= 3:
		brevityGuidance = "Provide only the most critical information in a highly condensed format."
	case depth >= 2:
		brevityGuidance = "Be very brief and focus only on the essential information."
	case depth >= 1:
		brevityGuidance = "Be concise and focus only on the most important points."
	}

	prompt := fmt.Sprintf(`Context:
%s

Question: %s
%s
Please provide a comprehensive answer based on the context provided. If the context doesn't contain enough information,
you can use your general knowledge but clearly indicate when you're doing so.
Your answer should be focused specifically on this question.
Be concise and direct in your response while covering the key points.
%s
Do not include a sources or references section; sources are reported separately.`, contextText, question, contextPrompt, brevityGuidance)

	content, err := g.llm.Chat(ctx, []llm.Message{
		{Role: "system", Content: systemPromptForDepth(depth)},
		{Role: "user", Content: prompt},
	},
		llm.WithTemperature(0.5),
		llm.WithMaxTokens(TokenLimitForDepth(g.answerMaxTokens, depth)),
	)
	if err != nil {
		return "", nil, fmt.Errorf("answer generation failed: %w", err)
	}

	return StripSourcesSection(content), sources, nil
}

// ConciseSummary answers a question that hit the depth ceiling: a high-level
// overview with a word budget that shrinks with depth.
func (g *Generator) ConciseSummary(ctx context.Context, question string, depth int) (string, error) {
	wordLimit := 300 - depth*50
	if wordLimit < 50 {
		wordLimit = 50
	}

	prompt := fmt.Sprintf(`The following question is very broad and has reached the maximum recursion depth in our system:

%s

Please provide a CONCISE summary (no more than %d words) that:
1. Provides a high-level overview of the key points related to this question
2. Focuses only on the most essential information

Format your response with HTML tags for better readability.`, question, wordLimit)

	content, err := g.llm.Chat(ctx, []llm.Message{
		{Role: "system", Content: "You are a helpful research assistant that provides concise summaries of broad topics. Format your response with HTML tags for better readability: use <h3> for section titles, <p> for paragraphs, <strong> for emphasis."},
		{Role: "user", Content: prompt},
	},
		llm.WithTemperature(0.5),
		llm.WithMaxTokens(TokenLimitForDepth(g.answerMaxTokens, depth)),
	)
	if err != nil {
		return "", fmt.Errorf("concise summary failed: %w", err)
	}
	return StripSourcesSection(content), nil
}

// VagueResponse answers a question judged too vague for grounded research: a
// general overview prefixed with a broad-topic notice.
func (g *Generator) VagueResponse(ctx context.Context, question string, depth int) (string, error) {
	prompt := fmt.Sprintf(`The following question has a broad scope that would benefit from a high-level overview:

%s

Please provide a response that:
1. Provides general information about the topic
2. Focuses on the most common aspects or interpretations
3. Gives a balanced overview of the main considerations

Format your response with HTML tags for better readability.`, question)

	content, err := g.llm.Chat(ctx, []llm.Message{
		{Role: "system", Content: "You are a helpful research assistant that provides informative overviews for broad topics. Format your response with HTML tags for better readability: use <h3> for section titles, <p> for paragraphs, <strong> for emphasis."},
		{Role: "user", Content: prompt},
	},
		llm.WithTemperature(0.5),
		llm.WithMaxTokens(TokenLimitForDepth(g.answerMaxTokens, depth)),
	)
	if err != nil {
		return "", fmt.Errorf("vague-question response failed: %w", err)
	}

	notice := `<div class="note"><strong>Broad Topic Response</strong></div>`
	return notice + "\n" + StripSourcesSection(content), nil
}

// retrieveGrounding retrieves context for the question, ingesting fresh web
// content once when the first pass comes back empty.
func (g *Generator) retrieveGrounding(ctx context.Context, question string) ([]*entity.RetrievedDocument, error) {
	documents, err := g.store.Retrieve(ctx, question, g.topKResults)
	if err != nil {
		return nil, err
	}
	if len(documents) > 0 {
		return documents, nil
	}

	if _, err := g.ingestion.PopulateFromSearch(ctx, question); err != nil {
		// PopulateFromSearch is best effort and logs internally, but keep the
		// orchestrator-visible trace as well.
		g.logger.Warn("AnswerGenerator", "Knowledge ingestion reported an error", map[string]interface{}{
			"question": question,
			"error":    err.Error(),
		})
	}

	return g.store.RetrieveWithFallback(ctx, question, g.topKResults)
}

func systemPromptForDepth(depth int) string {
	if depth == 0 {
		return `You are a helpful research assistant that provides well-structured answers based on provided context.
Format your response with semantic HTML tags for optimal readability and structure:
- Use <h1> for the main title/topic and <h2> for major sections
- Wrap each major section in <div class="section">
- Use <p> for paragraphs, <ul> and <li> for lists
- Use <strong> only for emphasizing specific terms or phrases, not entire paragraphs
Keep paragraphs concise and focused, and maintain a consistent heading hierarchy.`
	}
	return `You are a helpful and friendly research assistant that explains complex concepts in simple terms. Format your response with HTML tags for better readability: use <h3> for section titles, <p> for paragraphs, <ul> and <li> for key points, <strong> for emphasis. Be concise and direct.`
}

func buildContext(documents []*entity.RetrievedDocument) string {
	if len(documents) == 0 {
		return "(no background documents available)"
	}
	parts := make([]string, len(documents))
	for i, doc := range documents {
		parts[i] = doc.Content
	}
	return strings.Join(parts, "\n\n")
}

func sourcesOf(documents []*entity.RetrievedDocument) []entity.Source {
	sources := make([]entity.Source, 0, len(documents))
	for _, doc := range documents {
		if doc.Metadata.Source == "" {
			continue
		}
		sources = append(sources, entity.Source{
			URL:        doc.Metadata.Source,
			Title:      doc.Metadata.Title,
			Similarity: doc.Similarity,
		})
	}
	return entity.DedupSources(sources)
}

var sourcesHeadingRe = regexp.MustCompile(`(?i)^\s*(?:<(?:h[1-6]|strong|p|b)[^>]*>\s*)*(sources|references)\s*:?\s*(?:</(?:h[1-6]|strong|p|b)>\s*)*$`)

// StripSourcesSection removes a trailing "Sources:"/"References:" block if
// the model emitted one despite instructions. Sources belong in the
// structured manifest, not the prose. Everything from the last such heading
// to the end of the text is dropped.
func StripSourcesSection(text string) string {
	lines := strings.Split(text, "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if sourcesHeadingRe.MatchString(lines[i]) {
			return strings.TrimSpace(strings.Join(lines[:i], "\n"))
		}
	}
	return strings.TrimSpace(text)
}
