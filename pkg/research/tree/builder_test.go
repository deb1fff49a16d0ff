package tree

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"testing"

	"ai-research-be/internal/entity"
	"ai-research-be/internal/repository/contract"
	"ai-research-be/internal/repository/specification"
	"ai-research-be/pkg/embedding"
	"ai-research-be/pkg/llm"
	"ai-research-be/pkg/rag"
	"ai-research-be/pkg/research/aggregate"
	"ai-research-be/pkg/research/answer"
	"ai-research-be/pkg/research/complexity"
	"ai-research-be/pkg/research/decompose"
	"ai-research-be/pkg/websearch"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type noopLogger struct{}

func (noopLogger) Debug(string, string, map[string]interface{}) {}
func (noopLogger) Info(string, string, map[string]interface{})  {}
func (noopLogger) Warn(string, string, map[string]interface{})  {}
func (noopLogger) Error(string, string, map[string]interface{}) {}
func (noopLogger) Sync() error                                  { return nil }

var questionLineRe = regexp.MustCompile(`Question: (.+)`)

// routerLLM answers every prompt family the tree walk issues, keyed on the
// question text extracted from the prompt.
type routerLLM struct {
	complexityOf map[string]int      // default LevelSimple
	subsOf       map[string][]string // decomposition candidates
	vagueOf      map[string]bool
	failAnswerOf map[string]bool
}

func (r *routerLLM) Chat(_ context.Context, history []llm.Message, _ ...llm.Option) (string, error) {
	prompt := history[len(history)-1].Content
	question := ""
	if m := questionLineRe.FindStringSubmatch(prompt); m != nil {
		question = strings.TrimSpace(m[1])
	}

	switch {
	case strings.Contains(prompt, "rating the complexity"):
		level := r.complexityOf[question]
		if level == 0 {
			level = complexity.LevelSimple
		}
		return fmt.Sprintf(`{"level": %d}`, level), nil

	case strings.Contains(prompt, "too vague"):
		return fmt.Sprintf(`{"is_vague": %t}`, r.vagueOf[question]), nil

	case strings.Contains(prompt, "breaking down complex questions"):
		subs := r.subsOf[question]
		if len(subs) == 0 {
			return `{"needs_breakdown": false, "sub_questions": []}`, nil
		}
		quoted := make([]string, len(subs))
		for i, s := range subs {
			quoted[i] = `"` + s + `"`
		}
		return fmt.Sprintf(`{"needs_breakdown": true, "sub_questions": [%s]}`, strings.Join(quoted, ", ")), nil

	case strings.Contains(prompt, "simpler than their parent question"):
		return approveAll(prompt, "is_valid"), nil

	case strings.Contains(prompt, "relevant to the original research question"):
		return approveAll(prompt, "is_relevant"), nil

	case strings.Contains(prompt, "maximum recursion depth"):
		return "<p>High-level summary.</p>", nil

	case strings.Contains(prompt, "broad scope"):
		return "<p>General overview.</p>", nil

	case strings.Contains(prompt, "Research findings:"):
		return "<p>Synthesized answer.</p>", nil

	default:
		if r.failAnswerOf[question] {
			return "", errors.New("completion unavailable")
		}
		return "<p>Answer to " + question + "</p>", nil
	}
}

func (r *routerLLM) Generate(ctx context.Context, prompt string, opts ...llm.Option) (string, error) {
	return r.Chat(ctx, []llm.Message{{Role: "user", Content: prompt}}, opts...)
}

// approveAll echoes back every candidate listed in the validation prompt with
// a passing verdict.
func approveAll(prompt, field string) string {
	marker := "Sub-questions:\n"
	start := strings.Index(prompt, marker)
	if start < 0 {
		return `{"evaluations": []}`
	}
	rest := prompt[start+len(marker):]
	if end := strings.Index(rest, "\n\nFor each"); end >= 0 {
		rest = rest[:end]
	}
	var candidates []string
	if err := json.Unmarshal([]byte(rest), &candidates); err != nil {
		return `{"evaluations": []}`
	}
	items := make([]string, len(candidates))
	for i, s := range candidates {
		items[i] = fmt.Sprintf(`{"sub_question": "%s", "%s": true}`, s, field)
	}
	return `{"evaluations": [` + strings.Join(items, ",") + `]}`
}

// stubChunkRepo always returns one grounded chunk so leaf answers never
// trigger ingestion.
type stubChunkRepo struct{}

func (stubChunkRepo) CreateBulk(context.Context, []*entity.RetrievedDocument, [][]float32) error {
	return nil
}
func (stubChunkRepo) Count(context.Context) (int64, error) { return 1, nil }
func (stubChunkRepo) SearchNearest(_ context.Context, _ []float32, _ int, _ float64) ([]*contract.ScoredDocumentChunk, error) {
	return []*contract.ScoredDocumentChunk{{
		Document: &entity.RetrievedDocument{
			Content:  "background fact",
			Metadata: entity.DocumentMetadata{Source: "https://example.com", Title: "Example"},
		},
		Distance: 0.1,
	}}, nil
}
func (s stubChunkRepo) SearchNearestUnbounded(ctx context.Context, e []float32, limit int) ([]*contract.ScoredDocumentChunk, error) {
	return s.SearchNearest(ctx, e, limit, 1)
}
func (stubChunkRepo) DeleteAll(context.Context) error { return nil }

type stubEmbedder struct{}

func (stubEmbedder) Generate(string, string) (*embedding.EmbeddingResponse, error) {
	return &embedding.EmbeddingResponse{
		Embedding: embedding.EmbeddingResponseEmbedding{Values: []float32{0.1, 0.2}},
	}, nil
}
func (stubEmbedder) GenerateBatch(texts []string, _ string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{0.1, 0.2}
	}
	return out, nil
}

type stubSearch struct{}

func (stubSearch) Search(context.Context, string, int) ([]websearch.SearchResult, error) {
	return nil, nil
}

type stubSourceRepo struct{}

func (stubSourceRepo) CreateBulk(context.Context, []*entity.KnowledgeSource) error { return nil }
func (stubSourceRepo) FindAll(context.Context, ...specification.Specification) ([]*entity.KnowledgeSource, error) {
	return nil, nil
}
func (stubSourceRepo) Count(context.Context) (int64, error) { return 0, nil }
func (stubSourceRepo) DeleteAll(context.Context) error      { return nil }

func newBuilder(router *routerLLM) *Builder {
	log := noopLogger{}
	store := rag.NewRetrievalStore(stubChunkRepo{}, stubEmbedder{}, log, 1000, 200, 0.75)
	ingestion := rag.NewKnowledgeIngestion(store, stubSearch{}, stubSourceRepo{}, log, 3)

	assessor := complexity.NewAssessor(router, log, 600)
	engine := decompose.NewEngine(router, log, 3, 600, []string{"impact"})
	generator := answer.NewGenerator(router, store, ingestion, log, 800, 5)
	aggregator := aggregate.NewAggregator(router, log, 1500)

	return NewBuilder(assessor, engine, generator, aggregator, log, 2)
}

func TestBuildSimpleQuestionStaysSingleNode(t *testing.T) {
	router := &routerLLM{}
	builder := newBuilder(router)

	root, err := builder.Build(context.Background(), "What is the capital of France?", Settings{
		MaxRecursionDepth:  2,
		MaxSubQuestions:    3,
		RecursionThreshold: 0,
	})
	require.NoError(t, err)

	assert.Equal(t, 1, root.CountNodes())
	assert.Equal(t, 0, root.MaxTreeDepth())
	assert.False(t, root.NeedsBreakdown)
	assert.Equal(t, entity.LeafReasonSimple, root.LeafReason)
	assert.NotEmpty(t, root.Answer)
	assert.NotEmpty(t, root.Sources)
}

func TestBuildDecomposedTreeAggregates(t *testing.T) {
	rootQ := "How do solar and wind compare on cost?"
	router := &routerLLM{
		complexityOf: map[string]int{rootQ: complexity.LevelComplex},
		subsOf: map[string][]string{
			rootQ: {"What does solar cost?", "What does wind cost?"},
		},
	}
	builder := newBuilder(router)

	root, err := builder.Build(context.Background(), rootQ, Settings{
		MaxRecursionDepth:  2,
		MaxSubQuestions:    3,
		RecursionThreshold: 0,
	})
	require.NoError(t, err)

	assert.Equal(t, 3, root.CountNodes())
	assert.Equal(t, 1, root.MaxTreeDepth())
	assert.True(t, root.NeedsBreakdown)
	assert.Equal(t, "<p>Synthesized answer.</p>", root.Answer)
	require.Len(t, root.Children, 2)
	for _, child := range root.Children {
		assert.Equal(t, 1, child.Depth)
		assert.Equal(t, rootQ, child.ParentQuestion)
		assert.Equal(t, rootQ, child.OriginalQuestion)
		assert.False(t, child.NeedsBreakdown)
		assert.NotEmpty(t, child.Answer)
	}
}

func TestBuildDepthCeilingForcesLeaf(t *testing.T) {
	rootQ := "How does everything relate to everything else?"
	router := &routerLLM{
		complexityOf: map[string]int{rootQ: complexity.LevelMultiFaceted},
		subsOf:       map[string][]string{rootQ: {"part one", "part two"}},
	}
	builder := newBuilder(router)

	root, err := builder.Build(context.Background(), rootQ, Settings{
		MaxRecursionDepth:  0,
		MaxSubQuestions:    3,
		RecursionThreshold: 0,
	})
	require.NoError(t, err)

	assert.Equal(t, 1, root.CountNodes())
	assert.True(t, root.MaxDepthReached)
	assert.Equal(t, entity.LeafReasonMaxDepth, root.LeafReason)
	assert.Equal(t, "<p>High-level summary.</p>", root.Answer)
	assert.Empty(t, root.Children)
}

func TestBuildVagueLeafGetsGuidanceAnswer(t *testing.T) {
	question := "Tell me about things"
	router := &routerLLM{
		vagueOf: map[string]bool{question: true},
	}
	builder := newBuilder(router)

	root, err := builder.Build(context.Background(), question, Settings{
		MaxRecursionDepth:  2,
		MaxSubQuestions:    3,
		RecursionThreshold: 0,
	})
	require.NoError(t, err)

	assert.True(t, root.IsVague)
	assert.Equal(t, entity.LeafReasonVague, root.LeafReason)
	assert.Contains(t, root.Answer, "Broad Topic Response")
	assert.Empty(t, root.Sources)
}

func TestBuildChildFailureStaysNodeLocal(t *testing.T) {
	rootQ := "How do solar and wind compare on cost?"
	failing := "What does wind cost?"
	router := &routerLLM{
		complexityOf: map[string]int{rootQ: complexity.LevelComplex},
		subsOf: map[string][]string{
			rootQ: {"What does solar cost?", failing},
		},
		failAnswerOf: map[string]bool{failing: true},
	}
	builder := newBuilder(router)

	root, err := builder.Build(context.Background(), rootQ, Settings{
		MaxRecursionDepth:  2,
		MaxSubQuestions:    3,
		RecursionThreshold: 0,
	})
	require.NoError(t, err)

	var failed *entity.QuestionNode
	root.Walk(func(n *entity.QuestionNode) {
		if n.Question == failing {
			failed = n
		}
	})
	require.NotNil(t, failed)
	assert.NotEmpty(t, failed.Error)
	assert.NotEmpty(t, failed.Answer) // placeholder keeps aggregation possible
	assert.Empty(t, root.Error)
	assert.NotEmpty(t, root.Answer)
}

func TestBuildDepthInvariantHoldsEverywhere(t *testing.T) {
	rootQ := "What is the impact of remote work on cities?"
	childQ := "What is the impact on office demand?"
	router := &routerLLM{
		complexityOf: map[string]int{
			rootQ:  complexity.LevelMultiFaceted,
			childQ: complexity.LevelComplex,
		},
		subsOf: map[string][]string{
			rootQ:  {childQ, "What is the impact on housing?"},
			childQ: {"How much office space sits vacant?", "How are leases changing?"},
		},
	}
	builder := newBuilder(router)

	root, err := builder.Build(context.Background(), rootQ, Settings{
		MaxRecursionDepth:  3,
		MaxSubQuestions:    3,
		RecursionThreshold: 0,
	})
	require.NoError(t, err)

	var check func(n *entity.QuestionNode)
	check = func(n *entity.QuestionNode) {
		for _, child := range n.Children {
			assert.Equal(t, n.Depth+1, child.Depth)
			check(child)
		}
	}
	check(root)
	assert.GreaterOrEqual(t, root.MaxTreeDepth(), 2)
}
