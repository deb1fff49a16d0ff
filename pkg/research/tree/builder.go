package tree

import (
	"context"
	"fmt"

	"ai-research-be/internal/entity"
	"ai-research-be/internal/pkg/logger"
	"ai-research-be/pkg/research/aggregate"
	"ai-research-be/pkg/research/answer"
	"ai-research-be/pkg/research/complexity"
	"ai-research-be/pkg/research/decompose"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Settings are the per-request knobs of a tree walk. They arrive already
// clamped to their documented maxima by the service layer.
type Settings struct {
	MaxRecursionDepth  int
	MaxSubQuestions    int
	RecursionThreshold int
}

const fallbackAnswer = "<p>This part of the question could not be answered due to a processing error. The remaining findings are unaffected.</p>"

// Builder walks the research tree: it decides per node whether to decompose,
// recurses into children concurrently, answers leaves, and aggregates
// internal nodes on the way back up. Failures are captured on the node that
// caused them and never abort the walk.
type Builder struct {
	assessor   *complexity.Assessor
	engine     *decompose.Engine
	generator  *answer.Generator
	aggregator *aggregate.Aggregator
	logger     logger.ILogger

	childConcurrency int
}

func NewBuilder(
	assessor *complexity.Assessor,
	engine *decompose.Engine,
	generator *answer.Generator,
	aggregator *aggregate.Aggregator,
	log logger.ILogger,
	childConcurrency int,
) *Builder {
	if childConcurrency <= 0 {
		childConcurrency = 1
	}
	return &Builder{
		assessor:         assessor,
		engine:           engine,
		generator:        generator,
		aggregator:       aggregator,
		logger:           log,
		childConcurrency: childConcurrency,
	}
}

// Build processes a root question into a fully answered tree. The returned
// error is reserved for context cancellation; per-node failures are recorded
// on the nodes themselves.
func (b *Builder) Build(ctx context.Context, question string, settings Settings) (*entity.QuestionNode, error) {
	root := &entity.QuestionNode{
		Id:               uuid.New(),
		Question:         question,
		Depth:            0,
		OriginalQuestion: question,
	}
	if err := b.processNode(ctx, root, settings); err != nil {
		return nil, err
	}
	return root, nil
}

func (b *Builder) processNode(ctx context.Context, node *entity.QuestionNode, settings Settings) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	b.logger.Info("TreeBuilder", "Processing question node", map[string]interface{}{
		"question": node.Question,
		"depth":    node.Depth,
	})

	if node.Depth >= settings.MaxRecursionDepth {
		b.logger.Warn("TreeBuilder", "Maximum recursion depth reached", map[string]interface{}{
			"question":  node.Question,
			"depth":     node.Depth,
			"max_depth": settings.MaxRecursionDepth,
		})
		node.MarkLeaf(entity.LeafReasonMaxDepth)
		text, err := b.generator.ConciseSummary(ctx, node.Question, node.Depth)
		if err != nil {
			b.captureFailure(node, err)
			return ctx.Err()
		}
		node.Answer = text
		return nil
	}

	level := b.assessor.Assess(ctx, node.Question)

	if !complexity.ShouldDecompose(level, settings.RecursionThreshold) {
		node.MarkLeaf(entity.LeafReasonSimple)
		return b.answerLeaf(ctx, node)
	}

	subQuestions, err := b.engine.Decompose(ctx, node.Question, node.OriginalQuestion, level, node.Depth)
	if err != nil {
		b.captureFailure(node, err)
		return ctx.Err()
	}
	if len(subQuestions) == 0 {
		node.MarkLeaf(entity.LeafReasonNoSubQuestions)
		return b.answerLeaf(ctx, node)
	}

	node.MarkInternal()
	node.Children = make([]*entity.QuestionNode, len(subQuestions))
	for i, sub := range subQuestions {
		node.Children[i] = &entity.QuestionNode{
			Id:               uuid.New(),
			Question:         sub,
			Depth:            node.Depth + 1,
			ParentQuestion:   node.Question,
			OriginalQuestion: node.OriginalQuestion,
		}
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(b.childConcurrency)
	for _, child := range node.Children {
		child := child
		group.Go(func() error {
			// A child must sit exactly one level below its parent, whatever a
			// callee may have done to the depth field.
			if child.Depth != node.Depth+1 {
				child.Depth = node.Depth + 1
			}
			return b.processNode(groupCtx, child, settings)
		})
	}
	if err := group.Wait(); err != nil {
		return err
	}

	text, err := b.aggregator.Aggregate(ctx, node, node.OriginalQuestion)
	if err != nil {
		b.captureFailure(node, err)
		return ctx.Err()
	}
	node.Answer = text
	return nil
}

// answerLeaf generates the leaf answer, routing vague questions to the
// guidance-style response.
func (b *Builder) answerLeaf(ctx context.Context, node *entity.QuestionNode) error {
	if b.assessor.IsTooVague(ctx, node.Question) {
		b.logger.Info("TreeBuilder", "Question is too vague, providing broad-topic response", map[string]interface{}{
			"question": node.Question,
		})
		node.MarkLeaf(entity.LeafReasonVague)
		text, err := b.generator.VagueResponse(ctx, node.Question, node.Depth)
		if err != nil {
			b.captureFailure(node, err)
			return ctx.Err()
		}
		node.Answer = text
		return nil
	}

	text, sources, err := b.generator.Answer(ctx, node.Question, node.ParentQuestion, node.OriginalQuestion, node.Depth)
	if err != nil {
		b.captureFailure(node, err)
		return ctx.Err()
	}
	node.Answer = text
	node.Sources = sources
	return nil
}

// captureFailure records a node-local failure and substitutes a placeholder
// answer so aggregation above this node still sees a terminated child.
func (b *Builder) captureFailure(node *entity.QuestionNode, err error) {
	b.logger.Error("TreeBuilder", "Node processing failed", map[string]interface{}{
		"question": node.Question,
		"depth":    node.Depth,
		"error":    err.Error(),
	})
	node.Error = fmt.Sprintf("processing failed: %v", err)
	node.Answer = fallbackAnswer
	if node.Decision == entity.BreakdownUndecided {
		node.MarkLeaf(entity.LeafReasonNone)
	}
}
