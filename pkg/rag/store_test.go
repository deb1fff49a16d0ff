package rag

import (
	"context"
	"errors"
	"testing"

	"ai-research-be/internal/entity"
	"ai-research-be/internal/repository/contract"
	"ai-research-be/pkg/embedding"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type noopLogger struct{}

func (noopLogger) Debug(string, string, map[string]interface{}) {}
func (noopLogger) Info(string, string, map[string]interface{})  {}
func (noopLogger) Warn(string, string, map[string]interface{})  {}
func (noopLogger) Error(string, string, map[string]interface{}) {}
func (noopLogger) Sync() error                                  { return nil }

// memoryChunkRepo holds scored chunks at fixed distances and filters them the
// way the pgvector query would.
type memoryChunkRepo struct {
	scored []*contract.ScoredDocumentChunk

	created      []*entity.RetrievedDocument
	maxDistances []float64
	unboundedHit bool
}

func (m *memoryChunkRepo) CreateBulk(_ context.Context, documents []*entity.RetrievedDocument, embeddings [][]float32) error {
	if len(documents) != len(embeddings) {
		return errors.New("documents and embeddings length mismatch")
	}
	m.created = append(m.created, documents...)
	return nil
}

func (m *memoryChunkRepo) Count(context.Context) (int64, error) {
	return int64(len(m.scored)), nil
}

func (m *memoryChunkRepo) SearchNearest(_ context.Context, _ []float32, limit int, maxDistance float64) ([]*contract.ScoredDocumentChunk, error) {
	m.maxDistances = append(m.maxDistances, maxDistance)
	var out []*contract.ScoredDocumentChunk
	for _, sc := range m.scored {
		if sc.Distance < maxDistance && len(out) < limit {
			out = append(out, sc)
		}
	}
	return out, nil
}

func (m *memoryChunkRepo) SearchNearestUnbounded(_ context.Context, _ []float32, limit int) ([]*contract.ScoredDocumentChunk, error) {
	m.unboundedHit = true
	if len(m.scored) > limit {
		return m.scored[:limit], nil
	}
	return m.scored, nil
}

func (m *memoryChunkRepo) DeleteAll(context.Context) error {
	m.scored = nil
	return nil
}

type recordingEmbedder struct {
	taskTypes []string
	err       error
}

func (r *recordingEmbedder) Generate(_ string, taskType string) (*embedding.EmbeddingResponse, error) {
	if r.err != nil {
		return nil, r.err
	}
	r.taskTypes = append(r.taskTypes, taskType)
	return &embedding.EmbeddingResponse{
		Embedding: embedding.EmbeddingResponseEmbedding{Values: []float32{0.5, 0.5}},
	}, nil
}

func (r *recordingEmbedder) GenerateBatch(texts []string, taskType string) ([][]float32, error) {
	if r.err != nil {
		return nil, r.err
	}
	r.taskTypes = append(r.taskTypes, taskType)
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{0.5, 0.5}
	}
	return out, nil
}

func scoredChunk(content string, distance float64) *contract.ScoredDocumentChunk {
	return &contract.ScoredDocumentChunk{
		Document: &entity.RetrievedDocument{Content: content},
		Distance: distance,
	}
}

func newStore(repo *memoryChunkRepo, embedder *recordingEmbedder) *RetrievalStore {
	return NewRetrievalStore(repo, embedder, noopLogger{}, 1000, 200, 0.75)
}

func TestIngestSplitsAndPersistsChunks(t *testing.T) {
	repo := &memoryChunkRepo{}
	embedder := &recordingEmbedder{}
	store := newStore(repo, embedder)

	count, err := store.Ingest(context.Background(), []*entity.IngestDocument{
		{Content: "short document one", Metadata: entity.DocumentMetadata{Source: "https://a"}},
		{Content: ""},
		{Content: "short document two", Metadata: entity.DocumentMetadata{Source: "https://b"}},
	})
	require.NoError(t, err)

	assert.Equal(t, 2, count)
	require.Len(t, repo.created, 2)
	assert.Equal(t, "https://a", repo.created[0].Metadata.Source)
	assert.Equal(t, []string{"RETRIEVAL_DOCUMENT"}, embedder.taskTypes)
}

func TestIngestNothingToDo(t *testing.T) {
	repo := &memoryChunkRepo{}
	embedder := &recordingEmbedder{}
	store := newStore(repo, embedder)

	count, err := store.Ingest(context.Background(), []*entity.IngestDocument{{Content: ""}})
	require.NoError(t, err)
	assert.Zero(t, count)
	assert.Empty(t, embedder.taskTypes) // no embedding round trip
}

func TestIngestEmbeddingFailureSurfaces(t *testing.T) {
	repo := &memoryChunkRepo{}
	embedder := &recordingEmbedder{err: errors.New("quota exceeded")}
	store := newStore(repo, embedder)

	_, err := store.Ingest(context.Background(), []*entity.IngestDocument{{Content: "text"}})
	require.Error(t, err)
	assert.Empty(t, repo.created)
}

func TestRetrieveUsesQueryTaskTypeAndThreshold(t *testing.T) {
	repo := &memoryChunkRepo{scored: []*contract.ScoredDocumentChunk{
		scoredChunk("near", 0.1),
		scoredChunk("far", 0.9),
	}}
	embedder := &recordingEmbedder{}
	store := newStore(repo, embedder)

	docs, err := store.Retrieve(context.Background(), "query", 5)
	require.NoError(t, err)

	require.Len(t, docs, 1)
	assert.Equal(t, "near", docs[0].Content)
	assert.Equal(t, []string{"RETRIEVAL_QUERY"}, embedder.taskTypes)
	require.Len(t, repo.maxDistances, 1)
	assert.InDelta(t, 0.25, repo.maxDistances[0], 1e-9)
}

func TestRetrieveWithFallbackStrictHitSkipsWidening(t *testing.T) {
	repo := &memoryChunkRepo{scored: []*contract.ScoredDocumentChunk{scoredChunk("near", 0.1)}}
	store := newStore(repo, &recordingEmbedder{})

	docs, err := store.RetrieveWithFallback(context.Background(), "query", 5)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Len(t, repo.maxDistances, 1)
	assert.False(t, repo.unboundedHit)
}

func TestRetrieveWithFallbackRelaxesThreshold(t *testing.T) {
	repo := &memoryChunkRepo{scored: []*contract.ScoredDocumentChunk{scoredChunk("middling", 0.4)}}
	store := newStore(repo, &recordingEmbedder{})

	docs, err := store.RetrieveWithFallback(context.Background(), "query", 5)
	require.NoError(t, err)

	require.Len(t, docs, 1)
	assert.Equal(t, "middling", docs[0].Content)
	require.Len(t, repo.maxDistances, 2)
	assert.InDelta(t, 0.5, repo.maxDistances[1], 1e-9)
	assert.False(t, repo.unboundedHit)
}

func TestRetrieveWithFallbackTakesClosestRegardlessOfDistance(t *testing.T) {
	repo := &memoryChunkRepo{scored: []*contract.ScoredDocumentChunk{
		scoredChunk("distant one", 0.8),
		scoredChunk("distant two", 0.85),
		scoredChunk("distant three", 0.9),
	}}
	store := newStore(repo, &recordingEmbedder{})

	docs, err := store.RetrieveWithFallback(context.Background(), "query", 5)
	require.NoError(t, err)

	assert.Len(t, docs, 2) // last resort caps at the two closest
	assert.True(t, repo.unboundedHit)
}

func TestRetrieveWithFallbackEmptyStoreStaysEmpty(t *testing.T) {
	repo := &memoryChunkRepo{}
	store := newStore(repo, &recordingEmbedder{})

	docs, err := store.RetrieveWithFallback(context.Background(), "query", 5)
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestResetClearsStore(t *testing.T) {
	repo := &memoryChunkRepo{scored: []*contract.ScoredDocumentChunk{scoredChunk("x", 0.1)}}
	store := newStore(repo, &recordingEmbedder{})

	require.NoError(t, store.Reset(context.Background()))

	count, err := store.Count(context.Background())
	require.NoError(t, err)
	assert.Zero(t, count)
}
