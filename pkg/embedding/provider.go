package embedding

// EmbeddingProvider defines the interface for generating text embeddings
type EmbeddingProvider interface {
	Generate(text string, taskType string) (*EmbeddingResponse, error)
	// GenerateBatch embeds multiple texts in one round trip where the backing
	// API supports it. Output order matches input order.
	GenerateBatch(texts []string, taskType string) ([][]float32, error)
}
