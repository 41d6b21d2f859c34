// Package embed is the boundary to the external Embedding Provider: it
// turns text into fixed-dimension vectors. The retrieval core never calls
// it directly; ingestion and evaluation tooling do.
package embed

import "context"

// TaskType distinguishes query embeddings from document embeddings
type TaskType string

const (
	TaskTypeQuery    TaskType = "RETRIEVAL_QUERY"
	TaskTypeDocument TaskType = "RETRIEVAL_DOCUMENT"
)

// Embedder defines the interface for text embedding operations
type Embedder interface {
	// Embed generates an embedding for a single text with the given task type
	Embed(ctx context.Context, text string, taskType TaskType) ([]float32, error)

	// EmbedBatch generates embeddings for multiple texts with the given task type
	EmbedBatch(ctx context.Context, texts []string, taskType TaskType) ([][]float32, error)
}
