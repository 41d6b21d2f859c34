package repository

import (
	"context"

	"github.com/interview-retrieval-api/internal/models"
)

// SegmentFilter restricts index searches to a candidate set. Both filters,
// when present, must match (AND semantics).
type SegmentFilter struct {
	InterviewID string
	SpeakerRole *models.SpeakerRole
}

// ScoredSegment is an index hit with its raw score. CreatedAt and SegmentID
// carry through so callers can break ties by creation order.
type ScoredSegment struct {
	Segment models.Segment
	Score   float64
}

// SimilarityQuery parameterizes a vector search.
type SimilarityQuery struct {
	Embedding []float32
	// Threshold excludes hits with similarity <= Threshold. Hybrid callers
	// pass -1 so keyword-only candidates survive to fusion.
	Threshold float64
	// Limit caps the result count. 0 means unbounded over the filtered set.
	Limit  int
	Filter SegmentFilter
}

// SegmentStore owns durable keyed storage for interviews and segments.
type SegmentStore interface {
	// UpsertInterview creates or replaces an interview record.
	UpsertInterview(ctx context.Context, iv models.Interview) (models.Interview, error)

	// Put validates and stores a segment, assigning SegmentID if absent.
	// The interview referenced by the segment must already exist.
	Put(ctx context.Context, seg models.Segment) (models.Segment, error)

	// PutBatch stores segments all-or-nothing: every element is validated
	// before any is written, and the batch applies as one atomic unit.
	PutBatch(ctx context.Context, segs []models.Segment) ([]models.Segment, error)

	// Upsert overwrites the segment with the same SegmentID, or behaves as
	// Put when the ID is unknown or absent. Last writer wins per field.
	Upsert(ctx context.Context, seg models.Segment) (models.Segment, error)

	// GetByInterview returns an interview's segments ordered ascending by
	// start_time, optionally filtered by speaker role. An unknown interview
	// yields an empty slice, not an error.
	GetByInterview(ctx context.Context, interviewID string, role *models.SpeakerRole) ([]models.Segment, error)

	// DeleteInterview removes the interview and cascades to all its
	// segments as one atomic unit. Reports whether anything was deleted.
	DeleteInterview(ctx context.Context, interviewID string) (bool, error)

	// Stats returns exact counts at call time.
	Stats(ctx context.Context) (models.Stats, error)
}

// SimilarityIndex performs nearest-neighbor search over segment embeddings
// under cosine distance. Segments without an embedding are never returned.
type SimilarityIndex interface {
	SearchSimilar(ctx context.Context, q SimilarityQuery) ([]ScoredSegment, error)
}

// LexicalIndex ranks segments by text relevance. Segments that match no
// query term are excluded, not returned with score zero.
type LexicalIndex interface {
	SearchKeywords(ctx context.Context, queryText string, filter SegmentFilter) ([]ScoredSegment, error)
}

// EvaluationStore persists evaluation datasets and their results.
type EvaluationStore interface {
	PutDataset(ctx context.Context, ds models.EvaluationDataset) (models.EvaluationDataset, error)
	GetDataset(ctx context.Context, datasetID string) (models.EvaluationDataset, error)
	PutResult(ctx context.Context, res models.EvaluationResult) (models.EvaluationResult, error)
	ListResults(ctx context.Context, datasetID string) ([]models.EvaluationResult, error)
}
