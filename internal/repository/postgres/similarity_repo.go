package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/pgvector/pgvector-go"
	"github.com/interview-retrieval-api/internal/models"
	"github.com/interview-retrieval-api/internal/repository"
)

// SimilarityRepository implements repository.SimilarityIndex on pgvector.
// Cosine similarity is 1 - (embedding <=> query); the HNSW index on the
// embedding column keeps search time proportional to the candidate set.
type SimilarityRepository struct {
	db *sqlx.DB
}

// NewSimilarityRepository creates a new pgvector similarity repository
func NewSimilarityRepository(db *sqlx.DB) *SimilarityRepository {
	return &SimilarityRepository{db: db}
}

var _ repository.SimilarityIndex = (*SimilarityRepository)(nil)

// SearchSimilar performs cosine nearest-neighbor search over the filtered
// candidate set. Segments with a NULL embedding are never returned. Results
// are ordered by similarity descending with creation-order tie-breaks.
func (r *SimilarityRepository) SearchSimilar(ctx context.Context, q repository.SimilarityQuery) ([]repository.ScoredSegment, error) {
	if len(q.Embedding) != models.EmbeddingDimensions {
		return nil, &models.InvalidQueryError{Reason: "query embedding has wrong dimensionality"}
	}
	vec := pgvector.NewVector(q.Embedding)

	query := `
		SELECT s.segment_id, s.interview_id, s.speaker_role, s.start_time, s.end_time,
		       s.text, s.embedding, s.confidence, s.ingestion_mode, s.created_at, s.metadata,
		       1 - (s.embedding <=> $1::vector) AS similarity
		FROM segments s
		WHERE s.embedding IS NOT NULL
		  AND 1 - (s.embedding <=> $1::vector) > $2`
	args := []interface{}{vec, q.Threshold}

	if q.Filter.InterviewID != "" {
		args = append(args, q.Filter.InterviewID)
		query += fmt.Sprintf(" AND s.interview_id = $%d", len(args))
	}
	if q.Filter.SpeakerRole != nil {
		args = append(args, *q.Filter.SpeakerRole)
		query += fmt.Sprintf(" AND s.speaker_role = $%d", len(args))
	}

	query += ` ORDER BY similarity DESC, s.created_at ASC, s.segment_id ASC`
	if q.Limit > 0 {
		args = append(args, q.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := r.db.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, wrapError("similarity search", err)
	}
	defer rows.Close()

	results := []repository.ScoredSegment{}
	for rows.Next() {
		var hit scoredRow
		if err := rows.Scan(hit.dests()...); err != nil {
			return nil, fmt.Errorf("scan similarity result: %w", err)
		}
		scored, err := hit.toScored()
		if err != nil {
			return nil, err
		}
		results = append(results, scored)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapError("iterate similarity results", err)
	}
	return results, nil
}
