package postgres

import (
	"encoding/json"
	"fmt"

	"github.com/pgvector/pgvector-go"
	"github.com/interview-retrieval-api/internal/models"
	"github.com/interview-retrieval-api/internal/repository"
)

// scoredRow is the scan target shared by both index repositories: a full
// segment row plus its score column.
type scoredRow struct {
	seg       models.Segment
	embedding *pgvector.Vector
	metadata  []byte
	score     float64
}

func (r *scoredRow) dests() []interface{} {
	return []interface{}{
		&r.seg.SegmentID, &r.seg.InterviewID, &r.seg.SpeakerRole, &r.seg.StartTime,
		&r.seg.EndTime, &r.seg.Text, &r.embedding, &r.seg.Confidence,
		&r.seg.IngestionMode, &r.seg.CreatedAt, &r.metadata, &r.score,
	}
}

func (r *scoredRow) toScored() (repository.ScoredSegment, error) {
	if r.embedding != nil {
		r.seg.Embedding = r.embedding.Slice()
	}
	if len(r.metadata) > 0 {
		if err := json.Unmarshal(r.metadata, &r.seg.Metadata); err != nil {
			return repository.ScoredSegment{}, fmt.Errorf("unmarshal metadata: %w", err)
		}
	}
	return repository.ScoredSegment{Segment: r.seg, Score: r.score}, nil
}
