package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/interview-retrieval-api/internal/repository"
)

// LexicalRepository implements repository.LexicalIndex on PostgreSQL full
// text search. Tokenization policy is the `english` text-search
// configuration (lowercasing, stop-word removal, stemming), applied by
// to_tsvector/plainto_tsquery; the GIN index on to_tsvector(text) keeps
// matching indexed rather than full-scan. Scores come from ts_rank and are
// non-negative; rows whose text matches no query term are excluded by the
// @@ predicate, not returned with score zero.
type LexicalRepository struct {
	db *sqlx.DB
}

// NewLexicalRepository creates a new PostgreSQL lexical repository
func NewLexicalRepository(db *sqlx.DB) *LexicalRepository {
	return &LexicalRepository{db: db}
}

var _ repository.LexicalIndex = (*LexicalRepository)(nil)

// SearchKeywords ranks the filtered candidate set by ts_rank relevance
func (r *LexicalRepository) SearchKeywords(ctx context.Context, queryText string, filter repository.SegmentFilter) ([]repository.ScoredSegment, error) {
	if strings.TrimSpace(queryText) == "" {
		return []repository.ScoredSegment{}, nil
	}

	query := `
		SELECT s.segment_id, s.interview_id, s.speaker_role, s.start_time, s.end_time,
		       s.text, s.embedding, s.confidence, s.ingestion_mode, s.created_at, s.metadata,
		       ts_rank(to_tsvector('english', s.text), plainto_tsquery('english', $1)) AS keyword_score
		FROM segments s
		WHERE to_tsvector('english', s.text) @@ plainto_tsquery('english', $1)`
	args := []interface{}{queryText}

	if filter.InterviewID != "" {
		args = append(args, filter.InterviewID)
		query += fmt.Sprintf(" AND s.interview_id = $%d", len(args))
	}
	if filter.SpeakerRole != nil {
		args = append(args, *filter.SpeakerRole)
		query += fmt.Sprintf(" AND s.speaker_role = $%d", len(args))
	}

	query += ` ORDER BY keyword_score DESC, s.created_at ASC, s.segment_id ASC`

	rows, err := r.db.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, wrapError("keyword search", err)
	}
	defer rows.Close()

	results := []repository.ScoredSegment{}
	for rows.Next() {
		var hit scoredRow
		if err := rows.Scan(hit.dests()...); err != nil {
			return nil, fmt.Errorf("scan keyword result: %w", err)
		}
		scored, err := hit.toScored()
		if err != nil {
			return nil, err
		}
		results = append(results, scored)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapError("iterate keyword results", err)
	}
	return results, nil
}
