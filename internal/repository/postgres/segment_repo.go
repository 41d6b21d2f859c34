// Package postgres implements the repository contracts on PostgreSQL with
// pgvector. All writes are single statements or single transactions, so the
// atomicity and cascade guarantees come from the database itself.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pgvector/pgvector-go"
	"github.com/interview-retrieval-api/internal/models"
	"github.com/interview-retrieval-api/internal/repository"
)

// SegmentRepository implements repository.SegmentStore for PostgreSQL
type SegmentRepository struct {
	db *sqlx.DB
}

// NewSegmentRepository creates a new PostgreSQL segment repository
func NewSegmentRepository(db *sqlx.DB) *SegmentRepository {
	return &SegmentRepository{db: db}
}

var _ repository.SegmentStore = (*SegmentRepository)(nil)

// UpsertInterview creates or replaces an interview record. CreatedAt is
// preserved across updates.
func (r *SegmentRepository) UpsertInterview(ctx context.Context, iv models.Interview) (models.Interview, error) {
	if err := iv.Validate(); err != nil {
		return models.Interview{}, err
	}

	metadata, err := marshalMetadata(iv.Metadata)
	if err != nil {
		return models.Interview{}, err
	}

	row := r.db.QueryRowxContext(ctx, `
		INSERT INTO interviews (interview_id, title, date, duration_seconds, ingestion_mode,
		                        audio_path, livekit_session_id, metadata)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (interview_id) DO UPDATE SET
			title = EXCLUDED.title,
			date = EXCLUDED.date,
			duration_seconds = EXCLUDED.duration_seconds,
			ingestion_mode = EXCLUDED.ingestion_mode,
			audio_path = EXCLUDED.audio_path,
			livekit_session_id = EXCLUDED.livekit_session_id,
			metadata = EXCLUDED.metadata
		RETURNING created_at
	`, iv.InterviewID, iv.Title, iv.Date, iv.DurationSeconds, iv.IngestionMode,
		nullable(iv.AudioPath), nullable(iv.LivekitSessionID), metadata)

	if err := row.Scan(&iv.CreatedAt); err != nil {
		return models.Interview{}, wrapError("upsert interview", err)
	}
	return iv, nil
}

// Put validates and inserts a single segment
func (r *SegmentRepository) Put(ctx context.Context, seg models.Segment) (models.Segment, error) {
	if err := seg.Validate(); err != nil {
		return models.Segment{}, err
	}
	stored, err := insertSegment(ctx, r.db, seg)
	if err != nil {
		return models.Segment{}, wrapError("put segment", err)
	}
	return stored, nil
}

// PutBatch inserts segments all-or-nothing: every element is validated
// before the transaction opens, and a failure anywhere rolls back the whole
// batch. Concurrent writers serialize against the batch at row granularity;
// readers see none or all of it.
func (r *SegmentRepository) PutBatch(ctx context.Context, segs []models.Segment) ([]models.Segment, error) {
	for i := range segs {
		if err := segs[i].Validate(); err != nil {
			return nil, err
		}
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, wrapError("begin batch", err)
	}
	defer tx.Rollback()

	stored := make([]models.Segment, 0, len(segs))
	for i := range segs {
		out, err := insertSegment(ctx, tx, segs[i])
		if err != nil {
			return nil, wrapError("put batch segment", err)
		}
		stored = append(stored, out)
	}

	if err := tx.Commit(); err != nil {
		return nil, wrapError("commit batch", err)
	}
	return stored, nil
}

// Upsert overwrites the segment with the same ID or inserts a new one.
// SegmentID and created_at are immutable across updates.
func (r *SegmentRepository) Upsert(ctx context.Context, seg models.Segment) (models.Segment, error) {
	if err := seg.Validate(); err != nil {
		return models.Segment{}, err
	}
	if seg.SegmentID == "" {
		return r.Put(ctx, seg)
	}

	metadata, err := marshalMetadata(seg.Metadata)
	if err != nil {
		return models.Segment{}, err
	}

	row := r.db.QueryRowxContext(ctx, `
		INSERT INTO segments (segment_id, interview_id, speaker_role, start_time, end_time,
		                      text, embedding, confidence, ingestion_mode, metadata)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (segment_id) DO UPDATE SET
			interview_id = EXCLUDED.interview_id,
			speaker_role = EXCLUDED.speaker_role,
			start_time = EXCLUDED.start_time,
			end_time = EXCLUDED.end_time,
			text = EXCLUDED.text,
			embedding = EXCLUDED.embedding,
			confidence = EXCLUDED.confidence,
			ingestion_mode = EXCLUDED.ingestion_mode,
			metadata = EXCLUDED.metadata
		RETURNING created_at
	`, seg.SegmentID, seg.InterviewID, seg.SpeakerRole, seg.StartTime, seg.EndTime,
		seg.Text, embeddingValue(seg.Embedding), seg.Confidence, seg.IngestionMode, metadata)

	if err := row.Scan(&seg.CreatedAt); err != nil {
		return models.Segment{}, wrapError("upsert segment", err)
	}
	return seg, nil
}

// GetByInterview returns segments ordered ascending by start_time
func (r *SegmentRepository) GetByInterview(ctx context.Context, interviewID string, role *models.SpeakerRole) ([]models.Segment, error) {
	query := `
		SELECT segment_id, interview_id, speaker_role, start_time, end_time,
		       text, embedding, confidence, ingestion_mode, created_at, metadata
		FROM segments
		WHERE interview_id = $1`
	args := []interface{}{interviewID}
	if role != nil {
		query += ` AND speaker_role = $2`
		args = append(args, *role)
	}
	query += ` ORDER BY start_time ASC`

	rows, err := r.db.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, wrapError("get segments by interview", err)
	}
	defer rows.Close()

	segments := []models.Segment{}
	for rows.Next() {
		seg, err := scanSegment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan segment: %w", err)
		}
		segments = append(segments, seg)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapError("iterate segments", err)
	}
	return segments, nil
}

// DeleteInterview removes the interview; the segments go with it via the
// ON DELETE CASCADE foreign key, inside the same statement.
func (r *SegmentRepository) DeleteInterview(ctx context.Context, interviewID string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM interviews WHERE interview_id = $1`, interviewID)
	if err != nil {
		return false, wrapError("delete interview", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, wrapError("delete interview rows", err)
	}
	return n > 0, nil
}

// Stats returns exact counts at call time
func (r *SegmentRepository) Stats(ctx context.Context) (models.Stats, error) {
	var stats models.Stats
	err := r.db.QueryRowxContext(ctx, `
		SELECT (SELECT COUNT(*) FROM interviews) AS total_interviews,
		       (SELECT COUNT(*) FROM segments) AS total_segments
	`).Scan(&stats.TotalInterviews, &stats.TotalSegments)
	if err != nil {
		return models.Stats{}, wrapError("stats", err)
	}
	return stats, nil
}

// execer covers *sqlx.DB and *sqlx.Tx for shared insert logic
type execer interface {
	QueryRowxContext(ctx context.Context, query string, args ...interface{}) *sqlx.Row
}

func insertSegment(ctx context.Context, q execer, seg models.Segment) (models.Segment, error) {
	if seg.SegmentID == "" {
		seg.SegmentID = uuid.NewString()
	}

	metadata, err := marshalMetadata(seg.Metadata)
	if err != nil {
		return models.Segment{}, err
	}

	row := q.QueryRowxContext(ctx, `
		INSERT INTO segments (segment_id, interview_id, speaker_role, start_time, end_time,
		                      text, embedding, confidence, ingestion_mode, metadata)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at
	`, seg.SegmentID, seg.InterviewID, seg.SpeakerRole, seg.StartTime, seg.EndTime,
		seg.Text, embeddingValue(seg.Embedding), seg.Confidence, seg.IngestionMode, metadata)

	if err := row.Scan(&seg.CreatedAt); err != nil {
		return models.Segment{}, err
	}
	return seg, nil
}

// segmentScanner covers sqlx row types for scanSegment
type segmentScanner interface {
	Scan(dest ...interface{}) error
}

func scanSegment(row segmentScanner) (models.Segment, error) {
	var (
		seg       models.Segment
		embedding *pgvector.Vector
		metadata  []byte
	)
	if err := row.Scan(&seg.SegmentID, &seg.InterviewID, &seg.SpeakerRole, &seg.StartTime,
		&seg.EndTime, &seg.Text, &embedding, &seg.Confidence, &seg.IngestionMode,
		&seg.CreatedAt, &metadata); err != nil {
		return models.Segment{}, err
	}
	if embedding != nil {
		seg.Embedding = embedding.Slice()
	}
	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &seg.Metadata); err != nil {
			return models.Segment{}, fmt.Errorf("unmarshal metadata: %w", err)
		}
	}
	return seg, nil
}

// embeddingValue renders an optional embedding as a pgvector value or NULL
func embeddingValue(embedding []float32) interface{} {
	if len(embedding) == 0 {
		return nil
	}
	return pgvector.NewVector(embedding)
}

func marshalMetadata(metadata map[string]interface{}) (interface{}, error) {
	if metadata == nil {
		return nil, nil
	}
	raw, err := json.Marshal(metadata)
	if err != nil {
		return nil, fmt.Errorf("marshal metadata: %w", err)
	}
	return raw, nil
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
