package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/interview-retrieval-api/internal/models"
	"github.com/interview-retrieval-api/internal/repository"
)

// EvaluationRepository implements repository.EvaluationStore for PostgreSQL
type EvaluationRepository struct {
	db *sqlx.DB
}

// NewEvaluationRepository creates a new PostgreSQL evaluation repository
func NewEvaluationRepository(db *sqlx.DB) *EvaluationRepository {
	return &EvaluationRepository{db: db}
}

var _ repository.EvaluationStore = (*EvaluationRepository)(nil)

// PutDataset stores a dataset, replacing any previous version with the same ID
func (r *EvaluationRepository) PutDataset(ctx context.Context, ds models.EvaluationDataset) (models.EvaluationDataset, error) {
	if err := ds.Validate(); err != nil {
		return models.EvaluationDataset{}, err
	}

	queries, err := json.Marshal(ds.TestQueries)
	if err != nil {
		return models.EvaluationDataset{}, fmt.Errorf("marshal test queries: %w", err)
	}

	row := r.db.QueryRowxContext(ctx, `
		INSERT INTO evaluation_datasets (dataset_id, name, description, test_queries)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (dataset_id) DO UPDATE SET
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			test_queries = EXCLUDED.test_queries
		RETURNING created_at
	`, ds.DatasetID, ds.Name, nullable(ds.Description), queries)

	if err := row.Scan(&ds.CreatedAt); err != nil {
		return models.EvaluationDataset{}, wrapError("put evaluation dataset", err)
	}
	return ds, nil
}

// GetDataset returns a dataset by ID
func (r *EvaluationRepository) GetDataset(ctx context.Context, datasetID string) (models.EvaluationDataset, error) {
	var (
		ds          models.EvaluationDataset
		description sql.NullString
		queries     []byte
	)
	err := r.db.QueryRowxContext(ctx, `
		SELECT dataset_id, name, description, created_at, test_queries
		FROM evaluation_datasets
		WHERE dataset_id = $1
	`, datasetID).Scan(&ds.DatasetID, &ds.Name, &description, &ds.CreatedAt, &queries)
	if errors.Is(err, sql.ErrNoRows) {
		return models.EvaluationDataset{}, fmt.Errorf("evaluation dataset %s: %w", datasetID, models.ErrNotFound)
	}
	if err != nil {
		return models.EvaluationDataset{}, wrapError("get evaluation dataset", err)
	}
	ds.Description = description.String
	if err := json.Unmarshal(queries, &ds.TestQueries); err != nil {
		return models.EvaluationDataset{}, fmt.Errorf("unmarshal test queries: %w", err)
	}
	return ds, nil
}

// PutResult stores an evaluation result
func (r *EvaluationRepository) PutResult(ctx context.Context, res models.EvaluationResult) (models.EvaluationResult, error) {
	if res.EvaluationID == "" {
		res.EvaluationID = uuid.NewString()
	}

	overall, err := json.Marshal(res.OverallMetrics)
	if err != nil {
		return models.EvaluationResult{}, fmt.Errorf("marshal overall metrics: %w", err)
	}
	speaker, err := json.Marshal(res.SpeakerMetrics)
	if err != nil {
		return models.EvaluationResult{}, fmt.Errorf("marshal speaker metrics: %w", err)
	}
	perQuery, err := json.Marshal(res.PerQueryResults)
	if err != nil {
		return models.EvaluationResult{}, fmt.Errorf("marshal per-query results: %w", err)
	}
	cfg, err := json.Marshal(res.Config)
	if err != nil {
		return models.EvaluationResult{}, fmt.Errorf("marshal config: %w", err)
	}

	row := r.db.QueryRowxContext(ctx, `
		INSERT INTO evaluation_results (evaluation_id, dataset_id, overall_metrics,
		                                speaker_metrics, per_query_results, config)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING timestamp
	`, res.EvaluationID, res.DatasetID, overall, speaker, perQuery, cfg)

	if err := row.Scan(&res.Timestamp); err != nil {
		return models.EvaluationResult{}, wrapError("put evaluation result", err)
	}
	return res, nil
}

// ListResults returns all stored results for a dataset, oldest first
func (r *EvaluationRepository) ListResults(ctx context.Context, datasetID string) ([]models.EvaluationResult, error) {
	rows, err := r.db.QueryxContext(ctx, `
		SELECT evaluation_id, dataset_id, timestamp, overall_metrics,
		       speaker_metrics, per_query_results, config
		FROM evaluation_results
		WHERE dataset_id = $1
		ORDER BY timestamp ASC
	`, datasetID)
	if err != nil {
		return nil, wrapError("list evaluation results", err)
	}
	defer rows.Close()

	results := []models.EvaluationResult{}
	for rows.Next() {
		var (
			res                             models.EvaluationResult
			overall, speaker, perQuery, cfg []byte
		)
		if err := rows.Scan(&res.EvaluationID, &res.DatasetID, &res.Timestamp,
			&overall, &speaker, &perQuery, &cfg); err != nil {
			return nil, fmt.Errorf("scan evaluation result: %w", err)
		}
		if err := json.Unmarshal(overall, &res.OverallMetrics); err != nil {
			return nil, fmt.Errorf("unmarshal overall metrics: %w", err)
		}
		if len(speaker) > 0 {
			if err := json.Unmarshal(speaker, &res.SpeakerMetrics); err != nil {
				return nil, fmt.Errorf("unmarshal speaker metrics: %w", err)
			}
		}
		if err := json.Unmarshal(perQuery, &res.PerQueryResults); err != nil {
			return nil, fmt.Errorf("unmarshal per-query results: %w", err)
		}
		if err := json.Unmarshal(cfg, &res.Config); err != nil {
			return nil, fmt.Errorf("unmarshal config: %w", err)
		}
		results = append(results, res)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapError("iterate evaluation results", err)
	}
	return results, nil
}
