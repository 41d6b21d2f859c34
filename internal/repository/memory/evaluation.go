package memory

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/interview-retrieval-api/internal/models"
)

// PutDataset stores an evaluation dataset, replacing any previous version
func (s *Store) PutDataset(ctx context.Context, ds models.EvaluationDataset) (models.EvaluationDataset, error) {
	if err := ds.Validate(); err != nil {
		return models.EvaluationDataset{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if prev, ok := s.datasets[ds.DatasetID]; ok {
		ds.CreatedAt = prev.CreatedAt
	} else if ds.CreatedAt.IsZero() {
		ds.CreatedAt = time.Now().UTC()
	}
	s.datasets[ds.DatasetID] = ds
	return ds, nil
}

// GetDataset returns a dataset by ID
func (s *Store) GetDataset(ctx context.Context, datasetID string) (models.EvaluationDataset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ds, ok := s.datasets[datasetID]
	if !ok {
		return models.EvaluationDataset{}, &notFoundError{kind: "evaluation dataset", id: datasetID}
	}
	return ds, nil
}

// PutResult stores an evaluation result, assigning EvaluationID if absent
func (s *Store) PutResult(ctx context.Context, res models.EvaluationResult) (models.EvaluationResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.datasets[res.DatasetID]; !ok {
		return models.EvaluationResult{}, &notFoundError{kind: "evaluation dataset", id: res.DatasetID}
	}
	if res.EvaluationID == "" {
		res.EvaluationID = uuid.NewString()
	}
	if res.Timestamp.IsZero() {
		res.Timestamp = time.Now().UTC()
	}
	s.results[res.DatasetID] = append(s.results[res.DatasetID], res)
	return res, nil
}

// ListResults returns all stored results for a dataset, oldest first
func (s *Store) ListResults(ctx context.Context, datasetID string) ([]models.EvaluationResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.EvaluationResult, len(s.results[datasetID]))
	copy(out, s.results[datasetID])
	return out, nil
}
