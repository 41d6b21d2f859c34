package services

import (
	"context"

	"github.com/interview-retrieval-api/internal/models"
	"github.com/interview-retrieval-api/internal/repository"
)

// EvaluationService runs stored evaluation datasets against the retrieval
// core and records the resulting metrics.
type EvaluationService struct {
	retrieval *RetrievalService
	evals     repository.EvaluationStore
}

// NewEvaluationService creates an evaluation service
func NewEvaluationService(retrieval *RetrievalService, evals repository.EvaluationStore) *EvaluationService {
	return &EvaluationService{
		retrieval: retrieval,
		evals:     evals,
	}
}

// SaveDataset validates and stores a dataset
func (s *EvaluationService) SaveDataset(ctx context.Context, ds models.EvaluationDataset) (models.EvaluationDataset, error) {
	return s.evals.PutDataset(ctx, ds)
}

// GetDataset returns a dataset by ID
func (s *EvaluationService) GetDataset(ctx context.Context, datasetID string) (models.EvaluationDataset, error) {
	return s.evals.GetDataset(ctx, datasetID)
}

// ListResults returns stored results for a dataset
func (s *EvaluationService) ListResults(ctx context.Context, datasetID string) ([]models.EvaluationResult, error) {
	return s.evals.ListResults(ctx, datasetID)
}

// RunDataset executes every test query of the dataset as a hybrid search
// with the given config, computes per-query and aggregate metrics, and
// stores the result. Fails with ErrNotFound when the dataset is unknown.
func (s *EvaluationService) RunDataset(ctx context.Context, datasetID string, cfg models.EvaluationConfig) (models.EvaluationResult, error) {
	ds, err := s.evals.GetDataset(ctx, datasetID)
	if err != nil {
		return models.EvaluationResult{}, err
	}

	if cfg.MatchCount <= 0 {
		cfg.MatchCount = models.DefaultMatchCount
	}
	if cfg.SemanticWeight == 0 && cfg.KeywordWeight == 0 {
		cfg.SemanticWeight = models.DefaultSemanticWeight
		cfg.KeywordWeight = models.DefaultKeywordWeight
	}

	perQuery := make([]models.PerQueryResult, 0, len(ds.TestQueries))
	byRole := make(map[models.SpeakerRole][]models.QueryMetrics)

	for _, q := range ds.TestQueries {
		if err := ctx.Err(); err != nil {
			return models.EvaluationResult{}, err
		}

		resp, err := s.retrieval.HybridSearch(ctx, models.HybridSearchRequest{
			QueryEmbedding:    q.QueryEmbedding,
			QueryText:         q.QueryText,
			SemanticWeight:    &cfg.SemanticWeight,
			KeywordWeight:     &cfg.KeywordWeight,
			MatchCount:        cfg.MatchCount,
			FilterInterviewID: q.FilterInterviewID,
			FilterSpeakerRole: q.FilterSpeakerRole,
		})
		if err != nil {
			return models.EvaluationResult{}, err
		}

		retrieved := make([]string, len(resp.Results))
		for i, m := range resp.Results {
			retrieved[i] = m.SegmentID
		}
		metrics := scoreQuery(retrieved, q.RelevantSegmentIDs, cfg.MatchCount)
		perQuery = append(perQuery, models.PerQueryResult{
			QueryID:             q.QueryID,
			Metrics:             metrics,
			RetrievedSegmentIDs: retrieved,
		})
		if q.FilterSpeakerRole != nil {
			byRole[*q.FilterSpeakerRole] = append(byRole[*q.FilterSpeakerRole], metrics)
		}
	}

	result := models.EvaluationResult{
		DatasetID:       datasetID,
		OverallMetrics:  averageMetrics(collectMetrics(perQuery)),
		PerQueryResults: perQuery,
		Config:          cfg,
	}
	if len(byRole) > 0 {
		result.SpeakerMetrics = make(map[models.SpeakerRole]models.QueryMetrics, len(byRole))
		for role, ms := range byRole {
			result.SpeakerMetrics[role] = averageMetrics(ms)
		}
	}

	return s.evals.PutResult(ctx, result)
}

// scoreQuery computes precision@k, recall@k and reciprocal rank for one query
func scoreQuery(retrieved, relevant []string, k int) models.QueryMetrics {
	relevantSet := make(map[string]bool, len(relevant))
	for _, id := range relevant {
		relevantSet[id] = true
	}

	var hits int
	var mrr float64
	for rank, id := range retrieved {
		if relevantSet[id] {
			hits++
			if mrr == 0 {
				mrr = 1 / float64(rank+1)
			}
		}
	}

	var metrics models.QueryMetrics
	if k > 0 {
		metrics.PrecisionAtK = float64(hits) / float64(k)
	}
	if len(relevant) > 0 {
		metrics.RecallAtK = float64(hits) / float64(len(relevant))
	}
	metrics.MRR = mrr
	return metrics
}

func collectMetrics(perQuery []models.PerQueryResult) []models.QueryMetrics {
	out := make([]models.QueryMetrics, len(perQuery))
	for i, r := range perQuery {
		out[i] = r.Metrics
	}
	return out
}

func averageMetrics(ms []models.QueryMetrics) models.QueryMetrics {
	if len(ms) == 0 {
		return models.QueryMetrics{}
	}
	var agg models.QueryMetrics
	for _, m := range ms {
		agg.PrecisionAtK += m.PrecisionAtK
		agg.RecallAtK += m.RecallAtK
		agg.MRR += m.MRR
	}
	n := float64(len(ms))
	agg.PrecisionAtK /= n
	agg.RecallAtK /= n
	agg.MRR /= n
	return agg
}
