package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/interview-retrieval-api/internal/models"
)

func TestScoreQuery(t *testing.T) {
	metrics := scoreQuery(
		[]string{"a", "x", "b", "y"},
		[]string{"a", "b", "c"},
		4,
	)
	// 2 of 4 retrieved are relevant, 2 of 3 relevant retrieved, first hit at rank 1.
	assert.InDelta(t, 0.5, metrics.PrecisionAtK, 1e-9)
	assert.InDelta(t, 2.0/3.0, metrics.RecallAtK, 1e-9)
	assert.InDelta(t, 1.0, metrics.MRR, 1e-9)
}

func TestScoreQueryFirstHitDeep(t *testing.T) {
	metrics := scoreQuery([]string{"x", "y", "a"}, []string{"a"}, 3)
	assert.InDelta(t, 1.0/3.0, metrics.MRR, 1e-9)
	assert.InDelta(t, 1.0, metrics.RecallAtK, 1e-9)
}

func TestScoreQueryNoHits(t *testing.T) {
	metrics := scoreQuery([]string{"x", "y"}, []string{"a"}, 2)
	assert.Equal(t, 0.0, metrics.PrecisionAtK)
	assert.Equal(t, 0.0, metrics.RecallAtK)
	assert.Equal(t, 0.0, metrics.MRR)
}

func TestAverageMetrics(t *testing.T) {
	avg := averageMetrics([]models.QueryMetrics{
		{PrecisionAtK: 1.0, RecallAtK: 0.5, MRR: 1.0},
		{PrecisionAtK: 0.0, RecallAtK: 0.5, MRR: 0.5},
	})
	assert.InDelta(t, 0.5, avg.PrecisionAtK, 1e-9)
	assert.InDelta(t, 0.5, avg.RecallAtK, 1e-9)
	assert.InDelta(t, 0.75, avg.MRR, 1e-9)
}

func TestRunDatasetUnknownDataset(t *testing.T) {
	svc, store := newTestService(t)
	evalSvc := NewEvaluationService(svc, store)

	_, err := evalSvc.RunDataset(context.Background(), "missing", models.EvaluationConfig{})
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestRunDatasetStoresResult(t *testing.T) {
	svc, store := newTestService(t)
	evalSvc := NewEvaluationService(svc, store)
	ctx := context.Background()

	relevant := putSegment(t, store, "trouble sleeping and frequent nightmares", 0.9)
	putSegment(t, store, "appetite is normal", 0.1)

	_, err := evalSvc.SaveDataset(ctx, models.EvaluationDataset{
		DatasetID: "baseline-v1",
		Name:      "Baseline",
		TestQueries: []models.TestQuery{
			{
				QueryID:            "q1",
				QueryText:          "nightmares",
				QueryEmbedding:     testQueryEmbedding(),
				RelevantSegmentIDs: []string{relevant.SegmentID},
			},
		},
	})
	require.NoError(t, err)

	result, err := evalSvc.RunDataset(ctx, "baseline-v1", models.EvaluationConfig{MatchCount: 2})
	require.NoError(t, err)

	assert.NotEmpty(t, result.EvaluationID)
	assert.Equal(t, "baseline-v1", result.DatasetID)
	require.Len(t, result.PerQueryResults, 1)
	assert.Equal(t, 1.0, result.OverallMetrics.RecallAtK)
	assert.Equal(t, 1.0, result.OverallMetrics.MRR, "relevant segment should rank first")

	stored, err := evalSvc.ListResults(ctx, "baseline-v1")
	require.NoError(t, err)
	assert.Len(t, stored, 1)
}

func TestRunDatasetSpeakerMetrics(t *testing.T) {
	svc, store := newTestService(t)
	evalSvc := NewEvaluationService(svc, store)
	ctx := context.Background()

	seg := putSegment(t, store, "patient segment about nightmares", 0.9)

	patient := models.SpeakerPatient
	_, err := evalSvc.SaveDataset(ctx, models.EvaluationDataset{
		DatasetID: "roles-v1",
		Name:      "Role split",
		TestQueries: []models.TestQuery{
			{
				QueryID:            "q1",
				QueryText:          "nightmares",
				QueryEmbedding:     testQueryEmbedding(),
				RelevantSegmentIDs: []string{seg.SegmentID},
				FilterSpeakerRole:  &patient,
			},
		},
	})
	require.NoError(t, err)

	result, err := evalSvc.RunDataset(ctx, "roles-v1", models.EvaluationConfig{})
	require.NoError(t, err)
	require.Contains(t, result.SpeakerMetrics, models.SpeakerPatient)
	assert.Equal(t, 1.0, result.SpeakerMetrics[models.SpeakerPatient].RecallAtK)
}
