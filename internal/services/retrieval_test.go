package services

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/interview-retrieval-api/internal/models"
	"github.com/interview-retrieval-api/internal/repository/memory"
)

func newTestService(t *testing.T) (*RetrievalService, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	_, err := store.UpsertInterview(context.Background(), models.Interview{
		InterviewID:   "iv-1",
		IngestionMode: models.IngestionOffline,
	})
	require.NoError(t, err)
	return NewRetrievalService(store, store, store), store
}

// embeddingWithSimilarity builds a 768-dim vector whose cosine similarity
// to the canonical query vector is sim.
func embeddingWithSimilarity(sim float64) []float32 {
	v := make([]float32, models.EmbeddingDimensions)
	v[0] = float32(sim)
	v[1] = float32(math.Sqrt(1 - sim*sim))
	return v
}

func testQueryEmbedding() []float32 {
	v := make([]float32, models.EmbeddingDimensions)
	v[0] = 1
	return v
}

func putSegment(t *testing.T, store *memory.Store, text string, sim float64) models.Segment {
	t.Helper()
	seg := models.Segment{
		InterviewID:   "iv-1",
		SpeakerRole:   models.SpeakerPatient,
		StartTime:     0,
		EndTime:       1,
		Text:          text,
		IngestionMode: models.IngestionOffline,
	}
	if sim >= -1 {
		seg.Embedding = embeddingWithSimilarity(sim)
	}
	stored, err := store.Put(context.Background(), seg)
	require.NoError(t, err)
	return stored
}

func TestSemanticSearchRequiresEmbedding(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.SemanticSearch(context.Background(), models.SemanticSearchRequest{})
	assert.True(t, models.IsInvalidQuery(err))
}

func TestSemanticSearchRejectsWrongDimension(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.SemanticSearch(context.Background(), models.SemanticSearchRequest{
		QueryEmbedding: []float32{1, 2, 3},
	})
	assert.True(t, models.IsInvalidQuery(err))
}

func TestSemanticSearchRejectsNegativeCount(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.SemanticSearch(context.Background(), models.SemanticSearchRequest{
		QueryEmbedding: testQueryEmbedding(),
		MatchCount:     -1,
	})
	assert.True(t, models.IsInvalidQuery(err))
}

func TestSemanticSearchThresholdExample(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	first := putSegment(t, store, "close match", 0.9)
	putSegment(t, store, "distant match", 0.4)

	threshold := 0.5
	resp, err := svc.SemanticSearch(ctx, models.SemanticSearchRequest{
		QueryEmbedding: testQueryEmbedding(),
		MatchThreshold: &threshold,
	})
	require.NoError(t, err)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, first.SegmentID, resp.Results[0].SegmentID)
	assert.InDelta(t, 0.9, resp.Results[0].Similarity, 1e-6)
}

func TestSemanticSearchOrderNonIncreasing(t *testing.T) {
	svc, store := newTestService(t)

	for _, sim := range []float64{0.3, 0.8, 0.5, 0.95} {
		putSegment(t, store, "segment", sim)
	}

	threshold := -1.0
	resp, err := svc.SemanticSearch(context.Background(), models.SemanticSearchRequest{
		QueryEmbedding: testQueryEmbedding(),
		MatchThreshold: &threshold,
	})
	require.NoError(t, err)
	require.Len(t, resp.Results, 4)
	for i := 1; i < len(resp.Results); i++ {
		assert.GreaterOrEqual(t, resp.Results[i-1].Similarity, resp.Results[i].Similarity)
	}
}

func TestKeywordSearchRequiresText(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.KeywordSearch(context.Background(), models.KeywordSearchRequest{})
	assert.True(t, models.IsInvalidQuery(err))
}

func TestHybridSearchRequiresQueryContent(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.HybridSearch(context.Background(), models.HybridSearchRequest{})
	assert.True(t, models.IsInvalidQuery(err))
}

func TestHybridSearchRejectsNegativeWeights(t *testing.T) {
	svc, _ := newTestService(t)

	bad := -0.1
	_, err := svc.HybridSearch(context.Background(), models.HybridSearchRequest{
		QueryText:      "sleep",
		SemanticWeight: &bad,
	})
	assert.True(t, models.IsInvalidQuery(err))
}

func TestHybridSearchKeywordOnlyMatchIncluded(t *testing.T) {
	svc, store := newTestService(t)

	// No embedding at all: invisible to the similarity index but a strong
	// lexical match. It must still appear in hybrid results.
	kwOnly := putSegment(t, store, "recurring nightmares about water", -2)
	putSegment(t, store, "unrelated topic entirely different words", 0.9)

	resp, err := svc.HybridSearch(context.Background(), models.HybridSearchRequest{
		QueryEmbedding: testQueryEmbedding(),
		QueryText:      "nightmares",
	})
	require.NoError(t, err)

	var found *models.HybridMatch
	for i := range resp.Results {
		if resp.Results[i].SegmentID == kwOnly.SegmentID {
			found = &resp.Results[i]
		}
	}
	require.NotNil(t, found, "keyword-only match dropped from hybrid results")
	assert.Equal(t, 0.0, found.SemanticScore)
	assert.Greater(t, found.KeywordScore, 0.0)
}

func TestHybridSearchSemanticOnlyMatchIncluded(t *testing.T) {
	svc, store := newTestService(t)

	semOnly := putSegment(t, store, "completely unrelated words here", 0.85)
	putSegment(t, store, "nightmares and poor sleep", 0.1)

	resp, err := svc.HybridSearch(context.Background(), models.HybridSearchRequest{
		QueryEmbedding: testQueryEmbedding(),
		QueryText:      "nightmares",
	})
	require.NoError(t, err)

	var found *models.HybridMatch
	for i := range resp.Results {
		if resp.Results[i].SegmentID == semOnly.SegmentID {
			found = &resp.Results[i]
		}
	}
	require.NotNil(t, found)
	assert.Equal(t, 0.0, found.KeywordScore)
	assert.InDelta(t, 0.85, found.SemanticScore, 1e-6)
}

func TestHybridSearchNoThresholdGate(t *testing.T) {
	svc, store := newTestService(t)

	// A segment far below the default semantic threshold must still be
	// considered by the hybrid ranker.
	low := putSegment(t, store, "persistent nightmares", 0.05)

	resp, err := svc.HybridSearch(context.Background(), models.HybridSearchRequest{
		QueryEmbedding: testQueryEmbedding(),
		QueryText:      "nightmares",
	})
	require.NoError(t, err)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, low.SegmentID, resp.Results[0].SegmentID)
	assert.InDelta(t, 0.05, resp.Results[0].SemanticScore, 1e-6)
}

func TestHybridSearchMatchCountCut(t *testing.T) {
	svc, store := newTestService(t)

	for i := 0; i < 8; i++ {
		putSegment(t, store, "talking about nightmares again", 0.5)
	}

	resp, err := svc.HybridSearch(context.Background(), models.HybridSearchRequest{
		QueryEmbedding: testQueryEmbedding(),
		QueryText:      "nightmares",
		MatchCount:     3,
	})
	require.NoError(t, err)
	assert.Len(t, resp.Results, 3)
}

func TestHybridSearchTextOnlyMode(t *testing.T) {
	svc, store := newTestService(t)

	putSegment(t, store, "worried about my medication", -2)

	resp, err := svc.HybridSearch(context.Background(), models.HybridSearchRequest{
		QueryText: "medication",
	})
	require.NoError(t, err)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, 0.0, resp.Results[0].SemanticScore)
	assert.Greater(t, resp.Results[0].CombinedScore, 0.0)
}

func TestHybridSearchFilterApplied(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	_, err := store.UpsertInterview(ctx, models.Interview{InterviewID: "iv-2", IngestionMode: models.IngestionLive})
	require.NoError(t, err)

	putSegment(t, store, "nightmares in iv-1", 0.9)
	other := models.Segment{
		InterviewID:   "iv-2",
		SpeakerRole:   models.SpeakerPatient,
		StartTime:     0,
		EndTime:       1,
		Text:          "nightmares in iv-2",
		IngestionMode: models.IngestionLive,
		Embedding:     embeddingWithSimilarity(0.9),
	}
	_, err = store.Put(ctx, other)
	require.NoError(t, err)

	resp, err := svc.HybridSearch(ctx, models.HybridSearchRequest{
		QueryEmbedding:    testQueryEmbedding(),
		QueryText:         "nightmares",
		FilterInterviewID: "iv-2",
	})
	require.NoError(t, err)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, "nightmares in iv-2", resp.Results[0].Text)
}
