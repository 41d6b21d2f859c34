package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/interview-retrieval-api/internal/models"
	"github.com/interview-retrieval-api/internal/repository/memory"
	"github.com/interview-retrieval-api/internal/services"
)

func newTestAPI(t *testing.T) (*echo.Echo, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	retrieval := services.NewRetrievalService(store, store, store)
	evaluation := services.NewEvaluationService(retrieval, store)

	e := echo.New()
	g := e.Group("/api/v1")
	NewSearchHandler(retrieval).RegisterRoutes(g)
	NewSegmentsHandler(store).RegisterRoutes(g)
	NewEvaluationHandler(evaluation).RegisterRoutes(g)
	return e, store
}

func doJSON(t *testing.T, e *echo.Echo, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func seedInterview(t *testing.T, store *memory.Store, interviewID string) {
	t.Helper()
	_, err := store.UpsertInterview(context.Background(), models.Interview{
		InterviewID:   interviewID,
		IngestionMode: models.IngestionOffline,
	})
	require.NoError(t, err)
}

func seedSegment(t *testing.T, store *memory.Store, interviewID, text string, sim float64) models.Segment {
	t.Helper()
	emb := make([]float32, models.EmbeddingDimensions)
	emb[0] = float32(sim)
	emb[1] = float32(math.Sqrt(1 - sim*sim))
	seg, err := store.Put(context.Background(), models.Segment{
		InterviewID:   interviewID,
		SpeakerRole:   models.SpeakerPatient,
		StartTime:     0,
		EndTime:       1,
		Text:          text,
		Embedding:     emb,
		IngestionMode: models.IngestionOffline,
	})
	require.NoError(t, err)
	return seg
}

func queryEmbedding() []float32 {
	v := make([]float32, models.EmbeddingDimensions)
	v[0] = 1
	return v
}

func TestSemanticSearchEndpoint(t *testing.T) {
	e, store := newTestAPI(t)
	seedInterview(t, store, "iv-1")
	seedSegment(t, store, "iv-1", "trouble sleeping at night", 0.9)
	seedSegment(t, store, "iv-1", "appetite is fine", 0.1)

	rec := doJSON(t, e, http.MethodPost, "/api/v1/search/semantic", models.SemanticSearchRequest{
		QueryEmbedding: queryEmbedding(),
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp models.SemanticSearchResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Results, 1, "segment below default threshold should be excluded")
	assert.Equal(t, "trouble sleeping at night", resp.Results[0].Text)
}

func TestSemanticSearchMissingEmbedding(t *testing.T) {
	e, _ := newTestAPI(t)

	rec := doJSON(t, e, http.MethodPost, "/api/v1/search/semantic", models.SemanticSearchRequest{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHybridSearchEndpoint(t *testing.T) {
	e, store := newTestAPI(t)
	seedInterview(t, store, "iv-1")
	seedSegment(t, store, "iv-1", "recurring nightmares after the accident", 0.9)

	rec := doJSON(t, e, http.MethodPost, "/api/v1/search/hybrid", models.HybridSearchRequest{
		QueryEmbedding: queryEmbedding(),
		QueryText:      "nightmares",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp models.HybridSearchResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Results, 1)
	assert.Greater(t, resp.Results[0].SemanticScore, 0.0)
	assert.Greater(t, resp.Results[0].KeywordScore, 0.0)
	assert.Greater(t, resp.Results[0].CombinedScore, 0.0)
}

func TestKeywordSearchEndpoint(t *testing.T) {
	e, store := newTestAPI(t)
	seedInterview(t, store, "iv-1")
	seedSegment(t, store, "iv-1", "panic attacks in crowded places", 0.5)

	rec := doJSON(t, e, http.MethodPost, "/api/v1/search/keyword", models.KeywordSearchRequest{
		QueryText: "panic",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp models.KeywordSearchResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Results, 1)
	assert.Equal(t, "panic attacks in crowded places", resp.Results[0].Text)
}

func TestUpsertSegmentValidationStatus(t *testing.T) {
	e, store := newTestAPI(t)
	seedInterview(t, store, "iv-1")

	rec := doJSON(t, e, http.MethodPost, "/api/v1/segments", models.Segment{
		InterviewID:   "iv-1",
		SpeakerRole:   models.SpeakerPatient,
		StartTime:     5,
		EndTime:       2,
		Text:          "bad time range",
		IngestionMode: models.IngestionOffline,
	})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestUpsertSegmentUnknownInterview(t *testing.T) {
	e, _ := newTestAPI(t)

	rec := doJSON(t, e, http.MethodPost, "/api/v1/segments", models.Segment{
		InterviewID:   "nope",
		SpeakerRole:   models.SpeakerPatient,
		StartTime:     0,
		EndTime:       1,
		Text:          "orphan",
		IngestionMode: models.IngestionOffline,
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestInterviewLifecycleEndpoints(t *testing.T) {
	e, store := newTestAPI(t)

	rec := doJSON(t, e, http.MethodPut, "/api/v1/interviews/iv-9", models.Interview{
		Title:         "Intake session",
		IngestionMode: models.IngestionLive,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	seedSegment(t, store, "iv-9", "first segment", 0.5)
	seedSegment(t, store, "iv-9", "second segment", 0.5)

	rec = doJSON(t, e, http.MethodGet, "/api/v1/interviews/iv-9/segments", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var segs []models.Segment
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &segs))
	assert.Len(t, segs, 2)

	rec = doJSON(t, e, http.MethodDelete, "/api/v1/interviews/iv-9", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"deleted": true}`, rec.Body.String())

	rec = doJSON(t, e, http.MethodDelete, "/api/v1/interviews/iv-9", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"deleted": false}`, rec.Body.String())
}

func TestGetSegmentsBadRoleParam(t *testing.T) {
	e, _ := newTestAPI(t)

	rec := doJSON(t, e, http.MethodGet, "/api/v1/interviews/iv-1/segments?speaker_role=ROBOT", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStatsEndpoint(t *testing.T) {
	e, store := newTestAPI(t)
	seedInterview(t, store, "iv-1")
	seedSegment(t, store, "iv-1", "one", 0.5)

	rec := doJSON(t, e, http.MethodGet, "/api/v1/stats", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var stats models.Stats
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.Equal(t, 1, stats.TotalInterviews)
	assert.Equal(t, 1, stats.TotalSegments)
}

func TestEvaluationEndpoints(t *testing.T) {
	e, store := newTestAPI(t)
	seedInterview(t, store, "iv-1")
	seg := seedSegment(t, store, "iv-1", "nightmares most nights", 0.9)

	rec := doJSON(t, e, http.MethodPost, "/api/v1/evaluations/datasets", models.EvaluationDataset{
		DatasetID: "ds-1",
		Name:      "Smoke",
		TestQueries: []models.TestQuery{{
			QueryID:            "q1",
			QueryText:          "nightmares",
			QueryEmbedding:     queryEmbedding(),
			RelevantSegmentIDs: []string{seg.SegmentID},
		}},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, e, http.MethodGet, "/api/v1/evaluations/datasets/ds-1", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, e, http.MethodPost, "/api/v1/evaluations/datasets/ds-1/run", models.EvaluationConfig{})
	require.Equal(t, http.StatusOK, rec.Code)
	var result models.EvaluationResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, 1.0, result.OverallMetrics.MRR)

	rec = doJSON(t, e, http.MethodGet, "/api/v1/evaluations/datasets/ds-1/results", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, e, http.MethodPost, "/api/v1/evaluations/datasets/missing/run", models.EvaluationConfig{})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHTTPErrorMapping(t *testing.T) {
	cases := []struct {
		err  error
		code int
	}{
		{&models.ValidationError{Field: "text", Reason: "empty"}, http.StatusUnprocessableEntity},
		{&models.InvalidQueryError{Reason: "bad"}, http.StatusBadRequest},
		{models.ErrNotFound, http.StatusNotFound},
		{models.ErrStorageUnavailable, http.StatusServiceUnavailable},
		{fmt.Errorf("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		he, ok := httpError(tc.err).(*echo.HTTPError)
		require.True(t, ok)
		assert.Equal(t, tc.code, he.Code)
	}
}
