// Package services holds the retrieval core: query validation and routing,
// hybrid score fusion, and the evaluation runner. Handlers and scripts are
// thin shells around this package.
package services

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/interview-retrieval-api/internal/models"
	"github.com/interview-retrieval-api/internal/repository"
)

// RetrievalService validates search requests, dispatches them to the
// similarity and lexical indexes, and fuses the results.
type RetrievalService struct {
	store      repository.SegmentStore
	similarity repository.SimilarityIndex
	lexical    repository.LexicalIndex
}

// NewRetrievalService creates a retrieval service over explicit store and
// index handles. The caller owns their lifecycle.
func NewRetrievalService(store repository.SegmentStore, similarity repository.SimilarityIndex, lexical repository.LexicalIndex) *RetrievalService {
	return &RetrievalService{
		store:      store,
		similarity: similarity,
		lexical:    lexical,
	}
}

// SemanticSearch performs pure vector search. Only segments with
// similarity strictly above the threshold are returned.
func (s *RetrievalService) SemanticSearch(ctx context.Context, req models.SemanticSearchRequest) (models.SemanticSearchResponse, error) {
	if err := validateEmbedding(req.QueryEmbedding, true); err != nil {
		return models.SemanticSearchResponse{}, err
	}
	count, err := effectiveCount(req.MatchCount)
	if err != nil {
		return models.SemanticSearchResponse{}, err
	}
	threshold := req.Threshold()
	if threshold < -1 || threshold > 1 {
		return models.SemanticSearchResponse{}, &models.InvalidQueryError{Reason: "match_threshold must be in [-1, 1]"}
	}

	hits, err := s.similarity.SearchSimilar(ctx, repository.SimilarityQuery{
		Embedding: req.QueryEmbedding,
		Threshold: threshold,
		Limit:     count,
		Filter:    filterFrom(req.FilterInterviewID, req.FilterSpeakerRole),
	})
	if err != nil {
		return models.SemanticSearchResponse{}, err
	}

	results := make([]models.SemanticMatch, len(hits))
	for i, h := range hits {
		results[i] = models.SemanticMatch{
			SegmentID:   h.Segment.SegmentID,
			InterviewID: h.Segment.InterviewID,
			SpeakerRole: h.Segment.SpeakerRole,
			StartTime:   h.Segment.StartTime,
			EndTime:     h.Segment.EndTime,
			Text:        h.Segment.Text,
			Similarity:  h.Score,
		}
	}
	return models.SemanticSearchResponse{Results: results}, nil
}

// KeywordSearch performs pure lexical search
func (s *RetrievalService) KeywordSearch(ctx context.Context, req models.KeywordSearchRequest) (models.KeywordSearchResponse, error) {
	if req.QueryText == "" {
		return models.KeywordSearchResponse{}, &models.InvalidQueryError{Reason: "query_text is required"}
	}
	count, err := effectiveCount(req.MatchCount)
	if err != nil {
		return models.KeywordSearchResponse{}, err
	}

	hits, err := s.lexical.SearchKeywords(ctx, req.QueryText, filterFrom(req.FilterInterviewID, req.FilterSpeakerRole))
	if err != nil {
		return models.KeywordSearchResponse{}, err
	}
	if len(hits) > count {
		hits = hits[:count]
	}

	results := make([]models.KeywordMatch, len(hits))
	for i, h := range hits {
		results[i] = models.KeywordMatch{
			SegmentID:    h.Segment.SegmentID,
			InterviewID:  h.Segment.InterviewID,
			SpeakerRole:  h.Segment.SpeakerRole,
			StartTime:    h.Segment.StartTime,
			EndTime:      h.Segment.EndTime,
			Text:         h.Segment.Text,
			KeywordScore: h.Score,
		}
	}
	return models.KeywordSearchResponse{Results: results}, nil
}

// HybridSearch runs both indexes over the full filtered candidate set and
// fuses the results by weighted score combination. The similarity index is
// queried without a threshold gate so keyword-only matches survive to
// fusion; the top-k cut happens after fusion only. The two index queries
// run concurrently and fail as a unit; on cancellation partial results are
// discarded.
func (s *RetrievalService) HybridSearch(ctx context.Context, req models.HybridSearchRequest) (models.HybridSearchResponse, error) {
	if len(req.QueryEmbedding) == 0 && req.QueryText == "" {
		return models.HybridSearchResponse{}, &models.InvalidQueryError{Reason: "at least one of query_embedding and query_text is required"}
	}
	if err := validateEmbedding(req.QueryEmbedding, false); err != nil {
		return models.HybridSearchResponse{}, err
	}
	count, err := effectiveCount(req.MatchCount)
	if err != nil {
		return models.HybridSearchResponse{}, err
	}
	semanticWeight, keywordWeight := req.Weights()
	if semanticWeight < 0 || keywordWeight < 0 {
		return models.HybridSearchResponse{}, &models.InvalidQueryError{Reason: "weights must be non-negative"}
	}

	filter := filterFrom(req.FilterInterviewID, req.FilterSpeakerRole)

	var semanticHits, keywordHits []repository.ScoredSegment
	g, gctx := errgroup.WithContext(ctx)
	if len(req.QueryEmbedding) > 0 {
		g.Go(func() error {
			var err error
			semanticHits, err = s.similarity.SearchSimilar(gctx, repository.SimilarityQuery{
				Embedding: req.QueryEmbedding,
				Threshold: -1, // no gate before fusion
				Limit:     0,
				Filter:    filter,
			})
			return err
		})
	}
	if req.QueryText != "" {
		g.Go(func() error {
			var err error
			keywordHits, err = s.lexical.SearchKeywords(gctx, req.QueryText, filter)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return models.HybridSearchResponse{}, err
	}

	fused := fuseScores(semanticHits, keywordHits, semanticWeight, keywordWeight)
	if len(fused) > count {
		fused = fused[:count]
	}
	return models.HybridSearchResponse{Results: fused}, nil
}

func filterFrom(interviewID string, role *models.SpeakerRole) repository.SegmentFilter {
	return repository.SegmentFilter{
		InterviewID: interviewID,
		SpeakerRole: role,
	}
}

// validateEmbedding checks dimensionality; required controls whether an
// absent embedding is an error.
func validateEmbedding(embedding []float32, required bool) error {
	if len(embedding) == 0 {
		if required {
			return &models.InvalidQueryError{Reason: "query_embedding is required"}
		}
		return nil
	}
	if len(embedding) != models.EmbeddingDimensions {
		return &models.InvalidQueryError{Reason: "query_embedding has wrong dimensionality"}
	}
	return nil
}

// effectiveCount applies the default match count and rejects negatives
func effectiveCount(matchCount int) (int, error) {
	if matchCount < 0 {
		return 0, &models.InvalidQueryError{Reason: "match_count must be positive"}
	}
	if matchCount == 0 {
		return models.DefaultMatchCount, nil
	}
	return matchCount, nil
}
