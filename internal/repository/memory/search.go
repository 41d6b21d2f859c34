package memory

import (
	"context"
	"math"
	"sort"

	"github.com/interview-retrieval-api/internal/models"
	"github.com/interview-retrieval-api/internal/repository"
)

// ctxCheckInterval bounds how many candidates are scored between
// cancellation checks.
const ctxCheckInterval = 512

// SearchSimilar scores the filtered candidate set by cosine similarity.
// Segments without an embedding are skipped. Results are ordered by
// similarity descending, then creation time, then segment ID.
func (s *Store) SearchSimilar(ctx context.Context, q repository.SimilarityQuery) ([]repository.ScoredSegment, error) {
	if len(q.Embedding) != models.EmbeddingDimensions {
		return nil, &models.InvalidQueryError{Reason: "query embedding has wrong dimensionality"}
	}
	queryNorm := l2Norm(q.Embedding)
	if queryNorm == 0 {
		return nil, &models.InvalidQueryError{Reason: "query embedding has zero norm"}
	}

	candidates := s.snapshot(q.Filter)

	results := make([]repository.ScoredSegment, 0, len(candidates))
	for i, rec := range candidates {
		if i%ctxCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		if rec.norm == 0 {
			continue
		}
		sim := dot(rec.seg.Embedding, q.Embedding) / (rec.norm * queryNorm)
		if sim > q.Threshold {
			results = append(results, repository.ScoredSegment{Segment: rec.seg, Score: sim})
		}
	}

	sortScored(results)
	if q.Limit > 0 && len(results) > q.Limit {
		results = results[:q.Limit]
	}
	return results, nil
}

// SearchKeywords ranks the filtered candidate set by a TF-IDF score over the
// tokenized text. Segments matching no query term are excluded. Inverse
// document frequencies are computed over the candidate set, so the score of
// a segment is deterministic for a fixed corpus, filter and query.
func (s *Store) SearchKeywords(ctx context.Context, queryText string, filter repository.SegmentFilter) ([]repository.ScoredSegment, error) {
	terms := Tokenize(queryText)
	if len(terms) == 0 {
		return []repository.ScoredSegment{}, nil
	}

	candidates := s.snapshot(filter)

	// Document frequency per query term.
	df := make(map[string]int, len(terms))
	for _, rec := range candidates {
		for _, t := range terms {
			if rec.terms[t] > 0 {
				df[t]++
			}
		}
	}

	total := float64(len(candidates))
	results := make([]repository.ScoredSegment, 0, len(candidates))
	for i, rec := range candidates {
		if i%ctxCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		docLen := 0
		for _, tf := range rec.terms {
			docLen += tf
		}
		if docLen == 0 {
			continue
		}
		score := 0.0
		for _, t := range terms {
			tf := rec.terms[t]
			if tf == 0 {
				continue
			}
			idf := math.Log(1 + total/float64(1+df[t]))
			score += float64(tf) / float64(docLen) * idf
		}
		if score > 0 {
			results = append(results, repository.ScoredSegment{Segment: rec.seg, Score: score})
		}
	}

	sortScored(results)
	return results, nil
}

// snapshot collects candidate records under the read lock. Records are
// immutable once stored, so scoring can proceed without the lock.
func (s *Store) snapshot(filter repository.SegmentFilter) []*segmentRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*segmentRecord
	if filter.InterviewID != "" {
		ids := s.byInterview[filter.InterviewID]
		out = make([]*segmentRecord, 0, len(ids))
		for _, id := range ids {
			rec := s.segments[id]
			if filter.SpeakerRole != nil && rec.seg.SpeakerRole != *filter.SpeakerRole {
				continue
			}
			out = append(out, rec)
		}
		return out
	}

	out = make([]*segmentRecord, 0, len(s.segments))
	for _, rec := range s.segments {
		if filter.SpeakerRole != nil && rec.seg.SpeakerRole != *filter.SpeakerRole {
			continue
		}
		out = append(out, rec)
	}
	return out
}

// sortScored orders hits by score descending, breaking ties by creation
// time then segment ID for determinism.
func sortScored(results []repository.ScoredSegment) {
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		if !results[i].Segment.CreatedAt.Equal(results[j].Segment.CreatedAt) {
			return results[i].Segment.CreatedAt.Before(results[j].Segment.CreatedAt)
		}
		return results[i].Segment.SegmentID < results[j].Segment.SegmentID
	})
}

func dot(a, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}

func l2Norm(v []float32) float64 {
	if len(v) == 0 {
		return 0
	}
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}
