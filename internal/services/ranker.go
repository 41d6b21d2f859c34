package services

import (
	"sort"

	"github.com/interview-retrieval-api/internal/models"
	"github.com/interview-retrieval-api/internal/repository"
)

// fusedHit pairs the component scores with the segment while sorting,
// so creation-order tie-breaks stay available.
type fusedHit struct {
	seg      models.Segment
	semantic float64
	keyword  float64
	combined float64
}

// fuseScores merges the two index result sets by segment identity and
// combines them as semanticWeight*semantic + keywordWeight*keyword.
// A segment absent from one set contributes 0.0 for that component. Output
// is ordered by combined score descending, then semantic score descending,
// then creation order. Weights are applied as given, without normalization.
func fuseScores(semanticHits, keywordHits []repository.ScoredSegment, semanticWeight, keywordWeight float64) []models.HybridMatch {
	byID := make(map[string]*fusedHit, len(semanticHits)+len(keywordHits))
	order := make([]string, 0, len(semanticHits)+len(keywordHits))

	for _, h := range semanticHits {
		byID[h.Segment.SegmentID] = &fusedHit{seg: h.Segment, semantic: h.Score}
		order = append(order, h.Segment.SegmentID)
	}
	for _, h := range keywordHits {
		if hit, ok := byID[h.Segment.SegmentID]; ok {
			hit.keyword = h.Score
			continue
		}
		byID[h.Segment.SegmentID] = &fusedHit{seg: h.Segment, keyword: h.Score}
		order = append(order, h.Segment.SegmentID)
	}

	hits := make([]*fusedHit, 0, len(order))
	for _, id := range order {
		hit := byID[id]
		hit.combined = semanticWeight*hit.semantic + keywordWeight*hit.keyword
		hits = append(hits, hit)
	}

	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].combined != hits[j].combined {
			return hits[i].combined > hits[j].combined
		}
		if hits[i].semantic != hits[j].semantic {
			return hits[i].semantic > hits[j].semantic
		}
		if !hits[i].seg.CreatedAt.Equal(hits[j].seg.CreatedAt) {
			return hits[i].seg.CreatedAt.Before(hits[j].seg.CreatedAt)
		}
		return hits[i].seg.SegmentID < hits[j].seg.SegmentID
	})

	results := make([]models.HybridMatch, len(hits))
	for i, hit := range hits {
		results[i] = models.HybridMatch{
			SegmentID:     hit.seg.SegmentID,
			InterviewID:   hit.seg.InterviewID,
			SpeakerRole:   hit.seg.SpeakerRole,
			StartTime:     hit.seg.StartTime,
			EndTime:       hit.seg.EndTime,
			Text:          hit.seg.Text,
			SemanticScore: hit.semantic,
			KeywordScore:  hit.keyword,
			CombinedScore: hit.combined,
		}
	}
	return results
}
