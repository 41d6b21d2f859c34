package models

// Default search parameters, matching the stored search function defaults.
const (
	DefaultMatchThreshold = 0.3
	DefaultMatchCount     = 10
	DefaultSemanticWeight = 0.7
	DefaultKeywordWeight  = 0.3
)

// SemanticSearchRequest is the request for pure vector search
type SemanticSearchRequest struct {
	QueryEmbedding    []float32    `json:"query_embedding"`
	MatchThreshold    *float64     `json:"match_threshold,omitempty"`
	MatchCount        int          `json:"match_count"`
	FilterInterviewID string       `json:"filter_interview_id,omitempty"`
	FilterSpeakerRole *SpeakerRole `json:"filter_speaker_role,omitempty"`
}

// Threshold returns the effective match threshold
func (r *SemanticSearchRequest) Threshold() float64 {
	if r.MatchThreshold == nil {
		return DefaultMatchThreshold
	}
	return *r.MatchThreshold
}

// SemanticMatch is one semantic search result
type SemanticMatch struct {
	SegmentID   string      `json:"segment_id"`
	InterviewID string      `json:"interview_id"`
	SpeakerRole SpeakerRole `json:"speaker_role"`
	StartTime   float64     `json:"start_time"`
	EndTime     float64     `json:"end_time"`
	Text        string      `json:"text"`
	Similarity  float64     `json:"similarity"`
}

// SemanticSearchResponse is the response for semantic search
type SemanticSearchResponse struct {
	Results []SemanticMatch `json:"results"`
}

// HybridSearchRequest is the request for fused vector + keyword search.
// At least one of QueryEmbedding and QueryText must be populated.
type HybridSearchRequest struct {
	QueryEmbedding    []float32    `json:"query_embedding,omitempty"`
	QueryText         string       `json:"query_text,omitempty"`
	SemanticWeight    *float64     `json:"semantic_weight,omitempty"`
	KeywordWeight     *float64     `json:"keyword_weight,omitempty"`
	MatchCount        int          `json:"match_count"`
	FilterInterviewID string       `json:"filter_interview_id,omitempty"`
	FilterSpeakerRole *SpeakerRole `json:"filter_speaker_role,omitempty"`
}

// Weights returns the effective semantic and keyword weights.
// The weights are not normalized; callers tune absolute magnitudes.
func (r *HybridSearchRequest) Weights() (semantic, keyword float64) {
	semantic, keyword = DefaultSemanticWeight, DefaultKeywordWeight
	if r.SemanticWeight != nil {
		semantic = *r.SemanticWeight
	}
	if r.KeywordWeight != nil {
		keyword = *r.KeywordWeight
	}
	return semantic, keyword
}

// HybridMatch is one hybrid search result with its component scores
type HybridMatch struct {
	SegmentID     string      `json:"segment_id"`
	InterviewID   string      `json:"interview_id"`
	SpeakerRole   SpeakerRole `json:"speaker_role"`
	StartTime     float64     `json:"start_time"`
	EndTime       float64     `json:"end_time"`
	Text          string      `json:"text"`
	SemanticScore float64     `json:"semantic_score"`
	KeywordScore  float64     `json:"keyword_score"`
	CombinedScore float64     `json:"combined_score"`
}

// HybridSearchResponse is the response for hybrid search
type HybridSearchResponse struct {
	Results []HybridMatch `json:"results"`
}

// KeywordSearchRequest is the request for pure lexical search
type KeywordSearchRequest struct {
	QueryText         string       `json:"query_text"`
	MatchCount        int          `json:"match_count"`
	FilterInterviewID string       `json:"filter_interview_id,omitempty"`
	FilterSpeakerRole *SpeakerRole `json:"filter_speaker_role,omitempty"`
}

// KeywordMatch is one lexical search result
type KeywordMatch struct {
	SegmentID    string      `json:"segment_id"`
	InterviewID  string      `json:"interview_id"`
	SpeakerRole  SpeakerRole `json:"speaker_role"`
	StartTime    float64     `json:"start_time"`
	EndTime      float64     `json:"end_time"`
	Text         string      `json:"text"`
	KeywordScore float64     `json:"keyword_score"`
}

// KeywordSearchResponse is the response for keyword search
type KeywordSearchResponse struct {
	Results []KeywordMatch `json:"results"`
}
