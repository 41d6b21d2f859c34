package models

import "time"

// TestQuery is one query in an evaluation dataset, with the segment IDs a
// correct retrieval should surface.
type TestQuery struct {
	QueryID            string       `json:"query_id"`
	QueryText          string       `json:"query_text"`
	QueryEmbedding     []float32    `json:"query_embedding,omitempty"`
	RelevantSegmentIDs []string     `json:"relevant_segment_ids"`
	FilterInterviewID  string       `json:"filter_interview_id,omitempty"`
	FilterSpeakerRole  *SpeakerRole `json:"filter_speaker_role,omitempty"`
}

// EvaluationDataset is a named set of test queries
type EvaluationDataset struct {
	DatasetID   string      `json:"dataset_id" db:"dataset_id"`
	Name        string      `json:"name" db:"name"`
	Description string      `json:"description,omitempty" db:"description"`
	CreatedAt   time.Time   `json:"created_at" db:"created_at"`
	TestQueries []TestQuery `json:"test_queries"`
}

// Validate checks dataset fields before storage
func (d *EvaluationDataset) Validate() error {
	if d.DatasetID == "" {
		return &ValidationError{Field: "dataset_id", Reason: "must not be empty"}
	}
	if d.Name == "" {
		return &ValidationError{Field: "name", Reason: "must not be empty"}
	}
	if len(d.TestQueries) == 0 {
		return &ValidationError{Field: "test_queries", Reason: "must not be empty"}
	}
	return nil
}

// QueryMetrics are retrieval quality metrics for one query or one aggregate
type QueryMetrics struct {
	PrecisionAtK float64 `json:"precision_at_k"`
	RecallAtK    float64 `json:"recall_at_k"`
	MRR          float64 `json:"mrr"`
}

// PerQueryResult records the outcome of one evaluation query
type PerQueryResult struct {
	QueryID             string       `json:"query_id"`
	Metrics             QueryMetrics `json:"metrics"`
	RetrievedSegmentIDs []string     `json:"retrieved_segment_ids"`
}

// EvaluationConfig captures the retrieval parameters an evaluation ran with
type EvaluationConfig struct {
	MatchCount     int     `json:"match_count"`
	SemanticWeight float64 `json:"semantic_weight"`
	KeywordWeight  float64 `json:"keyword_weight"`
}

// EvaluationResult records the metrics produced by running a dataset
// against the retrieval core.
type EvaluationResult struct {
	EvaluationID    string                       `json:"evaluation_id" db:"evaluation_id"`
	DatasetID       string                       `json:"dataset_id" db:"dataset_id"`
	Timestamp       time.Time                    `json:"timestamp" db:"timestamp"`
	OverallMetrics  QueryMetrics                 `json:"overall_metrics"`
	SpeakerMetrics  map[SpeakerRole]QueryMetrics `json:"speaker_metrics,omitempty"`
	PerQueryResults []PerQueryResult             `json:"per_query_results"`
	Config          EvaluationConfig             `json:"config"`
}
