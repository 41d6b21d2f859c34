package models

import (
	"time"
)

// EmbeddingDimensions is the fixed dimensionality of segment embeddings.
const EmbeddingDimensions = 768

// SpeakerRole identifies who produced a transcript segment
type SpeakerRole string

const (
	SpeakerPatient   SpeakerRole = "PATIENT"
	SpeakerClinician SpeakerRole = "CLINICIAN"
	SpeakerUnknown   SpeakerRole = "UNKNOWN"
)

// Valid reports whether the role is one of the recognized values
func (r SpeakerRole) Valid() bool {
	switch r {
	case SpeakerPatient, SpeakerClinician, SpeakerUnknown:
		return true
	}
	return false
}

// IngestionMode describes how a segment or interview was produced
type IngestionMode string

const (
	IngestionOffline IngestionMode = "OFFLINE"
	IngestionLive    IngestionMode = "LIVE"
)

// Valid reports whether the mode is one of the recognized values
func (m IngestionMode) Valid() bool {
	return m == IngestionOffline || m == IngestionLive
}

// Segment is a timestamped snippet of transcribed speech within an interview
type Segment struct {
	SegmentID     string                 `json:"segment_id" db:"segment_id"`
	InterviewID   string                 `json:"interview_id" db:"interview_id"`
	SpeakerRole   SpeakerRole            `json:"speaker_role" db:"speaker_role"`
	StartTime     float64                `json:"start_time" db:"start_time"`
	EndTime       float64                `json:"end_time" db:"end_time"`
	Text          string                 `json:"text" db:"text"`
	Embedding     []float32              `json:"embedding,omitempty" db:"-"`
	Confidence    *float64               `json:"confidence,omitempty" db:"confidence"`
	IngestionMode IngestionMode          `json:"ingestion_mode" db:"ingestion_mode"`
	CreatedAt     time.Time              `json:"created_at" db:"created_at"`
	Metadata      map[string]interface{} `json:"metadata,omitempty" db:"-"`
}

// HasEmbedding reports whether the segment is eligible for semantic search
func (s *Segment) HasEmbedding() bool {
	return len(s.Embedding) > 0
}

// Validate checks the segment invariants enforced before any storage mutation.
// A missing embedding is allowed; a present one must have the right dimension.
func (s *Segment) Validate() error {
	if s.InterviewID == "" {
		return &ValidationError{Field: "interview_id", Reason: "must not be empty"}
	}
	if s.Text == "" {
		return &ValidationError{Field: "text", Reason: "must not be empty"}
	}
	if s.EndTime <= s.StartTime {
		return &ValidationError{Field: "end_time", Reason: "must be greater than start_time"}
	}
	if !s.SpeakerRole.Valid() {
		return &ValidationError{Field: "speaker_role", Reason: "unrecognized value: " + string(s.SpeakerRole)}
	}
	if !s.IngestionMode.Valid() {
		return &ValidationError{Field: "ingestion_mode", Reason: "unrecognized value: " + string(s.IngestionMode)}
	}
	if len(s.Embedding) > 0 && len(s.Embedding) != EmbeddingDimensions {
		return &ValidationError{Field: "embedding", Reason: "wrong dimensionality"}
	}
	return nil
}

// Interview is the parent entity for segments
type Interview struct {
	InterviewID      string                 `json:"interview_id" db:"interview_id"`
	Title            string                 `json:"title" db:"title"`
	Date             *time.Time             `json:"date,omitempty" db:"date"`
	DurationSeconds  *float64               `json:"duration_seconds,omitempty" db:"duration_seconds"`
	IngestionMode    IngestionMode          `json:"ingestion_mode" db:"ingestion_mode"`
	AudioPath        string                 `json:"audio_path,omitempty" db:"audio_path"`
	LivekitSessionID string                 `json:"livekit_session_id,omitempty" db:"livekit_session_id"`
	CreatedAt        time.Time              `json:"created_at" db:"created_at"`
	Metadata         map[string]interface{} `json:"metadata,omitempty" db:"-"`
}

// Validate checks interview fields before storage
func (iv *Interview) Validate() error {
	if iv.InterviewID == "" {
		return &ValidationError{Field: "interview_id", Reason: "must not be empty"}
	}
	if !iv.IngestionMode.Valid() {
		return &ValidationError{Field: "ingestion_mode", Reason: "unrecognized value: " + string(iv.IngestionMode)}
	}
	return nil
}

// Stats reports exact corpus counts at call time
type Stats struct {
	TotalInterviews int `json:"total_interviews"`
	TotalSegments   int `json:"total_segments"`
}
