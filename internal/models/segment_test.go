package models

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validSegment() Segment {
	return Segment{
		InterviewID:   "iv-1",
		SpeakerRole:   SpeakerPatient,
		StartTime:     1.5,
		EndTime:       4.2,
		Text:          "I have not been sleeping well",
		IngestionMode: IngestionOffline,
	}
}

func TestSegmentValidate(t *testing.T) {
	seg := validSegment()
	require.NoError(t, seg.Validate())
}

func TestSegmentValidateRejections(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Segment)
		field  string
	}{
		{"missing interview", func(s *Segment) { s.InterviewID = "" }, "interview_id"},
		{"empty text", func(s *Segment) { s.Text = "" }, "text"},
		{"zero duration", func(s *Segment) { s.EndTime = s.StartTime }, "end_time"},
		{"inverted times", func(s *Segment) { s.StartTime, s.EndTime = s.EndTime, s.StartTime }, "end_time"},
		{"bad role", func(s *Segment) { s.SpeakerRole = "THERAPIST" }, "speaker_role"},
		{"bad mode", func(s *Segment) { s.IngestionMode = "STREAMING" }, "ingestion_mode"},
		{"short embedding", func(s *Segment) { s.Embedding = make([]float32, 3) }, "embedding"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			seg := validSegment()
			tc.mutate(&seg)
			err := seg.Validate()
			var ve *ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tc.field, ve.Field)
		})
	}
}

func TestSegmentEmbeddingOptional(t *testing.T) {
	seg := validSegment()
	assert.False(t, seg.HasEmbedding())
	require.NoError(t, seg.Validate())

	seg.Embedding = make([]float32, EmbeddingDimensions)
	assert.True(t, seg.HasEmbedding())
	require.NoError(t, seg.Validate())
}

func TestInterviewValidate(t *testing.T) {
	iv := Interview{InterviewID: "iv-1", IngestionMode: IngestionLive}
	require.NoError(t, iv.Validate())

	iv.InterviewID = ""
	assert.True(t, IsValidation(iv.Validate()))
}

func TestErrorHelpers(t *testing.T) {
	wrapped := fmt.Errorf("put: %w", &ValidationError{Field: "text", Reason: "empty"})
	assert.True(t, IsValidation(wrapped))
	assert.False(t, IsInvalidQuery(wrapped))

	assert.True(t, IsInvalidQuery(fmt.Errorf("search: %w", &InvalidQueryError{Reason: "no terms"})))
	assert.False(t, IsValidation(fmt.Errorf("plain")))
}

func TestRequestDefaults(t *testing.T) {
	var sem SemanticSearchRequest
	assert.Equal(t, DefaultMatchThreshold, sem.Threshold())

	zero := 0.0
	sem.MatchThreshold = &zero
	assert.Equal(t, 0.0, sem.Threshold())

	var hyb HybridSearchRequest
	s, k := hyb.Weights()
	assert.Equal(t, DefaultSemanticWeight, s)
	assert.Equal(t, DefaultKeywordWeight, k)

	one := 1.0
	hyb.KeywordWeight = &one
	s, k = hyb.Weights()
	assert.Equal(t, DefaultSemanticWeight, s)
	assert.Equal(t, 1.0, k)
}
