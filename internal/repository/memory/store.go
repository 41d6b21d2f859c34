// Package memory provides an embedded, in-process implementation of the
// segment store and both search indexes. It backs tests and DB-less runs;
// the postgres package is the durable production backend.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/interview-retrieval-api/internal/models"
	"github.com/interview-retrieval-api/internal/repository"
)

// Compile-time checks that Store satisfies the repository contracts.
var (
	_ repository.SegmentStore    = (*Store)(nil)
	_ repository.SimilarityIndex = (*Store)(nil)
	_ repository.LexicalIndex    = (*Store)(nil)
	_ repository.EvaluationStore = (*Store)(nil)
)

type segmentRecord struct {
	seg   models.Segment
	terms map[string]int // term frequencies of the tokenized text
	norm  float64        // L2 norm of the embedding, 0 when absent
}

// Store keeps all records behind one RWMutex. Every mutation holds the write
// lock for its full extent, so a single put, upsert, batch or cascade delete
// is atomic with respect to concurrent readers. Searches snapshot candidates
// under the read lock and score outside it.
type Store struct {
	mu          sync.RWMutex
	interviews  map[string]models.Interview
	segments    map[string]*segmentRecord
	byInterview map[string][]string // segment IDs per interview, insertion order

	datasets map[string]models.EvaluationDataset
	results  map[string][]models.EvaluationResult
}

// NewStore creates an empty in-memory store
func NewStore() *Store {
	return &Store{
		interviews:  make(map[string]models.Interview),
		segments:    make(map[string]*segmentRecord),
		byInterview: make(map[string][]string),
		datasets:    make(map[string]models.EvaluationDataset),
		results:     make(map[string][]models.EvaluationResult),
	}
}

// UpsertInterview creates or replaces an interview record
func (s *Store) UpsertInterview(ctx context.Context, iv models.Interview) (models.Interview, error) {
	if err := iv.Validate(); err != nil {
		return models.Interview{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if prev, ok := s.interviews[iv.InterviewID]; ok {
		iv.CreatedAt = prev.CreatedAt
	} else if iv.CreatedAt.IsZero() {
		iv.CreatedAt = time.Now().UTC()
	}
	s.interviews[iv.InterviewID] = iv
	return iv, nil
}

// Put validates and stores a single segment
func (s *Store) Put(ctx context.Context, seg models.Segment) (models.Segment, error) {
	if err := seg.Validate(); err != nil {
		return models.Segment{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.putLocked(seg)
}

// PutBatch stores segments all-or-nothing. Every element is validated before
// any is written; the whole batch applies inside one critical section, so
// readers and other writers see either none or all of it.
func (s *Store) PutBatch(ctx context.Context, segs []models.Segment) ([]models.Segment, error) {
	for i := range segs {
		if err := segs[i].Validate(); err != nil {
			return nil, err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range segs {
		if _, ok := s.interviews[segs[i].InterviewID]; !ok {
			return nil, interviewNotFound(segs[i].InterviewID)
		}
	}

	stored := make([]models.Segment, 0, len(segs))
	for i := range segs {
		out, err := s.putLocked(segs[i])
		if err != nil {
			return nil, err
		}
		stored = append(stored, out)
	}
	return stored, nil
}

// Upsert overwrites the segment with the same ID, or inserts a new one.
// SegmentID and CreatedAt are immutable across updates.
func (s *Store) Upsert(ctx context.Context, seg models.Segment) (models.Segment, error) {
	if err := seg.Validate(); err != nil {
		return models.Segment{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if seg.SegmentID != "" {
		if prev, ok := s.segments[seg.SegmentID]; ok {
			seg.CreatedAt = prev.seg.CreatedAt
			if _, ok := s.interviews[seg.InterviewID]; !ok {
				return models.Segment{}, interviewNotFound(seg.InterviewID)
			}
			if prev.seg.InterviewID != seg.InterviewID {
				s.removeFromInterview(prev.seg.InterviewID, seg.SegmentID)
				s.byInterview[seg.InterviewID] = append(s.byInterview[seg.InterviewID], seg.SegmentID)
			}
			s.segments[seg.SegmentID] = newRecord(seg)
			return seg, nil
		}
	}
	return s.putLocked(seg)
}

// GetByInterview returns segments ordered ascending by start_time
func (s *Store) GetByInterview(ctx context.Context, interviewID string, role *models.SpeakerRole) ([]models.Segment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := s.byInterview[interviewID]
	out := make([]models.Segment, 0, len(ids))
	for _, id := range ids {
		rec := s.segments[id]
		if role != nil && rec.seg.SpeakerRole != *role {
			continue
		}
		out = append(out, rec.seg)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].StartTime < out[j].StartTime
	})
	return out, nil
}

// DeleteInterview removes the interview and all its segments atomically
func (s *Store) DeleteInterview(ctx context.Context, interviewID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, found := s.interviews[interviewID]
	if !found {
		return false, nil
	}
	delete(s.interviews, interviewID)
	for _, id := range s.byInterview[interviewID] {
		delete(s.segments, id)
	}
	delete(s.byInterview, interviewID)
	return true, nil
}

// Stats returns exact counts at call time
func (s *Store) Stats(ctx context.Context) (models.Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return models.Stats{
		TotalInterviews: len(s.interviews),
		TotalSegments:   len(s.segments),
	}, nil
}

// putLocked inserts a segment; the caller holds the write lock.
func (s *Store) putLocked(seg models.Segment) (models.Segment, error) {
	if _, ok := s.interviews[seg.InterviewID]; !ok {
		return models.Segment{}, interviewNotFound(seg.InterviewID)
	}
	if seg.SegmentID == "" {
		seg.SegmentID = uuid.NewString()
	}
	if seg.CreatedAt.IsZero() {
		seg.CreatedAt = time.Now().UTC()
	}
	if _, exists := s.segments[seg.SegmentID]; !exists {
		s.byInterview[seg.InterviewID] = append(s.byInterview[seg.InterviewID], seg.SegmentID)
	}
	s.segments[seg.SegmentID] = newRecord(seg)
	return seg, nil
}

func (s *Store) removeFromInterview(interviewID, segmentID string) {
	ids := s.byInterview[interviewID]
	for i, id := range ids {
		if id == segmentID {
			s.byInterview[interviewID] = append(ids[:i], ids[i+1:]...)
			return
		}
	}
}

func newRecord(seg models.Segment) *segmentRecord {
	return &segmentRecord{
		seg:   seg,
		terms: termFrequencies(seg.Text),
		norm:  l2Norm(seg.Embedding),
	}
}

func interviewNotFound(id string) error {
	return &notFoundError{kind: "interview", id: id}
}

type notFoundError struct {
	kind, id string
}

func (e *notFoundError) Error() string {
	return e.kind + " " + e.id + ": " + models.ErrNotFound.Error()
}

func (e *notFoundError) Unwrap() error { return models.ErrNotFound }
