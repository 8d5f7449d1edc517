package handlers

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hfmatch/internal/pipeline"
)

// Job kinds.
const (
	JobMerge   = "merge"
	JobCorrect = "correct"
)

// Job is one finished run kept in memory for stats and download.
// Exactly one of Merge and Correction is set, per Kind.
type Job struct {
	ID         string
	Kind       string
	CreatedAt  time.Time
	Merge      *pipeline.MergeRun
	Correction *pipeline.CorrectionRun
}

// JobStore holds finished runs keyed by run ID for the life of the
// process.
type JobStore struct {
	mu   sync.RWMutex
	jobs map[string]*Job
}

// NewJobStore creates an empty store.
func NewJobStore() *JobStore {
	return &JobStore{jobs: make(map[string]*Job)}
}

// Add assigns the job a fresh run ID, records it, and returns the ID.
func (s *JobStore) Add(job *Job) string {
	job.ID = uuid.NewString()
	job.CreatedAt = time.Now()

	s.mu.Lock()
	s.jobs[job.ID] = job
	s.mu.Unlock()
	return job.ID
}

// Get looks a run up by ID.
func (s *JobStore) Get(id string) (*Job, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	job, ok := s.jobs[id]
	return job, ok
}
