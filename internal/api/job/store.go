// Package job tracks asynchronous backtest runs started over the API.
package job

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/newthinker/strategylab/internal/core"
)

// Status represents job status.
type Status string

const (
	StatusPending  Status = "pending"
	StatusRunning  Status = "running"
	StatusComplete Status = "complete"
	StatusFailed   Status = "failed"
)

// Done reports whether the job has finished, successfully or not.
func (s Status) Done() bool {
	return s == StatusComplete || s == StatusFailed
}

// Job represents an async job.
type Job struct {
	ID        string      `json:"id"`
	Type      string      `json:"type"`
	Status    Status      `json:"status"`
	Progress  int         `json:"progress"`
	Result    any         `json:"result,omitempty"`
	Error     *core.Error `json:"error,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// Store keeps jobs in memory. When full, the oldest job is evicted.
// Finished jobs older than the TTL are dropped on the next Create.
type Store struct {
	mu      sync.RWMutex
	jobs    map[string]*Job
	order   []string // insertion order, oldest first
	maxSize int
	ttl     time.Duration
	now     func() time.Time
}

// NewStore creates a new job store. A ttl of zero keeps finished jobs until
// they are evicted by size.
func NewStore(maxSize int, ttl time.Duration) *Store {
	if maxSize < 1 {
		maxSize = 1
	}
	return &Store{
		jobs:    make(map[string]*Job),
		order:   make([]string, 0, maxSize),
		maxSize: maxSize,
		ttl:     ttl,
		now:     time.Now,
	}
}

// Create registers a pending job and returns a copy of it.
func (s *Store) Create(jobType string) Job {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.prune(now)

	for len(s.jobs) >= s.maxSize && len(s.order) > 0 {
		delete(s.jobs, s.order[0])
		s.order = s.order[1:]
	}

	j := &Job{
		ID:        uuid.NewString(),
		Type:      jobType,
		Status:    StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.jobs[j.ID] = j
	s.order = append(s.order, j.ID)
	return *j
}

// prune drops finished jobs whose last update is older than the TTL.
func (s *Store) prune(now time.Time) {
	if s.ttl <= 0 {
		return
	}
	kept := s.order[:0]
	for _, id := range s.order {
		j := s.jobs[id]
		if j.Status.Done() && now.Sub(j.UpdatedAt) > s.ttl {
			delete(s.jobs, id)
			continue
		}
		kept = append(kept, id)
	}
	s.order = kept
}

// Get returns a copy of the job.
func (s *Store) Get(id string) (Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	j, ok := s.jobs[id]
	if !ok {
		return Job{}, core.WrapError(core.ErrJobNotFound, nil)
	}
	return *j, nil
}

// Update modifies a job in place under the store lock.
func (s *Store) Update(id string, fn func(*Job)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	j, ok := s.jobs[id]
	if !ok {
		return core.WrapError(core.ErrJobNotFound, nil)
	}
	fn(j)
	j.UpdatedAt = s.now()
	return nil
}

// List returns all jobs, oldest first.
func (s *Store) List() []Job {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Job, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, *s.jobs[id])
	}
	return out
}

// Active counts jobs of the given type that have not finished.
func (s *Store) Active(jobType string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, j := range s.jobs {
		if j.Type == jobType && !j.Status.Done() {
			n++
		}
	}
	return n
}
