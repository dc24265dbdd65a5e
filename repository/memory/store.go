// Package memory keeps every repository in process memory. It backs STORAGE_DRIVER=memory
// and the test suites; data does not survive a restart.
package memory

import (
	"sync"
	"time"

	"golang.org/x/oauth2"

	"github.com/fastygo/planner/domain"
)

// Store holds all entities behind a single lock.
type Store struct {
	mu       sync.RWMutex
	users    map[string]domain.User
	tasks    map[string]domain.Task
	events   map[string][]domain.TaskEvent // taskID -> events
	sessions map[string]domain.Session
	states   map[string]time.Time // state -> expiry
	tokens   map[string]oauth2.Token

	now func() time.Time
}

func New() *Store {
	return &Store{
		users:    make(map[string]domain.User),
		tasks:    make(map[string]domain.Task),
		events:   make(map[string][]domain.TaskEvent),
		sessions: make(map[string]domain.Session),
		states:   make(map[string]time.Time),
		tokens:   make(map[string]oauth2.Token),
		now:      time.Now,
	}
}

// TaskCount returns the number of stored tasks.
func (s *Store) TaskCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tasks)
}
