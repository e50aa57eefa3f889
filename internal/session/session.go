// Package session keeps uploaded datasets in memory for the life of a user session.
package session

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/KaramelBytes/tabviz/internal/dataset"
	"github.com/KaramelBytes/tabviz/internal/pipeline"
)

var ErrNotFound = errors.New("session not found")

// Session owns one loaded dataset. The dataset is never modified; each
// interaction rebuilds filtered and grouped data from it.
type Session struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Rows      int       `json:"rows"`
	Columns   []string  `json:"columns"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	mu   sync.Mutex
	data *dataset.Dataset
	last pipeline.Selection
}

// Dataset returns the loaded dataset.
func (s *Session) Dataset() *dataset.Dataset { return s.data }

// Run executes the pipeline for sel, one interaction at a time.
func (s *Session) Run(sel pipeline.Selection) (*pipeline.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	res, err := pipeline.Run(s.data, sel)
	if err != nil {
		return nil, err
	}
	s.last = res.Selection
	s.UpdatedAt = time.Now()
	return res, nil
}

// LastSelection returns the selection of the most recent successful run.
func (s *Session) LastSelection() pipeline.Selection {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

func (s *Session) touched() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.UpdatedAt
}

// Store is an in-memory, concurrency-safe set of sessions.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	now      func() time.Time
}

func NewStore() *Store {
	return &Store{sessions: make(map[string]*Session), now: time.Now}
}

// Create registers a new session for ds.
func (st *Store) Create(ds *dataset.Dataset) *Session {
	now := st.now()
	s := &Session{
		ID:        uuid.NewString(),
		Name:      ds.Name,
		Rows:      ds.Len(),
		Columns:   ds.Names(),
		CreatedAt: now,
		UpdatedAt: now,
		data:      ds,
	}
	st.mu.Lock()
	st.sessions[s.ID] = s
	st.mu.Unlock()
	return s
}

// Get returns the session with the given id or ErrNotFound.
func (st *Store) Get(id string) (*Session, error) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	s, ok := st.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	return s, nil
}

// Delete discards a session.
func (st *Store) Delete(id string) error {
	st.mu.Lock()
	defer st.mu.Unlock()
	if _, ok := st.sessions[id]; !ok {
		return ErrNotFound
	}
	delete(st.sessions, id)
	return nil
}

// List returns all sessions, most recently created first.
func (st *Store) List() []*Session {
	st.mu.RLock()
	out := make([]*Session, 0, len(st.sessions))
	for _, s := range st.sessions {
		out = append(out, s)
	}
	st.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

// Len returns the number of live sessions.
func (st *Store) Len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.sessions)
}

// Prune drops sessions idle for longer than maxIdle and returns how many went.
func (st *Store) Prune(maxIdle time.Duration) int {
	cutoff := st.now().Add(-maxIdle)
	st.mu.Lock()
	defer st.mu.Unlock()
	n := 0
	for id, s := range st.sessions {
		if s.touched().Before(cutoff) {
			delete(st.sessions, id)
			n++
		}
	}
	return n
}
