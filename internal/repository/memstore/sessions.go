package memstore

import (
	"context"
	"sync"
	"time"

	"github.com/nsvirk/staffportalapi/internal/models"
	"github.com/nsvirk/staffportalapi/internal/repository"
)

// Sessions is an in-memory SessionRepository
type Sessions struct {
	mu       sync.Mutex
	sessions map[string]models.SessionModel
}

func NewSessions() *Sessions {
	return &Sessions{sessions: map[string]models.SessionModel{}}
}

func (r *Sessions) Replace(_ context.Context, session *models.SessionModel) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var removed []string
	for id, s := range r.sessions {
		if s.UserID == session.UserID {
			removed = append(removed, id)
			delete(r.sessions, id)
		}
	}
	if _, exists := r.sessions[session.ID]; exists {
		return nil, repository.ErrDuplicateEntry
	}
	session.CreatedAt = time.Now()
	r.sessions[session.ID] = *session
	return removed, nil
}

func (r *Sessions) GetByID(_ context.Context, id string) (*models.SessionModel, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &s, nil
}

func (r *Sessions) Delete(_ context.Context, id string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[id]; !ok {
		return 0, nil
	}
	delete(r.sessions, id)
	return 1, nil
}

func (r *Sessions) DeleteExpired(_ context.Context, before time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for id, s := range r.sessions {
		if s.ExpiresAt.Before(before) {
			delete(r.sessions, id)
			n++
		}
	}
	return n, nil
}

// Put stores a session as-is, for seeding tests
func (r *Sessions) Put(session models.SessionModel) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[session.ID] = session
}

// Count returns the number of stored sessions
func (r *Sessions) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}
