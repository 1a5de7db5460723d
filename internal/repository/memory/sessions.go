package memory

import (
	"context"

	"github.com/spec-kit/facility-tickets/internal/domain"
	"github.com/spec-kit/facility-tickets/internal/repository"
)

type sessionRepo struct{ s *Store }

func (r sessionRepo) Save(_ context.Context, session *domain.Session) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if !session.ExpiresAt.After(r.s.now()) {
		return repository.ErrSessionNotFound
	}
	r.s.sessions[session.ID] = *session
	return nil
}

func (r sessionRepo) Get(_ context.Context, id string) (*domain.Session, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	session, ok := r.s.sessions[id]
	if !ok {
		return nil, repository.ErrSessionNotFound
	}
	if !session.ExpiresAt.After(r.s.now()) {
		delete(r.s.sessions, id)
		return nil, repository.ErrSessionNotFound
	}
	return &session, nil
}

func (r sessionRepo) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	delete(r.s.sessions, id)
	return nil
}
