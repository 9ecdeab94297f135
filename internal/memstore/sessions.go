package memstore

import (
	"context"

	"github.com/go-petr/pet-ledger/internal/domain"
	"github.com/google/uuid"
)

// SessionRepo is the in-memory session store.
type SessionRepo struct {
	s *Store
}

// Create creates the session and then returns it.
func (r *SessionRepo) Create(ctx context.Context, arg domain.CreateSessionParams) (domain.Session, error) {
	if err := checkCtx(ctx); err != nil {
		return domain.Session{}, err
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	sess := domain.Session{
		ID:           arg.ID,
		Subject:      arg.Subject,
		Role:         arg.Role,
		RefreshToken: arg.RefreshToken,
		UserAgent:    arg.UserAgent,
		ClientIP:     arg.ClientIP,
		ExpiresAt:    arg.ExpiresAt,
		CreatedAt:    r.s.now().UTC(),
	}

	r.s.sessions[sess.ID] = sess

	return sess, nil
}

// Get returns session with the given id.
func (r *SessionRepo) Get(ctx context.Context, id uuid.UUID) (domain.Session, error) {
	if err := checkCtx(ctx); err != nil {
		return domain.Session{}, err
	}

	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	sess, ok := r.s.sessions[id]
	if !ok {
		return domain.Session{}, domain.ErrSessionNotFound
	}

	return sess, nil
}

// Block marks the session as blocked and then returns it.
func (r *SessionRepo) Block(ctx context.Context, id uuid.UUID) (domain.Session, error) {
	if err := checkCtx(ctx); err != nil {
		return domain.Session{}, err
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	sess, ok := r.s.sessions[id]
	if !ok {
		return domain.Session{}, domain.ErrSessionNotFound
	}

	sess.IsBlocked = true
	r.s.sessions[id] = sess

	return sess, nil
}
