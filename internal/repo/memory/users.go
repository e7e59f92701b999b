package memory

import (
	"context"
	"sync"
	"time"

	"github.com/geocoder89/postline/internal/domain/user"
	"github.com/geocoder89/postline/internal/repo/postgres"
	"github.com/google/uuid"
)

// UsersRepo is a map-backed stand-in for the postgres repo, sharing its
// sentinel errors so handlers behave identically against either.
type UsersRepo struct {
	mu      sync.RWMutex
	byID    map[string]user.User
	byEmail map[string]string // email -> id
}

func NewUsersRepo() *UsersRepo {
	return &UsersRepo{
		byID:    make(map[string]user.User),
		byEmail: make(map[string]string),
	}
}

func (r *UsersRepo) GetByEmail(ctx context.Context, email string) (user.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byEmail[email]

	if !ok {
		return user.User{}, postgres.ErrUserNotFound
	}

	return r.byID[id], nil
}

func (r *UsersRepo) GetByID(ctx context.Context, id string) (user.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.byID[id]

	if !ok {
		return user.User{}, postgres.ErrUserNotFound
	}

	return u, nil
}

func (r *UsersRepo) Create(ctx context.Context, name, email, passwordHash, avatar string) (user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byEmail[email]; exists {
		return user.User{}, postgres.ErrEmailAlreadyUsed
	}

	now := time.Now().UTC()

	u := user.User{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        email,
		PasswordHash: passwordHash,
		Avatar:       avatar,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	r.byID[u.ID] = u
	r.byEmail[u.Email] = u.ID

	return u, nil
}
