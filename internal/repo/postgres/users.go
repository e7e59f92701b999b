package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/geocoder89/postline/internal/domain/user"
	"github.com/geocoder89/postline/internal/observability"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrUserNotFound     = errors.New("user not found")
	ErrEmailAlreadyUsed = errors.New("email already in use")
)

func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError

	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return true
	}
	return false
}

type UsersRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewUsersRepo(pool *pgxpool.Pool, prom *observability.Prom) *UsersRepo {
	return &UsersRepo{pool: pool, prom: prom}
}

func (r *UsersRepo) observe(op string, fn func() error) error {
	if r.prom != nil {
		return r.prom.ObserveDB(op, fn)
	}
	return fn()
}

func (r *UsersRepo) GetByEmail(ctx context.Context, email string) (user.User, error) {
	var u user.User

	err := r.observe("users.get_by_email", func() error {
		return r.pool.QueryRow(
			ctx,
			`SELECT id, name, email, password_hash, avatar, created_at, updated_at
			 FROM users
			 WHERE email = $1`,
			email,
		).Scan(
			&u.ID,
			&u.Name,
			&u.Email,
			&u.PasswordHash,
			&u.Avatar,
			&u.CreatedAt,
			&u.UpdatedAt,
		)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return user.User{}, ErrUserNotFound
		}

		return user.User{}, err
	}
	return u, nil
}

func (r *UsersRepo) GetByID(ctx context.Context, id string) (user.User, error) {
	var u user.User

	err := r.observe("users.get_by_id", func() error {
		return r.pool.QueryRow(
			ctx,
			`SELECT id, name, email, password_hash, avatar, created_at, updated_at
			 FROM users
			 WHERE id = $1`,
			id,
		).Scan(
			&u.ID,
			&u.Name,
			&u.Email,
			&u.PasswordHash,
			&u.Avatar,
			&u.CreatedAt,
			&u.UpdatedAt,
		)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return user.User{}, ErrUserNotFound
		}

		return user.User{}, err
	}
	return u, nil
}

// Create inserts a new user. The unique index on email turns a concurrent
// duplicate registration into ErrEmailAlreadyUsed instead of a second row.
func (r *UsersRepo) Create(ctx context.Context, name, email, passwordHash, avatar string) (user.User, error) {
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

	err := r.observe("users.create", func() error {
		_, err := r.pool.Exec(ctx,
			`INSERT INTO users (id, name, email, password_hash, avatar, created_at, updated_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			u.ID, u.Name, u.Email, u.PasswordHash, u.Avatar, u.CreatedAt, u.UpdatedAt,
		)
		return err
	})

	if err != nil {
		if IsUniqueViolation(err) {
			return user.User{}, ErrEmailAlreadyUsed
		}

		return user.User{}, err
	}

	return u, nil
}
