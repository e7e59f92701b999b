package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/geocoder89/postline/internal/domain/post"
	"github.com/geocoder89/postline/internal/observability"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PostsRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewPostsRepo(pool *pgxpool.Pool, prom *observability.Prom) *PostsRepo {
	return &PostsRepo{pool: pool, prom: prom}
}

func (r *PostsRepo) observe(op string, fn func() error) error {
	if r.prom != nil {
		return r.prom.ObserveDB(op, fn)
	}
	return fn()
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError

	if errors.As(err, &pgErr) && pgErr.Code == "23503" {
		return true
	}
	return false
}

func (r *PostsRepo) Create(ctx context.Context, req post.CreatePostRequest) (post.Post, error) {
	p := post.Post{
		ID:        uuid.NewString(),
		UserID:    req.UserID,
		Name:      req.Name,
		Avatar:    req.Avatar,
		Text:      req.Text,
		Likes:     []post.Like{},
		CreatedAt: time.Now().UTC(),
	}

	err := r.observe("posts.create", func() error {
		_, err := r.pool.Exec(ctx,
			`INSERT INTO posts (id, user_id, name, avatar, text, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6)`,
			p.ID, p.UserID, p.Name, p.Avatar, p.Text, p.CreatedAt,
		)
		return err
	})

	if err != nil {
		return post.Post{}, err
	}

	return p, nil
}

// List returns all posts, newest first, with their like lists attached.
func (r *PostsRepo) List(ctx context.Context) ([]post.Post, error) {
	posts := []post.Post{}

	err := r.observe("posts.list", func() error {
		rows, err := r.pool.Query(ctx,
			`SELECT id, user_id, name, avatar, text, created_at
			 FROM posts
			 ORDER BY created_at DESC`,
		)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var p post.Post

			err = rows.Scan(&p.ID, &p.UserID, &p.Name, &p.Avatar, &p.Text, &p.CreatedAt)
			if err != nil {
				return err
			}

			p.Likes = []post.Like{}
			posts = append(posts, p)
		}

		return rows.Err()
	})

	if err != nil {
		return nil, err
	}

	if len(posts) == 0 {
		return posts, nil
	}

	byID := make(map[string]int, len(posts))

	for i, p := range posts {
		byID[p.ID] = i
	}

	err = r.observe("posts.list_likes", func() error {
		rows, err := r.pool.Query(ctx,
			`SELECT post_id, user_id, created_at
			 FROM post_likes
			 ORDER BY created_at DESC`,
		)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var postID string
			var like post.Like

			err = rows.Scan(&postID, &like.UserID, &like.CreatedAt)
			if err != nil {
				return err
			}

			if i, ok := byID[postID]; ok {
				posts[i].Likes = append(posts[i].Likes, like)
			}
		}

		return rows.Err()
	})

	if err != nil {
		return nil, err
	}

	return posts, nil
}

func (r *PostsRepo) GetByID(ctx context.Context, id string) (post.Post, error) {
	var p post.Post

	err := r.observe("posts.get", func() error {
		return r.pool.QueryRow(ctx,
			`SELECT id, user_id, name, avatar, text, created_at
			 FROM posts
			 WHERE id = $1`,
			id,
		).Scan(&p.ID, &p.UserID, &p.Name, &p.Avatar, &p.Text, &p.CreatedAt)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return post.Post{}, post.ErrNotFound
		}

		return post.Post{}, err
	}

	p.Likes = []post.Like{}

	err = r.observe("posts.get_likes", func() error {
		rows, err := r.pool.Query(ctx,
			`SELECT user_id, created_at
			 FROM post_likes
			 WHERE post_id = $1
			 ORDER BY created_at DESC`,
			id,
		)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var like post.Like

			err = rows.Scan(&like.UserID, &like.CreatedAt)
			if err != nil {
				return err
			}

			p.Likes = append(p.Likes, like)
		}

		return rows.Err()
	})

	if err != nil {
		return post.Post{}, err
	}

	return p, nil
}

func (r *PostsRepo) Delete(ctx context.Context, id string) error {
	var tag pgconn.CommandTag

	err := r.observe("posts.delete", func() error {
		var err error
		tag, err = r.pool.Exec(ctx, `DELETE FROM posts WHERE id = $1`, id)
		return err
	})

	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return post.ErrNotFound
	}

	return nil
}

// Like is an atomic add-if-absent: the (post_id, user_id) primary key makes
// a second like by the same user a no-op we can detect, so concurrent likes
// never produce a duplicate entry.
func (r *PostsRepo) Like(ctx context.Context, postID, userID string) (post.Post, error) {
	var tag pgconn.CommandTag

	err := r.observe("posts.like", func() error {
		var err error
		tag, err = r.pool.Exec(ctx,
			`INSERT INTO post_likes (post_id, user_id, created_at)
			 VALUES ($1, $2, $3)
			 ON CONFLICT (post_id, user_id) DO NOTHING`,
			postID, userID, time.Now().UTC(),
		)
		return err
	})

	if err != nil {
		if isForeignKeyViolation(err) {
			return post.Post{}, post.ErrNotFound
		}

		return post.Post{}, err
	}

	if tag.RowsAffected() == 0 {
		return post.Post{}, post.ErrAlreadyLiked
	}

	return r.GetByID(ctx, postID)
}

// Unlike is the matching remove-if-present.
func (r *PostsRepo) Unlike(ctx context.Context, postID, userID string) (post.Post, error) {
	var tag pgconn.CommandTag

	err := r.observe("posts.unlike", func() error {
		var err error
		tag, err = r.pool.Exec(ctx,
			`DELETE FROM post_likes WHERE post_id = $1 AND user_id = $2`,
			postID, userID,
		)
		return err
	})

	if err != nil {
		return post.Post{}, err
	}

	if tag.RowsAffected() == 0 {
		// distinguish "never liked" from "no such post"
		if _, err := r.GetByID(ctx, postID); err != nil {
			return post.Post{}, err
		}

		return post.Post{}, post.ErrNotLiked
	}

	return r.GetByID(ctx, postID)
}
