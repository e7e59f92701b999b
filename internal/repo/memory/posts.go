package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/geocoder89/postline/internal/domain/post"
	"github.com/google/uuid"
)

type PostsRepo struct {
	mu    sync.RWMutex
	items map[string]post.Post
}

func NewPostsRepo() *PostsRepo {
	return &PostsRepo{
		items: make(map[string]post.Post),
	}
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

	r.mu.Lock()
	r.items[p.ID] = p
	r.mu.Unlock()

	return p, nil
}

func (r *PostsRepo) List(ctx context.Context) ([]post.Post, error) {
	r.mu.RLock()

	posts := make([]post.Post, 0, len(r.items))

	for _, p := range r.items {
		posts = append(posts, clone(p))
	}
	r.mu.RUnlock()

	// newest first
	sort.Slice(posts, func(i, j int) bool {
		return posts[i].CreatedAt.After(posts[j].CreatedAt)
	})

	return posts, nil
}

func (r *PostsRepo) GetByID(ctx context.Context, id string) (post.Post, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.items[id]

	if !ok {
		return post.Post{}, post.ErrNotFound
	}

	return clone(p), nil
}

func (r *PostsRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[id]; !ok {
		return post.ErrNotFound
	}

	delete(r.items, id)
	return nil
}

func (r *PostsRepo) Like(ctx context.Context, postID, userID string) (post.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.items[postID]

	if !ok {
		return post.Post{}, post.ErrNotFound
	}

	for _, like := range p.Likes {
		if like.UserID == userID {
			return post.Post{}, post.ErrAlreadyLiked
		}
	}

	// prepend, matching the feed's newest-first ordering
	p.Likes = append([]post.Like{{UserID: userID, CreatedAt: time.Now().UTC()}}, p.Likes...)
	r.items[postID] = p

	return clone(p), nil
}

func (r *PostsRepo) Unlike(ctx context.Context, postID, userID string) (post.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.items[postID]

	if !ok {
		return post.Post{}, post.ErrNotFound
	}

	idx := -1

	for i, like := range p.Likes {
		if like.UserID == userID {
			idx = i
			break
		}
	}

	if idx == -1 {
		return post.Post{}, post.ErrNotLiked
	}

	p.Likes = append(p.Likes[:idx:idx], p.Likes[idx+1:]...)
	r.items[postID] = p

	return clone(p), nil
}

func clone(p post.Post) post.Post {
	likes := make([]post.Like, len(p.Likes))
	copy(likes, p.Likes)
	p.Likes = likes
	return p
}
