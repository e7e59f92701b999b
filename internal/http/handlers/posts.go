package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/geocoder89/postline/internal/config"
	"github.com/geocoder89/postline/internal/domain/post"
	"github.com/geocoder89/postline/internal/http/middlewares"
	"github.com/geocoder89/postline/internal/utils"
	"github.com/geocoder89/postline/internal/validation"
	"github.com/gin-gonic/gin"
)

type PostsStore interface {
	Create(ctx context.Context, req post.CreatePostRequest) (post.Post, error)
	List(ctx context.Context) ([]post.Post, error)
	GetByID(ctx context.Context, id string) (post.Post, error)
	Delete(ctx context.Context, id string) error
	Like(ctx context.Context, postID, userID string) (post.Post, error)
	Unlike(ctx context.Context, postID, userID string) (post.Post, error)
}

// FeedCache holds the rendered public feed. Redis-backed in prod, in-process
// otherwise; nil disables caching entirely.
type FeedCache interface {
	Get(ctx context.Context) ([]byte, bool)
	Set(ctx context.Context, payload []byte)
	Invalidate(ctx context.Context)
}

type PostsHandler struct {
	repo PostsStore
	feed FeedCache
}

func NewPostsHandler(repo PostsStore, feed FeedCache) *PostsHandler {
	return &PostsHandler{repo: repo, feed: feed}
}

func (h *PostsHandler) ListPosts(ctx *gin.Context) {
	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	if h.feed != nil {
		if body, ok := h.feed.Get(cctx); ok {
			RespondRawJSONWithETag(ctx, http.StatusOK, body)
			return
		}
	}

	posts, err := h.repo.List(cctx)

	if err != nil {
		RespondInternal(ctx, "Could not list posts")
		return
	}

	body, err := json.Marshal(posts)

	if err != nil {
		RespondInternal(ctx, "Could not list posts")
		return
	}

	if h.feed != nil {
		h.feed.Set(cctx, body)
	}

	RespondRawJSONWithETag(ctx, http.StatusOK, body)
}

func (h *PostsHandler) GetPost(ctx *gin.Context) {
	id := ctx.Param("id")

	if !utils.IsUUID(id) {
		h.respondPostNotFound(ctx, id)
		return
	}

	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	p, err := h.repo.GetByID(cctx, id)

	if err != nil {
		if errors.Is(err, post.ErrNotFound) {
			h.respondPostNotFound(ctx, id)
			return
		}

		RespondInternal(ctx, "Could not fetch post")
		return
	}

	RespondJSONWithETag(ctx, http.StatusOK, p)
}

func (h *PostsHandler) CreatePost(ctx *gin.Context) {
	var req post.CreatePostRequest

	if !BindJSON(ctx, &req) {
		return
	}

	errs := validation.Post(req)

	if !errs.IsValid() {
		RespondFields(ctx, http.StatusBadRequest, errs)
		return
	}

	u, ok := middlewares.CurrentUser(ctx)

	if !ok {
		RespondError(ctx, http.StatusUnauthorized, "unauthorized", "Missing identity", nil)
		return
	}

	// author fields come from the verified identity, never the body
	req.UserID = u.ID
	req.Name = u.Name
	req.Avatar = u.Avatar

	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	p, err := h.repo.Create(cctx, req)

	if err != nil {
		RespondInternal(ctx, "Could not create post")
		return
	}

	h.invalidateFeed(cctx)

	ctx.JSON(http.StatusOK, p)
}

func (h *PostsHandler) DeletePost(ctx *gin.Context) {
	id := ctx.Param("id")

	if !utils.IsUUID(id) {
		RespondFields(ctx, http.StatusNotFound, map[string]string{"postNotFound": "No post found"})
		return
	}

	u, ok := middlewares.CurrentUser(ctx)

	if !ok {
		RespondError(ctx, http.StatusUnauthorized, "unauthorized", "Missing identity", nil)
		return
	}

	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	p, err := h.repo.GetByID(cctx, id)

	if err != nil {
		if errors.Is(err, post.ErrNotFound) {
			RespondFields(ctx, http.StatusNotFound, map[string]string{"postNotFound": "No post found"})
			return
		}

		RespondInternal(ctx, "Could not delete post")
		return
	}

	// ownership check must short-circuit before anything is removed
	if p.UserID != u.ID {
		RespondFields(ctx, http.StatusUnauthorized, map[string]string{"notAuthorized": "User not authorized"})
		return
	}

	err = h.repo.Delete(cctx, id)

	if err != nil {
		if errors.Is(err, post.ErrNotFound) {
			RespondFields(ctx, http.StatusNotFound, map[string]string{"postNotFound": "No post found"})
			return
		}

		RespondInternal(ctx, "Could not delete post")
		return
	}

	h.invalidateFeed(cctx)

	ctx.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *PostsHandler) LikePost(ctx *gin.Context) {
	id := ctx.Param("id")

	if !utils.IsUUID(id) {
		RespondFields(ctx, http.StatusNotFound, map[string]string{"postNotFound": "No post found"})
		return
	}

	u, ok := middlewares.CurrentUser(ctx)

	if !ok {
		RespondError(ctx, http.StatusUnauthorized, "unauthorized", "Missing identity", nil)
		return
	}

	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	p, err := h.repo.Like(cctx, id, u.ID)

	if err != nil {
		switch {
		case errors.Is(err, post.ErrNotFound):
			RespondFields(ctx, http.StatusNotFound, map[string]string{"postNotFound": "No post found"})
		case errors.Is(err, post.ErrAlreadyLiked):
			RespondFields(ctx, http.StatusBadRequest, map[string]string{"alreadyLiked": "User already liked this post"})
		default:
			RespondInternal(ctx, "Could not like post")
		}
		return
	}

	h.invalidateFeed(cctx)

	ctx.JSON(http.StatusOK, p)
}

func (h *PostsHandler) UnlikePost(ctx *gin.Context) {
	id := ctx.Param("id")

	if !utils.IsUUID(id) {
		RespondFields(ctx, http.StatusNotFound, map[string]string{"postNotFound": "No post found"})
		return
	}

	u, ok := middlewares.CurrentUser(ctx)

	if !ok {
		RespondError(ctx, http.StatusUnauthorized, "unauthorized", "Missing identity", nil)
		return
	}

	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	p, err := h.repo.Unlike(cctx, id, u.ID)

	if err != nil {
		switch {
		case errors.Is(err, post.ErrNotFound):
			RespondFields(ctx, http.StatusNotFound, map[string]string{"postNotFound": "No post found"})
		case errors.Is(err, post.ErrNotLiked):
			RespondFields(ctx, http.StatusBadRequest, map[string]string{"notLiked": "You have not liked this post"})
		default:
			RespondInternal(ctx, "Could not unlike post")
		}
		return
	}

	h.invalidateFeed(cctx)

	ctx.JSON(http.StatusOK, p)
}

func (h *PostsHandler) respondPostNotFound(ctx *gin.Context, id string) {
	RespondFields(ctx, http.StatusNotFound, map[string]string{
		"post": fmt.Sprintf("Post with id: %s not found", id),
	})
}

func (h *PostsHandler) invalidateFeed(ctx context.Context) {
	if h.feed != nil {
		h.feed.Invalidate(ctx)
	}
}
