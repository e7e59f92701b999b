package post

import (
	"errors"
	"time"
)

var (
	ErrNotFound     = errors.New("post not found")
	ErrAlreadyLiked = errors.New("post already liked by user")
	ErrNotLiked     = errors.New("post not liked by user")
)

// Like records one user's like on a post. A user appears at most once in a
// post's like list.
type Like struct {
	UserID    string    `json:"user"`
	CreatedAt time.Time `json:"createdAt"`
}

type Post struct {
	ID     string `json:"id"`
	UserID string `json:"user"`
	// Author snapshot at posting time, like the profile feed expects
	Name      string    `json:"name"`
	Avatar    string    `json:"avatar,omitempty"`
	Text      string    `json:"text"`
	Likes     []Like    `json:"likes"`
	CreatedAt time.Time `json:"date"`
}

type CreatePostRequest struct {
	Text string `json:"text"`

	// filled in from the authenticated identity, not the request body
	UserID string `json:"-"`
	Name   string `json:"-"`
	Avatar string `json:"-"`
}
