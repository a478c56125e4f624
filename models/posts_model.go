package models

import (
	"errors"
	"time"
)

var ErrPostNotFound = errors.New("post not found")

// Post is the stored blog post. AuthorID and CreatedOn are set once at insert.
type Post struct {
	ID        int64
	AuthorID  int64
	Title     string
	Body      string
	CreatedOn time.Time
}

// PostPayload is the request body of create and update as decoded. The
// pointers tell a missing or null field apart from an empty string, which
// is a valid title or body.
type PostPayload struct {
	Title *string `json:"title" validate:"required"`
	Body  *string `json:"body" validate:"required"`
}

// PostIn returns the payload values. Call it only after validation.
func (p PostPayload) PostIn() PostIn {
	return PostIn{Title: *p.Title, Body: *p.Body}
}

// PostIn holds the client-writable fields of a post.
type PostIn struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// ApplyTo overwrites the updatable fields of post with the payload values.
func (in PostIn) ApplyTo(post *Post) {
	post.Title = in.Title
	post.Body = in.Body
}

// PostOut is the only representation of a post returned to clients.
type PostOut struct {
	ID        int64     `json:"id"`
	Author    int64     `json:"author"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	CreatedOn time.Time `json:"created_on"`
}

func NewPostOut(post *Post) PostOut {
	return PostOut{
		ID:        post.ID,
		Author:    post.AuthorID,
		Title:     post.Title,
		Body:      post.Body,
		CreatedOn: post.CreatedOn,
	}
}

func NewPostOutList(posts []Post) []PostOut {
	out := make([]PostOut, 0, len(posts))
	for i := range posts {
		out = append(out, NewPostOut(&posts[i]))
	}
	return out
}
