package models

import "time"

type RegisterRequest struct {
	Login    string `json:"login" validate:"required,min=3,max=50"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

type LoginRequest struct {
	Login    string `json:"login" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type AuthResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// PostRequest is the inbound Post payload for both create and update.
// ID stays nil until the primary store has assigned one. A zero Date or
// BlogID is filled in by the service.
type PostRequest struct {
	ID      *uint        `json:"id"`
	Title   string       `json:"title" validate:"required,max=255"`
	Content string       `json:"content" validate:"required"`
	Date    time.Time    `json:"date"`
	BlogID  uint         `json:"blog_id"`
	Tags    []TagRequest `json:"tags" validate:"dive"`
}

// TagNames returns the distinct tag names of the request in first-seen order.
func (r *PostRequest) TagNames() []string {
	seen := make(map[string]struct{}, len(r.Tags))
	names := make([]string, 0, len(r.Tags))
	for _, t := range r.Tags {
		if _, ok := seen[t.Name]; ok {
			continue
		}
		seen[t.Name] = struct{}{}
		names = append(names, t.Name)
	}
	return names
}

// TagRequest references a tag by name; ID is accepted so a Post read from the
// API can be sent back unchanged, but the name decides which tag is attached.
// Names may not contain a comma, the tag separator of the search index.
type TagRequest struct {
	ID   uint   `json:"id,omitempty"`
	Name string `json:"name" validate:"required,min=2,max=100,excludesall=0x2C"`
}

type CreateTagRequest struct {
	Name string `json:"name" validate:"required,min=2,max=100,excludesall=0x2C"`
}

type CreateBlogRequest struct {
	Name   string `json:"name" validate:"required,min=3,max=255"`
	Handle string `json:"handle" validate:"required,min=2,max=100"`
}

// PageRequest carries paging parameters. Page is zero-based.
type PageRequest struct {
	Page      int    `form:"page"`
	Size      int    `form:"size"`
	Sort      string `form:"sort"`
	EagerLoad bool   `form:"eagerload"`
}

func (p PageRequest) Offset() int {
	return p.Page * p.Size
}
