package model

import (
	"database/sql"
	"time"
)

// Post statuses. Status is a closed two-value set; anything else is
// rejected at the form boundary.
const (
	PostStatusDraft     = "draft"
	PostStatusPublished = "published"
)

// ValidPostStatus reports whether s is one of the allowed post statuses.
func ValidPostStatus(s string) bool {
	return s == PostStatusDraft || s == PostStatusPublished
}

// Post represents a blog post.
type Post struct {
	ID          int64          `json:"id"`
	Title       string         `json:"title"`
	Slug        string         `json:"slug"`
	Content     string         `json:"content"`
	ImagePath   sql.NullString `json:"image_path,omitempty"`
	VideoPath   sql.NullString `json:"video_path,omitempty"`
	AuthorID    int64          `json:"author_id"`
	CategoryID  sql.NullInt64  `json:"category_id,omitempty"`
	Status      string         `json:"status"`
	PublishDate time.Time      `json:"publish_date"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// IsPublished returns true if the post is publicly listed.
func (p *Post) IsPublished() bool {
	return p.Status == PostStatusPublished
}

// IsDraft returns true if the post is a draft.
func (p *Post) IsDraft() bool {
	return p.Status == PostStatusDraft
}

// HasImage returns true if the post has an attached image.
func (p *Post) HasImage() bool {
	return p.ImagePath.Valid && p.ImagePath.String != ""
}
