package model

import "time"

// MaxCommentLength bounds submitted comment content.
const MaxCommentLength = 2000

// Comment represents a reader comment on a post. Comments are visible on
// the post detail page only while approved.
type Comment struct {
	ID        int64     `json:"id"`
	PostID    int64     `json:"post_id"`
	AuthorID  int64     `json:"author_id"`
	Content   string    `json:"content"`
	Approved  bool      `json:"approved"`
	CreatedAt time.Time `json:"created_at"`
}
