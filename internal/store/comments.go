package store

import (
	"context"
	"time"

	"goblog/internal/model"
)

// CreateCommentParams holds the fields for creating a comment.
type CreateCommentParams struct {
	PostID    int64
	AuthorID  int64
	Content   string
	Approved  bool
	CreatedAt time.Time
}

const commentColumns = `id, post_id, author_id, content, approved, created_at`

func scanComment(row interface{ Scan(...any) error }) (model.Comment, error) {
	var c model.Comment
	err := row.Scan(&c.ID, &c.PostID, &c.AuthorID, &c.Content, &c.Approved, &c.CreatedAt)
	return c, err
}

func (q *Queries) queryComments(ctx context.Context, query string, args ...any) ([]model.Comment, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var comments []model.Comment
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, err
		}
		comments = append(comments, c)
	}
	return comments, rows.Err()
}

// CreateComment inserts a new comment and returns it.
func (q *Queries) CreateComment(ctx context.Context, arg CreateCommentParams) (model.Comment, error) {
	res, err := q.db.ExecContext(ctx,
		`INSERT INTO comments (post_id, author_id, content, approved, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		arg.PostID, arg.AuthorID, arg.Content, arg.Approved, arg.CreatedAt)
	if err != nil {
		return model.Comment{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Comment{}, err
	}
	return q.GetCommentByID(ctx, id)
}

// GetCommentByID returns the comment with the given ID.
func (q *Queries) GetCommentByID(ctx context.Context, id int64) (model.Comment, error) {
	row := q.db.QueryRowContext(ctx,
		`SELECT `+commentColumns+` FROM comments WHERE id = ?`, id)
	return scanComment(row)
}

// ListApprovedCommentsForPost returns a post's approved comments,
// most recent first.
func (q *Queries) ListApprovedCommentsForPost(ctx context.Context, postID int64) ([]model.Comment, error) {
	return q.queryComments(ctx,
		`SELECT `+commentColumns+` FROM comments
		 WHERE post_id = ? AND approved = 1
		 ORDER BY created_at DESC`, postID)
}

// ListComments returns all comments for moderation, most recent first.
func (q *Queries) ListComments(ctx context.Context, limit, offset int64) ([]model.Comment, error) {
	return q.queryComments(ctx,
		`SELECT `+commentColumns+` FROM comments
		 ORDER BY created_at DESC LIMIT ? OFFSET ?`, limit, offset)
}

// CountComments returns the total number of comments.
func (q *Queries) CountComments(ctx context.Context) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM comments`).Scan(&n)
	return n, err
}

// SetCommentApproved flips a comment's moderation state.
func (q *Queries) SetCommentApproved(ctx context.Context, id int64, approved bool) error {
	_, err := q.db.ExecContext(ctx,
		`UPDATE comments SET approved = ? WHERE id = ?`, approved, id)
	return err
}

// DeleteComment removes a comment.
func (q *Queries) DeleteComment(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, `DELETE FROM comments WHERE id = ?`, id)
	return err
}
