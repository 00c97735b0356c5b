package store

import (
	"context"
	"database/sql"
	"time"

	"goblog/internal/model"
)

// CreatePostParams holds the fields for creating a post.
type CreatePostParams struct {
	Title       string
	Slug        string
	Content     string
	ImagePath   sql.NullString
	VideoPath   sql.NullString
	AuthorID    int64
	CategoryID  sql.NullInt64
	Status      string
	PublishDate time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// UpdatePostParams holds the mutable fields for updating a post.
// Author, slug and publish date are fixed at creation time.
type UpdatePostParams struct {
	ID         int64
	Title      string
	Content    string
	ImagePath  sql.NullString
	VideoPath  sql.NullString
	CategoryID sql.NullInt64
	Status     string
	UpdatedAt  time.Time
}

const postColumns = `id, title, slug, content, image_path, video_path,
	author_id, category_id, status, publish_date, created_at, updated_at`

func scanPost(row interface{ Scan(...any) error }) (model.Post, error) {
	var p model.Post
	err := row.Scan(&p.ID, &p.Title, &p.Slug, &p.Content, &p.ImagePath, &p.VideoPath,
		&p.AuthorID, &p.CategoryID, &p.Status, &p.PublishDate, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

func (q *Queries) queryPosts(ctx context.Context, query string, args ...any) ([]model.Post, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var posts []model.Post
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, p)
	}
	return posts, rows.Err()
}

// CreatePost inserts a new post and returns it.
func (q *Queries) CreatePost(ctx context.Context, arg CreatePostParams) (model.Post, error) {
	res, err := q.db.ExecContext(ctx,
		`INSERT INTO posts (title, slug, content, image_path, video_path,
		   author_id, category_id, status, publish_date, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		arg.Title, arg.Slug, arg.Content, arg.ImagePath, arg.VideoPath,
		arg.AuthorID, arg.CategoryID, arg.Status, arg.PublishDate, arg.CreatedAt, arg.UpdatedAt)
	if err != nil {
		return model.Post{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Post{}, err
	}
	return q.GetPostByID(ctx, id)
}

// GetPostByID returns the post with the given ID regardless of status.
func (q *Queries) GetPostByID(ctx context.Context, id int64) (model.Post, error) {
	row := q.db.QueryRowContext(ctx,
		`SELECT `+postColumns+` FROM posts WHERE id = ?`, id)
	return scanPost(row)
}

// UpdatePost applies field changes to a post.
func (q *Queries) UpdatePost(ctx context.Context, arg UpdatePostParams) error {
	_, err := q.db.ExecContext(ctx,
		`UPDATE posts SET title = ?, content = ?, image_path = ?, video_path = ?,
		   category_id = ?, status = ?, updated_at = ?
		 WHERE id = ?`,
		arg.Title, arg.Content, arg.ImagePath, arg.VideoPath,
		arg.CategoryID, arg.Status, arg.UpdatedAt, arg.ID)
	return err
}

// DeletePost removes a post. Comments cascade via the schema.
func (q *Queries) DeletePost(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, `DELETE FROM posts WHERE id = ?`, id)
	return err
}

// ListPublishedPosts returns published posts ordered by publish date
// descending, newest first.
func (q *Queries) ListPublishedPosts(ctx context.Context, limit, offset int64) ([]model.Post, error) {
	return q.queryPosts(ctx,
		`SELECT `+postColumns+` FROM posts
		 WHERE status = ? ORDER BY publish_date DESC LIMIT ? OFFSET ?`,
		model.PostStatusPublished, limit, offset)
}

// CountPublishedPosts returns the number of published posts.
func (q *Queries) CountPublishedPosts(ctx context.Context) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM posts WHERE status = ?`, model.PostStatusPublished).Scan(&n)
	return n, err
}

// ListPublishedPostsByCategory returns published posts in a category,
// newest first.
func (q *Queries) ListPublishedPostsByCategory(ctx context.Context, categoryID, limit, offset int64) ([]model.Post, error) {
	return q.queryPosts(ctx,
		`SELECT `+postColumns+` FROM posts
		 WHERE status = ? AND category_id = ?
		 ORDER BY publish_date DESC LIMIT ? OFFSET ?`,
		model.PostStatusPublished, categoryID, limit, offset)
}

// CountPublishedPostsByCategory returns the number of published posts in a category.
func (q *Queries) CountPublishedPostsByCategory(ctx context.Context, categoryID int64) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM posts WHERE status = ? AND category_id = ?`,
		model.PostStatusPublished, categoryID).Scan(&n)
	return n, err
}

// ListPostsByAuthor returns all posts by an author, any status, newest first.
func (q *Queries) ListPostsByAuthor(ctx context.Context, authorID int64) ([]model.Post, error) {
	return q.queryPosts(ctx,
		`SELECT `+postColumns+` FROM posts
		 WHERE author_id = ? ORDER BY publish_date DESC`, authorID)
}

// CountPostSlugOnDate returns the number of posts carrying the given slug
// on the given publish date. Slugs are unique per publish date.
func (q *Queries) CountPostSlugOnDate(ctx context.Context, slug string, publishDate time.Time) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM posts WHERE slug = ? AND date(publish_date) = date(?)`,
		slug, publishDate).Scan(&n)
	return n, err
}
