package handler

import (
	"database/sql"
	"log/slog"
	"net/http"

	"goblog/internal/middleware"
	"goblog/internal/model"
	"goblog/internal/render"
	"goblog/internal/service"
	"goblog/internal/store"
)

// AdminHandler serves the comment moderation queue.
type AdminHandler struct {
	queries  *store.Queries
	renderer *render.Renderer
	events   *service.EventService
	pageSize int
}

// NewAdminHandler creates an AdminHandler.
func NewAdminHandler(db *sql.DB, renderer *render.Renderer, events *service.EventService, pageSize int) *AdminHandler {
	return &AdminHandler{
		queries:  store.New(db),
		renderer: renderer,
		events:   events,
		pageSize: pageSize,
	}
}

// moderationItem is a comment decorated for the moderation queue.
type moderationItem struct {
	model.Comment
	AuthorName string
	PostTitle  string
}

// moderationPageData feeds the moderation template.
type moderationPageData struct {
	Comments   []moderationItem
	Pagination Pagination
}

// Comments lists all comments, newest first, for moderation.
func (h *AdminHandler) Comments(w http.ResponseWriter, r *http.Request) {
	total, err := h.queries.CountComments(r.Context())
	if err != nil {
		logAndInternalError(w, "failed to count comments", "error", err)
		return
	}

	pg := paginate(r, h.pageSize, total)
	comments, err := h.queries.ListComments(r.Context(), int64(pg.PageSize), pg.Offset())
	if err != nil {
		logAndInternalError(w, "failed to list comments", "error", err)
		return
	}

	names := make(map[int64]string)
	titles := make(map[int64]string)
	items := make([]moderationItem, 0, len(comments))
	for _, c := range comments {
		if _, ok := names[c.AuthorID]; !ok {
			if user, err := h.queries.GetUserByID(r.Context(), c.AuthorID); err == nil {
				names[c.AuthorID] = user.Username
			} else {
				names[c.AuthorID] = "unknown"
			}
		}
		if _, ok := titles[c.PostID]; !ok {
			if post, err := h.queries.GetPostByID(r.Context(), c.PostID); err == nil {
				titles[c.PostID] = post.Title
			} else {
				titles[c.PostID] = "(deleted post)"
			}
		}
		items = append(items, moderationItem{
			Comment:    c,
			AuthorName: names[c.AuthorID],
			PostTitle:  titles[c.PostID],
		})
	}

	td := render.TemplateData{Title: "Moderate Comments", Data: moderationPageData{
		Comments:   items,
		Pagination: pg,
	}}
	if user := middleware.GetUser(r); user != nil {
		td.IsAuthed = true
		td.IsAdmin = user.IsAdmin()
		td.Username = user.Username
	}

	if err := h.renderer.Render(w, r, "admin_comments", td); err != nil {
		logAndInternalError(w, "failed to render moderation queue", "error", err)
	}
}

// Approve marks a comment visible.
func (h *AdminHandler) Approve(w http.ResponseWriter, r *http.Request) {
	h.setApproved(w, r, true, "comment approved", "Comment approved.")
}

// Reject hides a comment without deleting it.
func (h *AdminHandler) Reject(w http.ResponseWriter, r *http.Request) {
	h.setApproved(w, r, false, "comment rejected", "Comment hidden.")
}

func (h *AdminHandler) setApproved(w http.ResponseWriter, r *http.Request, approved bool, eventMsg, flashMsg string) {
	user := middleware.GetUser(r)

	id, ok := idParam(r, "id")
	if !ok {
		http.Error(w, "Comment not found", http.StatusNotFound)
		return
	}
	comment, ok := requireEntity(w, "comment", id, func(id int64) (model.Comment, error) {
		return h.queries.GetCommentByID(r.Context(), id)
	})
	if !ok {
		return
	}

	if err := h.queries.SetCommentApproved(r.Context(), comment.ID, approved); err != nil {
		logAndInternalError(w, "failed to update comment", "error", err)
		return
	}

	if err := h.events.Log(r.Context(), model.EventLevelInfo, model.EventCategoryComment,
		eventMsg, &user.ID, map[string]any{"comment_id": comment.ID}); err != nil {
		slog.Error("failed to log moderation event", "error", err)
	}

	flashSuccess(w, r, h.renderer, "/admin/comments", flashMsg)
}

// Delete removes a comment permanently.
func (h *AdminHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r)

	id, ok := idParam(r, "id")
	if !ok {
		http.Error(w, "Comment not found", http.StatusNotFound)
		return
	}
	comment, ok := requireEntity(w, "comment", id, func(id int64) (model.Comment, error) {
		return h.queries.GetCommentByID(r.Context(), id)
	})
	if !ok {
		return
	}

	if err := h.queries.DeleteComment(r.Context(), comment.ID); err != nil {
		logAndInternalError(w, "failed to delete comment", "error", err)
		return
	}

	if err := h.events.Log(r.Context(), model.EventLevelInfo, model.EventCategoryComment,
		"comment deleted", &user.ID, map[string]any{"comment_id": comment.ID, "post_id": comment.PostID}); err != nil {
		slog.Error("failed to log moderation event", "error", err)
	}

	flashSuccess(w, r, h.renderer, "/admin/comments", "Comment deleted.")
}
