package handler

import (
	"database/sql"
	"fmt"
	"log/slog"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"goblog/internal/authz"
	"goblog/internal/middleware"
	"goblog/internal/model"
	"goblog/internal/render"
	"goblog/internal/service"
	"goblog/internal/store"
	"goblog/internal/util"
)

// maxMultipartMemory bounds how much of a multipart body is held in memory
// before spilling to temp files.
const maxMultipartMemory = 32 << 20

// PostHandler serves post listings, detail pages, CRUD and downloads.
type PostHandler struct {
	queries  *store.Queries
	renderer *render.Renderer
	media    *service.MediaService
	events   *service.EventService
	pageSize int
}

// NewPostHandler creates a PostHandler.
func NewPostHandler(db *sql.DB, renderer *render.Renderer, media *service.MediaService, events *service.EventService, pageSize int) *PostHandler {
	return &PostHandler{
		queries:  store.New(db),
		renderer: renderer,
		media:    media,
		events:   events,
		pageSize: pageSize,
	}
}

// postListItem is a post decorated with display names for listings.
type postListItem struct {
	model.Post
	AuthorName   string
	CategoryName string
}

// commentView is a comment decorated with its author's name.
type commentView struct {
	model.Comment
	AuthorName string
}

// idParam extracts a positive integer route parameter.
func idParam(r *http.Request, name string) (int64, bool) {
	n := util.ParseNullInt64Positive(chi.URLParam(r, name))
	return n.Int64, n.Valid
}

// usernames resolves a set of user IDs to usernames, querying each ID once.
func (h *PostHandler) usernames(r *http.Request, ids []int64) map[int64]string {
	names := make(map[int64]string, len(ids))
	for _, id := range ids {
		if _, ok := names[id]; ok {
			continue
		}
		user, err := h.queries.GetUserByID(r.Context(), id)
		if err != nil {
			names[id] = "unknown"
			continue
		}
		names[id] = user.Username
	}
	return names
}

// decoratePosts attaches author and category names to posts.
func (h *PostHandler) decoratePosts(r *http.Request, posts []model.Post) []postListItem {
	authorIDs := make([]int64, 0, len(posts))
	for _, p := range posts {
		authorIDs = append(authorIDs, p.AuthorID)
	}
	names := h.usernames(r, authorIDs)

	categories := make(map[int64]string)
	items := make([]postListItem, 0, len(posts))
	for _, p := range posts {
		item := postListItem{Post: p, AuthorName: names[p.AuthorID]}
		if p.CategoryID.Valid {
			catID := p.CategoryID.Int64
			if _, ok := categories[catID]; !ok {
				if cat, err := h.queries.GetCategoryByID(r.Context(), catID); err == nil {
					categories[catID] = cat.Name
				}
			}
			item.CategoryName = categories[catID]
		}
		items = append(items, item)
	}
	return items
}

// listPageData feeds the home, category and my-posts templates.
type listPageData struct {
	Posts      []postListItem
	Pagination Pagination
	Categories []model.Category
	Category   *model.Category
}

// Home lists published posts, newest first, paginated.
func (h *PostHandler) Home(w http.ResponseWriter, r *http.Request) {
	total, err := h.queries.CountPublishedPosts(r.Context())
	if err != nil {
		logAndInternalError(w, "failed to count posts", "error", err)
		return
	}

	pg := paginate(r, h.pageSize, total)
	posts, err := h.queries.ListPublishedPosts(r.Context(), int64(pg.PageSize), pg.Offset())
	if err != nil {
		logAndInternalError(w, "failed to list posts", "error", err)
		return
	}

	categories, err := h.queries.ListCategories(r.Context())
	if err != nil {
		logAndInternalError(w, "failed to list categories", "error", err)
		return
	}

	h.renderList(w, r, "home", "Home", listPageData{
		Posts:      h.decoratePosts(r, posts),
		Pagination: pg,
		Categories: categories,
	})
}

// Category lists published posts in one category, newest first, paginated.
func (h *PostHandler) Category(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r, "id")
	if !ok {
		http.Error(w, "Category not found", http.StatusNotFound)
		return
	}
	category, ok := requireEntity(w, "category", id, func(id int64) (model.Category, error) {
		return h.queries.GetCategoryByID(r.Context(), id)
	})
	if !ok {
		return
	}

	total, err := h.queries.CountPublishedPostsByCategory(r.Context(), category.ID)
	if err != nil {
		logAndInternalError(w, "failed to count category posts", "error", err)
		return
	}

	pg := paginate(r, h.pageSize, total)
	posts, err := h.queries.ListPublishedPostsByCategory(r.Context(), category.ID, int64(pg.PageSize), pg.Offset())
	if err != nil {
		logAndInternalError(w, "failed to list category posts", "error", err)
		return
	}

	categories, err := h.queries.ListCategories(r.Context())
	if err != nil {
		logAndInternalError(w, "failed to list categories", "error", err)
		return
	}

	h.renderList(w, r, "category", category.Name, listPageData{
		Posts:      h.decoratePosts(r, posts),
		Pagination: pg,
		Categories: categories,
		Category:   &category,
	})
}

// MyPosts lists all of the current user's posts, any status, newest first.
func (h *PostHandler) MyPosts(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r)

	posts, err := h.queries.ListPostsByAuthor(r.Context(), user.ID)
	if err != nil {
		logAndInternalError(w, "failed to list posts", "error", err)
		return
	}

	h.renderList(w, r, "my_posts", "My Posts", listPageData{
		Posts: h.decoratePosts(r, posts),
	})
}

func (h *PostHandler) renderList(w http.ResponseWriter, r *http.Request, tmpl, title string, data listPageData) {
	if err := h.renderer.Render(w, r, tmpl, h.templateData(r, title, data)); err != nil {
		logAndInternalError(w, "failed to render "+tmpl, "error", err)
	}
}

func (h *PostHandler) templateData(r *http.Request, title string, data any) render.TemplateData {
	td := render.TemplateData{Title: title, Data: data}
	if user := middleware.GetUser(r); user != nil {
		td.IsAuthed = true
		td.IsAdmin = user.IsAdmin()
		td.Username = user.Username
	}
	return td
}

// detailPageData feeds the post detail template.
type detailPageData struct {
	Post        postListItem
	Comments    []commentView
	CommentForm CommentForm
	FormErrors  FormErrors
	CanEdit     bool
	CanComment  bool
	CanDownload bool
}

// Show renders one post with its approved comments. Drafts are not listed
// anywhere public but stay reachable by direct URL, so authors can share
// preview links.
func (h *PostHandler) Show(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r, "id")
	if !ok {
		http.Error(w, "Post not found", http.StatusNotFound)
		return
	}
	post, ok := requireEntity(w, "post", id, func(id int64) (model.Post, error) {
		return h.queries.GetPostByID(r.Context(), id)
	})
	if !ok {
		return
	}

	h.renderDetail(w, r, http.StatusOK, post, CommentForm{}, nil)
}

func (h *PostHandler) renderDetail(w http.ResponseWriter, r *http.Request, status int, post model.Post, form CommentForm, formErrs FormErrors) {
	comments, err := h.queries.ListApprovedCommentsForPost(r.Context(), post.ID)
	if err != nil {
		logAndInternalError(w, "failed to list comments", "error", err)
		return
	}

	commenterIDs := make([]int64, 0, len(comments))
	for _, c := range comments {
		commenterIDs = append(commenterIDs, c.AuthorID)
	}
	names := h.usernames(r, commenterIDs)

	views := make([]commentView, 0, len(comments))
	for _, c := range comments {
		views = append(views, commentView{Comment: c, AuthorName: names[c.AuthorID]})
	}

	user := middleware.GetUser(r)
	data := detailPageData{
		Post:        h.decoratePosts(r, []model.Post{post})[0],
		Comments:    views,
		CommentForm: form,
		FormErrors:  formErrs,
		CanEdit:     authz.CanPost(user, authz.ActionUpdatePost, &post),
		CanComment:  authz.CanComment(user, authz.ActionCreateComment),
		CanDownload: authz.CanPost(user, authz.ActionDownloadImage, &post) && post.HasImage(),
	}

	if err := h.renderer.RenderStatus(w, r, status, "post", h.templateData(r, post.Title, data)); err != nil {
		logAndInternalError(w, "failed to render post", "error", err)
	}
}

// CreateComment handles a comment submission on the post detail URL.
// Comments go live immediately; moderation is after the fact.
func (h *PostHandler) CreateComment(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r)
	if user == nil {
		flashError(w, r, h.renderer, "/login", "Log in to post a comment.")
		return
	}
	id, ok := idParam(r, "id")
	if !ok {
		http.Error(w, "Post not found", http.StatusNotFound)
		return
	}
	post, ok := requireEntity(w, "post", id, func(id int64) (model.Post, error) {
		return h.queries.GetPostByID(r.Context(), id)
	})
	if !ok {
		return
	}

	form := ParseCommentForm(r)
	if formErrs := form.Validate(); !formErrs.Valid() {
		h.renderDetail(w, r, http.StatusOK, post, form, formErrs)
		return
	}

	comment, err := h.queries.CreateComment(r.Context(), store.CreateCommentParams{
		PostID:    post.ID,
		AuthorID:  user.ID,
		Content:   form.Content,
		Approved:  true,
		CreatedAt: time.Now(),
	})
	if err != nil {
		logAndInternalError(w, "failed to create comment", "error", err)
		return
	}

	if err := h.events.Log(r.Context(), model.EventLevelInfo, model.EventCategoryComment,
		"comment created", &user.ID, map[string]any{"comment_id": comment.ID, "post_id": post.ID}); err != nil {
		slog.Error("failed to log comment event", "error", err)
	}

	flashSuccess(w, r, h.renderer, postURL(post.ID), "Comment added.")
}

func postURL(id int64) string {
	return fmt.Sprintf("/post/%d", id)
}

// formPageData feeds the post create/edit template.
type formPageData struct {
	Form       PostForm
	Errors     FormErrors
	Categories []model.Category
	Post       *model.Post
}

// NewForm renders the post creation form.
func (h *PostHandler) NewForm(w http.ResponseWriter, r *http.Request) {
	categories, err := h.queries.ListCategories(r.Context())
	if err != nil {
		logAndInternalError(w, "failed to list categories", "error", err)
		return
	}
	h.renderForm(w, r, http.StatusOK, "New Post", formPageData{
		Form:       PostForm{Status: model.PostStatusDraft},
		Categories: categories,
	})
}

func (h *PostHandler) renderForm(w http.ResponseWriter, r *http.Request, status int, title string, data formPageData) {
	if err := h.renderer.RenderStatus(w, r, status, "post_form", h.templateData(r, title, data)); err != nil {
		logAndInternalError(w, "failed to render post form", "error", err)
	}
}

// uniqueSlug derives a slug from the title that is unique for the publish
// date, appending a numeric suffix on collision.
func (h *PostHandler) uniqueSlug(r *http.Request, title string, publishDate time.Time) (string, error) {
	base := util.Slugify(title)
	if base == "" {
		base = "post"
	}

	candidate := base
	for i := 2; ; i++ {
		n, err := h.queries.CountPostSlugOnDate(r.Context(), candidate, publishDate)
		if err != nil {
			return "", err
		}
		if n == 0 {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", base, i)
	}
}

// saveUpload stores one optional uploaded file from the named form field.
// Returns the stored filename, or "" when the field is absent.
func (h *PostHandler) saveUpload(r *http.Request, field string) (string, error) {
	file, header, err := r.FormFile(field)
	if err != nil {
		if err == http.ErrMissingFile {
			return "", nil
		}
		return "", err
	}
	defer file.Close()
	return h.storeFile(file, header)
}

func (h *PostHandler) storeFile(file multipart.File, header *multipart.FileHeader) (string, error) {
	switch {
	case service.IsImageFilename(header.Filename):
		return h.media.SaveImage(file, header.Filename)
	case service.IsVideoFilename(header.Filename):
		return h.media.SaveVideo(file, header.Filename)
	default:
		return "", fmt.Errorf("unsupported file type %q", header.Filename)
	}
}

// Create handles the post creation submission.
func (h *PostHandler) Create(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r)

	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	form := ParsePostForm(r)
	formErrs := form.Validate()

	imagePath, err := h.saveUpload(r, "image")
	if err != nil {
		formErrs["image"] = "Could not save image: " + err.Error()
	}
	videoPath, err := h.saveUpload(r, "video")
	if err != nil {
		formErrs["video"] = "Could not save video: " + err.Error()
	}

	if !formErrs.Valid() {
		categories, err := h.queries.ListCategories(r.Context())
		if err != nil {
			logAndInternalError(w, "failed to list categories", "error", err)
			return
		}
		h.renderForm(w, r, http.StatusOK, "New Post", formPageData{
			Form:       form,
			Errors:     formErrs,
			Categories: categories,
		})
		return
	}

	now := time.Now()
	slug, err := h.uniqueSlug(r, form.Title, now)
	if err != nil {
		logAndInternalError(w, "failed to derive slug", "error", err)
		return
	}

	post, err := h.queries.CreatePost(r.Context(), store.CreatePostParams{
		Title:       form.Title,
		Slug:        slug,
		Content:     form.Content,
		ImagePath:   util.NullStringFromValue(imagePath),
		VideoPath:   util.NullStringFromValue(videoPath),
		AuthorID:    user.ID,
		CategoryID:  util.ParseNullInt64Positive(form.CategoryID),
		Status:      form.Status,
		PublishDate: now,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		logAndInternalError(w, "failed to create post", "error", err)
		return
	}

	if err := h.events.Log(r.Context(), model.EventLevelInfo, model.EventCategoryPost,
		"post created", &user.ID, map[string]any{"post_id": post.ID, "status": post.Status}); err != nil {
		slog.Error("failed to log post event", "error", err)
	}

	flashSuccess(w, r, h.renderer, postURL(post.ID), "Post created.")
}

// requirePostOwner loads a post and checks the actor against the
// authorization rules, writing a 403 on denial.
func (h *PostHandler) requirePostOwner(w http.ResponseWriter, r *http.Request, action authz.Action) (model.Post, bool) {
	user := middleware.GetUser(r)

	id, ok := idParam(r, "id")
	if !ok {
		http.Error(w, "Post not found", http.StatusNotFound)
		return model.Post{}, false
	}
	post, ok := requireEntity(w, "post", id, func(id int64) (model.Post, error) {
		return h.queries.GetPostByID(r.Context(), id)
	})
	if !ok {
		return model.Post{}, false
	}

	if !authz.CanPost(user, action, &post) {
		var userID int64
		if user != nil {
			userID = user.ID
		}
		slog.Warn("post access denied",
			"action", string(action),
			"post_id", post.ID,
			"user_id", userID,
		)
		// Downloads deny hard; page actions bounce back with a flash.
		if action == authz.ActionDownloadImage {
			http.Error(w, "Forbidden", http.StatusForbidden)
		} else {
			flashError(w, r, h.renderer, postURL(post.ID), "Only the author may modify this post.")
		}
		return model.Post{}, false
	}
	return post, true
}

// EditForm renders the edit form for the author's post.
func (h *PostHandler) EditForm(w http.ResponseWriter, r *http.Request) {
	post, ok := h.requirePostOwner(w, r, authz.ActionUpdatePost)
	if !ok {
		return
	}

	categories, err := h.queries.ListCategories(r.Context())
	if err != nil {
		logAndInternalError(w, "failed to list categories", "error", err)
		return
	}

	form := PostForm{
		Title:   post.Title,
		Content: post.Content,
		Status:  post.Status,
	}
	if post.CategoryID.Valid {
		form.CategoryID = fmt.Sprintf("%d", post.CategoryID.Int64)
	}

	h.renderForm(w, r, http.StatusOK, "Edit Post", formPageData{
		Form:       form,
		Categories: categories,
		Post:       &post,
	})
}

// Update handles the post edit submission. Slug and publish date are
// fixed at creation; a new upload replaces the old file.
func (h *PostHandler) Update(w http.ResponseWriter, r *http.Request) {
	post, ok := h.requirePostOwner(w, r, authz.ActionUpdatePost)
	if !ok {
		return
	}
	user := middleware.GetUser(r)

	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	form := ParsePostForm(r)
	formErrs := form.Validate()

	imagePath, err := h.saveUpload(r, "image")
	if err != nil {
		formErrs["image"] = "Could not save image: " + err.Error()
	}
	videoPath, err := h.saveUpload(r, "video")
	if err != nil {
		formErrs["video"] = "Could not save video: " + err.Error()
	}

	if !formErrs.Valid() {
		categories, err := h.queries.ListCategories(r.Context())
		if err != nil {
			logAndInternalError(w, "failed to list categories", "error", err)
			return
		}
		h.renderForm(w, r, http.StatusOK, "Edit Post", formPageData{
			Form:       form,
			Errors:     formErrs,
			Categories: categories,
			Post:       &post,
		})
		return
	}

	newImage := post.ImagePath
	if imagePath != "" {
		if post.ImagePath.Valid {
			h.media.Remove(post.ImagePath.String)
		}
		newImage = util.NullStringFromValue(imagePath)
	}
	newVideo := post.VideoPath
	if videoPath != "" {
		if post.VideoPath.Valid {
			h.media.Remove(post.VideoPath.String)
		}
		newVideo = util.NullStringFromValue(videoPath)
	}

	if err := h.queries.UpdatePost(r.Context(), store.UpdatePostParams{
		ID:         post.ID,
		Title:      form.Title,
		Content:    form.Content,
		ImagePath:  newImage,
		VideoPath:  newVideo,
		CategoryID: util.ParseNullInt64Positive(form.CategoryID),
		Status:     form.Status,
		UpdatedAt:  time.Now(),
	}); err != nil {
		logAndInternalError(w, "failed to update post", "error", err)
		return
	}

	if err := h.events.Log(r.Context(), model.EventLevelInfo, model.EventCategoryPost,
		"post updated", &user.ID, map[string]any{"post_id": post.ID, "status": form.Status}); err != nil {
		slog.Error("failed to log post event", "error", err)
	}

	flashSuccess(w, r, h.renderer, postURL(post.ID), "Post updated.")
}

// ConfirmDelete renders the delete confirmation page. Deletion itself
// only happens on the following POST.
func (h *PostHandler) ConfirmDelete(w http.ResponseWriter, r *http.Request) {
	post, ok := h.requirePostOwner(w, r, authz.ActionDeletePost)
	if !ok {
		return
	}

	data := h.decoratePosts(r, []model.Post{post})[0]
	if err := h.renderer.Render(w, r, "post_confirm_delete", h.templateData(r, "Delete Post", data)); err != nil {
		logAndInternalError(w, "failed to render delete confirmation", "error", err)
	}
}

// Delete removes the author's post, its comments (via the schema) and its
// stored media files.
func (h *PostHandler) Delete(w http.ResponseWriter, r *http.Request) {
	post, ok := h.requirePostOwner(w, r, authz.ActionDeletePost)
	if !ok {
		return
	}
	user := middleware.GetUser(r)

	if err := h.queries.DeletePost(r.Context(), post.ID); err != nil {
		logAndInternalError(w, "failed to delete post", "error", err)
		return
	}

	if post.ImagePath.Valid {
		h.media.Remove(post.ImagePath.String)
	}
	if post.VideoPath.Valid {
		h.media.Remove(post.VideoPath.String)
	}

	if err := h.events.Log(r.Context(), model.EventLevelInfo, model.EventCategoryPost,
		"post deleted", &user.ID, map[string]any{"post_id": post.ID, "title": post.Title}); err != nil {
		slog.Error("failed to log post event", "error", err)
	}

	flashSuccess(w, r, h.renderer, "/", "Post deleted.")
}

// DownloadImage serves the post's image as an attachment. Only the author
// may download; everyone else gets a 403 even if they can view the post.
func (h *PostHandler) DownloadImage(w http.ResponseWriter, r *http.Request) {
	post, ok := h.requirePostOwner(w, r, authz.ActionDownloadImage)
	if !ok {
		return
	}

	if !post.HasImage() {
		http.Error(w, "Post has no image", http.StatusNotFound)
		return
	}

	path, err := h.media.Path(post.ImagePath.String)
	if err != nil {
		logAndInternalError(w, "invalid stored image path", "error", err, "post_id", post.ID)
		return
	}

	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", post.ImagePath.String))
	http.ServeFile(w, r, path)
}
