package handler

import (
	"database/sql"
	"io/fs"
	"net/http"

	"github.com/alexedwards/scs/v2"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"goblog/internal/middleware"
	"goblog/internal/render"
	"goblog/internal/service"
)

// RouterConfig carries the dependencies for the route table.
type RouterConfig struct {
	DB       *sql.DB
	Sessions *scs.SessionManager
	Renderer *render.Renderer
	Media    *service.MediaService
	Events   *service.EventService
	PageSize int
	IsDev    bool

	// CSRFKey enables the CSRF layer when non-empty. Must be 32 bytes.
	CSRFKey    []byte
	ServerAddr string

	// StaticFS serves /static when non-nil.
	StaticFS fs.FS
	// UploadsDir serves /uploads when non-empty.
	UploadsDir string
}

// Routes assembles the full route table with its middleware stack.
func Routes(cfg RouterConfig) http.Handler {
	authHandler := NewAuthHandler(cfg.DB, cfg.Sessions, cfg.Renderer, cfg.Events)
	postHandler := NewPostHandler(cfg.DB, cfg.Renderer, cfg.Media, cfg.Events, cfg.PageSize)
	adminHandler := NewAdminHandler(cfg.DB, cfg.Renderer, cfg.Events, cfg.PageSize)

	loginLimiter := middleware.NewLoginLimiter(1, 5)

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(middleware.SecurityHeaders(cfg.IsDev))
	r.Use(cfg.Sessions.LoadAndSave)
	if len(cfg.CSRFKey) > 0 {
		r.Use(middleware.CSRF(cfg.CSRFKey, cfg.IsDev, cfg.ServerAddr))
	}

	// Static assets and uploaded media. Inline display of uploaded media is
	// public; the attachment download route below stays author-only.
	if cfg.StaticFS != nil {
		r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(cfg.StaticFS))))
	}
	if cfg.UploadsDir != "" {
		r.Handle("/uploads/*", http.StripPrefix("/uploads/", http.FileServer(http.Dir(cfg.UploadsDir))))
	}

	// Public pages. The comment POST shares the detail URL; the handler
	// itself turns anonymous submissions away.
	r.Group(func(r chi.Router) {
		r.Use(middleware.OptionalLoadUser(cfg.Sessions, cfg.DB))

		r.Get("/", postHandler.Home)
		r.Get("/category/{id}", postHandler.Category)
		r.Get("/post/{id}", postHandler.Show)
		r.Post("/post/{id}", postHandler.CreateComment)

		r.Get("/register", authHandler.ShowRegister)
		r.Post("/register", authHandler.Register)
		r.Get("/login", authHandler.ShowLogin)
		r.With(loginLimiter.Middleware).Post("/login", authHandler.Login)
		r.Get("/logout", authHandler.Logout)
		r.Post("/logout", authHandler.Logout)
	})

	// Pages requiring a logged-in user.
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(cfg.Sessions))
		r.Use(middleware.LoadUser(cfg.Sessions, cfg.DB))

		r.Get("/my-posts", postHandler.MyPosts)
		r.Get("/post/new", postHandler.NewForm)
		r.Post("/post/new", postHandler.Create)
		r.Get("/post/{id}/update", postHandler.EditForm)
		r.Post("/post/{id}/update", postHandler.Update)
		r.Get("/post/{id}/delete", postHandler.ConfirmDelete)
		r.Post("/post/{id}/delete", postHandler.Delete)
		r.Get("/post/{id}/download", postHandler.DownloadImage)
	})

	// Moderation, admins only.
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(cfg.Sessions))
		r.Use(middleware.LoadUser(cfg.Sessions, cfg.DB))
		r.Use(middleware.RequireAdmin())

		r.Get("/admin/comments", adminHandler.Comments)
		r.Post("/admin/comments/{id}/approve", adminHandler.Approve)
		r.Post("/admin/comments/{id}/reject", adminHandler.Reject)
		r.Post("/admin/comments/{id}/delete", adminHandler.Delete)
	})

	return r
}
