// Package handler contains the HTTP handlers for the blog: authentication,
// post CRUD, comments, media download and admin moderation.
package handler

import (
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/alexedwards/scs/v2"

	"goblog/internal/auth"
	"goblog/internal/middleware"
	"goblog/internal/model"
	"goblog/internal/render"
	"goblog/internal/service"
	"goblog/internal/store"
)

// AuthHandler serves registration, login and logout.
type AuthHandler struct {
	queries  *store.Queries
	sessions *scs.SessionManager
	renderer *render.Renderer
	events   *service.EventService
}

// NewAuthHandler creates an AuthHandler.
func NewAuthHandler(db *sql.DB, sessions *scs.SessionManager, renderer *render.Renderer, events *service.EventService) *AuthHandler {
	return &AuthHandler{
		queries:  store.New(db),
		sessions: sessions,
		renderer: renderer,
		events:   events,
	}
}

// registerPageData feeds the registration template.
type registerPageData struct {
	Form   RegisterForm
	Errors FormErrors
}

// ShowRegister renders the registration form. Authenticated users are
// sent home instead.
func (h *AuthHandler) ShowRegister(w http.ResponseWriter, r *http.Request) {
	if middleware.GetUser(r) != nil {
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}
	h.renderRegister(w, r, http.StatusOK, registerPageData{})
}

// Register processes a registration submission. New accounts always get
// the member role; admins are created by seeding only.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	if middleware.GetUser(r) != nil {
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}

	form := ParseRegisterForm(r)
	formErrs := form.Validate()

	if formErrs.Valid() {
		n, err := h.queries.CountUsersByUsername(r.Context(), form.Username)
		if err != nil {
			logAndInternalError(w, "failed to check username", "error", err)
			return
		}
		if n > 0 {
			formErrs["username"] = "Username is already taken"
		}
	}

	if !formErrs.Valid() {
		h.renderRegister(w, r, http.StatusOK, registerPageData{Form: form, Errors: formErrs})
		return
	}

	hash, err := auth.HashPassword(form.Password)
	if err != nil {
		logAndInternalError(w, "failed to hash password", "error", err)
		return
	}

	now := time.Now()
	user, err := h.queries.CreateUser(r.Context(), store.CreateUserParams{
		Username:     form.Username,
		Email:        form.Email,
		PasswordHash: hash,
		Role:         model.RoleMember,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		// Unique constraint race between the count check and the insert.
		slog.Warn("registration insert failed", "error", err, "username", form.Username)
		formErrs["username"] = "Username is already taken"
		h.renderRegister(w, r, http.StatusOK, registerPageData{Form: form, Errors: formErrs})
		return
	}

	if err := h.events.Log(r.Context(), model.EventLevelInfo, model.EventCategoryUser,
		"user registered", &user.ID, map[string]any{"username": user.Username}); err != nil {
		slog.Error("failed to log registration event", "error", err)
	}

	// A fresh account is logged in right away.
	if err := h.sessions.RenewToken(r.Context()); err != nil {
		logAndInternalError(w, "failed to renew session token", "error", err)
		return
	}
	h.sessions.Put(r.Context(), middleware.SessionKeyUserID, user.ID)
	if err := h.queries.UpdateUserLastLogin(r.Context(), user.ID, now); err != nil {
		slog.Error("failed to record last login", "error", err, "user_id", user.ID)
	}

	flashSuccess(w, r, h.renderer, "/", "Welcome, "+user.Username+"! Your account is ready.")
}

func (h *AuthHandler) renderRegister(w http.ResponseWriter, r *http.Request, status int, data registerPageData) {
	if err := h.renderer.RenderStatus(w, r, status, "register", render.TemplateData{
		Title: "Register",
		Data:  data,
	}); err != nil {
		logAndInternalError(w, "failed to render register page", "error", err)
	}
}

// loginPageData feeds the login template.
type loginPageData struct {
	Username string
	Error    string
}

// ShowLogin renders the login form.
func (h *AuthHandler) ShowLogin(w http.ResponseWriter, r *http.Request) {
	if middleware.GetUser(r) != nil {
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}
	h.renderLogin(w, r, http.StatusOK, loginPageData{})
}

// loginFailedMessage is deliberately identical for unknown usernames and
// wrong passwords so the form cannot be used to enumerate accounts.
const loginFailedMessage = "Invalid username or password"

// Login processes a login submission.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	username := r.FormValue("username")
	password := r.FormValue("password")

	user, err := h.queries.GetUserByUsername(r.Context(), username)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			logAndInternalError(w, "failed to look up user", "error", err)
			return
		}
		h.failLogin(w, r, username, "unknown username")
		return
	}

	ok, err := auth.CheckPassword(password, user.PasswordHash)
	if err != nil || !ok {
		h.failLogin(w, r, username, "wrong password")
		return
	}

	if auth.NeedsRehash(user.PasswordHash) {
		if newHash, err := auth.HashPassword(password); err == nil {
			if err := h.queries.UpdateUserPasswordHash(r.Context(), user.ID, newHash, time.Now()); err != nil {
				slog.Error("failed to store rehashed password", "error", err, "user_id", user.ID)
			}
		}
	}

	// Renew the session token on privilege change to prevent fixation.
	if err := h.sessions.RenewToken(r.Context()); err != nil {
		logAndInternalError(w, "failed to renew session token", "error", err)
		return
	}
	h.sessions.Put(r.Context(), middleware.SessionKeyUserID, user.ID)

	if err := h.queries.UpdateUserLastLogin(r.Context(), user.ID, time.Now()); err != nil {
		slog.Error("failed to record last login", "error", err, "user_id", user.ID)
	}
	if err := h.events.Log(r.Context(), model.EventLevelInfo, model.EventCategoryAuth,
		"user logged in", &user.ID, map[string]any{"username": user.Username}); err != nil {
		slog.Error("failed to log login event", "error", err)
	}

	flashSuccess(w, r, h.renderer, "/", "Welcome back, "+user.Username+"!")
}

func (h *AuthHandler) failLogin(w http.ResponseWriter, r *http.Request, username, reason string) {
	slog.Warn("login failed", "username", username, "reason", reason, "remote_addr", r.RemoteAddr)
	if err := h.events.Log(r.Context(), model.EventLevelWarning, model.EventCategoryAuth,
		"login failed", nil, map[string]any{"username": username}); err != nil {
		slog.Error("failed to log login failure event", "error", err)
	}
	h.renderLogin(w, r, http.StatusOK, loginPageData{
		Username: username,
		Error:    loginFailedMessage,
	})
}

func (h *AuthHandler) renderLogin(w http.ResponseWriter, r *http.Request, status int, data loginPageData) {
	if err := h.renderer.RenderStatus(w, r, status, "login", render.TemplateData{
		Title: "Log In",
		Data:  data,
	}); err != nil {
		logAndInternalError(w, "failed to render login page", "error", err)
	}
}

// Logout ends the session and redirects home.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r)

	if err := h.sessions.Destroy(r.Context()); err != nil {
		logAndInternalError(w, "failed to destroy session", "error", err)
		return
	}

	if user != nil {
		if err := h.events.Log(r.Context(), model.EventLevelInfo, model.EventCategoryAuth,
			"user logged out", &user.ID, nil); err != nil {
			slog.Error("failed to log logout event", "error", err)
		}
	}

	flashSuccess(w, r, h.renderer, "/", "You have been logged out.")
}
