package handler

import (
	"net/http"
	"regexp"
	"strings"

	"goblog/internal/model"
)

// Field length bounds for submitted forms.
const (
	MaxTitleLength    = 200
	MaxContentLength  = 50000
	MaxUsernameLength = 30
	MinUsernameLength = 3
	MinPasswordLength = 8
)

var (
	usernameRegex = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)
	emailRegex    = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
)

// FormErrors maps field names to validation messages.
type FormErrors map[string]string

// Valid reports whether the form passed validation.
func (e FormErrors) Valid() bool {
	return len(e) == 0
}

// RegisterForm holds a registration submission.
type RegisterForm struct {
	Username        string
	Email           string
	Password        string
	PasswordConfirm string
}

// ParseRegisterForm reads a registration form from the request.
func ParseRegisterForm(r *http.Request) RegisterForm {
	return RegisterForm{
		Username:        strings.TrimSpace(r.FormValue("username")),
		Email:           strings.TrimSpace(r.FormValue("email")),
		Password:        r.FormValue("password"),
		PasswordConfirm: r.FormValue("password_confirm"),
	}
}

// Validate checks field formats. Username uniqueness is checked separately
// against the database.
func (f RegisterForm) Validate() FormErrors {
	errs := FormErrors{}

	switch {
	case f.Username == "":
		errs["username"] = "Username is required"
	case len(f.Username) < MinUsernameLength:
		errs["username"] = "Username must be at least 3 characters"
	case len(f.Username) > MaxUsernameLength:
		errs["username"] = "Username must be at most 30 characters"
	case !usernameRegex.MatchString(f.Username):
		errs["username"] = "Username may contain only letters, digits and underscores"
	}

	if f.Email == "" {
		errs["email"] = "Email is required"
	} else if !emailRegex.MatchString(f.Email) {
		errs["email"] = "Enter a valid email address"
	}

	if len(f.Password) < MinPasswordLength {
		errs["password"] = "Password must be at least 8 characters"
	} else if f.Password != f.PasswordConfirm {
		errs["password_confirm"] = "Passwords do not match"
	}

	return errs
}

// PostForm holds a post create/update submission. Image and video uploads
// are handled by the multipart layer and recorded separately.
type PostForm struct {
	Title      string
	Content    string
	CategoryID string
	Status     string
}

// ParsePostForm reads a post form from the request.
func ParsePostForm(r *http.Request) PostForm {
	return PostForm{
		Title:      strings.TrimSpace(r.FormValue("title")),
		Content:    strings.TrimSpace(r.FormValue("content")),
		CategoryID: r.FormValue("category_id"),
		Status:     r.FormValue("status"),
	}
}

// Validate checks field contents and the status enumeration.
func (f PostForm) Validate() FormErrors {
	errs := FormErrors{}

	switch {
	case f.Title == "":
		errs["title"] = "Title is required"
	case len(f.Title) > MaxTitleLength:
		errs["title"] = "Title must be at most 200 characters"
	}

	switch {
	case f.Content == "":
		errs["content"] = "Content is required"
	case len(f.Content) > MaxContentLength:
		errs["content"] = "Content is too long"
	}

	if !model.ValidPostStatus(f.Status) {
		errs["status"] = "Status must be draft or published"
	}

	return errs
}

// CommentForm holds a comment submission.
type CommentForm struct {
	Content string
}

// ParseCommentForm reads a comment form from the request.
func ParseCommentForm(r *http.Request) CommentForm {
	return CommentForm{Content: strings.TrimSpace(r.FormValue("content"))}
}

// Validate checks the comment content bounds.
func (f CommentForm) Validate() FormErrors {
	errs := FormErrors{}
	if f.Content == "" {
		errs["content"] = "Comment cannot be empty"
	} else if len(f.Content) > model.MaxCommentLength {
		errs["content"] = "Comment is too long"
	}
	return errs
}
