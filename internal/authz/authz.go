// Package authz holds the authorization rules as a pure predicate,
// kept free of HTTP concerns so ownership rules are testable in isolation.
package authz

import "goblog/internal/model"

// Action identifies an operation checked against the authorization rules.
type Action string

// Actions subject to authorization.
const (
	ActionUpdatePost      Action = "post.update"
	ActionDeletePost      Action = "post.delete"
	ActionDownloadImage   Action = "post.download"
	ActionCreateComment   Action = "comment.create"
	ActionModerateComment Action = "comment.moderate"
)

// CanPost reports whether actor may perform action on the given post.
// A nil actor is an anonymous request and may mutate nothing.
func CanPost(actor *model.User, action Action, post *model.Post) bool {
	if actor == nil || post == nil {
		return false
	}
	switch action {
	case ActionUpdatePost, ActionDeletePost, ActionDownloadImage:
		return actor.ID == post.AuthorID
	default:
		return false
	}
}

// CanComment reports whether actor may perform a comment action.
// Any authenticated user may comment; only admins moderate.
func CanComment(actor *model.User, action Action) bool {
	if actor == nil {
		return false
	}
	switch action {
	case ActionCreateComment:
		return true
	case ActionModerateComment:
		return actor.IsAdmin()
	default:
		return false
	}
}
