package handler

import (
	"fmt"
	"net/http"
	"net/url"
	"testing"
	"time"

	"goblog/internal/model"
	"goblog/internal/store"
)

func commentActionURL(id int64, action string) string {
	return fmt.Sprintf("/admin/comments/%d/%s", id, action)
}

func TestModerationRequiresAdmin(t *testing.T) {
	app := newTestApp(t)
	app.createUser(t, "member", "member-password", model.RoleMember)

	srv, client := app.serve(t)
	login(t, srv, client, "member", "member-password")

	status, _ := getBody(t, client, srv.URL+"/admin/comments")
	if status != http.StatusForbidden {
		t.Fatalf("member on moderation queue: got status %d, want 403", status)
	}
}

func TestModerationFlow(t *testing.T) {
	app := newTestApp(t)
	admin := app.createUser(t, "boss", "admin-password", model.RoleAdmin)
	commenter := app.createUser(t, "chatty", "chatty-password", model.RoleMember)
	post := app.createPost(t, admin.ID, "Busy Post", model.PostStatusPublished, time.Now())

	comment, err := app.queries.CreateComment(t.Context(), store.CreateCommentParams{
		PostID:    post.ID,
		AuthorID:  commenter.ID,
		Content:   "Questionable remark",
		Approved:  true,
		CreatedAt: time.Now(),
	})
	if err != nil {
		t.Fatalf("creating comment: %v", err)
	}

	srv, client := app.serve(t)
	login(t, srv, client, "boss", "admin-password")

	// The queue lists the comment with its author and post.
	status, body := getBody(t, client, srv.URL+"/admin/comments")
	if status != http.StatusOK {
		t.Fatalf("queue: got status %d", status)
	}
	assertContains(t, body, "Questionable remark")
	assertContains(t, body, "chatty")
	assertContains(t, body, "Busy Post")

	// Rejecting hides it from the post page but keeps the record.
	resp, err := client.PostForm(srv.URL+commentActionURL(comment.ID, "reject"), url.Values{})
	if err != nil {
		t.Fatalf("reject: %v", err)
	}
	resp.Body.Close()

	_, body = getBody(t, client, srv.URL+postURL(post.ID))
	assertNotContains(t, body, "Questionable remark")
	if _, err := app.queries.GetCommentByID(t.Context(), comment.ID); err != nil {
		t.Fatal("rejected comment must still exist")
	}

	// Approving brings it back.
	resp, err = client.PostForm(srv.URL+commentActionURL(comment.ID, "approve"), url.Values{})
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	resp.Body.Close()

	_, body = getBody(t, client, srv.URL+postURL(post.ID))
	assertContains(t, body, "Questionable remark")

	// Deleting removes it for good.
	resp, err = client.PostForm(srv.URL+commentActionURL(comment.ID, "delete"), url.Values{})
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	resp.Body.Close()

	if _, err := app.queries.GetCommentByID(t.Context(), comment.ID); err == nil {
		t.Fatal("deleted comment should be gone")
	}
}

func TestModerationUnknownComment(t *testing.T) {
	app := newTestApp(t)
	app.createUser(t, "boss", "admin-password", model.RoleAdmin)

	srv, client := app.serve(t)
	login(t, srv, client, "boss", "admin-password")

	resp, err := client.PostForm(srv.URL+commentActionURL(12345, "approve"), url.Values{})
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("got status %d, want 404", resp.StatusCode)
	}
}
