package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"
	"time"

	"banana/internal/models"

	"github.com/gofiber/fiber/v2"
)

func newCommentTestApp(s *Server) *fiber.App {
	app := fiber.New()
	app.Post("/post/:id/comment", s.AuthRequired(), s.CreateComment)
	app.Get("/post/:id/comments", s.GetComments)
	app.Delete("/comment/:id", s.AuthRequired(), s.DeleteComment)
	return app
}

func createPost(t *testing.T, s *Server, userID uint) *models.Post {
	t.Helper()
	post := &models.Post{Title: "글", Content: "내용", UserID: userID}
	if err := s.db.Create(post).Error; err != nil {
		t.Fatalf("create post: %v", err)
	}
	return post
}

func TestCreateComment(t *testing.T) {
	t.Parallel()

	s := setupTestServer(t)
	app := newCommentTestApp(s)

	author := createUser(t, s, "author")
	commenter := createUser(t, s, "commenter")
	post := createPost(t, s, author.ID)

	body := []byte(`{"content":"좋은 글이네요"}`)
	resp, err := app.Test(authedRequest(t, s, commenter.ID, http.MethodPost, "/post/1/comment", body, "application/json"))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var got fiber.Map
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if got["message"] != "댓글이 추가되었습니다!" {
		t.Fatalf("unexpected message %v", got["message"])
	}

	var comment models.Comment
	if err := s.db.First(&comment).Error; err != nil {
		t.Fatalf("comment row missing: %v", err)
	}
	if comment.PostID != post.ID || comment.UserID != commenter.ID {
		t.Fatalf("unexpected comment row %+v", comment)
	}
}

func TestCreateComment_EmptyContent(t *testing.T) {
	t.Parallel()

	s := setupTestServer(t)
	app := newCommentTestApp(s)

	user := createUser(t, s, "user")
	createPost(t, s, user.ID)

	for _, body := range []string{`{"content":""}`, `{}`, `not json`} {
		resp, err := app.Test(authedRequest(t, s, user.ID, http.MethodPost, "/post/1/comment", []byte(body), "application/json"))
		if err != nil {
			t.Fatalf("app.Test: %v", err)
		}
		_ = resp.Body.Close()
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("body %s: expected 400, got %d", body, resp.StatusCode)
		}
	}
}

func TestCreateComment_PostNotFound(t *testing.T) {
	t.Parallel()

	s := setupTestServer(t)
	app := newCommentTestApp(s)
	user := createUser(t, s, "user")

	body := []byte(`{"content":"유령 글에 댓글"}`)
	resp, err := app.Test(authedRequest(t, s, user.ID, http.MethodPost, "/post/999/comment", body, "application/json"))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestGetComments_FormatAndOrder(t *testing.T) {
	t.Parallel()

	s := setupTestServer(t)
	app := newCommentTestApp(s)

	author := createUser(t, s, "author")
	post := createPost(t, s, author.ID)

	older := &models.Comment{Content: "먼저 쓴 댓글", UserID: author.ID, PostID: post.ID, CreatedAt: time.Now().Add(-time.Hour)}
	newer := &models.Comment{Content: "나중 댓글", UserID: author.ID, PostID: post.ID, CreatedAt: time.Now()}
	if err := s.db.Create(newer).Error; err != nil {
		t.Fatalf("create comment: %v", err)
	}
	if err := s.db.Create(older).Error; err != nil {
		t.Fatalf("create comment: %v", err)
	}

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/post/1/comments", nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var got []struct {
		ID        uint   `json:"id"`
		Content   string `json:"content"`
		Author    string `json:"author"`
		CreatedAt string `json:"created_at"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 comments, got %d", len(got))
	}
	if got[0].Content != "먼저 쓴 댓글" {
		t.Fatalf("expected oldest first, got %q", got[0].Content)
	}
	if got[0].Author != "author" {
		t.Fatalf("unexpected author %q", got[0].Author)
	}

	timestampFormat := regexp.MustCompile(`^\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2}$`)
	if !timestampFormat.MatchString(got[0].CreatedAt) {
		t.Fatalf("unexpected created_at format %q", got[0].CreatedAt)
	}
}

func TestGetComments_PostNotFound(t *testing.T) {
	t.Parallel()

	s := setupTestServer(t)
	app := newCommentTestApp(s)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/post/999/comments", nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestDeleteComment_AuthorOnly(t *testing.T) {
	t.Parallel()

	s := setupTestServer(t)
	app := newCommentTestApp(s)

	author := createUser(t, s, "author")
	other := createUser(t, s, "other")
	post := createPost(t, s, author.ID)

	comment := &models.Comment{Content: "내 댓글", UserID: author.ID, PostID: post.ID}
	if err := s.db.Create(comment).Error; err != nil {
		t.Fatalf("create comment: %v", err)
	}

	resp, err := app.Test(authedRequest(t, s, other.ID, http.MethodDelete, "/comment/1", nil, ""))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", resp.StatusCode)
	}

	resp, err = app.Test(authedRequest(t, s, author.ID, http.MethodDelete, "/comment/1", nil, ""))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var got fiber.Map
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if got["message"] != "댓글이 삭제되었습니다!" {
		t.Fatalf("unexpected message %v", got["message"])
	}

	var count int64
	if err := s.db.Model(&models.Comment{}).Count(&count).Error; err != nil {
		t.Fatalf("count comments: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected 0 comments, got %d", count)
	}
}

func TestDeleteComment_NotFound(t *testing.T) {
	t.Parallel()

	s := setupTestServer(t)
	app := newCommentTestApp(s)
	user := createUser(t, s, "user")

	resp, err := app.Test(authedRequest(t, s, user.ID, http.MethodDelete, "/comment/999", nil, ""))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}
