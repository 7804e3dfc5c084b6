package server

import (
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"banana/internal/models"

	"github.com/gofiber/fiber/v2"
)

func newPostTestApp(s *Server) *fiber.App {
	app := fiber.New()
	app.Post("/post", s.AuthRequired(), s.CreatePost)
	app.Get("/posts", s.GetPosts)
	app.Get("/post/:id", s.GetPost)
	app.Delete("/post/:id", s.AuthRequired(), s.DeletePost)
	return app
}

func authedRequest(t *testing.T, s *Server, userID uint, method, url string, body []byte, contentType string) *http.Request {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, url, reader)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Authorization", "Bearer "+sessionFor(t, s, userID))
	return req
}

func TestCreatePost_JSON(t *testing.T) {
	t.Parallel()

	s := setupTestServer(t)
	app := newPostTestApp(s)
	user := createUser(t, s, "writer")

	body := []byte(`{"title":"제목","content":"본문"}`)
	resp, err := app.Test(authedRequest(t, s, user.ID, http.MethodPost, "/post", body, "application/json"))
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
	if got["message"] != "게시글이 생성되었습니다!" {
		t.Fatalf("unexpected message %v", got["message"])
	}

	var post models.Post
	if err := s.db.First(&post).Error; err != nil {
		t.Fatalf("post row missing: %v", err)
	}
	if post.Title != "제목" || post.UserID != user.ID {
		t.Fatalf("unexpected post row %+v", post)
	}
}

func TestCreatePost_MissingFields(t *testing.T) {
	t.Parallel()

	s := setupTestServer(t)
	app := newPostTestApp(s)
	user := createUser(t, s, "writer")

	for _, body := range []string{
		`{"title":"","content":"본문"}`,
		`{"title":"제목","content":""}`,
		`{}`,
	} {
		resp, err := app.Test(authedRequest(t, s, user.ID, http.MethodPost, "/post", []byte(body), "application/json"))
		if err != nil {
			t.Fatalf("app.Test: %v", err)
		}
		_ = resp.Body.Close()
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("body %s: expected 400, got %d", body, resp.StatusCode)
		}
	}
}

func TestCreatePost_RequiresAuth(t *testing.T) {
	t.Parallel()

	s := setupTestServer(t)
	app := newPostTestApp(s)

	req := httptest.NewRequest(http.MethodPost, "/post", strings.NewReader(`{"title":"t","content":"c"}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 32, 32))
	for y := 0; y < 32; y++ {
		for x := 0; x < 32; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 8), G: uint8(y * 8), B: 100, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func TestCreatePost_MultipartWithImage(t *testing.T) {
	t.Parallel()

	s := setupTestServer(t)
	app := newPostTestApp(s)
	user := createUser(t, s, "writer")

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	if err := w.WriteField("title", "사진 글"); err != nil {
		t.Fatalf("write field: %v", err)
	}
	if err := w.WriteField("content", "사진 있음"); err != nil {
		t.Fatalf("write field: %v", err)
	}
	fw, err := w.CreateFormFile("image", "photo.png")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := fw.Write(pngBytes(t)); err != nil {
		t.Fatalf("write image: %v", err)
	}
	_ = w.Close()

	resp, err := app.Test(authedRequest(t, s, user.ID, http.MethodPost, "/post", body.Bytes(), w.FormDataContentType()))
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
	imageURL, _ := got["image_url"].(string)
	if !strings.HasPrefix(imageURL, "/uploads/") || !strings.HasSuffix(imageURL, ".jpg") {
		t.Fatalf("unexpected image_url %q", imageURL)
	}

	var post models.Post
	if err := s.db.First(&post).Error; err != nil {
		t.Fatalf("post row missing: %v", err)
	}
	if post.ImageURL != imageURL {
		t.Fatalf("image_url not persisted: %q vs %q", post.ImageURL, imageURL)
	}
}

func TestCreatePost_RejectsNonImageUpload(t *testing.T) {
	t.Parallel()

	s := setupTestServer(t)
	app := newPostTestApp(s)
	user := createUser(t, s, "writer")

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	_ = w.WriteField("title", "t")
	_ = w.WriteField("content", "c")
	fw, err := w.CreateFormFile("image", "evil.exe")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	_, _ = fw.Write([]byte("not an image at all"))
	_ = w.Close()

	resp, err := app.Test(authedRequest(t, s, user.ID, http.MethodPost, "/post", body.Bytes(), w.FormDataContentType()))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestGetPosts_NewestFirstWithCounts(t *testing.T) {
	t.Parallel()

	s := setupTestServer(t)
	app := newPostTestApp(s)
	user := createUser(t, s, "writer")

	for _, title := range []string{"첫째", "둘째", "셋째"} {
		if err := s.db.Create(&models.Post{Title: title, Content: "c", UserID: user.ID}).Error; err != nil {
			t.Fatalf("create post: %v", err)
		}
	}
	var last models.Post
	if err := s.db.Order("id DESC").First(&last).Error; err != nil {
		t.Fatalf("load post: %v", err)
	}
	if err := s.db.Create(&models.Comment{Content: "댓글", UserID: user.ID, PostID: last.ID}).Error; err != nil {
		t.Fatalf("create comment: %v", err)
	}

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/posts", nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var got []postResponse
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 posts, got %d", len(got))
	}
	if got[0].Title != "셋째" {
		t.Fatalf("expected newest first, got %q", got[0].Title)
	}
	if got[0].CommentsCount != 1 {
		t.Fatalf("expected comments_count 1, got %d", got[0].CommentsCount)
	}
	if got[0].Author != "writer" {
		t.Fatalf("expected author name, got %q", got[0].Author)
	}
}

func TestGetPost_NotFound(t *testing.T) {
	t.Parallel()

	s := setupTestServer(t)
	app := newPostTestApp(s)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/post/999", nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}

	var body models.ErrorResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Error != "게시글을 찾을 수 없습니다." {
		t.Fatalf("unexpected error message %q", body.Error)
	}
}

func TestDeletePost_OwnerOnly(t *testing.T) {
	t.Parallel()

	s := setupTestServer(t)
	app := newPostTestApp(s)

	owner := createUser(t, s, "owner")
	other := createUser(t, s, "other")

	post := &models.Post{Title: "t", Content: "c", UserID: owner.ID}
	if err := s.db.Create(post).Error; err != nil {
		t.Fatalf("create post: %v", err)
	}
	if err := s.db.Create(&models.Comment{Content: "댓글", UserID: other.ID, PostID: post.ID}).Error; err != nil {
		t.Fatalf("create comment: %v", err)
	}

	// Someone else cannot delete it.
	resp, err := app.Test(authedRequest(t, s, other.ID, http.MethodDelete, "/post/1", nil, ""))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", resp.StatusCode)
	}

	// The owner can, and the comments go with it.
	resp, err = app.Test(authedRequest(t, s, owner.ID, http.MethodDelete, "/post/1", nil, ""))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var posts, comments int64
	if err := s.db.Model(&models.Post{}).Count(&posts).Error; err != nil {
		t.Fatalf("count posts: %v", err)
	}
	if err := s.db.Model(&models.Comment{}).Count(&comments).Error; err != nil {
		t.Fatalf("count comments: %v", err)
	}
	if posts != 0 || comments != 0 {
		t.Fatalf("expected post and comments deleted, got %d posts %d comments", posts, comments)
	}
}

func TestDeletePost_NotFound(t *testing.T) {
	t.Parallel()

	s := setupTestServer(t)
	app := newPostTestApp(s)
	user := createUser(t, s, "someone")

	resp, err := app.Test(authedRequest(t, s, user.ID, http.MethodDelete, "/post/42", nil, ""))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}
