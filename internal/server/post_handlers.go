package server

import (
	"errors"
	"io"
	"mime/multipart"
	"strings"
	"time"

	"banana/internal/models"
	"banana/internal/observability"
	"banana/internal/storage"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// postResponse is the public shape of a post.
type postResponse struct {
	ID            uint   `json:"id"`
	Title         string `json:"title"`
	Content       string `json:"content"`
	Author        string `json:"author"`
	ImageURL      string `json:"image_url,omitempty"`
	CommentsCount int    `json:"comments_count"`
	CreatedAt     string `json:"created_at"`
}

func newPostResponse(p *models.Post) postResponse {
	return postResponse{
		ID:            p.ID,
		Title:         p.Title,
		Content:       p.Content,
		Author:        p.User.Name,
		ImageURL:      p.ImageURL,
		CommentsCount: p.CommentsCount,
		CreatedAt:     p.CreatedAt.Format(time.RFC3339),
	}
}

// CreatePost handles POST /post. The body is either JSON {title, content} or
// a multipart form with an optional image file; an attached image is pushed
// through the storage pipeline before the row is inserted.
func (s *Server) CreatePost(c *fiber.Ctx) error {
	ctx := c.UserContext()
	userID := c.Locals("userID").(uint)

	var title, content string
	var imageFile *multipart.FileHeader

	if strings.HasPrefix(c.Get("Content-Type"), "multipart/form-data") {
		title = c.FormValue("title")
		content = c.FormValue("content")
		if fh, err := c.FormFile("image"); err == nil {
			imageFile = fh
		}
	} else {
		var req struct {
			Title   string `json:"title"`
			Content string `json:"content"`
		}
		if err := c.BodyParser(&req); err != nil {
			return models.RespondWithError(c, fiber.StatusBadRequest,
				models.NewValidationError("잘못된 요청입니다."))
		}
		title = req.Title
		content = req.Content
	}

	if title == "" || content == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("제목과 내용을 입력하세요."))
	}

	imageURL := ""
	if imageFile != nil {
		url, err := s.saveImage(imageFile)
		if err != nil {
			if errors.Is(err, storage.ErrTooLarge) || errors.Is(err, storage.ErrUnsupportedFormat) {
				observability.ImageUploads.WithLabelValues("rejected").Inc()
				return models.RespondWithError(c, fiber.StatusBadRequest,
					models.NewValidationError("지원하지 않는 이미지입니다."))
			}
			observability.ImageUploads.WithLabelValues("failure").Inc()
			return models.RespondWithError(c, fiber.StatusInternalServerError,
				models.NewUpstreamError("이미지 업로드 실패", err))
		}
		observability.ImageUploads.WithLabelValues("success").Inc()
		imageURL = url
	}

	post := &models.Post{
		Title:    title,
		Content:  content,
		ImageURL: imageURL,
		UserID:   userID,
	}
	if err := s.postRepo.Create(ctx, post); err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	resp := fiber.Map{"message": "게시글이 생성되었습니다!"}
	if imageURL != "" {
		resp["image_url"] = imageURL
	}
	return c.JSON(resp)
}

func (s *Server) saveImage(fh *multipart.FileHeader) (string, error) {
	f, err := fh.Open()
	if err != nil {
		return "", err
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return "", err
	}
	return s.images.Save(data)
}

// GetPosts handles GET /posts
func (s *Server) GetPosts(c *fiber.Ctx) error {
	ctx := c.UserContext()
	limit := c.QueryInt("limit", 20)
	offset := c.QueryInt("offset", 0)

	posts, err := s.postRepo.List(ctx, limit, offset)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	resp := make([]postResponse, 0, len(posts))
	for _, p := range posts {
		resp = append(resp, newPostResponse(p))
	}
	return c.JSON(resp)
}

// GetPost handles GET /post/:id
func (s *Server) GetPost(c *fiber.Ctx) error {
	ctx := c.UserContext()
	id, err := c.ParamsInt("id")
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("잘못된 게시글 ID입니다."))
	}

	post, err := s.postRepo.GetByID(ctx, uint(id))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.RespondWithError(c, fiber.StatusNotFound,
			models.NewNotFoundError("게시글을 찾을 수 없습니다."))
	}
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	return c.JSON(newPostResponse(post))
}

// DeletePost handles DELETE /post/:id (owner only; comments go with the post)
func (s *Server) DeletePost(c *fiber.Ctx) error {
	ctx := c.UserContext()
	userID := c.Locals("userID").(uint)

	id, err := c.ParamsInt("id")
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("잘못된 게시글 ID입니다."))
	}

	post, err := s.postRepo.GetByID(ctx, uint(id))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.RespondWithError(c, fiber.StatusNotFound,
			models.NewNotFoundError("게시글을 찾을 수 없습니다."))
	}
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	if post.UserID != userID {
		return models.RespondWithError(c, fiber.StatusForbidden,
			models.NewForbiddenError("게시글 삭제 권한이 없습니다."))
	}

	if err := s.postRepo.Delete(ctx, post.ID); err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	return c.JSON(fiber.Map{"message": "게시글이 삭제되었습니다."})
}
