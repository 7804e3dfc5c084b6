package server

import (
	"errors"

	"banana/internal/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

const commentTimeLayout = "2006-01-02 15:04:05"

// CreateComment handles POST /post/:id/comment
func (s *Server) CreateComment(c *fiber.Ctx) error {
	ctx := c.UserContext()
	userID := c.Locals("userID").(uint)

	postID, err := c.ParamsInt("id")
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("잘못된 게시글 ID입니다."))
	}

	var req struct {
		Content string `json:"content"`
	}
	if err := c.BodyParser(&req); err != nil || req.Content == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("댓글 내용을 입력하세요."))
	}

	if _, err := s.postRepo.GetByID(ctx, uint(postID)); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.RespondWithError(c, fiber.StatusNotFound,
				models.NewNotFoundError("게시글을 찾을 수 없습니다."))
		}
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	comment := &models.Comment{
		PostID:  uint(postID),
		UserID:  userID,
		Content: req.Content,
	}
	if err := s.commentRepo.Create(ctx, comment); err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	return c.JSON(fiber.Map{"message": "댓글이 추가되었습니다!"})
}

// GetComments handles GET /post/:id/comments
func (s *Server) GetComments(c *fiber.Ctx) error {
	ctx := c.UserContext()

	postID, err := c.ParamsInt("id")
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("잘못된 게시글 ID입니다."))
	}

	if _, err := s.postRepo.GetByID(ctx, uint(postID)); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.RespondWithError(c, fiber.StatusNotFound,
				models.NewNotFoundError("게시글을 찾을 수 없습니다."))
		}
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	comments, err := s.commentRepo.ListByPost(ctx, uint(postID))
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	resp := make([]fiber.Map, 0, len(comments))
	for _, cm := range comments {
		resp = append(resp, fiber.Map{
			"id":         cm.ID,
			"content":    cm.Content,
			"author":     cm.User.Name,
			"created_at": cm.CreatedAt.Format(commentTimeLayout),
		})
	}
	return c.JSON(resp)
}

// DeleteComment handles DELETE /comment/:id (author only)
func (s *Server) DeleteComment(c *fiber.Ctx) error {
	ctx := c.UserContext()
	userID := c.Locals("userID").(uint)

	id, err := c.ParamsInt("id")
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("잘못된 댓글 ID입니다."))
	}

	comment, err := s.commentRepo.GetByID(ctx, uint(id))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.RespondWithError(c, fiber.StatusNotFound,
			models.NewNotFoundError("댓글을 찾을 수 없습니다."))
	}
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	if comment.UserID != userID {
		return models.RespondWithError(c, fiber.StatusForbidden,
			models.NewForbiddenError("댓글 삭제 권한이 없습니다."))
	}

	if err := s.commentRepo.Delete(ctx, comment.ID); err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	return c.JSON(fiber.Map{"message": "댓글이 삭제되었습니다!"})
}
