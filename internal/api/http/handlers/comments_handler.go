package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/systemcontrol/defect-service/internal/api/dto"
	"github.com/systemcontrol/defect-service/internal/auth"
	"github.com/systemcontrol/defect-service/internal/domain"
	"github.com/systemcontrol/defect-service/internal/service"
	apperrors "github.com/systemcontrol/defect-service/pkg/util"
)

// CommentsHandler exposes defect comment threads.
type CommentsHandler struct {
	service *service.CommentService
}

// NewCommentsHandler constructs handler.
func NewCommentsHandler(commentService *service.CommentService) *CommentsHandler {
	return &CommentsHandler{service: commentService}
}

// Create POST /defects/:id/comments.
func (h *CommentsHandler) Create(c *fiber.Ctx) error {
	defectID, err := parseID(c)
	if err != nil {
		return err
	}
	var req dto.CreateCommentRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	comment, err := h.service.Create(c.UserContext(), defectID, auth.ActorID(c), req.Content)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(commentResponse(comment))
}

// List GET /defects/:id/comments.
func (h *CommentsHandler) List(c *fiber.Ctx) error {
	defectID, err := parseID(c)
	if err != nil {
		return err
	}
	comments, err := h.service.ListByDefect(c.UserContext(), defectID)
	if err != nil {
		return err
	}
	items := make([]dto.CommentResponse, 0, len(comments))
	for i := range comments {
		items = append(items, commentResponse(&comments[i]))
	}
	return c.JSON(items)
}

// Delete DELETE /comments/:id.
func (h *CommentsHandler) Delete(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	if err := h.service.Delete(c.UserContext(), id); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func commentResponse(comment *domain.Comment) dto.CommentResponse {
	return dto.CommentResponse{
		ID:        comment.ID,
		DefectID:  comment.DefectID,
		AuthorID:  comment.AuthorID,
		Content:   comment.Content,
		CreatedAt: comment.CreatedAt,
	}
}
