package server

import (
	"editorial/internal/models"
	"editorial/internal/service"

	"github.com/gofiber/fiber/v2"
)

// SubmitComment handles POST /api/posts/:id/comments. Comments wait for
// moderation before they are shown.
func (s *Server) SubmitComment(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var in service.CommentInput
	if err := c.BodyParser(&in); err != nil {
		return s.respondError(c, models.NewValidationError("Invalid request body"))
	}

	comment, err := s.commentService.Submit(c.UserContext(), id, in)
	if err != nil {
		return s.respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"comment": comment,
		"message": "Your comment is awaiting moderation.",
	})
}
