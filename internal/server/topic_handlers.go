package server

import (
	"github.com/gofiber/fiber/v2"
)

// ListTopics handles GET /api/topics
func (s *Server) ListTopics(c *fiber.Ctx) error {
	topics, err := s.topicService.List(c.UserContext())
	if err != nil {
		return s.respondError(c, err)
	}
	return s.page(c, fiber.Map{"topics": topics})
}

// GetTopic handles GET /api/topics/:id
func (s *Server) GetTopic(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	detail, err := s.topicService.Detail(c.UserContext(), id)
	if err != nil {
		return s.respondError(c, err)
	}
	return s.page(c, fiber.Map{"topic": detail.Topic, "posts": detail.Posts})
}

// GetTopicBySlug handles GET /api/topics/slug/:slug
func (s *Server) GetTopicBySlug(c *fiber.Ctx) error {
	detail, err := s.topicService.DetailBySlug(c.UserContext(), c.Params("slug"))
	if err != nil {
		return s.respondError(c, err)
	}
	return s.page(c, fiber.Map{"topic": detail.Topic, "posts": detail.Posts})
}
