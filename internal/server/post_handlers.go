package server

import (
	"github.com/gofiber/fiber/v2"
)

// Home handles GET /api/ with the latest published posts.
func (s *Server) Home(c *fiber.Ctx) error {
	posts, err := s.postService.Home(c.UserContext())
	if err != nil {
		return s.respondError(c, err)
	}
	return s.page(c, fiber.Map{"posts": posts})
}

// ListPosts handles GET /api/posts
func (s *Server) ListPosts(c *fiber.Ctx) error {
	posts, err := s.postService.List(c.UserContext())
	if err != nil {
		return s.respondError(c, err)
	}
	return s.page(c, fiber.Map{"posts": posts})
}

// GetPost handles GET /api/posts/:id
func (s *Server) GetPost(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	detail, err := s.postService.DetailByID(c.UserContext(), id)
	if err != nil {
		return s.respondError(c, err)
	}
	return s.page(c, fiber.Map{"post": detail.Post, "comments": detail.Comments})
}

// GetPostByDate handles GET /api/posts/:year/:month/:day/:slug
func (s *Server) GetPostByDate(c *fiber.Ctx) error {
	detail, err := s.postService.DetailByDate(c.UserContext(),
		c.Params("year"), c.Params("month"), c.Params("day"), c.Params("slug"))
	if err != nil {
		return s.respondError(c, err)
	}
	return s.page(c, fiber.Map{"post": detail.Post, "comments": detail.Comments})
}
