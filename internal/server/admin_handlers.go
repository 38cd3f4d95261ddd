package server

import (
	"strings"

	"editorial/internal/models"
	"editorial/internal/repository"
	"editorial/internal/service"

	"github.com/gofiber/fiber/v2"
)

type tokenRequest struct {
	Username string `json:"username" form:"username"`
	Password string `json:"password" form:"password"`
}

// IssueToken handles POST /api/auth/token: staff credentials for an admin token.
func (s *Server) IssueToken(c *fiber.Ctx) error {
	var req tokenRequest
	if err := c.BodyParser(&req); err != nil {
		return s.respondError(c, models.NewValidationError("Invalid request body"))
	}
	resp, err := s.userService.Login(c.UserContext(), req.Username, req.Password)
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(resp)
}

// GetFeatureFlags handles GET /api/admin/feature-flags
func (s *Server) GetFeatureFlags(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"flags": s.featureFlags.Snapshot(subject(c)),
	})
}

// AdminListTopics handles GET /api/admin/topics?search=
func (s *Server) AdminListTopics(c *fiber.Ctx) error {
	topics, err := s.topicService.AdminList(c.UserContext(), c.Query("search"))
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(topics)
}

// AdminCreateTopic handles POST /api/admin/topics
func (s *Server) AdminCreateTopic(c *fiber.Ctx) error {
	var in service.TopicInput
	if err := c.BodyParser(&in); err != nil {
		return s.respondError(c, models.NewValidationError("Invalid request body"))
	}
	topic, err := s.topicService.Create(c.UserContext(), in)
	if err != nil {
		return s.respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(topic)
}

// AdminUpdateTopic handles PUT /api/admin/topics/:id
func (s *Server) AdminUpdateTopic(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var in service.TopicInput
	if err := c.BodyParser(&in); err != nil {
		return s.respondError(c, models.NewValidationError("Invalid request body"))
	}
	topic, err := s.topicService.Update(c.UserContext(), id, in)
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(topic)
}

// AdminListPosts handles GET /api/admin/posts?status=&topic=&search=
func (s *Server) AdminListPosts(c *fiber.Ctx) error {
	topicID := c.QueryInt("topic", 0)
	if topicID < 0 {
		topicID = 0
	}
	posts, err := s.postService.AdminList(c.UserContext(), service.AdminPostFilter{
		Status:  models.PostStatus(strings.ToLower(strings.TrimSpace(c.Query("status")))),
		TopicID: uint(topicID),
		Search:  c.Query("search"),
	})
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(posts)
}

// AdminGetPost handles GET /api/admin/posts/:id. Comments are listed read-only.
func (s *Server) AdminGetPost(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	post, err := s.postService.AdminGet(c.UserContext(), id)
	if err != nil {
		return s.respondError(c, err)
	}
	comments, err := s.postService.CommentsFor(c.UserContext(), id)
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(fiber.Map{"post": post, "comments": comments})
}

// AdminCreatePost handles POST /api/admin/posts
func (s *Server) AdminCreatePost(c *fiber.Ctx) error {
	var in service.PostInput
	if err := c.BodyParser(&in); err != nil {
		return s.respondError(c, models.NewValidationError("Invalid request body"))
	}
	post, err := s.postService.Create(c.UserContext(), in)
	if err != nil {
		return s.respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(post)
}

// AdminUpdatePost handles PUT /api/admin/posts/:id
func (s *Server) AdminUpdatePost(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var in service.PostInput
	if err := c.BodyParser(&in); err != nil {
		return s.respondError(c, models.NewValidationError("Invalid request body"))
	}
	post, err := s.postService.Update(c.UserContext(), id, in)
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(post)
}

// AdminPublishPost handles POST /api/admin/posts/:id/publish
func (s *Server) AdminPublishPost(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	post, err := s.postService.Publish(c.UserContext(), id)
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(post)
}

// AdminSoftDeletePost handles DELETE /api/admin/posts/:id
func (s *Server) AdminSoftDeletePost(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	if err := s.postService.SoftDelete(c.UserContext(), id); err != nil {
		return s.respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// AdminHardDeletePost handles DELETE /api/admin/posts/:id/purge
func (s *Server) AdminHardDeletePost(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	if err := s.postService.HardDelete(c.UserContext(), id); err != nil {
		return s.respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// AdminListComments handles GET /api/admin/comments?approved=&search=
func (s *Server) AdminListComments(c *fiber.Ctx) error {
	approved, err := queryBool(c, "approved")
	if err != nil {
		return s.respondError(c, err)
	}
	comments, err := s.commentService.List(c.UserContext(), repository.CommentFilter{
		Approved: approved,
		Search:   c.Query("search"),
	})
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(comments)
}

// AdminApproveComment handles POST /api/admin/comments/:id/approve
func (s *Server) AdminApproveComment(c *fiber.Ctx) error {
	return s.setApproved(c, true)
}

// AdminUnapproveComment handles POST /api/admin/comments/:id/unapprove
func (s *Server) AdminUnapproveComment(c *fiber.Ctx) error {
	return s.setApproved(c, false)
}

func (s *Server) setApproved(c *fiber.Ctx, approved bool) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	comment, err := s.commentService.SetApproved(c.UserContext(), id, approved)
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(comment)
}

// AdminListContest handles GET /api/admin/contest
func (s *Server) AdminListContest(c *fiber.Ctx) error {
	entries, err := s.contestService.List(c.UserContext())
	if err != nil {
		return s.respondError(c, err)
	}

	type contestRow struct {
		models.Contest
		URL        string `json:"url"`
		PreviewURL string `json:"preview_url,omitempty"`
	}
	rows := make([]contestRow, 0, len(entries))
	for _, e := range entries {
		row := contestRow{Contest: e, URL: "/media/" + e.Submission}
		if preview := service.PreviewPath(e.Submission); s.media.Exists(preview) {
			row.PreviewURL = "/media/" + preview
		}
		rows = append(rows, row)
	}
	return c.JSON(rows)
}

// AdminListUsers handles GET /api/admin/users
func (s *Server) AdminListUsers(c *fiber.Ctx) error {
	users, err := s.userService.List(c.UserContext())
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(users)
}

// AdminDeleteUser handles DELETE /api/admin/users/:id
func (s *Server) AdminDeleteUser(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	if err := s.userService.Delete(c.UserContext(), id); err != nil {
		return s.respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
