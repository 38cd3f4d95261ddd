package server

import (
	"io"
	"mime/multipart"

	"editorial/internal/models"
	"editorial/internal/service"

	"github.com/gofiber/fiber/v2"
)

// ContestForm handles GET /api/contest
func (s *Server) ContestForm(c *fiber.Ctx) error {
	return s.page(c, fiber.Map{"form": s.contestService.Form()})
}

// SubmitContest handles POST /api/contest. A successful submission queues a
// thank-you message and redirects to the home page.
func (s *Server) SubmitContest(c *fiber.Ctx) error {
	in := service.ContestInput{
		FirstName: c.FormValue("first_name"),
		LastName:  c.FormValue("last_name"),
		Email:     c.FormValue("email"),
	}

	if fh, err := c.FormFile("submission"); err == nil {
		content, err := readUpload(fh, int64(s.config.UploadMaxMB+1)*1024*1024)
		if err != nil {
			return s.respondError(c, models.NewInternalError(err))
		}
		in.Filename = fh.Filename
		in.ContentType = fh.Header.Get(fiber.HeaderContentType)
		in.Content = content
	}

	if _, err := s.contestService.Submit(c.UserContext(), in); err != nil {
		return s.respondError(c, err)
	}

	s.addFlash(c, service.ContestThankYouMessage)
	return c.Redirect("/api/", fiber.StatusSeeOther)
}

func readUpload(fh *multipart.FileHeader, limit int64) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(io.LimitReader(f, limit))
}
