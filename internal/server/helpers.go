package server

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"editorial/internal/middleware"
	"editorial/internal/models"

	"github.com/gofiber/fiber/v2"
)

const flashCookie = "flash"

// errResponseWritten is a sentinel indicating the HTTP response was already
// committed by a helper. Handlers must return nil (not this error) to avoid
// Fiber's ErrorHandler overwriting the response.
var errResponseWritten = errors.New("response already written")

// parseID extracts a route parameter by name as a positive uint.
// On failure it writes a 404 JSON response and returns errResponseWritten.
func (s *Server) parseID(c *fiber.Ctx, param string) (uint, error) {
	id, err := c.ParamsInt(param)
	if err != nil || id <= 0 {
		_ = s.respondError(c, models.NewNotFoundError("Resource", c.Params(param)))
		return 0, errResponseWritten
	}
	return uint(id), nil
}

// statusForError maps the application error taxonomy onto HTTP status codes.
func statusForError(err error) int {
	switch models.ErrorCode(err) {
	case models.CodeValidation:
		return fiber.StatusBadRequest
	case models.CodeConstraintViolation, models.CodeReferentialIntegrity:
		return fiber.StatusConflict
	case models.CodeNotFound:
		return fiber.StatusNotFound
	case models.CodeUnauthorized:
		return fiber.StatusUnauthorized
	default:
		return fiber.StatusInternalServerError
	}
}

// respondError writes err as JSON. Expected errors are logged at info level,
// everything else at error level.
func (s *Server) respondError(c *fiber.Ctx, err error) error {
	status := statusForError(err)
	attrs := []any{
		slog.String("code", models.ErrorCode(err)),
		slog.String("path", c.Path()),
		slog.String("error", err.Error()),
	}
	if status >= fiber.StatusInternalServerError {
		middleware.Logger.ErrorContext(c.UserContext(), "request error", attrs...)
	} else {
		middleware.Logger.InfoContext(c.UserContext(), "request rejected", attrs...)
	}
	return models.RespondWithError(c, status, err)
}

// page renders a public page: data plus the sidebar and any pending flash
// messages, which are consumed.
func (s *Server) page(c *fiber.Ctx, data fiber.Map) error {
	aside, err := s.asideService.Get(c.UserContext())
	if err != nil {
		return s.respondError(c, err)
	}
	data["aside"] = aside
	data["messages"] = s.takeFlash(c)
	return c.JSON(data)
}

// addFlash queues a message for the next page the client renders.
func (s *Server) addFlash(c *fiber.Ctx, msg string) {
	messages := append(readFlash(c.Cookies(flashCookie)), msg)
	raw, err := json.Marshal(messages)
	if err != nil {
		return
	}
	c.Cookie(s.flashCookie(base64.RawURLEncoding.EncodeToString(raw)))
}

// takeFlash returns the pending messages and expires the cookie. The expired
// cookie must carry the same path as the one set by addFlash or browsers keep it.
func (s *Server) takeFlash(c *fiber.Ctx) []string {
	messages := readFlash(c.Cookies(flashCookie))
	if len(messages) > 0 {
		expired := s.flashCookie("")
		expired.Expires = time.Unix(0, 0)
		expired.MaxAge = -1
		c.Cookie(expired)
	}
	return messages
}

func (s *Server) flashCookie(value string) *fiber.Cookie {
	return &fiber.Cookie{
		Name:     flashCookie,
		Value:    value,
		Path:     "/",
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
		Secure:   s.config.IsProduction(),
	}
}

func readFlash(value string) []string {
	messages := []string{}
	if value == "" {
		return messages
	}
	raw, err := base64.RawURLEncoding.DecodeString(value)
	if err != nil {
		return messages
	}
	_ = json.Unmarshal(raw, &messages)
	return messages
}

// subject identifies the caller for feature-flag rollouts.
func subject(c *fiber.Ctx) string {
	if sid, ok := c.Locals("staffID").(uint); ok {
		return fmt.Sprintf("staff:%d", sid)
	}
	return "ip:" + c.IP()
}

// FeatureRequired answers 404 while the named public feature is switched off.
func (s *Server) FeatureRequired(name string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !s.featureFlags.Enabled(name, subject(c)) {
			return s.respondError(c, models.NewNotFoundError("Page", c.Path()))
		}
		return c.Next()
	}
}

// staffStillActive runs after the token check and rejects accounts that were
// deleted or demoted since the token was issued.
func (s *Server) staffStillActive(c *fiber.Ctx) error {
	staffID, _ := c.Locals("staffID").(uint)
	user, err := s.userRepo.GetByID(c.UserContext(), staffID)
	if err != nil || !user.IsStaff {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "Staff access required",
		})
	}
	return c.Next()
}

func queryBool(c *fiber.Ctx, key string) (*bool, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return nil, nil
	}
	switch strings.ToLower(raw) {
	case "1", "true", "yes":
		return models.Bool(true), nil
	case "0", "false", "no":
		return models.Bool(false), nil
	}
	return nil, models.NewFieldValidationError(map[string]string{key: "Select a valid choice."})
}
