package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF decoder
	_ "image/jpeg" // Register JPEG decoder
	_ "image/png"  // Register PNG decoder
	"log/slog"
	"net/http"
	"strings"

	"editorial/internal/middleware"
	"editorial/internal/models"
	"editorial/internal/notifications"
	"editorial/internal/observability"
	"editorial/internal/repository"

	"github.com/google/uuid"
	_ "golang.org/x/image/webp" // Register WebP decoder
)

const (
	ContestUploadDir           = "contest"
	DefaultContestMaxUploadMB  = 10
	ContestPreviewMaxSize      = 640
	ContestPreviewWebPQuality  = 70
	ContestThankYouMessage     = "Thank you for submitting your entry to the Photo Contest!"
	invalidImageMessage        = "Upload a valid image. The file you uploaded was either not an image or a corrupted image."
	requiredFieldMessage       = "This field is required."
	contestSubmissionFieldName = "submission"
)

// ContestInput is a photo contest submission. Content holds the uploaded file.
type ContestInput struct {
	FirstName   string
	LastName    string
	Email       string
	Filename    string
	ContentType string
	Content     []byte
}

// FormField describes one input of a public form.
type FormField struct {
	Name      string `json:"name"`
	Type      string `json:"type"`
	Required  bool   `json:"required"`
	MaxLength int    `json:"max_length,omitempty"`
}

// ContestForm describes the contest submission form.
type ContestForm struct {
	Action  string      `json:"action"`
	Method  string      `json:"method"`
	Enctype string      `json:"enctype"`
	Fields  []FormField `json:"fields"`
}

type ContestService struct {
	repo           repository.ContestRepository
	media          *MediaStore
	maxUploadBytes int64
	events         *notifications.Notifier
}

func NewContestService(repo repository.ContestRepository, media *MediaStore, maxUploadMB int, events *notifications.Notifier) *ContestService {
	if maxUploadMB <= 0 {
		maxUploadMB = DefaultContestMaxUploadMB
	}
	return &ContestService{
		repo:           repo,
		media:          media,
		maxUploadBytes: int64(maxUploadMB) * 1024 * 1024,
		events:         events,
	}
}

// Form returns the submission form schema.
func (s *ContestService) Form() ContestForm {
	return ContestForm{
		Action:  "/api/contest",
		Method:  http.MethodPost,
		Enctype: "multipart/form-data",
		Fields: []FormField{
			{Name: "first_name", Type: "text", Required: true, MaxLength: 50},
			{Name: "last_name", Type: "text", Required: true, MaxLength: 50},
			{Name: "email", Type: "email", Required: true, MaxLength: 100},
			{Name: contestSubmissionFieldName, Type: "file", Required: true},
		},
	}
}

// Submit validates and stores a contest entry. All field errors are reported
// together and nothing is stored when any field is invalid.
func (s *ContestService) Submit(ctx context.Context, in ContestInput) (*models.Contest, error) {
	entry := &models.Contest{
		FirstName:  strings.TrimSpace(in.FirstName),
		LastName:   strings.TrimSpace(in.LastName),
		Email:      strings.TrimSpace(in.Email),
		Submission: ContestUploadDir + "/pending",
	}

	fields := map[string]string{}
	if err := models.Validate(entry); err != nil {
		var appErr *models.AppError
		if !errors.As(err, &appErr) {
			return nil, err
		}
		for k, v := range appErr.Fields {
			fields[k] = v
		}
	}
	img, format, msg := s.decode(in)
	if msg != "" {
		fields[contestSubmissionFieldName] = msg
	}
	if len(fields) > 0 {
		observability.ContestSubmissions.WithLabelValues("rejected").Inc()
		return nil, models.NewFieldValidationError(fields)
	}

	id := uuid.NewString()
	stored, err := s.media.Save(ContestUploadDir, id+"."+format, in.Content)
	if err != nil {
		return nil, models.NewInternalError(fmt.Errorf("store contest upload: %w", err))
	}
	preview := s.writePreview(ctx, id, img)

	entry.Submission = stored
	if err := s.repo.Create(ctx, entry); err != nil {
		s.media.Remove(stored, preview)
		observability.ContestSubmissions.WithLabelValues("rejected").Inc()
		return nil, err
	}

	observability.ContestSubmissions.WithLabelValues("accepted").Inc()
	middleware.Logger.InfoContext(ctx, "contest entry received",
		slog.Uint64("contest_id", uint64(entry.ID)),
		slog.String("submission", entry.Submission),
	)
	err = s.events.Publish(ctx, notifications.ChannelContest, notifications.Event{
		Kind:    notifications.KindContestEntry,
		ID:      entry.ID,
		Summary: entry.FirstName + " " + entry.LastName,
		At:      entry.SubmittedDate,
	})
	if err != nil {
		middleware.Logger.WarnContext(ctx, "moderation event not published", slog.String("error", err.Error()))
	}
	return entry, nil
}

func (s *ContestService) List(ctx context.Context) ([]models.Contest, error) {
	return s.repo.List(ctx)
}

// decode checks the upload is a supported image. It returns a field message on failure.
func (s *ContestService) decode(in ContestInput) (image.Image, string, string) {
	if len(in.Content) == 0 {
		return nil, "", requiredFieldMessage
	}
	if int64(len(in.Content)) > s.maxUploadBytes {
		return nil, "", fmt.Sprintf("File too large (max %dMB).", s.maxUploadBytes/(1024*1024))
	}
	if !isAllowedImageMIME(http.DetectContentType(in.Content)) {
		return nil, "", invalidImageMessage
	}
	img, format, err := image.Decode(bytes.NewReader(in.Content))
	if err != nil {
		return nil, "", invalidImageMessage
	}
	switch format {
	case "jpeg", "png", "gif", "webp":
		return img, format, ""
	default:
		return nil, "", invalidImageMessage
	}
}

// writePreview stores a downscaled WebP copy next to the upload. Failures are
// logged and leave the entry without a preview.
func (s *ContestService) writePreview(ctx context.Context, id string, img image.Image) string {
	data, err := encodeWebP(resizeToFit(img, ContestPreviewMaxSize, ContestPreviewMaxSize), ContestPreviewWebPQuality)
	if err == nil {
		var rel string
		if rel, err = s.media.Save(ContestUploadDir, id+".preview.webp", data); err == nil {
			return rel
		}
	}
	middleware.Logger.WarnContext(ctx, "contest preview failed", slog.String("error", err.Error()))
	return ""
}

// PreviewPath returns the relative path of the WebP preview for a stored submission.
func PreviewPath(submission string) string {
	dot := strings.LastIndex(submission, ".")
	if dot < 0 {
		return submission + ".preview.webp"
	}
	return submission[:dot] + ".preview.webp"
}

func isAllowedImageMIME(contentType string) bool {
	switch contentType {
	case "image/jpeg", "image/png", "image/gif", "image/webp":
		return true
	default:
		return false
	}
}
