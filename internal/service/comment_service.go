package service

import (
	"context"
	"log/slog"
	"strings"

	"editorial/internal/middleware"
	"editorial/internal/models"
	"editorial/internal/notifications"
	"editorial/internal/observability"
	"editorial/internal/repository"
)

type CommentService struct {
	posts    repository.PostRepository
	comments repository.CommentRepository
	events   *notifications.Notifier
}

// CommentInput is a reader's comment submission.
type CommentInput struct {
	Name  string `json:"name" form:"name"`
	Email string `json:"email" form:"email"`
	Text  string `json:"text" form:"text"`
}

// NewCommentService builds the service. events may be nil.
func NewCommentService(posts repository.PostRepository, comments repository.CommentRepository, events *notifications.Notifier) *CommentService {
	return &CommentService{posts: posts, comments: comments, events: events}
}

// Submit stores an unapproved comment on a visible, published post.
func (s *CommentService) Submit(ctx context.Context, postID uint, in CommentInput) (*models.Comment, error) {
	post, err := s.posts.First(ctx, repository.NewPostQuery().Published().WithID(postID))
	if err != nil {
		return nil, err
	}

	comment := &models.Comment{
		PostID: post.ID,
		Name:   strings.TrimSpace(in.Name),
		Email:  strings.TrimSpace(in.Email),
		Text:   strings.TrimSpace(in.Text),
	}
	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, err
	}

	observability.CommentsSubmitted.Inc()
	middleware.Logger.InfoContext(ctx, "comment submitted",
		slog.Uint64("post_id", uint64(post.ID)),
		slog.Uint64("comment_id", uint64(comment.ID)),
	)
	err = s.events.Publish(ctx, notifications.ChannelComments, notifications.Event{
		Kind:    notifications.KindCommentPending,
		ID:      comment.ID,
		PostID:  post.ID,
		Summary: comment.Name + " on " + post.Title,
		At:      comment.Created,
	})
	if err != nil {
		middleware.Logger.WarnContext(ctx, "moderation event not published", slog.String("error", err.Error()))
	}
	return comment, nil
}

func (s *CommentService) List(ctx context.Context, f repository.CommentFilter) ([]models.Comment, error) {
	return s.comments.List(ctx, f)
}

// SetApproved is the only change moderators can make to a comment.
func (s *CommentService) SetApproved(ctx context.Context, id uint, approved bool) (*models.Comment, error) {
	return s.comments.SetApproved(ctx, id, approved)
}
