// Package service implements the editorial use cases on top of the repositories.
package service

import (
	"context"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"editorial/internal/cache"
	"editorial/internal/middleware"
	"editorial/internal/models"
	"editorial/internal/observability"
	"editorial/internal/repository"
)

// HomeSize is the number of posts on the home page.
const HomeSize = 3

type PostService struct {
	posts    repository.PostRepository
	comments repository.CommentRepository
	now      func() time.Time
}

// PostDetail is a published post with its approved comments.
type PostDetail struct {
	Post     *models.Post     `json:"post"`
	Comments []models.Comment `json:"comments"`
}

// PostInput is the admin payload for creating or changing a post. An empty
// slug is derived from the title. A nil TopicIDs leaves topics unchanged on update.
type PostInput struct {
	Title     string            `json:"title"`
	Slug      string            `json:"slug"`
	Content   string            `json:"content"`
	AuthorID  uint              `json:"author_id"`
	Status    models.PostStatus `json:"status"`
	Published *time.Time        `json:"published"`
	Deleted   *bool             `json:"deleted"`
	TopicIDs  []uint            `json:"topic_ids"`
}

// AdminPostFilter narrows the admin post list.
type AdminPostFilter struct {
	Status  models.PostStatus
	TopicID uint
	Search  string
}

func NewPostService(posts repository.PostRepository, comments repository.CommentRepository, now func() time.Time) *PostService {
	if now == nil {
		now = time.Now
	}
	return &PostService{posts: posts, comments: comments, now: now}
}

// Home returns the most recently published posts.
func (s *PostService) Home(ctx context.Context) ([]models.Post, error) {
	return s.posts.Find(ctx, repository.NewPostQuery().Published().OrderByPublished().Limit(HomeSize))
}

// List returns every published post, newest created first.
func (s *PostService) List(ctx context.Context) ([]models.Post, error) {
	return s.posts.Find(ctx, repository.NewPostQuery().Published())
}

func (s *PostService) DetailByID(ctx context.Context, id uint) (*PostDetail, error) {
	return s.detail(ctx, repository.NewPostQuery().Published().WithID(id))
}

// DetailByDate finds a published post by slug and the UTC calendar date of its
// publication. Date components that do not form a real date are reported as
// not found.
func (s *PostService) DetailByDate(ctx context.Context, year, month, day, slug string) (*PostDetail, error) {
	date, ok := ParseDate(year, month, day)
	if !ok {
		return nil, models.NewNotFoundError("Post", slug)
	}
	q := repository.NewPostQuery().Published().PublishedOn(date.Year(), date.Month(), date.Day()).WithSlug(slug)
	return s.detail(ctx, q)
}

func (s *PostService) detail(ctx context.Context, q repository.PostQuery) (*PostDetail, error) {
	post, err := s.posts.First(ctx, q)
	if err != nil {
		return nil, err
	}
	comments, err := s.comments.Approved(ctx, post.ID)
	if err != nil {
		return nil, err
	}
	return &PostDetail{Post: post, Comments: comments}, nil
}

// ParseDate validates numeric year, month and day path components.
func ParseDate(year, month, day string) (time.Time, bool) {
	y, err := strconv.Atoi(year)
	if err != nil || y < 1 || y > 9999 {
		return time.Time{}, false
	}
	m, err := strconv.Atoi(month)
	if err != nil || m < 1 || m > 12 {
		return time.Time{}, false
	}
	d, err := strconv.Atoi(day)
	if err != nil || d < 1 {
		return time.Time{}, false
	}
	t := time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
	if t.Day() != d {
		return time.Time{}, false
	}
	return t, true
}

// AdminList lists posts for staff, soft-deleted ones included.
func (s *PostService) AdminList(ctx context.Context, f AdminPostFilter) ([]models.Post, error) {
	q := repository.NewPostQuery()
	if f.Status != "" {
		if f.Status != models.StatusDraft && f.Status != models.StatusPublished {
			return nil, models.NewFieldValidationError(map[string]string{"status": "Select a valid choice."})
		}
		q = q.WithStatus(f.Status)
	}
	if f.TopicID != 0 {
		q = q.WithTopic(f.TopicID)
	}
	return s.posts.AdminPosts(ctx, q.Search(f.Search))
}

func (s *PostService) AdminGet(ctx context.Context, id uint) (*models.Post, error) {
	return s.posts.GetAnyByID(ctx, id)
}

func (s *PostService) Create(ctx context.Context, in PostInput) (*models.Post, error) {
	post := &models.Post{}
	s.apply(post, in)

	topicIDs := in.TopicIDs
	if topicIDs == nil {
		topicIDs = []uint{}
	}
	if err := s.posts.Create(ctx, post, topicIDs); err != nil {
		return nil, err
	}
	if post.IsPublished() {
		observability.PostsPublished.Inc()
	}
	cache.InvalidatePosts(ctx)
	return s.posts.GetAnyByID(ctx, post.ID)
}

func (s *PostService) Update(ctx context.Context, id uint, in PostInput) (*models.Post, error) {
	post, err := s.posts.GetAnyByID(ctx, id)
	if err != nil {
		return nil, err
	}
	wasPublished := post.IsPublished()
	s.apply(post, in)

	if err := s.posts.Update(ctx, post, in.TopicIDs); err != nil {
		return nil, err
	}
	if !wasPublished && post.IsPublished() {
		observability.PostsPublished.Inc()
	}
	cache.InvalidatePosts(ctx)
	return s.posts.GetAnyByID(ctx, id)
}

func (s *PostService) apply(post *models.Post, in PostInput) {
	post.Title = strings.TrimSpace(in.Title)
	post.Slug = strings.TrimSpace(in.Slug)
	if post.Slug == "" {
		post.Slug = models.Slugify(post.Title)
	}
	post.Content = in.Content
	post.AuthorID = in.AuthorID
	post.Deleted = in.Deleted
	post.Author = nil

	switch {
	case in.Status == models.StatusPublished && in.Published == nil && post.Published == nil:
		post.Publish(s.now())
	case in.Status != "":
		post.Status = in.Status
		if in.Published != nil {
			published := in.Published.UTC()
			post.Published = &published
		}
	case in.Published != nil:
		published := in.Published.UTC()
		post.Published = &published
	}
}

// Publish moves a post to published, stamping the publication time from the
// service clock. Publishing an already published post changes nothing.
func (s *PostService) Publish(ctx context.Context, id uint) (*models.Post, error) {
	post, err := s.posts.GetAnyByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if post.IsPublished() {
		return post, nil
	}

	post.Author = nil
	post.Publish(s.now())
	if err := s.posts.Update(ctx, post, nil); err != nil {
		return nil, err
	}

	observability.PostsPublished.Inc()
	cache.InvalidatePosts(ctx)
	middleware.Logger.InfoContext(ctx, "post published",
		slog.Uint64("post_id", uint64(post.ID)),
		slog.String("url", post.URL()),
	)
	return s.posts.GetAnyByID(ctx, id)
}

func (s *PostService) SoftDelete(ctx context.Context, id uint) error {
	if err := s.posts.SoftDelete(ctx, id); err != nil {
		return err
	}
	cache.InvalidatePosts(ctx)
	return nil
}

// HardDelete removes the post and its comments for good.
func (s *PostService) HardDelete(ctx context.Context, id uint) error {
	if err := s.posts.HardDelete(ctx, id); err != nil {
		return err
	}
	cache.InvalidatePosts(ctx)
	middleware.Logger.InfoContext(ctx, "post removed", slog.Uint64("post_id", uint64(id)))
	return nil
}

// CommentsFor lists every comment of a post, approved or not, for the admin post view.
func (s *PostService) CommentsFor(ctx context.Context, id uint) ([]models.Comment, error) {
	if _, err := s.posts.GetAnyByID(ctx, id); err != nil {
		return nil, err
	}
	return s.comments.ForPost(ctx, id)
}
