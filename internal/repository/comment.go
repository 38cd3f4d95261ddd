package repository

import (
	"context"
	"strings"

	"editorial/internal/models"

	"gorm.io/gorm"
)

// CommentFilter selects comments for moderation. A nil Approved matches both states.
type CommentFilter struct {
	Approved *bool
	Search   string
}

// CommentRepository defines persistence operations for comments.
type CommentRepository interface {
	Create(ctx context.Context, comment *models.Comment) error
	// Approved lists the approved comments of a post, newest first.
	Approved(ctx context.Context, postID uint) ([]models.Comment, error)
	ForPost(ctx context.Context, postID uint) ([]models.Comment, error)
	List(ctx context.Context, f CommentFilter) ([]models.Comment, error)
	SetApproved(ctx context.Context, id uint, approved bool) (*models.Comment, error)
}

type commentRepository struct {
	db *gorm.DB
}

// NewCommentRepository returns a new CommentRepository implementation.
func NewCommentRepository(db *gorm.DB) CommentRepository {
	return &commentRepository{db: db}
}

func newestFirst(db *gorm.DB) *gorm.DB {
	return db.Order("comments.created DESC").Order("comments.id DESC")
}

func (r *commentRepository) Create(ctx context.Context, comment *models.Comment) error {
	if err := models.Validate(comment); err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).Omit("Post").Create(comment).Error; err != nil {
		return translateError(err, "Comment", comment.ID)
	}
	return nil
}

func (r *commentRepository) Approved(ctx context.Context, postID uint) ([]models.Comment, error) {
	comments := []models.Comment{}
	err := r.db.WithContext(ctx).
		Scopes(newestFirst).
		Where("post_id = ? AND approved = ?", postID, true).
		Find(&comments).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return comments, nil
}

func (r *commentRepository) ForPost(ctx context.Context, postID uint) ([]models.Comment, error) {
	comments := []models.Comment{}
	if err := r.db.WithContext(ctx).Scopes(newestFirst).Where("post_id = ?", postID).Find(&comments).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return comments, nil
}

// List returns comments for moderation with their post. Search matches name,
// email, text and post title.
func (r *commentRepository) List(ctx context.Context, f CommentFilter) ([]models.Comment, error) {
	db := r.db.WithContext(ctx).Model(&models.Comment{}).Scopes(newestFirst).Preload("Post")
	if f.Approved != nil {
		db = db.Where("comments.approved = ?", *f.Approved)
	}
	if term := strings.TrimSpace(f.Search); term != "" {
		pattern := "%" + strings.ToLower(term) + "%"
		titles := r.db.WithContext(ctx).Table("posts").Select("id").Where("LOWER(title) LIKE ?", pattern)
		db = db.Where(
			"LOWER(comments.name) LIKE ? OR LOWER(comments.email) LIKE ? OR LOWER(comments.text) LIKE ? OR comments.post_id IN (?)",
			pattern, pattern, pattern, titles,
		)
	}

	comments := []models.Comment{}
	if err := db.Find(&comments).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return comments, nil
}

// SetApproved changes only the moderation flag.
func (r *commentRepository) SetApproved(ctx context.Context, id uint, approved bool) (*models.Comment, error) {
	res := r.db.WithContext(ctx).Model(&models.Comment{}).Where("id = ?", id).Update("approved", approved)
	if res.Error != nil {
		return nil, models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, models.NewNotFoundError("Comment", id)
	}

	var c models.Comment
	if err := r.db.WithContext(ctx).Take(&c, id).Error; err != nil {
		return nil, translateError(err, "Comment", id)
	}
	return &c, nil
}
