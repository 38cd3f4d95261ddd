package repository

import (
	"context"

	"editorial/internal/models"

	"gorm.io/gorm"
)

// ContestRepository stores photo contest entries. Entries are never updated or deleted.
type ContestRepository interface {
	Create(ctx context.Context, entry *models.Contest) error
	List(ctx context.Context) ([]models.Contest, error)
	Count(ctx context.Context) (int64, error)
}

type contestRepository struct {
	db *gorm.DB
}

// NewContestRepository returns a new ContestRepository implementation.
func NewContestRepository(db *gorm.DB) ContestRepository {
	return &contestRepository{db: db}
}

func (r *contestRepository) Create(ctx context.Context, entry *models.Contest) error {
	if err := models.Validate(entry); err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).Create(entry).Error; err != nil {
		return translateError(err, "Contest", entry.ID)
	}
	return nil
}

func (r *contestRepository) List(ctx context.Context) ([]models.Contest, error) {
	entries := []models.Contest{}
	err := r.db.WithContext(ctx).
		Order("submitted_date DESC").
		Order("id DESC").
		Find(&entries).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return entries, nil
}

func (r *contestRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&models.Contest{}).Count(&n).Error; err != nil {
		return 0, models.NewInternalError(err)
	}
	return n, nil
}
