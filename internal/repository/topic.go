package repository

import (
	"context"
	"strings"

	"editorial/internal/models"
	"editorial/internal/observability"

	"gorm.io/gorm"
)

const topicNameTakenMessage = "Topic with this Name already exists."

// TopicCount is a topic with the number of posts linked to it.
type TopicCount struct {
	ID        uint   `json:"id"`
	Name      string `json:"name"`
	Slug      string `json:"slug"`
	PostCount int64  `json:"post_count"`
}

// TopicRepository defines persistence operations for topics.
type TopicRepository interface {
	List(ctx context.Context) ([]models.Topic, error)
	Search(ctx context.Context, term string) ([]models.Topic, error)
	GetByID(ctx context.Context, id uint) (*models.Topic, error)
	GetBySlug(ctx context.Context, slug string) (*models.Topic, error)
	// TopPostCounts ranks topics by their number of linked posts of any status,
	// soft-deleted included, breaking ties by name then id.
	TopPostCounts(ctx context.Context, limit int) ([]TopicCount, error)
	// RelatedPosts follows the raw topic-post relation without visibility filters.
	RelatedPosts(ctx context.Context, topicID uint) ([]models.Post, error)
	Create(ctx context.Context, topic *models.Topic) error
	Update(ctx context.Context, topic *models.Topic) error
}

type topicRepository struct {
	db *gorm.DB
}

// NewTopicRepository returns a new TopicRepository implementation.
func NewTopicRepository(db *gorm.DB) TopicRepository {
	return &topicRepository{db: db}
}

func (r *topicRepository) ordered(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Model(&models.Topic{}).Order("topics.name ASC").Order("topics.id ASC")
}

func (r *topicRepository) List(ctx context.Context) ([]models.Topic, error) {
	topics := []models.Topic{}
	if err := r.ordered(ctx).Find(&topics).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return topics, nil
}

func (r *topicRepository) Search(ctx context.Context, term string) ([]models.Topic, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return r.List(ctx)
	}
	pattern := "%" + strings.ToLower(term) + "%"
	topics := []models.Topic{}
	err := r.ordered(ctx).
		Where("LOWER(topics.name) LIKE ? OR LOWER(topics.slug) LIKE ?", pattern, pattern).
		Find(&topics).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return topics, nil
}

func (r *topicRepository) GetByID(ctx context.Context, id uint) (*models.Topic, error) {
	var t models.Topic
	if err := r.db.WithContext(ctx).Take(&t, id).Error; err != nil {
		return nil, translateError(err, "Topic", id)
	}
	return &t, nil
}

// GetBySlug returns the first topic by id with the slug. Slugs are not unique.
func (r *topicRepository) GetBySlug(ctx context.Context, slug string) (*models.Topic, error) {
	var t models.Topic
	if err := r.db.WithContext(ctx).Where("slug = ?", slug).Order("id ASC").Take(&t).Error; err != nil {
		return nil, translateError(err, "Topic", slug)
	}
	return &t, nil
}

func (r *topicRepository) TopPostCounts(ctx context.Context, limit int) (counts []TopicCount, err error) {
	ctx, done := observability.StartRepositorySpan(ctx, "topics", "top_post_counts")
	defer func() { done(err) }()

	counts = []TopicCount{}
	err = r.db.WithContext(ctx).
		Table("topics").
		Select("topics.id, topics.name, topics.slug, COUNT(post_topics.post_id) AS post_count").
		Joins("LEFT JOIN post_topics ON post_topics.topic_id = topics.id").
		Group("topics.id, topics.name, topics.slug").
		Order("post_count DESC").
		Order("topics.name ASC").
		Order("topics.id ASC").
		Limit(limit).
		Scan(&counts).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return counts, nil
}

func (r *topicRepository) RelatedPosts(ctx context.Context, topicID uint) ([]models.Post, error) {
	posts := []models.Post{}
	err := r.db.WithContext(ctx).
		Model(&models.Post{}).
		Preload("Author").
		Joins("JOIN post_topics ON post_topics.post_id = posts.id AND post_topics.topic_id = ?", topicID).
		Order("posts.created DESC").
		Order("posts.id DESC").
		Find(&posts).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return posts, nil
}

func (r *topicRepository) Create(ctx context.Context, topic *models.Topic) error {
	if err := models.Validate(topic); err != nil {
		return err
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := checkTopicName(tx, topic); err != nil {
			return err
		}
		if err := tx.Omit("Posts").Create(topic).Error; err != nil {
			return translateError(uniqueViolation(err, "name", topicNameTakenMessage), "Topic", topic.ID)
		}
		return nil
	})
}

func (r *topicRepository) Update(ctx context.Context, topic *models.Topic) error {
	if topic.ID == 0 {
		return models.NewNotFoundError("Topic", 0)
	}
	if err := models.Validate(topic); err != nil {
		return err
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := checkTopicName(tx, topic); err != nil {
			return err
		}
		res := tx.Model(&models.Topic{}).Where("id = ?", topic.ID).Updates(map[string]interface{}{
			"name": topic.Name,
			"slug": topic.Slug,
		})
		if res.Error != nil {
			return translateError(uniqueViolation(res.Error, "name", topicNameTakenMessage), "Topic", topic.ID)
		}
		if res.RowsAffected == 0 {
			return models.NewNotFoundError("Topic", topic.ID)
		}
		return nil
	})
}

func checkTopicName(tx *gorm.DB, topic *models.Topic) error {
	var n int64
	if err := tx.Model(&models.Topic{}).Where("name = ? AND id <> ?", topic.Name, topic.ID).Count(&n).Error; err != nil {
		return models.NewInternalError(err)
	}
	if n > 0 {
		return models.NewConstraintViolationError("name", topicNameTakenMessage)
	}
	return nil
}
