package repository

import (
	"context"

	"editorial/internal/models"
	"editorial/internal/observability"

	"gorm.io/gorm"
)

const slugPerDateMessage = "Slug must be unique for the published date."

// AuthorSource names the entity that post authors reference: its table, key
// column and the ordering used when authors are listed.
type AuthorSource struct {
	Table   string
	Key     string
	OrderBy []string
}

// DefaultAuthorSource is the users table ordered by first name.
func DefaultAuthorSource() AuthorSource {
	return AuthorSource{
		Table:   "users",
		Key:     "id",
		OrderBy: []string{"first_name ASC", "id ASC"},
	}
}

// PostRepository defines the interface for post data operations.
//
// Every read except AdminPosts and GetAnyByID excludes soft-deleted posts
// before the query's own predicates are applied.
type PostRepository interface {
	Find(ctx context.Context, q PostQuery) ([]models.Post, error)
	First(ctx context.Context, q PostQuery) (*models.Post, error)
	Count(ctx context.Context, q PostQuery) (int64, error)
	Authors(ctx context.Context, q PostQuery) ([]models.User, error)
	Create(ctx context.Context, post *models.Post, topicIDs []uint) error
	Update(ctx context.Context, post *models.Post, topicIDs []uint) error
	SoftDelete(ctx context.Context, id uint) error
	HardDelete(ctx context.Context, id uint) error

	// AdminPosts and GetAnyByID include soft-deleted posts.
	AdminPosts(ctx context.Context, q PostQuery) ([]models.Post, error)
	GetAnyByID(ctx context.Context, id uint) (*models.Post, error)
}

// postRepository implements PostRepository
type postRepository struct {
	db      *gorm.DB
	authors AuthorSource
}

// NewPostRepository creates a new post repository reading authors from src.
func NewPostRepository(db *gorm.DB, src AuthorSource) PostRepository {
	return &postRepository{db: db, authors: src}
}

// visible is the mandatory first stage of every default read.
func (r *postRepository) visible(ctx context.Context) *gorm.DB {
	return r.all(ctx).Where("posts.deleted = ?", false)
}

func (r *postRepository) all(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Model(&models.Post{})
}

func withRelations(db *gorm.DB) *gorm.DB {
	return db.Preload("Author").Preload("Topics", func(db *gorm.DB) *gorm.DB {
		return db.Order("topics.name ASC")
	})
}

func (r *postRepository) Find(ctx context.Context, q PostQuery) (posts []models.Post, err error) {
	ctx, done := observability.StartRepositorySpan(ctx, "posts", "find")
	defer func() { done(err) }()

	posts = []models.Post{}
	if err := withRelations(q.apply(r.visible(ctx))).Find(&posts).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return posts, nil
}

func (r *postRepository) First(ctx context.Context, q PostQuery) (post *models.Post, err error) {
	ctx, done := observability.StartRepositorySpan(ctx, "posts", "first")
	defer func() { done(err) }()

	var p models.Post
	if err := withRelations(q.apply(r.visible(ctx))).Take(&p).Error; err != nil {
		return nil, translateError(err, "Post", "query")
	}
	return &p, nil
}

func (r *postRepository) Count(ctx context.Context, q PostQuery) (int64, error) {
	var n int64
	if err := q.filter(r.visible(ctx)).Count(&n).Error; err != nil {
		return 0, models.NewInternalError(err)
	}
	return n, nil
}

// Authors returns the distinct authors of the posts matched by q, ordered per
// the AuthorSource. Ordering and limit of q are ignored.
func (r *postRepository) Authors(ctx context.Context, q PostQuery) (users []models.User, err error) {
	ctx, done := observability.StartRepositorySpan(ctx, "posts", "authors")
	defer func() { done(err) }()

	sub := q.filter(r.visible(ctx)).Select("posts.author_id")

	db := r.db.WithContext(ctx).Table(r.authors.Table).Where(r.authors.Key+" IN (?)", sub)
	for _, o := range r.authors.OrderBy {
		db = db.Order(o)
	}

	users = []models.User{}
	if err := db.Find(&users).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return users, nil
}

func (r *postRepository) AdminPosts(ctx context.Context, q PostQuery) ([]models.Post, error) {
	posts := []models.Post{}
	if err := withRelations(q.apply(r.all(ctx))).Find(&posts).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return posts, nil
}

func (r *postRepository) GetAnyByID(ctx context.Context, id uint) (*models.Post, error) {
	var p models.Post
	if err := withRelations(r.all(ctx)).Where("posts.id = ?", id).Take(&p).Error; err != nil {
		return nil, translateError(err, "Post", id)
	}
	return &p, nil
}

func (r *postRepository) Create(ctx context.Context, post *models.Post, topicIDs []uint) (err error) {
	ctx, done := observability.StartRepositorySpan(ctx, "posts", "create")
	defer func() { done(err) }()

	utcPublished(post)
	if err := models.Validate(post); err != nil {
		return err
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := checkSlugForDate(tx, post); err != nil {
			return err
		}
		topics, err := loadTopics(tx, topicIDs)
		if err != nil {
			return err
		}
		post.Topics = topics

		if err := tx.Omit("Author", "Topics.*").Create(post).Error; err != nil {
			return translateError(uniqueViolation(err, "slug", slugPerDateMessage), "Post", post.ID)
		}
		return nil
	})
}

// Update saves every column except created. When topicIDs is non-nil the
// post's topics are replaced by it.
func (r *postRepository) Update(ctx context.Context, post *models.Post, topicIDs []uint) (err error) {
	ctx, done := observability.StartRepositorySpan(ctx, "posts", "update")
	defer func() { done(err) }()

	if post.ID == 0 {
		return models.NewNotFoundError("Post", 0)
	}
	utcPublished(post)
	if err := models.Validate(post); err != nil {
		return err
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var exists int64
		if err := tx.Model(&models.Post{}).Where("id = ?", post.ID).Count(&exists).Error; err != nil {
			return models.NewInternalError(err)
		}
		if exists == 0 {
			return models.NewNotFoundError("Post", post.ID)
		}
		if err := checkSlugForDate(tx, post); err != nil {
			return err
		}

		if err := tx.Omit("Author", "Topics", "Created").Save(post).Error; err != nil {
			return translateError(uniqueViolation(err, "slug", slugPerDateMessage), "Post", post.ID)
		}

		if topicIDs != nil {
			topics, err := loadTopics(tx, topicIDs)
			if err != nil {
				return err
			}
			if err := tx.Model(post).Omit("Topics.*").Association("Topics").Replace(topics); err != nil {
				return models.NewInternalError(err)
			}
			post.Topics = topics
		}
		return nil
	})
}

func (r *postRepository) SoftDelete(ctx context.Context, id uint) error {
	res := r.visible(ctx).Where("posts.id = ?", id).Update("deleted", true)
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Post", id)
	}
	return nil
}

// HardDelete removes the post row together with its comments and topic links.
func (r *postRepository) HardDelete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("post_id = ?", id).Delete(&models.Comment{}).Error; err != nil {
			return models.NewInternalError(err)
		}
		if err := tx.Exec("DELETE FROM post_topics WHERE post_id = ?", id).Error; err != nil {
			return models.NewInternalError(err)
		}
		res := tx.Where("id = ?", id).Delete(&models.Post{})
		if res.Error != nil {
			return models.NewInternalError(res.Error)
		}
		if res.RowsAffected == 0 {
			return models.NewNotFoundError("Post", id)
		}
		return nil
	})
}

// utcPublished stores the publication time in UTC so date lookups agree with
// the canonical URL on every driver.
func utcPublished(post *models.Post) {
	if post.Published != nil {
		published := post.Published.UTC()
		post.Published = &published
	}
}

// checkSlugForDate enforces slug uniqueness within the post's published UTC
// date across all posts, soft-deleted ones included.
func checkSlugForDate(tx *gorm.DB, post *models.Post) error {
	if post.Published == nil {
		return nil
	}
	start, end := dayBounds(post.Published.UTC())

	var n int64
	err := tx.Model(&models.Post{}).
		Where("slug = ? AND published >= ? AND published < ? AND id <> ?", post.Slug, start, end, post.ID).
		Count(&n).Error
	if err != nil {
		return models.NewInternalError(err)
	}
	if n > 0 {
		return models.NewConstraintViolationError("slug", slugPerDateMessage)
	}
	return nil
}

func loadTopics(tx *gorm.DB, ids []uint) ([]models.Topic, error) {
	topics := []models.Topic{}
	if len(ids) == 0 {
		return topics, nil
	}
	if err := tx.Where("id IN ?", ids).Order("name ASC").Find(&topics).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	if len(topics) != len(uniqueIDs(ids)) {
		return nil, models.NewFieldValidationError(map[string]string{
			"topic_ids": "Select a valid choice. One or more topics do not exist.",
		})
	}
	return topics, nil
}

func uniqueIDs(ids []uint) map[uint]struct{} {
	set := make(map[uint]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}
