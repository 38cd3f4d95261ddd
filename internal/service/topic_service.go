package service

import (
	"context"
	"strings"

	"editorial/internal/cache"
	"editorial/internal/models"
	"editorial/internal/repository"
)

type TopicService struct {
	topics repository.TopicRepository
}

// TopicDetail is a topic with every post linked to it.
type TopicDetail struct {
	Topic *models.Topic `json:"topic"`
	Posts []models.Post `json:"posts"`
}

// TopicInput is the admin payload for a topic. An empty slug is derived from the name.
type TopicInput struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
}

func NewTopicService(topics repository.TopicRepository) *TopicService {
	return &TopicService{topics: topics}
}

// List returns all topics ordered by name.
func (s *TopicService) List(ctx context.Context) ([]models.Topic, error) {
	var topics []models.Topic
	err := cache.Aside(ctx, "topic_list", cache.TopicListKey, &topics, cache.TopicListTTL, func(ctx context.Context) error {
		var err error
		topics, err = s.topics.List(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return topics, nil
}

// Detail returns a topic and its related posts. Related posts are not filtered
// by status or deletion.
func (s *TopicService) Detail(ctx context.Context, id uint) (*TopicDetail, error) {
	topic, err := s.topics.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.withPosts(ctx, topic)
}

func (s *TopicService) DetailBySlug(ctx context.Context, slug string) (*TopicDetail, error) {
	topic, err := s.topics.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	return s.withPosts(ctx, topic)
}

func (s *TopicService) withPosts(ctx context.Context, topic *models.Topic) (*TopicDetail, error) {
	posts, err := s.topics.RelatedPosts(ctx, topic.ID)
	if err != nil {
		return nil, err
	}
	return &TopicDetail{Topic: topic, Posts: posts}, nil
}

func (s *TopicService) AdminList(ctx context.Context, search string) ([]models.Topic, error) {
	return s.topics.Search(ctx, search)
}

func (s *TopicService) Create(ctx context.Context, in TopicInput) (*models.Topic, error) {
	topic := &models.Topic{}
	in.applyTo(topic)
	if err := s.topics.Create(ctx, topic); err != nil {
		return nil, err
	}
	cache.InvalidateTopics(ctx)
	return topic, nil
}

func (s *TopicService) Update(ctx context.Context, id uint, in TopicInput) (*models.Topic, error) {
	topic, err := s.topics.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	in.applyTo(topic)
	if err := s.topics.Update(ctx, topic); err != nil {
		return nil, err
	}
	cache.InvalidateTopics(ctx)
	return topic, nil
}

func (in TopicInput) applyTo(topic *models.Topic) {
	topic.Name = strings.TrimSpace(in.Name)
	topic.Slug = strings.TrimSpace(in.Slug)
	if topic.Slug == "" {
		topic.Slug = models.Slugify(topic.Name)
	}
}
