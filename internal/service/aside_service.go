package service

import (
	"context"

	"editorial/internal/cache"
	"editorial/internal/models"
	"editorial/internal/repository"
)

// AsideTopicCount is the number of topics shown in the sidebar.
const AsideTopicCount = 10

// AuthorSummary is the public view of a post author.
type AuthorSummary struct {
	ID        uint   `json:"id"`
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	FullName  string `json:"full_name"`
}

// Aside is the sidebar attached to every page response.
type Aside struct {
	Topics  []repository.TopicCount `json:"topics"`
	Authors []AuthorSummary         `json:"authors"`
}

type AsideService struct {
	topics repository.TopicRepository
	posts  repository.PostRepository
}

func NewAsideService(topics repository.TopicRepository, posts repository.PostRepository) *AsideService {
	return &AsideService{topics: topics, posts: posts}
}

// Get returns the busiest topics and the authors of published posts.
func (s *AsideService) Get(ctx context.Context) (*Aside, error) {
	var aside Aside
	err := cache.Aside(ctx, "aside", cache.AsideKey, &aside, cache.AsideTTL, func(ctx context.Context) error {
		fresh, err := s.load(ctx)
		if err != nil {
			return err
		}
		aside = *fresh
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &aside, nil
}

func (s *AsideService) load(ctx context.Context) (*Aside, error) {
	topics, err := s.topics.TopPostCounts(ctx, AsideTopicCount)
	if err != nil {
		return nil, err
	}
	users, err := s.posts.Authors(ctx, repository.NewPostQuery().Published())
	if err != nil {
		return nil, err
	}

	authors := make([]AuthorSummary, 0, len(users))
	for i := range users {
		authors = append(authors, summarize(&users[i]))
	}
	return &Aside{Topics: topics, Authors: authors}, nil
}

func summarize(u *models.User) AuthorSummary {
	return AuthorSummary{
		ID:        u.ID,
		Username:  u.Username,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		FullName:  u.FullName(),
	}
}
