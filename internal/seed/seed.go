// Package seed populates the editorial database with demo data for
// development and testing.
package seed

import (
	"fmt"
	"log"
	"sort"
	"time"

	"editorial/internal/models"

	"gorm.io/gorm"
)

// Options configure the seeder.
type Options struct {
	NumAuthors  int
	NumPosts    int
	NumComments int
	// Topics to create. Empty means BuiltInTopics.
	Topics []string
	// DraftRatio is the share of posts left unpublished.
	DraftRatio float64
	// DeletedRatio is the share of posts created soft-deleted.
	DeletedRatio float64
	// ApprovedRatio is the share of comments already approved.
	ApprovedRatio float64
	MaxDays       int
	RandSeed      int64
	SkipBcrypt    bool
	DryRun        bool
	Now           func() time.Time
}

// Presets are named seeding profiles.
var Presets = map[string]Options{
	"minimal": {NumAuthors: 1, NumPosts: 5, NumComments: 5, DraftRatio: 0.2, ApprovedRatio: 0.8, MaxDays: 14},
	"demo":    {NumAuthors: 5, NumPosts: 40, NumComments: 120, DraftRatio: 0.2, DeletedRatio: 0.05, ApprovedRatio: 0.7, MaxDays: 120},
	"large":   {NumAuthors: 25, NumPosts: 1000, NumComments: 5000, DraftRatio: 0.15, DeletedRatio: 0.05, ApprovedRatio: 0.7, MaxDays: 730, SkipBcrypt: true},
}

// PresetNames lists the available presets in order.
func PresetNames() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Result counts what a seeding run created.
type Result struct {
	Authors  int
	Topics   int
	Posts    int
	Comments int
}

// Seeder writes demo data through a Factory.
type Seeder struct {
	db *gorm.DB
}

func NewSeeder(db *gorm.DB) *Seeder {
	return &Seeder{db: db}
}

// ApplyPreset seeds using a named preset.
func (s *Seeder) ApplyPreset(name string) (Result, error) {
	opts, ok := Presets[name]
	if !ok {
		return Result{}, fmt.Errorf("unknown preset %q (want one of %v)", name, PresetNames())
	}
	return s.Seed(opts)
}

// Seed creates authors, topics, posts and comments. Comments only go to
// published, visible posts.
func (s *Seeder) Seed(opts Options) (Result, error) {
	var res Result
	f := NewFactory(s.db, opts)

	names := opts.Topics
	if len(names) == 0 {
		names = BuiltInTopics
	}
	var topics []models.Topic
	if opts.DryRun {
		for i, name := range names {
			topics = append(topics, models.Topic{ID: uint(i + 1), Name: name, Slug: models.Slugify(name)})
		}
	} else {
		var err error
		if topics, err = Topics(s.db, names); err != nil {
			return res, fmt.Errorf("seed topics: %w", err)
		}
	}
	res.Topics = len(topics)

	authors := make([]*models.User, 0, opts.NumAuthors)
	for i := 0; i < opts.NumAuthors; i++ {
		a, err := f.CreateAuthor()
		if err != nil {
			return res, fmt.Errorf("seed author: %w", err)
		}
		authors = append(authors, a)
	}
	res.Authors = len(authors)
	if len(authors) == 0 {
		return res, nil
	}

	var commentable []*models.Post
	for i := 0; i < opts.NumPosts; i++ {
		author := authors[f.faker.Number(0, len(authors)-1)]
		p, err := f.CreatePost(author, topics)
		if err != nil {
			return res, fmt.Errorf("seed post: %w", err)
		}
		res.Posts++
		if p.IsPublished() && !p.IsDeleted() {
			commentable = append(commentable, p)
		}
		if res.Posts%100 == 0 {
			log.Printf("Created %d posts...", res.Posts)
		}
	}

	if len(commentable) == 0 {
		return res, nil
	}
	for i := 0; i < opts.NumComments; i++ {
		post := commentable[f.faker.Number(0, len(commentable)-1)]
		if _, err := f.CreateComment(post); err != nil {
			return res, fmt.Errorf("seed comment: %w", err)
		}
		res.Comments++
	}
	return res, nil
}

// ClearAll removes all editorial content and every non-staff user.
func (s *Seeder) ClearAll() error {
	log.Println("Clearing existing data...")
	return s.db.Transaction(func(tx *gorm.DB) error {
		tx = tx.Session(&gorm.Session{AllowGlobalUpdate: true})
		steps := []func() error{
			func() error { return tx.Delete(&models.Comment{}).Error },
			func() error { return tx.Exec("DELETE FROM post_topics").Error },
			func() error { return tx.Delete(&models.Post{}).Error },
			func() error { return tx.Delete(&models.Topic{}).Error },
			func() error { return tx.Delete(&models.Contest{}).Error },
			func() error { return tx.Where("is_staff = ?", false).Delete(&models.User{}).Error },
		}
		for _, step := range steps {
			if err := step(); err != nil {
				return err
			}
		}
		return nil
	})
}
