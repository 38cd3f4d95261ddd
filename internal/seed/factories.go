package seed

import (
	"fmt"
	"log"
	"strings"
	"time"

	"editorial/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// DefaultPassword is the password every generated author can log in with.
const DefaultPassword = "password123"

// Factory builds domain entities and persists them to the database.
// It is a thin helper used by the seeder and tests.
type Factory struct {
	db    *gorm.DB
	opts  Options
	faker *gofakeit.Faker
	// synthetic ID counter when running in DryRun mode
	nextID uint
}

// NewFactory creates a new Factory bound to the provided Gorm DB. A zero
// opts.RandSeed seeds from the clock.
func NewFactory(db *gorm.DB, opts Options) *Factory {
	seed := opts.RandSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Factory{db: db, opts: opts, faker: gofakeit.New(seed), nextID: 1000}
}

func (f *Factory) chance(ratio float64) bool {
	return float64(f.faker.Number(1, 1000)) <= ratio*1000
}

// backdate returns a time up to MaxDays before now.
func (f *Factory) backdate() time.Time {
	maxDays := f.opts.MaxDays
	if maxDays <= 0 {
		maxDays = 90
	}
	back := time.Duration(f.faker.Number(0, maxDays-1))*24*time.Hour +
		time.Duration(f.faker.Number(0, 23))*time.Hour +
		time.Duration(f.faker.Number(0, 59))*time.Minute
	return f.opts.Now().UTC().Add(-back).Truncate(time.Second)
}

func (f *Factory) create(v any, describe string) error {
	if f.opts.DryRun {
		f.nextID++
		log.Printf("[dry-run] %s (no DB write)", describe)
		return nil
	}
	return f.db.Create(v).Error
}

// CreateAuthor constructs and persists a sample author.
// Optional override functions may modify the generated user before saving.
func (f *Factory) CreateAuthor(overrides ...func(*models.User)) (*models.User, error) {
	first, last := f.faker.FirstName(), f.faker.LastName()
	user := &models.User{
		Username:  strings.ToLower(fmt.Sprintf("%s.%s%d", first, last, f.faker.Number(100, 999))),
		FirstName: first,
		LastName:  last,
	}
	user.Email = user.Username + "@example.com"

	// Password handling: allow skipping bcrypt in dev fast mode
	if f.opts.SkipBcrypt {
		user.Password = DefaultPassword
	} else {
		hashed, err := bcrypt.GenerateFromPassword([]byte(DefaultPassword), bcrypt.DefaultCost)
		if err != nil {
			return nil, err
		}
		user.Password = string(hashed)
	}

	for _, override := range overrides {
		override(user)
	}

	if err := f.create(user, "CreateAuthor "+user.Username); err != nil {
		return nil, err
	}
	if f.opts.DryRun {
		user.ID = f.nextID
	}
	return user, nil
}

// BuildPost constructs a post by author without persisting it. The post is
// published with probability 1-DraftRatio and soft-deleted with probability
// DeletedRatio.
func (f *Factory) BuildPost(author *models.User, topics []models.Topic, overrides ...func(*models.Post)) *models.Post {
	title := strings.TrimSuffix(f.faker.Sentence(f.faker.Number(3, 7)), ".")
	post := &models.Post{
		Title:    title,
		Slug:     models.Slugify(title),
		Content:  f.faker.Paragraph(f.faker.Number(2, 5), 4, 12, "\n\n"),
		AuthorID: author.ID,
		Status:   models.StatusDraft,
		Created:  f.backdate(),
		Deleted:  models.Bool(f.chance(f.opts.DeletedRatio)),
	}

	if !f.chance(f.opts.DraftRatio) {
		published := post.Created.Add(time.Duration(f.faker.Number(0, 48)) * time.Hour)
		if now := f.opts.Now().UTC(); published.After(now) {
			published = now
		}
		post.Publish(published)
	}

	if len(topics) > 0 {
		n := f.faker.Number(1, min(3, len(topics)))
		picked := map[int]bool{}
		for len(post.Topics) < n {
			i := f.faker.Number(0, len(topics)-1)
			if picked[i] {
				continue
			}
			picked[i] = true
			post.Topics = append(post.Topics, topics[i])
		}
	}

	for _, override := range overrides {
		override(post)
	}
	return post
}

// CreatePost builds and persists a post. Linked topics must already exist.
func (f *Factory) CreatePost(author *models.User, topics []models.Topic, overrides ...func(*models.Post)) (*models.Post, error) {
	post := f.BuildPost(author, topics, overrides...)
	if f.opts.DryRun {
		f.nextID++
		post.ID = f.nextID
		log.Printf("[dry-run] CreatePost: author=%d status=%s title=%q", post.AuthorID, post.Status, post.Title)
		return post, nil
	}
	if err := f.db.Omit("Topics.*").Create(post).Error; err != nil {
		return nil, err
	}
	return post, nil
}

// CreateComment constructs and persists a reader comment on post.
func (f *Factory) CreateComment(post *models.Post, overrides ...func(*models.Comment)) (*models.Comment, error) {
	created := post.Created.Add(time.Duration(f.faker.Number(1, 72)) * time.Hour)
	if now := f.opts.Now().UTC(); created.After(now) {
		created = now
	}
	comment := &models.Comment{
		PostID:   post.ID,
		Name:     f.faker.FirstName(),
		Email:    f.faker.Email(),
		Text:     f.faker.Sentence(f.faker.Number(5, 25)),
		Approved: f.chance(f.opts.ApprovedRatio),
		Created:  created,
	}

	for _, override := range overrides {
		override(comment)
	}

	if err := f.create(comment, fmt.Sprintf("CreateComment post=%d", post.ID)); err != nil {
		return nil, err
	}
	return comment, nil
}
