package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"editorial/internal/models"
	"editorial/internal/testutil"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn: db,
	}), &gorm.Config{})
	require.NoError(t, err)

	return gormDB, mock
}

func day(d int) time.Time {
	return time.Date(2024, 3, d, 12, 0, 0, 0, time.UTC)
}

type postFixture struct {
	db    *gorm.DB
	clock *testutil.Clock
	repo  PostRepository
	ctx   context.Context
}

func newPostFixture(t *testing.T) *postFixture {
	clock := testutil.NewClock(day(1))
	db := testutil.NewTestDB(t, clock)
	return &postFixture{
		db:    db,
		clock: clock,
		repo:  NewPostRepository(db, DefaultAuthorSource()),
		ctx:   context.Background(),
	}
}

func (f *postFixture) create(t *testing.T, author *models.User, title string, opts ...testutil.PostOption) *models.Post {
	f.clock.Advance(time.Minute)
	return testutil.CreatePost(t, f.db, author, title, opts...)
}

func ids(posts []models.Post) []uint {
	out := make([]uint, 0, len(posts))
	for _, p := range posts {
		out = append(out, p.ID)
	}
	return out
}

func TestPostRepository_VisibleStageSQL(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewPostRepository(db, DefaultAuthorSource())

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "posts" WHERE posts.deleted = $1 AND posts.status = $2 ORDER BY posts.created DESC,posts.id DESC`)).
		WithArgs(false, "published").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	posts, err := repo.Find(context.Background(), NewPostQuery().Published())
	require.NoError(t, err)
	assert.Empty(t, posts)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostRepository_AdminPostsSkipVisibleStage(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewPostRepository(db, DefaultAuthorSource())

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "posts" WHERE posts.status = $1 ORDER BY posts.created DESC,posts.id DESC`)).
		WithArgs("draft").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.AdminPosts(context.Background(), NewPostQuery().Drafts())
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostRepository_DefaultReadsExcludeDeleted(t *testing.T) {
	f := newPostFixture(t)
	author := testutil.CreateUser(t, f.db, "ann", "Ann")

	live := f.create(t, author, "Live", testutil.PublishedAt(day(2)))
	gone := f.create(t, author, "Gone", testutil.PublishedAt(day(3)), testutil.SoftDeleted())
	draftGone := f.create(t, author, "Draft gone", testutil.SoftDeleted())
	draft := f.create(t, author, "Draft")

	queries := map[string]PostQuery{
		"all":       NewPostQuery(),
		"published": NewPostQuery().Published(),
		"drafts":    NewPostQuery().Drafts(),
		"by id":     NewPostQuery().WithID(gone.ID),
		"by slug":   NewPostQuery().WithSlug(gone.Slug),
		"by date":   NewPostQuery().PublishedOn(2024, time.March, 3),
	}
	for name, q := range queries {
		t.Run(name, func(t *testing.T) {
			posts, err := f.repo.Find(f.ctx, q)
			require.NoError(t, err)
			for _, p := range posts {
				assert.False(t, p.IsDeleted(), "post %d is deleted", p.ID)
			}
		})
	}

	_, err := f.repo.First(f.ctx, NewPostQuery().WithID(gone.ID))
	assert.True(t, models.IsCode(err, models.CodeNotFound))

	n, err := f.repo.Count(f.ctx, NewPostQuery())
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	all, err := f.repo.AdminPosts(f.ctx, NewPostQuery())
	require.NoError(t, err)
	assert.ElementsMatch(t, []uint{live.ID, gone.ID, draftGone.ID, draft.ID}, ids(all))

	got, err := f.repo.GetAnyByID(f.ctx, gone.ID)
	require.NoError(t, err)
	assert.True(t, got.IsDeleted())
}

func TestPostRepository_PublishedAndDraftsPartition(t *testing.T) {
	f := newPostFixture(t)
	author := testutil.CreateUser(t, f.db, "ann", "Ann")

	p1 := f.create(t, author, "One", testutil.PublishedAt(day(2)))
	d1 := f.create(t, author, "Two")
	p2 := f.create(t, author, "Three", testutil.PublishedAt(day(4)))
	d2 := f.create(t, author, "Four")
	f.create(t, author, "Five", testutil.SoftDeleted())

	published, err := f.repo.Find(f.ctx, NewPostQuery().Published())
	require.NoError(t, err)
	drafts, err := f.repo.Find(f.ctx, NewPostQuery().Drafts())
	require.NoError(t, err)
	visible, err := f.repo.Find(f.ctx, NewPostQuery())
	require.NoError(t, err)

	for _, p := range published {
		assert.Equal(t, models.StatusPublished, p.Status)
	}
	for _, p := range drafts {
		assert.Equal(t, models.StatusDraft, p.Status)
	}
	assert.ElementsMatch(t, []uint{p1.ID, p2.ID}, ids(published))
	assert.ElementsMatch(t, []uint{d1.ID, d2.ID}, ids(drafts))
	assert.ElementsMatch(t, ids(visible), append(ids(published), ids(drafts)...))

	// Predicates intersect, so contradictory filters match nothing.
	none, err := f.repo.Find(f.ctx, NewPostQuery().Published().Drafts())
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestPostQuery_Immutable(t *testing.T) {
	f := newPostFixture(t)
	author := testutil.CreateUser(t, f.db, "ann", "Ann")
	f.create(t, author, "Pub", testutil.PublishedAt(day(2)))
	f.create(t, author, "Draft")

	base := NewPostQuery()
	_ = base.Published()
	_ = base.Drafts()

	posts, err := f.repo.Find(f.ctx, base)
	require.NoError(t, err)
	assert.Len(t, posts, 2)

	// Siblings derived from the same parent do not leak predicates into each other.
	parent := base.Limit(5)
	a := parent.Published()
	b := parent.Drafts()
	pa, err := f.repo.Find(f.ctx, a)
	require.NoError(t, err)
	pb, err := f.repo.Find(f.ctx, b)
	require.NoError(t, err)
	assert.Len(t, pa, 1)
	assert.Len(t, pb, 1)
}

func TestPostRepository_DefaultOrderIsCreatedDesc(t *testing.T) {
	f := newPostFixture(t)
	author := testutil.CreateUser(t, f.db, "ann", "Ann")

	// Created order differs from published order on purpose.
	older := f.create(t, author, "Older", testutil.PublishedAt(day(20)))
	newer := f.create(t, author, "Newer", testutil.PublishedAt(day(10)))

	posts, err := f.repo.Find(f.ctx, NewPostQuery().Published())
	require.NoError(t, err)
	assert.Equal(t, []uint{newer.ID, older.ID}, ids(posts))

	byPublished, err := f.repo.Find(f.ctx, NewPostQuery().Published().OrderByPublished())
	require.NoError(t, err)
	assert.Equal(t, []uint{older.ID, newer.ID}, ids(byPublished))
}

func TestPostRepository_AuthorsDistinct(t *testing.T) {
	f := newPostFixture(t)
	zoe := testutil.CreateUser(t, f.db, "zoe", "Zoe")
	adam := testutil.CreateUser(t, f.db, "adam", "Adam")
	draftOnly := testutil.CreateUser(t, f.db, "dora", "Dora")

	for i := 0; i < 4; i++ {
		f.create(t, zoe, "Zoe post "+string(rune('a'+i)), testutil.PublishedAt(day(2+i)))
	}
	f.create(t, adam, "Adam post", testutil.PublishedAt(day(9)))
	f.create(t, draftOnly, "Dora draft")

	single, err := f.repo.Authors(f.ctx, NewPostQuery().WithSlug("zoe-post-a"))
	require.NoError(t, err)
	require.Len(t, single, 1)
	assert.Equal(t, zoe.ID, single[0].ID)

	zoeOnly, err := f.repo.Authors(f.ctx, NewPostQuery().Published().Search("zoe"))
	require.NoError(t, err)
	require.Len(t, zoeOnly, 1, "four posts by one author yield one author")

	authors, err := f.repo.Authors(f.ctx, NewPostQuery().Published())
	require.NoError(t, err)
	require.Len(t, authors, 2)
	assert.Equal(t, "Adam", authors[0].FirstName)
	assert.Equal(t, "Zoe", authors[1].FirstName)
}

func TestPostRepository_PublishedOn(t *testing.T) {
	f := newPostFixture(t)
	author := testutil.CreateUser(t, f.db, "ann", "Ann")
	hello := f.create(t, author, "Hello", testutil.PublishedAt(time.Date(2024, 3, 15, 23, 59, 0, 0, time.UTC)))

	got, err := f.repo.First(f.ctx, NewPostQuery().Published().PublishedOn(2024, time.March, 15).WithSlug("hello"))
	require.NoError(t, err)
	assert.Equal(t, hello.ID, got.ID)

	_, err = f.repo.First(f.ctx, NewPostQuery().Published().PublishedOn(2024, time.March, 16).WithSlug("hello"))
	assert.True(t, models.IsCode(err, models.CodeNotFound))
}

func TestPostRepository_SlugUniquePerPublishedDate(t *testing.T) {
	f := newPostFixture(t)
	author := testutil.CreateUser(t, f.db, "ann", "Ann")
	f.create(t, author, "Hello", testutil.PublishedAt(day(15)))

	sameDay := &models.Post{Title: "Hello again", Slug: "hello", Content: "c", AuthorID: author.ID, Deleted: models.Bool(false)}
	sameDay.Publish(day(15).Add(3 * time.Hour))
	err := f.repo.Create(f.ctx, sameDay, nil)
	require.Error(t, err)
	assert.True(t, models.IsCode(err, models.CodeConstraintViolation))

	otherDay := &models.Post{Title: "Hello again", Slug: "hello", Content: "c", AuthorID: author.ID, Deleted: models.Bool(false)}
	otherDay.Publish(day(16))
	require.NoError(t, f.repo.Create(f.ctx, otherDay, nil))

	draft := &models.Post{Title: "Hello draft", Slug: "hello", Content: "c", AuthorID: author.ID, Deleted: models.Bool(false)}
	require.NoError(t, f.repo.Create(f.ctx, draft, nil))
}

func TestPostRepository_SlugDateIndex(t *testing.T) {
	f := newPostFixture(t)
	author := testutil.CreateUser(t, f.db, "ann", "Ann")
	f.create(t, author, "Hello", testutil.PublishedAt(day(15)))

	// Writes that skip the repository check still hit the unique index.
	dup := &models.Post{Title: "Hello twin", Slug: "hello", Content: "c", AuthorID: author.ID, Deleted: models.Bool(false)}
	dup.Publish(day(15).Add(5 * time.Hour))
	err := f.db.Omit("Topics.*").Create(dup).Error
	require.Error(t, err)
	assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)

	drafts := []*models.Post{
		{Title: "Hello a", Slug: "hello", Content: "c", AuthorID: author.ID, Deleted: models.Bool(false)},
		{Title: "Hello b", Slug: "hello", Content: "c", AuthorID: author.ID, Deleted: models.Bool(false)},
	}
	for _, d := range drafts {
		require.NoError(t, f.db.Omit("Topics.*").Create(d).Error)
	}
}

func TestPostRepository_CreateStoresPublishedUTC(t *testing.T) {
	f := newPostFixture(t)
	author := testutil.CreateUser(t, f.db, "ann", "Ann")

	local := time.Date(2024, 3, 15, 21, 30, 0, 0, time.FixedZone("PDT", -7*60*60))
	p := &models.Post{Title: "Night", Slug: "night", Content: "c", AuthorID: author.ID, Status: models.StatusPublished, Published: &local, Deleted: models.Bool(false)}
	require.NoError(t, f.repo.Create(f.ctx, p, nil))
	assert.Equal(t, time.UTC, p.Published.Location())

	got, err := f.repo.First(f.ctx, NewPostQuery().Published().PublishedOn(2024, time.March, 16).WithSlug("night"))
	require.NoError(t, err)
	assert.Equal(t, p.ID, got.ID)
}

func TestPostRepository_CreateRequiresDeleted(t *testing.T) {
	f := newPostFixture(t)
	author := testutil.CreateUser(t, f.db, "ann", "Ann")

	p := &models.Post{Title: "t", Slug: "t", Content: "c", AuthorID: author.ID}
	err := f.repo.Create(f.ctx, p, nil)
	require.Error(t, err)
	assert.True(t, models.IsCode(err, models.CodeValidation))
	assert.Zero(t, p.ID)
}

func TestPostRepository_CreateAndUpdateTopics(t *testing.T) {
	f := newPostFixture(t)
	author := testutil.CreateUser(t, f.db, "ann", "Ann")
	golang := testutil.CreateTopic(t, f.db, "Go")
	rust := testutil.CreateTopic(t, f.db, "Rust")

	p := &models.Post{Title: "Tips", Slug: "tips", Content: "c", AuthorID: author.ID, Deleted: models.Bool(false)}
	require.NoError(t, f.repo.Create(f.ctx, p, []uint{golang.ID}))
	assert.Equal(t, models.StatusDraft, p.Status)

	got, err := f.repo.First(f.ctx, NewPostQuery().WithID(p.ID))
	require.NoError(t, err)
	require.Len(t, got.Topics, 1)
	assert.Equal(t, "Go", got.Topics[0].Name)
	require.NotNil(t, got.Author)
	assert.Equal(t, "ann", got.Author.Username)

	created := got.Created
	f.clock.Advance(time.Hour)
	got.Title = "Better tips"
	require.NoError(t, f.repo.Update(f.ctx, got, []uint{golang.ID, rust.ID}))

	reloaded, err := f.repo.First(f.ctx, NewPostQuery().WithID(p.ID))
	require.NoError(t, err)
	assert.Equal(t, "Better tips", reloaded.Title)
	assert.Len(t, reloaded.Topics, 2)
	assert.True(t, reloaded.Created.Equal(created), "created is write-once")
	assert.True(t, reloaded.Updated.After(created))

	err = f.repo.Create(f.ctx, &models.Post{Title: "x", Slug: "x", Content: "c", AuthorID: author.ID, Deleted: models.Bool(false)}, []uint{999})
	assert.True(t, models.IsCode(err, models.CodeValidation))

	byTopic, err := f.repo.Find(f.ctx, NewPostQuery().WithTopic(rust.ID))
	require.NoError(t, err)
	assert.Equal(t, []uint{p.ID}, ids(byTopic))
}

func TestPostRepository_UpdateMissing(t *testing.T) {
	f := newPostFixture(t)
	p := &models.Post{ID: 404, Title: "t", Slug: "t", Content: "c", AuthorID: 1, Deleted: models.Bool(false)}
	err := f.repo.Update(f.ctx, p, nil)
	assert.True(t, models.IsCode(err, models.CodeNotFound))
}

func TestPostRepository_SoftDelete(t *testing.T) {
	f := newPostFixture(t)
	author := testutil.CreateUser(t, f.db, "ann", "Ann")
	p := f.create(t, author, "Bye", testutil.PublishedAt(day(2)))

	require.NoError(t, f.repo.SoftDelete(f.ctx, p.ID))

	_, err := f.repo.First(f.ctx, NewPostQuery().WithID(p.ID))
	assert.True(t, models.IsCode(err, models.CodeNotFound))

	stored, err := f.repo.GetAnyByID(f.ctx, p.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsDeleted())

	err = f.repo.SoftDelete(f.ctx, p.ID)
	assert.True(t, models.IsCode(err, models.CodeNotFound))
}

func TestPostRepository_HardDeleteCascadesComments(t *testing.T) {
	f := newPostFixture(t)
	author := testutil.CreateUser(t, f.db, "ann", "Ann")
	topic := testutil.CreateTopic(t, f.db, "Go")
	p := f.create(t, author, "Doomed", testutil.WithTopics(topic))
	require.NoError(t, f.db.Create(&models.Comment{PostID: p.ID, Name: "n", Email: "n@example.com", Text: "t"}).Error)

	require.NoError(t, f.repo.HardDelete(f.ctx, p.ID))

	var comments, links int64
	require.NoError(t, f.db.Model(&models.Comment{}).Where("post_id = ?", p.ID).Count(&comments).Error)
	require.NoError(t, f.db.Table("post_topics").Where("post_id = ?", p.ID).Count(&links).Error)
	assert.Zero(t, comments)
	assert.Zero(t, links)

	_, err := f.repo.GetAnyByID(f.ctx, p.ID)
	assert.True(t, models.IsCode(err, models.CodeNotFound))
	assert.True(t, models.IsCode(f.repo.HardDelete(f.ctx, p.ID), models.CodeNotFound))
}

func TestPostRepository_AdminSearch(t *testing.T) {
	f := newPostFixture(t)
	ann := testutil.CreateUser(t, f.db, "ann", "Ann")
	bob := testutil.CreateUser(t, f.db, "bobby", "Robert")

	a := f.create(t, ann, "Concurrency Patterns")
	b := f.create(t, bob, "Gardening", testutil.SoftDeleted())

	byTitle, err := f.repo.AdminPosts(f.ctx, NewPostQuery().Search("CONCURRENCY"))
	require.NoError(t, err)
	assert.Equal(t, []uint{a.ID}, ids(byTitle))

	byAuthor, err := f.repo.AdminPosts(f.ctx, NewPostQuery().Search("robert"))
	require.NoError(t, err)
	assert.Equal(t, []uint{b.ID}, ids(byAuthor))
}
