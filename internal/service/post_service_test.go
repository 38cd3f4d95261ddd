package service

import (
	"context"
	"strconv"
	"testing"
	"time"

	"editorial/internal/cache"
	"editorial/internal/models"
	"editorial/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func postIDs(posts []models.Post) []uint {
	out := make([]uint, 0, len(posts))
	for _, p := range posts {
		out = append(out, p.ID)
	}
	return out
}

func TestPostService_Home(t *testing.T) {
	e := newEnv(t)
	svc := NewPostService(e.posts, e.comments, e.clock.Now)
	author := testutil.CreateUser(t, e.db, "ann", "Ann")

	var published []*models.Post
	for i := 1; i <= 5; i++ {
		e.clock.Advance(time.Minute)
		p := testutil.CreatePost(t, e.db, author, "Post "+string(rune('A'+i)), testutil.PublishedAt(at(i, 10)))
		published = append(published, p)
	}
	testutil.CreatePost(t, e.db, author, "Draft")
	testutil.CreatePost(t, e.db, author, "Newest but deleted", testutil.PublishedAt(at(20, 10)), testutil.SoftDeleted())

	home, err := svc.Home(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []uint{published[4].ID, published[3].ID, published[2].ID}, postIDs(home))
}

func TestPostService_ListIsCreatedOrder(t *testing.T) {
	e := newEnv(t)
	svc := NewPostService(e.posts, e.comments, e.clock.Now)
	author := testutil.CreateUser(t, e.db, "ann", "Ann")

	first := testutil.CreatePost(t, e.db, author, "First", testutil.PublishedAt(at(9, 0)))
	e.clock.Advance(time.Hour)
	second := testutil.CreatePost(t, e.db, author, "Second", testutil.PublishedAt(at(2, 0)))
	testutil.CreatePost(t, e.db, author, "Draft")

	posts, err := svc.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []uint{second.ID, first.ID}, postIDs(posts))
	for _, p := range posts {
		assert.True(t, p.IsPublished())
	}
}

func TestPostService_Detail(t *testing.T) {
	e := newEnv(t)
	svc := NewPostService(e.posts, e.comments, e.clock.Now)
	ctx := context.Background()
	author := testutil.CreateUser(t, e.db, "ann", "Ann")
	topic := testutil.CreateTopic(t, e.db, "Go")

	post := testutil.CreatePost(t, e.db, author, "Hello", testutil.PublishedAt(time.Date(2024, 3, 15, 8, 30, 0, 0, time.UTC)), testutil.WithTopics(topic))
	draft := testutil.CreatePost(t, e.db, author, "Draft")
	gone := testutil.CreatePost(t, e.db, author, "Gone", testutil.PublishedAt(at(15, 9)), testutil.SoftDeleted())

	approved := &models.Comment{PostID: post.ID, Name: "A", Email: "a@example.com", Text: "approved", Approved: true}
	pending := &models.Comment{PostID: post.ID, Name: "P", Email: "p@example.com", Text: "pending"}
	require.NoError(t, e.db.Create(approved).Error)
	require.NoError(t, e.db.Create(pending).Error)

	detail, err := svc.DetailByID(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, "Hello", detail.Post.Title)
	require.Len(t, detail.Post.Topics, 1)
	assert.Equal(t, "Go", detail.Post.Topics[0].Name)
	require.Len(t, detail.Comments, 1)
	assert.Equal(t, approved.ID, detail.Comments[0].ID)

	for _, id := range []uint{draft.ID, gone.ID, 4040} {
		_, err := svc.DetailByID(ctx, id)
		assert.True(t, models.IsCode(err, models.CodeNotFound), "post %d", id)
	}

	byDate, err := svc.DetailByDate(ctx, "2024", "3", "15", "hello")
	require.NoError(t, err)
	assert.Equal(t, post.ID, byDate.Post.ID)

	byPaddedDate, err := svc.DetailByDate(ctx, "2024", "03", "15", "hello")
	require.NoError(t, err)
	assert.Equal(t, post.ID, byPaddedDate.Post.ID)

	misses := [][4]string{
		{"2024", "3", "16", "hello"},
		{"2024", "2", "30", "hello"},
		{"2024", "13", "1", "hello"},
		{"abcd", "3", "15", "hello"},
		{"2024", "3", "15", "gone"},
	}
	for _, m := range misses {
		_, err := svc.DetailByDate(ctx, m[0], m[1], m[2], m[3])
		assert.True(t, models.IsCode(err, models.CodeNotFound), "%v", m)
	}
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		y, m, d string
		ok      bool
	}{
		{"2024", "2", "29", true},
		{"2023", "2", "29", false},
		{"2024", "0", "1", false},
		{"2024", "1", "0", false},
		{"2024", "1", "32", false},
		{"-1", "1", "1", false},
		{"2024", "x", "1", false},
	}
	for _, tt := range tests {
		_, ok := ParseDate(tt.y, tt.m, tt.d)
		assert.Equal(t, tt.ok, ok, "%s-%s-%s", tt.y, tt.m, tt.d)
	}
}

func TestPostService_PublishUsesClock(t *testing.T) {
	e := newEnv(t)
	svc := NewPostService(e.posts, e.comments, e.clock.Now)
	ctx := context.Background()
	author := testutil.CreateUser(t, e.db, "ann", "Ann")
	draft := testutil.CreatePost(t, e.db, author, "Draft")
	require.False(t, draft.IsPublished())

	stamp := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	e.clock.Set(stamp)

	published, err := svc.Publish(ctx, draft.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPublished, published.Status)
	require.NotNil(t, published.Published)
	assert.True(t, published.Published.Equal(stamp))
	assert.Equal(t, "/api/posts/2024/6/1/draft", published.URL())

	e.clock.Advance(48 * time.Hour)
	again, err := svc.Publish(ctx, draft.ID)
	require.NoError(t, err)
	assert.True(t, again.Published.Equal(stamp), "republishing keeps the original stamp")

	_, err = svc.Publish(ctx, 999)
	assert.True(t, models.IsCode(err, models.CodeNotFound))
}

func TestPostService_PublishStoresUTC(t *testing.T) {
	e := newEnv(t)
	svc := NewPostService(e.posts, e.comments, e.clock.Now)
	ctx := context.Background()
	author := testutil.CreateUser(t, e.db, "ann", "Ann")
	draft := testutil.CreatePost(t, e.db, author, "Late Edition")

	eastern := time.FixedZone("EDT", -4*60*60)
	e.clock.Set(time.Date(2024, 3, 15, 22, 0, 0, 0, eastern))

	published, err := svc.Publish(ctx, draft.ID)
	require.NoError(t, err)
	assert.Equal(t, time.UTC, published.Published.Location())
	assert.Equal(t, "/api/posts/2024/3/16/late-edition", published.URL())

	detail, err := svc.DetailByDate(ctx, "2024", "3", "16", "late-edition")
	require.NoError(t, err)
	assert.Equal(t, draft.ID, detail.Post.ID)

	_, err = svc.DetailByDate(ctx, "2024", "3", "15", "late-edition")
	assert.True(t, models.IsCode(err, models.CodeNotFound))
}

func TestPostService_CreateAndUpdate(t *testing.T) {
	e := newEnv(t)
	svc := NewPostService(e.posts, e.comments, e.clock.Now)
	ctx := context.Background()
	author := testutil.CreateUser(t, e.db, "ann", "Ann")
	topic := testutil.CreateTopic(t, e.db, "Go")

	_, err := svc.Create(ctx, PostInput{Title: "No flag", Content: "c", AuthorID: author.ID})
	require.Error(t, err)
	assert.True(t, models.IsCode(err, models.CodeValidation))

	post, err := svc.Create(ctx, PostInput{
		Title:    "Hello World",
		Content:  "c",
		AuthorID: author.ID,
		Deleted:  models.Bool(false),
		TopicIDs: []uint{topic.ID},
	})
	require.NoError(t, err)
	assert.Equal(t, "hello-world", post.Slug)
	assert.Equal(t, models.StatusDraft, post.Status)
	assert.Nil(t, post.Published)
	require.Len(t, post.Topics, 1)
	assert.Equal(t, "/api/posts/"+strconv.FormatUint(uint64(post.ID), 10), post.URL())

	e.clock.Set(at(10, 12))
	updated, err := svc.Update(ctx, post.ID, PostInput{
		Title:    "Hello World",
		Slug:     "hello",
		Content:  "changed",
		AuthorID: author.ID,
		Status:   models.StatusPublished,
		Deleted:  models.Bool(false),
	})
	require.NoError(t, err)
	assert.Equal(t, "hello", updated.Slug)
	assert.True(t, updated.Published.Equal(at(10, 12)))
	assert.Len(t, updated.Topics, 1, "nil topic ids keep the links")

	clash, err := svc.Create(ctx, PostInput{
		Title:     "Hello",
		Content:   "c",
		AuthorID:  author.ID,
		Status:    models.StatusPublished,
		Published: timePtr(at(10, 18)),
		Deleted:   models.Bool(false),
	})
	assert.Nil(t, clash)
	assert.True(t, models.IsCode(err, models.CodeConstraintViolation))
}

func TestPostService_AdminList(t *testing.T) {
	e := newEnv(t)
	svc := NewPostService(e.posts, e.comments, e.clock.Now)
	ctx := context.Background()
	author := testutil.CreateUser(t, e.db, "ann", "Ann")
	topic := testutil.CreateTopic(t, e.db, "Go")

	deleted := testutil.CreatePost(t, e.db, author, "Deleted", testutil.SoftDeleted(), testutil.WithTopics(topic))
	testutil.CreatePost(t, e.db, author, "Live", testutil.PublishedAt(at(2, 0)))

	all, err := svc.AdminList(ctx, AdminPostFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	drafts, err := svc.AdminList(ctx, AdminPostFilter{Status: models.StatusDraft, TopicID: topic.ID})
	require.NoError(t, err)
	assert.Equal(t, []uint{deleted.ID}, postIDs(drafts))

	_, err = svc.AdminList(ctx, AdminPostFilter{Status: "archived"})
	assert.True(t, models.IsCode(err, models.CodeValidation))
}

func TestPostService_WritesInvalidateAside(t *testing.T) {
	mr := setupCache(t)
	e := newEnv(t)
	svc := NewPostService(e.posts, e.comments, e.clock.Now)
	ctx := context.Background()
	author := testutil.CreateUser(t, e.db, "ann", "Ann")
	post := testutil.CreatePost(t, e.db, author, "Live", testutil.PublishedAt(at(2, 0)))

	require.NoError(t, mr.Set(cache.AsideKey, `{"topics":[],"authors":[]}`))
	require.NoError(t, svc.SoftDelete(ctx, post.ID))
	assert.False(t, mr.Exists(cache.AsideKey))

	require.NoError(t, mr.Set(cache.AsideKey, `{}`))
	require.NoError(t, svc.HardDelete(ctx, post.ID))
	assert.False(t, mr.Exists(cache.AsideKey))

	assert.True(t, models.IsCode(svc.SoftDelete(ctx, post.ID), models.CodeNotFound))
}

func TestPostService_CommentsFor(t *testing.T) {
	e := newEnv(t)
	svc := NewPostService(e.posts, e.comments, e.clock.Now)
	author := testutil.CreateUser(t, e.db, "ann", "Ann")
	post := testutil.CreatePost(t, e.db, author, "Draft", testutil.SoftDeleted())
	require.NoError(t, e.db.Create(&models.Comment{PostID: post.ID, Name: "n", Email: "n@example.com", Text: "t"}).Error)

	comments, err := svc.CommentsFor(context.Background(), post.ID)
	require.NoError(t, err)
	assert.Len(t, comments, 1)
}

func timePtr(t time.Time) *time.Time {
	return &t
}
