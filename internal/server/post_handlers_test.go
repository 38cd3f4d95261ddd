package server

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"editorial/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHome(t *testing.T) {
	e := newTestEnv(t, "")
	author := testutil.CreateUser(t, e.db, "ann", "Ann")
	topic := testutil.CreateTopic(t, e.db, "Go")
	for i := 1; i <= 4; i++ {
		testutil.CreatePost(t, e.db, author, fmt.Sprintf("Post %d", i),
			testutil.PublishedAt(time.Date(2024, 3, i, 10, 0, 0, 0, time.UTC)), testutil.WithTopics(topic))
	}
	testutil.CreatePost(t, e.db, author, "Draft")

	resp, body := e.get("/api/")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	posts := list(body, "posts")
	require.Len(t, posts, 3)
	first := posts[0].(map[string]any)
	assert.Equal(t, "Post 4", first["title"])
	assert.Equal(t, "/api/posts/2024/3/4/post-4", first["url"])

	aside := body["aside"].(map[string]any)
	topics := list(aside, "topics")
	require.Len(t, topics, 1)
	assert.Equal(t, float64(4), topics[0].(map[string]any)["post_count"])
	authors := list(aside, "authors")
	require.Len(t, authors, 1)
	assert.Equal(t, "Ann", authors[0].(map[string]any)["first_name"])
	assert.Empty(t, list(body, "messages"))
}

func TestPostRoutes(t *testing.T) {
	e := newTestEnv(t, "")
	author := testutil.CreateUser(t, e.db, "ann", "Ann")
	live := testutil.CreatePost(t, e.db, author, "Hello", testutil.PublishedAt(time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC)))
	draft := testutil.CreatePost(t, e.db, author, "Draft")
	gone := testutil.CreatePost(t, e.db, author, "Gone", testutil.PublishedAt(time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC)), testutil.SoftDeleted())

	resp, body := e.get("/api/posts")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, list(body, "posts"), 1)

	tests := []struct {
		path string
		want int
	}{
		{fmt.Sprintf("/api/posts/%d", live.ID), http.StatusOK},
		{fmt.Sprintf("/api/posts/%d", draft.ID), http.StatusNotFound},
		{fmt.Sprintf("/api/posts/%d", gone.ID), http.StatusNotFound},
		{"/api/posts/2024/3/15/hello", http.StatusOK},
		{"/api/posts/2024/03/15/hello", http.StatusOK},
		{"/api/posts/2024/3/16/hello", http.StatusNotFound},
		{"/api/posts/2024/2/30/hello", http.StatusNotFound},
		{"/api/posts/abcd/3/15/hello", http.StatusNotFound},
		{"/api/posts/2024/3/15/gone", http.StatusNotFound},
		{"/api/posts/nope", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			resp, body := e.get(tt.path)
			assert.Equal(t, tt.want, resp.StatusCode)
			if tt.want == http.StatusOK {
				post := body["post"].(map[string]any)
				assert.Equal(t, "Hello", post["title"])
				assert.NotNil(t, body["aside"])
			}
		})
	}
}

func TestTopicRoutes(t *testing.T) {
	e := newTestEnv(t, "")
	author := testutil.CreateUser(t, e.db, "ann", "Ann")
	topic := testutil.CreateTopic(t, e.db, "Web Dev")
	testutil.CreatePost(t, e.db, author, "Draft", testutil.WithTopics(topic))

	resp, body := e.get("/api/topics")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, list(body, "topics"), 1)

	resp, body = e.get(fmt.Sprintf("/api/topics/%d", topic.ID))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, list(body, "posts"), 1, "topic detail lists drafts too")

	resp, _ = e.get("/api/topics/slug/web-dev")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body = e.get("/api/topics/999")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "NOT_FOUND", body["code"])
}
