package youtube

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func commentJSON(id, text, author string) map[string]any {
	return map[string]any{
		"id": id,
		"snippet": map[string]any{
			"textDisplay":           text,
			"publishedAt":           "2024-06-01T12:00:00Z",
			"authorDisplayName":     author,
			"authorProfileImageUrl": "https://img.example/" + author + ".jpg",
			"authorChannelUrl":      "https://youtube.com/" + author,
		},
	}
}

func threadJSON(top map[string]any, replies ...map[string]any) map[string]any {
	thread := map[string]any{
		"snippet": map[string]any{
			"topLevelComment": top,
			"totalReplyCount": len(replies),
		},
	}
	if len(replies) > 0 {
		thread["replies"] = map[string]any{"comments": replies}
	}
	return thread
}

// commentHandler serves /commentThreads from a per-video table. A nil entry
// answers with HTTP 500.
func commentHandler(t *testing.T, threads map[string][]map[string]any) http.Handler {
	t.Helper()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/commentThreads", r.URL.Path)
		assert.Equal(t, "snippet,replies", r.URL.Query().Get("part"))

		videoID := r.URL.Query().Get("videoId")
		items, ok := threads[videoID]
		if !ok {
			t.Errorf("unexpected videoId %s", videoID)
			return
		}
		if items == nil {
			w.WriteHeader(http.StatusInternalServerError)
			json.NewEncoder(w).Encode(map[string]any{
				"error": map[string]any{"code": 500, "message": "backend error"},
			})
			return
		}
		json.NewEncoder(w).Encode(map[string]any{"items": items})
	})
}

func flatThreads(n int, videoID string) []map[string]any {
	items := make([]map[string]any, n)
	for i := range items {
		items[i] = threadJSON(commentJSON(fmt.Sprintf("%s-c%d", videoID, i), "text", "alice"))
	}
	return items
}

func TestLatestCommentsPartialFailure(t *testing.T) {
	// One video answers with six comments, the other fails: the batch still
	// succeeds with exactly the six.
	client := testClient(t, commentHandler(t, map[string][]map[string]any{
		"v1": flatThreads(6, "v1"),
		"v2": nil,
	}))

	comments, err := client.LatestComments(context.Background(), 100, []string{"v1", "v2"}, testCred)
	require.NoError(t, err)
	assert.Len(t, comments, 6)
	for _, c := range comments {
		assert.Equal(t, "v1", c.VideoID)
	}
}

func TestLatestCommentsSubmissionOrder(t *testing.T) {
	client := testClient(t, commentHandler(t, map[string][]map[string]any{
		"v1": flatThreads(2, "v1"),
		"v2": flatThreads(2, "v2"),
		"v3": flatThreads(2, "v3"),
	}))

	comments, err := client.LatestComments(context.Background(), 10, []string{"v1", "v2", "v3"}, testCred)
	require.NoError(t, err)

	ids := make([]string, len(comments))
	for i, c := range comments {
		ids[i] = c.ID
	}
	assert.Equal(t, []string{"v1-c0", "v1-c1", "v2-c0", "v2-c1", "v3-c0", "v3-c1"}, ids)
}

func TestLatestCommentsTruncatesToCount(t *testing.T) {
	client := testClient(t, commentHandler(t, map[string][]map[string]any{
		"v1": flatThreads(5, "v1"),
		"v2": flatThreads(5, "v2"),
	}))

	comments, err := client.LatestComments(context.Background(), 7, []string{"v1", "v2"}, testCred)
	require.NoError(t, err)

	require.Len(t, comments, 7)
	assert.Equal(t, "v1-c0", comments[0].ID)
	assert.Equal(t, "v2-c1", comments[6].ID)
}

func TestLatestCommentsEmptyInput(t *testing.T) {
	client := NewClient(0, 0)

	comments, err := client.LatestComments(context.Background(), 10, nil, testCred)
	require.NoError(t, err)
	assert.Empty(t, comments)

	comments, err = client.LatestComments(context.Background(), 0, []string{"v1"}, testCred)
	require.NoError(t, err)
	assert.Empty(t, comments)
}

func TestAllCommentsFlattensReplies(t *testing.T) {
	client := testClient(t, commentHandler(t, map[string][]map[string]any{
		"v1": {
			threadJSON(commentJSON("t1", "top one", "alice"),
				commentJSON("t1-r1", "reply one", "bob"),
				commentJSON("t1-r2", "reply two", "carol")),
			threadJSON(commentJSON("t2", "top two", "bob")),
		},
	}))

	comments, err := client.AllComments(context.Background(), []string{"v1"}, testCred)
	require.NoError(t, err)

	require.Len(t, comments, 4)
	assert.Equal(t, []string{"t1", "t1-r1", "t1-r2", "t2"}, []string{
		comments[0].ID, comments[1].ID, comments[2].ID, comments[3].ID,
	})
	assert.Equal(t, "bob", comments[1].Author.Name)
	assert.Equal(t, "https://img.example/bob.jpg", comments[1].Author.AvatarURL)
	assert.Equal(t, "v1", comments[3].VideoID)
}

func TestLatestCommentsBoundedConcurrency(t *testing.T) {
	var mu sync.Mutex
	inFlight, peak := 0, 0

	videoIDs := make([]string, 20)
	threads := make(map[string][]map[string]any, len(videoIDs))
	for i := range videoIDs {
		id := fmt.Sprintf("v%d", i)
		videoIDs[i] = id
		threads[id] = flatThreads(1, id)
	}

	inner := commentHandler(t, threads)
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		inFlight++
		if inFlight > peak {
			peak = inFlight
		}
		mu.Unlock()
		defer func() {
			mu.Lock()
			inFlight--
			mu.Unlock()
		}()
		inner.ServeHTTP(w, r)
	}))

	comments, err := client.LatestComments(context.Background(), 100, videoIDs, testCred)
	require.NoError(t, err)
	assert.Len(t, comments, 20)

	mu.Lock()
	defer mu.Unlock()
	assert.LessOrEqual(t, peak, 4, "fan-out stays within the worker bound")
}
