package youtube

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/statweer/youtube-mate/internal/model"
)

var testCred = model.Credential{APIKey: "test-key"}

func testClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(5*time.Second, 4).WithBaseURL(srv.URL)
}

func writeChannelList(w http.ResponseWriter, items ...map[string]any) {
	json.NewEncoder(w).Encode(map[string]any{"items": items})
}

func channelItem(id, title, handle string) map[string]any {
	return map[string]any{
		"id": id,
		"snippet": map[string]any{
			"title":     title,
			"customUrl": handle,
			"thumbnails": map[string]any{
				"medium": map[string]any{"url": "https://img.example/" + id + ".jpg"},
			},
		},
		"statistics": map[string]any{
			"videoCount":      "42",
			"subscriberCount": "123456789012",
		},
		"contentDetails": map[string]any{
			"relatedPlaylists": map[string]any{"uploads": "UU" + id[2:]},
		},
	}
}

func TestChannel(t *testing.T) {
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/channels", r.URL.Path)
		assert.Equal(t, "snippet,statistics", r.URL.Query().Get("part"))
		assert.Equal(t, "test-key", r.URL.Query().Get("key"))
		writeChannelList(w, channelItem("UC123", "Demo", "@demo"))
	}))

	channel, err := client.Channel(context.Background(), "UC123", testCred)
	require.NoError(t, err)

	assert.Equal(t, "UC123", channel.ID)
	assert.Equal(t, "Demo", channel.Title)
	assert.Equal(t, "@demo", channel.Handle)
	assert.Equal(t, "https://img.example/UC123.jpg", channel.Thumbnail)
	assert.Equal(t, uint64(42), channel.Stats.VideoCount)
	assert.Equal(t, uint64(123456789012), channel.Stats.SubscriberCount)
}

func TestChannelEmptyResult(t *testing.T) {
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeChannelList(w)
	}))

	_, err := client.Channel(context.Background(), "UCnope", testCred)
	require.Error(t, err)

	var apiErr *model.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, -1, apiErr.Code)
	assert.Contains(t, apiErr.Message, "UCnope")
}

func TestChannelHTTPError(t *testing.T) {
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{"code": 403, "message": "quota exceeded"},
		})
	}))

	_, err := client.Channel(context.Background(), "UC123", testCred)

	var apiErr *model.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusForbidden, apiErr.Code)
	assert.Equal(t, "quota exceeded", apiErr.Message)
}

// playlistHandler serves /channels (contentDetails) and a paged uploads
// playlist of total videos, recording the maxResults of every page request.
func playlistHandler(t *testing.T, total int, maxResults *[]string) http.Handler {
	t.Helper()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/channels":
			writeChannelList(w, channelItem("UC123", "Demo", "@demo"))
		case "/playlistItems":
			*maxResults = append(*maxResults, r.URL.Query().Get("maxResults"))

			pageSize, err := strconv.Atoi(r.URL.Query().Get("maxResults"))
			require.NoError(t, err)

			start := 0
			if token := r.URL.Query().Get("pageToken"); token != "" {
				fmt.Sscanf(token, "page-%d", &start)
			}
			end := start + pageSize
			if end > total {
				end = total
			}

			items := make([]map[string]any, 0, end-start)
			for i := start; i < end; i++ {
				items = append(items, map[string]any{
					"snippet": map[string]any{
						"title":      fmt.Sprintf("Video %d", i),
						"resourceId": map[string]any{"videoId": fmt.Sprintf("v%d", i)},
						"thumbnails": map[string]any{
							"default": map[string]any{"url": fmt.Sprintf("https://img.example/v%d.jpg", i)},
						},
					},
				})
			}

			page := map[string]any{"items": items}
			if end < total {
				page["nextPageToken"] = fmt.Sprintf("page-%d", end)
			}
			json.NewEncoder(w).Encode(page)
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	})
}

func TestLatestVideosPaging(t *testing.T) {
	// 120 uploads, server pages of 50: asking for 80 collects two full
	// pages (overshoot to 100), never a third.
	var maxResults []string
	client := testClient(t, playlistHandler(t, 120, &maxResults))

	videos, err := client.LatestVideos(context.Background(), 80, "UC123", testCred)
	require.NoError(t, err)

	assert.Len(t, videos, 100)
	assert.Equal(t, []string{"50", "50"}, maxResults, "page size stays fixed at min(50, count)")
	assert.Equal(t, "v0", videos[0].ID)
	assert.Equal(t, "Video 0", videos[0].Title)
	assert.Equal(t, "v99", videos[99].ID)
}

func TestLatestVideosTokenExhausted(t *testing.T) {
	var maxResults []string
	client := testClient(t, playlistHandler(t, 4, &maxResults))

	videos, err := client.LatestVideos(context.Background(), 10, "UC123", testCred)
	require.NoError(t, err)

	assert.Len(t, videos, 4)
	assert.Equal(t, []string{"10"}, maxResults)
}

func TestLatestVideosBounds(t *testing.T) {
	// Property: min(N, available) <= len(result) <= ceil(N/50)*50.
	for _, tc := range []struct {
		count, total int
	}{
		{1, 120}, {20, 120}, {50, 120}, {51, 120}, {100, 120}, {200, 120}, {20, 3},
	} {
		var maxResults []string
		client := testClient(t, playlistHandler(t, tc.total, &maxResults))

		videos, err := client.LatestVideos(context.Background(), tc.count, "UC123", testCred)
		require.NoError(t, err)

		lower := tc.count
		if tc.total < lower {
			lower = tc.total
		}
		upper := (tc.count + 49) / 50 * 50
		assert.GreaterOrEqual(t, len(videos), lower, "count=%d total=%d", tc.count, tc.total)
		assert.LessOrEqual(t, len(videos), upper, "count=%d total=%d", tc.count, tc.total)
	}
}

func TestAllVideosUsesMaxPageBudget(t *testing.T) {
	var maxResults []string
	client := testClient(t, playlistHandler(t, 120, &maxResults))

	videos, err := client.AllVideos(context.Background(), "UC123", testCred)
	require.NoError(t, err)

	assert.Len(t, videos, 50)
	assert.Equal(t, []string{"50"}, maxResults)
}
