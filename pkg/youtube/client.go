// Package youtube is a stateless client for the subset of the YouTube Data
// API v3 this tool needs: channel lookup, uploads listing and comment
// threads. Every call authenticates with an API-key query parameter.
package youtube

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/statweer/youtube-mate/internal/model"
)

const defaultBaseURL = "https://www.googleapis.com/youtube/v3"

// maxPageSize is the largest page the API serves for list endpoints.
const maxPageSize = 50

// allVideosCount is the page budget used by AllVideos. Fetching a channel's
// complete history is out of reach on the default quota, so "all" means the
// latest 50 uploads.
const allVideosCount = 50

// Client talks to the YouTube Data API. It owns no credential; callers pass
// one per operation.
type Client struct {
	client  *http.Client
	baseURL string
	workers int
}

// NewClient creates a client. maxWorkers bounds the per-video comment
// fan-out; values <= 0 fall back to 8.
func NewClient(timeout time.Duration, maxWorkers int) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if maxWorkers <= 0 {
		maxWorkers = 8
	}
	return &Client{
		client:  &http.Client{Timeout: timeout},
		baseURL: defaultBaseURL,
		workers: maxWorkers,
	}
}

// WithBaseURL points the client at a different API endpoint. Tests use this
// to target a local fake server.
func (c *Client) WithBaseURL(base string) *Client {
	c.baseURL = base
	return c
}

// Channel looks up a channel by id, requesting snippet and statistics parts.
// An empty result set is an API error, not a crash.
func (c *Client) Channel(ctx context.Context, channelID string, cred model.Credential) (*model.Channel, error) {
	params := url.Values{}
	params.Set("part", "snippet,statistics")
	params.Set("id", channelID)
	params.Set("key", cred.APIKey)

	var result ytChannelList
	if err := c.get(ctx, "channels", params, &result); err != nil {
		return nil, err
	}
	if len(result.Items) == 0 {
		return nil, model.NewAPIError(fmt.Sprintf("channel %s not found", channelID), -1)
	}

	item := result.Items[0]
	return &model.Channel{
		ID:        item.ID,
		Title:     item.Snippet.Title,
		Handle:    item.Snippet.CustomURL,
		Thumbnail: item.Snippet.Thumbnails.Medium.URL,
		Stats: model.Stats{
			VideoCount:      item.Statistics.VideoCount,
			SubscriberCount: item.Statistics.SubscriberCount,
		},
	}, nil
}

// LatestVideos pages through the channel's uploads playlist until either the
// next-page token is exhausted or at least count videos are collected. The
// page size is fixed at min(50, count) from the first page on, so the result
// can overshoot count by up to one page; callers that need an exact count
// truncate themselves.
func (c *Client) LatestVideos(ctx context.Context, count int, channelID string, cred model.Credential) ([]model.Video, error) {
	uploadsID, err := c.uploadsPlaylistID(ctx, channelID, cred)
	if err != nil {
		return nil, err
	}

	pageSize := count
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	if pageSize < 1 {
		pageSize = 1
	}

	var videos []model.Video
	pageToken := ""
	for {
		params := url.Values{}
		params.Set("part", "snippet")
		params.Set("playlistId", uploadsID)
		params.Set("maxResults", strconv.Itoa(pageSize))
		params.Set("key", cred.APIKey)
		if pageToken != "" {
			params.Set("pageToken", pageToken)
		}

		var page ytPlaylistItemList
		if err := c.get(ctx, "playlistItems", params, &page); err != nil {
			return nil, err
		}

		for _, item := range page.Items {
			videos = append(videos, model.Video{
				ID:        item.Snippet.ResourceID.VideoID,
				Title:     item.Snippet.Title,
				Thumbnail: item.Snippet.Thumbnails.Default.URL,
			})
		}

		pageToken = page.NextPageToken
		if pageToken == "" || len(videos) >= count {
			break
		}
	}

	return videos, nil
}

// AllVideos fetches the latest uploads with the maximum page budget.
func (c *Client) AllVideos(ctx context.Context, channelID string, cred model.Credential) ([]model.Video, error) {
	return c.LatestVideos(ctx, allVideosCount, channelID, cred)
}

// uploadsPlaylistID resolves the channel's auto-generated uploads playlist.
func (c *Client) uploadsPlaylistID(ctx context.Context, channelID string, cred model.Credential) (string, error) {
	params := url.Values{}
	params.Set("part", "contentDetails")
	params.Set("id", channelID)
	params.Set("key", cred.APIKey)

	var result ytChannelList
	if err := c.get(ctx, "channels", params, &result); err != nil {
		return "", err
	}
	if len(result.Items) == 0 {
		return "", model.NewAPIError(fmt.Sprintf("channel %s not found", channelID), -1)
	}

	uploads := result.Items[0].ContentDetails.RelatedPlaylists.Uploads
	if uploads == "" {
		return "", model.NewAPIError(fmt.Sprintf("channel %s has no uploads playlist", channelID), -1)
	}
	return uploads, nil
}

// get performs one API call and decodes the response into out. Every failure
// comes back as *model.APIError: transport and decode errors carry code -1,
// HTTP failures carry the real status code and the provider's message when
// the error body has one.
func (c *Client) get(ctx context.Context, endpoint string, params url.Values, out any) error {
	reqURL := c.baseURL + "/" + endpoint + "?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return model.NewAPIError(fmt.Sprintf("create %s request: %v", endpoint, err), -1)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return model.NewAPIError(fmt.Sprintf("fetch %s: %v", endpoint, err), -1)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var errResult ytErrorResponse
		_ = json.NewDecoder(resp.Body).Decode(&errResult)
		msg := errResult.Error.Message
		if msg == "" {
			msg = fmt.Sprintf("%s status %d", endpoint, resp.StatusCode)
		}
		return model.NewAPIError(msg, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return model.NewAPIError(fmt.Sprintf("decode %s response: %v", endpoint, err), -1)
	}
	return nil
}

type ytChannelList struct {
	Items []struct {
		ID      string `json:"id"`
		Snippet struct {
			Title      string `json:"title"`
			CustomURL  string `json:"customUrl"`
			Thumbnails struct {
				Medium struct {
					URL string `json:"url"`
				} `json:"medium"`
			} `json:"thumbnails"`
		} `json:"snippet"`
		Statistics struct {
			VideoCount      uint64 `json:"videoCount,string"`
			SubscriberCount uint64 `json:"subscriberCount,string"`
		} `json:"statistics"`
		ContentDetails struct {
			RelatedPlaylists struct {
				Uploads string `json:"uploads"`
			} `json:"relatedPlaylists"`
		} `json:"contentDetails"`
	} `json:"items"`
}

type ytPlaylistItemList struct {
	NextPageToken string `json:"nextPageToken"`
	Items         []struct {
		Snippet struct {
			Title      string `json:"title"`
			ResourceID struct {
				VideoID string `json:"videoId"`
			} `json:"resourceId"`
			Thumbnails struct {
				Default struct {
					URL string `json:"url"`
				} `json:"default"`
			} `json:"thumbnails"`
		} `json:"snippet"`
	} `json:"items"`
}

type ytErrorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}
