// Package feed lists a channel's public uploads via its Atom feed. The feed
// needs no API key and carries roughly the latest 15 uploads, which makes it
// a useful credential-free fallback for the video list.
package feed

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/statweer/youtube-mate/internal/model"
)

const defaultFeedURL = "https://www.youtube.com/feeds/videos.xml"

// Uploads fetches and parses a channel's uploads feed.
type Uploads struct {
	client  *http.Client
	parser  *gofeed.Parser
	baseURL string
}

// NewUploads creates an uploads-feed source.
func NewUploads(timeout time.Duration) *Uploads {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Uploads{
		client:  &http.Client{Timeout: timeout},
		parser:  gofeed.NewParser(),
		baseURL: defaultFeedURL,
	}
}

// WithBaseURL points the source at a different feed endpoint. Tests use this
// to target a local fake server.
func (u *Uploads) WithBaseURL(base string) *Uploads {
	u.baseURL = base
	return u
}

// Uploads returns the channel's feed entries as videos, newest first (the
// feed's own order).
func (u *Uploads) Uploads(ctx context.Context, channelID string) ([]model.Video, error) {
	reqURL := u.baseURL + "?channel_id=" + url.QueryEscape(channelID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create uploads feed request: %w", err)
	}
	req.Header.Set("User-Agent", "youtube-mate/1.0")

	resp, err := u.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch uploads feed %s: %w", channelID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, model.NewAPIError(fmt.Sprintf("uploads feed for %s status %d", channelID, resp.StatusCode), resp.StatusCode)
	}

	parsed, err := u.parser.Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse uploads feed %s: %w", channelID, err)
	}

	var videos []model.Video
	for _, entry := range parsed.Items {
		// Entry ids look like "yt:video:VIDEOID".
		id := strings.TrimPrefix(entry.GUID, "yt:video:")
		if id == "" {
			continue
		}
		videos = append(videos, model.Video{
			ID:        id,
			Title:     entry.Title,
			Thumbnail: mediaThumbnail(entry),
		})
	}
	return videos, nil
}

// mediaThumbnail digs the media:group/media:thumbnail url out of the entry's
// extensions.
func mediaThumbnail(entry *gofeed.Item) string {
	media, ok := entry.Extensions["media"]
	if !ok {
		return ""
	}
	for _, group := range media["group"] {
		for _, thumb := range group.Children["thumbnail"] {
			if u := thumb.Attrs["url"]; u != "" {
				return u
			}
		}
	}
	return ""
}
