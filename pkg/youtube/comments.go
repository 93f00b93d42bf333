package youtube

import (
	"context"
	"fmt"
	"math"
	"net/url"
	"os"
	"sync"

	"github.com/statweer/youtube-mate/internal/model"
)

// LatestComments fans out one comment-thread fetch per video id through a
// bounded worker pool and joins the results in submission order. A failing
// per-video fetch contributes an empty list instead of failing the batch.
// Collection stops once count is reached, but dispatched fetches always run
// to completion; the concatenation is truncated to count at the end.
func (c *Client) LatestComments(ctx context.Context, count int, videoIDs []string, cred model.Credential) ([]model.Comment, error) {
	if count <= 0 || len(videoIDs) == 0 {
		return nil, nil
	}

	results := make([][]model.Comment, len(videoIDs))

	var wg sync.WaitGroup
	sem := make(chan struct{}, c.workers)

	for i, id := range videoIDs {
		wg.Add(1)
		go func(i int, videoID string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			comments, err := c.videoComments(ctx, videoID, cred)
			if err != nil {
				fmt.Fprintf(os.Stderr, "  comments for %s error: %v\n", videoID, err)
				return
			}
			results[i] = comments
		}(i, id)
	}
	wg.Wait()

	var comments []model.Comment
	for _, batch := range results {
		comments = append(comments, batch...)
		if len(comments) >= count {
			break
		}
	}
	if len(comments) > count {
		comments = comments[:count]
	}
	return comments, nil
}

// AllComments fetches comments for every given video with no count limit.
func (c *Client) AllComments(ctx context.Context, videoIDs []string, cred model.Credential) ([]model.Comment, error) {
	return c.LatestComments(ctx, math.MaxInt, videoIDs, cred)
}

// videoComments fetches the comment threads of one video and flattens each
// top-level comment plus all of its replies into a single list.
func (c *Client) videoComments(ctx context.Context, videoID string, cred model.Credential) ([]model.Comment, error) {
	params := url.Values{}
	params.Set("part", "snippet,replies")
	params.Set("videoId", videoID)
	params.Set("maxResults", "100")
	params.Set("key", cred.APIKey)

	var result ytCommentThreadList
	if err := c.get(ctx, "commentThreads", params, &result); err != nil {
		return nil, err
	}

	var comments []model.Comment
	for _, thread := range result.Items {
		comments = append(comments, commentFrom(thread.Snippet.TopLevelComment, videoID))
		if thread.Snippet.TotalReplyCount != 0 {
			for _, reply := range thread.Replies.Comments {
				comments = append(comments, commentFrom(reply, videoID))
			}
		}
	}
	return comments, nil
}

func commentFrom(c ytComment, videoID string) model.Comment {
	return model.Comment{
		ID:      c.ID,
		Text:    c.Snippet.TextDisplay,
		VideoID: videoID,
		Date:    c.Snippet.PublishedAt,
		Author: model.CommentAuthor{
			Name:        c.Snippet.AuthorDisplayName,
			AvatarURL:   c.Snippet.AuthorProfileImageURL,
			ProfileLink: c.Snippet.AuthorChannelURL,
		},
	}
}

type ytComment struct {
	ID      string `json:"id"`
	Snippet struct {
		TextDisplay           string `json:"textDisplay"`
		PublishedAt           string `json:"publishedAt"`
		AuthorDisplayName     string `json:"authorDisplayName"`
		AuthorProfileImageURL string `json:"authorProfileImageUrl"`
		AuthorChannelURL      string `json:"authorChannelUrl"`
	} `json:"snippet"`
}

type ytCommentThreadList struct {
	Items []struct {
		Snippet struct {
			TopLevelComment ytComment `json:"topLevelComment"`
			TotalReplyCount int       `json:"totalReplyCount"`
		} `json:"snippet"`
		Replies struct {
			Comments []ytComment `json:"comments"`
		} `json:"replies"`
	} `json:"items"`
}
