// Package insight derives the two presentation views from the raw comment
// collection: commenters ranked by comment count and a recency feed. Both
// are pure functions of (comments, excluded handle) and hold no state;
// callers recompute them whenever either input changes.
package insight

import (
	"sort"

	"github.com/statweer/youtube-mate/internal/model"
)

// AuthorGroup is one commenter and everything they wrote.
type AuthorGroup struct {
	Author   model.CommentAuthor `json:"author"`
	Comments []model.Comment     `json:"comments"`
}

// Count returns the number of comments in the group.
func (g AuthorGroup) Count() int { return len(g.Comments) }

// TopCommenters filters out the excluded author handle, groups the remaining
// comments by author (structural identity of the whole author triple) and
// orders the groups by descending comment count. Ties keep first-seen order.
func TopCommenters(comments []model.Comment, excludeHandle string) []AuthorGroup {
	index := make(map[model.CommentAuthor]int)
	var groups []AuthorGroup

	for _, c := range comments {
		if excludeHandle != "" && c.Author.Name == excludeHandle {
			continue
		}
		i, ok := index[c.Author]
		if !ok {
			i = len(groups)
			index[c.Author] = i
			groups = append(groups, AuthorGroup{Author: c.Author})
		}
		groups[i].Comments = append(groups[i].Comments, c)
	}

	sort.SliceStable(groups, func(i, j int) bool {
		return len(groups[i].Comments) > len(groups[j].Comments)
	})
	return groups
}

// LatestFeed filters out the excluded author handle and sorts the remaining
// comments newest first. Publish dates are fixed-width RFC3339 strings, so
// lexical descending order is chronological descending order.
func LatestFeed(comments []model.Comment, excludeHandle string) []model.Comment {
	feed := make([]model.Comment, 0, len(comments))
	for _, c := range comments {
		if excludeHandle != "" && c.Author.Name == excludeHandle {
			continue
		}
		feed = append(feed, c)
	}

	sort.SliceStable(feed, func(i, j int) bool {
		return feed[i].Date > feed[j].Date
	})
	return feed
}
