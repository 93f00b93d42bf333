// Package model defines the domain entities shared by the store, the
// repository and the aggregation views.
package model

// Credential is the user-supplied API key authorizing YouTube Data API calls.
type Credential struct {
	APIKey string `json:"api_key"`
}

// Stats holds channel-level counters. YouTube reports them as decimal
// strings, so they round-trip as uint64 via the ",string" JSON option.
type Stats struct {
	VideoCount      uint64 `json:"video_count,string"`
	SubscriberCount uint64 `json:"subscriber_count,string"`
}

// Channel is the YouTube channel being analyzed. A single channel is cached
// per database.
type Channel struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Handle    string `json:"handle"`
	Thumbnail string `json:"thumbnail"`
	Stats     Stats  `json:"stats"`
}

// Video is one upload of the analyzed channel.
type Video struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Thumbnail string `json:"thumbnail"`
}

// CommentAuthor identifies a commenter. It is not stored as a first-class
// entity; author grouping compares the whole triple.
type CommentAuthor struct {
	Name        string `json:"name"`
	AvatarURL   string `json:"avatar_url"`
	ProfileLink string `json:"profile_link"`
}

// Comment is a single top-level comment or reply. Replies are flattened:
// the only remaining link to the thread is the shared VideoID.
// Date is the provider's publish timestamp, verbatim RFC3339; lexical order
// on it equals chronological order.
type Comment struct {
	ID      string        `json:"id"`
	Text    string        `json:"text"`
	VideoID string        `json:"video_id"`
	Date    string        `json:"date"`
	Author  CommentAuthor `json:"author"`
}
