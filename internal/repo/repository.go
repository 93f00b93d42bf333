// Package repo orchestrates the remote source and the local store. It is the
// only place that decides to go to the network: fetch operations require a
// stored credential, persist their result on success and leave the store
// untouched on failure. The cache is the store itself; observation
// operations are passthrough streams.
package repo

import (
	"context"
	"fmt"
	"os"

	"github.com/statweer/youtube-mate/internal/model"
	"github.com/statweer/youtube-mate/internal/store"
)

// RemoteSource is the YouTube Data API surface the repository needs.
// *youtube.Client implements it.
type RemoteSource interface {
	Channel(ctx context.Context, channelID string, cred model.Credential) (*model.Channel, error)
	LatestVideos(ctx context.Context, count int, channelID string, cred model.Credential) ([]model.Video, error)
	AllVideos(ctx context.Context, channelID string, cred model.Credential) ([]model.Video, error)
	LatestComments(ctx context.Context, count int, videoIDs []string, cred model.Credential) ([]model.Comment, error)
	AllComments(ctx context.Context, videoIDs []string, cred model.Credential) ([]model.Comment, error)
}

// FeedSource lists a channel's uploads without a credential.
// *feed.Uploads implements it.
type FeedSource interface {
	Uploads(ctx context.Context, channelID string) ([]model.Video, error)
}

// Repository provides read-through caching on top of RemoteSource + Store.
type Repository struct {
	remote RemoteSource
	feed   FeedSource
	store  store.Store

	writes chan model.Credential
	done   chan struct{}
}

// New creates a repository and starts its credential write queue. feed may
// be nil when the uploads-feed path is not configured. Close drains the
// queue; callers own the store's lifecycle.
func New(remote RemoteSource, feed FeedSource, s store.Store) *Repository {
	r := &Repository{
		remote: remote,
		feed:   feed,
		store:  s,
		writes: make(chan model.Credential, 16),
		done:   make(chan struct{}),
	}
	go r.drainWrites()
	return r
}

// Close stops accepting credential writes and blocks until the queue is
// drained.
func (r *Repository) Close() error {
	close(r.writes)
	<-r.done
	return nil
}

func (r *Repository) drainWrites() {
	defer close(r.done)
	for cred := range r.writes {
		if err := r.store.StoreCredential(context.Background(), cred); err != nil {
			fmt.Fprintf(os.Stderr, "store credential: %v\n", err)
		}
	}
}

// StoreCredential enqueues the credential for persistence and returns
// immediately. The write is durable only after Close has drained the queue
// or the drain goroutine has caught up.
func (r *Repository) StoreCredential(cred model.Credential) {
	r.writes <- cred
}

// credential is the gate every network-backed operation passes through.
func (r *Repository) credential(ctx context.Context) (model.Credential, error) {
	cred, err := r.store.Credential(ctx)
	if err != nil {
		return model.Credential{}, &model.AppError{Message: fmt.Sprintf("read credential: %v", err), Err: err}
	}
	if cred == nil {
		return model.Credential{}, &model.AppError{Message: model.ErrNoCredential.Error(), Err: model.ErrNoCredential}
	}
	return *cred, nil
}

// Channel resolves a channel remotely and caches it.
func (r *Repository) Channel(ctx context.Context, channelID string) (*model.Channel, error) {
	cred, err := r.credential(ctx)
	if err != nil {
		return nil, err
	}
	channel, err := r.remote.Channel(ctx, channelID, cred)
	if err != nil {
		return nil, err
	}
	if err := r.store.StoreChannel(ctx, *channel); err != nil {
		return nil, fmt.Errorf("cache channel: %w", err)
	}
	return channel, nil
}

// LatestVideos fetches the channel's most recent uploads and replaces the
// cached collection.
func (r *Repository) LatestVideos(ctx context.Context, count int, channelID string) ([]model.Video, error) {
	cred, err := r.credential(ctx)
	if err != nil {
		return nil, err
	}
	videos, err := r.remote.LatestVideos(ctx, count, channelID, cred)
	if err != nil {
		return nil, err
	}
	if err := r.store.StoreVideos(ctx, videos); err != nil {
		return nil, fmt.Errorf("cache videos: %w", err)
	}
	return videos, nil
}

// AllVideos fetches the channel's uploads with the maximum page budget.
func (r *Repository) AllVideos(ctx context.Context, channelID string) ([]model.Video, error) {
	cred, err := r.credential(ctx)
	if err != nil {
		return nil, err
	}
	videos, err := r.remote.AllVideos(ctx, channelID, cred)
	if err != nil {
		return nil, err
	}
	if err := r.store.StoreVideos(ctx, videos); err != nil {
		return nil, fmt.Errorf("cache videos: %w", err)
	}
	return videos, nil
}

// LatestComments fetches up to count comments across the given videos and
// replaces the cached collection.
func (r *Repository) LatestComments(ctx context.Context, count int, videoIDs []string) ([]model.Comment, error) {
	cred, err := r.credential(ctx)
	if err != nil {
		return nil, err
	}
	comments, err := r.remote.LatestComments(ctx, count, videoIDs, cred)
	if err != nil {
		return nil, err
	}
	if err := r.store.StoreComments(ctx, comments); err != nil {
		return nil, fmt.Errorf("cache comments: %w", err)
	}
	return comments, nil
}

// AllComments fetches every comment of the given videos.
func (r *Repository) AllComments(ctx context.Context, videoIDs []string) ([]model.Comment, error) {
	cred, err := r.credential(ctx)
	if err != nil {
		return nil, err
	}
	comments, err := r.remote.AllComments(ctx, videoIDs, cred)
	if err != nil {
		return nil, err
	}
	if err := r.store.StoreComments(ctx, comments); err != nil {
		return nil, fmt.Errorf("cache comments: %w", err)
	}
	return comments, nil
}

// UploadsFeed lists the channel's public uploads via its Atom feed and
// caches them like an API fetch. It needs no credential.
func (r *Repository) UploadsFeed(ctx context.Context, channelID string) ([]model.Video, error) {
	if r.feed == nil {
		return nil, model.NewAppError("uploads feed source not configured")
	}
	videos, err := r.feed.Uploads(ctx, channelID)
	if err != nil {
		return nil, err
	}
	if err := r.store.StoreVideos(ctx, videos); err != nil {
		return nil, fmt.Errorf("cache videos: %w", err)
	}
	return videos, nil
}

// Cached reads and observation passthroughs. The store is the cache.

func (r *Repository) CachedCredential(ctx context.Context) (*model.Credential, error) {
	return r.store.Credential(ctx)
}

func (r *Repository) CachedChannel(ctx context.Context) (*model.Channel, error) {
	return r.store.Channel(ctx)
}

func (r *Repository) CachedVideos(ctx context.Context) ([]model.Video, error) {
	return r.store.Videos(ctx)
}

func (r *Repository) CachedComments(ctx context.Context) ([]model.Comment, error) {
	return r.store.Comments(ctx)
}

func (r *Repository) ObserveCredential() (<-chan *model.Credential, func()) {
	return r.store.ObserveCredential()
}

func (r *Repository) ObserveChannel() (<-chan *model.Channel, func()) {
	return r.store.ObserveChannel()
}

func (r *Repository) ObserveVideos() (<-chan []model.Video, func()) {
	return r.store.ObserveVideos()
}

func (r *Repository) ObserveComments() (<-chan []model.Comment, func()) {
	return r.store.ObserveComments()
}

func (r *Repository) DeleteChannel(ctx context.Context) error {
	return r.store.DeleteChannel(ctx)
}

func (r *Repository) DeleteAllVideos(ctx context.Context) error {
	return r.store.DeleteAllVideos(ctx)
}

func (r *Repository) DeleteAllComments(ctx context.Context) error {
	return r.store.DeleteAllComments(ctx)
}

// ClearEverything removes the credential, channel, videos and comments.
func (r *Repository) ClearEverything(ctx context.Context) error {
	return r.store.ClearEverything(ctx)
}
