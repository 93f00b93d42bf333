// Package scheduler runs the periodic refresh cycle: latest videos, then
// every comment of those videos, then an optional webhook summary.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/statweer/youtube-mate/internal/model"
	"github.com/statweer/youtube-mate/internal/repo"
	"github.com/statweer/youtube-mate/pkg/insight"
	"github.com/statweer/youtube-mate/pkg/notify"
)

// RefreshResult summarizes one completed refresh cycle.
type RefreshResult struct {
	Channel     model.Channel
	Videos      int
	Comments    int
	NewComments int
}

// Scheduler drives refresh cycles against the repository.
type Scheduler struct {
	repo          *repo.Repository
	webhook       *notify.Webhook // optional, nil = disabled
	logger        *slog.Logger
	interval      time.Duration
	videoCount    int
	commentCount  int
	excludeAuthor string
}

// New creates a scheduler. webhook may be nil.
func New(
	r *repo.Repository,
	webhook *notify.Webhook,
	logger *slog.Logger,
	interval time.Duration,
	videoCount, commentCount int,
	excludeAuthor string,
) *Scheduler {
	if interval == 0 {
		interval = 30 * time.Minute
	}
	if videoCount <= 0 {
		videoCount = 20
	}
	if commentCount <= 0 {
		commentCount = 50
	}
	return &Scheduler{
		repo:          r,
		webhook:       webhook,
		logger:        logger,
		interval:      interval,
		videoCount:    videoCount,
		commentCount:  commentCount,
		excludeAuthor: excludeAuthor,
	}
}

// Run refreshes immediately, then on every tick. Blocks until ctx is
// cancelled.
func (s *Scheduler) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info("watch started", slog.Duration("interval", s.interval))
	s.refreshAndNotify(ctx)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("watch stopped")
			return ctx.Err()
		case <-ticker.C:
			s.refreshAndNotify(ctx)
		}
	}
}

func (s *Scheduler) refreshAndNotify(ctx context.Context) {
	result, err := s.RefreshOnce(ctx)
	if err != nil {
		s.logger.Error("refresh failed", slog.String("error", err.Error()))
		return
	}
	s.logger.Info("refresh done",
		slog.Int("videos", result.Videos),
		slog.Int("comments", result.Comments),
		slog.Int("new_comments", result.NewComments),
	)

	if s.webhook == nil || result.NewComments == 0 {
		return
	}
	if err := s.notify(ctx, result); err != nil {
		s.logger.Error("webhook failed", slog.String("error", err.Error()))
	}
}

// RefreshOnce runs one cycle: fetch the latest uploads of the cached
// channel, then all comments across them. Requires a cached channel.
func (s *Scheduler) RefreshOnce(ctx context.Context) (*RefreshResult, error) {
	channel, err := s.repo.CachedChannel(ctx)
	if err != nil {
		return nil, err
	}
	if channel == nil {
		return nil, model.NewAppError("no cached channel (run: ytmate channel <channel-id>)")
	}

	previous, err := s.repo.CachedComments(ctx)
	if err != nil {
		return nil, err
	}

	videos, err := s.repo.LatestVideos(ctx, s.videoCount, channel.ID)
	if err != nil {
		return nil, fmt.Errorf("refresh videos: %w", err)
	}

	videoIDs := make([]string, len(videos))
	for i, v := range videos {
		videoIDs[i] = v.ID
	}

	comments, err := s.repo.AllComments(ctx, videoIDs)
	if err != nil {
		return nil, fmt.Errorf("refresh comments: %w", err)
	}

	seen := make(map[string]bool, len(previous))
	for _, c := range previous {
		seen[c.ID] = true
	}
	newComments := 0
	for _, c := range comments {
		if !seen[c.ID] {
			newComments++
		}
	}

	return &RefreshResult{
		Channel:     *channel,
		Videos:      len(videos),
		Comments:    len(comments),
		NewComments: newComments,
	}, nil
}

func (s *Scheduler) notify(ctx context.Context, result *RefreshResult) error {
	exclude := s.excludeAuthor
	if exclude == "" {
		exclude = result.Channel.Handle
	}

	comments, err := s.repo.CachedComments(ctx)
	if err != nil {
		return err
	}

	summary := &notify.Summary{
		ChannelID:    result.Channel.ID,
		ChannelTitle: result.Channel.Title,
		Videos:       result.Videos,
		Comments:     result.Comments,
		NewComments:  result.NewComments,
		RefreshedAt:  time.Now().UTC().Format(time.RFC3339),
	}
	if top := insight.TopCommenters(comments, exclude); len(top) > 0 {
		summary.TopCommenter = top[0].Author.Name
	}

	return s.webhook.Send(ctx, summary)
}
