package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/statweer/youtube-mate/internal/config"
	"github.com/statweer/youtube-mate/internal/model"
	"github.com/statweer/youtube-mate/internal/repo"
	"github.com/statweer/youtube-mate/internal/scheduler"
	"github.com/statweer/youtube-mate/internal/store"
	"github.com/statweer/youtube-mate/pkg/feed"
	"github.com/statweer/youtube-mate/pkg/insight"
	"github.com/statweer/youtube-mate/pkg/notify"
	"github.com/statweer/youtube-mate/pkg/server"
	"github.com/statweer/youtube-mate/pkg/youtube"
)

func loadConfig() (*config.Config, error) {
	path := cfgFile
	if path == "" {
		if _, err := os.Stat("config.yaml"); err == nil {
			path = "config.yaml"
		}
	}
	return config.Load(path)
}

// env wires the store, the remote source and the repository for one command
// invocation.
type env struct {
	cfg   *config.Config
	store *store.SQLiteStore
	repo  *repo.Repository
}

func openEnv() (*env, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	db, err := store.New(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	timeout := cfg.YouTube.ParseHTTPTimeout()
	client := youtube.NewClient(timeout, cfg.Fetch.MaxConcurrency)
	uploads := feed.NewUploads(timeout)

	return &env{
		cfg:   cfg,
		store: db,
		repo:  repo.New(client, uploads, db),
	}, nil
}

// close drains the repository's credential write queue before releasing the
// store.
func (e *env) close() {
	e.repo.Close()
	e.store.Close()
}

func (e *env) buildScheduler(logger *slog.Logger) *scheduler.Scheduler {
	var webhook *notify.Webhook
	if e.cfg.Webhook.Enabled && e.cfg.Webhook.URL != "" {
		webhook = notify.NewWebhook(e.cfg.Webhook.URL, e.cfg.Webhook.Secret)
	}
	return scheduler.New(
		e.repo,
		webhook,
		logger,
		e.cfg.Schedule.ParseRefreshInterval(),
		e.cfg.Fetch.VideoCount,
		e.cfg.Fetch.CommentCount,
		e.cfg.Insight.ExcludeAuthor,
	)
}

// excludeAuthor resolves the handle filtered out of the aggregation views:
// the configured one, or the cached channel's own handle.
func (e *env) excludeAuthor(ctx context.Context) (string, error) {
	if e.cfg.Insight.ExcludeAuthor != "" {
		return e.cfg.Insight.ExcludeAuthor, nil
	}
	channel, err := e.repo.CachedChannel(ctx)
	if err != nil {
		return "", err
	}
	if channel == nil {
		return "", nil
	}
	return channel.Handle, nil
}

func newLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, nil))
}

func runKeySet(apiKey string) error {
	if apiKey == "" {
		apiKey = os.Getenv("YOUTUBE_API_KEY")
	}
	if apiKey == "" {
		return fmt.Errorf("no API key given and YOUTUBE_API_KEY is not set")
	}

	e, err := openEnv()
	if err != nil {
		return err
	}
	// StoreCredential returns before the write lands; close drains it.
	e.repo.StoreCredential(model.Credential{APIKey: apiKey})
	e.close()

	fmt.Println("API key stored")
	return nil
}

func runKeyShow() error {
	e, err := openEnv()
	if err != nil {
		return err
	}
	defer e.close()

	cred, err := e.repo.CachedCredential(context.Background())
	if err != nil {
		return err
	}
	if cred == nil {
		fmt.Println("no API key stored (run: ytmate key set)")
		return nil
	}
	fmt.Println(maskKey(cred.APIKey))
	return nil
}

func runChannel(channelID string) error {
	e, err := openEnv()
	if err != nil {
		return err
	}
	defer e.close()

	channel, err := e.repo.Channel(context.Background(), channelID)
	if err != nil {
		var apiErr *model.APIError
		if errors.As(err, &apiErr) {
			return fmt.Errorf("invalid channel id: %s", apiErr.Message)
		}
		return err
	}

	fmt.Printf("%s (%s)\n", channel.Title, channel.Handle)
	fmt.Printf("  subscribers: %d\n", channel.Stats.SubscriberCount)
	fmt.Printf("  videos:      %d\n", channel.Stats.VideoCount)
	return nil
}

func runVideos(count int, all bool) error {
	e, err := openEnv()
	if err != nil {
		return err
	}
	defer e.close()

	ctx := context.Background()
	channel, err := e.repo.CachedChannel(ctx)
	if err != nil {
		return err
	}
	if channel == nil {
		return fmt.Errorf("no cached channel (run: ytmate channel <channel-id>)")
	}

	if count <= 0 {
		count = e.cfg.Fetch.VideoCount
	}

	var videos []model.Video
	if all {
		videos, err = e.repo.AllVideos(ctx, channel.ID)
	} else {
		videos, err = e.repo.LatestVideos(ctx, count, channel.ID)
	}
	if err != nil {
		return fmt.Errorf("fetch videos: %w", err)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE")
	for _, v := range videos {
		fmt.Fprintf(w, "%s\t%s\n", v.ID, truncate(v.Title, 70))
	}
	return w.Flush()
}

func runComments(count int, all bool) error {
	e, err := openEnv()
	if err != nil {
		return err
	}
	defer e.close()

	ctx := context.Background()
	videos, err := e.repo.CachedVideos(ctx)
	if err != nil {
		return err
	}
	if len(videos) == 0 {
		return fmt.Errorf("no cached videos (run: ytmate videos)")
	}

	videoIDs := make([]string, len(videos))
	for i, v := range videos {
		videoIDs[i] = v.ID
	}

	if count <= 0 {
		count = e.cfg.Fetch.CommentCount
	}

	var comments []model.Comment
	if all {
		comments, err = e.repo.AllComments(ctx, videoIDs)
	} else {
		comments, err = e.repo.LatestComments(ctx, count, videoIDs)
	}
	if err != nil {
		return fmt.Errorf("fetch comments: %w", err)
	}

	fmt.Fprintf(os.Stderr, "fetched %d comments from %d videos\n", len(comments), len(videos))
	return nil
}

func runTop(limit int, jsonOutput bool) error {
	e, err := openEnv()
	if err != nil {
		return err
	}
	defer e.close()

	ctx := context.Background()
	comments, err := e.repo.CachedComments(ctx)
	if err != nil {
		return err
	}
	exclude, err := e.excludeAuthor(ctx)
	if err != nil {
		return err
	}

	groups := insight.TopCommenters(comments, exclude)
	if limit > 0 && len(groups) > limit {
		groups = groups[:limit]
	}

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(groups)
	}

	if len(groups) == 0 {
		fmt.Println("no comments cached (try: ytmate refresh)")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "COMMENTS\tAUTHOR\tPROFILE")
	for _, g := range groups {
		fmt.Fprintf(w, "%d\t%s\t%s\n", g.Count(), g.Author.Name, g.Author.ProfileLink)
	}
	return w.Flush()
}

func runLatest(limit int, jsonOutput bool) error {
	e, err := openEnv()
	if err != nil {
		return err
	}
	defer e.close()

	ctx := context.Background()
	comments, err := e.repo.CachedComments(ctx)
	if err != nil {
		return err
	}
	exclude, err := e.excludeAuthor(ctx)
	if err != nil {
		return err
	}

	latest := insight.LatestFeed(comments, exclude)
	if limit > 0 && len(latest) > limit {
		latest = latest[:limit]
	}

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(latest)
	}

	if len(latest) == 0 {
		fmt.Println("no comments cached (try: ytmate refresh)")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "DATE\tAUTHOR\tCOMMENT")
	for _, c := range latest {
		fmt.Fprintf(w, "%s\t%s\t%s\n", c.Date, c.Author.Name, truncate(c.Text, 60))
	}
	return w.Flush()
}

func runRefresh() error {
	e, err := openEnv()
	if err != nil {
		return err
	}
	defer e.close()

	sched := e.buildScheduler(newLogger())
	result, err := sched.RefreshOnce(context.Background())
	if err != nil {
		return err
	}

	fmt.Printf("%s: %d videos, %d comments (%d new)\n",
		result.Channel.Title, result.Videos, result.Comments, result.NewComments)
	return nil
}

func runFeed(channelID string) error {
	e, err := openEnv()
	if err != nil {
		return err
	}
	defer e.close()

	videos, err := e.repo.UploadsFeed(context.Background(), channelID)
	if err != nil {
		return fmt.Errorf("fetch uploads feed: %w", err)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE")
	for _, v := range videos {
		fmt.Fprintf(w, "%s\t%s\n", v.ID, truncate(v.Title, 70))
	}
	return w.Flush()
}

func runWatch() error {
	e, err := openEnv()
	if err != nil {
		return err
	}
	defer e.close()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	sched := e.buildScheduler(newLogger())
	if err := sched.Run(ctx); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}

func runServe(port int) error {
	e, err := openEnv()
	if err != nil {
		return err
	}
	defer e.close()

	if port == 0 {
		port = e.cfg.Server.Port
	}

	sched := e.buildScheduler(newLogger())
	srv := server.New(e.repo, sched, e.cfg.Insight.ExcludeAuthor, port)
	return srv.ListenAndServe()
}

func runClear() error {
	e, err := openEnv()
	if err != nil {
		return err
	}
	defer e.close()

	if err := e.repo.ClearEverything(context.Background()); err != nil {
		return fmt.Errorf("clear: %w", err)
	}
	fmt.Println("cleared credential, channel, videos and comments")
	return nil
}

func maskKey(key string) string {
	if len(key) <= 8 {
		return strings.Repeat("*", len(key))
	}
	return key[:4] + strings.Repeat("*", len(key)-8) + key[len(key)-4:]
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
