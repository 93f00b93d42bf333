// Package store persists the credential, the selected channel and the
// fetched video/comment collections in SQLite, and exposes each category as
// an observable stream. The store is the cache; it applies no freshness
// policy of its own.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/statweer/youtube-mate/internal/model"
)

// Preference keys for the single-slot JSON blobs.
const (
	prefCredential = "youtube_api_key"
	prefChannel    = "youtube_channel"
)

// Store is the persistence interface.
type Store interface {
	StoreCredential(ctx context.Context, cred model.Credential) error
	Credential(ctx context.Context) (*model.Credential, error)
	ObserveCredential() (<-chan *model.Credential, func())

	StoreChannel(ctx context.Context, channel model.Channel) error
	Channel(ctx context.Context) (*model.Channel, error)
	ObserveChannel() (<-chan *model.Channel, func())
	DeleteChannel(ctx context.Context) error

	StoreVideos(ctx context.Context, videos []model.Video) error
	Videos(ctx context.Context) ([]model.Video, error)
	ObserveVideos() (<-chan []model.Video, func())
	DeleteAllVideos(ctx context.Context) error

	StoreComments(ctx context.Context, comments []model.Comment) error
	Comments(ctx context.Context) ([]model.Comment, error)
	ObserveComments() (<-chan []model.Comment, func())
	DeleteAllComments(ctx context.Context) error

	ClearEverything(ctx context.Context) error

	Close() error
}

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sqlx.DB

	credentialSub *subject[*model.Credential]
	channelSub    *subject[*model.Channel]
	videosSub     *subject[[]model.Video]
	commentsSub   *subject[[]model.Comment]
}

// New opens a SQLite database, runs migrations and seeds the observable
// streams with the persisted state so the first observer of each category
// sees the current value immediately.
func New(path string) (*SQLiteStore, error) {
	db, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	s := &SQLiteStore{
		db:            db,
		credentialSub: newSubject[*model.Credential](),
		channelSub:    newSubject[*model.Channel](),
		videosSub:     newSubject[[]model.Video](),
		commentsSub:   newSubject[[]model.Comment](),
	}

	if err := s.seedSubjects(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("seed observers: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) seedSubjects(ctx context.Context) error {
	cred, err := s.Credential(ctx)
	if err != nil {
		return err
	}
	s.credentialSub.publish(cred)

	channel, err := s.Channel(ctx)
	if err != nil {
		return err
	}
	s.channelSub.publish(channel)

	videos, err := s.Videos(ctx)
	if err != nil {
		return err
	}
	s.videosSub.publish(videos)

	comments, err := s.Comments(ctx)
	if err != nil {
		return err
	}
	s.commentsSub.publish(comments)
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) StoreCredential(ctx context.Context, cred model.Credential) error {
	if err := s.storePref(ctx, prefCredential, cred); err != nil {
		return fmt.Errorf("store credential: %w", err)
	}
	c := cred
	s.credentialSub.publish(&c)
	return nil
}

func (s *SQLiteStore) Credential(ctx context.Context) (*model.Credential, error) {
	var cred model.Credential
	ok, err := s.loadPref(ctx, prefCredential, &cred)
	if err != nil {
		return nil, fmt.Errorf("load credential: %w", err)
	}
	if !ok {
		return nil, nil
	}
	return &cred, nil
}

func (s *SQLiteStore) ObserveCredential() (<-chan *model.Credential, func()) {
	return s.credentialSub.subscribe()
}

func (s *SQLiteStore) StoreChannel(ctx context.Context, channel model.Channel) error {
	if err := s.storePref(ctx, prefChannel, channel); err != nil {
		return fmt.Errorf("store channel: %w", err)
	}
	ch := channel
	s.channelSub.publish(&ch)
	return nil
}

func (s *SQLiteStore) Channel(ctx context.Context) (*model.Channel, error) {
	var channel model.Channel
	ok, err := s.loadPref(ctx, prefChannel, &channel)
	if err != nil {
		return nil, fmt.Errorf("load channel: %w", err)
	}
	if !ok {
		return nil, nil
	}
	return &channel, nil
}

func (s *SQLiteStore) ObserveChannel() (<-chan *model.Channel, func()) {
	return s.channelSub.subscribe()
}

func (s *SQLiteStore) DeleteChannel(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM prefs WHERE key = ?", prefChannel); err != nil {
		return fmt.Errorf("delete channel: %w", err)
	}
	s.channelSub.publish(nil)
	return nil
}

// StoreVideos replaces the whole video collection with the given one,
// preserving fetch order. There is no merge policy.
func (s *SQLiteStore) StoreVideos(ctx context.Context, videos []model.Video) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store videos: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM videos"); err != nil {
		return fmt.Errorf("store videos: %w", err)
	}
	for i, v := range videos {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO videos (position, id, title, thumbnail) VALUES (?, ?, ?, ?)",
			i, v.ID, v.Title, v.Thumbnail)
		if err != nil {
			return fmt.Errorf("store video %s: %w", v.ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("store videos: %w", err)
	}

	s.videosSub.publish(videos)
	return nil
}

func (s *SQLiteStore) Videos(ctx context.Context) ([]model.Video, error) {
	var videos []model.Video
	err := s.db.SelectContext(ctx, &videos,
		"SELECT id, title, thumbnail FROM videos ORDER BY position")
	if err != nil {
		return nil, fmt.Errorf("list videos: %w", err)
	}
	return videos, nil
}

func (s *SQLiteStore) ObserveVideos() (<-chan []model.Video, func()) {
	return s.videosSub.subscribe()
}

func (s *SQLiteStore) DeleteAllVideos(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM videos"); err != nil {
		return fmt.Errorf("delete videos: %w", err)
	}
	s.videosSub.publish(nil)
	return nil
}

// StoreComments replaces the whole comment collection, like StoreVideos.
func (s *SQLiteStore) StoreComments(ctx context.Context, comments []model.Comment) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store comments: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM comments"); err != nil {
		return fmt.Errorf("store comments: %w", err)
	}
	for i, c := range comments {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO comments (position, id, video_id, text, published_at, author_name, author_avatar, author_profile)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`, i, c.ID, c.VideoID, c.Text, c.Date, c.Author.Name, c.Author.AvatarURL, c.Author.ProfileLink)
		if err != nil {
			return fmt.Errorf("store comment %s: %w", c.ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("store comments: %w", err)
	}

	s.commentsSub.publish(comments)
	return nil
}

type commentRow struct {
	ID            string `db:"id"`
	VideoID       string `db:"video_id"`
	Text          string `db:"text"`
	PublishedAt   string `db:"published_at"`
	AuthorName    string `db:"author_name"`
	AuthorAvatar  string `db:"author_avatar"`
	AuthorProfile string `db:"author_profile"`
}

func (s *SQLiteStore) Comments(ctx context.Context) ([]model.Comment, error) {
	var rows []commentRow
	err := s.db.SelectContext(ctx, &rows, `
		SELECT id, video_id, text, published_at, author_name, author_avatar, author_profile
		FROM comments ORDER BY position
	`)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}

	comments := make([]model.Comment, 0, len(rows))
	for _, r := range rows {
		comments = append(comments, model.Comment{
			ID:      r.ID,
			Text:    r.Text,
			VideoID: r.VideoID,
			Date:    r.PublishedAt,
			Author: model.CommentAuthor{
				Name:        r.AuthorName,
				AvatarURL:   r.AuthorAvatar,
				ProfileLink: r.AuthorProfile,
			},
		})
	}
	return comments, nil
}

func (s *SQLiteStore) ObserveComments() (<-chan []model.Comment, func()) {
	return s.commentsSub.subscribe()
}

func (s *SQLiteStore) DeleteAllComments(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM comments"); err != nil {
		return fmt.Errorf("delete comments: %w", err)
	}
	s.commentsSub.publish(nil)
	return nil
}

// ClearEverything removes the credential, the channel and both collections.
// Deletes run sequentially; a failure stops the sequence and reports which
// category failed.
func (s *SQLiteStore) ClearEverything(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM prefs WHERE key = ?", prefCredential); err != nil {
		return fmt.Errorf("clear credential: %w", err)
	}
	s.credentialSub.publish(nil)

	if err := s.DeleteChannel(ctx); err != nil {
		return err
	}
	if err := s.DeleteAllVideos(ctx); err != nil {
		return err
	}
	if err := s.DeleteAllComments(ctx); err != nil {
		return err
	}
	return nil
}

func (s *SQLiteStore) storePref(ctx context.Context, key string, value any) error {
	blob, err := json.Marshal(value)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO prefs (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, string(blob))
	return err
}

// loadPref reads one JSON blob; ok is false when the slot is empty.
func (s *SQLiteStore) loadPref(ctx context.Context, key string, out any) (bool, error) {
	var blob string
	err := s.db.GetContext(ctx, &blob, "SELECT value FROM prefs WHERE key = ?", key)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal([]byte(blob), out); err != nil {
		return false, err
	}
	return true, nil
}
