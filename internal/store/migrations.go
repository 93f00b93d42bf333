package store

const schema = `
CREATE TABLE IF NOT EXISTS prefs (
    key   TEXT PRIMARY KEY,
    value TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS videos (
    position  INTEGER PRIMARY KEY,
    id        TEXT NOT NULL,
    title     TEXT NOT NULL DEFAULT '',
    thumbnail TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_videos_id ON videos(id);

CREATE TABLE IF NOT EXISTS comments (
    position       INTEGER PRIMARY KEY,
    id             TEXT NOT NULL,
    video_id       TEXT NOT NULL,
    text           TEXT NOT NULL DEFAULT '',
    published_at   TEXT NOT NULL DEFAULT '',
    author_name    TEXT NOT NULL DEFAULT '',
    author_avatar  TEXT NOT NULL DEFAULT '',
    author_profile TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_comments_id ON comments(id);
CREATE INDEX IF NOT EXISTS idx_comments_video ON comments(video_id);
`
