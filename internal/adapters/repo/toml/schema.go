package toml

import (
	"fmt"
	"time"
)

const currentSchemaVersion = 1

type settingsSchema struct {
	Version    int      `toml:"version"`
	UserID     string   `toml:"user_id,omitempty"`
	Candidates []string `toml:"candidates"`
}

type feedSchema struct {
	Version int           `toml:"version"`
	Tweets  []tweetSchema `toml:"tweets"`
}

type tweetSchema struct {
	ID         string `toml:"id"`
	AuthorID   string `toml:"author_id"`
	Content    string `toml:"content,omitempty"`
	Rank       int    `toml:"rank"`
	Timestamp  string `toml:"timestamp,omitempty"`
	Favorites  int    `toml:"favorites,omitempty"`
	Retweets   int    `toml:"retweets,omitempty"`
	Bookmarks  int    `toml:"bookmarks,omitempty"`
	Favorited  bool   `toml:"favorited,omitempty"`
	Retweeted  bool   `toml:"retweeted,omitempty"`
	Bookmarked bool   `toml:"bookmarked,omitempty"`
}

func applyVersion(version *int) {
	if *version == 0 {
		*version = currentSchemaVersion
	}
}

func validateVersion(label string, version int) error {
	if version > currentSchemaVersion {
		return fmt.Errorf("unsupported %s schema version %d (current %d)", label, version, currentSchemaVersion)
	}

	return nil
}

func parseTime(raw string) time.Time {
	if raw == "" {
		return time.Time{}
	}

	parsed, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}
	}

	return parsed
}

func formatTime(value time.Time) string {
	if value.IsZero() {
		return ""
	}

	return value.Format(time.RFC3339Nano)
}
