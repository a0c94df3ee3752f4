package domain

import "time"

type TweetID string

type Tweet struct {
	ID         TweetID   `json:"mid"`
	AuthorID   UserID    `json:"authorId"`
	Content    string    `json:"content,omitempty"`
	Rank       int       `json:"rank"`
	Timestamp  time.Time `json:"timestamp"`
	Favorites  int       `json:"favoriteCount"`
	Retweets   int       `json:"retweetCount"`
	Bookmarks  int       `json:"bookmarkCount"`
	Favorited  bool      `json:"favorited,omitempty"`
	Retweeted  bool      `json:"retweeted,omitempty"`
	Bookmarked bool      `json:"bookmarked,omitempty"`
}

// LastRank returns the highest rank in tweets, or 0 when empty.
func LastRank(tweets []Tweet) int {
	last := 0
	for _, t := range tweets {
		if t.Rank > last {
			last = t.Rank
		}
	}
	return last
}
