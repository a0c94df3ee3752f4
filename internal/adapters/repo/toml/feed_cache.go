package toml

import (
	"context"
	"slices"

	"github.com/bnema/feedlink/internal/domain"
	"github.com/bnema/feedlink/internal/ports"
	"github.com/spf13/viper"
)

// MaxCachedTweets bounds the feed file. The highest ranks are kept.
const MaxCachedTweets = 1000

// FeedCache stores fetched timeline pages keyed by tweet id.
type FeedCache struct {
	file dataFile
}

var _ ports.FeedCache = (*FeedCache)(nil)

func NewFeedCache(cfg *viper.Viper) (*FeedCache, error) {
	file, err := openDataFile(cfg, FeedPathKey, "feed")
	if err != nil {
		return nil, err
	}

	return &FeedCache{file: file}, nil
}

func (c *FeedCache) LastFeedRank(ctx context.Context) (int, error) {
	tweets, err := c.Tweets(ctx)
	if err != nil {
		return 0, err
	}

	return domain.LastRank(tweets), nil
}

// Tweets returns the cached feed ordered by rank.
func (c *FeedCache) Tweets(ctx context.Context) ([]domain.Tweet, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c.file.mu.RLock()
	defer c.file.mu.RUnlock()

	feed, err := c.readSchema()
	if err != nil {
		return nil, err
	}

	tweets := make([]domain.Tweet, 0, len(feed.Tweets))
	for _, entry := range feed.Tweets {
		tweets = append(tweets, fromTweetSchema(entry))
	}

	return tweets, nil
}

// SaveFeed merges tweets into the cache. A tweet already cached is replaced
// by the newer copy.
func (c *FeedCache) SaveFeed(ctx context.Context, tweets []domain.Tweet) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(tweets) == 0 {
		return nil
	}

	c.file.mu.Lock()
	defer c.file.mu.Unlock()

	feed, err := c.readSchema()
	if err != nil {
		return err
	}

	index := make(map[string]int, len(feed.Tweets))
	for i, entry := range feed.Tweets {
		index[entry.ID] = i
	}
	for _, tweet := range tweets {
		encoded := toTweetSchema(tweet)
		if i, ok := index[encoded.ID]; ok {
			feed.Tweets[i] = encoded
			continue
		}
		index[encoded.ID] = len(feed.Tweets)
		feed.Tweets = append(feed.Tweets, encoded)
	}

	slices.SortStableFunc(feed.Tweets, func(a, b tweetSchema) int {
		return a.Rank - b.Rank
	})
	if len(feed.Tweets) > MaxCachedTweets {
		feed.Tweets = feed.Tweets[len(feed.Tweets)-MaxCachedTweets:]
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	return c.file.write(feed)
}

// Clear drops every cached tweet.
func (c *FeedCache) Clear(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	c.file.mu.Lock()
	defer c.file.mu.Unlock()

	return c.file.write(feedSchema{Version: currentSchemaVersion, Tweets: []tweetSchema{}})
}

func (c *FeedCache) readSchema() (feedSchema, error) {
	var feed feedSchema
	if _, err := c.file.read(&feed); err != nil {
		return feedSchema{}, err
	}
	if err := validateVersion("feed", feed.Version); err != nil {
		return feedSchema{}, err
	}
	applyVersion(&feed.Version)

	return feed, nil
}

func toTweetSchema(tweet domain.Tweet) tweetSchema {
	return tweetSchema{
		ID:         string(tweet.ID),
		AuthorID:   string(tweet.AuthorID),
		Content:    tweet.Content,
		Rank:       tweet.Rank,
		Timestamp:  formatTime(tweet.Timestamp),
		Favorites:  tweet.Favorites,
		Retweets:   tweet.Retweets,
		Bookmarks:  tweet.Bookmarks,
		Favorited:  tweet.Favorited,
		Retweeted:  tweet.Retweeted,
		Bookmarked: tweet.Bookmarked,
	}
}

func fromTweetSchema(entry tweetSchema) domain.Tweet {
	return domain.Tweet{
		ID:         domain.TweetID(entry.ID),
		AuthorID:   domain.UserID(entry.AuthorID),
		Content:    entry.Content,
		Rank:       entry.Rank,
		Timestamp:  parseTime(entry.Timestamp),
		Favorites:  entry.Favorites,
		Retweets:   entry.Retweets,
		Bookmarks:  entry.Bookmarks,
		Favorited:  entry.Favorited,
		Retweeted:  entry.Retweeted,
		Bookmarked: entry.Bookmarked,
	}
}
