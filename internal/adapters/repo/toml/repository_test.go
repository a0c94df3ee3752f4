package toml

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/bnema/feedlink/internal/domain"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSettings(t *testing.T, path string) *SettingsRepository {
	t.Helper()

	config := viper.New()
	config.Set(SettingsPathKey, path)

	repo, err := NewSettingsRepository(config)
	require.NoError(t, err)
	return repo
}

func newFeed(t *testing.T, path string) *FeedCache {
	t.Helper()

	config := viper.New()
	config.Set(FeedPathKey, path)

	cache, err := NewFeedCache(config)
	require.NoError(t, err)
	return cache
}

func TestSettingsRoundTrip(t *testing.T) {
	t.Parallel()

	repo := newSettings(t, filepath.Join(t.TempDir(), "settings.toml"))
	ctx := context.Background()

	require.NoError(t, repo.SetCandidateAddresses(ctx, []string{"a.example:80", " ", "https://b.example"}))
	require.NoError(t, repo.SetPersistedUserID(ctx, "u1"))

	candidates, err := repo.CandidateAddresses(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.example:80", "https://b.example"}, candidates)

	userID, err := repo.PersistedUserID(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.UserID("u1"), userID)
}

func TestSettingsGuestIDLogsOut(t *testing.T) {
	t.Parallel()

	repo := newSettings(t, filepath.Join(t.TempDir(), "settings.toml"))
	ctx := context.Background()

	require.NoError(t, repo.SetPersistedUserID(ctx, "u1"))
	require.NoError(t, repo.SetPersistedUserID(ctx, domain.GuestUserID))

	userID, err := repo.PersistedUserID(ctx)
	require.NoError(t, err)
	assert.Empty(t, userID)
}

func TestSettingsMissingFileIsEmpty(t *testing.T) {
	t.Parallel()

	repo := newSettings(t, filepath.Join(t.TempDir(), "missing", "settings.toml"))

	candidates, err := repo.CandidateAddresses(context.Background())
	require.NoError(t, err)
	assert.Empty(t, candidates)

	userID, err := repo.PersistedUserID(context.Background())
	require.NoError(t, err)
	assert.Empty(t, userID)
}

func TestSettingsReadsHandWrittenFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "settings.toml")
	require.NoError(t, os.WriteFile(path, []byte(strings.Join([]string{
		"version = 1",
		`user_id = "u7"`,
		`candidates = ["a.example:80", "b.example:80"]`,
		"",
	}, "\n")), 0o600))

	repo := newSettings(t, path)

	candidates, err := repo.CandidateAddresses(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"a.example:80", "b.example:80"}, candidates)

	userID, err := repo.PersistedUserID(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.UserID("u7"), userID)
}

func TestSettingsSaveCreatesDefaultPathAndEnforcesPermissions(t *testing.T) {
	homeDir := t.TempDir()
	t.Setenv("HOME", homeDir)

	repo, err := NewSettingsRepository(viper.New())
	require.NoError(t, err)

	require.NoError(t, repo.SetPersistedUserID(context.Background(), "u1"))

	info, err := os.Stat(filepath.Join(homeDir, ".feedlink", "settings.toml"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestLoadConfigHonorsConfigDir(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte(strings.Join([]string{
		"[feed]",
		"page_size = 50",
		"",
	}, "\n")), 0o600))

	config := viper.New()
	config.Set(ConfigDirKey, dir)
	require.NoError(t, LoadConfig(config))

	assert.Equal(t, 50, config.GetInt("feed.page_size"))
	assert.Equal(t, filepath.Join(dir, "settings.toml"), config.GetString(SettingsPathKey))
	assert.Equal(t, filepath.Join(dir, "feed.toml"), config.GetString(FeedPathKey))
}

func TestSettingsMalformedTOMLReturnsError(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "settings.toml")
	require.NoError(t, os.WriteFile(path, []byte("candidates = ["), 0o600))

	_, err := newSettings(t, path).CandidateAddresses(context.Background())
	require.Error(t, err)
	assert.ErrorContains(t, err, "decode settings file")
}

func TestSettingsFutureSchemaVersionReturnsError(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "settings.toml")
	require.NoError(t, os.WriteFile(path, []byte("version = 999\n"), 0o600))

	_, err := newSettings(t, path).PersistedUserID(context.Background())
	require.Error(t, err)
	assert.ErrorContains(t, err, "unsupported settings schema version")
}

func TestSettingsCanceledContextReturnsContextError(t *testing.T) {
	t.Parallel()

	repo := newSettings(t, filepath.Join(t.TempDir(), "settings.toml"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := repo.SetPersistedUserID(ctx, "u1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestSettingsSerializedTOMLIncludesVersion(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "settings.toml")
	require.NoError(t, newSettings(t, path).SetPersistedUserID(context.Background(), "u1"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "version = 1")
}

func TestFeedCacheMergesAndTracksLastRank(t *testing.T) {
	t.Parallel()

	cache := newFeed(t, filepath.Join(t.TempDir(), "feed.toml"))
	ctx := context.Background()
	at := time.Date(2026, 2, 14, 11, 0, 0, 0, time.UTC)

	rank, err := cache.LastFeedRank(ctx)
	require.NoError(t, err)
	assert.Zero(t, rank)

	require.NoError(t, cache.SaveFeed(ctx, []domain.Tweet{
		{ID: "t2", AuthorID: "u1", Content: "second", Rank: 20, Timestamp: at},
		{ID: "t1", AuthorID: "u1", Content: "first", Rank: 10, Timestamp: at},
	}))
	require.NoError(t, cache.SaveFeed(ctx, []domain.Tweet{
		{ID: "t1", AuthorID: "u1", Content: "first", Rank: 10, Timestamp: at, Favorited: true, Favorites: 1},
		{ID: "t3", AuthorID: "u2", Content: "third", Rank: 37},
	}))

	rank, err = cache.LastFeedRank(ctx)
	require.NoError(t, err)
	assert.Equal(t, 37, rank)

	tweets, err := cache.Tweets(ctx)
	require.NoError(t, err)
	require.Len(t, tweets, 3)
	assert.Equal(t, domain.TweetID("t1"), tweets[0].ID)
	assert.True(t, tweets[0].Favorited)
	assert.Equal(t, at, tweets[0].Timestamp)
	assert.Equal(t, domain.TweetID("t3"), tweets[2].ID)
}

func TestFeedCacheKeepsHighestRanks(t *testing.T) {
	t.Parallel()

	cache := newFeed(t, filepath.Join(t.TempDir(), "feed.toml"))

	tweets := make([]domain.Tweet, 0, MaxCachedTweets+5)
	for i := 1; i <= MaxCachedTweets+5; i++ {
		tweets = append(tweets, domain.Tweet{ID: domain.TweetID("t" + strconv.Itoa(i)), Rank: i})
	}
	require.NoError(t, cache.SaveFeed(context.Background(), tweets))

	cached, err := cache.Tweets(context.Background())
	require.NoError(t, err)
	require.Len(t, cached, MaxCachedTweets)
	assert.Equal(t, 6, cached[0].Rank)
}

func TestFeedCacheClear(t *testing.T) {
	t.Parallel()

	cache := newFeed(t, filepath.Join(t.TempDir(), "feed.toml"))
	ctx := context.Background()

	require.NoError(t, cache.SaveFeed(ctx, []domain.Tweet{{ID: "t1", Rank: 4}}))
	require.NoError(t, cache.Clear(ctx))

	rank, err := cache.LastFeedRank(ctx)
	require.NoError(t, err)
	assert.Zero(t, rank)
}

func TestFeedCacheConcurrentSavesAcrossInstancesPreserveAll(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "feed.toml")
	cacheA := newFeed(t, path)
	cacheB := newFeed(t, path)

	const perCacheWrites = 50
	start := make(chan struct{})
	errCh := make(chan error, perCacheWrites*2)
	var wg sync.WaitGroup
	wg.Add(2)

	save := func(cache *FeedCache, prefix string, offset int) {
		defer wg.Done()
		<-start
		for i := 0; i < perCacheWrites; i++ {
			errCh <- cache.SaveFeed(context.Background(), []domain.Tweet{
				{ID: domain.TweetID(prefix + strconv.Itoa(i)), Rank: offset + i},
			})
		}
	}

	go save(cacheA, "a-", 0)
	go save(cacheB, "b-", 1000)

	close(start)
	wg.Wait()
	close(errCh)

	for err := range errCh {
		require.NoError(t, err)
	}

	tweets, err := cacheA.Tweets(context.Background())
	require.NoError(t, err)
	assert.Len(t, tweets, perCacheWrites*2)
}
