package feed

import (
	"testing"
	"time"

	"github.com/bnema/feedlink/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func names(users ...domain.User) func(domain.UserID) (domain.User, bool) {
	return func(id domain.UserID) (domain.User, bool) {
		for _, u := range users {
			if u.ID == id {
				return u, true
			}
		}
		return domain.User{}, false
	}
}

func TestRenderTimeline(t *testing.T) {
	now := time.Date(2026, 2, 14, 11, 0, 0, 0, time.UTC)

	output, err := RenderTimeline([]domain.Tweet{
		{ID: "t1", AuthorID: "u1", Content: "hello world", Rank: 4, Timestamp: now.Add(-5 * time.Minute), Favorites: 3, Favorited: true},
		{ID: "t2", AuthorID: "u2", Content: "second", Rank: 9, Timestamp: now.Add(-3 * time.Hour), Retweets: 1},
	}, RenderOptions{Now: now, Names: names(domain.User{ID: "u1", Name: "Ann", Username: "ann"})})

	require.NoError(t, err)
	assert.Contains(t, output, "tweets: 2")
	assert.Contains(t, output, "Ann")
	assert.Contains(t, output, "@ann")
	assert.Contains(t, output, "u2")
	assert.Contains(t, output, "hello world")
	assert.Contains(t, output, "#4 5m ago")
	assert.Contains(t, output, "#9 3h ago")
	assert.Contains(t, output, "♥ 3")
	assert.Contains(t, output, "id t2")
}

func TestRenderEmptyTimeline(t *testing.T) {
	output, err := RenderTimeline(nil, RenderOptions{})

	require.NoError(t, err)
	assert.Contains(t, output, "tweets: 0")
	assert.Contains(t, output, "Nothing new.")
}

func TestRenderSession(t *testing.T) {
	output, err := RenderSession(domain.Session{
		AppID:   "app-1",
		User:    domain.User{ID: "u1", HostIDs: []string{"x.test:80"}},
		BaseURL: "http://x.test:80",
	})

	require.NoError(t, err)
	assert.Contains(t, output, "user: u1")
	assert.Contains(t, output, "app: app-1")
	assert.Contains(t, output, "address: http://x.test:80")
	assert.Contains(t, output, "providers: x.test:80")
	assert.NotContains(t, output, "not resolved")
}

func TestRenderUnresolvedGuestSession(t *testing.T) {
	output, err := RenderSession(domain.NewSession())

	require.NoError(t, err)
	assert.Contains(t, output, "not resolved")
	assert.Contains(t, output, "user: guest")
	assert.Contains(t, output, "address: none")
}

func TestRenderUser(t *testing.T) {
	output, err := RenderUser(domain.User{
		ID:           "u2",
		Name:         "Bob",
		Username:     "bob",
		BaseURL:      "http://r.test:80",
		HostIDs:      []string{"r.test:80"},
		FollowingIDs: []domain.UserID{"u1", "u3"},
	})

	require.NoError(t, err)
	assert.Contains(t, output, "Bob (u2)")
	assert.Contains(t, output, "@bob")
	assert.Contains(t, output, "address: http://r.test:80")
	assert.Contains(t, output, "following: 2")
}

func TestRenderConversation(t *testing.T) {
	now := time.Date(2026, 2, 14, 11, 0, 0, 0, time.UTC)

	output, err := RenderConversation("u1", "u2", []domain.Message{
		{AuthorID: "u1", ReceiptID: "u2", Content: "hi", Timestamp: now.Add(-time.Hour)},
		{AuthorID: "u2", ReceiptID: "u1", Content: "hey", Timestamp: now.Add(-48 * time.Hour)},
	}, RenderOptions{Now: now, Names: names(domain.User{ID: "u2", Name: "Bob"})})

	require.NoError(t, err)
	assert.Contains(t, output, "Conversation with Bob")
	assert.Contains(t, output, "messages: 2")
	assert.Contains(t, output, "10:00 you: hi")
	assert.Contains(t, output, "11:00 on 12 Feb Bob: hey")
}

func TestRenderEmptyConversation(t *testing.T) {
	output, err := RenderConversation("u1", "u2", nil, RenderOptions{})

	require.NoError(t, err)
	assert.Contains(t, output, "No messages yet.")
}

func TestRenderMessage(t *testing.T) {
	now := time.Date(2026, 2, 14, 11, 0, 0, 0, time.UTC)

	output, err := RenderMessage("u1", domain.Message{AuthorID: "u2", Content: "ping", Timestamp: now}, RenderOptions{Now: now})

	require.NoError(t, err)
	assert.Contains(t, output, "11:00 u2: ping")
}
