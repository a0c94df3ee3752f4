package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewGuestSeedsAlphaFollowing(t *testing.T) {
	guest := NewGuest("http://10.0.0.1:8080")

	assert.Equal(t, GuestUserID, guest.ID)
	assert.True(t, guest.IsGuest())
	assert.Equal(t, AlphaUserIDs, guest.FollowingIDs)
	assert.Equal(t, "http://10.0.0.1:8080", guest.BaseURL)

	guest.FollowingIDs[0] = "changed"
	assert.NotEqual(t, UserID("changed"), AlphaUserIDs[0])
}

func TestUserWithOverridesDoesNotShareState(t *testing.T) {
	original := User{
		ID:           "u1",
		BaseURL:      "http://a:1",
		HostIDs:      []string{"p1", "p2"},
		FollowingIDs: []UserID{"u2"},
	}

	moved := original.WithBaseURL("http://b:2")
	moved.HostIDs[0] = "px"
	moved.FollowingIDs[0] = "ux"

	assert.Equal(t, "http://a:1", original.BaseURL)
	assert.Equal(t, "http://b:2", moved.BaseURL)
	assert.Equal(t, []string{"p1", "p2"}, original.HostIDs)
	assert.Equal(t, []UserID{"u2"}, original.FollowingIDs)

	hosts := []string{"h1"}
	withHosts := original.WithHostIDs(hosts)
	hosts[0] = "mutated"
	assert.Equal(t, []string{"h1"}, withHosts.HostIDs)
}

func TestUserDeliveryURLPrefersWritable(t *testing.T) {
	u := User{ID: "u1", BaseURL: "http://read:1"}
	assert.Equal(t, "http://read:1", u.DeliveryURL())

	u = u.WithWritableURL("http://write:2")
	assert.Equal(t, "http://write:2", u.DeliveryURL())

	u = u.WithWritableURL("")
	assert.Equal(t, "http://read:1", u.DeliveryURL())
}

func TestSessionKnownUserID(t *testing.T) {
	s := NewSession()
	assert.False(t, s.Resolved())
	assert.Equal(t, UserID(""), s.KnownUserID())

	s.User = User{ID: "u1"}
	s.BaseURL = "http://x:1"
	assert.True(t, s.Resolved())
	assert.Equal(t, UserID("u1"), s.KnownUserID())
}

func TestRequestEnvelopeShape(t *testing.T) {
	s := Session{AppID: "app-1", User: User{ID: "u1"}, BaseURL: "http://x:1"}

	req := NewRequest(s, OpFetchFeed, 0, 20)

	assert.Equal(t, []any{"app-1", ProtocolVersion, OpFetchFeed, "u1", 0, 20}, req.Envelope())
}

func TestMessageEncodeDecode(t *testing.T) {
	m := Message{
		ID:        "m1",
		AuthorID:  "u1",
		ReceiptID: "u2",
		Content:   "hello",
		Timestamp: time.Date(2026, 2, 14, 12, 0, 0, 0, time.UTC),
	}
	require.NoError(t, m.Validate())

	payload, err := m.Encode()
	require.NoError(t, err)

	got, err := DecodeMessage(payload)
	require.NoError(t, err)
	assert.Equal(t, m, got)

	_, err = DecodeMessage("{not json")
	require.Error(t, err)
}

func TestMessageValidate(t *testing.T) {
	tests := []struct {
		name string
		msg  Message
	}{
		{name: "missing author", msg: Message{ReceiptID: "u2", Content: "x"}},
		{name: "missing receipt", msg: Message{AuthorID: "u1", Content: "x"}},
		{name: "blank content", msg: Message{AuthorID: "u1", ReceiptID: "u2", Content: "  "}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, tt.msg.Validate())
		})
	}
}

func TestLastRank(t *testing.T) {
	assert.Equal(t, 0, LastRank(nil))
	assert.Equal(t, 42, LastRank([]Tweet{{Rank: 7}, {Rank: 42}, {Rank: 13}}))
}
