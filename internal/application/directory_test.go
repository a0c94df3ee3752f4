package application

import (
	"testing"

	"github.com/bnema/feedlink/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserDirectoryInsertLookupClear(t *testing.T) {
	t.Parallel()

	dir, err := NewUserDirectory(0)
	require.NoError(t, err)

	dir.Insert(domain.User{ID: "u1", Name: "Ann", HostIDs: []string{"h1"}})
	dir.Insert(domain.User{Name: "nobody"})
	assert.Equal(t, 1, dir.Len())

	got, ok := dir.Lookup("u1")
	require.True(t, ok)
	assert.Equal(t, "Ann", got.Name)

	got.HostIDs[0] = "changed"
	again, _ := dir.Lookup("u1")
	assert.Equal(t, []string{"h1"}, again.HostIDs)

	dir.Clear()
	_, ok = dir.Lookup("u1")
	assert.False(t, ok)
	assert.Zero(t, dir.Len())
}

func TestUserDirectoryEvictsLeastRecentlyUsed(t *testing.T) {
	t.Parallel()

	dir, err := NewUserDirectory(2)
	require.NoError(t, err)

	dir.Insert(domain.User{ID: "u1"})
	dir.Insert(domain.User{ID: "u2"})
	_, _ = dir.Lookup("u1")
	dir.Insert(domain.User{ID: "u3"})

	_, ok := dir.Lookup("u2")
	assert.False(t, ok)
	_, ok = dir.Lookup("u1")
	assert.True(t, ok)
}
