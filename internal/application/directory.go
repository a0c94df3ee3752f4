package application

import (
	"fmt"

	"github.com/bnema/feedlink/internal/domain"
	lru "github.com/hashicorp/golang-lru/v2"
)

const DefaultDirectorySize = 512

// UserDirectory remembers users resolved since the last resolution pass.
// Entries are advisory and may be stale.
type UserDirectory struct {
	users *lru.Cache[domain.UserID, domain.User]
}

func NewUserDirectory(size int) (*UserDirectory, error) {
	if size <= 0 {
		size = DefaultDirectorySize
	}

	users, err := lru.New[domain.UserID, domain.User](size)
	if err != nil {
		return nil, fmt.Errorf("create user directory: %w", err)
	}

	return &UserDirectory{users: users}, nil
}

func (d *UserDirectory) Lookup(id domain.UserID) (domain.User, bool) {
	user, ok := d.users.Get(id)
	if !ok {
		return domain.User{}, false
	}
	return user.Clone(), true
}

func (d *UserDirectory) Insert(user domain.User) {
	if user.ID == "" {
		return
	}
	d.users.Add(user.ID, user.Clone())
}

func (d *UserDirectory) Clear() {
	d.users.Purge()
}

func (d *UserDirectory) Len() int {
	return d.users.Len()
}
