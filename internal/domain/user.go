package domain

import "slices"

type UserID string

// GuestUserID is the sentinel id of the logged-out identity. Real ids are
// never all zeroes.
const GuestUserID UserID = "000000000000000000000000000"

// AlphaUserIDs seeds the guest timeline.
var AlphaUserIDs = []UserID{
	"mwmQCHOeBUeCC0xi9Jm7qxnBMmV",
	"iFG4GC9r0fF22jYViBNlJn1kbHH",
	"n3ah9ZT9xaWgK5hgCbfCf5xzpqW",
}

type User struct {
	ID           UserID   `json:"mid"`
	Name         string   `json:"name,omitempty"`
	Username     string   `json:"username,omitempty"`
	Avatar       string   `json:"avatar,omitempty"`
	BaseURL      string   `json:"baseUrl,omitempty"`
	WritableURL  string   `json:"writableUrl,omitempty"`
	HostIDs      []string `json:"hostIds,omitempty"`
	FollowingIDs []UserID `json:"followingList,omitempty"`
}

func NewGuest(baseURL string) User {
	return User{
		ID:           GuestUserID,
		BaseURL:      baseURL,
		FollowingIDs: slices.Clone(AlphaUserIDs),
	}
}

func (u User) IsGuest() bool {
	return u.ID == "" || u.ID == GuestUserID
}

// Clone returns a copy that shares no slices with u.
func (u User) Clone() User {
	u.HostIDs = slices.Clone(u.HostIDs)
	u.FollowingIDs = slices.Clone(u.FollowingIDs)
	return u
}

func (u User) WithBaseURL(baseURL string) User {
	c := u.Clone()
	c.BaseURL = baseURL
	return c
}

func (u User) WithWritableURL(writableURL string) User {
	c := u.Clone()
	c.WritableURL = writableURL
	return c
}

func (u User) WithHostIDs(hostIDs []string) User {
	c := u.Clone()
	c.HostIDs = slices.Clone(hostIDs)
	return c
}

// DeliveryURL is the address writes for this user should target.
func (u User) DeliveryURL() string {
	if u.WritableURL != "" {
		return u.WritableURL
	}
	return u.BaseURL
}
