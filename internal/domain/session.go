package domain

// Session is the identity established against the backend: which deployment
// answered discovery, who is acting, and where calls are sent.
type Session struct {
	AppID   string
	User    User
	BaseURL string
}

func NewSession() Session {
	return Session{User: User{ID: GuestUserID}}
}

func (s Session) Resolved() bool {
	return s.BaseURL != ""
}

// Clone returns a copy that shares no slices with s.
func (s Session) Clone() Session {
	s.User = s.User.Clone()
	return s
}

// KnownUserID returns the id to resolve for, or "" for the guest.
func (s Session) KnownUserID() UserID {
	if s.User.IsGuest() {
		return ""
	}
	return s.User.ID
}

// ServiceParams is the result of a discovery call against a candidate.
type ServiceParams struct {
	AppID     string   `json:"app_id"`
	Addresses []string `json:"addresses"`
}
