package domain

import "errors"

var (
	ErrNoCandidates         = errors.New("no candidate addresses configured")
	ErrResolutionExhausted  = errors.New("no candidate yielded a reachable address")
	ErrUserNotHosted        = errors.New("user has no accessible provider")
	ErrUserNotFound         = errors.New("user not found")
	ErrNotLoggedIn          = errors.New("not logged in")
	ErrInvalidAddress       = errors.New("invalid address")
	ErrAllRetriesFailed     = errors.New("all attempts failed")
	ErrRecipientUnreachable = errors.New("recipient unreachable")
	ErrDeliveryFailed       = errors.New("message sent but not delivered")
)
