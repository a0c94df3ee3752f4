package domain

// ProtocolVersion is the version marker the backend expects in every
// envelope.
const ProtocolVersion = "last"

const (
	OpFetchFeed       = "get_tweet_feed"
	OpToggleFavorite  = "toggle_favorite"
	OpToggleRetweet   = "toggle_retweet"
	OpToggleBookmark  = "toggle_bookmark"
	OpDeleteTweet     = "delete_tweet"
	OpGetUser         = "get_user"
	OpMessageOutgoing = "message_outgoing"
	OpMessageIncoming = "message_incoming"
	OpFetchMessages   = "message_fetch"
)

// Request is one domain call. Its envelope shape is fixed by the backend.
type Request struct {
	AppID    string
	Version  string
	Op       string
	CallerID UserID
	Args     []any
}

func NewRequest(s Session, op string, args ...any) Request {
	return Request{
		AppID:    s.AppID,
		Version:  ProtocolVersion,
		Op:       op,
		CallerID: s.User.ID,
		Args:     args,
	}
}

// Envelope returns the positional argument list
// (appID, version, op, callerID, args...).
func (r Request) Envelope() []any {
	out := make([]any, 0, 4+len(r.Args))
	out = append(out, r.AppID, r.Version, r.Op, string(r.CallerID))
	return append(out, r.Args...)
}
