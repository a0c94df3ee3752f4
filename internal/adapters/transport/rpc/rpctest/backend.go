// Package rpctest provides an in-memory backend speaking the feed JSON-RPC
// protocol, for use in tests.
package rpctest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"slices"
	"sync"

	"github.com/bnema/feedlink/internal/adapters/transport/rpc"
	"github.com/bnema/feedlink/internal/domain"
)

const (
	CodeBadRequest = 400
	CodeNotFound   = 404
	CodeInjected   = 500
)

// Backend hosts users, a timeline and message logs behind one HTTP server.
type Backend struct {
	AppID string

	mu      sync.Mutex
	server  *httptest.Server
	users   map[domain.UserID]domain.User
	hosts   map[domain.UserID][]string
	tweets  []domain.Tweet
	logs    map[domain.UserID][]string
	failing map[string]int
	calls   map[string]int
}

// NewBackend starts a backend. Callers must Close it.
func NewBackend(appID string) *Backend {
	b := &Backend{
		AppID:   appID,
		users:   map[domain.UserID]domain.User{},
		hosts:   map[domain.UserID][]string{},
		logs:    map[domain.UserID][]string{},
		failing: map[string]int{},
		calls:   map[string]int{},
	}
	b.server = httptest.NewServer(http.HandlerFunc(b.serveHTTP))
	return b
}

func (b *Backend) Close() {
	b.server.Close()
}

func (b *Backend) URL() string {
	return b.server.URL
}

// Addr is the host:port the backend advertises in discovery.
func (b *Backend) Addr() string {
	parsed, err := url.Parse(b.server.URL)
	if err != nil {
		return ""
	}
	return parsed.Host
}

func (b *Backend) AddUser(user domain.User) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.users[user.ID] = user.Clone()
}

// Host overrides the providers reported for id. Users without an override
// are hosted by the backend itself.
func (b *Backend) Host(id domain.UserID, providers ...string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.hosts[id] = slices.Clone(providers)
}

func (b *Backend) AddTweets(tweets ...domain.Tweet) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.tweets = append(b.tweets, tweets...)
	slices.SortStableFunc(b.tweets, func(x, y domain.Tweet) int { return x.Rank - y.Rank })
}

// FailNext makes the next n run_app calls of op answer with a remote error.
func (b *Backend) FailNext(op string, n int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.failing[op] = n
}

// Calls reports how many times method (or run_app op) was served.
func (b *Backend) Calls(name string) int {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.calls[name]
}

// Log returns the raw message payloads stored for owner.
func (b *Backend) Log(owner domain.UserID) []string {
	b.mu.Lock()
	defer b.mu.Unlock()

	return slices.Clone(b.logs[owner])
}

func (b *Backend) serveHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost || r.URL.Path != rpc.DefaultPath {
		http.NotFound(w, r)
		return
	}

	var req rpc.Request
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, rpc.MaxBodyBytes)).Decode(&req); err != nil {
		http.Error(w, "malformed request", http.StatusBadRequest)
		return
	}

	result, rerr := b.dispatch(req)

	resp := rpc.Response{Error: rerr}
	if rerr == nil {
		data, err := json.Marshal(result)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		resp.Result = data
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

func (b *Backend) dispatch(req rpc.Request) (any, *rpc.RemoteError) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.calls[req.Method]++

	switch req.Method {
	case rpc.MethodServiceParams:
		return domain.ServiceParams{AppID: b.AppID, Addresses: []string{b.addrLocked()}}, nil
	case rpc.MethodProviders:
		id, err := stringParam(req.Params, 0)
		if err != nil {
			return nil, err
		}
		return b.providersLocked(domain.UserID(id)), nil
	case rpc.MethodRunApp:
		return b.runAppLocked(req.Params)
	default:
		return nil, &rpc.RemoteError{Code: CodeNotFound, Message: "unknown method " + req.Method}
	}
}

func (b *Backend) addrLocked() string {
	parsed, err := url.Parse(b.server.URL)
	if err != nil {
		return ""
	}
	return parsed.Host
}

func (b *Backend) providersLocked(id domain.UserID) []string {
	if providers, ok := b.hosts[id]; ok {
		return slices.Clone(providers)
	}
	if _, ok := b.users[id]; ok {
		return []string{b.addrLocked()}
	}
	return []string{}
}

// runAppLocked serves the envelope (app id, version, op, caller, args...).
func (b *Backend) runAppLocked(params []any) (any, *rpc.RemoteError) {
	if len(params) < 4 {
		return nil, &rpc.RemoteError{Code: CodeBadRequest, Message: "short envelope"}
	}
	appID, _ := params[0].(string)
	if appID != b.AppID {
		return nil, &rpc.RemoteError{Code: CodeBadRequest, Message: "unknown app id"}
	}
	op, _ := params[2].(string)
	caller, _ := params[3].(string)
	args := params[4:]

	b.calls[op]++
	if b.failing[op] > 0 {
		b.failing[op]--
		return nil, &rpc.RemoteError{Code: CodeInjected, Message: "injected failure"}
	}

	switch op {
	case domain.OpFetchFeed:
		start, err := intParam(args, 0)
		if err != nil {
			return nil, err
		}
		end, err := intParam(args, 1)
		if err != nil {
			return nil, err
		}
		page := []domain.Tweet{}
		for _, t := range b.tweets {
			if t.Rank > start && t.Rank <= end {
				page = append(page, t)
			}
		}
		return page, nil
	case domain.OpToggleFavorite, domain.OpToggleRetweet, domain.OpToggleBookmark:
		id, err := stringParam(args, 0)
		if err != nil {
			return nil, err
		}
		return b.toggleLocked(op, domain.TweetID(id))
	case domain.OpDeleteTweet:
		id, err := stringParam(args, 0)
		if err != nil {
			return nil, err
		}
		i := slices.IndexFunc(b.tweets, func(t domain.Tweet) bool { return t.ID == domain.TweetID(id) })
		if i < 0 {
			return nil, &rpc.RemoteError{Code: CodeNotFound, Message: "no tweet " + id}
		}
		b.tweets = slices.Delete(b.tweets, i, i+1)
		return id, nil
	case domain.OpGetUser:
		id, err := stringParam(args, 0)
		if err != nil {
			return nil, err
		}
		user, ok := b.users[domain.UserID(id)]
		if !ok {
			return nil, nil
		}
		return user, nil
	case domain.OpMessageOutgoing:
		payload, err := stringParam(args, 1)
		if err != nil {
			return nil, err
		}
		b.logs[domain.UserID(caller)] = append(b.logs[domain.UserID(caller)], payload)
		return true, nil
	case domain.OpMessageIncoming:
		payload, err := stringParam(args, 1)
		if err != nil {
			return nil, err
		}
		msg, derr := domain.DecodeMessage(payload)
		if derr != nil {
			return nil, &rpc.RemoteError{Code: CodeBadRequest, Message: derr.Error()}
		}
		b.logs[msg.ReceiptID] = append(b.logs[msg.ReceiptID], payload)
		return true, nil
	case domain.OpFetchMessages:
		peer, err := stringParam(args, 0)
		if err != nil {
			return nil, err
		}
		out := []string{}
		for _, payload := range b.logs[domain.UserID(caller)] {
			msg, derr := domain.DecodeMessage(payload)
			if derr != nil {
				continue
			}
			if string(msg.AuthorID) == peer || string(msg.ReceiptID) == peer {
				out = append(out, payload)
			}
		}
		return out, nil
	default:
		return nil, &rpc.RemoteError{Code: CodeNotFound, Message: "unknown op " + op}
	}
}

func (b *Backend) toggleLocked(op string, id domain.TweetID) (any, *rpc.RemoteError) {
	i := slices.IndexFunc(b.tweets, func(t domain.Tweet) bool { return t.ID == id })
	if i < 0 {
		return nil, &rpc.RemoteError{Code: CodeNotFound, Message: "no tweet " + string(id)}
	}

	t := &b.tweets[i]
	switch op {
	case domain.OpToggleFavorite:
		t.Favorited = !t.Favorited
		t.Favorites += delta(t.Favorited)
	case domain.OpToggleRetweet:
		t.Retweeted = !t.Retweeted
		t.Retweets += delta(t.Retweeted)
	case domain.OpToggleBookmark:
		t.Bookmarked = !t.Bookmarked
		t.Bookmarks += delta(t.Bookmarked)
	}

	return *t, nil
}

func delta(on bool) int {
	if on {
		return 1
	}
	return -1
}

func stringParam(params []any, i int) (string, *rpc.RemoteError) {
	if i >= len(params) {
		return "", &rpc.RemoteError{Code: CodeBadRequest, Message: fmt.Sprintf("missing param %d", i)}
	}
	s, ok := params[i].(string)
	if !ok {
		return "", &rpc.RemoteError{Code: CodeBadRequest, Message: fmt.Sprintf("param %d is not a string", i)}
	}
	return s, nil
}

func intParam(params []any, i int) (int, *rpc.RemoteError) {
	if i >= len(params) {
		return 0, &rpc.RemoteError{Code: CodeBadRequest, Message: fmt.Sprintf("missing param %d", i)}
	}
	n, ok := params[i].(float64)
	if !ok {
		return 0, &rpc.RemoteError{Code: CodeBadRequest, Message: fmt.Sprintf("param %d is not a number", i)}
	}
	return int(n), nil
}
