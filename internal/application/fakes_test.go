package application

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/bnema/feedlink/internal/domain"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

const (
	testAppID = "app-test"
	nodeX     = "http://x.test:8080"
	nodeY     = "http://y.test:8080"
	nodeR     = "http://r.test:8080"
)

type fakeSettings struct {
	mu         sync.Mutex
	candidates []string
	userID     domain.UserID
	err        error
}

func (s *fakeSettings) CandidateAddresses(context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.err != nil {
		return nil, s.err
	}
	return slices.Clone(s.candidates), nil
}

func (s *fakeSettings) PersistedUserID(context.Context) (domain.UserID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.userID, nil
}

func (s *fakeSettings) SetPersistedUserID(_ context.Context, id domain.UserID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.userID = id
	return nil
}

func (s *fakeSettings) setCandidates(candidates ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.candidates = candidates
}

type fakeFeedCache struct {
	mu     sync.Mutex
	tweets []domain.Tweet
	err    error
}

func (c *fakeFeedCache) LastFeedRank(context.Context) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.err != nil {
		return 0, c.err
	}
	return domain.LastRank(c.tweets), nil
}

func (c *fakeFeedCache) SaveFeed(_ context.Context, tweets []domain.Tweet) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.tweets = append(c.tweets, tweets...)
	return nil
}

type fakeProber struct {
	down map[string]bool
}

func (p fakeProber) Probe(_ context.Context, hostport string) error {
	if p.down[hostport] {
		return fmt.Errorf("probe %s: connection refused", hostport)
	}
	return nil
}

type fakeCall struct {
	Kind    string
	BaseURL string
	UserID  domain.UserID
	Request domain.Request
}

type handler func(req domain.Request) (any, error)

type fakeNode struct {
	params       domain.ServiceParams
	discoverErr  error
	gate         chan struct{}
	providers    map[domain.UserID][]string
	providersErr error
	handlers     map[string]handler
}

type fakeTransport struct {
	mu    sync.Mutex
	nodes map[string]*fakeNode
	calls []fakeCall
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{nodes: map[string]*fakeNode{}}
}

// node returns the node served at base, creating it on first use.
func (f *fakeTransport) node(base string) *fakeNode {
	f.mu.Lock()
	defer f.mu.Unlock()

	n, ok := f.nodes[base]
	if !ok {
		n = &fakeNode{
			providers: map[domain.UserID][]string{},
			handlers:  map[string]handler{},
		}
		f.nodes[base] = n
	}
	return n
}

func (f *fakeTransport) lookup(base string, c fakeCall) (*fakeNode, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls = append(f.calls, c)
	n, ok := f.nodes[base]
	return n, ok
}

func (f *fakeTransport) Discover(ctx context.Context, base string) (domain.ServiceParams, error) {
	n, ok := f.lookup(base, fakeCall{Kind: "discover", BaseURL: base})
	if !ok {
		return domain.ServiceParams{}, fmt.Errorf("dial %s: connection refused", base)
	}
	if n.gate != nil {
		select {
		case <-n.gate:
		case <-ctx.Done():
			return domain.ServiceParams{}, ctx.Err()
		}
	}
	if n.discoverErr != nil {
		return domain.ServiceParams{}, n.discoverErr
	}

	return domain.ServiceParams{AppID: n.params.AppID, Addresses: slices.Clone(n.params.Addresses)}, nil
}

func (f *fakeTransport) Providers(_ context.Context, base string, userID domain.UserID) ([]string, error) {
	n, ok := f.lookup(base, fakeCall{Kind: "providers", BaseURL: base, UserID: userID})
	if !ok {
		return nil, fmt.Errorf("dial %s: connection refused", base)
	}
	if n.providersErr != nil {
		return nil, n.providersErr
	}

	return slices.Clone(n.providers[userID]), nil
}

func (f *fakeTransport) Call(_ context.Context, base string, req domain.Request, out any) error {
	n, ok := f.lookup(base, fakeCall{Kind: "call", BaseURL: base, Request: req})
	if !ok {
		return fmt.Errorf("dial %s: connection refused", base)
	}

	h, ok := n.handlers[req.Op]
	if !ok {
		return fmt.Errorf("unknown op %q", req.Op)
	}

	result, err := h(req)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}

	data, err := json.Marshal(result)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, out)
}

func (f *fakeTransport) callsFor(kind string, op string) []fakeCall {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []fakeCall
	for _, c := range f.calls {
		if c.Kind != kind {
			continue
		}
		if op != "" && c.Request.Op != op {
			continue
		}
		out = append(out, c)
	}
	return out
}

// serveDiscovery makes candidate answer discovery with addrs.
func (f *fakeTransport) serveDiscovery(candidate string, addrs ...string) *fakeNode {
	n := f.node(candidate)
	n.params = domain.ServiceParams{AppID: testAppID, Addresses: addrs}
	return n
}

func (f *fakeTransport) host(base string, userID domain.UserID, providers ...string) {
	f.node(base).providers[userID] = providers
}

func (f *fakeTransport) handle(base string, op string, h handler) {
	f.node(base).handlers[op] = h
}

type fixedClock struct {
	now time.Time
}

func (c fixedClock) Now() time.Time {
	return c.now
}

type testEnv struct {
	settings  *fakeSettings
	transport *fakeTransport
	feed      *fakeFeedCache
	client    *Client
}

func newTestEnv(t *testing.T, prober fakeProber, candidates ...string) *testEnv {
	t.Helper()

	env := &testEnv{
		settings:  &fakeSettings{candidates: candidates},
		transport: newFakeTransport(),
		feed:      &fakeFeedCache{},
	}

	client, err := NewClient(Dependencies{
		Settings:  env.settings,
		Transport: env.transport,
		FeedCache: env.feed,
		Prober:    prober,
		Clock:     fixedClock{now: time.Date(2026, 2, 14, 12, 0, 0, 0, time.UTC)},
		Telemetry: Telemetry{Logger: zaptest.NewLogger(t)},
	})
	require.NoError(t, err)
	env.client = client

	return env
}

var errBoom = errors.New("boom")
