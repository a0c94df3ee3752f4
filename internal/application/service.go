package application

import (
	"context"
	"errors"
	"fmt"

	"github.com/bnema/feedlink/internal/domain"
	"github.com/bnema/feedlink/internal/ports"
)

const DefaultPageSize = 20

var errSessionNotResolved = errors.New("session not resolved")

// Service exposes the feed and directory operations. Every call goes
// through the invoker.
type Service struct {
	invoker   *Invoker
	transport ports.Transport
	selector  *AddressSelector
	directory *UserDirectory
	store     *SessionStore
	feed      ports.FeedCache
	pageSize  int
}

func NewService(invoker *Invoker, transport ports.Transport, selector *AddressSelector, directory *UserDirectory, store *SessionStore, feed ports.FeedCache, pageSize int) *Service {
	if selector == nil {
		selector = NewAddressSelector(nil)
	}
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}

	return &Service{
		invoker:   invoker,
		transport: transport,
		selector:  selector,
		directory: directory,
		store:     store,
		feed:      feed,
		pageSize:  pageSize,
	}
}

func (s *Service) CurrentSession() domain.Session {
	return s.store.Snapshot()
}

// CachedUser serves display paths from the directory. It never performs a
// remote lookup.
func (s *Service) CachedUser(id domain.UserID) (domain.User, bool) {
	return s.directory.Lookup(id)
}

// FetchTweets loads the first feed page.
func (s *Service) FetchTweets(ctx context.Context) ([]domain.Tweet, error) {
	return s.fetchFeed(ctx, 0)
}

// FetchMoreTweets loads the page after the last cached tweet.
func (s *Service) FetchMoreTweets(ctx context.Context) ([]domain.Tweet, error) {
	rank, err := s.feed.LastFeedRank(ctx)
	if err != nil {
		return nil, fmt.Errorf("load last feed rank: %w", err)
	}

	return s.fetchFeed(ctx, rank)
}

func (s *Service) fetchFeed(ctx context.Context, startRank int) ([]domain.Tweet, error) {
	endRank := startRank + s.pageSize

	tweets, err := Invoke(ctx, s.invoker, domain.OpFetchFeed, func(ctx context.Context, session domain.Session) ([]domain.Tweet, error) {
		var out []domain.Tweet
		if err := s.call(ctx, session, session.BaseURL, domain.OpFetchFeed, &out, startRank, endRank); err != nil {
			return nil, err
		}
		return out, nil
	})
	if err != nil {
		return nil, fmt.Errorf("fetch feed: %w", err)
	}

	if err := s.feed.SaveFeed(ctx, tweets); err != nil {
		return nil, fmt.Errorf("save feed page: %w", err)
	}

	return tweets, nil
}

func (s *Service) ToggleFavorite(ctx context.Context, id domain.TweetID) (domain.Tweet, error) {
	return s.toggle(ctx, domain.OpToggleFavorite, id)
}

func (s *Service) ToggleRetweet(ctx context.Context, id domain.TweetID) (domain.Tweet, error) {
	return s.toggle(ctx, domain.OpToggleRetweet, id)
}

func (s *Service) ToggleBookmark(ctx context.Context, id domain.TweetID) (domain.Tweet, error) {
	return s.toggle(ctx, domain.OpToggleBookmark, id)
}

func (s *Service) toggle(ctx context.Context, op string, id domain.TweetID) (domain.Tweet, error) {
	tweet, err := Invoke(ctx, s.invoker, op, func(ctx context.Context, session domain.Session) (domain.Tweet, error) {
		var out domain.Tweet
		err := s.call(ctx, session, session.BaseURL, op, &out, string(id))
		return out, err
	})
	if err != nil {
		return domain.Tweet{}, fmt.Errorf("%s %s: %w", op, id, err)
	}

	return tweet, nil
}

func (s *Service) DeleteTweet(ctx context.Context, id domain.TweetID) (domain.TweetID, error) {
	deleted, err := Invoke(ctx, s.invoker, domain.OpDeleteTweet, func(ctx context.Context, session domain.Session) (domain.TweetID, error) {
		var out domain.TweetID
		err := s.call(ctx, session, session.BaseURL, domain.OpDeleteTweet, &out, string(id))
		return out, err
	})
	if err != nil {
		return "", fmt.Errorf("delete tweet %s: %w", id, err)
	}

	return deleted, nil
}

// GetUser resolves id to a fresh record served by one of its providers.
func (s *Service) GetUser(ctx context.Context, id domain.UserID) (domain.User, error) {
	user, err := Invoke(ctx, s.invoker, domain.OpGetUser, func(ctx context.Context, session domain.Session) (domain.User, error) {
		return s.lookupUser(ctx, session, id)
	})
	if err != nil {
		return domain.User{}, fmt.Errorf("get user %s: %w", id, err)
	}

	s.directory.Insert(user)

	return user, nil
}

func (s *Service) lookupUser(ctx context.Context, session domain.Session, id domain.UserID) (domain.User, error) {
	if !session.Resolved() {
		return domain.User{}, errSessionNotResolved
	}

	providers, err := s.transport.Providers(ctx, session.BaseURL, id)
	if err != nil {
		return domain.User{}, fmt.Errorf("lookup providers: %w", err)
	}
	if len(providers) == 0 {
		return domain.User{}, fmt.Errorf("%w: %s", domain.ErrUserNotHosted, id)
	}

	provider, ok := s.selector.Select(ctx, providers)
	if !ok {
		return domain.User{}, fmt.Errorf("%w: %s has no accessible provider", domain.ErrUserNotHosted, id)
	}

	var user domain.User
	if err := s.call(ctx, session, provider, domain.OpGetUser, &user, string(id)); err != nil {
		return domain.User{}, err
	}
	if user.ID == "" {
		return domain.User{}, fmt.Errorf("%w: %s", domain.ErrUserNotFound, id)
	}
	if user.ID != id {
		return domain.User{}, fmt.Errorf("get user %s: backend returned %s", id, user.ID)
	}

	user = user.WithHostIDs(providers).WithBaseURL(provider)

	// A backend-supplied writable address must pass the same selection as
	// providers. Otherwise writes go to the probed provider.
	writable := ""
	if user.WritableURL != "" {
		if selected, ok := s.selector.Select(ctx, []string{user.WritableURL}); ok {
			writable = selected
		}
	}

	return user.WithWritableURL(writable), nil
}

func (s *Service) call(ctx context.Context, session domain.Session, baseURL string, op string, out any, args ...any) error {
	if !session.Resolved() || baseURL == "" {
		return errSessionNotResolved
	}

	return s.transport.Call(ctx, baseURL, domain.NewRequest(session, op, args...), out)
}
