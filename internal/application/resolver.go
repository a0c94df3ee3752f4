package application

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/bnema/feedlink/internal/domain"
	"github.com/bnema/feedlink/internal/ports"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const (
	ResolutionResolved  = "resolved"
	ResolutionExhausted = "exhausted"
	ResolutionNotHosted = "not_hosted"
	ResolutionAborted   = "aborted"
)

var (
	errMissingAppID         = errors.New("discovery response missing app id")
	errNoReachableAddresses = errors.New("no reachable address")
)

// Resolver walks the candidate catalog and establishes the session against
// the first candidate that yields a reachable address.
type Resolver struct {
	settings  ports.Settings
	transport ports.Transport
	selector  *AddressSelector
	directory *UserDirectory
	store     *SessionStore
	tel       Telemetry

	group  singleflight.Group
	passMu sync.Mutex

	observerMu sync.Mutex
	observer   func(candidate string)
}

func NewResolver(settings ports.Settings, transport ports.Transport, selector *AddressSelector, directory *UserDirectory, store *SessionStore, tel Telemetry) *Resolver {
	if selector == nil {
		selector = NewAddressSelector(nil)
	}

	return &Resolver{
		settings:  settings,
		transport: transport,
		selector:  selector,
		directory: directory,
		store:     store,
		tel:       tel.named("resolver"),
	}
}

// ObserveCandidates registers fn to be called with each candidate as a pass
// starts trying it. A nil fn removes the observer.
func (r *Resolver) ObserveCandidates(fn func(candidate string)) {
	r.observerMu.Lock()
	defer r.observerMu.Unlock()

	r.observer = fn
}

func (r *Resolver) notifyCandidate(candidate string) {
	r.observerMu.Lock()
	fn := r.observer
	r.observerMu.Unlock()

	if fn != nil {
		fn(candidate)
	}
}

// Bootstrap resolves for the persisted user, or as guest when none is
// persisted.
func (r *Resolver) Bootstrap(ctx context.Context) (domain.Session, error) {
	id, err := r.settings.PersistedUserID(ctx)
	if err != nil {
		return domain.Session{}, fmt.Errorf("load persisted user id: %w", err)
	}

	return r.Resolve(ctx, id)
}

// Resolve runs a resolution pass for knownUserID ("" or the guest id for
// logged-out use). Concurrent calls for the same id share one pass, and
// passes never overlap. On failure the current session is left untouched.
func (r *Resolver) Resolve(ctx context.Context, knownUserID domain.UserID) (domain.Session, error) {
	if knownUserID == domain.GuestUserID {
		knownUserID = ""
	}

	for {
		ch := r.group.DoChan(string(knownUserID), func() (any, error) {
			return r.resolve(ctx, knownUserID)
		})

		select {
		case <-ctx.Done():
			return domain.Session{}, ctx.Err()
		case res := <-ch:
			if res.Err != nil {
				// The shared pass ran on another caller's context.
				if res.Shared && isCancellation(res.Err) && ctx.Err() == nil {
					continue
				}
				return domain.Session{}, res.Err
			}
			return res.Val.(domain.Session).Clone(), nil
		}
	}
}

func (r *Resolver) resolve(ctx context.Context, knownUserID domain.UserID) (domain.Session, error) {
	r.passMu.Lock()
	defer r.passMu.Unlock()

	log := r.tel.Logger.With(zap.String("user_id", string(knownUserID)))

	r.directory.Clear()

	candidates, err := r.settings.CandidateAddresses(ctx)
	if err != nil {
		return domain.Session{}, fmt.Errorf("load candidate addresses: %w", err)
	}
	if len(candidates) == 0 {
		r.tel.Recorder.Resolution(ResolutionExhausted)
		return domain.Session{}, fmt.Errorf("%w: %w", domain.ErrResolutionExhausted, domain.ErrNoCandidates)
	}

	notHosted := false
	for i, candidate := range candidates {
		if err := ctx.Err(); err != nil {
			r.tel.Recorder.Resolution(ResolutionAborted)
			return domain.Session{}, err
		}

		r.notifyCandidate(candidate)
		session, err := r.tryCandidate(ctx, candidate, knownUserID)
		if err != nil {
			if errors.Is(err, domain.ErrUserNotHosted) {
				notHosted = true
			}
			log.Debug("skipping candidate",
				zap.Int("index", i),
				zap.String("candidate", candidate),
				zap.Error(err),
			)
			continue
		}

		if err := ctx.Err(); err != nil {
			r.tel.Recorder.Resolution(ResolutionAborted)
			return domain.Session{}, err
		}

		r.directory.Insert(session.User)
		r.store.commit(session)
		r.tel.Recorder.Resolution(ResolutionResolved)
		log.Info("session resolved",
			zap.String("candidate", candidate),
			zap.String("app_id", session.AppID),
			zap.String("base_url", session.BaseURL),
		)

		return session, nil
	}

	if err := ctx.Err(); err != nil {
		r.tel.Recorder.Resolution(ResolutionAborted)
		return domain.Session{}, err
	}

	if notHosted {
		r.tel.Recorder.Resolution(ResolutionNotHosted)
		log.Warn("user not hosted by any candidate")
		return domain.Session{}, fmt.Errorf("%w: %s", domain.ErrUserNotHosted, knownUserID)
	}

	r.tel.Recorder.Resolution(ResolutionExhausted)
	log.Warn("all candidates exhausted", zap.Int("candidates", len(candidates)))
	return domain.Session{}, domain.ErrResolutionExhausted
}

func (r *Resolver) tryCandidate(ctx context.Context, candidate string, knownUserID domain.UserID) (domain.Session, error) {
	params, err := r.transport.Discover(ctx, candidate)
	if err != nil {
		return domain.Session{}, fmt.Errorf("discover: %w", err)
	}
	if params.AppID == "" {
		return domain.Session{}, errMissingAppID
	}

	addr, ok := r.selector.Select(ctx, params.Addresses)
	if !ok {
		return domain.Session{}, errNoReachableAddresses
	}

	if knownUserID == "" {
		return domain.Session{
			AppID:   params.AppID,
			User:    domain.NewGuest(addr),
			BaseURL: addr,
		}, nil
	}

	providers, err := r.transport.Providers(ctx, addr, knownUserID)
	if err != nil {
		return domain.Session{}, fmt.Errorf("lookup providers: %w", err)
	}
	if len(providers) == 0 {
		return domain.Session{}, domain.ErrUserNotHosted
	}

	provider, ok := r.selector.Select(ctx, providers)
	if !ok {
		return domain.Session{}, fmt.Errorf("%w: no accessible provider among %d", domain.ErrUserNotHosted, len(providers))
	}

	user := r.store.Snapshot().User
	if user.ID != knownUserID {
		user = domain.User{ID: knownUserID}
	}
	user = user.WithHostIDs(providers).WithBaseURL(provider)

	return domain.Session{
		AppID:   params.AppID,
		User:    user,
		BaseURL: provider,
	}, nil
}

func isCancellation(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
