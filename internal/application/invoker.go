package application

import (
	"context"
	"errors"
	"fmt"

	"github.com/bnema/feedlink/internal/domain"
	"go.uber.org/zap"
)

// MaxAttempts bounds every invocation: the initial call plus one retry after
// re-resolution.
const MaxAttempts = 2

// Reresolver re-establishes the session for a user id.
type Reresolver interface {
	Resolve(ctx context.Context, knownUserID domain.UserID) (domain.Session, error)
}

// Operation performs one remote call against the given session.
type Operation func(ctx context.Context, session domain.Session) error

// Invoker runs operations against the current session. A failed attempt
// triggers one re-resolution and one retry against the fresh session.
type Invoker struct {
	store    *SessionStore
	resolver Reresolver
	tel      Telemetry
}

func NewInvoker(store *SessionStore, resolver Reresolver, tel Telemetry) *Invoker {
	return &Invoker{
		store:    store,
		resolver: resolver,
		tel:      tel.named("invoker"),
	}
}

func (i *Invoker) Do(ctx context.Context, name string, op Operation) error {
	log := i.tel.Logger.With(zap.String("op", name))

	var lastErr error
	for attempt := 1; attempt <= MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := op(ctx, i.store.Snapshot())
		i.tel.Recorder.Attempt(name, err)
		if err == nil {
			return nil
		}
		lastErr = err

		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		log.Debug("attempt failed", zap.Int("attempt", attempt), zap.Error(err))

		if attempt == MaxAttempts {
			break
		}

		_, resolveErr := i.resolver.Resolve(ctx, i.store.Snapshot().KnownUserID())
		i.tel.Recorder.Reresolution(resolveErr)
		if resolveErr != nil {
			if isCancellation(resolveErr) && ctx.Err() != nil {
				return resolveErr
			}
			log.Warn("re-resolution failed", zap.Error(resolveErr))
			return fmt.Errorf("%w: %s: %w", domain.ErrAllRetriesFailed, name, errors.Join(lastErr, resolveErr))
		}
	}

	log.Warn("giving up", zap.Int("attempts", MaxAttempts), zap.Error(lastErr))
	return fmt.Errorf("%w: %s: %w", domain.ErrAllRetriesFailed, name, lastErr)
}

// Invoke is Do for operations that produce a value.
func Invoke[T any](ctx context.Context, inv *Invoker, name string, op func(ctx context.Context, session domain.Session) (T, error)) (T, error) {
	var out T
	err := inv.Do(ctx, name, func(ctx context.Context, session domain.Session) error {
		v, err := op(ctx, session)
		if err != nil {
			return err
		}
		out = v
		return nil
	})
	return out, err
}
