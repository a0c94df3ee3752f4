package ports

import (
	"context"

	"github.com/bnema/feedlink/internal/domain"
)

// Transport is the remote procedure call primitive. Implementations decode
// the call result into out.
type Transport interface {
	Discover(ctx context.Context, baseURL string) (domain.ServiceParams, error)
	Providers(ctx context.Context, baseURL string, userID domain.UserID) ([]string, error)
	Call(ctx context.Context, baseURL string, req domain.Request, out any) error
}
