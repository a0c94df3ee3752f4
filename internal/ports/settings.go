package ports

import (
	"context"

	"github.com/bnema/feedlink/internal/domain"
)

type Settings interface {
	CandidateAddresses(ctx context.Context) ([]string, error)
	PersistedUserID(ctx context.Context) (domain.UserID, error)
	SetPersistedUserID(ctx context.Context, id domain.UserID) error
}
