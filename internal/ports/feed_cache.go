package ports

import (
	"context"

	"github.com/bnema/feedlink/internal/domain"
)

type FeedCache interface {
	LastFeedRank(ctx context.Context) (int, error)
	SaveFeed(ctx context.Context, tweets []domain.Tweet) error
}
