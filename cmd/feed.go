package cmd

import (
	"context"
	"fmt"

	feedrender "github.com/bnema/feedlink/internal/adapters/render/feed"
	"github.com/bnema/feedlink/internal/domain"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newFeedCmd(a *app) *cobra.Command {
	var more bool
	var cached bool
	var authors bool

	cmd := &cobra.Command{
		Use:   "feed",
		Short: "Fetch and print the timeline",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var tweets []domain.Tweet
			var err error

			if cached {
				tweets, err = a.feed.Tweets(cmd.Context())
				if err != nil {
					return fmt.Errorf("load cached feed: %w", err)
				}
			} else {
				if _, err := a.bootstrap(cmd); err != nil {
					return fmt.Errorf("resolve session: %w", err)
				}

				fetch := a.client.Service.FetchTweets
				if more {
					fetch = a.client.Service.FetchMoreTweets
				}
				tweets, err = fetch(cmd.Context())
				if err != nil {
					return err
				}

				if authors {
					a.lookupAuthors(cmd.Context(), tweets)
				}
			}

			return a.write(cmd, tweets, func() (string, error) {
				return feedrender.RenderTimeline(tweets, a.renderOptions())
			})
		},
	}

	cmd.Flags().BoolVar(&more, "more", false, "Fetch the page after the last cached tweet")
	cmd.Flags().BoolVar(&cached, "cached", false, "Print the cached feed without contacting the backend")
	cmd.Flags().BoolVar(&authors, "authors", false, "Look up author profiles for display names")
	cmd.MarkFlagsMutuallyExclusive("more", "cached")

	return cmd
}

// lookupAuthors fills the user directory for display. Failures only cost a
// display name.
func (a *app) lookupAuthors(ctx context.Context, tweets []domain.Tweet) {
	seen := map[domain.UserID]bool{}
	for _, tweet := range tweets {
		if seen[tweet.AuthorID] {
			continue
		}
		seen[tweet.AuthorID] = true

		if _, ok := a.client.Service.CachedUser(tweet.AuthorID); ok {
			continue
		}
		if _, err := a.client.Service.GetUser(ctx, tweet.AuthorID); err != nil {
			a.logger.Warn("author lookup failed", zap.String("user", string(tweet.AuthorID)), zap.Error(err))
		}
	}
}
