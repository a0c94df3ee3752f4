package cmd

import (
	"context"
	"fmt"

	feedrender "github.com/bnema/feedlink/internal/adapters/render/feed"
	"github.com/bnema/feedlink/internal/domain"
	"github.com/spf13/cobra"
)

func newTweetCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tweet",
		Short: "Toggle state on a tweet or delete it",
	}

	cmd.AddCommand(
		newTweetToggleCmd(a, "like", "Toggle the favorite flag", a.toggleFavorite),
		newTweetToggleCmd(a, "retweet", "Toggle the retweet flag", a.toggleRetweet),
		newTweetToggleCmd(a, "bookmark", "Toggle the bookmark flag", a.toggleBookmark),
		newTweetDeleteCmd(a),
	)

	return cmd
}

type toggleFunc func(context.Context, domain.TweetID) (domain.Tweet, error)

func (a *app) toggleFavorite(ctx context.Context, id domain.TweetID) (domain.Tweet, error) {
	return a.client.Service.ToggleFavorite(ctx, id)
}

func (a *app) toggleRetweet(ctx context.Context, id domain.TweetID) (domain.Tweet, error) {
	return a.client.Service.ToggleRetweet(ctx, id)
}

func (a *app) toggleBookmark(ctx context.Context, id domain.TweetID) (domain.Tweet, error) {
	return a.client.Service.ToggleBookmark(ctx, id)
}

func newTweetToggleCmd(a *app, use string, short string, toggle toggleFunc) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <tweet-id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := a.bootstrap(cmd); err != nil {
				return fmt.Errorf("resolve session: %w", err)
			}

			tweet, err := toggle(cmd.Context(), domain.TweetID(args[0]))
			if err != nil {
				return err
			}

			return a.write(cmd, tweet, func() (string, error) {
				return feedrender.RenderTweet(tweet, a.renderOptions())
			})
		},
	}
}

func newTweetDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <tweet-id>",
		Short: "Delete a tweet",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := a.bootstrap(cmd); err != nil {
				return fmt.Errorf("resolve session: %w", err)
			}

			deleted, err := a.client.Service.DeleteTweet(cmd.Context(), domain.TweetID(args[0]))
			if err != nil {
				return err
			}

			return a.write(cmd, map[string]domain.TweetID{"deleted": deleted}, func() (string, error) {
				return "deleted " + string(deleted), nil
			})
		},
	}
}
