package cmd

import (
	"errors"
	"fmt"
	"strings"

	feedrender "github.com/bnema/feedlink/internal/adapters/render/feed"
	"github.com/bnema/feedlink/internal/domain"
	"github.com/spf13/cobra"
)

func newLoginCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "login <user-id>",
		Short: "Persist a user id and resolve a session serving it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := domain.UserID(strings.TrimSpace(args[0]))
			if id == "" || id == domain.GuestUserID {
				return errors.New("login requires a non-guest user id")
			}

			ctx := cmd.Context()
			previous, err := a.settings.PersistedUserID(ctx)
			if err != nil {
				return fmt.Errorf("load persisted user: %w", err)
			}

			if err := a.settings.SetPersistedUserID(ctx, id); err != nil {
				return fmt.Errorf("persist user: %w", err)
			}

			session, err := a.bootstrap(cmd)
			if err != nil {
				if rollbackErr := a.settings.SetPersistedUserID(ctx, previous); rollbackErr != nil {
					return errors.Join(fmt.Errorf("login %s: %w", id, err), fmt.Errorf("restore previous user: %w", rollbackErr))
				}
				return fmt.Errorf("login %s: %w", id, err)
			}

			if previous != id {
				if err := a.feed.Clear(ctx); err != nil {
					return fmt.Errorf("clear feed cache: %w", err)
				}
			}

			return a.write(cmd, session, func() (string, error) {
				return feedrender.RenderSession(session)
			})
		},
	}
}

func newLogoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the persisted user and fall back to the guest identity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if err := a.settings.SetPersistedUserID(ctx, ""); err != nil {
				return fmt.Errorf("clear persisted user: %w", err)
			}
			if err := a.feed.Clear(ctx); err != nil {
				return fmt.Errorf("clear feed cache: %w", err)
			}

			_, err := fmt.Fprintln(cmd.OutOrStdout(), "logged out")
			return err
		},
	}
}
